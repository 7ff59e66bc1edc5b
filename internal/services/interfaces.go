package services

import (
	"context"

	"papertrade/internal/models"
	"papertrade/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, firstName, lastName string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id uint) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
}

// TradeResult is returned by buy and sell executions.
type TradeResult struct {
	Transaction *models.Transaction `json:"transaction"`
	Balance     float64             `json:"balance"`
}

// Holding is a position enriched with a live valuation. When the quote
// for a symbol cannot be fetched, PriceUnavailable is set and the price
// surfaces as zero rather than failing the whole portfolio read.
type Holding struct {
	models.Position
	CurrentPrice     float64 `json:"current_price"`
	CurrentValue     float64 `json:"current_value"`
	UnrealizedPnL    float64 `json:"unrealized_pnl"`
	PnLPercent       float64 `json:"pnl_percent"`
	PriceUnavailable bool    `json:"price_unavailable,omitempty"`
}

// Portfolio aggregates a user's holdings and cash.
type Portfolio struct {
	Holdings      []Holding `json:"holdings"`
	CashBalance   float64   `json:"cash_balance"`
	TotalValue    float64   `json:"total_value"`
	TotalCost     float64   `json:"total_cost"`
	UnrealizedPnL float64   `json:"unrealized_pnl"`
	PnLPercent    float64   `json:"pnl_percent"`
}

// TradeServicer defines the contract for the trade execution core. Buy,
// sell, and liquidation all converge on the same atomic
// balance+position+transaction mutation.
type TradeServicer interface {
	ExecuteBuy(ctx context.Context, userID uint, symbol string, quantity int64) (*TradeResult, error)
	ExecuteSell(ctx context.Context, userID uint, symbol string, quantity int64) (*TradeResult, error)
	// LiquidatePosition sells the entire remaining quantity of a position
	// at executionPrice on behalf of the stop-loss monitor. It is a safe
	// no-op when the position was already removed or changed.
	LiquidatePosition(ctx context.Context, position *models.Position, executionPrice float64) error
	GetPortfolio(ctx context.Context, userID uint) (*Portfolio, error)
	GetUserTransactions(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Transaction], error)
}

// StopLossServicer defines the contract for managing stop-loss triggers.
type StopLossServicer interface {
	SetStopLoss(ctx context.Context, userID uint, symbol string, kind models.StopLossKind, value float64) (*models.Position, error)
	ClearStopLoss(userID uint, symbol string) (*models.Position, error)
	// ListActivePositions returns every position across all users with an
	// active trigger, for the monitor's scan phase.
	ListActivePositions() ([]models.Position, error)
}
