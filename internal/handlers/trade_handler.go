package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "papertrade/internal/errors"
	"papertrade/internal/models"
	"papertrade/internal/pagination"
	"papertrade/internal/services"
)

// TradeHandler handles trade execution and portfolio requests
type TradeHandler struct {
	tradeService    services.TradeServicer
	stopLossService services.StopLossServicer
}

// NewTradeHandler creates a new TradeHandler
func NewTradeHandler(tradeService services.TradeServicer, stopLossService services.StopLossServicer) *TradeHandler {
	return &TradeHandler{
		tradeService:    tradeService,
		stopLossService: stopLossService,
	}
}

// OrderRequest represents a buy or sell order payload
type OrderRequest struct {
	Symbol   string `json:"symbol" binding:"required,symbol"`
	Quantity int64  `json:"quantity" binding:"required,gt=0"`
}

// SetStopLossRequest represents a stop-loss configuration payload.
// Kind selects how Value is interpreted: an absolute trigger price or a
// percentage drop below the current market price.
type SetStopLossRequest struct {
	Symbol string  `json:"symbol" binding:"required,symbol"`
	Kind   string  `json:"kind" binding:"required,stop_loss_kind"`
	Value  float64 `json:"value" binding:"required,gt=0"`
}

// Buy executes a market buy order
// @Summary     Buy shares
// @Description Buy shares at the current market price using paper cash
// @Tags        trades
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body OrderRequest true "Order details"
// @Success     200 {object} services.TradeResult "Executed trade"
// @Failure     400 {object} ErrorResponse "Invalid order or insufficient funds"
// @Failure     409 {object} ErrorResponse "Concurrent modification, retry"
// @Failure     503 {object} ErrorResponse "Quote unavailable"
// @Router      /trades/buy [post]
func (h *TradeHandler) Buy(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req OrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.tradeService.ExecuteBuy(c.Request.Context(), userID, req.Symbol, req.Quantity)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Sell executes a market sell order
// @Summary     Sell shares
// @Description Sell shares from an existing position at the current market price
// @Tags        trades
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body OrderRequest true "Order details"
// @Success     200 {object} services.TradeResult "Executed trade"
// @Failure     400 {object} ErrorResponse "Invalid order or insufficient shares"
// @Failure     404 {object} ErrorResponse "No position in symbol"
// @Failure     409 {object} ErrorResponse "Concurrent modification, retry"
// @Failure     503 {object} ErrorResponse "Quote unavailable"
// @Router      /trades/sell [post]
func (h *TradeHandler) Sell(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req OrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.tradeService.ExecuteSell(c.Request.Context(), userID, req.Symbol, req.Quantity)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetPortfolio returns the user's holdings valued at current prices
// @Summary     Get portfolio
// @Description Get all holdings with live valuations, cash balance, and aggregate P&L
// @Tags        portfolio
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.Portfolio "Portfolio with valuations"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /portfolio [get]
func (h *TradeHandler) GetPortfolio(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	portfolio, err := h.tradeService.GetPortfolio(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, portfolio)
}

// GetTransactions returns the user's transaction history
// @Summary     List transactions
// @Description Get the user's transaction history, most recent first
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       page query int false "Page number (default 1)"
// @Param       page_size query int false "Page size (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Transaction] "Paginated transactions"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /transactions [get]
func (h *TradeHandler) GetTransactions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	transactions, err := h.tradeService.GetUserTransactions(userID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, transactions)
}

// SetStopLoss configures a stop-loss trigger on a position
// @Summary     Set stop-loss
// @Description Set or replace the stop-loss trigger on a held position
// @Tags        stop-loss
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body SetStopLossRequest true "Stop-loss configuration"
// @Success     200 {object} models.Position "Position with trigger set"
// @Failure     400 {object} ErrorResponse "Invalid trigger"
// @Failure     404 {object} ErrorResponse "No position in symbol"
// @Failure     503 {object} ErrorResponse "Quote unavailable"
// @Router      /stop-loss [post]
func (h *TradeHandler) SetStopLoss(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req SetStopLossRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	position, err := h.stopLossService.SetStopLoss(c.Request.Context(), userID, req.Symbol, models.StopLossKind(req.Kind), req.Value)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"position": position})
}

// ClearStopLoss removes the stop-loss trigger from a position
// @Summary     Clear stop-loss
// @Description Remove the stop-loss trigger from a held position
// @Tags        stop-loss
// @Produce     json
// @Security    BearerAuth
// @Param       symbol path string true "Ticker symbol"
// @Success     200 {object} models.Position "Position with trigger cleared"
// @Failure     404 {object} ErrorResponse "No position in symbol"
// @Router      /stop-loss/{symbol} [delete]
func (h *TradeHandler) ClearStopLoss(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	symbol := c.Param("symbol")
	if symbol == "" {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "symbol is required"))
		return
	}

	position, err := h.stopLossService.ClearStopLoss(userID, symbol)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"position": position})
}
