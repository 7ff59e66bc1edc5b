package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "papertrade/internal/errors"
	"papertrade/internal/market"
	"papertrade/internal/models"
	"papertrade/internal/pagination"
)

// tradeService executes buy/sell orders and stop-loss liquidations
// against the position ledger. Quote fetches happen before the database
// transaction opens so network I/O never runs while rows are held; the
// balance/position/transaction commit is then guarded with conditional
// updates so a concurrent mutation rolls the whole order back instead of
// applying partially.
type tradeService struct {
	db     *gorm.DB
	quotes market.Source
}

// NewTradeService creates a new TradeServicer. The quote source must not
// contain the mock provider: a fabricated price must never reach the
// ledger.
func NewTradeService(db *gorm.DB, quotes market.Source) TradeServicer {
	return &tradeService{db: db, quotes: quotes}
}

// normalizeOrder validates the order shape shared by buys and sells and
// returns the uppercased symbol.
func normalizeOrder(symbol string, quantity int64) (string, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return "", apperrors.WithMessage(apperrors.ErrInvalidOrder, "symbol is required")
	}
	if quantity <= 0 {
		return "", apperrors.WithMessage(apperrors.ErrInvalidOrder, "quantity must be a positive whole number")
	}
	return symbol, nil
}

// fetchPrice fetches the current price for a symbol, mapping any provider
// failure to QUOTE_UNAVAILABLE. The chain never yields a zero price.
func (s *tradeService) fetchPrice(ctx context.Context, symbol string) (float64, error) {
	quote, err := s.quotes.GetQuote(ctx, symbol)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrQuoteUnavailable, err)
	}
	return quote.Price, nil
}

// ExecuteBuy buys quantity shares of symbol at the current market price,
// debiting cash, upserting the position with a weighted-average cost
// recompute, and appending a BUY transaction in one atomic unit.
func (s *tradeService) ExecuteBuy(ctx context.Context, userID uint, symbol string, quantity int64) (*TradeResult, error) {
	symbol, err := normalizeOrder(symbol, quantity)
	if err != nil {
		return nil, err
	}

	price, err := s.fetchPrice(ctx, symbol)
	if err != nil {
		return nil, err
	}
	cost := price * float64(quantity)

	var txn models.Transaction
	var balance float64
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if txErr := tx.First(&user, userID).Error; txErr != nil {
			if errors.Is(txErr, gorm.ErrRecordNotFound) {
				return apperrors.ErrUserNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
		}
		if cost > user.Balance {
			return apperrors.ErrInsufficientFunds
		}

		// The balance check repeats in SQL so a concurrent spend between
		// the read and the update cannot overdraw the account.
		res := tx.Model(&models.User{}).
			Where("id = ? AND balance >= ?", userID, cost).
			Update("balance", gorm.Expr("balance - ?", cost))
		if res.Error != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.ErrInsufficientFunds
		}
		balance = user.Balance - cost

		var position models.Position
		txErr := tx.Where("user_id = ? AND symbol = ?", userID, symbol).First(&position).Error
		switch {
		case txErr == nil:
			newQuantity := position.Quantity + quantity
			newAvg := (position.AvgPrice*float64(position.Quantity) + cost) / float64(newQuantity)
			res := tx.Model(&models.Position{}).
				Where("id = ? AND quantity = ?", position.ID, position.Quantity).
				Updates(map[string]interface{}{"quantity": newQuantity, "avg_price": newAvg})
			if res.Error != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
			}
			if res.RowsAffected == 0 {
				return apperrors.ErrConflict
			}
		case errors.Is(txErr, gorm.ErrRecordNotFound):
			position = models.Position{
				UserID:   userID,
				Symbol:   symbol,
				Quantity: quantity,
				AvgPrice: price,
			}
			if createErr := tx.Create(&position).Error; createErr != nil {
				// A unique (user, symbol) violation means another buy for
				// the same symbol raced us past the existence check.
				return apperrors.Wrap(apperrors.ErrConflict, createErr)
			}
		default:
			return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
		}

		txn = models.Transaction{
			UserID:      userID,
			Symbol:      symbol,
			Quantity:    quantity,
			Price:       price,
			Side:        models.TransactionSideBuy,
			TotalAmount: cost,
			Date:        time.Now(),
		}
		if createErr := tx.Create(&txn).Error; createErr != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, createErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &TradeResult{Transaction: &txn, Balance: balance}, nil
}

// ExecuteSell sells quantity shares of symbol at the current market
// price, crediting cash and decrementing the position. The average cost
// basis never changes on a sell; a position that reaches zero quantity is
// deleted rather than kept as an empty row.
func (s *tradeService) ExecuteSell(ctx context.Context, userID uint, symbol string, quantity int64) (*TradeResult, error) {
	symbol, err := normalizeOrder(symbol, quantity)
	if err != nil {
		return nil, err
	}

	price, err := s.fetchPrice(ctx, symbol)
	if err != nil {
		return nil, err
	}
	proceeds := price * float64(quantity)

	var txn models.Transaction
	var balance float64
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var position models.Position
		if txErr := tx.Where("user_id = ? AND symbol = ?", userID, symbol).First(&position).Error; txErr != nil {
			if errors.Is(txErr, gorm.ErrRecordNotFound) {
				return apperrors.ErrPositionNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
		}
		if quantity > position.Quantity {
			return apperrors.ErrInsufficientShares
		}

		if txErr := sellFromPosition(tx, &position, quantity); txErr != nil {
			return txErr
		}

		newBalance, txErr := creditBalance(tx, userID, proceeds)
		if txErr != nil {
			return txErr
		}
		balance = newBalance

		txn = models.Transaction{
			UserID:      userID,
			Symbol:      symbol,
			Quantity:    quantity,
			Price:       price,
			Side:        models.TransactionSideSell,
			TotalAmount: proceeds,
			Date:        time.Now(),
		}
		if createErr := tx.Create(&txn).Error; createErr != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, createErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &TradeResult{Transaction: &txn, Balance: balance}, nil
}

// LiquidatePosition sells the entire remaining quantity of the position
// at executionPrice, the price that tripped the trigger rather than a
// fresh quote, so there is no second lookup to race against. If the
// position was already removed or its quantity changed since the
// monitor's scan, the conditional delete matches nothing and the call
// is a no-op.
func (s *tradeService) LiquidatePosition(ctx context.Context, position *models.Position, executionPrice float64) error {
	if position == nil || position.Quantity <= 0 || executionPrice < 0 {
		return nil
	}
	proceeds := executionPrice * float64(position.Quantity)

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Compare-and-delete on (id, quantity) is the idempotency guard:
		// at most one caller observes RowsAffected == 1.
		res := tx.Where("id = ? AND quantity = ?", position.ID, position.Quantity).
			Delete(&models.Position{})
		if res.Error != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
		}
		if res.RowsAffected == 0 {
			return nil
		}

		if _, txErr := creditBalance(tx, position.UserID, proceeds); txErr != nil {
			return txErr
		}

		txn := models.Transaction{
			UserID:      position.UserID,
			Symbol:      position.Symbol,
			Quantity:    position.Quantity,
			Price:       executionPrice,
			Side:        models.TransactionSideSell,
			TotalAmount: proceeds,
			Date:        time.Now(),
			IsStopLoss:  true,
		}
		if createErr := tx.Create(&txn).Error; createErr != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, createErr)
		}
		return nil
	})
}

// sellFromPosition decrements a position by quantity, deleting the row
// when it reaches exactly zero. Both paths compare-and-swap on the
// quantity read earlier in the same transaction.
func sellFromPosition(tx *gorm.DB, position *models.Position, quantity int64) error {
	if position.Quantity == quantity {
		res := tx.Where("id = ? AND quantity = ?", position.ID, position.Quantity).
			Delete(&models.Position{})
		if res.Error != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.ErrConflict
		}
		return nil
	}

	res := tx.Model(&models.Position{}).
		Where("id = ? AND quantity = ?", position.ID, position.Quantity).
		Update("quantity", position.Quantity-quantity)
	if res.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrConflict
	}
	return nil
}

// creditBalance adds proceeds to the user's cash balance and returns the
// resulting balance.
func creditBalance(tx *gorm.DB, userID uint, proceeds float64) (float64, error) {
	res := tx.Model(&models.User{}).
		Where("id = ?", userID).
		Update("balance", gorm.Expr("balance + ?", proceeds))
	if res.Error != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, apperrors.ErrUserNotFound
	}

	var user models.User
	if err := tx.First(&user, userID).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return user.Balance, nil
}

// GetPortfolio returns the user's holdings valued at current market
// prices. A quote failure for one symbol surfaces that holding with a
// zero price and the PriceUnavailable flag instead of failing the read.
func (s *tradeService) GetPortfolio(ctx context.Context, userID uint) (*Portfolio, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var positions []models.Position
	if err := s.db.Where("user_id = ?", userID).Order("symbol ASC").Find(&positions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	// One quote per distinct symbol; failures leave the symbol out.
	prices := make(map[string]float64, len(positions))
	for i := range positions {
		symbol := positions[i].Symbol
		if _, seen := prices[symbol]; seen {
			continue
		}
		quote, err := s.quotes.GetQuote(ctx, symbol)
		if err != nil {
			continue
		}
		prices[symbol] = quote.Price
	}

	portfolio := &Portfolio{
		Holdings:    make([]Holding, 0, len(positions)),
		CashBalance: user.Balance,
	}
	for i := range positions {
		p := positions[i]
		cost := p.CostBasis()

		holding := Holding{Position: p}
		if price, ok := prices[p.Symbol]; ok {
			holding.CurrentPrice = price
			holding.CurrentValue = price * float64(p.Quantity)
			holding.UnrealizedPnL = holding.CurrentValue - cost
			if cost > 0 {
				holding.PnLPercent = holding.UnrealizedPnL / cost * 100
			}
			portfolio.TotalValue += holding.CurrentValue
			portfolio.TotalCost += cost
			portfolio.UnrealizedPnL += holding.UnrealizedPnL
		} else {
			holding.PriceUnavailable = true
		}
		portfolio.Holdings = append(portfolio.Holdings, holding)
	}
	if portfolio.TotalCost > 0 {
		portfolio.PnLPercent = portfolio.UnrealizedPnL / portfolio.TotalCost * 100
	}

	return portfolio, nil
}

// GetUserTransactions returns the user's trade history, newest first.
func (s *tradeService) GetUserTransactions(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Transaction], error) {
	page.Defaults()

	var totalItems int64
	base := s.db.Model(&models.Transaction{}).Where("user_id = ?", userID)
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var transactions []models.Transaction
	if err := base.Order("date DESC, id DESC").Scopes(pagination.Paginate(page)).Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(transactions, page.Page, page.PageSize, totalItems)
	return &result, nil
}
