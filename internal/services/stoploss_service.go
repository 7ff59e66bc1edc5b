package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "papertrade/internal/errors"
	"papertrade/internal/market"
	"papertrade/internal/models"
)

// stopLossService manages stop-loss triggers on positions. Triggers are
// downside protection only: a position is liquidated when price falls to
// or below the trigger, never on the way up.
type stopLossService struct {
	db     *gorm.DB
	quotes market.Source
}

// NewStopLossService creates a new StopLossServicer.
func NewStopLossService(db *gorm.DB, quotes market.Source) StopLossServicer {
	return &stopLossService{db: db, quotes: quotes}
}

// SetStopLoss attaches a trigger to an existing position, replacing any
// prior trigger. The absolute trigger price is computed from a live
// quote. A trigger at or above the current market price is rejected: it
// would fire on the very next monitor tick.
func (s *stopLossService) SetStopLoss(ctx context.Context, userID uint, symbol string, kind models.StopLossKind, value float64) (*models.Position, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidOrder, "symbol is required")
	}
	if value <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidOrder, "stop-loss value must be positive")
	}
	if kind == models.StopLossKindPercent && value >= 100 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidOrder, "percent drop must be below 100")
	}
	if kind != models.StopLossKindPrice && kind != models.StopLossKindPercent {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidOrder, "stop-loss kind must be price or percent")
	}

	position, err := s.getPosition(userID, symbol)
	if err != nil {
		return nil, err
	}

	quote, err := s.quotes.GetQuote(ctx, symbol)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrQuoteUnavailable, err)
	}

	var triggerPrice float64
	switch kind {
	case models.StopLossKindPrice:
		triggerPrice = value
	case models.StopLossKindPercent:
		triggerPrice = quote.Price * (1 - value/100)
	}

	if triggerPrice >= quote.Price {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidOrder, "stop-loss trigger must be below the current market price")
	}

	res := s.db.Model(&models.Position{}).
		Where("id = ?", position.ID).
		Updates(map[string]interface{}{
			"stop_loss_kind":   kind,
			"stop_loss_value":  value,
			"stop_loss_price":  triggerPrice,
			"stop_loss_active": true,
		})
	if res.Error != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected == 0 {
		// Position was sold while we were quoting.
		return nil, apperrors.ErrPositionNotFound
	}

	position.StopLossKind = &kind
	position.StopLossValue = value
	position.StopLossPrice = triggerPrice
	position.StopLossActive = true
	return position, nil
}

// ClearStopLoss removes the active trigger from a position.
func (s *stopLossService) ClearStopLoss(userID uint, symbol string) (*models.Position, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	position, err := s.getPosition(userID, symbol)
	if err != nil {
		return nil, err
	}

	res := s.db.Model(&models.Position{}).
		Where("id = ?", position.ID).
		Updates(map[string]interface{}{
			"stop_loss_kind":   nil,
			"stop_loss_value":  0,
			"stop_loss_price":  0,
			"stop_loss_active": false,
		})
	if res.Error != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.ErrPositionNotFound
	}

	position.StopLossKind = nil
	position.StopLossValue = 0
	position.StopLossPrice = 0
	position.StopLossActive = false
	return position, nil
}

// ListActivePositions returns every position with an active trigger.
func (s *stopLossService) ListActivePositions() ([]models.Position, error) {
	var positions []models.Position
	if err := s.db.Where("stop_loss_active = ?", true).Find(&positions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return positions, nil
}

func (s *stopLossService) getPosition(userID uint, symbol string) (*models.Position, error) {
	var position models.Position
	if err := s.db.Where("user_id = ? AND symbol = ?", userID, symbol).First(&position).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPositionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &position, nil
}
