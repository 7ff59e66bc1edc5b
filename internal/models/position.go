package models

// StopLossKind represents how a stop-loss trigger value is interpreted.
type StopLossKind string

const (
	// StopLossKindPrice sets the trigger at an absolute price.
	StopLossKindPrice StopLossKind = "price"
	// StopLossKindPercent sets the trigger a percentage below the price
	// at the time the stop-loss was configured.
	StopLossKindPercent StopLossKind = "percent"
)

// Position represents a holding of a symbol for a user. A row exists only
// while quantity > 0; it is deleted outright when the last share is sold.
// AvgPrice is the quantity-weighted mean purchase price and is recomputed
// on buys only, never on sells.
type Position struct {
	Base
	UserID   uint    `gorm:"not null;uniqueIndex:uq_positions_user_symbol" json:"user_id"`
	Symbol   string  `gorm:"not null;uniqueIndex:uq_positions_user_symbol" json:"symbol"`
	Quantity int64   `gorm:"not null" json:"quantity"`
	AvgPrice float64 `gorm:"not null" json:"avg_price"`

	// Stop-loss trigger. At most one trigger is active per position;
	// setting a new one replaces the old.
	StopLossKind   *StopLossKind `json:"stop_loss_kind,omitempty"`
	StopLossValue  float64       `json:"stop_loss_value,omitempty"`
	StopLossPrice  float64       `json:"stop_loss_price,omitempty"`
	StopLossActive bool          `gorm:"not null;default:false;index" json:"stop_loss_active"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

// CostBasis returns the total cost of the currently held shares.
func (p *Position) CostBasis() float64 {
	return p.AvgPrice * float64(p.Quantity)
}
