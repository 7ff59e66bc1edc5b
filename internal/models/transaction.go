package models

import (
	"time"

	"papertrade/internal/uuid"

	"gorm.io/gorm"
)

// TransactionSide represents the side of an executed trade.
type TransactionSide string

const (
	TransactionSideBuy  TransactionSide = "BUY"
	TransactionSideSell TransactionSide = "SELL"
)

// Transaction represents a single executed trade. Rows are append-only
// audit records, never updated or deleted after creation.
type Transaction struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Reference   string          `gorm:"type:uuid;uniqueIndex;not null" json:"reference"`
	UserID      uint            `gorm:"not null;index" json:"user_id"`
	Symbol      string          `gorm:"not null" json:"symbol"`
	Quantity    int64           `gorm:"not null" json:"quantity"`
	Price       float64         `gorm:"not null" json:"price"`
	Side        TransactionSide `gorm:"not null" json:"side"`
	TotalAmount float64         `gorm:"not null" json:"total_amount"`
	Date        time.Time       `gorm:"not null;index" json:"date"`
	IsStopLoss  bool            `gorm:"not null;default:false" json:"is_stop_loss"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

// BeforeCreate hook generates a UUIDv7 reference for new records
func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.Reference == "" {
		t.Reference = uuid.New()
	}
	if t.Date.IsZero() {
		t.Date = time.Now()
	}
	return nil
}
