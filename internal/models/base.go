package models

import "time"

// Base contains common columns for all tables. Rows are hard-deleted;
// positions must disappear permanently when fully sold so the unique
// (user, symbol) index never collides on a re-buy.
type Base struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
