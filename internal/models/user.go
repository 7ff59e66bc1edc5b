package models

import "time"

// User represents the user model in the database. Balance is the free
// cash available for buys; it is only ever mutated atomically alongside
// a position change and a transaction append.
type User struct {
	Base
	Email       string     `gorm:"uniqueIndex;not null" json:"email"`
	Password    string     `gorm:"not null" json:"-"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	IsActive    bool       `gorm:"default:true" json:"is_active"`
	Balance     float64    `gorm:"not null;default:100000" json:"balance"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`

	Positions    []Position    `gorm:"foreignKey:UserID" json:"positions,omitempty"`
	Transactions []Transaction `gorm:"foreignKey:UserID" json:"transactions,omitempty"`
}
