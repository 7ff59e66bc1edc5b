package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"papertrade/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password, unique email, and
// the default starting balance.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	return CreateTestUserWithBalance(t, db, 100000)
}

// CreateTestUserWithBalance creates a user with the given cash balance.
func CreateTestUserWithBalance(t *testing.T, db *gorm.DB, balance float64) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    fmt.Sprintf("user%d@test.com", nextID()),
		Password: string(hash),
		Balance:  balance,
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestPosition creates a position for the given user.
func CreateTestPosition(t *testing.T, db *gorm.DB, userID uint, symbol string, quantity int64, avgPrice float64) *models.Position {
	t.Helper()

	position := &models.Position{
		UserID:   userID,
		Symbol:   symbol,
		Quantity: quantity,
		AvgPrice: avgPrice,
	}
	if err := db.Create(position).Error; err != nil {
		t.Fatalf("failed to create test position: %v", err)
	}
	return position
}

// CreateTestPositionWithStopLoss creates a position with an active
// absolute stop-loss trigger.
func CreateTestPositionWithStopLoss(t *testing.T, db *gorm.DB, userID uint, symbol string, quantity int64, avgPrice, triggerPrice float64) *models.Position {
	t.Helper()

	kind := models.StopLossKindPrice
	position := &models.Position{
		UserID:         userID,
		Symbol:         symbol,
		Quantity:       quantity,
		AvgPrice:       avgPrice,
		StopLossKind:   &kind,
		StopLossValue:  triggerPrice,
		StopLossPrice:  triggerPrice,
		StopLossActive: true,
	}
	if err := db.Create(position).Error; err != nil {
		t.Fatalf("failed to create test position: %v", err)
	}
	return position
}
