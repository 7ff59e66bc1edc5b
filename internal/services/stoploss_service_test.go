package services

import (
	"context"
	"testing"

	"papertrade/internal/models"
	"papertrade/internal/testutil"
)

func TestSetStopLoss(t *testing.T) {
	ctx := context.Background()

	t.Run("absolute_price_trigger", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		quotes := testutil.NewStubQuoteSource(map[string]float64{"AAPL": 150})
		svc := NewStopLossService(db, quotes)
		user := testutil.CreateTestUser(t, db)
		testutil.CreateTestPosition(t, db, user.ID, "AAPL", 10, 150)

		position, err := svc.SetStopLoss(ctx, user.ID, "AAPL", models.StopLossKindPrice, 140)
		testutil.AssertNoError(t, err)

		if !position.StopLossActive {
			t.Error("expected stop-loss to be active")
		}
		testutil.AssertFloatEquals(t, 140, position.StopLossPrice, "trigger price")

		var stored models.Position
		testutil.AssertNoError(t, db.First(&stored, position.ID).Error)
		if !stored.StopLossActive {
			t.Error("expected persisted stop-loss to be active")
		}
		testutil.AssertFloatEquals(t, 140, stored.StopLossPrice, "persisted trigger price")
	})

	t.Run("percent_trigger_computed_from_quote", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		quotes := testutil.NewStubQuoteSource(map[string]float64{"AAPL": 200})
		svc := NewStopLossService(db, quotes)
		user := testutil.CreateTestUser(t, db)
		testutil.CreateTestPosition(t, db, user.ID, "AAPL", 10, 150)

		position, err := svc.SetStopLoss(ctx, user.ID, "AAPL", models.StopLossKindPercent, 10)
		testutil.AssertNoError(t, err)

		testutil.AssertFloatEquals(t, 180, position.StopLossPrice, "10 percent below 200")
		if position.StopLossKind == nil || *position.StopLossKind != models.StopLossKindPercent {
			t.Error("expected percent kind recorded")
		}
		testutil.AssertFloatEquals(t, 10, position.StopLossValue, "raw configured value")
	})

	t.Run("new_trigger_replaces_old", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		quotes := testutil.NewStubQuoteSource(map[string]float64{"AAPL": 150})
		svc := NewStopLossService(db, quotes)
		user := testutil.CreateTestUser(t, db)
		testutil.CreateTestPosition(t, db, user.ID, "AAPL", 10, 150)

		_, err := svc.SetStopLoss(ctx, user.ID, "AAPL", models.StopLossKindPrice, 130)
		testutil.AssertNoError(t, err)
		position, err := svc.SetStopLoss(ctx, user.ID, "AAPL", models.StopLossKindPrice, 145)
		testutil.AssertNoError(t, err)

		testutil.AssertFloatEquals(t, 145, position.StopLossPrice, "replaced trigger price")

		var count int64
		db.Model(&models.Position{}).Where("user_id = ? AND stop_loss_active = ?", user.ID, true).Count(&count)
		if count != 1 {
			t.Errorf("expected a single active trigger, got %d", count)
		}
	})

	t.Run("rejects_trigger_at_or_above_market", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		quotes := testutil.NewStubQuoteSource(map[string]float64{"AAPL": 150})
		svc := NewStopLossService(db, quotes)
		user := testutil.CreateTestUser(t, db)
		testutil.CreateTestPosition(t, db, user.ID, "AAPL", 10, 150)

		_, err := svc.SetStopLoss(ctx, user.ID, "AAPL", models.StopLossKindPrice, 150)
		testutil.AssertAppError(t, err, "INVALID_ORDER")

		_, err = svc.SetStopLoss(ctx, user.ID, "AAPL", models.StopLossKindPrice, 160)
		testutil.AssertAppError(t, err, "INVALID_ORDER")
	})

	t.Run("rejects_invalid_values", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		quotes := testutil.NewStubQuoteSource(map[string]float64{"AAPL": 150})
		svc := NewStopLossService(db, quotes)
		user := testutil.CreateTestUser(t, db)
		testutil.CreateTestPosition(t, db, user.ID, "AAPL", 10, 150)

		_, err := svc.SetStopLoss(ctx, user.ID, "AAPL", models.StopLossKindPrice, 0)
		testutil.AssertAppError(t, err, "INVALID_ORDER")

		_, err = svc.SetStopLoss(ctx, user.ID, "AAPL", models.StopLossKindPercent, 100)
		testutil.AssertAppError(t, err, "INVALID_ORDER")

		_, err = svc.SetStopLoss(ctx, user.ID, "AAPL", models.StopLossKind("trailing"), 10)
		testutil.AssertAppError(t, err, "INVALID_ORDER")
	})

	t.Run("position_not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		quotes := testutil.NewStubQuoteSource(map[string]float64{"AAPL": 150})
		svc := NewStopLossService(db, quotes)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.SetStopLoss(ctx, user.ID, "AAPL", models.StopLossKindPrice, 140)
		testutil.AssertAppError(t, err, "POSITION_NOT_FOUND")
	})

	t.Run("quote_unavailable", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		quotes := testutil.NewStubQuoteSource(nil)
		svc := NewStopLossService(db, quotes)
		user := testutil.CreateTestUser(t, db)
		testutil.CreateTestPosition(t, db, user.ID, "AAPL", 10, 150)

		_, err := svc.SetStopLoss(ctx, user.ID, "AAPL", models.StopLossKindPrice, 140)
		testutil.AssertAppError(t, err, "QUOTE_UNAVAILABLE")
	})
}

func TestClearStopLoss(t *testing.T) {
	t.Run("clears_active_trigger", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		quotes := testutil.NewStubQuoteSource(nil)
		svc := NewStopLossService(db, quotes)
		user := testutil.CreateTestUser(t, db)
		testutil.CreateTestPositionWithStopLoss(t, db, user.ID, "AAPL", 10, 150, 140)

		position, err := svc.ClearStopLoss(user.ID, "aapl")
		testutil.AssertNoError(t, err)

		if position.StopLossActive {
			t.Error("expected stop-loss cleared")
		}
		if position.StopLossKind != nil {
			t.Errorf("expected nil kind, got %s", *position.StopLossKind)
		}

		var stored models.Position
		testutil.AssertNoError(t, db.First(&stored, position.ID).Error)
		if stored.StopLossActive {
			t.Error("expected persisted stop-loss cleared")
		}
	})

	t.Run("position_not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		quotes := testutil.NewStubQuoteSource(nil)
		svc := NewStopLossService(db, quotes)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.ClearStopLoss(user.ID, "AAPL")
		testutil.AssertAppError(t, err, "POSITION_NOT_FOUND")
	})
}

func TestListActivePositions(t *testing.T) {
	t.Run("returns_only_active_triggers", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		quotes := testutil.NewStubQuoteSource(nil)
		svc := NewStopLossService(db, quotes)

		alice := testutil.CreateTestUser(t, db)
		bob := testutil.CreateTestUser(t, db)
		testutil.CreateTestPositionWithStopLoss(t, db, alice.ID, "AAPL", 10, 150, 140)
		testutil.CreateTestPositionWithStopLoss(t, db, bob.ID, "AAPL", 5, 160, 155)
		testutil.CreateTestPosition(t, db, alice.ID, "TSLA", 1, 900)

		positions, err := svc.ListActivePositions()
		testutil.AssertNoError(t, err)

		if len(positions) != 2 {
			t.Fatalf("expected 2 active positions, got %d", len(positions))
		}
		for _, p := range positions {
			if !p.StopLossActive {
				t.Errorf("expected active trigger on %s for user %d", p.Symbol, p.UserID)
			}
		}
	})
}
