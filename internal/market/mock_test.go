package market

import (
	"context"
	"math"
	"testing"
)

func TestMockProviderGetQuote(t *testing.T) {
	provider := NewMockProvider()
	ctx := context.Background()

	t.Run("known_symbol_near_base", func(t *testing.T) {
		quote, err := provider.GetQuote(ctx, "aapl")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if quote.Symbol != "AAPL" {
			t.Errorf("expected uppercased symbol, got %s", quote.Symbol)
		}
		if math.Abs(quote.Price-150) > 150*0.005 {
			t.Errorf("expected price within 0.5%% of 150, got %v", quote.Price)
		}
	})

	t.Run("unknown_symbol_is_stable_and_positive", func(t *testing.T) {
		first, err := provider.GetQuote(ctx, "ZZZZ")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		second, err := provider.GetQuote(ctx, "ZZZZ")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if first.Price <= 0 || second.Price <= 0 {
			t.Errorf("expected positive prices, got %v and %v", first.Price, second.Price)
		}
		// Same base, only the jitter differs.
		if first.PrevClose != second.PrevClose {
			t.Errorf("expected stable base price, got %v and %v", first.PrevClose, second.PrevClose)
		}
	})
}

func TestMockProviderGetCandles(t *testing.T) {
	provider := NewMockProvider()

	candles, err := provider.GetCandles(context.Background(), "AAPL", "1mo")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(candles) != 30 {
		t.Fatalf("expected 30 candles, got %d", len(candles))
	}
	for i, c := range candles {
		if c.High < c.Low {
			t.Errorf("candle %d: high %v below low %v", i, c.High, c.Low)
		}
		if i > 0 && !candles[i-1].Time.Before(c.Time) {
			t.Errorf("candle %d: timestamps not increasing", i)
		}
	}
}
