package market

import (
	"context"
	"hash/fnv"
	"math/rand"
	"strings"
	"sync"
	"time"
)

// demoPrices are stable base prices so mock quotes don't fluctuate wildly
// between requests for well-known symbols.
var demoPrices = map[string]float64{
	"RELIANCE": 2500.00,
	"TCS":      3500.00,
	"INFY":     1500.00,
	"AAPL":     150.00,
	"GOOGL":    2800.00,
	"TSLA":     900.00,
}

// MockProvider generates deterministic-ish offline prices. It exists for
// display-only endpoints when every upstream is down and for local
// development without API keys. It must never be placed in the provider
// chain used by trade execution or the stop-loss monitor.
type MockProvider struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewMockProvider creates a mock provider seeded from the clock.
func NewMockProvider() *MockProvider {
	return &MockProvider{rnd: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// Name returns the provider's display name.
func (p *MockProvider) Name() string { return "Mock" }

// basePrice returns the stable base price for a symbol. Unknown symbols
// hash to a value in [50, 1050) so the same symbol always starts near the
// same price.
func basePrice(symbol string) float64 {
	if price, ok := demoPrices[symbol]; ok {
		return price
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(symbol))
	return 50 + float64(h.Sum32()%100000)/100
}

// GetQuote returns the base price with a small random fluctuation (±0.5%).
func (p *MockProvider) GetQuote(_ context.Context, symbol string) (*Quote, error) {
	symbol = strings.ToUpper(symbol)
	base := basePrice(symbol)

	p.mu.Lock()
	jitter := base * 0.01 * (p.rnd.Float64() - 0.5)
	p.mu.Unlock()

	price := base + jitter
	return &Quote{
		Symbol:    symbol,
		Price:     price,
		Change:    jitter,
		ChangePct: jitter / base * 100,
		PrevClose: base,
		Timestamp: time.Now().UTC(),
	}, nil
}

// GetCandles returns a synthetic random walk ending near the base price.
func (p *MockProvider) GetCandles(_ context.Context, symbol, rng string) ([]Candle, error) {
	symbol = strings.ToUpper(symbol)
	base := basePrice(symbol)

	points := 30
	step := 24 * time.Hour
	if rng == "1d" {
		points = 78
		step = 5 * time.Minute
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	candles := make([]Candle, 0, points)
	price := base
	start := time.Now().UTC().Add(-time.Duration(points) * step)
	for i := 0; i < points; i++ {
		open := price
		price += base * 0.005 * (p.rnd.Float64() - 0.5)
		high := open
		low := open
		if price > high {
			high = price
		}
		if price < low {
			low = price
		}
		candles = append(candles, Candle{
			Time:   start.Add(time.Duration(i) * step),
			Open:   open,
			High:   high,
			Low:    low,
			Close:  price,
			Volume: int64(100000 + p.rnd.Intn(900000)),
		})
	}
	return candles, nil
}
