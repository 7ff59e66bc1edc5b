// Package market fetches current and historical prices from external data
// providers. Providers are tried in a fixed order until one succeeds; the
// mock provider must only ever be wired into display-only chains, never
// into a chain that feeds trade execution.
package market

import (
	"context"
	"errors"
	"time"
)

// Quote is the last traded price for a symbol. Quotes are ephemeral and
// never persisted.
type Quote struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Change    float64   `json:"change,omitempty"`
	ChangePct float64   `json:"change_pct,omitempty"`
	PrevClose float64   `json:"prev_close,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Candle is a single OHLCV bar of a historical series.
type Candle struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

var (
	// ErrQuoteUnavailable is returned when no provider could supply a
	// usable price. A zero or missing price is unavailable, not a value.
	ErrQuoteUnavailable = errors.New("market: quote unavailable")

	// ErrNotSupported is returned by providers that do not implement an
	// operation; the chain skips to the next provider.
	ErrNotSupported = errors.New("market: not supported by provider")
)

// Provider is a single upstream data source.
type Provider interface {
	Name() string
	GetQuote(ctx context.Context, symbol string) (*Quote, error)
	GetCandles(ctx context.Context, symbol, rng string) ([]Candle, error)
}

// Source is the consumer-facing quote interface used by the trade
// executor, the stop-loss monitor, and the market handlers.
type Source interface {
	GetQuote(ctx context.Context, symbol string) (*Quote, error)
	GetCandles(ctx context.Context, symbol, rng string) ([]Candle, error)
}
