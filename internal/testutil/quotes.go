package testutil

import (
	"context"
	"strings"
	"sync"
	"time"

	"papertrade/internal/market"
)

// StubQuoteSource is a market.Source backed by a fixed price table. Tests
// mutate prices between calls to simulate market movement; symbols listed
// in Errors fail with the configured error.
type StubQuoteSource struct {
	mu     sync.Mutex
	Prices map[string]float64
	Errors map[string]error
	Calls  int
}

// NewStubQuoteSource creates a stub source with the given price table.
func NewStubQuoteSource(prices map[string]float64) *StubQuoteSource {
	if prices == nil {
		prices = map[string]float64{}
	}
	return &StubQuoteSource{Prices: prices, Errors: map[string]error{}}
}

// SetPrice updates the price for a symbol.
func (s *StubQuoteSource) SetPrice(symbol string, price float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Prices[strings.ToUpper(symbol)] = price
}

// SetError makes quotes for a symbol fail with the given error.
func (s *StubQuoteSource) SetError(symbol string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Errors[strings.ToUpper(symbol)] = err
}

// GetQuote implements market.Source.
func (s *StubQuoteSource) GetQuote(_ context.Context, symbol string) (*market.Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Calls++
	symbol = strings.ToUpper(symbol)
	if err, ok := s.Errors[symbol]; ok {
		return nil, err
	}
	price, ok := s.Prices[symbol]
	if !ok || price <= 0 {
		return nil, market.ErrQuoteUnavailable
	}
	return &market.Quote{Symbol: symbol, Price: price, Timestamp: time.Now()}, nil
}

// GetCandles implements market.Source. The stub serves quotes only.
func (s *StubQuoteSource) GetCandles(_ context.Context, _, _ string) ([]market.Candle, error) {
	return nil, market.ErrNotSupported
}
