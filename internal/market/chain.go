package market

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Chain tries an ordered list of providers until one returns a usable
// result. It implements Source.
type Chain struct {
	providers []Provider
	log       *zap.SugaredLogger
}

// NewChain creates a provider fallback chain. Order matters: earlier
// providers are preferred.
func NewChain(log *zap.SugaredLogger, providers ...Provider) *Chain {
	return &Chain{providers: providers, log: log}
}

// GetQuote returns the first usable quote from the chain. Quotes with a
// zero or negative price are rejected as unavailable rather than passed
// through to callers.
func (c *Chain) GetQuote(ctx context.Context, symbol string) (*Quote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	var lastErr error
	for _, p := range c.providers {
		quote, err := p.GetQuote(ctx, symbol)
		if err != nil {
			if !errors.Is(err, ErrNotSupported) {
				c.log.Debugw("quote fetch failed", "provider", p.Name(), "symbol", symbol, "error", err)
				lastErr = err
			}
			continue
		}
		if quote == nil || quote.Price <= 0 {
			c.log.Debugw("provider returned empty quote", "provider", p.Name(), "symbol", symbol)
			lastErr = fmt.Errorf("%s: zero price for %s", p.Name(), symbol)
			continue
		}
		return quote, nil
	}

	if lastErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuoteUnavailable, lastErr)
	}
	return nil, ErrQuoteUnavailable
}

// GetCandles returns the first non-empty historical series from the chain.
func (c *Chain) GetCandles(ctx context.Context, symbol, rng string) ([]Candle, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	var lastErr error
	for _, p := range c.providers {
		candles, err := p.GetCandles(ctx, symbol, rng)
		if err != nil {
			if !errors.Is(err, ErrNotSupported) {
				c.log.Debugw("candle fetch failed", "provider", p.Name(), "symbol", symbol, "range", rng, "error", err)
				lastErr = err
			}
			continue
		}
		if len(candles) == 0 {
			lastErr = fmt.Errorf("%s: empty series for %s", p.Name(), symbol)
			continue
		}
		return candles, nil
	}

	if lastErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuoteUnavailable, lastErr)
	}
	return nil, ErrQuoteUnavailable
}
