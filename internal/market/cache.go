package market

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Cache wraps a Source and memoizes quotes for a bounded duration to
// reduce upstream calls when many positions share a symbol. It is an
// explicit, injected object rather than package-level state so tests can
// construct isolated instances. Candle requests pass straight through.
type Cache struct {
	source Source
	ttl    time.Duration

	mu      sync.RWMutex
	entries map[string]cacheEntry

	// now is swappable in tests.
	now func() time.Time
}

type cacheEntry struct {
	quote     Quote
	fetchedAt time.Time
}

// NewCache creates a quote cache around source with the given TTL.
func NewCache(source Source, ttl time.Duration) *Cache {
	return &Cache{
		source:  source,
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

// GetQuote returns a cached quote when fresh, otherwise fetches from the
// underlying source. Concurrent misses on the same symbol may fetch
// redundantly; the last write wins, which is harmless for ephemeral quotes.
func (c *Cache) GetQuote(ctx context.Context, symbol string) (*Quote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	c.mu.RLock()
	entry, ok := c.entries[symbol]
	c.mu.RUnlock()
	if ok && c.now().Sub(entry.fetchedAt) < c.ttl {
		quote := entry.quote
		return &quote, nil
	}

	quote, err := c.source.GetQuote(ctx, symbol)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[symbol] = cacheEntry{quote: *quote, fetchedAt: c.now()}
	c.mu.Unlock()

	return quote, nil
}

// GetCandles delegates to the underlying source without caching.
func (c *Cache) GetCandles(ctx context.Context, symbol, rng string) ([]Candle, error) {
	return c.source.GetCandles(ctx, symbol, rng)
}
