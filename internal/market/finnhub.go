package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const finnhubBaseURL = "https://finnhub.io/api/v1"

// finnhubQuote is the Finnhub /quote response.
// c = current, d = change, dp = change percent, pc = previous close.
type finnhubQuote struct {
	Current       float64 `json:"c"`
	Change        float64 `json:"d"`
	ChangePercent float64 `json:"dp"`
	PrevClose     float64 `json:"pc"`
	Timestamp     int64   `json:"t"`
}

// FinnhubProvider fetches real-time quotes from Finnhub. It is first in
// the chain because Finnhub is usually more reliable for current prices.
type FinnhubProvider struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string // overridable for tests
}

// NewFinnhubProvider creates a new Finnhub quote provider.
func NewFinnhubProvider(httpClient *http.Client, apiKey string) *FinnhubProvider {
	return &FinnhubProvider{httpClient: httpClient, apiKey: apiKey, baseURL: finnhubBaseURL}
}

// Name returns the provider's display name.
func (p *FinnhubProvider) Name() string { return "Finnhub" }

// GetQuote fetches the current quote for a symbol.
func (p *FinnhubProvider) GetQuote(ctx context.Context, symbol string) (*Quote, error) {
	if p.apiKey == "" {
		return nil, ErrNotSupported
	}

	endpoint := fmt.Sprintf("%s/quote?symbol=%s&token=%s", p.baseURL, url.QueryEscape(symbol), url.QueryEscape(p.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var q finnhubQuote
	if err := json.NewDecoder(resp.Body).Decode(&q); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	// Finnhub reports unknown symbols as a zero quote rather than an error.
	if q.Current == 0 {
		return nil, fmt.Errorf("zero price for %s", symbol)
	}

	ts := time.Now().UTC()
	if q.Timestamp > 0 {
		ts = time.Unix(q.Timestamp, 0).UTC()
	}

	return &Quote{
		Symbol:    symbol,
		Price:     q.Current,
		Change:    q.Change,
		ChangePct: q.ChangePercent,
		PrevClose: q.PrevClose,
		Timestamp: ts,
	}, nil
}

// GetCandles is not available on the free Finnhub tier; the chain falls
// through to Yahoo for historical series.
func (p *FinnhubProvider) GetCandles(_ context.Context, _, _ string) ([]Candle, error) {
	return nil, ErrNotSupported
}
