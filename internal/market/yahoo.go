package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	yahooQuoteURL = "https://query1.finance.yahoo.com/v7/finance/quote"
	yahooChartURL = "https://query1.finance.yahoo.com/v8/finance/chart"
	yahooUA       = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7)"
)

// chartIntervals maps a requested range to the Yahoo chart interval.
var chartIntervals = map[string]string{
	"1d":  "5m",
	"5d":  "30m",
	"1mo": "1d",
	"3mo": "1d",
	"6mo": "1d",
	"1y":  "1d",
	"5y":  "1wk",
}

// yahooQuoteResponse is the top-level Yahoo Finance quote API response.
type yahooQuoteResponse struct {
	QuoteResponse struct {
		Result []yahooQuoteResult `json:"result"`
		Error  *json.RawMessage   `json:"error"`
	} `json:"quoteResponse"`
}

// yahooQuoteResult is a single quote result from Yahoo Finance.
type yahooQuoteResult struct {
	Symbol                     string  `json:"symbol"`
	RegularMarketPrice         float64 `json:"regularMarketPrice"`
	RegularMarketChange        float64 `json:"regularMarketChange"`
	RegularMarketChangePercent float64 `json:"regularMarketChangePercent"`
	RegularMarketPreviousClose float64 `json:"regularMarketPreviousClose"`
	RegularMarketTime          int64   `json:"regularMarketTime"`
}

// yahooChartResponse is the top-level Yahoo Finance chart API response.
type yahooChartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *json.RawMessage `json:"error"`
	} `json:"chart"`
}

// YahooProvider fetches quotes and historical candles from Yahoo Finance.
type YahooProvider struct {
	httpClient *http.Client
	quoteURL   string // overridable for tests
	chartURL   string // overridable for tests
}

// NewYahooProvider creates a new Yahoo Finance provider.
func NewYahooProvider(httpClient *http.Client) *YahooProvider {
	return &YahooProvider{httpClient: httpClient, quoteURL: yahooQuoteURL, chartURL: yahooChartURL}
}

// Name returns the provider's display name.
func (p *YahooProvider) Name() string { return "Yahoo Finance" }

// GetQuote fetches the current quote for a symbol. Bare symbols that fail
// are retried with the NSE suffix so Indian tickers resolve without the
// caller having to know the exchange.
func (p *YahooProvider) GetQuote(ctx context.Context, symbol string) (*Quote, error) {
	quote, err := p.fetchQuote(ctx, symbol)
	if err == nil {
		return quote, nil
	}

	if !strings.Contains(symbol, ".") && len(symbol) > 2 {
		if nseQuote, nseErr := p.fetchQuote(ctx, symbol+".NS"); nseErr == nil {
			nseQuote.Symbol = symbol
			return nseQuote, nil
		}
	}

	return nil, err
}

func (p *YahooProvider) fetchQuote(ctx context.Context, symbol string) (*Quote, error) {
	endpoint := p.quoteURL + "?symbols=" + url.QueryEscape(symbol)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", yahooUA)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var quoteResp yahooQuoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&quoteResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if len(quoteResp.QuoteResponse.Result) == 0 {
		return nil, fmt.Errorf("symbol %s not found in response", symbol)
	}

	result := quoteResp.QuoteResponse.Result[0]
	if result.RegularMarketPrice == 0 {
		return nil, fmt.Errorf("zero price for %s", symbol)
	}

	ts := time.Now().UTC()
	if result.RegularMarketTime > 0 {
		ts = time.Unix(result.RegularMarketTime, 0).UTC()
	}

	return &Quote{
		Symbol:    result.Symbol,
		Price:     result.RegularMarketPrice,
		Change:    result.RegularMarketChange,
		ChangePct: result.RegularMarketChangePercent,
		PrevClose: result.RegularMarketPreviousClose,
		Timestamp: ts,
	}, nil
}

// GetCandles fetches an OHLCV series for the given range.
func (p *YahooProvider) GetCandles(ctx context.Context, symbol, rng string) ([]Candle, error) {
	interval, ok := chartIntervals[rng]
	if !ok {
		return nil, fmt.Errorf("unsupported range %q", rng)
	}

	endpoint := fmt.Sprintf("%s/%s?range=%s&interval=%s", p.chartURL, url.PathEscape(symbol), rng, interval)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", yahooUA)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var chartResp yahooChartResponse
	if err := json.NewDecoder(resp.Body).Decode(&chartResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if len(chartResp.Chart.Result) == 0 {
		return nil, fmt.Errorf("no chart data for %s", symbol)
	}

	result := chartResp.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("no chart quotes for %s", symbol)
	}
	bars := result.Indicators.Quote[0]

	candles := make([]Candle, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		// Yahoo pads series with nulls for halted intervals; skip them.
		if i >= len(bars.Close) || bars.Close[i] == nil {
			continue
		}
		candle := Candle{
			Time:  time.Unix(ts, 0).UTC(),
			Close: *bars.Close[i],
		}
		if i < len(bars.Open) && bars.Open[i] != nil {
			candle.Open = *bars.Open[i]
		}
		if i < len(bars.High) && bars.High[i] != nil {
			candle.High = *bars.High[i]
		}
		if i < len(bars.Low) && bars.Low[i] != nil {
			candle.Low = *bars.Low[i]
		}
		if i < len(bars.Volume) && bars.Volume[i] != nil {
			candle.Volume = *bars.Volume[i]
		}
		candles = append(candles, candle)
	}

	return candles, nil
}
