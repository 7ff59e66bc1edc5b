package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"papertrade/internal/market"
)

type stubSource struct {
	quote   *market.Quote
	candles []market.Candle
	err     error
}

func (s *stubSource) GetQuote(_ context.Context, _ string) (*market.Quote, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.quote, nil
}

func (s *stubSource) GetCandles(_ context.Context, _, _ string) ([]market.Candle, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.candles, nil
}

var _ market.Source = (*stubSource)(nil)

func setupMarketRouter(handler *MarketHandler) *gin.Engine {
	r := gin.New()
	r.GET("/market/quote/:symbol", handler.GetQuote)
	r.GET("/market/candles/:symbol", handler.GetCandles)
	return r
}

func TestMarketHandler_GetQuote(t *testing.T) {
	t.Run("returns quote for symbol", func(t *testing.T) {
		src := &stubSource{quote: &market.Quote{Symbol: "AAPL", Price: 150, Timestamp: time.Now()}}
		r := setupMarketRouter(NewMarketHandler(src))

		rec := doRequest(r, "GET", "/market/quote/aapl", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		if result["price"].(float64) != 150 {
			t.Errorf("expected price 150, got %v", result["price"])
		}
	})

	t.Run("returns 503 when no provider has the symbol", func(t *testing.T) {
		src := &stubSource{err: market.ErrQuoteUnavailable}
		r := setupMarketRouter(NewMarketHandler(src))

		rec := doRequest(r, "GET", "/market/quote/ZZZZ", "")

		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "QUOTE_UNAVAILABLE")
	})
}

func TestMarketHandler_GetCandles(t *testing.T) {
	t.Run("returns series with default range", func(t *testing.T) {
		src := &stubSource{candles: []market.Candle{
			{Time: time.Now().Add(-24 * time.Hour), Open: 148, High: 151, Low: 147, Close: 150, Volume: 1000},
			{Time: time.Now(), Open: 150, High: 153, Low: 149, Close: 152, Volume: 1200},
		}}
		r := setupMarketRouter(NewMarketHandler(src))

		rec := doRequest(r, "GET", "/market/candles/AAPL", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		if result["range"] != "1mo" {
			t.Errorf("expected default range 1mo, got %v", result["range"])
		}
		candles := result["candles"].([]interface{})
		if len(candles) != 2 {
			t.Fatalf("expected 2 candles, got %d", len(candles))
		}
	})

	t.Run("returns 400 on unsupported range", func(t *testing.T) {
		r := setupMarketRouter(NewMarketHandler(&stubSource{}))

		rec := doRequest(r, "GET", "/market/candles/AAPL?range=42mo", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns 503 when chart data unavailable", func(t *testing.T) {
		src := &stubSource{err: market.ErrNotSupported}
		r := setupMarketRouter(NewMarketHandler(src))

		rec := doRequest(r, "GET", "/market/candles/AAPL?range=1y", "")

		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", rec.Code)
		}
	})
}
