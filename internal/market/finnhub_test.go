package market

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFinnhubGetQuote(t *testing.T) {
	ctx := context.Background()

	t.Run("parses_quote", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("symbol") != "AAPL" {
				t.Errorf("expected symbol AAPL, got %s", r.URL.Query().Get("symbol"))
			}
			if r.URL.Query().Get("token") != "test-key" {
				t.Errorf("expected token test-key, got %s", r.URL.Query().Get("token"))
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"c":150.25,"d":1.5,"dp":1.01,"pc":148.75,"t":1700000000}`))
		}))
		defer server.Close()

		provider := NewFinnhubProvider(server.Client(), "test-key")
		provider.baseURL = server.URL

		quote, err := provider.GetQuote(ctx, "AAPL")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if quote.Price != 150.25 {
			t.Errorf("expected price 150.25, got %v", quote.Price)
		}
		if quote.PrevClose != 148.75 {
			t.Errorf("expected prev close 148.75, got %v", quote.PrevClose)
		}
		if quote.Symbol != "AAPL" {
			t.Errorf("expected symbol AAPL, got %s", quote.Symbol)
		}
	})

	t.Run("zero_price_is_error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"c":0,"d":0,"dp":0,"pc":0,"t":0}`))
		}))
		defer server.Close()

		provider := NewFinnhubProvider(server.Client(), "test-key")
		provider.baseURL = server.URL

		if _, err := provider.GetQuote(ctx, "UNKNOWN"); err == nil {
			t.Fatal("expected error for zero quote")
		}
	})

	t.Run("non_200_is_error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		provider := NewFinnhubProvider(server.Client(), "test-key")
		provider.baseURL = server.URL

		if _, err := provider.GetQuote(ctx, "AAPL"); err == nil {
			t.Fatal("expected error for rate-limited response")
		}
	})

	t.Run("missing_api_key_is_not_supported", func(t *testing.T) {
		provider := NewFinnhubProvider(http.DefaultClient, "")

		_, err := provider.GetQuote(ctx, "AAPL")
		if !errors.Is(err, ErrNotSupported) {
			t.Fatalf("expected ErrNotSupported, got %v", err)
		}
	})
}

func TestFinnhubGetCandles(t *testing.T) {
	provider := NewFinnhubProvider(http.DefaultClient, "test-key")

	_, err := provider.GetCandles(context.Background(), "AAPL", "1mo")
	if !errors.Is(err, ErrNotSupported) {
		t.Fatalf("expected ErrNotSupported, got %v", err)
	}
}
