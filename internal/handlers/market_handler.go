package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "papertrade/internal/errors"
	"papertrade/internal/market"
)

// MarketHandler serves display-only market data. Its quote source may
// include the mock provider, so its prices must never be used for
// execution decisions.
type MarketHandler struct {
	quotes market.Source
}

// NewMarketHandler creates a new MarketHandler
func NewMarketHandler(quotes market.Source) *MarketHandler {
	return &MarketHandler{quotes: quotes}
}

// candlesQuery binds the chart range query parameter
type candlesQuery struct {
	Range string `form:"range" binding:"omitempty,chart_range"`
}

// GetQuote returns the current price for a symbol
// @Summary     Get quote
// @Description Get the current price for a ticker symbol
// @Tags        market
// @Produce     json
// @Security    BearerAuth
// @Param       symbol path string true "Ticker symbol"
// @Success     200 {object} market.Quote "Current quote"
// @Failure     503 {object} ErrorResponse "Quote unavailable"
// @Router      /market/quote/{symbol} [get]
func (h *MarketHandler) GetQuote(c *gin.Context) {
	symbol := strings.ToUpper(strings.TrimSpace(c.Param("symbol")))
	if symbol == "" {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "symbol is required"))
		return
	}

	quote, err := h.quotes.GetQuote(c.Request.Context(), symbol)
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrQuoteUnavailable, err))
		return
	}

	c.JSON(http.StatusOK, quote)
}

// GetCandles returns a historical OHLCV series for a symbol
// @Summary     Get chart data
// @Description Get historical OHLCV candles for a ticker symbol
// @Tags        market
// @Produce     json
// @Security    BearerAuth
// @Param       symbol path string true "Ticker symbol"
// @Param       range query string false "Chart range (1d, 5d, 1mo, 3mo, 6mo, 1y, 5y)" default(1mo)
// @Success     200 {object} map[string]interface{} "Candle series"
// @Failure     400 {object} ErrorResponse "Invalid range"
// @Failure     503 {object} ErrorResponse "Chart data unavailable"
// @Router      /market/candles/{symbol} [get]
func (h *MarketHandler) GetCandles(c *gin.Context) {
	symbol := strings.ToUpper(strings.TrimSpace(c.Param("symbol")))
	if symbol == "" {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "symbol is required"))
		return
	}

	var q candlesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	if q.Range == "" {
		q.Range = "1mo"
	}

	candles, err := h.quotes.GetCandles(c.Request.Context(), symbol, q.Range)
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrQuoteUnavailable, err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"symbol":  symbol,
		"range":   q.Range,
		"candles": candles,
	})
}
