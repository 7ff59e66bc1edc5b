// Package stoploss runs the background monitor that liquidates positions
// when market price falls to or below their configured trigger.
package stoploss

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"papertrade/internal/market"
	"papertrade/internal/services"
)

// Monitor is a singleton background task that periodically scans active
// stop-loss triggers and hands triggered positions to the trade executor
// for liquidation. Ticks never overlap: if a cycle is still running when
// the next tick fires, the tick is skipped.
type Monitor struct {
	registry services.StopLossServicer
	trades   services.TradeServicer
	quotes   market.Source
	interval time.Duration
	log      *zap.SugaredLogger

	busy atomic.Bool
}

// NewMonitor creates a stop-loss monitor. The quote source must be one
// without the mock provider: liquidation commits ledger state.
func NewMonitor(registry services.StopLossServicer, trades services.TradeServicer, quotes market.Source, interval time.Duration, log *zap.SugaredLogger) *Monitor {
	return &Monitor{
		registry: registry,
		trades:   trades,
		quotes:   quotes,
		interval: interval,
		log:      log,
	}
}

// Start launches the monitor loop in a goroutine. It stops when ctx is
// cancelled.
func (m *Monitor) Start(ctx context.Context) {
	go m.loop(ctx)
}

func (m *Monitor) loop(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.log.Infow("stop-loss monitor started", "interval", m.interval.String())
	for {
		select {
		case <-ctx.Done():
			m.log.Info("stop-loss monitor stopped")
			return
		case <-ticker.C:
			if !m.busy.CompareAndSwap(false, true) {
				m.log.Debug("previous stop-loss cycle still running, skipping tick")
				continue
			}
			m.RunCycle(ctx)
			m.busy.Store(false)
		}
	}
}

// RunCycle performs one scan-and-evaluate pass. Each distinct symbol is
// quoted once regardless of how many users hold it. Failures are local:
// a symbol whose quote cannot be fetched, or a position whose liquidation
// fails, is logged and skipped without aborting the rest of the batch.
func (m *Monitor) RunCycle(ctx context.Context) {
	positions, err := m.registry.ListActivePositions()
	if err != nil {
		m.log.Errorw("stop-loss scan failed", "error", err)
		return
	}
	if len(positions) == 0 {
		return
	}

	prices := make(map[string]float64, len(positions))
	for i := range positions {
		symbol := positions[i].Symbol
		if _, seen := prices[symbol]; seen {
			continue
		}
		quote, err := m.quotes.GetQuote(ctx, symbol)
		if err != nil {
			m.log.Warnw("failed to fetch price for stop-loss check", "symbol", symbol, "error", err)
			continue
		}
		prices[symbol] = quote.Price
	}

	for i := range positions {
		position := positions[i]
		price, ok := prices[position.Symbol]
		if !ok {
			continue
		}
		if price > position.StopLossPrice {
			continue
		}

		m.log.Infow("stop-loss triggered",
			"symbol", position.Symbol,
			"user_id", position.UserID,
			"quantity", position.Quantity,
			"trigger_price", position.StopLossPrice,
			"execution_price", price,
		)
		if err := m.trades.LiquidatePosition(ctx, &position, price); err != nil {
			m.log.Errorw("stop-loss liquidation failed",
				"symbol", position.Symbol,
				"user_id", position.UserID,
				"error", err,
			)
			continue
		}
	}
}
