// Package stats keeps running fee and trade counters.
package stats

import (
	"context"
	"sync"

	"solana-volume-bot/internal/domain"
)

// EstimatedLossPerTradeSOL approximates slippage and LP fees lost per trade.
const EstimatedLossPerTradeSOL = 0.0005

// Snapshot is a point-in-time view of the counters.
type Snapshot struct {
	TotalFeesPaidSOL float64 `json:"totalFeesPaid"`
	TotalTrades      int     `json:"totalTrades"`
	FailedTrades     int     `json:"failedTrades"`
	EstimatedSOLLoss float64 `json:"estimatedSolLoss"`
	DryRunPnLSOL     float64 `json:"dryRunPnl"`
}

// Tracker counts trades and fees. It implements events.Sink.
type Tracker struct {
	mu          sync.Mutex
	feeLamports uint64
	trades      int
	failed      int
	dryRunPnL   float64
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Publish records a trade event.
func (t *Tracker) Publish(_ context.Context, e domain.TradeEvent) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !e.Succeeded() {
		t.failed++
		return nil
	}
	if e.Signature == "" {
		return nil
	}
	t.trades++
	t.feeLamports += e.FeeLamports
	if e.DryRun {
		t.dryRunPnL += e.PnLNative
	}
	return nil
}

// AddFee records a fee paid outside a swap, such as a funding transfer.
func (t *Tracker) AddFee(lamports uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.feeLamports += lamports
}

// Snapshot returns the current counters.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	fees := domain.LamportsToSOL(t.feeLamports)
	return Snapshot{
		TotalFeesPaidSOL: fees,
		TotalTrades:      t.trades,
		FailedTrades:     t.failed,
		EstimatedSOLLoss: fees + float64(t.trades)*EstimatedLossPerTradeSOL,
		DryRunPnLSOL:     t.dryRunPnL,
	}
}

// Reset zeroes every counter.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.feeLamports = 0
	t.trades = 0
	t.failed = 0
	t.dryRunPnL = 0
}
