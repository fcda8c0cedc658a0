package domain

import "time"

// TradeEvent is emitted once per routed swap, successful or not.
type TradeEvent struct {
	ID        string // deterministic hash, see idhash.ComputeTradeEventID
	Token     string // mint address
	Wallet    string // public address of the trading wallet
	Action    Action
	Venue     string // adapter name, "dry-run" for simulated trades
	Signature string // on-chain or SIM_ signature; empty on failure

	AmountLamports uint64  // BUY input in lamports
	TokenAmount    uint64  // SELL input in raw token units
	PriceNative    float64 // SOL per token, dry run only
	FeeLamports    uint64  // network fee, 0 when unknown

	DryRun    bool
	PnLNative float64 // realized PnL of a simulated SELL
	Err       string  // failure reason, empty on success

	Timestamp time.Time
}

// Succeeded reports whether the swap landed.
func (e TradeEvent) Succeeded() bool {
	return e.Err == ""
}

// Position is a simulated holding accumulated by dry-run buys.
type Position struct {
	Tokens         float64
	InvestedNative float64
}
