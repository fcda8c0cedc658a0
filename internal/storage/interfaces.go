package storage

import (
	"context"

	"solana-volume-bot/internal/domain"
)

// TradeStore provides access to trade_events storage.
type TradeStore interface {
	// Insert adds a new trade event. Returns ErrDuplicateKey if the event ID exists.
	Insert(ctx context.Context, e *domain.TradeEvent) error

	// GetByToken retrieves all events for a token, ordered by timestamp ASC.
	GetByToken(ctx context.Context, token string) ([]*domain.TradeEvent, error)

	// Summary aggregates the events of a token.
	Summary(ctx context.Context, token string) (*TradeSummary, error)
}

// TradeSummary aggregates trade events of one token.
type TradeSummary struct {
	Token          string
	Buys           int
	Sells          int
	Failed         int
	VolumeLamports uint64 // sum of successful BUY inputs
	FeesLamports   uint64
}

// PriceSampleStore provides access to price_samples storage.
type PriceSampleStore interface {
	// InsertBulk adds multiple samples. Fails entire batch on duplicate (token, timestamp_ms, source).
	InsertBulk(ctx context.Context, samples []*domain.PriceSample) error

	// GetByTimeRange retrieves samples for a token within [start, end] (inclusive), ordered by timestamp ASC.
	GetByTimeRange(ctx context.Context, token string, start, end int64) ([]*domain.PriceSample, error)
}
