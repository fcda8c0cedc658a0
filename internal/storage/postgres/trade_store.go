package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"solana-volume-bot/internal/domain"
	"solana-volume-bot/internal/observability"
	"solana-volume-bot/internal/storage"
)

// TradeStore implements storage.TradeStore using PostgreSQL.
type TradeStore struct {
	pool    *Pool
	metrics *observability.Metrics
}

// NewTradeStore creates a new TradeStore. A nil metrics uses the default collectors.
func NewTradeStore(pool *Pool, metrics *observability.Metrics) *TradeStore {
	if metrics == nil {
		metrics = observability.DefaultMetrics
	}
	return &TradeStore{pool: pool, metrics: metrics}
}

// Compile-time interface check.
var _ storage.TradeStore = (*TradeStore)(nil)

const tradeColumns = `id, token, wallet, action, venue, signature, amount_lamports, token_amount,
	price_native, fee_lamports, dry_run, pnl_native, error, timestamp`

// Insert adds a new trade event. Returns ErrDuplicateKey if the ID exists.
func (s *TradeStore) Insert(ctx context.Context, e *domain.TradeEvent) (err error) {
	if e == nil || e.ID == "" || e.Token == "" {
		return storage.ErrInvalidInput
	}
	defer s.observe("insert", time.Now(), &err)

	query := `INSERT INTO trade_events (` + tradeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err = s.pool.Exec(ctx, query,
		e.ID,
		e.Token,
		e.Wallet,
		string(e.Action),
		e.Venue,
		e.Signature,
		int64(e.AmountLamports),
		int64(e.TokenAmount),
		e.PriceNative,
		int64(e.FeeLamports),
		e.DryRun,
		e.PnLNative,
		e.Err,
		e.Timestamp.UTC(),
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert trade event: %w", err)
	}
	return nil
}

// GetByToken retrieves all events for a token, ordered by timestamp ASC.
func (s *TradeStore) GetByToken(ctx context.Context, token string) (_ []*domain.TradeEvent, err error) {
	defer s.observe("select", time.Now(), &err)

	query := `SELECT ` + tradeColumns + `
		FROM trade_events
		WHERE token = $1
		ORDER BY timestamp ASC, id ASC`

	rows, err := s.pool.Query(ctx, query, token)
	if err != nil {
		return nil, fmt.Errorf("get trade events by token: %w", err)
	}
	defer rows.Close()

	return scanTradeEvents(rows)
}

// Summary aggregates the events of a token in one query.
func (s *TradeStore) Summary(ctx context.Context, token string) (_ *storage.TradeSummary, err error) {
	defer s.observe("summary", time.Now(), &err)

	query := `
		SELECT
			COUNT(*) FILTER (WHERE error = '' AND action = 'BUY'),
			COUNT(*) FILTER (WHERE error = '' AND action = 'SELL'),
			COUNT(*) FILTER (WHERE error <> ''),
			COALESCE(SUM(amount_lamports) FILTER (WHERE error = '' AND action = 'BUY'), 0)::BIGINT,
			COALESCE(SUM(fee_lamports) FILTER (WHERE error = ''), 0)::BIGINT
		FROM trade_events
		WHERE token = $1
	`

	var volume, fees int64
	sum := &storage.TradeSummary{Token: token}
	err = s.pool.QueryRow(ctx, query, token).Scan(&sum.Buys, &sum.Sells, &sum.Failed, &volume, &fees)
	if err != nil {
		if isNotFoundError(err) {
			return sum, nil
		}
		return nil, fmt.Errorf("summarize trade events: %w", err)
	}
	sum.VolumeLamports = uint64(volume)
	sum.FeesLamports = uint64(fees)
	return sum, nil
}

func (s *TradeStore) observe(op string, start time.Time, err *error) {
	s.metrics.RecordDBQuery("postgres", op, time.Since(start).Seconds(), *err)
}

// scanTradeEvents scans multiple rows into a slice of TradeEvent.
func scanTradeEvents(rows pgx.Rows) ([]*domain.TradeEvent, error) {
	var events []*domain.TradeEvent

	for rows.Next() {
		var (
			e                      domain.TradeEvent
			action                 string
			amount, tokens, feeLam int64
		)
		err := rows.Scan(
			&e.ID,
			&e.Token,
			&e.Wallet,
			&action,
			&e.Venue,
			&e.Signature,
			&amount,
			&tokens,
			&e.PriceNative,
			&feeLam,
			&e.DryRun,
			&e.PnLNative,
			&e.Err,
			&e.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("scan trade event row: %w", err)
		}
		e.Action = domain.Action(action)
		e.AmountLamports = uint64(amount)
		e.TokenAmount = uint64(tokens)
		e.FeeLamports = uint64(feeLam)
		events = append(events, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trade event rows: %w", err)
	}

	return events, nil
}
