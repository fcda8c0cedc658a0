package clickhouse

import (
	"context"
	"fmt"
	"time"

	"solana-volume-bot/internal/domain"
	"solana-volume-bot/internal/observability"
	"solana-volume-bot/internal/storage"
)

// PriceSampleStore implements storage.PriceSampleStore using ClickHouse.
type PriceSampleStore struct {
	conn    *Conn
	metrics *observability.Metrics
}

// NewPriceSampleStore creates a new PriceSampleStore. A nil metrics uses the
// default collectors.
func NewPriceSampleStore(conn *Conn, metrics *observability.Metrics) *PriceSampleStore {
	if metrics == nil {
		metrics = observability.DefaultMetrics
	}
	return &PriceSampleStore{conn: conn, metrics: metrics}
}

// Compile-time interface check.
var _ storage.PriceSampleStore = (*PriceSampleStore)(nil)

type sampleKey struct {
	token       string
	timestampMs int64
	source      string
}

// InsertBulk adds multiple samples. Fails entire batch on duplicate (token, timestamp_ms, source).
func (s *PriceSampleStore) InsertBulk(ctx context.Context, samples []*domain.PriceSample) (err error) {
	if len(samples) == 0 {
		return nil
	}

	seen := make(map[sampleKey]struct{}, len(samples))
	for _, p := range samples {
		if p == nil || p.Token == "" {
			return storage.ErrInvalidInput
		}
		k := sampleKey{p.Token, p.TimestampMs, p.Source}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	defer s.observe("insert", time.Now(), &err)

	// MergeTree does not enforce keys, so check existing rows first.
	for _, p := range samples {
		exists, err := s.exists(ctx, p)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO price_samples (token, timestamp_ms, source, price)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, p := range samples {
		if err := batch.Append(p.Token, uint64(p.TimestampMs), p.Source, p.Price); err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByTimeRange retrieves samples for a token within [start, end] (inclusive).
func (s *PriceSampleStore) GetByTimeRange(ctx context.Context, token string, start, end int64) (_ []*domain.PriceSample, err error) {
	defer s.observe("select", time.Now(), &err)

	query := `
		SELECT token, timestamp_ms, source, price
		FROM price_samples FINAL
		WHERE token = ? AND timestamp_ms >= ? AND timestamp_ms <= ?
		ORDER BY timestamp_ms ASC, source ASC
	`

	rows, err := s.conn.Query(ctx, query, token, uint64(start), uint64(end))
	if err != nil {
		return nil, fmt.Errorf("query by time range: %w", err)
	}
	defer rows.Close()

	return scanPriceSamples(rows)
}

func (s *PriceSampleStore) exists(ctx context.Context, p *domain.PriceSample) (bool, error) {
	query := `
		SELECT count(*) FROM price_samples
		WHERE token = ? AND timestamp_ms = ? AND source = ?
	`

	var count uint64
	if err := s.conn.QueryRow(ctx, query, p.Token, uint64(p.TimestampMs), p.Source).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *PriceSampleStore) observe(op string, start time.Time, err *error) {
	s.metrics.RecordDBQuery("clickhouse", op, time.Since(start).Seconds(), *err)
}

func scanPriceSamples(rows chRows) ([]*domain.PriceSample, error) {
	var samples []*domain.PriceSample

	for rows.Next() {
		var p domain.PriceSample
		var timestampMs uint64

		if err := rows.Scan(&p.Token, &timestampMs, &p.Source, &p.Price); err != nil {
			return nil, fmt.Errorf("scan price sample row: %w", err)
		}
		p.TimestampMs = int64(timestampMs)
		samples = append(samples, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate price sample rows: %w", err)
	}

	return samples, nil
}
