package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"solana-volume-bot/internal/domain"
	"solana-volume-bot/internal/storage"
)

// PriceSampleStore is an in-memory implementation of storage.PriceSampleStore.
// It holds at most its limit of samples, dropping the oldest inserted.
type PriceSampleStore struct {
	mu    sync.RWMutex
	data  map[string]*domain.PriceSample // keyed by (token, timestamp_ms, source)
	order fifo
}

// NewPriceSampleStore creates a new in-memory price sample store.
func NewPriceSampleStore(opts ...Option) *PriceSampleStore {
	o := buildOptions(opts)
	return &PriceSampleStore{
		data:  make(map[string]*domain.PriceSample),
		order: fifo{limit: o.limit},
	}
}

func sampleKey(p *domain.PriceSample) string {
	return fmt.Sprintf("%s|%d|%s", p.Token, p.TimestampMs, p.Source)
}

// InsertBulk adds multiple samples. Fails entire batch on duplicate.
func (s *PriceSampleStore) InsertBulk(_ context.Context, samples []*domain.PriceSample) error {
	if len(samples) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Track keys in this batch to detect intra-batch duplicates
	batchKeys := make(map[string]struct{}, len(samples))

	for _, p := range samples {
		if p == nil || p.Token == "" {
			return storage.ErrInvalidInput
		}
		key := sampleKey(p)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, p := range samples {
		sampleCopy := *p
		key := sampleKey(p)
		s.data[key] = &sampleCopy
		for _, old := range s.order.push(key) {
			delete(s.data, old)
		}
	}

	return nil
}

// GetByTimeRange retrieves samples for a token within [start, end] (inclusive).
func (s *PriceSampleStore) GetByTimeRange(_ context.Context, token string, start, end int64) ([]*domain.PriceSample, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.PriceSample
	for _, p := range s.data {
		if p.Token == token && p.TimestampMs >= start && p.TimestampMs <= end {
			sampleCopy := *p
			result = append(result, &sampleCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].TimestampMs < result[j].TimestampMs
	})

	return result, nil
}

var _ storage.PriceSampleStore = (*PriceSampleStore)(nil)
