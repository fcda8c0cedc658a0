package memory

import (
	"context"
	"sort"
	"sync"

	"solana-volume-bot/internal/domain"
	"solana-volume-bot/internal/storage"
)

// TradeStore is an in-memory implementation of storage.TradeStore.
// It holds at most its limit of events, dropping the oldest inserted.
type TradeStore struct {
	mu    sync.RWMutex
	data  map[string]*domain.TradeEvent // keyed by event ID
	order fifo
}

// NewTradeStore creates a new in-memory trade event store.
func NewTradeStore(opts ...Option) *TradeStore {
	o := buildOptions(opts)
	return &TradeStore{
		data:  make(map[string]*domain.TradeEvent),
		order: fifo{limit: o.limit},
	}
}

// Insert adds a new event. Returns ErrDuplicateKey if the ID exists.
func (s *TradeStore) Insert(_ context.Context, e *domain.TradeEvent) error {
	if e == nil || e.ID == "" || e.Token == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[e.ID]; exists {
		return storage.ErrDuplicateKey
	}

	eventCopy := *e
	s.data[e.ID] = &eventCopy
	for _, id := range s.order.push(e.ID) {
		delete(s.data, id)
	}
	return nil
}

// GetByToken retrieves all events for a token, ordered by timestamp ASC.
func (s *TradeStore) GetByToken(_ context.Context, token string) ([]*domain.TradeEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.TradeEvent
	for _, e := range s.data {
		if e.Token == token {
			eventCopy := *e
			result = append(result, &eventCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Timestamp.Before(result[j].Timestamp)
	})

	return result, nil
}

// Summary aggregates the events of a token.
func (s *TradeStore) Summary(ctx context.Context, token string) (*storage.TradeSummary, error) {
	events, err := s.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	return storage.Summarize(token, events), nil
}

var _ storage.TradeStore = (*TradeStore)(nil)
