// Package events delivers trade events to their consumers.
package events

import (
	"context"
	"errors"
	"sync"

	"solana-volume-bot/internal/domain"
	"solana-volume-bot/internal/storage"
)

// Sink receives trade events.
type Sink interface {
	Publish(ctx context.Context, e domain.TradeEvent) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, e domain.TradeEvent) error

// Publish implements Sink.
func (f SinkFunc) Publish(ctx context.Context, e domain.TradeEvent) error {
	return f(ctx, e)
}

// Discard drops every event.
var Discard Sink = SinkFunc(func(context.Context, domain.TradeEvent) error { return nil })

// Fanout publishes every event to all sinks and joins their errors.
type Fanout []Sink

// Publish implements Sink.
func (f Fanout) Publish(ctx context.Context, e domain.TradeEvent) error {
	var errs []error
	for _, s := range f {
		if s == nil {
			continue
		}
		if err := s.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []domain.TradeEvent
	limit  int
}

// NewRecorder creates a recorder keeping at most limit events, oldest
// dropped first. limit <= 0 keeps everything.
func NewRecorder(limit int) *Recorder {
	return &Recorder{limit: limit}
}

// Publish implements Sink.
func (r *Recorder) Publish(_ context.Context, e domain.TradeEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	if r.limit > 0 && len(r.events) > r.limit {
		r.events = r.events[len(r.events)-r.limit:]
	}
	return nil
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []domain.TradeEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.TradeEvent, len(r.events))
	copy(out, r.events)
	return out
}

// ByToken returns the recorded events of token.
func (r *Recorder) ByToken(token string) []domain.TradeEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.TradeEvent
	for _, e := range r.events {
		if e.Token == token {
			out = append(out, e)
		}
	}
	return out
}

// StoreSink persists events in a TradeStore.
type StoreSink struct {
	store storage.TradeStore
}

// NewStoreSink creates a sink over store.
func NewStoreSink(store storage.TradeStore) *StoreSink {
	return &StoreSink{store: store}
}

// Publish implements Sink. Re-delivered events are ignored.
func (s *StoreSink) Publish(ctx context.Context, e domain.TradeEvent) error {
	err := s.store.Insert(ctx, &e)
	if errors.Is(err, storage.ErrDuplicateKey) {
		return nil
	}
	return err
}
