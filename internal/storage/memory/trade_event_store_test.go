package memory

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"solana-volume-bot/internal/domain"
	"solana-volume-bot/internal/storage"
)

func TestTradeStore_InsertAndGet(t *testing.T) {
	store := NewTradeStore()
	ctx := context.Background()
	base := time.Unix(1700000000, 0)

	events := []*domain.TradeEvent{
		{ID: "e2", Token: "mint1", Action: domain.ActionSell, Signature: "s2", Timestamp: base.Add(2 * time.Second)},
		{ID: "e1", Token: "mint1", Action: domain.ActionBuy, AmountLamports: 10_000_000, Signature: "s1", Timestamp: base},
		{ID: "e3", Token: "mint2", Action: domain.ActionBuy, Signature: "s3", Timestamp: base},
	}
	for _, e := range events {
		if err := store.Insert(ctx, e); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	got, err := store.GetByToken(ctx, "mint1")
	if err != nil {
		t.Fatalf("GetByToken failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}
	if got[0].ID != "e1" || got[1].ID != "e2" {
		t.Errorf("events not ordered by timestamp: %s, %s", got[0].ID, got[1].ID)
	}

	// returned records are copies
	got[0].Signature = "mutated"
	again, _ := store.GetByToken(ctx, "mint1")
	if again[0].Signature != "s1" {
		t.Error("store returned a shared pointer")
	}
}

func TestTradeStore_DuplicateKey(t *testing.T) {
	store := NewTradeStore()
	ctx := context.Background()

	e := &domain.TradeEvent{ID: "e1", Token: "mint1", Action: domain.ActionBuy}
	if err := store.Insert(ctx, e); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	err := store.Insert(ctx, e)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestTradeStore_InvalidInput(t *testing.T) {
	store := NewTradeStore()
	ctx := context.Background()

	if err := store.Insert(ctx, nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("nil event: expected ErrInvalidInput, got %v", err)
	}
	if err := store.Insert(ctx, &domain.TradeEvent{Token: "mint"}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("missing ID: expected ErrInvalidInput, got %v", err)
	}
}

func TestTradeStore_Summary(t *testing.T) {
	store := NewTradeStore()
	ctx := context.Background()

	events := []*domain.TradeEvent{
		{ID: "b1", Token: "mint1", Action: domain.ActionBuy, AmountLamports: 10_000_000, FeeLamports: 5000},
		{ID: "b2", Token: "mint1", Action: domain.ActionBuy, AmountLamports: 15_000_000, FeeLamports: 5000},
		{ID: "s1", Token: "mint1", Action: domain.ActionSell, FeeLamports: 7000},
		{ID: "f1", Token: "mint1", Action: domain.ActionBuy, AmountLamports: 99, Err: "route unavailable"},
	}
	for _, e := range events {
		if err := store.Insert(ctx, e); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	sum, err := store.Summary(ctx, "mint1")
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if sum.Buys != 2 || sum.Sells != 1 || sum.Failed != 1 {
		t.Errorf("unexpected counts %+v", sum)
	}
	if sum.VolumeLamports != 25_000_000 {
		t.Errorf("expected volume 25000000, got %d", sum.VolumeLamports)
	}
	if sum.FeesLamports != 17000 {
		t.Errorf("expected fees 17000, got %d", sum.FeesLamports)
	}
}

func TestTradeStore_LimitEvictsOldest(t *testing.T) {
	store := NewTradeStore(WithLimit(2))
	ctx := context.Background()
	base := time.Unix(1700000000, 0)

	for i, id := range []string{"e1", "e2", "e3"} {
		e := &domain.TradeEvent{ID: id, Token: "mint1", Action: domain.ActionBuy, Timestamp: base.Add(time.Duration(i) * time.Second)}
		if err := store.Insert(ctx, e); err != nil {
			t.Fatalf("Insert %s failed: %v", id, err)
		}
	}

	got, err := store.GetByToken(ctx, "mint1")
	if err != nil {
		t.Fatalf("GetByToken failed: %v", err)
	}
	if len(got) != 2 || got[0].ID != "e2" || got[1].ID != "e3" {
		t.Fatalf("expected [e2 e3], got %v", tradeIDs(got))
	}

	// an evicted ID may be inserted again
	if err := store.Insert(ctx, &domain.TradeEvent{ID: "e1", Token: "mint1", Timestamp: base}); err != nil {
		t.Errorf("reinsert evicted ID: %v", err)
	}
}

func TestTradeStore_DefaultLimit(t *testing.T) {
	store := NewTradeStore()
	ctx := context.Background()
	for i := 0; i < DefaultLimit+5; i++ {
		e := &domain.TradeEvent{ID: fmt.Sprintf("e%d", i), Token: "mint1", Timestamp: time.Unix(int64(i), 0)}
		if err := store.Insert(ctx, e); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}
	got, _ := store.GetByToken(ctx, "mint1")
	if len(got) != DefaultLimit {
		t.Errorf("expected %d events, got %d", DefaultLimit, len(got))
	}
}

func tradeIDs(events []*domain.TradeEvent) []string {
	ids := make([]string, len(events))
	for i, e := range events {
		ids[i] = e.ID
	}
	return ids
}
