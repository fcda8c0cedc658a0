package memory

import (
	"context"
	"errors"
	"testing"

	"solana-volume-bot/internal/domain"
	"solana-volume-bot/internal/storage"
)

func TestPriceSampleStore_InsertBulkAndRange(t *testing.T) {
	store := NewPriceSampleStore()
	ctx := context.Background()

	samples := []*domain.PriceSample{
		{Token: "mint1", TimestampMs: 3000, Price: 0.3, Source: "jupiter"},
		{Token: "mint1", TimestampMs: 1000, Price: 0.1, Source: "jupiter"},
		{Token: "mint1", TimestampMs: 2000, Price: 0.2, Source: "dexscreener"},
		{Token: "mint2", TimestampMs: 1500, Price: 9, Source: "jupiter"},
	}
	if err := store.InsertBulk(ctx, samples); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	got, err := store.GetByTimeRange(ctx, "mint1", 1000, 2000)
	if err != nil {
		t.Fatalf("GetByTimeRange failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(got))
	}
	if got[0].TimestampMs != 1000 || got[1].TimestampMs != 2000 {
		t.Errorf("unexpected order: %d, %d", got[0].TimestampMs, got[1].TimestampMs)
	}
}

func TestPriceSampleStore_DuplicateFailsBatch(t *testing.T) {
	store := NewPriceSampleStore()
	ctx := context.Background()

	first := []*domain.PriceSample{{Token: "mint1", TimestampMs: 1000, Price: 0.1, Source: "jupiter"}}
	if err := store.InsertBulk(ctx, first); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	batch := []*domain.PriceSample{
		{Token: "mint1", TimestampMs: 2000, Price: 0.2, Source: "jupiter"},
		{Token: "mint1", TimestampMs: 1000, Price: 0.1, Source: "jupiter"},
	}
	if err := store.InsertBulk(ctx, batch); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}

	got, _ := store.GetByTimeRange(ctx, "mint1", 0, 10_000)
	if len(got) != 1 {
		t.Errorf("failed batch must not be partially applied, got %d samples", len(got))
	}
}

func TestPriceSampleStore_LimitEvictsOldest(t *testing.T) {
	store := NewPriceSampleStore(WithLimit(3))
	ctx := context.Background()

	var samples []*domain.PriceSample
	for ts := int64(1); ts <= 5; ts++ {
		samples = append(samples, &domain.PriceSample{Token: "mint1", TimestampMs: ts, Source: "jupiter", Price: 0.001})
	}
	if err := store.InsertBulk(ctx, samples); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	got, err := store.GetByTimeRange(ctx, "mint1", 0, 10)
	if err != nil {
		t.Fatalf("GetByTimeRange failed: %v", err)
	}
	if len(got) != 3 || got[0].TimestampMs != 3 || got[2].TimestampMs != 5 {
		t.Fatalf("expected samples 3..5, got %d samples", len(got))
	}
}

func TestPriceSampleStore_NoLimit(t *testing.T) {
	store := NewPriceSampleStore(WithLimit(0))
	ctx := context.Background()

	var samples []*domain.PriceSample
	for ts := int64(1); ts <= DefaultLimit+1; ts++ {
		samples = append(samples, &domain.PriceSample{Token: "mint1", TimestampMs: ts, Source: "jupiter"})
	}
	if err := store.InsertBulk(ctx, samples); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}
	got, _ := store.GetByTimeRange(ctx, "mint1", 0, DefaultLimit+1)
	if len(got) != DefaultLimit+1 {
		t.Errorf("expected %d samples, got %d", DefaultLimit+1, len(got))
	}
}
