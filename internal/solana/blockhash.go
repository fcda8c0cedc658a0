package solana

import (
	"context"
	"sync"
	"time"
)

// DefaultBlockhashTTL bounds how long a fetched blockhash is reused.
const DefaultBlockhashTTL = 2 * time.Second

// BlockhashCache hands out recent blockhashes, refetching after ttl.
type BlockhashCache struct {
	rpc        RPCClient
	ttl        time.Duration
	commitment string

	mu        sync.Mutex
	current   *Blockhash
	fetchedAt time.Time
	now       func() time.Time
}

// NewBlockhashCache creates a cache. ttl <= 0 uses DefaultBlockhashTTL.
func NewBlockhashCache(rpc RPCClient, ttl time.Duration) *BlockhashCache {
	if ttl <= 0 {
		ttl = DefaultBlockhashTTL
	}
	return &BlockhashCache{
		rpc:        rpc,
		ttl:        ttl,
		commitment: CommitmentConfirmed,
		now:        time.Now,
	}
}

// Get returns a blockhash no older than ttl.
func (b *BlockhashCache) Get(ctx context.Context) (*Blockhash, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.current != nil && b.now().Sub(b.fetchedAt) < b.ttl {
		return b.current, nil
	}

	bh, err := b.rpc.GetLatestBlockhash(ctx, b.commitment)
	if err != nil {
		return nil, err
	}
	b.current = bh
	b.fetchedAt = b.now()
	return bh, nil
}

// Invalidate forces the next Get to refetch.
func (b *BlockhashCache) Invalidate() {
	b.mu.Lock()
	b.current = nil
	b.mu.Unlock()
}
