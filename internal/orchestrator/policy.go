package orchestrator

import (
	"context"
	"math"
	"math/rand"
	"time"

	"solana-volume-bot/internal/domain"
	"solana-volume-bot/internal/wallet"
)

// batch is one generation of trading wallets. unswept is set once a reclaim
// of any of its wallets fails.
type batch struct {
	wallets []*wallet.Wallet
	used    []bool
	next    int
	spent   []*wallet.Wallet
	unswept bool
}

func newBatch(ws []*wallet.Wallet) *batch {
	return &batch{wallets: ws, used: make([]bool, len(ws))}
}

func (b *batch) exhausted() bool {
	return b == nil || len(b.spent) >= len(b.wallets)
}

// pick marks and returns the next wallet according to policy.
func (b *batch) pick(policy string, rng *rand.Rand) *wallet.Wallet {
	if b.exhausted() {
		return nil
	}
	var idx int
	if policy == SelectRoundRobin {
		for b.used[b.next] {
			b.next++
		}
		idx = b.next
	} else {
		free := make([]int, 0, len(b.wallets)-len(b.spent))
		for i, u := range b.used {
			if !u {
				free = append(free, i)
			}
		}
		idx = free[rng.Intn(len(free))]
	}
	b.used[idx] = true
	w := b.wallets[idx]
	b.spent = append(b.spent, w)
	return w
}

// randInt returns an integer uniformly drawn from [lo, hi].
func randInt(rng *rand.Rand, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + rng.Intn(hi-lo+1)
}

// randDelay returns a whole-second delay in [minSec, maxSec].
func randDelay(rng *rand.Rand, minSec, maxSec int) time.Duration {
	return time.Duration(randInt(rng, minSec, maxSec)) * time.Second
}

// randAmount returns a SOL amount in [lo, hi] truncated to 4 decimals.
// Truncation below lo is clamped back to lo.
func randAmount(rng *rand.Rand, lo, hi float64) float64 {
	v := lo
	if hi > lo {
		v = lo + rng.Float64()*(hi-lo)
	}
	v = domain.TruncateSOL(v, 4)
	return math.Min(math.Max(v, lo), hi)
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
