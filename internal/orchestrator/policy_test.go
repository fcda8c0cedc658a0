package orchestrator

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-volume-bot/internal/wallet"
)

func testBatch(t *testing.T, n int) *batch {
	t.Helper()
	ws := make([]*wallet.Wallet, n)
	for i := range ws {
		w, err := wallet.New(i + 1)
		require.NoError(t, err)
		ws[i] = w
	}
	return newBatch(ws)
}

func TestBatch_RoundRobin(t *testing.T) {
	b := testBatch(t, 3)
	for i := 0; i < 3; i++ {
		w := b.pick(SelectRoundRobin, nil)
		require.NotNil(t, w)
		assert.Equal(t, i+1, w.ID)
	}
	assert.True(t, b.exhausted())
	assert.Nil(t, b.pick(SelectRoundRobin, nil))
}

func TestBatch_RandomUsesEachWalletOnce(t *testing.T) {
	b := testBatch(t, 10)
	rng := rand.New(rand.NewSource(7))
	seen := map[int]bool{}
	for !b.exhausted() {
		w := b.pick(SelectRandom, rng)
		assert.False(t, seen[w.ID], "wallet %d picked twice", w.ID)
		seen[w.ID] = true
	}
	assert.Len(t, seen, 10)
}

func TestBatch_NilIsExhausted(t *testing.T) {
	var b *batch
	assert.True(t, b.exhausted())
}

func TestRandAmount(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 1000; i++ {
		v := randAmount(rng, 0.00123, 0.0456)
		assert.GreaterOrEqual(t, v, 0.00123)
		assert.LessOrEqual(t, v, 0.0456)
	}
	assert.Equal(t, 0.5, randAmount(rng, 0.5, 0.5))
}

func TestRandInt(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	seen := map[int]bool{}
	for i := 0; i < 500; i++ {
		v := randInt(rng, 2, 4)
		assert.True(t, v >= 2 && v <= 4)
		seen[v] = true
	}
	assert.Len(t, seen, 3, "bounds are inclusive")
	assert.Equal(t, 5, randInt(rng, 5, 5))
}
