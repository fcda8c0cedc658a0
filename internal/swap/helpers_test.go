package swap

import (
	"context"
	"sync"
	"testing"
	"time"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"solana-volume-bot/internal/observability"
	"solana-volume-bot/internal/solana"
	"solana-volume-bot/internal/solana/stub"
	"solana-volume-bot/internal/wallet"
)

const testMint = "7GCihgDB8fe6KNjn2MYtkzZcRjQy3t9GHdC8uHYmW2hr"

func quietLogger() logrus.FieldLogger {
	l, _ := test.NewNullLogger()
	return l
}

func testMetrics() *observability.Metrics {
	return observability.NewMetrics("test", prometheus.NewRegistry())
}

func newWallet(t *testing.T) *wallet.Wallet {
	t.Helper()
	w, err := wallet.New(0)
	if err != nil {
		t.Fatalf("wallet.New: %v", err)
	}
	return w
}

// providerBlob returns a serialized transaction shaped like a venue response:
// a foreign blockhash and an empty signature slot for w.
func providerBlob(t *testing.T, w *wallet.Wallet) []byte {
	t.Helper()
	dest, _ := solanago.NewRandomPrivateKey()
	tx, err := solana.NewTransferTransaction(w.PublicKey(), solana.Transfer{To: dest.PublicKey(), Lamports: 1})
	if err != nil {
		t.Fatalf("NewTransferTransaction: %v", err)
	}
	tx.Message.RecentBlockhash = solanago.Hash(dest.PublicKey())
	tx.Signatures = []solanago.Signature{{}}
	raw, err := tx.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}
	return raw
}

func newLander(rpc *stub.RPCClient) *Lander {
	return slowLander(rpc, 200*time.Millisecond)
}

// slowLander is newLander with a custom confirmation timeout.
func slowLander(rpc *stub.RPCClient, confirmTimeout time.Duration) *Lander {
	confirmer := solana.NewConfirmer(rpc, nil, solana.ConfirmerConfig{
		Timeout:      confirmTimeout,
		PollInterval: 5 * time.Millisecond,
	})
	return NewLander(solana.NewSubmitter(rpc, solana.NewBlockhashCache(rpc, time.Second), confirmer, time.Second))
}

// scriptedBuilder returns one queued result per Build call. The last entry
// repeats once the script runs out.
type scriptedBuilder struct {
	name string

	mu     sync.Mutex
	script []func(in Intent) ([][]byte, error)
	params []Params
}

func (b *scriptedBuilder) Name() string { return b.name }

func (b *scriptedBuilder) Build(_ context.Context, in Intent, p Params) ([][]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.params = append(b.params, p)
	step := b.script[0]
	if len(b.script) > 1 {
		b.script = b.script[1:]
	}
	return step(in)
}

func (b *scriptedBuilder) calls() []Params {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Params(nil), b.params...)
}

// fakeAdapter returns a fixed outcome and counts calls.
type fakeAdapter struct {
	name    string
	outcome Outcome

	mu      sync.Mutex
	intents []Intent
}

func (a *fakeAdapter) Name() string { return a.name }

func (a *fakeAdapter) Execute(_ context.Context, in Intent) Outcome {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.intents = append(a.intents, in)
	return a.outcome
}

func (a *fakeAdapter) calls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.intents)
}
