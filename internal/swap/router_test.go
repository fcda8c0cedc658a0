package swap

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-volume-bot/internal/domain"
	"solana-volume-bot/internal/events"
	"solana-volume-bot/internal/pricecache"
	"solana-volume-bot/internal/solana/stub"
)

func newTestRouter(rpc *stub.RPCClient, rec *events.Recorder, prices PriceSource, adapters ...Adapter) *Router {
	return NewRouter(RouterOptions{
		RPC:      rpc,
		Adapters: adapters,
		Prices:   prices,
		Sink:     rec,
		Metrics:  testMetrics(),
		Logger:   quietLogger(),
	})
}

func staticPrices(price float64) PriceSource {
	return pricecache.New(pricecache.Config{}, quietLogger(), []pricecache.Source{pricecache.StaticSource{Value: price}})
}

func TestRouter_FallsThroughOnlyOnRouteUnavailable(t *testing.T) {
	rpc := stub.NewRPCClient()
	w := newWallet(t)
	rpc.SetBalance(w.Address(), 1_000_000_000)

	jup := &fakeAdapter{name: VenueJupiter, outcome: Outcome{Kind: OutcomeRouteUnavailable, Err: ErrRouteUnavailable}}
	ray := &fakeAdapter{name: VenueRaydium, outcome: Outcome{Kind: OutcomeRouteUnavailable, Err: ErrRouteUnavailable}}
	pump := &fakeAdapter{name: VenuePumpPortal, outcome: Outcome{Kind: OutcomeSuccess, Signature: "sig-pump", Attempts: 1}}
	rec := events.NewRecorder(0)

	sig, err := newTestRouter(rpc, rec, nil, jup, ray, pump).
		Swap(context.Background(), w, testMint, domain.ActionBuy, false, 20_000_000)
	require.NoError(t, err)
	assert.Equal(t, "sig-pump", sig)
	assert.Equal(t, 1, jup.calls())
	assert.Equal(t, 1, ray.calls())
	assert.Equal(t, 1, pump.calls())
	assert.Equal(t, jup.intents[0], pump.intents[0], "fallback must reuse the identical intent")

	evs := rec.Events()
	require.Len(t, evs, 1)
	assert.Equal(t, VenuePumpPortal, evs[0].Venue)
	assert.True(t, evs[0].Succeeded())
	assert.NotEmpty(t, evs[0].ID)
}

func TestRouter_TransientDoesNotFallThrough(t *testing.T) {
	for _, kind := range []OutcomeKind{OutcomeTransient, OutcomeHardReject} {
		t.Run(kind.String(), func(t *testing.T) {
			rpc := stub.NewRPCClient()
			w := newWallet(t)
			rpc.SetBalance(w.Address(), 1_000_000_000)

			boom := errors.New("venue failure")
			jup := &fakeAdapter{name: VenueJupiter, outcome: Outcome{Kind: kind, Err: boom, Attempts: 2}}
			ray := &fakeAdapter{name: VenueRaydium, outcome: Outcome{Kind: OutcomeSuccess, Signature: "sig"}}
			rec := events.NewRecorder(0)

			_, err := newTestRouter(rpc, rec, nil, jup, ray).
				Swap(context.Background(), w, testMint, domain.ActionBuy, false, 20_000_000)
			require.Error(t, err)
			assert.True(t, errors.Is(err, boom))
			assert.True(t, strings.Contains(err.Error(), VenueJupiter))
			assert.Equal(t, 0, ray.calls())

			evs := rec.Events()
			require.Len(t, evs, 1)
			assert.False(t, evs[0].Succeeded())
		})
	}
}

func TestRouter_AllVenuesUnavailable(t *testing.T) {
	rpc := stub.NewRPCClient()
	w := newWallet(t)
	rpc.SetBalance(w.Address(), 1_000_000_000)

	noRoute := Outcome{Kind: OutcomeRouteUnavailable, Err: ErrRouteUnavailable}
	_, err := newTestRouter(rpc, events.NewRecorder(0), nil,
		&fakeAdapter{name: VenueJupiter, outcome: noRoute},
		&fakeAdapter{name: VenueRaydium, outcome: noRoute},
	).Swap(context.Background(), w, testMint, domain.ActionBuy, false, 20_000_000)

	assert.True(t, errors.Is(err, domain.ErrNoRoute))
}

func TestRouter_BuyInsufficientFundsBeforeProvider(t *testing.T) {
	rpc := stub.NewRPCClient()
	w := newWallet(t)
	rpc.SetBalance(w.Address(), 20_000_000) // amount, but not amount plus buffer

	jup := &fakeAdapter{name: VenueJupiter, outcome: Outcome{Kind: OutcomeSuccess, Signature: "sig"}}
	_, err := newTestRouter(rpc, events.NewRecorder(0), nil, jup).
		Swap(context.Background(), w, testMint, domain.ActionBuy, false, 20_000_000)

	assert.True(t, errors.Is(err, domain.ErrInsufficientFunds))
	assert.Equal(t, 0, jup.calls())
	assert.Equal(t, 0, rpc.SentCount())
}

func TestRouter_SellZeroBalanceIsNoop(t *testing.T) {
	rpc := stub.NewRPCClient()
	w := newWallet(t)
	jup := &fakeAdapter{name: VenueJupiter, outcome: Outcome{Kind: OutcomeSuccess, Signature: "sig"}}
	rec := events.NewRecorder(0)

	sig, err := newTestRouter(rpc, rec, nil, jup).
		Swap(context.Background(), w, testMint, domain.ActionSell, false, 0)
	require.NoError(t, err)
	assert.Empty(t, sig)
	assert.Equal(t, 0, jup.calls())
	assert.Equal(t, 0, rpc.SentCount())
	assert.Equal(t, 1, rpc.CallCount("getTokenAccountsByOwner"))
	assert.Empty(t, rec.Events())
}

func TestRouter_SellSumsTokenAccounts(t *testing.T) {
	rpc := stub.NewRPCClient()
	w := newWallet(t)
	rpc.SetTokenBalance(w.Address(), testMint, "acct1", 400)
	rpc.TokenAccounts[w.Address()+"/"+testMint] = append(rpc.TokenAccounts[w.Address()+"/"+testMint],
		rpc.TokenAccounts[w.Address()+"/"+testMint][0])

	jup := &fakeAdapter{name: VenueJupiter, outcome: Outcome{Kind: OutcomeSuccess, Signature: "sig"}}
	_, err := newTestRouter(rpc, events.NewRecorder(0), nil, jup).
		Swap(context.Background(), w, testMint, domain.ActionSell, false, 0)
	require.NoError(t, err)
	require.Equal(t, 1, jup.calls())
	assert.Equal(t, uint64(800), jup.intents[0].TokenAmount)
	assert.True(t, jup.intents[0].SellAll)
}

func TestRouter_RecordsFee(t *testing.T) {
	rpc := stub.NewRPCClient()
	w := newWallet(t)
	rpc.SetBalance(w.Address(), 1_000_000_000)
	rec := events.NewRecorder(0)

	lander := newLander(rpc)
	blob := providerBlob(t, w)
	b := &scriptedBuilder{name: VenueJupiter, script: []func(Intent) ([][]byte, error){
		func(Intent) ([][]byte, error) { return [][]byte{blob}, nil },
	}}
	a := NewAdapter(b, fastEscalation(1), lander, testMetrics(), quietLogger())

	sig, err := newTestRouter(rpc, rec, nil, a).
		Swap(context.Background(), w, testMint, domain.ActionBuy, false, 1_000_000)
	require.NoError(t, err)
	assert.Equal(t, 1, rpc.CallCount("getTransaction"))

	evs := rec.Events()
	require.Len(t, evs, 1)
	assert.Equal(t, sig, evs[0].Signature)
	assert.Equal(t, uint64(5000), evs[0].FeeLamports)
}

func TestRouter_DryRunMakesNoRPCCalls(t *testing.T) {
	rpc := stub.NewRPCClient()
	w := newWallet(t)
	jup := &fakeAdapter{name: VenueJupiter, outcome: Outcome{Kind: OutcomeSuccess, Signature: "sig"}}
	rec := events.NewRecorder(0)
	r := newTestRouter(rpc, rec, staticPrices(0.001), jup)
	ctx := context.Background()

	sig, err := r.Swap(ctx, w, testMint, domain.ActionBuy, true, 10_000_000)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sig, "SIM_"))

	pos, ok := r.Ledger().Position(testMint)
	require.True(t, ok)
	assert.InDelta(t, 10.0, pos.Tokens, 1e-9)

	sig, err = r.Swap(ctx, w, testMint, domain.ActionSell, true, 0)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sig, "SIM_"))
	_, ok = r.Ledger().Position(testMint)
	assert.False(t, ok)

	// nothing left to sell
	sig, err = r.Swap(ctx, w, testMint, domain.ActionSell, true, 0)
	require.NoError(t, err)
	assert.Empty(t, sig)

	assert.Empty(t, rpc.Calls, "dry run must not touch the RPC")
	assert.Equal(t, 0, jup.calls())

	evs := rec.Events()
	require.Len(t, evs, 2)
	for _, e := range evs {
		assert.True(t, e.DryRun)
		assert.Equal(t, VenueDryRun, e.Venue)
	}
	assert.InDelta(t, 0, evs[1].PnLNative, 1e-12)
}

func TestRouter_DryRunWithoutPrice(t *testing.T) {
	rpc := stub.NewRPCClient()
	w := newWallet(t)
	prices := pricecache.New(pricecache.Config{}, quietLogger(),
		[]pricecache.Source{pricecache.StaticSource{Err: errors.New("no listing")}})

	_, err := newTestRouter(rpc, events.NewRecorder(0), prices).
		Swap(context.Background(), w, testMint, domain.ActionBuy, true, 10_000_000)
	assert.True(t, errors.Is(err, domain.ErrPriceUnavailable))
}

func TestRouter_ZeroBuyPublishesFailure(t *testing.T) {
	for _, dryRun := range []bool{false, true} {
		rpc := stub.NewRPCClient()
		rec := events.NewRecorder(0)
		jup := &fakeAdapter{name: VenueJupiter, outcome: Outcome{Kind: OutcomeSuccess, Signature: "sig"}}
		w := newWallet(t)

		_, err := newTestRouter(rpc, rec, staticPrices(0.001), jup).
			Swap(context.Background(), w, testMint, domain.ActionBuy, dryRun, 0)

		require.True(t, errors.Is(err, domain.ErrInvalidSettings), "dry run %v: %v", dryRun, err)
		evs := rec.Events()
		require.Len(t, evs, 1)
		assert.False(t, evs[0].Succeeded())
		assert.Equal(t, domain.ActionBuy, evs[0].Action)
		assert.Equal(t, w.Address(), evs[0].Wallet)
		assert.Equal(t, dryRun, evs[0].DryRun)
		assert.Equal(t, 0, jup.calls())
		assert.Empty(t, rpc.Calls)
	}
}

func TestRouter_RejectsUnknownAction(t *testing.T) {
	_, err := newTestRouter(stub.NewRPCClient(), events.NewRecorder(0), nil).
		Swap(context.Background(), newWallet(t), testMint, domain.Action("HOLD"), false, 1)
	assert.Error(t, err)
}
