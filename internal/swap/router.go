package swap

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"solana-volume-bot/internal/domain"
	"solana-volume-bot/internal/events"
	"solana-volume-bot/internal/idhash"
	"solana-volume-bot/internal/observability"
	"solana-volume-bot/internal/pricecache"
	"solana-volume-bot/internal/solana"
	"solana-volume-bot/internal/wallet"
)

// VenueDryRun labels simulated trades.
const VenueDryRun = "dry-run"

// Router defaults.
const (
	DefaultFeeBufferLamports = 10_000_000 // 0.01 SOL kept for fees and rent
	DefaultFeeLookupTimeout  = 5 * time.Second
)

// PriceSource is the price lookup used by dry runs.
type PriceSource interface {
	Get(ctx context.Context, token string) (float64, error)
}

// RouterConfig configures Router.
type RouterConfig struct {
	FeeBufferLamports uint64        `yaml:"fee_buffer_lamports"`
	FeeLookupTimeout  time.Duration `yaml:"fee_lookup_timeout"`
}

// Router routes swaps across adapters in order. Only a route-unavailable
// outcome moves on to the next adapter.
type Router struct {
	rpc      solana.RPCClient
	adapters []Adapter
	prices   PriceSource
	ledger   *pricecache.Ledger
	sink     events.Sink
	cfg      RouterConfig
	metrics  *observability.Metrics
	log      logrus.FieldLogger
	now      func() time.Time
}

// RouterOptions holds the collaborators of a Router.
type RouterOptions struct {
	RPC      solana.RPCClient
	Adapters []Adapter
	Prices   PriceSource
	Ledger   *pricecache.Ledger
	Sink     events.Sink
	Config   RouterConfig
	Metrics  *observability.Metrics
	Logger   logrus.FieldLogger
}

// NewRouter creates a router.
func NewRouter(opts RouterOptions) *Router {
	cfg := opts.Config
	if cfg.FeeBufferLamports == 0 {
		cfg.FeeBufferLamports = DefaultFeeBufferLamports
	}
	if cfg.FeeLookupTimeout <= 0 {
		cfg.FeeLookupTimeout = DefaultFeeLookupTimeout
	}
	r := &Router{
		rpc:      opts.RPC,
		adapters: opts.Adapters,
		prices:   opts.Prices,
		ledger:   opts.Ledger,
		sink:     opts.Sink,
		cfg:      cfg,
		metrics:  opts.Metrics,
		log:      opts.Logger,
		now:      time.Now,
	}
	if r.ledger == nil {
		r.ledger = pricecache.NewLedger()
	}
	if r.sink == nil {
		r.sink = events.Discard
	}
	if r.metrics == nil {
		r.metrics = observability.DefaultMetrics
	}
	if r.log == nil {
		r.log = logrus.StandardLogger()
	}
	r.log = r.log.WithField("component", "router")
	return r
}

// Ledger returns the simulated-position ledger.
func (r *Router) Ledger() *pricecache.Ledger {
	return r.ledger
}

// Swap executes one BUY or SELL for wallet w and returns its signature.
// BUY spends amountLamports; SELL sells the whole token balance and ignores
// amountLamports. An empty signature with a nil error means there was
// nothing to sell.
func (r *Router) Swap(ctx context.Context, w *wallet.Wallet, token string, action domain.Action, dryRun bool, amountLamports uint64) (string, error) {
	if action != domain.ActionBuy && action != domain.ActionSell {
		return "", fmt.Errorf("unsupported action %q", action)
	}
	if action == domain.ActionBuy && amountLamports == 0 {
		ev := domain.TradeEvent{Token: token, Wallet: w.Address(), Action: action, DryRun: dryRun}
		if dryRun {
			ev.Venue = VenueDryRun
		}
		return "", r.fail(ctx, ev, r.now(), fmt.Errorf("%w: buy amount must be positive", domain.ErrInvalidSettings))
	}
	if dryRun {
		return r.simulate(ctx, w, token, action, amountLamports)
	}
	return r.execute(ctx, w, token, action, amountLamports)
}

func (r *Router) simulate(ctx context.Context, w *wallet.Wallet, token string, action domain.Action, amountLamports uint64) (string, error) {
	start := r.now()
	ev := domain.TradeEvent{
		Token:          token,
		Wallet:         w.Address(),
		Action:         action,
		Venue:          VenueDryRun,
		AmountLamports: amountLamports,
		DryRun:         true,
	}
	log := r.log.WithFields(logrus.Fields{"token": token, "wallet": w.Address(), "action": action, "dry_run": true})

	if action == domain.ActionSell {
		if _, ok := r.ledger.Position(token); !ok {
			log.Debug("no simulated position to sell")
			return "", nil
		}
		ev.AmountLamports = 0
	}

	if r.prices == nil {
		return "", r.fail(ctx, ev, start, fmt.Errorf("simulate %s: %w", action, domain.ErrPriceUnavailable))
	}
	price, err := r.prices.Get(ctx, token)
	if err != nil {
		return "", r.fail(ctx, ev, start, fmt.Errorf("simulate %s: %w", action, err))
	}
	ev.PriceNative = price

	switch action {
	case domain.ActionBuy:
		tokens, err := r.ledger.RecordBuy(token, domain.LamportsToSOL(amountLamports), price)
		if err != nil {
			return "", r.fail(ctx, ev, start, err)
		}
		log.WithFields(logrus.Fields{"price": price, "tokens": tokens}).Info("simulated buy")
	case domain.ActionSell:
		pnl, closed, ok, err := r.ledger.RecordSell(token, price)
		if err != nil {
			return "", r.fail(ctx, ev, start, err)
		}
		if !ok {
			return "", nil
		}
		ev.PnLNative = pnl
		log.WithFields(logrus.Fields{
			"price":    price,
			"tokens":   closed.Tokens,
			"invested": closed.InvestedNative,
			"pnl":      pnl,
		}).Info("simulated sell")
	}

	ev.Signature = simulatedSignature()
	r.publish(ctx, ev, start)
	return ev.Signature, nil
}

func (r *Router) execute(ctx context.Context, w *wallet.Wallet, token string, action domain.Action, amountLamports uint64) (string, error) {
	start := r.now()
	ev := domain.TradeEvent{
		Token:  token,
		Wallet: w.Address(),
		Action: action,
	}
	log := r.log.WithFields(logrus.Fields{"token": token, "wallet": w.Address(), "action": action})
	in := Intent{Wallet: w, Token: token, Action: action}

	switch action {
	case domain.ActionBuy:
		ev.AmountLamports = amountLamports
		in.AmountLamports = amountLamports

		balance, err := r.rpc.GetBalance(ctx, w.Address())
		if err != nil {
			return "", r.fail(ctx, ev, start, fmt.Errorf("get balance: %w", err))
		}
		if need := amountLamports + r.cfg.FeeBufferLamports; balance < need {
			return "", r.fail(ctx, ev, start, fmt.Errorf("%w: balance %d lamports, need %d",
				domain.ErrInsufficientFunds, balance, need))
		}

	case domain.ActionSell:
		amount, err := r.tokenBalance(ctx, w.Address(), token)
		if err != nil {
			return "", r.fail(ctx, ev, start, err)
		}
		if amount == 0 {
			log.Debug("no token balance to sell")
			return "", nil
		}
		ev.TokenAmount = amount
		in.TokenAmount = amount
		in.SellAll = true
	}

	for i, a := range r.adapters {
		if err := ctx.Err(); err != nil {
			return "", r.fail(ctx, ev, start, err)
		}

		out := a.Execute(ctx, in)
		switch out.Kind {
		case OutcomeSuccess:
			ev.Venue = a.Name()
			ev.Signature = out.Signature
			ev.FeeLamports = r.lookupFee(ctx, out.Signature)
			r.publish(ctx, ev, start)
			return out.Signature, nil

		case OutcomeRouteUnavailable:
			r.metrics.RecordFallback(a.Name())
			next := "none"
			if i+1 < len(r.adapters) {
				next = r.adapters[i+1].Name()
			}
			log.WithFields(logrus.Fields{"venue": a.Name(), "next": next}).WithError(out.Err).Info("venue has no route, falling back")
			continue

		case OutcomeTransient, OutcomeHardReject:
			ev.Venue = a.Name()
			ev.Signature = out.Signature
			return "", r.fail(ctx, ev, start, fmt.Errorf("%s %s (%s after %d attempts): %w",
				a.Name(), action, out.Kind, out.Attempts, out.Err))
		}
	}

	return "", r.fail(ctx, ev, start, fmt.Errorf("%s %s: %w", action, token, domain.ErrNoRoute))
}

// tokenBalance sums every token account of owner for mint.
func (r *Router) tokenBalance(ctx context.Context, owner, mint string) (uint64, error) {
	accounts, err := r.rpc.GetTokenAccountsByOwner(ctx, owner, mint)
	if err != nil {
		return 0, fmt.Errorf("get token accounts: %w", err)
	}
	var total uint64
	for _, acc := range accounts {
		total += acc.Amount.Amount
	}
	return total, nil
}

func (r *Router) lookupFee(ctx context.Context, signature string) uint64 {
	feeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.cfg.FeeLookupTimeout)
	defer cancel()
	tx, err := r.rpc.GetTransaction(feeCtx, signature)
	if err != nil || tx == nil || tx.Meta == nil {
		r.log.WithField("signature", signature).WithError(err).Debug("fee lookup unavailable")
		return 0
	}
	return tx.Meta.Fee
}

func (r *Router) fail(ctx context.Context, ev domain.TradeEvent, start time.Time, err error) error {
	ev.Err = err.Error()
	if errors.Is(err, context.Canceled) {
		ev.Err = "cancelled"
	}
	r.publish(ctx, ev, start)
	return err
}

func (r *Router) publish(ctx context.Context, ev domain.TradeEvent, start time.Time) {
	ev.Timestamp = r.now()
	ev.ID = idhash.ComputeTradeEventID(ev.Token, ev.Wallet, string(ev.Action), ev.Signature, ev.Timestamp.UnixNano())

	venue := ev.Venue
	if venue == "" {
		venue = "none"
	}
	r.metrics.RecordTrade(venue, string(ev.Action), ev.Succeeded(), ev.DryRun,
		domain.LamportsToSOL(buyVolume(ev)), domain.LamportsToSOL(ev.FeeLamports), ev.Timestamp.Sub(start).Seconds())

	if err := r.sink.Publish(context.WithoutCancel(ctx), ev); err != nil {
		r.log.WithFields(logrus.Fields{"token": ev.Token, "event_id": ev.ID}).WithError(err).Warn("publish trade event")
	}
}

func buyVolume(ev domain.TradeEvent) uint64 {
	if ev.Action != domain.ActionBuy {
		return 0
	}
	return ev.AmountLamports
}

func simulatedSignature() string {
	return "SIM_" + strconv.FormatUint(rand.Uint64(), 36)
}
