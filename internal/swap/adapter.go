// Package swap executes token swaps through external venues, falling back
// across venues when a token has no route.
package swap

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"solana-volume-bot/internal/domain"
	"solana-volume-bot/internal/observability"
	"solana-volume-bot/internal/provider"
	"solana-volume-bot/internal/wallet"
)

// Intent describes one swap. BUY spends AmountLamports of SOL; SELL spends
// TokenAmount raw token units, or the whole balance when SellAll is set.
type Intent struct {
	Wallet         *wallet.Wallet
	Token          string
	Action         domain.Action
	AmountLamports uint64
	TokenAmount    uint64
	SellAll        bool
}

// Adapter executes an intent on one venue.
type Adapter interface {
	Name() string
	Execute(ctx context.Context, in Intent) Outcome
}

// TxBuilder fetches fresh unsigned transactions for an intent. Errors
// wrapping ErrRouteUnavailable or ErrHardReject are classified as such,
// provider status errors by their code, and everything else as transient.
type TxBuilder interface {
	Name() string
	Build(ctx context.Context, in Intent, p Params) ([][]byte, error)
}

// venueAdapter drives a TxBuilder through escalating attempts.
type venueAdapter struct {
	builder    TxBuilder
	escalation Escalation
	lander     *Lander
	metrics    *observability.Metrics
	log        logrus.FieldLogger
}

// NewAdapter combines a venue builder with an escalation policy and a lander.
func NewAdapter(builder TxBuilder, esc Escalation, lander *Lander, metrics *observability.Metrics, log logrus.FieldLogger) Adapter {
	if metrics == nil {
		metrics = observability.DefaultMetrics
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &venueAdapter{
		builder:    builder,
		escalation: esc,
		lander:     lander,
		metrics:    metrics,
		log:        log.WithField("component", "swap."+builder.Name()),
	}
}

func (a *venueAdapter) Name() string { return a.builder.Name() }

func (a *venueAdapter) Execute(ctx context.Context, in Intent) Outcome {
	attempts := a.escalation.attempts()
	var last Outcome

	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if last.Err == nil {
				last = Outcome{Kind: OutcomeTransient, Err: err}
			}
			last.Attempts = attempt - 1
			return last
		}

		p := a.escalation.Params(attempt)
		log := a.log.WithFields(logrus.Fields{
			"token":        in.Token,
			"wallet":       in.Wallet.Address(),
			"action":       in.Action,
			"attempt":      attempt,
			"priority_fee": p.PriorityFeeLamports,
			"slippage_bps": p.SlippageBps,
		})

		// An unconfirmed broadcast may have landed since; sending again
		// would execute the swap twice.
		if sig, ok := a.landedLate(ctx, last); ok {
			log.WithField("signature", sig).Info("earlier broadcast confirmed")
			a.metrics.RecordAttempt(a.Name(), OutcomeSuccess.String())
			return Outcome{Kind: OutcomeSuccess, Signature: sig, Attempts: attempt - 1}
		}

		last = a.attempt(ctx, in, p)
		last.Attempts = attempt
		a.metrics.RecordAttempt(a.Name(), last.Kind.String())

		switch last.Kind {
		case OutcomeSuccess:
			log.WithField("signature", last.Signature).Info("swap confirmed")
			return last
		case OutcomeRouteUnavailable:
			log.WithError(last.Err).Info("no route")
			return last
		case OutcomeHardReject:
			log.WithError(last.Err).Warn("swap rejected")
			return last
		case OutcomeTransient:
			log.WithError(last.Err).Warn("swap attempt failed")
			if attempt < attempts && !sleepCtx(ctx, a.escalation.RetryDelay) {
				return last
			}
		}
	}
	return last
}

func (a *venueAdapter) attempt(ctx context.Context, in Intent, p Params) Outcome {
	blobs, err := a.builder.Build(ctx, in, p)
	if err != nil {
		return Outcome{Kind: classifyBuild(err), Err: err}
	}
	if len(blobs) == 0 {
		return Outcome{Kind: OutcomeTransient, Err: errors.New("venue returned no transaction")}
	}
	sig, err := a.lander.Land(ctx, in.Wallet, blobs)
	if err != nil {
		return Outcome{Kind: classifyLanding(err), Signature: sig, Err: landingError(err)}
	}
	return Outcome{Kind: OutcomeSuccess, Signature: sig}
}

// landedLate reports whether the previous outcome was an unconfirmed
// broadcast that has since reached confirmation.
func (a *venueAdapter) landedLate(ctx context.Context, last Outcome) (string, bool) {
	var unconfirmed *UnconfirmedError
	if last.Kind != OutcomeTransient || !errors.As(last.Err, &unconfirmed) {
		return "", false
	}
	ok, err := a.lander.Confirmed(ctx, unconfirmed.Signature)
	if err != nil {
		a.log.WithField("signature", unconfirmed.Signature).WithError(err).Debug("status check failed")
	}
	return unconfirmed.Signature, ok
}

func classifyBuild(err error) OutcomeKind {
	switch {
	case errors.Is(err, ErrRouteUnavailable):
		return OutcomeRouteUnavailable
	case errors.Is(err, ErrHardReject):
		return OutcomeHardReject
	}
	if se, ok := provider.AsStatus(err); ok && !se.Retryable() {
		return OutcomeHardReject
	}
	return OutcomeTransient
}

// sleepCtx waits d or until ctx is done. It reports whether d elapsed.
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
