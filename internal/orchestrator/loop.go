package orchestrator

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"solana-volume-bot/internal/domain"
	"solana-volume-bot/internal/wallet"
)

// loop is the per-session state machine. It runs on the session goroutine
// and owns the batch and the session rng.
type loop struct {
	o     *Orchestrator
	s     *Session
	log   logrus.FieldLogger
	batch *batch
}

func (l *loop) run(ctx context.Context) {
	settings := l.s.settings
	defer func() {
		if l.o.cfg.Reclaim == ReclaimBatchEnd {
			l.reclaimBatch(ctx)
		}
	}()

	for {
		if ctx.Err() != nil {
			return
		}
		if settings.Campaign() && l.s.makerCount() >= settings.TargetMakers {
			l.log.WithField("makers", settings.TargetMakers).Info("campaign target reached")
			return
		}

		l.s.setState(StateFunding)
		w, err := l.nextWallet(ctx)
		if err != nil {
			if ctx.Err() == nil {
				l.fatal(err)
			}
			return
		}
		l.s.update(func(s *Session) { s.wallet = w.Address() })

		if !settings.DryRun {
			lamports := domain.FundingLamports(settings, l.o.cfg.FundingMultiplier)
			if _, err := l.o.funder.Fund(ctx, l.o.main, lamports, w.Address()); err != nil {
				if ctx.Err() == nil {
					l.fatal(fmt.Errorf("fund %s: %w", w.Address(), err))
				}
				if l.o.cfg.Reclaim == ReclaimPerCycle {
					l.reclaim(ctx, w)
				}
				return
			}
		}

		l.s.setState(StateTrading)
		bought := l.trade(ctx, w)

		l.s.update(func(s *Session) {
			s.cycles++
			if bought {
				s.makers++
			}
		})
		l.o.metrics.RecordCycle(settings.DryRun)

		if !settings.DryRun && l.o.cfg.Reclaim == ReclaimPerCycle {
			l.reclaim(ctx, w)
		}
	}
}

// nextWallet returns an unused wallet of the current batch, generating a new
// batch when the current one is spent. Dry-run batches live in memory only.
// A live batch whose wallets were all swept is cleared before replacement;
// otherwise the old file is archived by the store.
func (l *loop) nextWallet(ctx context.Context) (*wallet.Wallet, error) {
	if l.batch.exhausted() {
		if l.batch != nil && l.o.cfg.Reclaim == ReclaimBatchEnd {
			l.reclaimBatch(ctx)
		}
		ws, err := l.generate()
		if err != nil {
			return nil, fmt.Errorf("generate batch: %w", err)
		}
		l.batch = newBatch(ws)
		l.log.WithField("wallets", len(ws)).Debug("generated wallet batch")
	}
	return l.batch.pick(l.o.cfg.Selection, l.s.rng), nil
}

func (l *loop) generate() ([]*wallet.Wallet, error) {
	size := l.o.cfg.BatchSize
	if l.s.settings.DryRun {
		return wallet.Generate(size)
	}
	store := l.o.wallets.Store(wallet.RoleTrading, l.s.token)
	if l.batch != nil && !l.batch.unswept {
		if err := store.Clear(); err != nil {
			return nil, err
		}
	}
	return store.Generate(size, true)
}

// trade runs the buys of one cycle followed by the sell. It reports whether
// at least one buy landed.
func (l *loop) trade(ctx context.Context, w *wallet.Wallet) bool {
	settings := l.s.settings
	rng := l.s.rng
	log := l.log.WithField("wallet", w.Address())

	targetBuys := randInt(rng, settings.MinBuys, settings.MaxBuys)
	bought := false
	for i := 0; i < targetBuys; i++ {
		if !sleepCtx(ctx, randDelay(rng, settings.MinDelay, settings.MaxDelay)) {
			return bought
		}
		amount := randAmount(rng, settings.MinAmount, settings.MaxAmount)
		sig, err := l.o.swapper.Swap(ctx, w, l.s.token, domain.ActionBuy, settings.DryRun, domain.SOLToLamports(amount))
		if err != nil {
			if ctx.Err() != nil {
				return bought
			}
			l.tradeFailed(log, domain.ActionBuy, err)
			continue
		}
		bought = true
		l.s.update(func(s *Session) { s.buys++ })
		log.WithFields(logrus.Fields{"amount_sol": amount, "signature": sig}).Info("buy")
	}

	if !sleepCtx(ctx, randDelay(rng, settings.MinDelay, settings.MaxDelay)) {
		return bought
	}
	sig, err := l.o.swapper.Swap(ctx, w, l.s.token, domain.ActionSell, settings.DryRun, 0)
	switch {
	case err != nil:
		l.tradeFailed(log, domain.ActionSell, err)
	case sig == "":
		log.Debug("nothing to sell")
	default:
		l.s.update(func(s *Session) { s.sells++ })
		log.WithField("signature", sig).Info("sell")
	}
	return bought
}

func (l *loop) tradeFailed(log logrus.FieldLogger, action domain.Action, err error) {
	l.s.update(func(s *Session) {
		s.failures++
		s.lastErr = err.Error()
	})
	log.WithField("action", action).WithError(err).Warn("trade failed")
}

// reclaim sweeps w back to the main wallet. A failure marks the batch as
// holding unswept funds.
func (l *loop) reclaim(ctx context.Context, w *wallet.Wallet) {
	l.s.setState(StateReclaiming)
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.o.cfg.ReclaimTimeout)
	defer cancel()

	res, err := l.o.funder.Reclaim(rctx, w, l.o.main, l.s.token)
	log := l.log.WithField("wallet", w.Address())
	if err != nil {
		log.WithError(err).Warn("reclaim failed")
		if l.batch != nil {
			l.batch.unswept = true
		}
		return
	}
	if !res.Skipped {
		log.WithFields(logrus.Fields{
			"lamports":  res.Lamports,
			"signature": res.Signature,
		}).Info("reclaimed")
	}
}

func (l *loop) reclaimBatch(ctx context.Context) {
	if l.s.settings.DryRun || l.batch == nil {
		return
	}
	spent := l.batch.spent
	l.batch.spent = nil
	l.batch.wallets = nil
	for _, w := range spent {
		l.reclaim(ctx, w)
	}
}

func (l *loop) fatal(err error) {
	l.s.update(func(s *Session) { s.lastErr = err.Error() })
	l.log.WithError(err).Error("session aborted")
}
