package orchestrator

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"solana-volume-bot/internal/domain"
	"solana-volume-bot/internal/wallet"
)

// HolderRequest describes a holders campaign.
type HolderRequest struct {
	Holders         int
	AmountPerHolder float64 // SOL funded to each holder
	BuyAmount       float64 // SOL spent by each holder; zero uses the configured default
}

// HolderResult is the outcome for one holder wallet.
type HolderResult struct {
	Wallet    string `json:"wallet"`
	Signature string `json:"signature,omitempty"`
	Error     string `json:"error,omitempty"`
}

// HolderReport summarizes a holders campaign.
type HolderReport struct {
	Token     string         `json:"token"`
	Succeeded int            `json:"succeeded"`
	Failed    int            `json:"failed"`
	Results   []HolderResult `json:"results"`
}

// BuyHolders funds each holder wallet, buys token with it and sweeps the
// remaining SOL back, leaving the tokens in place. Holders run sequentially.
func (o *Orchestrator) BuyHolders(ctx context.Context, token string, req HolderRequest) (HolderReport, error) {
	report := HolderReport{Token: token}
	switch {
	case token == "":
		return report, fmt.Errorf("%w: empty token", domain.ErrInvalidSettings)
	case req.Holders < 1:
		return report, fmt.Errorf("%w: holders must be positive", domain.ErrInvalidSettings)
	case req.AmountPerHolder <= 0:
		return report, fmt.Errorf("%w: amountPerHolder must be positive", domain.ErrInvalidSettings)
	}
	if o.main == nil {
		return report, domain.ErrMissingMainWallet
	}
	buyAmount := req.BuyAmount
	if buyAmount <= 0 {
		buyAmount = o.cfg.Holders.BuyAmount
	}
	if buyAmount >= req.AmountPerHolder {
		return report, fmt.Errorf("%w: buyAmount %v must be below amountPerHolder %v",
			domain.ErrInvalidSettings, buyAmount, req.AmountPerHolder)
	}

	holders, err := o.wallets.Store(wallet.RoleHolders, token).Generate(req.Holders, false)
	if err != nil {
		return report, fmt.Errorf("load holders: %w", err)
	}

	log := o.log.WithFields(logrus.Fields{"token": token, "holders": len(holders)})
	log.Info("holders campaign started")

	p := o.cfg.Holders
	for i, h := range holders {
		if ctx.Err() != nil {
			break
		}
		res := HolderResult{Wallet: h.Address()}
		sig, err := o.holderBuy(ctx, token, h, req.AmountPerHolder, buyAmount)
		if err != nil {
			res.Error = err.Error()
			report.Failed++
			log.WithField("wallet", h.Address()).WithError(err).Warn("holder buy failed")
		} else {
			res.Signature = sig
			report.Succeeded++
		}
		report.Results = append(report.Results, res)

		if i < len(holders)-1 && !sleepCtx(ctx, p.NextPause) {
			break
		}
	}

	log.WithFields(logrus.Fields{
		"succeeded": report.Succeeded,
		"failed":    report.Failed,
	}).Info("holders campaign finished")
	return report, ctx.Err()
}

func (o *Orchestrator) holderBuy(ctx context.Context, token string, h *wallet.Wallet, fund, buy float64) (string, error) {
	p := o.cfg.Holders
	if _, err := o.funder.Fund(ctx, o.main, domain.SOLToLamports(fund), h.Address()); err != nil {
		return "", fmt.Errorf("fund: %w", err)
	}
	if !sleepCtx(ctx, p.FundPause) {
		return "", ctx.Err()
	}

	sig, buyErr := o.swapper.Swap(ctx, h, token, domain.ActionBuy, false, domain.SOLToLamports(buy))
	if buyErr == nil {
		sleepCtx(ctx, p.BuyPause)
	}

	// Sweep SOL even when the buy failed, without selling the tokens.
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.cfg.ReclaimTimeout)
	defer cancel()
	if _, err := o.funder.Reclaim(rctx, h, o.main, ""); err != nil {
		o.log.WithField("wallet", h.Address()).WithError(err).Warn("holder reclaim failed")
	}

	if buyErr != nil {
		return "", fmt.Errorf("buy: %w", buyErr)
	}
	return sig, nil
}
