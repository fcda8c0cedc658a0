package api

import (
	"time"

	"solana-volume-bot/internal/domain"
)

type eventView struct {
	ID          string    `json:"id"`
	Token       string    `json:"token"`
	Wallet      string    `json:"wallet"`
	Action      string    `json:"action"`
	Venue       string    `json:"venue"`
	Signature   string    `json:"signature,omitempty"`
	AmountSOL   float64   `json:"amountSol,omitempty"`
	TokenAmount uint64    `json:"tokenAmount,omitempty"`
	FeeSOL      float64   `json:"feeSol,omitempty"`
	DryRun      bool      `json:"dryRun"`
	PnLSOL      float64   `json:"pnlSol,omitempty"`
	Error       string    `json:"error,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

func newEventView(e domain.TradeEvent) eventView {
	return eventView{
		ID:          e.ID,
		Token:       e.Token,
		Wallet:      e.Wallet,
		Action:      string(e.Action),
		Venue:       e.Venue,
		Signature:   e.Signature,
		AmountSOL:   domain.LamportsToSOL(e.AmountLamports),
		TokenAmount: e.TokenAmount,
		FeeSOL:      domain.LamportsToSOL(e.FeeLamports),
		DryRun:      e.DryRun,
		PnLSOL:      e.PnLNative,
		Error:       e.Err,
		Timestamp:   e.Timestamp,
	}
}
