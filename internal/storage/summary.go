package storage

import "solana-volume-bot/internal/domain"

// Summarize folds events into a TradeSummary.
func Summarize(token string, events []*domain.TradeEvent) *TradeSummary {
	s := &TradeSummary{Token: token}
	for _, e := range events {
		if !e.Succeeded() {
			s.Failed++
			continue
		}
		switch e.Action {
		case domain.ActionBuy:
			s.Buys++
			s.VolumeLamports += e.AmountLamports
		case domain.ActionSell:
			s.Sells++
		}
		s.FeesLamports += e.FeeLamports
	}
	return s
}
