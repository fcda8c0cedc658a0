package pricecache

import (
	"fmt"
	"sync"

	"solana-volume-bot/internal/domain"
)

// Ledger tracks simulated positions per token.
type Ledger struct {
	mu        sync.Mutex
	positions map[string]domain.Position
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{positions: make(map[string]domain.Position)}
}

// RecordBuy adds amountNative/price tokens to the position of token.
// It returns the number of tokens bought.
func (l *Ledger) RecordBuy(token string, amountNative, price float64) (float64, error) {
	if price <= 0 {
		return 0, fmt.Errorf("record buy %s: %w", token, domain.ErrPriceUnavailable)
	}
	bought := amountNative / price

	l.mu.Lock()
	defer l.mu.Unlock()
	p := l.positions[token]
	p.Tokens += bought
	p.InvestedNative += amountNative
	l.positions[token] = p
	return bought, nil
}

// RecordSell closes the position of token at sellPrice and returns the
// realized PnL in SOL. ok is false when there is no position.
func (l *Ledger) RecordSell(token string, sellPrice float64) (pnl float64, closed domain.Position, ok bool, err error) {
	if sellPrice <= 0 {
		return 0, domain.Position{}, false, fmt.Errorf("record sell %s: %w", token, domain.ErrPriceUnavailable)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	p, exists := l.positions[token]
	if !exists || p.Tokens <= 0 {
		return 0, domain.Position{}, false, nil
	}
	delete(l.positions, token)
	return p.Tokens*sellPrice - p.InvestedNative, p, true, nil
}

// Position returns the open position of token.
func (l *Ledger) Position(token string) (domain.Position, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.positions[token]
	return p, ok
}
