package solana

import (
	"context"
	"fmt"
	"time"
)

// Confirmation defaults.
const (
	DefaultConfirmTimeout = 45 * time.Second
	DefaultPollInterval   = 1 * time.Second
)

// ConfirmerConfig configures Confirmer.
type ConfirmerConfig struct {
	Timeout      time.Duration
	PollInterval time.Duration
	Commitment   string
}

// Confirmer waits for signatures to reach a commitment level.
// It polls getSignatureStatuses and, when a WSClient is present, races a
// signatureSubscribe notification against the poll.
type Confirmer struct {
	rpc RPCClient
	ws  WSClient
	cfg ConfirmerConfig
}

// NewConfirmer creates a Confirmer. ws may be nil.
func NewConfirmer(rpc RPCClient, ws WSClient, cfg ConfirmerConfig) *Confirmer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfirmTimeout
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.Commitment == "" {
		cfg.Commitment = CommitmentConfirmed
	}
	return &Confirmer{rpc: rpc, ws: ws, cfg: cfg}
}

// Wait blocks until signature reaches the configured commitment.
// Returns *TransactionError when the transaction landed but failed,
// ErrConfirmationTimeout when the deadline passes, or ctx.Err() on cancellation.
// Transient RPC errors during polling are absorbed until the deadline.
func (c *Confirmer) Wait(ctx context.Context, signature string) error {
	waitCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	var notify <-chan SignatureNotification
	if c.ws != nil {
		// Subscription failures leave polling as the only signal.
		if ch, err := c.ws.SubscribeSignature(waitCtx, signature, c.cfg.Commitment); err == nil {
			notify = ch
		}
	}

	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	var lastErr error
	for {
		done, err := c.poll(waitCtx, signature)
		if done {
			return err
		}
		if err != nil {
			lastErr = err
		}

		select {
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if lastErr != nil {
				return fmt.Errorf("%w: %s (last poll error: %v)", ErrConfirmationTimeout, signature, lastErr)
			}
			return fmt.Errorf("%w: %s", ErrConfirmationTimeout, signature)
		case n, ok := <-notify:
			if !ok {
				notify = nil
				continue
			}
			if n.Err != nil {
				return &TransactionError{Signature: signature, Err: n.Err}
			}
			return nil
		case <-ticker.C:
		}
	}
}

// Check reports whether signature has reached the configured commitment,
// polling once. A landed but failed transaction returns *TransactionError.
func (c *Confirmer) Check(ctx context.Context, signature string) (bool, error) {
	done, err := c.poll(ctx, signature)
	return done && err == nil, err
}

// poll checks the signature once. done is true when a final answer exists.
func (c *Confirmer) poll(ctx context.Context, signature string) (done bool, err error) {
	statuses, err := c.rpc.GetSignatureStatuses(ctx, []string{signature})
	if err != nil {
		return false, err
	}
	if len(statuses) == 0 || statuses[0] == nil {
		return false, nil
	}
	status := statuses[0]
	if status.Err != nil {
		return true, &TransactionError{Signature: signature, Err: status.Err}
	}
	if status.Reached(c.cfg.Commitment) {
		return true, nil
	}
	return false, nil
}
