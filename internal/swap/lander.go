package swap

import (
	"context"
	"errors"
	"fmt"

	solanago "github.com/gagliardetto/solana-go"

	"solana-volume-bot/internal/domain"
	"solana-volume-bot/internal/solana"
	"solana-volume-bot/internal/wallet"
)

// Lander signs venue-built transactions and lands them on chain.
type Lander struct {
	submitter *solana.Submitter
	opts      solana.SendOptions
}

// NewLander creates a lander broadcasting with skipPreflight and two node
// retries.
func NewLander(submitter *solana.Submitter) *Lander {
	return &Lander{
		submitter: submitter,
		opts:      solana.SendOptions{SkipPreflight: true, MaxRetries: 2},
	}
}

// Land submits every blob in order and returns the last signature. Each blob
// is broadcast exactly once. A confirmation timeout on the final blob is
// returned as *UnconfirmedError.
func (l *Lander) Land(ctx context.Context, w *wallet.Wallet, blobs [][]byte) (string, error) {
	var sig string
	for i, blob := range blobs {
		tx, err := solanago.TransactionFromBytes(blob)
		if err != nil {
			return "", fmt.Errorf("decode transaction %d: %w", i, err)
		}
		sig, err = l.submitter.Submit(ctx, tx, l.opts, w.PrivateKey())
		if err != nil {
			if i == len(blobs)-1 && sig != "" && errors.Is(err, solana.ErrConfirmationTimeout) {
				return sig, &UnconfirmedError{Signature: sig, Err: err}
			}
			return sig, err
		}
	}
	return sig, nil
}

// Confirmed reports whether signature has reached the confirmation
// commitment.
func (l *Lander) Confirmed(ctx context.Context, signature string) (bool, error) {
	return l.submitter.Confirmed(ctx, signature)
}

// UnconfirmedError is a broadcast whose confirmation wait expired. The
// transaction may still land.
type UnconfirmedError struct {
	Signature string
	Err       error
}

func (e *UnconfirmedError) Error() string { return e.Err.Error() }

func (e *UnconfirmedError) Unwrap() error { return e.Err }

func classifyLanding(err error) OutcomeKind {
	var txErr *solana.TransactionError
	if errors.As(err, &txErr) {
		if txErr.IsInsufficientFunds() {
			return OutcomeHardReject
		}
		return OutcomeTransient
	}
	if solana.IsInsufficientFundsRPC(err) {
		return OutcomeHardReject
	}
	return OutcomeTransient
}

// landingError wraps insufficient-funds landings with domain.ErrInsufficientFunds.
func landingError(err error) error {
	var txErr *solana.TransactionError
	if (errors.As(err, &txErr) && txErr.IsInsufficientFunds()) || solana.IsInsufficientFundsRPC(err) {
		return fmt.Errorf("%w: %w", domain.ErrInsufficientFunds, err)
	}
	return err
}
