package solana

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	solanago "github.com/gagliardetto/solana-go"
)

// DefaultSendTimeout bounds a single sendTransaction broadcast.
const DefaultSendTimeout = 15 * time.Second

// Submitter anchors, signs, broadcasts and confirms transactions.
type Submitter struct {
	rpc         RPCClient
	blockhashes *BlockhashCache
	confirmer   *Confirmer
	sendTimeout time.Duration
}

// NewSubmitter creates a Submitter. sendTimeout <= 0 uses DefaultSendTimeout.
func NewSubmitter(rpc RPCClient, blockhashes *BlockhashCache, confirmer *Confirmer, sendTimeout time.Duration) *Submitter {
	if sendTimeout <= 0 {
		sendTimeout = DefaultSendTimeout
	}
	return &Submitter{
		rpc:         rpc,
		blockhashes: blockhashes,
		confirmer:   confirmer,
		sendTimeout: sendTimeout,
	}
}

// Confirmed reports whether a previously broadcast signature has reached the
// confirmer's commitment.
func (s *Submitter) Confirmed(ctx context.Context, signature string) (bool, error) {
	return s.confirmer.Check(ctx, signature)
}

// Submit replaces tx's blockhash with a fresh one, signs it with signers,
// broadcasts it once and waits for confirmation.
//
// The broadcast runs on a context detached from ctx cancellation so that a
// stop request never tears down a send in flight. The confirmation wait
// observes ctx. A non-empty signature is returned whenever the broadcast
// was accepted, even if the confirmation wait then fails.
func (s *Submitter) Submit(ctx context.Context, tx *solanago.Transaction, opts SendOptions, signers ...solanago.PrivateKey) (string, error) {
	bh, err := s.blockhashes.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("latest blockhash: %w", err)
	}
	hash, err := solanago.HashFromBase58(bh.Blockhash)
	if err != nil {
		return "", fmt.Errorf("parse blockhash %q: %w", bh.Blockhash, err)
	}
	tx.Message.RecentBlockhash = hash

	keys := make(map[solanago.PublicKey]*solanago.PrivateKey, len(signers))
	for i := range signers {
		keys[signers[i].PublicKey()] = &signers[i]
	}
	// old signatures cover the old blockhash
	tx.Signatures = nil
	if _, err := tx.Sign(func(key solanago.PublicKey) *solanago.PrivateKey {
		return keys[key]
	}); err != nil {
		return "", fmt.Errorf("sign transaction: %w", err)
	}

	raw, err := tx.MarshalBinary()
	if err != nil {
		return "", fmt.Errorf("serialize transaction: %w", err)
	}

	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.sendTimeout)
	signature, err := s.rpc.SendTransaction(sendCtx, base64.StdEncoding.EncodeToString(raw), opts)
	cancel()
	if err != nil {
		if IsBlockhashNotFound(err) {
			s.blockhashes.Invalidate()
		}
		return "", fmt.Errorf("send transaction: %w", err)
	}
	if signature == "" && len(tx.Signatures) > 0 {
		signature = tx.Signatures[0].String()
	}

	if err := s.confirmer.Wait(ctx, signature); err != nil {
		return signature, err
	}
	return signature, nil
}
