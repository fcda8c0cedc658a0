package solana

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// statusRPC serves scripted signature statuses, one slice entry per poll.
type statusRPC struct {
	RPCClient // unused methods panic

	mu     sync.Mutex
	script []*SignatureStatus
	err    error
	polls  int
}

func (s *statusRPC) GetSignatureStatuses(_ context.Context, sigs []string) ([]*SignatureStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.polls++
	if s.err != nil {
		return nil, s.err
	}
	if len(s.script) == 0 {
		return []*SignatureStatus{nil}, nil
	}
	next := s.script[0]
	if len(s.script) > 1 {
		s.script = s.script[1:]
	}
	return []*SignatureStatus{next}, nil
}

func TestConfirmer_WaitsForCommitment(t *testing.T) {
	rpc := &statusRPC{script: []*SignatureStatus{
		nil,
		{ConfirmationStatus: CommitmentProcessed},
		{ConfirmationStatus: CommitmentConfirmed},
	}}
	c := NewConfirmer(rpc, nil, ConfirmerConfig{Timeout: time.Second, PollInterval: 5 * time.Millisecond})

	if err := c.Wait(context.Background(), "sig"); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if rpc.polls != 3 {
		t.Errorf("expected 3 polls, got %d", rpc.polls)
	}
}

func TestConfirmer_TransactionError(t *testing.T) {
	rpc := &statusRPC{script: []*SignatureStatus{
		{ConfirmationStatus: CommitmentConfirmed, Err: map[string]interface{}{"InstructionError": []interface{}{2, map[string]interface{}{"Custom": 1}}}},
	}}
	c := NewConfirmer(rpc, nil, ConfirmerConfig{Timeout: time.Second, PollInterval: 5 * time.Millisecond})

	err := c.Wait(context.Background(), "sig")
	var txErr *TransactionError
	if !errors.As(err, &txErr) {
		t.Fatalf("expected TransactionError, got %v", err)
	}
	if !txErr.IsInsufficientFunds() {
		t.Errorf("expected insufficient funds classification for %s", txErr.Error())
	}
}

func TestConfirmer_Timeout(t *testing.T) {
	rpc := &statusRPC{err: errors.New("node unhealthy")}
	c := NewConfirmer(rpc, nil, ConfirmerConfig{Timeout: 30 * time.Millisecond, PollInterval: 5 * time.Millisecond})

	err := c.Wait(context.Background(), "sig")
	if !errors.Is(err, ErrConfirmationTimeout) {
		t.Fatalf("expected ErrConfirmationTimeout, got %v", err)
	}
}

func TestConfirmer_ObservesCancellation(t *testing.T) {
	rpc := &statusRPC{}
	c := NewConfirmer(rpc, nil, ConfirmerConfig{Timeout: 10 * time.Second, PollInterval: 5 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	err := c.Wait(ctx, "sig")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Error("cancellation was not observed promptly")
	}
}

type notifyWS struct {
	n SignatureNotification
}

func (w *notifyWS) SubscribeSignature(_ context.Context, sig, _ string) (<-chan SignatureNotification, error) {
	ch := make(chan SignatureNotification, 1)
	n := w.n
	n.Signature = sig
	ch <- n
	close(ch)
	return ch, nil
}

func (w *notifyWS) Close() error { return nil }

func TestConfirmer_WebSocketWins(t *testing.T) {
	rpc := &statusRPC{}
	c := NewConfirmer(rpc, &notifyWS{}, ConfirmerConfig{Timeout: time.Second, PollInterval: time.Hour})

	if err := c.Wait(context.Background(), "sig"); err != nil {
		t.Fatalf("Wait: %v", err)
	}
}

func TestConfirmer_WebSocketError(t *testing.T) {
	rpc := &statusRPC{}
	ws := &notifyWS{n: SignatureNotification{Err: map[string]interface{}{"InstructionError": []interface{}{0, map[string]interface{}{"Custom": 6001}}}}}
	c := NewConfirmer(rpc, ws, ConfirmerConfig{Timeout: time.Second, PollInterval: time.Hour})

	err := c.Wait(context.Background(), "sig")
	var txErr *TransactionError
	if !errors.As(err, &txErr) || !txErr.IsSlippage() {
		t.Fatalf("expected slippage TransactionError, got %v", err)
	}
}
