// Package orchestrator runs one volume loop per token and owns the registry
// of running sessions.
package orchestrator

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"solana-volume-bot/internal/domain"
	"solana-volume-bot/internal/funding"
	"solana-volume-bot/internal/observability"
	"solana-volume-bot/internal/wallet"
)

// Swapper executes routed swaps.
type Swapper interface {
	Swap(ctx context.Context, w *wallet.Wallet, token string, action domain.Action, dryRun bool, amountLamports uint64) (string, error)
}

// Funder moves SOL between the main wallet and trading wallets.
type Funder interface {
	Fund(ctx context.Context, main *wallet.Wallet, lamports uint64, target string) (string, error)
	Reclaim(ctx context.Context, w, main *wallet.Wallet, mint string) (funding.ReclaimResult, error)
}

// Orchestrator coordinates volume-loop sessions.
type Orchestrator struct {
	swapper Swapper
	funder  Funder
	wallets wallet.Dir
	main    *wallet.Wallet
	cfg     Config
	metrics *observability.Metrics
	log     logrus.FieldLogger
	seed    func() int64

	mu       sync.Mutex
	sessions map[string]*Session
	wg       sync.WaitGroup
}

// Options for creating Orchestrator.
type Options struct {
	Swapper    Swapper
	Funder     Funder
	WalletDir  string
	MainWallet *wallet.Wallet // required by live sessions only
	Config     Config
	Metrics    *observability.Metrics
	Logger     logrus.FieldLogger
	// Seed returns the random seed of a new session. Defaults to the clock.
	Seed func() int64
}

// New creates a new Orchestrator.
func New(opts Options) *Orchestrator {
	cfg := opts.Config
	cfg.applyDefaults()
	o := &Orchestrator{
		swapper:  opts.Swapper,
		funder:   opts.Funder,
		wallets:  wallet.Dir{Root: opts.WalletDir},
		main:     opts.MainWallet,
		cfg:      cfg,
		metrics:  opts.Metrics,
		log:      opts.Logger,
		seed:     opts.Seed,
		sessions: make(map[string]*Session),
	}
	if o.metrics == nil {
		o.metrics = observability.DefaultMetrics
	}
	if o.log == nil {
		o.log = logrus.StandardLogger()
	}
	o.log = o.log.WithField("component", "orchestrator")
	if o.seed == nil {
		o.seed = func() int64 { return time.Now().UnixNano() }
	}
	return o
}

// Start launches a session for token. It returns false without error when a
// session for token is already running.
func (o *Orchestrator) Start(token string, settings domain.Settings) (bool, error) {
	if token == "" {
		return false, fmt.Errorf("%w: empty token", domain.ErrInvalidSettings)
	}
	if err := settings.Validate(); err != nil {
		return false, err
	}
	if o.main == nil && !settings.DryRun {
		return false, domain.ErrMissingMainWallet
	}

	o.mu.Lock()
	if _, running := o.sessions[token]; running {
		o.mu.Unlock()
		return false, nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := newSession(token, settings, cancel, o.seed())
	o.sessions[token] = s
	active := len(o.sessions)
	o.wg.Add(1)
	o.mu.Unlock()

	o.metrics.SetActiveSessions(active)
	o.log.WithFields(logrus.Fields{
		"token":         token,
		"dry_run":       settings.DryRun,
		"target_makers": settings.TargetMakers,
	}).Info("session started")

	go o.run(ctx, s)
	return true, nil
}

// Stop cancels the session of token. It returns false when none is running.
func (o *Orchestrator) Stop(token string) bool {
	o.mu.Lock()
	s, ok := o.sessions[token]
	o.mu.Unlock()
	if !ok {
		return false
	}
	s.cancel()
	o.log.WithField("token", token).Info("stop requested")
	return true
}

// Status returns a snapshot of every running session ordered by token.
func (o *Orchestrator) Status() []SessionStatus {
	o.mu.Lock()
	sessions := make([]*Session, 0, len(o.sessions))
	for _, s := range o.sessions {
		sessions = append(sessions, s)
	}
	o.mu.Unlock()

	out := make([]SessionStatus, len(sessions))
	for i, s := range sessions {
		out[i] = s.Status()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Token < out[j].Token })
	return out
}

// Session returns the status of the session of token.
func (o *Orchestrator) Session(token string) (SessionStatus, bool) {
	o.mu.Lock()
	s, ok := o.sessions[token]
	o.mu.Unlock()
	if !ok {
		return SessionStatus{}, false
	}
	return s.Status(), true
}

// Done returns a channel closed when the session of token has exited, or
// nil when no session is running.
func (o *Orchestrator) Done(token string) <-chan struct{} {
	o.mu.Lock()
	defer o.mu.Unlock()
	if s, ok := o.sessions[token]; ok {
		return s.done
	}
	return nil
}

// Wait blocks until every session has exited.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

// Shutdown stops every session and waits for them to finish their cleanup,
// or for ctx to expire.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	o.mu.Lock()
	for _, s := range o.sessions {
		s.cancel()
	}
	o.mu.Unlock()

	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("shutdown: %w", ctx.Err())
	}
}

func (o *Orchestrator) run(ctx context.Context, s *Session) {
	defer o.wg.Done()
	defer close(s.done)
	defer s.cancel()

	log := o.log.WithField("token", s.token)
	l := &loop{o: o, s: s, log: log}
	l.run(ctx)

	s.setState(StateTerminated)

	o.mu.Lock()
	if o.sessions[s.token] == s {
		delete(o.sessions, s.token)
	}
	active := len(o.sessions)
	o.mu.Unlock()
	o.metrics.SetActiveSessions(active)

	st := s.Status()
	log.WithFields(logrus.Fields{
		"cycles":   st.Cycles,
		"buys":     st.Buys,
		"sells":    st.Sells,
		"failures": st.Failures,
		"makers":   st.Makers,
	}).Info("session terminated")
}
