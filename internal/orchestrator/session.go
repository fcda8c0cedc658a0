package orchestrator

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"solana-volume-bot/internal/domain"
)

// State is the phase of a session.
type State string

const (
	StateFunding    State = "FUNDING"
	StateTrading    State = "TRADING"
	StateReclaiming State = "RECLAIMING"
	StateTerminated State = "TERMINATED"
)

// Session is one running volume loop.
type Session struct {
	token    string
	settings domain.Settings
	cancel   context.CancelFunc
	done     chan struct{}
	rng      *rand.Rand // owned by the loop goroutine

	mu        sync.Mutex
	state     State
	startedAt time.Time
	wallet    string
	cycles    int
	buys      int
	sells     int
	failures  int
	makers    int
	lastErr   string
}

func newSession(token string, settings domain.Settings, cancel context.CancelFunc, seed int64) *Session {
	return &Session{
		token:     token,
		settings:  settings,
		cancel:    cancel,
		done:      make(chan struct{}),
		rng:       rand.New(rand.NewSource(seed)),
		state:     StateFunding,
		startedAt: time.Now(),
	}
}

// SessionStatus is a snapshot of a session.
type SessionStatus struct {
	Token     string          `json:"token"`
	State     State           `json:"state"`
	Settings  domain.Settings `json:"settings"`
	StartedAt time.Time       `json:"startedAt"`
	Wallet    string          `json:"wallet,omitempty"`
	Cycles    int             `json:"cycles"`
	Buys      int             `json:"buys"`
	Sells     int             `json:"sells"`
	Failures  int             `json:"failures"`
	Makers    int             `json:"makers"`
	LastError string          `json:"lastError,omitempty"`
}

// Status returns a snapshot.
func (s *Session) Status() SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionStatus{
		Token:     s.token,
		State:     s.state,
		Settings:  s.settings,
		StartedAt: s.startedAt,
		Wallet:    s.wallet,
		Cycles:    s.cycles,
		Buys:      s.buys,
		Sells:     s.sells,
		Failures:  s.failures,
		Makers:    s.makers,
		LastError: s.lastErr,
	}
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

func (s *Session) update(fn func(s *Session)) {
	s.mu.Lock()
	fn(s)
	s.mu.Unlock()
}

func (s *Session) makerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.makers
}
