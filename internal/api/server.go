// Package api serves the HTTP control surface of the bot.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"

	"solana-volume-bot/internal/config"
	"solana-volume-bot/internal/domain"
	"solana-volume-bot/internal/events"
	"solana-volume-bot/internal/funding"
	"solana-volume-bot/internal/orchestrator"
	"solana-volume-bot/internal/stats"
	"solana-volume-bot/internal/wallet"
)

// DefaultDistributeSOL is funded to each trading wallet when a distribute
// request names no amount.
const DefaultDistributeSOL = 0.05

const maxBodyBytes = 1 << 16

// Sessions controls volume-loop sessions.
type Sessions interface {
	Start(token string, settings domain.Settings) (bool, error)
	Stop(token string) bool
	Status() []orchestrator.SessionStatus
	BuyHolders(ctx context.Context, token string, req orchestrator.HolderRequest) (orchestrator.HolderReport, error)
}

// Treasury moves and reads SOL across wallets.
type Treasury interface {
	FundAll(ctx context.Context, main *wallet.Wallet, wallets []*wallet.Wallet, lamportsEach uint64) (funding.FundReport, error)
	ReclaimAll(ctx context.Context, wallets []*wallet.Wallet, main *wallet.Wallet, mint string) funding.ReclaimReport
	Balances(ctx context.Context, wallets []*wallet.Wallet) ([]funding.WalletBalance, error)
}

// StatsSource provides the fee and trade counters.
type StatsSource interface {
	Snapshot() stats.Snapshot
}

// Options holds the collaborators of Server.
type Options struct {
	Sessions   Sessions
	Treasury   Treasury
	Stats      StatsSource
	Events     *events.Recorder // optional, serves /api/events
	WalletDir  string
	MainWallet *wallet.Wallet
	Metrics    http.Handler
	Logger     logrus.FieldLogger
}

// Server routes the control API.
type Server struct {
	sessions Sessions
	treasury Treasury
	stats    StatsSource
	events   *events.Recorder
	wallets  wallet.Dir
	main     *wallet.Wallet
	metrics  http.Handler
	log      logrus.FieldLogger
	started  time.Time
}

// New creates a Server.
func New(opts Options) *Server {
	s := &Server{
		sessions: opts.Sessions,
		treasury: opts.Treasury,
		stats:    opts.Stats,
		events:   opts.Events,
		wallets:  wallet.Dir{Root: opts.WalletDir},
		main:     opts.MainWallet,
		metrics:  opts.Metrics,
		log:      opts.Logger,
		started:  time.Now(),
	}
	if s.log == nil {
		s.log = logrus.StandardLogger()
	}
	s.log = s.log.WithField("component", "api")
	return s
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics)
	}

	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/balances", s.handleBalances)
	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("GET /api/events", s.handleEvents)
	mux.HandleFunc("POST /api/start-bot", s.handleStart)
	mux.HandleFunc("POST /api/stop-bot", s.handleStop)
	mux.HandleFunc("POST /api/distribute", s.handleDistribute)
	mux.HandleFunc("POST /api/withdraw", s.handleWithdraw)
	mux.HandleFunc("POST /api/holders", s.handleHolders)

	return mux
}

// StatusResponse is the JSON response for /api/status.
type StatusResponse struct {
	Status   string                       `json:"status"`
	Uptime   string                       `json:"uptime"`
	Sessions []orchestrator.SessionStatus `json:"sessions"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{
		Status:   "running",
		Uptime:   time.Since(s.started).Round(time.Second).String(),
		Sessions: s.sessions.Status(),
	})
}

type startRequest struct {
	TokenAddress string             `json:"tokenAddress"`
	Settings     config.RawSettings `json:"settings"`
}

type messageResponse struct {
	Message   string           `json:"message"`
	Settings  *domain.Settings `json:"settings,omitempty"`
	Signature string           `json:"signature,omitempty"`
	Report    any              `json:"report,omitempty"`
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if !s.decode(w, r, &req) {
		return
	}
	if !s.validToken(w, req.TokenAddress) {
		return
	}

	settings := config.SanitizeSettings(req.Settings)
	log := s.log.WithField("token", req.TokenAddress)

	started, err := s.sessions.Start(req.TokenAddress, settings)
	if err != nil {
		s.fail(w, err, "Failed to start bot")
		return
	}
	if !started {
		writeJSON(w, http.StatusOK, messageResponse{Message: "Bot already running", Settings: &settings})
		return
	}
	log.WithFields(logrus.Fields{
		"min_amount": settings.MinAmount,
		"max_amount": settings.MaxAmount,
		"dry_run":    settings.DryRun,
	}).Info("bot started")
	writeJSON(w, http.StatusOK, messageResponse{Message: "Bot started successfully!", Settings: &settings})
}

type tokenRequest struct {
	TokenAddress string `json:"tokenAddress"`
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.TokenAddress == "" {
		writeError(w, http.StatusBadRequest, "Token address required")
		return
	}
	if !s.sessions.Stop(req.TokenAddress) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("No bot running for %s", req.TokenAddress))
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: fmt.Sprintf("Stopping bot for %s...", req.TokenAddress)})
}

// BalancesResponse is the JSON response for /api/balances.
type BalancesResponse struct {
	Main    *funding.WalletBalance  `json:"main,omitempty"`
	Wallets []funding.WalletBalance `json:"wallets"`
}

func (s *Server) handleBalances(w http.ResponseWriter, r *http.Request) {
	ws, err := s.wallets.LoadAll(wallet.RoleTrading)
	if err != nil {
		s.fail(w, err, "Failed to fetch balances")
		return
	}
	if s.main != nil {
		ws = append([]*wallet.Wallet{s.main}, ws...)
	}

	balances, err := s.treasury.Balances(r.Context(), ws)
	if err != nil {
		s.fail(w, err, "Failed to fetch balances")
		return
	}

	resp := BalancesResponse{Wallets: balances}
	if s.main != nil && len(balances) > 0 {
		resp.Main = &balances[0]
		resp.Wallets = balances[1:]
	}
	if resp.Wallets == nil {
		resp.Wallets = []funding.WalletBalance{}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.stats.Snapshot())
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if s.events == nil {
		writeError(w, http.StatusNotFound, "Event log disabled")
		return
	}
	token := r.URL.Query().Get("token")
	out := make([]eventView, 0)
	for _, e := range s.events.Events() {
		if token == "" || e.Token == token {
			out = append(out, newEventView(e))
		}
	}
	writeJSON(w, http.StatusOK, out)
}

type distributeRequest struct {
	Amount       *float64 `json:"amount"`
	TokenAddress string   `json:"tokenAddress"`
}

func (s *Server) handleDistribute(w http.ResponseWriter, r *http.Request) {
	var req distributeRequest
	if !s.decode(w, r, &req) {
		return
	}
	amount := DefaultDistributeSOL
	if req.Amount != nil {
		amount = *req.Amount
	}
	if amount <= 0 {
		writeError(w, http.StatusBadRequest, "Amount must be positive")
		return
	}
	if s.main == nil {
		s.fail(w, domain.ErrMissingMainWallet, "")
		return
	}

	ws, err := s.tradingWallets(req.TokenAddress)
	if err != nil {
		s.fail(w, err, "Funding failed")
		return
	}
	if len(ws) == 0 {
		writeError(w, http.StatusBadRequest, "No trading wallets to fund")
		return
	}

	report, err := s.treasury.FundAll(r.Context(), s.main, ws, domain.SOLToLamports(amount))
	if err != nil {
		s.fail(w, err, "Funding failed. Check Main Wallet balance.")
		return
	}
	resp := messageResponse{
		Message: fmt.Sprintf("Successfully distributed %v SOL!", amount),
		Report:  report,
	}
	if len(report.Signatures) > 0 {
		resp.Signature = report.Signatures[0]
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.TokenAddress != "" && !s.validToken(w, req.TokenAddress) {
		return
	}
	if s.main == nil {
		s.fail(w, domain.ErrMissingMainWallet, "")
		return
	}

	var ws []*wallet.Wallet
	for _, role := range []string{wallet.RoleTrading, wallet.RoleHolders} {
		got, err := s.wallets.LoadRecoverable(role, req.TokenAddress)
		if err != nil {
			s.fail(w, err, "Withdrawal failed")
			return
		}
		ws = append(ws, got...)
	}

	report := s.treasury.ReclaimAll(r.Context(), ws, s.main, req.TokenAddress)
	writeJSON(w, http.StatusOK, messageResponse{Message: "All funds swept to Main Wallet", Report: report})
}

type holdersRequest struct {
	TokenAddress    string  `json:"tokenAddress"`
	Holders         int     `json:"holders"`
	AmountPerHolder float64 `json:"amountPerHolder"`
	BuyAmount       float64 `json:"buyAmount"`
}

func (s *Server) handleHolders(w http.ResponseWriter, r *http.Request) {
	var req holdersRequest
	if !s.decode(w, r, &req) {
		return
	}
	if !s.validToken(w, req.TokenAddress) {
		return
	}

	report, err := s.sessions.BuyHolders(r.Context(), req.TokenAddress, orchestrator.HolderRequest{
		Holders:         req.Holders,
		AmountPerHolder: req.AmountPerHolder,
		BuyAmount:       req.BuyAmount,
	})
	if err != nil {
		s.fail(w, err, "Failed to execute holder buys")
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Holder buys executed successfully!", Report: report})
}

func (s *Server) tradingWallets(token string) ([]*wallet.Wallet, error) {
	if token != "" {
		return s.wallets.Store(wallet.RoleTrading, token).Load()
	}
	return s.wallets.LoadAll(wallet.RoleTrading)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	// An empty body leaves dst at its zero value.
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return false
	}
	return true
}

func (s *Server) validToken(w http.ResponseWriter, token string) bool {
	if token == "" {
		writeError(w, http.StatusBadRequest, "Token address required")
		return false
	}
	if _, err := solanago.PublicKeyFromBase58(token); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid Solana token address format")
		return false
	}
	return true
}

// fail maps err to a status code. msg replaces the error text for 500s.
func (s *Server) fail(w http.ResponseWriter, err error, msg string) {
	switch {
	case errors.Is(err, domain.ErrInvalidSettings):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrMissingMainWallet):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrInsufficientFunds):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.log.WithError(err).Error(msg)
		if msg == "" {
			msg = err.Error()
		}
		writeError(w, http.StatusInternalServerError, msg)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
