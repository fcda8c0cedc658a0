// Package funding moves SOL between the main wallet and disposable trading
// wallets.
package funding

import (
	"context"
	"errors"
	"fmt"
	"time"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"

	"solana-volume-bot/internal/domain"
	"solana-volume-bot/internal/observability"
	"solana-volume-bot/internal/solana"
	"solana-volume-bot/internal/wallet"
)

// Defaults.
const (
	DefaultRetainLamports     = 5000
	DefaultLowBalanceLamports = 10_000_000 // 0.01 SOL
	DefaultReclaimPause       = 2 * time.Second
	DefaultTransfersPerTx     = 10
	maxAccountsPerRequest     = 100
)

// Seller sells a wallet's whole token balance.
type Seller interface {
	Swap(ctx context.Context, w *wallet.Wallet, token string, action domain.Action, dryRun bool, amountLamports uint64) (string, error)
}

// FeeRecorder is notified of every network fee paid by the manager.
type FeeRecorder interface {
	AddFee(lamports uint64)
}

// Config configures Manager.
type Config struct {
	TxFeeLamports      uint64        `yaml:"tx_fee_lamports"`
	RetainLamports     uint64        `yaml:"retain_lamports"`
	LowBalanceLamports uint64        `yaml:"low_balance_lamports"`
	ReclaimPause       time.Duration `yaml:"reclaim_pause"`
	TransfersPerTx     int           `yaml:"transfers_per_tx"`
}

func (c *Config) applyDefaults() {
	if c.TxFeeLamports == 0 {
		c.TxFeeLamports = solana.TxFeeLamports
	}
	if c.RetainLamports == 0 {
		c.RetainLamports = DefaultRetainLamports
	}
	if c.LowBalanceLamports == 0 {
		c.LowBalanceLamports = DefaultLowBalanceLamports
	}
	// negative disables the pause
	if c.ReclaimPause == 0 {
		c.ReclaimPause = DefaultReclaimPause
	}
	if c.TransfersPerTx <= 0 || c.TransfersPerTx > DefaultTransfersPerTx {
		c.TransfersPerTx = DefaultTransfersPerTx
	}
}

// Options holds the collaborators of a Manager.
type Options struct {
	RPC       solana.RPCClient
	Submitter *solana.Submitter
	// Seller liquidates token balances before a reclaim. Nil skips that phase.
	Seller  Seller
	Fees    FeeRecorder
	Config  Config
	Metrics *observability.Metrics
	Logger  logrus.FieldLogger
}

// Manager funds trading wallets and reclaims what is left in them.
type Manager struct {
	rpc       solana.RPCClient
	submitter *solana.Submitter
	seller    Seller
	fees      FeeRecorder
	cfg       Config
	metrics   *observability.Metrics
	log       logrus.FieldLogger
}

// NewManager creates a manager.
func NewManager(opts Options) *Manager {
	cfg := opts.Config
	cfg.applyDefaults()
	m := &Manager{
		rpc:       opts.RPC,
		submitter: opts.Submitter,
		seller:    opts.Seller,
		fees:      opts.Fees,
		cfg:       cfg,
		metrics:   opts.Metrics,
		log:       opts.Logger,
	}
	if m.metrics == nil {
		m.metrics = observability.DefaultMetrics
	}
	if m.log == nil {
		m.log = logrus.StandardLogger()
	}
	m.log = m.log.WithField("component", "funding")
	return m
}

// Fund transfers lamports from main to target and waits for confirmation.
// It fails with domain.ErrInsufficientFunds, without broadcasting, when main
// cannot cover the amount plus the network fee.
func (m *Manager) Fund(ctx context.Context, main *wallet.Wallet, lamports uint64, target string) (string, error) {
	if main == nil {
		return "", domain.ErrMissingMainWallet
	}
	if lamports == 0 {
		return "", fmt.Errorf("fund %s: zero amount", target)
	}
	to, err := solanago.PublicKeyFromBase58(target)
	if err != nil {
		return "", fmt.Errorf("fund %s: bad address: %w", target, err)
	}

	balance, err := m.rpc.GetBalance(ctx, main.Address())
	if err != nil {
		return "", fmt.Errorf("fund %s: main balance: %w", target, err)
	}
	if need := lamports + m.cfg.TxFeeLamports; balance < need {
		err := fmt.Errorf("fund %s: %w: main has %d lamports, need %d", target, domain.ErrInsufficientFunds, balance, need)
		m.metrics.RecordFunding(0, err)
		return "", err
	}

	sig, err := m.transfer(ctx, main, solana.Transfer{To: to, Lamports: lamports})
	m.metrics.RecordFunding(domain.LamportsToSOL(lamports), err)
	if err != nil {
		return sig, fmt.Errorf("fund %s: %w", target, err)
	}

	m.log.WithFields(logrus.Fields{
		"wallet":    target,
		"sol":       domain.LamportsToSOL(lamports),
		"signature": sig,
	}).Info("wallet funded")
	return sig, nil
}

// FundReport summarizes FundAll.
type FundReport struct {
	Funded     int      `json:"funded"`
	Failed     int      `json:"failed"`
	Lamports   uint64   `json:"lamports"`
	Signatures []string `json:"signatures"`
}

// FundAll sends lamportsEach to every wallet, packing several transfers per
// transaction. The whole batch is checked against the main balance first.
// A failed chunk is logged and counted and the remaining chunks still go out.
func (m *Manager) FundAll(ctx context.Context, main *wallet.Wallet, wallets []*wallet.Wallet, lamportsEach uint64) (FundReport, error) {
	var report FundReport
	if main == nil {
		return report, domain.ErrMissingMainWallet
	}
	if len(wallets) == 0 || lamportsEach == 0 {
		return report, nil
	}

	per := m.cfg.TransfersPerTx
	chunks := (len(wallets) + per - 1) / per
	need := lamportsEach*uint64(len(wallets)) + m.cfg.TxFeeLamports*uint64(chunks)
	balance, err := m.rpc.GetBalance(ctx, main.Address())
	if err != nil {
		return report, fmt.Errorf("main balance: %w", err)
	}
	if balance < need {
		return report, fmt.Errorf("%w: main has %d lamports, batch needs %d", domain.ErrInsufficientFunds, balance, need)
	}

	var errs []error
	for start := 0; start < len(wallets); start += per {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		end := min(start+per, len(wallets))
		chunk := wallets[start:end]

		transfers := make([]solana.Transfer, len(chunk))
		for i, w := range chunk {
			transfers[i] = solana.Transfer{To: w.PublicKey(), Lamports: lamportsEach}
		}
		sig, err := m.transfer(ctx, main, transfers...)
		sol := domain.LamportsToSOL(lamportsEach * uint64(len(chunk)))
		m.metrics.RecordFunding(sol, err)
		if err != nil {
			report.Failed += len(chunk)
			errs = append(errs, fmt.Errorf("wallets %d-%d: %w", start, end-1, err))
			m.log.WithFields(logrus.Fields{"from": start, "to": end - 1}).WithError(err).Error("distribution chunk failed")
			continue
		}
		report.Funded += len(chunk)
		report.Lamports += lamportsEach * uint64(len(chunk))
		report.Signatures = append(report.Signatures, sig)
		m.log.WithFields(logrus.Fields{"wallets": len(chunk), "sol": sol, "signature": sig}).Info("distribution chunk sent")
	}
	return report, errors.Join(errs...)
}

// ReclaimResult describes one wallet reclaim.
type ReclaimResult struct {
	Wallet    string
	Signature string
	Lamports  uint64
	Skipped   bool
}

// Reclaim sells the token balance of w, when a seller is configured and mint
// is set, then returns its SOL to main minus RetainLamports. A failed sale is
// logged and the SOL transfer still runs. Balances at or below the retain
// threshold are skipped without a transfer.
func (m *Manager) Reclaim(ctx context.Context, w, main *wallet.Wallet, mint string) (ReclaimResult, error) {
	res := ReclaimResult{Wallet: w.Address()}
	if main == nil {
		return res, domain.ErrMissingMainWallet
	}
	log := m.log.WithFields(logrus.Fields{"wallet": w.Address(), "token": mint})

	if mint != "" && m.seller != nil {
		m.sellTokens(ctx, w, mint, log)
	}

	balance, err := m.rpc.GetBalance(ctx, w.Address())
	if err != nil {
		m.metrics.RecordReclaim("failed", 0)
		return res, fmt.Errorf("reclaim %s: balance: %w", w.Address(), err)
	}
	if balance <= m.cfg.RetainLamports {
		res.Skipped = true
		m.metrics.RecordReclaim("skipped", 0)
		log.WithField("lamports", balance).Debug("nothing to reclaim")
		return res, nil
	}

	amount := balance - m.cfg.RetainLamports
	sig, err := m.transfer(ctx, w, solana.Transfer{To: main.PublicKey(), Lamports: amount})
	if err != nil {
		m.metrics.RecordReclaim("failed", 0)
		return res, fmt.Errorf("reclaim %s: %w", w.Address(), err)
	}
	res.Signature = sig
	res.Lamports = amount
	m.metrics.RecordReclaim("reclaimed", domain.LamportsToSOL(amount))
	log.WithFields(logrus.Fields{"sol": domain.LamportsToSOL(amount), "signature": sig}).Info("SOL reclaimed")
	return res, nil
}

func (m *Manager) sellTokens(ctx context.Context, w *wallet.Wallet, mint string, log logrus.FieldLogger) {
	ata, err := solana.FindAssociatedTokenAddress(w.Address(), mint)
	if err != nil {
		log.WithError(err).Warn("derive token account")
		return
	}
	amount, err := m.rpc.GetTokenAccountBalance(ctx, ata)
	if err != nil {
		// the account usually does not exist yet
		log.WithError(err).Debug("token balance unavailable, treating as zero")
		return
	}
	if amount == nil || amount.Amount == 0 {
		return
	}
	if _, err := m.seller.Swap(ctx, w, mint, domain.ActionSell, false, 0); err != nil {
		log.WithError(err).Warn("sell before reclaim failed")
	}
}

// ReclaimReport summarizes ReclaimAll.
type ReclaimReport struct {
	Attempted int    `json:"attempted"`
	Reclaimed int    `json:"reclaimed"`
	Skipped   int    `json:"skipped"`
	Failed    int    `json:"failed"`
	Lamports  uint64 `json:"lamports"`
}

// SOL returns the reclaimed total in SOL.
func (r ReclaimReport) SOL() float64 {
	return domain.LamportsToSOL(r.Lamports)
}

// ReclaimAll reclaims wallets one by one, pausing between them. Per-wallet
// failures are counted and do not stop the batch; cancellation does.
func (m *Manager) ReclaimAll(ctx context.Context, wallets []*wallet.Wallet, main *wallet.Wallet, mint string) ReclaimReport {
	var report ReclaimReport
	for i, w := range wallets {
		if i > 0 && !sleepCtx(ctx, m.cfg.ReclaimPause) {
			break
		}
		if ctx.Err() != nil {
			break
		}
		report.Attempted++
		res, err := m.Reclaim(ctx, w, main, mint)
		switch {
		case err != nil:
			report.Failed++
			m.log.WithField("wallet", w.Address()).WithError(err).Error("reclaim failed")
		case res.Skipped:
			report.Skipped++
		default:
			report.Reclaimed++
			report.Lamports += res.Lamports
		}
	}
	m.log.WithFields(logrus.Fields{
		"attempted": report.Attempted,
		"reclaimed": report.Reclaimed,
		"skipped":   report.Skipped,
		"failed":    report.Failed,
		"sol":       report.SOL(),
	}).Info("reclaim finished")
	return report
}

// BalanceStatus labels a wallet balance.
type BalanceStatus string

const (
	StatusOK    BalanceStatus = "OK"
	StatusLow   BalanceStatus = "LOW"
	StatusEmpty BalanceStatus = "EMPTY"
)

// WalletBalance is one row of Balances.
type WalletBalance struct {
	ID       int           `json:"id"`
	Address  string        `json:"address"`
	Lamports uint64        `json:"lamports"`
	SOL      float64       `json:"sol"`
	Status   BalanceStatus `json:"status"`
}

// Balances reads the native balance of every wallet.
func (m *Manager) Balances(ctx context.Context, wallets []*wallet.Wallet) ([]WalletBalance, error) {
	out := make([]WalletBalance, 0, len(wallets))
	for start := 0; start < len(wallets); start += maxAccountsPerRequest {
		chunk := wallets[start:min(start+maxAccountsPerRequest, len(wallets))]
		infos, err := m.rpc.GetMultipleAccounts(ctx, wallet.Addresses(chunk))
		if err != nil {
			return nil, fmt.Errorf("get accounts: %w", err)
		}
		for i, w := range chunk {
			row := WalletBalance{ID: w.ID, Address: w.Address(), Status: StatusEmpty}
			if i < len(infos) && infos[i] != nil {
				row.Lamports = infos[i].Lamports
				row.SOL = domain.LamportsToSOL(row.Lamports)
				row.Status = StatusOK
				if row.Lamports < m.cfg.LowBalanceLamports {
					row.Status = StatusLow
				}
			}
			out = append(out, row)
		}
	}
	return out, nil
}

func (m *Manager) transfer(ctx context.Context, payer *wallet.Wallet, transfers ...solana.Transfer) (string, error) {
	tx, err := solana.NewTransferTransaction(payer.PublicKey(), transfers...)
	if err != nil {
		return "", err
	}
	sig, err := m.submitter.Submit(ctx, tx, solana.SendOptions{}, payer.PrivateKey())
	if sig != "" && m.fees != nil {
		m.fees.AddFee(m.cfg.TxFeeLamports)
	}
	return sig, err
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
