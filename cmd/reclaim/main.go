// Package main sells leftover token balances and sweeps SOL from trading and
// holder wallets back to the main wallet.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"solana-volume-bot/internal/app"
	"solana-volume-bot/internal/config"
	"solana-volume-bot/internal/funding"
	"solana-volume-bot/internal/observability"
	"solana-volume-bot/internal/swap"
	"solana-volume-bot/internal/wallet"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_FILE"), "YAML config file (optional)")
	envPath := flag.String("env", ".env", "dotenv file (optional)")
	token := flag.String("token", "", "Only sweep wallets of this token and sell its balance")
	dir := flag.String("dir", "", "Wallet directory (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath, *envPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *dir != "" {
		cfg.WalletDir = *dir
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}

	logger, err := observability.NewLogger(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}

	mainWallet, err := app.MainWallet(cfg)
	if err != nil {
		logger.WithError(err).Fatal("load main wallet")
	}
	if mainWallet == nil {
		logger.Fatal("MAIN_PRIVATE_KEY is required")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	wallets, err := collect(wallet.Dir{Root: cfg.WalletDir}, *token)
	if err != nil {
		logger.WithError(err).Fatal("load wallets")
	}
	if len(wallets) == 0 {
		fmt.Println("No wallets to reclaim")
		return
	}

	rpc := app.NewRPC(cfg, observability.DefaultMetrics)
	landing := app.NewLanding(ctx, cfg, rpc, logger)
	defer landing.Close()

	var seller funding.Seller
	if *token != "" {
		adapters, err := app.NewAdapters(cfg, landing.Lander, observability.DefaultMetrics, logger)
		if err != nil {
			logger.WithError(err).Fatal("build adapters")
		}
		seller = swap.NewRouter(swap.RouterOptions{
			RPC:      rpc,
			Adapters: adapters,
			Config:   cfg.Router,
			Logger:   logger,
		})
	}

	mgr := funding.NewManager(funding.Options{
		RPC:       rpc,
		Submitter: landing.Submitter,
		Seller:    seller,
		Config:    cfg.Funding,
		Logger:    logger,
	})
	report := mgr.ReclaimAll(ctx, wallets, mainWallet, *token)

	fmt.Printf("Reclaimed %.6f SOL from %d/%d wallets (%d skipped, %d failed)\n",
		report.SOL(), report.Reclaimed, report.Attempted, report.Skipped, report.Failed)
	if report.Failed > 0 {
		os.Exit(1)
	}
}

// collect loads trading and holder wallets, archives included, limited to
// token when set.
func collect(dir wallet.Dir, token string) ([]*wallet.Wallet, error) {
	var all []*wallet.Wallet
	for _, role := range []string{wallet.RoleTrading, wallet.RoleHolders} {
		ws, err := dir.LoadRecoverable(role, token)
		if err != nil {
			return nil, err
		}
		all = append(all, ws...)
	}
	return all, nil
}
