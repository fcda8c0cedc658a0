// Package main checks the bot configuration against the live RPC endpoint
// and the configured databases before a deployment.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"solana-volume-bot/internal/app"
	"solana-volume-bot/internal/config"
	"solana-volume-bot/internal/domain"
	"solana-volume-bot/internal/observability"
	chstore "solana-volume-bot/internal/storage/clickhouse"
	pgstore "solana-volume-bot/internal/storage/postgres"
	"solana-volume-bot/internal/wallet"
)

// minMainBalanceSOL is the balance below which funding is likely to fail.
const minMainBalanceSOL = 0.05

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_FILE"), "YAML config file (optional)")
	envPath := flag.String("env", ".env", "dotenv file (optional)")
	timeout := flag.Duration("timeout", 15*time.Second, "Timeout for each check")
	flag.Parse()

	cfg, err := config.Load(*configPath, *envPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	failed := 0
	check := func(name string, fn func(ctx context.Context) (string, error)) {
		ctx, cancel := context.WithTimeout(context.Background(), *timeout)
		defer cancel()
		detail, err := fn(ctx)
		if err != nil {
			failed++
			fmt.Printf("[FAIL] %s: %v\n", name, err)
			return
		}
		fmt.Printf("[ OK ] %s: %s\n", name, detail)
	}

	check("config", func(context.Context) (string, error) {
		if err := cfg.Validate(); err != nil {
			return "", err
		}
		return fmt.Sprintf("rpc=%s venues=%v", cfg.RPCURL, cfg.Providers.Order), nil
	})

	rpc := app.NewRPC(cfg, observability.DefaultMetrics)
	check("rpc", func(ctx context.Context) (string, error) {
		bh, err := rpc.GetLatestBlockhash(ctx, cfg.RPC.Commitment)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("blockhash %s valid until height %d", bh.Blockhash, bh.LastValidBlockHeight), nil
	})

	check("main wallet", func(ctx context.Context) (string, error) {
		w, err := app.MainWallet(cfg)
		if err != nil {
			return "", err
		}
		if w == nil {
			return "", fmt.Errorf("MAIN_PRIVATE_KEY not set")
		}
		lamports, err := rpc.GetBalance(ctx, w.Address())
		if err != nil {
			return "", err
		}
		sol := domain.LamportsToSOL(lamports)
		if sol < minMainBalanceSOL {
			fmt.Printf("[WARN] main wallet balance %.6f SOL is below %.2f SOL\n", sol, minMainBalanceSOL)
		}
		return fmt.Sprintf("%s holds %.6f SOL", w.Address(), sol), nil
	})

	check("wallet files", func(context.Context) (string, error) {
		dir := wallet.Dir{Root: cfg.WalletDir}
		trading, err := dir.LoadAll(wallet.RoleTrading)
		if err != nil {
			return "", err
		}
		holders, err := dir.LoadAll(wallet.RoleHolders)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%d trading, %d holder wallets in %s", len(trading), len(holders), cfg.WalletDir), nil
	})

	if cfg.Storage.PostgresDSN != "" {
		check("postgres", func(ctx context.Context) (string, error) {
			pool, err := pgstore.NewPool(ctx, cfg.Storage.PostgresDSN, pgstore.PoolConfig{MaxConns: 1})
			if err != nil {
				return "", err
			}
			pool.Close()
			return "reachable", nil
		})
	}
	if cfg.Storage.ClickHouseDSN != "" {
		check("clickhouse", func(ctx context.Context) (string, error) {
			conn, err := chstore.NewConn(ctx, cfg.Storage.ClickHouseDSN)
			if err != nil {
				return "", err
			}
			return "reachable", conn.Close()
		})
	}

	if failed > 0 {
		fmt.Printf("%d check(s) failed\n", failed)
		os.Exit(1)
	}
	fmt.Println("All checks passed")
}
