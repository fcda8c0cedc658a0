// Package main generates and lists trading and holder wallet files.
package main

import (
	"flag"
	"fmt"
	"os"

	"solana-volume-bot/internal/wallet"
)

func main() {
	dir := flag.String("dir", envOr("WALLET_DIR", "wallets"), "Wallet directory")
	token := flag.String("token", "", "Token mint the wallets belong to (required)")
	role := flag.String("role", "trading", "Wallet role: trading or holders")
	count := flag.Int("count", 10, "Number of wallets to generate")
	force := flag.Bool("force", false, "Replace an existing wallet file")
	list := flag.Bool("list", false, "List wallets instead of generating")
	flag.Parse()

	if *token == "" {
		fmt.Fprintln(os.Stderr, "--token is required")
		os.Exit(2)
	}

	var fileRole string
	switch *role {
	case "trading":
		fileRole = wallet.RoleTrading
	case "holders":
		fileRole = wallet.RoleHolders
	default:
		fmt.Fprintf(os.Stderr, "unknown role %q (use trading or holders)\n", *role)
		os.Exit(2)
	}

	store := wallet.Dir{Root: *dir}.Store(fileRole, *token)

	var (
		wallets []*wallet.Wallet
		err     error
	)
	if *list {
		wallets, err = store.Load()
	} else {
		wallets, err = store.Generate(*count, *force)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("%s (%d wallets)\n", store.Path(), len(wallets))
	for _, w := range wallets {
		fmt.Printf("  %3d  %s\n", w.ID, w.Address())
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
