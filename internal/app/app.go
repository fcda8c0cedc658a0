// Package app assembles the bot components from configuration. It is shared
// by the commands under cmd/.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"solana-volume-bot/internal/config"
	"solana-volume-bot/internal/observability"
	"solana-volume-bot/internal/provider"
	"solana-volume-bot/internal/solana"
	"solana-volume-bot/internal/swap"
	"solana-volume-bot/internal/wallet"
)

// NewRPC creates the JSON-RPC client and reports call latency to metrics.
func NewRPC(cfg config.Config, metrics *observability.Metrics) *solana.HTTPClient {
	return solana.NewHTTPClient(cfg.RPCURL,
		solana.WithTimeout(cfg.RPC.Timeout),
		solana.WithMaxRetries(cfg.RPC.MaxRetries),
		solana.WithRateLimit(cfg.RPC.RateLimit, 1),
		solana.WithObserver(func(method string, elapsed time.Duration, err error) {
			metrics.RecordRPCLatency(method, elapsed.Seconds(), err)
		}),
	)
}

// Landing bundles the transaction submission path.
type Landing struct {
	Submitter *solana.Submitter
	Lander    *swap.Lander
	ws        *solana.WSClientImpl
}

// Close releases the websocket connection, if any.
func (l *Landing) Close() error {
	if l.ws == nil {
		return nil
	}
	return l.ws.Close()
}

// NewLanding builds the blockhash cache, confirmer and submitter. A failed
// websocket dial falls back to polling confirmation.
func NewLanding(ctx context.Context, cfg config.Config, rpc solana.RPCClient, log logrus.FieldLogger) *Landing {
	l := &Landing{}

	var ws solana.WSClient
	if endpoint := cfg.WSEndpoint(); endpoint != "" {
		client, err := solana.NewWSClient(ctx, endpoint, nil, log)
		if err != nil {
			log.WithError(err).Warn("websocket unavailable, confirming by polling")
		} else {
			l.ws = client
			ws = client
		}
	}

	confirmer := solana.NewConfirmer(rpc, ws, solana.ConfirmerConfig{
		Timeout:      cfg.RPC.ConfirmTimeout,
		PollInterval: cfg.RPC.ConfirmPollInterval,
		Commitment:   cfg.RPC.Commitment,
	})
	l.Submitter = solana.NewSubmitter(rpc, solana.NewBlockhashCache(rpc, cfg.RPC.BlockhashTTL), confirmer, cfg.RPC.SendTimeout)
	l.Lander = swap.NewLander(l.Submitter)
	return l
}

// NewAdapters builds the venue adapters in configured order.
func NewAdapters(cfg config.Config, lander *swap.Lander, metrics *observability.Metrics, log logrus.FieldLogger) ([]swap.Adapter, error) {
	p := cfg.Providers
	clientOpts := []provider.Option{
		provider.WithTimeout(p.Timeout),
		provider.WithRateLimit(p.RateLimit, 1),
	}

	adapters := make([]swap.Adapter, 0, len(p.Order))
	for _, name := range p.Order {
		var (
			builder swap.TxBuilder
			esc     swap.Escalation
		)
		switch name {
		case swap.VenueJupiter:
			opts := clientOpts
			if cfg.JupiterAPIKey != "" {
				opts = append(append([]provider.Option{}, clientOpts...), provider.WithHeader("x-api-key", cfg.JupiterAPIKey))
			}
			builder = swap.NewJupiterBuilder(provider.New(p.JupiterURL, opts...))
			esc = p.Jupiter
		case swap.VenueRaydium:
			builder = swap.NewRaydiumBuilder(provider.New(p.RaydiumURL, clientOpts...))
			esc = p.Raydium
		case swap.VenuePumpPortal:
			builder = swap.NewPumpPortalBuilder(provider.New(p.PumpPortalURL, clientOpts...), p.PumpPool)
			esc = p.PumpPortal
		default:
			return nil, fmt.Errorf("unknown venue %q", name)
		}
		adapters = append(adapters, swap.NewAdapter(builder, esc, lander, metrics, log))
	}
	return adapters, nil
}

// MainWallet decodes the configured main wallet key. It returns nil without
// error when no key is configured.
func MainWallet(cfg config.Config) (*wallet.Wallet, error) {
	if cfg.MainPrivateKey == "" {
		return nil, nil
	}
	w, err := wallet.FromBase58(0, cfg.MainPrivateKey)
	if err != nil {
		return nil, fmt.Errorf("MAIN_PRIVATE_KEY: %w", err)
	}
	return w, nil
}
