// Package main runs the volume bot: the control API, the per-token volume
// loops and the treasury operations behind them.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"solana-volume-bot/internal/api"
	"solana-volume-bot/internal/app"
	"solana-volume-bot/internal/config"
	"solana-volume-bot/internal/events"
	"solana-volume-bot/internal/funding"
	"solana-volume-bot/internal/observability"
	"solana-volume-bot/internal/orchestrator"
	"solana-volume-bot/internal/pricecache"
	"solana-volume-bot/internal/provider"
	"solana-volume-bot/internal/stats"
	"solana-volume-bot/internal/storage"
	chstore "solana-volume-bot/internal/storage/clickhouse"
	"solana-volume-bot/internal/storage/memory"
	"solana-volume-bot/internal/storage/migrations"
	pgstore "solana-volume-bot/internal/storage/postgres"
	"solana-volume-bot/internal/swap"
)

const shutdownTimeout = 30 * time.Second

// stores holds the persistence backends selected by configuration.
type stores struct {
	trades  storage.TradeStore
	samples storage.PriceSampleStore
}

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_FILE"), "YAML config file (optional)")
	envPath := flag.String("env", ".env", "dotenv file (optional)")
	addr := flag.String("addr", "", "HTTP listen address (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath, *envPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.HTTPAddr = *addr
	}

	logger, err := observability.NewLogger(cfg.Log.Level, cfg.Log.Format, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx, cancel, cfg, logger); err != nil {
		logger.WithError(err).Fatal("server error")
	}
	logger.Info("Shutdown complete")
}

func run(ctx context.Context, cancel context.CancelFunc, cfg config.Config, logger *logrus.Logger) error {
	metrics := observability.DefaultMetrics

	st, cleanup, err := createStores(ctx, cfg.Storage, metrics, logger)
	if err != nil {
		return fmt.Errorf("create stores: %w", err)
	}
	defer cleanup()

	rpc := app.NewRPC(cfg, metrics)
	landing := app.NewLanding(ctx, cfg, rpc, logger)
	defer landing.Close()

	tracker := stats.NewTracker()
	recorder := events.NewRecorder(1000)
	sink := events.Fanout{tracker, recorder, events.NewStoreSink(st.trades)}
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaSink := events.NewKafkaSink(events.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic), cfg.Kafka.WriteTimeout)
		defer kafkaSink.Close()
		sink = append(sink, kafkaSink)
		logger.WithField("topic", cfg.Kafka.Topic).Info("publishing trade events to kafka")
	}

	prices := pricecache.New(pricecache.Config{
		TTL:               cfg.Prices.TTL,
		AlertThresholdPct: cfg.Prices.AlertThresholdPct,
	}, logger, []pricecache.Source{
		pricecache.NewJupiterSource(provider.New(cfg.Prices.JupiterURL,
			provider.WithTimeout(cfg.Providers.Timeout),
			provider.WithHeader("x-api-key", cfg.JupiterAPIKey))),
		pricecache.NewDexScreenerSource(provider.New(cfg.Prices.DexScreenerURL,
			provider.WithTimeout(cfg.Providers.Timeout))),
	}, pricecache.WithSampleStore(st.samples), pricecache.WithMetrics(metrics))

	adapters, err := app.NewAdapters(cfg, landing.Lander, metrics, logger)
	if err != nil {
		return err
	}
	router := swap.NewRouter(swap.RouterOptions{
		RPC:      rpc,
		Adapters: adapters,
		Prices:   prices,
		Sink:     sink,
		Config:   cfg.Router,
		Metrics:  metrics,
		Logger:   logger,
	})

	mainWallet, err := app.MainWallet(cfg)
	if err != nil {
		return err
	}
	if mainWallet == nil {
		logger.Warn("MAIN_PRIVATE_KEY not set, trading and funding are disabled")
	} else {
		logger.WithField("main_wallet", mainWallet.Address()).Info("main wallet loaded")
	}

	treasury := funding.NewManager(funding.Options{
		RPC:       rpc,
		Submitter: landing.Submitter,
		Seller:    router,
		Fees:      tracker,
		Config:    cfg.Funding,
		Metrics:   metrics,
		Logger:    logger,
	})

	orch := orchestrator.New(orchestrator.Options{
		Swapper:    router,
		Funder:     treasury,
		WalletDir:  cfg.WalletDir,
		MainWallet: mainWallet,
		Config:     cfg.Loop,
		Metrics:    metrics,
		Logger:     logger,
	})

	server := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: api.New(api.Options{
			Sessions:   orch,
			Treasury:   treasury,
			Stats:      tracker,
			Events:     recorder,
			WalletDir:  cfg.WalletDir,
			MainWallet: mainWallet,
			Metrics:    observability.Handler(),
			Logger:     logger,
		}).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to signal completion
	done := make(chan struct{})
	defer close(done)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Infof("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		// Wait for second signal for immediate shutdown
		select {
		case sig := <-sigCh:
			logger.Warnf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(shutdownTimeout):
			logger.Errorf("Graceful shutdown timed out after %v, forcing exit", shutdownTimeout)
			os.Exit(1)
		case <-done:
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("addr", cfg.HTTPAddr).Info("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("http shutdown")
	}
	if err := orch.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("sessions did not stop in time")
	}
	return serveErr
}

// createStores selects Postgres and ClickHouse when their DSNs are set and
// capped in-memory stores otherwise.
func createStores(ctx context.Context, cfg config.StorageConfig, metrics *observability.Metrics, logger logrus.FieldLogger) (*stores, func(), error) {
	st := &stores{
		trades:  memory.NewTradeStore(memory.WithLimit(cfg.MemoryLimit)),
		samples: memory.NewPriceSampleStore(memory.WithLimit(cfg.MemoryLimit)),
	}
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.PostgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN, pgstore.PoolConfig{})
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, pool.Close)
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("postgres migrations: %w", err)
		}
		st.trades = pgstore.NewTradeStore(pool, metrics)
		logger.Info("trade events stored in postgres")
	}

	if cfg.ClickHouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickHouseDSN)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
		}
		closers = append(closers, func() { _ = conn.Close() })
		st.samples = chstore.NewPriceSampleStore(conn, metrics)
		logger.Info("price samples stored in clickhouse")
	}

	return st, cleanup, nil
}
