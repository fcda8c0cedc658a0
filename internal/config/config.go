// Package config loads bot configuration from defaults, an optional YAML
// tuning file, an optional .env file and the environment, in that order.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"solana-volume-bot/internal/funding"
	"solana-volume-bot/internal/orchestrator"
	"solana-volume-bot/internal/pricecache"
	"solana-volume-bot/internal/solana"
	"solana-volume-bot/internal/storage/memory"
	"solana-volume-bot/internal/swap"
)

// Config is the full bot configuration.
type Config struct {
	RPCURL    string `yaml:"rpc_url"`
	WSURL     string `yaml:"ws_url"`
	HTTPAddr  string `yaml:"http_addr"`
	WalletDir string `yaml:"wallet_dir"`

	// Secrets are read from the environment only.
	MainPrivateKey string `yaml:"-"`
	JupiterAPIKey  string `yaml:"-"`

	Log       LogConfig           `yaml:"log"`
	Storage   StorageConfig       `yaml:"storage"`
	Kafka     KafkaConfig         `yaml:"kafka"`
	RPC       RPCConfig           `yaml:"rpc"`
	Providers ProvidersConfig     `yaml:"providers"`
	Prices    PriceConfig         `yaml:"prices"`
	Router    swap.RouterConfig   `yaml:"router"`
	Funding   funding.Config      `yaml:"funding"`
	Loop      orchestrator.Config `yaml:"loop"`
}

// LogConfig selects the logrus level and formatter.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
}

// StorageConfig holds database DSNs. Empty DSNs select in-memory stores,
// each capped at MemoryLimit entries.
type StorageConfig struct {
	PostgresDSN   string `yaml:"postgres_dsn"`
	ClickHouseDSN string `yaml:"clickhouse_dsn"`
	MemoryLimit   int    `yaml:"memory_limit"`
}

// KafkaConfig enables the trade event publisher when Brokers is set.
type KafkaConfig struct {
	Brokers      []string      `yaml:"brokers"`
	Topic        string        `yaml:"topic"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// RPCConfig tunes the Solana JSON-RPC client and transaction landing.
type RPCConfig struct {
	Timeout             time.Duration `yaml:"timeout"`
	MaxRetries          int           `yaml:"max_retries"`
	RateLimit           float64       `yaml:"rate_limit"`
	Commitment          string        `yaml:"commitment"`
	ConfirmTimeout      time.Duration `yaml:"confirm_timeout"`
	ConfirmPollInterval time.Duration `yaml:"confirm_poll_interval"`
	SendTimeout         time.Duration `yaml:"send_timeout"`
	BlockhashTTL        time.Duration `yaml:"blockhash_ttl"`
}

// ProvidersConfig configures the swap venues, tried in Order.
type ProvidersConfig struct {
	Order         []string        `yaml:"order"`
	JupiterURL    string          `yaml:"jupiter_url"`
	RaydiumURL    string          `yaml:"raydium_url"`
	PumpPortalURL string          `yaml:"pumpportal_url"`
	PumpPool      string          `yaml:"pump_pool"`
	Timeout       time.Duration   `yaml:"timeout"`
	RateLimit     float64         `yaml:"rate_limit"`
	Jupiter       swap.Escalation `yaml:"jupiter"`
	Raydium       swap.Escalation `yaml:"raydium"`
	PumpPortal    swap.Escalation `yaml:"pumpportal"`
}

// PriceConfig configures the price cache and its sources.
type PriceConfig struct {
	TTL               time.Duration `yaml:"ttl"`
	AlertThresholdPct float64       `yaml:"alert_threshold_pct"`
	JupiterURL        string        `yaml:"jupiter_url"`
	DexScreenerURL    string        `yaml:"dexscreener_url"`
}

// Default returns the compiled defaults.
func Default() Config {
	return Config{
		HTTPAddr:  ":3000",
		WalletDir: "wallets",
		Log:       LogConfig{Level: "info", Format: "text"},
		Storage:   StorageConfig{MemoryLimit: memory.DefaultLimit},
		Kafka:     KafkaConfig{Topic: "volume-bot.trades", WriteTimeout: 5 * time.Second},
		RPC: RPCConfig{
			Timeout:             30 * time.Second,
			MaxRetries:          3,
			Commitment:          "confirmed",
			ConfirmTimeout:      solana.DefaultConfirmTimeout,
			ConfirmPollInterval: solana.DefaultPollInterval,
			SendTimeout:         solana.DefaultSendTimeout,
			BlockhashTTL:        solana.DefaultBlockhashTTL,
		},
		Providers: ProvidersConfig{
			Order:         []string{swap.VenueJupiter, swap.VenueRaydium, swap.VenuePumpPortal},
			JupiterURL:    swap.DefaultJupiterURL,
			RaydiumURL:    swap.DefaultRaydiumURL,
			PumpPortalURL: swap.DefaultPumpPortalURL,
			PumpPool:      "pump",
			Timeout:       15 * time.Second,
			Jupiter:       swap.DefaultJupiterEscalation(),
			Raydium:       swap.DefaultRaydiumEscalation(),
			PumpPortal:    swap.DefaultPumpPortalEscalation(),
		},
		Prices: PriceConfig{
			TTL:               pricecache.DefaultTTL,
			AlertThresholdPct: 25,
			JupiterURL:        pricecache.DefaultJupiterPriceURL,
			DexScreenerURL:    pricecache.DefaultDexScreenerURL,
		},
		Router: swap.RouterConfig{
			FeeBufferLamports: swap.DefaultFeeBufferLamports,
			FeeLookupTimeout:  swap.DefaultFeeLookupTimeout,
		},
		Funding: funding.Config{
			TxFeeLamports:      solana.TxFeeLamports,
			RetainLamports:     funding.DefaultRetainLamports,
			LowBalanceLamports: funding.DefaultLowBalanceLamports,
			ReclaimPause:       funding.DefaultReclaimPause,
			TransfersPerTx:     funding.DefaultTransfersPerTx,
		},
		Loop: orchestrator.DefaultConfig(),
	}
}

// Load builds the configuration. yamlPath may be empty or missing, and so
// may envPath; variables already set in the environment win over the .env
// file.
func Load(yamlPath, envPath string) (Config, error) {
	cfg := Default()

	if yamlPath != "" {
		data, err := os.ReadFile(yamlPath)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("read %s: %w", yamlPath, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse %s: %w", yamlPath, err)
			}
		}
	}

	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("load %s: %w", envPath, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.RPCURL, "RPC_URL")
	setString(&c.WSURL, "WS_URL")
	setString(&c.HTTPAddr, "HTTP_ADDR")
	setString(&c.WalletDir, "WALLET_DIR")
	setString(&c.MainPrivateKey, "MAIN_PRIVATE_KEY")
	setString(&c.JupiterAPIKey, "JUPITER_API_KEY")
	setString(&c.Storage.PostgresDSN, "POSTGRES_DSN")
	setString(&c.Storage.ClickHouseDSN, "CLICKHOUSE_DSN")
	setString(&c.Kafka.Topic, "KAFKA_TOPIC")
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Log.Format, "LOG_FORMAT")
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = splitList(v)
	}
	if v := os.Getenv("MEMORY_STORE_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("MEMORY_STORE_LIMIT: %w", err)
		}
		c.Storage.MemoryLimit = n
	}
	if v := os.Getenv("RPC_RATE_LIMIT"); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("RPC_RATE_LIMIT: %w", err)
		}
		c.RPC.RateLimit = rps
	}
	return nil
}

// Validate checks the settings needed to run the server.
func (c Config) Validate() error {
	var errs []error
	if c.RPCURL == "" {
		errs = append(errs, errors.New("RPC_URL is required"))
	}
	if len(c.Providers.Order) == 0 {
		errs = append(errs, errors.New("providers.order is empty"))
	}
	for _, name := range c.Providers.Order {
		switch name {
		case swap.VenueJupiter, swap.VenueRaydium, swap.VenuePumpPortal:
		default:
			errs = append(errs, fmt.Errorf("providers.order: unknown venue %q", name))
		}
	}
	switch c.Loop.Selection {
	case "", orchestrator.SelectRandom, orchestrator.SelectRoundRobin:
	default:
		errs = append(errs, fmt.Errorf("loop.selection: unknown policy %q", c.Loop.Selection))
	}
	switch c.Loop.Reclaim {
	case "", orchestrator.ReclaimPerCycle, orchestrator.ReclaimBatchEnd:
	default:
		errs = append(errs, fmt.Errorf("loop.reclaim: unknown policy %q", c.Loop.Reclaim))
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format: unknown format %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// WSEndpoint returns WSURL, or RPCURL with a websocket scheme.
func (c Config) WSEndpoint() string {
	if c.WSURL != "" {
		return c.WSURL
	}
	switch {
	case strings.HasPrefix(c.RPCURL, "https://"):
		return "wss://" + strings.TrimPrefix(c.RPCURL, "https://")
	case strings.HasPrefix(c.RPCURL, "http://"):
		return "ws://" + strings.TrimPrefix(c.RPCURL, "http://")
	}
	return ""
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
