package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-volume-bot/internal/orchestrator"
	"solana-volume-bot/internal/storage/memory"
	"solana-volume-bot/internal/swap"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("RPC_URL", "")
	cfg, err := Load("", "")
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.HTTPAddr)
	assert.Equal(t, []string{swap.VenueJupiter, swap.VenueRaydium, swap.VenuePumpPortal}, cfg.Providers.Order)
	assert.Equal(t, 2, cfg.Providers.Jupiter.MaxAttempts)
	assert.Equal(t, 3, cfg.Providers.PumpPortal.MaxAttempts)
	assert.Equal(t, 10, cfg.Loop.BatchSize)
	assert.Equal(t, orchestrator.SelectRandom, cfg.Loop.Selection)
	assert.Equal(t, memory.DefaultLimit, cfg.Storage.MemoryLimit)
	assert.Error(t, cfg.Validate(), "RPC_URL is required")
}

func TestLoad_MemoryStoreLimit(t *testing.T) {
	t.Setenv("MEMORY_STORE_LIMIT", "250")
	cfg, err := Load("", "")
	require.NoError(t, err)
	assert.Equal(t, 250, cfg.Storage.MemoryLimit)

	t.Setenv("MEMORY_STORE_LIMIT", "many")
	_, err = Load("", "")
	assert.Error(t, err)
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "bot.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(`
rpc_url: https://yaml.example
http_addr: ":8080"
providers:
  order: [pumpportal, jupiter]
  jupiter:
    max_attempts: 4
    retry_delay: 250ms
loop:
  batch_size: 5
  reclaim: batch_end
funding:
  reclaim_pause: 1s
`), 0o600))

	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("HTTP_ADDR=:9999\nKAFKA_BROKERS=a:9092, b:9092\n"), 0o600))

	t.Setenv("RPC_URL", "https://env.example")
	t.Setenv("MAIN_PRIVATE_KEY", "secret")
	// godotenv does not override variables that are already set.
	t.Setenv("HTTP_ADDR", "")
	os.Unsetenv("HTTP_ADDR")
	t.Setenv("KAFKA_BROKERS", "")
	os.Unsetenv("KAFKA_BROKERS")

	cfg, err := Load(yamlPath, envPath)
	require.NoError(t, err)

	assert.Equal(t, "https://env.example", cfg.RPCURL)
	assert.Equal(t, ":9999", cfg.HTTPAddr)
	assert.Equal(t, "secret", cfg.MainPrivateKey)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, []string{swap.VenuePumpPortal, swap.VenueJupiter}, cfg.Providers.Order)
	assert.Equal(t, 4, cfg.Providers.Jupiter.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, cfg.Providers.Jupiter.RetryDelay)
	assert.Equal(t, 5, cfg.Loop.BatchSize)
	assert.Equal(t, orchestrator.ReclaimBatchEnd, cfg.Loop.Reclaim)
	assert.Equal(t, time.Second, cfg.Funding.ReclaimPause)
	assert.Equal(t, 2, cfg.Providers.Raydium.MaxAttempts, "untouched defaults survive")
	assert.NoError(t, cfg.Validate())
}

func TestLoad_PrivateKeyIgnoredInYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot.yaml")
	require.NoError(t, os.WriteFile(path, []byte("main_private_key: leaked\nMainPrivateKey: leaked\n"), 0o600))
	t.Setenv("MAIN_PRIVATE_KEY", "")

	cfg, err := Load(path, "")
	require.NoError(t, err)
	assert.Empty(t, cfg.MainPrivateKey)
}

func TestLoad_MissingFilesAreFine(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), filepath.Join(t.TempDir(), ".env"))
	assert.NoError(t, err)
}

func TestValidate_UnknownVenue(t *testing.T) {
	cfg := Default()
	cfg.RPCURL = "http://localhost:8899"
	cfg.Providers.Order = []string{"orca"}
	assert.Error(t, cfg.Validate())
}

func TestWSEndpoint(t *testing.T) {
	cfg := Config{RPCURL: "https://rpc.example/abc"}
	assert.Equal(t, "wss://rpc.example/abc", cfg.WSEndpoint())
	cfg.WSURL = "wss://ws.example"
	assert.Equal(t, "wss://ws.example", cfg.WSEndpoint())
}

func TestSanitizeSettings_Defaults(t *testing.T) {
	s := SanitizeSettings(RawSettings{})
	assert.Equal(t, 0.01, s.MinAmount)
	assert.Equal(t, 0.02, s.MaxAmount)
	assert.Equal(t, 1, s.MinBuys)
	assert.Equal(t, 3, s.MaxBuys)
	assert.Equal(t, 10, s.MinDelay)
	assert.Equal(t, 30, s.MaxDelay)
	assert.False(t, s.DryRun)
	assert.Zero(t, s.TargetMakers)
	assert.NoError(t, s.Validate())
}

func TestSanitizeSettings_LegacyKeyAndStrings(t *testing.T) {
	var raw RawSettings
	require.NoError(t, json.Unmarshal([]byte(`{"minAmmount":"0.05","maxAmount":0.08,"minBuys":"2","dryRun":"true","targetMakers":7}`), &raw))

	s := SanitizeSettings(raw)
	assert.Equal(t, 0.05, s.MinAmount)
	assert.Equal(t, 0.08, s.MaxAmount)
	assert.Equal(t, 2, s.MinBuys)
	assert.True(t, s.DryRun)
	assert.Equal(t, 7, s.TargetMakers)
}

func TestSanitizeSettings_SwapsInvertedPairs(t *testing.T) {
	s := SanitizeSettings(RawSettings{
		MinAmount: 0.5, MaxAmount: 0.1,
		MinBuys: 5, MaxBuys: 2,
		MinDelay: 40, MaxDelay: 20,
		TargetMakers: -3,
	})
	assert.Equal(t, 0.1, s.MinAmount)
	assert.Equal(t, 0.5, s.MaxAmount)
	assert.Equal(t, 2, s.MinBuys)
	assert.Equal(t, 5, s.MaxBuys)
	assert.Equal(t, 20, s.MinDelay)
	assert.Equal(t, 40, s.MaxDelay)
	assert.Zero(t, s.TargetMakers)
	assert.NoError(t, s.Validate())
}

func TestNumber_Garbage(t *testing.T) {
	var raw RawSettings
	require.NoError(t, json.Unmarshal([]byte(`{"minAmount":"abc","maxBuys":null}`), &raw))
	s := SanitizeSettings(raw)
	assert.Equal(t, 0.01, s.MinAmount)
	assert.Equal(t, 3, s.MaxBuys)
}
