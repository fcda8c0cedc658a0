package orchestrator

import "time"

// Wallet selection policies.
const (
	SelectRandom     = "random"
	SelectRoundRobin = "round_robin"
)

// Reclaim policies.
const (
	ReclaimPerCycle = "per_cycle"
	ReclaimBatchEnd = "batch_end"
)

// Config tunes the volume loop.
type Config struct {
	BatchSize         int           `yaml:"batch_size"`
	FundingMultiplier float64       `yaml:"funding_multiplier"`
	Selection         string        `yaml:"selection"`
	Reclaim           string        `yaml:"reclaim"`
	ReclaimTimeout    time.Duration `yaml:"reclaim_timeout"`
	Holders           HolderParams  `yaml:"holders"`
}

// HolderParams paces the holders campaign.
type HolderParams struct {
	FundPause time.Duration `yaml:"fund_pause"`
	BuyPause  time.Duration `yaml:"buy_pause"`
	NextPause time.Duration `yaml:"next_pause"`
	BuyAmount float64       `yaml:"buy_amount"`
}

// DefaultConfig returns the production loop settings.
func DefaultConfig() Config {
	return Config{
		BatchSize:         10,
		FundingMultiplier: 1.5,
		Selection:         SelectRandom,
		Reclaim:           ReclaimPerCycle,
		ReclaimTimeout:    2 * time.Minute,
		Holders: HolderParams{
			FundPause: 3 * time.Second,
			BuyPause:  2 * time.Second,
			NextPause: 5 * time.Second,
			BuyAmount: 0.0012,
		},
	}
}

func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.BatchSize <= 0 {
		c.BatchSize = def.BatchSize
	}
	if c.FundingMultiplier < 1 {
		c.FundingMultiplier = def.FundingMultiplier
	}
	if c.Selection != SelectRoundRobin {
		c.Selection = SelectRandom
	}
	if c.Reclaim != ReclaimBatchEnd {
		c.Reclaim = ReclaimPerCycle
	}
	if c.ReclaimTimeout <= 0 {
		c.ReclaimTimeout = def.ReclaimTimeout
	}
	// Negative pauses disable pacing.
	if c.Holders.FundPause == 0 {
		c.Holders.FundPause = def.Holders.FundPause
	}
	if c.Holders.BuyPause == 0 {
		c.Holders.BuyPause = def.Holders.BuyPause
	}
	if c.Holders.NextPause == 0 {
		c.Holders.NextPause = def.Holders.NextPause
	}
	if c.Holders.BuyAmount <= 0 {
		c.Holders.BuyAmount = def.Holders.BuyAmount
	}
}
