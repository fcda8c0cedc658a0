package swap

import "time"

// Params are the knobs of one attempt.
type Params struct {
	PriorityFeeLamports uint64
	SlippageBps         int
}

// Escalation derives attempt parameters. Fee and slippage never decrease
// from one attempt to the next and slippage never exceeds MaxSlippageBps.
type Escalation struct {
	MaxAttempts             int           `yaml:"max_attempts"`
	BasePriorityFeeLamports uint64        `yaml:"base_priority_fee_lamports"`
	PriorityFeeStepLamports uint64        `yaml:"priority_fee_step_lamports"`
	BaseSlippageBps         int           `yaml:"base_slippage_bps"`
	SlippageStepBps         int           `yaml:"slippage_step_bps"`
	MaxSlippageBps          int           `yaml:"max_slippage_bps"`
	RetryDelay              time.Duration `yaml:"retry_delay"`
}

// Params returns the parameters of attempt, counted from 1.
func (e Escalation) Params(attempt int) Params {
	if attempt < 1 {
		attempt = 1
	}
	step := attempt - 1

	slippage := e.BaseSlippageBps
	if e.SlippageStepBps > 0 {
		slippage += e.SlippageStepBps * step
	}
	if e.MaxSlippageBps > 0 && slippage > e.MaxSlippageBps {
		slippage = e.MaxSlippageBps
	}
	if slippage < 0 {
		slippage = 0
	}

	return Params{
		PriorityFeeLamports: e.BasePriorityFeeLamports + e.PriorityFeeStepLamports*uint64(step),
		SlippageBps:         slippage,
	}
}

func (e Escalation) attempts() int {
	if e.MaxAttempts < 1 {
		return 1
	}
	return e.MaxAttempts
}

// DefaultJupiterEscalation starts at 1% slippage and escalates gently.
func DefaultJupiterEscalation() Escalation {
	return Escalation{
		MaxAttempts:             2,
		BasePriorityFeeLamports: 100_000,
		PriorityFeeStepLamports: 100_000,
		BaseSlippageBps:         100,
		SlippageStepBps:         100,
		MaxSlippageBps:          500,
		RetryDelay:              time.Second,
	}
}

// DefaultRaydiumEscalation starts at 5% slippage.
func DefaultRaydiumEscalation() Escalation {
	return Escalation{
		MaxAttempts:             2,
		BasePriorityFeeLamports: 100_000,
		PriorityFeeStepLamports: 100_000,
		BaseSlippageBps:         500,
		SlippageStepBps:         250,
		MaxSlippageBps:          1000,
		RetryDelay:              time.Second,
	}
}

// DefaultPumpPortalEscalation is tuned for bonding-curve congestion:
// 0.0006 SOL fee plus 0.002 SOL per retry, 25% slippage jumping to 99%.
func DefaultPumpPortalEscalation() Escalation {
	return Escalation{
		MaxAttempts:             3,
		BasePriorityFeeLamports: 600_000,
		PriorityFeeStepLamports: 2_000_000,
		BaseSlippageBps:         2500,
		SlippageStepBps:         7400,
		MaxSlippageBps:          9900,
		RetryDelay:              1500 * time.Millisecond,
	}
}
