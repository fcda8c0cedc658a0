package domain

import "fmt"

// Settings is a validated volume-loop configuration.
// Amounts are SOL, delays are whole seconds.
type Settings struct {
	MinAmount    float64 `json:"minAmount"`
	MaxAmount    float64 `json:"maxAmount"`
	MinBuys      int     `json:"minBuys"`
	MaxBuys      int     `json:"maxBuys"`
	MinDelay     int     `json:"minDelay"`
	MaxDelay     int     `json:"maxDelay"`
	DryRun       bool    `json:"dryRun"`
	TargetMakers int     `json:"targetMakers"`
}

// Validate checks paired bounds and signs.
func (s Settings) Validate() error {
	switch {
	case s.MinAmount <= 0 || s.MaxAmount <= 0:
		return fmt.Errorf("%w: amounts must be positive", ErrInvalidSettings)
	case s.MinAmount > s.MaxAmount:
		return fmt.Errorf("%w: minAmount %v > maxAmount %v", ErrInvalidSettings, s.MinAmount, s.MaxAmount)
	case s.MinBuys < 1 || s.MinBuys > s.MaxBuys:
		return fmt.Errorf("%w: buys range [%d, %d]", ErrInvalidSettings, s.MinBuys, s.MaxBuys)
	case s.MinDelay < 0 || s.MinDelay > s.MaxDelay:
		return fmt.Errorf("%w: delay range [%d, %d]", ErrInvalidSettings, s.MinDelay, s.MaxDelay)
	case s.TargetMakers < 0:
		return fmt.Errorf("%w: targetMakers %d", ErrInvalidSettings, s.TargetMakers)
	}
	return nil
}

// Campaign reports whether the loop stops after TargetMakers wallets.
func (s Settings) Campaign() bool {
	return s.TargetMakers > 0
}
