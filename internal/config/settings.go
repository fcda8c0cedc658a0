package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"solana-volume-bot/internal/domain"
)

// Settings defaults applied by SanitizeSettings.
const (
	DefaultMinAmount = 0.01
	DefaultMaxAmount = 0.02
	DefaultMinBuys   = 1
	DefaultMaxBuys   = 3
	DefaultMinDelay  = 10
	DefaultMaxDelay  = 30
)

// Number is a JSON number that may also arrive as a numeric string.
// Empty strings, null and unparsable strings decode to zero.
type Number float64

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*n = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			*n = 0
			return nil
		}
		*n = Number(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("number: %w", err)
	}
	*n = Number(f)
	return nil
}

// Bool is a JSON boolean that may also arrive as "true"/"false".
type Bool bool

// UnmarshalJSON implements json.Unmarshaler.
func (b *Bool) UnmarshalJSON(data []byte) error {
	switch strings.Trim(string(bytes.TrimSpace(data)), `"`) {
	case "true", "1":
		*b = true
	default:
		*b = false
	}
	return nil
}

// RawSettings is a settings record as submitted by clients.
type RawSettings struct {
	MinAmount    Number `json:"minAmount"`
	MinAmountAlt Number `json:"minAmmount"`
	MaxAmount    Number `json:"maxAmount"`
	MaxAmountAlt Number `json:"maxAmmount"`
	MinBuys      Number `json:"minBuys"`
	MaxBuys      Number `json:"maxBuys"`
	MinDelay     Number `json:"minDelay"`
	MaxDelay     Number `json:"maxDelay"`
	DryRun       Bool   `json:"dryRun"`
	TargetMakers Number `json:"targetMakers"`
}

// SanitizeSettings turns raw client input into valid settings. Missing or
// non-positive values take their defaults and inverted pairs are swapped.
func SanitizeSettings(raw RawSettings) domain.Settings {
	minAmount := first(raw.MinAmountAlt, raw.MinAmount)
	maxAmount := first(raw.MaxAmountAlt, raw.MaxAmount)

	s := domain.Settings{
		MinAmount:    positiveOr(minAmount, DefaultMinAmount),
		MaxAmount:    positiveOr(maxAmount, DefaultMaxAmount),
		MinBuys:      intOr(raw.MinBuys, DefaultMinBuys),
		MaxBuys:      intOr(raw.MaxBuys, DefaultMaxBuys),
		MinDelay:     intOr(raw.MinDelay, DefaultMinDelay),
		MaxDelay:     intOr(raw.MaxDelay, DefaultMaxDelay),
		DryRun:       bool(raw.DryRun),
		TargetMakers: intOr(raw.TargetMakers, 0),
	}
	if s.MinAmount > s.MaxAmount {
		s.MinAmount, s.MaxAmount = s.MaxAmount, s.MinAmount
	}
	if s.MinBuys > s.MaxBuys {
		s.MinBuys, s.MaxBuys = s.MaxBuys, s.MinBuys
	}
	if s.MinDelay > s.MaxDelay {
		s.MinDelay, s.MaxDelay = s.MaxDelay, s.MinDelay
	}
	return s
}

// first returns the first positive value.
func first(vals ...Number) Number {
	for _, v := range vals {
		if v > 0 {
			return v
		}
	}
	return 0
}

func positiveOr(v Number, def float64) float64 {
	f := float64(v)
	if f <= 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return def
	}
	return f
}

func intOr(v Number, def int) int {
	f := float64(v)
	if f < 1 || math.IsNaN(f) || math.IsInf(f, 0) || f > math.MaxInt32 {
		return def
	}
	return int(f)
}
