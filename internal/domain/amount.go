package domain

import (
	"github.com/shopspring/decimal"
)

// LamportsPerSOL is the number of lamports in one SOL.
const LamportsPerSOL = 1_000_000_000

var lamportsPerSOL = decimal.NewFromInt(LamportsPerSOL)

// SOLToLamports converts a SOL amount to lamports, truncating toward zero.
// Negative inputs yield zero.
func SOLToLamports(sol float64) uint64 {
	d := decimal.NewFromFloat(sol).Mul(lamportsPerSOL).Floor()
	if d.Sign() <= 0 {
		return 0
	}
	return uint64(d.IntPart())
}

// LamportsToSOL converts lamports to SOL.
func LamportsToSOL(lamports uint64) float64 {
	f, _ := decimal.NewFromUint64(lamports).Div(lamportsPerSOL).Float64()
	return f
}

// FundingLamports is the per-wallet funding for one trading cycle:
// maxAmount * maxBuys * multiplier, floored to whole lamports.
func FundingLamports(s Settings, multiplier float64) uint64 {
	if multiplier < 1 {
		multiplier = 1
	}
	d := decimal.NewFromFloat(s.MaxAmount).
		Mul(decimal.NewFromInt(int64(s.MaxBuys))).
		Mul(decimal.NewFromFloat(multiplier)).
		Mul(lamportsPerSOL).
		Floor()
	if d.Sign() <= 0 {
		return 0
	}
	return uint64(d.IntPart())
}

// TruncateSOL cuts a SOL amount to the given number of decimal places.
func TruncateSOL(sol float64, places int32) float64 {
	f, _ := decimal.NewFromFloat(sol).Truncate(places).Float64()
	return f
}
