package domain

// PriceSample is one refreshed price observation.
// Corresponds to price_samples table in ClickHouse.
type PriceSample struct {
	Token       string  // mint address
	TimestampMs int64   // Unix timestamp in milliseconds
	Price       float64 // SOL per token
	Source      string  // price source name: "jupiter", "dexscreener"
}
