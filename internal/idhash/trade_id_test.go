package idhash

import (
	"testing"
)

func TestComputeTradeEventID(t *testing.T) {
	tests := []struct {
		name      string
		token     string
		wallet    string
		action    string
		signature string
		ts        int64
	}{
		{
			name:      "landed buy",
			token:     "So11111111111111111111111111111111111111112",
			wallet:    "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin",
			action:    "BUY",
			signature: "5VERv8NMvzbJMEkV8xnrLkEaWRtSz9CosKDYjCJjBRnbJLgp8uirBgmQpjKhoR4tjF3ZpRzrFmBV6UjKdiSZkQUW",
			ts:        1704067234567000000,
		},
		{
			name:   "failed sell",
			token:  "So11111111111111111111111111111111111111112",
			wallet: "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin",
			action: "SELL",
			ts:     1704067300000000000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeTradeEventID(tt.token, tt.wallet, tt.action, tt.signature, tt.ts)

			if len(got) != 64 {
				t.Errorf("ComputeTradeEventID() length = %d, want 64", len(got))
			}

			got2 := ComputeTradeEventID(tt.token, tt.wallet, tt.action, tt.signature, tt.ts)
			if got != got2 {
				t.Errorf("ComputeTradeEventID() not deterministic: %s != %s", got, got2)
			}
		})
	}
}

func TestComputeTradeEventID_Uniqueness(t *testing.T) {
	base := ComputeTradeEventID("mint", "wallet", "BUY", "", 1)

	variants := []string{
		ComputeTradeEventID("mint2", "wallet", "BUY", "", 1),
		ComputeTradeEventID("mint", "wallet2", "BUY", "", 1),
		ComputeTradeEventID("mint", "wallet", "SELL", "", 1),
		ComputeTradeEventID("mint", "wallet", "BUY", "sig", 1),
		ComputeTradeEventID("mint", "wallet", "BUY", "", 2),
	}
	for i, v := range variants {
		if v == base {
			t.Errorf("variant %d collides with base id", i)
		}
	}
}
