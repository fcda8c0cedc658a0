package swap

import (
	"context"
	"fmt"
	"net/http"

	"solana-volume-bot/internal/domain"
	"solana-volume-bot/internal/provider"
)

// DefaultPumpPortalURL is the PumpPortal local-trade API root.
const DefaultPumpPortalURL = "https://pumpportal.fun"

// PumpPortalBuilder builds bonding-curve swaps through PumpPortal. The
// endpoint returns the serialized transaction as the raw response body.
type PumpPortalBuilder struct {
	client *provider.Client
	pool   string
}

// NewPumpPortalBuilder creates a builder over client. An empty pool uses "pump".
func NewPumpPortalBuilder(client *provider.Client, pool string) *PumpPortalBuilder {
	if pool == "" {
		pool = "pump"
	}
	return &PumpPortalBuilder{client: client, pool: pool}
}

// Name implements TxBuilder.
func (b *PumpPortalBuilder) Name() string { return VenuePumpPortal }

type pumpTradeRequest struct {
	PublicKey        string      `json:"publicKey"`
	Action           string      `json:"action"`
	Mint             string      `json:"mint"`
	Amount           interface{} `json:"amount"`
	DenominatedInSol string      `json:"denominatedInSol"`
	Slippage         float64     `json:"slippage"`
	PriorityFee      float64     `json:"priorityFee"`
	Pool             string      `json:"pool"`
}

// Build implements TxBuilder.
func (b *PumpPortalBuilder) Build(ctx context.Context, in Intent, p Params) ([][]byte, error) {
	req := pumpTradeRequest{
		PublicKey:   in.Wallet.Address(),
		Mint:        in.Token,
		Slippage:    float64(p.SlippageBps) / 100,
		PriorityFee: domain.LamportsToSOL(p.PriorityFeeLamports),
		Pool:        b.pool,
	}
	switch in.Action {
	case domain.ActionBuy:
		req.Action = "buy"
		req.Amount = domain.LamportsToSOL(in.AmountLamports)
		req.DenominatedInSol = "true"
	case domain.ActionSell:
		req.Action = "sell"
		req.DenominatedInSol = "false"
		if in.SellAll {
			req.Amount = "100%"
		} else {
			req.Amount = in.TokenAmount
		}
	default:
		return nil, hardReject("pumpportal: unsupported action %q", in.Action)
	}

	body, err := b.client.PostRaw(ctx, "/api/trade-local", req)
	if err != nil {
		if se, ok := provider.AsStatus(err); ok {
			switch {
			case se.Code == http.StatusNotFound:
				return nil, routeUnavailable("pumpportal: %s", se.Error())
			case !se.Retryable():
				return nil, hardReject("pumpportal: %s", se.Error())
			}
		}
		return nil, fmt.Errorf("pumpportal: %w", err)
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("pumpportal: empty transaction body")
	}
	return [][]byte{body}, nil
}
