package swap

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"solana-volume-bot/internal/domain"
	"solana-volume-bot/internal/provider"
	"solana-volume-bot/internal/solana"
)

// DefaultRaydiumURL is the Raydium trade API root.
const DefaultRaydiumURL = "https://transaction-v1.raydium.io"

// raydiumComputeUnits is the unit budget used to turn a priority fee into a
// per-unit price.
const raydiumComputeUnits = 200_000

var raydiumNoRouteMsgs = map[string]bool{
	"ROUTE_NOT_FOUND":        true,
	"INSUFFICIENT_LIQUIDITY": true,
	"POOL_NOT_FOUND":         true,
}

// RaydiumBuilder builds swaps through the Raydium trade API.
type RaydiumBuilder struct {
	client *provider.Client
}

// NewRaydiumBuilder creates a builder over client.
func NewRaydiumBuilder(client *provider.Client) *RaydiumBuilder {
	return &RaydiumBuilder{client: client}
}

// Name implements TxBuilder.
func (b *RaydiumBuilder) Name() string { return VenueRaydium }

type raydiumEnvelope struct {
	ID      string          `json:"id"`
	Success bool            `json:"success"`
	Msg     string          `json:"msg"`
	Data    json.RawMessage `json:"data"`
}

type raydiumTxRequest struct {
	ComputeUnitPriceMicroLamports string          `json:"computeUnitPriceMicroLamports"`
	SwapResponse                  json.RawMessage `json:"swapResponse"`
	TxVersion                     string          `json:"txVersion"`
	Wallet                        string          `json:"wallet"`
	WrapSol                       bool            `json:"wrapSol"`
	UnwrapSol                     bool            `json:"unwrapSol"`
	InputAccount                  string          `json:"inputAccount,omitempty"`
}

// Build implements TxBuilder.
func (b *RaydiumBuilder) Build(ctx context.Context, in Intent, p Params) ([][]byte, error) {
	sell := in.Action == domain.ActionSell
	inputMint, outputMint, amount := SOLMint, in.Token, in.AmountLamports
	if sell {
		inputMint, outputMint, amount = in.Token, SOLMint, in.TokenAmount
	}

	q := url.Values{}
	q.Set("inputMint", inputMint)
	q.Set("outputMint", outputMint)
	q.Set("amount", strconv.FormatUint(amount, 10))
	q.Set("slippageBps", strconv.Itoa(p.SlippageBps))
	q.Set("txVersion", "V0")

	var compute json.RawMessage
	if err := b.client.GetJSON(ctx, "/compute/swap-base-in", q, &compute); err != nil {
		return nil, fmt.Errorf("raydium compute: %w", err)
	}
	var env raydiumEnvelope
	if err := json.Unmarshal(compute, &env); err != nil {
		return nil, fmt.Errorf("raydium compute: decode: %w", err)
	}
	if !env.Success {
		return nil, classifyRaydiumMsg("compute", env.Msg)
	}

	req := raydiumTxRequest{
		ComputeUnitPriceMicroLamports: strconv.FormatUint(p.PriorityFeeLamports*1_000_000/raydiumComputeUnits, 10),
		SwapResponse:                  compute,
		TxVersion:                     "V0",
		Wallet:                        in.Wallet.Address(),
		WrapSol:                       !sell,
		UnwrapSol:                     sell,
	}
	if sell {
		ata, err := solana.FindAssociatedTokenAddress(in.Wallet.Address(), in.Token)
		if err != nil {
			return nil, hardReject("raydium: token account: %v", err)
		}
		req.InputAccount = ata
	}

	var txEnv raydiumEnvelope
	if err := b.client.PostJSON(ctx, "/transaction/swap-base-in", req, &txEnv); err != nil {
		return nil, fmt.Errorf("raydium transaction: %w", err)
	}
	if !txEnv.Success {
		return nil, classifyRaydiumMsg("transaction", txEnv.Msg)
	}

	var items []struct {
		Transaction string `json:"transaction"`
	}
	if err := json.Unmarshal(txEnv.Data, &items); err != nil {
		return nil, fmt.Errorf("raydium transaction: decode data: %w", err)
	}
	blobs := make([][]byte, 0, len(items))
	for i, item := range items {
		blob, err := base64.StdEncoding.DecodeString(item.Transaction)
		if err != nil {
			return nil, fmt.Errorf("raydium transaction %d: decode: %w", i, err)
		}
		blobs = append(blobs, blob)
	}
	return blobs, nil
}

func classifyRaydiumMsg(stage, msg string) error {
	if raydiumNoRouteMsgs[msg] {
		return routeUnavailable("raydium %s: %s", stage, msg)
	}
	if msg == "" {
		msg = "unknown reason"
	}
	return hardReject("raydium %s: %s", stage, msg)
}
