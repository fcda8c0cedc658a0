package swap

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"solana-volume-bot/internal/domain"
	"solana-volume-bot/internal/provider"
)

// Venue names.
const (
	VenueJupiter    = "jupiter"
	VenueRaydium    = "raydium"
	VenuePumpPortal = "pumpportal"
)

// SOLMint is the wrapped SOL mint.
const SOLMint = "So11111111111111111111111111111111111111112"

// DefaultJupiterURL is the Jupiter swap API root.
const DefaultJupiterURL = "https://api.jup.ag"

var jupiterNoRouteCodes = map[string]bool{
	"COULD_NOT_FIND_ANY_ROUTE": true,
	"TOKEN_NOT_TRADABLE":       true,
	"ROUTE_NOT_FOUND":          true,
	"NO_ROUTES_FOUND":          true,
}

// JupiterBuilder builds swaps through Jupiter's quote and swap endpoints.
type JupiterBuilder struct {
	client *provider.Client
}

// NewJupiterBuilder creates a builder over client.
func NewJupiterBuilder(client *provider.Client) *JupiterBuilder {
	return &JupiterBuilder{client: client}
}

// Name implements TxBuilder.
func (b *JupiterBuilder) Name() string { return VenueJupiter }

type jupiterError struct {
	Error     string `json:"error"`
	ErrorCode string `json:"errorCode"`
}

type jupiterSwapRequest struct {
	QuoteResponse             json.RawMessage `json:"quoteResponse"`
	UserPublicKey             string          `json:"userPublicKey"`
	WrapAndUnwrapSol          bool            `json:"wrapAndUnwrapSol"`
	DynamicComputeUnitLimit   bool            `json:"dynamicComputeUnitLimit"`
	PrioritizationFeeLamports interface{}     `json:"prioritizationFeeLamports"`
}

type jupiterSwapResponse struct {
	SwapTransaction string `json:"swapTransaction"`
}

// Build implements TxBuilder.
func (b *JupiterBuilder) Build(ctx context.Context, in Intent, p Params) ([][]byte, error) {
	inputMint, outputMint, amount := SOLMint, in.Token, in.AmountLamports
	if in.Action == domain.ActionSell {
		inputMint, outputMint, amount = in.Token, SOLMint, in.TokenAmount
	}

	q := url.Values{}
	q.Set("inputMint", inputMint)
	q.Set("outputMint", outputMint)
	q.Set("amount", strconv.FormatUint(amount, 10))
	q.Set("slippageBps", strconv.Itoa(p.SlippageBps))
	q.Set("swapMode", "ExactIn")

	var quote json.RawMessage
	if err := b.client.GetJSON(ctx, "/swap/v1/quote", q, &quote); err != nil {
		return nil, classifyJupiterError("quote", err)
	}
	var plan struct {
		RoutePlan []json.RawMessage `json:"routePlan"`
	}
	if err := json.Unmarshal(quote, &plan); err != nil {
		return nil, fmt.Errorf("jupiter quote: decode: %w", err)
	}
	if len(plan.RoutePlan) == 0 {
		return nil, routeUnavailable("jupiter quote has no route plan")
	}

	req := jupiterSwapRequest{
		QuoteResponse:           quote,
		UserPublicKey:           in.Wallet.Address(),
		WrapAndUnwrapSol:        true,
		DynamicComputeUnitLimit: true,
	}
	if p.PriorityFeeLamports > 0 {
		req.PrioritizationFeeLamports = p.PriorityFeeLamports
	} else {
		req.PrioritizationFeeLamports = "auto"
	}

	var resp jupiterSwapResponse
	if err := b.client.PostJSON(ctx, "/swap/v1/swap", req, &resp); err != nil {
		return nil, classifyJupiterError("swap", err)
	}
	if resp.SwapTransaction == "" {
		return nil, fmt.Errorf("jupiter swap: empty swapTransaction")
	}
	blob, err := base64.StdEncoding.DecodeString(resp.SwapTransaction)
	if err != nil {
		return nil, fmt.Errorf("jupiter swap: decode transaction: %w", err)
	}
	return [][]byte{blob}, nil
}

func classifyJupiterError(stage string, err error) error {
	se, ok := provider.AsStatus(err)
	if !ok {
		return fmt.Errorf("jupiter %s: %w", stage, err)
	}
	if se.Retryable() {
		return fmt.Errorf("jupiter %s: %w", stage, err)
	}

	var body jupiterError
	_ = json.Unmarshal(se.Body, &body)
	if (se.Code == http.StatusBadRequest || se.Code == http.StatusNotFound) && jupiterNoRouteCodes[body.ErrorCode] {
		return routeUnavailable("jupiter %s: %s", stage, body.ErrorCode)
	}
	msg := body.Error
	if msg == "" {
		msg = se.Error()
	}
	return hardReject("jupiter %s: %d %s", stage, se.Code, msg)
}
