package pricecache

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/shopspring/decimal"

	"solana-volume-bot/internal/provider"
)

// SOLMint is the wrapped SOL mint, used as the quote currency.
const SOLMint = "So11111111111111111111111111111111111111112"

// Default API roots.
const (
	DefaultJupiterPriceURL = "https://api.jup.ag"
	DefaultDexScreenerURL  = "https://api.dexscreener.com"
)

var errNoPrice = errors.New("no price in response")

// JupiterSource reads Jupiter Price API v2, quoted in SOL.
type JupiterSource struct {
	client *provider.Client
}

// NewJupiterSource creates a source over client. The client should carry the
// x-api-key header when a key is configured.
func NewJupiterSource(client *provider.Client) *JupiterSource {
	return &JupiterSource{client: client}
}

// Name implements Source.
func (s *JupiterSource) Name() string { return "jupiter" }

type jupiterPriceResponse struct {
	Data map[string]*struct {
		ID    string `json:"id"`
		Price string `json:"price"`
	} `json:"data"`
}

// Price implements Source.
func (s *JupiterSource) Price(ctx context.Context, token string) (float64, error) {
	q := url.Values{}
	q.Set("ids", token)
	q.Set("vsToken", SOLMint)

	var resp jupiterPriceResponse
	if err := s.client.GetJSON(ctx, "/price/v2", q, &resp); err != nil {
		return 0, fmt.Errorf("jupiter price: %w", err)
	}
	item, ok := resp.Data[token]
	if !ok || item == nil || item.Price == "" {
		return 0, fmt.Errorf("jupiter price: %w", errNoPrice)
	}
	return parsePrice(item.Price)
}

// DexScreenerSource reads the native price of the first DexScreener pair.
type DexScreenerSource struct {
	client *provider.Client
}

// NewDexScreenerSource creates a source over client.
func NewDexScreenerSource(client *provider.Client) *DexScreenerSource {
	return &DexScreenerSource{client: client}
}

// Name implements Source.
func (s *DexScreenerSource) Name() string { return "dexscreener" }

type dexScreenerResponse struct {
	Pairs []struct {
		PairAddress string `json:"pairAddress"`
		PriceNative string `json:"priceNative"`
	} `json:"pairs"`
}

// Price implements Source.
func (s *DexScreenerSource) Price(ctx context.Context, token string) (float64, error) {
	var resp dexScreenerResponse
	if err := s.client.GetJSON(ctx, "/latest/dex/tokens/"+url.PathEscape(token), nil, &resp); err != nil {
		return 0, fmt.Errorf("dexscreener price: %w", err)
	}
	if len(resp.Pairs) == 0 || resp.Pairs[0].PriceNative == "" {
		return 0, fmt.Errorf("dexscreener price: %w", errNoPrice)
	}
	return parsePrice(resp.Pairs[0].PriceNative)
}

// StaticSource always returns the same price. Used by tests and dry runs
// against tokens without a listing.
type StaticSource struct {
	Label string
	Value float64
	Err   error
}

// Name implements Source.
func (s StaticSource) Name() string {
	if s.Label == "" {
		return "static"
	}
	return s.Label
}

// Price implements Source.
func (s StaticSource) Price(context.Context, string) (float64, error) {
	return s.Value, s.Err
}

func parsePrice(raw string) (float64, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, fmt.Errorf("parse price %q: %w", raw, err)
	}
	f, _ := d.Float64()
	return f, nil
}
