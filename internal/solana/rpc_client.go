package solana

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// Default configuration values.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = 1 * time.Second
	DefaultMaxDelay    = 10 * time.Second
	DefaultBackoffMult = 2.0
)

// CallObserver receives the outcome of every RPC call.
type CallObserver func(method string, elapsed time.Duration, err error)

// HTTPClient implements RPCClient using HTTP JSON-RPC 2.0.
type HTTPClient struct {
	endpoint    string
	client      *http.Client
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64
	limiter     *rate.Limiter
	observer    CallObserver
	requestID   atomic.Uint64
}

var _ RPCClient = (*HTTPClient)(nil)

// ClientOption configures HTTPClient.
type ClientOption func(*HTTPClient)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts.
func WithMaxRetries(n int) ClientOption {
	return func(c *HTTPClient) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets initial retry delay.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.retryDelay = d
	}
}

// WithMaxDelay sets maximum retry delay.
func WithMaxDelay(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.maxDelay = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *HTTPClient) {
		c.client = client
	}
}

// WithRateLimit caps outgoing requests per second. Zero disables limiting.
func WithRateLimit(rps float64, burst int) ClientOption {
	return func(c *HTTPClient) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithObserver registers a callback invoked after each call.
func WithObserver(obs CallObserver) ClientOption {
	return func(c *HTTPClient) {
		c.observer = obs
	}
}

// NewHTTPClient creates a new Solana RPC HTTP client.
func NewHTTPClient(endpoint string, opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		endpoint:    endpoint,
		client:      &http.Client{Timeout: DefaultTimeout},
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		maxDelay:    DefaultMaxDelay,
		backoffMult: DefaultBackoffMult,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// rpcRequest represents a JSON-RPC 2.0 request.
type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

// rpcResponse represents a JSON-RPC 2.0 response.
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

func (c *HTTPClient) call(ctx context.Context, method string, params []interface{}, result interface{}) error {
	start := time.Now()
	err := c.do(ctx, method, params, result)
	if c.observer != nil {
		c.observer(method, time.Since(start), err)
	}
	return err
}

// do performs a JSON-RPC call with retries and exponential backoff.
func (c *HTTPClient) do(ctx context.Context, method string, params []interface{}, result interface{}) error {
	reqID := c.requestID.Add(1)
	reqBody := rpcRequest{
		JSONRPC: "2.0",
		ID:      reqID,
		Method:  method,
		Params:  params,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			// Exponential backoff
			delay = time.Duration(float64(delay) * c.backoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return err
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = fmt.Errorf("http request: %w", err)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		// Handle rate limiting
		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("rate limited (429)")
			continue
		}

		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
			continue
		}

		var rpcResp rpcResponse
		if err := json.Unmarshal(respBody, &rpcResp); err != nil {
			lastErr = fmt.Errorf("unmarshal response: %w", err)
			continue
		}

		if rpcResp.Error != nil {
			// RPC errors are not retried
			return rpcResp.Error
		}

		if result != nil && rpcResp.Result != nil {
			if err := json.Unmarshal(rpcResp.Result, result); err != nil {
				return fmt.Errorf("unmarshal result: %w", err)
			}
		}

		return nil
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

type rpcContext struct {
	Slot int64 `json:"slot"`
}

// GetBalance returns the lamport balance of an address.
func (c *HTTPClient) GetBalance(ctx context.Context, pubkey string) (uint64, error) {
	params := []interface{}{
		pubkey,
		map[string]interface{}{"commitment": CommitmentConfirmed},
	}

	var result struct {
		Context rpcContext `json:"context"`
		Value   uint64     `json:"value"`
	}
	if err := c.call(ctx, "getBalance", params, &result); err != nil {
		return 0, err
	}
	return result.Value, nil
}

// GetLatestBlockhash returns a recent blockhash.
func (c *HTTPClient) GetLatestBlockhash(ctx context.Context, commitment string) (*Blockhash, error) {
	if commitment == "" {
		commitment = CommitmentConfirmed
	}
	params := []interface{}{
		map[string]interface{}{"commitment": commitment},
	}

	var result struct {
		Context rpcContext `json:"context"`
		Value   struct {
			Blockhash            string `json:"blockhash"`
			LastValidBlockHeight uint64 `json:"lastValidBlockHeight"`
		} `json:"value"`
	}
	if err := c.call(ctx, "getLatestBlockhash", params, &result); err != nil {
		return nil, err
	}
	if result.Value.Blockhash == "" {
		return nil, fmt.Errorf("getLatestBlockhash: empty blockhash")
	}
	return &Blockhash{
		Blockhash:            result.Value.Blockhash,
		LastValidBlockHeight: result.Value.LastValidBlockHeight,
	}, nil
}

// SendTransaction broadcasts a signed transaction.
func (c *HTTPClient) SendTransaction(ctx context.Context, txBase64 string, opts SendOptions) (string, error) {
	config := map[string]interface{}{
		"encoding":      "base64",
		"skipPreflight": opts.SkipPreflight,
	}
	if opts.MaxRetries > 0 {
		config["maxRetries"] = opts.MaxRetries
	}
	if opts.PreflightCommitment != "" {
		config["preflightCommitment"] = opts.PreflightCommitment
	}

	var signature string
	if err := c.call(ctx, "sendTransaction", []interface{}{txBase64, config}, &signature); err != nil {
		return "", err
	}
	return signature, nil
}

// GetSignatureStatuses returns statuses for recently processed signatures.
func (c *HTTPClient) GetSignatureStatuses(ctx context.Context, signatures []string) ([]*SignatureStatus, error) {
	params := []interface{}{
		signatures,
		map[string]interface{}{"searchTransactionHistory": false},
	}

	var result struct {
		Context rpcContext `json:"context"`
		Value   []*struct {
			Slot               int64       `json:"slot"`
			Confirmations      *int64      `json:"confirmations"`
			Err                interface{} `json:"err"`
			ConfirmationStatus string      `json:"confirmationStatus"`
		} `json:"value"`
	}
	if err := c.call(ctx, "getSignatureStatuses", params, &result); err != nil {
		return nil, err
	}

	statuses := make([]*SignatureStatus, len(result.Value))
	for i, v := range result.Value {
		if v == nil {
			continue
		}
		statuses[i] = &SignatureStatus{
			Slot:               v.Slot,
			Confirmations:      v.Confirmations,
			Err:                v.Err,
			ConfirmationStatus: v.ConfirmationStatus,
		}
	}
	return statuses, nil
}

// rpcTokenAmount is the uiTokenAmount shape shared by token balance methods.
type rpcTokenAmount struct {
	Amount   string   `json:"amount"`
	Decimals uint8    `json:"decimals"`
	UIAmount *float64 `json:"uiAmount"`
}

func (a rpcTokenAmount) toTokenAmount() (TokenAmount, error) {
	amount, err := strconv.ParseUint(a.Amount, 10, 64)
	if err != nil {
		return TokenAmount{}, fmt.Errorf("parse token amount %q: %w", a.Amount, err)
	}
	out := TokenAmount{Amount: amount, Decimals: a.Decimals}
	if a.UIAmount != nil {
		out.UIAmount = *a.UIAmount
	}
	return out, nil
}

// GetTokenAccountsByOwner lists jsonParsed token accounts of owner for mint.
func (c *HTTPClient) GetTokenAccountsByOwner(ctx context.Context, owner, mint string) ([]TokenAccount, error) {
	params := []interface{}{
		owner,
		map[string]interface{}{"mint": mint},
		map[string]interface{}{"encoding": "jsonParsed", "commitment": CommitmentConfirmed},
	}

	var result struct {
		Value []struct {
			Pubkey  string `json:"pubkey"`
			Account struct {
				Data struct {
					Parsed struct {
						Info struct {
							Mint        string         `json:"mint"`
							TokenAmount rpcTokenAmount `json:"tokenAmount"`
						} `json:"info"`
					} `json:"parsed"`
				} `json:"data"`
			} `json:"account"`
		} `json:"value"`
	}
	if err := c.call(ctx, "getTokenAccountsByOwner", params, &result); err != nil {
		return nil, err
	}

	accounts := make([]TokenAccount, 0, len(result.Value))
	for _, v := range result.Value {
		info := v.Account.Data.Parsed.Info
		amount, err := info.TokenAmount.toTokenAmount()
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, TokenAccount{
			Address: v.Pubkey,
			Mint:    info.Mint,
			Amount:  amount,
		})
	}
	return accounts, nil
}

// GetTokenAccountBalance returns the balance of a token account.
func (c *HTTPClient) GetTokenAccountBalance(ctx context.Context, account string) (*TokenAmount, error) {
	params := []interface{}{
		account,
		map[string]interface{}{"commitment": CommitmentConfirmed},
	}

	var result struct {
		Value rpcTokenAmount `json:"value"`
	}
	if err := c.call(ctx, "getTokenAccountBalance", params, &result); err != nil {
		return nil, err
	}
	amount, err := result.Value.toTokenAmount()
	if err != nil {
		return nil, err
	}
	return &amount, nil
}

// GetMultipleAccounts retrieves account infos for up to 100 keys.
func (c *HTTPClient) GetMultipleAccounts(ctx context.Context, pubkeys []string) ([]*AccountInfo, error) {
	params := []interface{}{
		pubkeys,
		map[string]interface{}{
			"encoding":   "base64",
			"commitment": CommitmentConfirmed,
		},
	}

	var result struct {
		Value []*getAccountInfoValue `json:"value"`
	}
	if err := c.call(ctx, "getMultipleAccounts", params, &result); err != nil {
		return nil, err
	}

	infos := make([]*AccountInfo, len(result.Value))
	for i, v := range result.Value {
		if v == nil {
			continue
		}
		infos[i] = v.toAccountInfo()
	}
	return infos, nil
}

// GetAccountInfo retrieves account info by public key.
// Returns nil if account not found.
func (c *HTTPClient) GetAccountInfo(ctx context.Context, pubkey string) (*AccountInfo, error) {
	params := []interface{}{
		pubkey,
		map[string]interface{}{
			"encoding": "base64",
		},
	}

	var result struct {
		Value *getAccountInfoValue `json:"value"`
	}
	if err := c.call(ctx, "getAccountInfo", params, &result); err != nil {
		return nil, err
	}

	if result.Value == nil {
		return nil, nil
	}
	return result.Value.toAccountInfo(), nil
}

type getAccountInfoValue struct {
	Lamports   uint64   `json:"lamports"`
	Owner      string   `json:"owner"`
	Data       []string `json:"data"` // [base64_data, encoding]
	Executable bool     `json:"executable"`
	RentEpoch  uint64   `json:"rentEpoch"`
}

func (v *getAccountInfoValue) toAccountInfo() *AccountInfo {
	info := &AccountInfo{
		Lamports:   v.Lamports,
		Owner:      v.Owner,
		Executable: v.Executable,
		RentEpoch:  v.RentEpoch,
	}
	if len(v.Data) >= 1 {
		info.Data = v.Data[0]
	}
	return info
}

// GetTransaction retrieves a transaction by signature.
func (c *HTTPClient) GetTransaction(ctx context.Context, signature string) (*Transaction, error) {
	params := []interface{}{
		signature,
		map[string]interface{}{
			"encoding":                       "json",
			"commitment":                     CommitmentConfirmed,
			"maxSupportedTransactionVersion": 0,
		},
	}

	var result *struct {
		Slot      int64  `json:"slot"`
		BlockTime *int64 `json:"blockTime"`
		Meta      *struct {
			Err         interface{} `json:"err"`
			Fee         uint64      `json:"fee"`
			LogMessages []string    `json:"logMessages"`
		} `json:"meta"`
	}
	if err := c.call(ctx, "getTransaction", params, &result); err != nil {
		return nil, err
	}

	if result == nil {
		// Transaction not found
		return nil, nil
	}

	tx := &Transaction{
		Slot:      result.Slot,
		Signature: signature,
	}
	if result.BlockTime != nil {
		tx.BlockTime = *result.BlockTime
	}
	if result.Meta != nil {
		tx.Meta = &TransactionMeta{
			Err:         result.Meta.Err,
			Fee:         result.Meta.Fee,
			LogMessages: result.Meta.LogMessages,
		}
	}
	return tx, nil
}

// GetVersion returns the solana-core version of the node.
func (c *HTTPClient) GetVersion(ctx context.Context) (string, error) {
	var result struct {
		SolanaCore string `json:"solana-core"`
	}
	if err := c.call(ctx, "getVersion", nil, &result); err != nil {
		return "", err
	}
	return result.SolanaCore, nil
}

// GetSlot retrieves the current slot.
func (c *HTTPClient) GetSlot(ctx context.Context) (int64, error) {
	var result int64
	if err := c.call(ctx, "getSlot", nil, &result); err != nil {
		return 0, err
	}
	return result, nil
}
