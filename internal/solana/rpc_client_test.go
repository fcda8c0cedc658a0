package solana

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

// newRPCServer answers every request with result(req) as the JSON-RPC result.
func newRPCServer(t *testing.T, result func(req rpcRequest) interface{}) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
			return
		}
		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  result(req),
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
}

func TestHTTPClient_GetBalance(t *testing.T) {
	server := newRPCServer(t, func(req rpcRequest) interface{} {
		if req.Method != "getBalance" {
			t.Errorf("expected method getBalance, got %s", req.Method)
		}
		if req.Params[0] != "walletAddr" {
			t.Errorf("expected walletAddr param, got %v", req.Params[0])
		}
		return map[string]interface{}{
			"context": map[string]interface{}{"slot": 1},
			"value":   uint64(1_500_000_000),
		}
	})
	defer server.Close()

	client := NewHTTPClient(server.URL)
	balance, err := client.GetBalance(context.Background(), "walletAddr")
	if err != nil {
		t.Fatalf("GetBalance: %v", err)
	}
	if balance != 1_500_000_000 {
		t.Errorf("expected 1500000000 lamports, got %d", balance)
	}
}

func TestHTTPClient_SendTransaction(t *testing.T) {
	server := newRPCServer(t, func(req rpcRequest) interface{} {
		if req.Method != "sendTransaction" {
			t.Errorf("expected method sendTransaction, got %s", req.Method)
		}
		if req.Params[0] != "AQID" {
			t.Errorf("expected tx payload AQID, got %v", req.Params[0])
		}
		cfg, ok := req.Params[1].(map[string]interface{})
		if !ok {
			t.Fatalf("expected config object, got %T", req.Params[1])
		}
		if cfg["encoding"] != "base64" {
			t.Errorf("expected base64 encoding, got %v", cfg["encoding"])
		}
		if cfg["skipPreflight"] != true {
			t.Errorf("expected skipPreflight true, got %v", cfg["skipPreflight"])
		}
		if cfg["maxRetries"] != float64(2) {
			t.Errorf("expected maxRetries 2, got %v", cfg["maxRetries"])
		}
		return "sig123"
	})
	defer server.Close()

	client := NewHTTPClient(server.URL)
	sig, err := client.SendTransaction(context.Background(), "AQID", SendOptions{SkipPreflight: true, MaxRetries: 2})
	if err != nil {
		t.Fatalf("SendTransaction: %v", err)
	}
	if sig != "sig123" {
		t.Errorf("expected sig123, got %s", sig)
	}
}

func TestHTTPClient_GetSignatureStatuses(t *testing.T) {
	server := newRPCServer(t, func(req rpcRequest) interface{} {
		return map[string]interface{}{
			"context": map[string]interface{}{"slot": 10},
			"value": []interface{}{
				map[string]interface{}{
					"slot":               int64(9),
					"confirmations":      nil,
					"err":                nil,
					"confirmationStatus": "finalized",
				},
				nil,
				map[string]interface{}{
					"slot":               int64(8),
					"err":                map[string]interface{}{"InstructionError": []interface{}{0, map[string]interface{}{"Custom": 6001}}},
					"confirmationStatus": "confirmed",
				},
			},
		}
	})
	defer server.Close()

	client := NewHTTPClient(server.URL)
	statuses, err := client.GetSignatureStatuses(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("GetSignatureStatuses: %v", err)
	}
	if len(statuses) != 3 {
		t.Fatalf("expected 3 statuses, got %d", len(statuses))
	}
	if !statuses[0].Reached(CommitmentConfirmed) {
		t.Error("finalized status should satisfy confirmed commitment")
	}
	if statuses[1] != nil {
		t.Errorf("expected nil status for unknown signature, got %+v", statuses[1])
	}
	if statuses[2].Err == nil {
		t.Fatal("expected error payload on third status")
	}
	txErr := &TransactionError{Signature: "c", Err: statuses[2].Err}
	if !txErr.IsSlippage() {
		t.Errorf("expected slippage classification for %s", txErr.Error())
	}
}

func TestHTTPClient_GetTokenAccountsByOwner(t *testing.T) {
	server := newRPCServer(t, func(req rpcRequest) interface{} {
		filter, _ := req.Params[1].(map[string]interface{})
		if filter["mint"] != "mintAddr" {
			t.Errorf("expected mint filter, got %v", req.Params[1])
		}
		return map[string]interface{}{
			"context": map[string]interface{}{"slot": 1},
			"value": []interface{}{
				map[string]interface{}{
					"pubkey": "tokenAcct",
					"account": map[string]interface{}{
						"data": map[string]interface{}{
							"parsed": map[string]interface{}{
								"info": map[string]interface{}{
									"mint": "mintAddr",
									"tokenAmount": map[string]interface{}{
										"amount":   "123456789",
										"decimals": 6,
										"uiAmount": 123.456789,
									},
								},
							},
						},
					},
				},
			},
		}
	})
	defer server.Close()

	client := NewHTTPClient(server.URL)
	accounts, err := client.GetTokenAccountsByOwner(context.Background(), "owner", "mintAddr")
	if err != nil {
		t.Fatalf("GetTokenAccountsByOwner: %v", err)
	}
	if len(accounts) != 1 {
		t.Fatalf("expected 1 account, got %d", len(accounts))
	}
	if accounts[0].Address != "tokenAcct" || accounts[0].Amount.Amount != 123456789 || accounts[0].Amount.Decimals != 6 {
		t.Errorf("unexpected account %+v", accounts[0])
	}
}

func TestHTTPClient_GetMultipleAccounts(t *testing.T) {
	server := newRPCServer(t, func(req rpcRequest) interface{} {
		return map[string]interface{}{
			"context": map[string]interface{}{"slot": 1},
			"value": []interface{}{
				map[string]interface{}{
					"lamports":   uint64(42),
					"owner":      "11111111111111111111111111111111",
					"data":       []string{"", "base64"},
					"executable": false,
					"rentEpoch":  uint64(0),
				},
				nil,
			},
		}
	})
	defer server.Close()

	client := NewHTTPClient(server.URL)
	infos, err := client.GetMultipleAccounts(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("GetMultipleAccounts: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("expected 2 infos, got %d", len(infos))
	}
	if infos[0] == nil || infos[0].Lamports != 42 {
		t.Errorf("unexpected first info %+v", infos[0])
	}
	if infos[1] != nil {
		t.Errorf("expected nil for missing account, got %+v", infos[1])
	}
}

func TestHTTPClient_GetTransaction_Fee(t *testing.T) {
	server := newRPCServer(t, func(req rpcRequest) interface{} {
		return map[string]interface{}{
			"slot":      int64(123456),
			"blockTime": int64(1700000000),
			"meta": map[string]interface{}{
				"err":         nil,
				"fee":         uint64(105000),
				"logMessages": []string{"Program log: Instruction: Buy"},
			},
		}
	})
	defer server.Close()

	client := NewHTTPClient(server.URL)
	tx, err := client.GetTransaction(context.Background(), "testsig123")
	if err != nil {
		t.Fatalf("GetTransaction: %v", err)
	}
	if tx == nil || tx.Meta == nil {
		t.Fatal("expected transaction with meta")
	}
	if tx.Meta.Fee != 105000 {
		t.Errorf("expected fee 105000, got %d", tx.Meta.Fee)
	}
	if tx.BlockTime != 1700000000 {
		t.Errorf("expected blockTime 1700000000, got %d", tx.BlockTime)
	}
}

func TestHTTPClient_GetTransaction_NotFound(t *testing.T) {
	server := newRPCServer(t, func(req rpcRequest) interface{} { return nil })
	defer server.Close()

	client := NewHTTPClient(server.URL)
	tx, err := client.GetTransaction(context.Background(), "missing")
	if err != nil {
		t.Fatalf("GetTransaction: %v", err)
	}
	if tx != nil {
		t.Errorf("expected nil transaction, got %+v", tx)
	}
}

func TestHTTPClient_Retry(t *testing.T) {
	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		count := attempts.Add(1)
		if count < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}

		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  int64(999),
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	var observed atomic.Int32
	client := NewHTTPClient(server.URL,
		WithMaxRetries(3),
		WithRetryDelay(10*time.Millisecond),
		WithObserver(func(method string, _ time.Duration, err error) {
			if method == "getSlot" && err == nil {
				observed.Add(1)
			}
		}),
	)

	slot, err := client.GetSlot(context.Background())
	if err != nil {
		t.Fatalf("GetSlot: %v", err)
	}
	if slot != 999 {
		t.Errorf("expected slot 999, got %d", slot)
	}
	if attempts.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts.Load())
	}
	if observed.Load() != 1 {
		t.Errorf("expected one observed call, got %d", observed.Load())
	}
}

func TestHTTPClient_RPCError(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"error": map[string]interface{}{
				"code":    -32002,
				"message": "Transaction simulation failed: Blockhash not found",
			},
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, WithRetryDelay(time.Millisecond))

	_, err := client.SendTransaction(context.Background(), "AQID", SendOptions{})
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	var rpcErr *RPCError
	if !errors.As(err, &rpcErr) {
		t.Fatalf("expected RPCError, got %T", err)
	}
	if rpcErr.Code != -32002 {
		t.Errorf("expected code -32002, got %d", rpcErr.Code)
	}
	if !IsBlockhashNotFound(err) {
		t.Error("expected blockhash-not-found classification")
	}
	if attempts.Load() != 1 {
		t.Errorf("RPC errors must not be retried, got %d attempts", attempts.Load())
	}
}

func TestHTTPClient_RateLimit(t *testing.T) {
	server := newRPCServer(t, func(req rpcRequest) interface{} { return int64(1) })
	defer server.Close()

	client := NewHTTPClient(server.URL, WithRateLimit(20, 1))
	start := time.Now()
	for i := 0; i < 3; i++ {
		if _, err := client.GetSlot(context.Background()); err != nil {
			t.Fatalf("GetSlot: %v", err)
		}
	}
	// burst 1 at 20 rps: the 2nd and 3rd calls wait ~50ms each
	if elapsed := time.Since(start); elapsed < 80*time.Millisecond {
		t.Errorf("expected rate limiting delay, calls took %s", elapsed)
	}
}

func TestHTTPClient_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Cancel immediately

	_, err := client.GetSlot(ctx)
	if err == nil {
		t.Fatal("expected error from cancelled context")
	}
}
