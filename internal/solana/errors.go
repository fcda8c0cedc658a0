package solana

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrConfirmationTimeout is returned when a signature did not reach the
// requested commitment before the confirmation deadline.
var ErrConfirmationTimeout = errors.New("confirmation timeout")

// RPCError is a JSON-RPC 2.0 error returned by the node.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// TransactionError is an on-chain execution failure of a landed transaction.
type TransactionError struct {
	Signature string
	Err       interface{}
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("transaction %s failed: %s", e.Signature, errorPayload(e.Err))
}

// IsSlippage reports whether the failure is a swap program slippage check.
// 6001 is the Jupiter/Raydium slippage code, 6003 and 6004 the pump.fun
// too-much-sol and too-little-sol codes.
func (e *TransactionError) IsSlippage() bool {
	p := errorPayload(e.Err)
	for _, code := range []string{`"Custom":6001}`, `"Custom":6003}`, `"Custom":6004}`} {
		if strings.Contains(p, code) {
			return true
		}
	}
	return false
}

// IsInsufficientFunds reports whether the transaction overspent an account.
func (e *TransactionError) IsInsufficientFunds() bool {
	p := errorPayload(e.Err)
	return strings.Contains(p, "InsufficientFundsForFee") ||
		strings.Contains(p, "InsufficientFundsForRent") ||
		strings.Contains(p, `"Custom":1}`)
}

// IsBlockhashNotFound reports whether the node rejected a transaction for a stale blockhash.
func IsBlockhashNotFound(err error) bool {
	var rpcErr *RPCError
	if !errors.As(err, &rpcErr) {
		return false
	}
	return strings.Contains(rpcErr.Message, "Blockhash not found") || strings.Contains(string(rpcErr.Data), "BlockhashNotFound")
}

// IsInsufficientFundsRPC reports whether a preflight simulation rejected the
// transaction because the payer could not cover it.
func IsInsufficientFundsRPC(err error) bool {
	var rpcErr *RPCError
	if !errors.As(err, &rpcErr) {
		return false
	}
	msg := rpcErr.Message + string(rpcErr.Data)
	return strings.Contains(msg, "insufficient lamports") ||
		strings.Contains(msg, "InsufficientFundsForFee") ||
		strings.Contains(msg, "InsufficientFundsForRent") ||
		strings.Contains(msg, "no record of a prior credit")
}

func errorPayload(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
