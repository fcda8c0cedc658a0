package stub

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"

	solanago "github.com/gagliardetto/solana-go"

	"solana-volume-bot/internal/solana"
)

// RPCClient implements solana.RPCClient for testing.
// Sent transactions are decoded and recorded; by default they confirm at
// the first status poll.
type RPCClient struct {
	mu sync.Mutex

	Balances      map[string]uint64               // address -> lamports
	TokenAccounts map[string][]solana.TokenAccount // owner/mint -> accounts
	TokenBalances map[string]uint64               // token account -> raw amount
	Statuses      map[string]*solana.SignatureStatus
	Fees          map[string]uint64

	Blockhash string
	SendErr   error
	// OnSend runs for every broadcast before it is recorded; a non-nil
	// error is returned to the sender.
	OnSend func(tx *solanago.Transaction) error

	Sent  []*solanago.Transaction
	Calls map[string]int
}

var _ solana.RPCClient = (*RPCClient)(nil)

// NewRPCClient creates a new stub RPC client.
func NewRPCClient() *RPCClient {
	return &RPCClient{
		Balances:      make(map[string]uint64),
		TokenAccounts: make(map[string][]solana.TokenAccount),
		TokenBalances: make(map[string]uint64),
		Statuses:      make(map[string]*solana.SignatureStatus),
		Fees:          make(map[string]uint64),
		Blockhash:     solanago.Hash{}.String(),
		Calls:         make(map[string]int),
	}
}

func (c *RPCClient) count(method string) {
	c.Calls[method]++
}

// SetSignatureStatus replaces the stored status of signature.
func (c *RPCClient) SetSignatureStatus(signature string, status *solana.SignatureStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Statuses[signature] = status
}

// SetBalance sets the lamport balance of an address.
func (c *RPCClient) SetBalance(address string, lamports uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Balances[address] = lamports
}

// SetTokenBalance registers a single token account of owner for mint.
func (c *RPCClient) SetTokenBalance(owner, mint, account string, amount uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.TokenAccounts[owner+"/"+mint] = []solana.TokenAccount{{
		Address: account,
		Mint:    mint,
		Amount:  solana.TokenAmount{Amount: amount, Decimals: 6},
	}}
	c.TokenBalances[account] = amount
}

// SentCount returns the number of recorded broadcasts.
func (c *RPCClient) SentCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.Sent)
}

// CallCount returns how often a method was invoked.
func (c *RPCClient) CallCount(method string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Calls[method]
}

// GetBalance returns the stored balance, zero when unknown.
func (c *RPCClient) GetBalance(_ context.Context, pubkey string) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count("getBalance")
	return c.Balances[pubkey], nil
}

// GetLatestBlockhash returns the configured blockhash.
func (c *RPCClient) GetLatestBlockhash(_ context.Context, _ string) (*solana.Blockhash, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count("getLatestBlockhash")
	return &solana.Blockhash{Blockhash: c.Blockhash, LastValidBlockHeight: 1000}, nil
}

// SendTransaction decodes and records the transaction.
func (c *RPCClient) SendTransaction(_ context.Context, txBase64 string, _ solana.SendOptions) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count("sendTransaction")

	if c.SendErr != nil {
		return "", c.SendErr
	}

	raw, err := base64.StdEncoding.DecodeString(txBase64)
	if err != nil {
		return "", fmt.Errorf("decode base64: %w", err)
	}
	tx, err := solanago.TransactionFromBytes(raw)
	if err != nil {
		return "", fmt.Errorf("decode transaction: %w", err)
	}
	if len(tx.Signatures) == 0 {
		return "", fmt.Errorf("unsigned transaction")
	}
	if c.OnSend != nil {
		if err := c.OnSend(tx); err != nil {
			return "", err
		}
	}

	c.Sent = append(c.Sent, tx)
	sig := tx.Signatures[0].String()
	if _, ok := c.Statuses[sig]; !ok {
		c.Statuses[sig] = &solana.SignatureStatus{Slot: 1, ConfirmationStatus: solana.CommitmentConfirmed}
	}
	return sig, nil
}

// GetSignatureStatuses returns stored statuses, nil for unknown signatures.
func (c *RPCClient) GetSignatureStatuses(_ context.Context, signatures []string) ([]*solana.SignatureStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count("getSignatureStatuses")

	out := make([]*solana.SignatureStatus, len(signatures))
	for i, sig := range signatures {
		out[i] = c.Statuses[sig]
	}
	return out, nil
}

// GetTokenAccountsByOwner returns the accounts registered for owner and mint.
func (c *RPCClient) GetTokenAccountsByOwner(_ context.Context, owner, mint string) ([]solana.TokenAccount, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count("getTokenAccountsByOwner")
	return c.TokenAccounts[owner+"/"+mint], nil
}

// GetTokenAccountBalance returns the stored token balance of an account.
func (c *RPCClient) GetTokenAccountBalance(_ context.Context, account string) (*solana.TokenAmount, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count("getTokenAccountBalance")

	amount, ok := c.TokenBalances[account]
	if !ok {
		return nil, &solana.RPCError{Code: -32602, Message: "Invalid param: could not find account"}
	}
	return &solana.TokenAmount{Amount: amount, Decimals: 6}, nil
}

// GetMultipleAccounts returns an info for every address with a balance.
func (c *RPCClient) GetMultipleAccounts(_ context.Context, pubkeys []string) ([]*solana.AccountInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count("getMultipleAccounts")

	out := make([]*solana.AccountInfo, len(pubkeys))
	for i, key := range pubkeys {
		if lamports, ok := c.Balances[key]; ok {
			out[i] = &solana.AccountInfo{Lamports: lamports, Owner: solanago.SystemProgramID.String()}
		}
	}
	return out, nil
}

// GetTransaction returns fee metadata for recorded broadcasts.
func (c *RPCClient) GetTransaction(_ context.Context, signature string) (*solana.Transaction, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count("getTransaction")

	status, ok := c.Statuses[signature]
	if !ok {
		return nil, nil
	}
	fee, ok := c.Fees[signature]
	if !ok {
		fee = solana.TxFeeLamports
	}
	return &solana.Transaction{
		Slot:      status.Slot,
		Signature: signature,
		Meta:      &solana.TransactionMeta{Err: status.Err, Fee: fee},
	}, nil
}
