package solana

import "context"

// RPCClient defines the Solana RPC HTTP surface used by the trading core.
type RPCClient interface {
	// GetBalance returns the native balance of an address in lamports.
	GetBalance(ctx context.Context, pubkey string) (uint64, error)

	// GetLatestBlockhash returns a recent blockhash at the given commitment.
	GetLatestBlockhash(ctx context.Context, commitment string) (*Blockhash, error)

	// SendTransaction broadcasts a base64 encoded, signed transaction.
	// Returns the transaction signature reported by the node.
	SendTransaction(ctx context.Context, txBase64 string, opts SendOptions) (string, error)

	// GetSignatureStatuses returns one entry per signature; nil entries are unknown to the node.
	GetSignatureStatuses(ctx context.Context, signatures []string) ([]*SignatureStatus, error)

	// GetTokenAccountsByOwner lists the owner's token accounts for a mint.
	GetTokenAccountsByOwner(ctx context.Context, owner, mint string) ([]TokenAccount, error)

	// GetTokenAccountBalance returns the balance of a single token account.
	GetTokenAccountBalance(ctx context.Context, account string) (*TokenAmount, error)

	// GetMultipleAccounts returns account infos in request order; nil entries do not exist.
	GetMultipleAccounts(ctx context.Context, pubkeys []string) ([]*AccountInfo, error)

	// GetTransaction retrieves a confirmed transaction by signature.
	// Returns nil without error when the node does not know the signature.
	GetTransaction(ctx context.Context, signature string) (*Transaction, error)
}

// Transaction represents a confirmed Solana transaction.
type Transaction struct {
	Slot      int64
	Signature string
	BlockTime int64 // Unix timestamp (seconds)
	Meta      *TransactionMeta
}

// TransactionMeta contains transaction metadata.
type TransactionMeta struct {
	Err         interface{}
	Fee         uint64
	LogMessages []string
}
