package solana

// Commitment levels accepted by the RPC.
const (
	CommitmentProcessed = "processed"
	CommitmentConfirmed = "confirmed"
	CommitmentFinalized = "finalized"
)

// Blockhash is a recent block reference used to anchor a transaction.
type Blockhash struct {
	Blockhash            string
	LastValidBlockHeight uint64
}

// SendOptions configures sendTransaction.
type SendOptions struct {
	SkipPreflight       bool
	MaxRetries          int    // 0 leaves the node default
	PreflightCommitment string // empty leaves the node default
}

// SignatureStatus from getSignatureStatuses.
type SignatureStatus struct {
	Slot               int64
	Confirmations      *int64
	Err                interface{}
	ConfirmationStatus string
}

// Reached reports whether the status is at or beyond the commitment level.
func (s *SignatureStatus) Reached(commitment string) bool {
	if s == nil {
		return false
	}
	switch commitment {
	case CommitmentProcessed:
		return s.ConfirmationStatus != ""
	case CommitmentFinalized:
		return s.ConfirmationStatus == CommitmentFinalized
	default:
		return s.ConfirmationStatus == CommitmentConfirmed || s.ConfirmationStatus == CommitmentFinalized
	}
}

// TokenAmount is an SPL token balance.
type TokenAmount struct {
	Amount   uint64 // raw units
	Decimals uint8
	UIAmount float64
}

// TokenAccount is one SPL token account held by an owner.
type TokenAccount struct {
	Address string
	Mint    string
	Amount  TokenAmount
}

// AccountInfo represents Solana account information.
type AccountInfo struct {
	Lamports   uint64 `json:"lamports"`
	Owner      string `json:"owner"`
	Data       string `json:"data"` // base64 encoded
	Executable bool   `json:"executable"`
	RentEpoch  uint64 `json:"rentEpoch"`
}
