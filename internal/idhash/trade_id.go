package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeTradeEventID computes a deterministic trade event id using SHA256.
// Formula: SHA256(token|wallet|action|signature|timestamp_ns)
// Returns hex-encoded hash (64 characters).
//
// Failed swaps carry an empty signature, so the timestamp keeps repeated
// failures from the same wallet distinct.
func ComputeTradeEventID(
	token string,
	wallet string,
	action string,
	signature string,
	timestampNs int64,
) string {
	data := fmt.Sprintf("%s|%s|%s|%s|%d",
		token,
		wallet,
		action,
		signature,
		timestampNs,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
