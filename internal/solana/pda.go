package solana

import (
	"crypto/sha256"
	"fmt"

	"filippo.io/edwards25519"
	solanago "github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

// FindAssociatedTokenAddress derives the associated token account of owner
// for mint under the classic SPL token program.
func FindAssociatedTokenAddress(owner, mint string) (string, error) {
	ownerBytes, err := decodePubkey(owner)
	if err != nil {
		return "", fmt.Errorf("owner: %w", err)
	}
	mintBytes, err := decodePubkey(mint)
	if err != nil {
		return "", fmt.Errorf("mint: %w", err)
	}

	seeds := [][]byte{
		ownerBytes,
		solanago.TokenProgramID.Bytes(),
		mintBytes,
	}
	pda := derivePDA(seeds, solanago.SPLAssociatedTokenAccountProgramID.Bytes())
	if pda == "" {
		return "", fmt.Errorf("no viable bump for %s/%s", owner, mint)
	}
	return pda, nil
}

func decodePubkey(s string) ([]byte, error) {
	b, err := base58.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("decode %q: %w", s, err)
	}
	if len(b) != 32 {
		return nil, fmt.Errorf("decode %q: want 32 bytes, got %d", s, len(b))
	}
	return b, nil
}

// derivePDA derives a Program Derived Address using the Solana algorithm.
func derivePDA(seeds [][]byte, programID []byte) string {
	// 1. Concatenate all seeds with bump
	// 2. Append program ID and "ProgramDerivedAddress" marker
	// 3. SHA256 hash
	// 4. Find bump seed that results in off-curve point
	for bump := 255; bump >= 0; bump-- {
		data := make([]byte, 0, 128)
		for _, seed := range seeds {
			data = append(data, seed...)
		}
		data = append(data, byte(bump))
		data = append(data, programID...)
		data = append(data, []byte("ProgramDerivedAddress")...)

		hash := sha256.Sum256(data)

		if !isOnCurve(hash[:]) {
			return base58.Encode(hash[:])
		}
	}

	return ""
}

func isOnCurve(point []byte) bool {
	if len(point) != 32 {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(point)
	return err == nil
}
