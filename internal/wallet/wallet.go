// Package wallet holds disposable trading keypairs and their file store.
package wallet

import (
	"bytes"
	"crypto/ed25519"
	"fmt"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

// Wallet is an ed25519 keypair. Formatting a Wallet prints only its address.
type Wallet struct {
	ID  int
	key solanago.PrivateKey
}

// New generates a fresh keypair.
func New(id int) (*Wallet, error) {
	key, err := solanago.NewRandomPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("generate keypair: %w", err)
	}
	return &Wallet{ID: id, key: key}, nil
}

// FromBase58 decodes a base58 encoded 64-byte secret key.
func FromBase58(id int, secret string) (*Wallet, error) {
	raw, err := base58.Decode(secret)
	if err != nil {
		return nil, fmt.Errorf("decode secret key: %w", err)
	}
	if len(raw) != 64 {
		return nil, fmt.Errorf("decode secret key: want 64 bytes, got %d", len(raw))
	}
	derived := ed25519.NewKeyFromSeed(raw[:ed25519.SeedSize])
	if !bytes.Equal(derived[ed25519.SeedSize:], raw[ed25519.SeedSize:]) {
		return nil, fmt.Errorf("decode secret key: public half does not match")
	}
	return &Wallet{ID: id, key: solanago.PrivateKey(raw)}, nil
}

// PublicKey returns the wallet's public key.
func (w *Wallet) PublicKey() solanago.PublicKey {
	return w.key.PublicKey()
}

// Address returns the base58 public address.
func (w *Wallet) Address() string {
	return w.key.PublicKey().String()
}

// PrivateKey returns the signing key.
func (w *Wallet) PrivateKey() solanago.PrivateKey {
	return w.key
}

// Secret returns the base58 encoded secret key for persistence.
func (w *Wallet) Secret() string {
	return base58.Encode(w.key)
}

func (w *Wallet) String() string {
	if w == nil {
		return "<nil>"
	}
	return w.Address()
}

// GoString keeps %#v from dumping key material.
func (w *Wallet) GoString() string {
	return fmt.Sprintf("wallet.Wallet{ID:%d, Address:%s}", w.ID, w.Address())
}

// Addresses lists the public addresses of ws.
func Addresses(ws []*Wallet) []string {
	out := make([]string, len(ws))
	for i, w := range ws {
		out[i] = w.Address()
	}
	return out
}
