// Package solana holds keypair files for pool participants and a read-only
// RPC client for cluster lookups.
package solana

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gagliardetto/solana-go"
)

// Wallet is the keypair of a pool authority, a trader or a pool account.
type Wallet struct {
	key solana.PrivateKey
}

func NewWallet() *Wallet {
	return &Wallet{key: solana.NewWallet().PrivateKey}
}

// WalletFromBase58 parses a base58 private key.
func WalletFromBase58(key string) (*Wallet, error) {
	pk, err := solana.PrivateKeyFromBase58(key)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return &Wallet{key: pk}, nil
}

// WalletFromFile reads a keypair file in solana-keygen format. Keys that are
// not 64 bytes long are rejected by the parser.
func WalletFromFile(path string) (*Wallet, error) {
	pk, err := solana.PrivateKeyFromSolanaKeygenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load keypair %s: %w", path, err)
	}
	return &Wallet{key: pk}, nil
}

// LoadWallet reads source as a keypair file, or as a base58 private key when
// no such file exists.
func LoadWallet(source string) (*Wallet, error) {
	_, err := os.Stat(source)
	switch {
	case err == nil:
		return WalletFromFile(source)
	case errors.Is(err, os.ErrNotExist):
		return WalletFromBase58(source)
	default:
		return nil, fmt.Errorf("failed to stat keypair file: %w", err)
	}
}

func (w *Wallet) PublicKey() solana.PublicKey   { return w.key.PublicKey() }
func (w *Wallet) PrivateKey() solana.PrivateKey { return w.key }
func (w *Wallet) String() string                { return w.PublicKey().String() }

// SaveToFile writes the keypair in solana-keygen format, a JSON array of the
// 64 key bytes, readable only by the owner.
func (w *Wallet) SaveToFile(path string) error {
	ints := make([]int, len(w.key))
	for i, b := range w.key {
		ints[i] = int(b)
	}
	data, err := json.Marshal(ints)
	if err != nil {
		return fmt.Errorf("failed to marshal keypair: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create keypair directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write keypair file: %w", err)
	}
	return nil
}
