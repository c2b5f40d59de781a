// Package types holds the account shapes the local ledger stores: plain
// accounts, token accounts and mints.
package types

import (
	"bytes"

	"github.com/gagliardetto/solana-go"
)

// Account is a lamport balance plus data owned by a program.
type Account struct {
	Lamports   uint64           `json:"lamports"`
	Data       []byte           `json:"data"`
	Owner      solana.PublicKey `json:"owner"`
	Executable bool             `json:"executable"`
	RentEpoch  uint64           `json:"rent_epoch"`
}

// Clone returns a deep copy of a.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	c := *a
	c.Data = bytes.Clone(a.Data)
	return &c
}

// IsZeroData reports whether every byte of the account data is zero.
func (a *Account) IsZeroData() bool {
	for _, b := range a.Data {
		if b != 0 {
			return false
		}
	}
	return true
}

// TokenAccount holds a balance of one mint. Owner may be a wallet or a
// program-derived address.
type TokenAccount struct {
	Mint   solana.PublicKey `json:"mint"`
	Owner  solana.PublicKey `json:"owner"`
	Amount uint64           `json:"amount"`
}

// Mint describes a fungible token type.
type Mint struct {
	MintAuthority solana.PublicKey `json:"mint_authority"`
	Supply        uint64           `json:"supply"`
	Decimals      uint8            `json:"decimals"`
}

// LamportsPerSOL is the number of lamports per SOL.
const LamportsPerSOL uint64 = solana.LAMPORTS_PER_SOL

// LamportsToSOL converts lamports to SOL for display.
func LamportsToSOL(lamports uint64) float64 {
	return float64(lamports) / float64(LamportsPerSOL)
}
