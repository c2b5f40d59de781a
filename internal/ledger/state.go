package ledger

import (
	"encoding/base64"
	"fmt"
	"os"

	"github.com/gagliardetto/solana-go"
	"gopkg.in/yaml.v3"

	"github.com/lugondev/go-swappool/pkg/types"
)

// State is the serialisable form of a ledger.
type State struct {
	Slot      uint64         `yaml:"slot"`
	Blockhash string         `yaml:"blockhash"`
	Accounts  []AccountState `yaml:"accounts"`
}

// AccountState is one account in a State.
type AccountState struct {
	Address    string      `yaml:"address"`
	Lamports   uint64      `yaml:"lamports"`
	Owner      string      `yaml:"owner"`
	Executable bool        `yaml:"executable,omitempty"`
	Data       string      `yaml:"data,omitempty"`
	Token      *TokenState `yaml:"token,omitempty"`
	Mint       *MintState  `yaml:"mint,omitempty"`
}

// TokenState is the token payload of a token account.
type TokenState struct {
	Mint   string `yaml:"mint"`
	Owner  string `yaml:"owner"`
	Amount uint64 `yaml:"amount"`
}

// MintState is the payload of a mint account.
type MintState struct {
	Authority string `yaml:"authority"`
	Supply    uint64 `yaml:"supply"`
	Decimals  uint8  `yaml:"decimals"`
}

// Export captures every account. Registered programs are not part of the state.
func (l *Ledger) Export() *State {
	l.mu.RLock()
	keys := make([]solana.PublicKey, 0, len(l.accounts))
	for key, e := range l.accounts {
		if !e.Executable {
			keys = append(keys, key)
		}
	}
	st := &State{Slot: l.slot, Blockhash: l.hashes[len(l.hashes)-1].String()}
	l.mu.RUnlock()
	sortKeys(keys)

	unlock := l.locks.acquire(nil, keys)
	defer unlock()

	for _, key := range keys {
		e := l.get(key)
		if e == nil {
			continue
		}
		as := AccountState{
			Address:    key.String(),
			Lamports:   e.Lamports,
			Owner:      e.Owner.String(),
			Executable: e.Executable,
		}
		if len(e.Data) > 0 {
			as.Data = base64.StdEncoding.EncodeToString(e.Data)
		}
		if e.Token != nil {
			as.Token = &TokenState{Mint: e.Token.Mint.String(), Owner: e.Token.Owner.String(), Amount: e.Token.Amount}
		}
		if e.Mint != nil {
			as.Mint = &MintState{Authority: e.Mint.MintAuthority.String(), Supply: e.Mint.Supply, Decimals: e.Mint.Decimals}
		}
		st.Accounts = append(st.Accounts, as)
	}
	return st
}

// Import replaces all non-program accounts with those of st.
func (l *Ledger) Import(st *State) error {
	accounts := make(map[solana.PublicKey]*entry, len(st.Accounts))
	for _, as := range st.Accounts {
		key, err := solana.PublicKeyFromBase58(as.Address)
		if err != nil {
			return fmt.Errorf("account address %q: %w", as.Address, err)
		}
		owner, err := solana.PublicKeyFromBase58(as.Owner)
		if err != nil {
			return fmt.Errorf("account %s owner: %w", as.Address, err)
		}
		e := &entry{Account: types.Account{Lamports: as.Lamports, Owner: owner, Executable: as.Executable}}
		if as.Data != "" {
			if e.Data, err = base64.StdEncoding.DecodeString(as.Data); err != nil {
				return fmt.Errorf("account %s data: %w", as.Address, err)
			}
		}
		if as.Token != nil {
			mint, err := solana.PublicKeyFromBase58(as.Token.Mint)
			if err != nil {
				return fmt.Errorf("account %s token mint: %w", as.Address, err)
			}
			tokenOwner, err := solana.PublicKeyFromBase58(as.Token.Owner)
			if err != nil {
				return fmt.Errorf("account %s token owner: %w", as.Address, err)
			}
			e.Token = &types.TokenAccount{Mint: mint, Owner: tokenOwner, Amount: as.Token.Amount}
		}
		if as.Mint != nil {
			authority, err := solana.PublicKeyFromBase58(as.Mint.Authority)
			if err != nil {
				return fmt.Errorf("account %s mint authority: %w", as.Address, err)
			}
			e.Mint = &types.Mint{MintAuthority: authority, Supply: as.Mint.Supply, Decimals: as.Mint.Decimals}
		}
		accounts[key] = e
	}

	var hash solana.Hash
	if st.Blockhash != "" {
		h, err := solana.HashFromBase58(st.Blockhash)
		if err != nil {
			return fmt.Errorf("blockhash: %w", err)
		}
		hash = h
	} else {
		hash = nextBlockhash(solana.Hash{}, st.Slot)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	for key, e := range l.accounts {
		if e.Executable {
			accounts[key] = e
		}
	}
	l.accounts = accounts
	l.slot = st.Slot
	l.hashes = []solana.Hash{hash}
	return nil
}

// SaveFile writes the ledger state to path as YAML.
func (l *Ledger) SaveFile(path string) error {
	out, err := yaml.Marshal(l.Export())
	if err != nil {
		return fmt.Errorf("failed to marshal ledger state: %w", err)
	}
	if err := os.WriteFile(path, out, 0600); err != nil {
		return fmt.Errorf("failed to write ledger state: %w", err)
	}
	return nil
}

// LoadFile replaces the ledger state with the YAML file at path.
func (l *Ledger) LoadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read ledger state: %w", err)
	}
	var st State
	if err := yaml.Unmarshal(raw, &st); err != nil {
		return fmt.Errorf("failed to parse ledger state: %w", err)
	}
	return l.Import(&st)
}
