// Package pool defines the persisted record of a two-asset liquidity pool.
//
// A LiquidityPool lives in the data of a program-owned account; the address of
// that account is the pool's PoolID. The record is pure data: it carries the
// identities of both custody accounts, the reserve counters, the authority
// and the derivation bumps, plus predicates the controller checks before any
// value moves.
package pool

import (
	"github.com/gagliardetto/solana-go"
)

// PoolID identifies a pool by the address of the account holding its record.
type PoolID = solana.PublicKey

// TokensPerNative is the fixed exchange ratio: 10 token units per native unit.
const TokensPerNative uint64 = 10

// LiquidityPool is the persisted state of one pool.
type LiquidityPool struct {
	// TokenMint is the token type this pool trades against lamports.
	TokenMint solana.PublicKey `json:"token_mint"`

	// NativeReserve is the pool's belief about the native custody balance.
	NativeReserve uint64 `json:"native_reserve"`

	// TokenReserve is the pool's belief about the token custody balance.
	TokenReserve uint64 `json:"token_reserve"`

	// NativeCustody holds the pool's lamports.
	NativeCustody solana.PublicKey `json:"native_custody"`

	// TokenCustody holds the pool's tokens; owned by the pool signer.
	TokenCustody solana.PublicKey `json:"token_custody"`

	// Authority may pause and unpause the pool.
	Authority solana.PublicKey `json:"authority"`

	// NativeCustodyBump re-derives NativeCustody from ["sol-account", pool].
	NativeCustodyBump uint8 `json:"native_custody_bump"`

	// PoolSignerBump re-derives the pool signer from [pool].
	PoolSignerBump uint8 `json:"pool_signer_bump"`

	// Paused rejects every deposit and swap while set.
	Paused bool `json:"paused"`
}

// IsPaused reports whether value-moving operations are currently rejected.
func (p *LiquidityPool) IsPaused() bool {
	return p.Paused
}

// HasSufficientNative reports whether the native reserve covers amount.
func (p *LiquidityPool) HasSufficientNative(amount uint64) bool {
	return p.NativeReserve >= amount
}

// HasSufficientToken reports whether the token reserve covers amount.
func (p *LiquidityPool) HasSufficientToken(amount uint64) bool {
	return p.TokenReserve >= amount
}

// IsAuthority reports whether key is the pool authority.
func (p *LiquidityPool) IsAuthority(key solana.PublicKey) bool {
	return p.Authority.Equals(key)
}

// Clone returns a copy of the record.
func (p *LiquidityPool) Clone() *LiquidityPool {
	c := *p
	return &c
}
