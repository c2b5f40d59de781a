package pool

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// NativeCustodySeed prefixes the native custody derivation.
var NativeCustodySeed = []byte("sol-account")

// PDAResult is a derived address and the bump that produced it.
type PDAResult struct {
	Address solana.PublicKey
	Bump    uint8
}

// NativeCustodySeeds returns the seeds of the native custody account, without bump.
func NativeCustodySeeds(id PoolID) [][]byte {
	return [][]byte{NativeCustodySeed, id.Bytes()}
}

// PoolSignerSeeds returns the seeds of the pool signer, without bump.
func PoolSignerSeeds(id PoolID) [][]byte {
	return [][]byte{id.Bytes()}
}

// WithBump appends the bump byte to seeds.
func WithBump(seeds [][]byte, bump uint8) [][]byte {
	out := make([][]byte, 0, len(seeds)+1)
	out = append(out, seeds...)
	return append(out, []byte{bump})
}

// NativeCustodyAddress derives the native custody address for a given bump.
func NativeCustodyAddress(programID solana.PublicKey, id PoolID, bump uint8) (solana.PublicKey, error) {
	return solana.CreateProgramAddress(WithBump(NativeCustodySeeds(id), bump), programID)
}

// PoolSignerAddress derives the pool signer address for a given bump.
func PoolSignerAddress(programID solana.PublicKey, id PoolID, bump uint8) (solana.PublicKey, error) {
	return solana.CreateProgramAddress(WithBump(PoolSignerSeeds(id), bump), programID)
}

// FindNativeCustody returns the canonical native custody address and bump.
func FindNativeCustody(programID solana.PublicKey, id PoolID) (PDAResult, error) {
	address, bump, err := solana.FindProgramAddress(NativeCustodySeeds(id), programID)
	if err != nil {
		return PDAResult{}, fmt.Errorf("failed to find native custody PDA: %w", err)
	}
	return PDAResult{Address: address, Bump: bump}, nil
}

// FindPoolSigner returns the canonical pool signer address and bump.
func FindPoolSigner(programID solana.PublicKey, id PoolID) (PDAResult, error) {
	address, bump, err := solana.FindProgramAddress(PoolSignerSeeds(id), programID)
	if err != nil {
		return PDAResult{}, fmt.Errorf("failed to find pool signer PDA: %w", err)
	}
	return PDAResult{Address: address, Bump: bump}, nil
}
