package runtime

import (
	"github.com/gagliardetto/solana-go"
)

// Authority authorizes an outbound token transfer.
type Authority interface {
	isAuthority()
}

// Signer is authority proven by a transaction signature.
type Signer struct {
	Key solana.PublicKey
}

// SignerAuthority returns the Authority of a transaction signer.
func SignerAuthority(key solana.PublicKey) Signer {
	return Signer{Key: key}
}

func (Signer) isAuthority() {}

// ProgramSigner is authority proven by derivation: the environment accepts it
// for an account whose owner is the address derived from its seeds and bump
// under the invoking program. It holds no key.
type ProgramSigner struct {
	seeds [][]byte
	bump  uint8
}

// NewProgramSigner builds a ProgramSigner from seeds without the bump byte.
func NewProgramSigner(seeds [][]byte, bump uint8) *ProgramSigner {
	cp := make([][]byte, len(seeds))
	for i, s := range seeds {
		cp[i] = append([]byte(nil), s...)
	}
	return &ProgramSigner{seeds: cp, bump: bump}
}

func (*ProgramSigner) isAuthority() {}

// Seeds returns a copy of the seeds.
func (s *ProgramSigner) Seeds() [][]byte {
	cp := make([][]byte, len(s.seeds))
	for i, seed := range s.seeds {
		cp[i] = append([]byte(nil), seed...)
	}
	return cp
}

// Bump returns the bump byte.
func (s *ProgramSigner) Bump() uint8 {
	return s.bump
}

// Address derives the signer address under programID.
func (s *ProgramSigner) Address(programID solana.PublicKey) (solana.PublicKey, error) {
	seeds := append(s.Seeds(), []byte{s.bump})
	return solana.CreateProgramAddress(seeds, programID)
}
