// Package runtime is the boundary between pool programs and the execution
// environment that runs them.
//
// A program sees one invocation through Env: the set of verified signers, the
// accounts the instruction declared, and the transfer primitives. Env
// implementations are responsible for atomicity; a program returning an error
// leaves no trace of its writes.
package runtime

import (
	"context"

	"github.com/gagliardetto/solana-go"

	"github.com/lugondev/go-swappool/pkg/types"
)

// Env is a single program invocation.
type Env interface {
	// Context is the context of the enclosing transaction.
	Context() context.Context

	// ProgramID is the id of the program being invoked.
	ProgramID() solana.PublicKey

	// IsSigner reports whether key signed the enclosing transaction.
	IsSigner(key solana.PublicKey) bool

	// Account returns a copy of a declared account. Missing accounts are
	// returned empty and system owned.
	Account(key solana.PublicKey) (*types.Account, error)

	// TokenAccount returns a declared token account.
	TokenAccount(key solana.PublicKey) (*types.TokenAccount, error)

	// WriteData replaces the data of a writable account owned by the program.
	// The data length is fixed at allocation.
	WriteData(key solana.PublicKey, data []byte) error

	// AllocateAccount assigns the program-derived address of signer to the
	// invoking program with space bytes of zeroed data.
	AllocateAccount(signer *ProgramSigner, space uint64) (solana.PublicKey, error)

	// TransferNative moves lamports from a signing, system-owned account.
	TransferNative(from, to solana.PublicKey, amount uint64) error

	// TransferToken moves token units between accounts of the same mint.
	TransferToken(from, to solana.PublicKey, authority Authority, amount uint64) error

	// MoveLamports debits a writable account owned by the program directly.
	MoveLamports(from, to solana.PublicKey, amount uint64) error

	// DeriveAddress derives a program address from seeds and bump under the
	// invoking program.
	DeriveAddress(seeds [][]byte, bump uint8) (solana.PublicKey, error)

	// Log appends a "Program log:" line to the transaction logs.
	Log(format string, args ...any)

	// EmitEvent appends a "Program data:" line carrying data.
	EmitEvent(data []byte)
}

// Program handles instructions addressed to its id.
type Program interface {
	// ID is the program id instructions are routed by.
	ID() solana.PublicKey

	// Process executes one instruction.
	Process(env Env, accounts []*solana.AccountMeta, data []byte) error
}
