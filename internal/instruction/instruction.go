// Package instruction defines the entry points of the pool program: the
// instruction data layout, builders that produce solana-go instructions with
// the expected account order, and the Processor that routes decoded
// instructions to the controller.
//
// Instruction data is an 8-byte discriminator, sha256("global:<name>")[:8],
// followed by the borsh-encoded arguments.
package instruction

import (
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	poolerrors "github.com/lugondev/go-swappool/internal/errors"
	"github.com/lugondev/go-swappool/pkg/decoder"
)

// Instruction names.
const (
	NameCreatePool         = "create_pool"
	NameDepositNative      = "deposit_native"
	NameDepositToken       = "deposit_token"
	NameSwapTokenForNative = "swap_token_for_native"
	NameSwapNativeForToken = "swap_native_for_token"
	NamePausePool          = "pause_pool"
	NameUnpausePool        = "unpause_pool"
)

// Discriminators.
var (
	CreatePoolDiscriminator         = decoder.ComputeDiscriminator(decoder.NamespaceGlobal, NameCreatePool)
	DepositNativeDiscriminator      = decoder.ComputeDiscriminator(decoder.NamespaceGlobal, NameDepositNative)
	DepositTokenDiscriminator       = decoder.ComputeDiscriminator(decoder.NamespaceGlobal, NameDepositToken)
	SwapTokenForNativeDiscriminator = decoder.ComputeDiscriminator(decoder.NamespaceGlobal, NameSwapTokenForNative)
	SwapNativeForTokenDiscriminator = decoder.ComputeDiscriminator(decoder.NamespaceGlobal, NameSwapNativeForToken)
	PausePoolDiscriminator          = decoder.ComputeDiscriminator(decoder.NamespaceGlobal, NamePausePool)
	UnpausePoolDiscriminator        = decoder.ComputeDiscriminator(decoder.NamespaceGlobal, NameUnpausePool)
)

var names = map[decoder.AnchorDiscriminator]string{
	CreatePoolDiscriminator:         NameCreatePool,
	DepositNativeDiscriminator:      NameDepositNative,
	DepositTokenDiscriminator:       NameDepositToken,
	SwapTokenForNativeDiscriminator: NameSwapTokenForNative,
	SwapNativeForTokenDiscriminator: NameSwapNativeForToken,
	PausePoolDiscriminator:          NamePausePool,
	UnpausePoolDiscriminator:        NameUnpausePool,
}

// CreatePoolArgs are the arguments of create_pool. The pool signer bump comes
// first, as in the deployed program.
type CreatePoolArgs struct {
	PoolSignerBump    uint8 `json:"pool_signer_bump"`
	NativeCustodyBump uint8 `json:"native_custody_bump"`
}

// AmountArgs are the arguments of the deposit and swap instructions.
type AmountArgs struct {
	Amount uint64 `json:"amount"`
}

// Parsed is a decoded instruction.
type Parsed struct {
	Name string
	Args any
}

// Parse decodes instruction data.
func Parse(data []byte) (*Parsed, error) {
	if len(data) < 8 {
		return nil, poolerrors.ErrInvalidInstruction.Wrapf("data too short: %d bytes", len(data))
	}
	disc := decoder.NewAnchorDiscriminator(data)
	name, ok := names[disc]
	if !ok {
		return nil, poolerrors.ErrInvalidInstruction.Wrapf("unknown discriminator %s", disc)
	}

	body := data[8:]
	switch name {
	case NameCreatePool:
		var args CreatePoolArgs
		if err := bin.UnmarshalBorsh(&args, body); err != nil {
			return nil, poolerrors.ErrInvalidInstruction.WithCause(err)
		}
		return &Parsed{Name: name, Args: &args}, nil
	case NamePausePool, NameUnpausePool:
		return &Parsed{Name: name}, nil
	default:
		var args AmountArgs
		if err := bin.UnmarshalBorsh(&args, body); err != nil {
			return nil, poolerrors.ErrInvalidInstruction.WithCause(err)
		}
		return &Parsed{Name: name, Args: &args}, nil
	}
}

func encode(disc decoder.AnchorDiscriminator, args any) []byte {
	out := disc.Bytes()
	if args == nil {
		return out
	}
	body, err := bin.MarshalBorsh(args)
	if err != nil {
		// Args are fixed-size structs of integers.
		panic(fmt.Sprintf("instruction: encode %T: %v", args, err))
	}
	return append(out, body...)
}

// CreatePoolAccounts are the accounts of create_pool, in instruction order.
type CreatePoolAccounts struct {
	Pool          solana.PublicKey
	Authority     solana.PublicKey
	NativeCustody solana.PublicKey
	TokenMint     solana.PublicKey
	TokenCustody  solana.PublicKey
}

// NewCreatePool builds create_pool.
//
// Accounts: pool (writable, signer), authority (writable, signer), native
// custody (writable), token mint, token custody (writable), system program,
// token program.
func NewCreatePool(programID solana.PublicKey, accts CreatePoolAccounts, args CreatePoolArgs) *solana.GenericInstruction {
	return solana.NewInstruction(programID, solana.AccountMetaSlice{
		solana.Meta(accts.Pool).WRITE().SIGNER(),
		solana.Meta(accts.Authority).WRITE().SIGNER(),
		solana.Meta(accts.NativeCustody).WRITE(),
		solana.Meta(accts.TokenMint),
		solana.Meta(accts.TokenCustody).WRITE(),
		solana.Meta(solana.SystemProgramID),
		solana.Meta(solana.TokenProgramID),
	}, encode(CreatePoolDiscriminator, &args))
}

// DepositNativeAccounts are the accounts of deposit_native, in instruction order.
type DepositNativeAccounts struct {
	Pool          solana.PublicKey
	Depositor     solana.PublicKey
	NativeCustody solana.PublicKey
	TokenCustody  solana.PublicKey
}

// NewDepositNative builds deposit_native.
//
// Accounts: pool (writable), depositor (writable, signer), native custody
// (writable), token custody (writable), system program.
func NewDepositNative(programID solana.PublicKey, accts DepositNativeAccounts, amount uint64) *solana.GenericInstruction {
	return solana.NewInstruction(programID, solana.AccountMetaSlice{
		solana.Meta(accts.Pool).WRITE(),
		solana.Meta(accts.Depositor).WRITE().SIGNER(),
		solana.Meta(accts.NativeCustody).WRITE(),
		solana.Meta(accts.TokenCustody).WRITE(),
		solana.Meta(solana.SystemProgramID),
	}, encode(DepositNativeDiscriminator, &AmountArgs{Amount: amount}))
}

// DepositTokenAccounts are the accounts of deposit_token, in instruction order.
type DepositTokenAccounts struct {
	Pool          solana.PublicKey
	Depositor     solana.PublicKey
	Source        solana.PublicKey
	NativeCustody solana.PublicKey
	TokenCustody  solana.PublicKey
}

// NewDepositToken builds deposit_token.
//
// Accounts: pool (writable), depositor (writable, signer), source token
// account (writable), native custody (writable), token custody (writable),
// token program.
func NewDepositToken(programID solana.PublicKey, accts DepositTokenAccounts, amount uint64) *solana.GenericInstruction {
	return solana.NewInstruction(programID, solana.AccountMetaSlice{
		solana.Meta(accts.Pool).WRITE(),
		solana.Meta(accts.Depositor).WRITE().SIGNER(),
		solana.Meta(accts.Source).WRITE(),
		solana.Meta(accts.NativeCustody).WRITE(),
		solana.Meta(accts.TokenCustody).WRITE(),
		solana.Meta(solana.TokenProgramID),
	}, encode(DepositTokenDiscriminator, &AmountArgs{Amount: amount}))
}

// SwapTokenForNativeAccounts are the accounts of swap_token_for_native, in instruction order.
type SwapTokenForNativeAccounts struct {
	Pool          solana.PublicKey
	Trader        solana.PublicKey
	Source        solana.PublicKey
	Destination   solana.PublicKey
	NativeCustody solana.PublicKey
	TokenCustody  solana.PublicKey
}

// NewSwapTokenForNative builds swap_token_for_native.
//
// Accounts: pool (writable), trader (writable, signer), source token account
// (writable), destination (writable), native custody (writable), token
// custody (writable), token program.
func NewSwapTokenForNative(programID solana.PublicKey, accts SwapTokenForNativeAccounts, amount uint64) *solana.GenericInstruction {
	return solana.NewInstruction(programID, solana.AccountMetaSlice{
		solana.Meta(accts.Pool).WRITE(),
		solana.Meta(accts.Trader).WRITE().SIGNER(),
		solana.Meta(accts.Source).WRITE(),
		solana.Meta(accts.Destination).WRITE(),
		solana.Meta(accts.NativeCustody).WRITE(),
		solana.Meta(accts.TokenCustody).WRITE(),
		solana.Meta(solana.TokenProgramID),
	}, encode(SwapTokenForNativeDiscriminator, &AmountArgs{Amount: amount}))
}

// SwapNativeForTokenAccounts are the accounts of swap_native_for_token, in instruction order.
type SwapNativeForTokenAccounts struct {
	Pool          solana.PublicKey
	Trader        solana.PublicKey
	Destination   solana.PublicKey
	NativeCustody solana.PublicKey
	TokenCustody  solana.PublicKey
}

// NewSwapNativeForToken builds swap_native_for_token.
//
// Accounts: pool (writable), trader (writable, signer), destination token
// account (writable), native custody (writable), token custody (writable),
// system program, token program.
func NewSwapNativeForToken(programID solana.PublicKey, accts SwapNativeForTokenAccounts, amount uint64) *solana.GenericInstruction {
	return solana.NewInstruction(programID, solana.AccountMetaSlice{
		solana.Meta(accts.Pool).WRITE(),
		solana.Meta(accts.Trader).WRITE().SIGNER(),
		solana.Meta(accts.Destination).WRITE(),
		solana.Meta(accts.NativeCustody).WRITE(),
		solana.Meta(accts.TokenCustody).WRITE(),
		solana.Meta(solana.SystemProgramID),
		solana.Meta(solana.TokenProgramID),
	}, encode(SwapNativeForTokenDiscriminator, &AmountArgs{Amount: amount}))
}

// NewPausePool builds pause_pool. Accounts: pool (writable), authority (signer).
func NewPausePool(programID, pool, authority solana.PublicKey) *solana.GenericInstruction {
	return solana.NewInstruction(programID, solana.AccountMetaSlice{
		solana.Meta(pool).WRITE(),
		solana.Meta(authority).SIGNER(),
	}, encode(PausePoolDiscriminator, nil))
}

// NewUnpausePool builds unpause_pool. Accounts: pool (writable), authority (signer).
func NewUnpausePool(programID, pool, authority solana.PublicKey) *solana.GenericInstruction {
	return solana.NewInstruction(programID, solana.AccountMetaSlice{
		solana.Meta(pool).WRITE(),
		solana.Meta(authority).SIGNER(),
	}, encode(UnpausePoolDiscriminator, nil))
}
