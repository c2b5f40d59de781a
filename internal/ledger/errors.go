package ledger

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Ledger errors. Transfer primitives return these so programs can surface them
// as the cause of their own failures.
var (
	ErrAccountNotDeclared = errors.New("account not declared by instruction")
	ErrReadonlyAccount    = errors.New("account is not writable")
	ErrMissingSignature   = errors.New("missing required signature")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrBalanceOverflow    = errors.New("balance overflow")
	ErrNotProgramOwned    = errors.New("account not owned by program")
	ErrNotSystemOwned     = errors.New("account not owned by system program")
	ErrNotTokenAccount    = errors.New("not a token account")
	ErrNotMint            = errors.New("not a mint")
	ErrMintMismatch       = errors.New("token accounts hold different mints")
	ErrOwnerMismatch      = errors.New("authority does not own token account")
	ErrAccountInUse       = errors.New("account already in use")
	ErrAccountNotFound    = errors.New("account not found")
	ErrInvalidSeeds       = errors.New("seeds do not derive a valid program address")
	ErrDataSizeMismatch   = errors.New("account data size mismatch")
	ErrUnknownProgram     = errors.New("unknown program")
	ErrBlockhashNotFound  = errors.New("blockhash not found")
	ErrAlreadyProcessed   = errors.New("transaction already processed")
	ErrInvalidTransaction = errors.New("invalid transaction")
	ErrProgramPanicked    = errors.New("program panicked")
)

// CustomError is implemented by program errors that carry a custom error number.
type CustomError interface {
	error
	CustomCode() uint32
}

// InstructionError is the failure of one instruction of a transaction.
type InstructionError struct {
	Index     int
	ProgramID solana.PublicKey
	Err       error
}

func (e *InstructionError) Error() string {
	return fmt.Sprintf("instruction %d (%s) failed: %v", e.Index, e.ProgramID, e.Err)
}

func (e *InstructionError) Unwrap() error {
	return e.Err
}

// failureLog renders the log line of a failed invocation.
func failureLog(programID solana.PublicKey, err error) string {
	var custom CustomError
	if errors.As(err, &custom) {
		return fmt.Sprintf("Program %s failed: custom program error: 0x%x", programID, custom.CustomCode())
	}
	return fmt.Sprintf("Program %s failed: %v", programID, err)
}
