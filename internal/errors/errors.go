// Package errors defines the error taxonomy of the liquidity pool program.
//
// Every failure of a pool operation is a PoolError carrying a stable string
// code and the program error number reported in transaction logs. Errors
// compare by code, so a wrapped or detailed error still matches its sentinel:
//
//	if errors.Is(err, errors.ErrPoolPaused) { ... }
package errors

import (
	"errors"
	"fmt"
)

// Error codes for pool operations.
const (
	ErrCodeAlreadyInitialized  = "ALREADY_INITIALIZED"
	ErrCodePoolPaused          = "POOL_PAUSED"
	ErrCodeUnauthorized        = "UNAUTHORIZED"
	ErrCodeInsufficientReserve = "INSUFFICIENT_RESERVE"
	ErrCodeArithmeticOverflow  = "ARITHMETIC_OVERFLOW"
	ErrCodeTransferFailed      = "TRANSFER_FAILED"
	ErrCodeAccountMismatch     = "ACCOUNT_MISMATCH"
	ErrCodePoolNotInitialized  = "POOL_NOT_INITIALIZED"
	ErrCodeInvalidInstruction  = "INVALID_INSTRUCTION"
)

// ProgramErrorOffset is the first custom program error number.
const ProgramErrorOffset uint32 = 6000

var errorNumbers = map[string]uint32{
	ErrCodeAlreadyInitialized:  ProgramErrorOffset,
	ErrCodePoolPaused:          ProgramErrorOffset + 1,
	ErrCodeUnauthorized:        ProgramErrorOffset + 2,
	ErrCodeInsufficientReserve: ProgramErrorOffset + 3,
	ErrCodeArithmeticOverflow:  ProgramErrorOffset + 4,
	ErrCodeTransferFailed:      ProgramErrorOffset + 5,
	ErrCodeAccountMismatch:     ProgramErrorOffset + 6,
	ErrCodePoolNotInitialized:  ProgramErrorOffset + 7,
	ErrCodeInvalidInstruction:  ProgramErrorOffset + 8,
}

// PoolError represents a failed pool operation.
type PoolError struct {
	// Code is a unique error code for this error type.
	Code string

	// Number is the program error number for this code.
	Number uint32

	// Message is a human-readable error message.
	Message string

	// Cause is the underlying error, if any.
	Cause error

	// Details contains additional error context.
	Details map[string]any
}

// Error implements the error interface.
func (e *PoolError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *PoolError) Unwrap() error {
	return e.Cause
}

// Is reports whether the error matches the target.
func (e *PoolError) Is(target error) bool {
	t, ok := target.(*PoolError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// CustomCode returns the program error number reported in transaction logs.
func (e *PoolError) CustomCode() uint32 {
	return e.Number
}

// WithCause returns a copy of the error with the given cause.
func (e *PoolError) WithCause(cause error) *PoolError {
	c := *e
	c.Cause = cause
	return &c
}

// WithDetails returns a copy of the error with the given details.
func (e *PoolError) WithDetails(details map[string]any) *PoolError {
	c := *e
	c.Details = details
	return &c
}

// Wrapf returns a copy of the error with a more specific message.
func (e *PoolError) Wrapf(format string, args ...any) *PoolError {
	c := *e
	c.Message = fmt.Sprintf("%s: %s", e.Message, fmt.Sprintf(format, args...))
	return &c
}

// NewError creates a new PoolError.
func NewError(code, message string) *PoolError {
	return &PoolError{
		Code:    code,
		Number:  errorNumbers[code],
		Message: message,
	}
}

// Pre-defined errors, one per failure kind.
var (
	// ErrAlreadyInitialized is returned when create targets storage that is not zero-filled.
	ErrAlreadyInitialized = NewError(ErrCodeAlreadyInitialized, "pool storage already initialized")

	// ErrPoolPaused is returned when a deposit or swap is attempted on a paused pool.
	ErrPoolPaused = NewError(ErrCodePoolPaused, "pool is paused")

	// ErrUnauthorized is returned when a required signer or the pool authority did not authorize the call.
	ErrUnauthorized = NewError(ErrCodeUnauthorized, "caller is not authorized")

	// ErrInsufficientReserve is returned when a swap needs more of a reserve than the pool records.
	ErrInsufficientReserve = NewError(ErrCodeInsufficientReserve, "insufficient pool reserve")

	// ErrArithmeticOverflow is returned when an amount computation would leave the u64 range.
	ErrArithmeticOverflow = NewError(ErrCodeArithmeticOverflow, "arithmetic overflow")

	// ErrTransferFailed is returned when a transfer primitive rejects a movement.
	ErrTransferFailed = NewError(ErrCodeTransferFailed, "transfer failed")

	// ErrAccountMismatch is returned when a presented account does not match the pool record.
	ErrAccountMismatch = NewError(ErrCodeAccountMismatch, "account mismatch")

	// ErrPoolNotInitialized is returned when the pool account holds no pool record.
	ErrPoolNotInitialized = NewError(ErrCodePoolNotInitialized, "pool not initialized")

	// ErrInvalidInstruction is returned when instruction data or accounts cannot be decoded.
	ErrInvalidInstruction = NewError(ErrCodeInvalidInstruction, "invalid instruction")
)

// TransferFailed wraps a transfer primitive's rejection reason.
func TransferFailed(leg string, cause error) *PoolError {
	return ErrTransferFailed.Wrapf("%s", leg).WithCause(cause)
}

// AccountMismatch describes which presented account did not match.
func AccountMismatch(account string, want, got fmt.Stringer) *PoolError {
	return ErrAccountMismatch.Wrapf("%s", account).WithDetails(map[string]any{
		"account":  account,
		"expected": want.String(),
		"actual":   got.String(),
	})
}

// FromNumber returns the sentinel for a program error number.
func FromNumber(number uint32) (*PoolError, bool) {
	for _, e := range All() {
		if e.Number == number {
			return e, true
		}
	}
	return nil, false
}

// All returns every pre-defined pool error.
func All() []*PoolError {
	return []*PoolError{
		ErrAlreadyInitialized,
		ErrPoolPaused,
		ErrUnauthorized,
		ErrInsufficientReserve,
		ErrArithmeticOverflow,
		ErrTransferFailed,
		ErrAccountMismatch,
		ErrPoolNotInitialized,
		ErrInvalidInstruction,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Join returns an error that wraps the given errors.
func Join(errs ...error) error {
	return errors.Join(errs...)
}
