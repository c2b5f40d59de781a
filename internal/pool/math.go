package pool

import (
	"math/bits"

	poolerrors "github.com/lugondev/go-swappool/internal/errors"
)

// NativeOut is the lamports paid for amount tokens, truncated toward zero.
func NativeOut(amount uint64) uint64 {
	return amount / TokensPerNative
}

// TokenOut is the tokens paid for amount lamports. It fails instead of wrapping.
func TokenOut(amount uint64) (uint64, error) {
	return CheckedMul(amount, TokensPerNative)
}

// CheckedAdd returns a+b or ErrArithmeticOverflow.
func CheckedAdd(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, poolerrors.ErrArithmeticOverflow.Wrapf("%d + %d", a, b)
	}
	return sum, nil
}

// CheckedSub returns a-b or ErrArithmeticOverflow on underflow.
func CheckedSub(a, b uint64) (uint64, error) {
	diff, borrow := bits.Sub64(a, b, 0)
	if borrow != 0 {
		return 0, poolerrors.ErrArithmeticOverflow.Wrapf("%d - %d", a, b)
	}
	return diff, nil
}

// CheckedMul returns a*b or ErrArithmeticOverflow.
func CheckedMul(a, b uint64) (uint64, error) {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return 0, poolerrors.ErrArithmeticOverflow.Wrapf("%d * %d", a, b)
	}
	return lo, nil
}
