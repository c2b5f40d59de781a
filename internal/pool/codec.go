package pool

import (
	"fmt"

	bin "github.com/gagliardetto/binary"

	poolerrors "github.com/lugondev/go-swappool/internal/errors"
	"github.com/lugondev/go-swappool/pkg/decoder"
)

// AccountSize is the encoded record size: discriminator plus borsh fields.
const AccountSize = 8 + 32 + 8 + 8 + 32 + 32 + 32 + 1 + 1 + 1

// DefaultAllocation is the account size pools are allocated with by the CLI.
const DefaultAllocation = 1000

// AccountDiscriminator prefixes every pool record.
var AccountDiscriminator = decoder.ComputeDiscriminator(decoder.NamespaceAccount, "LiquidityPool")

// Encode returns the discriminator followed by the borsh encoding of the record.
func (p *LiquidityPool) Encode() ([]byte, error) {
	body, err := bin.MarshalBorsh(p)
	if err != nil {
		return nil, fmt.Errorf("failed to encode pool: %w", err)
	}
	out := make([]byte, 0, AccountSize)
	out = append(out, AccountDiscriminator.Bytes()...)
	return append(out, body...), nil
}

// EncodeInto writes the record at the start of data, which must be at least
// AccountSize bytes. Trailing bytes are left as they are.
func (p *LiquidityPool) EncodeInto(data []byte) error {
	if len(data) < AccountSize {
		return fmt.Errorf("pool account too small: %d < %d", len(data), AccountSize)
	}
	encoded, err := p.Encode()
	if err != nil {
		return err
	}
	copy(data, encoded)
	return nil
}

// Decode parses a record from account data.
func Decode(data []byte) (*LiquidityPool, error) {
	if len(data) < AccountSize || IsZeroed(data[:8]) {
		return nil, poolerrors.ErrPoolNotInitialized
	}
	if !AccountDiscriminator.Matches(data) {
		return nil, poolerrors.ErrAccountMismatch.Wrapf("not a pool account")
	}

	p := new(LiquidityPool)
	if err := bin.UnmarshalBorsh(p, data[8:AccountSize]); err != nil {
		return nil, poolerrors.ErrInvalidInstruction.WithCause(err)
	}
	return p, nil
}

// IsPoolAccount reports whether data carries a pool record.
func IsPoolAccount(data []byte) bool {
	return len(data) >= AccountSize && AccountDiscriminator.Matches(data)
}

// IsZeroed reports whether every byte of data is zero.
func IsZeroed(data []byte) bool {
	for _, b := range data {
		if b != 0 {
			return false
		}
	}
	return true
}
