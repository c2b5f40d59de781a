package postgres

import (
	"fmt"
	"math/big"

	"github.com/jackc/pgx/v5/pgtype"
)

// uint64Numeric moves a uint64 through a NUMERIC(20,0) column. BIGINT is
// signed and cannot hold reserves above 2^63-1.
type uint64Numeric uint64

func (n uint64Numeric) NumericValue() (pgtype.Numeric, error) {
	return pgtype.Numeric{Int: new(big.Int).SetUint64(uint64(n)), Valid: true}, nil
}

func (n *uint64Numeric) ScanNumeric(v pgtype.Numeric) error {
	if !v.Valid || v.NaN || v.InfinityModifier != pgtype.Finite {
		return fmt.Errorf("cannot scan %v into uint64", v)
	}

	i := new(big.Int)
	if v.Int != nil {
		i.Set(v.Int)
	}
	if v.Exp != 0 {
		exp := v.Exp
		if exp < 0 {
			exp = -exp
		}
		scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(exp)), nil)
		if v.Exp > 0 {
			i.Mul(i, scale)
		} else {
			var rem big.Int
			if i.QuoRem(i, scale, &rem); rem.Sign() != 0 {
				return fmt.Errorf("numeric %s has a fractional part", v.Int)
			}
		}
	}
	if !i.IsUint64() {
		return fmt.Errorf("numeric %s out of uint64 range", i)
	}
	*n = uint64Numeric(i.Uint64())
	return nil
}
