package pool

import (
	"math"
	"math/big"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	poolerrors "github.com/lugondev/go-swappool/internal/errors"
)

func samplePool() *LiquidityPool {
	return &LiquidityPool{
		TokenMint:         solana.NewWallet().PublicKey(),
		NativeReserve:     1_000_000,
		TokenReserve:      5_000_000,
		NativeCustody:     solana.NewWallet().PublicKey(),
		TokenCustody:      solana.NewWallet().PublicKey(),
		Authority:         solana.NewWallet().PublicKey(),
		NativeCustodyBump: 2,
		PoolSignerBump:    1,
		Paused:            true,
	}
}

func TestEncodeLayout(t *testing.T) {
	p := samplePool()
	data, err := p.Encode()
	require.NoError(t, err)
	require.Len(t, data, AccountSize)
	assert.Equal(t, 155, AccountSize)

	assert.Equal(t, AccountDiscriminator.Bytes(), data[:8])
	assert.Equal(t, p.TokenMint.Bytes(), data[8:40])
	assert.Equal(t, []byte{0x40, 0x42, 0x0f, 0, 0, 0, 0, 0}, data[40:48])
	assert.Equal(t, p.Authority.Bytes(), data[120:152])
	assert.Equal(t, []byte{2, 1, 1}, data[152:155])
}

func TestDecodeFromLargerAllocation(t *testing.T) {
	p := samplePool()
	data := make([]byte, DefaultAllocation)
	require.NoError(t, p.EncodeInto(data))
	assert.True(t, IsPoolAccount(data))
	assert.True(t, IsZeroed(data[AccountSize:]))

	got, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestDecodeRejects(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, poolerrors.ErrPoolNotInitialized},
		{"zeroed", make([]byte, DefaultAllocation), poolerrors.ErrPoolNotInitialized},
		{"short", append(AccountDiscriminator.Bytes(), 1, 2, 3), poolerrors.ErrPoolNotInitialized},
		{"foreign", append([]byte{1, 2, 3, 4, 5, 6, 7, 8}, make([]byte, AccountSize)...), poolerrors.ErrAccountMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.data)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	assert.Error(t, samplePool().EncodeInto(make([]byte, AccountSize-1)))
}

func TestPredicates(t *testing.T) {
	p := samplePool()

	assert.True(t, p.IsPaused())
	assert.True(t, p.HasSufficientNative(1_000_000))
	assert.False(t, p.HasSufficientNative(1_000_001))
	assert.True(t, p.HasSufficientToken(0))
	assert.False(t, p.HasSufficientToken(5_000_001))
	assert.True(t, p.IsAuthority(p.Authority))
	assert.False(t, p.IsAuthority(p.TokenMint))

	c := p.Clone()
	c.Paused = false
	assert.True(t, p.IsPaused())
}

func TestPriceBoundary(t *testing.T) {
	limit := uint64(math.MaxUint64 / TokensPerNative)

	out, err := TokenOut(limit)
	require.NoError(t, err)
	assert.Equal(t, limit*10, out)

	_, err = TokenOut(limit + 1)
	assert.ErrorIs(t, err, poolerrors.ErrArithmeticOverflow)

	_, err = TokenOut(math.MaxUint64)
	assert.ErrorIs(t, err, poolerrors.ErrArithmeticOverflow)

	assert.Equal(t, uint64(0), NativeOut(9))
	assert.Equal(t, uint64(100), NativeOut(1000))
	assert.Equal(t, uint64(100), NativeOut(1009))
}

func TestCheckedArithmeticMatchesBigInt(t *testing.T) {
	maxU64 := new(big.Int).SetUint64(math.MaxUint64)

	rapid.Check(t, func(t *rapid.T) {
		a := rapid.Uint64().Draw(t, "a")
		b := rapid.Uint64().Draw(t, "b")
		ba, bb := new(big.Int).SetUint64(a), new(big.Int).SetUint64(b)

		sum, err := CheckedAdd(a, b)
		if want := new(big.Int).Add(ba, bb); want.Cmp(maxU64) > 0 {
			if err == nil {
				t.Fatalf("add %d+%d did not overflow", a, b)
			}
		} else if err != nil || sum != want.Uint64() {
			t.Fatalf("add %d+%d = %d, %v", a, b, sum, err)
		}

		diff, err := CheckedSub(a, b)
		if a < b {
			if err == nil {
				t.Fatalf("sub %d-%d did not underflow", a, b)
			}
		} else if err != nil || diff != a-b {
			t.Fatalf("sub %d-%d = %d, %v", a, b, diff, err)
		}

		prod, err := CheckedMul(a, b)
		if want := new(big.Int).Mul(ba, bb); want.Cmp(maxU64) > 0 {
			if err == nil {
				t.Fatalf("mul %d*%d did not overflow", a, b)
			}
		} else if err != nil || prod != want.Uint64() {
			t.Fatalf("mul %d*%d = %d, %v", a, b, prod, err)
		}
	})
}

func TestDerivationsAgree(t *testing.T) {
	programID := solana.NewWallet().PublicKey()
	id := solana.NewWallet().PublicKey()

	custody, err := FindNativeCustody(programID, id)
	require.NoError(t, err)
	addr, err := NativeCustodyAddress(programID, id, custody.Bump)
	require.NoError(t, err)
	assert.Equal(t, custody.Address, addr)

	signer, err := FindPoolSigner(programID, id)
	require.NoError(t, err)
	addr, err = PoolSignerAddress(programID, id, signer.Bump)
	require.NoError(t, err)
	assert.Equal(t, signer.Address, addr)

	assert.NotEqual(t, custody.Address, signer.Address)
	assert.Len(t, WithBump(PoolSignerSeeds(id), 7), 2)
}
