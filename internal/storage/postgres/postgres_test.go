package postgres

import (
	"context"
	"math"
	"math/big"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lugondev/go-swappool/internal/config"
	"github.com/lugondev/go-swappool/internal/storage"
)

func TestConnString(t *testing.T) {
	cfg := &config.PostgresConfig{
		Host: "db", Port: 5433, User: "pool", Password: "secret", Database: "journal", SSLMode: "disable",
	}
	assert.Equal(t, "postgres://pool:secret@db:5433/journal?sslmode=disable", ConnString(cfg))
}

func TestLimitArg(t *testing.T) {
	assert.Nil(t, limitArg(0))
	assert.Nil(t, limitArg(-1))
	assert.Equal(t, 25, limitArg(25))
}

func TestMigrationsDropEveryTable(t *testing.T) {
	for _, m := range migrations {
		for _, table := range []string{"pools", "operations", "transactions"} {
			assert.Contains(t, m.Up, "CREATE TABLE IF NOT EXISTS "+table)
			assert.Contains(t, m.Down, "DROP TABLE IF EXISTS "+table)
		}
	}
}

func TestUint64Numeric(t *testing.T) {
	v, err := uint64Numeric(math.MaxUint64).NumericValue()
	require.NoError(t, err)
	assert.Equal(t, "18446744073709551615", v.Int.String())

	var n uint64Numeric
	require.NoError(t, n.ScanNumeric(v))
	assert.Equal(t, uint64Numeric(math.MaxUint64), n)

	// The server drops trailing zeros into the exponent.
	require.NoError(t, n.ScanNumeric(pgtype.Numeric{Int: big.NewInt(1), Exp: 3, Valid: true}))
	assert.Equal(t, uint64Numeric(1000), n)
	require.NoError(t, n.ScanNumeric(pgtype.Numeric{Int: big.NewInt(5000), Exp: -2, Valid: true}))
	assert.Equal(t, uint64Numeric(50), n)

	tooBig := new(big.Int).Add(new(big.Int).SetUint64(math.MaxUint64), big.NewInt(1))
	assert.Error(t, n.ScanNumeric(pgtype.Numeric{Int: tooBig, Valid: true}))
	assert.Error(t, n.ScanNumeric(pgtype.Numeric{Int: big.NewInt(-1), Valid: true}))
	assert.Error(t, n.ScanNumeric(pgtype.Numeric{Int: big.NewInt(15), Exp: -1, Valid: true}))
	assert.Error(t, n.ScanNumeric(pgtype.Numeric{}))
}

func TestReserveColumnsAreUnsigned64(t *testing.T) {
	for _, col := range []string{"native_reserve", "token_reserve", "amount_in", "amount_out"} {
		assert.Contains(t, migrations[0].Up, col+" NUMERIC(20,0) NOT NULL")
		assert.NotContains(t, migrations[0].Up, col+" BIGINT")
	}
}

// TestPostgresRepository needs a live server; set SWAPPOOL_TEST_POSTGRES_HOST to run it.
func TestPostgresRepository(t *testing.T) {
	host := os.Getenv("SWAPPOOL_TEST_POSTGRES_HOST")
	if host == "" {
		t.Skip("SWAPPOOL_TEST_POSTGRES_HOST not set")
	}

	ctx := context.Background()
	repo, err := NewPostgresRepository(ctx, &config.PostgresConfig{
		Host: host, Port: 5432, User: "postgres", Password: "postgres", Database: "swappool_test",
		SSLMode: "disable", MaxOpenConns: 4, MaxIdleConns: 1,
	})
	require.NoError(t, err)
	defer repo.Close()

	now := time.Now().UTC().Truncate(time.Second)
	address := "pool-" + now.Format("150405.000000000")

	require.NoError(t, repo.Pools().Save(ctx, &storage.PoolModel{
		ID: address, Address: address, Authority: "auth", NativeReserve: 7, TokenReserve: math.MaxUint64, UpdatedAt: now, CreatedAt: now,
	}))
	got, err := repo.Pools().FindByAddress(ctx, address)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, uint64(7), got.NativeReserve)
	assert.Equal(t, uint64(math.MaxUint64), got.TokenReserve)

	missing, err := repo.Pools().FindByAddress(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
