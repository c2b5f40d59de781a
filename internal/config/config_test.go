package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultProgramID, cfg.Program.ID)
	assert.Equal(t, "memory", cfg.Database.Type)
	assert.Equal(t, ":8080", cfg.API.Listen)
	assert.Equal(t, "finalized", cfg.Solana.Commitment)

	id, err := cfg.ProgramID()
	require.NoError(t, err)
	assert.Equal(t, DefaultProgramID, id.String())
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "swappool.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log:
  level: debug
  format: json
database:
  enabled: true
  type: postgres
  postgres:
    host: db.internal
    port: 6432
api:
  listen: "127.0.0.1:9000"
`), 0o600))

	t.Setenv("SWAPPOOL_DATABASE_POSTGRES_PASSWORD", "secret")
	t.Setenv("SWAPPOOL_API_LISTEN", ":9999")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.True(t, cfg.Database.Enabled)
	assert.Equal(t, "db.internal", cfg.Database.Postgres.Host)
	assert.Equal(t, 6432, cfg.Database.Postgres.Port)
	assert.Equal(t, "secret", cfg.Database.Postgres.Password)
	assert.Equal(t, "swappool", cfg.Database.Postgres.User)
	assert.Equal(t, ":9999", cfg.API.Listen)
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Database.Type = "sqlite"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Program.ID = "not-a-key"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Log.Format = "xml"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Solana.Commitment = "recent"
	assert.Error(t, cfg.Validate())
}

func TestGetRPCEndpoint(t *testing.T) {
	assert.Equal(t, rpc.LocalNet_RPC, (&SolanaConfig{Network: "localnet"}).GetRPCEndpoint())
	assert.Equal(t, rpc.MainNetBeta_RPC, (&SolanaConfig{Network: "mainnet"}).GetRPCEndpoint())
	assert.Equal(t, "https://rpc.example", (&SolanaConfig{RPC: "https://rpc.example"}).GetRPCEndpoint())
	assert.Equal(t, "https://api.devnet.solana.com", (&SolanaConfig{}).GetRPCEndpoint())
}
