package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lugondev/go-swappool/internal/config"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	// Flag variables outlive a single Execute.
	cfgFile, stateFile, logLevel = "", "", ""
	poolSource, poolDestination, poolFromRPC = "", "", false
	ledgerForce = false

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := run(t, args...)
	require.NoError(t, err, out)
	return out
}

// field returns the value after "<name>:" on the last line that has it.
func field(t *testing.T, out, name string) string {
	t.Helper()
	var value string
	for _, line := range strings.Split(out, "\n") {
		if rest, ok := strings.CutPrefix(strings.TrimSpace(line), name+":"); ok {
			value = strings.TrimSpace(rest)
		}
	}
	require.NotEmpty(t, value, "no %q in output:\n%s", name, out)
	return value
}

func writeConfig(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "swappool.yaml")
	body := fmt.Sprintf(`program:
  id: %s
ledger:
  state_file: %s
log:
  level: error
database:
  enabled: true
  type: memory
metrics:
  enabled: true
  namespace: swappool
`, config.DefaultProgramID, filepath.Join(dir, "state.yaml"))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestVersion(t *testing.T) {
	out := mustRun(t, "version")
	assert.Contains(t, out, "swappool")
	assert.Contains(t, out, "Version:")
}

func TestPoolLifecycle(t *testing.T) {
	dir := t.TempDir()
	conf := writeConfig(t, dir)
	authorityFile := filepath.Join(dir, "authority.json")
	traderFile := filepath.Join(dir, "trader.json")

	mustRun(t, "--config", conf, "wallet", "new", "--out", authorityFile)
	mustRun(t, "--config", conf, "wallet", "new", "--out", traderFile)
	authority := strings.TrimSpace(mustRun(t, "--config", conf, "wallet", "show", authorityFile))
	trader := strings.TrimSpace(mustRun(t, "--config", conf, "wallet", "show", traderFile))

	_, err := run(t, "--config", conf, "ledger", "airdrop", authority, "1")
	require.Error(t, err, "airdrop before init")

	mustRun(t, "--config", conf, "ledger", "init")
	_, err = run(t, "--config", conf, "ledger", "init")
	require.Error(t, err, "init twice without --force")

	mustRun(t, "--config", conf, "ledger", "airdrop", authority, "1000000000")
	mustRun(t, "--config", conf, "ledger", "airdrop", trader, "1000000000")

	mint := field(t, mustRun(t, "--config", conf, "ledger", "mint", "create", "--authority", authorityFile), "Mint")
	mustRun(t, "--config", conf, "ledger", "mint", "to", "--authority", authorityFile,
		"--mint", mint, "--to-owner", trader, "--amount", "1000")

	poolID := field(t, mustRun(t, "--config", conf, "pool", "create", "--authority", authorityFile, "--mint", mint), "Pool")

	mustRun(t, "--config", conf, "pool", "deposit-native", "--pool", poolID, "--depositor", authorityFile, "--amount", "500")
	mustRun(t, "--config", conf, "pool", "deposit-token", "--pool", poolID, "--depositor", traderFile, "--amount", "100")
	out := mustRun(t, "--config", conf, "pool", "swap-token", "--pool", poolID, "--trader", traderFile, "--amount", "50")
	assert.Equal(t, "success", field(t, out, "Status"))
	mustRun(t, "--config", conf, "pool", "swap-native", "--pool", poolID, "--trader", traderFile, "--amount", "3")

	mustRun(t, "--config", conf, "pool", "pause", "--pool", poolID, "--authority", authorityFile)
	out, err = run(t, "--config", conf, "pool", "swap-native", "--pool", poolID, "--trader", traderFile, "--amount", "1")
	require.Error(t, err)
	assert.Contains(t, out, "failed")

	_, err = run(t, "--config", conf, "pool", "unpause", "--pool", poolID, "--authority", traderFile)
	require.Error(t, err, "only the authority may unpause")
	mustRun(t, "--config", conf, "pool", "unpause", "--pool", poolID, "--authority", authorityFile)

	out = mustRun(t, "--config", conf, "pool", "show", poolID)
	assert.Contains(t, out, `"native_reserve": 498`)
	assert.Contains(t, out, `"token_reserve": 120`)
	assert.Contains(t, out, `"paused": false`)

	out = mustRun(t, "--config", conf, "pool", "verify", poolID)
	assert.Contains(t, out, `"native_in_sync": true`)
	assert.Contains(t, out, `"token_in_sync": true`)

	out = mustRun(t, "--config", conf, "pool", "list")
	assert.Contains(t, out, poolID)

	owner := solana.MustPublicKeyFromBase58(trader)
	ata, _, err := solana.FindAssociatedTokenAddress(owner, solana.MustPublicKeyFromBase58(mint))
	require.NoError(t, err)
	out = mustRun(t, "--config", conf, "ledger", "account", ata.String())
	assert.Contains(t, out, "amount 880")
}
