package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/lugondev/go-swappool/internal/common"
	"github.com/lugondev/go-swappool/internal/config"
)

var (
	cfgFile   string
	stateFile string
	logLevel  string

	cfg    *config.Config
	logger *slog.Logger
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "swappool",
	Short: "swappool - a fixed-ratio native/token liquidity pool",
	Long: `swappool runs a two-asset liquidity pool program on a local ledger.

It provides commands for:
- Wallet management
- Ledger accounts, mints and airdrops
- Pool creation, deposits, swaps and pausing
- Serving the pool journal over HTTP`,
	SilenceUsage:      true,
	PersistentPreRunE: initConfig,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./.swappool.yaml or $HOME/.swappool.yaml)")
	rootCmd.PersistentFlags().StringVar(&stateFile, "state", "", "ledger state file (overrides ledger.state_file)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (overrides log.level)")
}

func initConfig(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if stateFile != "" {
		loaded.Ledger.StateFile = stateFile
	}
	if logLevel != "" {
		loaded.Log.Level = logLevel
	}

	cfg = loaded
	logger = common.NewLogger(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	return nil
}
