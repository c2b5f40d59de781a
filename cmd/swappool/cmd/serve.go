package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/lugondev/go-swappool/internal/api"
)

var serveListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the pool journal over HTTP",
	Long: `Serve pools, operations and transactions from the journal, plus Prometheus
metrics when enabled. Pools in the ledger state are synced into the journal on
startup; the memory backend is used when no database is configured.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cfg.Database.Enabled {
			cfg.Database.Enabled = true
			cfg.Database.Type = "memory"
		}
		if serveListen != "" {
			cfg.API.Listen = serveListen
		}

		ctx, stop := signal.NotifyContext(cmdContext(cmd), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return withSession(ctx, false, func(s *session) error {
			n, err := s.journal.Backfill(ctx, s.ledger)
			if err != nil {
				return err
			}
			logger.Info("journal backfilled", "pools", n, "slot", s.ledger.Slot())

			opts := []api.Option{api.WithLogger(logger), api.WithMetrics(s.metrics)}
			if s.gatherer != nil {
				opts = append(opts, api.WithGatherer(s.gatherer))
			}
			server := api.NewServer(s.repo, opts...)

			errCh := make(chan error, 1)
			go func() {
				errCh <- server.Start(cfg.API.Listen)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Stop(shutdownCtx); err != nil {
				return fmt.Errorf("failed to stop API server: %w", err)
			}
			return <-errCh
		})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "listen address (overrides api.listen)")
}
