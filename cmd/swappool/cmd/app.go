package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/gagliardetto/solana-go"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/lugondev/go-swappool/internal/controller"
	"github.com/lugondev/go-swappool/internal/instruction"
	"github.com/lugondev/go-swappool/internal/journal"
	"github.com/lugondev/go-swappool/internal/ledger"
	"github.com/lugondev/go-swappool/internal/metrics"
	"github.com/lugondev/go-swappool/internal/storage"

	_ "github.com/lugondev/go-swappool/internal/storage/memory"
	_ "github.com/lugondev/go-swappool/internal/storage/mongo"
	_ "github.com/lugondev/go-swappool/internal/storage/mysql"
	_ "github.com/lugondev/go-swappool/internal/storage/postgres"
)

var errNoState = errors.New("ledger state not found; run `swappool ledger init` first")

// session is one command's view of the ledger, the pool program and the
// optional journal.
type session struct {
	ledger    *ledger.Ledger
	ctrl      *controller.Controller
	programID solana.PublicKey
	metrics   *metrics.Collection
	gatherer  prometheus.Gatherer

	conn    *storage.ConnectionManager
	repo    storage.Repository
	journal *journal.Journal
}

// newMetrics always logs metrics at debug level and adds a Prometheus
// registry when metrics are enabled.
func newMetrics() (*metrics.Collection, prometheus.Gatherer) {
	m := metrics.NewCollection(metrics.NewLogMetrics(logger))
	if !cfg.Metrics.Enabled {
		return m, nil
	}
	reg := prometheus.NewRegistry()
	m.Add(metrics.NewPrometheusMetrics(metrics.PrometheusConfig{
		Namespace:  cfg.Metrics.Namespace,
		Registerer: reg,
	}))
	return m, reg
}

// openSession loads the ledger state. With requireState unset a missing state
// file yields an empty ledger.
func openSession(ctx context.Context, requireState bool) (*session, error) {
	programID, err := cfg.ProgramID()
	if err != nil {
		return nil, err
	}

	m, gatherer := newMetrics()
	if err := m.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	s := &session{
		programID: programID,
		metrics:   m,
		gatherer:  gatherer,
		ledger:    ledger.New(ledger.WithLogger(logger), ledger.WithMetrics(m)),
		ctrl:      controller.New(programID, controller.WithLogger(logger), controller.WithMetrics(m)),
	}
	s.ledger.RegisterProgram(instruction.NewProcessor(s.ctrl))

	switch _, err := os.Stat(cfg.Ledger.StateFile); {
	case err == nil:
		if err := s.ledger.LoadFile(cfg.Ledger.StateFile); err != nil {
			return nil, err
		}
	case errors.Is(err, os.ErrNotExist):
		if requireState {
			return nil, fmt.Errorf("%w (%s)", errNoState, cfg.Ledger.StateFile)
		}
	default:
		return nil, fmt.Errorf("failed to stat ledger state: %w", err)
	}

	if cfg.Database.Enabled {
		if err := s.openJournal(ctx); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *session) openJournal(ctx context.Context) error {
	conn, err := storage.NewConnectionManager(&cfg.Database)
	if err != nil {
		return err
	}
	repo, err := conn.Connect(ctx)
	if err != nil {
		return fmt.Errorf("failed to connect journal: %w", err)
	}
	s.conn = conn
	s.repo = repo
	s.journal = journal.New(repo, s.ctrl, s.ledger, journal.WithLogger(logger), journal.WithMetrics(s.metrics))
	return nil
}

func (s *session) save() error {
	return s.ledger.SaveFile(cfg.Ledger.StateFile)
}

func (s *session) close(ctx context.Context) {
	if err := s.metrics.Flush(ctx); err != nil {
		logger.Warn("failed to flush metrics", "error", err)
	}
	if s.conn != nil {
		if err := s.conn.Close(); err != nil {
			logger.Warn("failed to close journal", "error", err)
		}
	}
}

// submit executes instructions with signers[0] paying, journals the receipt
// and persists the ledger when the transaction commits.
func (s *session) submit(ctx context.Context, signers []solana.PrivateKey, ixs ...solana.Instruction) (*ledger.Receipt, error) {
	receipt, err := s.ledger.Execute(ctx, signers[0].PublicKey(), signers, ixs...)
	if s.journal != nil && receipt != nil {
		if jerr := s.journal.Record(ctx, receipt); jerr != nil {
			logger.Warn("failed to journal transaction", "error", jerr)
		}
	}
	if err != nil {
		return receipt, err
	}
	return receipt, s.save()
}

func printReceipt(w io.Writer, r *ledger.Receipt) {
	fmt.Fprintf(w, "Signature: %s\n", r.Signature)
	fmt.Fprintf(w, "Slot:      %d\n", r.Slot)
	if r.Err != nil {
		fmt.Fprintf(w, "Status:    failed (%v)\n", r.Err)
	} else {
		fmt.Fprintf(w, "Status:    success\n")
	}
	if len(r.LogMessages) > 0 {
		fmt.Fprintln(w, "Logs:")
		for _, line := range r.LogMessages {
			fmt.Fprintf(w, "  %s\n", line)
		}
	}
}

// withSession opens a session for the duration of fn.
func withSession(ctx context.Context, requireState bool, fn func(*session) error) error {
	s, err := openSession(ctx, requireState)
	if err != nil {
		return err
	}
	defer s.close(ctx)
	return fn(s)
}
