// Package journal records committed ledger receipts into storage: one
// transaction row per receipt, one operation row per pool event and the
// latest snapshot of every pool the receipt touched.
package journal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"

	"github.com/lugondev/go-swappool/internal/common"
	"github.com/lugondev/go-swappool/internal/controller"
	poolerrors "github.com/lugondev/go-swappool/internal/errors"
	"github.com/lugondev/go-swappool/internal/events"
	"github.com/lugondev/go-swappool/internal/ledger"
	"github.com/lugondev/go-swappool/internal/metrics"
	"github.com/lugondev/go-swappool/internal/pool"
	"github.com/lugondev/go-swappool/internal/storage"
	"github.com/lugondev/go-swappool/pkg/decoder"
	"github.com/lugondev/go-swappool/pkg/log"
)

// Journal writes receipts of one pool program to a repository.
type Journal struct {
	common.LoggerMixin

	repo       storage.Repository
	controller *controller.Controller
	reader     controller.AccountReader
	registry   *decoder.Registry
	parser     *log.LogParser
	metrics    metrics.Metrics
}

type Option func(*Journal)

func WithLogger(logger *slog.Logger) Option {
	return func(j *Journal) { j.SetLogger(logger) }
}

func WithMetrics(m metrics.Metrics) Option {
	return func(j *Journal) {
		if m != nil {
			j.metrics = m
		}
	}
}

// New returns a Journal reading pool snapshots through reader.
func New(repo storage.Repository, ctrl *controller.Controller, reader controller.AccountReader, opts ...Option) *Journal {
	j := &Journal{
		LoggerMixin: common.NewLoggerMixin("journal"),
		repo:        repo,
		controller:  ctrl,
		reader:      reader,
		registry:    events.NewRegistry(ctrl.ProgramID()),
		parser:      log.NewParser(),
		metrics:     metrics.NewNoopMetrics(),
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Record stores receipt. Operations and pool snapshots are written only for
// committed transactions.
func (j *Journal) Record(ctx context.Context, receipt *ledger.Receipt) error {
	if receipt == nil {
		return nil
	}

	if err := j.recordTransaction(ctx, receipt); err != nil {
		return j.fail(ctx, "transaction", err)
	}
	if !receipt.Succeeded() {
		return nil
	}

	evs, err := j.Events(receipt.LogMessages)
	if err != nil {
		return j.fail(ctx, "events", err)
	}
	if len(evs) == 0 {
		return nil
	}

	ops := make([]*storage.OperationModel, 0, len(evs))
	var touched []solana.PublicKey
	seen := make(map[solana.PublicKey]bool)
	for i, ev := range evs {
		ops = append(ops, OperationFromEvent(receipt, i, ev))
		if id := ev.PoolID(); !seen[id] {
			seen[id] = true
			touched = append(touched, id)
		}
	}

	if err := j.repo.Operations().SaveBatch(ctx, ops); err != nil {
		return j.fail(ctx, "operations", err)
	}
	_ = j.metrics.IncrementCounter(ctx, metrics.MetricJournalOperations, uint64(len(ops)))

	for _, id := range touched {
		if err := j.SyncPool(ctx, id, receipt.Slot); err != nil {
			return j.fail(ctx, "pool", err)
		}
	}

	j.GetLogger().Debug("receipt journaled",
		"signature", receipt.Signature.String(),
		"slot", receipt.Slot,
		"operations", len(ops),
	)
	return nil
}

// SyncPool stores the committed record of id and publishes its reserves as gauges.
func (j *Journal) SyncPool(ctx context.Context, id pool.PoolID, slot uint64) error {
	rec, err := j.controller.Pool(j.reader, id)
	if err != nil {
		return fmt.Errorf("failed to load pool %s: %w", id, err)
	}

	if err := j.repo.Pools().Save(ctx, storage.PoolToModel(id, j.controller.ProgramID(), rec, slot)); err != nil {
		return fmt.Errorf("failed to save pool %s: %w", id, err)
	}

	label := metrics.L(metrics.LabelPool, id.String())
	_ = j.metrics.UpdateGauge(ctx, metrics.MetricPoolNativeReserve, float64(rec.NativeReserve), label)
	_ = j.metrics.UpdateGauge(ctx, metrics.MetricPoolTokenReserve, float64(rec.TokenReserve), label)
	return nil
}

// Backfill snapshots every pool held by l, for journals started against an
// existing ledger. It returns the number of pools written.
func (j *Journal) Backfill(ctx context.Context, l *ledger.Ledger) (int, error) {
	accounts := l.ProgramAccounts(j.controller.ProgramID(), pool.AccountDiscriminator)
	for _, acct := range accounts {
		if err := j.SyncPool(ctx, acct.Address, l.Slot()); err != nil {
			return 0, j.fail(ctx, "backfill", err)
		}
	}
	return len(accounts), nil
}

// Events decodes the pool events written by the journal's program, in log order.
// Data lines of other programs are skipped.
func (j *Journal) Events(logMessages []string) ([]events.Event, error) {
	programID := j.controller.ProgramID()

	var out []events.Event
	for _, inv := range j.parser.Invocations(logMessages) {
		if inv.ProgramID != programID.String() {
			continue
		}
		for _, data := range inv.Data {
			decoded, err := j.registry.Decode(data, &programID)
			if err != nil {
				return nil, err
			}
			ev, ok := events.FromDecoded(decoded)
			if !ok {
				return nil, fmt.Errorf("unexpected event payload %T", decoded.Data)
			}
			out = append(out, ev)
		}
	}
	return out, nil
}

func (j *Journal) recordTransaction(ctx context.Context, receipt *ledger.Receipt) error {
	model := &storage.TransactionModel{
		ID:           receipt.Signature.String(),
		Signature:    receipt.Signature.String(),
		Slot:         receipt.Slot,
		FeePayer:     receipt.FeePayer.String(),
		Success:      receipt.Succeeded(),
		Instructions: j.parser.ExtractInstructions(receipt.LogMessages),
		LogMessages:  receipt.LogMessages,
		CreatedAt:    time.Now(),
	}
	if receipt.Err != nil {
		model.ErrorCode = j.errorCode(receipt)
		model.ErrorMessage = receipt.Err.Error()
	}
	return j.repo.Transactions().Save(ctx, model)
}

// errorCode names the pool error of a failed receipt. Failures outside the
// pool program fall back to the raw custom error number, if any.
func (j *Journal) errorCode(receipt *ledger.Receipt) string {
	var perr *poolerrors.PoolError
	if errors.As(receipt.Err, &perr) {
		return perr.Code
	}

	failure := j.parser.Failure(receipt.LogMessages)
	if failure == nil || failure.ErrorCode == nil {
		return ""
	}
	if perr, ok := poolerrors.FromNumber(*failure.ErrorCode); ok {
		return perr.Code
	}
	return fmt.Sprintf("0x%x", *failure.ErrorCode)
}

func (j *Journal) fail(ctx context.Context, stage string, err error) error {
	_ = j.metrics.IncrementCounter(ctx, metrics.MetricJournalErrors, 1, metrics.L(metrics.LabelOperation, stage))
	j.GetLogger().Error("failed to journal receipt", "stage", stage, "error", err)
	return fmt.Errorf("journal %s: %w", stage, err)
}

// OperationFromEvent converts the index-th event of receipt into an operation row.
func OperationFromEvent(receipt *ledger.Receipt, index int, ev events.Event) *storage.OperationModel {
	op := &storage.OperationModel{
		ID:         uuid.NewString(),
		Signature:  receipt.Signature.String(),
		Slot:       receipt.Slot,
		EventIndex: index,
		Pool:       ev.PoolID().String(),
		CreatedAt:  time.Now(),
	}

	switch e := ev.(type) {
	case *events.PoolCreated:
		op.Operation = controller.OpCreatePool
		op.Actor = e.Authority.String()
	case *events.NativeDeposited:
		op.Operation = controller.OpDepositNative
		op.Actor = e.Depositor.String()
		op.AmountIn = e.Amount
		op.NativeReserve = e.NativeReserve
	case *events.TokenDeposited:
		op.Operation = controller.OpDepositToken
		op.Actor = e.Depositor.String()
		op.AmountIn = e.Amount
		op.TokenReserve = e.TokenReserve
	case *events.Swapped:
		op.Operation = controller.OpSwapTokenForNative
		if e.Direction == events.NativeToToken {
			op.Operation = controller.OpSwapNativeForToken
		}
		op.Actor = e.Trader.String()
		op.Direction = e.Direction.String()
		op.AmountIn = e.AmountIn
		op.AmountOut = e.AmountOut
		op.NativeReserve = e.NativeReserve
		op.TokenReserve = e.TokenReserve
	case *events.PauseChanged:
		op.Operation = controller.OpUnpausePool
		if e.Paused {
			op.Operation = controller.OpPausePool
		}
		op.Actor = e.Authority.String()
	}
	return op
}
