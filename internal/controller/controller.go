// Package controller implements the operations of the liquidity pool program.
//
// Every operation validates the presented accounts against the pool record,
// then the pause flag, then signatures, then amounts, all before the first
// transfer is issued. Transfers run through runtime.Env; the record is written
// last. The environment makes the whole operation atomic, so a failing step
// needs no compensation here.
package controller

import (
	"log/slog"

	"github.com/gagliardetto/solana-go"

	"github.com/lugondev/go-swappool/internal/common"
	poolerrors "github.com/lugondev/go-swappool/internal/errors"
	"github.com/lugondev/go-swappool/internal/events"
	"github.com/lugondev/go-swappool/internal/metrics"
	"github.com/lugondev/go-swappool/internal/pool"
	"github.com/lugondev/go-swappool/internal/runtime"
	"github.com/lugondev/go-swappool/pkg/types"
)

// Operation names, used in logs and metrics.
const (
	OpCreatePool         = "create_pool"
	OpDepositNative      = "deposit_native"
	OpDepositToken       = "deposit_token"
	OpSwapTokenForNative = "swap_token_for_native"
	OpSwapNativeForToken = "swap_native_for_token"
	OpPausePool          = "pause_pool"
	OpUnpausePool        = "unpause_pool"
)

// AccountReader reads committed accounts outside of an invocation.
type AccountReader interface {
	GetAccount(key solana.PublicKey) (*types.Account, error)
	GetTokenAccount(key solana.PublicKey) (*types.TokenAccount, error)
}

// Controller executes pool operations for one program id. A single
// Controller serves every pool owned by that program.
type Controller struct {
	common.LoggerMixin

	programID solana.PublicKey
	metrics   metrics.Metrics
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) { c.SetLogger(logger) }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m metrics.Metrics) Option {
	return func(c *Controller) {
		if m != nil {
			c.metrics = m
		}
	}
}

// New creates a Controller for programID.
func New(programID solana.PublicKey, opts ...Option) *Controller {
	c := &Controller{
		LoggerMixin: common.NewLoggerMixin("controller"),
		programID:   programID,
		metrics:     metrics.NewNoopMetrics(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ProgramID returns the program id the controller serves.
func (c *Controller) ProgramID() solana.PublicKey {
	return c.programID
}

// Pool loads the committed record of a pool.
func (c *Controller) Pool(reader AccountReader, id pool.PoolID) (*pool.LiquidityPool, error) {
	acct, err := reader.GetAccount(id)
	if err != nil {
		return nil, poolerrors.ErrPoolNotInitialized.WithCause(err)
	}
	if !acct.Owner.Equals(c.programID) {
		return nil, poolerrors.AccountMismatch("pool owner", c.programID, acct.Owner)
	}
	return pool.Decode(acct.Data)
}

// load reads the record of a pool inside an invocation.
func (c *Controller) load(env runtime.Env, id pool.PoolID) (*pool.LiquidityPool, []byte, error) {
	acct, err := env.Account(id)
	if err != nil {
		return nil, nil, poolerrors.ErrAccountMismatch.Wrapf("pool account").WithCause(err)
	}
	if !acct.Owner.Equals(env.ProgramID()) {
		return nil, nil, poolerrors.AccountMismatch("pool owner", env.ProgramID(), acct.Owner)
	}
	rec, err := pool.Decode(acct.Data)
	if err != nil {
		return nil, nil, err
	}
	return rec, acct.Data, nil
}

// store writes rec over the pool account data.
func (c *Controller) store(env runtime.Env, id pool.PoolID, rec *pool.LiquidityPool, data []byte) error {
	if err := rec.EncodeInto(data); err != nil {
		return err
	}
	return env.WriteData(id, data)
}

func (c *Controller) emit(env runtime.Env, ev events.Event) error {
	data, err := events.Encode(ev)
	if err != nil {
		return err
	}
	env.EmitEvent(data)
	return nil
}

// observe counts an operation outcome.
func (c *Controller) observe(env runtime.Env, op string, id pool.PoolID, err error) {
	status := metrics.StatusSuccess
	if err != nil {
		status = metrics.StatusFailed
		c.GetLogger().Debug("pool operation rejected", "op", op, "pool", id, "error", err)
	}
	_ = c.metrics.IncrementCounter(env.Context(), metrics.MetricPoolOperations, 1,
		metrics.L(metrics.LabelOperation, op), metrics.L(metrics.LabelStatus, status))
}

func expect(name string, want, got solana.PublicKey) error {
	if !want.Equals(got) {
		return poolerrors.AccountMismatch(name, want, got)
	}
	return nil
}

// expectCustodies checks both presented custody accounts against the record.
func expectCustodies(rec *pool.LiquidityPool, native, token solana.PublicKey) error {
	if err := expect("native custody", rec.NativeCustody, native); err != nil {
		return err
	}
	return expect("token custody", rec.TokenCustody, token)
}

func requireSigner(env runtime.Env, role string, key solana.PublicKey) error {
	if !env.IsSigner(key) {
		return poolerrors.ErrUnauthorized.Wrapf("%s %s did not sign", role, key)
	}
	return nil
}
