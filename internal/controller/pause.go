package controller

import (
	"github.com/gagliardetto/solana-go"

	poolerrors "github.com/lugondev/go-swappool/internal/errors"
	"github.com/lugondev/go-swappool/internal/events"
	"github.com/lugondev/go-swappool/internal/pool"
	"github.com/lugondev/go-swappool/internal/runtime"
)

// PauseAccounts are the accounts of pause_pool and unpause_pool.
type PauseAccounts struct {
	Pool      pool.PoolID
	Authority solana.PublicKey
}

// PausePool stops deposits and swaps. Pausing a paused pool succeeds.
func (c *Controller) PausePool(env runtime.Env, accts PauseAccounts) (rec *pool.LiquidityPool, err error) {
	defer func() { c.observe(env, OpPausePool, accts.Pool, err) }()
	return c.setPaused(env, accts, true)
}

// UnpausePool resumes deposits and swaps. Unpausing an active pool succeeds.
func (c *Controller) UnpausePool(env runtime.Env, accts PauseAccounts) (rec *pool.LiquidityPool, err error) {
	defer func() { c.observe(env, OpUnpausePool, accts.Pool, err) }()
	return c.setPaused(env, accts, false)
}

func (c *Controller) setPaused(env runtime.Env, accts PauseAccounts, paused bool) (*pool.LiquidityPool, error) {
	rec, data, err := c.load(env, accts.Pool)
	if err != nil {
		return nil, err
	}
	if !rec.IsAuthority(accts.Authority) {
		return nil, poolerrors.ErrUnauthorized.Wrapf("%s is not the pool authority", accts.Authority)
	}
	if err := requireSigner(env, "authority", accts.Authority); err != nil {
		return nil, err
	}

	rec.Paused = paused
	if err := c.store(env, accts.Pool, rec, data); err != nil {
		return nil, err
	}

	if paused {
		env.Log("Instruction: PausePool")
	} else {
		env.Log("Instruction: UnpausePool")
	}
	if err := c.emit(env, &events.PauseChanged{Pool: accts.Pool, Authority: accts.Authority, Paused: paused}); err != nil {
		return nil, err
	}

	c.GetLogger().Debug("pause changed", "pool", accts.Pool, "paused", paused)
	return rec, nil
}
