package controller

import (
	"github.com/gagliardetto/solana-go"

	poolerrors "github.com/lugondev/go-swappool/internal/errors"
	"github.com/lugondev/go-swappool/internal/events"
	"github.com/lugondev/go-swappool/internal/pool"
	"github.com/lugondev/go-swappool/internal/runtime"
)

// DepositNativeAccounts are the accounts of deposit_native.
type DepositNativeAccounts struct {
	Pool          pool.PoolID
	Depositor     solana.PublicKey
	NativeCustody solana.PublicKey
	TokenCustody  solana.PublicKey
}

// DepositNative moves amount lamports from the depositor into the native custody.
func (c *Controller) DepositNative(env runtime.Env, accts DepositNativeAccounts, amount uint64) (rec *pool.LiquidityPool, err error) {
	defer func() { c.observe(env, OpDepositNative, accts.Pool, err) }()

	rec, data, err := c.load(env, accts.Pool)
	if err != nil {
		return nil, err
	}
	if err := expectCustodies(rec, accts.NativeCustody, accts.TokenCustody); err != nil {
		return nil, err
	}
	if rec.IsPaused() {
		return nil, poolerrors.ErrPoolPaused
	}
	if err := requireSigner(env, "depositor", accts.Depositor); err != nil {
		return nil, err
	}
	reserve, err := pool.CheckedAdd(rec.NativeReserve, amount)
	if err != nil {
		return nil, err
	}

	if err := env.TransferNative(accts.Depositor, rec.NativeCustody, amount); err != nil {
		return nil, poolerrors.TransferFailed("native deposit", err)
	}

	rec.NativeReserve = reserve
	if err := c.store(env, accts.Pool, rec, data); err != nil {
		return nil, err
	}

	env.Log("Instruction: DepositNative")
	if err := c.emit(env, &events.NativeDeposited{
		Pool:          accts.Pool,
		Depositor:     accts.Depositor,
		Amount:        amount,
		NativeReserve: rec.NativeReserve,
	}); err != nil {
		return nil, err
	}

	c.GetLogger().Debug("native deposited", "pool", accts.Pool, "amount", amount, "native_reserve", rec.NativeReserve)
	return rec, nil
}

// DepositTokenAccounts are the accounts of deposit_token.
type DepositTokenAccounts struct {
	Pool          pool.PoolID
	Depositor     solana.PublicKey
	Source        solana.PublicKey
	NativeCustody solana.PublicKey
	TokenCustody  solana.PublicKey
}

// DepositToken moves amount tokens from the depositor's token account into the token custody.
func (c *Controller) DepositToken(env runtime.Env, accts DepositTokenAccounts, amount uint64) (rec *pool.LiquidityPool, err error) {
	defer func() { c.observe(env, OpDepositToken, accts.Pool, err) }()

	rec, data, err := c.load(env, accts.Pool)
	if err != nil {
		return nil, err
	}
	if err := expectCustodies(rec, accts.NativeCustody, accts.TokenCustody); err != nil {
		return nil, err
	}
	if err := checkTokenSource(env, rec, accts.Source, accts.Depositor); err != nil {
		return nil, err
	}
	if rec.IsPaused() {
		return nil, poolerrors.ErrPoolPaused
	}
	if err := requireSigner(env, "depositor", accts.Depositor); err != nil {
		return nil, err
	}
	reserve, err := pool.CheckedAdd(rec.TokenReserve, amount)
	if err != nil {
		return nil, err
	}

	if err := env.TransferToken(accts.Source, rec.TokenCustody, runtime.SignerAuthority(accts.Depositor), amount); err != nil {
		return nil, poolerrors.TransferFailed("token deposit", err)
	}

	rec.TokenReserve = reserve
	if err := c.store(env, accts.Pool, rec, data); err != nil {
		return nil, err
	}

	env.Log("Instruction: DepositToken")
	if err := c.emit(env, &events.TokenDeposited{
		Pool:         accts.Pool,
		Depositor:    accts.Depositor,
		Source:       accts.Source,
		Amount:       amount,
		TokenReserve: rec.TokenReserve,
	}); err != nil {
		return nil, err
	}

	c.GetLogger().Debug("token deposited", "pool", accts.Pool, "amount", amount, "token_reserve", rec.TokenReserve)
	return rec, nil
}

// checkTokenSource verifies that source holds the pool's mint, is owned by
// owner and is not the pool's own custody.
func checkTokenSource(env runtime.Env, rec *pool.LiquidityPool, source, owner solana.PublicKey) error {
	if source.Equals(rec.TokenCustody) {
		return poolerrors.ErrAccountMismatch.Wrapf("source is the token custody")
	}
	ta, err := env.TokenAccount(source)
	if err != nil {
		return poolerrors.ErrAccountMismatch.Wrapf("source token account").WithCause(err)
	}
	if err := expect("source mint", rec.TokenMint, ta.Mint); err != nil {
		return err
	}
	return expect("source owner", owner, ta.Owner)
}
