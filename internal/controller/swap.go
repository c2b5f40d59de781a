package controller

import (
	"github.com/gagliardetto/solana-go"

	poolerrors "github.com/lugondev/go-swappool/internal/errors"
	"github.com/lugondev/go-swappool/internal/events"
	"github.com/lugondev/go-swappool/internal/metrics"
	"github.com/lugondev/go-swappool/internal/pool"
	"github.com/lugondev/go-swappool/internal/runtime"
)

// SwapTokenForNativeAccounts are the accounts of swap_token_for_native. Trader
// signs and owns the Source token account; Destination receives the lamports.
type SwapTokenForNativeAccounts struct {
	Pool          pool.PoolID
	Trader        solana.PublicKey
	Source        solana.PublicKey
	Destination   solana.PublicKey
	NativeCustody solana.PublicKey
	TokenCustody  solana.PublicKey
}

// SwapTokenForNative takes amount tokens and pays amount/10 lamports.
func (c *Controller) SwapTokenForNative(env runtime.Env, accts SwapTokenForNativeAccounts, amount uint64) (rec *pool.LiquidityPool, err error) {
	defer func() { c.observe(env, OpSwapTokenForNative, accts.Pool, err) }()

	rec, data, err := c.load(env, accts.Pool)
	if err != nil {
		return nil, err
	}
	if err := expectCustodies(rec, accts.NativeCustody, accts.TokenCustody); err != nil {
		return nil, err
	}
	if err := checkTokenSource(env, rec, accts.Source, accts.Trader); err != nil {
		return nil, err
	}
	if err := checkDestination(rec, accts.Pool, accts.Destination); err != nil {
		return nil, err
	}
	if rec.IsPaused() {
		return nil, poolerrors.ErrPoolPaused
	}
	if err := requireSigner(env, "trader", accts.Trader); err != nil {
		return nil, err
	}

	nativeOut := pool.NativeOut(amount)
	if !rec.HasSufficientNative(nativeOut) {
		return nil, poolerrors.ErrInsufficientReserve.Wrapf("need %d lamports, reserve %d", nativeOut, rec.NativeReserve)
	}
	tokenReserve, err := pool.CheckedAdd(rec.TokenReserve, amount)
	if err != nil {
		return nil, err
	}
	nativeReserve, err := pool.CheckedSub(rec.NativeReserve, nativeOut)
	if err != nil {
		return nil, err
	}

	if err := env.TransferToken(accts.Source, rec.TokenCustody, runtime.SignerAuthority(accts.Trader), amount); err != nil {
		return nil, poolerrors.TransferFailed("inbound token", err)
	}
	if err := env.MoveLamports(rec.NativeCustody, accts.Destination, nativeOut); err != nil {
		return nil, poolerrors.TransferFailed("outbound native", err)
	}

	rec.NativeReserve = nativeReserve
	rec.TokenReserve = tokenReserve
	if err := c.store(env, accts.Pool, rec, data); err != nil {
		return nil, err
	}

	env.Log("Instruction: SwapTokenForNative")
	if err := c.emitSwap(env, rec, accts.Pool, accts.Trader, events.TokenToNative, amount, nativeOut); err != nil {
		return nil, err
	}
	return rec, nil
}

// SwapNativeForTokenAccounts are the accounts of swap_native_for_token. Trader
// signs and pays the lamports; Destination is a token account of the pool's mint.
type SwapNativeForTokenAccounts struct {
	Pool          pool.PoolID
	Trader        solana.PublicKey
	Destination   solana.PublicKey
	NativeCustody solana.PublicKey
	TokenCustody  solana.PublicKey
}

// SwapNativeForToken takes amount lamports and pays amount*10 tokens, signed
// for by the pool signer.
func (c *Controller) SwapNativeForToken(env runtime.Env, accts SwapNativeForTokenAccounts, amount uint64) (rec *pool.LiquidityPool, err error) {
	defer func() { c.observe(env, OpSwapNativeForToken, accts.Pool, err) }()

	rec, data, err := c.load(env, accts.Pool)
	if err != nil {
		return nil, err
	}
	if err := expectCustodies(rec, accts.NativeCustody, accts.TokenCustody); err != nil {
		return nil, err
	}
	if err := checkDestination(rec, accts.Pool, accts.Destination); err != nil {
		return nil, err
	}
	dest, err := env.TokenAccount(accts.Destination)
	if err != nil {
		return nil, poolerrors.ErrAccountMismatch.Wrapf("destination token account").WithCause(err)
	}
	if err := expect("destination mint", rec.TokenMint, dest.Mint); err != nil {
		return nil, err
	}
	if rec.IsPaused() {
		return nil, poolerrors.ErrPoolPaused
	}
	if err := requireSigner(env, "trader", accts.Trader); err != nil {
		return nil, err
	}

	tokenOut, err := pool.TokenOut(amount)
	if err != nil {
		return nil, err
	}
	if !rec.HasSufficientToken(tokenOut) {
		return nil, poolerrors.ErrInsufficientReserve.Wrapf("need %d tokens, reserve %d", tokenOut, rec.TokenReserve)
	}
	nativeReserve, err := pool.CheckedAdd(rec.NativeReserve, amount)
	if err != nil {
		return nil, err
	}
	tokenReserve, err := pool.CheckedSub(rec.TokenReserve, tokenOut)
	if err != nil {
		return nil, err
	}

	if err := env.TransferNative(accts.Trader, rec.NativeCustody, amount); err != nil {
		return nil, poolerrors.TransferFailed("inbound native", err)
	}
	signer := runtime.NewProgramSigner(pool.PoolSignerSeeds(accts.Pool), rec.PoolSignerBump)
	if err := env.TransferToken(rec.TokenCustody, accts.Destination, signer, tokenOut); err != nil {
		return nil, poolerrors.TransferFailed("outbound token", err)
	}

	rec.NativeReserve = nativeReserve
	rec.TokenReserve = tokenReserve
	if err := c.store(env, accts.Pool, rec, data); err != nil {
		return nil, err
	}

	env.Log("Instruction: SwapNativeForToken")
	if err := c.emitSwap(env, rec, accts.Pool, accts.Trader, events.NativeToToken, amount, tokenOut); err != nil {
		return nil, err
	}
	return rec, nil
}

// checkDestination rejects payouts into the pool's own accounts.
func checkDestination(rec *pool.LiquidityPool, id pool.PoolID, destination solana.PublicKey) error {
	for _, own := range []solana.PublicKey{id, rec.NativeCustody, rec.TokenCustody} {
		if destination.Equals(own) {
			return poolerrors.ErrAccountMismatch.Wrapf("destination %s belongs to the pool", destination)
		}
	}
	return nil
}

func (c *Controller) emitSwap(env runtime.Env, rec *pool.LiquidityPool, id pool.PoolID, trader solana.PublicKey, dir events.Direction, in, out uint64) error {
	if err := c.emit(env, &events.Swapped{
		Pool:          id,
		Trader:        trader,
		Direction:     dir,
		AmountIn:      in,
		AmountOut:     out,
		NativeReserve: rec.NativeReserve,
		TokenReserve:  rec.TokenReserve,
	}); err != nil {
		return err
	}

	_ = c.metrics.IncrementCounter(env.Context(), metrics.MetricSwapVolume, in,
		metrics.L(metrics.LabelPool, id.String()), metrics.L(metrics.LabelAsset, dir.String()))
	c.GetLogger().Debug("swapped", "pool", id, "direction", dir, "in", in, "out", out,
		"native_reserve", rec.NativeReserve, "token_reserve", rec.TokenReserve)
	return nil
}
