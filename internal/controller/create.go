package controller

import (
	"github.com/gagliardetto/solana-go"

	poolerrors "github.com/lugondev/go-swappool/internal/errors"
	"github.com/lugondev/go-swappool/internal/events"
	"github.com/lugondev/go-swappool/internal/pool"
	"github.com/lugondev/go-swappool/internal/runtime"
)

// CreatePoolAccounts are the accounts of create_pool.
type CreatePoolAccounts struct {
	// Pool is the zero-filled, program-owned account that will hold the record.
	Pool solana.PublicKey

	// Authority pays for and controls the pool.
	Authority solana.PublicKey

	// NativeCustody is derived from ["sol-account", pool] and NativeCustodyBump.
	NativeCustody solana.PublicKey

	// TokenMint is the token the pool trades.
	TokenMint solana.PublicKey

	// TokenCustody is an empty token account of TokenMint owned by the pool signer.
	TokenCustody solana.PublicKey
}

// CreatePool initializes a pool record with empty reserves.
func (c *Controller) CreatePool(env runtime.Env, accts CreatePoolAccounts, poolSignerBump, nativeCustodyBump uint8) (rec *pool.LiquidityPool, err error) {
	defer func() { c.observe(env, OpCreatePool, accts.Pool, err) }()

	acct, err := env.Account(accts.Pool)
	if err != nil {
		return nil, poolerrors.ErrAccountMismatch.Wrapf("pool account").WithCause(err)
	}
	if err := expect("pool owner", env.ProgramID(), acct.Owner); err != nil {
		return nil, err
	}
	if len(acct.Data) < pool.AccountSize {
		return nil, poolerrors.ErrAccountMismatch.Wrapf("pool account holds %d bytes, need %d", len(acct.Data), pool.AccountSize)
	}
	if !pool.IsZeroed(acct.Data) {
		return nil, poolerrors.ErrAlreadyInitialized.Wrapf("%s", accts.Pool)
	}

	nativeSigner := runtime.NewProgramSigner(pool.NativeCustodySeeds(accts.Pool), nativeCustodyBump)
	nativeCustody, err := env.DeriveAddress(pool.NativeCustodySeeds(accts.Pool), nativeCustodyBump)
	if err != nil {
		return nil, poolerrors.ErrAccountMismatch.Wrapf("native custody bump %d", nativeCustodyBump).WithCause(err)
	}
	if err := expect("native custody", nativeCustody, accts.NativeCustody); err != nil {
		return nil, err
	}
	poolSigner, err := env.DeriveAddress(pool.PoolSignerSeeds(accts.Pool), poolSignerBump)
	if err != nil {
		return nil, poolerrors.ErrAccountMismatch.Wrapf("pool signer bump %d", poolSignerBump).WithCause(err)
	}

	mint, err := env.Account(accts.TokenMint)
	if err != nil {
		return nil, poolerrors.ErrAccountMismatch.Wrapf("token mint").WithCause(err)
	}
	if err := expect("token mint owner", solana.TokenProgramID, mint.Owner); err != nil {
		return nil, err
	}
	custody, err := env.TokenAccount(accts.TokenCustody)
	if err != nil {
		return nil, poolerrors.ErrAccountMismatch.Wrapf("token custody").WithCause(err)
	}
	if err := expect("token custody mint", accts.TokenMint, custody.Mint); err != nil {
		return nil, err
	}
	if err := expect("token custody owner", poolSigner, custody.Owner); err != nil {
		return nil, err
	}
	if custody.Amount != 0 {
		return nil, poolerrors.ErrAccountMismatch.Wrapf("token custody holds %d tokens", custody.Amount)
	}
	native, err := env.Account(accts.NativeCustody)
	if err != nil {
		return nil, poolerrors.ErrAccountMismatch.Wrapf("native custody").WithCause(err)
	}
	if native.Lamports != 0 || len(native.Data) != 0 || !native.Owner.Equals(solana.SystemProgramID) {
		return nil, poolerrors.ErrAccountMismatch.Wrapf("native custody %s is in use", accts.NativeCustody)
	}

	if err := requireSigner(env, "pool", accts.Pool); err != nil {
		return nil, err
	}
	if err := requireSigner(env, "authority", accts.Authority); err != nil {
		return nil, err
	}

	if _, err := env.AllocateAccount(nativeSigner, 0); err != nil {
		return nil, poolerrors.ErrAccountMismatch.Wrapf("allocate native custody").WithCause(err)
	}

	rec = &pool.LiquidityPool{
		TokenMint:         accts.TokenMint,
		NativeCustody:     accts.NativeCustody,
		TokenCustody:      accts.TokenCustody,
		Authority:         accts.Authority,
		NativeCustodyBump: nativeCustodyBump,
		PoolSignerBump:    poolSignerBump,
	}
	if err := c.store(env, accts.Pool, rec, acct.Data); err != nil {
		return nil, err
	}

	env.Log("Instruction: CreatePool")
	if err := c.emit(env, &events.PoolCreated{
		Pool:              accts.Pool,
		Authority:         accts.Authority,
		TokenMint:         accts.TokenMint,
		NativeCustody:     accts.NativeCustody,
		TokenCustody:      accts.TokenCustody,
		NativeCustodyBump: nativeCustodyBump,
		PoolSignerBump:    poolSignerBump,
	}); err != nil {
		return nil, err
	}

	c.GetLogger().Debug("pool created", "pool", accts.Pool, "authority", accts.Authority, "mint", accts.TokenMint)
	return rec, nil
}
