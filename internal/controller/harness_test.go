package controller_test

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/stretchr/testify/require"

	"github.com/lugondev/go-swappool/internal/controller"
	"github.com/lugondev/go-swappool/internal/instruction"
	"github.com/lugondev/go-swappool/internal/ledger"
	"github.com/lugondev/go-swappool/internal/metrics"
	"github.com/lugondev/go-swappool/internal/pool"
)

const (
	testPoolSignerBump    uint8 = 1
	testNativeCustodyBump uint8 = 2
)

// harness is a ledger with the pool program registered and one pool's
// accounts prepared.
type harness struct {
	t   testingT
	ctx context.Context

	ledger    *ledger.Ledger
	ctrl      *controller.Controller
	metrics   *metrics.LogMetrics
	programID solana.PublicKey

	authority     solana.PrivateKey
	mintAuthority solana.PrivateKey
	mint          solana.PublicKey

	poolKey       solana.PrivateKey
	poolSigner    solana.PublicKey
	nativeCustody solana.PublicKey
	tokenCustody  solana.PublicKey
}

// testingT is satisfied by *testing.T and *rapid.T.
type testingT interface {
	require.TestingT
	Helper()
}

func newHarness(t testingT, opts ...ledger.Option) *harness {
	t.Helper()

	h := &harness{
		t:             t,
		ctx:           context.Background(),
		programID:     solana.NewWallet().PublicKey(),
		authority:     solana.NewWallet().PrivateKey,
		mintAuthority: solana.NewWallet().PrivateKey,
		metrics:       metrics.NewLogMetrics(nil),
	}
	h.ledger = ledger.New(opts...)
	h.ctrl = controller.New(h.programID, controller.WithMetrics(h.metrics))
	h.ledger.RegisterProgram(instruction.NewProcessor(h.ctrl))

	require.NoError(t, h.ledger.Airdrop(h.authority.PublicKey(), 10*solanaLamports))
	h.mint = h.ledger.CreateMint(h.mintAuthority.PublicKey(), 6)

	// Not every pool address yields valid derivations for fixed bumps.
	for {
		key := solana.NewWallet().PrivateKey
		signer, err := pool.PoolSignerAddress(h.programID, key.PublicKey(), testPoolSignerBump)
		if err != nil {
			continue
		}
		native, err := pool.NativeCustodyAddress(h.programID, key.PublicKey(), testNativeCustodyBump)
		if err != nil {
			continue
		}
		h.poolKey, h.poolSigner, h.nativeCustody = key, signer, native
		break
	}

	custody, err := h.ledger.CreateTokenAccount(h.poolSigner, h.mint)
	require.NoError(t, err)
	h.tokenCustody = custody
	return h
}

const solanaLamports = 1_000_000_000

func (h *harness) poolID() pool.PoolID {
	return h.poolKey.PublicKey()
}

// exec submits ixs paid for by the first signer.
func (h *harness) exec(signers []solana.PrivateKey, ixs ...solana.Instruction) (*ledger.Receipt, error) {
	h.t.Helper()
	return h.ledger.Execute(h.ctx, signers[0].PublicKey(), signers, ixs...)
}

func (h *harness) allocatePoolIx() solana.Instruction {
	return system.NewCreateAccountInstruction(0, pool.DefaultAllocation, h.programID,
		h.authority.PublicKey(), h.poolID()).Build()
}

func (h *harness) createPoolIx() solana.Instruction {
	return instruction.NewCreatePool(h.programID, instruction.CreatePoolAccounts{
		Pool:          h.poolID(),
		Authority:     h.authority.PublicKey(),
		NativeCustody: h.nativeCustody,
		TokenMint:     h.mint,
		TokenCustody:  h.tokenCustody,
	}, instruction.CreatePoolArgs{
		PoolSignerBump:    testPoolSignerBump,
		NativeCustodyBump: testNativeCustodyBump,
	})
}

// create allocates the pool account and initializes it in one transaction.
func (h *harness) create() *ledger.Receipt {
	h.t.Helper()
	receipt, err := h.exec([]solana.PrivateKey{h.authority, h.poolKey}, h.allocatePoolIx(), h.createPoolIx())
	require.NoError(h.t, err)
	return receipt
}

// user is a funded wallet with a token account of the pool's mint.
type user struct {
	key    solana.PrivateKey
	tokens solana.PublicKey
}

func (u user) pub() solana.PublicKey { return u.key.PublicKey() }

func (h *harness) newUser(lamports, tokens uint64) user {
	h.t.Helper()
	u := user{key: solana.NewWallet().PrivateKey}
	require.NoError(h.t, h.ledger.Airdrop(u.pub(), lamports))
	ata, err := h.ledger.CreateTokenAccount(u.pub(), h.mint)
	require.NoError(h.t, err)
	if tokens > 0 {
		require.NoError(h.t, h.ledger.MintTo(h.mint, ata, h.mintAuthority.PublicKey(), tokens))
	}
	u.tokens = ata
	return u
}

func (h *harness) depositNativeIx(depositor solana.PublicKey, amount uint64) solana.Instruction {
	return instruction.NewDepositNative(h.programID, instruction.DepositNativeAccounts{
		Pool:          h.poolID(),
		Depositor:     depositor,
		NativeCustody: h.nativeCustody,
		TokenCustody:  h.tokenCustody,
	}, amount)
}

func (h *harness) depositTokenIx(u user, amount uint64) solana.Instruction {
	return instruction.NewDepositToken(h.programID, instruction.DepositTokenAccounts{
		Pool:          h.poolID(),
		Depositor:     u.pub(),
		Source:        u.tokens,
		NativeCustody: h.nativeCustody,
		TokenCustody:  h.tokenCustody,
	}, amount)
}

func (h *harness) swapTokenForNativeIx(u user, destination solana.PublicKey, amount uint64) solana.Instruction {
	return instruction.NewSwapTokenForNative(h.programID, instruction.SwapTokenForNativeAccounts{
		Pool:          h.poolID(),
		Trader:        u.pub(),
		Source:        u.tokens,
		Destination:   destination,
		NativeCustody: h.nativeCustody,
		TokenCustody:  h.tokenCustody,
	}, amount)
}

func (h *harness) swapNativeForTokenIx(u user, destination solana.PublicKey, amount uint64) solana.Instruction {
	return instruction.NewSwapNativeForToken(h.programID, instruction.SwapNativeForTokenAccounts{
		Pool:          h.poolID(),
		Trader:        u.pub(),
		Destination:   destination,
		NativeCustody: h.nativeCustody,
		TokenCustody:  h.tokenCustody,
	}, amount)
}

// fund creates the pool and deposits the given reserves from a fresh user.
func (h *harness) fund(native, tokens uint64) user {
	h.t.Helper()
	h.create()
	lp := h.newUser(native+solanaLamports, tokens)
	var ixs []solana.Instruction
	if native > 0 {
		ixs = append(ixs, h.depositNativeIx(lp.pub(), native))
	}
	if tokens > 0 {
		ixs = append(ixs, h.depositTokenIx(lp, tokens))
	}
	if len(ixs) > 0 {
		_, err := h.exec([]solana.PrivateKey{lp.key}, ixs...)
		require.NoError(h.t, err)
	}
	return lp
}

func (h *harness) record() *pool.LiquidityPool {
	h.t.Helper()
	rec, err := h.ctrl.Pool(h.ledger, h.poolID())
	require.NoError(h.t, err)
	return rec
}

func (h *harness) poolData() []byte {
	h.t.Helper()
	acct, err := h.ledger.GetAccount(h.poolID())
	require.NoError(h.t, err)
	return acct.Data
}

func (h *harness) tokenBalance(account solana.PublicKey) uint64 {
	h.t.Helper()
	ta, err := h.ledger.GetTokenAccount(account)
	require.NoError(h.t, err)
	return ta.Amount
}
