package ledger

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lugondev/go-swappool/internal/metrics"
	"github.com/lugondev/go-swappool/internal/runtime"
)

type funcProgram struct {
	id solana.PublicKey
	fn func(env runtime.Env, accounts []*solana.AccountMeta, data []byte) error
}

func (p funcProgram) ID() solana.PublicKey { return p.id }

func (p funcProgram) Process(env runtime.Env, accounts []*solana.AccountMeta, data []byte) error {
	return p.fn(env, accounts, data)
}

type customErr struct{}

func (customErr) Error() string      { return "custom failure" }
func (customErr) CustomCode() uint32 { return 6001 }

func funded(t *testing.T, l *Ledger, lamports uint64) solana.PrivateKey {
	t.Helper()
	w := solana.NewWallet()
	require.NoError(t, l.Airdrop(w.PublicKey(), lamports))
	return w.PrivateKey
}

func TestSystemTransfer(t *testing.T) {
	ctx := context.Background()
	l := New()
	payer := funded(t, l, 1_000)
	to := solana.NewWallet().PublicKey()

	receipt, err := l.Execute(ctx, payer.PublicKey(), []solana.PrivateKey{payer},
		system.NewTransferInstruction(400, payer.PublicKey(), to).Build())
	require.NoError(t, err)
	assert.True(t, receipt.Succeeded())
	assert.Equal(t, uint64(1), receipt.Slot)
	assert.Equal(t, payer.PublicKey(), receipt.FeePayer)
	assert.Contains(t, receipt.LogMessages, "Program 11111111111111111111111111111111 success")

	assert.Equal(t, uint64(600), l.GetBalance(payer.PublicKey()))
	assert.Equal(t, uint64(400), l.GetBalance(to))

	_, err = l.Execute(ctx, payer.PublicKey(), []solana.PrivateKey{payer},
		system.NewTransferInstruction(601, payer.PublicKey(), to).Build())
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Equal(t, uint64(600), l.GetBalance(payer.PublicKey()))
}

func TestFailedInstructionRollsBackTransaction(t *testing.T) {
	ctx := context.Background()
	l := New()
	programID := solana.NewWallet().PublicKey()
	l.RegisterProgram(funcProgram{id: programID, fn: func(env runtime.Env, _ []*solana.AccountMeta, _ []byte) error {
		env.Log("about to fail")
		return customErr{}
	}})

	payer := funded(t, l, 1_000)
	fresh := solana.NewWallet()

	_, err := l.Execute(ctx, payer.PublicKey(), []solana.PrivateKey{payer, fresh.PrivateKey},
		system.NewCreateAccountInstruction(100, 64, programID, payer.PublicKey(), fresh.PublicKey()).Build(),
		solana.NewInstruction(programID, solana.AccountMetaSlice{solana.Meta(payer.PublicKey()).WRITE()}, nil),
	)

	var ie *InstructionError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, 1, ie.Index)
	assert.Equal(t, programID, ie.ProgramID)

	assert.Equal(t, uint64(1_000), l.GetBalance(payer.PublicKey()))
	_, err = l.GetAccount(fresh.PublicKey())
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestFailureLogCarriesCustomCode(t *testing.T) {
	ctx := context.Background()
	l := New()
	programID := solana.NewWallet().PublicKey()
	l.RegisterProgram(funcProgram{id: programID, fn: func(env runtime.Env, _ []*solana.AccountMeta, _ []byte) error {
		return customErr{}
	}})
	payer := funded(t, l, 10)

	receipt, err := l.Execute(ctx, payer.PublicKey(), []solana.PrivateKey{payer},
		solana.NewInstruction(programID, solana.AccountMetaSlice{solana.Meta(payer.PublicKey()).WRITE().SIGNER()}, nil))
	require.Error(t, err)
	require.NotNil(t, receipt)
	assert.False(t, receipt.Succeeded())
	assert.Equal(t, "Program "+programID.String()+" failed: custom program error: 0x1771", receipt.LogMessages[len(receipt.LogMessages)-1])
}

func TestSubmitRejectsBadTransactions(t *testing.T) {
	ctx := context.Background()
	l := New()
	payer := funded(t, l, 1_000)
	to := solana.NewWallet().PublicKey()

	build := func(hash solana.Hash) *solana.Transaction {
		tx, err := solana.NewTransaction([]solana.Instruction{
			system.NewTransferInstruction(1, payer.PublicKey(), to).Build(),
		}, hash, solana.TransactionPayer(payer.PublicKey()))
		require.NoError(t, err)
		_, err = tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
			if key.Equals(payer.PublicKey()) {
				return &payer
			}
			return nil
		})
		require.NoError(t, err)
		return tx
	}

	t.Run("unknown blockhash", func(t *testing.T) {
		_, err := l.Submit(ctx, build(solana.Hash{1}))
		assert.ErrorIs(t, err, ErrBlockhashNotFound)
	})

	t.Run("replay", func(t *testing.T) {
		tx := build(l.LatestBlockhash())
		_, err := l.Submit(ctx, tx)
		require.NoError(t, err)
		_, err = l.Submit(ctx, tx)
		assert.ErrorIs(t, err, ErrAlreadyProcessed)
	})

	t.Run("forged signature", func(t *testing.T) {
		tx := build(l.LatestBlockhash())
		tx.Signatures[0][0] ^= 0xff
		_, err := l.Submit(ctx, tx)
		assert.ErrorIs(t, err, ErrMissingSignature)
	})

	t.Run("canceled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := l.Submit(cctx, build(l.LatestBlockhash()))
		assert.ErrorIs(t, err, context.Canceled)
	})

	assert.Equal(t, uint64(999), l.GetBalance(payer.PublicKey()))
}

func TestTokenTransferAuthorities(t *testing.T) {
	ctx := context.Background()
	l := New()
	programID := solana.NewWallet().PublicKey()

	holder := funded(t, l, 10)
	mintAuthority := solana.NewWallet().PublicKey()
	mint := l.CreateMint(mintAuthority, 6)

	seed := []byte("vault")
	vaultOwner, bump, err := solana.FindProgramAddress([][]byte{seed}, programID)
	require.NoError(t, err)

	userTokens, err := l.CreateTokenAccount(holder.PublicKey(), mint)
	require.NoError(t, err)
	vault, err := l.CreateTokenAccount(vaultOwner, mint)
	require.NoError(t, err)
	require.NoError(t, l.MintTo(mint, userTokens, mintAuthority, 500))
	assert.ErrorIs(t, l.MintTo(mint, userTokens, holder.PublicKey(), 1), ErrOwnerMismatch)

	var authority runtime.Authority
	l.RegisterProgram(funcProgram{id: programID, fn: func(env runtime.Env, accounts []*solana.AccountMeta, data []byte) error {
		return env.TransferToken(accounts[0].PublicKey, accounts[1].PublicKey, authority, uint64(data[0]))
	}})

	move := func(from, to solana.PublicKey, amount byte) error {
		_, err := l.Execute(ctx, holder.PublicKey(), []solana.PrivateKey{holder},
			solana.NewInstruction(programID, solana.AccountMetaSlice{
				solana.Meta(from).WRITE(),
				solana.Meta(to).WRITE(),
				solana.Meta(holder.PublicKey()).SIGNER(),
			}, []byte{amount}))
		return err
	}

	authority = runtime.SignerAuthority(holder.PublicKey())
	require.NoError(t, move(userTokens, vault, 200))

	authority = runtime.NewProgramSigner([][]byte{seed}, bump)
	require.NoError(t, move(vault, userTokens, 50))

	_, otherBump, err := solana.FindProgramAddress([][]byte{[]byte("other")}, programID)
	require.NoError(t, err)
	authority = runtime.NewProgramSigner([][]byte{[]byte("other")}, otherBump)
	assert.ErrorIs(t, move(vault, userTokens, 1), ErrOwnerMismatch)

	authority = runtime.NewProgramSigner([][]byte{seed}, bump)
	assert.ErrorIs(t, move(vault, userTokens, 151), ErrInsufficientFunds)

	authority = runtime.SignerAuthority(holder.PublicKey())
	assert.ErrorIs(t, move(vault, userTokens, 1), ErrOwnerMismatch)

	user, err := l.GetTokenAccount(userTokens)
	require.NoError(t, err)
	held, err := l.GetTokenAccount(vault)
	require.NoError(t, err)
	assert.Equal(t, uint64(350), user.Amount)
	assert.Equal(t, uint64(150), held.Amount)

	m, err := l.GetMint(mint)
	require.NoError(t, err)
	assert.Equal(t, uint64(500), m.Supply)
}

func TestInvocationEnforcesDeclarations(t *testing.T) {
	ctx := context.Background()
	l := New()
	programID := solana.NewWallet().PublicKey()
	payer := funded(t, l, 100)
	stranger := solana.NewWallet().PublicKey()
	undeclared := solana.NewWallet().PublicKey()

	var check func(env runtime.Env) error
	l.RegisterProgram(funcProgram{id: programID, fn: func(env runtime.Env, _ []*solana.AccountMeta, _ []byte) error {
		return check(env)
	}})
	call := func() error {
		_, err := l.Execute(ctx, payer.PublicKey(), []solana.PrivateKey{payer},
			solana.NewInstruction(programID, solana.AccountMetaSlice{
				solana.Meta(payer.PublicKey()).SIGNER(),
				solana.Meta(stranger),
			}, nil))
		return err
	}

	check = func(env runtime.Env) error {
		_, err := env.Account(undeclared)
		return err
	}
	assert.ErrorIs(t, call(), ErrAccountNotDeclared)

	check = func(env runtime.Env) error {
		return env.TransferNative(payer.PublicKey(), stranger, 1)
	}
	assert.ErrorIs(t, call(), ErrReadonlyAccount)

	check = func(env runtime.Env) error {
		if !env.IsSigner(payer.PublicKey()) || env.IsSigner(stranger) {
			return errors.New("unexpected signer set")
		}
		return nil
	}
	assert.NoError(t, call())
}

func TestAllocateAndMoveLamports(t *testing.T) {
	ctx := context.Background()
	l := New()
	programID := solana.NewWallet().PublicKey()
	payer := funded(t, l, 1_000)

	seeds := [][]byte{[]byte("custody")}
	custody, bump, err := solana.FindProgramAddress(seeds, programID)
	require.NoError(t, err)

	l.RegisterProgram(funcProgram{id: programID, fn: func(env runtime.Env, _ []*solana.AccountMeta, data []byte) error {
		switch data[0] {
		case 0:
			_, err := env.AllocateAccount(runtime.NewProgramSigner(seeds, bump), 0)
			return err
		case 1:
			return env.TransferNative(payer.PublicKey(), custody, 300)
		default:
			return env.MoveLamports(custody, payer.PublicKey(), 120)
		}
	}})
	call := func(op byte) error {
		_, err := l.Execute(ctx, payer.PublicKey(), []solana.PrivateKey{payer},
			solana.NewInstruction(programID, solana.AccountMetaSlice{
				solana.Meta(payer.PublicKey()).WRITE().SIGNER(),
				solana.Meta(custody).WRITE(),
			}, []byte{op}))
		return err
	}

	require.NoError(t, call(0))
	acct, err := l.GetAccount(custody)
	require.NoError(t, err)
	assert.Equal(t, programID, acct.Owner)

	assert.ErrorIs(t, call(0), ErrAccountInUse)

	require.NoError(t, call(1))
	require.NoError(t, call(2))
	assert.Equal(t, uint64(180), l.GetBalance(custody))
	assert.Equal(t, uint64(820), l.GetBalance(payer.PublicKey()))
}

func TestAccountSpaceIsBounded(t *testing.T) {
	ctx := context.Background()
	l := New()
	programID := solana.NewWallet().PublicKey()
	payer := funded(t, l, 1_000)
	fresh := solana.NewWallet()

	_, err := l.Execute(ctx, payer.PublicKey(), []solana.PrivateKey{payer, fresh.PrivateKey},
		system.NewCreateAccountInstruction(100, 1<<62, programID, payer.PublicKey(), fresh.PublicKey()).Build())
	assert.ErrorIs(t, err, ErrInvalidTransaction)
	assert.Equal(t, uint64(1_000), l.GetBalance(payer.PublicKey()))
	_, err = l.GetAccount(fresh.PublicKey())
	assert.ErrorIs(t, err, ErrAccountNotFound)

	seeds := [][]byte{[]byte("big")}
	big, bump, err := solana.FindProgramAddress(seeds, programID)
	require.NoError(t, err)
	l.RegisterProgram(funcProgram{id: programID, fn: func(env runtime.Env, _ []*solana.AccountMeta, _ []byte) error {
		_, err := env.AllocateAccount(runtime.NewProgramSigner(seeds, bump), MaxPermittedDataLength+1)
		return err
	}})
	_, err = l.Execute(ctx, payer.PublicKey(), []solana.PrivateKey{payer},
		solana.NewInstruction(programID, solana.AccountMetaSlice{
			solana.Meta(payer.PublicKey()).WRITE().SIGNER(),
			solana.Meta(big).WRITE(),
		}, nil))
	assert.ErrorIs(t, err, ErrInvalidTransaction)
	_, err = l.GetAccount(big)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestProgramPanicRollsBackTransaction(t *testing.T) {
	ctx := context.Background()
	l := New()
	programID := solana.NewWallet().PublicKey()
	l.RegisterProgram(funcProgram{id: programID, fn: func(runtime.Env, []*solana.AccountMeta, []byte) error {
		panic("corrupt state")
	}})
	payer := funded(t, l, 1_000)
	to := solana.NewWallet().PublicKey()

	receipt, err := l.Execute(ctx, payer.PublicKey(), []solana.PrivateKey{payer},
		system.NewTransferInstruction(400, payer.PublicKey(), to).Build(),
		solana.NewInstruction(programID, solana.AccountMetaSlice{solana.Meta(payer.PublicKey()).WRITE().SIGNER()}, nil),
	)
	assert.ErrorIs(t, err, ErrProgramPanicked)
	require.NotNil(t, receipt)
	assert.False(t, receipt.Succeeded())
	assert.Equal(t, uint64(1_000), l.GetBalance(payer.PublicKey()))
	assert.Equal(t, uint64(0), l.GetBalance(to))
}

func TestFaultHookAbortsTransfer(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("injected")
	l := New(WithFault(func(kind TransferKind, from, to solana.PublicKey, amount uint64) error {
		if kind == TransferKindNative && amount == 13 {
			return boom
		}
		return nil
	}))
	payer := funded(t, l, 100)
	to := solana.NewWallet().PublicKey()

	_, err := l.Execute(ctx, payer.PublicKey(), []solana.PrivateKey{payer},
		system.NewTransferInstruction(13, payer.PublicKey(), to).Build())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, uint64(100), l.GetBalance(payer.PublicKey()))

	l.SetFault(nil)
	_, err = l.Execute(ctx, payer.PublicKey(), []solana.PrivateKey{payer},
		system.NewTransferInstruction(13, payer.PublicKey(), to).Build())
	assert.NoError(t, err)
}

func TestConcurrentTransfersConserveLamports(t *testing.T) {
	ctx := context.Background()
	lm := metrics.NewLogMetrics(nil)
	l := New(WithMetrics(lm))

	const workers, rounds = 8, 20
	sinks := []solana.PublicKey{solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey()}
	payers := make([]solana.PrivateKey, workers)
	for i := range payers {
		payers[i] = funded(t, l, 10_000)
	}

	var wg sync.WaitGroup
	errs := make(chan error, workers*rounds)
	for i, p := range payers {
		wg.Add(1)
		go func(i int, p solana.PrivateKey) {
			defer wg.Done()
			for r := 0; r < rounds; r++ {
				_, err := l.Execute(ctx, p.PublicKey(), []solana.PrivateKey{p},
					system.NewTransferInstruction(uint64(r+1), p.PublicKey(), sinks[(i+r)%2]).Build())
				if err != nil {
					errs <- err
				}
			}
		}(i, p)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("transfer failed: %v", err)
	}

	perPayer := uint64(rounds * (rounds + 1) / 2)
	var total uint64
	for _, p := range payers {
		assert.Equal(t, 10_000-perPayer, l.GetBalance(p.PublicKey()))
		total += l.GetBalance(p.PublicKey())
	}
	total += l.GetBalance(sinks[0]) + l.GetBalance(sinks[1])
	assert.Equal(t, uint64(workers*10_000), total)
	assert.Equal(t, uint64(workers*rounds), l.Slot())
	assert.Equal(t, uint64(workers*rounds), lm.Counter(metrics.MetricLedgerTransactions, metrics.L(metrics.LabelStatus, metrics.StatusSuccess)))
}

func TestStateFileRoundTrip(t *testing.T) {
	ctx := context.Background()
	l := New()
	payer := funded(t, l, 5_000)
	programID := solana.NewWallet().PublicKey()
	l.RegisterProgram(funcProgram{id: programID, fn: func(runtime.Env, []*solana.AccountMeta, []byte) error { return nil }})

	mint := l.CreateMint(payer.PublicKey(), 9)
	tokens, err := l.CreateTokenAccount(payer.PublicKey(), mint)
	require.NoError(t, err)
	require.NoError(t, l.MintTo(mint, tokens, payer.PublicKey(), 77))

	data := solana.NewWallet()
	_, err = l.Execute(ctx, payer.PublicKey(), []solana.PrivateKey{payer, data.PrivateKey},
		system.NewCreateAccountInstruction(10, 16, programID, payer.PublicKey(), data.PublicKey()).Build())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "state.yaml")
	require.NoError(t, l.SaveFile(path))

	restored := New()
	require.NoError(t, restored.LoadFile(path))
	assert.Equal(t, l.Export(), restored.Export())
	assert.Equal(t, l.LatestBlockhash(), restored.LatestBlockhash())
	assert.Equal(t, l.Slot(), restored.Slot())

	acct, err := restored.GetAccount(data.PublicKey())
	require.NoError(t, err)
	assert.Equal(t, programID, acct.Owner)
	assert.Len(t, acct.Data, 16)

	ta, err := restored.GetTokenAccount(tokens)
	require.NoError(t, err)
	assert.Equal(t, uint64(77), ta.Amount)
}
