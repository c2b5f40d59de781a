package ledger

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/lugondev/go-swappool/internal/runtime"
	"github.com/lugondev/go-swappool/pkg/types"
)

// invocation is the runtime.Env of one instruction. The enclosing transaction
// holds the locks of every declared account.
type invocation struct {
	ctx       context.Context
	ledger    *Ledger
	programID solana.PublicKey
	metas     map[solana.PublicKey]*solana.AccountMeta
	fault     FaultFunc
	logs      []string
}

var _ runtime.Env = (*invocation)(nil)

func newInvocation(ctx context.Context, l *Ledger, programID solana.PublicKey, metas []*solana.AccountMeta) *invocation {
	inv := &invocation{
		ctx:       ctx,
		ledger:    l,
		programID: programID,
		metas:     make(map[solana.PublicKey]*solana.AccountMeta, len(metas)),
		fault:     l.faultHook(),
	}
	for _, m := range metas {
		if prev, ok := inv.metas[m.PublicKey]; ok {
			// The same key may be listed more than once; flags are the union.
			prev.IsSigner = prev.IsSigner || m.IsSigner
			prev.IsWritable = prev.IsWritable || m.IsWritable
			continue
		}
		cp := *m
		inv.metas[m.PublicKey] = &cp
	}
	return inv
}

func (inv *invocation) Context() context.Context {
	return inv.ctx
}

func (inv *invocation) ProgramID() solana.PublicKey {
	return inv.programID
}

func (inv *invocation) IsSigner(key solana.PublicKey) bool {
	m, ok := inv.metas[key]
	return ok && m.IsSigner
}

func (inv *invocation) declared(key solana.PublicKey) error {
	if _, ok := inv.metas[key]; !ok {
		return fmt.Errorf("%w: %s", ErrAccountNotDeclared, key)
	}
	return nil
}

func (inv *invocation) writable(keys ...solana.PublicKey) error {
	for _, key := range keys {
		m, ok := inv.metas[key]
		if !ok {
			return fmt.Errorf("%w: %s", ErrAccountNotDeclared, key)
		}
		if !m.IsWritable {
			return fmt.Errorf("%w: %s", ErrReadonlyAccount, key)
		}
	}
	return nil
}

func (inv *invocation) Account(key solana.PublicKey) (*types.Account, error) {
	if err := inv.declared(key); err != nil {
		return nil, err
	}
	if e := inv.ledger.get(key); e != nil {
		return e.Account.Clone(), nil
	}
	return &types.Account{Owner: solana.SystemProgramID}, nil
}

func (inv *invocation) TokenAccount(key solana.PublicKey) (*types.TokenAccount, error) {
	if err := inv.declared(key); err != nil {
		return nil, err
	}
	e := inv.ledger.get(key)
	if e == nil || e.Token == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotTokenAccount, key)
	}
	t := *e.Token
	return &t, nil
}

func (inv *invocation) WriteData(key solana.PublicKey, data []byte) error {
	if err := inv.writable(key); err != nil {
		return err
	}
	e := inv.ledger.get(key)
	if e == nil || !e.Owner.Equals(inv.programID) {
		return fmt.Errorf("%w: %s", ErrNotProgramOwned, key)
	}
	if len(data) != len(e.Data) {
		return fmt.Errorf("%w: have %d bytes, got %d", ErrDataSizeMismatch, len(e.Data), len(data))
	}
	copy(e.Data, data)
	return nil
}

func (inv *invocation) AllocateAccount(signer *runtime.ProgramSigner, space uint64) (solana.PublicKey, error) {
	if space > MaxPermittedDataLength {
		return solana.PublicKey{}, fmt.Errorf("%w: space %d exceeds %d", ErrInvalidTransaction, space, MaxPermittedDataLength)
	}
	address, err := signer.Address(inv.programID)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("%w: %v", ErrInvalidSeeds, err)
	}
	if err := inv.writable(address); err != nil {
		return solana.PublicKey{}, err
	}

	e := inv.ledger.getOrCreate(address)
	if !e.Owner.Equals(solana.SystemProgramID) || len(e.Data) > 0 || e.Token != nil || e.Mint != nil {
		return solana.PublicKey{}, fmt.Errorf("%w: %s", ErrAccountInUse, address)
	}
	e.Owner = inv.programID
	e.Data = make([]byte, space)
	return address, nil
}

func (inv *invocation) checkFault(kind TransferKind, from, to solana.PublicKey, amount uint64) error {
	if inv.fault == nil {
		return nil
	}
	return inv.fault(kind, from, to, amount)
}

func (inv *invocation) TransferNative(from, to solana.PublicKey, amount uint64) error {
	if err := inv.writable(from, to); err != nil {
		return err
	}
	if !inv.IsSigner(from) {
		return fmt.Errorf("%w: %s", ErrMissingSignature, from)
	}
	if err := inv.checkFault(TransferKindNative, from, to, amount); err != nil {
		return err
	}

	src := inv.ledger.getOrCreate(from)
	if !src.Owner.Equals(solana.SystemProgramID) || len(src.Data) > 0 {
		return fmt.Errorf("%w: %s", ErrNotSystemOwned, from)
	}
	return inv.moveLamports(src, inv.ledger.getOrCreate(to), from, to, amount)
}

func (inv *invocation) MoveLamports(from, to solana.PublicKey, amount uint64) error {
	if err := inv.writable(from, to); err != nil {
		return err
	}
	if err := inv.checkFault(TransferKindMove, from, to, amount); err != nil {
		return err
	}

	src := inv.ledger.get(from)
	if src == nil || !src.Owner.Equals(inv.programID) {
		return fmt.Errorf("%w: %s", ErrNotProgramOwned, from)
	}
	return inv.moveLamports(src, inv.ledger.getOrCreate(to), from, to, amount)
}

func (inv *invocation) moveLamports(src, dst *entry, from, to solana.PublicKey, amount uint64) error {
	if src.Lamports < amount {
		return fmt.Errorf("%w: %s has %d lamports, need %d", ErrInsufficientFunds, from, src.Lamports, amount)
	}
	if from.Equals(to) {
		return nil
	}
	if dst.Lamports+amount < dst.Lamports {
		return fmt.Errorf("%w: %s", ErrBalanceOverflow, to)
	}
	src.Lamports -= amount
	dst.Lamports += amount
	return nil
}

func (inv *invocation) TransferToken(from, to solana.PublicKey, authority runtime.Authority, amount uint64) error {
	if err := inv.writable(from, to); err != nil {
		return err
	}

	src, dst := inv.ledger.get(from), inv.ledger.get(to)
	if src == nil || src.Token == nil {
		return fmt.Errorf("%w: %s", ErrNotTokenAccount, from)
	}
	if dst == nil || dst.Token == nil {
		return fmt.Errorf("%w: %s", ErrNotTokenAccount, to)
	}
	if !src.Token.Mint.Equals(dst.Token.Mint) {
		return ErrMintMismatch
	}
	if err := inv.authorize(src.Token.Owner, authority); err != nil {
		return err
	}
	if err := inv.checkFault(TransferKindToken, from, to, amount); err != nil {
		return err
	}

	if src.Token.Amount < amount {
		return fmt.Errorf("%w: %s holds %d tokens, need %d", ErrInsufficientFunds, from, src.Token.Amount, amount)
	}
	if from.Equals(to) {
		return nil
	}
	if dst.Token.Amount+amount < dst.Token.Amount {
		return fmt.Errorf("%w: %s", ErrBalanceOverflow, to)
	}
	src.Token.Amount -= amount
	dst.Token.Amount += amount
	return nil
}

// authorize checks that authority may move tokens owned by owner.
func (inv *invocation) authorize(owner solana.PublicKey, authority runtime.Authority) error {
	switch a := authority.(type) {
	case runtime.Signer:
		if !a.Key.Equals(owner) {
			return fmt.Errorf("%w: owner %s, authority %s", ErrOwnerMismatch, owner, a.Key)
		}
		if !inv.IsSigner(a.Key) {
			return fmt.Errorf("%w: %s", ErrMissingSignature, a.Key)
		}
		return nil
	case *runtime.ProgramSigner:
		if a == nil {
			return ErrMissingSignature
		}
		derived, err := a.Address(inv.programID)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidSeeds, err)
		}
		if !derived.Equals(owner) {
			return fmt.Errorf("%w: owner %s, derived %s", ErrOwnerMismatch, owner, derived)
		}
		return nil
	default:
		return fmt.Errorf("%w: unsupported authority %T", ErrMissingSignature, authority)
	}
}

func (inv *invocation) DeriveAddress(seeds [][]byte, bump uint8) (solana.PublicKey, error) {
	return runtime.NewProgramSigner(seeds, bump).Address(inv.programID)
}

func (inv *invocation) Log(format string, args ...any) {
	inv.logs = append(inv.logs, "Program log: "+fmt.Sprintf(format, args...))
}

func (inv *invocation) EmitEvent(data []byte) {
	inv.logs = append(inv.logs, "Program data: "+base64.StdEncoding.EncodeToString(data))
}
