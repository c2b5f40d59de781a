// Package ledger is an in-process Solana-style execution environment.
//
// It keeps accounts in memory, verifies transaction signatures, routes
// instructions to registered programs and runs them with per-account locking
// and all-or-nothing commit. Programs see the ledger through runtime.Env.
//
// Example:
//
//	l := ledger.New(ledger.WithLogger(logger))
//	l.RegisterProgram(myProgram)
//	receipt, err := l.Execute(ctx, payer.PublicKey(), []solana.PrivateKey{payer}, ix)
package ledger

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/gagliardetto/solana-go"

	"github.com/lugondev/go-swappool/internal/common"
	"github.com/lugondev/go-swappool/internal/metrics"
	"github.com/lugondev/go-swappool/internal/runtime"
	"github.com/lugondev/go-swappool/pkg/decoder"
	"github.com/lugondev/go-swappool/pkg/types"
)

// recentBlockhashes is how many blockhashes stay valid for new transactions.
const recentBlockhashes = 150

// TransferKind names a value-moving primitive.
type TransferKind string

const (
	TransferKindNative TransferKind = "native"
	TransferKindToken  TransferKind = "token"
	TransferKindMove   TransferKind = "move"
)

// FaultFunc is consulted before every transfer; a non-nil error rejects it.
type FaultFunc func(kind TransferKind, from, to solana.PublicKey, amount uint64) error

// entry is a stored account. Token and Mint carry the state of accounts owned
// by the token program.
type entry struct {
	types.Account
	Token *types.TokenAccount
	Mint  *types.Mint
}

func (e *entry) clone() *entry {
	c := &entry{Account: *e.Account.Clone()}
	if e.Token != nil {
		t := *e.Token
		c.Token = &t
	}
	if e.Mint != nil {
		m := *e.Mint
		c.Mint = &m
	}
	return c
}

// KeyedAccount pairs an address with its account.
type KeyedAccount struct {
	Address solana.PublicKey
	Account *types.Account
}

// Ledger holds accounts and executes transactions against them.
type Ledger struct {
	common.LoggerMixin

	mu        sync.RWMutex
	accounts  map[solana.PublicKey]*entry
	programs  map[solana.PublicKey]runtime.Program
	processed map[solana.Signature]struct{}
	slot      uint64
	hashes    []solana.Hash

	locks *lockTable

	metrics metrics.Metrics
	fault   FaultFunc
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) { l.SetLogger(logger) }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m metrics.Metrics) Option {
	return func(l *Ledger) {
		if m != nil {
			l.metrics = m
		}
	}
}

// WithFault installs a transfer fault hook.
func WithFault(fn FaultFunc) Option {
	return func(l *Ledger) { l.fault = fn }
}

// New creates an empty ledger with the system program registered.
func New(opts ...Option) *Ledger {
	l := &Ledger{
		LoggerMixin: common.NewLoggerMixin("ledger"),
		accounts:    make(map[solana.PublicKey]*entry),
		programs:    make(map[solana.PublicKey]runtime.Program),
		processed:   make(map[solana.Signature]struct{}),
		locks:       newLockTable(),
		metrics:     metrics.NewNoopMetrics(),
	}
	l.hashes = []solana.Hash{nextBlockhash(solana.Hash{}, 0)}
	l.RegisterProgram(systemProgram{})
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// SetFault replaces the transfer fault hook. Pass nil to clear it.
func (l *Ledger) SetFault(fn FaultFunc) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fault = fn
}

func (l *Ledger) faultHook() FaultFunc {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.fault
}

// RegisterProgram routes instructions for p.ID() to p and marks the id executable.
func (l *Ledger) RegisterProgram(p runtime.Program) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.programs[p.ID()] = p
	if _, ok := l.accounts[p.ID()]; !ok {
		l.accounts[p.ID()] = &entry{Account: types.Account{Owner: solana.BPFLoaderUpgradeableProgramID, Executable: true}}
	}
}

// Slot returns the current slot.
func (l *Ledger) Slot() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.slot
}

// LatestBlockhash returns the newest blockhash.
func (l *Ledger) LatestBlockhash() solana.Hash {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.hashes[len(l.hashes)-1]
}

func nextBlockhash(prev solana.Hash, slot uint64) solana.Hash {
	var buf [40]byte
	copy(buf[:32], prev[:])
	binary.LittleEndian.PutUint64(buf[32:], slot)
	return solana.Hash(sha256.Sum256(buf[:]))
}

// advance moves to the next slot and records sig. Callers hold l.mu.
func (l *Ledger) advance(sig solana.Signature) uint64 {
	l.processed[sig] = struct{}{}
	l.slot++
	l.hashes = append(l.hashes, nextBlockhash(l.hashes[len(l.hashes)-1], l.slot))
	if len(l.hashes) > recentBlockhashes {
		l.hashes = l.hashes[len(l.hashes)-recentBlockhashes:]
	}
	return l.slot
}

func (l *Ledger) isRecent(h solana.Hash) bool {
	for _, known := range l.hashes {
		if known == h {
			return true
		}
	}
	return false
}

func (l *Ledger) get(key solana.PublicKey) *entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.accounts[key]
}

func (l *Ledger) put(key solana.PublicKey, e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if e == nil {
		delete(l.accounts, key)
		return
	}
	l.accounts[key] = e
}

// getOrCreate returns the entry for key, inserting an empty system account.
func (l *Ledger) getOrCreate(key solana.PublicKey) *entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.accounts[key]
	if !ok {
		e = &entry{Account: types.Account{Owner: solana.SystemProgramID}}
		l.accounts[key] = e
	}
	return e
}

// GetAccount returns a copy of an account.
func (l *Ledger) GetAccount(key solana.PublicKey) (*types.Account, error) {
	unlock := l.locks.acquire(nil, []solana.PublicKey{key})
	defer unlock()

	e := l.get(key)
	if e == nil {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, key)
	}
	return e.Account.Clone(), nil
}

// GetBalance returns the lamports of an account, zero when it does not exist.
func (l *Ledger) GetBalance(key solana.PublicKey) uint64 {
	unlock := l.locks.acquire(nil, []solana.PublicKey{key})
	defer unlock()

	if e := l.get(key); e != nil {
		return e.Lamports
	}
	return 0
}

// GetTokenAccount returns the state of a token account.
func (l *Ledger) GetTokenAccount(key solana.PublicKey) (*types.TokenAccount, error) {
	unlock := l.locks.acquire(nil, []solana.PublicKey{key})
	defer unlock()

	e := l.get(key)
	if e == nil || e.Token == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotTokenAccount, key)
	}
	t := *e.Token
	return &t, nil
}

// GetMint returns the state of a mint.
func (l *Ledger) GetMint(key solana.PublicKey) (*types.Mint, error) {
	unlock := l.locks.acquire(nil, []solana.PublicKey{key})
	defer unlock()

	e := l.get(key)
	if e == nil || e.Mint == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotMint, key)
	}
	m := *e.Mint
	return &m, nil
}

// ProgramAccounts returns the accounts owned by programID whose data starts
// with disc, sorted by address.
func (l *Ledger) ProgramAccounts(programID solana.PublicKey, disc decoder.AnchorDiscriminator) []KeyedAccount {
	l.mu.RLock()
	keys := make([]solana.PublicKey, 0)
	for key, e := range l.accounts {
		if e.Owner.Equals(programID) {
			keys = append(keys, key)
		}
	}
	l.mu.RUnlock()
	sortKeys(keys)

	out := make([]KeyedAccount, 0, len(keys))
	for _, key := range keys {
		acct, err := l.GetAccount(key)
		if err != nil || !disc.Matches(acct.Data) {
			continue
		}
		out = append(out, KeyedAccount{Address: key, Account: acct})
	}
	return out
}

// Airdrop credits lamports to an account, creating it if needed.
func (l *Ledger) Airdrop(key solana.PublicKey, lamports uint64) error {
	unlock := l.locks.acquire([]solana.PublicKey{key}, nil)
	defer unlock()

	e := l.getOrCreate(key)
	sum := e.Lamports + lamports
	if sum < e.Lamports {
		return ErrBalanceOverflow
	}
	e.Lamports = sum
	l.GetLogger().Debug("airdrop", "account", key, "lamports", lamports, "balance", sum)
	return nil
}

// CreateMint creates a new mint controlled by authority.
func (l *Ledger) CreateMint(authority solana.PublicKey, decimals uint8) solana.PublicKey {
	mint := solana.NewWallet().PublicKey()

	unlock := l.locks.acquire([]solana.PublicKey{mint}, nil)
	defer unlock()

	l.put(mint, &entry{
		Account: types.Account{Owner: solana.TokenProgramID},
		Mint:    &types.Mint{MintAuthority: authority, Decimals: decimals},
	})
	l.GetLogger().Debug("mint created", "mint", mint, "authority", authority)
	return mint
}

// CreateTokenAccount creates the associated token account of owner for mint.
func (l *Ledger) CreateTokenAccount(owner, mint solana.PublicKey) (solana.PublicKey, error) {
	address, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to derive token account: %w", err)
	}
	return address, l.CreateTokenAccountAt(address, owner, mint)
}

// CreateTokenAccountAt creates a token account at address.
func (l *Ledger) CreateTokenAccountAt(address, owner, mint solana.PublicKey) error {
	unlock := l.locks.acquire([]solana.PublicKey{address}, []solana.PublicKey{mint})
	defer unlock()

	if m := l.get(mint); m == nil || m.Mint == nil {
		return fmt.Errorf("%w: %s", ErrNotMint, mint)
	}
	if e := l.get(address); e != nil && (e.Token != nil || len(e.Data) > 0 || !e.Owner.Equals(solana.SystemProgramID)) {
		return fmt.Errorf("%w: %s", ErrAccountInUse, address)
	}

	lamports := uint64(0)
	if e := l.get(address); e != nil {
		lamports = e.Lamports
	}
	l.put(address, &entry{
		Account: types.Account{Owner: solana.TokenProgramID, Lamports: lamports},
		Token:   &types.TokenAccount{Mint: mint, Owner: owner},
	})
	return nil
}

// MintTo mints amount to a token account. authority must be the mint authority.
func (l *Ledger) MintTo(mint, destination, authority solana.PublicKey, amount uint64) error {
	unlock := l.locks.acquire([]solana.PublicKey{mint, destination}, nil)
	defer unlock()

	m := l.get(mint)
	if m == nil || m.Mint == nil {
		return fmt.Errorf("%w: %s", ErrNotMint, mint)
	}
	if !m.Mint.MintAuthority.Equals(authority) {
		return fmt.Errorf("%w: mint authority is %s", ErrOwnerMismatch, m.Mint.MintAuthority)
	}
	d := l.get(destination)
	if d == nil || d.Token == nil {
		return fmt.Errorf("%w: %s", ErrNotTokenAccount, destination)
	}
	if !d.Token.Mint.Equals(mint) {
		return ErrMintMismatch
	}

	supply := m.Mint.Supply + amount
	balance := d.Token.Amount + amount
	if supply < m.Mint.Supply || balance < d.Token.Amount {
		return ErrBalanceOverflow
	}
	m.Mint.Supply = supply
	d.Token.Amount = balance
	return nil
}

func sortKeys(keys []solana.PublicKey) {
	sort.Slice(keys, func(i, j int) bool { return bytes.Compare(keys[i][:], keys[j][:]) < 0 })
}
