package ledger

import (
	"sync"

	"github.com/gagliardetto/solana-go"
)

// lockTable hands out one RWMutex per account address. Locks are always taken
// in ascending address order so overlapping transactions cannot deadlock.
type lockTable struct {
	mu    sync.Mutex
	locks map[solana.PublicKey]*sync.RWMutex
}

func newLockTable() *lockTable {
	return &lockTable{locks: make(map[solana.PublicKey]*sync.RWMutex)}
}

func (t *lockTable) lockFor(key solana.PublicKey) *sync.RWMutex {
	t.mu.Lock()
	defer t.mu.Unlock()
	m, ok := t.locks[key]
	if !ok {
		m = new(sync.RWMutex)
		t.locks[key] = m
	}
	return m
}

// acquire write-locks writable and read-locks readonly, and returns the
// release function. A key present in both sets is write-locked.
func (t *lockTable) acquire(writable, readonly []solana.PublicKey) func() {
	mode := make(map[solana.PublicKey]bool, len(writable)+len(readonly))
	for _, k := range readonly {
		mode[k] = false
	}
	for _, k := range writable {
		mode[k] = true
	}

	keys := make([]solana.PublicKey, 0, len(mode))
	for k := range mode {
		keys = append(keys, k)
	}
	sortKeys(keys)

	held := make([]func(), 0, len(keys))
	for _, k := range keys {
		m := t.lockFor(k)
		if mode[k] {
			m.Lock()
			held = append(held, m.Unlock)
		} else {
			m.RLock()
			held = append(held, m.RUnlock)
		}
	}

	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i]()
		}
	}
}
