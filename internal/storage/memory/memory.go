// Package memory is an in-process journal backend. Nothing survives a restart.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/lugondev/go-swappool/internal/config"
	"github.com/lugondev/go-swappool/internal/storage"
)

func init() {
	storage.Register(storage.DatabaseTypeMemory, func(context.Context, *config.DatabaseConfig) (storage.Repository, error) {
		return NewMemoryRepository(), nil
	})
}

type MemoryRepository struct {
	mu           sync.RWMutex
	pools        map[string]*storage.PoolModel
	operations   []*storage.OperationModel
	transactions map[string]*storage.TransactionModel
	txOrder      []string
	closed       bool
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		pools:        make(map[string]*storage.PoolModel),
		transactions: make(map[string]*storage.TransactionModel),
	}
}

func (r *MemoryRepository) Pools() storage.PoolRepository {
	return &memoryPoolRepository{r}
}

func (r *MemoryRepository) Operations() storage.OperationRepository {
	return &memoryOperationRepository{r}
}

func (r *MemoryRepository) Transactions() storage.TransactionRepository {
	return &memoryTransactionRepository{r}
}

func (r *MemoryRepository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *MemoryRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}

// page returns items[offset:offset+limit]; a non-positive limit means no limit.
func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

type memoryPoolRepository struct {
	*MemoryRepository
}

func (r *memoryPoolRepository) Save(ctx context.Context, p *storage.PoolModel) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := *p
	if prev, ok := r.pools[p.Address]; ok {
		c.CreatedAt = prev.CreatedAt
	}
	r.pools[p.Address] = &c
	return nil
}

func (r *memoryPoolRepository) FindByAddress(ctx context.Context, address string) (*storage.PoolModel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.pools[address]
	if !ok {
		return nil, nil
	}
	c := *p
	return &c, nil
}

func (r *memoryPoolRepository) FindByAuthority(ctx context.Context, authority string, limit int, offset int) ([]*storage.PoolModel, error) {
	return r.find(func(p *storage.PoolModel) bool { return p.Authority == authority }, limit, offset), nil
}

func (r *memoryPoolRepository) FindAll(ctx context.Context, limit int, offset int) ([]*storage.PoolModel, error) {
	return r.find(func(*storage.PoolModel) bool { return true }, limit, offset), nil
}

func (r *memoryPoolRepository) find(match func(*storage.PoolModel) bool, limit, offset int) []*storage.PoolModel {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*storage.PoolModel
	for _, p := range r.pools {
		if match(p) {
			c := *p
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return page(out, limit, offset)
}

type memoryOperationRepository struct {
	*MemoryRepository
}

func (r *memoryOperationRepository) Save(ctx context.Context, op *storage.OperationModel) error {
	return r.SaveBatch(ctx, []*storage.OperationModel{op})
}

func (r *memoryOperationRepository) SaveBatch(ctx context.Context, ops []*storage.OperationModel) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, op := range ops {
		if r.hasOperationLocked(op.Signature, op.EventIndex) {
			continue
		}
		c := *op
		r.operations = append(r.operations, &c)
	}
	return nil
}

func (r *memoryOperationRepository) hasOperationLocked(signature string, eventIndex int) bool {
	for _, op := range r.operations {
		if op.Signature == signature && op.EventIndex == eventIndex {
			return true
		}
	}
	return false
}

func (r *memoryOperationRepository) FindBySignature(ctx context.Context, signature string) ([]*storage.OperationModel, error) {
	out := r.find(func(op *storage.OperationModel) bool { return op.Signature == signature })
	sort.SliceStable(out, func(i, j int) bool { return out[i].EventIndex < out[j].EventIndex })
	return out, nil
}

func (r *memoryOperationRepository) FindByPool(ctx context.Context, pool string, limit int, offset int) ([]*storage.OperationModel, error) {
	return page(r.find(func(op *storage.OperationModel) bool { return op.Pool == pool }), limit, offset), nil
}

func (r *memoryOperationRepository) FindByActor(ctx context.Context, actor string, limit int, offset int) ([]*storage.OperationModel, error) {
	return page(r.find(func(op *storage.OperationModel) bool { return op.Actor == actor }), limit, offset), nil
}

// find returns matching operations newest first.
func (r *memoryOperationRepository) find(match func(*storage.OperationModel) bool) []*storage.OperationModel {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*storage.OperationModel
	for i := len(r.operations) - 1; i >= 0; i-- {
		if op := r.operations[i]; match(op) {
			c := *op
			out = append(out, &c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Slot != out[j].Slot {
			return out[i].Slot > out[j].Slot
		}
		return out[i].EventIndex > out[j].EventIndex
	})
	return out
}

type memoryTransactionRepository struct {
	*MemoryRepository
}

func (r *memoryTransactionRepository) Save(ctx context.Context, tx *storage.TransactionModel) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.transactions[tx.Signature]; !ok {
		r.txOrder = append(r.txOrder, tx.Signature)
	}
	c := *tx
	r.transactions[tx.Signature] = &c
	return nil
}

func (r *memoryTransactionRepository) FindBySignature(ctx context.Context, signature string) (*storage.TransactionModel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tx, ok := r.transactions[signature]
	if !ok {
		return nil, nil
	}
	c := *tx
	return &c, nil
}

func (r *memoryTransactionRepository) FindRecent(ctx context.Context, limit int) ([]*storage.TransactionModel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*storage.TransactionModel, 0, len(r.txOrder))
	for i := len(r.txOrder) - 1; i >= 0; i-- {
		c := *r.transactions[r.txOrder[i]]
		out = append(out, &c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Slot > out[j].Slot })
	return page(out, limit, 0), nil
}
