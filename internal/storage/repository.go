package storage

import (
	"context"
)

// PoolRepository stores the latest known state of each pool. Finders return
// nil, nil when nothing matches.
type PoolRepository interface {
	Save(ctx context.Context, pool *PoolModel) error
	FindByAddress(ctx context.Context, address string) (*PoolModel, error)
	FindByAuthority(ctx context.Context, authority string, limit int, offset int) ([]*PoolModel, error)
	FindAll(ctx context.Context, limit int, offset int) ([]*PoolModel, error)
}

// OperationRepository lists operations newest first.
type OperationRepository interface {
	Save(ctx context.Context, op *OperationModel) error
	SaveBatch(ctx context.Context, ops []*OperationModel) error
	FindBySignature(ctx context.Context, signature string) ([]*OperationModel, error)
	FindByPool(ctx context.Context, pool string, limit int, offset int) ([]*OperationModel, error)
	FindByActor(ctx context.Context, actor string, limit int, offset int) ([]*OperationModel, error)
}

type TransactionRepository interface {
	Save(ctx context.Context, tx *TransactionModel) error
	FindBySignature(ctx context.Context, signature string) (*TransactionModel, error)
	FindRecent(ctx context.Context, limit int) ([]*TransactionModel, error)
}

type Repository interface {
	Pools() PoolRepository
	Operations() OperationRepository
	Transactions() TransactionRepository
	Close() error
	Ping(ctx context.Context) error
}
