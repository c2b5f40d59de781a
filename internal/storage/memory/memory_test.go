package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lugondev/go-swappool/internal/config"
	"github.com/lugondev/go-swappool/internal/storage"
)

func TestPoolUpsert(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	require.NoError(t, repo.Pools().Save(ctx, &storage.PoolModel{Address: "b", Authority: "auth", NativeReserve: 1}))
	require.NoError(t, repo.Pools().Save(ctx, &storage.PoolModel{Address: "a", Authority: "other"}))
	require.NoError(t, repo.Pools().Save(ctx, &storage.PoolModel{Address: "b", Authority: "auth", NativeReserve: 5}))

	p, err := repo.Pools().FindByAddress(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, uint64(5), p.NativeReserve)

	missing, err := repo.Pools().FindByAddress(ctx, "zzz")
	require.NoError(t, err)
	assert.Nil(t, missing)

	all, err := repo.Pools().FindAll(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].Address)

	byAuth, err := repo.Pools().FindByAuthority(ctx, "auth", 10, 0)
	require.NoError(t, err)
	assert.Len(t, byAuth, 1)
}

func TestOperationsNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	require.NoError(t, repo.Operations().SaveBatch(ctx, []*storage.OperationModel{
		{ID: "1", Signature: "s1", Slot: 1, Pool: "p", Actor: "x"},
		{ID: "2", Signature: "s2", Slot: 2, EventIndex: 0, Pool: "p", Actor: "y"},
		{ID: "3", Signature: "s2", Slot: 2, EventIndex: 1, Pool: "p", Actor: "x"},
		{ID: "4", Signature: "s3", Slot: 3, Pool: "q", Actor: "x"},
	}))

	ops, err := repo.Operations().FindByPool(ctx, "p", 2, 0)
	require.NoError(t, err)
	require.Len(t, ops, 2)
	assert.Equal(t, "3", ops[0].ID)
	assert.Equal(t, "2", ops[1].ID)

	ops, err = repo.Operations().FindByPool(ctx, "p", 2, 2)
	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.Equal(t, "1", ops[0].ID)

	ops, err = repo.Operations().FindBySignature(ctx, "s2")
	require.NoError(t, err)
	require.Len(t, ops, 2)
	assert.Equal(t, "2", ops[0].ID)

	ops, err = repo.Operations().FindByActor(ctx, "x", 0, 0)
	require.NoError(t, err)
	assert.Len(t, ops, 3)
}

func TestOperationsReplayIsNoop(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	ops := []*storage.OperationModel{
		{ID: "1", Signature: "sig", EventIndex: 0, Pool: "p"},
		{ID: "2", Signature: "sig", EventIndex: 1, Pool: "p"},
	}
	require.NoError(t, repo.Operations().SaveBatch(ctx, ops))
	require.NoError(t, repo.Operations().SaveBatch(ctx, ops))
	require.NoError(t, repo.Operations().Save(ctx, &storage.OperationModel{ID: "3", Signature: "sig", EventIndex: 1, Pool: "p"}))

	got, err := repo.Operations().FindBySignature(ctx, "sig")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "2", got[1].ID)
}

func TestTransactions(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	for i, sig := range []string{"a", "b", "c"} {
		require.NoError(t, repo.Transactions().Save(ctx, &storage.TransactionModel{Signature: sig, Slot: uint64(i + 1)}))
	}

	recent, err := repo.Transactions().FindRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "c", recent[0].Signature)

	tx, err := repo.Transactions().FindBySignature(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), tx.Slot)
}

func TestConnectionManagerUsesMemoryFactory(t *testing.T) {
	cm, err := storage.NewConnectionManager(&config.DatabaseConfig{Enabled: true, Type: "memory"})
	require.NoError(t, err)

	repo, err := cm.Connect(context.Background())
	require.NoError(t, err)
	assert.IsType(t, &MemoryRepository{}, repo)
	assert.NoError(t, cm.Close())

	_, err = storage.NewConnectionManager(&config.DatabaseConfig{})
	assert.Error(t, err)

	assert.Contains(t, storage.Registered(), storage.DatabaseTypeMemory)
	cm, err = storage.NewConnectionManager(&config.DatabaseConfig{Enabled: true, Type: "cassandra"})
	require.NoError(t, err)
	_, err = cm.Connect(context.Background())
	assert.ErrorContains(t, err, "not registered")
}
