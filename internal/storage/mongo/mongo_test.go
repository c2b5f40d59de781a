package mongo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/lugondev/go-swappool/internal/storage"
)

func TestPoolUpdateKeepsIdentityOnInsertOnly(t *testing.T) {
	update := poolUpdate(&storage.PoolModel{Address: "pool", Authority: "auth", NativeReserve: 3})

	set := update["$set"].(bson.M)
	onInsert := update["$setOnInsert"].(bson.M)

	assert.Equal(t, uint64(3), set["native_reserve"])
	assert.NotContains(t, set, "authority")
	assert.NotContains(t, set, "created_at")
	assert.Equal(t, "auth", onInsert["authority"])
	assert.Equal(t, "pool", onInsert["_id"])
}

func TestFindOptionsLimit(t *testing.T) {
	opts := findOptions(newestFirst, 0, 5)
	assert.Nil(t, opts.Limit)
	assert.Equal(t, int64(5), *opts.Skip)

	opts = findOptions(newestFirst, 10, 0)
	assert.Equal(t, int64(10), *opts.Limit)
}

func TestIndexModelsCoverCollections(t *testing.T) {
	models := indexModels()
	for _, name := range []string{CollectionPools, CollectionOperations, CollectionTransactions} {
		assert.NotEmpty(t, models[name], name)
	}
}
