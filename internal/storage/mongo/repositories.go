package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lugondev/go-swappool/internal/storage"
)

var newestFirst = bson.D{{Key: "slot", Value: -1}, {Key: "event_index", Value: -1}}

type mongoOperationRepository struct {
	collection *mongo.Collection
}

func (r *mongoOperationRepository) Save(ctx context.Context, op *storage.OperationModel) error {
	return r.SaveBatch(ctx, []*storage.OperationModel{op})
}

func (r *mongoOperationRepository) SaveBatch(ctx context.Context, ops []*storage.OperationModel) error {
	return storage.MongoInsertAll(ctx, r.collection, ops)
}

func (r *mongoOperationRepository) FindBySignature(ctx context.Context, signature string) ([]*storage.OperationModel, error) {
	opts := options.Find().SetSort(bson.D{{Key: "event_index", Value: 1}})
	return findAll[storage.OperationModel](ctx, r.collection, bson.M{"signature": signature}, opts)
}

func (r *mongoOperationRepository) FindByPool(ctx context.Context, pool string, limit int, offset int) ([]*storage.OperationModel, error) {
	return findAll[storage.OperationModel](ctx, r.collection, bson.M{"pool": pool}, findOptions(newestFirst, limit, offset))
}

func (r *mongoOperationRepository) FindByActor(ctx context.Context, actor string, limit int, offset int) ([]*storage.OperationModel, error) {
	return findAll[storage.OperationModel](ctx, r.collection, bson.M{"actor": actor}, findOptions(newestFirst, limit, offset))
}
