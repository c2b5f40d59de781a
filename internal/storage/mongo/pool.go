package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lugondev/go-swappool/internal/storage"
)

type mongoPoolRepository struct {
	collection *mongo.Collection
}

// poolUpdate keeps the first created_at and identity fields on upsert.
func poolUpdate(p *storage.PoolModel) bson.M {
	return bson.M{
		"$set": bson.M{
			"native_reserve": p.NativeReserve,
			"token_reserve":  p.TokenReserve,
			"paused":         p.Paused,
			"slot":           p.Slot,
			"updated_at":     p.UpdatedAt,
		},
		"$setOnInsert": bson.M{
			"_id":            p.Address,
			"program_id":     p.ProgramID,
			"authority":      p.Authority,
			"token_mint":     p.TokenMint,
			"native_custody": p.NativeCustody,
			"token_custody":  p.TokenCustody,
			"created_at":     p.CreatedAt,
		},
	}
}

func (r *mongoPoolRepository) Save(ctx context.Context, p *storage.PoolModel) error {
	opts := options.Update().SetUpsert(true)
	_, err := r.collection.UpdateOne(ctx, bson.M{"address": p.Address}, poolUpdate(p), opts)
	return err
}

func (r *mongoPoolRepository) FindByAddress(ctx context.Context, address string) (*storage.PoolModel, error) {
	return findOne[storage.PoolModel](ctx, r.collection, bson.M{"address": address})
}

func (r *mongoPoolRepository) FindByAuthority(ctx context.Context, authority string, limit int, offset int) ([]*storage.PoolModel, error) {
	opts := findOptions(bson.D{{Key: "address", Value: 1}}, limit, offset)
	return findAll[storage.PoolModel](ctx, r.collection, bson.M{"authority": authority}, opts)
}

func (r *mongoPoolRepository) FindAll(ctx context.Context, limit int, offset int) ([]*storage.PoolModel, error) {
	opts := findOptions(bson.D{{Key: "address", Value: 1}}, limit, offset)
	return findAll[storage.PoolModel](ctx, r.collection, bson.M{}, opts)
}
