package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lugondev/go-swappool/internal/storage"
)

type mongoTransactionRepository struct {
	collection *mongo.Collection
}

func (r *mongoTransactionRepository) Save(ctx context.Context, tx *storage.TransactionModel) error {
	doc := *tx
	if doc.ID == "" {
		doc.ID = doc.Signature
	}
	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx, bson.M{"signature": tx.Signature}, &doc, opts)
	return err
}

func (r *mongoTransactionRepository) FindBySignature(ctx context.Context, signature string) (*storage.TransactionModel, error) {
	return findOne[storage.TransactionModel](ctx, r.collection, bson.M{"signature": signature})
}

func (r *mongoTransactionRepository) FindRecent(ctx context.Context, limit int) ([]*storage.TransactionModel, error) {
	opts := findOptions(bson.D{{Key: "slot", Value: -1}}, limit, 0)
	return findAll[storage.TransactionModel](ctx, r.collection, bson.M{}, opts)
}
