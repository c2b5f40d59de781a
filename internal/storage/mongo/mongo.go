package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/lugondev/go-swappool/internal/config"
	"github.com/lugondev/go-swappool/internal/storage"
)

const (
	CollectionPools        = "pools"
	CollectionOperations   = "operations"
	CollectionTransactions = "transactions"
)

type MongoRepository struct {
	client          *mongo.Client
	database        *mongo.Database
	pools           *mongo.Collection
	operations      *mongo.Collection
	transactions    *mongo.Collection
	poolRepo        storage.PoolRepository
	operationRepo   storage.OperationRepository
	transactionRepo storage.TransactionRepository
}

func NewMongoRepository(ctx context.Context, cfg *config.MongoDBConfig) (*MongoRepository, error) {
	clientOpts := options.Client().
		ApplyURI(cfg.URI).
		SetMaxPoolSize(cfg.MaxPoolSize).
		SetMinPoolSize(cfg.MinPoolSize).
		SetConnectTimeout(time.Duration(cfg.ConnectTimeout) * time.Second).
		SetRetryWrites(true).
		SetRetryReads(true)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	database := client.Database(cfg.Database)

	repo := &MongoRepository{
		client:       client,
		database:     database,
		pools:        database.Collection(CollectionPools),
		operations:   database.Collection(CollectionOperations),
		transactions: database.Collection(CollectionTransactions),
	}

	repo.poolRepo = &mongoPoolRepository{collection: repo.pools}
	repo.operationRepo = &mongoOperationRepository{collection: repo.operations}
	repo.transactionRepo = &mongoTransactionRepository{collection: repo.transactions}

	if err := repo.createIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to create indexes: %w", err)
	}

	return repo, nil
}

func indexModels() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		CollectionPools: {
			{Keys: bson.D{{Key: "address", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "authority", Value: 1}}},
		},
		CollectionOperations: {
			{Keys: bson.D{{Key: "signature", Value: 1}, {Key: "event_index", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "pool", Value: 1}, {Key: "slot", Value: -1}}},
			{Keys: bson.D{{Key: "actor", Value: 1}, {Key: "slot", Value: -1}}},
		},
		CollectionTransactions: {
			{Keys: bson.D{{Key: "signature", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "slot", Value: -1}}},
		},
	}
}

func (r *MongoRepository) createIndexes(ctx context.Context) error {
	for name, models := range indexModels() {
		if _, err := r.database.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

func (r *MongoRepository) Pools() storage.PoolRepository {
	return r.poolRepo
}

func (r *MongoRepository) Operations() storage.OperationRepository {
	return r.operationRepo
}

func (r *MongoRepository) Transactions() storage.TransactionRepository {
	return r.transactionRepo
}

func (r *MongoRepository) Close() error {
	if r.client != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return r.client.Disconnect(ctx)
	}
	return nil
}

func (r *MongoRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, readpref.Primary())
}

// findOptions pages sorted results; a non-positive limit means no limit.
func findOptions(sort bson.D, limit, offset int) *options.FindOptions {
	opts := options.Find().SetSort(sort).SetSkip(int64(offset))
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return opts
}

func findAll[T any](ctx context.Context, c *mongo.Collection, filter interface{}, opts *options.FindOptions) ([]*T, error) {
	cursor, err := c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []*T
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func findOne[T any](ctx context.Context, c *mongo.Collection, filter interface{}) (*T, error) {
	var out T
	if err := c.FindOne(ctx, filter).Decode(&out); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &out, nil
}
