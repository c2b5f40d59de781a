package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoInsertAll writes items with one unordered InsertMany. Duplicate key
// errors are dropped so replaying a receipt leaves the collection unchanged.
func MongoInsertAll[T any](ctx context.Context, coll *mongo.Collection, items []T) error {
	if len(items) == 0 {
		return nil
	}

	docs := make([]any, 0, len(items))
	for _, item := range items {
		docs = append(docs, item)
	}

	_, err := coll.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		return err
	}
	return nil
}

// PgxExecAll sends one queued statement per item in a single round trip and
// reports the first failing item.
func PgxExecAll[T any](ctx context.Context, pool *pgxpool.Pool, items []T, queue func(*pgx.Batch, T)) error {
	if len(items) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, item := range items {
		queue(batch, item)
	}

	results := pool.SendBatch(ctx, batch)
	for i := range items {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return fmt.Errorf("batch item %d: %w", i, err)
		}
	}
	return results.Close()
}

// SQLExecAll prepares query once and runs it for every item inside one
// transaction. Nothing is written unless every item succeeds.
func SQLExecAll[T any](ctx context.Context, db *sql.DB, query string, items []T, args func(T) []any) (err error) {
	if len(items) == 0 {
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, item := range items {
		if _, err = stmt.ExecContext(ctx, args(item)...); err != nil {
			return fmt.Errorf("batch item %d: %w", i, err)
		}
	}
	return tx.Commit()
}
