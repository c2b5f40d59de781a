package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// rowScanner reads one model from the current row.
type rowScanner[T any] func(row pgx.Row) (*T, error)

// selectAll runs query and collects every row with scan.
func selectAll[T any](ctx context.Context, pool *pgxpool.Pool, scan rowScanner[T], query string, args ...any) ([]*T, error) {
	rows, err := pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*T, error) {
		return scan(row)
	})
}

// selectOne returns nil, nil when the query matches no row.
func selectOne[T any](ctx context.Context, pool *pgxpool.Pool, scan rowScanner[T], query string, args ...any) (*T, error) {
	item, err := scan(pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return item, err
}

// limitArg maps a non-positive limit to NULL, which Postgres reads as no limit.
func limitArg(limit int) any {
	if limit <= 0 {
		return nil
	}
	return limit
}
