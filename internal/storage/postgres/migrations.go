package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Migration struct {
	Version     int
	Description string
	Up          string
	Down        string
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Pool journal schema",
		Up: `
		CREATE TABLE IF NOT EXISTS pools (
			id TEXT PRIMARY KEY,
			address TEXT UNIQUE NOT NULL,
			program_id TEXT NOT NULL,
			authority TEXT NOT NULL,
			token_mint TEXT NOT NULL,
			native_custody TEXT NOT NULL,
			token_custody TEXT NOT NULL,
			native_reserve NUMERIC(20,0) NOT NULL,
			token_reserve NUMERIC(20,0) NOT NULL,
			paused BOOLEAN NOT NULL,
			slot BIGINT NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			created_at TIMESTAMP NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_pools_authority ON pools(authority);

		CREATE TABLE IF NOT EXISTS operations (
			id TEXT PRIMARY KEY,
			signature TEXT NOT NULL,
			slot BIGINT NOT NULL,
			event_index INT NOT NULL,
			pool TEXT NOT NULL,
			operation TEXT NOT NULL,
			actor TEXT NOT NULL,
			direction TEXT NOT NULL DEFAULT '',
			amount_in NUMERIC(20,0) NOT NULL,
			amount_out NUMERIC(20,0) NOT NULL,
			native_reserve NUMERIC(20,0) NOT NULL,
			token_reserve NUMERIC(20,0) NOT NULL,
			created_at TIMESTAMP NOT NULL,
			UNIQUE (signature, event_index)
		);
		CREATE INDEX IF NOT EXISTS idx_operations_pool ON operations(pool, slot DESC);
		CREATE INDEX IF NOT EXISTS idx_operations_actor ON operations(actor, slot DESC);

		CREATE TABLE IF NOT EXISTS transactions (
			id TEXT PRIMARY KEY,
			signature TEXT UNIQUE NOT NULL,
			slot BIGINT NOT NULL,
			fee_payer TEXT NOT NULL,
			success BOOLEAN NOT NULL,
			error_code TEXT NOT NULL DEFAULT '',
			error_message TEXT NOT NULL DEFAULT '',
			instructions TEXT[] NOT NULL,
			log_messages TEXT[],
			created_at TIMESTAMP NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_transactions_slot ON transactions(slot DESC);
		`,
		Down: `
		DROP TABLE IF EXISTS transactions;
		DROP TABLE IF EXISTS operations;
		DROP TABLE IF EXISTS pools;
		`,
	},
}

// Migrator applies migrations and tracks them in schema_migrations. Each
// call to Up or Down runs in one transaction.
type Migrator struct {
	pool *pgxpool.Pool
}

func NewMigrator(pool *pgxpool.Pool) *Migrator {
	return &Migrator{pool: pool}
}

const createMigrationsTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
	version INT PRIMARY KEY,
	description TEXT NOT NULL,
	applied_at TIMESTAMP NOT NULL DEFAULT NOW()
)`

// Version reports the highest applied migration, or 0.
func (m *Migrator) Version(ctx context.Context) (int, error) {
	if _, err := m.pool.Exec(ctx, createMigrationsTable); err != nil {
		return 0, fmt.Errorf("failed to create migrations table: %w", err)
	}
	var version int
	err := m.pool.QueryRow(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&version)
	return version, err
}

// Up applies every migration above the current version and returns how many ran.
func (m *Migrator) Up(ctx context.Context) (int, error) {
	current, err := m.Version(ctx)
	if err != nil {
		return 0, err
	}

	var pending []Migration
	for _, mig := range migrations {
		if mig.Version > current {
			pending = append(pending, mig)
		}
	}
	err = m.inTx(ctx, pending, func(tx pgx.Tx, mig Migration) error {
		if _, err := tx.Exec(ctx, mig.Up); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version, description) VALUES ($1, $2)`,
			mig.Version, mig.Description)
		return err
	})
	if err != nil {
		return 0, err
	}
	return len(pending), nil
}

// Down rolls back at most steps applied migrations, newest first.
func (m *Migrator) Down(ctx context.Context, steps int) (int, error) {
	current, err := m.Version(ctx)
	if err != nil {
		return 0, err
	}
	if current == 0 {
		return 0, fmt.Errorf("no migrations to roll back")
	}

	var applied []Migration
	for i := len(migrations) - 1; i >= 0 && len(applied) < steps; i-- {
		if migrations[i].Version <= current {
			applied = append(applied, migrations[i])
		}
	}
	err = m.inTx(ctx, applied, func(tx pgx.Tx, mig Migration) error {
		if _, err := tx.Exec(ctx, mig.Down); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `DELETE FROM schema_migrations WHERE version = $1`, mig.Version)
		return err
	})
	if err != nil {
		return 0, err
	}
	return len(applied), nil
}

func (m *Migrator) inTx(ctx context.Context, steps []Migration, step func(pgx.Tx, Migration) error) error {
	if len(steps) == 0 {
		return nil
	}
	return pgx.BeginFunc(ctx, m.pool, func(tx pgx.Tx) error {
		for _, mig := range steps {
			if err := step(tx, mig); err != nil {
				return fmt.Errorf("migration %d: %w", mig.Version, err)
			}
		}
		return nil
	})
}
