package mysql

import (
	"context"
	"database/sql"
	"fmt"
)

const tableOptions = ` ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`

// Migration is one schema step. MySQL commits DDL implicitly, so statements run
// one at a time and the version row is written after the last one succeeds.
type Migration struct {
	Version     int
	Description string
	Up          []string
	Down        []string
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Pool journal schema",
		Up: []string{
			`CREATE TABLE IF NOT EXISTS pools (
				id VARCHAR(64) PRIMARY KEY,
				address VARCHAR(64) UNIQUE NOT NULL,
				program_id VARCHAR(64) NOT NULL,
				authority VARCHAR(64) NOT NULL,
				token_mint VARCHAR(64) NOT NULL,
				native_custody VARCHAR(64) NOT NULL,
				token_custody VARCHAR(64) NOT NULL,
				native_reserve BIGINT UNSIGNED NOT NULL,
				token_reserve BIGINT UNSIGNED NOT NULL,
				paused BOOLEAN NOT NULL,
				slot BIGINT UNSIGNED NOT NULL,
				updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
				created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
				INDEX idx_pools_authority (authority)
			)` + tableOptions,
			`CREATE TABLE IF NOT EXISTS operations (
				id VARCHAR(64) PRIMARY KEY,
				signature VARCHAR(128) NOT NULL,
				slot BIGINT UNSIGNED NOT NULL,
				event_index INT NOT NULL,
				pool VARCHAR(64) NOT NULL,
				operation VARCHAR(64) NOT NULL,
				actor VARCHAR(64) NOT NULL,
				direction VARCHAR(32) NOT NULL DEFAULT '',
				amount_in BIGINT UNSIGNED NOT NULL,
				amount_out BIGINT UNSIGNED NOT NULL,
				native_reserve BIGINT UNSIGNED NOT NULL,
				token_reserve BIGINT UNSIGNED NOT NULL,
				created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
				UNIQUE KEY uq_operations_event (signature, event_index),
				INDEX idx_operations_pool (pool, slot DESC),
				INDEX idx_operations_actor (actor, slot DESC)
			)` + tableOptions,
			`CREATE TABLE IF NOT EXISTS transactions (
				id VARCHAR(128) PRIMARY KEY,
				signature VARCHAR(128) UNIQUE NOT NULL,
				slot BIGINT UNSIGNED NOT NULL,
				fee_payer VARCHAR(64) NOT NULL,
				success BOOLEAN NOT NULL,
				error_code VARCHAR(64) NOT NULL DEFAULT '',
				error_message TEXT,
				instructions JSON NOT NULL,
				log_messages JSON,
				created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
				INDEX idx_transactions_slot (slot DESC)
			)` + tableOptions,
		},
		Down: []string{
			`DROP TABLE IF EXISTS transactions`,
			`DROP TABLE IF EXISTS operations`,
			`DROP TABLE IF EXISTS pools`,
		},
	},
}

// Migrator applies migrations and tracks them in schema_migrations.
type Migrator struct {
	db *sql.DB
}

func NewMigrator(db *sql.DB) *Migrator {
	return &Migrator{db: db}
}

// Version reports the highest applied migration, or 0.
func (m *Migrator) Version(ctx context.Context) (int, error) {
	_, err := m.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INT PRIMARY KEY,
		description VARCHAR(255) NOT NULL,
		applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`+tableOptions)
	if err != nil {
		return 0, fmt.Errorf("failed to create migrations table: %w", err)
	}

	var version int
	err = m.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&version)
	return version, err
}

// Up applies every migration above the current version and returns how many ran.
func (m *Migrator) Up(ctx context.Context) (int, error) {
	current, err := m.Version(ctx)
	if err != nil {
		return 0, err
	}

	applied := 0
	for _, mig := range migrations {
		if mig.Version <= current {
			continue
		}
		if err := m.run(ctx, mig.Up); err != nil {
			return applied, fmt.Errorf("failed to apply migration %d: %w", mig.Version, err)
		}
		if _, err := m.db.ExecContext(ctx,
			`INSERT INTO schema_migrations (version, description) VALUES (?, ?)`,
			mig.Version, mig.Description,
		); err != nil {
			return applied, fmt.Errorf("failed to record migration %d: %w", mig.Version, err)
		}
		applied++
	}
	return applied, nil
}

// Down reverts every applied migration above target, newest first.
func (m *Migrator) Down(ctx context.Context, target int) (int, error) {
	current, err := m.Version(ctx)
	if err != nil {
		return 0, err
	}

	reverted := 0
	for i := len(migrations) - 1; i >= 0; i-- {
		mig := migrations[i]
		if mig.Version <= target || mig.Version > current {
			continue
		}
		if err := m.run(ctx, mig.Down); err != nil {
			return reverted, fmt.Errorf("failed to revert migration %d: %w", mig.Version, err)
		}
		if _, err := m.db.ExecContext(ctx, `DELETE FROM schema_migrations WHERE version = ?`, mig.Version); err != nil {
			return reverted, fmt.Errorf("failed to unrecord migration %d: %w", mig.Version, err)
		}
		reverted++
	}
	return reverted, nil
}

func (m *Migrator) run(ctx context.Context, statements []string) error {
	for i, stmt := range statements {
		if _, err := m.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("statement %d: %w", i, err)
		}
	}
	return nil
}
