package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lugondev/go-swappool/internal/config"
	"github.com/lugondev/go-swappool/internal/storage"
)

type PostgresRepository struct {
	pool            *pgxpool.Pool
	poolRepo        storage.PoolRepository
	operationRepo   storage.OperationRepository
	transactionRepo storage.TransactionRepository
}

// ConnString builds the pgx URL for cfg.
func ConnString(cfg *config.PostgresConfig) string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database, cfg.SSLMode,
	)
}

func NewPostgresRepository(ctx context.Context, cfg *config.PostgresConfig) (*PostgresRepository, error) {
	poolConfig, err := pgxpool.ParseConfig(ConnString(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.MaxIdleConns)
	if cfg.ConnMaxLifetime > 0 {
		poolConfig.MaxConnLifetime = time.Duration(cfg.ConnMaxLifetime) * time.Second
	}
	poolConfig.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := NewMigrator(pool).Up(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &PostgresRepository{
		pool:            pool,
		poolRepo:        &postgresPoolRepository{pool: pool},
		operationRepo:   &postgresOperationRepository{pool: pool},
		transactionRepo: &postgresTransactionRepository{pool: pool},
	}, nil
}

func (r *PostgresRepository) Pools() storage.PoolRepository {
	return r.poolRepo
}

func (r *PostgresRepository) Operations() storage.OperationRepository {
	return r.operationRepo
}

func (r *PostgresRepository) Transactions() storage.TransactionRepository {
	return r.transactionRepo
}

func (r *PostgresRepository) Close() error {
	if r.pool != nil {
		r.pool.Close()
	}
	return nil
}

func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}
