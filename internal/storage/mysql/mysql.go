package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"strconv"
	"time"

	gomysql "github.com/go-sql-driver/mysql"

	"github.com/lugondev/go-swappool/internal/config"
	"github.com/lugondev/go-swappool/internal/storage"
)

func init() {
	storage.Register(storage.DatabaseTypeMySQL, func(ctx context.Context, cfg *config.DatabaseConfig) (storage.Repository, error) {
		return NewMySQLRepository(ctx, &cfg.MySQL)
	})
}

type MySQLRepository struct {
	db              *sql.DB
	poolRepo        storage.PoolRepository
	operationRepo   storage.OperationRepository
	transactionRepo storage.TransactionRepository
}

// DSN builds the go-sql-driver data source name for cfg. An ssl_mode of
// "false" or "disable" turns TLS off; any other value is passed through as the
// driver's tls parameter.
func DSN(cfg *config.MySQLConfig) string {
	dc := gomysql.NewConfig()
	dc.User = cfg.User
	dc.Passwd = cfg.Password
	dc.Net = "tcp"
	dc.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	dc.DBName = cfg.Database
	dc.ParseTime = true

	switch cfg.SSLMode {
	case "", "false", "disable":
	default:
		dc.TLSConfig = cfg.SSLMode
	}
	return dc.FormatDSN()
}

func NewMySQLRepository(ctx context.Context, cfg *config.MySQLConfig) (*MySQLRepository, error) {
	db, err := sql.Open("mysql", DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := NewMigrator(db).Up(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &MySQLRepository{
		db:              db,
		poolRepo:        &mysqlPoolRepository{db: db},
		operationRepo:   &mysqlOperationRepository{db: db},
		transactionRepo: &mysqlTransactionRepository{db: db},
	}, nil
}

func (r *MySQLRepository) Pools() storage.PoolRepository {
	return r.poolRepo
}

func (r *MySQLRepository) Operations() storage.OperationRepository {
	return r.operationRepo
}

func (r *MySQLRepository) Transactions() storage.TransactionRepository {
	return r.transactionRepo
}

func (r *MySQLRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *MySQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
