package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lugondev/go-swappool/internal/config"
	"github.com/lugondev/go-swappool/internal/storage"
)

const poolColumns = `id, address, program_id, authority, token_mint, native_custody, token_custody,
	native_reserve, token_reserve, paused, slot, updated_at, created_at`

func scanPool(row pgx.Row) (*storage.PoolModel, error) {
	var p storage.PoolModel
	err := row.Scan(
		&p.ID, &p.Address, &p.ProgramID, &p.Authority, &p.TokenMint, &p.NativeCustody, &p.TokenCustody,
		(*uint64Numeric)(&p.NativeReserve), (*uint64Numeric)(&p.TokenReserve), &p.Paused, &p.Slot, &p.UpdatedAt, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

type postgresPoolRepository struct {
	pool *pgxpool.Pool
}

func (r *postgresPoolRepository) Save(ctx context.Context, p *storage.PoolModel) error {
	query := `
		INSERT INTO pools (` + poolColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (address) DO UPDATE SET
			native_reserve = $8, token_reserve = $9, paused = $10, slot = $11, updated_at = $12
	`
	_, err := r.pool.Exec(ctx, query,
		p.ID, p.Address, p.ProgramID, p.Authority, p.TokenMint, p.NativeCustody, p.TokenCustody,
		uint64Numeric(p.NativeReserve), uint64Numeric(p.TokenReserve), p.Paused, p.Slot, p.UpdatedAt, p.CreatedAt,
	)
	return err
}

func (r *postgresPoolRepository) FindByAddress(ctx context.Context, address string) (*storage.PoolModel, error) {
	query := `SELECT ` + poolColumns + ` FROM pools WHERE address = $1`
	return selectOne(ctx, r.pool, scanPool, query, address)
}

func (r *postgresPoolRepository) FindByAuthority(ctx context.Context, authority string, limit int, offset int) ([]*storage.PoolModel, error) {
	query := `SELECT ` + poolColumns + ` FROM pools WHERE authority = $1 ORDER BY address LIMIT $2 OFFSET $3`
	return selectAll(ctx, r.pool, scanPool, query, authority, limitArg(limit), offset)
}

func (r *postgresPoolRepository) FindAll(ctx context.Context, limit int, offset int) ([]*storage.PoolModel, error) {
	query := `SELECT ` + poolColumns + ` FROM pools ORDER BY address LIMIT $1 OFFSET $2`
	return selectAll(ctx, r.pool, scanPool, query, limitArg(limit), offset)
}

const operationColumns = `id, signature, slot, event_index, pool, operation, actor, direction,
	amount_in, amount_out, native_reserve, token_reserve, created_at`

const insertOperation = `
	INSERT INTO operations (` + operationColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	ON CONFLICT (signature, event_index) DO NOTHING
`

func scanOperation(row pgx.Row) (*storage.OperationModel, error) {
	var op storage.OperationModel
	err := row.Scan(
		&op.ID, &op.Signature, &op.Slot, &op.EventIndex, &op.Pool, &op.Operation, &op.Actor, &op.Direction,
		(*uint64Numeric)(&op.AmountIn), (*uint64Numeric)(&op.AmountOut),
		(*uint64Numeric)(&op.NativeReserve), (*uint64Numeric)(&op.TokenReserve), &op.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &op, nil
}

func operationArgs(op *storage.OperationModel) []interface{} {
	return []interface{}{
		op.ID, op.Signature, op.Slot, op.EventIndex, op.Pool, op.Operation, op.Actor, op.Direction,
		uint64Numeric(op.AmountIn), uint64Numeric(op.AmountOut),
		uint64Numeric(op.NativeReserve), uint64Numeric(op.TokenReserve), op.CreatedAt,
	}
}

type postgresOperationRepository struct {
	pool *pgxpool.Pool
}

func (r *postgresOperationRepository) Save(ctx context.Context, op *storage.OperationModel) error {
	_, err := r.pool.Exec(ctx, insertOperation, operationArgs(op)...)
	return err
}

func (r *postgresOperationRepository) SaveBatch(ctx context.Context, ops []*storage.OperationModel) error {
	return storage.PgxExecAll(ctx, r.pool, ops, func(batch *pgx.Batch, op *storage.OperationModel) {
		batch.Queue(insertOperation, operationArgs(op)...)
	})
}

func (r *postgresOperationRepository) FindBySignature(ctx context.Context, signature string) ([]*storage.OperationModel, error) {
	query := `SELECT ` + operationColumns + ` FROM operations WHERE signature = $1 ORDER BY event_index`
	return selectAll(ctx, r.pool, scanOperation, query, signature)
}

func (r *postgresOperationRepository) FindByPool(ctx context.Context, pool string, limit int, offset int) ([]*storage.OperationModel, error) {
	query := `SELECT ` + operationColumns + ` FROM operations WHERE pool = $1
		ORDER BY slot DESC, event_index DESC LIMIT $2 OFFSET $3`
	return selectAll(ctx, r.pool, scanOperation, query, pool, limitArg(limit), offset)
}

func (r *postgresOperationRepository) FindByActor(ctx context.Context, actor string, limit int, offset int) ([]*storage.OperationModel, error) {
	query := `SELECT ` + operationColumns + ` FROM operations WHERE actor = $1
		ORDER BY slot DESC, event_index DESC LIMIT $2 OFFSET $3`
	return selectAll(ctx, r.pool, scanOperation, query, actor, limitArg(limit), offset)
}

const transactionColumns = `id, signature, slot, fee_payer, success, error_code, error_message,
	instructions, log_messages, created_at`

func scanTransaction(row pgx.Row) (*storage.TransactionModel, error) {
	var tx storage.TransactionModel
	err := row.Scan(
		&tx.ID, &tx.Signature, &tx.Slot, &tx.FeePayer, &tx.Success, &tx.ErrorCode, &tx.ErrorMessage,
		&tx.Instructions, &tx.LogMessages, &tx.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

type postgresTransactionRepository struct {
	pool *pgxpool.Pool
}

func (r *postgresTransactionRepository) Save(ctx context.Context, tx *storage.TransactionModel) error {
	query := `
		INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (signature) DO UPDATE SET
			slot = $3, success = $5, error_code = $6, error_message = $7, log_messages = $9
	`
	_, err := r.pool.Exec(ctx, query,
		tx.ID, tx.Signature, tx.Slot, tx.FeePayer, tx.Success, tx.ErrorCode, tx.ErrorMessage,
		tx.Instructions, tx.LogMessages, tx.CreatedAt,
	)
	return err
}

func (r *postgresTransactionRepository) FindBySignature(ctx context.Context, signature string) (*storage.TransactionModel, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE signature = $1`
	return selectOne(ctx, r.pool, scanTransaction, query, signature)
}

func (r *postgresTransactionRepository) FindRecent(ctx context.Context, limit int) ([]*storage.TransactionModel, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions ORDER BY slot DESC LIMIT $1`
	return selectAll(ctx, r.pool, scanTransaction, query, limitArg(limit))
}

func init() {
	storage.Register(storage.DatabaseTypePostgres, func(ctx context.Context, cfg *config.DatabaseConfig) (storage.Repository, error) {
		return NewPostgresRepository(ctx, &cfg.Postgres)
	})
}
