package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"math"

	"github.com/lugondev/go-swappool/internal/storage"
)

type scanner interface {
	Scan(dest ...interface{}) error
}

// limitArg maps a non-positive limit to the largest value MySQL accepts, since LIMIT has no NULL form.
func limitArg(limit int) uint64 {
	if limit <= 0 {
		return math.MaxUint64
	}
	return uint64(limit)
}

func queryMany[T any](ctx context.Context, db *sql.DB, query string, scan func(scanner) (*T, error), args ...interface{}) ([]*T, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func queryOne[T any](ctx context.Context, db *sql.DB, query string, scan func(scanner) (*T, error), args ...interface{}) (*T, error) {
	item, err := scan(db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return item, err
}

const poolColumns = `id, address, program_id, authority, token_mint, native_custody, token_custody,
	native_reserve, token_reserve, paused, slot, updated_at, created_at`

func scanPool(row scanner) (*storage.PoolModel, error) {
	var p storage.PoolModel
	err := row.Scan(
		&p.ID, &p.Address, &p.ProgramID, &p.Authority, &p.TokenMint, &p.NativeCustody, &p.TokenCustody,
		&p.NativeReserve, &p.TokenReserve, &p.Paused, &p.Slot, &p.UpdatedAt, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

type mysqlPoolRepository struct {
	db *sql.DB
}

func (r *mysqlPoolRepository) Save(ctx context.Context, p *storage.PoolModel) error {
	query := `
		INSERT INTO pools (` + poolColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			native_reserve = VALUES(native_reserve),
			token_reserve = VALUES(token_reserve),
			paused = VALUES(paused),
			slot = VALUES(slot),
			updated_at = VALUES(updated_at)
	`
	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.Address, p.ProgramID, p.Authority, p.TokenMint, p.NativeCustody, p.TokenCustody,
		p.NativeReserve, p.TokenReserve, p.Paused, p.Slot, p.UpdatedAt, p.CreatedAt,
	)
	return err
}

func (r *mysqlPoolRepository) FindByAddress(ctx context.Context, address string) (*storage.PoolModel, error) {
	return queryOne(ctx, r.db, `SELECT `+poolColumns+` FROM pools WHERE address = ?`, scanPool, address)
}

func (r *mysqlPoolRepository) FindByAuthority(ctx context.Context, authority string, limit int, offset int) ([]*storage.PoolModel, error) {
	query := `SELECT ` + poolColumns + ` FROM pools WHERE authority = ? ORDER BY address LIMIT ? OFFSET ?`
	return queryMany(ctx, r.db, query, scanPool, authority, limitArg(limit), offset)
}

func (r *mysqlPoolRepository) FindAll(ctx context.Context, limit int, offset int) ([]*storage.PoolModel, error) {
	query := `SELECT ` + poolColumns + ` FROM pools ORDER BY address LIMIT ? OFFSET ?`
	return queryMany(ctx, r.db, query, scanPool, limitArg(limit), offset)
}

const operationColumns = `id, signature, slot, event_index, pool, operation, actor, direction,
	amount_in, amount_out, native_reserve, token_reserve, created_at`

const insertOperation = `INSERT IGNORE INTO operations (` + operationColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func scanOperation(row scanner) (*storage.OperationModel, error) {
	var op storage.OperationModel
	err := row.Scan(
		&op.ID, &op.Signature, &op.Slot, &op.EventIndex, &op.Pool, &op.Operation, &op.Actor, &op.Direction,
		&op.AmountIn, &op.AmountOut, &op.NativeReserve, &op.TokenReserve, &op.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &op, nil
}

type mysqlOperationRepository struct {
	db *sql.DB
}

func (r *mysqlOperationRepository) Save(ctx context.Context, op *storage.OperationModel) error {
	return r.SaveBatch(ctx, []*storage.OperationModel{op})
}

func (r *mysqlOperationRepository) SaveBatch(ctx context.Context, ops []*storage.OperationModel) error {
	return storage.SQLExecAll(ctx, r.db, insertOperation, ops, func(op *storage.OperationModel) []any {
		return []any{
			op.ID, op.Signature, op.Slot, op.EventIndex, op.Pool, op.Operation, op.Actor, op.Direction,
			op.AmountIn, op.AmountOut, op.NativeReserve, op.TokenReserve, op.CreatedAt,
		}
	})
}

func (r *mysqlOperationRepository) FindBySignature(ctx context.Context, signature string) ([]*storage.OperationModel, error) {
	query := `SELECT ` + operationColumns + ` FROM operations WHERE signature = ? ORDER BY event_index`
	return queryMany(ctx, r.db, query, scanOperation, signature)
}

func (r *mysqlOperationRepository) FindByPool(ctx context.Context, pool string, limit int, offset int) ([]*storage.OperationModel, error) {
	query := `SELECT ` + operationColumns + ` FROM operations WHERE pool = ?
		ORDER BY slot DESC, event_index DESC LIMIT ? OFFSET ?`
	return queryMany(ctx, r.db, query, scanOperation, pool, limitArg(limit), offset)
}

func (r *mysqlOperationRepository) FindByActor(ctx context.Context, actor string, limit int, offset int) ([]*storage.OperationModel, error) {
	query := `SELECT ` + operationColumns + ` FROM operations WHERE actor = ?
		ORDER BY slot DESC, event_index DESC LIMIT ? OFFSET ?`
	return queryMany(ctx, r.db, query, scanOperation, actor, limitArg(limit), offset)
}

const transactionColumns = `id, signature, slot, fee_payer, success, error_code, error_message,
	instructions, log_messages, created_at`

func scanTransaction(row scanner) (*storage.TransactionModel, error) {
	var tx storage.TransactionModel
	var errorMessage sql.NullString
	var instructionsJSON, logMessagesJSON []byte
	err := row.Scan(
		&tx.ID, &tx.Signature, &tx.Slot, &tx.FeePayer, &tx.Success, &tx.ErrorCode, &errorMessage,
		&instructionsJSON, &logMessagesJSON, &tx.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	tx.ErrorMessage = errorMessage.String

	if err := json.Unmarshal(instructionsJSON, &tx.Instructions); err != nil {
		return nil, err
	}
	if logMessagesJSON != nil {
		if err := json.Unmarshal(logMessagesJSON, &tx.LogMessages); err != nil {
			return nil, err
		}
	}
	return &tx, nil
}

type mysqlTransactionRepository struct {
	db *sql.DB
}

func (r *mysqlTransactionRepository) Save(ctx context.Context, tx *storage.TransactionModel) error {
	instructions := tx.Instructions
	if instructions == nil {
		instructions = []string{}
	}
	instructionsJSON, err := json.Marshal(instructions)
	if err != nil {
		return err
	}

	var logMessagesJSON []byte
	if tx.LogMessages != nil {
		logMessagesJSON, err = json.Marshal(tx.LogMessages)
		if err != nil {
			return err
		}
	}

	query := `
		INSERT INTO transactions (` + transactionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			slot = VALUES(slot),
			success = VALUES(success),
			error_code = VALUES(error_code),
			error_message = VALUES(error_message),
			log_messages = VALUES(log_messages)
	`
	_, err = r.db.ExecContext(ctx, query,
		tx.ID, tx.Signature, tx.Slot, tx.FeePayer, tx.Success, tx.ErrorCode, tx.ErrorMessage,
		instructionsJSON, logMessagesJSON, tx.CreatedAt,
	)
	return err
}

func (r *mysqlTransactionRepository) FindBySignature(ctx context.Context, signature string) (*storage.TransactionModel, error) {
	return queryOne(ctx, r.db, `SELECT `+transactionColumns+` FROM transactions WHERE signature = ?`, scanTransaction, signature)
}

func (r *mysqlTransactionRepository) FindRecent(ctx context.Context, limit int) ([]*storage.TransactionModel, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions ORDER BY slot DESC LIMIT ?`
	return queryMany(ctx, r.db, query, scanTransaction, limitArg(limit))
}
