package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"cohort-points-bot/internal/model"
)

const txColumns = `id, user_id, points, reason, generation, week, from_user_id, to_user_id, admin_id, note, created_at`

// TransactionRepository handles the append-only transaction log. Rows are
// never updated or deleted.
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates a new TransactionRepository instance.
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

func scanTransaction(row pgx.Row) (*model.Transaction, error) {
	var tx model.Transaction
	err := row.Scan(
		&tx.ID,
		&tx.UserID,
		&tx.Points,
		&tx.Reason,
		&tx.Generation,
		&tx.Week,
		&tx.FromUserID,
		&tx.ToUserID,
		&tx.AdminID,
		&tx.Note,
		&tx.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

// Append inserts the transaction and increments the target user's cached
// total by the same delta, inside one database transaction so the cache
// can never drift from the log on a crash between the two writes.
func (r *TransactionRepository) Append(ctx context.Context, tx *model.Transaction) (*model.Transaction, error) {
	dbtx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer dbtx.Rollback(ctx)

	const insert = `
		INSERT INTO transactions (user_id, points, reason, generation, week, from_user_id, to_user_id, admin_id, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		RETURNING ` + txColumns

	persisted, err := scanTransaction(dbtx.QueryRow(ctx, insert,
		tx.UserID, tx.Points, tx.Reason, tx.Generation, tx.Week,
		tx.FromUserID, tx.ToUserID, tx.AdminID, tx.Note,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to insert transaction: %w", err)
	}

	const increment = `
		UPDATE users
		SET total_points = total_points + $2, updated_at = NOW()
		WHERE platform_id = $1
	`
	result, err := dbtx.Exec(ctx, increment, tx.UserID, tx.Points)
	if err != nil {
		return nil, fmt.Errorf("failed to increment user points: %w", err)
	}
	if result.RowsAffected() == 0 {
		return nil, ErrUserNotFound
	}

	if err := dbtx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return persisted, nil
}

// ListByUser retrieves a user's transactions, newest first.
func (r *TransactionRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*model.Transaction, error) {
	query := `
		SELECT ` + txColumns + `
		FROM transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var transactions []*model.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}
	return transactions, nil
}

// SumByUser recomputes a user's balance from the log. The cached
// users.total_points must always equal this sum; used by consistency
// checks, never on the hot path.
func (r *TransactionRepository) SumByUser(ctx context.Context, userID string) (int64, error) {
	const query = `SELECT COALESCE(SUM(points), 0) FROM transactions WHERE user_id = $1`

	var sum int64
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&sum); err != nil {
		return 0, fmt.Errorf("failed to sum transactions: %w", err)
	}
	return sum, nil
}

// CountByUserAndReason counts a user's transactions with the given reason.
func (r *TransactionRepository) CountByUserAndReason(ctx context.Context, userID, reason string) (int, error) {
	const query = `SELECT COUNT(*) FROM transactions WHERE user_id = $1 AND reason = $2`

	var count int
	if err := r.pool.QueryRow(ctx, query, userID, reason).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return count, nil
}
