// Package credits provides SQLite-backed persistence for the credit ledger.
package credits

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/BeneGuydeF/api-ma-spiritualite/internal/common"
	"github.com/BeneGuydeF/api-ma-spiritualite/internal/dbx"
	"github.com/BeneGuydeF/api-ma-spiritualite/internal/models"
)

const timeLayout = time.RFC3339

// SQLiteRepository implements ledger storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository constructs a repository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Balance(ctx context.Context, userID int64) (int64, error) {
	var balance int64
	err := r.db.QueryRowContext(ctx, `SELECT credits FROM users WHERE id = ?`, userID).Scan(&balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrNotFound
		}
		return 0, fmt.Errorf("db error: %w", err)
	}
	return balance, nil
}

func (r *SQLiteRepository) ApplyDebit(ctx context.Context, userID, amount int64) (int64, error) {
	query := `
		UPDATE users
		SET credits = credits - ?, updated_at = ?
		WHERE id = ? AND credits >= ?
		RETURNING credits
	`
	var balance int64
	err := r.db.QueryRowContext(ctx, query,
		amount, time.Now().UTC().Format(timeLayout), userID, amount).Scan(&balance)
	if err == nil {
		return balance, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("db error: %w", err)
	}

	// No row matched: tell a missing user apart from a guarded rejection.
	if _, err := r.Balance(ctx, userID); err != nil {
		return 0, err
	}
	return 0, common.ErrInsufficientCredits
}

func (r *SQLiteRepository) ApplyCredit(ctx context.Context, userID, amount int64) (int64, error) {
	query := `
		UPDATE users
		SET credits = credits + ?, updated_at = ?
		WHERE id = ?
		RETURNING credits
	`
	var balance int64
	err := r.db.QueryRowContext(ctx, query,
		amount, time.Now().UTC().Format(timeLayout), userID).Scan(&balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrNotFound
		}
		return 0, fmt.Errorf("db error: %w", err)
	}
	return balance, nil
}

func (r *SQLiteRepository) Append(ctx context.Context, t *models.CreditTransaction) (int64, error) {
	now := time.Now().UTC()

	query := `
		INSERT INTO credit_transactions (user_id, amount, kind, description, external_ref, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		t.UserID, t.Amount, t.Kind, t.Description, t.ExternalRef, now.Format(timeLayout)).Scan(&t.ID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	t.CreatedAt = now
	return t.ID, nil
}

func (r *SQLiteRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]*models.CreditTransaction, error) {
	query := `
		SELECT id, user_id, amount, kind, description, external_ref, created_at
		FROM credit_transactions
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`
	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to select transactions: %w", err)
	}
	defer rows.Close()

	var result []*models.CreditTransaction
	for rows.Next() {
		item := &models.CreditTransaction{}
		var createdAt string
		if err := rows.Scan(&item.ID, &item.UserID, &item.Amount, &item.Kind,
			&item.Description, &item.ExternalRef, &createdAt); err != nil {
			return nil, err
		}
		if item.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) SumByUser(ctx context.Context, userID int64) (int64, error) {
	var total int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM credit_transactions WHERE user_id = ?`, userID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return total, nil
}
