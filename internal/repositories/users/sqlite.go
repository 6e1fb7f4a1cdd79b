// Package users provides SQLite-backed persistence for the account
// directory rows.
package users

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

// SQLiteRepository implements user storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository constructs a repository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	now := time.Now().UTC()

	query := `
		INSERT INTO users (email, credits, encryption_salt, created_at, updated_at)
		VALUES (?, 0, ?, ?, ?)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		user.Email, user.EncryptionSalt, now.Format(timeLayout), now.Format(timeLayout)).Scan(&user.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	user.Credits = 0
	user.CreatedAt = now
	user.UpdatedAt = now
	return user, nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := `
		SELECT id, email, credits, encryption_salt, created_at, updated_at
		FROM users
		WHERE id = ?
	`
	return r.scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *SQLiteRepository) EnsureSalt(ctx context.Context, id int64, candidate []byte) ([]byte, error) {
	claim := `
		UPDATE users
		SET encryption_salt = ?, updated_at = ?
		WHERE id = ? AND encryption_salt IS NULL
	`
	if _, err := r.db.ExecContext(ctx, claim, candidate, time.Now().UTC().Format(timeLayout), id); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	// Read back whatever won: our candidate or a concurrent claimer's.
	var salt []byte
	err := r.db.QueryRowContext(ctx, `SELECT encryption_salt FROM users WHERE id = ?`, id).Scan(&salt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if len(salt) == 0 {
		return nil, common.ErrKeyMissing
	}
	return salt, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected error: %w", err)
	}
	return n > 0, nil
}

func (r *SQLiteRepository) SelectAll(ctx context.Context) ([]*models.User, error) {
	query := `
		SELECT id, email, credits, encryption_salt, created_at, updated_at
		FROM users
		ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select users: %w", err)
	}
	defer rows.Close()

	var result []*models.User
	for rows.Next() {
		u, err := r.scanUserRows(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) scanUser(row *sql.Row) (*models.User, error) {
	u := &models.User{}
	var createdAt, updatedAt string
	err := row.Scan(&u.ID, &u.Email, &u.Credits, &u.EncryptionSalt, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, r.parseTimes(u, createdAt, updatedAt)
}

func (r *SQLiteRepository) scanUserRows(rows *sql.Rows) (*models.User, error) {
	u := &models.User{}
	var createdAt, updatedAt string
	if err := rows.Scan(&u.ID, &u.Email, &u.Credits, &u.EncryptionSalt, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	return u, r.parseTimes(u, createdAt, updatedAt)
}

func (r *SQLiteRepository) parseTimes(u *models.User, createdAt, updatedAt string) error {
	var err error
	if u.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return fmt.Errorf("parse created_at: %w", err)
	}
	if u.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
		return fmt.Errorf("parse updated_at: %w", err)
	}
	return nil
}
