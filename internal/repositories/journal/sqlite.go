// Package journal provides SQLite-backed persistence for encrypted journal
// entries.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/BeneGuydeF/api-ma-spiritualite/internal/common"
	"github.com/BeneGuydeF/api-ma-spiritualite/internal/cryptox"
	"github.com/BeneGuydeF/api-ma-spiritualite/internal/dbx"
	"github.com/BeneGuydeF/api-ma-spiritualite/internal/models"
)

const timeLayout = time.RFC3339

// SQLiteRepository implements entry storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository constructs a repository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// tagsColumns flattens the optional tags envelope into its three nullable
// columns.
func tagsColumns(env *cryptox.Envelope) (ciphertext, nonce, tag []byte) {
	if env == nil {
		return nil, nil, nil
	}
	return env.Ciphertext, env.Nonce, env.Tag
}

func (r *SQLiteRepository) Insert(ctx context.Context, entry *models.JournalEntry) (int64, error) {
	now := time.Now().UTC()
	tagsCt, tagsNonce, tagsTag := tagsColumns(entry.Tags)

	query := `
		INSERT INTO journal_entries
			(user_id, title, content_ciphertext, content_nonce, content_tag,
			 tags_ciphertext, tags_nonce, tags_tag, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		entry.UserID, entry.Title,
		entry.Content.Ciphertext, entry.Content.Nonce, entry.Content.Tag,
		tagsCt, tagsNonce, tagsTag,
		now.Format(timeLayout), now.Format(timeLayout)).Scan(&entry.ID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	entry.CreatedAt = now
	entry.UpdatedAt = now
	return entry.ID, nil
}

func (r *SQLiteRepository) Update(ctx context.Context, entry *models.JournalEntry) (bool, error) {
	now := time.Now().UTC()
	tagsCt, tagsNonce, tagsTag := tagsColumns(entry.Tags)

	query := `
		UPDATE journal_entries
		SET title = ?, content_ciphertext = ?, content_nonce = ?, content_tag = ?,
			tags_ciphertext = ?, tags_nonce = ?, tags_tag = ?, updated_at = ?
		WHERE id = ? AND user_id = ?
	`
	res, err := r.db.ExecContext(ctx, query,
		entry.Title,
		entry.Content.Ciphertext, entry.Content.Nonce, entry.Content.Tag,
		tagsCt, tagsNonce, tagsTag,
		now.Format(timeLayout),
		entry.ID, entry.UserID)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected error: %w", err)
	}
	if n > 0 {
		entry.UpdatedAt = now
	}
	return n > 0, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id, userID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM journal_entries WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected error: %w", err)
	}
	return n > 0, nil
}

func (r *SQLiteRepository) GetFull(ctx context.Context, id, userID int64) (*models.JournalEntry, error) {
	query := `
		SELECT id, user_id, title, content_ciphertext, content_nonce, content_tag,
			tags_ciphertext, tags_nonce, tags_tag, created_at, updated_at
		FROM journal_entries
		WHERE id = ? AND user_id = ?
	`
	rows, err := r.db.QueryContext(ctx, query, id, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		return nil, common.ErrNotFound
	}
	return scanFullEntry(rows)
}

func (r *SQLiteRepository) ListMetadata(ctx context.Context, userID int64, limit, offset int) ([]*models.EntryMetadata, error) {
	query := `
		SELECT id, title, created_at, updated_at
		FROM journal_entries
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`
	return r.selectMetadata(ctx, query, userID, limit, offset)
}

func (r *SQLiteRepository) CountByUser(ctx context.Context, userID int64) (int64, error) {
	var total int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM journal_entries WHERE user_id = ?`, userID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return total, nil
}

func (r *SQLiteRepository) SearchTitles(ctx context.Context, userID int64, term string, limit int) ([]*models.EntryMetadata, error) {
	query := `
		SELECT id, title, created_at, updated_at
		FROM journal_entries
		WHERE user_id = ? AND title LIKE ? ESCAPE '\'
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`
	return r.selectMetadata(ctx, query, userID, "%"+escapeLike(term)+"%", limit)
}

func (r *SQLiteRepository) Stats(ctx context.Context, userID int64) (*models.JournalStats, error) {
	query := `
		SELECT
			COUNT(*),
			COALESCE(SUM(created_at >= strftime('%Y-%m-%dT%H:%M:%SZ', 'now', '-7 days')), 0),
			COALESCE(SUM(created_at >= strftime('%Y-%m-%dT%H:%M:%SZ', 'now', 'start of month')), 0)
		FROM journal_entries
		WHERE user_id = ?
	`
	s := &models.JournalStats{}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&s.TotalEntries, &s.RecentEntries, &s.ThisMonthEntries)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

func (r *SQLiteRepository) SelectFullByUser(ctx context.Context, userID int64) ([]*models.JournalEntry, error) {
	query := `
		SELECT id, user_id, title, content_ciphertext, content_nonce, content_tag,
			tags_ciphertext, tags_nonce, tags_tag, created_at, updated_at
		FROM journal_entries
		WHERE user_id = ?
		ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select entries: %w", err)
	}
	defer rows.Close()

	var result []*models.JournalEntry
	for rows.Next() {
		e, err := scanFullEntry(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) selectMetadata(ctx context.Context, query string, args ...any) ([]*models.EntryMetadata, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select entries: %w", err)
	}
	defer rows.Close()

	var result []*models.EntryMetadata
	for rows.Next() {
		item := &models.EntryMetadata{}
		var createdAt, updatedAt string
		if err := rows.Scan(&item.ID, &item.Title, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		if item.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		if item.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
			return nil, fmt.Errorf("parse updated_at: %w", err)
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func scanFullEntry(rows *sql.Rows) (*models.JournalEntry, error) {
	e := &models.JournalEntry{}
	var createdAt, updatedAt string
	var tagsCt, tagsNonce, tagsTag []byte

	err := rows.Scan(&e.ID, &e.UserID, &e.Title,
		&e.Content.Ciphertext, &e.Content.Nonce, &e.Content.Tag,
		&tagsCt, &tagsNonce, &tagsTag, &createdAt, &updatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	if tagsCt != nil || tagsNonce != nil || tagsTag != nil {
		e.Tags = &cryptox.Envelope{Ciphertext: tagsCt, Nonce: tagsNonce, Tag: tagsTag}
	}

	if e.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if e.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return e, nil
}

// escapeLike neutralizes LIKE wildcards in a user-provided search term.
func escapeLike(term string) string {
	out := make([]byte, 0, len(term))
	for i := 0; i < len(term); i++ {
		switch term[i] {
		case '%', '_', '\\':
			out = append(out, '\\')
		}
		out = append(out, term[i])
	}
	return string(out)
}
