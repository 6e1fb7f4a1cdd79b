package journal

import (
	"context"

	"github.com/BeneGuydeF/api-ma-spiritualite/internal/models"
)

// Repository persists encrypted journal entries. Every mutation and fetch
// that names an entry id also names the owner id in the same predicate, so
// a guessed id can never cross account boundaries.
type Repository interface {
	Insert(ctx context.Context, entry *models.JournalEntry) (int64, error)

	// Update replaces title and envelopes for (id, owner). Returns false when
	// no row matched, without distinguishing a missing id from a foreign one.
	Update(ctx context.Context, entry *models.JournalEntry) (bool, error)

	Delete(ctx context.Context, id, userID int64) (bool, error)

	// GetFull returns the entry including envelopes, or common.ErrNotFound.
	GetFull(ctx context.Context, id, userID int64) (*models.JournalEntry, error)

	// ListMetadata returns an envelope-free page of entries, newest first.
	ListMetadata(ctx context.Context, userID int64, limit, offset int) ([]*models.EntryMetadata, error)

	CountByUser(ctx context.Context, userID int64) (int64, error)

	// SearchTitles matches the plaintext title column only.
	SearchTitles(ctx context.Context, userID int64, term string, limit int) ([]*models.EntryMetadata, error)

	Stats(ctx context.Context, userID int64) (*models.JournalStats, error)

	// SelectFullByUser returns every entry of one user with envelopes, for
	// offline maintenance (rekey).
	SelectFullByUser(ctx context.Context, userID int64) ([]*models.JournalEntry, error)
}
