package users

import (
	"context"

	"github.com/BeneGuydeF/api-ma-spiritualite/internal/models"
)

// Repository is the account directory: user rows carry the materialized
// credit balance and the per-user encryption salt.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)

	// EnsureSalt returns the user's salt, claiming candidate as the salt if
	// none is stored yet. The claim is a single conditional UPDATE, so two
	// concurrent first calls settle on one winner; both callers get the
	// stored value back.
	EnsureSalt(ctx context.Context, id int64, candidate []byte) ([]byte, error)

	// Delete removes the account; journal entries cascade.
	Delete(ctx context.Context, id int64) (bool, error)

	// SelectAll streams every user, for offline maintenance (rekey).
	SelectAll(ctx context.Context) ([]*models.User, error)
}
