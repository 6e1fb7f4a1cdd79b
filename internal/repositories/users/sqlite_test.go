package users_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/BeneGuydeF/api-ma-spiritualite/internal/common"
	"github.com/BeneGuydeF/api-ma-spiritualite/internal/models"
	"github.com/BeneGuydeF/api-ma-spiritualite/internal/repositories/repomanager"
	"github.com/BeneGuydeF/api-ma-spiritualite/internal/repositories/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRepo(t *testing.T) *users.SQLiteRepository {
	t.Helper()
	db, err := repomanager.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rm := repomanager.NewSQLiteRepositoryManager()
	require.NoError(t, rm.RunMigrations(context.Background(), db))

	return users.NewSQLiteRepository(db)
}

func TestCreateAndGetByID(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	salt := []byte("0123456789abcdef0123456789abcdef")
	created, err := repo.Create(ctx, &models.User{Email: "alice@example.com", EncryptionSalt: salt})
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	assert.Zero(t, created.Credits)

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", got.Email)
	assert.Equal(t, salt, got.EncryptionSalt)
	assert.Zero(t, got.Credits)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestGetByID_NotFound(t *testing.T) {
	repo := setupRepo(t)

	_, err := repo.GetByID(context.Background(), 9999)
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestCreate_DuplicateEmail(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, &models.User{Email: "dup@example.com"})
	require.NoError(t, err)
	_, err = repo.Create(ctx, &models.User{Email: "dup@example.com"})
	require.Error(t, err)
}

func TestEnsureSalt_ClaimsWhenMissing(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	u, err := repo.Create(ctx, &models.User{Email: "bob@example.com"})
	require.NoError(t, err)

	candidate := []byte("first-candidate-first-candidate!")
	salt, err := repo.EnsureSalt(ctx, u.ID, candidate)
	require.NoError(t, err)
	assert.Equal(t, candidate, salt)

	// A later call with a different candidate must return the stored winner.
	other := []byte("other-candidate-other-candidate!")
	salt2, err := repo.EnsureSalt(ctx, u.ID, other)
	require.NoError(t, err)
	assert.Equal(t, candidate, salt2)
}

func TestEnsureSalt_KeepsExisting(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	existing := []byte("existing-salt-existing-salt-32b!")
	u, err := repo.Create(ctx, &models.User{Email: "carol@example.com", EncryptionSalt: existing})
	require.NoError(t, err)

	salt, err := repo.EnsureSalt(ctx, u.ID, []byte("loser-candidate-loser-candidate!"))
	require.NoError(t, err)
	assert.Equal(t, existing, salt)
}

func TestEnsureSalt_UserNotFound(t *testing.T) {
	repo := setupRepo(t)

	_, err := repo.EnsureSalt(context.Background(), 12345, []byte("candidate"))
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestDelete(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	u, err := repo.Create(ctx, &models.User{Email: "gone@example.com"})
	require.NoError(t, err)

	deleted, err := repo.Delete(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.Delete(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = repo.GetByID(ctx, u.ID)
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestSelectAll(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		_, err := repo.Create(ctx, &models.User{Email: email})
		require.NoError(t, err)
	}

	all, err := repo.SelectAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "a@example.com", all[0].Email)
	assert.Equal(t, "c@example.com", all[2].Email)
}
