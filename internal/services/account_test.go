package services

import (
	"context"
	"testing"

	"github.com/BeneGuydeF/api-ma-spiritualite/internal/common"
	"github.com/BeneGuydeF/api-ma-spiritualite/internal/cryptox"
	"github.com/BeneGuydeF/api-ma-spiritualite/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister_GrantsSignupCreditsThroughLedger(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := env.register(t, "Alice@Example.com ")
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, int64(SignupCredits), user.Credits)
	assert.Len(t, user.EncryptionSalt, cryptox.SaltSize)

	// The grant is a ledger movement, not a raw column write.
	history, err := env.ledger.History(ctx, user.ID, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.TransactionKindPurchase, history[0].Kind)
	assert.Equal(t, int64(SignupCredits), history[0].Amount)

	sum, err := env.rm.Credits(env.db).SumByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Credits, sum)
}

func TestRegister_InvalidEmail(t *testing.T) {
	env := newTestEnv(t)

	for _, email := range []string{"", "   ", "no-at-sign"} {
		_, err := env.accounts.Register(context.Background(), email)
		require.ErrorIs(t, err, common.ErrValidation, "email %q", email)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.register(t, "dup@example.com")

	_, err := env.accounts.Register(ctx, "dup@example.com")
	require.ErrorIs(t, err, common.ErrStorage)
}

func TestGetUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := env.register(t, "get@example.com")

	got, err := env.accounts.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, got.Email)
	assert.Equal(t, user.EncryptionSalt, got.EncryptionSalt)

	_, err = env.accounts.GetUser(ctx, 9999)
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestDeleteAccount_CascadesEntriesAndLedger(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := env.register(t, "del@example.com")
	_, err := env.journal.CreateEntry(ctx, user.ID, CreateEntryParams{Content: "à supprimer"})
	require.NoError(t, err)

	deleted, err := env.accounts.DeleteAccount(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	count, err := env.rm.Journal(env.db).CountByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	history, err := env.rm.Credits(env.db).ListByUser(ctx, user.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, history)

	deleted, err = env.accounts.DeleteAccount(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}
