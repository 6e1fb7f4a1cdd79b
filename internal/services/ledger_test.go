package services

import (
	"context"
	"errors"
	"testing"

	"github.com/BeneGuydeF/api-ma-spiritualite/internal/common"
	"github.com/BeneGuydeF/api-ma-spiritualite/internal/models"
	"github.com/BeneGuydeF/api-ma-spiritualite/internal/repositories/repomanager"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebit_DecrementsAndLogs(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := env.register(t, "debit@example.com")

	balance, err := env.ledger.Debit(ctx, user.ID, 2, "deux entrées")
	require.NoError(t, err)
	assert.Equal(t, int64(SignupCredits-2), balance)

	history, err := env.ledger.History(ctx, user.ID, 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, models.TransactionKindUsage, history[0].Kind)
	assert.Equal(t, int64(-2), history[0].Amount)
}

func TestDebit_InsufficientLeavesNoTrace(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := env.register(t, "broke@example.com")
	env.drain(t, user.ID)

	before, err := env.ledger.History(ctx, user.ID, 50)
	require.NoError(t, err)

	_, err = env.ledger.Debit(ctx, user.ID, 1, "refusé")
	require.ErrorIs(t, err, common.ErrInsufficientCredits)

	balance, err := env.ledger.Balance(ctx, user.ID)
	require.NoError(t, err)
	assert.Zero(t, balance)

	after, err := env.ledger.History(ctx, user.ID, 50)
	require.NoError(t, err)
	assert.Len(t, after, len(before), "a rejected debit must not append a log row")
}

func TestDebit_Validation(t *testing.T) {
	env := newTestEnv(t)

	for _, amount := range []int64{0, -1} {
		_, err := env.ledger.Debit(context.Background(), 1, amount, "bad")
		require.ErrorIs(t, err, common.ErrValidation)
	}
}

func TestCredit_AddsAndLogs(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := env.register(t, "topup@example.com")

	balance, err := env.ledger.Credit(ctx, user.ID, 10, models.TransactionKindPurchase, "stripe-evt-1", "pack de 10")
	require.NoError(t, err)
	assert.Equal(t, int64(SignupCredits+10), balance)

	history, err := env.ledger.History(ctx, user.ID, 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "stripe-evt-1", history[0].ExternalRef)
}

func TestCredit_GeneratesExternalRef(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := env.register(t, "grant@example.com")

	_, err := env.ledger.Credit(ctx, user.ID, 3, models.TransactionKindRefund, "", "geste commercial")
	require.NoError(t, err)

	history, err := env.ledger.History(ctx, user.ID, 1)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.NotEmpty(t, history[0].ExternalRef)
}

func TestCredit_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.ledger.Credit(ctx, 1, 0, models.TransactionKindPurchase, "", "")
	require.ErrorIs(t, err, common.ErrValidation)

	// usage rows only ever come from Debit.
	_, err = env.ledger.Credit(ctx, 1, 1, models.TransactionKindUsage, "", "")
	require.ErrorIs(t, err, common.ErrValidation)

	_, err = env.ledger.Credit(ctx, 1, 1, "bonus", "", "")
	require.ErrorIs(t, err, common.ErrValidation)
}

func TestLedger_BalanceMatchesLogSum(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := env.register(t, "conserve@example.com")

	_, err := env.ledger.Credit(ctx, user.ID, 10, models.TransactionKindPurchase, "", "")
	require.NoError(t, err)
	_, err = env.ledger.Debit(ctx, user.ID, 4, "")
	require.NoError(t, err)
	_, err = env.ledger.Credit(ctx, user.ID, 2, models.TransactionKindRefund, "", "")
	require.NoError(t, err)
	_, err = env.ledger.Debit(ctx, user.ID, 13, "")
	require.NoError(t, err)

	balance, err := env.ledger.Balance(ctx, user.ID)
	require.NoError(t, err)

	sum, err := env.rm.Credits(env.db).SumByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, balance, sum, "materialized balance must equal the log sum")
}

func TestDebit_CommitFailureSurfaces(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE users`).
		WithArgs(int64(1), sqlmock.AnyArg(), int64(7), int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"credits"}).AddRow(int64(4)))
	mock.ExpectQuery(`INSERT INTO credit_transactions`).
		WithArgs(int64(7), int64(-1), models.TransactionKindUsage, "entry", "", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(11)))
	mock.ExpectCommit().WillReturnError(errors.New("disk full"))

	ledger := NewLedgerService(db, repomanager.NewSQLiteRepositoryManager(), discardLogger())

	_, err = ledger.Debit(context.Background(), 7, 1, "entry")
	require.ErrorIs(t, err, common.ErrStorage)
	require.NoError(t, mock.ExpectationsWereMet())
}
