package credits

import (
	"context"

	"github.com/BeneGuydeF/api-ma-spiritualite/internal/models"
)

// Repository persists the credit ledger: the materialized balance on the
// user row and the append-only transaction log. Balance mutation and log
// append are separate calls so the service can wrap both in one
// transaction; neither is ever issued outside one.
type Repository interface {
	// Balance reads the materialized balance column.
	Balance(ctx context.Context, userID int64) (int64, error)

	// ApplyDebit decrements the balance if it covers amount, returning the
	// new balance. The guard is part of the UPDATE predicate itself, so a
	// breach is rejected without any mutation. Returns
	// common.ErrInsufficientCredits or common.ErrNotFound.
	ApplyDebit(ctx context.Context, userID, amount int64) (int64, error)

	// ApplyCredit increments the balance, returning the new balance.
	ApplyCredit(ctx context.Context, userID, amount int64) (int64, error)

	// Append adds a row to the transaction log.
	Append(ctx context.Context, tx *models.CreditTransaction) (int64, error)

	// ListByUser returns the most recent transactions, newest first.
	ListByUser(ctx context.Context, userID int64, limit int) ([]*models.CreditTransaction, error)

	// SumByUser returns the sum of all logged amounts for the user.
	SumByUser(ctx context.Context, userID int64) (int64, error)
}
