package services

import (
	"context"
	"database/sql"

	"github.com/BeneGuydeF/api-ma-spiritualite/internal/dbx"
	"github.com/BeneGuydeF/api-ma-spiritualite/internal/logging"
	"github.com/BeneGuydeF/api-ma-spiritualite/internal/models"
	"github.com/BeneGuydeF/api-ma-spiritualite/internal/repositories/repomanager"
	"github.com/google/uuid"
)

// LedgerService implements the credit ledger. Every balance change commits
// together with its log row in one short-lived transaction, so the
// materialized balance can never drift from the sum of the log.
type LedgerService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewLedgerService(db *sql.DB, rm repomanager.RepositoryManager, logger logging.Logger) *LedgerService {
	return &LedgerService{db: db, repomanager: rm, logger: logger}
}

// Balance reads the materialized balance.
func (s *LedgerService) Balance(ctx context.Context, userID int64) (int64, error) {
	balance, err := s.repomanager.Credits(s.db).Balance(ctx, userID)
	return balance, asStorageErr("balance", err)
}

// Debit atomically decrements the balance and appends a usage row. A debit
// the balance cannot cover fails with common.ErrInsufficientCredits before
// any mutation.
func (s *LedgerService) Debit(ctx context.Context, userID, amount int64, description string) (int64, error) {
	if amount <= 0 {
		return 0, validationErr("debit amount must be positive, got %d", amount)
	}

	var newBalance int64
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Credits(tx)

		balance, err := repo.ApplyDebit(ctx, userID, amount)
		if err != nil {
			return err
		}

		_, err = repo.Append(ctx, &models.CreditTransaction{
			UserID:      userID,
			Amount:      -amount,
			Kind:        models.TransactionKindUsage,
			Description: description,
		})
		if err != nil {
			return err
		}

		newBalance = balance
		return nil
	})
	if err != nil {
		return 0, asStorageErr("debit", err)
	}

	s.logger.Info(ctx, "credits debited", "user_id", userID, "amount", amount, "balance", newBalance)
	return newBalance, nil
}

// Credit atomically increments the balance and appends a purchase or refund
// row. externalRef ties the row to a payment-provider event; when the
// caller has none (operator grants), a generated reference keeps the audit
// trail addressable.
func (s *LedgerService) Credit(ctx context.Context, userID, amount int64, kind, externalRef, description string) (int64, error) {
	if amount <= 0 {
		return 0, validationErr("credit amount must be positive, got %d", amount)
	}
	if kind != models.TransactionKindPurchase && kind != models.TransactionKindRefund {
		return 0, validationErr("credit kind must be purchase or refund, got %q", kind)
	}
	if externalRef == "" {
		externalRef = uuid.NewString()
	}

	var newBalance int64
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Credits(tx)

		balance, err := repo.ApplyCredit(ctx, userID, amount)
		if err != nil {
			return err
		}

		_, err = repo.Append(ctx, &models.CreditTransaction{
			UserID:      userID,
			Amount:      amount,
			Kind:        kind,
			Description: description,
			ExternalRef: externalRef,
		})
		if err != nil {
			return err
		}

		newBalance = balance
		return nil
	})
	if err != nil {
		return 0, asStorageErr("credit", err)
	}

	s.logger.Info(ctx, "credits added", "user_id", userID, "amount", amount,
		"kind", kind, "external_ref", externalRef, "balance", newBalance)
	return newBalance, nil
}

// History returns the most recent ledger rows for the user, newest first.
func (s *LedgerService) History(ctx context.Context, userID int64, limit int) ([]*models.CreditTransaction, error) {
	if limit <= 0 {
		limit = 50
	}
	list, err := s.repomanager.Credits(s.db).ListByUser(ctx, userID, limit)
	return list, asStorageErr("history", err)
}
