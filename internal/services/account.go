package services

import (
	"context"
	"database/sql"
	"strings"

	"github.com/BeneGuydeF/api-ma-spiritualite/internal/common"
	"github.com/BeneGuydeF/api-ma-spiritualite/internal/cryptox"
	"github.com/BeneGuydeF/api-ma-spiritualite/internal/dbx"
	"github.com/BeneGuydeF/api-ma-spiritualite/internal/logging"
	"github.com/BeneGuydeF/api-ma-spiritualite/internal/models"
	"github.com/BeneGuydeF/api-ma-spiritualite/internal/repositories/repomanager"
)

// SignupCredits is the welcome grant booked through the ledger at signup,
// so the materialized balance stays a view of the log from day one.
const SignupCredits = 5

// AccountService is the account directory: it creates the user row together
// with its immutable salt and answers lookups for the pipelines.
type AccountService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewAccountService(db *sql.DB, rm repomanager.RepositoryManager, logger logging.Logger) *AccountService {
	return &AccountService{db: db, repomanager: rm, logger: logger}
}

// Register creates a user with a fresh salt and the signup grant, all in
// one transaction: a user row never exists without its salt, and the grant
// never exists without its log row.
func (s *AccountService) Register(ctx context.Context, email string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") || len(email) > 254 {
		return nil, validationErr("invalid email")
	}

	user := &models.User{
		Email:          email,
		EncryptionSalt: common.GenerateRandByteArray(cryptox.SaltSize),
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.repomanager.Users(tx).Create(ctx, user); err != nil {
			return err
		}

		creditRepo := s.repomanager.Credits(tx)
		balance, err := creditRepo.ApplyCredit(ctx, user.ID, SignupCredits)
		if err != nil {
			return err
		}
		if _, err := creditRepo.Append(ctx, &models.CreditTransaction{
			UserID:      user.ID,
			Amount:      SignupCredits,
			Kind:        models.TransactionKindPurchase,
			Description: "Crédits de bienvenue",
		}); err != nil {
			return err
		}

		user.Credits = balance
		return nil
	})
	if err != nil {
		return nil, asStorageErr("register", err)
	}

	s.logger.Info(ctx, "user registered", "user_id", user.ID)
	return user, nil
}

// GetUser resolves a user row: id, balance, salt.
func (s *AccountService) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	return user, asStorageErr("get user", err)
}

// DeleteAccount removes the user; journal entries and ledger rows cascade
// with the row.
func (s *AccountService) DeleteAccount(ctx context.Context, userID int64) (bool, error) {
	deleted, err := s.repomanager.Users(s.db).Delete(ctx, userID)
	if err != nil {
		return false, asStorageErr("delete account", err)
	}
	if deleted {
		s.logger.Info(ctx, "account deleted", "user_id", userID)
	}
	return deleted, nil
}
