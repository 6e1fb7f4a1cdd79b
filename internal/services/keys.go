// Package services contains the business logic of the journal core: key
// material provisioning, the credit ledger, and the write/read pipelines
// over encrypted entries.
package services

import (
	"context"
	"database/sql"

	"github.com/BeneGuydeF/api-ma-spiritualite/internal/common"
	"github.com/BeneGuydeF/api-ma-spiritualite/internal/cryptox"
	"github.com/BeneGuydeF/api-ma-spiritualite/internal/logging"
	"github.com/BeneGuydeF/api-ma-spiritualite/internal/repositories/repomanager"
)

// KeyService owns per-user key material. Salts are generated once and never
// change; a user row without a salt is a provisioning gap that gets closed
// lazily on first use.
type KeyService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewKeyService(db *sql.DB, rm repomanager.RepositoryManager, logger logging.Logger) *KeyService {
	return &KeyService{db: db, repomanager: rm, logger: logger}
}

// EnsureSalt returns the user's encryption salt, provisioning one on first
// use. Concurrent first calls race on a conditional claim in the store and
// both return the single winning value.
func (s *KeyService) EnsureSalt(ctx context.Context, userID int64) ([]byte, error) {
	userRepo := s.repomanager.Users(s.db)

	user, err := userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(user.EncryptionSalt) > 0 {
		return user.EncryptionSalt, nil
	}

	salt, err := userRepo.EnsureSalt(ctx, userID, common.GenerateRandByteArray(cryptox.SaltSize))
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "provisioned encryption salt", "user_id", userID)
	return salt, nil
}
