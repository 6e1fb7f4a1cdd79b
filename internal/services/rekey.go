package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/BeneGuydeF/api-ma-spiritualite/internal/cryptox"
	"github.com/BeneGuydeF/api-ma-spiritualite/internal/dbx"
	"github.com/BeneGuydeF/api-ma-spiritualite/internal/logging"
	"github.com/BeneGuydeF/api-ma-spiritualite/internal/models"
	"github.com/BeneGuydeF/api-ma-spiritualite/internal/repositories/repomanager"
)

// RekeyService re-encrypts every stored envelope under a new service
// secret. This is an offline maintenance operation: it assumes no other
// process is writing to the database while it runs.
type RekeyService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewRekeyService(db *sql.DB, rm repomanager.RepositoryManager, logger logging.Logger) *RekeyService {
	return &RekeyService{db: db, repomanager: rm, logger: logger}
}

// Rekey runs in two passes. The first pass decrypts and re-encrypts every
// entry in memory, so a wrong old secret aborts before a single row is
// touched. The second pass writes the new envelopes, one transaction per
// user. Returns the number of entries rewritten.
func (s *RekeyService) Rekey(ctx context.Context, oldDeriver, newDeriver *cryptox.Deriver) (int, error) {
	userRepo := s.repomanager.Users(s.db)
	journalRepo := s.repomanager.Journal(s.db)

	usersList, err := userRepo.SelectAll(ctx)
	if err != nil {
		return 0, asStorageErr("select users", err)
	}

	rewritten := make(map[int64][]*models.JournalEntry, len(usersList))
	total := 0

	for _, user := range usersList {
		if len(user.EncryptionSalt) == 0 {
			continue
		}

		oldKey, err := oldDeriver.Derive(ctx, user.EncryptionSalt)
		if err != nil {
			return 0, err
		}
		newKey, err := newDeriver.Derive(ctx, user.EncryptionSalt)
		if err != nil {
			return 0, err
		}

		entries, err := journalRepo.SelectFullByUser(ctx, user.ID)
		if err != nil {
			return 0, asStorageErr("select entries", err)
		}

		for _, entry := range entries {
			if err := reencryptEntry(entry, oldKey, newKey); err != nil {
				return 0, fmt.Errorf("entry %d of user %d: %w", entry.ID, user.ID, err)
			}
		}

		rewritten[user.ID] = entries
		total += len(entries)
	}

	for userID, entries := range rewritten {
		err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
			repo := s.repomanager.Journal(tx)
			for _, entry := range entries {
				changed, err := repo.Update(ctx, entry)
				if err != nil {
					return err
				}
				if !changed {
					return fmt.Errorf("entry %d vanished during rekey", entry.ID)
				}
			}
			return nil
		})
		if err != nil {
			return 0, asStorageErr("apply rekey", err)
		}
		s.logger.Info(ctx, "user rekeyed", "user_id", userID, "entries", len(entries))
	}

	return total, nil
}

func reencryptEntry(entry *models.JournalEntry, oldKey, newKey []byte) error {
	content, err := cryptox.Decrypt(&entry.Content, oldKey)
	if err != nil {
		return err
	}
	env, err := cryptox.Encrypt(content, newKey)
	if err != nil {
		return err
	}
	entry.Content = *env

	if entry.Tags != nil {
		tagPlain, err := cryptox.Decrypt(entry.Tags, oldKey)
		if err != nil {
			return err
		}
		if entry.Tags, err = cryptox.Encrypt(tagPlain, newKey); err != nil {
			return err
		}
	}
	return nil
}
