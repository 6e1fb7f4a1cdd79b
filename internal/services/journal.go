package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/BeneGuydeF/api-ma-spiritualite/internal/common"
	"github.com/BeneGuydeF/api-ma-spiritualite/internal/cryptox"
	"github.com/BeneGuydeF/api-ma-spiritualite/internal/logging"
	"github.com/BeneGuydeF/api-ma-spiritualite/internal/models"
	"github.com/BeneGuydeF/api-ma-spiritualite/internal/repositories/repomanager"
	"github.com/google/uuid"
)

// Validation bounds for entry input.
const (
	MaxTitleLength   = 200
	MaxContentLength = 50_000
	MaxTags          = 20
	MaxTagLength     = 50

	// DefaultTitle labels entries created without one.
	DefaultTitle = "Sans titre"

	// EntryCreditCost is what one journal write consumes.
	EntryCreditCost = 1

	DefaultPageSize = 20
	MaxPageSize     = 50
)

// CreateEntryParams is the write-pipeline input.
type CreateEntryParams struct {
	Title   string
	Content string
	Tags    []string
}

// CreateEntryResult reports the persisted entry and the balance after the
// debit.
type CreateEntryResult struct {
	EntryID   int64
	Title     string
	Balance   int64
	CreatedAt time.Time
}

// UpdateEntryParams carries the owner's patch; nil fields keep the stored
// value.
type UpdateEntryParams struct {
	Title   *string
	Content *string
	Tags    *[]string
}

// EntryPayload is a decrypted entry as returned to the caller.
type EntryPayload struct {
	ID        int64
	Title     string
	Content   string
	Tags      []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// EntryPage is one metadata page plus listing totals.
type EntryPage struct {
	Entries    []*models.EntryMetadata
	Page       int
	Limit      int
	Total      int64
	TotalPages int64
	Stats      *models.JournalStats
}

// JournalService orchestrates the write and read pipelines. Key derivation
// always happens through the bounded deriver and never inside a storage
// transaction.
type JournalService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	keys        *KeyService
	ledger      *LedgerService
	deriver     *cryptox.Deriver
	logger      logging.Logger
}

func NewJournalService(db *sql.DB, rm repomanager.RepositoryManager,
	keys *KeyService, ledger *LedgerService, deriver *cryptox.Deriver, logger logging.Logger) *JournalService {
	return &JournalService{
		db:          db,
		repomanager: rm,
		keys:        keys,
		ledger:      ledger,
		deriver:     deriver,
		logger:      logger,
	}
}

// CreateEntry runs the write pipeline: validate, encrypt, persist, debit.
// The entry is inserted before the debit so no credit is ever spent without
// durable content; if the debit fails the insert is compensated with a
// delete, so an entry never remains persisted without a matching debit.
func (s *JournalService) CreateEntry(ctx context.Context, userID int64, p CreateEntryParams) (*CreateEntryResult, error) {
	log := s.logger.With("req_id", uuid.NewString(), "user_id", userID)

	title, tags, err := validateEntryInput(p.Title, p.Content, p.Tags)
	if err != nil {
		return nil, err
	}

	salt, err := s.keys.EnsureSalt(ctx, userID)
	if err != nil {
		return nil, asStorageErr("ensure salt", err)
	}

	// CPU-bound; runs on the bounded pool, outside any transaction.
	key, err := s.deriver.Derive(ctx, salt)
	if err != nil {
		return nil, err
	}

	contentEnv, err := cryptox.Encrypt([]byte(p.Content), key)
	if err != nil {
		return nil, asStorageErr("encrypt content", err)
	}

	var tagsEnv *cryptox.Envelope
	if len(tags) > 0 {
		if tagsEnv, err = cryptox.EncryptJSON(tags, key); err != nil {
			return nil, asStorageErr("encrypt tags", err)
		}
	}

	entry := &models.JournalEntry{
		UserID:  userID,
		Title:   title,
		Content: *contentEnv,
		Tags:    tagsEnv,
	}
	entryID, err := s.repomanager.Journal(s.db).Insert(ctx, entry)
	if err != nil {
		return nil, asStorageErr("insert entry", err)
	}

	balance, err := s.ledger.Debit(ctx, userID, EntryCreditCost, "Journal entry")
	if err != nil {
		s.compensateInsert(ctx, log, entryID, userID)
		return nil, err
	}

	log.Info(ctx, "entry created", "entry_id", entryID, "balance", balance)
	return &CreateEntryResult{
		EntryID:   entryID,
		Title:     title,
		Balance:   balance,
		CreatedAt: entry.CreatedAt,
	}, nil
}

// compensateInsert deletes an entry persisted by a write whose debit failed.
// A failed compensation leaves an unpaid entry behind; that is loud in the
// logs and gets swept by the next maintenance pass, never silently kept.
func (s *JournalService) compensateInsert(ctx context.Context, log logging.Logger, entryID, userID int64) {
	deleted, err := s.repomanager.Journal(s.db).Delete(ctx, entryID, userID)
	if err != nil {
		log.Error(ctx, "compensating delete failed", "entry_id", entryID, "error", err.Error())
		return
	}
	if !deleted {
		log.Error(ctx, "compensating delete found no entry", "entry_id", entryID)
		return
	}
	log.Warn(ctx, "entry rolled back after debit failure", "entry_id", entryID)
}

// GetEntry runs the read pipeline: fetch, derive, decrypt. A content that
// fails authentication is fatal; a tag envelope that fails degrades to an
// empty tag list so one corrupted field does not hold the whole entry
// hostage. Reading never touches the ledger.
func (s *JournalService) GetEntry(ctx context.Context, userID, entryID int64) (*EntryPayload, error) {
	entry, err := s.repomanager.Journal(s.db).GetFull(ctx, entryID, userID)
	if err != nil {
		return nil, asStorageErr("fetch entry", err)
	}

	salt, err := s.keys.EnsureSalt(ctx, userID)
	if err != nil {
		return nil, asStorageErr("ensure salt", err)
	}
	key, err := s.deriver.Derive(ctx, salt)
	if err != nil {
		return nil, err
	}

	content, err := cryptox.Decrypt(&entry.Content, key)
	if err != nil {
		return nil, err
	}

	tags := []string{}
	if entry.Tags != nil {
		if err := cryptox.DecryptJSON(entry.Tags, key, &tags); err != nil {
			if !errors.Is(err, common.ErrDecryptionFailed) {
				return nil, asStorageErr("decode tags", err)
			}
			s.logger.Warn(ctx, "tag envelope failed authentication, returning empty tags",
				"user_id", userID, "entry_id", entryID)
			tags = []string{}
		}
	}

	return &EntryPayload{
		ID:        entry.ID,
		Title:     entry.Title,
		Content:   string(content),
		Tags:      tags,
		CreatedAt: entry.CreatedAt,
		UpdatedAt: entry.UpdatedAt,
	}, nil
}

// ListEntries returns one metadata page. No key material is needed and no
// cost is charged: envelopes never leave the store.
func (s *JournalService) ListEntries(ctx context.Context, userID int64, page, limit int) (*EntryPage, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	repo := s.repomanager.Journal(s.db)

	entries, err := repo.ListMetadata(ctx, userID, limit, (page-1)*limit)
	if err != nil {
		return nil, asStorageErr("list entries", err)
	}
	total, err := repo.CountByUser(ctx, userID)
	if err != nil {
		return nil, asStorageErr("count entries", err)
	}
	stats, err := repo.Stats(ctx, userID)
	if err != nil {
		return nil, asStorageErr("entry stats", err)
	}

	totalPages := total / int64(limit)
	if total%int64(limit) != 0 {
		totalPages++
	}

	return &EntryPage{
		Entries:    entries,
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
		Stats:      stats,
	}, nil
}

// UpdateEntry re-encrypts and replaces the patched fields of an owned
// entry. The write predicate matches id and owner together, so a guessed id
// can never receive a foreign write. Updates are not metered.
func (s *JournalService) UpdateEntry(ctx context.Context, userID, entryID int64, p UpdateEntryParams) (bool, error) {
	if p.Title == nil && p.Content == nil && p.Tags == nil {
		return false, validationErr("no fields to update")
	}

	entry, err := s.repomanager.Journal(s.db).GetFull(ctx, entryID, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return false, nil
		}
		return false, asStorageErr("fetch entry", err)
	}

	if p.Title != nil {
		title, err := validateTitle(*p.Title)
		if err != nil {
			return false, err
		}
		entry.Title = title
	}

	if p.Content != nil || p.Tags != nil {
		salt, err := s.keys.EnsureSalt(ctx, userID)
		if err != nil {
			return false, asStorageErr("ensure salt", err)
		}
		key, err := s.deriver.Derive(ctx, salt)
		if err != nil {
			return false, err
		}

		if p.Content != nil {
			if err := validateContent(*p.Content); err != nil {
				return false, err
			}
			env, err := cryptox.Encrypt([]byte(*p.Content), key)
			if err != nil {
				return false, asStorageErr("encrypt content", err)
			}
			entry.Content = *env
		}

		if p.Tags != nil {
			tags, err := validateTags(*p.Tags)
			if err != nil {
				return false, err
			}
			entry.Tags = nil
			if len(tags) > 0 {
				if entry.Tags, err = cryptox.EncryptJSON(tags, key); err != nil {
					return false, asStorageErr("encrypt tags", err)
				}
			}
		}
	}

	changed, err := s.repomanager.Journal(s.db).Update(ctx, entry)
	if err != nil {
		return false, asStorageErr("update entry", err)
	}
	if changed {
		s.logger.Info(ctx, "entry updated", "user_id", userID, "entry_id", entryID)
	}
	return changed, nil
}

// DeleteEntry removes an owned entry. Returns false when (id, owner) did
// not match, for foreign and missing ids alike.
func (s *JournalService) DeleteEntry(ctx context.Context, userID, entryID int64) (bool, error) {
	deleted, err := s.repomanager.Journal(s.db).Delete(ctx, entryID, userID)
	if err != nil {
		return false, asStorageErr("delete entry", err)
	}
	if deleted {
		s.logger.Info(ctx, "entry deleted", "user_id", userID, "entry_id", entryID)
	}
	return deleted, nil
}

// Stats reports the user's journal aggregates without paging a listing.
func (s *JournalService) Stats(ctx context.Context, userID int64) (*models.JournalStats, error) {
	stats, err := s.repomanager.Journal(s.db).Stats(ctx, userID)
	return stats, asStorageErr("entry stats", err)
}

// SearchTitles matches against the plaintext title column only; envelopes
// are never scanned.
func (s *JournalService) SearchTitles(ctx context.Context, userID int64, term string, limit int) ([]*models.EntryMetadata, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, validationErr("search term is empty")
	}
	if limit <= 0 || limit > MaxPageSize {
		limit = DefaultPageSize
	}
	list, err := s.repomanager.Journal(s.db).SearchTitles(ctx, userID, term, limit)
	return list, asStorageErr("search titles", err)
}

// validateEntryInput normalizes and bounds-checks entry input. It returns
// the effective title and the trimmed tag list.
func validateEntryInput(title, content string, tags []string) (string, []string, error) {
	title, err := validateTitle(title)
	if err != nil {
		return "", nil, err
	}
	if err := validateContent(content); err != nil {
		return "", nil, err
	}
	cleaned, err := validateTags(tags)
	if err != nil {
		return "", nil, err
	}
	return title, cleaned, nil
}

func validateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = DefaultTitle
	}
	if len(title) > MaxTitleLength {
		return "", validationErr("title exceeds %d characters", MaxTitleLength)
	}
	return title, nil
}

func validateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return validationErr("content is required")
	}
	if len(content) > MaxContentLength {
		return validationErr("content exceeds %d characters", MaxContentLength)
	}
	return nil
}

func validateTags(tags []string) ([]string, error) {
	if len(tags) > MaxTags {
		return nil, validationErr("more than %d tags", MaxTags)
	}
	cleaned := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if len(tag) > MaxTagLength {
			return nil, validationErr("tag exceeds %d characters", MaxTagLength)
		}
		cleaned = append(cleaned, tag)
	}
	return cleaned, nil
}
