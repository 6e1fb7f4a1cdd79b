package services

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/BeneGuydeF/api-ma-spiritualite/internal/cryptox"
	"github.com/BeneGuydeF/api-ma-spiritualite/internal/logging"
	"github.com/BeneGuydeF/api-ma-spiritualite/internal/models"
	"github.com/BeneGuydeF/api-ma-spiritualite/internal/repositories/repomanager"
	"github.com/stretchr/testify/require"
)

// Low work factor so the suite stays fast; production uses the config floor.
const testIterations = 1_000

const testSecret = "unit-test-service-secret-0123456789"

func discardLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// testEnv is a fully wired service stack over a migrated temp-dir database.
type testEnv struct {
	db       *sql.DB
	rm       repomanager.RepositoryManager
	accounts *AccountService
	keys     *KeyService
	ledger   *LedgerService
	journal  *JournalService
	deriver  *cryptox.Deriver
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := repomanager.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rm := repomanager.NewSQLiteRepositoryManager()
	require.NoError(t, rm.RunMigrations(context.Background(), db))

	logger := discardLogger()
	deriver := cryptox.NewDeriver([]byte(testSecret), testIterations, 2)

	keys := NewKeyService(db, rm, logger)
	ledger := NewLedgerService(db, rm, logger)

	return &testEnv{
		db:       db,
		rm:       rm,
		accounts: NewAccountService(db, rm, logger),
		keys:     keys,
		ledger:   ledger,
		journal:  NewJournalService(db, rm, keys, ledger, deriver, logger),
		deriver:  deriver,
	}
}

func (e *testEnv) register(t *testing.T, email string) *models.User {
	t.Helper()
	user, err := e.accounts.Register(context.Background(), email)
	require.NoError(t, err)
	return user
}

// drain spends the user's whole balance through the ledger.
func (e *testEnv) drain(t *testing.T, userID int64) {
	t.Helper()
	ctx := context.Background()
	balance, err := e.ledger.Balance(ctx, userID)
	require.NoError(t, err)
	if balance > 0 {
		_, err = e.ledger.Debit(ctx, userID, balance, "drain")
		require.NoError(t, err)
	}
}
