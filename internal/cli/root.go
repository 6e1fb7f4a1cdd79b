// Package cli implements the offline maintenance CLI: schema migration,
// account and credit administration, and service-secret rekeying. The
// request boundary serving end users lives elsewhere; everything here
// operates directly on the database file while the service is stopped or
// idle.
package cli

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/BeneGuydeF/api-ma-spiritualite/internal/config"
	"github.com/BeneGuydeF/api-ma-spiritualite/internal/logging"
	"github.com/BeneGuydeF/api-ma-spiritualite/internal/repositories/repomanager"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "spiritualite",
	Short:        "Maintenance tooling for the encrypted journal service",
	SilenceUsage: true,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

// env holds everything an admin command needs. Construction fails fast on
// configuration problems, before the database is touched.
type env struct {
	cfg    *config.Config
	db     *sql.DB
	rm     repomanager.RepositoryManager
	logger logging.Logger
}

func openEnv(ctx context.Context) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	db, err := repomanager.Open(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	rm := repomanager.NewSQLiteRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &env{
		cfg:    cfg,
		db:     db,
		rm:     rm,
		logger: logging.NewDefault(),
	}, nil
}

func (e *env) close() {
	_ = e.db.Close()
}
