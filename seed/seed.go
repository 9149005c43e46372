// Package seed loads demo data with goose, tracked apart from schema migrations.
package seed

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strings"

	"github.com/pressly/goose/v3"

	"github.com/smis/sso/migrate"
)

// seedFS holds embedded SQL seed files in seed/sql.
//
//go:embed sql/*.sql
var seedFS embed.FS

// Options defines how to run seed migrations.
type Options struct {
	Driver  string      // postgres or sqlite
	DSN     string      // e.g., ./sso.db for sqlite, or full DSN for postgres
	Command string      // up, down, status, version, up-to, down-to, redo, reset
	Target  int64       // used with up-to/down-to
	Logger  *log.Logger // optional logger
}

// Run executes seed migrations based on provided options. If Driver or DSN are empty, it is a no-op.
// The schema must already be migrated.
func Run(opts Options) error {
	if strings.TrimSpace(opts.Driver) == "" || strings.TrimSpace(opts.DSN) == "" {
		return nil
	}
	if !hasValidSeedFiles(seedFS, opts.Logger) {
		return nil
	}
	dialect, _, err := migrate.Dialect(opts.Driver)
	if err != nil {
		return err
	}

	if opts.Logger != nil {
		goose.SetLogger(opts.Logger)
	}
	goose.SetBaseFS(seedFS)
	goose.SetTableName("seed_migrations")
	if err := goose.SetDialect(dialect); err != nil {
		return err
	}

	db, err := sql.Open(opts.Driver, opts.DSN)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	if err := migrate.Exec(db, "sql", opts.Command, opts.Target); err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	return nil
}

// hasValidSeedFiles checks for goose-named files (VERSION_name.sql) in sql/.
func hasValidSeedFiles(fsys fs.FS, logger *log.Logger) bool {
	entries, err := fs.ReadDir(fsys, "sql")
	if err != nil {
		if logger != nil {
			logger.Println("no seed SQL directory found, skipping seed")
		}
		return false
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}
		if idx := strings.Index(name, "_"); idx > 0 {
			return true
		}
	}
	if logger != nil {
		logger.Println("no valid seed SQL files found (files must be named like 00001_name.sql), skipping seed")
	}
	return false
}

// RunFromEnv reads configuration from environment variables and runs seed migrations
// if SEED_ON_START is truthy (1/true/TRUE/True).
//
// Env vars:
// - SEED_ON_START: if true/1, run seed migrations
// - SEED_DRIVER: falls back to MIGRATE_DRIVER, then postgres
// - SEED_DSN: falls back to MIGRATE_DSN, then DATABASE_DSN
// - SEED_CMD: up, down, status, version, up-to, down-to, redo, reset (default: up)
// - SEED_TARGET: integer version for up-to/down-to
func RunFromEnv() error {
	if !migrate.IsTruthy(os.Getenv("SEED_ON_START")) {
		return nil
	}
	var target int64
	if v := migrate.EnvOr("", "SEED_TARGET"); v != "" {
		if _, err := fmt.Sscan(v, &target); err != nil {
			return fmt.Errorf("SEED_TARGET: %w", err)
		}
	}
	return Run(Options{
		Driver:  migrate.EnvOr("postgres", "SEED_DRIVER", "MIGRATE_DRIVER"),
		DSN:     migrate.EnvOr("", "SEED_DSN", "MIGRATE_DSN", "DATABASE_DSN"),
		Command: migrate.EnvOr("up", "SEED_CMD"),
		Target:  target,
		Logger:  log.New(os.Stdout, "[seed] ", log.LstdFlags),
	})
}
