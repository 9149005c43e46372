// Package migrate applies the gateway schema with goose.
package migrate

import (
	"database/sql"
	"embed"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// migrationsFS holds embedded SQL migrations, one directory per dialect.
//
//go:embed sql/*/*.sql
var migrationsFS embed.FS

// Options defines how to run migrations.
type Options struct {
	Driver  string      // postgres or sqlite
	DSN     string      // e.g., ./sso.db for sqlite, or full DSN for postgres
	Command string      // up, down, status, version, up-to, down-to, redo, reset
	Target  int64       // used with up-to/down-to
	Logger  *log.Logger // optional logger
}

// Dialect maps a database/sql driver name to the goose dialect and the
// directory holding its migrations.
func Dialect(driver string) (dialect, dir string, err error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "postgres", "pgx":
		return "postgres", "postgres", nil
	case "sqlite", "sqlite3":
		return "sqlite3", "sqlite", nil
	default:
		return "", "", fmt.Errorf("unsupported migration driver: %s", driver)
	}
}

// Exec runs a goose command against dir of the current base FS.
func Exec(db *sql.DB, dir, command string, target int64) error {
	switch strings.ToLower(strings.TrimSpace(command)) {
	case "", "up":
		return goose.Up(db, dir)
	case "down":
		return goose.Down(db, dir)
	case "status":
		return goose.Status(db, dir)
	case "version":
		return goose.Version(db, dir)
	case "up-to":
		return goose.UpTo(db, dir, target)
	case "down-to":
		return goose.DownTo(db, dir, target)
	case "redo":
		return goose.Redo(db, dir)
	case "reset":
		return goose.Reset(db, dir)
	default:
		return fmt.Errorf("unknown migration command: %s", command)
	}
}

// Run executes migrations based on provided options. If Driver or DSN are empty, it is a no-op.
func Run(opts Options) error {
	if strings.TrimSpace(opts.Driver) == "" || strings.TrimSpace(opts.DSN) == "" {
		return nil
	}
	dialect, dir, err := Dialect(opts.Driver)
	if err != nil {
		return err
	}

	if opts.Logger != nil {
		goose.SetLogger(opts.Logger)
	}
	goose.SetBaseFS(migrationsFS)
	goose.SetTableName("schema_migrations")
	if err := goose.SetDialect(dialect); err != nil {
		return err
	}

	db, err := sql.Open(opts.Driver, opts.DSN)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	return Exec(db, "sql/"+dir, opts.Command, opts.Target)
}

// RunFromEnv reads configuration from environment variables and runs migrations
// if MIGRATE_ON_START is truthy (1/true/TRUE/True).
//
// Env vars:
// - MIGRATE_ON_START: if true/1, run migrations
// - MIGRATE_DRIVER: postgres or sqlite (default postgres)
// - MIGRATE_DSN: db connection string (falls back to DATABASE_DSN)
// - MIGRATE_CMD: up, down, status, version, up-to, down-to, redo, reset (default: up)
// - MIGRATE_TARGET: integer version for up-to/down-to
func RunFromEnv() error {
	if !IsTruthy(os.Getenv("MIGRATE_ON_START")) {
		return nil
	}
	return Run(Options{
		Driver:  EnvOr("postgres", "MIGRATE_DRIVER"),
		DSN:     EnvOr("", "MIGRATE_DSN", "DATABASE_DSN"),
		Command: EnvOr("up", "MIGRATE_CMD"),
		Target:  envInt("MIGRATE_TARGET"),
		Logger:  log.New(os.Stdout, "[migrate] ", log.LstdFlags),
	})
}

// EnvOr returns the first non-empty variable among keys, else def.
func EnvOr(def string, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return def
}

func envInt(key string) int64 {
	n, _ := strconv.ParseInt(strings.TrimSpace(os.Getenv(key)), 10, 64)
	return n
}

// IsTruthy reports whether v spells a true flag.
func IsTruthy(v string) bool {
	s := strings.TrimSpace(strings.ToLower(v))
	return s == "1" || s == "true" || s == "yes" || s == "y"
}
