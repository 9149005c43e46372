package store

import (
	"database/sql"
	"os"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newMockDB returns a gorm handle whose queries are answered by sqlmock.
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("gorm open: %v", err)
	}
	return db, mock, sqlDB
}

// valkeyAddr returns the address of a test valkey server, skipping when unset.
func valkeyAddr(t *testing.T) string {
	t.Helper()
	addr := strings.TrimSpace(os.Getenv("VALKEY_ADDR"))
	if addr == "" {
		t.Skip("VALKEY_ADDR not set")
	}
	return addr
}
