package store

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/smis/sso/errors"
	"github.com/smis/sso/models"
)

func TestApplicationStore_FindByKey(t *testing.T) {
	db, mock, sqlDB := newMockDB(t)
	defer sqlDB.Close()

	rows := sqlmock.NewRows([]string{"id", "key", "name", "description", "default_roles", "default_permissions"}).
		AddRow(int64(1), "A", "Payroll", nil, `["employee"]`, `["payroll:view"]`)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "applications" WHERE key = $1`)).WillReturnRows(rows)

	app, err := NewApplicationStore(db).FindByKey(context.Background(), "A")
	if err != nil {
		t.Fatalf("FindByKey: %v", err)
	}
	if app == nil || app.Name != "Payroll" {
		t.Fatalf("unexpected app %+v", app)
	}
	if len(app.DefaultRoles) != 1 || app.DefaultRoles[0] != "employee" {
		t.Fatalf("unexpected default roles %v", app.DefaultRoles)
	}
	if len(app.DefaultPermissions) != 1 || app.DefaultPermissions[0] != "payroll:view" {
		t.Fatalf("unexpected default permissions %v", app.DefaultPermissions)
	}
}

func TestApplicationStore_FindByKeyMissing(t *testing.T) {
	db, mock, sqlDB := newMockDB(t)
	defer sqlDB.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "applications" WHERE key = $1`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "key"}))

	app, err := NewApplicationStore(db).FindByKey(context.Background(), "missing")
	if err != nil || app != nil {
		t.Fatalf("FindByKey(missing) = %v, %v", app, err)
	}
}

func TestApplicationStore_CreateDuplicate(t *testing.T) {
	db, mock, sqlDB := newMockDB(t)
	defer sqlDB.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "applications" WHERE key = $1`)).
		WithArgs("A").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(1)))
	mock.ExpectRollback()

	err := NewApplicationStore(db).Create(context.Background(), &models.Application{Key: "A", Name: "Payroll"})
	if !errors.Is(err, errors.ErrApplicationExists) {
		t.Fatalf("expected ErrApplicationExists, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestGenerateKey(t *testing.T) {
	seen := map[string]bool{}
	alnum := regexp.MustCompile(`^[A-Za-z0-9]+$`)
	for i := 0; i < 50; i++ {
		key, err := GenerateKey()
		if err != nil {
			t.Fatalf("GenerateKey: %v", err)
		}
		if len(key) == 0 || len(key) > 64 {
			t.Fatalf("key length %d out of range", len(key))
		}
		if !alnum.MatchString(key) {
			t.Fatalf("key %q is not alphanumeric", key)
		}
		if seen[key] {
			t.Fatalf("duplicate key %q", key)
		}
		seen[key] = true
	}
}

func TestMemoryApplicationStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryApplicationStore(models.Application{Key: "A", Name: "Payroll"})

	if err := s.Create(ctx, &models.Application{Key: "A", Name: "Other"}); !errors.Is(err, errors.ErrApplicationExists) {
		t.Fatalf("expected ErrApplicationExists, got %v", err)
	}
	b := &models.Application{Key: "B", Name: "Library"}
	if err := s.Create(ctx, b); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if b.DefaultRoles == nil || b.DefaultPermissions == nil {
		t.Fatal("nil default sets must become empty")
	}
	b.Key = "A"
	if err := s.Update(ctx, b); !errors.Is(err, errors.ErrApplicationExists) {
		t.Fatalf("expected ErrApplicationExists on key clash, got %v", err)
	}
	if err := s.Delete(ctx, b.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, b.ID); !errors.Is(err, errors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	apps, _ := s.List(ctx)
	if len(apps) != 1 || apps[0].Key != "A" {
		t.Fatalf("unexpected list %+v", apps)
	}
}
