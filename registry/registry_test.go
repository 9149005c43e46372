package registry

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/smis/sso/errors"
	"github.com/smis/sso/models"
)

type countingStore struct {
	apps  map[string]models.Application
	calls int
	err   error
}

func (s *countingStore) FindByKey(ctx context.Context, key string) (*models.Application, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	app, ok := s.apps[key]
	if !ok {
		return nil, nil
	}
	return &app, nil
}

func newStore() *countingStore {
	return &countingStore{apps: map[string]models.Application{
		"A": {ID: 1, Key: "A", Name: "Payroll", DefaultRoles: models.StringList{"employee"}},
	}}
}

func TestRequire(t *testing.T) {
	r := New(newStore())
	ctx := context.Background()

	app, err := r.Require(ctx, "A")
	if err != nil || app.Name != "Payroll" {
		t.Fatalf("Require(A) = %+v, %v", app, err)
	}
	if _, err := r.Require(ctx, "a"); !errors.Is(err, errors.ErrUnknownApplication) {
		t.Fatalf("keys are case-sensitive, got %v", err)
	}
	if _, err := r.Require(ctx, ""); !errors.Is(err, errors.ErrUnknownApplication) {
		t.Fatalf("empty key must be unknown, got %v", err)
	}
}

func TestFindRejectsOverlongKey(t *testing.T) {
	s := newStore()
	r := New(s)
	app, err := r.Find(context.Background(), strings.Repeat("k", 65))
	if err != nil || app != nil {
		t.Fatalf("Find(overlong) = %v, %v", app, err)
	}
	if s.calls != 0 {
		t.Fatalf("store should not be queried, got %d calls", s.calls)
	}
}

func TestCacheHitsAndMisses(t *testing.T) {
	s := newStore()
	r := New(s, WithCache(8, time.Minute))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if app, err := r.Find(ctx, "A"); err != nil || app == nil {
			t.Fatalf("Find(A) = %v, %v", app, err)
		}
	}
	if s.calls != 1 {
		t.Fatalf("expected 1 store call, got %d", s.calls)
	}

	_, _ = r.Find(ctx, "B")
	s.apps["B"] = models.Application{ID: 2, Key: "B", Name: "Library"}
	app, err := r.Find(ctx, "B")
	if err != nil || app == nil {
		t.Fatalf("misses must not be cached, got %v, %v", app, err)
	}

	r.Invalidate("A")
	_, _ = r.Find(ctx, "A")
	if s.calls != 4 {
		t.Fatalf("expected 4 store calls, got %d", s.calls)
	}
}

func TestRequireBypassesCache(t *testing.T) {
	s := newStore()
	r := New(s, WithCache(256, time.Minute))
	ctx := context.Background()

	if _, err := r.Require(ctx, "A"); err != nil {
		t.Fatal(err)
	}
	// removed straight from storage, as another replica would
	delete(s.apps, "A")

	if _, err := r.Require(ctx, "A"); !errors.Is(err, errors.ErrUnknownApplication) {
		t.Fatalf("expected ErrUnknownApplication, got %v", err)
	}
	if app, _ := r.Find(ctx, "A"); app != nil {
		t.Fatalf("stale cache entry survived a failed Require: %+v", app)
	}
	if s.calls != 3 {
		t.Fatalf("expected 3 store calls, got %d", s.calls)
	}
}

func TestCachedApplicationIsNotAliased(t *testing.T) {
	r := New(newStore(), WithCache(8, time.Minute))
	ctx := context.Background()
	app, _ := r.Find(ctx, "A")
	app.DefaultRoles[0] = "mutated"

	again, _ := r.Find(ctx, "A")
	if again.DefaultRoles[0] != "employee" {
		t.Fatalf("cache entry was mutated: %v", again.DefaultRoles)
	}
}

func TestStoreFailureIsInfrastructure(t *testing.T) {
	s := newStore()
	s.err = errors.New("connection refused")
	_, err := New(s).Require(context.Background(), "A")
	if !errors.IsInfrastructure(err) {
		t.Fatalf("expected infrastructure error, got %v", err)
	}
	if errors.Is(err, errors.ErrUnknownApplication) {
		t.Fatal("store failure must not look like an unknown application")
	}

	s.err = context.DeadlineExceeded
	_, err = New(s).Require(context.Background(), "A")
	if err != context.DeadlineExceeded {
		t.Fatalf("deadline must propagate verbatim, got %v", err)
	}
}
