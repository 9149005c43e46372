package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gavv/httpexpect/v2"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/juju/clock/testclock"

	"github.com/smis/sso/authorization"
	"github.com/smis/sso/generates"
	"github.com/smis/sso/manage"
	"github.com/smis/sso/models"
	"github.com/smis/sso/registry"
	"github.com/smis/sso/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const cookieName = "smis_refresh_token"

type testEnv struct {
	srv     *Server
	ts      *httptest.Server
	apps    *store.MemoryApplicationStore
	dir     *store.MemoryDirectory
	users   *store.MemoryUserStore
	refresh *store.MemoryRefreshTokenStore
	clk     *testclock.Clock
	gen     *generates.JWTAccessGenerate
}

// newTestEnv wires the gateway over in-memory stores.
// User 7 (dara@example.com) is employee 100 holding role "teacher" under
// branch 1 / department 20; user 8 (guest@example.com) has no employee record.
func newTestEnv(t *testing.T, tweak ...func(*Config)) *testEnv {
	t.Helper()
	clk := testclock.NewClock(time.Now())

	apps := store.NewMemoryApplicationStore(
		models.Application{Key: "A", Name: "Payroll", DefaultRoles: models.StringList{"employee"}, DefaultPermissions: models.StringList{"payroll:view"}},
		models.Application{Key: "B", Name: "Library"},
	)

	dir := store.NewMemoryDirectory()
	dir.AddPermission(models.Permission{ID: 1, Name: "grades:edit"}, models.Permission{ID: 2, Name: "grades:view"})
	dir.AddRole(models.Role{ID: 10, Name: "teacher"}, 1)
	dir.AddRole(models.Role{ID: 11, Name: "reviewer"}, 2)
	dir.AddBranch(models.Branch{ID: 1, NameEn: "Phnom Penh", Code: "PP"})
	dir.AddDepartment(models.Department{ID: 20, NameEn: "Mathematics", Active: true})
	branch, dep := int64(1), int64(2)
	dir.AddAssignment(
		models.AssignmentRecord{ID: 1, EntityType: models.EntityBranch, EntityID: 1, AssignableType: models.AssignableEmployee, AssignableID: 100},
		models.AssignmentRecord{ID: 2, EntityType: models.EntityDepartment, EntityID: 20, AssignableType: models.AssignableEmployee, AssignableID: 100, ParentID: &branch},
		models.AssignmentRecord{ID: 3, EntityType: models.EntityRole, EntityID: 10, AssignableType: models.AssignableEmployee, AssignableID: 100, ParentID: &dep},
	)

	users := store.NewMemoryUserStore()
	if err := users.AddUser(models.User{ID: 7, Name: "Sok Dara", Email: "dara@example.com"}, "secret", &models.Employee{ID: 100, Active: true}); err != nil {
		t.Fatal(err)
	}
	if err := users.AddUser(models.User{ID: 8, Name: "Guest", Email: "guest@example.com"}, "secret", nil); err != nil {
		t.Fatal(err)
	}

	gen := generates.NewJWTAccessGenerate("", []byte("test-secret"), jwt.SigningMethodHS256)
	refresh := store.NewMemoryRefreshTokenStore(store.WithClock(clk))
	reg := registry.New(apps, registry.WithCache(16, time.Minute))

	m := manage.NewManager()
	m.MapApplicationRegistry(reg)
	m.MapCredentialVerifier(users)
	m.MapUserFinder(users)
	m.MapResolver(authorization.NewResolver(dir))
	m.MapAccessGenerate(gen)
	m.MapRefreshTokenStorage(refresh)

	cfg := NewConfig()
	cfg.CookieSecure = false
	cfg.LoginRate = 0
	for _, fn := range tweak {
		fn(cfg)
	}
	srv := NewServer(cfg, m)
	srv.SetApplicationAdmin(apps, reg)

	ts := httptest.NewServer(NewGinEngine(srv))
	t.Cleanup(ts.Close)
	return &testEnv{srv: srv, ts: ts, apps: apps, dir: dir, users: users, refresh: refresh, clk: clk, gen: gen}
}

// expect returns an httpexpect instance without a cookie jar so every cookie is explicit.
func (env *testEnv) expect(t *testing.T) *httpexpect.Expect {
	return httpexpect.WithConfig(httpexpect.Config{
		BaseURL:  env.ts.URL,
		Client:   &http.Client{},
		Reporter: httpexpect.NewAssertReporter(t),
	})
}

// token signs an access token directly, bypassing login.
func (env *testEnv) token(t *testing.T, payload *models.AccessTokenPayload) string {
	t.Helper()
	access, _, err := env.gen.Token(context.Background(), payload)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return access
}

// login performs a password login and returns the session body.
func (env *testEnv) login(t *testing.T, e *httpexpect.Expect, username, appKey string) (access, refresh string) {
	t.Helper()
	obj := e.POST("/auth/login").
		WithJSON(map[string]string{"username": username, "password": "secret", "appKey": appKey}).
		Expect().
		Status(http.StatusOK).
		JSON().Object()
	return obj.Value("accessToken").String().Raw(), obj.Value("refreshToken").String().Raw()
}
