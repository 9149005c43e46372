package server

import (
	"net/http"
	"testing"

	"github.com/smis/sso/models"
)

func TestBearerMiddleware(t *testing.T) {
	env := newTestEnv(t)
	e := env.expect(t)

	e.GET("/api/users/me").Expect().
		Status(http.StatusUnauthorized).
		JSON().Object().HasValue("error", "unauthorized")

	e.GET("/api/users/me").WithHeader("Authorization", "Basic abc").Expect().
		Status(http.StatusUnauthorized).
		JSON().Object().HasValue("error_description", "invalid authorization header format")

	e.GET("/api/users/me").WithHeader("Authorization", "Bearer not.a.jwt").Expect().
		Status(http.StatusUnauthorized).
		JSON().Object().HasValue("error", "invalid_token")
}

func TestAuthorizations(t *testing.T) {
	env := newTestEnv(t)
	e := env.expect(t)
	access, _ := env.login(t, e, "dara@example.com", "A")

	obj := e.GET("/api/sso/authorizations").
		WithHeader("Authorization", "Bearer "+access).
		Expect().
		Status(http.StatusOK).
		JSON().Object()
	obj.Value("roles").IsEqual([]string{"teacher"})
	obj.Value("permissions").IsEqual([]string{"grades:edit"})

	e.GET("/api/sso/authorizations").
		WithHeader("Authorization", "Bearer "+access).
		WithHeader(AppKeyHeader, "A").
		Expect().
		Status(http.StatusOK)

	e.GET("/api/sso/authorizations").
		WithHeader("Authorization", "Bearer "+access).
		WithHeader(AppKeyHeader, "B").
		Expect().
		Status(http.StatusForbidden).
		JSON().Object().HasValue("error", "app_key_mismatch")

	e.GET("/api/sso/authorizations").
		WithHeader("Authorization", "Bearer "+access).
		WithHeader(AppKeyHeader, "nope").
		Expect().
		Status(http.StatusBadRequest).
		JSON().Object().HasValue("error", "unknown_application")
}

func TestAuthorizationsExpandRolePermissions(t *testing.T) {
	env := newTestEnv(t)
	e := env.expect(t)
	// a token minted before "reviewer" gained grades:view still gets it
	access := env.token(t, &models.AccessTokenPayload{
		UserID: "7", Username: "dara@example.com", AppKey: "A",
		Roles: []string{"reviewer"}, Permissions: []string{"notes:write"},
	})

	obj := e.GET("/api/sso/authorizations").
		WithHeader("Authorization", "Bearer "+access).
		Expect().
		Status(http.StatusOK).
		JSON().Object()
	obj.Value("roles").IsEqual([]string{"reviewer"})
	obj.Value("permissions").IsEqual([]string{"grades:view", "notes:write"})
}

func TestDefaultsForGuest(t *testing.T) {
	env := newTestEnv(t)
	e := env.expect(t)
	access, _ := env.login(t, e, "guest@example.com", "A")

	obj := e.GET("/api/sso/authorizations").
		WithHeader("Authorization", "Bearer "+access).
		Expect().
		Status(http.StatusOK).
		JSON().Object()
	obj.Value("roles").IsEqual([]string{"employee"})
	obj.Value("permissions").IsEqual([]string{"payroll:view"})

	ctxObj := e.GET("/api/sso/authorizations/context").
		WithHeader("Authorization", "Bearer "+access).
		Expect().
		Status(http.StatusOK).
		JSON().Object()
	ctxObj.Value("employeeId").IsNull()
	ctxObj.Value("branches").Array().IsEmpty()

	tree := e.GET("/api/users/me/assignments").
		WithHeader("Authorization", "Bearer "+access).
		Expect().
		Status(http.StatusOK).
		JSON().Object()
	tree.Value("employeeId").IsNull()
	tree.Value("tree").Array().IsEmpty()
}

func TestContextualAuthorizations(t *testing.T) {
	env := newTestEnv(t)
	e := env.expect(t)
	access, _ := env.login(t, e, "dara@example.com", "A")

	obj := e.GET("/api/sso/authorizations/context").
		WithHeader("Authorization", "Bearer "+access).
		Expect().
		Status(http.StatusOK).
		JSON().Object()
	obj.HasValue("employeeId", 100)
	branches := obj.Value("branches").Array()
	branches.Length().IsEqual(1)
	branch := branches.Value(0).Object()
	branch.Value("branch").Object().HasValue("id", 1).HasValue("code", "PP")
	dep := branch.Value("departments").Array().Value(0).Object()
	dep.Value("department").Object().HasValue("id", 20)
	dep.Value("roles").IsEqual([]string{"teacher"})
	dep.Value("permissions").IsEqual([]string{"grades:edit"})
	dep.Value("degrees").Array().IsEmpty()
}

func TestMeAndAssignments(t *testing.T) {
	env := newTestEnv(t)
	e := env.expect(t)
	access, _ := env.login(t, e, "dara@example.com", "A")

	e.GET("/api/users/me").
		WithHeader("Authorization", "Bearer "+access).
		Expect().
		Status(http.StatusOK).
		JSON().Object().
		HasValue("id", 7).
		HasValue("username", "dara@example.com").
		HasValue("employeeId", 100)

	obj := e.GET("/api/users/me/assignments").
		WithHeader("Authorization", "Bearer "+access).
		Expect().
		Status(http.StatusOK).
		JSON().Object()
	roots := obj.Value("tree").Array()
	roots.Length().IsEqual(1)
	root := roots.Value(0).Object()
	root.HasValue("id", 1).HasValue("entityType", "branch")
	dep := root.Value("children").Array().Value(0).Object()
	dep.HasValue("id", 2).HasValue("entityType", "department")
	dep.Value("children").Array().Value(0).Object().
		HasValue("id", 3).
		HasValue("entityType", "role")
}

func TestVanishedUser(t *testing.T) {
	env := newTestEnv(t)
	e := env.expect(t)
	access := env.token(t, &models.AccessTokenPayload{UserID: "999", AppKey: "A"})

	e.GET("/api/users/me").
		WithHeader("Authorization", "Bearer "+access).
		Expect().
		Status(http.StatusUnauthorized).
		JSON().Object().HasValue("error", "invalid_token")
}

func TestHealthzAndMetrics(t *testing.T) {
	env := newTestEnv(t)
	e := env.expect(t)

	e.GET("/healthz").Expect().Status(http.StatusOK).JSON().Object().HasValue("status", "ok")
	e.GET("/metrics").Expect().Status(http.StatusOK)
}
