package manage

import (
	"context"
	"fmt"
	"strconv"

	"github.com/juju/collections/set"

	"github.com/smis/sso"
	"github.com/smis/sso/errors"
	"github.com/smis/sso/metrics"
	"github.com/smis/sso/models"
)

// session flows, used as metric labels
const (
	flowLogin   = "login"
	flowRefresh = "refresh"
	flowProbe   = "probe"
	flowIssue   = "issue"
)

// NewManager create to session management instance
func NewManager() *Manager {
	return &Manager{cfg: DefaultConfig}
}

// Manager orchestrates login, refresh, logout and authorization queries.
type Manager struct {
	cfg            *Config
	registry       sso.ApplicationRegistry
	verifier       sso.CredentialVerifier
	users          sso.UserFinder
	resolver       sso.AuthorizationResolver
	accessGenerate sso.AccessGenerate
	refreshStore   sso.RefreshTokenStore
}

// SetConfig set the session lifetime config
func (m *Manager) SetConfig(cfg *Config) {
	m.cfg = cfg
}

// Config returns the session lifetime config
func (m *Manager) Config() *Config {
	if m.cfg == nil {
		return DefaultConfig
	}
	return m.cfg
}

// MapApplicationRegistry mapping the application registry
func (m *Manager) MapApplicationRegistry(r sso.ApplicationRegistry) {
	m.registry = r
}

// MapCredentialVerifier mapping the credential verifier
func (m *Manager) MapCredentialVerifier(v sso.CredentialVerifier) {
	m.verifier = v
}

// MapUserFinder mapping the user lookup
func (m *Manager) MapUserFinder(f sso.UserFinder) {
	m.users = f
}

// MapResolver mapping the authorization resolver
func (m *Manager) MapResolver(r sso.AuthorizationResolver) {
	m.resolver = r
}

// MapAccessGenerate mapping the access token generate interface
func (m *Manager) MapAccessGenerate(gen sso.AccessGenerate) {
	m.accessGenerate = gen
}

// MapRefreshTokenStorage mapping the refresh token store interface
func (m *Manager) MapRefreshTokenStorage(stor sso.RefreshTokenStore) {
	m.refreshStore = stor
}

func failed(flow string, err error) error {
	metrics.SessionFailures.WithLabelValues(flow, errors.NewResponse(err).ErrorCode).Inc()
	return err
}

// Login checks the credentials and opens a session for appKey.
func (m *Manager) Login(ctx context.Context, username, password, appKey string) (*models.Session, error) {
	if _, err := m.registry.Require(ctx, appKey); err != nil {
		return nil, failed(flowLogin, err)
	}
	user, err := m.verifier.Validate(ctx, username, password)
	if err != nil {
		return nil, failed(flowLogin, err)
	}
	sess, err := m.issue(ctx, user, appKey, "")
	if err != nil {
		return nil, failed(flowLogin, err)
	}
	metrics.SessionsIssued.WithLabelValues(flowLogin).Inc()
	return sess, nil
}

// IssueSession signs a fresh access token for user in appKey. A non-empty
// existingRefreshToken is touched and reused; otherwise a new one is generated.
func (m *Manager) IssueSession(ctx context.Context, user *models.UserProfile, appKey, existingRefreshToken string) (*models.Session, error) {
	sess, err := m.issue(ctx, user, appKey, existingRefreshToken)
	if err != nil {
		return nil, failed(flowIssue, err)
	}
	metrics.SessionsIssued.WithLabelValues(flowIssue).Inc()
	return sess, nil
}

func (m *Manager) issue(ctx context.Context, user *models.UserProfile, appKey, existingRefreshToken string) (*models.Session, error) {
	if user == nil {
		return nil, fmt.Errorf("%w: user is required", errors.ErrInvalidRequest)
	}
	app, err := m.registry.Require(ctx, appKey)
	if err != nil {
		return nil, err
	}
	auths, err := m.resolver.Resolve(ctx, user, app)
	if err != nil {
		return nil, err
	}
	userID := strconv.FormatInt(user.ID, 10)
	access, expiresAt, err := m.accessGenerate.Token(ctx, &models.AccessTokenPayload{
		UserID:      userID,
		Username:    user.Username,
		AppKey:      app.Key,
		Roles:       auths.Roles,
		Permissions: auths.Permissions,
	})
	if err != nil {
		return nil, err
	}

	refresh := existingRefreshToken
	if refresh != "" {
		if _, err := m.refreshStore.Touch(ctx, refresh, userID, app.Key); err != nil {
			return nil, err
		}
	} else {
		refresh, err = m.refreshStore.Generate(ctx, userID, app.Key)
		if err != nil {
			return nil, err
		}
	}
	return &models.Session{AccessToken: access, RefreshToken: refresh, ExpiresAt: expiresAt}, nil
}

// Refresh re-issues a session from refreshToken, resolving authorizations
// again. appKey overrides the application stored with the token when set.
func (m *Manager) Refresh(ctx context.Context, refreshToken, appKey string) (*models.Session, error) {
	sess, err := m.fromRefreshToken(ctx, refreshToken, appKey)
	if err != nil {
		return nil, failed(flowRefresh, err)
	}
	metrics.SessionsIssued.WithLabelValues(flowRefresh).Inc()
	return sess, nil
}

// IssueSessionFromRefreshToken is Refresh for the SSO probe, where the
// requesting application is always named.
func (m *Manager) IssueSessionFromRefreshToken(ctx context.Context, refreshToken, appKey string) (*models.Session, error) {
	if appKey == "" {
		return nil, failed(flowProbe, fmt.Errorf("%w: appKey is required", errors.ErrInvalidRequest))
	}
	sess, err := m.fromRefreshToken(ctx, refreshToken, appKey)
	if err != nil {
		return nil, failed(flowProbe, err)
	}
	metrics.SessionsIssued.WithLabelValues(flowProbe).Inc()
	return sess, nil
}

func (m *Manager) fromRefreshToken(ctx context.Context, refreshToken, appKey string) (*models.Session, error) {
	if refreshToken == "" {
		return nil, errors.ErrInvalidOrExpiredToken
	}
	rec, err := m.refreshStore.Get(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, errors.ErrInvalidOrExpiredToken
	}
	if appKey == "" {
		appKey = rec.AppKey
	}
	user, err := m.user(ctx, rec.UserID)
	if errors.Is(err, errors.ErrInvalidOrExpiredToken) {
		// the session belongs to nobody now
		if rerr := m.refreshStore.Revoke(ctx, refreshToken); rerr != nil {
			return nil, rerr
		}
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	return m.issue(ctx, user, appKey, refreshToken)
}

// Logout revokes refreshToken. An empty token is a no-op.
func (m *Manager) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return m.refreshStore.Revoke(ctx, refreshToken)
}

// LookupApplication returns the application registered under appKey. The
// answer may come from the registry cache; issuance checks the store again.
func (m *Manager) LookupApplication(ctx context.Context, appKey string) (*models.Application, error) {
	app, err := m.registry.Find(ctx, appKey)
	if err != nil {
		return nil, err
	}
	if app == nil {
		return nil, fmt.Errorf("%w: %q", errors.ErrUnknownApplication, appKey)
	}
	return app, nil
}

// ParseAccessToken verifies an access token and returns its payload.
func (m *Manager) ParseAccessToken(ctx context.Context, access string) (*models.AccessTokenPayload, error) {
	return m.accessGenerate.Parse(ctx, access)
}

// Authorizations answers an application's authorization check for a verified
// token. Permissions of the token's roles are recomputed so role changes apply
// without reissuing tokens.
func (m *Manager) Authorizations(ctx context.Context, claims *models.AccessTokenPayload, requestedAppKey string) (models.Authorizations, error) {
	appKey := requestedAppKey
	if appKey == "" {
		appKey = claims.AppKey
	}
	if _, err := m.registry.Require(ctx, appKey); err != nil {
		return models.Authorizations{}, err
	}
	if claims.AppKey != appKey {
		return models.Authorizations{}, errors.ErrAppKeyMismatch
	}
	expanded, err := m.resolver.PermissionsForRoles(ctx, claims.Roles)
	if err != nil {
		return models.Authorizations{}, err
	}
	roles := append([]string{}, claims.Roles...)
	perms := set.NewStrings(claims.Permissions...).Union(set.NewStrings(expanded...)).SortedValues()
	if perms == nil {
		perms = []string{}
	}
	return models.Authorizations{Roles: roles, Permissions: perms}, nil
}

// Profile returns the profile of the token subject.
func (m *Manager) Profile(ctx context.Context, userID string) (*models.UserProfile, error) {
	return m.user(ctx, userID)
}

// Contextual returns the branch/department view of the user's grants.
func (m *Manager) Contextual(ctx context.Context, userID string) (models.ContextualAuthorizations, error) {
	user, err := m.user(ctx, userID)
	if err != nil {
		return models.ContextualAuthorizations{}, err
	}
	out := models.ContextualAuthorizations{EmployeeID: user.EmployeeID, Branches: []models.BranchAuthorizations{}}
	if user.EmployeeID == nil {
		return out, nil
	}
	out.Branches, err = m.resolver.ResolveContextualAuthorizations(ctx, *user.EmployeeID)
	if err != nil {
		return models.ContextualAuthorizations{}, err
	}
	return out, nil
}

// AssignmentTree returns the user's assignment forest.
func (m *Manager) AssignmentTree(ctx context.Context, userID string) (models.AssignmentTree, error) {
	user, err := m.user(ctx, userID)
	if err != nil {
		return models.AssignmentTree{}, err
	}
	out := models.AssignmentTree{EmployeeID: user.EmployeeID, Tree: []*models.AssignmentNode{}}
	if user.EmployeeID == nil {
		return out, nil
	}
	out.Tree, err = m.resolver.ResolveTree(ctx, *user.EmployeeID)
	if err != nil {
		return models.AssignmentTree{}, err
	}
	return out, nil
}

// user loads the session's user; a vanished user invalidates the session.
func (m *Manager) user(ctx context.Context, userID string) (*models.UserProfile, error) {
	id, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return nil, errors.ErrInvalidOrExpiredToken
	}
	user, err := m.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: session user not found", errors.ErrInvalidOrExpiredToken)
	}
	return user, nil
}
