package sso

import (
	"context"
	"time"

	"github.com/smis/sso/models"
)

type (
	// RefreshTokenStore keeps refresh token -> (user, application, expiry).
	// Implementations must make every operation individually atomic.
	RefreshTokenStore interface {
		// create a new unguessable token that expires after the store TTL
		Generate(ctx context.Context, userID, appKey string) (string, error)

		// extend the expiry of token, creating the record when it is unknown
		Touch(ctx context.Context, token, userID, appKey string) (*models.RefreshTokenRecord, error)

		// get the live record for token; returns nil when unknown or expired
		Get(ctx context.Context, token string) (*models.RefreshTokenRecord, error)

		// delete token; unknown tokens are not an error
		Revoke(ctx context.Context, token string) error
	}

	// ApplicationStore is the read-only view of registered applications.
	ApplicationStore interface {
		// returns nil when no application has the key
		FindByKey(ctx context.Context, key string) (*models.Application, error)
	}

	// CredentialVerifier checks a username/password pair.
	CredentialVerifier interface {
		// returns errors.ErrAuthenticationFailure on mismatch
		Validate(ctx context.Context, username, password string) (*models.UserProfile, error)
	}

	// UserFinder loads user profiles by id.
	UserFinder interface {
		// returns nil when the user does not exist
		GetByID(ctx context.Context, id int64) (*models.UserProfile, error)
	}

	// AccessGenerate signs and verifies access tokens.
	AccessGenerate interface {
		// sign data; returns the token and its absolute expiry
		Token(ctx context.Context, data *models.AccessTokenPayload) (access string, expiresAt time.Time, err error)

		// verify access and return its payload; fails with errors.ErrInvalidOrExpiredToken
		Parse(ctx context.Context, access string) (*models.AccessTokenPayload, error)
	}

	// Directory is the read access the authorization resolver needs from persistence.
	Directory interface {
		AssignmentsForEmployee(ctx context.Context, employeeID int64) ([]models.AssignmentRecord, error)
		RolesByIDs(ctx context.Context, ids []int64) ([]models.Role, error)
		RolesByNames(ctx context.Context, names []string) ([]models.Role, error)
		PermissionsByIDs(ctx context.Context, ids []int64) ([]models.Permission, error)
		// permissions reachable from the given roles through the role/permission join
		PermissionsForRoles(ctx context.Context, roleIDs []int64) ([]models.Permission, error)
		BranchesByIDs(ctx context.Context, ids []int64) ([]models.Branch, error)
		DepartmentsByIDs(ctx context.Context, ids []int64) ([]models.Department, error)
		DegreesByIDs(ctx context.Context, ids []int64) ([]models.Degree, error)
	}
)
