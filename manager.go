package sso

import (
	"context"

	"github.com/smis/sso/models"
)

type (
	// ApplicationRegistry resolves application keys.
	ApplicationRegistry interface {
		// returns nil when the key is not registered
		Find(ctx context.Context, key string) (*models.Application, error)

		// fails with errors.ErrUnknownApplication when the key is not registered
		Require(ctx context.Context, key string) (*models.Application, error)
	}

	// AuthorizationResolver derives a user's grants from assignment records.
	AuthorizationResolver interface {
		Resolve(ctx context.Context, user *models.UserProfile, app *models.Application) (models.Authorizations, error)
		ResolveTree(ctx context.Context, employeeID int64) ([]*models.AssignmentNode, error)
		PermissionsForRoles(ctx context.Context, names []string) ([]string, error)
		ResolveContextualAuthorizations(ctx context.Context, employeeID int64) ([]models.BranchAuthorizations, error)
	}
)
