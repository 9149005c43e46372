// Package authorization turns an employee's flat assignment records into
// role/permission sets and branch/department scoped views.
package authorization

import (
	"context"
	"time"

	"github.com/juju/collections/set"
	"golang.org/x/sync/errgroup"

	"github.com/smis/sso"
	"github.com/smis/sso/errors"
	"github.com/smis/sso/metrics"
	"github.com/smis/sso/models"
)

// Resolver reads assignments through a Directory. It holds no mutable state
// and is safe for concurrent use.
type Resolver struct {
	dir sso.Directory
}

func NewResolver(dir sso.Directory) *Resolver {
	return &Resolver{dir: dir}
}

// Resolve returns the roles and permissions user holds in app.
//
// Users without an employee link get the application defaults. Otherwise every
// role and permission record assigned to the employee counts, whatever its
// nesting. Roles fall back to the defaults when none resolve, and permissions
// fall back independently when neither roles nor direct grants yield any.
func (r *Resolver) Resolve(ctx context.Context, user *models.UserProfile, app *models.Application) (models.Authorizations, error) {
	defer metrics.ObserveResolve("flat", time.Now())

	if user == nil || user.EmployeeID == nil {
		return defaults(app), nil
	}
	recs, err := r.dir.AssignmentsForEmployee(ctx, *user.EmployeeID)
	if err != nil {
		return models.Authorizations{}, errors.Infrastructure("load assignments", err)
	}

	var roleIDs, permIDs []int64
	for _, rec := range recs {
		switch rec.EntityType {
		case models.EntityRole:
			roleIDs = append(roleIDs, rec.EntityID)
		case models.EntityPermission:
			permIDs = append(permIDs, rec.EntityID)
		}
	}
	roleIDs, permIDs = uniqueIDs(roleIDs), uniqueIDs(permIDs)

	var (
		roles       []models.Role
		rolePerms   []models.Permission
		directPerms []models.Permission
	)
	g, gctx := errgroup.WithContext(ctx)
	if len(roleIDs) > 0 {
		g.Go(func() (err error) {
			roles, err = r.dir.RolesByIDs(gctx, roleIDs)
			return err
		})
		g.Go(func() (err error) {
			rolePerms, err = r.dir.PermissionsForRoles(gctx, roleIDs)
			return err
		})
	}
	if len(permIDs) > 0 {
		g.Go(func() (err error) {
			directPerms, err = r.dir.PermissionsByIDs(gctx, permIDs)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return models.Authorizations{}, errors.Infrastructure("resolve authorizations", err)
	}

	roleNames := set.NewStrings()
	for _, role := range roles {
		roleNames.Add(role.Name)
	}
	permNames := set.NewStrings()
	for _, p := range rolePerms {
		permNames.Add(p.Name)
	}
	for _, p := range directPerms {
		permNames.Add(p.Name)
	}

	out := defaults(app)
	if !roleNames.IsEmpty() {
		out.Roles = roleNames.SortedValues()
	}
	if !permNames.IsEmpty() {
		out.Permissions = permNames.SortedValues()
	}
	return out, nil
}

// PermissionsForRoles returns the sorted permission names reachable from the
// named roles through role membership only.
func (r *Resolver) PermissionsForRoles(ctx context.Context, names []string) ([]string, error) {
	names = set.NewStrings(names...).SortedValues()
	if len(names) == 0 {
		return []string{}, nil
	}
	roles, err := r.dir.RolesByNames(ctx, names)
	if err != nil {
		return nil, errors.Infrastructure("load roles", err)
	}
	if len(roles) == 0 {
		return []string{}, nil
	}
	ids := make([]int64, 0, len(roles))
	for _, role := range roles {
		ids = append(ids, role.ID)
	}
	perms, err := r.dir.PermissionsForRoles(ctx, ids)
	if err != nil {
		return nil, errors.Infrastructure("load role permissions", err)
	}
	out := set.NewStrings()
	for _, p := range perms {
		out.Add(p.Name)
	}
	return out.SortedValues(), nil
}

func defaults(app *models.Application) models.Authorizations {
	if app == nil {
		return models.Authorizations{Roles: []string{}, Permissions: []string{}}
	}
	return models.Authorizations{
		Roles:       app.DefaultRoles.Clone(),
		Permissions: app.DefaultPermissions.Clone(),
	}
}

func uniqueIDs(ids []int64) []int64 {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[int64]struct{}, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
