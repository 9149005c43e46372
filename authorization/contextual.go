package authorization

import (
	"context"
	"time"

	"github.com/juju/collections/set"

	"github.com/smis/sso/metrics"
	"github.com/smis/sso/models"
)

// ResolveContextualAuthorizations groups the employee's grants by branch and
// department. When no root branch resolves, the whole forest is treated as one
// branch with a nil Branch. Only nodes whose referenced entity still exists
// are counted.
func (r *Resolver) ResolveContextualAuthorizations(ctx context.Context, employeeID int64) ([]models.BranchAuthorizations, error) {
	defer metrics.ObserveResolve("contextual", time.Now())

	roots, err := r.forest(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	var branches []*models.AssignmentNode
	for _, node := range roots {
		if node.EntityType == models.EntityBranch && node.Details != nil {
			branches = append(branches, node)
		}
	}

	out := []models.BranchAuthorizations{}
	if len(branches) == 0 {
		deps, err := r.departments(ctx, roots)
		if err != nil {
			return nil, err
		}
		return append(out, models.BranchAuthorizations{Departments: deps}), nil
	}
	for _, b := range branches {
		deps, err := r.departments(ctx, b.Children)
		if err != nil {
			return nil, err
		}
		out = append(out, models.BranchAuthorizations{
			Branch:      b.Details.(*models.Branch),
			Departments: deps,
		})
	}
	return out, nil
}

// departments builds the view of each department found among nodes.
func (r *Resolver) departments(ctx context.Context, nodes []*models.AssignmentNode) ([]models.DepartmentAuthorizations, error) {
	out := []models.DepartmentAuthorizations{}
	for _, node := range nodes {
		if node.EntityType != models.EntityDepartment || node.Details == nil {
			continue
		}
		roles, direct, degrees := []string{}, []string{}, []string{}
		for _, child := range node.Children {
			switch v := child.Details.(type) {
			case *models.Role:
				roles = appendUnique(roles, v.Name)
			case *models.Permission:
				direct = appendUnique(direct, v.Name)
			case *models.Degree:
				degrees = appendUnique(degrees, v.Label())
			}
		}
		expanded, err := r.PermissionsForRoles(ctx, roles)
		if err != nil {
			return nil, err
		}
		perms := set.NewStrings(direct...).Union(set.NewStrings(expanded...))
		permissions := perms.SortedValues()
		if permissions == nil {
			permissions = []string{}
		}
		out = append(out, models.DepartmentAuthorizations{
			Department:  node.Details.(*models.Department),
			Roles:       roles,
			Permissions: permissions,
			Degrees:     degrees,
		})
	}
	return out, nil
}

func appendUnique(s []string, v string) []string {
	for _, x := range s {
		if x == v {
			return s
		}
	}
	return append(s, v)
}
