package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/smis/sso"
	"github.com/smis/sso/errors"
	"github.com/smis/sso/models"
)

var _ sso.Directory = (*DirectoryStore)(nil)

// DirectoryStore is the read side of assignments and the entities they reference.
type DirectoryStore struct{ DB *gorm.DB }

func NewDirectoryStore(db *gorm.DB) *DirectoryStore { return &DirectoryStore{DB: db} }

func (s *DirectoryStore) AssignmentsForEmployee(ctx context.Context, employeeID int64) ([]models.AssignmentRecord, error) {
	var recs []models.AssignmentRecord
	err := s.DB.WithContext(ctx).
		Where("assignable_type = ? AND assignable_id = ?", models.AssignableEmployee, employeeID).
		Order("id ASC").
		Find(&recs).Error
	if err != nil {
		return nil, errors.Infrastructure("load assignments", err)
	}
	return recs, nil
}

// findByIDs loads rows of T whose id is in ids, ordered by id.
func findByIDs[T any](ctx context.Context, db *gorm.DB, op string, ids []int64) ([]T, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var out []T
	if err := db.WithContext(ctx).Where("id IN ?", ids).Order("id ASC").Find(&out).Error; err != nil {
		return nil, errors.Infrastructure(op, err)
	}
	return out, nil
}

func (s *DirectoryStore) RolesByIDs(ctx context.Context, ids []int64) ([]models.Role, error) {
	return findByIDs[models.Role](ctx, s.DB, "load roles", ids)
}

func (s *DirectoryStore) RolesByNames(ctx context.Context, names []string) ([]models.Role, error) {
	if len(names) == 0 {
		return nil, nil
	}
	var roles []models.Role
	if err := s.DB.WithContext(ctx).Where("name IN ?", names).Order("id ASC").Find(&roles).Error; err != nil {
		return nil, errors.Infrastructure("load roles", err)
	}
	return roles, nil
}

func (s *DirectoryStore) PermissionsByIDs(ctx context.Context, ids []int64) ([]models.Permission, error) {
	return findByIDs[models.Permission](ctx, s.DB, "load permissions", ids)
}

func (s *DirectoryStore) PermissionsForRoles(ctx context.Context, roleIDs []int64) ([]models.Permission, error) {
	if len(roleIDs) == 0 {
		return nil, nil
	}
	sub := s.DB.Model(&models.PermissionRole{}).Select("permission_id").Where("role_id IN ?", roleIDs)
	var perms []models.Permission
	if err := s.DB.WithContext(ctx).Where("id IN (?)", sub).Order("id ASC").Find(&perms).Error; err != nil {
		return nil, errors.Infrastructure("load role permissions", err)
	}
	return perms, nil
}

func (s *DirectoryStore) BranchesByIDs(ctx context.Context, ids []int64) ([]models.Branch, error) {
	return findByIDs[models.Branch](ctx, s.DB, "load branches", ids)
}

func (s *DirectoryStore) DepartmentsByIDs(ctx context.Context, ids []int64) ([]models.Department, error) {
	return findByIDs[models.Department](ctx, s.DB, "load departments", ids)
}

func (s *DirectoryStore) DegreesByIDs(ctx context.Context, ids []int64) ([]models.Degree, error) {
	return findByIDs[models.Degree](ctx, s.DB, "load degrees", ids)
}
