package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/smis/sso"
	"github.com/smis/sso/errors"
	"github.com/smis/sso/models"
)

var (
	_ sso.ApplicationStore   = (*MemoryApplicationStore)(nil)
	_ sso.Directory          = (*MemoryDirectory)(nil)
	_ sso.CredentialVerifier = (*MemoryUserStore)(nil)
	_ sso.UserFinder         = (*MemoryUserStore)(nil)
)

// MemoryApplicationStore is a process-local application store for development and tests.
type MemoryApplicationStore struct {
	mu     sync.RWMutex
	nextID int64
	apps   map[int64]models.Application
}

func NewMemoryApplicationStore(apps ...models.Application) *MemoryApplicationStore {
	s := &MemoryApplicationStore{apps: make(map[int64]models.Application)}
	for i := range apps {
		_ = s.Create(context.Background(), &apps[i])
	}
	return s
}

func cloneApplication(app models.Application) *models.Application {
	app.DefaultRoles = app.DefaultRoles.Clone()
	app.DefaultPermissions = app.DefaultPermissions.Clone()
	return &app
}

func (s *MemoryApplicationStore) FindByKey(ctx context.Context, key string) (*models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, app := range s.apps {
		if app.Key == key {
			return cloneApplication(app), nil
		}
	}
	return nil, nil
}

func (s *MemoryApplicationStore) FindByID(ctx context.Context, id int64) (*models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	app, ok := s.apps[id]
	if !ok {
		return nil, errors.ErrNotFound
	}
	return cloneApplication(app), nil
}

func (s *MemoryApplicationStore) List(ctx context.Context) ([]models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Application, 0, len(s.apps))
	for _, app := range s.apps {
		out = append(out, *cloneApplication(app))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryApplicationStore) keyTaken(key string, except int64) bool {
	for id, app := range s.apps {
		if id != except && app.Key == key {
			return true
		}
	}
	return false
}

func (s *MemoryApplicationStore) Create(ctx context.Context, app *models.Application) error {
	normalizeApplication(app)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.keyTaken(app.Key, 0) {
		return errors.ErrApplicationExists
	}
	s.nextID++
	app.ID = s.nextID
	s.apps[app.ID] = *cloneApplication(*app)
	return nil
}

func (s *MemoryApplicationStore) Update(ctx context.Context, app *models.Application) error {
	normalizeApplication(app)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.apps[app.ID]; !ok {
		return errors.ErrNotFound
	}
	if s.keyTaken(app.Key, app.ID) {
		return errors.ErrApplicationExists
	}
	s.apps[app.ID] = *cloneApplication(*app)
	return nil
}

func (s *MemoryApplicationStore) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.apps[id]; !ok {
		return errors.ErrNotFound
	}
	delete(s.apps, id)
	return nil
}

// MemoryDirectory holds assignments and their referenced entities in memory.
type MemoryDirectory struct {
	mu          sync.RWMutex
	assignments []models.AssignmentRecord
	roles       map[int64]models.Role
	permissions map[int64]models.Permission
	rolePerms   map[int64][]int64
	branches    map[int64]models.Branch
	departments map[int64]models.Department
	degrees     map[int64]models.Degree
}

func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{
		roles:       make(map[int64]models.Role),
		permissions: make(map[int64]models.Permission),
		rolePerms:   make(map[int64][]int64),
		branches:    make(map[int64]models.Branch),
		departments: make(map[int64]models.Department),
		degrees:     make(map[int64]models.Degree),
	}
}

func (d *MemoryDirectory) AddAssignment(recs ...models.AssignmentRecord) {
	d.mu.Lock()
	d.assignments = append(d.assignments, recs...)
	d.mu.Unlock()
}

func (d *MemoryDirectory) AddRole(role models.Role, permissionIDs ...int64) {
	d.mu.Lock()
	d.roles[role.ID] = role
	d.rolePerms[role.ID] = append(d.rolePerms[role.ID], permissionIDs...)
	d.mu.Unlock()
}

func (d *MemoryDirectory) AddPermission(perms ...models.Permission) {
	d.mu.Lock()
	for _, p := range perms {
		d.permissions[p.ID] = p
	}
	d.mu.Unlock()
}

func (d *MemoryDirectory) AddBranch(b models.Branch) {
	d.mu.Lock()
	d.branches[b.ID] = b
	d.mu.Unlock()
}

func (d *MemoryDirectory) AddDepartment(dep models.Department) {
	d.mu.Lock()
	d.departments[dep.ID] = dep
	d.mu.Unlock()
}

func (d *MemoryDirectory) AddDegree(deg models.Degree) {
	d.mu.Lock()
	d.degrees[deg.ID] = deg
	d.mu.Unlock()
}

func (d *MemoryDirectory) AssignmentsForEmployee(ctx context.Context, employeeID int64) ([]models.AssignmentRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	var out []models.AssignmentRecord
	for _, rec := range d.assignments {
		if rec.AssignableType == models.AssignableEmployee && rec.AssignableID == employeeID {
			out = append(out, rec)
		}
	}
	return out, nil
}

// pick returns the values of m for ids in id order, skipping unknown ids.
func pick[T any](m map[int64]T, ids []int64) []T {
	sorted := append([]int64(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	var out []T
	var last int64
	for i, id := range sorted {
		if i > 0 && id == last {
			continue
		}
		last = id
		if v, ok := m[id]; ok {
			out = append(out, v)
		}
	}
	return out
}

func (d *MemoryDirectory) RolesByIDs(ctx context.Context, ids []int64) ([]models.Role, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return pick(d.roles, ids), nil
}

func (d *MemoryDirectory) RolesByNames(ctx context.Context, names []string) ([]models.Role, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	var ids []int64
	for id, r := range d.roles {
		if want[r.Name] {
			ids = append(ids, id)
		}
	}
	return pick(d.roles, ids), nil
}

func (d *MemoryDirectory) PermissionsByIDs(ctx context.Context, ids []int64) ([]models.Permission, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return pick(d.permissions, ids), nil
}

func (d *MemoryDirectory) PermissionsForRoles(ctx context.Context, roleIDs []int64) ([]models.Permission, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var ids []int64
	for _, rid := range roleIDs {
		ids = append(ids, d.rolePerms[rid]...)
	}
	return pick(d.permissions, ids), nil
}

func (d *MemoryDirectory) BranchesByIDs(ctx context.Context, ids []int64) ([]models.Branch, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return pick(d.branches, ids), nil
}

func (d *MemoryDirectory) DepartmentsByIDs(ctx context.Context, ids []int64) ([]models.Department, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return pick(d.departments, ids), nil
}

func (d *MemoryDirectory) DegreesByIDs(ctx context.Context, ids []int64) ([]models.Degree, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return pick(d.degrees, ids), nil
}

// MemoryUserStore keeps users with bcrypt-hashed passwords in memory.
type MemoryUserStore struct {
	mu        sync.RWMutex
	users     map[int64]models.User
	employees map[int64]models.Employee
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{users: make(map[int64]models.User), employees: make(map[int64]models.Employee)}
}

// AddUser stores u with password hashed; employee may be nil.
func (s *MemoryUserStore) AddUser(u models.User, password string, employee *models.Employee) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return err
	}
	u.Password = string(hash)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
	if employee != nil {
		emp := *employee
		uid := u.ID
		emp.UserID = &uid
		s.employees[u.ID] = emp
	}
	return nil
}

func (s *MemoryUserStore) profile(u models.User) *models.UserProfile {
	if emp, ok := s.employees[u.ID]; ok && emp.Active {
		return models.NewUserProfile(&u, &emp)
	}
	return models.NewUserProfile(&u, nil)
}

func (s *MemoryUserStore) Validate(ctx context.Context, username, password string) (*models.UserProfile, error) {
	username = strings.TrimSpace(username)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email != username {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) != nil {
			return nil, errors.ErrAuthenticationFailure
		}
		return s.profile(u), nil
	}
	return nil, errors.ErrAuthenticationFailure
}

func (s *MemoryUserStore) GetByID(ctx context.Context, id int64) (*models.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	return s.profile(u), nil
}
