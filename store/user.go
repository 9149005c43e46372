package store

import (
	"context"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/smis/sso"
	"github.com/smis/sso/errors"
	"github.com/smis/sso/models"
)

var (
	_ sso.CredentialVerifier = (*UserStore)(nil)
	_ sso.UserFinder         = (*UserStore)(nil)
)

// dummyHash is compared against when the user does not exist so both
// failure paths cost one bcrypt comparison.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("smis-dummy-password"), bcrypt.DefaultCost)

// UserStore reads users and their active employee link.
type UserStore struct{ DB *gorm.DB }

func NewUserStore(db *gorm.DB) *UserStore { return &UserStore{DB: db} }

// HashPassword returns the bcrypt hash stored in users.password.
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(b), err
}

// Validate checks username (the user's email) and password.
func (s *UserStore) Validate(ctx context.Context, username, password string) (*models.UserProfile, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, errors.ErrAuthenticationFailure
	}
	var u models.User
	err := s.DB.WithContext(ctx).Where("email = ?", username).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, errors.ErrAuthenticationFailure
	}
	if err != nil {
		return nil, errors.Infrastructure("find user", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) != nil {
		return nil, errors.ErrAuthenticationFailure
	}
	emp, err := s.activeEmployee(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	return models.NewUserProfile(&u, emp), nil
}

// GetByID returns nil when the user does not exist.
func (s *UserStore) GetByID(ctx context.Context, id int64) (*models.UserProfile, error) {
	var u models.User
	err := s.DB.WithContext(ctx).Where("id = ?", id).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Infrastructure("find user", err)
	}
	emp, err := s.activeEmployee(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	return models.NewUserProfile(&u, emp), nil
}

func (s *UserStore) activeEmployee(ctx context.Context, userID int64) (*models.Employee, error) {
	var emp models.Employee
	err := s.DB.WithContext(ctx).Where("user_id = ? AND active = ?", userID, true).Order("id ASC").First(&emp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Infrastructure("find employee", err)
	}
	return &emp, nil
}
