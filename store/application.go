package store

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"strings"

	"gorm.io/gorm"

	"github.com/smis/sso"
	"github.com/smis/sso/errors"
	"github.com/smis/sso/models"
)

var _ sso.ApplicationStore = (*ApplicationStore)(nil)

// ApplicationStore persists applications with gorm.
type ApplicationStore struct{ DB *gorm.DB }

func NewApplicationStore(db *gorm.DB) *ApplicationStore { return &ApplicationStore{DB: db} }

// FindByKey returns nil when no application has key.
func (s *ApplicationStore) FindByKey(ctx context.Context, key string) (*models.Application, error) {
	var app models.Application
	err := s.DB.WithContext(ctx).Where("key = ?", key).First(&app).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Infrastructure("find application", err)
	}
	return &app, nil
}

func (s *ApplicationStore) FindByID(ctx context.Context, id int64) (*models.Application, error) {
	var app models.Application
	err := s.DB.WithContext(ctx).Where("id = ?", id).First(&app).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.ErrNotFound
	}
	if err != nil {
		return nil, errors.Infrastructure("find application", err)
	}
	return &app, nil
}

func (s *ApplicationStore) List(ctx context.Context) ([]models.Application, error) {
	var apps []models.Application
	if err := s.DB.WithContext(ctx).Order("id ASC").Find(&apps).Error; err != nil {
		return nil, errors.Infrastructure("list applications", err)
	}
	return apps, nil
}

// Create inserts app, rejecting a key that is already taken.
func (s *ApplicationStore) Create(ctx context.Context, app *models.Application) error {
	normalizeApplication(app)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.Application{}).Where("key = ?", app.Key).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return errors.ErrApplicationExists
		}
		return tx.Create(app).Error
	})
	if errors.Is(err, errors.ErrApplicationExists) {
		return err
	}
	if err != nil {
		return errors.Infrastructure("create application", err)
	}
	return nil
}

// Update saves app; a changed key must still be unique.
func (s *ApplicationStore) Update(ctx context.Context, app *models.Application) error {
	normalizeApplication(app)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.Application{}).Where("key = ? AND id <> ?", app.Key, app.ID).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return errors.ErrApplicationExists
		}
		res := tx.Model(&models.Application{}).Where("id = ?", app.ID).Updates(map[string]interface{}{
			"key":                 app.Key,
			"name":                app.Name,
			"description":         app.Description,
			"default_roles":       app.DefaultRoles,
			"default_permissions": app.DefaultPermissions,
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errors.ErrNotFound
		}
		return nil
	})
	if errors.Is(err, errors.ErrApplicationExists) || errors.Is(err, errors.ErrNotFound) {
		return err
	}
	if err != nil {
		return errors.Infrastructure("update application", err)
	}
	return nil
}

func (s *ApplicationStore) Delete(ctx context.Context, id int64) error {
	res := s.DB.WithContext(ctx).Where("id = ?", id).Delete(&models.Application{})
	if res.Error != nil {
		return errors.Infrastructure("delete application", res.Error)
	}
	if res.RowsAffected == 0 {
		return errors.ErrNotFound
	}
	return nil
}

func normalizeApplication(app *models.Application) {
	app.Key = strings.TrimSpace(app.Key)
	if app.DefaultRoles == nil {
		app.DefaultRoles = models.StringList{}
	}
	if app.DefaultPermissions == nil {
		app.DefaultPermissions = models.StringList{}
	}
}

// GenerateKey returns a random alphanumeric application key of at most 64 characters.
func GenerateKey() (string, error) {
	buf := make([]byte, 48)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	raw := base64.RawURLEncoding.EncodeToString(buf)
	key := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return -1
	}, raw)
	if len(key) > sso.MaxApplicationKeyLength {
		key = key[:sso.MaxApplicationKeyLength]
	}
	return key, nil
}
