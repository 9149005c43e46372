package dto

import (
	"fmt"
	"strings"

	"github.com/smis/sso"
	"github.com/smis/sso/errors"
	"github.com/smis/sso/models"
)

const maxApplicationNameLength = 255

// CreateApplicationRequest represents a request to register an application.
type CreateApplicationRequest struct {
	Key                string   `json:"key"`
	Name               string   `json:"name"`
	Description        *string  `json:"description"`
	DefaultRoles       []string `json:"defaultRoles"`
	DefaultPermissions []string `json:"defaultPermissions"`
}

// Validate checks required fields and lengths.
func (r *CreateApplicationRequest) Validate() error {
	if err := validateKey(r.Key); err != nil {
		return err
	}
	return validateName(r.Name)
}

// Application converts the request to a model with empty default sets in place of nil.
func (r *CreateApplicationRequest) Application() *models.Application {
	return &models.Application{
		Key:                strings.TrimSpace(r.Key),
		Name:               strings.TrimSpace(r.Name),
		Description:        r.Description,
		DefaultRoles:       models.StringList(cleanList(r.DefaultRoles)),
		DefaultPermissions: models.StringList(cleanList(r.DefaultPermissions)),
	}
}

// UpdateApplicationRequest represents a partial update. Nil fields are left unchanged.
type UpdateApplicationRequest struct {
	Key                *string  `json:"key"`
	Name               *string  `json:"name"`
	Description        *string  `json:"description"`
	DefaultRoles       []string `json:"defaultRoles"`
	DefaultPermissions []string `json:"defaultPermissions"`
}

// Validate checks the fields that are present.
func (r *UpdateApplicationRequest) Validate() error {
	if r.Key != nil {
		if err := validateKey(*r.Key); err != nil {
			return err
		}
	}
	if r.Name != nil {
		return validateName(*r.Name)
	}
	return nil
}

// ApplyTo copies the present fields onto app.
func (r *UpdateApplicationRequest) ApplyTo(app *models.Application) {
	if r.Key != nil {
		app.Key = strings.TrimSpace(*r.Key)
	}
	if r.Name != nil {
		app.Name = strings.TrimSpace(*r.Name)
	}
	if r.Description != nil {
		app.Description = r.Description
	}
	if r.DefaultRoles != nil {
		app.DefaultRoles = models.StringList(cleanList(r.DefaultRoles))
	}
	if r.DefaultPermissions != nil {
		app.DefaultPermissions = models.StringList(cleanList(r.DefaultPermissions))
	}
}

// ApplicationResponse represents an application in API responses.
type ApplicationResponse struct {
	ID                 int64    `json:"id"`
	Key                string   `json:"key"`
	Name               string   `json:"name"`
	Description        *string  `json:"description,omitempty"`
	DefaultRoles       []string `json:"defaultRoles"`
	DefaultPermissions []string `json:"defaultPermissions"`
}

// FromApplication converts a models.Application to ApplicationResponse.
func FromApplication(a *models.Application) ApplicationResponse {
	return ApplicationResponse{
		ID:                 a.ID,
		Key:                a.Key,
		Name:               a.Name,
		Description:        a.Description,
		DefaultRoles:       a.DefaultRoles.Clone(),
		DefaultPermissions: a.DefaultPermissions.Clone(),
	}
}

// FromApplications converts a slice of models.Application to a slice of ApplicationResponse.
func FromApplications(apps []models.Application) []ApplicationResponse {
	responses := make([]ApplicationResponse, len(apps))
	for i := range apps {
		responses[i] = FromApplication(&apps[i])
	}
	return responses
}

func validateKey(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("%w: key is required", errors.ErrInvalidRequest)
	}
	if len(key) > sso.MaxApplicationKeyLength {
		return fmt.Errorf("%w: key must be at most %d characters", errors.ErrInvalidRequest, sso.MaxApplicationKeyLength)
	}
	return nil
}

func validateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: name is required", errors.ErrInvalidRequest)
	}
	if len(name) > maxApplicationNameLength {
		return fmt.Errorf("%w: name must be at most %d characters", errors.ErrInvalidRequest, maxApplicationNameLength)
	}
	return nil
}

// cleanList trims entries, drops blanks and duplicates, and never returns nil.
func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
