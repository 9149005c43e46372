package server

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/smis/sso"
	"github.com/smis/sso/errors"
	"github.com/smis/sso/manage"
	"github.com/smis/sso/models"
)

// ApplicationAdmin is the application store behind /api/apps.
type ApplicationAdmin interface {
	sso.ApplicationStore
	FindByID(ctx context.Context, id int64) (*models.Application, error)
	List(ctx context.Context) ([]models.Application, error)
	Create(ctx context.Context, app *models.Application) error
	Update(ctx context.Context, app *models.Application) error
	Delete(ctx context.Context, id int64) error
}

// CacheInvalidator drops cached application lookups after administrative changes.
type CacheInvalidator interface {
	Invalidate(key string)
}

// NewServer create the gateway server
func NewServer(cfg *Config, manager *manage.Manager) *Server {
	if cfg == nil {
		cfg = NewConfig()
	}
	return &Server{
		Config:      cfg,
		Manager:     manager,
		loginLimits: NewRateLimiter(cfg.LoginRate, cfg.LoginBurst),
	}
}

// Server Provide the SSO gateway
type Server struct {
	Config  *Config
	Manager *manage.Manager

	apps        ApplicationAdmin
	appCache    CacheInvalidator
	loginLimits *RateLimiter
	healthCheck func(ctx context.Context) error
}

// SetApplicationAdmin enables /api/apps. cache may be nil.
func (s *Server) SetApplicationAdmin(apps ApplicationAdmin, cache CacheInvalidator) {
	s.apps = apps
	s.appCache = cache
}

// SetHealthCheck sets the dependency check run by /healthz.
func (s *Server) SetHealthCheck(fn func(ctx context.Context) error) {
	s.healthCheck = fn
}

func (s *Server) invalidate(keys ...string) {
	if s.appCache == nil {
		return
	}
	for _, k := range keys {
		s.appCache.Invalidate(k)
	}
}

// writeError renders err as {"error","error_description"}. Infrastructure
// failures are logged and never echoed to the client.
func writeError(c *gin.Context, err error) {
	resp := errors.NewResponse(err)
	if resp.StatusCode >= http.StatusInternalServerError {
		log.Printf("server: %s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	description := resp.Description
	if resp.ErrorCode == "invalid_request" {
		description = err.Error()
	}
	c.AbortWithStatusJSON(resp.StatusCode, gin.H{
		"error":             resp.ErrorCode,
		"error_description": description,
	})
}

func (s *Server) handleHealthz(c *gin.Context) {
	if s.healthCheck != nil {
		if err := s.healthCheck(c.Request.Context()); err != nil {
			log.Printf("server: health check failed: %v", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
