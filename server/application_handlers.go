package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/smis/sso/dto"
	"github.com/smis/sso/errors"
	"github.com/smis/sso/store"
)

func appID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid application id", errors.ErrInvalidRequest)
	}
	return id, nil
}

// HandleListApplicationsGin lists registered applications.
func (s *Server) HandleListApplicationsGin(c *gin.Context) {
	apps, err := s.apps.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromApplications(apps))
}

// HandleGetApplicationGin returns one application by id.
func (s *Server) HandleGetApplicationGin(c *gin.Context) {
	id, err := appID(c)
	if err != nil {
		writeError(c, err)
		return
	}
	app, err := s.apps.FindByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromApplication(app))
}

// HandleCreateApplicationGin registers an application.
func (s *Server) HandleCreateApplicationGin(c *gin.Context) {
	var req dto.CreateApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, fmt.Errorf("%w: invalid JSON payload", errors.ErrInvalidRequest))
		return
	}
	if err := req.Validate(); err != nil {
		writeError(c, err)
		return
	}
	app := req.Application()
	if err := s.apps.Create(c.Request.Context(), app); err != nil {
		writeError(c, err)
		return
	}
	s.invalidate(app.Key)
	c.JSON(http.StatusCreated, dto.FromApplication(app))
}

// HandleUpdateApplicationGin applies a partial update to an application.
func (s *Server) HandleUpdateApplicationGin(c *gin.Context) {
	id, err := appID(c)
	if err != nil {
		writeError(c, err)
		return
	}
	var req dto.UpdateApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, fmt.Errorf("%w: invalid JSON payload", errors.ErrInvalidRequest))
		return
	}
	if err := req.Validate(); err != nil {
		writeError(c, err)
		return
	}
	app, err := s.apps.FindByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	oldKey := app.Key
	req.ApplyTo(app)
	if err := s.apps.Update(c.Request.Context(), app); err != nil {
		writeError(c, err)
		return
	}
	s.invalidate(oldKey, app.Key)
	c.JSON(http.StatusOK, dto.FromApplication(app))
}

// HandleDeleteApplicationGin removes an application.
func (s *Server) HandleDeleteApplicationGin(c *gin.Context) {
	id, err := appID(c)
	if err != nil {
		writeError(c, err)
		return
	}
	app, err := s.apps.FindByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	if err := s.apps.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	s.invalidate(app.Key)
	c.Status(http.StatusNoContent)
}

// HandleGenerateKeyGin returns a fresh random application key.
func (s *Server) HandleGenerateKeyGin(c *gin.Context) {
	key, err := store.GenerateKey()
	if err != nil {
		writeError(c, errors.Infrastructure("generate key", err))
		return
	}
	c.JSON(http.StatusOK, dto.GeneratedKeyResponse{Key: key})
}
