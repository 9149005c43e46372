package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/smis/sso/dto"
	"github.com/smis/sso/errors"
	"github.com/smis/sso/models"
)

// bindOptionalJSON decodes the body when one was sent.
func bindOptionalJSON(c *gin.Context, obj interface{}) error {
	if c.Request.ContentLength == 0 {
		return nil
	}
	if err := c.ShouldBindJSON(obj); err != nil {
		return fmt.Errorf("%w: invalid JSON payload", errors.ErrInvalidRequest)
	}
	return nil
}

func (s *Server) setRefreshCookie(c *gin.Context, token string) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     s.Config.RefreshCookie,
		Value:    token,
		Path:     s.Config.CookiePath,
		HttpOnly: true,
		Secure:   s.Config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.refreshTTL().Seconds()),
	})
}

func (s *Server) clearRefreshCookie(c *gin.Context) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     s.Config.RefreshCookie,
		Value:    "",
		Path:     s.Config.CookiePath,
		HttpOnly: true,
		Secure:   s.Config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

func (s *Server) refreshTTL() time.Duration {
	if cfg := s.Manager.Config(); cfg != nil && cfg.RefreshTokenExp > 0 {
		return cfg.RefreshTokenExp
	}
	return s.Config.RefreshTTL
}

func (s *Server) refreshCookie(c *gin.Context) string {
	v, err := c.Cookie(s.Config.RefreshCookie)
	if err != nil {
		return ""
	}
	return v
}

func (s *Server) writeSession(c *gin.Context, sess *models.Session) {
	s.setRefreshCookie(c, sess.RefreshToken)
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, sess)
}

// HandleLoginGin authenticates a user for an application and opens a session.
func (s *Server) HandleLoginGin(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, fmt.Errorf("%w: username, password and appKey are required", errors.ErrInvalidRequest))
		return
	}
	sess, err := s.Manager.Login(c.Request.Context(), strings.TrimSpace(req.Username), req.Password, strings.TrimSpace(req.AppKey))
	if err != nil {
		writeError(c, err)
		return
	}
	s.writeSession(c, sess)
}

// HandleRefreshGin re-issues a session from the refresh token in the body or cookie.
func (s *Server) HandleRefreshGin(c *gin.Context) {
	var req dto.RefreshRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		writeError(c, err)
		return
	}
	token := strings.TrimSpace(req.RefreshToken)
	if token == "" {
		token = s.refreshCookie(c)
	}
	sess, err := s.Manager.Refresh(c.Request.Context(), token, strings.TrimSpace(req.AppKey))
	if err != nil {
		if errors.Is(err, errors.ErrInvalidOrExpiredToken) {
			s.clearRefreshCookie(c)
		}
		writeError(c, err)
		return
	}
	s.writeSession(c, sess)
}

// HandleLogoutGin revokes the refresh token and clears the cookie.
func (s *Server) HandleLogoutGin(c *gin.Context) {
	var req dto.LogoutRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		writeError(c, err)
		return
	}
	token := strings.TrimSpace(req.RefreshToken)
	if token == "" {
		token = s.refreshCookie(c)
	}
	if err := s.Manager.Logout(c.Request.Context(), token); err != nil {
		writeError(c, err)
		return
	}
	s.clearRefreshCookie(c)
	c.Status(http.StatusNoContent)
}

// HandleProbeGin lets an application silently obtain a session from the
// gateway's refresh cookie. Without a usable cookie it answers login_required.
func (s *Server) HandleProbeGin(c *gin.Context) {
	appKey := strings.TrimSpace(c.Query("appKey"))
	if appKey == "" {
		writeError(c, fmt.Errorf("%w: appKey is required", errors.ErrInvalidRequest))
		return
	}
	if _, err := s.Manager.LookupApplication(c.Request.Context(), appKey); err != nil {
		writeError(c, err)
		return
	}
	token := s.refreshCookie(c)
	if token == "" {
		loginRequired(c)
		return
	}
	sess, err := s.Manager.IssueSessionFromRefreshToken(c.Request.Context(), token, appKey)
	if err != nil {
		if errors.Is(err, errors.ErrInvalidOrExpiredToken) {
			s.clearRefreshCookie(c)
			loginRequired(c)
			return
		}
		writeError(c, err)
		return
	}
	s.writeSession(c, sess)
}

func loginRequired(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error":             "login_required",
		"error_description": "no active gateway session",
	})
}
