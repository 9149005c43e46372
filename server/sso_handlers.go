package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// HandleAuthorizationsGin answers an application's authorization check for
// the bearer token. The application is named by X-SMIS-App-Key and defaults
// to the token's own.
func (s *Server) HandleAuthorizationsGin(c *gin.Context) {
	claims := GetClaimsFromContext(c)
	auths, err := s.Manager.Authorizations(c.Request.Context(), claims, strings.TrimSpace(c.GetHeader(AppKeyHeader)))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, auths)
}

// HandleContextualAuthorizationsGin returns the branch/department view of the caller's grants.
func (s *Server) HandleContextualAuthorizationsGin(c *gin.Context) {
	out, err := s.Manager.Contextual(c.Request.Context(), GetUserIDFromContext(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// HandleMeGin returns the caller's profile.
func (s *Server) HandleMeGin(c *gin.Context) {
	profile, err := s.Manager.Profile(c.Request.Context(), GetUserIDFromContext(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// HandleMyAssignmentsGin returns the caller's assignment forest.
func (s *Server) HandleMyAssignmentsGin(c *gin.Context) {
	tree, err := s.Manager.AssignmentTree(c.Request.Context(), GetUserIDFromContext(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tree)
}
