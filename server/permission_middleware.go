package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/smis/sso/permission"
)

// RequirePermission returns a middleware that rejects tokens lacking every one
// of the required permission names. Wildcard grants are honoured.
// Must run after TokenMiddleware.
func RequirePermission(required ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaimsFromContext(c)
		if claims == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":             "unauthorized",
				"error_description": "missing access token",
			})
			return
		}
		if !permission.MatchesAll(claims.Permissions, required...) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":             "insufficient_permission",
				"error_description": "the token lacks a required permission",
			})
			return
		}
		c.Next()
	}
}
