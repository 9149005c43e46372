package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/smis/sso/models"
)

const claimsKey = "token_claims"

// TokenMiddleware validates the bearer access token and stores its payload in
// the context. It runs before permission checks.
func (s *Server) TokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":             "unauthorized",
				"error_description": "missing authorization header",
			})
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":             "unauthorized",
				"error_description": "invalid authorization header format",
			})
			return
		}

		claims, err := s.Manager.ParseAccessToken(c.Request.Context(), strings.TrimSpace(parts[1]))
		if err != nil {
			writeError(c, err)
			return
		}
		c.Set(claimsKey, claims)
		c.Set("user_id", claims.UserID)
		c.Set("app_key", claims.AppKey)
		c.Set("permissions", claims.Permissions)
		c.Next()
	}
}

// GetClaimsFromContext returns the verified token payload, or nil outside TokenMiddleware.
func GetClaimsFromContext(c *gin.Context) *models.AccessTokenPayload {
	if v, ok := c.Get(claimsKey); ok {
		if claims, ok := v.(*models.AccessTokenPayload); ok {
			return claims
		}
	}
	return nil
}

// GetUserIDFromContext retrieves the user ID from the gin context.
// Returns empty string if not found.
func GetUserIDFromContext(c *gin.Context) string {
	return c.GetString("user_id")
}
