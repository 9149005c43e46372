package server

import (
	"github.com/gin-gonic/gin"

	"github.com/smis/sso/metrics"
	"github.com/smis/sso/permission"
)

// NewGinEngine builds a Gin router and registers the gateway routes.
// /api/apps is only registered when an ApplicationAdmin has been set.
func NewGinEngine(s *Server) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(metrics.Instrument())

	r.GET("/healthz", s.handleHealthz)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	// session endpoints
	auth := r.Group("/auth")
	auth.POST("/login", s.loginLimits.Middleware(), s.HandleLoginGin)
	auth.POST("/refresh", s.HandleRefreshGin)
	auth.POST("/logout", s.HandleLogoutGin)
	r.GET("/sso/probe", s.HandleProbeGin)

	// bearer-token APIs
	api := r.Group("/api")
	api.Use(s.TokenMiddleware())
	api.GET("/sso/authorizations", s.HandleAuthorizationsGin)
	api.GET("/sso/authorizations/context", s.HandleContextualAuthorizationsGin)
	api.GET("/users/me", s.HandleMeGin)
	api.GET("/users/me/assignments", s.HandleMyAssignmentsGin)

	if s.apps != nil {
		apps := api.Group("/apps", RequirePermission(permission.AppsManage))
		apps.GET("", s.HandleListApplicationsGin)
		apps.POST("", s.HandleCreateApplicationGin)
		apps.GET("/generate/key", s.HandleGenerateKeyGin)
		apps.GET("/:id", s.HandleGetApplicationGin)
		apps.PATCH("/:id", s.HandleUpdateApplicationGin)
		apps.PUT("/:id", s.HandleUpdateApplicationGin)
		apps.DELETE("/:id", s.HandleDeleteApplicationGin)
	}
	return r
}
