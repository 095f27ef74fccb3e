package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"filevault-backend/internal/files"
	"filevault-backend/internal/links"
	"filevault-backend/internal/shared/auth"
	"filevault-backend/internal/shared/config"
	"filevault-backend/internal/shared/metrics"
	"filevault-backend/internal/shared/server/middleware"
	"filevault-backend/internal/shared/server/respond"
)

// RouterDeps carries the resolved handlers and shared services the router
// needs.
type RouterDeps struct {
	Config   config.Config
	Verifier *auth.Verifier
	Files    *files.Handler
	Links    *links.Handler
}

// NewRouter constructs the Gin engine with middleware and routes registered.
// The public download route sits outside the authenticated group on
// purpose: share links are the only unauthenticated way at a payload.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	r.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	r.GET("/metrics", metrics.Handler())

	deps.Links.RegisterPublicRoutes(r)

	api := r.Group("/api/v1")
	api.Use(middleware.Auth(deps.Verifier))
	deps.Files.RegisterRoutes(api)
	deps.Links.RegisterRoutes(api)

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
