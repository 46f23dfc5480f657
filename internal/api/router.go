package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/authgard/authgard/internal/auth"
	"github.com/authgard/authgard/internal/handlers"
	"github.com/authgard/authgard/internal/middleware"
)

// Options carries router-level settings resolved from application config.
type Options struct {
	Cookie handlers.CookieConfig

	// Prometheus mounts GET /metrics when enabled.
	Prometheus bool
}

// NewRouter builds the Gin engine, wires middleware and registers all routes.
func NewRouter(db *gorm.DB, svc *auth.Service, opts Options) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if svc == nil {
		return nil, fmt.Errorf("auth service must be provided")
	}

	r := gin.New()

	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())

	r.GET("/health", handlers.Health(db))
	if opts.Prometheus {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	authHandler := handlers.NewAuthHandler(svc, opts.Cookie)

	// Public auth routes. Logout stays public so a stale or missing
	// cookie still logs out cleanly.
	public := r.Group("/api/auth")
	{
		public.POST("/register", authHandler.Register)
		public.POST("/login", authHandler.Login)
		public.POST("/logout", authHandler.Logout)
	}

	protected := r.Group("/api/auth")
	protected.Use(middleware.SessionAuth(svc))
	{
		protected.GET("/session", authHandler.Session)
		protected.POST("/extend", authHandler.Extend)
		protected.POST("/logout-all", authHandler.LogoutAll)
		protected.GET("/me", authHandler.Me)
	}

	return r, nil
}
