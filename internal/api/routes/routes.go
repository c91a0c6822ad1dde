package routes

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/japperJ/geo2-ip-webserver/internal/api/handlers"
	"github.com/japperJ/geo2-ip-webserver/internal/api/middleware"
	"github.com/japperJ/geo2-ip-webserver/internal/artifact"
	"github.com/japperJ/geo2-ip-webserver/internal/config"
	"github.com/japperJ/geo2-ip-webserver/internal/database"
	"github.com/japperJ/geo2-ip-webserver/internal/geoip"
	"github.com/japperJ/geo2-ip-webserver/internal/metrics"
	"github.com/japperJ/geo2-ip-webserver/internal/services"
)

// Deps carries the long-lived collaborators the gateway routes need. All of
// them are optional; a zero Deps still yields a working server with
// enrichment, alerts and capture disabled.
type Deps struct {
	Geo      *geoip.Resolver
	Notifier *services.NotificationService
	Capturer artifact.Capturer
	// BaseURL is the externally reachable address used when screenshotting
	// block pages.
	BaseURL string
}

// Register wires up all routes and performs automatic migrations.
func Register(router *gin.Engine, db *gorm.DB, cfg config.Config, deps Deps) error {
	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	metrics.Register(registry)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	router.GET("/api/v1/health", handlers.HealthHandler)

	// Public gateway surface. Unauthenticated on purpose: the access engine
	// is the gate.
	public := handlers.NewPublicHandler(db, cfg.ContentDir, deps.Geo, deps.Notifier)
	if deps.Capturer != nil {
		public.SetCapturer(deps.Capturer, deps.BaseURL, cfg.ScreenshotTimeout)
	}
	router.GET("/s/:site", public.Access)
	router.GET("/s/:site/content/*filepath", public.Content)

	api := router.Group("/api/v1")

	authService := services.NewAuthService(db, cfg)
	authHandler := handlers.NewAuthHandler(authService)
	authMiddleware := middleware.AuthMiddleware(authService)

	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)

	siteHandler := handlers.NewSiteHandler(db)
	ipRuleHandler := handlers.NewIPRuleHandler(db)
	geofenceHandler := handlers.NewGeofenceHandler(db)
	auditHandler := handlers.NewAuditHandler(db, cfg.ArtifactDir)
	settingHandler := handlers.NewSettingHandler(db)

	protected := api.Group("/")
	protected.Use(authMiddleware)
	{
		protected.GET("/auth/me", authHandler.Me)

		// Sites
		protected.POST("/sites", siteHandler.Create)
		protected.GET("/sites", siteHandler.List)
		protected.GET("/sites/:id", siteHandler.Get)
		protected.PUT("/sites/:id", siteHandler.Update)
		protected.DELETE("/sites/:id", siteHandler.Delete)

		// IP rules
		protected.POST("/sites/:id/ip-rules", ipRuleHandler.Create)
		protected.GET("/sites/:id/ip-rules", ipRuleHandler.List)
		protected.PUT("/ip-rules/:id", ipRuleHandler.Update)
		protected.DELETE("/ip-rules/:id", ipRuleHandler.Delete)

		// Geofences
		protected.POST("/sites/:id/geofences", geofenceHandler.Create)
		protected.GET("/sites/:id/geofences", geofenceHandler.List)
		protected.PUT("/geofences/:id", geofenceHandler.Update)
		protected.DELETE("/geofences/:id", geofenceHandler.Delete)

		// Audit log
		protected.GET("/sites/:id/audits", auditHandler.List)
		protected.GET("/sites/:id/audits/export", auditHandler.Export)
		protected.GET("/audits/:id/artifact", auditHandler.Artifact)

		// Runtime settings
		protected.GET("/settings", settingHandler.List)
		protected.POST("/settings", middleware.RequireRole("admin"), settingHandler.Update)
	}

	return nil
}
