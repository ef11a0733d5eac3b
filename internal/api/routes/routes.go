package routes

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/intelink/console/internal/api/handlers"
	"github.com/intelink/console/internal/api/middleware"
	"github.com/intelink/console/internal/charts"
	"github.com/intelink/console/internal/config"
	"github.com/intelink/console/internal/geo"
	"github.com/intelink/console/internal/logger"
	"github.com/intelink/console/internal/metrics"
	"github.com/intelink/console/internal/models"
)

// Register wires up API routes and performs automatic migrations.
func Register(router *gin.Engine, db *gorm.DB, cfg config.Config) error {
	if err := db.AutoMigrate(&models.AccessPreset{}, &models.StoredSession{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.Register(registry)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	router.GET("/api/v1/health", handlers.HealthHandler)

	resolver := openResolver(cfg.GeoIPDatabase)
	var world *charts.WorldLoader
	if cfg.WorldGeoJSON != "" {
		world = charts.NewWorldLoader(cfg.WorldGeoJSON, nil)
	} else {
		logger.Log().Info("INTELINK_WORLD_GEOJSON not set, map charts disabled")
	}

	api := router.Group("/api/v1")

	api.GET("/countries", handlers.ListCountries)
	api.GET("/countries/:code", handlers.GetCountry)

	accessControlHandler := handlers.NewAccessControlHandler(resolver, world)
	acl := api.Group("/access-control")
	acl.POST("/validate", accessControlHandler.Validate)
	acl.POST("/preview", accessControlHandler.Preview)
	acl.POST("/preview/map", accessControlHandler.PreviewMap)
	acl.POST("/evaluate", accessControlHandler.Evaluate)
	acl.POST("/payload", accessControlHandler.Payload)

	presetHandler := handlers.NewAccessPresetHandler(db)
	presets := api.Group("/access-presets")
	presets.GET("", presetHandler.List)
	presets.POST("", presetHandler.Create)
	presets.GET("/templates", presetHandler.GetTemplates)
	presets.POST("/templates/:template", presetHandler.CreateFromTemplate)
	presets.GET("/:id", presetHandler.Get)
	presets.PUT("/:id", presetHandler.Update)
	presets.DELETE("/:id", presetHandler.Delete)
	presets.POST("/:id/evaluate", presetHandler.Evaluate)

	chartsHandler := handlers.NewChartsHandler(world)
	chartGroup := api.Group("/charts")
	chartGroup.POST("/bar", chartsHandler.Bar)
	chartGroup.POST("/line", chartsHandler.Line)
	chartGroup.POST("/pie", chartsHandler.Pie)
	chartGroup.POST("/map", chartsHandler.Map)

	// Statistics are fetched from the backend with the caller's own token.
	statsHandler := handlers.NewStatisticsHandler(cfg.BackendURL, cfg.RequestTimeout, world)
	stats := api.Group("/statistics", middleware.RequireBearer())
	stats.GET("/overview/:dimension", statsHandler.Overview)
	stats.GET("/:code/:dimension", statsHandler.Dimension)

	return nil
}

// openResolver falls back to a resolver that never answers when the GeoIP
// database is missing; IP-only evaluation keeps working.
func openResolver(path string) geo.Resolver {
	if path == "" {
		logger.Log().Info("INTELINK_GEOIP_DB not set, visitor countries will not be resolved")
		return geo.Unavailable{}
	}
	reader, err := geo.Open(path)
	if err != nil {
		logger.Log().WithError(err).WithField("path", path).Warn("failed to open GeoIP database")
		return geo.Unavailable{}
	}
	return reader
}
