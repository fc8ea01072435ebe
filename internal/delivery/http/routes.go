package http

import (
	"github.com/gin-gonic/gin"
	"github.com/shelfgear/backend/config"
)

// SetupRouter creates and configures the Gin router.
func SetupRouter(cfg *config.Config, handler *Handler) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		ingest := v1.Group("/ingest")
		{
			ingest.POST("/preview", handler.PreviewProduct)
			ingest.POST("/commit", handler.CommitProduct)
		}

		catalog := v1.Group("/catalog")
		{
			catalog.POST("/refresh", handler.RefreshCatalog)
		}
	}

	return router
}
