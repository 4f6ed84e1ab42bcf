package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/proposalagent/backend/config"
)

// SetupRouter creates and configures the Gin router.
// A nil gatherer leaves /metrics unregistered.
func SetupRouter(cfg *config.Config, handler *Handler, gatherer prometheus.Gatherer, logger zerolog.Logger) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RequestIDMiddleware())
	router.Use(RecoveryMiddleware(logger))
	router.Use(LoggerMiddleware(logger))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	router.GET("/health", handler.HealthCheck)
	if gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	v1 := router.Group("/api/v1")
	v1.Use(RateLimitMiddleware(cfg.RateLimit.PerIP))
	{
		products := v1.Group("/products")
		{
			products.GET("", handler.ListProducts)
			products.GET("/:id", handler.GetProduct)
		}

		proposals := v1.Group("/proposals")
		{
			proposals.POST("/analyze", handler.Analyze)
			proposals.POST("/generate", handler.Generate)
			proposals.POST("", handler.CreateProposal)
			proposals.GET("", handler.ListProposals)
			proposals.GET("/:id", handler.GetProposal)
			proposals.PATCH("/:id/status", handler.UpdateStatus)
		}
	}

	return router
}
