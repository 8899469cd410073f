package api

import (
	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"

	"github.com/supportos/complaintstack/api/handlers"
	"github.com/supportos/complaintstack/api/middleware"
	"github.com/supportos/complaintstack/internal/repository"
	"github.com/supportos/complaintstack/internal/tracing"
	"github.com/supportos/complaintstack/services"
)

// RegisterRoutes sets up all API endpoints
func RegisterRoutes(r *gin.Engine, s *services.Services, repos *repository.Repositories, apikey string) {
	if s == nil {
		panic("Services cannot be nil")
	}
	if repos == nil {
		panic("Repositories cannot be nil")
	}

	// Add recovery middlewares
	r.Use(gin.Recovery())                                         // Gin's built-in recovery
	r.Use(tracing.RecoveryWithJaeger(opentracing.GlobalTracer())) // Our custom Jaeger recovery

	// setup handlers
	apiHandlers := handlers.InitHandlers(repos, s)

	// Health check endpoint (no auth needed)
	r.GET("/health", handlers.HealthCheck)

	apiKeyMiddleware := middleware.APIKeyMiddleware(middleware.APIKeyConfig{
		HeaderName:  "X-COMPLAINTSTACK-API-KEY",
		ValidAPIKey: apikey,
	})

	// API group with version
	api := r.Group("/v1")
	api.Use(apiKeyMiddleware)
	api.Use(middleware.TracingMiddleware()) // Add tracing for all /v1/* endpoints
	{
		complaints := api.Group("/complaints")
		{
			complaints.GET("", apiHandlers.Complaints.List())
			complaints.GET("/:id", apiHandlers.Complaints.Get())
			complaints.GET("/:id/attachments/:attachmentId/url", apiHandlers.Complaints.AttachmentURL())
			complaints.POST("/:id/reprocess", apiHandlers.Complaints.Reprocess())
		}

		pipeline := api.Group("/pipeline")
		{
			pipeline.GET("/status", apiHandlers.Pipeline.Status())
		}
	}
}
