package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fidelis/internal/domain"
	"fidelis/internal/handler"
	"fidelis/internal/middleware"
	"fidelis/internal/service"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	authSvc service.AuthService,
	validationH *handler.ValidationHandler,
	healthH *handler.HealthHandler,
	allowedOrigins []string,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(allowedOrigins))

	// Health checks and metrics
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")

	// Protected routes - require valid JWT
	protected := v1.Group("")
	protected.Use(middleware.AuthMiddleware(authSvc))

	invoices := protected.Group("/invoices")
	invoices.POST("/validate", validationH.Validate)
	invoices.GET("/validations", validationH.List)
	invoices.GET("/validations/export", middleware.RequireRole(domain.RoleAdmin), validationH.Export)
	invoices.GET("/validations/:id", validationH.GetByID)

	return r
}
