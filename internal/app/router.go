package app

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"

	"ridehail/internal/auth"
	"ridehail/internal/handler"
	"ridehail/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	RequestHandler      *handler.RequestHandler
	RideHandler         *handler.RideHandler
	WalletHandler       *handler.WalletHandler
	NotificationHandler *handler.NotificationHandler
	Verifier            auth.Verifier
	Responses           middleware.ResponseStore // nil disables Idempotency-Key replay
	NewRelicApp         *newrelic.Application
	AllowedOrigins      []string
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORSMiddleware(deps.AllowedOrigins))

	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 routes. Idempotency keys are scoped per caller, so replay runs
	// after authentication.
	v1 := router.Group("/v1")
	v1.Use(middleware.Auth(deps.Verifier))
	if deps.Responses != nil {
		v1.Use(middleware.IdempotencyMiddleware(deps.Responses))
	}
	{
		requests := v1.Group("/requests")
		{
			requests.POST("", deps.RequestHandler.Create)
			requests.GET("/:id", deps.RequestHandler.Get)
			requests.POST("/:id/cancel", deps.RequestHandler.Cancel)
			requests.POST("/:id/claim", deps.RequestHandler.Claim)
		}

		rides := v1.Group("/rides")
		{
			rides.GET("", deps.RideHandler.List)
			rides.GET("/:id", deps.RideHandler.Get)
			rides.POST("/:id/status", deps.RideHandler.UpdateStatus)
			rides.POST("/:id/cancel", deps.RideHandler.Cancel)
			rides.POST("/:id/complete", deps.RideHandler.Complete)
		}

		wallet := v1.Group("/wallet")
		{
			wallet.POST("", deps.WalletHandler.Open)
			wallet.GET("", deps.WalletHandler.Get)
			wallet.GET("/ledger", deps.WalletHandler.Ledger)
			wallet.POST("/topups", deps.WalletHandler.CreateTopUp)
			wallet.POST("/topups/confirm", deps.WalletHandler.ConfirmTopUp)
		}

		v1.GET("/notifications", deps.NotificationHandler.List)
	}

	return router
}
