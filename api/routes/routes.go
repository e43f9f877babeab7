package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/pixelpot/pixelpot-backend/internal/config"
	"github.com/pixelpot/pixelpot-backend/internal/handlers"
	"github.com/pixelpot/pixelpot-backend/internal/middleware"
)

// HandlerDependencies carries the handlers the router mounts
type HandlerDependencies struct {
	GameHandler *handlers.GameHandler
}

// SetupRouter sets up the router
func SetupRouter(cfg *config.Config, deps HandlerDependencies) *gin.Engine {
	router := gin.Default()

	// Add middleware
	router.Use(middleware.CORSMiddleware(cfg))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggerMiddleware())

	// Public routes
	public := router.Group("/api/v1")
	{
		// Health check
		public.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"status": "ok",
			})
		})

		public.POST("/click", deps.GameHandler.ResolveClick)
		public.GET("/jackpot", deps.GameHandler.GetJackpot)
		public.GET("/jackpot/history", deps.GameHandler.GetJackpotHistory)
	}

	// Collaborator routes. These disclose or mutate the hidden target and
	// drive the scheduler, so deployments front them to trusted peers only.
	internal := router.Group("/api/v1/internal")
	{
		internal.GET("/target", deps.GameHandler.GetTarget)
		internal.POST("/target/rotate", deps.GameHandler.RotateTarget)
		internal.POST("/tick", deps.GameHandler.RunTick)
	}

	return router
}
