package routes

import (
	"github.com/gin-gonic/gin"

	"shareplace_backend/internal/handlers"
	"shareplace_backend/internal/logger"
	"shareplace_backend/internal/metrics"
)

// RegisterRoutes mounts the API under /api, stored files under filesPrefix
// and the operational endpoints at the root.
func RegisterRoutes(
	ginRouter *gin.Engine,
	appHandlers *handlers.AppHandlers,
	authMiddleware gin.HandlerFunc,
	filesPrefix string,
) {
	api := ginRouter.Group("/api")
	{
		appHandlers.PlaceHandler.RegisterRoutes(api, authMiddleware)
		appHandlers.UserHandler.RegisterRoutes(api)
	}

	if appHandlers.FileHandler != nil && filesPrefix != "" {
		appHandlers.FileHandler.RegisterRoutes(ginRouter.Group(filesPrefix))
		logger.Info("File routes registered", "prefix", filesPrefix)
	}

	appHandlers.HealthHandler.RegisterRoutes(ginRouter)
	ginRouter.GET("/metrics", gin.WrapH(metrics.Handler()))
}
