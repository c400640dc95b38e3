package routes

import (
	"todo_backend/internal/handlers"
	"todo_backend/internal/logger"
	"todo_backend/internal/middleware"
	"todo_backend/ws"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all HTTP and WebSocket routes.
func RegisterRoutes(
	ginRouter *gin.Engine,
	appHandlers *handlers.AppHandlers,
	wsHandler *ws.Handler,
) {
	api := ginRouter.Group("/api/v1")
	api.Use(middleware.AuthMiddleware())
	{
		appHandlers.NotificationHandler.RegisterRoutes(api)
		appHandlers.ReminderHandler.RegisterRoutes(api)
	}

	wsGroup := ginRouter.Group("/ws")
	wsGroup.Use(middleware.AuthMiddleware())
	{
		wsGroup.GET("", wsHandler.ServeWS)
	}
	logger.Info("WebSocket route /ws registered")
}
