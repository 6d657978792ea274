package router

import (
	"github.com/labstack/echo/v4"

	"foodshare/internal/adapter/api/handler"
	"foodshare/internal/adapter/api/middleware"
)

// SetupWebSocketRouter sets up WebSocket routes. Browsers pass the token as ?token=.
func SetupWebSocketRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware) {
	wsHandler := handler.GetWebSocketHandler()

	ws := e.Group("/v1/ws")
	ws.Use(authMiddleware.Authenticate)
	ws.GET("/conversations/:id", wsHandler.HandleConversation)
}
