package router

import (
	"github.com/labstack/echo/v4"

	"foodshare/internal/adapter/api/middleware"
)

func Setup(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, publicLimit echo.MiddlewareFunc) {
	SetupHealthRouter(e)
	SetupSessionRouter(e, authMiddleware)
	SetupListingRouter(e, authMiddleware, publicLimit)
	SetupChatRouter(e, authMiddleware)
	SetupWebSocketRouter(e, authMiddleware)
	SetupOrderRouter(e, authMiddleware)
}
