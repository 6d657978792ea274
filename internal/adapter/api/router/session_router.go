package router

import (
	"foodshare/internal/adapter/api/handler"
	"foodshare/internal/adapter/api/middleware"

	"github.com/labstack/echo/v4"
)

func SetupSessionRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware) {
	sessionHandler := handler.GetSessionHandler()

	session := e.Group("/v1/session")
	session.Use(authMiddleware.Authenticate)
	session.POST("", sessionHandler.SignIn)
	session.GET("", sessionHandler.GetCurrentUser)
	session.DELETE("", sessionHandler.SignOut)
}
