package router

import (
	"foodshare/internal/adapter/api/handler"
	"foodshare/internal/adapter/api/middleware"

	"github.com/labstack/echo/v4"
)

func SetupListingRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, publicLimit echo.MiddlewareFunc) {
	listingHandler := handler.GetListingHandler()

	public := e.Group("/v1/listings")
	public.Use(publicLimit)
	public.GET("", listingHandler.QueryListings)
	public.GET("/:id", listingHandler.GetListing)
	public.GET("/:id/similar", listingHandler.GetSimilarListings)

	listings := e.Group("/v1/listings")
	listings.Use(authMiddleware.Authenticate)
	listings.POST("", listingHandler.CreateListing)
	listings.POST("/images", listingHandler.UploadImage)
	listings.PUT("/:id", listingHandler.UpdateListing)
	listings.DELETE("/:id", listingHandler.DeleteListing)

	myListings := e.Group("/v1/my-listings")
	myListings.Use(authMiddleware.Authenticate)
	myListings.GET("", listingHandler.GetMyListings)
}
