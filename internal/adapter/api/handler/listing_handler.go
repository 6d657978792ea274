package handler

import (
	"context"
	"io"
	"strings"

	"github.com/labstack/echo/v4"

	"foodshare/internal/adapter/api/middleware"
	"foodshare/internal/domain/entity"
	"foodshare/internal/usecase"
	"foodshare/pkg/errors"
	"foodshare/pkg/response"
	"foodshare/pkg/utils"
)

const maxImageSize = 5 << 20

type ListingService interface {
	CreateListing(ctx context.Context, ownerID string, input usecase.ListingInput) (*entity.Listing, error)
	GetListing(ctx context.Context, id string) (*entity.Listing, error)
	UpdateListing(ctx context.Context, id, ownerID string, input usecase.ListingInput) (*entity.Listing, error)
	DeleteListing(ctx context.Context, id, ownerID string) error
	ListMyListings(ctx context.Context, ownerID string, limit int) ([]*entity.Listing, error)
	UploadImage(ctx context.Context, ownerID string, file io.Reader, filename, contentType string) (string, error)
}

type ListingPager interface {
	Page(ctx context.Context, filter usecase.ListingFilter, sort usecase.ListingSort, cursor string) (*usecase.ListingPage, error)
}

type SimilarFinder interface {
	Similar(ctx context.Context, listingID string) ([]*entity.Listing, error)
}

type ListingHandler struct {
	listings ListingService
	pager    ListingPager
	similar  SimilarFinder
}

func NewListingHandler(listings ListingService, pager ListingPager, similar SimilarFinder) *ListingHandler {
	return &ListingHandler{
		listings: listings,
		pager:    pager,
		similar:  similar,
	}
}

// QueryListings serves one page of available listings.
//
//	GET /v1/listings?city=&donation=&free=&sort=&cursor=
func (h *ListingHandler) QueryListings(c echo.Context) error {
	sortBy, err := usecase.ParseListingSort(c.QueryParam("sort"))
	if err != nil {
		return response.Error(c, err)
	}

	filter := usecase.ListingFilter{
		City:       strings.TrimSpace(c.QueryParam("city")),
		IsDonation: utils.GetBoolParam(c, "donation"),
	}
	if free := utils.GetBoolParam(c, "free"); free != nil {
		filter.FreeOnly = *free
	}

	page, err := h.pager.Page(c.Request().Context(), filter, sortBy, strings.TrimSpace(c.QueryParam("cursor")))
	if err != nil {
		return response.Error(c, err)
	}

	items := page.Items
	if items == nil {
		items = []*entity.Listing{}
	}
	return response.Cursor(c, response.CursorPage{
		Items:      items,
		NextCursor: page.NextCursor,
		HasMore:    page.HasMore,
		Exhausted:  page.Exhausted,
	})
}

func (h *ListingHandler) GetListing(c echo.Context) error {
	listing, err := h.listings.GetListing(c.Request().Context(), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, listing)
}

// GetSimilarListings returns related listings. When a lookup fails part way, the
// listings already found are sent along with the error.
func (h *ListingHandler) GetSimilarListings(c echo.Context) error {
	listings, err := h.similar.Similar(c.Request().Context(), c.Param("id"))
	if err != nil {
		if len(listings) > 0 {
			return response.PartialError(c, listings, err)
		}
		return response.Error(c, err)
	}
	if listings == nil {
		listings = []*entity.Listing{}
	}
	return response.Success(c, listings)
}

func (h *ListingHandler) CreateListing(c echo.Context) error {
	var req usecase.ListingInput
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	listing, err := h.listings.CreateListing(c.Request().Context(), middleware.GetUID(c), req)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, listing)
}

func (h *ListingHandler) UpdateListing(c echo.Context) error {
	var req usecase.ListingInput
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	listing, err := h.listings.UpdateListing(c.Request().Context(), c.Param("id"), middleware.GetUID(c), req)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, listing)
}

func (h *ListingHandler) DeleteListing(c echo.Context) error {
	if err := h.listings.DeleteListing(c.Request().Context(), c.Param("id"), middleware.GetUID(c)); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{
		"message": "Listing deleted successfully",
	})
}

func (h *ListingHandler) GetMyListings(c echo.Context) error {
	params := utils.GetCursorParams(c, 20, 100)

	listings, err := h.listings.ListMyListings(c.Request().Context(), middleware.GetUID(c), params.Limit)
	if err != nil {
		return response.Error(c, err)
	}
	if listings == nil {
		listings = []*entity.Listing{}
	}

	return response.Success(c, listings)
}

// UploadImage stores one listing photo from the multipart field "image".
func (h *ListingHandler) UploadImage(c echo.Context) error {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		return response.Error(c, errors.BadRequest("Image file is required", err))
	}

	if fileHeader.Size > maxImageSize {
		return response.Error(c, errors.ValidationFailed("Image must be 5MB or smaller"))
	}

	src, err := fileHeader.Open()
	if err != nil {
		return response.Error(c, errors.BadRequest("Failed to read uploaded file", err))
	}
	defer src.Close()

	url, err := h.listings.UploadImage(
		c.Request().Context(),
		middleware.GetUID(c),
		src,
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
	)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, map[string]string{
		"url": url,
	})
}
