package handler

import (
	"context"

	"github.com/labstack/echo/v4"

	"foodshare/internal/adapter/api/middleware"
	"foodshare/internal/domain/entity"
	"foodshare/internal/usecase"
	"foodshare/pkg/response"
	"foodshare/pkg/utils"
)

type OrderService interface {
	PlaceOrder(ctx context.Context, buyerID string, input usecase.PlaceOrderInput) (*entity.Order, error)
	Cancel(ctx context.Context, buyerID, orderID, reason string) (*entity.Order, error)
	AdvanceStatus(ctx context.Context, sellerID, orderID string, input usecase.AdvanceStatusInput) (*entity.Order, error)
	GetOrder(ctx context.Context, userID, orderID string) (*entity.Order, error)
	ListOrders(ctx context.Context, userID, role string, limit int) ([]*entity.Order, error)
}

type OrderHandler struct {
	orders OrderService
}

func NewOrderHandler(orders OrderService) *OrderHandler {
	return &OrderHandler{
		orders: orders,
	}
}

type cancelOrderRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

func (h *OrderHandler) PlaceOrder(c echo.Context) error {
	var req usecase.PlaceOrderInput
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	order, err := h.orders.PlaceOrder(c.Request().Context(), middleware.GetUID(c), req)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, order)
}

// ListOrders lists the caller's purchases, or their sales with ?role=seller.
func (h *OrderHandler) ListOrders(c echo.Context) error {
	params := utils.GetCursorParams(c, 20, 100)

	orders, err := h.orders.ListOrders(c.Request().Context(), middleware.GetUID(c), c.QueryParam("role"), params.Limit)
	if err != nil {
		return response.Error(c, err)
	}
	if orders == nil {
		orders = []*entity.Order{}
	}

	return response.Success(c, orders)
}

func (h *OrderHandler) GetOrder(c echo.Context) error {
	order, err := h.orders.GetOrder(c.Request().Context(), middleware.GetUID(c), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, order)
}

// CancelOrder is only accepted from the buyer. Blank reasons are rejected by the tracker
// as well as here.
func (h *OrderHandler) CancelOrder(c echo.Context) error {
	var req cancelOrderRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	order, err := h.orders.Cancel(c.Request().Context(), middleware.GetUID(c), c.Param("id"), req.Reason)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, order)
}

// AdvanceStatus moves the order one step forward on the seller's behalf.
func (h *OrderHandler) AdvanceStatus(c echo.Context) error {
	var req usecase.AdvanceStatusInput
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	order, err := h.orders.AdvanceStatus(c.Request().Context(), middleware.GetUID(c), c.Param("id"), req)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, order)
}
