package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"foodshare/internal/domain/entity"
	"foodshare/internal/domain/repository"
	"foodshare/pkg/errors"
	"foodshare/pkg/logger"
	"foodshare/pkg/metrics"
)

// OrderTracker owns the append-only tracking history of orders and the listing side
// effects of placing and cancelling them.
type OrderTracker struct {
	orderRepo   repository.OrderRepository
	listingRepo repository.ListingRepository
	now         func() time.Time
}

func NewOrderTracker(orderRepo repository.OrderRepository, listingRepo repository.ListingRepository) *OrderTracker {
	return &OrderTracker{
		orderRepo:   orderRepo,
		listingRepo: listingRepo,
		now:         time.Now,
	}
}

type PlaceOrderInput struct {
	ListingID       string                 `json:"listing_id" validate:"required"`
	PaymentMethod   entity.PaymentMethod   `json:"payment_method" validate:"required,oneof=cash upi card"`
	ShippingAddress entity.ShippingAddress `json:"shipping_address"`
}

type AdvanceStatusInput struct {
	Status  entity.OrderStatus `json:"status"`
	Message string             `json:"message" validate:"max=500"`
}

// PlaceOrder creates a pending order for an available listing and marks the listing sold.
// The listing write is secondary: its failure is logged and the order stands.
func (t *OrderTracker) PlaceOrder(ctx context.Context, buyerID string, input PlaceOrderInput) (*entity.Order, error) {
	if missing := input.ShippingAddress.MissingFields(); len(missing) > 0 {
		return nil, errors.ValidationFailed("Shipping address is incomplete: " + strings.Join(missing, ", "))
	}
	if !input.PaymentMethod.Valid() {
		return nil, errors.ValidationFailed("payment_method must be one of: cash, upi, card")
	}

	listing, err := t.listingRepo.GetByID(ctx, input.ListingID)
	if err != nil {
		return nil, err
	}
	if !listing.IsAvailable {
		return nil, errors.ValidationFailed("Listing is no longer available")
	}
	if listing.OwnerID == buyerID {
		return nil, errors.ValidationFailed("You cannot order your own listing")
	}

	now := t.now()
	order := &entity.Order{
		BuyerID:         buyerID,
		SellerID:        listing.OwnerID,
		ListingID:       listing.ID,
		ListingTitle:    listing.Title,
		Amount:          listing.PriceValue(),
		PaymentMethod:   input.PaymentMethod,
		ShippingAddress: input.ShippingAddress,
		Status:          entity.OrderPending,
		TrackingHistory: []entity.TrackingEvent{
			{Status: entity.OrderPlaced, Timestamp: now, Message: "Order placed"},
		},
	}
	if err := t.orderRepo.Create(ctx, order); err != nil {
		return nil, err
	}
	metrics.OrderTransitions.WithLabelValues(string(entity.OrderPlaced)).Inc()

	if err := t.listingRepo.MarkSold(ctx, listing.ID, buyerID); err != nil {
		logger.Warn("Order %s placed but listing %s could not be marked sold: %v", order.ID, listing.ID, err)
		metrics.SecondaryWriteFailures.WithLabelValues("mark_sold").Inc()
	}

	logger.Info("Order %s placed by %s for listing %s", order.ID, buyerID, listing.ID)
	return order, nil
}

// Cancel appends a cancelled entry to the buyer's order and makes the listing available
// again. Every precondition is checked before the first write. The two writes are
// independent; a failure of either is reported as the same error.
func (t *OrderTracker) Cancel(ctx context.Context, buyerID, orderID, reason string) (*entity.Order, error) {
	order, err := t.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.BuyerID != buyerID {
		return nil, errors.AccessDenied("Only the buyer can cancel this order")
	}
	if order.Status.IsTerminal() {
		return nil, errors.ValidationFailed(fmt.Sprintf("Order is already %s and cannot be cancelled", order.Status.Normalize()))
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, errors.ValidationFailed("A cancellation reason is required")
	}

	event := entity.TrackingEvent{
		Status:    entity.OrderCancelled,
		Timestamp: t.now(),
		Message:   "Order cancelled by buyer: " + reason,
	}
	if err := t.orderRepo.AppendHistory(ctx, order.ID, event); err != nil {
		return nil, errors.RemoteFailed("Failed to cancel order", err)
	}
	metrics.OrderTransitions.WithLabelValues(string(entity.OrderCancelled)).Inc()
	applyEvent(order, event)

	if err := t.listingRepo.Release(ctx, order.ListingID); err != nil {
		logger.Error("Order %s cancelled but listing %s was not released: %v", order.ID, order.ListingID, err)
		return nil, errors.RemoteFailed("Failed to cancel order", err)
	}

	logger.Info("Order %s cancelled by %s", order.ID, buyerID)
	return order, nil
}

// AdvanceStatus moves the seller's order one step forward along
// pending, processing, shipped, delivered. A requested status other than the next one is
// rejected.
func (t *OrderTracker) AdvanceStatus(ctx context.Context, sellerID, orderID string, input AdvanceStatusInput) (*entity.Order, error) {
	order, err := t.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.SellerID != sellerID {
		return nil, errors.AccessDenied("Only the seller can update this order")
	}

	next, ok := order.Status.Next()
	if !ok {
		return nil, errors.ValidationFailed(fmt.Sprintf("Order is already %s", order.Status.Normalize()))
	}
	if input.Status != "" && input.Status.Normalize() != next {
		return nil, errors.ValidationFailed(fmt.Sprintf("Order can only move from %s to %s", order.Status.Normalize(), next))
	}

	message := strings.TrimSpace(input.Message)
	if message == "" {
		message = "Order is now " + string(next)
	}
	event := entity.TrackingEvent{Status: next, Timestamp: t.now(), Message: message}

	if err := t.orderRepo.AppendHistory(ctx, order.ID, event); err != nil {
		return nil, err
	}
	metrics.OrderTransitions.WithLabelValues(string(next)).Inc()
	applyEvent(order, event)

	return order, nil
}

func (t *OrderTracker) GetOrder(ctx context.Context, userID, orderID string) (*entity.Order, error) {
	order, err := t.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.BuyerID != userID && order.SellerID != userID {
		return nil, errors.AccessDenied("You don't have permission to view this order")
	}
	return order, nil
}

func (t *OrderTracker) ListOrders(ctx context.Context, userID, role string, limit int) ([]*entity.Order, error) {
	if role == "" {
		role = "buyer"
	}
	if role != "buyer" && role != "seller" {
		return nil, errors.ValidationFailed("role must be one of: buyer, seller")
	}
	return t.orderRepo.ListByUserID(ctx, userID, role, limit)
}

func applyEvent(order *entity.Order, event entity.TrackingEvent) {
	order.TrackingHistory = append(order.TrackingHistory, event)
	order.Status = event.Status.Normalize()
	order.UpdatedAt = event.Timestamp
}
