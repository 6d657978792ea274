package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"

	"foodshare/internal/domain/entity"
	"foodshare/internal/domain/repository"
	"foodshare/pkg/errors"
)

const ordersCollection = "orders"

type firestoreOrderRepository struct {
	client *firestore.Client
}

func NewFirestoreOrderRepository(client *firestore.Client) repository.OrderRepository {
	return &firestoreOrderRepository{
		client: client,
	}
}

func (r *firestoreOrderRepository) Create(ctx context.Context, order *entity.Order) error {
	// Generate ID if not provided
	if order.ID == "" {
		order.ID = uuid.New().String()
	}

	now := time.Now()
	order.CreatedAt = now
	order.UpdatedAt = now

	_, err := r.client.Collection(ordersCollection).Doc(order.ID).Set(ctx, order)
	if err != nil {
		return errors.RemoteFailed("Failed to create order", err)
	}

	return nil
}

func (r *firestoreOrderRepository) GetByID(ctx context.Context, id string) (*entity.Order, error) {
	doc, err := r.client.Collection(ordersCollection).Doc(id).Get(ctx)
	if err != nil {
		return nil, storeError("Order", "Failed to get order", err)
	}

	var order entity.Order
	if err := doc.DataTo(&order); err != nil {
		return nil, errors.Internal("Failed to parse order data", err)
	}
	order.ID = doc.Ref.ID

	return &order, nil
}

func (r *firestoreOrderRepository) AppendHistory(ctx context.Context, orderID string, event entity.TrackingEvent) error {
	_, err := r.client.Collection(ordersCollection).Doc(orderID).Update(ctx, []firestore.Update{
		{Path: "trackingHistory", Value: firestore.ArrayUnion(event)},
		{Path: "status", Value: event.Status.Normalize()},
		{Path: "updatedAt", Value: event.Timestamp},
	})
	if err != nil {
		return storeError("Order", "Failed to update order history", err)
	}

	return nil
}

func (r *firestoreOrderRepository) ListByUserID(ctx context.Context, userID string, role string, limit int) ([]*entity.Order, error) {
	var field string
	switch role {
	case "buyer":
		field = "buyerId"
	case "seller":
		field = "sellerId"
	default:
		return nil, errors.BadRequest("Invalid role, must be 'buyer' or 'seller'", nil)
	}

	query := r.client.Collection(ordersCollection).
		Where(field, "==", userID).
		OrderBy("createdAt", firestore.Desc)
	if limit > 0 {
		query = query.Limit(limit)
	}

	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, errors.RemoteFailed("Failed to fetch orders", err)
	}

	orders := make([]*entity.Order, 0, len(docs))
	for _, doc := range docs {
		var order entity.Order
		if err := doc.DataTo(&order); err != nil {
			continue // Skip malformed documents
		}
		order.ID = doc.Ref.ID
		orders = append(orders, &order)
	}

	return orders, nil
}
