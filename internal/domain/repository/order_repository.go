package repository

import (
	"context"

	"foodshare/internal/domain/entity"
)

type OrderRepository interface {
	Create(ctx context.Context, order *entity.Order) error
	GetByID(ctx context.Context, id string) (*entity.Order, error)
	// AppendHistory appends event to the tracking history and mirrors event.Status into the
	// order's status field in the same document write.
	AppendHistory(ctx context.Context, orderID string, event entity.TrackingEvent) error
	ListByUserID(ctx context.Context, userID string, role string, limit int) ([]*entity.Order, error)
}
