package repository

import (
	"context"
	"time"

	"foodshare/internal/domain/entity"
)

const (
	ListingFieldCreatedAt = "createdAt"
	ListingFieldExpiresAt = "expiresAt"
	ListingFieldPrice     = "price"
)

type ListingOrder struct {
	Field string
	Desc  bool
}

// ListingCursor marks the last document of a page. Exactly one of Time or Number is set
// for non-null sort values; both nil means the sort value was null.
type ListingCursor struct {
	Time   *time.Time
	Number *float64
	ID     string
}

// ListingQuery describes one page of available listings. Zero-valued filters are not applied.
// Implementations always filter on isAvailable == true and break ties on document id in the
// direction of the primary ordering.
type ListingQuery struct {
	City       string
	Category   string
	IsDonation *bool
	FreeOnly   bool
	OrderBy    ListingOrder
	After      *ListingCursor
	Limit      int
}

type ListingRepository interface {
	Create(ctx context.Context, listing *entity.Listing) error
	GetByID(ctx context.Context, id string) (*entity.Listing, error)
	// Update writes only the owner-editable fields. Availability and soldTo belong to
	// MarkSold, Release and SoftDelete and are never overwritten here.
	Update(ctx context.Context, listing *entity.Listing) error
	SoftDelete(ctx context.Context, id string) error
	ListByOwner(ctx context.Context, ownerID string, limit int) ([]*entity.Listing, error)
	QueryAvailable(ctx context.Context, q ListingQuery) ([]*entity.Listing, error)

	// MarkSold flips isAvailable to false and records the buyer.
	MarkSold(ctx context.Context, id, buyerID string) error
	// Release flips isAvailable back to true and clears soldTo.
	Release(ctx context.Context, id string) error
}
