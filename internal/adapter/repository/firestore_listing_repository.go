package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"foodshare/internal/domain/entity"
	"foodshare/internal/domain/repository"
	"foodshare/pkg/errors"
)

const listingsCollection = "listings"

type firestoreListingRepository struct {
	client *firestore.Client
}

func NewFirestoreListingRepository(client *firestore.Client) repository.ListingRepository {
	return &firestoreListingRepository{
		client: client,
	}
}

func (r *firestoreListingRepository) Create(ctx context.Context, listing *entity.Listing) error {
	if listing.ID == "" {
		doc := r.client.Collection(listingsCollection).NewDoc()
		listing.ID = doc.ID
	}

	now := time.Now()
	if listing.CreatedAt.IsZero() {
		listing.CreatedAt = now
	}
	listing.UpdatedAt = now
	listing.IsFree = listing.PriceIsFree()

	_, err := r.client.Collection(listingsCollection).Doc(listing.ID).Set(ctx, listing)
	if err != nil {
		return errors.RemoteFailed("Failed to create listing", err)
	}

	return nil
}

func (r *firestoreListingRepository) GetByID(ctx context.Context, id string) (*entity.Listing, error) {
	doc, err := r.client.Collection(listingsCollection).Doc(id).Get(ctx)
	if err != nil {
		return nil, storeError("Listing", "Failed to get listing", err)
	}

	var listing entity.Listing
	if err := doc.DataTo(&listing); err != nil {
		return nil, errors.Internal("Failed to parse listing data", err)
	}
	listing.ID = doc.Ref.ID

	return &listing, nil
}

func (r *firestoreListingRepository) Update(ctx context.Context, listing *entity.Listing) error {
	listing.UpdatedAt = time.Now()
	listing.IsFree = listing.PriceIsFree()

	_, err := r.client.Collection(listingsCollection).Doc(listing.ID).Update(ctx, []firestore.Update{
		{Path: "title", Value: listing.Title},
		{Path: "description", Value: listing.Description},
		{Path: "price", Value: listing.Price},
		{Path: "isFree", Value: listing.IsFree},
		{Path: "isDonation", Value: listing.IsDonation},
		{Path: "category", Value: listing.Category},
		{Path: "location", Value: listing.Location},
		{Path: "imageUrls", Value: listing.ImageURLs},
		{Path: "expiresAt", Value: listing.ExpiresAt},
		{Path: "updatedAt", Value: listing.UpdatedAt},
	})
	if err != nil {
		return storeError("Listing", "Failed to update listing", err)
	}

	return nil
}

func (r *firestoreListingRepository) SoftDelete(ctx context.Context, id string) error {
	_, err := r.client.Collection(listingsCollection).Doc(id).Update(ctx, []firestore.Update{
		{Path: "isAvailable", Value: false},
		{Path: "updatedAt", Value: time.Now()},
	})
	if err != nil {
		return storeError("Listing", "Failed to delete listing", err)
	}

	return nil
}

func (r *firestoreListingRepository) MarkSold(ctx context.Context, id, buyerID string) error {
	_, err := r.client.Collection(listingsCollection).Doc(id).Update(ctx, []firestore.Update{
		{Path: "isAvailable", Value: false},
		{Path: "soldTo", Value: buyerID},
		{Path: "updatedAt", Value: time.Now()},
	})
	if err != nil {
		return storeError("Listing", "Failed to mark listing sold", err)
	}

	return nil
}

func (r *firestoreListingRepository) Release(ctx context.Context, id string) error {
	_, err := r.client.Collection(listingsCollection).Doc(id).Update(ctx, []firestore.Update{
		{Path: "isAvailable", Value: true},
		{Path: "soldTo", Value: firestore.Delete},
		{Path: "updatedAt", Value: time.Now()},
	})
	if err != nil {
		return storeError("Listing", "Failed to release listing", err)
	}

	return nil
}

func (r *firestoreListingRepository) ListByOwner(ctx context.Context, ownerID string, limit int) ([]*entity.Listing, error) {
	query := r.client.Collection(listingsCollection).
		Where("ownerId", "==", ownerID).
		OrderBy("createdAt", firestore.Desc)
	if limit > 0 {
		query = query.Limit(limit)
	}

	return r.collect(ctx, query)
}

func (r *firestoreListingRepository) QueryAvailable(ctx context.Context, q repository.ListingQuery) ([]*entity.Listing, error) {
	query := r.client.Collection(listingsCollection).Where("isAvailable", "==", true)

	if q.City != "" {
		query = query.Where("location.city", "==", q.City)
	}
	if q.Category != "" {
		query = query.Where("category", "==", q.Category)
	}
	if q.IsDonation != nil {
		query = query.Where("isDonation", "==", *q.IsDonation)
	}
	if q.FreeOnly {
		query = query.Where("isFree", "==", true)
	}

	field := q.OrderBy.Field
	dir := firestore.Asc
	if field == "" {
		field = repository.ListingFieldCreatedAt
		dir = firestore.Desc
	} else if q.OrderBy.Desc {
		dir = firestore.Desc
	}
	// Document id breaks ties so a cursor names exactly one position.
	query = query.OrderBy(field, dir).OrderBy(firestore.DocumentID, dir)

	if q.After != nil {
		query = query.StartAfter(cursorValue(q.After), q.After.ID)
	}
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}

	return r.collect(ctx, query)
}

func cursorValue(c *repository.ListingCursor) interface{} {
	switch {
	case c.Time != nil:
		return *c.Time
	case c.Number != nil:
		return *c.Number
	}
	return nil
}

func (r *firestoreListingRepository) collect(ctx context.Context, query firestore.Query) ([]*entity.Listing, error) {
	iter := query.Documents(ctx)
	defer iter.Stop()

	listings := []*entity.Listing{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.RemoteFailed("Failed to query listings", err)
		}

		var listing entity.Listing
		if err := doc.DataTo(&listing); err != nil {
			return nil, errors.Internal("Failed to parse listing data", err)
		}
		listing.ID = doc.Ref.ID
		listings = append(listings, &listing)
	}

	return listings, nil
}
