package usecase

import (
	"context"
	"strings"

	"foodshare/internal/domain/entity"
	"foodshare/internal/domain/repository"
	"foodshare/pkg/errors"
	"foodshare/pkg/logger"
	"foodshare/pkg/metrics"
)

type ListingSort string

const (
	SortNewest    ListingSort = "newest"
	SortExpiring  ListingSort = "expiring"
	SortPriceAsc  ListingSort = "price_asc"
	SortPriceDesc ListingSort = "price_desc"
)

func ParseListingSort(raw string) (ListingSort, error) {
	switch s := ListingSort(strings.TrimSpace(raw)); s {
	case "":
		return SortNewest, nil
	case SortNewest, SortExpiring, SortPriceAsc, SortPriceDesc:
		return s, nil
	}
	return "", errors.ValidationFailed("sort must be one of: newest, expiring, price_asc, price_desc")
}

func (s ListingSort) order() repository.ListingOrder {
	switch s {
	case SortExpiring:
		return repository.ListingOrder{Field: repository.ListingFieldExpiresAt}
	case SortPriceAsc:
		return repository.ListingOrder{Field: repository.ListingFieldPrice}
	case SortPriceDesc:
		return repository.ListingOrder{Field: repository.ListingFieldPrice, Desc: true}
	}
	return repository.ListingOrder{Field: repository.ListingFieldCreatedAt, Desc: true}
}

// ListingFilter narrows the available listings. Zero values are not applied.
type ListingFilter struct {
	City       string
	IsDonation *bool
	FreeOnly   bool
}

// ListingPage is one page of a cursor walk. Exhausted means nothing at all was found from
// the requested position; a short non-empty page has HasMore false.
type ListingPage struct {
	Items      []*entity.Listing
	NextCursor string
	HasMore    bool
	Exhausted  bool
}

type ListingQueryBuilder struct {
	listingRepo repository.ListingRepository
	pageSize    int
}

func NewListingQueryBuilder(listingRepo repository.ListingRepository, pageSize int) *ListingQueryBuilder {
	if pageSize <= 0 {
		pageSize = 12
	}
	return &ListingQueryBuilder{
		listingRepo: listingRepo,
		pageSize:    pageSize,
	}
}

func (b *ListingQueryBuilder) PageSize() int {
	return b.pageSize
}

// Page returns the next page of available listings after cursor. A cursor from a
// different filter or sort is ignored and the walk starts over.
func (b *ListingQueryBuilder) Page(ctx context.Context, filter ListingFilter, sort ListingSort, cursor string) (*ListingPage, error) {
	filter.City = strings.TrimSpace(filter.City)

	after, err := decodeCursor(cursor, filter, sort)
	if err != nil {
		return nil, errors.ValidationFailed("Invalid cursor")
	}
	if cursor != "" && after == nil {
		logger.Debug("Listing cursor does not match filter/sort, restarting pagination")
	}

	metrics.ListingQueries.WithLabelValues("page").Inc()
	items, err := b.listingRepo.QueryAvailable(ctx, repository.ListingQuery{
		City:       filter.City,
		IsDonation: filter.IsDonation,
		FreeOnly:   filter.FreeOnly,
		OrderBy:    sort.order(),
		After:      after,
		Limit:      b.pageSize,
	})
	if err != nil {
		return nil, err
	}

	page := &ListingPage{Items: items}
	if len(items) == 0 {
		page.Exhausted = true
		return page, nil
	}
	if len(items) < b.pageSize {
		return page, nil
	}

	page.HasMore = true
	page.NextCursor, err = encodeCursor(filter, sort, items[len(items)-1])
	if err != nil {
		return nil, errors.Internal("Failed to encode cursor", err)
	}
	return page, nil
}
