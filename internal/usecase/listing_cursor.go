package usecase

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"time"

	"foodshare/internal/domain/entity"
	"foodshare/internal/domain/repository"
)

// listingCursor is the decoded form of the opaque page token handed to clients. It is
// bound to the filter and sort that produced it through Fingerprint.
type listingCursor struct {
	Fingerprint string     `json:"f"`
	Time        *time.Time `json:"t,omitempty"`
	Number      *float64   `json:"n,omitempty"`
	ID          string     `json:"id"`
}

func fingerprint(filter ListingFilter, sort ListingSort) string {
	donation := "any"
	if filter.IsDonation != nil {
		donation = fmt.Sprintf("%t", *filter.IsDonation)
	}

	h := fnv.New64a()
	fmt.Fprintf(h, "city=%s|donation=%s|free=%t|sort=%s", filter.City, donation, filter.FreeOnly, sort)
	return fmt.Sprintf("%016x", h.Sum64())
}

func encodeCursor(filter ListingFilter, sort ListingSort, last *entity.Listing) (string, error) {
	c := listingCursor{
		Fingerprint: fingerprint(filter, sort),
		ID:          last.ID,
	}
	switch sort {
	case SortExpiring:
		t := last.ExpiresAt
		c.Time = &t
	case SortPriceAsc, SortPriceDesc:
		if last.Price != nil {
			n := *last.Price
			c.Number = &n
		}
	default:
		t := last.CreatedAt
		c.Time = &t
	}

	raw, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// decodeCursor returns the store position encoded in token. A token minted for another
// filter or sort yields nil, which restarts pagination.
func decodeCursor(token string, filter ListingFilter, sort ListingSort) (*repository.ListingCursor, error) {
	if token == "" {
		return nil, nil
	}

	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, err
	}
	var c listingCursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, err
	}
	if c.ID == "" {
		return nil, fmt.Errorf("cursor has no document id")
	}
	if c.Fingerprint != fingerprint(filter, sort) {
		return nil, nil
	}

	return &repository.ListingCursor{
		Time:   c.Time,
		Number: c.Number,
		ID:     c.ID,
	}, nil
}
