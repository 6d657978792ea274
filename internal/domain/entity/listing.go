package entity

import (
	"time"
)

type Location struct {
	Address string `json:"address" firestore:"address"`
	City    string `json:"city" firestore:"city"`
	State   string `json:"state" firestore:"state"`
}

type Listing struct {
	ID          string    `json:"id" firestore:"id"`
	OwnerID     string    `json:"owner_id" firestore:"ownerId"`
	Title       string    `json:"title" firestore:"title"`
	Description string    `json:"description" firestore:"description"`
	Price       *float64  `json:"price" firestore:"price"` // nil or 0 means free, independent of IsDonation
	IsDonation  bool      `json:"is_donation" firestore:"isDonation"`
	IsFree      bool      `json:"is_free" firestore:"isFree"` // derived from Price on every write
	IsAvailable bool      `json:"is_available" firestore:"isAvailable"`
	Category    string    `json:"category" firestore:"category"`
	Location    Location  `json:"location" firestore:"location"`
	ImageURLs   []string  `json:"image_urls,omitempty" firestore:"imageUrls,omitempty"`
	SoldTo      string    `json:"sold_to,omitempty" firestore:"soldTo,omitempty"`
	ExpiresAt   time.Time `json:"expires_at" firestore:"expiresAt"`
	CreatedAt   time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt   time.Time `json:"updated_at" firestore:"updatedAt"`
}

// PriceIsFree reports whether the listing costs nothing.
func (l *Listing) PriceIsFree() bool {
	return l.Price == nil || *l.Price == 0
}

// PriceValue returns the price with nil treated as zero.
func (l *Listing) PriceValue() float64 {
	if l.Price == nil {
		return 0
	}
	return *l.Price
}

// CoverImage returns the first image URL, or "" when the listing has none.
func (l *Listing) CoverImage() string {
	if len(l.ImageURLs) == 0 {
		return ""
	}
	return l.ImageURLs[0]
}

// ListingSummary is the display metadata a conversation header needs.
type ListingSummary struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	ImageURL string `json:"image_url,omitempty"`
}
