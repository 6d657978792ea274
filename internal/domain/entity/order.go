package entity

import (
	"strings"
	"time"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"

	// OrderPlaced labels the first history entry written at checkout. It stands for pending.
	OrderPlaced OrderStatus = "ordered"
)

// Normalize maps history labels onto order states.
func (s OrderStatus) Normalize() OrderStatus {
	if s == OrderPlaced {
		return OrderPending
	}
	return s
}

func (s OrderStatus) IsTerminal() bool {
	n := s.Normalize()
	return n == OrderDelivered || n == OrderCancelled
}

// Next returns the forward transition a seller may apply, if any.
func (s OrderStatus) Next() (OrderStatus, bool) {
	switch s.Normalize() {
	case OrderPending:
		return OrderProcessing, true
	case OrderProcessing:
		return OrderShipped, true
	case OrderShipped:
		return OrderDelivered, true
	}
	return "", false
}

type PaymentMethod string

const (
	PaymentCash PaymentMethod = "cash"
	PaymentUPI  PaymentMethod = "upi"
	PaymentCard PaymentMethod = "card"
)

func (p PaymentMethod) Valid() bool {
	switch p {
	case PaymentCash, PaymentUPI, PaymentCard:
		return true
	}
	return false
}

type ShippingAddress struct {
	FullName string `json:"full_name" firestore:"fullName"`
	Phone    string `json:"phone" firestore:"phone"`
	Address  string `json:"address" firestore:"address"`
	City     string `json:"city" firestore:"city"`
	State    string `json:"state" firestore:"state"`
	Zip      string `json:"zip" firestore:"zip"`
}

// MissingFields lists the blank required fields of the address.
func (a ShippingAddress) MissingFields() []string {
	var missing []string
	fields := []struct{ name, value string }{
		{"full_name", a.FullName},
		{"phone", a.Phone},
		{"address", a.Address},
		{"city", a.City},
		{"state", a.State},
		{"zip", a.Zip},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// TrackingEvent is immutable once appended to an order's history.
type TrackingEvent struct {
	Status    OrderStatus `json:"status" firestore:"status"`
	Timestamp time.Time   `json:"timestamp" firestore:"timestamp"`
	Message   string      `json:"message" firestore:"message"`
}

type Order struct {
	ID              string          `json:"id" firestore:"id"`
	BuyerID         string          `json:"buyer_id" firestore:"buyerId"`
	SellerID        string          `json:"seller_id" firestore:"sellerId"`
	ListingID       string          `json:"listing_id" firestore:"listingId"`
	ListingTitle    string          `json:"listing_title" firestore:"listingTitle"`
	Amount          float64         `json:"amount" firestore:"amount"`
	PaymentMethod   PaymentMethod   `json:"payment_method" firestore:"paymentMethod"`
	ShippingAddress ShippingAddress `json:"shipping_address" firestore:"shippingAddress"`
	Status          OrderStatus     `json:"status" firestore:"status"`
	TrackingHistory []TrackingEvent `json:"tracking_history" firestore:"trackingHistory"`
	CreatedAt       time.Time       `json:"created_at" firestore:"createdAt"`
	UpdatedAt       time.Time       `json:"updated_at" firestore:"updatedAt"`
}

// LatestEvent returns the most recently appended history entry.
func (o *Order) LatestEvent() (TrackingEvent, bool) {
	if len(o.TrackingHistory) == 0 {
		return TrackingEvent{}, false
	}
	return o.TrackingHistory[len(o.TrackingHistory)-1], true
}
