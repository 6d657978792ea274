package entity

import "time"

type LastMessage struct {
	Text      string    `json:"text" firestore:"text"`
	SenderID  string    `json:"sender_id" firestore:"senderId"`
	Timestamp time.Time `json:"timestamp" firestore:"timestamp"`
}

type Conversation struct {
	ID           string         `json:"id" firestore:"id"`
	Participants []string       `json:"participants" firestore:"participants"`
	BuyerID      string         `json:"buyer_id" firestore:"buyerId"`
	SellerID     string         `json:"seller_id" firestore:"sellerId"`
	ListingID    string         `json:"listing_id" firestore:"listingId"`
	LastMessage  *LastMessage   `json:"last_message,omitempty" firestore:"lastMessage,omitempty"`
	UnreadCount  map[string]int `json:"unread_count" firestore:"unreadCount"` // participant id -> unread messages
	CreatedAt    time.Time      `json:"created_at" firestore:"createdAt"`
	UpdatedAt    time.Time      `json:"updated_at" firestore:"updatedAt"`
}

func (c *Conversation) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// Counterpart returns the other participant, or "" if userID is not part of the conversation.
func (c *Conversation) Counterpart(userID string) string {
	if !c.HasParticipant(userID) {
		return ""
	}
	for _, p := range c.Participants {
		if p != userID {
			return p
		}
	}
	return ""
}
