package entity

import (
	"time"
)

type User struct {
	ID          string    `json:"id" firestore:"id"`
	DisplayName string    `json:"display_name" firestore:"displayName"`
	Email       string    `json:"email" firestore:"email"`
	PhotoURL    string    `json:"photo_url,omitempty" firestore:"photoURL,omitempty"`
	Provider    string    `json:"provider,omitempty" firestore:"provider,omitempty"`
	CreatedAt   time.Time `json:"created_at" firestore:"createdAt"`
	LastLoginAt time.Time `json:"last_login_at" firestore:"lastLoginAt"`
	UpdatedAt   time.Time `json:"updated_at" firestore:"updatedAt"`
}

// Identity is what the identity provider asserts about a signed-in user.
type Identity struct {
	UID         string
	DisplayName string
	Email       string
	PhotoURL    string
	Provider    string
}
