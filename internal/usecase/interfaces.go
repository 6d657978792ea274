package usecase

import (
	"context"
	"io"
	"time"

	"foodshare/internal/domain/entity"
)

type FirebaseAuthClient interface {
	VerifyToken(ctx context.Context, token string) (*entity.Identity, error)
	RevokeRefreshTokens(ctx context.Context, uid string) error
}

// Notifier pushes out-of-band events to a user's open connections.
type Notifier interface {
	NotifyUser(userID string, event string, data interface{})
}

type ImageStore interface {
	UploadListingImage(ctx context.Context, ownerID string, file io.Reader, filename, contentType string) (string, error)
}

// RateLimiter gates per-user actions such as message sends.
type RateLimiter interface {
	Allow(userID, action string) (bool, time.Duration)
}
