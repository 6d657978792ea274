package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"foodshare/internal/domain/entity"
	"foodshare/internal/domain/repository"
	"foodshare/pkg/errors"
)

const usersCollection = "users"

type firestoreUserRepository struct {
	client *firestore.Client
}

func NewFirestoreUserRepository(client *firestore.Client) repository.UserRepository {
	return &firestoreUserRepository{
		client: client,
	}
}

func (r *firestoreUserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	doc, err := r.client.Collection(usersCollection).Doc(id).Get(ctx)
	if err != nil {
		return nil, storeError("User", "Failed to get user", err)
	}

	var user entity.User
	if err := doc.DataTo(&user); err != nil {
		return nil, errors.Internal("Failed to parse user data", err)
	}
	user.ID = doc.Ref.ID

	return &user, nil
}

func (r *firestoreUserRepository) Upsert(ctx context.Context, user *entity.User) error {
	ref := r.client.Collection(usersCollection).Doc(user.ID)
	now := time.Now()
	user.LastLoginAt = now
	user.UpdatedAt = now

	_, err := ref.Get(ctx)
	if status.Code(err) == codes.NotFound {
		user.CreatedAt = now
		if _, err := ref.Set(ctx, user); err != nil {
			return errors.RemoteFailed("Failed to create user profile", err)
		}
		return nil
	}
	if err != nil {
		return errors.RemoteFailed("Failed to get user", err)
	}

	// Only refresh claim fields so the original createdAt survives.
	updateData := map[string]interface{}{
		"displayName": user.DisplayName,
		"email":       user.Email,
		"lastLoginAt": now,
		"updatedAt":   now,
	}
	if user.PhotoURL != "" {
		updateData["photoURL"] = user.PhotoURL
	}
	if user.Provider != "" {
		updateData["provider"] = user.Provider
	}

	if _, err := ref.Set(ctx, updateData, firestore.MergeAll); err != nil {
		return errors.RemoteFailed("Failed to update user profile", err)
	}

	return nil
}
