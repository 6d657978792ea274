package repository

import (
	"context"

	"foodshare/internal/domain/entity"
)

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*entity.User, error)
	// Upsert creates the profile on first sign-in and refreshes claims and lastLoginAt afterwards.
	Upsert(ctx context.Context, user *entity.User) error
}
