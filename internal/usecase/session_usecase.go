package usecase

import (
	"context"
	"strings"

	"foodshare/internal/domain/entity"
	"foodshare/internal/domain/repository"
	"foodshare/pkg/errors"
	"foodshare/pkg/logger"
)

type SessionUseCase struct {
	authClient FirebaseAuthClient
	userRepo   repository.UserRepository
}

func NewSessionUseCase(authClient FirebaseAuthClient, userRepo repository.UserRepository) *SessionUseCase {
	return &SessionUseCase{
		authClient: authClient,
		userRepo:   userRepo,
	}
}

// NewSession returns a session that has not started resolving.
func NewSession() *entity.Session {
	return &entity.Session{State: entity.SessionUninitialized}
}

// Resolve drives session from uninitialized through loading to resolved. An empty token
// resolves anonymous; a rejected token also resolves anonymous and returns Unauthorized.
func (uc *SessionUseCase) Resolve(ctx context.Context, session *entity.Session, token string) error {
	session.State = entity.SessionLoading
	session.Identity = nil

	token = strings.TrimSpace(token)
	if token == "" {
		session.State = entity.SessionResolved
		return nil
	}

	identity, err := uc.authClient.VerifyToken(ctx, token)
	session.State = entity.SessionResolved
	if err != nil {
		return errors.Unauthorized("Invalid or expired token", err)
	}

	session.Identity = identity
	return nil
}

// SignIn records the signed-in user's profile from their identity claims.
func (uc *SessionUseCase) SignIn(ctx context.Context, session *entity.Session) (*entity.User, error) {
	if !session.IsResolved() || session.IsAnonymous() {
		return nil, errors.Unauthorized("Sign-in requires a valid token", nil)
	}

	identity := session.Identity
	user := &entity.User{
		ID:          identity.UID,
		DisplayName: identity.DisplayName,
		Email:       identity.Email,
		PhotoURL:    identity.PhotoURL,
		Provider:    identity.Provider,
	}
	if err := uc.userRepo.Upsert(ctx, user); err != nil {
		return nil, err
	}

	logger.Info("User %s signed in via %s", user.ID, user.Provider)
	return user, nil
}

// SignOut revokes the user's refresh tokens so no new ID tokens can be minted.
func (uc *SessionUseCase) SignOut(ctx context.Context, session *entity.Session) error {
	if !session.IsResolved() || session.IsAnonymous() {
		return errors.Unauthorized("Not signed in", nil)
	}

	if err := uc.authClient.RevokeRefreshTokens(ctx, session.UserID()); err != nil {
		return errors.RemoteFailed("Failed to sign out", err)
	}

	logger.Info("User %s signed out", session.UserID())
	return nil
}

// CurrentUser returns the stored profile of the signed-in user.
func (uc *SessionUseCase) CurrentUser(ctx context.Context, session *entity.Session) (*entity.User, error) {
	if !session.IsResolved() || session.IsAnonymous() {
		return nil, errors.Unauthorized("Not signed in", nil)
	}
	return uc.userRepo.GetByID(ctx, session.UserID())
}
