package firebase

import (
	"context"

	"firebase.google.com/go/v4/auth"

	"foodshare/internal/domain/entity"
)

type FirebaseAuthClient struct {
	client *auth.Client
}

func NewFirebaseAuthClient(client *auth.Client) *FirebaseAuthClient {
	return &FirebaseAuthClient{
		client: client,
	}
}

// VerifyToken checks an ID token and returns the identity its claims assert.
func (f *FirebaseAuthClient) VerifyToken(ctx context.Context, token string) (*entity.Identity, error) {
	result, err := f.client.VerifyIDToken(ctx, token)
	if err != nil {
		return nil, err
	}

	return identityFromToken(result), nil
}

// RevokeRefreshTokens signs the user out everywhere; existing ID tokens stay valid until
// they expire.
func (f *FirebaseAuthClient) RevokeRefreshTokens(ctx context.Context, uid string) error {
	return f.client.RevokeRefreshTokens(ctx, uid)
}

func identityFromToken(token *auth.Token) *entity.Identity {
	identity := &entity.Identity{
		UID:      token.UID,
		Provider: token.Firebase.SignInProvider,
	}
	if name, ok := token.Claims["name"].(string); ok {
		identity.DisplayName = name
	}
	if email, ok := token.Claims["email"].(string); ok {
		identity.Email = email
	}
	if picture, ok := token.Claims["picture"].(string); ok {
		identity.PhotoURL = picture
	}
	return identity
}
