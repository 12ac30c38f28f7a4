package identity

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
)

// AuthClient is the part of the Firebase Admin auth client used here.
type AuthClient interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
	GetUser(ctx context.Context, uid string) (*auth.UserRecord, error)
	CreateUser(ctx context.Context, user *auth.UserToCreate) (*auth.UserRecord, error)
	RevokeRefreshTokens(ctx context.Context, uid string) error
}

type Firebase struct {
	client AuthClient
}

var _ Provider = (*Firebase)(nil)

func NewFirebase(ctx context.Context, app *firebase.App) (*Firebase, error) {
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth client: %w", err)
	}
	return NewFirebaseWithClient(client), nil
}

func NewFirebaseWithClient(client AuthClient) *Firebase {
	return &Firebase{client: client}
}

func (f *Firebase) Verify(ctx context.Context, idToken string) (*Identity, error) {
	token, err := f.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	id := &Identity{UserID: token.UID}
	if token.Firebase.SignInProvider == "anonymous" {
		id.Anonymous = true
	}
	record, err := f.client.GetUser(ctx, token.UID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user %s: %w", token.UID, err)
	}
	if record.UserInfo != nil {
		id.DisplayName = record.DisplayName
	}
	return id, nil
}

// SignInAnonymously creates a user with no credentials attached.
func (f *Firebase) SignInAnonymously(ctx context.Context) (*Identity, error) {
	record, err := f.client.CreateUser(ctx, &auth.UserToCreate{})
	if err != nil {
		return nil, fmt.Errorf("failed to create anonymous user: %w", err)
	}
	return &Identity{UserID: record.UID, Anonymous: true}, nil
}

func (f *Firebase) SignOut(ctx context.Context, userID string) error {
	if err := f.client.RevokeRefreshTokens(ctx, userID); err != nil {
		return fmt.Errorf("failed to revoke tokens for %s: %w", userID, err)
	}
	return nil
}
