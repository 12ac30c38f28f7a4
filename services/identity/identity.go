// Package identity verifies users against an external identity provider.
package identity

import (
	"context"
	"errors"
)

var (
	ErrInvalidToken         = errors.New("invalid id token")
	ErrAnonymousUnsupported = errors.New("provider does not support anonymous sign in")
)

// Identity is a verified user.
type Identity struct {
	UserID      string
	DisplayName string
	Anonymous   bool
}

type Provider interface {
	// Verify checks an ID token issued by the provider.
	Verify(ctx context.Context, idToken string) (*Identity, error)
	SignInAnonymously(ctx context.Context) (*Identity, error)
	// SignOut revokes the user's refresh tokens where the provider supports it.
	SignOut(ctx context.Context, userID string) error
}
