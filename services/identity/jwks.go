package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/jwk"
	"github.com/lestrrat-go/jwx/jwt"
)

const (
	// FirebaseJWKSURL publishes the keys that sign Firebase ID tokens.
	FirebaseJWKSURL = "https://www.googleapis.com/service_accounts/v1/jwk/securetoken@system.gserviceaccount.com"
	firebaseIssuer  = "https://securetoken.google.com/"
)

// JWKS verifies ID tokens offline against a published key set. It needs no
// admin credentials, so it cannot create users.
type JWKS struct {
	url      string
	issuer   string
	audience string
	keys     *jwk.AutoRefresh
}

var _ Provider = (*JWKS)(nil)

// NewFirebaseJWKS verifies tokens issued for a Firebase project.
func NewFirebaseJWKS(ctx context.Context, projectID string) *JWKS {
	return NewJWKS(ctx, FirebaseJWKSURL, firebaseIssuer+projectID, projectID)
}

func NewJWKS(ctx context.Context, url, issuer, audience string) *JWKS {
	keys := jwk.NewAutoRefresh(ctx)
	keys.Configure(url, jwk.WithMinRefreshInterval(15*time.Minute))
	return &JWKS{
		url:      url,
		issuer:   issuer,
		audience: audience,
		keys:     keys,
	}
}

func (j *JWKS) Verify(ctx context.Context, idToken string) (*Identity, error) {
	set, err := j.keys.Fetch(ctx, j.url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch jwks: %w", err)
	}
	token, err := jwt.Parse([]byte(idToken),
		jwt.WithKeySet(set),
		jwt.WithValidate(true),
		jwt.WithIssuer(j.issuer),
		jwt.WithAudience(j.audience),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if token.Subject() == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return identityFromToken(token), nil
}

func identityFromToken(token jwt.Token) *Identity {
	id := &Identity{UserID: token.Subject()}
	if name, ok := token.Get("name"); ok {
		id.DisplayName, _ = name.(string)
	}
	if fb, ok := token.Get("firebase"); ok {
		if claims, ok := fb.(map[string]interface{}); ok {
			id.Anonymous = claims["sign_in_provider"] == "anonymous"
		}
	}
	return id
}

func (j *JWKS) SignInAnonymously(context.Context) (*Identity, error) {
	return nil, ErrAnonymousUnsupported
}

// SignOut is a no-op; tokens expire on their own.
func (j *JWKS) SignOut(context.Context, string) error {
	return nil
}
