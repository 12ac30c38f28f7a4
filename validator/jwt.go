package validator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/getkin/kin-openapi/openapi3filter"
	middleware "github.com/oapi-codegen/gin-middleware"
)

type key string

const credentialKey key = "id_token"

// Credential is the ID token presented with a sign in request.
type Credential struct {
	IDToken string
}

func FromContext(ctx context.Context) (*Credential, bool) {
	c, ok := ctx.Value(string(credentialKey)).(*Credential)
	return c, ok
}

var (
	ErrNoAuthHeader      = errors.New("Authorization header is missing")
	ErrInvalidAuthHeader = errors.New("Authorization header is malformed")
)

// GetJWSFromRequest extracts a JWS string from an Authorization: Bearer <jws> header
func GetJWSFromRequest(req *http.Request) (string, error) {
	authHdr := req.Header.Get("Authorization")
	if authHdr == "" {
		return "", ErrNoAuthHeader
	}
	prefix := "Bearer "
	if !strings.HasPrefix(authHdr, prefix) {
		return "", ErrInvalidAuthHeader
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHdr, prefix))
	if token == "" {
		return "", ErrInvalidAuthHeader
	}
	return token, nil
}

// Authenticate pulls the bearer ID token off the request and stores it on the
// gin context. The token is verified by the identity provider when the
// session signs in, not here.
func Authenticate(ctx context.Context, input *openapi3filter.AuthenticationInput) error {
	if input.SecuritySchemeName != "bearerAuth" {
		return fmt.Errorf("security scheme %s != 'bearerAuth'", input.SecuritySchemeName)
	}

	jws, err := GetJWSFromRequest(input.RequestValidationInput.Request)
	if err != nil {
		return fmt.Errorf("getting jws: %w", err)
	}

	gCtx := middleware.GetGinContext(ctx)
	gCtx.Set(string(credentialKey), &Credential{IDToken: jws})
	return nil
}
