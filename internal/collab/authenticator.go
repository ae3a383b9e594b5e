package collab

import (
	"context"
	"net/http"
	"strings"

	"github.com/SudiptoSatpati/DocSync-Backend/internal/models"
	"github.com/SudiptoSatpati/DocSync-Backend/internal/users"
	"github.com/SudiptoSatpati/DocSync-Backend/pkg/middleware"
)

// Authenticator performs the connection handshake: verify the presented
// access token and resolve it to a live user account. Any failure yields
// ErrAuthentication; the transport must reject the connection without
// creating any session state.
type Authenticator struct {
	verifier middleware.Verifier
	users    *users.Service
}

func NewAuthenticator(ver middleware.Verifier, us *users.Service) *Authenticator {
	return &Authenticator{verifier: ver, users: us}
}

// TokenFromRequest extracts the handshake token from an upgrade request:
// Authorization Bearer header first, then the token query parameter
// (browser websocket clients cannot set headers).
func TokenFromRequest(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return r.URL.Query().Get("token")
}

// Authenticate verifies raw and returns the matching user. The returned
// user is safe to expose via Public(); the password hash never travels
// into session state.
func (a *Authenticator) Authenticate(ctx context.Context, raw string) (*models.User, error) {
	if raw == "" {
		return nil, ErrAuthentication
	}
	verified, err := a.verifier.Verify(ctx, raw)
	if err != nil {
		return nil, ErrAuthentication
	}
	var claims struct {
		Sub string `json:"sub"`
	}
	if err := verified.Claims(&claims); err != nil || claims.Sub == "" {
		return nil, ErrAuthentication
	}
	u, err := a.users.GetByID(ctx, claims.Sub)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrAuthentication
	}
	return u, nil
}
