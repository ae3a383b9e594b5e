// Package auth provides the token verifiers used for both the HTTP surface
// and the realtime channel handshake.
package auth

import (
	"context"
	"encoding/json"
	"fmt"

	oidc "github.com/coreos/go-oidc/v3/oidc"

	"github.com/SudiptoSatpati/DocSync-Backend/internal/tokens"
	"github.com/SudiptoSatpati/DocSync-Backend/pkg/middleware"
)

// claimsToken adapts a plain claims map to the middleware.Token interface.
type claimsToken struct {
	claims map[string]interface{}
}

func (t *claimsToken) Claims(v interface{}) error {
	b, err := json.Marshal(t.claims)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

// HMACVerifier validates locally issued HS256 access tokens.
type HMACVerifier struct {
	secret string
}

func NewHMACVerifier(secret string) *HMACVerifier {
	return &HMACVerifier{secret: secret}
}

func (v *HMACVerifier) Verify(ctx context.Context, raw string) (middleware.Token, error) {
	claims, err := tokens.ParseAccessToken(v.secret, raw)
	if err != nil {
		return nil, err
	}
	return &claimsToken{claims: claims}, nil
}

// OIDCVerifier validates ID tokens issued by an external identity provider.
type OIDCVerifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewOIDCVerifier discovers the issuer and builds a verifier for the client ID.
func NewOIDCVerifier(ctx context.Context, issuer, clientID string) (*OIDCVerifier, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc discovery: %w", err)
	}
	return &OIDCVerifier{verifier: provider.Verifier(&oidc.Config{ClientID: clientID})}, nil
}

func (v *OIDCVerifier) Verify(ctx context.Context, raw string) (middleware.Token, error) {
	idToken, err := v.verifier.Verify(ctx, raw)
	if err != nil {
		return nil, err
	}
	return idToken, nil
}
