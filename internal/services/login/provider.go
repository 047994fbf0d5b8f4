// Package login talks to the external identity provider that vouches for players.
package login

import "context"

// Claims holds the verified identity returned by a provider
type Claims struct {
	Sub           string
	Email         string
	EmailVerified bool
}

// Provider is an OAuth2 identity provider using the authorization code flow with PKCE
type Provider interface {
	Name() string
	// AuthCodeURL returns the consent page URL with state and S256 challenge embedded
	AuthCodeURL(state, codeChallenge string) string
	// Exchange trades the code for verified claims. codeVerifier must match the challenge.
	Exchange(ctx context.Context, code, codeVerifier string) (*Claims, error)
}
