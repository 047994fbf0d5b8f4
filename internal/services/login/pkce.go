package login

import (
	"encoding/base64"
	"fmt"

	"golang.org/x/oauth2"

	"github.com/mcoot/arcade/internal/dependencies/random"
)

// Challenge is the per-login state carried across the provider round trip
type Challenge struct {
	State         string
	CodeVerifier  string
	CodeChallenge string
}

// NewChallenge generates a fresh state value and PKCE verifier/challenge pair
func NewChallenge(rnd random.Random) (*Challenge, error) {
	stateBytes, err := rnd.Bytes(32)
	if err != nil {
		return nil, fmt.Errorf("generate state: %w", err)
	}

	verifier := oauth2.GenerateVerifier()
	return &Challenge{
		State:         base64.RawURLEncoding.EncodeToString(stateBytes),
		CodeVerifier:  verifier,
		CodeChallenge: S256(verifier),
	}, nil
}

// S256 derives the PKCE code challenge for a verifier
func S256(verifier string) string {
	return oauth2.S256ChallengeFromVerifier(verifier)
}
