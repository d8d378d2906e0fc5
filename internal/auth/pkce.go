package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"math/big"
)

// unreservedChars is the RFC 3986 unreserved set, the alphabet RFC 7636
// allows for code verifiers.
const unreservedChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-._~"

const (
	// VerifierLength is the code verifier length used for every login
	// attempt, the maximum RFC 7636 permits.
	VerifierLength = 128
	// StateLength is the length of the anti-forgery state parameter.
	StateLength = 32
)

// Params holds the PKCE values for a single authorization attempt. A Params
// value is single-use: the verifier/state pair is persisted at redirect
// time and destroyed when the flow reaches a terminal state.
type Params struct {
	CodeVerifier  string
	CodeChallenge string
	State         string
}

// Generator produces PKCE parameters from a cryptographically sound random
// source. It holds no state.
type Generator struct{}

// NewGenerator creates a new Generator.
func NewGenerator() *Generator {
	return &Generator{}
}

// Generate produces a fresh verifier, its derived challenge and a state
// token for one login attempt.
func (g *Generator) Generate() (*Params, error) {
	verifier, err := g.GenerateCodeVerifier(VerifierLength)
	if err != nil {
		return nil, fmt.Errorf("generating code verifier: %w", err)
	}

	challenge, err := g.GenerateCodeChallenge(verifier)
	if err != nil {
		return nil, fmt.Errorf("generating code challenge: %w", err)
	}

	state, err := g.GenerateState()
	if err != nil {
		return nil, fmt.Errorf("generating state: %w", err)
	}

	return &Params{
		CodeVerifier:  verifier,
		CodeChallenge: challenge,
		State:         state,
	}, nil
}

// GenerateCodeVerifier creates a random code verifier of the given length.
// RFC 7636 requires between 43 and 128 characters.
func (g *Generator) GenerateCodeVerifier(length int) (string, error) {
	if length < 43 || length > 128 {
		return "", fmt.Errorf("verifier length must be between 43 and 128, got %d", length)
	}
	return randomString(length)
}

// GenerateCodeChallenge derives the S256 challenge for a verifier:
// base64url(SHA-256(verifier)) without padding.
func (g *Generator) GenerateCodeChallenge(verifier string) (string, error) {
	if verifier == "" {
		return "", fmt.Errorf("verifier cannot be empty")
	}
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:]), nil
}

// GenerateState creates a random anti-forgery state token.
func (g *Generator) GenerateState() (string, error) {
	return randomString(StateLength)
}

// randomString draws length characters uniformly from unreservedChars.
// rand.Int avoids the modulo bias a plain byte-mod would introduce.
func randomString(length int) (string, error) {
	max := big.NewInt(int64(len(unreservedChars)))
	b := make([]byte, length)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("reading random source: %w", err)
		}
		b[i] = unreservedChars[n.Int64()]
	}
	return string(b), nil
}
