package models

import (
	"strings"
	"time"
)

// TokenExpiryBuffer is subtracted from the token expiry when deciding
// whether a token is still usable, covering clock skew and in-flight latency.
const TokenExpiryBuffer = 5 * time.Minute

// Credential holds the operator-supplied API application credentials.
// Immutable for the process lifetime.
type Credential struct {
	ClientID     string
	ClientSecret string
}

// Valid reports whether both client id and secret are present.
func (c Credential) Valid() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// TokenState is the OAuth access/refresh token pair with its expiry instant
// (epoch seconds, as returned by the token endpoint). It is replaced
// wholesale by every refresh and persisted after every change.
type TokenState struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"`
}

// HasTokens reports whether both access and refresh token are non-empty.
func (t TokenState) HasTokens() bool {
	return t.AccessToken != "" && t.RefreshToken != ""
}

// ExpiresSoon reports whether the access token is within the expiry buffer
// of its expiry instant, or already past it.
func (t TokenState) ExpiresSoon(now time.Time) bool {
	return !now.Before(time.Unix(t.ExpiresAt, 0).Add(-TokenExpiryBuffer))
}

// AuthorizationResult is the outcome of one redirect capture: exactly one of
// Code or Err is populated. State carries the state query parameter when the
// provider echoed one back.
type AuthorizationResult struct {
	Code  string
	Err   string
	State string
}

// TokenExchange is the token endpoint response for both the
// authorization-code and refresh-token grants.
type TokenExchange struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"`
	Athlete      struct {
		ID        int64  `json:"id"`
		Firstname string `json:"firstname"`
		Lastname  string `json:"lastname"`
	} `json:"athlete"`
}

// TokenState returns the persistable triple from an exchange response.
func (t *TokenExchange) TokenState() TokenState {
	return TokenState{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		ExpiresAt:    t.ExpiresAt,
	}
}

// AthleteName returns the athlete's display name, trimmed.
func (t *TokenExchange) AthleteName() string {
	return strings.TrimSpace(t.Athlete.Firstname + " " + t.Athlete.Lastname)
}
