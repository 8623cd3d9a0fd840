package tokenstore

import (
	"context"
	"time"
)

// Cookie names and lifetime used when tokens travel with the browser.
const (
	DefaultAccessKey  = "nextauth.token"
	DefaultRefreshKey = "nextauth.refreshToken"
	DefaultTTL        = 30 * 24 * time.Hour
)

// TokenPair is the current access token and refresh token.
type TokenPair struct {
	AccessToken  string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

// IsZero reports whether the pair carries no access token.
func (p TokenPair) IsZero() bool {
	return p.AccessToken == ""
}

// Store persists and retrieves a TokenPair. Missing tokens are reported as
// empty strings, never as an error.
type Store interface {
	Load(ctx context.Context) (TokenPair, error)
	// Replace swaps in the whole pair atomically.
	Replace(ctx context.Context, pair TokenPair) error
	Clear(ctx context.Context) error
}
