package tokenstore

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// CookieStore is a request-scoped store backed by HTTP cookies. It reads
// the pair from the incoming request and writes changes as Set-Cookie
// headers on the response.
type CookieStore struct {
	w          http.ResponseWriter
	accessKey  string
	refreshKey string
	ttl        time.Duration

	mu   sync.Mutex
	pair TokenPair
}

// CookieOption customizes a CookieStore.
type CookieOption func(*CookieStore)

// WithCookieNames overrides the access and refresh cookie names.
func WithCookieNames(access, refresh string) CookieOption {
	return func(s *CookieStore) {
		if access != "" {
			s.accessKey = access
		}
		if refresh != "" {
			s.refreshKey = refresh
		}
	}
}

// WithCookieTTL overrides the cookie max-age.
func WithCookieTTL(ttl time.Duration) CookieOption {
	return func(s *CookieStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// NewCookieStore creates a store for one request/response exchange.
func NewCookieStore(w http.ResponseWriter, r *http.Request, opts ...CookieOption) *CookieStore {
	s := &CookieStore{
		w:          w,
		accessKey:  DefaultAccessKey,
		refreshKey: DefaultRefreshKey,
		ttl:        DefaultTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	if r != nil {
		if c, err := r.Cookie(s.accessKey); err == nil {
			s.pair.AccessToken = c.Value
		}
		if c, err := r.Cookie(s.refreshKey); err == nil {
			s.pair.RefreshToken = c.Value
		}
	}
	return s
}

func (s *CookieStore) Load(_ context.Context) (TokenPair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pair, nil
}

func (s *CookieStore) Replace(_ context.Context, pair TokenPair) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pair = pair
	maxAge := int(s.ttl / time.Second)
	s.setCookie(s.accessKey, pair.AccessToken, maxAge)
	s.setCookie(s.refreshKey, pair.RefreshToken, maxAge)
	return nil
}

func (s *CookieStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pair = TokenPair{}
	s.setCookie(s.accessKey, "", -1)
	s.setCookie(s.refreshKey, "", -1)
	return nil
}

func (s *CookieStore) setCookie(name, value string, maxAge int) {
	if s.w == nil {
		return
	}
	http.SetCookie(s.w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

var _ Store = (*CookieStore)(nil)
