package httpclient

import "net/http"

// AuthType identifies the authentication method.
type AuthType int

const (
	// AuthNone disables authentication.
	AuthNone AuthType = iota
	// AuthBearer sends "Authorization: Bearer <token>".
	AuthBearer
	// AuthBasic uses HTTP Basic authentication.
	AuthBasic
	// AuthAPIKey sends an API key in a header.
	AuthAPIKey
	// AuthCustom uses a custom request modifier.
	AuthCustom
)

// String returns the auth type name.
func (t AuthType) String() string {
	switch t {
	case AuthNone:
		return "none"
	case AuthBearer:
		return "bearer"
	case AuthBasic:
		return "basic"
	case AuthAPIKey:
		return "api_key"
	case AuthCustom:
		return "custom"
	default:
		return "unknown"
	}
}

// AuthConfig configures request authentication.
type AuthConfig struct {
	Type AuthType
	// Token is the bearer token (AuthBearer).
	Token string
	// Username and Password are the basic auth credentials (AuthBasic).
	Username string
	Password string
	// Key is the API key value and Name its header (AuthAPIKey). Name defaults to "X-API-Key".
	Key  string
	Name string
	// Apply is a custom request modifier (AuthCustom).
	Apply func(*http.Request)
}

// BearerAuth creates a bearer token auth config.
func BearerAuth(token string) *AuthConfig {
	return &AuthConfig{Type: AuthBearer, Token: token}
}

// BasicAuth creates a basic auth config.
func BasicAuth(username, password string) *AuthConfig {
	return &AuthConfig{Type: AuthBasic, Username: username, Password: password}
}

// APIKeyAuth creates an API key auth config sent in the named header.
func APIKeyAuth(key, headerName string) *AuthConfig {
	return &AuthConfig{Type: AuthAPIKey, Key: key, Name: headerName}
}

// CustomAuth creates a custom auth config with a request modifier function.
func CustomAuth(fn func(*http.Request)) *AuthConfig {
	return &AuthConfig{Type: AuthCustom, Apply: fn}
}

// acceptsBearer reports whether a bearer credential can be (re)attached
// without discarding a different kind of authentication.
func (a *AuthConfig) acceptsBearer() bool {
	return a == nil || a.Type == AuthNone || a.Type == AuthBearer
}

// apply applies authentication to an HTTP request.
func (a *AuthConfig) apply(req *http.Request) {
	if a == nil {
		return
	}
	switch a.Type {
	case AuthBearer:
		if a.Token != "" {
			req.Header.Set("Authorization", "Bearer "+a.Token)
		}
	case AuthBasic:
		req.SetBasicAuth(a.Username, a.Password)
	case AuthAPIKey:
		name := a.Name
		if name == "" {
			name = "X-API-Key"
		}
		req.Header.Set(name, a.Key)
	case AuthCustom:
		if a.Apply != nil {
			a.Apply(req)
		}
	}
}
