package httpclient

import (
	"errors"
	"fmt"
	"io"
	"maps"
)

// ErrNotReplayable is returned when a request cannot be re-issued with a
// new credential.
var ErrNotReplayable = errors.New("httpclient: request is not replayable")

// Request describes an outbound HTTP request.
type Request struct {
	// Method is the HTTP method (GET, POST, PUT, PATCH, DELETE, etc).
	Method string
	// Path is appended to the BaseURL. Can be a full URL if BaseURL is empty.
	Path string
	// Headers are request-specific headers (merged with defaults).
	Headers map[string]string
	// Query are URL query parameters.
	Query map[string]string
	// Body is the request body. Accepts []byte, string, io.Reader, or any
	// value that will be JSON-encoded. An io.Reader body is consumed by the
	// first attempt and makes the request non-replayable.
	Body any
	// Auth overrides the default auth for this request.
	Auth *AuthConfig
}

// Replayable reports, as an error wrapping ErrNotReplayable, why the
// request cannot be re-issued with a renewed bearer credential.
func (r Request) Replayable() error {
	if _, ok := r.Body.(io.Reader); ok {
		return fmt.Errorf("%w: body is a one-shot io.Reader", ErrNotReplayable)
	}
	if !r.Auth.acceptsBearer() {
		return fmt.Errorf("%w: request-level %s auth cannot carry a bearer credential", ErrNotReplayable, r.Auth.Type)
	}
	return nil
}

// WithBearer returns a copy of the request carrying the given bearer token.
// The receiver is not modified.
func (r Request) WithBearer(token string) (Request, error) {
	if err := r.Replayable(); err != nil {
		return Request{}, err
	}
	out := r
	out.Headers = maps.Clone(r.Headers)
	out.Query = maps.Clone(r.Query)
	out.Auth = BearerAuth(token)
	return out, nil
}

// Response is the result of an HTTP request.
type Response struct {
	// StatusCode is the HTTP status code.
	StatusCode int
	// Headers are the response headers.
	Headers map[string]string
	// Body is the raw response body.
	Body []byte
}

// IsSuccess returns true if the status code is 2xx.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}
