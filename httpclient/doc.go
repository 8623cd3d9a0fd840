// Package httpclient is the HTTP transport underneath the authenticated
// client. It resolves request paths against a base URL, encodes bodies,
// applies per-request authentication, and classifies non-2xx responses into
// *Error values that carry the backend's machine-readable error code.
//
//	adapter, err := httpclient.New(httpclient.Config{
//	    BaseURL: "https://api.example.com",
//	    Timeout: 30 * time.Second,
//	})
//
//	resp, err := adapter.Do(ctx, httpclient.Request{
//	    Method: http.MethodGet,
//	    Path:   "/me",
//	    Auth:   httpclient.BearerAuth(token),
//	})
//
// Requests are values: WithBearer returns a copy carrying a new bearer
// credential, which is how a request that failed on an expired token is
// replayed after renewal.
package httpclient
