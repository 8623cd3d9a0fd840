package authclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/kbukum/authclient/httpclient"
	"github.com/kbukum/authclient/refresh"
	"github.com/kbukum/authclient/tokenstore"
)

// HTTPRenewer calls the backend renewal endpoint. It goes straight to the
// transport so a failing renewal can never recurse into the coordinator.
type HTTPRenewer struct {
	adapter *httpclient.Adapter
	path    string
}

// NewHTTPRenewer creates a renewer posting to path on adapter.
func NewHTTPRenewer(adapter *httpclient.Adapter, path string) *HTTPRenewer {
	return &HTTPRenewer{adapter: adapter, path: path}
}

// Renew implements refresh.Renewer.
func (r *HTTPRenewer) Renew(ctx context.Context, refreshToken string) (tokenstore.TokenPair, error) {
	resp, err := r.adapter.Do(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   r.path,
		Body:   map[string]string{"refreshToken": refreshToken},
		Auth:   &httpclient.AuthConfig{Type: httpclient.AuthNone},
	})
	if err != nil {
		return tokenstore.TokenPair{}, err
	}
	return decodePair(resp.Body)
}

func decodePair(body []byte) (tokenstore.TokenPair, error) {
	var pair tokenstore.TokenPair
	if err := json.Unmarshal(body, &pair); err != nil {
		return tokenstore.TokenPair{}, fmt.Errorf("decode token pair: %w", err)
	}
	return pair, nil
}

var _ refresh.Renewer = (*HTTPRenewer)(nil)
