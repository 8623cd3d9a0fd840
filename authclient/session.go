package authclient

import (
	"context"
	stderrors "errors"
	"net/http"

	"github.com/kbukum/authclient/errors"
	"github.com/kbukum/authclient/httpclient"
	"github.com/kbukum/authclient/logger"
	"github.com/kbukum/authclient/tokenstore"
)

// SignIn posts credentials to path and stores the returned token pair.
func (c *Client) SignIn(ctx context.Context, path string, credentials any) (tokenstore.TokenPair, error) {
	resp, err := c.adapter.Do(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   path,
		Body:   credentials,
		Auth:   &httpclient.AuthConfig{Type: httpclient.AuthNone},
	})
	if err != nil {
		if httpclient.IsUnauthorized(err) {
			return tokenstore.TokenPair{}, errors.Unauthorized("Invalid credentials.").WithCause(err)
		}
		return tokenstore.TokenPair{}, err
	}

	pair, err := decodePair(resp.Body)
	if err != nil {
		return tokenstore.TokenPair{}, errors.Internal(err)
	}
	if pair.IsZero() {
		return tokenstore.TokenPair{}, errors.Internal(stderrors.New("sign-in response carried no access token"))
	}

	if err := c.store.Replace(ctx, pair); err != nil {
		return tokenstore.TokenPair{}, errors.Internal(err)
	}
	c.SetCredential(pair.AccessToken)
	c.log.WithContext(ctx).Info("signed in")
	return pair, nil
}

// SignOut clears the stored tokens and the default credential, then runs
// the sign-out hook.
func (c *Client) SignOut(ctx context.Context) error {
	if err := c.store.Clear(ctx); err != nil {
		return errors.Internal(err)
	}
	c.SetCredential("")
	if c.onSignOut != nil {
		c.onSignOut(ctx, nil)
	}
	return nil
}

// signOutHook runs when the coordinator sees an unrecoverable failure.
func (c *Client) signOutHook(ctx context.Context, cause error) {
	if err := c.store.Clear(context.WithoutCancel(ctx)); err != nil {
		c.log.Error("failed to clear token store on sign-out", logger.ErrorFields("sign_out", err))
	}
	c.SetCredential("")
	if c.onSignOut != nil {
		c.onSignOut(ctx, cause)
	}
}
