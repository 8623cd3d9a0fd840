// Package authclient sends HTTP requests with the stored bearer credential
// and recovers transparently from expired access tokens.
//
// A 401 whose body carries the expiry code (token.expired by default) is
// handed to the refresh coordinator: the request waits for the single
// in-flight renewal and is replayed with the new token. Any other 401 signs
// the user out. Every other failure is returned unchanged.
//
//	client, err := authclient.New(cfg, store, authclient.WithLogger(log))
//	if err != nil {
//	    return err
//	}
//	resp, err := client.Get(ctx, "/me")
package authclient
