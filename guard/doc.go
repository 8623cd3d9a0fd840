// Package guard gates server-rendered views on the stored credential and
// its decoded claims.
//
// A request without an access token is redirected to the sign-in path. A
// request whose claims miss a required permission or role is redirected to
// the fallback path. Otherwise the view runs; if it fails because the
// credential is no longer usable, the stored tokens are cleared and the user
// is sent to sign in. Every other view error is returned to the caller.
package guard
