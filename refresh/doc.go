// Package refresh coordinates access token renewal for concurrent callers.
//
// When a request fails because its access token expired, the caller hands
// the failure to a Coordinator. The first such caller starts a renewal; every
// caller that arrives while it is in flight joins a FIFO queue instead of
// starting another. When the renewal settles, each queued caller receives
// exactly one Outcome: the new access token to replay with, or the renewal
// error.
//
//	token, err := coordinator.OnAuthFailure(ctx, refresh.KindExpired, cause)
//	if err != nil {
//	    return err
//	}
//	return replay(ctx, token)
//
// Failures that are not expiry invoke the sign-out hook and are returned to
// the caller without touching the renewal state.
package refresh
