package guard

import (
	"context"

	"github.com/kbukum/authclient/claims"
	"github.com/kbukum/authclient/errors"
	"github.com/kbukum/authclient/logger"
	"github.com/kbukum/authclient/tokenstore"
)

// View renders a protected page. ctx carries the decoded claims when the
// view declared requirements.
type View[P any] func(ctx context.Context, store tokenstore.Store) (P, error)

// Result is either the view's props or a redirect.
type Result[P any] struct {
	Props    P
	Redirect *Redirect
}

// Protect wraps view so it only runs for callers that pass the guard.
//
// A view failure caused by an unusable credential clears the store and
// yields a sign-in redirect. Any other view error is returned unchanged.
func Protect[P any](g *Guard, view View[P], req claims.Requirements) View[Result[P]] {
	return func(ctx context.Context, store tokenstore.Store) (Result[P], error) {
		decision, c := g.evaluate(ctx, store, req)
		if decision != Proceed {
			return Result[P]{Redirect: g.RedirectFor(decision)}, nil
		}

		props, err := view(claims.NewContext(ctx, c), store)
		if err == nil {
			return Result[P]{Props: props}, nil
		}
		if errors.IsCredentialError(err) {
			g.log.WithContext(ctx).Info("credential rejected during view, signing out",
				logger.ErrorFields("view", err))
			g.invalidate(ctx, store, err)
			return Result[P]{Redirect: g.RedirectFor(RedirectUnauthenticated)}, nil
		}
		return Result[P]{}, err
	}
}
