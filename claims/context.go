package claims

import (
	"context"
	"errors"
)

type contextKey struct{}

// ErrNoClaims is returned when claims are not found in the context.
var ErrNoClaims = errors.New("claims: no claims in context")

// NewContext returns a copy of ctx carrying c.
func NewContext(ctx context.Context, c Claims) context.Context {
	return context.WithValue(ctx, contextKey{}, c)
}

// FromContext returns the claims stored in ctx.
func FromContext(ctx context.Context) (Claims, bool) {
	c, ok := ctx.Value(contextKey{}).(Claims)
	return c, ok
}

// FromContextOrError returns the claims stored in ctx, or ErrNoClaims.
func FromContextOrError(ctx context.Context) (Claims, error) {
	c, ok := FromContext(ctx)
	if !ok {
		return Claims{}, ErrNoClaims
	}
	return c, nil
}
