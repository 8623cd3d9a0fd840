package guard

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel/attribute"

	"github.com/kbukum/authclient/claims"
	"github.com/kbukum/authclient/logger"
	"github.com/kbukum/authclient/observability"
	"github.com/kbukum/authclient/refresh"
	"github.com/kbukum/authclient/tokenstore"
)

// Decision is the outcome of a guard check.
type Decision int

const (
	// Proceed lets the view run.
	Proceed Decision = iota
	// RedirectUnauthenticated sends the user to sign in.
	RedirectUnauthenticated
	// RedirectInsufficientPermissions sends the user to a page any
	// authenticated user may see.
	RedirectInsufficientPermissions
)

func (d Decision) String() string {
	switch d {
	case Proceed:
		return "proceed"
	case RedirectUnauthenticated:
		return "redirect_unauthenticated"
	case RedirectInsufficientPermissions:
		return "redirect_insufficient_permissions"
	default:
		return "unknown"
	}
}

// Redirect is a non-permanent redirect returned instead of a view result.
type Redirect struct {
	Destination string
	Permanent   bool
}

// Default redirect destinations.
const (
	DefaultSignInPath   = "/"
	DefaultFallbackPath = "/dashboard"
)

// Config configures redirect destinations.
type Config struct {
	SignInPath   string `yaml:"sign_in_path" mapstructure:"sign_in_path" validate:"startswith=/"`
	FallbackPath string `yaml:"fallback_path" mapstructure:"fallback_path" validate:"startswith=/"`
}

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	if c.SignInPath == "" {
		c.SignInPath = DefaultSignInPath
	}
	if c.FallbackPath == "" {
		c.FallbackPath = DefaultFallbackPath
	}
}

// Option customizes a Guard.
type Option func(*Guard)

// WithConfig sets the redirect destinations.
func WithConfig(cfg Config) Option {
	return func(g *Guard) {
		cfg.ApplyDefaults()
		g.cfg = cfg
	}
}

// WithLogger sets the guard logger.
func WithLogger(log *logger.Logger) Option {
	return func(g *Guard) {
		if log != nil {
			g.log = log
		}
	}
}

// WithSignOut registers fn to run after the guard clears a session it found
// unusable, mirroring the client's sign-out hook.
func WithSignOut(fn refresh.SignOutFunc) Option {
	return func(g *Guard) { g.signOut = fn }
}

// WithCookieOptions sets how the per-request cookie store is built.
func WithCookieOptions(opts ...tokenstore.CookieOption) Option {
	return func(g *Guard) { g.cookieOpts = append(g.cookieOpts, opts...) }
}

// Guard evaluates access to views.
type Guard struct {
	decoder    claims.Decoder
	cfg        Config
	log        *logger.Logger
	cookieOpts []tokenstore.CookieOption
	signOut    refresh.SignOutFunc
}

// New creates a Guard. A nil decoder reads claims from unverified JWTs.
func New(decoder claims.Decoder, opts ...Option) *Guard {
	if decoder == nil {
		decoder = claims.NewJWTDecoder()
	}
	g := &Guard{decoder: decoder, log: logger.Nop()}
	g.cfg.ApplyDefaults()
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Check decides whether the holder of the stored credential may reach a
// view with the given requirements.
func (g *Guard) Check(ctx context.Context, store tokenstore.Store, req claims.Requirements) Decision {
	d, _ := g.evaluate(ctx, store, req)
	return d
}

// evaluate returns the decision and, when requirements were checked, the
// decoded claims.
func (g *Guard) evaluate(ctx context.Context, store tokenstore.Store, req claims.Requirements) (Decision, claims.Claims) {
	ctx, span := observability.StartSpan(ctx, observability.SpanGuard)
	defer span.End()

	d, c := g.decide(ctx, store, req)
	span.SetAttributes(attribute.String(observability.AttrDecision, d.String()))
	if d != Proceed {
		g.log.WithContext(ctx).Debug("access denied", logger.Fields(logger.FieldDecision, d.String()))
	}
	return d, c
}

func (g *Guard) decide(ctx context.Context, store tokenstore.Store, req claims.Requirements) (Decision, claims.Claims) {
	pair, err := store.Load(ctx)
	if err != nil {
		g.log.WithContext(ctx).Warn("token store unavailable", logger.ErrorFields("load", err))
		return RedirectUnauthenticated, claims.Claims{}
	}
	if pair.AccessToken == "" {
		return RedirectUnauthenticated, claims.Claims{}
	}
	if req.IsEmpty() {
		return Proceed, claims.Claims{}
	}

	c, err := g.decoder.Decode(pair.AccessToken)
	if err != nil {
		g.log.WithContext(ctx).Warn("undecodable access token, clearing session", logger.ErrorFields("decode", err))
		g.invalidate(ctx, store, err)
		return RedirectUnauthenticated, claims.Claims{}
	}
	if !claims.Satisfies(c, req) {
		return RedirectInsufficientPermissions, c
	}
	return Proceed, c
}

// RedirectFor returns the redirect for a non-Proceed decision.
func (g *Guard) RedirectFor(d Decision) *Redirect {
	switch d {
	case RedirectUnauthenticated:
		return &Redirect{Destination: g.cfg.SignInPath}
	case RedirectInsufficientPermissions:
		return &Redirect{Destination: g.cfg.FallbackPath}
	default:
		return nil
	}
}

// CookieStore builds the request-scoped store the guard reads.
func (g *Guard) CookieStore(w http.ResponseWriter, r *http.Request) *tokenstore.CookieStore {
	return tokenstore.NewCookieStore(w, r, g.cookieOpts...)
}

// invalidate clears store and runs the sign-out hook.
func (g *Guard) invalidate(ctx context.Context, store tokenstore.Store, cause error) {
	if err := store.Clear(ctx); err != nil {
		g.log.WithContext(ctx).Error("failed to clear token store", logger.ErrorFields("clear", err))
	}
	if g.signOut != nil {
		g.signOut(ctx, cause)
	}
}
