package authclient

import (
	"context"
	stderrors "errors"
	"maps"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/kbukum/authclient/errors"
	"github.com/kbukum/authclient/httpclient"
	"github.com/kbukum/authclient/logger"
	"github.com/kbukum/authclient/observability"
	"github.com/kbukum/authclient/refresh"
	"github.com/kbukum/authclient/tokenstore"
	"github.com/kbukum/authclient/version"
)

// HeaderRequestID carries the per-request correlation ID.
const HeaderRequestID = "X-Request-ID"

// Option customizes a Client.
type Option func(*options)

type options struct {
	log       *logger.Logger
	meter     metric.Meter
	signOut   refresh.SignOutFunc
	renewer   refresh.Renewer
	transport http.RoundTripper
	onRenewed func(tokenstore.TokenPair)
}

// WithLogger sets the client logger.
func WithLogger(log *logger.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithMeter records refresh metrics on meter.
func WithMeter(meter metric.Meter) Option {
	return func(o *options) { o.meter = meter }
}

// WithSignOut registers a hook run after the stored tokens are cleared on
// an unrecoverable authentication failure.
func WithSignOut(fn refresh.SignOutFunc) Option {
	return func(o *options) { o.signOut = fn }
}

// WithRenewer replaces the HTTP renewal call.
func WithRenewer(r refresh.Renewer) Option {
	return func(o *options) { o.renewer = r }
}

// WithRoundTripper replaces the underlying HTTP transport.
func WithRoundTripper(rt http.RoundTripper) Option {
	return func(o *options) { o.transport = rt }
}

// WithOnRenewed registers a hook run after each successful renewal.
func WithOnRenewed(fn func(tokenstore.TokenPair)) Option {
	return func(o *options) { o.onRenewed = fn }
}

// Client sends requests with the stored bearer credential and replays them
// after a transparent renewal when the credential has expired.
type Client struct {
	adapter     *httpclient.Adapter
	store       tokenstore.Store
	coordinator *refresh.Coordinator
	cfg         Config
	log         *logger.Logger
	onSignOut   refresh.SignOutFunc

	mu         sync.RWMutex
	credential string
}

// New creates a Client. The default credential is seeded from store.
func New(cfg Config, store tokenstore.Store, opts ...Option) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.log == nil {
		o.log = logger.Nop()
	}

	headers := make(map[string]string, len(cfg.HTTP.Headers)+1)
	maps.Copy(headers, cfg.HTTP.Headers)
	if _, ok := headers["User-Agent"]; !ok {
		headers["User-Agent"] = version.UserAgent("authclient")
	}
	cfg.HTTP.Headers = headers

	var adapterOpts []httpclient.Option
	if o.transport != nil {
		adapterOpts = append(adapterOpts, httpclient.WithRoundTripper(o.transport))
	}
	adapter, err := httpclient.New(cfg.HTTP, adapterOpts...)
	if err != nil {
		return nil, err
	}

	c := &Client{
		adapter:   adapter,
		store:     store,
		cfg:       cfg,
		log:       o.log.WithComponent("authclient"),
		onSignOut: o.signOut,
	}

	renewer := o.renewer
	if renewer == nil {
		renewer = NewHTTPRenewer(adapter, cfg.Refresh.Path)
	}

	coordOpts := []refresh.Option{
		refresh.WithLogger(o.log.WithComponent("refresh")),
		refresh.WithSignOut(c.signOutHook),
		refresh.WithWaiterTimeout(cfg.Refresh.WaiterTimeout),
		refresh.WithRenewalTimeout(cfg.Refresh.RenewalTimeout),
		refresh.OnRenewed(func(p tokenstore.TokenPair) { c.SetCredential(p.AccessToken) }),
		refresh.OnRenewed(o.onRenewed),
	}
	if o.meter != nil {
		coordOpts = append(coordOpts, refresh.WithMeter(o.meter))
	}
	c.coordinator, err = refresh.New(store, renewer, coordOpts...)
	if err != nil {
		return nil, err
	}

	if pair, err := store.Load(context.Background()); err == nil {
		c.SetCredential(pair.AccessToken)
	} else {
		c.log.Warn("could not seed credential from token store", logger.ErrorFields("load", err))
	}

	return c, nil
}

// Send performs req with the current bearer credential. An expired
// credential is renewed once and the request replayed; an invalid one signs
// the user out. Any other failure is returned as is.
func (c *Client) Send(ctx context.Context, req httpclient.Request) (*httpclient.Response, error) {
	requestID := uuid.NewString()
	ctx = logger.ContextWithRequestID(ctx, requestID)
	ctx, span := observability.StartSpan(ctx, observability.SpanSend)
	defer span.End()
	span.SetAttributes(
		attribute.String(observability.AttrRequestID, requestID),
		attribute.String(observability.AttrMethod, methodOf(req)),
		attribute.String(observability.AttrPath, req.Path),
	)

	req = c.prepare(ctx, req, requestID)

	resp, err := c.adapter.Do(ctx, req)
	if err == nil {
		return resp, nil
	}

	kind, ok := c.Classify(err)
	if !ok {
		observability.SetSpanError(span, err)
		return resp, err
	}

	log := c.log.WithContext(ctx)
	log.Debug("authentication failure", logger.Fields(
		logger.FieldMethod, methodOf(req),
		logger.FieldPath, req.Path,
		logger.FieldRenewal, kind.String(),
	))

	if kind == refresh.KindExpired {
		if rerr := req.Replayable(); rerr != nil {
			observability.SetSpanError(span, rerr)
			return resp, errors.MalformedWaiter(rerr.Error()).WithCause(err)
		}
	}

	resp, err = refresh.Do(ctx, c.coordinator, kind, err,
		func(ctx context.Context, token string) (*httpclient.Response, error) {
			replay, err := req.WithBearer(token)
			if err != nil {
				return nil, errors.MalformedWaiter(err.Error())
			}
			return c.adapter.Do(ctx, replay)
		})
	observability.SetSpanError(span, err)
	return resp, err
}

// prepare attaches correlation headers and the bearer credential. The
// caller's header map is never modified.
func (c *Client) prepare(ctx context.Context, req httpclient.Request, requestID string) httpclient.Request {
	headers := maps.Clone(req.Headers)
	if headers == nil {
		headers = make(map[string]string, 2)
	}
	if _, ok := headers[HeaderRequestID]; !ok {
		headers[HeaderRequestID] = requestID
	}
	observability.InjectHeaders(ctx, headers)
	req.Headers = headers

	if req.Auth == nil {
		if token := c.currentToken(ctx); token != "" {
			req.Auth = httpclient.BearerAuth(token)
		}
	}
	return req
}

// currentToken returns the stored access token, falling back to the
// default credential when the store has none or cannot be read.
func (c *Client) currentToken(ctx context.Context) string {
	pair, err := c.store.Load(ctx)
	if err != nil {
		c.log.WithContext(ctx).Warn("token store unavailable, using default credential", logger.ErrorFields("load", err))
		return c.Credential()
	}
	if pair.AccessToken == "" {
		return c.Credential()
	}
	return pair.AccessToken
}

// Classify maps a transport error to a refresh kind. It reports false when
// err is not an authentication failure.
func (c *Client) Classify(err error) (refresh.Kind, bool) {
	var httpErr *httpclient.Error
	if !stderrors.As(err, &httpErr) || httpErr.StatusCode != http.StatusUnauthorized {
		return 0, false
	}
	if httpErr.BackendCode == c.cfg.Refresh.ExpiredCode {
		return refresh.KindExpired, true
	}
	return refresh.KindInvalid, true
}

// Get sends a GET request.
func (c *Client) Get(ctx context.Context, path string) (*httpclient.Response, error) {
	return c.Send(ctx, httpclient.Request{Method: http.MethodGet, Path: path})
}

// Post sends a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body any) (*httpclient.Response, error) {
	return c.Send(ctx, httpclient.Request{Method: http.MethodPost, Path: path, Body: body})
}

// Put sends a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body any) (*httpclient.Response, error) {
	return c.Send(ctx, httpclient.Request{Method: http.MethodPut, Path: path, Body: body})
}

// Delete sends a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*httpclient.Response, error) {
	return c.Send(ctx, httpclient.Request{Method: http.MethodDelete, Path: path})
}

// SetCredential replaces the default bearer credential.
func (c *Client) SetCredential(token string) {
	c.mu.Lock()
	c.credential = token
	c.mu.Unlock()
}

// Credential returns the default bearer credential.
func (c *Client) Credential() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.credential
}

// Coordinator returns the refresh coordinator owned by the client.
func (c *Client) Coordinator() *refresh.Coordinator {
	return c.coordinator
}

// Close releases idle transport connections.
func (c *Client) Close() error {
	return c.adapter.Close()
}

func methodOf(req httpclient.Request) string {
	if req.Method == "" {
		return http.MethodGet
	}
	return req.Method
}
