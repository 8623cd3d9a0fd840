package refresh

import (
	"context"
	stderrors "errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/kbukum/authclient/errors"
	"github.com/kbukum/authclient/logger"
	"github.com/kbukum/authclient/observability"
	"github.com/kbukum/authclient/tokenstore"
)

var (
	errNoRefreshToken = stderrors.New("no refresh token stored")
	errEmptyToken     = stderrors.New("renewal returned an empty access token")
)

// waiter is a caller queued behind the in-flight renewal.
type waiter struct {
	ch chan Outcome
}

// Coordinator runs at most one renewal at a time and releases every queued
// caller exactly once when it settles. A Coordinator must not be copied.
type Coordinator struct {
	store          tokenstore.Store
	renewer        Renewer
	log            *logger.Logger
	signOut        SignOutFunc
	onRenewed      []func(tokenstore.TokenPair)
	waiterTimeout  time.Duration
	renewalTimeout time.Duration
	meter          metric.Meter
	metrics        *metrics

	mu       sync.Mutex
	state    State
	queue    []*waiter
	renewals int
}

// New creates a Coordinator that renews through renewer and persists the
// result in store.
func New(store tokenstore.Store, renewer Renewer, opts ...Option) (*Coordinator, error) {
	if store == nil {
		return nil, fmt.Errorf("refresh: token store is required")
	}
	if renewer == nil {
		return nil, fmt.Errorf("refresh: renewer is required")
	}

	c := &Coordinator{
		store:          store,
		renewer:        renewer,
		log:            logger.Nop(),
		waiterTimeout:  DefaultWaiterTimeout,
		renewalTimeout: DefaultRenewalTimeout,
		meter:          noop.NewMeterProvider().Meter(meterName),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.signOut == nil {
		c.signOut = c.clearStore
	}

	m, err := newMetrics(c.meter)
	if err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}
	c.metrics = m

	return c, nil
}

// OnAuthFailure handles a request that failed authentication.
//
// For KindExpired it queues the caller behind the renewal, starting one if
// none is running, and blocks until the renewal settles, the waiter timeout
// elapses or ctx is done. It returns the new access token for the caller to
// replay with.
//
// Any other kind invokes the sign-out hook and returns cause wrapped as
// INVALID_TOKEN.
func (c *Coordinator) OnAuthFailure(ctx context.Context, kind Kind, cause error) (string, error) {
	if kind != KindExpired {
		c.log.WithContext(ctx).Warn("credential rejected, signing out", logger.Fields(
			logger.FieldRenewal, kind.String(),
		))
		c.metrics.signOuts.Add(ctx, 1)
		c.signOut(ctx, cause)
		return "", errors.InvalidToken(cause)
	}

	w := &waiter{ch: make(chan Outcome, 1)}
	c.metrics.waiters.Add(ctx, 1)
	defer c.metrics.waiters.Add(context.WithoutCancel(ctx), -1)

	c.mu.Lock()
	c.queue = append(c.queue, w)
	start := c.state == Idle
	if start {
		c.state = InFlight
		c.renewals++
	}
	pending := len(c.queue)
	c.mu.Unlock()

	if start {
		go c.renew(ctx)
	} else {
		c.log.WithContext(ctx).Debug("joined in-flight renewal", logger.Fields(logger.FieldWaiters, pending))
	}

	return c.wait(ctx, w, cause)
}

// wait blocks until w is settled or gives up.
func (c *Coordinator) wait(ctx context.Context, w *waiter, cause error) (string, error) {
	var timeout <-chan time.Time
	if c.waiterTimeout > 0 {
		timer := time.NewTimer(c.waiterTimeout)
		defer timer.Stop()
		timeout = timer.C
	}

	var reason error
	select {
	case out := <-w.ch:
		return out.Token, out.Err
	case <-ctx.Done():
		reason = ctx.Err()
	case <-timeout:
		reason = context.DeadlineExceeded
	}

	if c.withdraw(w) {
		c.log.WithContext(ctx).Warn("gave up waiting for renewal", logger.ErrorFields("wait", reason))
		return "", errors.WaiterTimeout(reason).WithDetail("cause", errorString(cause))
	}
	// Already taken off the queue by settle; its outcome is on the way.
	out := <-w.ch
	return out.Token, out.Err
}

// withdraw removes w from the queue. It reports false when the renewal has
// already claimed w.
func (c *Coordinator) withdraw(w *waiter) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := slices.Index(c.queue, w)
	if i < 0 {
		return false
	}
	c.queue = slices.Delete(c.queue, i, i+1)
	return true
}

// renew performs the single renewal call and settles the queue. It runs on
// a context detached from the caller that triggered it, so cancelling that
// caller does not fail the other waiters.
func (c *Coordinator) renew(parent context.Context) {
	ctx := context.WithoutCancel(parent)
	if c.renewalTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.renewalTimeout)
		defer cancel()
	}
	ctx, span := observability.StartSpan(ctx, observability.SpanRenewal)
	defer span.End()

	log := c.log.WithContext(ctx)
	log.Debug("renewal started")

	start := time.Now()
	pair, err := c.exchange(ctx)
	elapsed := time.Since(start)
	c.metrics.recordRenewal(ctx, err, elapsed)

	if err != nil {
		observability.SetSpanError(span, err)
		released := c.settle(Outcome{Err: errors.RenewalFailed(err)})
		span.SetAttributes(attribute.Int(observability.AttrWaiters, released))
		log.Warn("renewal failed", logger.Fields(
			logger.FieldError, err.Error(),
			logger.FieldWaiters, released,
			logger.FieldDuration, elapsed.Milliseconds(),
		))
		return
	}

	for _, fn := range c.onRenewed {
		fn(pair)
	}
	released := c.settle(Outcome{Token: pair.AccessToken})
	span.SetAttributes(attribute.Int(observability.AttrWaiters, released))
	log.Info("renewal settled",
		logger.DurationFields("renew", elapsed),
		logger.Fields(logger.FieldWaiters, released))
}

// exchange trades the stored refresh token for a new pair and stores it.
func (c *Coordinator) exchange(ctx context.Context) (tokenstore.TokenPair, error) {
	current, err := c.store.Load(ctx)
	if err != nil {
		return tokenstore.TokenPair{}, err
	}
	if current.RefreshToken == "" {
		return tokenstore.TokenPair{}, errNoRefreshToken
	}

	pair, err := c.renewer.Renew(ctx, current.RefreshToken)
	if err != nil {
		return tokenstore.TokenPair{}, err
	}
	if pair.AccessToken == "" {
		return tokenstore.TokenPair{}, errEmptyToken
	}
	if pair.RefreshToken == "" {
		pair.RefreshToken = current.RefreshToken
	}

	if err := c.store.Replace(ctx, pair); err != nil {
		return tokenstore.TokenPair{}, fmt.Errorf("store renewed tokens: %w", err)
	}
	return pair, nil
}

// settle claims every queued waiter, returns the coordinator to Idle and
// delivers out to the claimed waiters in arrival order.
func (c *Coordinator) settle(out Outcome) int {
	c.mu.Lock()
	queue := c.queue
	c.queue = nil
	c.state = Idle
	c.mu.Unlock()

	for _, w := range queue {
		w.ch <- out
	}
	return len(queue)
}

func (c *Coordinator) clearStore(ctx context.Context, _ error) {
	if err := c.store.Clear(context.WithoutCancel(ctx)); err != nil {
		c.log.Error("failed to clear token store on sign-out", logger.ErrorFields("sign_out", err))
	}
}

// State returns the current renewal state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Pending returns the number of queued callers.
func (c *Coordinator) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

// Renewals returns how many renewal calls have been started.
func (c *Coordinator) Renewals() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.renewals
}

// Do runs OnAuthFailure and, when a new token is issued, replays the
// original request with it.
func Do[R any](ctx context.Context, c *Coordinator, kind Kind, cause error, replay func(ctx context.Context, token string) (R, error)) (R, error) {
	token, err := c.OnAuthFailure(ctx, kind, cause)
	if err != nil {
		var zero R
		return zero, err
	}
	return replay(ctx, token)
}

func errorString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
