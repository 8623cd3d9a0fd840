package refresh

import (
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/kbukum/authclient/logger"
	"github.com/kbukum/authclient/tokenstore"
)

// Default timeouts.
const (
	DefaultWaiterTimeout  = 30 * time.Second
	DefaultRenewalTimeout = 15 * time.Second
)

// Option customizes a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the coordinator logger.
func WithLogger(log *logger.Logger) Option {
	return func(c *Coordinator) {
		if log != nil {
			c.log = log
		}
	}
}

// WithSignOut replaces the sign-out hook. The default clears the store.
func WithSignOut(fn SignOutFunc) Option {
	return func(c *Coordinator) {
		if fn != nil {
			c.signOut = fn
		}
	}
}

// WithWaiterTimeout bounds how long a queued caller waits for a renewal to
// settle. Zero disables the bound; the caller's context still applies.
func WithWaiterTimeout(d time.Duration) Option {
	return func(c *Coordinator) { c.waiterTimeout = d }
}

// WithRenewalTimeout bounds the renewal call itself. Zero disables the bound.
func WithRenewalTimeout(d time.Duration) Option {
	return func(c *Coordinator) { c.renewalTimeout = d }
}

// WithMeter records coordinator metrics on meter. A nil meter keeps the
// no-op default.
func WithMeter(meter metric.Meter) Option {
	return func(c *Coordinator) {
		if meter != nil {
			c.meter = meter
		}
	}
}

// OnRenewed registers fn to run after a renewed pair is stored and before
// queued callers are released.
func OnRenewed(fn func(tokenstore.TokenPair)) Option {
	return func(c *Coordinator) {
		if fn != nil {
			c.onRenewed = append(c.onRenewed, fn)
		}
	}
}
