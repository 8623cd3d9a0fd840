package refresh

import (
	"context"

	"github.com/kbukum/authclient/tokenstore"
)

// State is the renewal state of a Coordinator.
type State int

const (
	// Idle means no renewal is running.
	Idle State = iota
	// InFlight means exactly one renewal is running.
	InFlight
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case InFlight:
		return "in_flight"
	default:
		return "unknown"
	}
}

// Kind classifies an authentication failure.
type Kind int

const (
	// KindExpired is a recoverable failure: the access token expired.
	KindExpired Kind = iota + 1
	// KindInvalid is an unrecoverable failure: the credential was rejected.
	KindInvalid
)

func (k Kind) String() string {
	switch k {
	case KindExpired:
		return "expired"
	case KindInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Renewer exchanges a refresh token for a new token pair.
type Renewer interface {
	Renew(ctx context.Context, refreshToken string) (tokenstore.TokenPair, error)
}

// RenewerFunc is an adapter to use ordinary functions as Renewer.
type RenewerFunc func(ctx context.Context, refreshToken string) (tokenstore.TokenPair, error)

// Renew implements Renewer.
func (f RenewerFunc) Renew(ctx context.Context, refreshToken string) (tokenstore.TokenPair, error) {
	return f(ctx, refreshToken)
}

// SignOutFunc is invoked on unrecoverable authentication failures.
type SignOutFunc func(ctx context.Context, cause error)

// Outcome is what a queued caller receives when a renewal settles. Exactly
// one of Token and Err is set.
type Outcome struct {
	Token string
	Err   error
}
