package refresh

import (
	"context"
	stderrors "errors"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kbukum/authclient/errors"
	"github.com/kbukum/authclient/tokenstore"
)

// blockingRenewer counts calls and holds each one until release is closed.
type blockingRenewer struct {
	calls   atomic.Int32
	release chan struct{}
	pair    tokenstore.TokenPair
	err     error
	seen    chan string
}

func newBlockingRenewer(pair tokenstore.TokenPair, err error) *blockingRenewer {
	return &blockingRenewer{
		release: make(chan struct{}),
		pair:    pair,
		err:     err,
		seen:    make(chan string, 16),
	}
}

func (r *blockingRenewer) Renew(ctx context.Context, refreshToken string) (tokenstore.TokenPair, error) {
	r.calls.Add(1)
	r.seen <- refreshToken
	select {
	case <-r.release:
	case <-ctx.Done():
		return tokenstore.TokenPair{}, ctx.Err()
	}
	return r.pair, r.err
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func seededStore() *tokenstore.MemoryStore {
	return tokenstore.NewMemoryStore(tokenstore.TokenPair{AccessToken: "a0", RefreshToken: "r0"})
}

func newCoordinator(t *testing.T, store tokenstore.Store, renewer Renewer, opts ...Option) *Coordinator {
	t.Helper()
	c, err := New(store, renewer, opts...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return c
}

type result struct {
	token string
	err   error
}

func TestCoordinator_ConcurrentExpiryRenewsOnce(t *testing.T) {
	const n = 20
	store := seededStore()
	renewer := newBlockingRenewer(tokenstore.TokenPair{AccessToken: "a1", RefreshToken: "r1"}, nil)
	c := newCoordinator(t, store, renewer)

	results := make(chan result, n)
	for i := 0; i < n; i++ {
		go func() {
			token, err := c.OnAuthFailure(context.Background(), KindExpired, fmt.Errorf("401"))
			results <- result{token, err}
		}()
	}

	waitFor(t, "all callers to queue", func() bool { return c.Pending() == n })
	if c.State() != InFlight {
		t.Errorf("expected InFlight, got %s", c.State())
	}
	close(renewer.release)

	for i := 0; i < n; i++ {
		r := <-results
		if r.err != nil {
			t.Fatalf("unexpected error: %v", r.err)
		}
		if r.token != "a1" {
			t.Errorf("expected renewed token a1, got %q", r.token)
		}
	}

	if got := renewer.calls.Load(); got != 1 {
		t.Errorf("expected exactly 1 renewal call, got %d", got)
	}
	if got := <-renewer.seen; got != "r0" {
		t.Errorf("expected renewal with stored refresh token r0, got %q", got)
	}
	if c.State() != Idle || c.Pending() != 0 {
		t.Errorf("expected Idle with empty queue, got %s with %d", c.State(), c.Pending())
	}
	if pair, _ := store.Load(context.Background()); pair.AccessToken != "a1" || pair.RefreshToken != "r1" {
		t.Errorf("expected store to hold renewed pair, got %+v", pair)
	}
}

func TestCoordinator_RenewalFailureRejectsEveryWaiter(t *testing.T) {
	renewErr := stderrors.New("refresh endpoint returned 500")
	renewer := newBlockingRenewer(tokenstore.TokenPair{}, renewErr)
	c := newCoordinator(t, seededStore(), renewer)

	results := make(chan result, 3)
	for i := 0; i < 3; i++ {
		go func() {
			token, err := c.OnAuthFailure(context.Background(), KindExpired, nil)
			results <- result{token, err}
		}()
	}
	waitFor(t, "three callers to queue", func() bool { return c.Pending() == 3 })
	close(renewer.release)

	for i := 0; i < 3; i++ {
		r := <-results
		if !errors.IsCode(r.err, errors.ErrCodeRenewalFailed) {
			t.Fatalf("expected RENEWAL_FAILED, got %v", r.err)
		}
		if !stderrors.Is(r.err, renewErr) {
			t.Errorf("expected the renewal error to be preserved, got %v", r.err)
		}
		if r.token != "" {
			t.Errorf("expected no token on failure, got %q", r.token)
		}
	}
	if c.State() != Idle {
		t.Errorf("expected Idle after failure, got %s", c.State())
	}

	// A later expiry starts a fresh attempt.
	renewer2 := RenewerFunc(func(context.Context, string) (tokenstore.TokenPair, error) {
		return tokenstore.TokenPair{AccessToken: "a2", RefreshToken: "r2"}, nil
	})
	c.renewer = renewer2
	token, err := c.OnAuthFailure(context.Background(), KindExpired, nil)
	if err != nil || token != "a2" {
		t.Fatalf("expected fresh renewal to succeed, got %q %v", token, err)
	}
	if c.Renewals() != 2 {
		t.Errorf("expected 2 renewals, got %d", c.Renewals())
	}
}

func TestCoordinator_InvalidCredentialSignsOut(t *testing.T) {
	var signedOut atomic.Int32
	renewer := RenewerFunc(func(context.Context, string) (tokenstore.TokenPair, error) {
		t.Error("renewal must not run for an invalid credential")
		return tokenstore.TokenPair{}, nil
	})
	c := newCoordinator(t, seededStore(), renewer, WithSignOut(func(context.Context, error) {
		signedOut.Add(1)
	}))

	cause := stderrors.New("401 token.invalid")
	_, err := c.OnAuthFailure(context.Background(), KindInvalid, cause)
	if !errors.IsCode(err, errors.ErrCodeInvalidToken) {
		t.Fatalf("expected INVALID_TOKEN, got %v", err)
	}
	if !stderrors.Is(err, cause) {
		t.Error("expected the original error to be carried")
	}
	if signedOut.Load() != 1 {
		t.Errorf("expected sign-out hook once, got %d", signedOut.Load())
	}
	if c.State() != Idle || c.Renewals() != 0 {
		t.Errorf("expected renewal state untouched, got %s with %d renewals", c.State(), c.Renewals())
	}
}

func TestCoordinator_DefaultSignOutClearsStore(t *testing.T) {
	store := seededStore()
	c := newCoordinator(t, store, RenewerFunc(func(context.Context, string) (tokenstore.TokenPair, error) {
		return tokenstore.TokenPair{}, nil
	}))

	_, _ = c.OnAuthFailure(context.Background(), KindInvalid, nil)
	if pair, _ := store.Load(context.Background()); !pair.IsZero() {
		t.Errorf("expected cleared store, got %+v", pair)
	}
}

func TestCoordinator_SequentialExpiryEvents(t *testing.T) {
	var calls atomic.Int32
	renewer := RenewerFunc(func(_ context.Context, refreshToken string) (tokenstore.TokenPair, error) {
		n := calls.Add(1)
		return tokenstore.TokenPair{
			AccessToken:  fmt.Sprintf("a%d", n),
			RefreshToken: fmt.Sprintf("r%d", n),
		}, nil
	})
	store := seededStore()
	c := newCoordinator(t, store, renewer)

	for i := 1; i <= 2; i++ {
		token, err := c.OnAuthFailure(context.Background(), KindExpired, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if want := fmt.Sprintf("a%d", i); token != want {
			t.Errorf("expected %s, got %s", want, token)
		}
	}
	if calls.Load() != 2 {
		t.Errorf("expected 2 independent renewals, got %d", calls.Load())
	}
}

func TestCoordinator_WaiterTimeout(t *testing.T) {
	renewer := newBlockingRenewer(tokenstore.TokenPair{AccessToken: "a1", RefreshToken: "r1"}, nil)
	c := newCoordinator(t, seededStore(), renewer, WithWaiterTimeout(20*time.Millisecond))

	_, err := c.OnAuthFailure(context.Background(), KindExpired, nil)
	if !errors.IsCode(err, errors.ErrCodeWaiterTimeout) {
		t.Fatalf("expected WAITER_TIMEOUT, got %v", err)
	}
	if c.Pending() != 0 {
		t.Errorf("expected timed-out waiter to leave the queue, got %d", c.Pending())
	}
	if c.State() != InFlight {
		t.Errorf("expected renewal still in flight, got %s", c.State())
	}

	close(renewer.release)
	waitFor(t, "renewal to settle", func() bool { return c.State() == Idle })
}

func TestCoordinator_CancelledTriggerDoesNotFailOthers(t *testing.T) {
	renewer := newBlockingRenewer(tokenstore.TokenPair{AccessToken: "a1", RefreshToken: "r1"}, nil)
	c := newCoordinator(t, seededStore(), renewer)

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan result, 1)
	go func() {
		token, err := c.OnAuthFailure(ctx, KindExpired, nil)
		first <- result{token, err}
	}()
	waitFor(t, "trigger to queue", func() bool { return c.Pending() == 1 })

	second := make(chan result, 1)
	go func() {
		token, err := c.OnAuthFailure(context.Background(), KindExpired, nil)
		second <- result{token, err}
	}()
	waitFor(t, "second caller to queue", func() bool { return c.Pending() == 2 })

	cancel()
	r := <-first
	if !errors.IsCode(r.err, errors.ErrCodeWaiterTimeout) {
		t.Fatalf("expected cancelled caller to stop waiting, got %v", r.err)
	}

	close(renewer.release)
	r = <-second
	if r.err != nil || r.token != "a1" {
		t.Fatalf("expected second caller to receive a1, got %q %v", r.token, r.err)
	}
	if renewer.calls.Load() != 1 {
		t.Errorf("expected 1 renewal, got %d", renewer.calls.Load())
	}
}

func TestCoordinator_RenewalTimeout(t *testing.T) {
	renewer := newBlockingRenewer(tokenstore.TokenPair{}, nil)
	c := newCoordinator(t, seededStore(), renewer, WithRenewalTimeout(20*time.Millisecond))

	_, err := c.OnAuthFailure(context.Background(), KindExpired, nil)
	if !errors.IsCode(err, errors.ErrCodeRenewalFailed) {
		t.Fatalf("expected RENEWAL_FAILED, got %v", err)
	}
	if !stderrors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded cause, got %v", err)
	}
}

func TestCoordinator_NoRefreshToken(t *testing.T) {
	c := newCoordinator(t, tokenstore.NewMemoryStore(tokenstore.TokenPair{AccessToken: "a0"}),
		RenewerFunc(func(context.Context, string) (tokenstore.TokenPair, error) {
			t.Error("renewer must not be called without a refresh token")
			return tokenstore.TokenPair{}, nil
		}))

	_, err := c.OnAuthFailure(context.Background(), KindExpired, nil)
	if !stderrors.Is(err, errNoRefreshToken) {
		t.Fatalf("expected errNoRefreshToken, got %v", err)
	}
}

func TestCoordinator_KeepsRefreshTokenWhenNotRotated(t *testing.T) {
	store := seededStore()
	c := newCoordinator(t, store, RenewerFunc(func(context.Context, string) (tokenstore.TokenPair, error) {
		return tokenstore.TokenPair{AccessToken: "a1"}, nil
	}))

	if _, err := c.OnAuthFailure(context.Background(), KindExpired, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pair, _ := store.Load(context.Background()); pair.RefreshToken != "r0" {
		t.Errorf("expected refresh token r0 to be kept, got %+v", pair)
	}
}

func TestCoordinator_OnRenewedRunsBeforeRelease(t *testing.T) {
	var mu sync.Mutex
	var credential string
	c := newCoordinator(t, seededStore(),
		RenewerFunc(func(context.Context, string) (tokenstore.TokenPair, error) {
			return tokenstore.TokenPair{AccessToken: "a1", RefreshToken: "r1"}, nil
		}),
		OnRenewed(func(p tokenstore.TokenPair) {
			mu.Lock()
			credential = p.AccessToken
			mu.Unlock()
		}),
	)

	if _, err := c.OnAuthFailure(context.Background(), KindExpired, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if credential != "a1" {
		t.Errorf("expected default credential a1 when released, got %q", credential)
	}
}

func TestDo_ReplaysWithRenewedToken(t *testing.T) {
	c := newCoordinator(t, seededStore(), RenewerFunc(func(context.Context, string) (tokenstore.TokenPair, error) {
		return tokenstore.TokenPair{AccessToken: "a1", RefreshToken: "r1"}, nil
	}))

	got, err := Do(context.Background(), c, KindExpired, nil, func(_ context.Context, token string) (string, error) {
		return "replayed with " + token, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "replayed with a1" {
		t.Errorf("unexpected replay result %q", got)
	}

	_, err = Do(context.Background(), c, KindInvalid, nil, func(context.Context, string) (int, error) {
		t.Error("replay must not run after an invalid credential")
		return 0, nil
	})
	if err == nil {
		t.Error("expected error for invalid credential")
	}
}

func TestNew_RequiresCollaborators(t *testing.T) {
	if _, err := New(nil, RenewerFunc(nil)); err == nil {
		t.Error("expected error without store")
	}
	if _, err := New(seededStore(), nil); err == nil {
		t.Error("expected error without renewer")
	}
}

func TestStateAndKindStrings(t *testing.T) {
	if Idle.String() != "idle" || InFlight.String() != "in_flight" {
		t.Error("unexpected state strings")
	}
	if KindExpired.String() != "expired" || KindInvalid.String() != "invalid" || Kind(0).String() != "unknown" {
		t.Error("unexpected kind strings")
	}
}

func TestCoordinator_QueueKeepsArrivalOrder(t *testing.T) {
	const n = 5
	renewer := newBlockingRenewer(tokenstore.TokenPair{AccessToken: "a1", RefreshToken: "r1"}, nil)
	c := newCoordinator(t, seededStore(), renewer)

	arrived := make([]*waiter, 0, n)
	done := make(chan struct{}, n)
	for i := 0; i < n; i++ {
		go func() {
			_, _ = c.OnAuthFailure(context.Background(), KindExpired, nil)
			done <- struct{}{}
		}()
		waitFor(t, fmt.Sprintf("caller %d to queue", i), func() bool { return c.Pending() == i+1 })

		c.mu.Lock()
		arrived = append(arrived, c.queue[len(c.queue)-1])
		for j, w := range arrived {
			if c.queue[j] != w {
				t.Errorf("caller %d moved after caller %d arrived", j, i)
			}
		}
		c.mu.Unlock()
	}

	close(renewer.release)
	for i := 0; i < n; i++ {
		<-done
	}
}

func TestCoordinator_SettleReleasesInQueueOrder(t *testing.T) {
	const n = 8
	c := newCoordinator(t, seededStore(), newBlockingRenewer(tokenstore.TokenPair{}, nil))

	// Unbuffered channels make every send wait for its receiver, so the
	// receive order below is the order settle sends in.
	cases := make([]reflect.SelectCase, n)
	c.mu.Lock()
	c.state = InFlight
	for i := range cases {
		w := &waiter{ch: make(chan Outcome)}
		c.queue = append(c.queue, w)
		cases[i] = reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(w.ch)}
	}
	c.mu.Unlock()

	released := make(chan int, 1)
	go func() { released <- c.settle(Outcome{Token: "a1"}) }()

	for want := 0; want < n; want++ {
		got, v, _ := reflect.Select(cases)
		if got != want {
			t.Fatalf("release %d went to waiter %d", want, got)
		}
		if out := v.Interface().(Outcome); out.Token != "a1" {
			t.Errorf("waiter %d got token %q", got, out.Token)
		}
		cases[got].Chan = reflect.Value{}
	}
	if got := <-released; got != n {
		t.Errorf("expected %d released, got %d", n, got)
	}
	if c.State() != Idle || c.Pending() != 0 {
		t.Errorf("expected idle with empty queue, got %s/%d", c.State(), c.Pending())
	}
}

func TestCoordinator_WithdrawKeepsRemainingOrder(t *testing.T) {
	c := newCoordinator(t, seededStore(), newBlockingRenewer(tokenstore.TokenPair{}, nil))
	ws := []*waiter{{ch: make(chan Outcome, 1)}, {ch: make(chan Outcome, 1)}, {ch: make(chan Outcome, 1)}}
	c.mu.Lock()
	c.queue = append(c.queue, ws...)
	c.mu.Unlock()

	if !c.withdraw(ws[1]) {
		t.Fatal("expected queued waiter to be withdrawn")
	}
	if c.withdraw(ws[1]) {
		t.Error("a waiter must only be withdrawn once")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.queue) != 2 || c.queue[0] != ws[0] || c.queue[1] != ws[2] {
		t.Errorf("unexpected queue after withdraw: %v", c.queue)
	}
}
