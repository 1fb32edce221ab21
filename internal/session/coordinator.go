package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/orvull/omnisia-admin-console/internal/models"
	"github.com/orvull/omnisia-admin-console/internal/notify"
)

var (
	ErrNoRefreshToken      = errors.New("session: no refresh token")
	ErrRefreshTokenExpired = errors.New("session: refresh token expired")
	ErrSessionExpired      = errors.New("session: session expired")
)

// SessionExpiredMessage is the toast raised when a refresh fails.
const SessionExpiredMessage = "Your session has expired, please sign in again"

type State int

const (
	Idle State = iota
	Refreshing
	Resolved
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Refreshing:
		return "refreshing"
	case Resolved:
		return "resolved"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Event is published on every state transition. Token is set on Resolved
// and Err on Failed.
type Event struct {
	State State
	Token string
	Err   error
}

// RefreshFunc exchanges a refresh token for a new credential pair.
type RefreshFunc func(ctx context.Context, refreshToken string) (models.Credentials, error)

// Coordinator runs at most one refresh at a time. Every caller arriving
// while a refresh is in flight waits for that refresh and gets its result.
type Coordinator struct {
	store    *Store
	refresh  RefreshFunc
	notifier notify.Notifier
	log      *slog.Logger

	group singleflight.Group

	mu        sync.Mutex
	state     State
	ended     bool
	nextSub   int
	observers map[int]func(Event)
}

func NewCoordinator(store *Store, refresh RefreshFunc, n notify.Notifier, log *slog.Logger) *Coordinator {
	if log == nil {
		log = slog.Default()
	}
	return &Coordinator{
		store:     store,
		refresh:   refresh,
		notifier:  n,
		log:       log,
		observers: make(map[int]func(Event)),
	}
}

func (c *Coordinator) Store() *Store { return c.store }

// Refresh returns a usable access token. stale is the token the caller
// was using; if the store already holds a different unexpired token, a
// refresh finished in the meantime and that token is returned without a
// network call.
//
// The refresh itself is not tied to ctx, so a waiter giving up does not
// fail the others.
func (c *Coordinator) Refresh(ctx context.Context, stale string) (string, error) {
	if tok, ok := c.newer(stale); ok {
		return tok, nil
	}
	if c.alreadyFailed() {
		return "", fmt.Errorf("%w: %w", ErrSessionExpired, ErrNoRefreshToken)
	}
	detached := context.WithoutCancel(ctx)
	ch := c.group.DoChan("refresh", func() (any, error) {
		return c.run(detached, stale)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (c *Coordinator) newer(stale string) (string, bool) {
	cur := c.store.Access()
	if cur != "" && cur != stale && !c.store.IsExpired(cur) {
		return cur, true
	}
	return "", false
}

// alreadyFailed reports whether a previous refresh ended the session and
// no new one has been stored since, so late callers do not log out twice.
func (c *Coordinator) alreadyFailed() bool {
	c.mu.Lock()
	ended := c.ended
	c.mu.Unlock()
	return ended && c.store.Refresh() == ""
}

func (c *Coordinator) run(ctx context.Context, stale string) (string, error) {
	c.publish(Event{State: Refreshing})

	if tok, ok := c.newer(stale); ok {
		c.resolve(tok)
		return tok, nil
	}

	rt := c.store.Refresh()
	switch {
	case rt == "":
		return "", c.fail(ErrNoRefreshToken)
	case c.store.IsExpired(rt):
		return "", c.fail(ErrRefreshTokenExpired)
	}

	creds, err := c.refresh(ctx, rt)
	if err == nil && creds.AccessToken == "" {
		err = errors.New("empty access token in refresh response")
	}
	if err != nil {
		return "", c.fail(fmt.Errorf("refresh: %w", err))
	}
	if creds.RefreshToken == "" {
		creds.RefreshToken = rt
	}
	if err := c.store.SetPair(creds); err != nil {
		return "", c.fail(err)
	}

	c.log.Debug("access token refreshed")
	c.resolve(creds.AccessToken)
	return creds.AccessToken, nil
}

func (c *Coordinator) resolve(token string) {
	c.mu.Lock()
	c.ended = false
	c.mu.Unlock()
	c.publish(Event{State: Resolved, Token: token})
	c.publish(Event{State: Idle})
}

// fail is the only place the session is forcibly ended.
func (c *Coordinator) fail(cause error) error {
	err := fmt.Errorf("%w: %w", ErrSessionExpired, cause)
	c.log.Warn("session refresh failed", "error", cause)

	c.mu.Lock()
	c.ended = true
	c.mu.Unlock()

	if lerr := c.store.Logout(); lerr != nil {
		c.log.Error("logout after failed refresh", "error", lerr)
	}
	if c.notifier != nil {
		c.notifier.Show(SessionExpiredMessage, notify.Error, 0)
	}
	c.publish(Event{State: Failed, Err: err})
	c.publish(Event{State: Idle})
	return err
}

func (c *Coordinator) publish(ev Event) {
	c.mu.Lock()
	c.state = ev.State
	observers := make([]func(Event), 0, len(c.observers))
	for _, fn := range c.observers {
		observers = append(observers, fn)
	}
	c.mu.Unlock()

	for _, fn := range observers {
		fn(ev)
	}
}

func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Subscribe registers fn for state transitions until cancel is called.
func (c *Coordinator) Subscribe(fn func(Event)) (cancel func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextSub
	c.nextSub++
	c.observers[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.observers, id)
	}
}
