// Package auth holds the client-side session and notifies listeners when it
// changes.
package auth

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/kinboost-api/internal/client/api"
	"github.com/kinboost-api/internal/domain"
)

type Event string

const (
	EventInitialSession Event = "INITIAL_SESSION"
	EventSignedIn       Event = "SIGNED_IN"
	EventSignedOut      Event = "SIGNED_OUT"
	EventTokenRefreshed Event = "TOKEN_REFRESHED"
)

// Listener receives every session change. It is called with the client lock
// held: it must not call back into the Client or block on anything that does.
type Listener func(event Event, session *domain.AuthSession)

// Backend is the remote provider. *api.Client satisfies it.
type Backend interface {
	SignIn(ctx context.Context, email, password string) (*domain.AuthSession, error)
	Refresh(ctx context.Context, refreshToken string) (*domain.AuthSession, error)
	SignOut(ctx context.Context, accessToken string) error
}

// DefaultRefreshMargin is how long before expiry GetSession refreshes.
const DefaultRefreshMargin = 30 * time.Second

type Client struct {
	backend Backend
	margin  time.Duration
	now     func() time.Time

	mu        sync.Mutex
	session   *domain.AuthSession
	listeners map[int]Listener
	nextID    int
}

func New(backend Backend) *Client {
	return &Client{
		backend:   backend,
		margin:    DefaultRefreshMargin,
		now:       time.Now,
		listeners: make(map[int]Listener),
	}
}

// OnAuthStateChange registers l and immediately sends it INITIAL_SESSION with
// the current session (possibly nil).
func (c *Client) OnAuthStateChange(l Listener) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextID
	c.nextID++
	c.listeners[id] = l
	l(EventInitialSession, c.session)

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.listeners, id)
			c.mu.Unlock()
		})
	}
}

func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*domain.AuthSession, error) {
	sess, err := c.backend.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = sess
	c.emit(EventSignedIn, sess)
	return sess, nil
}

// SignOut revokes the session remotely and clears it locally. The local session
// is cleared even when the remote call fails; that error is returned.
func (c *Client) SignOut(ctx context.Context) error {
	c.mu.Lock()
	sess := c.session
	c.mu.Unlock()

	var err error
	if sess != nil {
		err = c.backend.SignOut(ctx, sess.AccessToken)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = nil
	c.emit(EventSignedOut, nil)
	return err
}

// GetSession returns the current session, refreshing it first when it is
// about to expire. The client signs out only when the server rejects the
// refresh token; other refresh failures keep the session and return the error.
func (c *Client) GetSession(ctx context.Context) (*domain.AuthSession, error) {
	c.mu.Lock()
	sess := c.session
	c.mu.Unlock()

	if sess == nil || c.now().Add(c.margin).Before(sess.ExpiresAt) {
		return sess, nil
	}

	fresh, err := c.backend.Refresh(ctx, sess.RefreshToken)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != sess {
		// Changed by someone else while we were waiting.
		return c.session, nil
	}
	if err != nil {
		if !rejected(err) {
			return nil, err
		}
		c.session = nil
		c.emit(EventSignedOut, nil)
		return nil, err
	}
	c.session = fresh
	c.emit(EventTokenRefreshed, fresh)
	return fresh, nil
}

// emit must be called with mu held.
func (c *Client) emit(event Event, sess *domain.AuthSession) {
	for _, l := range c.listeners {
		l(event, sess)
	}
}

func rejected(err error) bool {
	var apiErr *api.Error
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}
