package storefront

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/avatarctic/headless-gateway/internal/core/domain/session"
	"github.com/sirupsen/logrus"
)

// ErrSessionCheckFailed means the gateway could not decide the session; the
// previously known user is kept.
var ErrSessionCheckFailed = errors.New("storefront: session check failed")

// AuthError carries the gateway's message for a rejected auth request.
type AuthError struct {
	Status  int
	Message string
}

func (e *AuthError) Error() string { return e.Message }

const retryAfterFailedCheck = 30 * time.Second

type sessionReply struct {
	User              *User  `json:"user"`
	AuthTokenLifetime int    `json:"authTokenLifetime"`
	Error             string `json:"error"`
}

// SessionKeeper tracks the signed-in user and re-checks the session ahead of
// access token expiry so the gateway can refresh it.
type SessionKeeper struct {
	client *Client
	logger *logrus.Logger

	mu       sync.RWMutex
	user     *User
	lifetime time.Duration
}

func NewSessionKeeper(client *Client, logger *logrus.Logger) *SessionKeeper {
	return &SessionKeeper{client: client, logger: logger, lifetime: session.DefaultAuthTokenLifetime}
}

// User returns the last known user, nil when signed out.
func (k *SessionKeeper) User() *User {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.user
}

// NextCheck is when the next proactive check is due, relative to the last answer.
func (k *SessionKeeper) NextCheck() time.Duration {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return session.Lifetimes{Auth: k.lifetime}.RefreshAfter()
}

func (k *SessionKeeper) apply(r *sessionReply) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.user = r.User
	if r.AuthTokenLifetime > 0 {
		k.lifetime = time.Duration(r.AuthTokenLifetime) * time.Second
	}
}

// Check asks the gateway who is signed in. A 503 leaves the known user in place.
func (k *SessionKeeper) Check(ctx context.Context) (*User, error) {
	var reply sessionReply
	status, err := k.client.restJSON(ctx, http.MethodGet, "/api/auth/session", nil, &reply)
	if err != nil {
		return k.User(), fmt.Errorf("%w: %v", ErrSessionCheckFailed, err)
	}
	if status != http.StatusOK {
		return k.User(), fmt.Errorf("%w: status %d", ErrSessionCheckFailed, status)
	}
	k.apply(&reply)
	return reply.User, nil
}

func (k *SessionKeeper) Login(ctx context.Context, username, password string) (*User, error) {
	var reply sessionReply
	status, err := k.client.restJSON(ctx, http.MethodPost, "/api/auth/login",
		map[string]string{"username": username, "password": password}, &reply)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, &AuthError{Status: status, Message: reply.Error}
	}
	k.apply(&reply)
	return reply.User, nil
}

func (k *SessionKeeper) Logout(ctx context.Context) error {
	status, err := k.client.restJSON(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return &AuthError{Status: status, Message: "Logout failed"}
	}
	k.mu.Lock()
	k.user = nil
	k.mu.Unlock()
	return nil
}

// Run checks the session at three quarters of the token lifetime until ctx
// ends. Failed checks are retried sooner and never sign the user out.
func (k *SessionKeeper) Run(ctx context.Context) {
	next := k.NextCheck()
	timer := time.NewTimer(next)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		next = k.NextCheck()
		if _, err := k.Check(ctx); err != nil {
			if k.logger != nil {
				k.logger.WithError(err).Warn("session check failed; keeping current user")
			}
			if next > retryAfterFailedCheck {
				next = retryAfterFailedCheck
			}
		} else {
			next = k.NextCheck()
		}
		timer.Reset(next)
	}
}
