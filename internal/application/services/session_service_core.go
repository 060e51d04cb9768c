package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/avatarctic/headless-gateway/internal/core/domain/apperr"
	"github.com/avatarctic/headless-gateway/internal/core/domain/session"
	"github.com/avatarctic/headless-gateway/internal/core/ports"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

type SessionService struct {
	origin   ports.AuthOrigin
	fallback session.Lifetimes
	cacheTTL time.Duration
	now      func() time.Time
	logger   *logrus.Logger

	mu        sync.Mutex
	lifetimes session.Lifetimes
	fetchedAt time.Time
	group     singleflight.Group
}

// SessionConfig groups the session manager's tunables.
type SessionConfig struct {
	// Fallback lifetimes apply when the CMS does not report its own.
	Fallback session.Lifetimes
	// LifetimesCacheTTL is how long CMS-reported lifetimes are reused.
	LifetimesCacheTTL time.Duration
	Now               func() time.Time
}

func NewSessionService(origin ports.AuthOrigin, cfg *SessionConfig, logger *logrus.Logger) ports.SessionService {
	s := &SessionService{
		origin:   origin,
		fallback: session.DefaultLifetimes(),
		cacheTTL: 5 * time.Minute,
		now:      time.Now,
		logger:   logger,
	}
	if cfg != nil {
		if cfg.Fallback.Auth > 0 {
			s.fallback.Auth = cfg.Fallback.Auth
		}
		if cfg.Fallback.Refresh > 0 {
			s.fallback.Refresh = cfg.Fallback.Refresh
		}
		if cfg.LifetimesCacheTTL > 0 {
			s.cacheTTL = cfg.LifetimesCacheTTL
		}
		if cfg.Now != nil {
			s.now = cfg.Now
		}
	}
	return s
}

func (s *SessionService) Login(ctx context.Context, req *session.LoginRequest) (*session.LoginResult, error) {
	if req == nil || req.Username == "" || req.Password == "" {
		return nil, apperr.Validation("Username and password are required")
	}

	res, err := s.origin.Login(ctx, req.Username, req.Password)
	if err != nil {
		if s.logger != nil {
			s.logger.WithField("username", req.Username).WithError(err).Info("login rejected")
		}
		return nil, err
	}
	res.Lifetimes = s.TokenLifetimes(ctx)
	return res, nil
}

// Register creates the account and then logs in with the same credentials.
// The account exists even if the follow-up login fails; the result then
// carries the registered user without tokens.
func (s *SessionService) Register(ctx context.Context, req *session.RegisterRequest) (*session.RegisterResult, error) {
	if req == nil || req.Username == "" || req.Email == "" || req.Password == "" {
		return nil, apperr.Validation("Username, email, and password are required")
	}

	registered, err := s.origin.RegisterUser(ctx, req.Username, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	lifetimes := s.TokenLifetimes(ctx)
	login, err := s.origin.Login(ctx, req.Username, req.Password)
	if err != nil {
		if s.logger != nil {
			s.logger.WithField("username", req.Username).WithError(err).Warn("auto-login after registration failed")
		}
		return &session.RegisterResult{User: *registered, Lifetimes: lifetimes}, nil
	}

	tokens := login.Tokens
	return &session.RegisterResult{User: login.User, Tokens: &tokens, Lifetimes: lifetimes}, nil
}

// ChangePassword re-verifies the current password with a login before issuing
// the update with the caller's access token.
func (s *SessionService) ChangePassword(ctx context.Context, req *session.ChangePasswordRequest, accessToken string) error {
	if req == nil || req.Username == "" || req.CurrentPassword == "" || req.NewPassword == "" {
		return apperr.Validation("Username, current password, and new password are required")
	}

	verified, err := s.origin.Login(ctx, req.Username, req.CurrentPassword)
	if err != nil {
		if apperr.IsTransient(err) {
			return err
		}
		return apperr.Unauthorized("Current password is incorrect")
	}
	if accessToken == "" {
		return apperr.Unauthorized("Not authenticated")
	}

	if err := s.origin.UpdatePassword(ctx, accessToken, verified.User.ID, req.NewPassword); err != nil {
		var oe *apperr.OriginError
		if !errors.As(err, &oe) && s.logger != nil {
			s.logger.WithField("user_id", verified.User.ID).WithError(err).Error("password update failed")
		}
		return err
	}
	return nil
}
