package services

import (
	"context"
	"errors"

	"github.com/avatarctic/headless-gateway/internal/core/domain/apperr"
	"github.com/avatarctic/headless-gateway/internal/core/domain/session"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

// Session resolves the viewer behind the cookies. An explicit rejection of the
// access token triggers exactly one refresh; only an explicit rejection of the
// refresh token (or of the freshly minted access token) clears the session.
// Availability failures are returned unchanged so callers can answer 503.
func (s *SessionService) Session(ctx context.Context, accessToken, refreshToken string) (*session.Status, error) {
	lifetimes := s.TokenLifetimes(ctx)

	if accessToken != "" && !s.expired(accessToken) {
		user, err := s.origin.Viewer(ctx, accessToken)
		if err == nil {
			return &session.Status{State: session.Authenticated, User: user, Lifetimes: lifetimes}, nil
		}
		if apperr.IsTransient(err) {
			return nil, err
		}
		if errors.Is(err, apperr.ErrNotConfigured) {
			return &session.Status{State: session.Anonymous, Lifetimes: lifetimes}, nil
		}
	}

	if refreshToken == "" {
		// nothing to refresh with; a rejected access token is still dropped
		return &session.Status{State: session.Anonymous, ClearCookies: accessToken != "", Lifetimes: lifetimes}, nil
	}

	newAccess, err := s.origin.RefreshToken(ctx, refreshToken)
	if err != nil {
		if apperr.IsTransient(err) {
			return nil, err
		}
		if errors.Is(err, apperr.ErrNotConfigured) {
			return &session.Status{State: session.Anonymous, Lifetimes: lifetimes}, nil
		}
		if s.logger != nil {
			s.logger.WithError(err).Info("refresh token rejected; clearing session")
		}
		return &session.Status{State: session.Anonymous, ClearCookies: true, Lifetimes: lifetimes}, nil
	}

	user, err := s.origin.Viewer(ctx, newAccess)
	if err != nil {
		if apperr.IsTransient(err) {
			return nil, err
		}
		return &session.Status{State: session.Anonymous, ClearCookies: true, Lifetimes: lifetimes}, nil
	}
	return &session.Status{
		State:                session.Authenticated,
		User:                 user,
		RefreshedAccessToken: newAccess,
		Lifetimes:            lifetimes,
	}, nil
}

// expired peeks at the exp claim without verifying the signature; the origin
// stays the authority. Opaque tokens are never considered expired here.
func (s *SessionService) expired(token string) bool {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	return claims.ExpiresAt != nil && !claims.ExpiresAt.Time.After(s.now())
}

// TokenLifetimes returns the CMS-configured cookie lifetimes, memoised for the
// configured TTL. Fetch failures fall back to the defaults and are not memoised.
func (s *SessionService) TokenLifetimes(ctx context.Context) session.Lifetimes {
	s.mu.Lock()
	if !s.fetchedAt.IsZero() && s.now().Sub(s.fetchedAt) < s.cacheTTL {
		lt := s.lifetimes
		s.mu.Unlock()
		return lt
	}
	s.mu.Unlock()

	v, err, _ := s.group.Do("lifetimes", func() (any, error) {
		got, err := s.origin.TokenLifetimes(ctx)
		if err != nil {
			return nil, err
		}
		lt := s.fallback
		if got.Auth > 0 {
			lt.Auth = got.Auth
		}
		if got.Refresh > 0 {
			lt.Refresh = got.Refresh
		}
		s.mu.Lock()
		s.lifetimes = lt
		s.fetchedAt = s.now()
		s.mu.Unlock()
		return lt, nil
	})
	if err != nil {
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{"auth": s.fallback.Auth, "refresh": s.fallback.Refresh}).WithError(err).Debug("using fallback token lifetimes")
		}
		return s.fallback
	}
	return v.(session.Lifetimes)
}
