package ports

import (
	"context"

	"github.com/avatarctic/headless-gateway/internal/core/domain/session"
)

// SessionService defines the token lifecycle operations behind the auth endpoints.
type SessionService interface {
	Login(ctx context.Context, req *session.LoginRequest) (*session.LoginResult, error)
	Register(ctx context.Context, req *session.RegisterRequest) (*session.RegisterResult, error)
	// Session resolves the viewer for the given cookies, refreshing once if needed.
	// A transient origin failure returns an error wrapping apperr.ErrUnavailable and
	// must not be treated as a logout.
	Session(ctx context.Context, accessToken, refreshToken string) (*session.Status, error)
	ChangePassword(ctx context.Context, req *session.ChangePasswordRequest, accessToken string) error
	TokenLifetimes(ctx context.Context) session.Lifetimes
}
