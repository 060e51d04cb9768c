package services_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	impl "github.com/avatarctic/headless-gateway/internal/application/services"
	"github.com/avatarctic/headless-gateway/internal/core/domain/apperr"
	"github.com/avatarctic/headless-gateway/internal/core/domain/session"
	"github.com/avatarctic/headless-gateway/test/mocks"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var viewer = &session.User{ID: "dXNlcjox", DatabaseID: 1, Name: "Ada", Email: "ada@example.com"}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(exp)}).SignedString([]byte("k"))
	require.NoError(t, err)
	return tok
}

func TestSession_ValidAccessToken(t *testing.T) {
	origin := &mocks.AuthOriginMock{ViewerFn: func(ctx context.Context, tok string) (*session.User, error) {
		assert.Equal(t, "access", tok)
		return viewer, nil
	}}
	svc := impl.NewSessionService(origin, nil, nil)

	st, err := svc.Session(context.Background(), "access", "refresh")
	require.NoError(t, err)
	assert.Equal(t, session.Authenticated, st.State)
	assert.Equal(t, viewer, st.User)
	assert.Empty(t, st.RefreshedAccessToken)
	assert.False(t, st.ClearCookies)
}

func TestSession_TransientFailureKeepsCookies(t *testing.T) {
	origin := &mocks.AuthOriginMock{ViewerFn: func(ctx context.Context, tok string) (*session.User, error) {
		return nil, apperr.Unavailable("timeout")
	}}
	svc := impl.NewSessionService(origin, nil, nil)

	st, err := svc.Session(context.Background(), "access", "refresh")
	assert.Nil(t, st)
	assert.True(t, apperr.IsTransient(err))
}

func TestSession_RefreshesRejectedAccessToken(t *testing.T) {
	refreshed := false
	origin := &mocks.AuthOriginMock{
		ViewerFn: func(ctx context.Context, tok string) (*session.User, error) {
			if tok == "new-access" {
				return viewer, nil
			}
			return nil, apperr.NewOriginError("Internal server error", "")
		},
		RefreshTokenFn: func(ctx context.Context, rt string) (string, error) {
			refreshed = true
			assert.Equal(t, "refresh", rt)
			return "new-access", nil
		},
	}
	svc := impl.NewSessionService(origin, nil, nil)

	st, err := svc.Session(context.Background(), "old-access", "refresh")
	require.NoError(t, err)
	assert.True(t, refreshed)
	assert.Equal(t, session.Authenticated, st.State)
	assert.Equal(t, "new-access", st.RefreshedAccessToken)
}

func TestSession_ExpiredAccessTokenSkipsViewerProbe(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	var probed []string
	origin := &mocks.AuthOriginMock{
		ViewerFn: func(ctx context.Context, tok string) (*session.User, error) {
			probed = append(probed, tok)
			return viewer, nil
		},
		RefreshTokenFn: func(ctx context.Context, rt string) (string, error) { return "fresh", nil },
	}
	svc := impl.NewSessionService(origin, &impl.SessionConfig{Now: func() time.Time { return now }}, nil)

	st, err := svc.Session(context.Background(), signedToken(t, now.Add(-time.Minute)), "refresh")
	require.NoError(t, err)
	assert.Equal(t, []string{"fresh"}, probed)
	assert.Equal(t, "fresh", st.RefreshedAccessToken)
}

func TestSession_RejectedRefreshClearsCookies(t *testing.T) {
	origin := &mocks.AuthOriginMock{
		ViewerFn: func(ctx context.Context, tok string) (*session.User, error) {
			return nil, apperr.NewOriginError("invalid token", "")
		},
		RefreshTokenFn: func(ctx context.Context, rt string) (string, error) {
			return "", apperr.NewOriginError("The provided refresh token is invalid", "")
		},
	}
	svc := impl.NewSessionService(origin, nil, nil)

	st, err := svc.Session(context.Background(), "access", "refresh")
	require.NoError(t, err)
	assert.Equal(t, session.Anonymous, st.State)
	assert.True(t, st.ClearCookies)
}

func TestSession_TransientRefreshFailureIsNotALogout(t *testing.T) {
	origin := &mocks.AuthOriginMock{
		RefreshTokenFn: func(ctx context.Context, rt string) (string, error) {
			return "", apperr.Unavailable("503 from origin")
		},
	}
	svc := impl.NewSessionService(origin, nil, nil)

	_, err := svc.Session(context.Background(), "", "refresh")
	assert.True(t, apperr.IsTransient(err))
}

func TestSession_NoTokensIsAnonymous(t *testing.T) {
	svc := impl.NewSessionService(&mocks.AuthOriginMock{}, nil, nil)

	st, err := svc.Session(context.Background(), "", "")
	require.NoError(t, err)
	assert.Equal(t, session.Anonymous, st.State)
	assert.False(t, st.ClearCookies)
}

func TestSession_UnconfiguredOriginDoesNotClear(t *testing.T) {
	notConfigured := func() error { return fmt.Errorf("GRAPHQL_ENDPOINT: %w", apperr.ErrNotConfigured) }
	origin := &mocks.AuthOriginMock{
		ViewerFn:       func(ctx context.Context, tok string) (*session.User, error) { return nil, notConfigured() },
		RefreshTokenFn: func(ctx context.Context, rt string) (string, error) { return "", notConfigured() },
	}
	svc := impl.NewSessionService(origin, nil, nil)

	st, err := svc.Session(context.Background(), "a", "r")
	require.NoError(t, err)
	assert.False(t, st.ClearCookies)
}

func TestTokenLifetimes_UsesOriginAndFallsBack(t *testing.T) {
	calls := 0
	origin := &mocks.AuthOriginMock{TokenLifetimesFn: func(ctx context.Context) (*session.Lifetimes, error) {
		calls++
		if calls == 1 {
			return nil, apperr.Unavailable("down")
		}
		return &session.Lifetimes{Auth: 15 * time.Minute}, nil
	}}
	svc := impl.NewSessionService(origin, nil, nil)
	ctx := context.Background()

	assert.Equal(t, session.DefaultLifetimes(), svc.TokenLifetimes(ctx))

	lt := svc.TokenLifetimes(ctx)
	assert.Equal(t, 15*time.Minute, lt.Auth)
	assert.Equal(t, session.DefaultRefreshTokenLifetime, lt.Refresh)

	svc.TokenLifetimes(ctx)
	assert.Equal(t, 2, calls, "successful lookups are memoised")
}

func TestLogin_RequiresCredentials(t *testing.T) {
	svc := impl.NewSessionService(&mocks.AuthOriginMock{}, nil, nil)
	_, err := svc.Login(context.Background(), &session.LoginRequest{Username: "ada"})
	assert.True(t, errors.Is(err, apperr.ErrValidation))
	assert.Equal(t, "Username and password are required", err.Error())
}

func TestRegister_LoginFailureStillReturnsUser(t *testing.T) {
	origin := &mocks.AuthOriginMock{
		RegisterUserFn: func(ctx context.Context, u, e, p string) (*session.User, error) { return viewer, nil },
		LoginFn: func(ctx context.Context, u, p string) (*session.LoginResult, error) {
			return nil, apperr.NewOriginError("nope", "Login failed")
		},
	}
	svc := impl.NewSessionService(origin, nil, nil)

	res, err := svc.Register(context.Background(), &session.RegisterRequest{Username: "ada", Email: "ada@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, *viewer, res.User)
	assert.Nil(t, res.Tokens)
}

func TestChangePassword_WrongCurrentPassword(t *testing.T) {
	origin := &mocks.AuthOriginMock{LoginFn: func(ctx context.Context, u, p string) (*session.LoginResult, error) {
		return nil, apperr.NewOriginError("incorrect_password", "Login failed")
	}}
	svc := impl.NewSessionService(origin, nil, nil)

	err := svc.ChangePassword(context.Background(), &session.ChangePasswordRequest{Username: "ada", CurrentPassword: "x", NewPassword: "y"}, "tok")
	assert.True(t, errors.Is(err, apperr.ErrUnauthorized))
	assert.Equal(t, "Current password is incorrect", err.Error())
}

func TestChangePassword_UpdatesWithAccessToken(t *testing.T) {
	var gotToken, gotUser string
	origin := &mocks.AuthOriginMock{
		LoginFn: func(ctx context.Context, u, p string) (*session.LoginResult, error) {
			return &session.LoginResult{User: *viewer}, nil
		},
		UpdatePasswordFn: func(ctx context.Context, tok, userID, pw string) error {
			gotToken, gotUser = tok, userID
			return nil
		},
	}
	svc := impl.NewSessionService(origin, nil, nil)

	err := svc.ChangePassword(context.Background(), &session.ChangePasswordRequest{Username: "ada", CurrentPassword: "x", NewPassword: "y"}, "tok")
	require.NoError(t, err)
	assert.Equal(t, "tok", gotToken)
	assert.Equal(t, viewer.ID, gotUser)
}
