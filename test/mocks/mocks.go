package mocks

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/avatarctic/headless-gateway/internal/core/domain/graphql"
	"github.com/avatarctic/headless-gateway/internal/core/domain/ratelimit"
	"github.com/avatarctic/headless-gateway/internal/core/domain/revalidation"
	"github.com/avatarctic/headless-gateway/internal/core/domain/session"
	"github.com/avatarctic/headless-gateway/internal/core/ports"
)

// GraphQLOriginMock is a lightweight mock for ports.GraphQLOrigin.
type GraphQLOriginMock struct {
	ForwardFn func(ctx context.Context, req ports.OriginRequest) (*ports.OriginResponse, error)
	PingFn    func(ctx context.Context) error

	mu       sync.Mutex
	Forwards int
}

func (m *GraphQLOriginMock) Forward(ctx context.Context, req ports.OriginRequest) (*ports.OriginResponse, error) {
	m.mu.Lock()
	m.Forwards++
	m.mu.Unlock()
	if m.ForwardFn != nil {
		return m.ForwardFn(ctx, req)
	}
	return &ports.OriginResponse{StatusCode: 200, Body: []byte(`{"data":{}}`)}, nil
}

func (m *GraphQLOriginMock) Ping(ctx context.Context) error {
	if m.PingFn != nil {
		return m.PingFn(ctx)
	}
	return nil
}

// ForwardCount is safe to call while requests are in flight.
func (m *GraphQLOriginMock) ForwardCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Forwards
}

// OKResponse builds a 200 origin reply carrying body.
func OKResponse(body string) *ports.OriginResponse {
	return &ports.OriginResponse{StatusCode: 200, Body: []byte(body)}
}

// ErrorResponse builds a 200 origin reply whose envelope carries a GraphQL error.
func ErrorResponse(msg string) *ports.OriginResponse {
	return &ports.OriginResponse{
		StatusCode: 200,
		Body:       []byte(`{"errors":[{"message":"` + msg + `"}]}`),
		Envelope:   graphql.Response{Errors: []graphql.Error{{Message: msg}}},
	}
}

// AuthOriginMock is a lightweight mock for ports.AuthOrigin.
type AuthOriginMock struct {
	LoginFn          func(ctx context.Context, username, password string) (*session.LoginResult, error)
	RefreshTokenFn   func(ctx context.Context, refreshToken string) (string, error)
	ViewerFn         func(ctx context.Context, accessToken string) (*session.User, error)
	RegisterUserFn   func(ctx context.Context, username, email, password string) (*session.User, error)
	UpdatePasswordFn func(ctx context.Context, accessToken, userID, password string) error
	TokenLifetimesFn func(ctx context.Context) (*session.Lifetimes, error)
}

func (m *AuthOriginMock) Login(ctx context.Context, username, password string) (*session.LoginResult, error) {
	if m.LoginFn != nil {
		return m.LoginFn(ctx, username, password)
	}
	return nil, errors.New("not implemented")
}
func (m *AuthOriginMock) RefreshToken(ctx context.Context, refreshToken string) (string, error) {
	if m.RefreshTokenFn != nil {
		return m.RefreshTokenFn(ctx, refreshToken)
	}
	return "", errors.New("not implemented")
}
func (m *AuthOriginMock) Viewer(ctx context.Context, accessToken string) (*session.User, error) {
	if m.ViewerFn != nil {
		return m.ViewerFn(ctx, accessToken)
	}
	return nil, errors.New("not implemented")
}
func (m *AuthOriginMock) RegisterUser(ctx context.Context, username, email, password string) (*session.User, error) {
	if m.RegisterUserFn != nil {
		return m.RegisterUserFn(ctx, username, email, password)
	}
	return nil, errors.New("not implemented")
}
func (m *AuthOriginMock) UpdatePassword(ctx context.Context, accessToken, userID, password string) error {
	if m.UpdatePasswordFn != nil {
		return m.UpdatePasswordFn(ctx, accessToken, userID, password)
	}
	return nil
}
func (m *AuthOriginMock) TokenLifetimes(ctx context.Context) (*session.Lifetimes, error) {
	if m.TokenLifetimesFn != nil {
		return m.TokenLifetimesFn(ctx)
	}
	return &session.Lifetimes{}, nil
}

// SessionServiceMock is a lightweight mock for ports.SessionService.
type SessionServiceMock struct {
	LoginFn          func(ctx context.Context, req *session.LoginRequest) (*session.LoginResult, error)
	RegisterFn       func(ctx context.Context, req *session.RegisterRequest) (*session.RegisterResult, error)
	SessionFn        func(ctx context.Context, accessToken, refreshToken string) (*session.Status, error)
	ChangePasswordFn func(ctx context.Context, req *session.ChangePasswordRequest, accessToken string) error
}

func (m *SessionServiceMock) Login(ctx context.Context, req *session.LoginRequest) (*session.LoginResult, error) {
	if m.LoginFn != nil {
		return m.LoginFn(ctx, req)
	}
	return nil, errors.New("not implemented")
}
func (m *SessionServiceMock) Register(ctx context.Context, req *session.RegisterRequest) (*session.RegisterResult, error) {
	if m.RegisterFn != nil {
		return m.RegisterFn(ctx, req)
	}
	return nil, errors.New("not implemented")
}
func (m *SessionServiceMock) Session(ctx context.Context, accessToken, refreshToken string) (*session.Status, error) {
	if m.SessionFn != nil {
		return m.SessionFn(ctx, accessToken, refreshToken)
	}
	return &session.Status{State: session.Anonymous, Lifetimes: session.DefaultLifetimes()}, nil
}
func (m *SessionServiceMock) ChangePassword(ctx context.Context, req *session.ChangePasswordRequest, accessToken string) error {
	if m.ChangePasswordFn != nil {
		return m.ChangePasswordFn(ctx, req, accessToken)
	}
	return nil
}
func (m *SessionServiceMock) TokenLifetimes(ctx context.Context) session.Lifetimes {
	return session.DefaultLifetimes()
}

// GraphQLProxyMock is a lightweight mock for ports.GraphQLProxyService.
type GraphQLProxyMock struct {
	ExecuteFn func(ctx context.Context, req *ports.ProxyRequest) (*ports.ProxyResult, error)
}

func (m *GraphQLProxyMock) Execute(ctx context.Context, req *ports.ProxyRequest) (*ports.ProxyResult, error) {
	if m.ExecuteFn != nil {
		return m.ExecuteFn(ctx, req)
	}
	return &ports.ProxyResult{Body: []byte(`{"data":{}}`), StatusCode: 200, Status: ports.CacheBypass}, nil
}

// RateLimiterMock is a lightweight mock for ports.RateLimiterService.
type RateLimiterMock struct {
	CheckFn func(identity string, rule ratelimit.Rule) ratelimit.Result
}

func (m *RateLimiterMock) Check(identity string, rule ratelimit.Rule) ratelimit.Result {
	if m.CheckFn != nil {
		return m.CheckFn(identity, rule)
	}
	return ratelimit.Result{Allowed: true, Remaining: rule.MaxRequests - 1}
}

// RevalidationServiceMock is a lightweight mock for ports.RevalidationService.
type RevalidationServiceMock struct {
	AuthorizeFn  func(secret string) error
	RevalidateFn func(ctx context.Context, req *revalidation.Request) (*revalidation.Response, error)
}

func (m *RevalidationServiceMock) Authorize(secret string) error {
	if m.AuthorizeFn != nil {
		return m.AuthorizeFn(secret)
	}
	return nil
}
func (m *RevalidationServiceMock) Revalidate(ctx context.Context, req *revalidation.Request) (*revalidation.Response, error) {
	if m.RevalidateFn != nil {
		return m.RevalidateFn(ctx, req)
	}
	return &revalidation.Response{Revalidated: true, Paths: req.Paths}, nil
}

// RenderCacheMock records invalidations.
type RenderCacheMock struct {
	mu       sync.Mutex
	Paths    [][]string
	AllCalls int
	Err      error
}

func (m *RenderCacheMock) InvalidatePaths(ctx context.Context, paths []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Paths = append(m.Paths, paths)
	return m.Err
}
func (m *RenderCacheMock) InvalidateAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AllCalls++
	return m.Err
}

// CacheMock is a lightweight mock for ports.Cache backed by a map.
type CacheMock struct {
	GetFn func(ctx context.Context, key string) ([]byte, bool, error)
	SetFn func(ctx context.Context, key string, value []byte, ttl time.Duration) error

	mu   sync.Mutex
	Data map[string][]byte
}

func (m *CacheMock) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.Data[key]
	return v, ok, nil
}
func (m *CacheMock) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.SetFn != nil {
		return m.SetFn(ctx, key, value, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Data == nil {
		m.Data = map[string][]byte{}
	}
	m.Data[key] = value
	return nil
}

// Len reports stored entries.
func (m *CacheMock) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Data)
}

// HealthCheckerMock is a lightweight mock for ports.HealthChecker.
type HealthCheckerMock struct {
	NameValue     string
	CriticalValue bool
	CheckFn       func(ctx context.Context) error
}

func (m *HealthCheckerMock) Name() string   { return m.NameValue }
func (m *HealthCheckerMock) Critical() bool { return m.CriticalValue }
func (m *HealthCheckerMock) Check(ctx context.Context) error {
	if m.CheckFn != nil {
		return m.CheckFn(ctx)
	}
	return nil
}
