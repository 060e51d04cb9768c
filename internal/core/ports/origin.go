package ports

import (
	"context"

	"github.com/avatarctic/headless-gateway/internal/core/domain/graphql"
	"github.com/avatarctic/headless-gateway/internal/core/domain/session"
)

// OriginRequest is a GraphQL call forwarded to the CMS.
type OriginRequest struct {
	Body          []byte
	Authorization string
	// WooSession is the WooCommerce guest session token, forwarded both ways.
	WooSession string
}

// OriginResponse is the raw origin reply.
type OriginResponse struct {
	StatusCode int
	Body       []byte
	Envelope   graphql.Response
	WooSession string
}

// GraphQLOrigin forwards raw GraphQL requests to the CMS endpoint.
type GraphQLOrigin interface {
	// Forward posts body unchanged. Transport failures and undecodable replies
	// return an error wrapping apperr.ErrUnavailable.
	Forward(ctx context.Context, req OriginRequest) (*OriginResponse, error)
	// Ping runs a trivial query; used by the health check.
	Ping(ctx context.Context) error
}

// AuthOrigin exposes the typed CMS operations used by the session manager.
// GraphQL-level errors are returned as *apperr.OriginError; availability
// failures wrap apperr.ErrUnavailable.
type AuthOrigin interface {
	Login(ctx context.Context, username, password string) (*session.LoginResult, error)
	RefreshToken(ctx context.Context, refreshToken string) (string, error)
	Viewer(ctx context.Context, accessToken string) (*session.User, error)
	RegisterUser(ctx context.Context, username, email, password string) (*session.User, error)
	UpdatePassword(ctx context.Context, accessToken, userID, password string) error
	TokenLifetimes(ctx context.Context) (*session.Lifetimes, error)
}
