package session

import "time"

const (
	// AuthTokenCookie holds the short-lived access token.
	AuthTokenCookie = "auth_token"
	// RefreshTokenCookie holds the long-lived refresh token.
	RefreshTokenCookie = "refresh_token"

	DefaultAuthTokenLifetime    = time.Hour
	DefaultRefreshTokenLifetime = 30 * 24 * time.Hour

	// RefreshFraction is the share of the access token lifetime after which
	// clients should proactively re-check the session.
	RefreshFraction = 0.75
)

// User is the viewer profile returned by the CMS.
type User struct {
	ID          string `json:"id"`
	DatabaseID  int    `json:"databaseId"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	FirstName   string `json:"firstName,omitempty"`
	LastName    string `json:"lastName,omitempty"`
	Username    string `json:"username,omitempty"`
	Nickname    string `json:"nickname,omitempty"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`
	Avatar      *struct {
		URL string `json:"url"`
	} `json:"avatar,omitempty"`
}

// TokenPair is the credential pair minted by a successful login.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Lifetimes are the cookie max-ages for both tokens.
type Lifetimes struct {
	Auth    time.Duration
	Refresh time.Duration
}

// DefaultLifetimes returns the fallbacks used when the CMS cannot be asked.
func DefaultLifetimes() Lifetimes {
	return Lifetimes{Auth: DefaultAuthTokenLifetime, Refresh: DefaultRefreshTokenLifetime}
}

// RefreshAfter returns when a client should proactively re-check the session.
func (l Lifetimes) RefreshAfter() time.Duration {
	return time.Duration(float64(l.Auth) * RefreshFraction)
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	User      User
	Tokens    TokenPair
	Lifetimes Lifetimes
}

// RegisterResult is returned by a successful registration. Tokens is nil when
// the account was created but the follow-up login failed.
type RegisterResult struct {
	User      User
	Tokens    *TokenPair
	Lifetimes Lifetimes
}

// State enumerates the outcomes of a session check.
type State int

const (
	// Anonymous means there is no usable session. ClearCookies tells the
	// transport whether stored tokens were explicitly rejected.
	Anonymous State = iota
	// Authenticated means the viewer was resolved.
	Authenticated
)

// Status is the result of resolving the current session.
type Status struct {
	State State
	User  *User
	// RefreshedAccessToken is set when the access token was rotated during the check.
	RefreshedAccessToken string
	// ClearCookies is set only when the origin explicitly rejected the tokens.
	ClearCookies bool
	Lifetimes    Lifetimes
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterRequest is the body of POST /api/auth/register.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ChangePasswordRequest is the body of POST /api/auth/password.
type ChangePasswordRequest struct {
	Username        string `json:"username"`
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}
