package wordpress

import (
	"context"
	"time"

	"github.com/avatarctic/headless-gateway/internal/core/domain/apperr"
	"github.com/avatarctic/headless-gateway/internal/core/domain/session"
)

const userFields = `
  fragment UserFields on User {
    id
    databaseId
    name
    email
    firstName
    lastName
    username
    nickname
    description
    url
    avatar {
      url
    }
  }
`

const (
	pingQuery = `{ generalSettings { title } }`

	loginMutation = userFields + `
  mutation LoginUser($username: String!, $password: String!) {
    login(input: {
      provider: PASSWORD
      credentials: { username: $username, password: $password }
    }) {
      authToken
      refreshToken
      user {
        ...UserFields
      }
    }
  }
`

	refreshTokenMutation = `
  mutation RefreshToken($refreshToken: String!) {
    refreshToken(input: { jwtRefreshToken: $refreshToken }) {
      authToken
    }
  }
`

	viewerQuery = userFields + `
  query GetViewer {
    viewer {
      ...UserFields
    }
  }
`

	registerUserMutation = userFields + `
  mutation RegisterUser($username: String!, $email: String!, $password: String!) {
    registerUser(input: { username: $username, email: $email, password: $password }) {
      user {
        ...UserFields
      }
    }
  }
`

	updatePasswordMutation = `
  mutation UpdateUserPassword($id: ID!, $password: String!) {
    updateUser(input: { id: $id, password: $password }) {
      user {
        id
      }
    }
  }
`

	tokenLifetimesQuery = `
  query GetTokenLifetimes {
    headlessConfig {
      authTokenLifetime
      refreshTokenLifetime
    }
  }
`
)

// Login implements ports.AuthOrigin. Lifetimes are left zero; the session
// manager fills them from its own memoised settings.
func (c *Client) Login(ctx context.Context, username, password string) (*session.LoginResult, error) {
	var data struct {
		Login *struct {
			AuthToken    string       `json:"authToken"`
			RefreshToken string       `json:"refreshToken"`
			User         session.User `json:"user"`
		} `json:"login"`
	}
	vars := map[string]any{"username": username, "password": password}
	if err := c.do(ctx, loginMutation, vars, "", "Login failed", &data); err != nil {
		return nil, err
	}
	if data.Login == nil || data.Login.AuthToken == "" {
		return nil, apperr.NewOriginError("", "Login failed")
	}
	return &session.LoginResult{
		User: data.Login.User,
		Tokens: session.TokenPair{
			AccessToken:  data.Login.AuthToken,
			RefreshToken: data.Login.RefreshToken,
		},
	}, nil
}

// RefreshToken implements ports.AuthOrigin.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (string, error) {
	var data struct {
		RefreshToken *struct {
			AuthToken string `json:"authToken"`
		} `json:"refreshToken"`
	}
	vars := map[string]any{"refreshToken": refreshToken}
	if err := c.do(ctx, refreshTokenMutation, vars, "", "Token refresh failed", &data); err != nil {
		return "", err
	}
	if data.RefreshToken == nil || data.RefreshToken.AuthToken == "" {
		return "", apperr.NewOriginError("", "Token refresh failed")
	}
	return data.RefreshToken.AuthToken, nil
}

// Viewer implements ports.AuthOrigin. A null viewer means the token was not
// accepted and is reported as ErrUnauthorized.
func (c *Client) Viewer(ctx context.Context, accessToken string) (*session.User, error) {
	var data struct {
		Viewer *session.User `json:"viewer"`
	}
	if err := c.do(ctx, viewerQuery, nil, accessToken, "Not authenticated", &data); err != nil {
		return nil, err
	}
	if data.Viewer == nil {
		return nil, apperr.Unauthorized("Not authenticated")
	}
	return data.Viewer, nil
}

// RegisterUser implements ports.AuthOrigin.
func (c *Client) RegisterUser(ctx context.Context, username, email, password string) (*session.User, error) {
	var data struct {
		RegisterUser *struct {
			User session.User `json:"user"`
		} `json:"registerUser"`
	}
	vars := map[string]any{"username": username, "email": email, "password": password}
	if err := c.do(ctx, registerUserMutation, vars, "", "Registration failed", &data); err != nil {
		return nil, err
	}
	if data.RegisterUser == nil {
		return nil, apperr.NewOriginError("", "Registration failed")
	}
	return &data.RegisterUser.User, nil
}

// UpdatePassword implements ports.AuthOrigin.
func (c *Client) UpdatePassword(ctx context.Context, accessToken, userID, password string) error {
	vars := map[string]any{"id": userID, "password": password}
	return c.do(ctx, updatePasswordMutation, vars, accessToken, "Failed to update password", nil)
}

// TokenLifetimes implements ports.AuthOrigin. Unset values come back as zero.
func (c *Client) TokenLifetimes(ctx context.Context) (*session.Lifetimes, error) {
	var data struct {
		HeadlessConfig *struct {
			AuthTokenLifetime    int `json:"authTokenLifetime"`
			RefreshTokenLifetime int `json:"refreshTokenLifetime"`
		} `json:"headlessConfig"`
	}
	if err := c.do(ctx, tokenLifetimesQuery, nil, "", "Failed to read settings", &data); err != nil {
		return nil, err
	}
	out := &session.Lifetimes{}
	if cfg := data.HeadlessConfig; cfg != nil {
		out.Auth = time.Duration(cfg.AuthTokenLifetime) * time.Second
		out.Refresh = time.Duration(cfg.RefreshTokenLifetime) * time.Second
	}
	return out, nil
}
