// Package storefront is the client side of the gateway: a GraphQL fetcher that
// keeps the guest cart session, the cart/checkout state machine, variation
// matching and the session keeper that refreshes ahead of token expiry.
package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// WooSessionHeader carries the WooCommerce guest session token.
const WooSessionHeader = "woocommerce-session"

// ErrUnavailable is returned when the gateway could not be reached or
// answered with a server error.
var ErrUnavailable = errors.New("storefront: gateway unavailable")

// GraphQLError carries the first GraphQL error message.
type GraphQLError struct {
	Message string
}

func (e *GraphQLError) Error() string { return e.Message }

// Fetcher runs a GraphQL operation and decodes its data into out.
type Fetcher interface {
	Do(ctx context.Context, query string, variables map[string]any, out any) error
}

// Client talks to the gateway. Cookies (auth tokens) live in its jar and the
// guest session header is replayed on every request.
type Client struct {
	baseURL   string
	http      *http.Client
	sessionID string
	logger    *logrus.Logger

	mu         sync.Mutex
	wooSession string
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client. Its Jar should be set for auth cookies to persist.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithLogger sets a logger; the client is silent without one.
func WithLogger(l *logrus.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient builds a client for the gateway at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      &http.Client{Jar: jar, Timeout: 15 * time.Second},
		sessionID: uuid.NewString(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// SessionID identifies this client instance; stores keyed per session use it.
func (c *Client) SessionID() string {
	return c.sessionID
}

type gqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type gqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// Do implements Fetcher against POST /api/graphql.
func (c *Client) Do(ctx context.Context, query string, variables map[string]any, out any) error {
	body, err := json.Marshal(gqlRequest{Query: query, Variables: variables})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/graphql", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	c.mu.Lock()
	if c.wooSession != "" {
		req.Header.Set(WooSessionHeader, c.wooSession)
	}
	c.mu.Unlock()

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if s := resp.Header.Get(WooSessionHeader); s != "" {
		c.mu.Lock()
		c.wooSession = s
		c.mu.Unlock()
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	var env gqlResponse
	if err := json.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode >= http.StatusInternalServerError {
			return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
		}
		return fmt.Errorf("storefront: undecodable response (status %d): %w", resp.StatusCode, err)
	}
	if len(env.Errors) > 0 {
		if c.logger != nil {
			c.logger.WithFields(logrus.Fields{"session": c.sessionID, "error": env.Errors[0].Message}).Debug("graphql error")
		}
		return &GraphQLError{Message: env.Errors[0].Message}
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}

// restJSON posts (or gets, when in is nil and method is GET) a JSON endpoint
// and decodes the reply into out. It returns the HTTP status.
func (c *Client) restJSON(ctx context.Context, method, path string, in, out any) (int, error) {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return 0, err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
			return resp.StatusCode, fmt.Errorf("storefront: undecodable response (status %d): %w", resp.StatusCode, err)
		}
	}
	return resp.StatusCode, nil
}
