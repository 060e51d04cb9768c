package wordpress

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/avatarctic/headless-gateway/internal/core/domain/apperr"
	"github.com/avatarctic/headless-gateway/internal/core/domain/graphql"
	"github.com/avatarctic/headless-gateway/internal/core/ports"
	"github.com/sirupsen/logrus"
)

// WooSessionHeader carries the WooCommerce guest session token.
const WooSessionHeader = "woocommerce-session"

const maxResponseBytes = 10 << 20

// Client talks to the WPGraphQL endpoint. It implements both ports.GraphQLOrigin
// and ports.AuthOrigin.
type Client struct {
	endpoint string
	http     *http.Client
	logger   *logrus.Logger
}

// NewClient builds a client. A nil httpClient gets one with the given timeout.
func NewClient(endpoint string, httpClient *http.Client, timeout time.Duration, logger *logrus.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{endpoint: endpoint, http: httpClient, logger: logger}
}

// Configured reports whether an endpoint was set.
func (c *Client) Configured() bool {
	return c.endpoint != ""
}

// Forward implements ports.GraphQLOrigin.
func (c *Client) Forward(ctx context.Context, req ports.OriginRequest) (*ports.OriginResponse, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("graphql endpoint: %w", apperr.ErrNotConfigured)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(req.Body))
	if err != nil {
		return nil, fmt.Errorf("failed to build origin request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if req.Authorization != "" {
		httpReq.Header.Set("Authorization", req.Authorization)
	}
	if req.WooSession != "" {
		httpReq.Header.Set(WooSessionHeader, req.WooSession)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, apperr.Unavailable("origin request failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, apperr.Unavailable("failed to read origin response: %v", err)
	}

	out := &ports.OriginResponse{
		StatusCode: resp.StatusCode,
		Body:       body,
		WooSession: resp.Header.Get(WooSessionHeader),
	}
	if err := json.Unmarshal(body, &out.Envelope); err != nil {
		return nil, apperr.Unavailable("origin returned %d with undecodable body: %v", resp.StatusCode, err)
	}
	return out, nil
}

// Ping implements ports.GraphQLOrigin. Any non-2xx status counts as unreachable.
func (c *Client) Ping(ctx context.Context) error {
	body, _ := json.Marshal(graphql.Request{Query: pingQuery})
	resp, err := c.Forward(ctx, ports.OriginRequest{Body: body})
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apperr.Unavailable("origin answered %d", resp.StatusCode)
	}
	return nil
}

// do runs a typed operation and decodes data into out. Server errors are
// treated as availability failures; GraphQL errors become *apperr.OriginError.
func (c *Client) do(ctx context.Context, query string, variables map[string]any, accessToken, fallback string, out any) error {
	body, err := json.Marshal(graphql.Request{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", graphql.OperationName(query), err)
	}

	req := ports.OriginRequest{Body: body}
	if accessToken != "" {
		req.Authorization = "Bearer " + accessToken
	}
	resp, err := c.Forward(ctx, req)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 500 {
		return apperr.Unavailable("origin answered %d", resp.StatusCode)
	}
	if resp.Envelope.HasErrors() {
		if c.logger != nil {
			c.logger.WithFields(logrus.Fields{
				"operation": graphql.OperationName(query),
				"error":     resp.Envelope.FirstError(),
			}).Debug("origin returned graphql errors")
		}
		return apperr.NewOriginError(resp.Envelope.FirstError(), fallback)
	}
	if out == nil || len(resp.Envelope.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Envelope.Data, out); err != nil {
		return apperr.Unavailable("failed to decode %s data: %v", graphql.OperationName(query), err)
	}
	return nil
}
