package ports

import (
	"context"
	"time"

	"github.com/avatarctic/headless-gateway/internal/core/domain/graphql"
)

// CacheStatus is reported in the X-Cache header.
type CacheStatus string

const (
	CacheHit    CacheStatus = "HIT"
	CacheMiss   CacheStatus = "MISS"
	CacheBypass CacheStatus = "BYPASS"
)

// ProxyRequest is a decoded client GraphQL request plus forwarding metadata.
type ProxyRequest struct {
	Body          []byte
	GraphQL       graphql.Request
	Authorization string
	WooSession    string
}

// ProxyResult is what the handler writes back.
type ProxyResult struct {
	Body          []byte
	StatusCode    int
	Status        CacheStatus
	Cacheable     bool
	TTL           time.Duration
	OperationName string
	WooSession    string
}

// GraphQLProxyService serves GraphQL requests through the response cache.
type GraphQLProxyService interface {
	Execute(ctx context.Context, req *ProxyRequest) (*ProxyResult, error)
}
