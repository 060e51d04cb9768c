package services

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/avatarctic/headless-gateway/internal/core/domain/cachepolicy"
	"github.com/avatarctic/headless-gateway/internal/core/domain/graphql"
	"github.com/avatarctic/headless-gateway/internal/core/ports"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// GraphQLProxyService forwards GraphQL requests to the origin, serving
// cacheable reads from the response cache.
type GraphQLProxyService struct {
	origin ports.GraphQLOrigin
	cache  ports.Cache
	policy *cachepolicy.Policy
	group  singleflight.Group
	logger *logrus.Logger
}

// NewGraphQLProxyService builds the proxy. cache may be nil, in which case every
// request is a BYPASS.
func NewGraphQLProxyService(origin ports.GraphQLOrigin, cache ports.Cache, policy *cachepolicy.Policy, logger *logrus.Logger) ports.GraphQLProxyService {
	if policy == nil {
		policy = cachepolicy.Default()
	}
	return &GraphQLProxyService{origin: origin, cache: cache, policy: policy, logger: logger}
}

func (s *GraphQLProxyService) Execute(ctx context.Context, req *ports.ProxyRequest) (*ports.ProxyResult, error) {
	query := req.GraphQL.Query
	op := graphql.OperationName(query)
	result := &ports.ProxyResult{
		OperationName: op,
		TTL:           s.policy.TTL(op),
		Cacheable:     s.policy.ShouldCache(query, req.Authorization),
		Status:        ports.CacheBypass,
	}

	if !result.Cacheable || s.cache == nil {
		resp, err := s.origin.Forward(ctx, ports.OriginRequest{
			Body:          req.Body,
			Authorization: req.Authorization,
			WooSession:    req.WooSession,
		})
		if err != nil {
			return nil, err
		}
		result.Body = resp.Body
		result.StatusCode = resp.StatusCode
		result.WooSession = resp.WooSession
		return result, nil
	}

	key := s.policy.Key(query, req.GraphQL.Variables)
	if body, ok := s.lookup(ctx, key, op); ok {
		result.Body = body
		result.StatusCode = http.StatusOK
		result.Status = ports.CacheHit
		return result, nil
	}

	// Concurrent misses for the same key share one origin round trip.
	v, err, _ := s.group.Do(key, func() (any, error) {
		resp, err := s.origin.Forward(context.WithoutCancel(ctx), ports.OriginRequest{Body: req.Body})
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices && !resp.Envelope.HasErrors() {
			s.store(ctx, key, op, resp.Body, result.TTL)
		}
		return resp, nil
	})
	if err != nil {
		return nil, err
	}
	resp, ok := v.(*ports.OriginResponse)
	if !ok {
		return nil, fmt.Errorf("unexpected type from singleflight result")
	}

	result.Body = resp.Body
	result.StatusCode = resp.StatusCode
	result.Status = ports.CacheMiss
	return result, nil
}

func (s *GraphQLProxyService) lookup(ctx context.Context, key, op string) ([]byte, bool) {
	body, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{"operation": op, "cache_key": key}).WithError(err).Warn("response cache get failed")
		}
		return nil, false
	}
	return body, ok
}

func (s *GraphQLProxyService) store(ctx context.Context, key, op string, body []byte, ttl time.Duration) {
	if err := s.cache.Set(context.WithoutCancel(ctx), key, body, ttl); err != nil {
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{"operation": op, "cache_key": key}).WithError(err).Warn("response cache set failed")
		}
	}
}
