package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	impl "github.com/avatarctic/headless-gateway/internal/application/services"
	"github.com/avatarctic/headless-gateway/internal/core/domain/apperr"
	"github.com/avatarctic/headless-gateway/internal/core/domain/cachepolicy"
	"github.com/avatarctic/headless-gateway/internal/core/domain/graphql"
	"github.com/avatarctic/headless-gateway/internal/core/ports"
	"github.com/avatarctic/headless-gateway/internal/infrastructure/memcache"
	"github.com/avatarctic/headless-gateway/test/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const productsQuery = `query GetProducts($first: Int) { products(first: $first) { nodes { id } } }`

func proxyRequest(query, auth string, vars map[string]any) *ports.ProxyRequest {
	return &ports.ProxyRequest{
		Body:          []byte(`{"query":"x"}`),
		GraphQL:       graphql.Request{Query: query, Variables: vars},
		Authorization: auth,
	}
}

func TestProxy_MissThenHitThenExpiry(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	cache := memcache.MustNewLRU(16, memcache.WithClock(func() time.Time { return now }))
	origin := &mocks.GraphQLOriginMock{ForwardFn: func(ctx context.Context, req ports.OriginRequest) (*ports.OriginResponse, error) {
		return mocks.OKResponse(`{"data":{"products":{"nodes":[]}}}`), nil
	}}
	svc := impl.NewGraphQLProxyService(origin, cache, cachepolicy.Default(), nil)
	ctx := context.Background()
	vars := map[string]any{"first": 10}

	res, err := svc.Execute(ctx, proxyRequest(productsQuery, "", vars))
	require.NoError(t, err)
	assert.Equal(t, ports.CacheMiss, res.Status)
	assert.Equal(t, 120*time.Second, res.TTL)
	assert.Equal(t, "GetProducts", res.OperationName)

	res, err = svc.Execute(ctx, proxyRequest(productsQuery, "", vars))
	require.NoError(t, err)
	assert.Equal(t, ports.CacheHit, res.Status)
	assert.Equal(t, `{"data":{"products":{"nodes":[]}}}`, string(res.Body))
	assert.Equal(t, 1, origin.ForwardCount())

	now = now.Add(121 * time.Second)
	res, err = svc.Execute(ctx, proxyRequest(productsQuery, "", vars))
	require.NoError(t, err)
	assert.Equal(t, ports.CacheMiss, res.Status)
	assert.Equal(t, 2, origin.ForwardCount())
}

func TestProxy_NeverCachesBearerOrMutations(t *testing.T) {
	cache := &mocks.CacheMock{}
	var forwarded []ports.OriginRequest
	origin := &mocks.GraphQLOriginMock{ForwardFn: func(ctx context.Context, req ports.OriginRequest) (*ports.OriginResponse, error) {
		forwarded = append(forwarded, req)
		return &ports.OriginResponse{StatusCode: 200, Body: []byte(`{"data":{}}`), WooSession: "woo-2"}, nil
	}}
	svc := impl.NewGraphQLProxyService(origin, cache, nil, nil)
	ctx := context.Background()

	req := proxyRequest(productsQuery, "Bearer tok", nil)
	req.WooSession = "woo-1"
	for i := 0; i < 2; i++ {
		res, err := svc.Execute(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, ports.CacheBypass, res.Status)
		assert.False(t, res.Cacheable)
		assert.Equal(t, "woo-2", res.WooSession)
	}

	res, err := svc.Execute(ctx, proxyRequest(`mutation AddToCart { addToCart { cart { total } } }`, "", nil))
	require.NoError(t, err)
	assert.Equal(t, ports.CacheBypass, res.Status)

	assert.Equal(t, 0, cache.Len())
	require.Len(t, forwarded, 3)
	assert.Equal(t, "Bearer tok", forwarded[0].Authorization)
	assert.Equal(t, "woo-1", forwarded[0].WooSession)
}

func TestProxy_CacheFailuresFallBackToOrigin(t *testing.T) {
	cache := &mocks.CacheMock{
		GetFn: func(ctx context.Context, key string) ([]byte, bool, error) { return nil, false, errors.New("redis down") },
		SetFn: func(ctx context.Context, key string, value []byte, ttl time.Duration) error { return errors.New("redis down") },
	}
	origin := &mocks.GraphQLOriginMock{}
	svc := impl.NewGraphQLProxyService(origin, cache, nil, nil)

	res, err := svc.Execute(context.Background(), proxyRequest(productsQuery, "", nil))
	require.NoError(t, err)
	assert.Equal(t, ports.CacheMiss, res.Status)
	assert.Equal(t, 200, res.StatusCode)
}

func TestProxy_ErrorResponsesAreNotCached(t *testing.T) {
	cache := &mocks.CacheMock{}
	origin := &mocks.GraphQLOriginMock{ForwardFn: func(ctx context.Context, req ports.OriginRequest) (*ports.OriginResponse, error) {
		return mocks.ErrorResponse("boom"), nil
	}}
	svc := impl.NewGraphQLProxyService(origin, cache, nil, nil)

	res, err := svc.Execute(context.Background(), proxyRequest(productsQuery, "", nil))
	require.NoError(t, err)
	assert.Equal(t, ports.CacheMiss, res.Status)
	assert.Contains(t, string(res.Body), "boom")
	assert.Equal(t, 0, cache.Len())
}

func TestProxy_OriginUnavailable(t *testing.T) {
	origin := &mocks.GraphQLOriginMock{ForwardFn: func(ctx context.Context, req ports.OriginRequest) (*ports.OriginResponse, error) {
		return nil, apperr.Unavailable("dial tcp: refused")
	}}
	svc := impl.NewGraphQLProxyService(origin, &mocks.CacheMock{}, nil, nil)

	_, err := svc.Execute(context.Background(), proxyRequest(productsQuery, "", nil))
	assert.True(t, apperr.IsTransient(err))
}

func TestProxy_ConcurrentMissesShareOneOriginCall(t *testing.T) {
	release := make(chan struct{})
	origin := &mocks.GraphQLOriginMock{ForwardFn: func(ctx context.Context, req ports.OriginRequest) (*ports.OriginResponse, error) {
		<-release
		return mocks.OKResponse(`{"data":{}}`), nil
	}}
	svc := impl.NewGraphQLProxyService(origin, &mocks.CacheMock{}, nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Execute(context.Background(), proxyRequest(productsQuery, "", nil))
			assert.NoError(t, err)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, 1, origin.ForwardCount())
}
