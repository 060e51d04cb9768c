package storefront_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/avatarctic/headless-gateway/pkg/storefront"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fetcherMock struct {
	DoFn func(ctx context.Context, query string, variables map[string]any) (string, error)

	mu    sync.Mutex
	calls int
}

func (m *fetcherMock) Do(ctx context.Context, query string, variables map[string]any, out any) error {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	data, err := m.DoFn(ctx, query, variables)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(data), out)
}

func (m *fetcherMock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

const twoItemCart = `{"cart":{
  "contents":{"nodes":[
    {"key":"a","quantity":2,"total":"$20.00","product":{"node":{"id":"p1","databaseId":1,"name":"Mug","slug":"mug"}}},
    {"key":"b","quantity":1,"total":"$5.00","product":{"node":{"id":"p2","databaseId":2,"name":"Cap","slug":"cap"}}}
  ],"itemCount":3},
  "subtotal":"$25.00","total":"$25.00","needsShippingAddress":true,
  "appliedCoupons":[{"code":"TEN","discountAmount":"$0.00"}]
}}`

func loadedStore(t *testing.T, f *fetcherMock) *storefront.CartStore {
	t.Helper()
	s := storefront.NewCartStore(f)
	_, err := s.Cart(context.Background())
	require.NoError(t, err)
	return s
}

func TestCart_DedupesReads(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	f := &fetcherMock{DoFn: func(ctx context.Context, q string, v map[string]any) (string, error) { return twoItemCart, nil }}
	s := storefront.NewCartStore(f, storefront.WithCartClock(func() time.Time { return now }))
	ctx := context.Background()

	c, err := s.Cart(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, c.Contents.ItemCount)

	now = now.Add(500 * time.Millisecond)
	_, err = s.Cart(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, f.Calls())

	now = now.Add(time.Second)
	_, err = s.Cart(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, f.Calls())
}

func TestRemoveItem_OptimisticThenConfirmed(t *testing.T) {
	release := make(chan struct{})
	f := &fetcherMock{DoFn: func(ctx context.Context, q string, v map[string]any) (string, error) {
		if v == nil {
			return twoItemCart, nil
		}
		<-release
		return `{"removeItemsFromCart":{"cart":{"contents":{"nodes":[{"key":"b","quantity":1}],"itemCount":1},"total":"$5.00"}}}`, nil
	}}
	s := loadedStore(t, f)

	done := s.RemoveItem(context.Background(), "a")
	assert.Equal(t, 1, s.ItemCount(), "removal is visible before the origin answers")
	_, found := s.Snapshot().Item("a")
	assert.False(t, found)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, "$5.00", s.Snapshot().Total)
}

func TestRemoveItem_RollsBackToSnapshot(t *testing.T) {
	f := &fetcherMock{DoFn: func(ctx context.Context, q string, v map[string]any) (string, error) {
		if v == nil {
			return twoItemCart, nil
		}
		return "", errors.New("origin down")
	}}
	s := loadedStore(t, f)
	before := s.Snapshot()

	err := <-s.RemoveItem(context.Background(), "a")
	require.Error(t, err)
	assert.Equal(t, before, s.Snapshot())
}

func TestClear_NoopOnEmptyCart(t *testing.T) {
	f := &fetcherMock{DoFn: func(ctx context.Context, q string, v map[string]any) (string, error) {
		return `{"cart":{"contents":{"nodes":[],"itemCount":0}}}`, nil
	}}
	s := loadedStore(t, f)

	_, err := s.Clear(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, f.Calls())

	never := storefront.NewCartStore(f)
	c, err := never.Clear(context.Background())
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestClear_RemovesEveryKey(t *testing.T) {
	var keys []string
	f := &fetcherMock{DoFn: func(ctx context.Context, q string, v map[string]any) (string, error) {
		if v == nil {
			return twoItemCart, nil
		}
		keys = v["keys"].([]string)
		return `{"removeItemsFromCart":{"cart":{"contents":{"nodes":[],"itemCount":0}}}}`, nil
	}}
	s := loadedStore(t, f)

	c, err := s.Clear(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, keys)
	assert.Equal(t, 0, c.Contents.ItemCount)
}

func TestMutationsReplaceCart(t *testing.T) {
	var vars map[string]any
	f := &fetcherMock{DoFn: func(ctx context.Context, q string, v map[string]any) (string, error) {
		vars = v
		return `{"addToCart":{"cart":{"contents":{"nodes":[],"itemCount":4},"total":"$40.00"}}}`, nil
	}}
	s := storefront.NewCartStore(f)

	c, err := s.AddItem(context.Background(), 10, 0, 11)
	require.NoError(t, err)
	assert.Equal(t, 4, c.Contents.ItemCount)
	assert.Equal(t, 4, s.ItemCount())
	assert.Equal(t, map[string]any{"productId": 10, "quantity": 1, "variationId": 11}, vars)
}

func TestCartClone_IsDeep(t *testing.T) {
	f := &fetcherMock{DoFn: func(ctx context.Context, q string, v map[string]any) (string, error) { return twoItemCart, nil }}
	s := loadedStore(t, f)

	c := s.Snapshot()
	c.Contents.Nodes[0].Quantity = 99
	c.AppliedCoupons[0].Code = "X"

	again := s.Snapshot()
	assert.Equal(t, 2, again.Contents.Nodes[0].Quantity)
	assert.Equal(t, "TEN", again.AppliedCoupons[0].Code)
}

func TestMutationVariables(t *testing.T) {
	var got []map[string]any
	f := &fetcherMock{DoFn: func(ctx context.Context, q string, v map[string]any) (string, error) {
		got = append(got, v)
		return `{}`, nil
	}}
	orders := storefront.NewOrderStore(4)
	s := storefront.NewCartStore(f, storefront.WithCartDedupe(time.Minute), storefront.WithOrderStore(orders), storefront.WithCartLogger(nil))
	ctx := context.Background()

	_, err := s.UpdateQuantity(ctx, "a", 3)
	require.NoError(t, err)
	_, err = s.ApplyCoupon(ctx, "TEN")
	require.NoError(t, err)
	_, err = s.RemoveCoupon(ctx, "TEN")
	require.NoError(t, err)
	_, err = s.UpdateShippingMethod(ctx, "flat_rate:1")
	require.NoError(t, err)

	assert.Equal(t, []map[string]any{
		{"items": []map[string]any{{"key": "a", "quantity": 3}}},
		{"code": "TEN"},
		{"codes": []string{"TEN"}},
		{"shippingMethods": []string{"flat_rate:1"}},
	}, got)
}
