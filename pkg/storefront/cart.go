package storefront

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// DefaultCartDedupe is how long a fetched cart is reused before the next read
// goes back to the origin.
const DefaultCartDedupe = time.Second

// CartStore holds one session's cart. Reads are deduplicated; every mutation
// replaces the cart with the origin's answer.
type CartStore struct {
	fetcher Fetcher
	orders  *OrderStore
	dedupe  time.Duration
	now     func() time.Time
	logger  *logrus.Logger

	mu        sync.Mutex
	cart      *Cart
	fetchedAt time.Time
	group     singleflight.Group
}

type CartOption func(*CartStore)

func WithCartDedupe(d time.Duration) CartOption {
	return func(s *CartStore) { s.dedupe = d }
}

func WithOrderStore(o *OrderStore) CartOption {
	return func(s *CartStore) { s.orders = o }
}

func WithCartClock(now func() time.Time) CartOption {
	return func(s *CartStore) { s.now = now }
}

func WithCartLogger(l *logrus.Logger) CartOption {
	return func(s *CartStore) { s.logger = l }
}

func NewCartStore(fetcher Fetcher, opts ...CartOption) *CartStore {
	s := &CartStore{
		fetcher: fetcher,
		dedupe:  DefaultCartDedupe,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.orders == nil {
		s.orders = NewOrderStore(0)
	}
	return s
}

// Cart returns the current cart, fetching it when nothing recent is held.
// Concurrent reads share one fetch.
func (s *CartStore) Cart(ctx context.Context) (*Cart, error) {
	s.mu.Lock()
	if s.cart != nil && s.now().Sub(s.fetchedAt) < s.dedupe {
		c := s.cart.Clone()
		s.mu.Unlock()
		return c, nil
	}
	s.mu.Unlock()

	v, err, _ := s.group.Do("cart", func() (any, error) {
		var out struct {
			Cart *Cart `json:"cart"`
		}
		if err := s.fetcher.Do(ctx, getCartQuery, nil, &out); err != nil {
			return nil, err
		}
		if out.Cart == nil {
			out.Cart = &Cart{}
		}
		s.replace(out.Cart)
		return out.Cart, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Cart).Clone(), nil
}

// Snapshot returns a copy of the held cart without fetching; nil before the first read.
func (s *CartStore) Snapshot() *Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Clone()
}

func (s *CartStore) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cart == nil {
		return 0
	}
	return s.cart.Contents.ItemCount
}

// Invalidate forces the next Cart call to refetch.
func (s *CartStore) Invalidate() {
	s.mu.Lock()
	s.fetchedAt = time.Time{}
	s.mu.Unlock()
}

func (s *CartStore) AddItem(ctx context.Context, productID, quantity, variationID int) (*Cart, error) {
	if quantity <= 0 {
		quantity = 1
	}
	vars := map[string]any{"productId": productID, "quantity": quantity}
	if variationID > 0 {
		vars["variationId"] = variationID
	}
	return s.mutate(ctx, addToCartMutation, vars, "addToCart")
}

func (s *CartStore) UpdateQuantity(ctx context.Context, key string, quantity int) (*Cart, error) {
	items := []map[string]any{{"key": key, "quantity": quantity}}
	return s.mutate(ctx, updateQuantitiesMutation, map[string]any{"items": items}, "updateItemQuantities")
}

// RemoveItem drops the line from the held cart immediately and confirms with
// the origin in the background. On failure the cart is restored to exactly
// what it was before the call. The returned channel yields the outcome once.
func (s *CartStore) RemoveItem(ctx context.Context, key string) <-chan error {
	done := make(chan error, 1)

	s.mu.Lock()
	snapshot := s.cart.Clone()
	if s.cart != nil {
		s.cart = withoutItem(s.cart, key)
	}
	s.mu.Unlock()

	go func() {
		_, err := s.mutate(ctx, removeItemsMutation, map[string]any{"keys": []string{key}}, "removeItemsFromCart")
		if err != nil {
			s.mu.Lock()
			s.cart = snapshot
			s.mu.Unlock()
			if s.logger != nil {
				s.logger.WithField("key", key).WithError(err).Warn("cart item removal failed; restored previous cart")
			}
		}
		done <- err
	}()
	return done
}

func withoutItem(c *Cart, key string) *Cart {
	out := c.Clone()
	nodes := out.Contents.Nodes[:0]
	for _, item := range out.Contents.Nodes {
		if item.Key == key {
			out.Contents.ItemCount -= item.Quantity
			continue
		}
		nodes = append(nodes, item)
	}
	out.Contents.Nodes = nodes
	if out.Contents.ItemCount < 0 {
		out.Contents.ItemCount = 0
	}
	return out
}

// Clear removes every line. An empty or never-fetched cart is left alone.
func (s *CartStore) Clear(ctx context.Context) (*Cart, error) {
	s.mu.Lock()
	var keys []string
	if s.cart != nil {
		for _, item := range s.cart.Contents.Nodes {
			keys = append(keys, item.Key)
		}
	}
	current := s.cart.Clone()
	s.mu.Unlock()

	if len(keys) == 0 {
		return current, nil
	}
	return s.mutate(ctx, removeItemsMutation, map[string]any{"keys": keys}, "removeItemsFromCart")
}

func (s *CartStore) ApplyCoupon(ctx context.Context, code string) (*Cart, error) {
	return s.mutate(ctx, applyCouponMutation, map[string]any{"code": code}, "applyCoupon")
}

func (s *CartStore) RemoveCoupon(ctx context.Context, code string) (*Cart, error) {
	return s.mutate(ctx, removeCouponsMutation, map[string]any{"codes": []string{code}}, "removeCoupons")
}

func (s *CartStore) UpdateShippingMethod(ctx context.Context, rateID string) (*Cart, error) {
	return s.mutate(ctx, updateShippingMethodMutation, map[string]any{"shippingMethods": []string{rateID}}, "updateShippingMethod")
}

// mutate runs a cart mutation whose payload sits under field and replaces the
// held cart with the returned one.
func (s *CartStore) mutate(ctx context.Context, query string, vars map[string]any, field string) (*Cart, error) {
	var out map[string]json.RawMessage
	if err := s.fetcher.Do(ctx, query, vars, &out); err != nil {
		return nil, err
	}
	var payload struct {
		Cart *Cart `json:"cart"`
	}
	if raw, ok := out[field]; ok && len(raw) > 0 {
		if err := json.Unmarshal(raw, &payload); err != nil {
			return nil, err
		}
	}
	if payload.Cart == nil {
		// nothing to replace with; next read refetches
		s.Invalidate()
		return s.Snapshot(), nil
	}
	s.replace(payload.Cart)
	return payload.Cart.Clone(), nil
}

func (s *CartStore) replace(c *Cart) {
	s.mu.Lock()
	s.cart = c.Clone()
	s.fetchedAt = s.now()
	s.mu.Unlock()
}
