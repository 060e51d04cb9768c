package storefront_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/avatarctic/headless-gateway/pkg/storefront"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_ReplaysWooSession(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/graphql", r.URL.Path)
		mu.Lock()
		seen = append(seen, r.Header.Get(storefront.WooSessionHeader))
		mu.Unlock()
		w.Header().Set(storefront.WooSessionHeader, "guest-1")
		_, _ = w.Write([]byte(`{"data":{"cart":{"total":"$0.00"}}}`))
	}))
	defer srv.Close()

	c, err := storefront.NewClient(srv.URL + "/")
	require.NoError(t, err)
	assert.NotEmpty(t, c.SessionID())

	var out struct {
		Cart struct {
			Total string `json:"total"`
		} `json:"cart"`
	}
	require.NoError(t, c.Do(context.Background(), "query GetCart { cart { total } }", nil, &out))
	require.NoError(t, c.Do(context.Background(), "query GetCart { cart { total } }", nil, &out))
	assert.Equal(t, "$0.00", out.Cart.Total)
	assert.Equal(t, []string{"", "guest-1"}, seen)
}

func TestClient_GraphQLErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"errors":[{"message":"Coupon \"X\" does not exist!"}]}`))
	}))
	defer srv.Close()

	c, err := storefront.NewClient(srv.URL)
	require.NoError(t, err)
	err = c.Do(context.Background(), "mutation ApplyCoupon { a }", nil, nil)
	var ge *storefront.GraphQLError
	require.True(t, errors.As(err, &ge))
	assert.Equal(t, `Coupon "X" does not exist!`, ge.Message)
}

func TestClient_ServerErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c, err := storefront.NewClient(srv.URL)
	require.NoError(t, err)
	assert.True(t, errors.Is(c.Do(context.Background(), "{ a }", nil, nil), storefront.ErrUnavailable))
}

func TestSessionKeeper_KeepsUserOnUnavailable(t *testing.T) {
	var mu sync.Mutex
	status := http.StatusOK
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		code := status
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		if code != http.StatusOK {
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "Session check failed"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"user":              map[string]any{"id": "u1", "name": "Ada"},
			"authTokenLifetime": 900,
		})
	}))
	defer srv.Close()

	c, err := storefront.NewClient(srv.URL)
	require.NoError(t, err)
	k := storefront.NewSessionKeeper(c, nil)

	u, err := k.Check(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Ada", u.Name)
	assert.Equal(t, 675*time.Second, k.NextCheck())

	mu.Lock()
	status = http.StatusServiceUnavailable
	mu.Unlock()

	u, err = k.Check(context.Background())
	assert.True(t, errors.Is(err, storefront.ErrSessionCheckFailed))
	require.NotNil(t, u)
	assert.Equal(t, "Ada", k.User().Name)
}

func TestSessionKeeper_LoginRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"incorrect_password"}`))
	}))
	defer srv.Close()

	c, err := storefront.NewClient(srv.URL)
	require.NoError(t, err)
	_, err = storefront.NewSessionKeeper(c, nil).Login(context.Background(), "ada", "bad")
	var ae *storefront.AuthError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, http.StatusUnauthorized, ae.Status)
	assert.Equal(t, "incorrect_password", ae.Message)
}
