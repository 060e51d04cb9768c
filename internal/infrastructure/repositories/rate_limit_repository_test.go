package repositories_test

import (
	"testing"
	"time"

	"github.com/avatarctic/headless-gateway/internal/infrastructure/repositories"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepository_SlidingWindow(t *testing.T) {
	repo := repositories.NewRateLimitMemoryRepository()
	start := time.Unix(1_700_000_000, 0)

	for i := 0; i < 3; i++ {
		ts, ok := repo.Record("k", start.Add(time.Duration(i)*time.Second), 10*time.Second, 3)
		require.True(t, ok)
		assert.Len(t, ts, i+1)
	}
	ts, ok := repo.Record("k", start.Add(5*time.Second), 10*time.Second, 3)
	assert.False(t, ok)
	assert.Equal(t, start, ts[0])

	// the first timestamp leaves the window exactly at start+10s
	ts, ok = repo.Record("k", start.Add(10*time.Second), 10*time.Second, 3)
	assert.True(t, ok)
	assert.Len(t, ts, 3)
}

func TestMemoryRepository_ReturnsCopy(t *testing.T) {
	repo := repositories.NewRateLimitMemoryRepository()
	now := time.Unix(1_700_000_000, 0)
	ts, _ := repo.Record("k", now, time.Minute, 5)
	ts[0] = time.Time{}

	again, _ := repo.Record("k", now, time.Minute, 5)
	assert.Equal(t, now, again[0])
}

func TestMemoryRepository_Sweep(t *testing.T) {
	repo := repositories.NewRateLimitMemoryRepository()
	now := time.Unix(1_700_000_000, 0)
	repo.Record("old", now, time.Minute, 5)
	repo.Record("new", now.Add(90*time.Second), time.Minute, 5)

	assert.Equal(t, 1, repo.Sweep(now.Add(2*time.Minute), time.Minute))
	assert.Equal(t, 1, repo.Len())
}

func TestRedisRepository_FallsBackWhenUnreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	defer client.Close()
	repo := repositories.NewRateLimitRedisRepository(client, "test", nil)
	now := time.Unix(1_700_000_000, 0)

	_, ok := repo.Record("k", now, time.Minute, 1)
	assert.True(t, ok)
	_, ok = repo.Record("k", now.Add(time.Second), time.Minute, 1)
	assert.False(t, ok)
	assert.Equal(t, 1, repo.Len())
}
