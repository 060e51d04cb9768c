package repositories

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const rateLimitPrefix = "ratelimit"

// Prune, count, conditionally add and refresh the TTL in one round trip so two
// instances cannot both take the last slot. Scores are unix microseconds.
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local max = tonumber(ARGV[3])
redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local added = 0
if redis.call('ZCARD', key) < max then
  redis.call('ZADD', key, now, ARGV[4])
  added = 1
end
redis.call('PEXPIRE', key, math.ceil(window / 1000))
local out = redis.call('ZRANGE', key, 0, -1, 'WITHSCORES')
table.insert(out, 1, added)
return out
`)

// RateLimitRedisRepository keeps the sliding log in a Redis sorted set per key,
// so every gateway instance draws from the same budget. When Redis cannot be
// reached it degrades to the process-local store.
type RateLimitRedisRepository struct {
	r        redis.Cmdable
	prefix   string
	timeout  time.Duration
	fallback *RateLimitMemoryRepository
	logger   *logrus.Logger
}

func NewRateLimitRedisRepository(r redis.Cmdable, prefix string, logger *logrus.Logger) *RateLimitRedisRepository {
	if prefix == "" {
		prefix = rateLimitPrefix
	} else {
		prefix = prefix + ":" + rateLimitPrefix
	}
	return &RateLimitRedisRepository{
		r:        r,
		prefix:   prefix,
		timeout:  500 * time.Millisecond,
		fallback: NewRateLimitMemoryRepository(),
		logger:   logger,
	}
}

// Record implements ports.RateLimitStore.
func (repo *RateLimitRedisRepository) Record(key string, now time.Time, window time.Duration, max int) ([]time.Time, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), repo.timeout)
	defer cancel()

	ts, appended, err := repo.record(ctx, key, now, window, max)
	if err != nil {
		if repo.logger != nil {
			repo.logger.WithError(err).WithField("key", key).Warn("redis rate limit store unavailable; using local store")
		}
		return repo.fallback.Record(key, now, window, max)
	}
	return ts, appended
}

func (repo *RateLimitRedisRepository) record(ctx context.Context, key string, now time.Time, window time.Duration, max int) ([]time.Time, bool, error) {
	res, err := slidingWindowScript.Run(ctx, repo.r,
		[]string{repo.prefix + ":" + key},
		now.UnixMicro(), window.Microseconds(), max, uuid.NewString(),
	).Slice()
	if err != nil {
		return nil, false, err
	}
	if len(res) == 0 {
		return nil, false, fmt.Errorf("empty rate limit script reply")
	}

	added, _ := res[0].(int64)
	var out []time.Time
	// remaining entries are member, score pairs
	for i := 2; i < len(res); i += 2 {
		s, ok := res[i].(string)
		if !ok {
			continue
		}
		micros, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, false, fmt.Errorf("bad rate limit score %q: %w", s, err)
		}
		out = append(out, time.UnixMicro(int64(micros)))
	}
	return out, added == 1, nil
}

// Sweep implements ports.RateLimitStore. Redis keys expire on their own; only
// the local fallback needs sweeping.
func (repo *RateLimitRedisRepository) Sweep(now time.Time, maxAge time.Duration) int {
	return repo.fallback.Sweep(now, maxAge)
}

// Len implements ports.RateLimitStore and reports keys held by the local fallback.
func (repo *RateLimitRedisRepository) Len() int {
	return repo.fallback.Len()
}
