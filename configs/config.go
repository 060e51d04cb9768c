package configs

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server     ServerConfig
	Origin     OriginConfig
	Frontend   FrontendConfig
	Auth       AuthConfig
	Redis      RedisConfig
	Cache      CacheConfig
	Log        LogConfig
	RateLimits RateLimitConfig
}

type ServerConfig struct {
	Host           string
	Port           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	TLSCertFile    string
	TLSKeyFile     string
	AllowedOrigins []string
	Environment    string
	// TrustedProxies lists the CIDRs (or bare IPs) allowed to set X-Forwarded-For.
	TrustedProxies []string
}

// OriginConfig points at the CMS GraphQL endpoint.
type OriginConfig struct {
	GraphQLEndpoint string
	Timeout         time.Duration
	HealthTimeout   time.Duration
}

// FrontendConfig covers the rendered site and its revalidation webhook.
type FrontendConfig struct {
	BaseURL          string
	RevalidateSecret string
	// ISRRevalidate is the default age after which a rendered page is stale.
	ISRRevalidate  time.Duration
	ImageDomains   []string
	WebhookTimeout time.Duration
	// RenderCacheSize bounds the number of rendered paths tracked for invalidation.
	RenderCacheSize int
}

// AuthConfig holds the fallback token lifetimes used when the CMS settings
// cannot be read.
type AuthConfig struct {
	AuthTokenLifetime    time.Duration
	RefreshTokenLifetime time.Duration
	LifetimesCacheTTL    time.Duration
}

type RedisConfig struct {
	// URL is optional; caching falls back to the in-process cache when empty.
	URL string
	// Pool and timeout settings
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolTimeout  time.Duration
	IdleTimeout  time.Duration
	KeyPrefix    string
}

// CacheConfig sizes the in-process response cache.
type CacheConfig struct {
	Size int
}

type LogConfig struct {
	Level  string
	Format string // json or text
}

// RateLimitConfig holds one rule per auth endpoint.
type RateLimitConfig struct {
	Login         RateLimitRule
	Register      RateLimitRule
	Password      RateLimitRule
	Session       RateLimitRule
	Logout        RateLimitRule
	SweepInterval time.Duration
	// Store is "memory" (default) or "redis"; redis shares budgets across instances.
	Store string
}

type RateLimitRule struct {
	Requests int
	Window   time.Duration
}

func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           getEnv("SERVER_PORT", "8080"),
			ReadTimeout:    getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:   getDurationEnv("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:    getDurationEnv("SERVER_IDLE_TIMEOUT", 120*time.Second),
			TLSCertFile:    getEnv("TLS_CERT_FILE", ""),
			TLSKeyFile:     getEnv("TLS_KEY_FILE", ""),
			AllowedOrigins: getListEnv("ALLOWED_ORIGINS", nil),
			Environment:    getEnv("APP_ENV", "development"),
			TrustedProxies: getListEnv("TRUSTED_PROXIES", nil),
		},
		Origin: OriginConfig{
			GraphQLEndpoint: getEnv("GRAPHQL_ENDPOINT", getEnv("NEXT_PUBLIC_GRAPHQL_ENDPOINT", "")),
			Timeout:         getDurationEnv("ORIGIN_TIMEOUT", 15*time.Second),
			HealthTimeout:   getDurationEnv("ORIGIN_HEALTH_TIMEOUT", 5*time.Second),
		},
		Frontend: FrontendConfig{
			BaseURL:          getEnv("FRONTEND_URL", getEnv("NEXT_PUBLIC_SITE_URL", "")),
			RevalidateSecret: getEnv("REVALIDATE_SECRET", ""),
			ISRRevalidate:    time.Duration(getIntEnv("ISR_REVALIDATE_SECONDS", 300)) * time.Second,
			ImageDomains:     getListEnv("IMAGE_DOMAINS", nil),
			WebhookTimeout:   getDurationEnv("REVALIDATE_WEBHOOK_TIMEOUT", 5*time.Second),
			RenderCacheSize:  getIntEnv("RENDER_CACHE_SIZE", 10000),
		},
		Auth: AuthConfig{
			AuthTokenLifetime:    time.Duration(getIntEnv("AUTH_TOKEN_LIFETIME", 3600)) * time.Second,
			RefreshTokenLifetime: time.Duration(getIntEnv("REFRESH_TOKEN_LIFETIME", 30*24*3600)) * time.Second,
			LifetimesCacheTTL:    getDurationEnv("TOKEN_LIFETIMES_CACHE_TTL", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL:          getEnv("REDIS_URL", ""),
			PoolSize:     getIntEnv("REDIS_POOL_SIZE", 10),
			MinIdleConns: getIntEnv("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDurationEnv("REDIS_DIAL_TIMEOUT", 2*time.Second),
			ReadTimeout:  getDurationEnv("REDIS_READ_TIMEOUT", time.Second),
			WriteTimeout: getDurationEnv("REDIS_WRITE_TIMEOUT", time.Second),
			PoolTimeout:  getDurationEnv("REDIS_POOL_TIMEOUT", 2*time.Second),
			IdleTimeout:  getDurationEnv("REDIS_IDLE_TIMEOUT", 5*time.Minute),
			KeyPrefix:    getEnv("REDIS_KEY_PREFIX", ""),
		},
		Cache: CacheConfig{
			Size: getIntEnv("RESPONSE_CACHE_SIZE", 5000),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		RateLimits: RateLimitConfig{
			Login:         getRuleEnv("LOGIN", 5, time.Minute),
			Register:      getRuleEnv("REGISTER", 3, time.Minute),
			Password:      getRuleEnv("PASSWORD", 5, time.Minute),
			Session:       getRuleEnv("SESSION", 60, time.Minute),
			Logout:        getRuleEnv("LOGOUT", 20, time.Minute),
			SweepInterval: getDurationEnv("RATELIMIT_SWEEP_INTERVAL", time.Minute),
			Store:         getEnv("RATELIMIT_STORE", "memory"),
		},
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// getRuleEnv reads RATELIMIT_<NAME>_REQUESTS and RATELIMIT_<NAME>_WINDOW_SEC.
func getRuleEnv(name string, requests int, window time.Duration) RateLimitRule {
	rule := RateLimitRule{Requests: requests, Window: window}
	if n := getIntEnv("RATELIMIT_"+name+"_REQUESTS", 0); n > 0 {
		rule.Requests = n
	}
	if secs := getIntEnv("RATELIMIT_"+name+"_WINDOW_SEC", 0); secs > 0 {
		rule.Window = time.Duration(secs) * time.Second
	}
	return rule
}
