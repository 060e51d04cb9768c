package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/avatarctic/headless-gateway/configs"
	"github.com/avatarctic/headless-gateway/internal/application/services"
	"github.com/avatarctic/headless-gateway/internal/core/domain/cachepolicy"
	"github.com/avatarctic/headless-gateway/internal/core/domain/ratelimit"
	"github.com/avatarctic/headless-gateway/internal/core/domain/session"
	"github.com/avatarctic/headless-gateway/internal/core/ports"
	"github.com/avatarctic/headless-gateway/internal/infrastructure/health"
	"github.com/avatarctic/headless-gateway/internal/infrastructure/httpserver"
	"github.com/avatarctic/headless-gateway/internal/infrastructure/memcache"
	"github.com/avatarctic/headless-gateway/internal/infrastructure/redis"
	"github.com/avatarctic/headless-gateway/internal/infrastructure/render"
	"github.com/avatarctic/headless-gateway/internal/infrastructure/repositories"
	"github.com/avatarctic/headless-gateway/internal/infrastructure/wordpress"
	goredis "github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	logger := newLogger(&cfg.Log)
	logger.Info("Starting headless storefront gateway...")

	origin := wordpress.NewClient(cfg.Origin.GraphQLEndpoint, nil, cfg.Origin.Timeout, logger)
	if !origin.Configured() {
		logger.Warn("GRAPHQL_ENDPOINT is not set")
	}

	hcSlice := []ports.HealthChecker{health.NewOriginHealthChecker(origin, cfg.Origin.HealthTimeout)}

	// Response cache: Redis when configured and reachable, otherwise in-process.
	var cache ports.Cache
	var redisClient goredis.Cmdable
	if cfg.Redis.URL != "" {
		client, err := redis.NewRedisClient(&cfg.Redis)
		if err != nil {
			logger.WithError(err).Warn("Redis unavailable; using in-process response cache")
		} else {
			defer client.Close()
			logger.Info("Connected to Redis successfully")
			redisClient = client
			cache = redis.NewRedisCache(client, cfg.Redis.KeyPrefix)
			hcSlice = append(hcSlice, health.NewRedisHealthChecker(client))
		}
	}
	if cache == nil {
		cache = memcache.MustNewLRU(cfg.Cache.Size)
	}

	renders, err := render.NewRegistry(cfg.Frontend.RenderCacheSize, cfg.Frontend.ISRRevalidate)
	if err != nil {
		logger.Fatal("Failed to create render registry:", err)
	}

	proxyService := services.NewGraphQLProxyService(origin, cache, cachepolicy.Default(), logger)
	sessionService := services.NewSessionService(origin, &services.SessionConfig{
		Fallback: session.Lifetimes{
			Auth:    cfg.Auth.AuthTokenLifetime,
			Refresh: cfg.Auth.RefreshTokenLifetime,
		},
		LifetimesCacheTTL: cfg.Auth.LifetimesCacheTTL,
	}, logger)
	revalidationService := services.NewRevalidationService(cfg.Frontend.RevalidateSecret, renders, logger)

	limits := httpserver.AuthRateLimits{
		Login:    toRule("login", cfg.RateLimits.Login),
		Register: toRule("register", cfg.RateLimits.Register),
		Password: toRule("password", cfg.RateLimits.Password),
		Session:  toRule("session", cfg.RateLimits.Session),
		Logout:   toRule("logout", cfg.RateLimits.Logout),
	}
	rateLimiterConfig := &services.RateLimiterConfig{
		SweepInterval: cfg.RateLimits.SweepInterval,
		MaxWindow:     maxWindow(limits),
	}
	var rateLimitStore ports.RateLimitStore = repositories.NewRateLimitMemoryRepository()
	if cfg.RateLimits.Store == "redis" {
		if redisClient != nil {
			rateLimitStore = repositories.NewRateLimitRedisRepository(redisClient, cfg.Redis.KeyPrefix, logger)
		} else {
			logger.Warn("RATELIMIT_STORE=redis but Redis is unavailable; limits are per instance")
		}
	}
	rateLimiterService := services.NewRateLimiterService(rateLimitStore, rateLimiterConfig, logger)

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	rateLimiterService.StartSweeper(sweepCtx, rateLimiterConfig)

	serverConfig := &httpserver.ServerConfig{
		Host:             cfg.Server.Host,
		Port:             cfg.Server.Port,
		ReadTimeout:      cfg.Server.ReadTimeout,
		WriteTimeout:     cfg.Server.WriteTimeout,
		IdleTimeout:      cfg.Server.IdleTimeout,
		TLSCertFile:      cfg.Server.TLSCertFile,
		TLSKeyFile:       cfg.Server.TLSKeyFile,
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		Environment:      cfg.Server.Environment,
		TrustedProxies:   cfg.Server.TrustedProxies,
		ImageDomains:     cfg.Frontend.ImageDomains,
		OriginConfigured: origin.Configured(),
	}

	deps := httpserver.ServerDeps{
		GraphQLProxy:        proxyService,
		SessionService:      sessionService,
		RateLimiterService:  rateLimiterService,
		RevalidationService: revalidationService,
		RenderTracker:       renders,
		RateLimits:          limits,
		HealthCheckers:      hcSlice,
	}

	server := httpserver.NewServer(serverConfig, logger, deps)

	// Start server in a goroutine
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server:", err)
		}
	}()

	logger.Infof("Server started on %s:%s", cfg.Server.Host, cfg.Server.Port)

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown:", err)
	}

	logger.Info("Server exited")
}

func newLogger(cfg *config.LogConfig) *logrus.Logger {
	logger := logrus.New()
	if cfg.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(level)
	}
	return logger
}

func toRule(name string, r config.RateLimitRule) ratelimit.Rule {
	return ratelimit.Rule{Name: name, MaxRequests: r.Requests, Window: r.Window}
}

// maxWindow is the sweep retention: no timestamp older than the largest window can matter.
func maxWindow(l httpserver.AuthRateLimits) time.Duration {
	longest := time.Duration(0)
	for _, r := range []ratelimit.Rule{l.Login, l.Register, l.Password, l.Session, l.Logout} {
		if r.Window > longest {
			longest = r.Window
		}
	}
	return longest
}
