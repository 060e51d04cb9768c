package httpserver

import (
	"net"
	"strings"
	"time"

	"github.com/avatarctic/headless-gateway/internal/core/domain/ratelimit"
	"github.com/avatarctic/headless-gateway/internal/core/ports"
	customMiddleware "github.com/avatarctic/headless-gateway/internal/infrastructure/httpserver/middleware"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

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
	ImageDomains   []string
	// TrustedProxies are the CIDRs whose X-Forwarded-For is believed. Empty
	// means clients connect directly and the socket address is used.
	TrustedProxies []string
	// OriginConfigured is false when no GraphQL endpoint was set.
	OriginConfigured bool
}

// AuthRateLimits holds one rule per auth endpoint.
type AuthRateLimits struct {
	Login    ratelimit.Rule
	Register ratelimit.Rule
	Password ratelimit.Rule
	Session  ratelimit.Rule
	Logout   ratelimit.Rule
}

// DefaultAuthRateLimits returns the built-in rules.
func DefaultAuthRateLimits() AuthRateLimits {
	return AuthRateLimits{
		Login:    ratelimit.LoginRule,
		Register: ratelimit.RegisterRule,
		Password: ratelimit.PasswordRule,
		Session:  ratelimit.SessionRule,
		Logout:   ratelimit.LogoutRule,
	}
}

type ServerDeps struct {
	GraphQLProxy        ports.GraphQLProxyService
	SessionService      ports.SessionService
	RateLimiterService  ports.RateLimiterService
	RevalidationService ports.RevalidationService
	RenderTracker       ports.RenderTracker
	RateLimits          AuthRateLimits
	HealthCheckers      []ports.HealthChecker
}

type Server struct {
	echo           *echo.Echo
	config         *ServerConfig
	logger         *logrus.Logger
	proxy          ports.GraphQLProxyService
	sessionSvc     ports.SessionService
	revalidateSvc  ports.RevalidationService
	renders        ports.RenderTracker
	limits         AuthRateLimits
	middleware     *customMiddleware.MiddlewareCollection
	healthCheckers []ports.HealthChecker
}

func NewServer(serverConfig *ServerConfig, logger *logrus.Logger, deps ServerDeps) *Server {
	e := echo.New()
	e.HideBanner = true
	e.IPExtractor = ipExtractor(serverConfig.TrustedProxies, logger)

	limits := deps.RateLimits
	if limits == (AuthRateLimits{}) {
		limits = DefaultAuthRateLimits()
	}

	server := &Server{
		echo:           e,
		config:         serverConfig,
		logger:         logger,
		proxy:          deps.GraphQLProxy,
		sessionSvc:     deps.SessionService,
		revalidateSvc:  deps.RevalidationService,
		renders:        deps.RenderTracker,
		limits:         limits,
		healthCheckers: deps.HealthCheckers,
		middleware: customMiddleware.NewMiddlewareCollection(
			deps.RateLimiterService,
			serverConfig.ImageDomains,
			logger,
			GetRequestsTotal(),
			GetRequestDuration(),
			GetRateLimitRejections(),
		),
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

func (s *Server) secureCookies() bool {
	return s.config.Environment == "production"
}

// ipExtractor trusts exactly the configured proxy ranges. Without any, the
// forwarded headers are ignored so clients cannot pick their own identity.
func ipExtractor(proxies []string, logger *logrus.Logger) echo.IPExtractor {
	var opts []echo.TrustOption
	for _, p := range proxies {
		ipNet, err := parseProxy(p)
		if err != nil {
			if logger != nil {
				logger.WithField("proxy", p).WithError(err).Warn("ignoring invalid trusted proxy")
			}
			continue
		}
		opts = append(opts, echo.TrustIPRange(ipNet))
	}
	if len(opts) == 0 {
		return echo.ExtractIPDirect()
	}
	opts = append(opts, echo.TrustLoopback(false), echo.TrustLinkLocal(false), echo.TrustPrivateNet(false))
	return echo.ExtractIPFromXFFHeader(opts...)
}

func parseProxy(p string) (*net.IPNet, error) {
	if !strings.Contains(p, "/") {
		ip := net.ParseIP(p)
		if ip == nil {
			return nil, &net.ParseError{Type: "IP address", Text: p}
		}
		bits := 128
		if ip.To4() != nil {
			ip, bits = ip.To4(), 32
		}
		return &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)}, nil
	}
	_, ipNet, err := net.ParseCIDR(p)
	return ipNet, err
}
