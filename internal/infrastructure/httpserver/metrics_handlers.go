package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "The total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "http_request_duration_seconds",
			Help: "The HTTP request latencies in seconds",
		},
		[]string{"method", "endpoint"},
	)

	graphqlCacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "graphql_cache_lookups_total",
			Help: "GraphQL proxy requests by cache outcome",
		},
		[]string{"status"},
	)

	rateLimitRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ratelimit_rejections_total",
			Help: "Requests rejected by a rate limiter",
		},
		[]string{"limiter"},
	)

	revalidationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "revalidations_total",
			Help: "Accepted revalidation webhooks by scope",
		},
		[]string{"scope"},
	)
)

func init() {
	prometheus.MustRegister(requestsTotal)
	prometheus.MustRegister(requestDuration)
	prometheus.MustRegister(graphqlCacheLookups)
	prometheus.MustRegister(rateLimitRejections)
	prometheus.MustRegister(revalidationsTotal)
}

// GetRequestsTotal returns the requests total metric for middleware use
func GetRequestsTotal() *prometheus.CounterVec {
	return requestsTotal
}

// GetRequestDuration returns the request duration metric for middleware use
func GetRequestDuration() *prometheus.HistogramVec {
	return requestDuration
}

// GetRateLimitRejections returns the limiter rejection counter for middleware use
func GetRateLimitRejections() *prometheus.CounterVec {
	return rateLimitRejections
}

// LogMetricsInitialization logs that metrics have been initialized
func (s *Server) LogMetricsInitialization() {
	if s.logger != nil {
		s.logger.Info("Prometheus metrics initialized and registered")
		s.logger.WithFields(map[string]interface{}{
			"http_requests_total":         "Counter for HTTP requests by method, endpoint, status",
			"http_request_duration":       "Histogram for HTTP request duration by method, endpoint",
			"graphql_cache_lookups_total": "Counter for proxy requests by HIT, MISS, BYPASS",
			"ratelimit_rejections_total":  "Counter for 429 responses by limiter",
			"revalidations_total":         "Counter for accepted revalidation webhooks by scope",
			"metrics_endpoint":            "/metrics",
		}).Debug("Available Prometheus metrics")
	}
}

func (s *Server) metricsHandler() http.Handler {
	return promhttp.Handler()
}

func (s *Server) metricsEndpoint(c echo.Context) error {
	if s.logger != nil {
		s.logger.Debug("Serving Prometheus metrics")
	}
	s.metricsHandler().ServeHTTP(c.Response(), c.Request())
	return nil
}
