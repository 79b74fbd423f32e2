package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPRequestSize     *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// Business metrics
	LeadsCreated       *prometheus.CounterVec
	MessagesDispatched *prometheus.CounterVec
	AICalls            *prometheus.CounterVec
	IntegrationTests   *prometheus.CounterVec
	CheckoutSessions   *prometheus.CounterVec
	InboundWebhooks    *prometheus.CounterVec
	UsersRegistered    prometheus.Counter
	LoginAttempts      *prometheus.CounterVec
	ExportsCreated     *prometheus.CounterVec

	// Database metrics
	DBConnections prometheus.Gauge

	// Cache metrics
	CacheHits   *prometheus.CounterVec
	CacheMisses *prometheus.CounterVec
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// Default returns the process-wide metrics, registering them on first use
func Default() *Metrics {
	defaultOnce.Do(func() {
		defaultMetrics = newMetrics(prometheus.DefaultRegisterer)
	})
	return defaultMetrics
}

// NewWithRegistry registers a fresh set of metrics on reg. Used by tests.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	return newMetrics(reg)
}

func newMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	sizeBuckets := []float64{100, 1000, 5000, 10000, 50000, 100000, 500000, 1000000}

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: sizeBuckets,
			},
			[]string{"method", "path"},
		),
		HTTPResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: sizeBuckets,
			},
			[]string{"method", "path"},
		),

		LeadsCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "levrix_leads_created_total",
				Help: "Leads created, by source",
			},
			[]string{"source"}, // Facebook, Google, Manual, Referral
		),
		MessagesDispatched: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "levrix_messages_total",
				Help: "Outreach messages, by channel and resulting status",
			},
			[]string{"channel", "status"},
		),
		AICalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "levrix_ai_calls_total",
				Help: "Generative AI calls, by feature and outcome",
			},
			[]string{"feature", "outcome"}, // ok, fallback
		),
		IntegrationTests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "levrix_integration_tests_total",
				Help: "Integration credential checks, by service and result",
			},
			[]string{"service", "result"},
		),
		CheckoutSessions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "levrix_checkout_sessions_total",
				Help: "Checkout sessions created, by plan",
			},
			[]string{"plan"},
		),
		InboundWebhooks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "levrix_inbound_webhooks_total",
				Help: "Inbound lead webhook calls, by result",
			},
			[]string{"result"}, // accepted, rejected
		),
		UsersRegistered: factory.NewCounter(prometheus.CounterOpts{
			Name: "users_registered_total",
			Help: "Total number of users registered",
		}),
		LoginAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "login_attempts_total",
				Help: "Total number of login attempts",
			},
			[]string{"status"},
		),
		ExportsCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "exports_created_total",
				Help: "Total number of exports created",
			},
			[]string{"format"},
		),

		DBConnections: factory.NewGauge(prometheus.GaugeOpts{
			Name: "db_connections_active",
			Help: "Number of open database connections",
		}),

		CacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_hits_total",
				Help: "Total number of cache hits",
			},
			[]string{"cache_type"}, // dashboard, report, insight
		),
		CacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_misses_total",
				Help: "Total number of cache misses",
			},
			[]string{"cache_type"},
		),
	}
}

// Middleware creates an Echo middleware for Prometheus metrics
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			path := c.Path() // route pattern, e.g. /api/v1/leads/:id

			if req.ContentLength > 0 {
				m.HTTPRequestSize.WithLabelValues(req.Method, path).Observe(float64(req.ContentLength))
			}

			err := next(c)

			status := strconv.Itoa(c.Response().Status)
			m.HTTPRequestsTotal.WithLabelValues(req.Method, path, status).Inc()
			m.HTTPRequestDuration.WithLabelValues(req.Method, path, status).Observe(time.Since(start).Seconds())
			m.HTTPResponseSize.WithLabelValues(req.Method, path).Observe(float64(c.Response().Size))

			return err
		}
	}
}

// UpdateDBConnections updates the open connections gauge
func (m *Metrics) UpdateDBConnections(count int) {
	m.DBConnections.Set(float64(count))
}

// RecordLeadCreated counts a new lead
func RecordLeadCreated(source string) {
	Default().LeadsCreated.WithLabelValues(source).Inc()
}

// RecordMessage counts one outreach attempt
func RecordMessage(channel, status string) {
	Default().MessagesDispatched.WithLabelValues(channel, status).Inc()
}

// RecordAICall counts an AI feature call. fallback is true when the local default was used.
func RecordAICall(feature string, fallback bool) {
	outcome := "ok"
	if fallback {
		outcome = "fallback"
	}
	Default().AICalls.WithLabelValues(feature, outcome).Inc()
}

// RecordIntegrationTest counts a credential check
func RecordIntegrationTest(service string, connected bool) {
	result := "failed"
	if connected {
		result = "connected"
	}
	Default().IntegrationTests.WithLabelValues(service, result).Inc()
}

// RecordCheckout counts a checkout session
func RecordCheckout(plan string) {
	Default().CheckoutSessions.WithLabelValues(plan).Inc()
}

// RecordInbound counts an inbound webhook call
func RecordInbound(accepted bool) {
	result := "rejected"
	if accepted {
		result = "accepted"
	}
	Default().InboundWebhooks.WithLabelValues(result).Inc()
}

// RecordUserRegistered counts a new account
func RecordUserRegistered() {
	Default().UsersRegistered.Inc()
}

// RecordLoginAttempt counts a login attempt
func RecordLoginAttempt(success bool) {
	status := "failed"
	if success {
		status = "success"
	}
	Default().LoginAttempts.WithLabelValues(status).Inc()
}

// RecordExport counts a lead export
func RecordExport(format string) {
	Default().ExportsCreated.WithLabelValues(format).Inc()
}

// RecordCacheHit increments cache hits counter
func RecordCacheHit(cacheType string) {
	Default().CacheHits.WithLabelValues(cacheType).Inc()
}

// RecordCacheMiss increments cache misses counter
func RecordCacheMiss(cacheType string) {
	Default().CacheMisses.WithLabelValues(cacheType).Inc()
}
