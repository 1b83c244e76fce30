package hooks

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/creditgate/creditgate/pkg/defaults"
	"github.com/creditgate/creditgate/pkg/output/dispatcher"
	"github.com/creditgate/creditgate/pkg/output/events"
)

// Compile-time interface check.
var _ dispatcher.Hook = (*PrometheusHook)(nil)

// PrometheusHook exposes decision-run metrics for Prometheus scraping.
// It starts an HTTP server that serves metrics at the configured path.
// Metrics include counters for decisions/overrides/errors, gauges for the
// approval rate and projected default rate, and a histogram over the
// composite risk score.
type PrometheusHook struct {
	server   *http.Server
	registry *prometheus.Registry
	opts     PrometheusOptions

	// Counters
	decisionsTotal *prometheus.CounterVec
	overridesTotal *prometheus.CounterVec
	errorsTotal    *prometheus.CounterVec

	// Gauges
	approvalRatePct   *prometheus.GaugeVec
	defaultRatePct    *prometheus.GaugeVec
	runDurationSecs   *prometheus.GaugeVec
	riskAdjustedRetPc *prometheus.GaugeVec

	// Histograms
	riskScore *prometheus.HistogramVec

	// Internal tracking
	startTime time.Time
	mu        sync.Mutex
	closed    bool
}

// PrometheusOptions configures the Prometheus hook behavior.
type PrometheusOptions struct {
	// Port for the metrics server (default: defaults.MetricsPort).
	Port int

	// Path for the metrics endpoint (default: "/metrics").
	Path string

	// ReadTimeout for the HTTP server (default: 5s).
	ReadTimeout time.Duration

	// WriteTimeout for the HTTP server (default: 10s).
	WriteTimeout time.Duration
}

// NewPrometheusHook creates a new Prometheus hook that exposes metrics at
// the configured endpoint. The metrics server starts immediately and runs
// until Close() is called.
func NewPrometheusHook(opts PrometheusOptions) (*PrometheusHook, error) {
	if opts.Port == 0 {
		opts.Port = defaults.MetricsPort
	}
	if opts.Path == "" {
		opts.Path = "/metrics"
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = time.Duration(defaults.ShutdownTimeoutSec) * time.Second
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = time.Duration(defaults.ConnectTimeoutSec) * time.Second
	}

	// Custom registry (don't pollute default)
	registry := prometheus.NewRegistry()

	hook := &PrometheusHook{
		registry:  registry,
		opts:      opts,
		startTime: time.Now(),
	}

	if err := hook.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	if err := hook.startServer(); err != nil {
		return nil, fmt.Errorf("failed to start metrics server: %w", err)
	}

	return hook, nil
}

// initMetrics creates and registers all Prometheus metrics.
func (h *PrometheusHook) initMetrics() error {
	h.decisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "creditgate_decisions_total",
			Help: "Total number of applicant decisions",
		},
		[]string{"policy", "outcome"},
	)

	h.overridesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "creditgate_overrides_total",
			Help: "Total number of compensated approvals",
		},
		[]string{"policy", "kind", "rule"},
	)

	h.errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "creditgate_errors_total",
			Help: "Total number of records that failed validation",
		},
		[]string{"type"},
	)

	h.approvalRatePct = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "creditgate_approval_rate_percent",
			Help: "Approval rate of the last completed run (approved / evaluated * 100)",
		},
		[]string{"policy"},
	)

	h.defaultRatePct = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "creditgate_estimated_default_rate_percent",
			Help: "Projected default rate over the approved book of the last run",
		},
		[]string{"policy"},
	)

	h.runDurationSecs = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "creditgate_run_duration_seconds",
			Help: "Total decision run duration in seconds",
		},
		[]string{"policy"},
	)

	h.riskAdjustedRetPc = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "creditgate_risk_adjusted_return_percent",
			Help: "Projected risk-adjusted return on approved principal of the last run",
		},
		[]string{"policy"},
	)

	// Composite scores live in [40,95]; band the buckets on the decision
	// thresholds so the near-miss region is visible.
	h.riskScore = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "creditgate_risk_score",
			Help:    "Composite risk score distribution (higher = lower risk)",
			Buckets: []float64{40, 50, 55, 60, 65, 70, 75, 80, 85, 90, 95},
		},
		[]string{"policy", "outcome"},
	)

	collectors := []prometheus.Collector{
		h.decisionsTotal,
		h.overridesTotal,
		h.errorsTotal,
		h.approvalRatePct,
		h.defaultRatePct,
		h.runDurationSecs,
		h.riskAdjustedRetPc,
		h.riskScore,
	}

	for _, c := range collectors {
		if err := h.registry.Register(c); err != nil {
			return err
		}
	}

	return nil
}

// startServer starts the HTTP server for metrics.
func (h *PrometheusHook) startServer() error {
	mux := http.NewServeMux()
	mux.Handle(h.opts.Path, promhttp.HandlerFor(h.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	}))

	h.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", h.opts.Port),
		Handler:      mux,
		ReadTimeout:  h.opts.ReadTimeout,
		WriteTimeout: h.opts.WriteTimeout,
	}

	go func() {
		if err := h.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("prometheus: metrics server error: %v", err)
		}
	}()

	return nil
}

// OnEvent processes events and updates Prometheus metrics.
func (h *PrometheusHook) OnEvent(ctx context.Context, event events.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}

	switch e := event.(type) {
	case *events.DecisionEvent:
		return h.handleDecision(e)
	case *events.OverrideEvent:
		return h.handleOverride(e)
	case *events.ErrorEvent:
		return h.handleError(e)
	case *events.SummaryEvent:
		return h.handleSummary(e)
	default:
		return nil
	}
}

// handleDecision updates the decision counter and score histogram.
func (h *PrometheusHook) handleDecision(e *events.DecisionEvent) error {
	outcome := string(e.Decision.Outcome)
	h.decisionsTotal.WithLabelValues(e.Policy, outcome).Inc()
	h.riskScore.WithLabelValues(e.Policy, outcome).Observe(e.Decision.RiskScore)
	return nil
}

// handleOverride counts compensated approvals by kind and violated rule.
func (h *PrometheusHook) handleOverride(e *events.OverrideEvent) error {
	rule := e.Details.FailedRule
	if rule == "" {
		rule = "none"
	}
	h.overridesTotal.WithLabelValues(e.Details.Policy, e.Details.Kind, rule).Inc()
	return nil
}

// handleError counts records that never reached the engine.
func (h *PrometheusHook) handleError(e *events.ErrorEvent) error {
	h.errorsTotal.WithLabelValues(e.ErrorType).Inc()
	return nil
}

// handleSummary sets the final portfolio gauges.
func (h *PrometheusHook) handleSummary(e *events.SummaryEvent) error {
	if e.Portfolio == nil {
		return nil
	}
	h.approvalRatePct.WithLabelValues(e.Policy).Set(e.Portfolio.ApprovalRate)
	h.defaultRatePct.WithLabelValues(e.Policy).Set(e.Portfolio.EstimatedDefaultRate)
	h.runDurationSecs.WithLabelValues(e.Policy).Set(e.Timing.DurationSec)
	h.riskAdjustedRetPc.WithLabelValues(e.Policy).Set(e.Portfolio.ReturnOnPrincipal)
	return nil
}

// EventTypes returns the event types this hook handles.
func (h *PrometheusHook) EventTypes() []events.EventType {
	return []events.EventType{
		events.EventTypeDecision,
		events.EventTypeOverride,
		events.EventTypeError,
		events.EventTypeSummary,
	}
}

// Close shuts down the metrics server and releases resources.
func (h *PrometheusHook) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true

	if h.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(defaults.ShutdownTimeoutSec)*time.Second)
		defer cancel()
		return h.server.Shutdown(ctx)
	}

	return nil
}

// MetricsAddr returns the address where metrics are served.
// Useful for testing and logging.
func (h *PrometheusHook) MetricsAddr() string {
	return fmt.Sprintf("http://localhost:%d%s", h.opts.Port, h.opts.Path)
}
