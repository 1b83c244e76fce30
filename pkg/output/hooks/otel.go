package hooks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/creditgate/creditgate/pkg/defaults"
	"github.com/creditgate/creditgate/pkg/output/dispatcher"
	"github.com/creditgate/creditgate/pkg/output/events"
)

// Compile-time interface check.
var _ dispatcher.Hook = (*OTelHook)(nil)

// OTelHook exports run telemetry to an OpenTelemetry collector.
// It creates one span per decision run and records overrides and progress
// as span events with attributes.
type OTelHook struct {
	opts           OTelOptions
	tracerProvider *sdktrace.TracerProvider
	tracer         trace.Tracer

	// Active span tracking
	mu       sync.Mutex
	rootSpan trace.Span
	rootCtx  context.Context
	closed   bool

	// Run metadata for attributes
	runID     string
	policy    string
	startTime time.Time
}

// OTelOptions configures the OpenTelemetry hook behavior.
type OTelOptions struct {
	// Endpoint is the OTLP endpoint (e.g., "localhost:4317").
	Endpoint string

	// ServiceName is the service name for traces (default: "creditgate").
	ServiceName string

	// Insecure uses insecure connection (no TLS).
	Insecure bool

	// Headers contains additional headers for the OTLP exporter.
	Headers map[string]string

	// ShutdownTimeout is the timeout for graceful shutdown (default: 5s).
	ShutdownTimeout time.Duration

	// ConnectionTimeout is the timeout for establishing connection (default: 10s).
	ConnectionTimeout time.Duration
}

// NewOTelHook creates a new OpenTelemetry hook that exports telemetry to
// the configured endpoint. The exporter connects immediately but handles
// connection failures gracefully without blocking runs.
func NewOTelHook(opts OTelOptions) (*OTelHook, error) {
	if opts.ServiceName == "" {
		opts.ServiceName = defaults.ToolName
	}
	if opts.Endpoint == "" {
		opts.Endpoint = defaults.OTelEndpoint
	}
	if opts.ShutdownTimeout == 0 {
		opts.ShutdownTimeout = time.Duration(defaults.ShutdownTimeoutSec) * time.Second
	}
	if opts.ConnectionTimeout == 0 {
		opts.ConnectionTimeout = time.Duration(defaults.ConnectTimeoutSec) * time.Second
	}

	exporterOpts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(opts.Endpoint),
	}
	if opts.Insecure {
		exporterOpts = append(exporterOpts, otlptracegrpc.WithInsecure())
	}
	if len(opts.Headers) > 0 {
		exporterOpts = append(exporterOpts, otlptracegrpc.WithHeaders(opts.Headers))
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.ConnectionTimeout)
	defer cancel()

	exporter, err := otlptracegrpc.New(ctx, exporterOpts...)
	if err != nil {
		return nil, err
	}

	// Avoid merging with resource.Default to prevent schema conflicts.
	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(opts.ServiceName),
		semconv.ServiceVersion(defaults.Version),
		attribute.String("service.component", "decision-engine"),
	)

	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(tracerProvider)

	return newOTelHookWithProvider(opts, tracerProvider), nil
}

// newOTelHookWithProvider wires the hook to an existing provider. Split out
// so tests can use an exporter-free provider.
func newOTelHookWithProvider(opts OTelOptions, tp *sdktrace.TracerProvider) *OTelHook {
	return &OTelHook{
		opts:           opts,
		tracerProvider: tp,
		tracer:         tp.Tracer("creditgate/decision"),
		startTime:      time.Now(),
	}
}

// OnEvent processes events and exports telemetry to the collector.
func (h *OTelHook) OnEvent(ctx context.Context, event events.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}

	switch e := event.(type) {
	case *events.StartEvent:
		return h.handleStart(ctx, e)
	case *events.ProgressEvent:
		return h.handleProgress(e)
	case *events.OverrideEvent:
		return h.handleOverride(e)
	case *events.ErrorEvent:
		return h.handleError(e)
	case *events.SummaryEvent:
		return h.handleSummary(e)
	case *events.CompleteEvent:
		return h.handleComplete(e)
	default:
		return nil
	}
}

// handleStart creates the root span for the run.
func (h *OTelHook) handleStart(ctx context.Context, start *events.StartEvent) error {
	h.runID = start.RunID()
	h.policy = start.Policy
	h.startTime = start.Timestamp()

	spanCtx, span := h.tracer.Start(ctx, "creditgate.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("run_id", h.runID),
			attribute.String("policy", h.policy),
			attribute.String("source", start.Source),
			attribute.Int("total_records", start.TotalRecords),
			attribute.Int("workers", start.Config.Workers),
		),
	)

	h.rootSpan = span
	h.rootCtx = spanCtx

	span.AddEvent("run_started", trace.WithAttributes(
		attribute.String("policy", h.policy),
		attribute.Int("total_records", start.TotalRecords),
	))

	return nil
}

// handleProgress adds span events for progress updates.
func (h *OTelHook) handleProgress(progress *events.ProgressEvent) error {
	if h.rootSpan == nil {
		return nil
	}

	h.rootSpan.AddEvent("progress_update", trace.WithAttributes(
		attribute.Int("current", progress.Progress.Current),
		attribute.Int("total", progress.Progress.Total),
		attribute.Float64("percentage", progress.Progress.Percentage),
		attribute.Float64("records_per_sec", progress.Rate.RecordsPerSec),
		attribute.Int("approved", progress.Stats.Approved),
		attribute.Int("rejected", progress.Stats.Rejected),
		attribute.Int("overrides", progress.Stats.Overrides),
		attribute.Int("errors", progress.Stats.Errors),
		attribute.Float64("approval_rate_pct", progress.Stats.ApprovalRatePct),
	))

	return nil
}

// handleOverride records compensated approvals with review-priority attributes.
func (h *OTelHook) handleOverride(override *events.OverrideEvent) error {
	if h.rootSpan == nil {
		return nil
	}

	h.rootSpan.AddEvent("override_alert", trace.WithAttributes(
		attribute.String("run_id", h.runID),
		attribute.String("priority", override.Priority),
		attribute.String("applicant_id", override.Details.ApplicantID),
		attribute.String("kind", override.Details.Kind),
		attribute.Float64("risk_score", override.Details.RiskScore),
		attribute.Float64("policy_minimum", override.Details.PolicyMinimum),
		attribute.String("failed_rule", override.Details.FailedRule),
		attribute.Int("overrides_so_far", override.Context.OverridesSoFar),
	))

	return nil
}

// handleError records validation failures as span events.
func (h *OTelHook) handleError(errEvent *events.ErrorEvent) error {
	if h.rootSpan == nil {
		return nil
	}

	h.rootSpan.AddEvent("record_error", trace.WithAttributes(
		attribute.String("applicant_id", errEvent.ApplicantID),
		attribute.String("error_type", errEvent.ErrorType),
		attribute.String("message", errEvent.Message),
		attribute.Bool("fatal", errEvent.Fatal),
	))

	if errEvent.Fatal {
		h.rootSpan.SetStatus(codes.Error, errEvent.Message)
	}

	return nil
}

// handleSummary adds portfolio attributes to the root span.
func (h *OTelHook) handleSummary(summary *events.SummaryEvent) error {
	if h.rootSpan == nil || summary.Portfolio == nil {
		return nil
	}

	p := summary.Portfolio
	h.rootSpan.SetAttributes(
		attribute.String("policy", summary.Policy),
		attribute.Int("totals.records", p.Total),
		attribute.Int("totals.approved", p.Approved),
		attribute.Int("totals.rejected", p.Rejected),
		attribute.Int("totals.errors", p.Errored),
		attribute.Float64("portfolio.approval_rate_pct", p.ApprovalRate),
		attribute.Float64("portfolio.mean_risk_score", p.MeanRiskScore),
		attribute.Float64("portfolio.estimated_default_rate_pct", p.EstimatedDefaultRate),
		attribute.Float64("portfolio.risk_adjusted_return", p.RiskAdjustedReturn),
		attribute.String("portfolio.grade", p.Grade),
		attribute.Float64("timing.duration_sec", summary.Timing.DurationSec),
		attribute.Float64("timing.records_per_sec", summary.Timing.RecordsPerSec),
		attribute.Int("exit_code", summary.ExitCode),
		attribute.String("exit_reason", summary.ExitReason),
	)

	h.rootSpan.AddEvent("run_summary", trace.WithAttributes(
		attribute.Int("records", p.Total),
		attribute.Float64("approval_rate_pct", p.ApprovalRate),
		attribute.String("grade", p.Grade),
		attribute.Float64("duration_sec", summary.Timing.DurationSec),
	))

	return nil
}

// handleComplete finalizes the run span and flushes telemetry.
func (h *OTelHook) handleComplete(complete *events.CompleteEvent) error {
	if h.rootSpan == nil {
		return nil
	}

	h.rootSpan.AddEvent("run_completed", trace.WithAttributes(
		attribute.Bool("success", complete.Success),
		attribute.Int("exit_code", complete.ExitCode),
		attribute.String("exit_reason", complete.ExitReason),
	))

	if complete.Success {
		h.rootSpan.SetStatus(codes.Ok, "Completed successfully")
	} else {
		h.rootSpan.SetStatus(codes.Error, complete.ExitReason)
	}

	h.rootSpan.End()
	h.rootSpan = nil

	return nil
}

// EventTypes returns the event types this hook handles.
func (h *OTelHook) EventTypes() []events.EventType {
	return []events.EventType{
		events.EventTypeStart,
		events.EventTypeProgress,
		events.EventTypeOverride,
		events.EventTypeError,
		events.EventTypeSummary,
		events.EventTypeComplete,
	}
}

// Close shuts down the tracer provider and flushes any pending telemetry.
func (h *OTelHook) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true

	if h.rootSpan != nil {
		h.rootSpan.End()
		h.rootSpan = nil
	}

	if h.tracerProvider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), h.opts.ShutdownTimeout)
		defer cancel()

		if err := h.tracerProvider.Shutdown(ctx); err != nil {
			return fmt.Errorf("otel: shutdown tracer provider: %w", err)
		}
	}

	return nil
}

// Endpoint returns the OTLP endpoint being used.
// Useful for testing and logging.
func (h *OTelHook) Endpoint() string {
	return h.opts.Endpoint
}

// ServiceName returns the service name being used.
func (h *OTelHook) ServiceName() string {
	return h.opts.ServiceName
}
