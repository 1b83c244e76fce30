package hooks

import (
	"context"
	"testing"
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/creditgate/creditgate/pkg/output/events"
)

// newTestOTelHook builds a hook backed by an in-memory span recorder so
// tests never dial a collector.
func newTestOTelHook(t *testing.T) (*OTelHook, *tracetest.SpanRecorder) {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	hook := newOTelHookWithProvider(OTelOptions{
		ServiceName:     "creditgate-test",
		ShutdownTimeout: time.Second,
	}, tp)
	return hook, recorder
}

func startEvent(runID string, total int) *events.StartEvent {
	return &events.StartEvent{
		BaseEvent: events.BaseEvent{
			Type: events.EventTypeStart,
			Time: time.Now(),
			Run:  runID,
		},
		Policy:       "strict",
		Source:       "generator",
		TotalRecords: total,
		Config:       events.RunConfig{Workers: 4},
	}
}

func TestOTelHookSpanLifecycle(t *testing.T) {
	hook, recorder := newTestOTelHook(t)
	ctx := context.Background()

	if err := hook.OnEvent(ctx, startEvent("run-otel-1", 100)); err != nil {
		t.Fatalf("OnEvent(start): %v", err)
	}
	if hook.rootSpan == nil {
		t.Fatal("start event must open the run span")
	}

	override := events.NewOverrideEvent("run-otel-1", overriddenResult(t), 10, 1)
	if err := hook.OnEvent(ctx, override); err != nil {
		t.Fatalf("OnEvent(override): %v", err)
	}

	if err := hook.OnEvent(ctx, sampleSummaryEvent("run-otel-1")); err != nil {
		t.Fatalf("OnEvent(summary): %v", err)
	}

	complete := &events.CompleteEvent{
		BaseEvent: events.BaseEvent{Type: events.EventTypeComplete, Run: "run-otel-1"},
		Success:   true,
	}
	if err := hook.OnEvent(ctx, complete); err != nil {
		t.Fatalf("OnEvent(complete): %v", err)
	}
	if hook.rootSpan != nil {
		t.Fatal("complete event must end the run span")
	}

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 ended span, got %d", len(spans))
	}
	span := spans[0]
	if span.Name() != "creditgate.run" {
		t.Errorf("span name = %q, want creditgate.run", span.Name())
	}

	names := make(map[string]bool)
	for _, ev := range span.Events() {
		names[ev.Name] = true
	}
	for _, want := range []string{"run_started", "override_alert", "run_summary", "run_completed"} {
		if !names[want] {
			t.Errorf("span missing event %q (have %v)", want, names)
		}
	}
}

func TestOTelHookIgnoresEventsBeforeStart(t *testing.T) {
	hook, recorder := newTestOTelHook(t)

	// No start event: progress and summary must be no-ops, not panics.
	progress := &events.ProgressEvent{
		BaseEvent: events.BaseEvent{Type: events.EventTypeProgress, Run: "run-otel-2"},
	}
	if err := hook.OnEvent(context.Background(), progress); err != nil {
		t.Fatalf("OnEvent(progress): %v", err)
	}
	if err := hook.OnEvent(context.Background(), sampleSummaryEvent("run-otel-2")); err != nil {
		t.Fatalf("OnEvent(summary): %v", err)
	}

	if n := len(recorder.Ended()); n != 0 {
		t.Errorf("no span should exist before start, got %d", n)
	}
}

func TestOTelHookCloseEndsOpenSpan(t *testing.T) {
	hook, recorder := newTestOTelHook(t)

	if err := hook.OnEvent(context.Background(), startEvent("run-otel-3", 10)); err != nil {
		t.Fatalf("OnEvent(start): %v", err)
	}
	if err := hook.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if n := len(recorder.Ended()); n != 1 {
		t.Fatalf("Close must end the open span, got %d ended spans", n)
	}

	// Events after Close are dropped.
	if err := hook.OnEvent(context.Background(), startEvent("run-otel-4", 10)); err != nil {
		t.Fatalf("OnEvent after Close: %v", err)
	}
	if n := len(recorder.Ended()); n != 1 {
		t.Errorf("events after Close must not create spans, got %d", n)
	}

	// Close is idempotent.
	if err := hook.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}
