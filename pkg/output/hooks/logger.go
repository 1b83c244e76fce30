package hooks

import (
	"context"
	"log/slog"

	"github.com/creditgate/creditgate/pkg/output/dispatcher"
	"github.com/creditgate/creditgate/pkg/output/events"
)

// orDefault returns l if non-nil, otherwise slog.Default().
func orDefault(l *slog.Logger) *slog.Logger {
	if l != nil {
		return l
	}
	return slog.Default()
}

// Compile-time interface check.
var _ dispatcher.Hook = (*LoggerHook)(nil)

// LoggerHook emits one structured log line per event. Decisions log at
// Debug so a million-record run does not drown the console, overrides and
// errors at Warn, run lifecycle at Info.
type LoggerHook struct {
	logger *slog.Logger
}

// NewLoggerHook creates a logger hook. A nil logger selects slog.Default().
func NewLoggerHook(logger *slog.Logger) *LoggerHook {
	return &LoggerHook{logger: orDefault(logger)}
}

// OnEvent logs the event with fields appropriate to its type.
func (h *LoggerHook) OnEvent(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case *events.StartEvent:
		h.logger.InfoContext(ctx, "run started",
			slog.String("run_id", e.RunID()),
			slog.String("policy", e.Policy),
			slog.Int("total_records", e.TotalRecords))
	case *events.DecisionEvent:
		h.logger.DebugContext(ctx, "decision",
			slog.String("run_id", e.RunID()),
			slog.String("applicant_id", e.Applicant.ID),
			slog.String("decision", string(e.Decision.Outcome)),
			slog.Float64("risk_score", e.Decision.RiskScore))
	case *events.OverrideEvent:
		h.logger.WarnContext(ctx, "compensated approval",
			slog.String("run_id", e.RunID()),
			slog.String("applicant_id", e.Details.ApplicantID),
			slog.String("kind", e.Details.Kind),
			slog.Float64("risk_score", e.Details.RiskScore),
			slog.String("reason", e.Details.Reason))
	case *events.ErrorEvent:
		h.logger.WarnContext(ctx, "record error",
			slog.String("run_id", e.RunID()),
			slog.String("applicant_id", e.ApplicantID),
			slog.String("error_type", e.ErrorType),
			slog.String("message", e.Message),
			slog.Bool("fatal", e.Fatal))
	case *events.SummaryEvent:
		if e.Portfolio != nil {
			h.logger.InfoContext(ctx, "run summary",
				slog.String("run_id", e.RunID()),
				slog.String("policy", e.Policy),
				slog.Int("total", e.Portfolio.Total),
				slog.Float64("approval_rate_pct", e.Portfolio.ApprovalRate),
				slog.Float64("estimated_default_rate_pct", e.Portfolio.EstimatedDefaultRate),
				slog.String("grade", e.Portfolio.Grade))
		}
	case *events.CompleteEvent:
		h.logger.InfoContext(ctx, "run complete",
			slog.String("run_id", e.RunID()),
			slog.Bool("success", e.Success),
			slog.Int("exit_code", e.ExitCode))
	}
	return nil
}

// EventTypes returns nil so the hook sees every event.
func (h *LoggerHook) EventTypes() []events.EventType { return nil }
