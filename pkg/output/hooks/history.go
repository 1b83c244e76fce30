package hooks

import (
	"context"
	"log/slog"
	"time"

	"github.com/creditgate/creditgate/pkg/defaults"
	"github.com/creditgate/creditgate/pkg/history"
	"github.com/creditgate/creditgate/pkg/output/dispatcher"
	"github.com/creditgate/creditgate/pkg/output/events"
)

// Compile-time interface check.
var _ dispatcher.Hook = (*HistoryHook)(nil)

// HistoryHook saves run results to a historical store for trend analysis.
// It listens for SummaryEvent and creates a permanent record.
type HistoryHook struct {
	store  *history.Store
	tags   []string
	logger *slog.Logger
}

// HistoryHookOptions configures the history hook.
type HistoryHookOptions struct {
	// StorePath is the directory where historical data is stored.
	StorePath string

	// Tags are user-defined labels to attach to each run record.
	Tags []string

	// Logger for structured logging (default: slog.Default()).
	Logger *slog.Logger
}

// NewHistoryHook creates a new history hook.
func NewHistoryHook(opts HistoryHookOptions) (*HistoryHook, error) {
	store, err := history.NewStore(opts.StorePath)
	if err != nil {
		return nil, err
	}

	return &HistoryHook{
		store:  store,
		tags:   opts.Tags,
		logger: orDefault(opts.Logger),
	}, nil
}

// OnEvent processes events and saves run results to history.
// Only SummaryEvent is processed to create a complete record.
func (h *HistoryHook) OnEvent(ctx context.Context, event events.Event) error {
	summary, ok := event.(*events.SummaryEvent)
	if !ok || summary.Portfolio == nil {
		return nil
	}

	record := h.buildRecord(summary)
	if err := h.store.Save(record); err != nil {
		h.logger.Warn("failed to save run record", slog.String("error", err.Error()))
		return nil
	}

	h.logger.Info("saved run record", slog.String("id", record.ID), slog.String("policy", record.Policy))
	return nil
}

// EventTypes returns the event types this hook handles.
func (h *HistoryHook) EventTypes() []events.EventType {
	return []events.EventType{
		events.EventTypeSummary,
	}
}

// buildRecord creates a RunRecord from a SummaryEvent.
func (h *HistoryHook) buildRecord(summary *events.SummaryEvent) *history.RunRecord {
	runID := summary.RunID()
	if runID == "" {
		runID = time.Now().Format("20060102-150405")
	}

	p := summary.Portfolio
	return &history.RunRecord{
		ID:                      runID,
		Timestamp:               summary.Timestamp(),
		Policy:                  summary.Policy,
		Grade:                   p.Grade,
		ApprovalRatePct:         p.ApprovalRate,
		TotalRecords:            p.Total,
		Approved:                p.Approved,
		Rejected:                p.Rejected,
		Overrides:               p.Overrides,
		Errors:                  p.Errored,
		MeanRiskScore:           p.MeanRiskScore,
		EstimatedDefaultRatePct: p.EstimatedDefaultRate,
		RiskAdjustedReturnPct:   p.ReturnOnPrincipal,
		DurationMs:              int64(summary.Timing.DurationSec * 1000),
		Version:                 defaults.Version,
		Tags:                    h.tags,
	}
}
