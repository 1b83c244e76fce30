package batch

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/creditgate/creditgate/pkg/analytics"
	"github.com/creditgate/creditgate/pkg/applicant"
	"github.com/creditgate/creditgate/pkg/decision"
	"github.com/creditgate/creditgate/pkg/defaults"
	"github.com/creditgate/creditgate/pkg/output/dispatcher"
	"github.com/creditgate/creditgate/pkg/output/events"
	"github.com/creditgate/creditgate/pkg/policy"
)

// Compare evaluates the same applicant pool under both presets and
// emits one summary event carrying the comparison. Per-applicant events
// are not emitted; evaluating every record twice would double-count
// decisions in streaming outputs.
func (e *Engine) Compare(ctx context.Context, records []applicant.Applicant, d *dispatcher.Dispatcher) (*analytics.Comparison, error) {
	runID := uuid.New().String()
	start := time.Now()

	if e.cfg.DedupeRecords {
		records, _ = dedupe(records)
	}

	d.Dispatch(ctx, &events.StartEvent{
		BaseEvent:    events.BaseEvent{Type: events.EventTypeStart, Time: start, Run: runID},
		Policy:       "compare",
		Source:       e.cfg.Source,
		TotalRecords: len(records),
		Config:       events.RunConfig{Workers: e.cfg.Workers},
	})

	strict, err := e.evaluatePool(ctx, records, policy.Strict())
	if err != nil {
		return nil, err
	}
	relaxed, err := e.evaluatePool(ctx, records, policy.Relaxed())
	if err != nil {
		return nil, err
	}

	comparison := analytics.Compare(strict, relaxed)
	duration := time.Since(start)

	summary := &events.SummaryEvent{
		BaseEvent:  events.BaseEvent{Type: events.EventTypeSummary, Time: time.Now(), Run: runID},
		Version:    e.cfg.Version,
		Policy:     "compare",
		Comparison: comparison,
		Timing: events.SummaryTiming{
			StartedAt:     start,
			CompletedAt:   start.Add(duration),
			DurationSec:   duration.Seconds(),
			RecordsPerSec: recordsPerSec(2*len(records), duration),
		},
	}
	d.Dispatch(ctx, summary)
	d.Dispatch(ctx, &events.CompleteEvent{
		BaseEvent: events.BaseEvent{Type: events.EventTypeComplete, Time: time.Now(), Run: runID},
		Success:   true,
		ExitCode:  defaults.ExitSuccess,
		Summary:   summary,
	})

	e.logger.Info("policy comparison finished",
		"run", runID,
		"records", len(records),
		"additional_approved", comparison.AdditionalApproved,
		"duration", duration.Round(time.Millisecond))

	return comparison, nil
}

// evaluatePool scores the whole pool under one preset and returns the
// portfolio rollup. Invalid records count as errors, matching Run.
func (e *Engine) evaluatePool(ctx context.Context, records []applicant.Applicant, t policy.Thresholds) (*analytics.PortfolioMetrics, error) {
	calc := analytics.NewCalculator(t.Name)
	engine := decision.New(t)
	start := time.Now()

	for _, a := range records {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		if err := a.Validate(); err != nil {
			calc.AddError()
			continue
		}
		calc.Add(engine.Evaluate(a.Normalize()))
	}

	return calc.Calculate(time.Since(start)), nil
}
