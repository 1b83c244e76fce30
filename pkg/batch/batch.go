// Package batch evaluates applicant pools concurrently and streams the
// run as events. It owns the worker pool, pacing, progress reporting
// and the portfolio rollup; output routing belongs to the dispatcher.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/creditgate/creditgate/pkg/analytics"
	"github.com/creditgate/creditgate/pkg/applicant"
	"github.com/creditgate/creditgate/pkg/decision"
	"github.com/creditgate/creditgate/pkg/defaults"
	"github.com/creditgate/creditgate/pkg/input"
	"github.com/creditgate/creditgate/pkg/output/dispatcher"
	"github.com/creditgate/creditgate/pkg/output/events"
	"github.com/creditgate/creditgate/pkg/policy"
)

// Config holds batch run configuration.
type Config struct {
	// Policy is the threshold preset to evaluate against.
	Policy policy.Thresholds

	// Workers is the number of parallel evaluators (default 8).
	Workers int

	// RateLimit is max records per second (0 = unpaced).
	RateLimit float64

	// ProgressEvery is how many records between progress events
	// (default 100, negative disables progress).
	ProgressEvery int

	// DedupeRecords drops records whose figures fingerprint-match an
	// earlier record in the same run.
	DedupeRecords bool

	// RunID overrides the generated run id so CI pipelines can produce
	// reproducible artifacts. Empty means a fresh UUID per run.
	RunID string

	// Source labels where the records came from (file path, "generator").
	Source string

	// Version is stamped into the summary event.
	Version string

	// Logger for structured logging (default slog.Default()).
	Logger *slog.Logger
}

// Result is the outcome of one batch run.
type Result struct {
	RunID     string
	Policy    string
	Portfolio *analytics.PortfolioMetrics
	Errors    int
	Skipped   int
	Duration  time.Duration
}

// Engine runs applicant pools against one policy preset.
type Engine struct {
	cfg     Config
	limiter *rate.Limiter
	logger  *slog.Logger
}

// New creates a batch engine. Zero config values select defaults.
func New(cfg Config) *Engine {
	if cfg.Workers <= 0 {
		cfg.Workers = defaults.WorkersMedium
	}
	if cfg.ProgressEvery == 0 {
		cfg.ProgressEvery = defaults.ProgressEvery
	}
	if cfg.Version == "" {
		cfg.Version = defaults.Version
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := int(cfg.RateLimit / 5)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	return &Engine{cfg: cfg, limiter: limiter, logger: logger}
}

// counters tracks run statistics across workers.
type counters struct {
	evaluated atomic.Int64
	approved  atomic.Int64
	rejected  atomic.Int64
	overrides atomic.Int64
	errors    atomic.Int64
}

func (c *counters) stats() events.StatsInfo {
	approved := int(c.approved.Load())
	rejected := int(c.rejected.Load())
	s := events.StatsInfo{
		Approved:  approved,
		Rejected:  rejected,
		Errors:    int(c.errors.Load()),
		Overrides: int(c.overrides.Load()),
	}
	if decided := approved + rejected; decided > 0 {
		s.ApprovalRatePct = float64(approved) / float64(decided) * 100
	}
	return s
}

// Run evaluates every record and streams events to the dispatcher.
// The returned Result always carries the portfolio rollup; the error is
// non-nil only when the run was cut short by context cancellation.
func (e *Engine) Run(ctx context.Context, records []applicant.Applicant, d *dispatcher.Dispatcher) (*Result, error) {
	runID := e.cfg.RunID
	if runID == "" {
		runID = uuid.New().String()
	}
	start := time.Now()

	var skipped int
	if e.cfg.DedupeRecords {
		records, skipped = dedupe(records)
		if skipped > 0 {
			e.logger.Info("dropped duplicate records", "run", runID, "count", skipped)
		}
	}

	e.logger.Info("batch run starting",
		"run", runID,
		"policy", e.cfg.Policy.Name,
		"records", len(records),
		"workers", e.cfg.Workers)

	d.Dispatch(ctx, &events.StartEvent{
		BaseEvent:    events.BaseEvent{Type: events.EventTypeStart, Time: start, Run: runID},
		Policy:       e.cfg.Policy.Name,
		Source:       e.cfg.Source,
		TotalRecords: len(records),
		Config: events.RunConfig{
			Workers:       e.cfg.Workers,
			PaceRPS:       e.cfg.RateLimit,
			ProgressEvery: e.cfg.ProgressEvery,
		},
	})

	calc := analytics.NewCalculator(e.cfg.Policy.Name)
	engine := decision.New(e.cfg.Policy)
	var stats counters

	workers := e.cfg.Workers
	if workers > len(records) && len(records) > 0 {
		workers = len(records)
	}

	jobs := make(chan applicant.Applicant)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for a := range jobs {
				e.evaluateOne(ctx, runID, a, engine, calc, &stats, len(records), start, d)
			}
		}()
	}

	var runErr error
feed:
	for _, a := range records {
		if e.limiter != nil {
			if err := e.limiter.Wait(ctx); err != nil {
				runErr = err
				break feed
			}
		}
		select {
		case jobs <- a:
		case <-ctx.Done():
			runErr = ctx.Err()
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	duration := time.Since(start)
	portfolio := calc.Calculate(duration)

	summary := &events.SummaryEvent{
		BaseEvent: events.BaseEvent{Type: events.EventTypeSummary, Time: time.Now(), Run: runID},
		Version:   e.cfg.Version,
		Policy:    e.cfg.Policy.Name,
		Portfolio: portfolio,
		Timing: events.SummaryTiming{
			StartedAt:     start,
			CompletedAt:   start.Add(duration),
			DurationSec:   duration.Seconds(),
			RecordsPerSec: recordsPerSec(int(stats.evaluated.Load())+int(stats.errors.Load()), duration),
		},
	}
	if runErr != nil {
		summary.ExitCode = defaults.ExitInternalError
		summary.ExitReason = fmt.Sprintf("run interrupted: %v", runErr)
	}
	d.Dispatch(ctx, summary)

	d.Dispatch(ctx, &events.CompleteEvent{
		BaseEvent:  events.BaseEvent{Type: events.EventTypeComplete, Time: time.Now(), Run: runID},
		Success:    runErr == nil,
		ExitCode:   summary.ExitCode,
		ExitReason: summary.ExitReason,
		Summary:    summary,
	})

	e.logger.Info("batch run finished",
		"run", runID,
		"evaluated", stats.evaluated.Load(),
		"errors", stats.errors.Load(),
		"duration", duration.Round(time.Millisecond))

	return &Result{
		RunID:     runID,
		Policy:    e.cfg.Policy.Name,
		Portfolio: portfolio,
		Errors:    int(stats.errors.Load()),
		Skipped:   skipped,
		Duration:  duration,
	}, runErr
}

// evaluateOne validates and scores a single record and emits its events.
func (e *Engine) evaluateOne(ctx context.Context, runID string, a applicant.Applicant,
	engine decision.Engine, calc *analytics.Calculator, stats *counters,
	total int, start time.Time, d *dispatcher.Dispatcher) {

	if err := a.Validate(); err != nil {
		stats.errors.Add(1)
		calc.AddError()
		d.Dispatch(ctx, &events.ErrorEvent{
			BaseEvent:   events.BaseEvent{Type: events.EventTypeError, Time: time.Now(), Run: runID},
			ApplicantID: a.ID,
			ErrorType:   "validation",
			Message:     err.Error(),
		})
		e.maybeProgress(ctx, runID, stats, total, start, d)
		return
	}

	a = a.Normalize()
	r := engine.Evaluate(a)
	calc.Add(r)

	evaluated := stats.evaluated.Add(1)
	if r.Outcome == decision.Approve {
		stats.approved.Add(1)
	} else {
		stats.rejected.Add(1)
	}

	d.Dispatch(ctx, events.NewDecisionEvent(runID, a, r))

	if r.OverrideKind() != "" {
		overrides := stats.overrides.Add(1)
		d.Dispatch(ctx, events.NewOverrideEvent(runID, r, int(evaluated), int(overrides)))
	}

	e.maybeProgress(ctx, runID, stats, total, start, d)
}

// maybeProgress emits a progress event on every Nth processed record.
func (e *Engine) maybeProgress(ctx context.Context, runID string, stats *counters,
	total int, start time.Time, d *dispatcher.Dispatcher) {

	if e.cfg.ProgressEvery <= 0 {
		return
	}
	current := int(stats.evaluated.Load() + stats.errors.Load())
	if current == 0 || current%e.cfg.ProgressEvery != 0 {
		return
	}

	elapsed := time.Since(start)
	rps := recordsPerSec(current, elapsed)
	var etaSec int64
	if rps > 0 && total > current {
		etaSec = int64(float64(total-current) / rps)
	}

	d.Dispatch(ctx, &events.ProgressEvent{
		BaseEvent: events.BaseEvent{Type: events.EventTypeProgress, Time: time.Now(), Run: runID},
		Progress: events.ProgressInfo{
			Current:    current,
			Total:      total,
			Percentage: float64(current) / float64(total) * 100,
		},
		Rate: events.RateInfo{RecordsPerSec: rps},
		Timing: events.TimingInfo{
			ElapsedSec: int64(elapsed.Seconds()),
			ETASec:     etaSec,
			StartedAt:  start,
		},
		Stats: stats.stats(),
	})
}

func recordsPerSec(n int, d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(n) / d.Seconds()
}

// dedupe drops records whose content fingerprint repeats an earlier
// record. Identity alone is not enough; resubmissions with changed
// figures stay in the pool.
func dedupe(records []applicant.Applicant) ([]applicant.Applicant, int) {
	seen := make(map[uint64]struct{}, len(records))
	out := records[:0:0]
	for _, a := range records {
		fp := input.Fingerprint(a)
		if _, dup := seen[fp]; dup {
			continue
		}
		seen[fp] = struct{}{}
		out = append(out, a)
	}
	return out, len(records) - len(out)
}

