package events

import (
	"time"

	"github.com/creditgate/creditgate/pkg/analytics"
)

// SummaryEvent represents the final run summary. It carries the full
// portfolio metrics for the run's policy, an optional strict-versus-
// relaxed comparison, and timing.
type SummaryEvent struct {
	BaseEvent
	Version    string                      `json:"version"`
	Policy     string                      `json:"policy"`
	Portfolio  *analytics.PortfolioMetrics `json:"portfolio"`
	Comparison *analytics.Comparison       `json:"comparison,omitempty"`
	Timing     SummaryTiming               `json:"timing"`
	ExitCode   int                         `json:"exit_code"`
	ExitReason string                      `json:"exit_reason"`
}

// SummaryTiming contains timing information for the run.
type SummaryTiming struct {
	StartedAt     time.Time `json:"started_at"`
	CompletedAt   time.Time `json:"completed_at"`
	DurationSec   float64   `json:"duration_sec"`
	RecordsPerSec float64   `json:"records_per_sec"`
}
