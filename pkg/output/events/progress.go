package events

import "time"

// ProgressEvent represents a progress update during a batch run.
// It provides real-time metrics about run progress, throughput, timing
// and cumulative decision statistics.
type ProgressEvent struct {
	BaseEvent
	Progress ProgressInfo `json:"progress"`
	Rate     RateInfo     `json:"rate"`
	Timing   TimingInfo   `json:"timing"`
	Stats    StatsInfo    `json:"stats"`
}

// ProgressInfo contains progress metrics for the run.
type ProgressInfo struct {
	Current    int     `json:"current"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

// RateInfo contains throughput metrics for the run.
type RateInfo struct {
	RecordsPerSec float64 `json:"records_per_sec"`
}

// TimingInfo contains timing metrics for the run.
type TimingInfo struct {
	ElapsedSec int64     `json:"elapsed_sec"`
	ETASec     int64     `json:"eta_sec"`
	StartedAt  time.Time `json:"started_at"`
}

// StatsInfo contains cumulative decision statistics for the run.
type StatsInfo struct {
	Approved        int     `json:"approved"`
	Rejected        int     `json:"rejected"`
	Errors          int     `json:"errors"`
	Overrides       int     `json:"overrides"`
	ApprovalRatePct float64 `json:"approval_rate_pct"`
}
