package events

// StartEvent is emitted when a run begins. It contains the policy and
// source information that applies to every subsequent decision event.
type StartEvent struct {
	BaseEvent
	Policy       string    `json:"policy"`
	Source       string    `json:"source,omitempty"`
	Config       RunConfig `json:"config"`
	TotalRecords int       `json:"total_records"`
}

// RunConfig contains the batch run configuration settings.
type RunConfig struct {
	Workers       int     `json:"workers"`
	PaceRPS       float64 `json:"pace_rps,omitempty"`
	ProgressEvery int     `json:"progress_every,omitempty"`
}
