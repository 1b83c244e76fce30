package events

// ErrorEvent is emitted when an error occurs during a run. It can
// represent both recoverable per-record errors and fatal run errors.
type ErrorEvent struct {
	BaseEvent
	ApplicantID string `json:"applicant_id,omitempty"`
	ErrorType   string `json:"error_type"`
	Message     string `json:"message"`
	Fatal       bool   `json:"fatal"`
}
