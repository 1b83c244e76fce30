package events

import (
	"time"

	"github.com/creditgate/creditgate/pkg/applicant"
	"github.com/creditgate/creditgate/pkg/decision"
	"github.com/creditgate/creditgate/pkg/scoring"
)

// DecisionEvent represents a single applicant decision. It contains the
// applicant identity and figures, the verdict with its reason, and the
// risk score breakdown.
type DecisionEvent struct {
	BaseEvent
	Applicant ApplicantInfo `json:"applicant"`
	Decision  DecisionInfo  `json:"decision"`
	Policy    string        `json:"policy"`
}

// ApplicantInfo contains applicant identity and the figures the decision
// was based on. Snapshot is omitted when zeroed so writers can redact
// the financial figures without a pointer dance.
type ApplicantInfo struct {
	ID            string                  `json:"id"`
	Industry      applicant.Industry      `json:"industry,omitempty"`
	Education     applicant.Education     `json:"education,omitempty"`
	MaritalStatus applicant.MaritalStatus `json:"marital_status,omitempty"`
	Snapshot      decision.Snapshot       `json:"snapshot,omitzero"`
}

// DecisionInfo contains the verdict including the outcome, its reason and
// the score breakdown.
type DecisionInfo struct {
	Outcome     decision.Outcome       `json:"outcome"`
	Reason      string                 `json:"reason"`
	RiskScore   float64                `json:"risk_score"`
	Dimensions  scoring.Dimensions     `json:"risk_dimensions"`
	FailedRules []decision.RuleFailure `json:"failed_rules,omitempty"`
	Override    string                 `json:"override,omitempty"`
}

// NewDecisionEvent builds a DecisionEvent from an evaluated result. The
// applicant supplies the demographic members the result snapshot does not
// carry.
func NewDecisionEvent(runID string, a applicant.Applicant, r decision.Result) *DecisionEvent {
	a = a.Normalize()
	return &DecisionEvent{
		BaseEvent: BaseEvent{
			Type: EventTypeDecision,
			Time: time.Now(),
			Run:  runID,
		},
		Applicant: ApplicantInfo{
			ID:            r.ApplicantID,
			Industry:      a.Industry,
			Education:     a.Education,
			MaritalStatus: a.MaritalStatus,
			Snapshot:      r.Financials,
		},
		Decision: DecisionInfo{
			Outcome:     r.Outcome,
			Reason:      r.Reason,
			RiskScore:   r.RiskScore,
			Dimensions:  r.Dimensions,
			FailedRules: r.FailedRules,
			Override:    r.OverrideKind(),
		},
		Policy: r.Policy.Name,
	}
}
