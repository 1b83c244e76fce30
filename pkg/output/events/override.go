package events

import (
	"fmt"
	"time"

	"github.com/creditgate/creditgate/pkg/decision"
)

// OverrideEvent represents an approval that deserves reviewer attention.
// This event is emitted when an applicant is approved through a
// compensating path: a strong factor outweighing a failed hard rule, or a
// near-miss score rescued by a compensating factor.
type OverrideEvent struct {
	BaseEvent
	Priority string         `json:"priority"`
	Alert    AlertInfo      `json:"alert"`
	Details  OverrideDetail `json:"details"`
	Context  AlertContext   `json:"context"`
}

// AlertInfo contains alert metadata describing the override.
type AlertInfo struct {
	Title          string `json:"title"`
	Description    string `json:"description"`
	ActionRequired string `json:"action_required"`
}

// OverrideDetail contains the specifics of the compensated approval.
type OverrideDetail struct {
	ApplicantID   string  `json:"applicant_id"`
	Kind          string  `json:"kind"`
	Policy        string  `json:"policy"`
	RiskScore     float64 `json:"risk_score"`
	PolicyMinimum float64 `json:"policy_minimum"`
	CreditScore   int     `json:"credit_score"`
	Income        float64 `json:"income"`
	LoanAmount    float64 `json:"loan_amount"`
	FailedRule    string  `json:"failed_rule,omitempty"`
	Reason        string  `json:"reason"`
}

// AlertContext contains the run context at the time of the alert.
type AlertContext struct {
	EvaluatedSoFar int `json:"evaluated_so_far"`
	OverridesSoFar int `json:"overrides_so_far"`
}

// NewOverrideEvent builds an OverrideEvent from an overridden approval.
// Returns nil when the result is not an override.
func NewOverrideEvent(runID string, r decision.Result, evaluated, overrides int) *OverrideEvent {
	kind := r.OverrideKind()
	if kind == "" {
		return nil
	}

	detail := OverrideDetail{
		ApplicantID:   r.ApplicantID,
		Kind:          kind,
		Policy:        r.Policy.Name,
		RiskScore:     r.RiskScore,
		PolicyMinimum: r.Policy.MinRiskScore,
		CreditScore:   r.Financials.CreditScore,
		Income:        r.Financials.Income,
		LoanAmount:    r.Financials.LoanAmount,
		Reason:        r.Reason,
	}
	if len(r.FailedRules) > 0 {
		detail.FailedRule = r.FailedRules[0].Rule
	}

	alert := AlertInfo{
		Title:          "Compensated approval",
		ActionRequired: "Review against the credit policy before funding",
	}
	switch kind {
	case decision.OverrideStrongFactor:
		alert.Description = fmt.Sprintf("applicant %s approved despite failing hard rule %q", r.ApplicantID, detail.FailedRule)
	case decision.OverrideNearMiss:
		alert.Description = fmt.Sprintf("applicant %s approved with risk score %.2f under the %.0f minimum", r.ApplicantID, r.RiskScore, r.Policy.MinRiskScore)
	}

	return &OverrideEvent{
		BaseEvent: BaseEvent{
			Type: EventTypeOverride,
			Time: time.Now(),
			Run:  runID,
		},
		Priority: "review",
		Alert:    alert,
		Details:  detail,
		Context: AlertContext{
			EvaluatedSoFar: evaluated,
			OverridesSoFar: overrides,
		},
	}
}
