// Package decision implements the approve/reject engine: a hard-rule
// gate over policy thresholds, followed by ordered compensating-factor
// overrides for near-miss scores and narrowly failed gates.
//
// Evaluate is a pure function of (record, thresholds): no I/O, no
// clock, no randomness. Observability belongs to the callers.
package decision

import (
	"fmt"
	"math"
	"strings"

	"github.com/creditgate/creditgate/pkg/applicant"
	"github.com/creditgate/creditgate/pkg/policy"
	"github.com/creditgate/creditgate/pkg/scoring"
)

// Outcome is the final verdict on an application.
type Outcome string

const (
	Approve Outcome = "approve"
	Reject  Outcome = "reject"
)

// RuleFailure names one violated hard rule. Rule is a stable identifier
// fit for metric labels; Reason is the human-readable text.
type RuleFailure struct {
	Rule   string `json:"rule"`
	Reason string `json:"reason"`
}

// Snapshot echoes the applicant figures the decision was based on,
// including the derived payment numbers. PaymentToIncome is rounded to
// four decimal places for display; the gate compares the unrounded
// value.
type Snapshot struct {
	Age             int     `json:"age"`
	Income          float64 `json:"income"`
	CreditScore     int     `json:"credit_score"`
	DebtToIncome    float64 `json:"debt_to_income"`
	LoanAmount      float64 `json:"loan_amount"`
	LoanTerm        int     `json:"loan_term"`
	MonthlyPayment  float64 `json:"monthly_payment"`
	PaymentToIncome float64 `json:"payment_to_income"`
	EmploymentYears int     `json:"employment_years"`
	LatePayments    int     `json:"late_payments"`
	DefaultHistory  int     `json:"default_history"`
}

// Result is the terminal value returned for one evaluation. It is never
// mutated after creation.
type Result struct {
	ApplicantID string             `json:"user_id"`
	Outcome     Outcome            `json:"decision"`
	Reason      string             `json:"reason"`
	RiskScore   float64            `json:"risk_score"`
	Dimensions  scoring.Dimensions `json:"risk_dimensions"`
	Policy      policy.Thresholds  `json:"policy"`
	FailedRules []RuleFailure      `json:"failed_rules,omitempty"`
	Financials  Snapshot           `json:"financials"`
}

// Approved reports whether the result is an approval.
func (r Result) Approved() bool { return r.Outcome == Approve }

// Override kinds reported by OverrideKind.
const (
	OverrideStrongFactor = "strong_factor"
	OverrideNearMiss     = "near_miss"
)

// OverrideKind reports which compensating path produced an approval, or
// "" for rejections and approvals that stood on their own. Approvals with
// failed rules only happen through the strong-factor branch; approvals
// under the policy minimum only through the near-miss branch.
func (r Result) OverrideKind() string {
	if !r.Approved() {
		return ""
	}
	if len(r.FailedRules) > 0 {
		return OverrideStrongFactor
	}
	if r.RiskScore < r.Policy.MinRiskScore {
		return OverrideNearMiss
	}
	return ""
}

// Engine evaluates applications against one threshold preset. The zero
// value is unusable; construct with New. Engines are values and safe to
// share across goroutines.
type Engine struct {
	thresholds policy.Thresholds
}

// New returns an engine bound to the given preset.
func New(t policy.Thresholds) Engine {
	return Engine{thresholds: t}
}

// Thresholds returns the preset the engine was built with.
func (e Engine) Thresholds() policy.Thresholds { return e.thresholds }

// Evaluate scores the record and applies the decision procedure:
//
//  1. Run every hard rule, collecting failures.
//  2. Gate passed: approve when the risk score meets the policy
//     minimum; otherwise consult near-miss compensating factors in
//     order; otherwise reject.
//  3. Gate failed: approve only when a strong factor holds and at most
//     one rule failed; otherwise reject naming every violated rule.
func (e Engine) Evaluate(a applicant.Applicant) Result {
	a = a.Normalize()
	fin := applicant.DeriveFinancials(a)
	scored := scoring.Score(a)

	failures := evaluateGate(a, fin, e.thresholds)
	outcome, reason := decide(a, scored.Score, failures, e.thresholds)

	return Result{
		ApplicantID: a.ID,
		Outcome:     outcome,
		Reason:      reason,
		RiskScore:   scored.Score,
		Dimensions:  scored.Dimensions,
		Policy:      e.thresholds,
		FailedRules: failures,
		Financials:  newSnapshot(a, fin),
	}
}

// Evaluate is a convenience for one-off evaluations.
func Evaluate(a applicant.Applicant, t policy.Thresholds) Result {
	return New(t).Evaluate(a)
}

// decide applies the ordered decision procedure to an already-scored
// record. Split out from Evaluate so each branch is testable with
// synthetic scores.
func decide(a applicant.Applicant, score float64, failures []RuleFailure, t policy.Thresholds) (Outcome, string) {
	if len(failures) == 0 {
		if score >= t.MinRiskScore {
			return Approve, fmt.Sprintf("passed all hard rules; risk score %.2f meets minimum %.0f", score, t.MinRiskScore)
		}
		if score >= t.MinRiskScore-nearMissBand {
			for _, factor := range nearMissFactors {
				if factor.applies(a) {
					return Approve, fmt.Sprintf("risk score %.2f within %.0f of minimum %.0f; compensating factor: %s",
						score, nearMissBand, t.MinRiskScore, factor.describe(a))
				}
			}
			return Reject, fmt.Sprintf("risk score %.2f below minimum %.0f and no compensating factor applies", score, t.MinRiskScore)
		}
		return Reject, fmt.Sprintf("risk score %.2f below minimum %.0f", score, t.MinRiskScore)
	}

	strong := strongFactors(a)
	if len(strong) > 0 && len(failures) <= maxOverridableFailures {
		return Approve, fmt.Sprintf("failed hard rule (%s) but strong factors outweigh: %s",
			failures[0].Reason, strings.Join(strong, "; "))
	}
	return Reject, fmt.Sprintf("failed %d hard %s: %s", len(failures), ruleWord(len(failures)), joinReasons(failures))
}

func newSnapshot(a applicant.Applicant, fin applicant.Financials) Snapshot {
	return Snapshot{
		Age:             a.Age,
		Income:          a.Income,
		CreditScore:     a.CreditScore,
		DebtToIncome:    a.DebtToIncome,
		LoanAmount:      a.LoanAmount,
		LoanTerm:        a.LoanTerm,
		MonthlyPayment:  fin.MonthlyPayment,
		PaymentToIncome: math.Round(fin.PaymentToIncome*10000) / 10000,
		EmploymentYears: a.EmploymentYears,
		LatePayments:    a.LatePayments,
		DefaultHistory:  a.DefaultHistory,
	}
}

func joinReasons(failures []RuleFailure) string {
	reasons := make([]string, len(failures))
	for i, f := range failures {
		reasons[i] = f.Reason
	}
	return strings.Join(reasons, "; ")
}

func ruleWord(n int) string {
	if n == 1 {
		return "rule"
	}
	return "rules"
}
