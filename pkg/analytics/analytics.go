// Package analytics computes portfolio-level statistics over credit
// decisions. Implements the quantitative measures a lending desk reviews
// before shipping a threshold change:
// - approval rate and decision counts
// - risk score distribution over the evaluated pool
// - low-score approval share (approvals under a fixed score floor)
// - estimated default rate over the approved book
// - expected revenue, expected loss and risk-adjusted return
package analytics

import (
	"fmt"
	"sync"
	"time"

	"github.com/creditgate/creditgate/pkg/applicant"
	"github.com/creditgate/creditgate/pkg/decision"
	"github.com/creditgate/creditgate/pkg/jsonutil"
)

const (
	// PortfolioInterestRate is the nominal annual lending rate used for
	// revenue estimates. It is distinct from applicant.AnnualInterestRate,
	// which prices the affordability check inside the engine.
	PortfolioInterestRate = 0.08

	// LossGivenDefault is the share of principal written off when a loan
	// defaults.
	LossGivenDefault = 0.70

	// LowScoreThreshold marks approvals worth a second look. It is a fixed
	// yardstick and does not track the policy minimum.
	LowScoreThreshold = 60.0

	// fallbackTermMonths stands in for a missing or nonsense loan term so
	// revenue estimates stay finite.
	fallbackTermMonths = 12
)

// defaultProbabilityBands maps composite risk scores to base annual
// default probabilities. Ordered descending; first match wins.
var defaultProbabilityBands = []struct {
	atLeast float64
	prob    float64
}{
	{atLeast: 85, prob: 0.005},
	{atLeast: 80, prob: 0.01},
	{atLeast: 75, prob: 0.02},
	{atLeast: 70, prob: 0.035},
	{atLeast: 65, prob: 0.05},
	{atLeast: 60, prob: 0.08},
	{atLeast: 55, prob: 0.12},
}

// residualDefaultProbability applies below the lowest band.
const residualDefaultProbability = 0.18

// DefaultProbability estimates the probability that an approved loan
// defaults. The base curve is banded on the composite risk score; the
// bureau score and the applicant's default history scale it. The result
// is capped at 1.
func DefaultProbability(riskScore float64, creditScore, defaultHistory int) float64 {
	p := residualDefaultProbability
	for _, band := range defaultProbabilityBands {
		if riskScore >= band.atLeast {
			p = band.prob
			break
		}
	}

	switch {
	case creditScore >= 750:
		p *= 0.7
	case creditScore >= 700:
		p *= 0.85
	case creditScore < 600:
		p *= 1.2
	}

	if defaultHistory > 0 {
		p *= 1 + float64(defaultHistory)*0.15
	}

	if p > 1 {
		p = 1
	}
	return p
}

// PortfolioMetrics contains the aggregate statistics for one policy run.
type PortfolioMetrics struct {
	// Timestamp and metadata
	Timestamp time.Time `json:"timestamp"`
	Duration  float64   `json:"duration_seconds"`
	Policy    string    `json:"policy"`

	// Decision counts. Total counts evaluated records; Errored counts
	// records that never reached the engine and sit outside every rate
	// denominator.
	Total    int `json:"total"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
	Errored  int `json:"errored,omitempty"`

	// Approvals that rode a compensating path (near-miss or strong
	// factor) rather than standing on their own score.
	Overrides int `json:"overrides"`

	// Approval rate as a percentage of evaluated records.
	ApprovalRate float64 `json:"approval_rate"`

	// Risk score distribution
	MeanRiskScore     float64 `json:"mean_risk_score"`
	MinRiskScore      float64 `json:"min_risk_score"`
	MaxRiskScore      float64 `json:"max_risk_score"`
	MeanApprovedScore float64 `json:"mean_approved_score"`

	// Approvals scoring under LowScoreThreshold, and their share of all
	// approvals.
	LowScoreApprovals   int     `json:"low_score_approvals"`
	LowScoreApprovalPct float64 `json:"low_score_approval_pct"`

	// Mean per-loan default probability over the approved book, %.
	EstimatedDefaultRate float64 `json:"estimated_default_rate"`

	// Economics over the approved book at PortfolioInterestRate.
	ApprovedPrincipal  float64 `json:"approved_principal"`
	ExpectedRevenue    float64 `json:"expected_revenue"`
	ExpectedLoss       float64 `json:"expected_loss"`
	RiskAdjustedReturn float64 `json:"risk_adjusted_return"`
	ReturnOnPrincipal  float64 `json:"return_on_principal"`

	// Portfolio grade
	Grade       string `json:"grade"`
	GradeReason string `json:"grade_reason"`

	// Recommendations
	Recommendations []string `json:"recommendations,omitempty"`
}

// Calculator accumulates decision results for one policy run and computes
// portfolio metrics from them. Safe for concurrent Add from multiple
// workers.
type Calculator struct {
	mu      sync.Mutex
	policy  string
	results []decision.Result
	errored int
}

// NewCalculator creates a calculator for the named policy run.
func NewCalculator(policyName string) *Calculator {
	return &Calculator{
		policy:  policyName,
		results: make([]decision.Result, 0),
	}
}

// Add records one decision result.
func (c *Calculator) Add(r decision.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results = append(c.results, r)
}

// AddError records a record that failed before evaluation, such as a CSV
// row that did not parse.
func (c *Calculator) AddError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errored++
}

// Count returns the number of decision results recorded so far.
func (c *Calculator) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.results)
}

// Calculate computes all portfolio metrics from the recorded results.
func (c *Calculator) Calculate(duration time.Duration) *PortfolioMetrics {
	c.mu.Lock()
	defer c.mu.Unlock()

	m := &PortfolioMetrics{
		Timestamp:       time.Now(),
		Duration:        duration.Seconds(),
		Policy:          c.policy,
		Errored:         c.errored,
		Recommendations: make([]string, 0),
	}

	// Count outcomes
	c.countOutcomes(m)

	// Risk score distribution and low-score approvals
	c.scoreDistribution(m)

	// Expected credit losses over the approved book
	c.estimateDefaults(m)

	// Revenue, loss and risk-adjusted return
	c.estimateReturns(m)

	// Assign grade
	c.assignGrade(m)

	// Generate recommendations
	c.generateRecommendations(m)

	return m
}

func (c *Calculator) countOutcomes(m *PortfolioMetrics) {
	m.Total = len(c.results)
	for _, r := range c.results {
		if r.Approved() {
			m.Approved++
			if r.OverrideKind() != "" {
				m.Overrides++
			}
		} else {
			m.Rejected++
		}
	}
	if m.Total > 0 {
		m.ApprovalRate = float64(m.Approved) / float64(m.Total) * 100
	}
}

func (c *Calculator) scoreDistribution(m *PortfolioMetrics) {
	if len(c.results) == 0 {
		return
	}

	sum := 0.0
	approvedSum := 0.0
	m.MinRiskScore = c.results[0].RiskScore
	m.MaxRiskScore = c.results[0].RiskScore
	for _, r := range c.results {
		sum += r.RiskScore
		if r.RiskScore < m.MinRiskScore {
			m.MinRiskScore = r.RiskScore
		}
		if r.RiskScore > m.MaxRiskScore {
			m.MaxRiskScore = r.RiskScore
		}
		if r.Approved() {
			approvedSum += r.RiskScore
			if r.RiskScore < LowScoreThreshold {
				m.LowScoreApprovals++
			}
		}
	}
	m.MeanRiskScore = sum / float64(len(c.results))
	if m.Approved > 0 {
		m.MeanApprovedScore = approvedSum / float64(m.Approved)
		m.LowScoreApprovalPct = float64(m.LowScoreApprovals) / float64(m.Approved) * 100
	}
}

func (c *Calculator) estimateDefaults(m *PortfolioMetrics) {
	if m.Approved == 0 {
		return
	}

	sum := 0.0
	for _, r := range c.results {
		if !r.Approved() {
			continue
		}
		sum += DefaultProbability(r.RiskScore, r.Financials.CreditScore, r.Financials.DefaultHistory)
	}
	m.EstimatedDefaultRate = sum / float64(m.Approved) * 100
}

func (c *Calculator) estimateReturns(m *PortfolioMetrics) {
	for _, r := range c.results {
		if !r.Approved() {
			continue
		}

		loan := r.Financials.LoanAmount
		term := r.Financials.LoanTerm
		if term <= 0 {
			term = fallbackTermMonths
		}

		// Expected revenue is the amortized interest over the full term;
		// expected loss is principal times LGD times default probability.
		payment := applicant.AmortizedPayment(loan, PortfolioInterestRate, term)
		revenue := payment*float64(term) - loan
		p := DefaultProbability(r.RiskScore, r.Financials.CreditScore, r.Financials.DefaultHistory)
		loss := loan * LossGivenDefault * p

		m.ApprovedPrincipal += loan
		m.ExpectedRevenue += revenue
		m.ExpectedLoss += loss
	}

	m.RiskAdjustedReturn = m.ExpectedRevenue - m.ExpectedLoss
	if m.ApprovedPrincipal > 0 {
		m.ReturnOnPrincipal = m.RiskAdjustedReturn / m.ApprovedPrincipal * 100
	}
}

func (c *Calculator) assignGrade(m *PortfolioMetrics) {
	if m.Approved == 0 {
		m.Grade = "N/A"
		m.GradeReason = "No approved loans to grade"
		return
	}

	switch {
	case m.EstimatedDefaultRate < 1.0:
		m.Grade = "A+"
		m.GradeReason = "Minimal expected credit losses"
	case m.EstimatedDefaultRate < 2.0:
		m.Grade = "A"
		m.GradeReason = "Strong portfolio quality"
	case m.EstimatedDefaultRate < 3.5:
		m.Grade = "B"
		m.GradeReason = "Acceptable credit risk"
	case m.EstimatedDefaultRate < 5.0:
		m.Grade = "C"
		m.GradeReason = "Elevated credit risk"
	case m.EstimatedDefaultRate < 8.0:
		m.Grade = "D"
		m.GradeReason = "High expected losses, tighten thresholds"
	default:
		m.Grade = "F"
		m.GradeReason = "Unsustainable expected losses"
	}

	// A negative carry caps the grade regardless of the default rate.
	if m.RiskAdjustedReturn < 0 {
		switch m.Grade {
		case "A+", "A", "B":
			m.Grade = "C"
			m.GradeReason = "Expected losses exceed interest income"
		}
	}
}

func (c *Calculator) generateRecommendations(m *PortfolioMetrics) {
	if m.Total == 0 {
		m.Recommendations = append(m.Recommendations,
			"No records evaluated. Check the input source.")
		return
	}

	if m.Approved == 0 {
		m.Recommendations = append(m.Recommendations,
			"No applicants approved. Thresholds may be rejecting the entire pool; consider the relaxed preset.")
		return
	}

	// High expected defaults
	if m.EstimatedDefaultRate > 5.0 {
		m.Recommendations = append(m.Recommendations,
			fmt.Sprintf("Estimated default rate is %.2f%%. Consider the strict preset or a higher minimum score.",
				m.EstimatedDefaultRate))
	}

	// Too many marginal approvals
	if m.LowScoreApprovalPct > 10.0 {
		m.Recommendations = append(m.Recommendations,
			fmt.Sprintf("%.1f%% of approvals score below %.0f. Review the compensating-factor overrides.",
				m.LowScoreApprovalPct, LowScoreThreshold))
	}

	// Negative carry
	if m.RiskAdjustedReturn < 0 {
		m.Recommendations = append(m.Recommendations,
			fmt.Sprintf("Risk-adjusted return is %.2f. Expected losses exceed interest income at the %.0f%% lending rate.",
				m.RiskAdjustedReturn, PortfolioInterestRate*100))
	}

	// Suspiciously tight book
	if m.ApprovalRate < 10.0 {
		m.Recommendations = append(m.Recommendations,
			fmt.Sprintf("Approval rate is %.2f%%. Thresholds may be leaving volume on the table; consider the relaxed preset.",
				m.ApprovalRate))
	}

	if len(m.Recommendations) == 0 {
		m.Recommendations = append(m.Recommendations,
			"✓ Portfolio is within normal operating bounds - no action needed.")
	}
}

// ToJSON serializes metrics to indented JSON.
func (m *PortfolioMetrics) ToJSON() ([]byte, error) {
	return jsonutil.MarshalIndent(m, "", "  ")
}

// Summary returns a human-readable portfolio report.
func (m *PortfolioMetrics) Summary() string {
	return fmt.Sprintf(`
PORTFOLIO ASSESSMENT SUMMARY
═══════════════════════════════════════════════════════
Policy:         %s
Grade:          %s (%s)

DECISIONS
┌──────────────────────────────────────────────────────┐
│ Approved:        %-8d  Rejected:        %-8d │
│ Errored:         %-8d  Total:           %-8d │
└──────────────────────────────────────────────────────┘

APPROVALS
  Approval Rate:           %6.2f%%
  Low-Score Approvals:     %6d (%.2f%% of approved)

RISK SCORES
  Mean:                    %6.2f
  Mean (approved):         %6.2f
  Range:                   %6.2f to %.2f

PORTFOLIO ECONOMICS
  Est. Default Rate:       %6.2f%%
  Approved Principal:      %16.2f
  Expected Revenue:        %16.2f
  Expected Loss:           %16.2f
  Risk-Adjusted Return:    %16.2f
  Return on Principal:     %6.2f%%
═══════════════════════════════════════════════════════
`,
		m.Policy,
		m.Grade, m.GradeReason,
		m.Approved, m.Rejected,
		m.Errored, m.Total,
		m.ApprovalRate,
		m.LowScoreApprovals, m.LowScoreApprovalPct,
		m.MeanRiskScore,
		m.MeanApprovedScore,
		m.MinRiskScore, m.MaxRiskScore,
		m.EstimatedDefaultRate,
		m.ApprovedPrincipal,
		m.ExpectedRevenue,
		m.ExpectedLoss,
		m.RiskAdjustedReturn,
		m.ReturnOnPrincipal,
	)
}
