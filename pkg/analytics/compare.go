package analytics

import (
	"fmt"

	"github.com/creditgate/creditgate/pkg/jsonutil"
)

// Comparison quantifies the effect of relaxing thresholds: the relaxed
// run measured against the strict run over the same applicant pool.
type Comparison struct {
	Strict  *PortfolioMetrics `json:"strict"`
	Relaxed *PortfolioMetrics `json:"relaxed"`

	// Deltas, relaxed minus strict. Rate diffs are percentage points;
	// gain percentages are relative to the strict figure.
	ApprovalRateDiff   float64 `json:"approval_rate_diff"`
	AdditionalApproved int     `json:"additional_approved"`
	ApprovalGainPct    float64 `json:"approval_gain_pct"`
	DefaultRateDiff    float64 `json:"default_rate_diff"`
	DefaultRateGainPct float64 `json:"default_rate_gain_pct"`
	ReturnDiff         float64 `json:"return_diff"`

	Recommendation string `json:"recommendation"`
}

// Compare measures the relaxed run against the strict run. Both runs must
// cover the same applicant pool for the deltas to mean anything.
func Compare(strict, relaxed *PortfolioMetrics) *Comparison {
	c := &Comparison{
		Strict:             strict,
		Relaxed:            relaxed,
		ApprovalRateDiff:   relaxed.ApprovalRate - strict.ApprovalRate,
		AdditionalApproved: relaxed.Approved - strict.Approved,
		DefaultRateDiff:    relaxed.EstimatedDefaultRate - strict.EstimatedDefaultRate,
		ReturnDiff:         relaxed.RiskAdjustedReturn - strict.RiskAdjustedReturn,
	}

	if strict.ApprovalRate > 0 {
		c.ApprovalGainPct = c.ApprovalRateDiff / strict.ApprovalRate * 100
	}
	if strict.EstimatedDefaultRate > 0 {
		c.DefaultRateGainPct = c.DefaultRateDiff / strict.EstimatedDefaultRate * 100
	}

	c.Recommendation = c.recommend()
	return c
}

func (c *Comparison) recommend() string {
	switch {
	case c.AdditionalApproved <= 0:
		return "Relaxed thresholds approve no additional applicants; keep the strict preset."
	case c.ReturnDiff > 0:
		return fmt.Sprintf("Relaxing approves %d more applicants and adds %.2f in risk-adjusted return; the added interest outearns the added defaults.",
			c.AdditionalApproved, c.ReturnDiff)
	default:
		return fmt.Sprintf("Relaxing approves %d more applicants but costs %.2f in risk-adjusted return; the added defaults outweigh the added interest.",
			c.AdditionalApproved, -c.ReturnDiff)
	}
}

// ToJSON serializes the comparison to indented JSON.
func (c *Comparison) ToJSON() ([]byte, error) {
	return jsonutil.MarshalIndent(c, "", "  ")
}

// Summary returns a human-readable comparison report.
func (c *Comparison) Summary() string {
	return fmt.Sprintf(`
POLICY COMPARISON
═══════════════════════════════════════════════════════
%-27s%10s  %10s  %10s
%-27s%9.2f%%  %9.2f%%  %+8.2fpp
%-27s%10d  %10d  %+10d
%-27s%9.2f%%  %9.2f%%  %+8.2fpp
%-27s%10.2f  %10.2f  %+10.2f

Approval gain:      %+.2f%% relative to the %s approval rate
Default-rate gain:  %+.2f%% relative to the %s default rate

%s
═══════════════════════════════════════════════════════
`,
		"", c.Strict.Policy, c.Relaxed.Policy, "delta",
		"Approval Rate:", c.Strict.ApprovalRate, c.Relaxed.ApprovalRate, c.ApprovalRateDiff,
		"Approved:", c.Strict.Approved, c.Relaxed.Approved, c.AdditionalApproved,
		"Est. Default Rate:", c.Strict.EstimatedDefaultRate, c.Relaxed.EstimatedDefaultRate, c.DefaultRateDiff,
		"Risk-Adjusted Return:", c.Strict.RiskAdjustedReturn, c.Relaxed.RiskAdjustedReturn, c.ReturnDiff,
		c.ApprovalGainPct, c.Strict.Policy,
		c.DefaultRateGainPct, c.Strict.Policy,
		c.Recommendation,
	)
}
