// Package guardrail evaluates portfolio run results against a YAML
// fail-on policy for CI/CD integration. A guardrail never changes a
// decision: it decides whether the run as a whole passes, so a pipeline
// can block a threshold change that would swing the approval rate or the
// projected default rate past agreed limits.
package guardrail

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/creditgate/creditgate/pkg/analytics"
	"github.com/creditgate/creditgate/presets"
)

// ErrGuardrailNotFound is returned when a guardrail file does not exist.
var ErrGuardrailNotFound = errors.New("guardrail file not found")

// ErrInvalidGuardrail is returned when a guardrail file is malformed.
var ErrInvalidGuardrail = errors.New("invalid guardrail file")

// Guardrail represents a parsed fail-on configuration.
type Guardrail struct {
	Version string `yaml:"version"`
	Name    string `yaml:"name"`
	FailOn  FailOn `yaml:"fail_on"`

	mu sync.RWMutex // protects evaluation
}

// FailOn defines conditions that cause a run to fail. Nil fields are not
// checked.
type FailOn struct {
	// ApprovalRateAbovePct fails the run when the approval rate exceeds
	// this percentage. Guards against a relaxation approving too freely.
	ApprovalRateAbovePct *float64 `yaml:"approval_rate_above_pct"`

	// ApprovalRateBelowPct fails the run when the approval rate falls
	// below this percentage. Guards against a tightening choking volume.
	ApprovalRateBelowPct *float64 `yaml:"approval_rate_below_pct"`

	// Overrides caps compensated approvals by kind.
	Overrides OverrideThresholds `yaml:"overrides"`

	// LowScoreApprovalPctAbove fails when the share of approvals scoring
	// under the low-score line exceeds this percentage.
	LowScoreApprovalPctAbove *float64 `yaml:"low_score_approval_pct_above"`

	// DefaultRateAbovePct fails when the projected default rate over the
	// approved book exceeds this percentage.
	DefaultRateAbovePct *float64 `yaml:"default_rate_above_pct"`

	// ReturnBelowPct fails when the projected return on approved
	// principal falls below this percentage.
	ReturnBelowPct *float64 `yaml:"return_below_pct"`

	// ErrorRateAbovePct fails when the share of records that failed
	// validation exceeds this percentage of the batch.
	ErrorRateAbovePct *float64 `yaml:"error_rate_above_pct"`

	// GradeWorseThan fails when the portfolio grade ranks below the
	// given grade (A+, A, B, C, D, F).
	GradeWorseThan string `yaml:"grade_worse_than"`
}

// OverrideThresholds caps compensated approvals. A value of N fails the
// run when the count exceeds N; nil means unlimited.
type OverrideThresholds struct {
	Total *int `yaml:"total"`
}

// SummaryData holds the run metrics a guardrail evaluates.
type SummaryData struct {
	// Total is the number of evaluated records.
	Total int

	// Approved is the number of approvals.
	Approved int

	// Overrides is the number of compensated approvals.
	Overrides int

	// ApprovalRatePct is the approval rate percentage (0-100).
	ApprovalRatePct float64

	// LowScoreApprovalPct is the share of approvals under the low-score
	// line, as a percentage of all approvals.
	LowScoreApprovalPct float64

	// DefaultRatePct is the projected default rate percentage.
	DefaultRatePct float64

	// ReturnOnPrincipalPct is the projected return on approved principal.
	ReturnOnPrincipalPct float64

	// ErrorRatePct is the share of records that failed validation,
	// as a percentage of the whole batch including errored records.
	ErrorRatePct float64

	// Grade is the portfolio grade (A+ to F).
	Grade string
}

// Result contains the outcome of a guardrail evaluation.
type Result struct {
	// Pass is true if the guardrail passed (no failures).
	Pass bool

	// Failures contains human-readable failure messages.
	Failures []string

	// ExitCode is the recommended exit code based on the result.
	// 0 = pass, 1 = guardrail breached.
	ExitCode int

	// Name is the name of the evaluated guardrail.
	Name string
}

// gradeRank orders portfolio grades, best first.
var gradeRank = map[string]int{
	"A+": 0,
	"A":  1,
	"B":  2,
	"C":  3,
	"D":  4,
	"F":  5,
}

// Load loads and parses a guardrail file from the given path.
// Returns ErrGuardrailNotFound if the file doesn't exist.
// Returns ErrInvalidGuardrail if the file is malformed.
func Load(path string) (*Guardrail, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrGuardrailNotFound, path)
		}
		return nil, fmt.Errorf("reading guardrail file: %w", err)
	}

	return Parse(data)
}

// LoadPreset loads one of the bundled guardrail presets by name
// ("ci-strict" or "ci-relaxed").
func LoadPreset(name string) (*Guardrail, error) {
	data, err := presets.FS.ReadFile(name + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("%w: preset %q", ErrGuardrailNotFound, name)
	}
	return Parse(data)
}

// Parse parses guardrail YAML data.
// Returns ErrInvalidGuardrail if the data is malformed.
func Parse(data []byte) (*Guardrail, error) {
	var g Guardrail
	if err := yaml.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidGuardrail, err)
	}

	if g.Version == "" {
		g.Version = "1.0"
	}
	if g.FailOn.GradeWorseThan != "" {
		grade := strings.ToUpper(strings.TrimSpace(g.FailOn.GradeWorseThan))
		if _, ok := gradeRank[grade]; !ok {
			return nil, fmt.Errorf("%w: unknown grade %q", ErrInvalidGuardrail, g.FailOn.GradeWorseThan)
		}
		g.FailOn.GradeWorseThan = grade
	}

	return &g, nil
}

// SummaryFromMetrics projects portfolio metrics onto the guardrail's
// evaluation input.
func SummaryFromMetrics(m *analytics.PortfolioMetrics) SummaryData {
	s := SummaryData{
		Total:                m.Total,
		Approved:             m.Approved,
		Overrides:            m.Overrides,
		ApprovalRatePct:      m.ApprovalRate,
		LowScoreApprovalPct:  m.LowScoreApprovalPct,
		DefaultRatePct:       m.EstimatedDefaultRate,
		ReturnOnPrincipalPct: m.ReturnOnPrincipal,
		Grade:                m.Grade,
	}
	if batch := m.Total + m.Errored; batch > 0 {
		s.ErrorRatePct = float64(m.Errored) / float64(batch) * 100
	}
	return s
}

// Evaluate evaluates the guardrail against the given run summary.
// This method is thread-safe.
func (g *Guardrail) Evaluate(summary SummaryData) Result {
	g.mu.RLock()
	defer g.mu.RUnlock()

	result := Result{
		Pass:     true,
		Failures: make([]string, 0),
		Name:     g.Name,
	}

	g.checkApprovalRate(&result, summary)
	g.checkOverrides(&result, summary)
	g.checkBook(&result, summary)
	g.checkErrorRate(&result, summary)
	g.checkGrade(&result, summary)

	if len(result.Failures) > 0 {
		result.Pass = false
		result.ExitCode = 1
	}

	return result
}

// checkApprovalRate checks both directions of the approval-rate corridor.
func (g *Guardrail) checkApprovalRate(result *Result, summary SummaryData) {
	if above := g.FailOn.ApprovalRateAbovePct; above != nil && summary.ApprovalRatePct > *above {
		result.Failures = append(result.Failures,
			fmt.Sprintf("approval rate (%.1f%%) exceeds threshold (%.1f%%)",
				summary.ApprovalRatePct, *above))
	}
	if below := g.FailOn.ApprovalRateBelowPct; below != nil && summary.ApprovalRatePct < *below {
		result.Failures = append(result.Failures,
			fmt.Sprintf("approval rate (%.1f%%) under threshold (%.1f%%)",
				summary.ApprovalRatePct, *below))
	}
}

// checkOverrides checks compensated-approval counts.
func (g *Guardrail) checkOverrides(result *Result, summary SummaryData) {
	if total := g.FailOn.Overrides.Total; total != nil && summary.Overrides > *total {
		result.Failures = append(result.Failures,
			fmt.Sprintf("compensated approvals (%d) exceed threshold (%d)",
				summary.Overrides, *total))
	}
}

// checkBook checks the projected quality of the approved book.
func (g *Guardrail) checkBook(result *Result, summary SummaryData) {
	if low := g.FailOn.LowScoreApprovalPctAbove; low != nil && summary.LowScoreApprovalPct > *low {
		result.Failures = append(result.Failures,
			fmt.Sprintf("low-score approvals (%.1f%% of approvals) exceed threshold (%.1f%%)",
				summary.LowScoreApprovalPct, *low))
	}
	if rate := g.FailOn.DefaultRateAbovePct; rate != nil && summary.DefaultRatePct > *rate {
		result.Failures = append(result.Failures,
			fmt.Sprintf("projected default rate (%.2f%%) exceeds threshold (%.2f%%)",
				summary.DefaultRatePct, *rate))
	}
	if ret := g.FailOn.ReturnBelowPct; ret != nil && summary.ReturnOnPrincipalPct < *ret {
		result.Failures = append(result.Failures,
			fmt.Sprintf("projected return on principal (%.2f%%) under threshold (%.2f%%)",
				summary.ReturnOnPrincipalPct, *ret))
	}
}

// checkErrorRate checks the validation error share of the batch.
func (g *Guardrail) checkErrorRate(result *Result, summary SummaryData) {
	if rate := g.FailOn.ErrorRateAbovePct; rate != nil && summary.ErrorRatePct > *rate {
		result.Failures = append(result.Failures,
			fmt.Sprintf("record error rate (%.1f%%) exceeds threshold (%.1f%%)",
				summary.ErrorRatePct, *rate))
	}
}

// checkGrade checks the portfolio grade floor.
func (g *Guardrail) checkGrade(result *Result, summary SummaryData) {
	floor := g.FailOn.GradeWorseThan
	if floor == "" || summary.Grade == "" {
		return
	}
	rank, ok := gradeRank[summary.Grade]
	if !ok {
		return
	}
	if rank > gradeRank[floor] {
		result.Failures = append(result.Failures,
			fmt.Sprintf("portfolio grade %s ranks below floor %s", summary.Grade, floor))
	}
}
