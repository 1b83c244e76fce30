// Package writers provides output writers for various formats.
package writers

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/creditgate/creditgate/pkg/analytics"
	"github.com/creditgate/creditgate/pkg/decision"
	"github.com/creditgate/creditgate/pkg/output/dispatcher"
	"github.com/creditgate/creditgate/pkg/output/events"
	"github.com/creditgate/creditgate/pkg/policy"
)

// Compile-time interface check.
var _ dispatcher.Writer = (*MarkdownWriter)(nil)

// MarkdownConfig configures the Markdown report writer.
type MarkdownConfig struct {
	// Title is the report title (default: "Credit Decision Report")
	Title string

	// Flavor sets the Markdown flavor: "github", "gitlab", or "standard" (default: "github")
	Flavor string

	// SortBy sets the decision sorting order: "score", "decision", or "applicant" (default: "score")
	// Can be overridden by MARKDOWN_EXPORT_SORT_MODE environment variable.
	SortBy string

	// IncludeTOC includes a table of contents (default in DefaultMarkdownConfig: true)
	IncludeTOC bool

	// IncludePolicy includes the policy threshold table (default: true)
	IncludePolicy bool

	// IncludeReasons includes the rejection reason table (default: true)
	IncludeReasons bool

	// IncludeFinancials includes per-override financial figures (default: true)
	IncludeFinancials bool

	// CollapseSections uses details/summary for collapsible decision sections (default: true)
	CollapseSections bool

	// MaxReasonLen truncates reason cells to this length (default: 80)
	MaxReasonLen int

	// ShowExecutiveSummary includes an executive summary section with key metrics (default: true)
	ShowExecutiveSummary bool

	// ShowRiskBars includes visual ASCII risk distribution bars (default: true)
	ShowRiskBars bool

	// UseEmojis includes band/outcome emojis in the report (default: true)
	UseEmojis bool

	// UseCollapsible enables GitHub-flavored <details> blocks (default: true)
	UseCollapsible bool
}

// DefaultMarkdownConfig returns the standard report configuration with
// every section enabled.
func DefaultMarkdownConfig() MarkdownConfig {
	return MarkdownConfig{
		Title:                "Credit Decision Report",
		Flavor:               "github",
		SortBy:               "score",
		IncludeTOC:           true,
		IncludePolicy:        true,
		IncludeReasons:       true,
		IncludeFinancials:    true,
		CollapseSections:     true,
		MaxReasonLen:         80,
		ShowExecutiveSummary: true,
		ShowRiskBars:         true,
		UseEmojis:            true,
		UseCollapsible:       true,
	}
}

// MarkdownWriter writes events as a Markdown portfolio report.
// It buffers all events in memory and renders the complete document on Close.
// The writer is safe for concurrent use.
type MarkdownWriter struct {
	w         io.Writer
	mu        sync.Mutex
	config    MarkdownConfig
	start     *events.StartEvent
	decisions []*events.DecisionEvent
	overrides []*events.OverrideEvent
	summary   *events.SummaryEvent
}

// NewMarkdownWriter creates a new Markdown report writer.
// The writer buffers all events and writes a complete report on Close.
func NewMarkdownWriter(w io.Writer, config MarkdownConfig) *MarkdownWriter {
	if config.Title == "" {
		config.Title = "Credit Decision Report"
	}
	if config.Flavor == "" {
		config.Flavor = "github"
	}
	// Environment variable override for sort mode
	if envSort := os.Getenv("MARKDOWN_EXPORT_SORT_MODE"); envSort != "" {
		config.SortBy = envSort
	}
	if config.SortBy == "" {
		config.SortBy = "score"
	}
	if config.MaxReasonLen == 0 {
		config.MaxReasonLen = 80
	}
	return &MarkdownWriter{
		w:         w,
		config:    config,
		decisions: make([]*events.DecisionEvent, 0),
		overrides: make([]*events.OverrideEvent, 0),
	}
}

// Write buffers an event for later Markdown output.
func (mw *MarkdownWriter) Write(event events.Event) error {
	mw.mu.Lock()
	defer mw.mu.Unlock()

	switch e := event.(type) {
	case *events.StartEvent:
		mw.start = e
	case *events.DecisionEvent:
		mw.decisions = append(mw.decisions, e)
	case *events.OverrideEvent:
		mw.overrides = append(mw.overrides, e)
	case *events.SummaryEvent:
		mw.summary = e
	}
	return nil
}

// Flush is a no-op for Markdown writer.
// All events are written as a single Markdown document on Close.
func (mw *MarkdownWriter) Flush() error {
	return nil
}

// Close renders and writes the complete Markdown report.
func (mw *MarkdownWriter) Close() error {
	mw.mu.Lock()
	defer mw.mu.Unlock()

	sb := &strings.Builder{}
	mw.renderMarkdown(sb)

	if _, err := io.WriteString(mw.w, sb.String()); err != nil {
		return fmt.Errorf("failed to write Markdown: %w", err)
	}

	if closer, ok := mw.w.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// SupportsEvent returns true for start, decision, override and summary events.
func (mw *MarkdownWriter) SupportsEvent(eventType events.EventType) bool {
	switch eventType {
	case events.EventTypeStart, events.EventTypeDecision, events.EventTypeOverride, events.EventTypeSummary:
		return true
	default:
		return false
	}
}

// riskBand is a display grouping of composite risk scores. Band edges
// match the summary table in the terminal writer.
type riskBand string

const (
	bandPrime    riskBand = "80+"
	bandStrong   riskBand = "70-79"
	bandWatch    riskBand = "60-69"
	bandSubprime riskBand = "below 60"
)

// riskBands lists bands from safest to riskiest for stable report rows.
var riskBands = []riskBand{bandPrime, bandStrong, bandWatch, bandSubprime}

func bandFor(score float64) riskBand {
	switch {
	case score >= 80:
		return bandPrime
	case score >= 70:
		return bandStrong
	case score >= 60:
		return bandWatch
	default:
		return bandSubprime
	}
}

// bandEmoji returns the emoji icon for a risk band.
func bandEmoji(b riskBand) string {
	switch b {
	case bandPrime:
		return "🟢"
	case bandStrong:
		return "🟡"
	case bandWatch:
		return "🟠"
	default:
		return "🔴"
	}
}

// outcomeEmoji returns the emoji icon for a decision outcome.
func outcomeEmoji(o decision.Outcome) string {
	switch o {
	case decision.Approve:
		return "✅"
	case decision.Reject:
		return "❌"
	default:
		return "ℹ️"
	}
}

// Hard rule identifiers with display descriptions. "risk_score" is the
// pseudo rule reported for score-floor rejections, which carry no failed
// hard rules.
var ruleDescriptions = map[string]string{
	"credit_score":      "Credit score below the policy minimum",
	"debt_to_income":    "Debt-to-income ratio above the policy maximum",
	"payment_to_income": "Payment-to-income ratio above the policy maximum",
	"employment_years":  "Employment history shorter than the policy minimum",
	"late_payments":     "Late payment count above the policy maximum",
	"default_history":   "Default history above the policy maximum",
	"risk_score":        "Composite risk score below the policy minimum",
}

// renderBandBar generates a text-based risk distribution bar.
func renderBandBar(counts map[riskBand]int, total int, useEmojis bool) string {
	if total == 0 {
		return "*No decisions*\n"
	}

	sb := &strings.Builder{}
	sb.WriteString("```\n")

	maxBarLen := 20
	for _, band := range riskBands {
		count := counts[band]
		if count == 0 {
			continue
		}

		pct := float64(count) / float64(total) * 100
		barLen := int(float64(count) / float64(total) * float64(maxBarLen))
		if barLen == 0 && count > 0 {
			barLen = 1
		}

		bar := strings.Repeat("█", barLen) + strings.Repeat("░", maxBarLen-barLen)
		emoji := ""
		if useEmojis {
			emoji = bandEmoji(band) + " "
		}
		sb.WriteString(fmt.Sprintf("%s%-8s %s %d (%.0f%%)\n", emoji, string(band), bar, count, pct))
	}
	sb.WriteString("```\n")

	return sb.String()
}

func (mw *MarkdownWriter) renderMarkdown(sb *strings.Builder) {
	// Sort decisions based on config
	sortedDecisions := mw.sortDecisions()

	// Count decisions by risk band
	bandCounts := make(map[riskBand]int)
	approvedByBand := make(map[riskBand]int)
	approved := 0
	for _, d := range sortedDecisions {
		band := bandFor(d.Decision.RiskScore)
		bandCounts[band]++
		if d.Decision.Outcome == decision.Approve {
			approved++
			approvedByBand[band]++
		}
	}
	rejected := len(sortedDecisions) - approved

	// Build rejection rule stats
	ruleStats := mw.buildRuleStats()

	// Render title
	sb.WriteString(fmt.Sprintf("# %s\n\n", mw.config.Title))
	sb.WriteString(fmt.Sprintf("*Generated: %s*\n\n", time.Now().Format("2006-01-02 15:04:05 MST")))

	// Render Table of Contents
	if mw.config.IncludeTOC {
		mw.renderTOC(sb)
	}

	// Render executive summary
	if mw.config.ShowExecutiveSummary {
		mw.renderExecutiveSummary(sb, approved, rejected)
	}

	// Render summary section
	mw.renderSummary(sb, bandCounts, approvedByBand)

	// Render risk distribution bars
	if mw.config.ShowRiskBars {
		sb.WriteString("## Risk Distribution\n\n")
		sb.WriteString(renderBandBar(bandCounts, len(sortedDecisions), mw.config.UseEmojis))
		sb.WriteString("\n")
	}

	// Render policy threshold table
	if mw.config.IncludePolicy {
		mw.renderPolicyTable(sb)
	}

	// Render rejection reason table
	if mw.config.IncludeReasons {
		mw.renderReasonTable(sb, ruleStats, rejected)
	}

	// Render compensated approvals
	mw.renderOverrides(sb)

	// Render decisions
	mw.renderDecisions(sb, sortedDecisions)
}

func (mw *MarkdownWriter) renderTOC(sb *strings.Builder) {
	sb.WriteString("## Table of Contents\n\n")
	if mw.config.ShowExecutiveSummary {
		sb.WriteString("- [Executive Summary](#executive-summary)\n")
	}
	sb.WriteString("- [Summary](#summary)\n")
	if mw.config.ShowRiskBars {
		sb.WriteString("- [Risk Distribution](#risk-distribution)\n")
	}

	if mw.config.IncludePolicy {
		sb.WriteString("- [Policy Thresholds](#policy-thresholds)\n")
	}
	if mw.config.IncludeReasons {
		sb.WriteString("- [Top Rejection Reasons](#top-rejection-reasons)\n")
	}

	sb.WriteString("- [Compensated Approvals](#compensated-approvals)\n")
	sb.WriteString("- [Decisions](#decisions)\n")
	sb.WriteString("\n")
}

// renderExecutiveSummary renders a high-level executive summary section.
func (mw *MarkdownWriter) renderExecutiveSummary(sb *strings.Builder, approved, rejected int) {
	sb.WriteString("## Executive Summary\n\n")

	// Key metrics table
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")

	sb.WriteString(fmt.Sprintf("| Applicants Evaluated | %d |\n", len(mw.decisions)))

	if p := mw.portfolio(); p != nil {
		sb.WriteString(fmt.Sprintf("| Approval Rate | %.1f%% |\n", p.ApprovalRate))
		sb.WriteString(fmt.Sprintf("| Est. Default Rate | %.2f%% |\n", p.EstimatedDefaultRate))
		sb.WriteString(fmt.Sprintf("| Risk-Adjusted Return | %.2f |\n", p.RiskAdjustedReturn))
		sb.WriteString(fmt.Sprintf("| Portfolio Grade | **%s** |\n", p.Grade))
	} else {
		sb.WriteString(fmt.Sprintf("| Approved | %d |\n", approved))
		sb.WriteString(fmt.Sprintf("| Rejected | %d |\n", rejected))
	}

	sb.WriteString(fmt.Sprintf("| Compensated Approvals | %d |\n", len(mw.overrides)))
	sb.WriteString("\n")

	// Key recommendations
	sb.WriteString("### Key Recommendations\n\n")

	recommendations := mw.generateRecommendations()
	for i, rec := range recommendations {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, rec))
	}
	sb.WriteString("\n")
}

// generateRecommendations generates context-aware recommendations for the run.
func (mw *MarkdownWriter) generateRecommendations() []string {
	recommendations := make([]string, 0, 5)

	// Overrides always need a reviewer
	if n := len(mw.overrides); n > 0 {
		recommendations = append(recommendations,
			fmt.Sprintf("**REVIEW:** %d compensated %s need a second look before funding", n, approvalWord(n)))
	}

	// Portfolio-level recommendations from the summary
	if p := mw.portfolio(); p != nil {
		recommendations = append(recommendations, p.Recommendations...)
	}

	// Preset comparison recommendation from the summary
	if mw.summary != nil && mw.summary.Comparison != nil && mw.summary.Comparison.Recommendation != "" {
		recommendations = append(recommendations, mw.summary.Comparison.Recommendation)
	}

	// Default recommendation if none generated
	if len(recommendations) == 0 {
		recommendations = append(recommendations, "Portfolio is within policy bounds - continue monitoring")
	}

	return recommendations
}

func approvalWord(n int) string {
	if n == 1 {
		return "approval"
	}
	return "approvals"
}

func (mw *MarkdownWriter) renderSummary(sb *strings.Builder, bandCounts, approvedByBand map[riskBand]int) {
	sb.WriteString("## Summary\n\n")

	if name := mw.policyName(); name != "" {
		sb.WriteString(fmt.Sprintf("**Policy:** %s\n\n", name))
	}
	if mw.start != nil && mw.start.Source != "" {
		sb.WriteString(fmt.Sprintf("**Source:** %s\n\n", mw.start.Source))
	}

	if p := mw.portfolio(); p != nil {
		sb.WriteString("| Metric | Value |\n")
		sb.WriteString("|--------|-------|\n")
		sb.WriteString(fmt.Sprintf("| Total Applicants | %d |\n", p.Total))
		sb.WriteString(fmt.Sprintf("| Approved | %d |\n", p.Approved))
		sb.WriteString(fmt.Sprintf("| Rejected | %d |\n", p.Rejected))
		if p.Errored > 0 {
			sb.WriteString(fmt.Sprintf("| Errored | %d |\n", p.Errored))
		}
		sb.WriteString(fmt.Sprintf("| Approval Rate | %.1f%% |\n", p.ApprovalRate))
		sb.WriteString(fmt.Sprintf("| Mean Risk Score | %.2f |\n", p.MeanRiskScore))
		sb.WriteString(fmt.Sprintf("| Est. Default Rate | %.2f%% |\n", p.EstimatedDefaultRate))
		sb.WriteString(fmt.Sprintf("| Grade | **%s** |\n", p.Grade))
		if mw.summary != nil {
			sb.WriteString(fmt.Sprintf("| Duration | %.2fs |\n", mw.summary.Timing.DurationSec))
		}
		sb.WriteString("\n")
	} else {
		sb.WriteString(fmt.Sprintf("**Total Decisions:** %d\n", len(mw.decisions)))
		sb.WriteString(fmt.Sprintf("**Compensated Approvals:** %d\n\n", len(mw.overrides)))
	}

	// Band breakdown with conditional emojis
	sb.WriteString("### Decisions by Risk Band\n\n")
	sb.WriteString("| Band | Applicants | Approved |\n")
	sb.WriteString("|------|------------|----------|\n")
	for _, band := range riskBands {
		emoji := ""
		if mw.config.UseEmojis {
			emoji = bandEmoji(band) + " "
		}
		sb.WriteString(fmt.Sprintf("| %s%s | %d | %d |\n", emoji, string(band), bandCounts[band], approvedByBand[band]))
	}
	sb.WriteString("\n")
}

func (mw *MarkdownWriter) renderPolicyTable(sb *strings.Builder) {
	sb.WriteString("## Policy Thresholds\n\n")

	name := mw.policyName()
	thresholds, err := policy.ByName(name)
	if err != nil {
		sb.WriteString(fmt.Sprintf("*No preset named %q.*\n\n", name))
		return
	}

	sb.WriteString("| Threshold | Limit |\n")
	sb.WriteString("|-----------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Min credit score | %d |\n", thresholds.MinCreditScore))
	sb.WriteString(fmt.Sprintf("| Max debt-to-income | %.2f |\n", thresholds.MaxDebtToIncome))
	sb.WriteString(fmt.Sprintf("| Max payment-to-income | %.2f |\n", thresholds.MaxPaymentToIncome))
	sb.WriteString(fmt.Sprintf("| Min employment years | %d |\n", thresholds.MinEmploymentYears))
	sb.WriteString(fmt.Sprintf("| Max late payments | %d |\n", thresholds.MaxLatePayments))
	sb.WriteString(fmt.Sprintf("| Max default history | %d |\n", thresholds.MaxDefaultHistory))
	sb.WriteString(fmt.Sprintf("| Min risk score | %.0f |\n", thresholds.MinRiskScore))
	sb.WriteString("\n")

	if mw.summary != nil && mw.summary.Comparison != nil {
		mw.renderComparison(sb, mw.summary.Comparison)
	}
}

func (mw *MarkdownWriter) renderComparison(sb *strings.Builder, c *analytics.Comparison) {
	if c.Strict == nil || c.Relaxed == nil {
		return
	}

	sb.WriteString("### Strict vs Relaxed\n\n")
	sb.WriteString("| Metric | Strict | Relaxed | Delta |\n")
	sb.WriteString("|--------|--------|---------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Approval Rate | %.1f%% | %.1f%% | %+.1f pp |\n",
		c.Strict.ApprovalRate, c.Relaxed.ApprovalRate, c.ApprovalRateDiff))
	sb.WriteString(fmt.Sprintf("| Approved | %d | %d | %+d |\n",
		c.Strict.Approved, c.Relaxed.Approved, c.AdditionalApproved))
	sb.WriteString(fmt.Sprintf("| Est. Default Rate | %.2f%% | %.2f%% | %+.2f pp |\n",
		c.Strict.EstimatedDefaultRate, c.Relaxed.EstimatedDefaultRate, c.DefaultRateDiff))
	sb.WriteString(fmt.Sprintf("| Risk-Adjusted Return | %.2f | %.2f | %+.2f |\n",
		c.Strict.RiskAdjustedReturn, c.Relaxed.RiskAdjustedReturn, c.ReturnDiff))
	sb.WriteString("\n")

	if c.Recommendation != "" {
		sb.WriteString(fmt.Sprintf("> %s\n\n", c.Recommendation))
	}
}

func (mw *MarkdownWriter) renderReasonTable(sb *strings.Builder, ruleStats map[string]ruleStat, rejected int) {
	sb.WriteString("## Top Rejection Reasons\n\n")

	if rejected == 0 || len(ruleStats) == 0 {
		sb.WriteString("*No rejections.*\n\n")
		return
	}

	sb.WriteString("| Rule | Description | Failed | Decisive |\n")
	sb.WriteString("|------|-------------|--------|----------|\n")

	// Sort rules by decisive count for "top" ordering
	rules := make([]string, 0, len(ruleStats))
	for rule := range ruleStats {
		rules = append(rules, rule)
	}
	sort.Slice(rules, func(i, j int) bool {
		si, sj := ruleStats[rules[i]], ruleStats[rules[j]]
		if si.decisive != sj.decisive {
			return si.decisive > sj.decisive
		}
		if si.total != sj.total {
			return si.total > sj.total
		}
		return rules[i] < rules[j]
	})

	for _, rule := range rules {
		stat := ruleStats[rule]
		desc := ruleDescriptions[rule]
		if desc == "" {
			desc = "Unknown"
		}
		sb.WriteString(fmt.Sprintf("| `%s` | %s | %d | %d |\n", rule, desc, stat.total, stat.decisive))
	}
	sb.WriteString("\n")
}

func (mw *MarkdownWriter) renderOverrides(sb *strings.Builder) {
	sb.WriteString("## Compensated Approvals\n\n")

	if len(mw.overrides) == 0 {
		sb.WriteString("*No compensated approvals.*\n\n")
		return
	}

	sb.WriteString("| Applicant | Kind | Score | Minimum | Failed Rule | Reason |\n")
	sb.WriteString("|-----------|------|-------|---------|-------------|--------|\n")

	for _, o := range mw.overrides {
		d := o.Details
		rule := d.FailedRule
		if rule == "" {
			rule = "-"
		}
		sb.WriteString(fmt.Sprintf("| %s | %s | %.2f | %.0f | %s | %s |\n",
			d.ApplicantID, d.Kind, d.RiskScore, d.PolicyMinimum, rule,
			truncateString(d.Reason, mw.config.MaxReasonLen)))
	}
	sb.WriteString("\n")

	if mw.config.IncludeFinancials {
		mw.renderOverrideFinancials(sb)
	}
}

// renderOverrideFinancials renders the figures behind each compensated
// approval so a reviewer can check the compensation without the raw data.
func (mw *MarkdownWriter) renderOverrideFinancials(sb *strings.Builder) {
	sb.WriteString("### Financial Detail\n\n")

	for _, o := range mw.overrides {
		d := o.Details
		if mw.config.UseCollapsible && mw.supportsCollapsible() {
			mw.renderCollapsibleDetails(sb, fmt.Sprintf("<code>%s</code> - %s", d.ApplicantID, d.Kind), func(content *strings.Builder) {
				renderOverrideFigures(content, d)
			})
		} else {
			sb.WriteString(fmt.Sprintf("#### %s - %s\n\n", d.ApplicantID, d.Kind))
			renderOverrideFigures(sb, d)
		}
	}
}

func renderOverrideFigures(sb *strings.Builder, d events.OverrideDetail) {
	sb.WriteString("```\n")
	sb.WriteString(fmt.Sprintf("credit score: %d\n", d.CreditScore))
	sb.WriteString(fmt.Sprintf("income:       %.2f\n", d.Income))
	sb.WriteString(fmt.Sprintf("loan amount:  %.2f\n", d.LoanAmount))
	sb.WriteString(fmt.Sprintf("risk score:   %.2f (minimum %.0f)\n", d.RiskScore, d.PolicyMinimum))
	sb.WriteString("```\n\n")
}

// renderCollapsibleDetails renders a GitHub-flavored collapsible details block.
func (mw *MarkdownWriter) renderCollapsibleDetails(sb *strings.Builder, summary string, contentFn func(*strings.Builder)) {
	sb.WriteString("<details>\n")
	sb.WriteString(fmt.Sprintf("<summary>%s</summary>\n\n", summary))
	contentFn(sb)
	sb.WriteString("</details>\n\n")
}

func (mw *MarkdownWriter) renderDecisions(sb *strings.Builder, decisions []*events.DecisionEvent) {
	sb.WriteString("## Decisions\n\n")

	if len(decisions) == 0 {
		sb.WriteString("*No decisions to report.*\n\n")
		return
	}

	// Group decisions for collapsible sections based on sort order
	if mw.config.CollapseSections && mw.config.UseCollapsible && mw.supportsCollapsible() {
		mw.renderCollapsibleDecisions(sb, decisions)
	} else {
		mw.renderDecisionsListing(sb, decisions)
	}
}

func (mw *MarkdownWriter) supportsCollapsible() bool {
	return mw.config.Flavor == "github" || mw.config.Flavor == "gitlab"
}

func (mw *MarkdownWriter) renderCollapsibleDecisions(sb *strings.Builder, decisions []*events.DecisionEvent) {
	// Group by outcome first (rejections first, then approvals)
	rejections := make([]*events.DecisionEvent, 0)
	approvals := make([]*events.DecisionEvent, 0)

	for _, d := range decisions {
		if d.Decision.Outcome == decision.Approve {
			approvals = append(approvals, d)
		} else {
			rejections = append(rejections, d)
		}
	}

	// Render rejections in collapsible section
	if len(rejections) > 0 {
		sb.WriteString("<details open>\n")
		sb.WriteString(fmt.Sprintf("<summary><strong>❌ Rejected (%d)</strong></summary>\n\n", len(rejections)))
		mw.renderDecisionsListing(sb, rejections)
		sb.WriteString("</details>\n\n")
	}

	// Render approvals in collapsible section
	if len(approvals) > 0 {
		sb.WriteString("<details>\n")
		sb.WriteString(fmt.Sprintf("<summary><strong>Approved (%d)</strong></summary>\n\n", len(approvals)))
		mw.renderDecisionsListing(sb, approvals)
		sb.WriteString("</details>\n\n")
	}
}

func (mw *MarkdownWriter) renderDecisionsListing(sb *strings.Builder, decisions []*events.DecisionEvent) {
	sb.WriteString("| Band | Applicant | Score | Outcome | Override | Reason |\n")
	sb.WriteString("|------|-----------|-------|---------|----------|--------|\n")

	for _, d := range decisions {
		bandEm := ""
		outcEm := ""
		if mw.config.UseEmojis {
			bandEm = bandEmoji(bandFor(d.Decision.RiskScore)) + " "
			outcEm = outcomeEmoji(d.Decision.Outcome) + " "
		}
		override := d.Decision.Override
		if override == "" {
			override = "-"
		}
		sb.WriteString(fmt.Sprintf("| %s%s | %s | %.2f | %s%s | %s | %s |\n",
			bandEm,
			string(bandFor(d.Decision.RiskScore)),
			d.Applicant.ID,
			d.Decision.RiskScore,
			outcEm,
			capitalizeFirst(string(d.Decision.Outcome)),
			override,
			truncateString(d.Decision.Reason, mw.config.MaxReasonLen),
		))
	}
	sb.WriteString("\n")
}

func (mw *MarkdownWriter) sortDecisions() []*events.DecisionEvent {
	decisions := make([]*events.DecisionEvent, len(mw.decisions))
	copy(decisions, mw.decisions)

	switch mw.config.SortBy {
	case "score":
		sort.Slice(decisions, func(i, j int) bool {
			// Rejections first
			if (decisions[i].Decision.Outcome == decision.Reject) != (decisions[j].Decision.Outcome == decision.Reject) {
				return decisions[i].Decision.Outcome == decision.Reject
			}
			// Then riskiest first
			if decisions[i].Decision.RiskScore != decisions[j].Decision.RiskScore {
				return decisions[i].Decision.RiskScore < decisions[j].Decision.RiskScore
			}
			return decisions[i].Applicant.ID < decisions[j].Applicant.ID
		})
	case "decision":
		sort.Slice(decisions, func(i, j int) bool {
			if decisions[i].Decision.Outcome != decisions[j].Decision.Outcome {
				return decisions[i].Decision.Outcome < decisions[j].Decision.Outcome
			}
			return decisions[i].Decision.RiskScore < decisions[j].Decision.RiskScore
		})
	case "applicant":
		sort.Slice(decisions, func(i, j int) bool {
			return decisions[i].Applicant.ID < decisions[j].Applicant.ID
		})
	}

	return decisions
}

// policyName resolves the policy label for the run, preferring the start
// event over the summary over the first decision.
// portfolio returns the portfolio rollup once a summary event has arrived.
func (mw *MarkdownWriter) portfolio() *analytics.PortfolioMetrics {
	if mw.summary == nil {
		return nil
	}
	return mw.summary.Portfolio
}

func (mw *MarkdownWriter) policyName() string {
	if mw.start != nil && mw.start.Policy != "" {
		return mw.start.Policy
	}
	if mw.summary != nil && mw.summary.Policy != "" {
		return mw.summary.Policy
	}
	if len(mw.decisions) > 0 {
		return mw.decisions[0].Policy
	}
	return ""
}

type ruleStat struct {
	total    int
	decisive int
}

// buildRuleStats counts hard rule failures over the rejected decisions.
// total counts every rejected applicant that tripped the rule; decisive
// counts those where it was the leading failure, the one the reason
// string reports.
func (mw *MarkdownWriter) buildRuleStats() map[string]ruleStat {
	stats := make(map[string]ruleStat)

	for _, d := range mw.decisions {
		if d.Decision.Outcome == decision.Approve {
			continue
		}

		if len(d.Decision.FailedRules) == 0 {
			// Score-floor rejection
			stat := stats["risk_score"]
			stat.total++
			stat.decisive++
			stats["risk_score"] = stat
			continue
		}

		for i, f := range d.Decision.FailedRules {
			stat := stats[f.Rule]
			stat.total++
			if i == 0 {
				stat.decisive++
			}
			stats[f.Rule] = stat
		}
	}

	return stats
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen < 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

// capitalizeFirst capitalizes the first letter of a string.
// This is a simple replacement for the deprecated strings.Title function.
func capitalizeFirst(s string) string {
	if s == "" {
		return s
	}
	// For outcome values like "approve", "reject".
	return strings.ToUpper(s[:1]) + s[1:]
}
