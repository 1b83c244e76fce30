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

	"golang.org/x/term"

	"github.com/creditgate/creditgate/pkg/output/dispatcher"
	"github.com/creditgate/creditgate/pkg/output/events"
)

// Compile-time interface check.
var _ dispatcher.Writer = (*TableWriter)(nil)

// ANSI color constants for terminal output.
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[91m"
	colorGreen  = "\033[92m"
	colorYellow = "\033[93m"
	colorBlue   = "\033[94m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
)

// colorEnabled controls whether ANSI color codes are emitted.
var colorEnabled = true

// ansiSprint wraps text in an ANSI escape code, respecting colorEnabled.
func ansiSprint(code string, a ...interface{}) string {
	s := fmt.Sprint(a...)
	if !colorEnabled {
		return s
	}
	return code + s + "\033[0m"
}

// Color functions using ANSI escape codes for terminal colorization.
var (
	// Outcome colors
	fmtApprove = func(a ...interface{}) string { return ansiSprint("\033[32m", a...) }
	fmtReject  = func(a ...interface{}) string { return ansiSprint("\033[31m", a...) }
	fmtError   = func(a ...interface{}) string { return ansiSprint("\033[35m", a...) }

	// Risk band colors
	fmtSafe     = func(a ...interface{}) string { return ansiSprint("\033[32m", a...) }
	fmtWatch    = func(a ...interface{}) string { return ansiSprint("\033[33m", a...) }
	fmtMarginal = func(a ...interface{}) string { return ansiSprint("\033[31m", a...) }

	// Formatting helpers
	fmtOverride = func(a ...interface{}) string { return ansiSprint("\033[1;93m", a...) }
	fmtDim      = func(a ...interface{}) string { return ansiSprint("\033[2m", a...) }
)

// colorOutcome returns a colorized outcome string.
func colorOutcome(outcome string) string {
	switch strings.ToLower(outcome) {
	case "approve", "approved":
		return fmtApprove(outcome)
	case "reject", "rejected":
		return fmtReject(outcome)
	case "error":
		return fmtError(outcome)
	default:
		return outcome
	}
}

// colorScore returns a colorized composite risk score. Higher scores mean
// safer applicants.
func colorScore(score float64) string {
	s := fmt.Sprintf("%6.2f", score)
	switch {
	case score >= 80:
		return fmtSafe(s)
	case score >= 60:
		return fmtWatch(s)
	default:
		return fmtMarginal(s)
	}
}

// boxChars contains Unicode box-drawing characters.
var boxChars = struct {
	TopLeft, TopRight, BottomLeft, BottomRight, Horizontal, Vertical string
}{
	"┌", "┐", "└", "┘", "─", "│",
}

// asciiChars contains ASCII fallback characters for box drawing.
var asciiChars = struct {
	TopLeft, TopRight, BottomLeft, BottomRight, Horizontal, Vertical string
}{
	"+", "+", "+", "+", "-", "|",
}

// TableConfig configures the table writer behavior.
type TableConfig struct {
	// Mode controls the output detail level: "summary", "detailed", "minimal", "streaming"
	Mode string

	// ColorEnabled enables ANSI color output.
	// If not explicitly set, auto-detected based on terminal.
	ColorEnabled bool

	// DisableUnicode explicitly disables Unicode box drawing. When unset,
	// Unicode is used wherever the console can render it.
	DisableUnicode bool

	// ShowOnlyOverrides filters output to decisions that rode a
	// compensating path.
	ShowOnlyOverrides bool

	// MaxResults limits the number of decisions displayed (0 = unlimited).
	MaxResults int

	// Width sets the table width (0 = auto-detect from terminal).
	Width int

	// MaxWidth sets the maximum table width (0 = no maximum, use terminal width).
	MaxWidth int

	// ShowTimestamps adds timestamps to each streaming row.
	ShowTimestamps bool

	// ShowLegend displays a color legend at the end of output.
	ShowLegend bool

	// TruncateAt sets the reason truncation length (0 = no truncation).
	TruncateAt int
}

// TableWriter writes events as formatted ASCII/Unicode tables to a terminal.
// It supports streaming mode for real-time output and batch mode for final
// reports. The writer is safe for concurrent use.
type TableWriter struct {
	w         io.Writer
	mu        sync.Mutex
	config    TableConfig
	decisions []*events.DecisionEvent
	summary   *events.SummaryEvent
	chars     *struct {
		TopLeft, TopRight, BottomLeft, BottomRight, Horizontal, Vertical string
	}
	decisionCount int
	columnWidths  columnWidths // cached responsive column widths
}

// columnWidths stores calculated column widths for responsive table layout.
type columnWidths struct {
	outcome int
	score   int
	userID  int
	reason  int
}

// NewTableWriter creates a new table writer with the specified configuration.
// If ColorEnabled is not explicitly set, it auto-detects terminal support.
// Unicode box drawing is used unless disabled or the console cannot render it.
func NewTableWriter(w io.Writer, config TableConfig) *TableWriter {
	// Auto-detect color support if not explicitly configured
	if !config.ColorEnabled {
		config.ColorEnabled = detectColorSupport(w)
	}

	// Configure color output based on our color detection
	colorEnabled = config.ColorEnabled

	// Default mode to summary
	if config.Mode == "" {
		config.Mode = "summary"
	}

	// Select box-drawing character set
	chars := &boxChars
	if config.DisableUnicode || !unicodeSupported(w) {
		chars = &asciiChars
	}

	tw := &TableWriter{
		w:         w,
		config:    config,
		decisions: make([]*events.DecisionEvent, 0),
		chars:     chars,
	}

	// Calculate responsive column widths
	tw.calculateColumnWidths()

	return tw
}

// detectColorSupport checks if the writer supports ANSI colors.
func detectColorSupport(w io.Writer) bool {
	// Check for NO_COLOR environment variable
	if os.Getenv("NO_COLOR") != "" {
		return false
	}

	// Check for FORCE_COLOR environment variable
	if os.Getenv("FORCE_COLOR") != "" {
		return true
	}

	// Check if output is a terminal
	if f, ok := w.(*os.File); ok {
		return term.IsTerminal(int(f.Fd()))
	}

	return false
}

// Write processes an event and outputs it according to the configured mode.
func (tw *TableWriter) Write(event events.Event) error {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	switch e := event.(type) {
	case *events.DecisionEvent:
		return tw.handleDecisionEvent(e)
	case *events.ProgressEvent:
		return tw.handleProgressEvent(e)
	case *events.SummaryEvent:
		tw.summary = e
		return nil
	}
	return nil
}

// handleDecisionEvent processes a decision event based on the mode.
func (tw *TableWriter) handleDecisionEvent(e *events.DecisionEvent) error {
	// Filter overrides only if configured
	if tw.config.ShowOnlyOverrides && e.Decision.Override == "" {
		return nil
	}

	// Check max results limit
	if tw.config.MaxResults > 0 && tw.decisionCount >= tw.config.MaxResults {
		return nil
	}

	tw.decisionCount++

	// In streaming mode, output immediately
	if tw.config.Mode == "streaming" {
		return tw.writeStreamingDecision(e)
	}

	// Otherwise buffer for later
	tw.decisions = append(tw.decisions, e)
	return nil
}

// handleProgressEvent processes a progress event in streaming mode.
// Other modes drop progress updates; they are transient by nature.
func (tw *TableWriter) handleProgressEvent(e *events.ProgressEvent) error {
	if tw.config.Mode == "streaming" {
		return tw.writeStreamingProgress(e)
	}
	return nil
}

// writeStreamingDecision outputs a single decision in streaming mode.
func (tw *TableWriter) writeStreamingDecision(e *events.DecisionEvent) error {
	line := tw.formatDecisionLine(e)
	_, err := fmt.Fprintln(tw.w, line)
	return err
}

// writeStreamingProgress outputs a progress update in streaming mode.
func (tw *TableWriter) writeStreamingProgress(e *events.ProgressEvent) error {
	line := tw.formatProgressLine(e)
	_, err := fmt.Fprintf(tw.w, "\r%s", line)
	return err
}

// formatDecisionLine formats a single decision for streaming output.
func (tw *TableWriter) formatDecisionLine(e *events.DecisionEvent) string {
	outcome := strings.ToUpper(string(e.Decision.Outcome))

	// Build optional prefix components
	var prefix string

	// Add timestamp if enabled
	if tw.config.ShowTimestamps {
		prefix = fmt.Sprintf("[%s] ", time.Now().Format("15:04:05"))
	}

	// Mark compensated approvals
	var overrideMarker string
	if e.Decision.Override != "" {
		if tw.config.ColorEnabled {
			overrideMarker = " " + fmtOverride("[override:"+e.Decision.Override+"]")
		} else {
			overrideMarker = fmt.Sprintf(" [override:%s]", e.Decision.Override)
		}
	}

	reason := e.Decision.Reason
	if tw.config.TruncateAt > 0 {
		reason = truncateWithMarker(reason, tw.config.TruncateAt)
	}

	if tw.config.ColorEnabled {
		return fmt.Sprintf("%s[%s] %s %-12s %s%s",
			prefix,
			colorOutcome(outcome),
			colorScore(e.Decision.RiskScore),
			e.Applicant.ID,
			fmtDim(reason),
			overrideMarker,
		)
	}

	return fmt.Sprintf("%s[%s] %6.2f %-12s %s%s",
		prefix,
		outcome,
		e.Decision.RiskScore,
		e.Applicant.ID,
		reason,
		overrideMarker,
	)
}

// formatProgressLine formats a progress update for streaming output.
func (tw *TableWriter) formatProgressLine(e *events.ProgressEvent) string {
	if tw.config.ColorEnabled {
		return fmt.Sprintf("%s[progress]%s %d/%d (%.1f%%) %s%.1f rec/s%s approved: %.1f%% ETA: %ds",
			colorBlue, colorReset,
			e.Progress.Current, e.Progress.Total, e.Progress.Percentage,
			colorDim, e.Rate.RecordsPerSec, colorReset,
			e.Stats.ApprovalRatePct,
			e.Timing.ETASec,
		)
	}

	return fmt.Sprintf("[progress] %d/%d (%.1f%%) %.1f rec/s approved: %.1f%% ETA: %ds",
		e.Progress.Current, e.Progress.Total, e.Progress.Percentage,
		e.Rate.RecordsPerSec,
		e.Stats.ApprovalRatePct,
		e.Timing.ETASec,
	)
}

// Flush ensures all buffered events are written.
// Buffered modes render on Close, so this is a no-op.
func (tw *TableWriter) Flush() error {
	return nil
}

// Close renders and writes the complete table output.
func (tw *TableWriter) Close() error {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	var err error

	switch tw.config.Mode {
	case "streaming":
		// Write final newline and summary
		fmt.Fprintln(tw.w)
		if tw.summary != nil {
			err = tw.writeSummaryTable()
		}
	case "minimal":
		err = tw.writeMinimalOutput()
	case "detailed":
		err = tw.writeDetailedTable()
	default: // "summary"
		err = tw.writeSummaryTable()
	}

	if err != nil {
		return fmt.Errorf("table: write: %w", err)
	}

	// Render legend if enabled
	if tw.config.ShowLegend && tw.config.ColorEnabled {
		tw.renderLegend()
	}

	if closer, ok := tw.w.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// SupportsEvent returns true for decision, progress, and summary events.
func (tw *TableWriter) SupportsEvent(eventType events.EventType) bool {
	switch eventType {
	case events.EventTypeDecision, events.EventTypeProgress, events.EventTypeSummary:
		return true
	default:
		return false
	}
}

// writeSummaryTable renders a summary-focused table.
func (tw *TableWriter) writeSummaryTable() error {
	sb := &strings.Builder{}

	// Header
	tw.writeTableHeader(sb, "Credit Decision Summary")

	// Portfolio grade and totals
	if tw.summary != nil && tw.summary.Portfolio != nil {
		tw.writePortfolioGrade(sb)
		tw.writeTotalsTable(sb)
		tw.writeEconomics(sb)
	} else {
		// Generate stats from buffered decisions
		tw.writeDecisionStats(sb)
	}

	tw.writeRiskBandBreakdown(sb)

	// Most marginal compensated approvals (limited)
	tw.writeTopOverrides(sb, 5)

	// Footer
	tw.writeTableFooter(sb)

	_, err := io.WriteString(tw.w, sb.String())
	return err
}

// writeDetailedTable renders a detailed table with all decisions.
func (tw *TableWriter) writeDetailedTable() error {
	sb := &strings.Builder{}

	// Header
	tw.writeTableHeader(sb, "Credit Decisions - Detailed")

	// All decisions table
	tw.writeDecisionsTable(sb)

	// Summary if available
	if tw.summary != nil && tw.summary.Portfolio != nil {
		sb.WriteString("\n")
		tw.writePortfolioGrade(sb)
		tw.writeTotalsTable(sb)
	}

	// Footer
	tw.writeTableFooter(sb)

	_, err := io.WriteString(tw.w, sb.String())
	return err
}

// writeMinimalOutput renders a minimal single-line summary.
func (tw *TableWriter) writeMinimalOutput() error {
	var approved, rejected, errored, total int

	if tw.summary != nil && tw.summary.Portfolio != nil {
		p := tw.summary.Portfolio
		approved = p.Approved
		rejected = p.Rejected
		errored = p.Errored
		total = p.Total
	} else {
		for _, d := range tw.decisions {
			total++
			if d.Decision.Outcome == "approve" {
				approved++
			} else {
				rejected++
			}
		}
	}

	var rate float64
	if approved+rejected > 0 {
		rate = float64(approved) / float64(approved+rejected) * 100
	}

	line := fmt.Sprintf("Evaluated: %d | Approved: %d | Rejected: %d | Approval Rate: %.1f%%",
		total, approved, rejected, rate)
	if errored > 0 {
		line += fmt.Sprintf(" | Errors: %d", errored)
	}

	if tw.config.ColorEnabled {
		color := colorGreen
		if errored > 0 {
			color = colorRed
		}
		line = fmt.Sprintf("%s%s%s", color, line, colorReset)
	}

	_, err := fmt.Fprintln(tw.w, line)
	return err
}

// writeTableHeader writes the table header with title.
func (tw *TableWriter) writeTableHeader(sb *strings.Builder, title string) {
	width := tw.getWidth()
	chars := tw.chars

	// Top border
	sb.WriteString(chars.TopLeft)
	sb.WriteString(strings.Repeat(chars.Horizontal, width-2))
	sb.WriteString(chars.TopRight)
	sb.WriteString("\n")

	// Title line
	titleLine := tw.centerText(title, width-4)
	sb.WriteString(chars.Vertical)
	sb.WriteString(" ")
	if tw.config.ColorEnabled {
		sb.WriteString(colorBold)
	}
	sb.WriteString(titleLine)
	if tw.config.ColorEnabled {
		sb.WriteString(colorReset)
	}
	sb.WriteString(" ")
	sb.WriteString(chars.Vertical)
	sb.WriteString("\n")

	// Separator
	sb.WriteString(chars.Vertical)
	sb.WriteString(strings.Repeat(chars.Horizontal, width-2))
	sb.WriteString(chars.Vertical)
	sb.WriteString("\n")
}

// writeTableFooter writes the table footer.
func (tw *TableWriter) writeTableFooter(sb *strings.Builder) {
	width := tw.getWidth()
	chars := tw.chars

	sb.WriteString(chars.BottomLeft)
	sb.WriteString(strings.Repeat(chars.Horizontal, width-2))
	sb.WriteString(chars.BottomRight)
	sb.WriteString("\n")
}

// writePortfolioGrade displays the portfolio grade with a visual approval bar.
func (tw *TableWriter) writePortfolioGrade(sb *strings.Builder) {
	if tw.summary == nil || tw.summary.Portfolio == nil {
		return
	}

	p := tw.summary.Portfolio
	chars := tw.chars
	width := tw.getWidth()

	// Grade line
	gradeLine := fmt.Sprintf("Portfolio Grade: %s (approval %.1f%%, est. default %.2f%%)",
		p.Grade, p.ApprovalRate, p.EstimatedDefaultRate)

	if tw.config.ColorEnabled {
		color := tw.getGradeColor(p.Grade)
		gradeLine = fmt.Sprintf("%sPortfolio Grade: %s (approval %.1f%%, est. default %.2f%%)%s",
			color, p.Grade, p.ApprovalRate, p.EstimatedDefaultRate, colorReset)
	}

	sb.WriteString(chars.Vertical)
	sb.WriteString(" ")
	sb.WriteString(gradeLine)
	sb.WriteString(pad(width - 4 - len(stripANSI(gradeLine))))
	sb.WriteString(" ")
	sb.WriteString(chars.Vertical)
	sb.WriteString("\n")

	// Visual approval-rate bar
	barWidth := width - 8
	filledWidth := int(p.ApprovalRate / 100 * float64(barWidth))
	if filledWidth > barWidth {
		filledWidth = barWidth
	}
	if filledWidth < 0 {
		filledWidth = 0
	}

	bar := strings.Repeat("█", filledWidth) + strings.Repeat("░", barWidth-filledWidth)

	sb.WriteString(chars.Vertical)
	sb.WriteString("  [")
	if tw.config.ColorEnabled {
		sb.WriteString(tw.getGradeColor(p.Grade))
	}
	sb.WriteString(bar)
	if tw.config.ColorEnabled {
		sb.WriteString(colorReset)
	}
	sb.WriteString("]  ")
	sb.WriteString(chars.Vertical)
	sb.WriteString("\n")

	// Grade reason
	if p.GradeReason != "" {
		recLine := fmt.Sprintf("Assessment: %s", p.GradeReason)
		if len(recLine) > width-4 {
			recLine = recLine[:width-7] + "..."
		}
		sb.WriteString(chars.Vertical)
		sb.WriteString(" ")
		if tw.config.ColorEnabled {
			sb.WriteString(colorDim)
		}
		sb.WriteString(recLine)
		sb.WriteString(pad(width - 4 - len(recLine)))
		if tw.config.ColorEnabled {
			sb.WriteString(colorReset)
		}
		sb.WriteString(" ")
		sb.WriteString(chars.Vertical)
		sb.WriteString("\n")
	}

	// Separator
	sb.WriteString(chars.Vertical)
	sb.WriteString(strings.Repeat(chars.Horizontal, width-2))
	sb.WriteString(chars.Vertical)
	sb.WriteString("\n")
}

// writeTotalsTable writes the decision totals as a table row.
func (tw *TableWriter) writeTotalsTable(sb *strings.Builder) {
	if tw.summary == nil || tw.summary.Portfolio == nil {
		return
	}

	chars := tw.chars
	width := tw.getWidth()
	p := tw.summary.Portfolio

	// Header row
	header := "  Evaluated | Approved  | Rejected  | Errored"
	sb.WriteString(chars.Vertical)
	sb.WriteString(header)
	sb.WriteString(pad(width - 2 - len(header)))
	sb.WriteString(chars.Vertical)
	sb.WriteString("\n")

	// Values row
	valuesLine := fmt.Sprintf("  %-9d | %-9d | %-9d | %-9d",
		p.Total, p.Approved, p.Rejected, p.Errored)

	sb.WriteString(chars.Vertical)
	if tw.config.ColorEnabled {
		// Color the approved and errored counts
		parts := strings.Split(valuesLine, "|")
		for i, part := range parts {
			if i == 1 { // Approved column
				sb.WriteString(colorGreen)
				sb.WriteString(part)
				sb.WriteString(colorReset)
			} else if i == 3 && p.Errored > 0 { // Errored column
				sb.WriteString(colorRed)
				sb.WriteString(part)
				sb.WriteString(colorReset)
			} else {
				sb.WriteString(part)
			}
			if i < len(parts)-1 {
				sb.WriteString("|")
			}
		}
	} else {
		sb.WriteString(valuesLine)
	}
	sb.WriteString(pad(width - 2 - len(valuesLine)))
	sb.WriteString(chars.Vertical)
	sb.WriteString("\n")

	// Separator
	sb.WriteString(chars.Vertical)
	sb.WriteString(strings.Repeat(chars.Horizontal, width-2))
	sb.WriteString(chars.Vertical)
	sb.WriteString("\n")
}

// writeEconomics writes the portfolio economics block.
func (tw *TableWriter) writeEconomics(sb *strings.Builder) {
	if tw.summary == nil || tw.summary.Portfolio == nil {
		return
	}

	chars := tw.chars
	width := tw.getWidth()
	p := tw.summary.Portfolio

	principalLine := fmt.Sprintf("  Principal: %.2f | Revenue: %.2f | Expected Loss: %.2f",
		p.ApprovedPrincipal, p.ExpectedRevenue, p.ExpectedLoss)
	sb.WriteString(chars.Vertical)
	sb.WriteString(principalLine)
	sb.WriteString(pad(width - 2 - len(principalLine)))
	sb.WriteString(chars.Vertical)
	sb.WriteString("\n")

	returnLine := fmt.Sprintf("  Risk-Adjusted Return: %.2f", p.RiskAdjustedReturn)
	sb.WriteString(chars.Vertical)
	if tw.config.ColorEnabled {
		color := colorGreen
		if p.RiskAdjustedReturn < 0 {
			color = colorRed
		}
		sb.WriteString(color)
		sb.WriteString(returnLine)
		sb.WriteString(colorReset)
	} else {
		sb.WriteString(returnLine)
	}
	sb.WriteString(pad(width - 2 - len(returnLine)))
	sb.WriteString(chars.Vertical)
	sb.WriteString("\n")

	// Separator
	sb.WriteString(chars.Vertical)
	sb.WriteString(strings.Repeat(chars.Horizontal, width-2))
	sb.WriteString(chars.Vertical)
	sb.WriteString("\n")
}

// writeRiskBandBreakdown writes approval statistics per risk band from the
// buffered decisions. Streaming mode has nothing buffered, so this is a
// no-op there.
func (tw *TableWriter) writeRiskBandBreakdown(sb *strings.Builder) {
	if len(tw.decisions) == 0 {
		return
	}

	chars := tw.chars
	width := tw.getWidth()

	type bandStat struct {
		label    string
		color    func(...interface{}) string
		total    int
		approved int
	}
	bands := []*bandStat{
		{label: "80+", color: fmtSafe},
		{label: "70-79", color: fmtWatch},
		{label: "60-69", color: fmtWatch},
		{label: "<60", color: fmtMarginal},
	}
	bandFor := func(score float64) *bandStat {
		switch {
		case score >= 80:
			return bands[0]
		case score >= 70:
			return bands[1]
		case score >= 60:
			return bands[2]
		default:
			return bands[3]
		}
	}

	for _, d := range tw.decisions {
		b := bandFor(d.Decision.RiskScore)
		b.total++
		if d.Decision.Outcome == "approve" {
			b.approved++
		}
	}

	sb.WriteString(chars.Vertical)
	sb.WriteString(" Risk Band Breakdown:")
	sb.WriteString(pad(width - 23))
	sb.WriteString(chars.Vertical)
	sb.WriteString("\n")

	for _, b := range bands {
		if b.total == 0 {
			continue
		}
		rate := float64(b.approved) / float64(b.total) * 100
		line := fmt.Sprintf("  %-6s: %d applicants, %d approved (%.1f%%)",
			b.label, b.total, b.approved, rate)

		sb.WriteString(chars.Vertical)
		if tw.config.ColorEnabled {
			sb.WriteString(b.color(line))
		} else {
			sb.WriteString(line)
		}
		sb.WriteString(pad(width - 2 - len(line)))
		sb.WriteString(chars.Vertical)
		sb.WriteString("\n")
	}

	// Separator
	sb.WriteString(chars.Vertical)
	sb.WriteString(strings.Repeat(chars.Horizontal, width-2))
	sb.WriteString(chars.Vertical)
	sb.WriteString("\n")
}

// writeDecisionStats writes stats calculated from buffered decisions.
func (tw *TableWriter) writeDecisionStats(sb *strings.Builder) {
	chars := tw.chars
	width := tw.getWidth()

	var approved, rejected, overrides int
	for _, d := range tw.decisions {
		if d.Decision.Outcome == "approve" {
			approved++
		} else {
			rejected++
		}
		if d.Decision.Override != "" {
			overrides++
		}
	}

	total := len(tw.decisions)
	var rate float64
	if total > 0 {
		rate = float64(approved) / float64(total) * 100
	}

	// Approval rate line
	rateLine := fmt.Sprintf("Approval Rate: %.1f%% (%d/%d approved)", rate, approved, total)
	sb.WriteString(chars.Vertical)
	sb.WriteString(" ")
	if tw.config.ColorEnabled {
		color := colorGreen
		if rate < 10 {
			color = colorYellow
		}
		if total == 0 || approved == 0 {
			color = colorRed
		}
		sb.WriteString(color)
	}
	sb.WriteString(rateLine)
	if tw.config.ColorEnabled {
		sb.WriteString(colorReset)
	}
	sb.WriteString(pad(width - 4 - len(rateLine)))
	sb.WriteString(" ")
	sb.WriteString(chars.Vertical)
	sb.WriteString("\n")

	// Stats line
	statsLine := fmt.Sprintf("Rejected: %d | Overrides: %d", rejected, overrides)
	sb.WriteString(chars.Vertical)
	sb.WriteString(" ")
	sb.WriteString(statsLine)
	sb.WriteString(pad(width - 4 - len(statsLine)))
	sb.WriteString(" ")
	sb.WriteString(chars.Vertical)
	sb.WriteString("\n")

	// Separator
	sb.WriteString(chars.Vertical)
	sb.WriteString(strings.Repeat(chars.Horizontal, width-2))
	sb.WriteString(chars.Vertical)
	sb.WriteString("\n")
}

// writeTopOverrides writes the most marginal compensated approvals.
func (tw *TableWriter) writeTopOverrides(sb *strings.Builder, limit int) {
	chars := tw.chars
	width := tw.getWidth()

	// Collect compensated approvals
	var overrides []*events.DecisionEvent
	for _, d := range tw.decisions {
		if d.Decision.Override != "" {
			overrides = append(overrides, d)
		}
	}

	if len(overrides) == 0 {
		sb.WriteString(chars.Vertical)
		if tw.config.ColorEnabled {
			sb.WriteString(colorGreen)
		}
		sb.WriteString(" No compensated approvals")
		if tw.config.ColorEnabled {
			sb.WriteString(colorReset)
		}
		sb.WriteString(pad(width - 27))
		sb.WriteString(chars.Vertical)
		sb.WriteString("\n")
		return
	}

	// Most marginal first
	sort.Slice(overrides, func(i, j int) bool {
		return overrides[i].Decision.RiskScore < overrides[j].Decision.RiskScore
	})

	sb.WriteString(chars.Vertical)
	sb.WriteString(" Compensated Approvals:")
	sb.WriteString(pad(width - 25))
	sb.WriteString(chars.Vertical)
	sb.WriteString("\n")

	for i, d := range overrides {
		if i >= limit {
			break
		}

		line := fmt.Sprintf("  %d. [%s] %s score %.2f - %s",
			i+1, d.Decision.Override, d.Applicant.ID, d.Decision.RiskScore, d.Decision.Reason)
		if len(line) > width-4 {
			line = line[:width-7] + "..."
		}

		sb.WriteString(chars.Vertical)
		if tw.config.ColorEnabled {
			sb.WriteString(colorYellow)
		}
		sb.WriteString(line)
		if tw.config.ColorEnabled {
			sb.WriteString(colorReset)
		}
		sb.WriteString(pad(width - 2 - len(line)))
		sb.WriteString(chars.Vertical)
		sb.WriteString("\n")
	}
}

// writeDecisionsTable writes all buffered decisions as a table.
func (tw *TableWriter) writeDecisionsTable(sb *strings.Builder) {
	chars := tw.chars
	width := tw.getWidth()

	if len(tw.decisions) == 0 {
		sb.WriteString(chars.Vertical)
		sb.WriteString(" No decisions to display")
		sb.WriteString(pad(width - 26))
		sb.WriteString(chars.Vertical)
		sb.WriteString("\n")
		return
	}

	cw := tw.columnWidths

	// Table header
	header := fmt.Sprintf(" %-*s | %-*s | %-*s | Reason",
		cw.outcome, "Decision", cw.score, "Score", cw.userID, "User ID")
	sb.WriteString(chars.Vertical)
	sb.WriteString(header)
	sb.WriteString(pad(width - 2 - len(header)))
	sb.WriteString(chars.Vertical)
	sb.WriteString("\n")

	// Separator
	sb.WriteString(chars.Vertical)
	sb.WriteString(strings.Repeat("-", width-2))
	sb.WriteString(chars.Vertical)
	sb.WriteString("\n")

	// Decisions
	for _, d := range tw.decisions {
		outcome := fmt.Sprintf("%-*s", cw.outcome, d.Decision.Outcome)
		score := fmt.Sprintf("%*.2f", cw.score, d.Decision.RiskScore)

		userID := d.Applicant.ID
		if len(userID) > cw.userID {
			userID = truncateWithMarker(userID, cw.userID)
		}
		userID = fmt.Sprintf("%-*s", cw.userID, userID)

		reason := d.Decision.Reason
		if len(reason) > cw.reason && cw.reason > 3 {
			reason = reason[:cw.reason-3] + "..."
		}

		line := fmt.Sprintf(" %s | %s | %s | %s", outcome, score, userID, reason)

		sb.WriteString(chars.Vertical)
		if tw.config.ColorEnabled {
			// Color the padded cell based on the raw outcome value
			coloredOutcome := outcome
			switch d.Decision.Outcome {
			case "approve":
				coloredOutcome = fmtApprove(outcome)
			case "reject":
				coloredOutcome = fmtReject(outcome)
			}
			coloredLine := fmt.Sprintf(" %s | %s | %s | %s",
				coloredOutcome, colorScore(d.Decision.RiskScore), userID, reason)
			sb.WriteString(coloredLine)
			// Pad without colors
			sb.WriteString(pad(width - 2 - len(line)))
		} else {
			sb.WriteString(line)
			sb.WriteString(pad(width - 2 - len(line)))
		}
		sb.WriteString(chars.Vertical)
		sb.WriteString("\n")
	}

	// Separator
	sb.WriteString(chars.Vertical)
	sb.WriteString(strings.Repeat(chars.Horizontal, width-2))
	sb.WriteString(chars.Vertical)
	sb.WriteString("\n")
}

// getWidth returns the configured or auto-detected terminal width.
func (tw *TableWriter) getWidth() int {
	if tw.config.Width > 0 {
		return tw.config.Width
	}

	// Try to detect terminal width
	width := getTerminalWidth(tw.w)

	// Apply MaxWidth constraint if set
	if tw.config.MaxWidth > 0 && width > tw.config.MaxWidth {
		return tw.config.MaxWidth
	}

	return width
}

// getTerminalWidth detects the terminal width from the writer or returns default.
func getTerminalWidth(w io.Writer) int {
	// Try from provided writer
	if f, ok := w.(*os.File); ok {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
			return width
		}
	}

	// Try stdout directly
	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 0 {
		return width
	}

	// Default width for non-terminal or detection failure
	return 120
}

// calculateColumnWidths calculates responsive column widths based on
// terminal size. Extra space goes to the reason column first, then the
// user id column.
func (tw *TableWriter) calculateColumnWidths() {
	termWidth := tw.getWidth()

	// Minimum widths for each column
	const (
		minOutcome = 8
		minScore   = 6
		minUserID  = 12
		minReason  = 24
		separators = 13 // space for separators and padding
	)

	tw.columnWidths = columnWidths{
		outcome: minOutcome,
		score:   minScore,
		userID:  minUserID,
		reason:  minReason,
	}

	// Calculate available extra space
	usedWidth := minOutcome + minScore + minUserID + minReason + separators
	extraSpace := termWidth - usedWidth

	if extraSpace <= 0 {
		return // Use minimum widths
	}

	// Distribute extra space: prioritize reason, then user id
	if extraSpace > 16 {
		tw.columnWidths.userID += 8
		extraSpace -= 8
	}
	tw.columnWidths.reason += extraSpace
}

// renderLegend renders a color legend.
func (tw *TableWriter) renderLegend() {
	if !tw.config.ColorEnabled {
		return
	}

	fmt.Fprintf(tw.w, "\nDecision: %s %s %s\n",
		fmtApprove("●Approve"),
		fmtReject("●Reject"),
		fmtError("●Error"))

	fmt.Fprintf(tw.w, "Score:    %s %s %s %s\n",
		fmtSafe("●80+"),
		fmtWatch("●60-79"),
		fmtMarginal("●<60"),
		fmtOverride("●Override"))
}

// pad returns n spaces, or nothing when n is not positive. Box padding
// must never panic on narrow terminals.
func pad(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat(" ", n)
}

// truncateWithMarker truncates a string and adds a clear truncation marker.
func truncateWithMarker(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	if maxLen <= 5 {
		return s[:maxLen]
	}
	return s[:maxLen-5] + "[...]"
}

// getGradeColor returns the ANSI color for a portfolio grade.
func (tw *TableWriter) getGradeColor(grade string) string {
	switch grade {
	case "A+", "A":
		return colorGreen
	case "B":
		return colorYellow
	case "C":
		return "\033[38;5;208m" // orange
	case "N/A":
		return colorDim
	default:
		return colorRed
	}
}

// centerText centers text within a given width.
func (tw *TableWriter) centerText(text string, width int) string {
	if len(text) >= width {
		return text[:width]
	}
	padding := (width - len(text)) / 2
	return strings.Repeat(" ", padding) + text + strings.Repeat(" ", width-len(text)-padding)
}

// stripANSI removes ANSI escape codes from a string for length calculation.
func stripANSI(s string) string {
	// Simple ANSI stripper - handles common escape sequences
	result := s
	// Remove color codes like \033[...m
	for {
		start := strings.Index(result, "\033[")
		if start == -1 {
			break
		}
		end := strings.Index(result[start:], "m")
		if end == -1 {
			break
		}
		result = result[:start] + result[start+end+1:]
	}
	return result
}
