package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// DecisionFormatter formats decision results for display
type DecisionFormatter struct {
	verbose     bool
	showReasons bool
}

// NewDecisionFormatter creates a new decision formatter
func NewDecisionFormatter(verbose, showReasons bool) *DecisionFormatter {
	return &DecisionFormatter{
		verbose:     verbose,
		showReasons: showReasons,
	}
}

// FormatDecision formats a single decision in nuclei-style
// Output: [decision] [policy] USER_00042 [credit 620] [score 61.3]
func (df *DecisionFormatter) FormatDecision(id, policy, decision, reason string, creditScore int, riskScore float64) string {
	var parts []string

	parts = append(parts, BracketStyle.Render("[")+DecisionStyle(decision).Render(strings.ToLower(decision))+BracketStyle.Render("]"))
	parts = append(parts, BracketStyle.Render("[")+PolicyStyle.Render(policy)+BracketStyle.Render("]"))
	parts = append(parts, StatValueStyle.Render(id))
	parts = append(parts, BracketStyle.Render("[")+BandStyle(creditScore).Render(fmt.Sprintf("credit %d", creditScore))+BracketStyle.Render("]"))
	parts = append(parts, BracketStyle.Render("[")+StatLabelStyle.Render(fmt.Sprintf("score %.1f", riskScore))+BracketStyle.Render("]"))

	result := strings.Join(parts, " ")

	if df.showReasons && reason != "" {
		result += "\n      " + SubtitleStyle.Render("-> "+truncateString(reason, 80))
	}

	return result
}

// FormatRejection formats a rejected applicant with more detail
func (df *DecisionFormatter) FormatRejection(id, policy string, creditScore int, riskScore float64, failedRules []string) string {
	output := strings.Builder{}

	output.WriteString(RejectedStyle.Render("  [X] REJECTED"))
	output.WriteString("\n")

	output.WriteString(fmt.Sprintf("    %s %s\n",
		ConfigLabelStyle.Render("Applicant:"),
		StatValueStyle.Render(id),
	))
	output.WriteString(fmt.Sprintf("    %s %s\n",
		ConfigLabelStyle.Render("Policy:"),
		PolicyStyle.Render(policy),
	))
	output.WriteString(fmt.Sprintf("    %s %s\n",
		ConfigLabelStyle.Render("Credit:"),
		BandStyle(creditScore).Render(fmt.Sprintf("%d", creditScore)),
	))
	output.WriteString(fmt.Sprintf("    %s %s\n",
		ConfigLabelStyle.Render("Risk Score:"),
		StatLabelStyle.Render(fmt.Sprintf("%.1f", riskScore)),
	))

	if len(failedRules) > 0 {
		output.WriteString(fmt.Sprintf("    %s %s\n",
			ConfigLabelStyle.Render("Failed Rules:"),
			SubtitleStyle.Render(strings.Join(failedRules, ", ")),
		))
	}

	return output.String()
}

// FormatError formats a record error
func (df *DecisionFormatter) FormatError(id, errorMsg string) string {
	return fmt.Sprintf("  %s %s %s: %s",
		ErrorStyle.Render("!"),
		StatValueStyle.Render(id),
		ErrorStyle.Render("Error"),
		SubtitleStyle.Render(truncateString(errorMsg, 50)),
	)
}

// truncateString truncates a string with ellipsis
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// Summary holds batch run summary data for console display
type Summary struct {
	Total         int
	Approved      int
	Rejected      int
	Overrides     int
	Errors        int
	ApprovalRate  float64
	DefaultRate   float64
	Grade         string
	Policy        string
	Duration      time.Duration
	RecordsPerSec float64
}

// PrintSummary prints a run summary box
func PrintSummary(s Summary) {
	fmt.Println()
	PrintSection("Run Summary")
	fmt.Println()

	fmt.Printf("  %s %s\n",
		ConfigLabelStyle.Render("Policy:"),
		PolicyStyle.Render(s.Policy),
	)

	if s.Grade != "" {
		fmt.Printf("  %s %s\n",
			ConfigLabelStyle.Render("Grade:"),
			GradeStyle(s.Grade).Render(s.Grade),
		)
	}

	fmt.Println()

	// Results box - simple fixed-width layout
	// Use simple ASCII to avoid Unicode width issues
	boxWidth := 50

	border := "+" + strings.Repeat("-", boxWidth-2) + "+"

	fmt.Println(BracketStyle.Render("  " + border))

	// Simple row format: "|  Label:          Value                    |"
	printRow := func(label string, value string, valueStyle lipgloss.Style) {
		const labelW = 18
		const totalInner = 46 // boxWidth - 4 for borders and spaces

		labelPadded := label
		for len(labelPadded) < labelW {
			labelPadded += " "
		}

		valueW := totalInner - labelW
		valuePadded := value
		for len([]rune(valuePadded)) < valueW {
			valuePadded += " "
		}

		fmt.Printf("  |  %s%s|\n",
			StatLabelStyle.Render(labelPadded),
			valueStyle.Render(valuePadded),
		)
	}

	printRow("Applicants:", fmt.Sprintf("%d", s.Total), StatValueStyle)

	fmt.Println(BracketStyle.Render("  " + border))

	printRow("Approved:", fmt.Sprintf("[OK] %d", s.Approved), ApprovedStyle)
	printRow("Rejected:", fmt.Sprintf("[--] %d", s.Rejected), RejectedStyle)
	printRow("Overrides:", fmt.Sprintf("[^^] %d", s.Overrides), OverrideStyle)
	printRow("Errors:", fmt.Sprintf("[??] %d", s.Errors), ErrorStyle)

	fmt.Println(BracketStyle.Render("  " + border))

	printRow("Duration:", formatDuration(s.Duration), StatValueStyle)
	printRow("Records/sec:", fmt.Sprintf("%.1f", s.RecordsPerSec), StatValueStyle)

	fmt.Println(BracketStyle.Render("  " + border))

	fmt.Println()
	PrintApprovalMeter(s.ApprovalRate)

	// Final verdict
	fmt.Println()
	switch {
	case s.Errors > s.Total/10 && s.Total > 0:
		PrintWarning("High error rate detected - check the input file")
	case s.DefaultRate > 5:
		PrintWarning(fmt.Sprintf("Estimated default rate %.1f%% - consider the strict preset", s.DefaultRate))
	default:
		PrintSuccess(fmt.Sprintf("%d of %d applicants approved", s.Approved, s.Total))
	}
	fmt.Println()
}

// PrintApprovalMeter prints a visual approval rate meter
func PrintApprovalMeter(percent float64) {
	barWidth := 25

	var color lipgloss.Color
	var icon string
	switch {
	case percent >= 60:
		color = lipgloss.Color("#00D26A")
		icon = "[+]"
	case percent >= 40:
		color = lipgloss.Color("#6BCB77")
		icon = "[+]"
	case percent >= 25:
		color = lipgloss.Color("#FFD93D")
		icon = "[!]"
	case percent >= 10:
		color = lipgloss.Color("#FF6B6B")
		icon = "[!]"
	default:
		color = lipgloss.Color("#FF0000")
		icon = "[X]"
	}

	filled := int(float64(barWidth) * percent / 100)
	bar := strings.Builder{}
	for i := 0; i < barWidth; i++ {
		if i < filled {
			bar.WriteString(lipgloss.NewStyle().Foreground(color).Render("#"))
		} else {
			bar.WriteString(ProgressEmptyStyle.Render("."))
		}
	}

	percentStyle := lipgloss.NewStyle().Foreground(color).Bold(true)

	labelStyled := StatLabelStyle.Render("Approval Rate: ")
	fmt.Printf("  %s%s %s %s\n",
		labelStyled,
		bar.String(),
		percentStyle.Render(fmt.Sprintf("%.1f%%", percent)),
		icon,
	)
}

// padRight pads a string to the right to reach a specific width
// Uses lipgloss.Width to correctly measure visible width (excludes ANSI codes)
func padRight(s string, width int) string {
	visibleWidth := lipgloss.Width(s)
	padding := width - visibleWidth
	if padding <= 0 {
		return s
	}
	return s + strings.Repeat(" ", padding)
}

// PrintLiveRejection prints a rejection during execution (for verbose mode)
func PrintLiveRejection(id, policy string, creditScore int, riskScore float64) {
	fmt.Printf("\n  %s %s %s %s %s\n",
		RejectedStyle.Render("[X]"),
		PolicyStyle.Render(policy),
		StatValueStyle.Render(id),
		BandStyle(creditScore).Render(fmt.Sprintf("[%d]", creditScore)),
		StatLabelStyle.Render(fmt.Sprintf("[%.1f]", riskScore)),
	)
}
