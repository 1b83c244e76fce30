package ui

import "github.com/charmbracelet/lipgloss"

// ANSI escape codes for simple terminal output (CLI commands)
const (
	Reset   = "\033[0m"
	Bold    = "\033[1m"
	Red     = "\033[31m"
	Green   = "\033[32m"
	Yellow  = "\033[33m"
	Blue    = "\033[34m"
	Magenta = "\033[35m"
	Cyan    = "\033[36m"
	White   = "\033[37m"
	BoldRed = "\033[1;31m"
)

// Color palette
var (
	// Brand colors
	Primary   = lipgloss.Color("#7D56F4") // Purple - brand color
	Secondary = lipgloss.Color("#00D4AA") // Cyan/Teal

	// Risk band colors, prime through deep subprime
	BandPrime     = lipgloss.Color("#00D26A") // Green
	BandNearPrime = lipgloss.Color("#6BCB77")
	BandSubprime  = lipgloss.Color("#FFD93D") // Yellow
	BandDeepSub   = lipgloss.Color("#FF6B6B") // Red/Orange

	// Status colors
	Success = lipgloss.Color("#00D26A") // Bright green
	Warning = lipgloss.Color("#FFB800") // Amber
	Error   = lipgloss.Color("#FF3838") // Red
	Muted   = lipgloss.Color("#6B7280") // Gray

	// Decision colors
	Approved = lipgloss.Color("#00D26A") // Green
	Override = lipgloss.Color("#4D96FF") // Blue - approved on second look
	Rejected = lipgloss.Color("#FF3838") // Red
	Errored  = lipgloss.Color("#FFB800") // Yellow

	// Background colors
	DarkBg  = lipgloss.Color("#1A1A2E")
	LightBg = lipgloss.Color("#16213E")
)

// Pre-configured styles
var (
	// Title and headers
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(Primary).
			Padding(0, 1)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(Muted).
			Italic(true)

	// Banner style
	BannerStyle = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true)

	// Version badge
	VersionStyle = lipgloss.NewStyle().
			Foreground(Secondary).
			Bold(true)

	// Section headers
	SectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Bold(true).
			MarginTop(1)

	// Configuration display
	ConfigLabelStyle = lipgloss.NewStyle().
				Foreground(Muted).
				Width(15)

	ConfigValueStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FAFAFA"))

	// Progress bar
	ProgressFullStyle = lipgloss.NewStyle().
				Foreground(Primary)

	ProgressEmptyStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#3B3B4F"))

	// Statistics
	StatLabelStyle = lipgloss.NewStyle().
			Foreground(Muted)

	StatValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Bold(true)

	// Bracketed metadata
	BracketStyle = lipgloss.NewStyle().
			Foreground(Muted)

	// Decision styles
	ApprovedStyle = lipgloss.NewStyle().
			Foreground(Approved).
			Bold(true)

	OverrideStyle = lipgloss.NewStyle().
			Foreground(Override).
			Bold(true)

	RejectedStyle = lipgloss.NewStyle().
			Foreground(Rejected).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(Errored).
			Bold(true)

	// Divider
	DividerStyle = lipgloss.NewStyle().
			Foreground(Muted)

	// Help/footer
	HelpStyle = lipgloss.NewStyle().
			Foreground(Muted).
			Italic(true)

	// Policy badge
	PolicyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#3B3B4F")).
			Padding(0, 1)

	// Spinner frames
	SpinnerStyle = lipgloss.NewStyle().
			Foreground(Primary)
)

// GradeStyle returns the appropriate style for a portfolio grade
func GradeStyle(grade string) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	switch grade {
	case "A":
		return base.Foreground(lipgloss.Color("#000000")).Background(BandPrime)
	case "B":
		return base.Foreground(lipgloss.Color("#000000")).Background(BandNearPrime)
	case "C":
		return base.Foreground(lipgloss.Color("#000000")).Background(BandSubprime)
	case "D":
		return base.Foreground(lipgloss.Color("#FFFFFF")).Background(BandDeepSub)
	default:
		return base.Foreground(Muted)
	}
}

// BandStyle returns the appropriate style for a credit score band
func BandStyle(score int) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)
	switch {
	case score >= 750:
		return base.Foreground(BandPrime)
	case score >= 650:
		return base.Foreground(BandNearPrime)
	case score >= 550:
		return base.Foreground(BandSubprime)
	default:
		return base.Foreground(BandDeepSub)
	}
}

// DecisionStyle returns the appropriate style for a decision outcome
func DecisionStyle(decision string) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)
	switch decision {
	case "approve", "Approve":
		return base.Foreground(Approved)
	case "override", "Override":
		return base.Foreground(Override)
	case "reject", "Reject":
		return base.Foreground(Rejected)
	case "error", "Error":
		return base.Foreground(Errored)
	default:
		return base.Foreground(Muted)
	}
}
