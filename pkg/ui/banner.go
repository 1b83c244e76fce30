package ui

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/creditgate/creditgate/pkg/defaults"
)

// Version information - these can be overridden at build time via ldflags:
// go build -ldflags "-X github.com/creditgate/creditgate/pkg/ui.Version=1.0.0"
var (
	Version   = defaults.Version
	BuildDate = "2026-08-20"
	Commit    = "dev"
)

const (
	Author  = "CreditGate Team"
	Website = "https://creditgate.dev"
)

// Global UI state
var (
	silentMode  bool
	noColorMode bool
	uiMu        sync.RWMutex
)

// SetSilent enables or disables silent mode (suppresses most output)
func SetSilent(silent bool) {
	uiMu.Lock()
	defer uiMu.Unlock()
	silentMode = silent
}

// IsSilent returns whether silent mode is enabled
func IsSilent() bool {
	uiMu.RLock()
	defer uiMu.RUnlock()
	return silentMode
}

// SetNoColor disables colored output
func SetNoColor(noColor bool) {
	uiMu.Lock()
	defer uiMu.Unlock()
	noColorMode = noColor
	if noColor {
		// Use ASCII profile to disable colors
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

// IsNoColor returns whether color is disabled
func IsNoColor() bool {
	uiMu.RLock()
	defer uiMu.RUnlock()
	return noColorMode
}

// ASCII art banner
const bannerArt = `
  ____                  _  _  _     ____         _
 / ___| _ __   ___   __| |(_)| |_  / ___|  __ _ | |_   ___
| |    | '__| / _ \ / _` + "`" + ` || || __|| |  _  / _` + "`" + ` || __| / _ \
| |___ | |   |  __/| (_| || || |_ | |_| || (_| || |_ |  __/
 \____||_|    \___| \__,_||_| \__| \____| \__,_| \__| \___|
`

// Minimalist banner (ffuf-style box)
const miniBanner = `
________________________________________________

 creditgate v%s
________________________________________________`

// Separator line
const bannerSeparator = "________________________________________________"

// PrintBanner prints the application banner with version info
func PrintBanner() {
	lines := strings.Split(bannerArt, "\n")
	for _, line := range lines {
		if line != "" {
			fmt.Fprintln(os.Stderr, BannerStyle.Render(line))
		}
	}

	// Version line centered below banner
	fmt.Fprintf(os.Stderr, "                       v%s\n", VersionStyle.Render(Version))
	fmt.Fprintf(os.Stderr, "\n\t\t%s\n\n", Website)
}

// PrintMiniBanner prints the minimal banner (ffuf-style box)
func PrintMiniBanner() {
	fmt.Fprintf(os.Stderr, "%s\n", BannerStyle.Render(fmt.Sprintf(miniBanner, Version)))
	fmt.Fprintln(os.Stderr)
}

// printOption prints a configuration option in ffuf/nuclei style
// Format:  :: Option              : Value
func printOption(name, value string) {
	fmt.Fprintf(os.Stderr, " :: %-20s : %s\n", ConfigLabelStyle.Render(name), ConfigValueStyle.Render(value))
}

// PrintConfigBanner prints the run configuration before execution starts.
// Uses ordered keys for consistent display.
func PrintConfigBanner(options map[string]string) {
	order := []string{
		"Policy", "Input", "Records", "Workers", "Rate Limit",
		"Progress Every", "Output", "Format", "Guardrail",
		"Metrics Port", "OTel Endpoint", "History",
	}

	// Print in defined order first
	printed := make(map[string]bool)
	for _, name := range order {
		if value, ok := options[name]; ok && value != "" {
			printOption(name, value)
			printed[name] = true
		}
	}

	// Print any remaining options not in the order list
	for name, value := range options {
		if !printed[name] && value != "" {
			printOption(name, value)
		}
	}

	fmt.Fprintf(os.Stderr, "%s\n\n", DividerStyle.Render(bannerSeparator))
}

// PrintDivider prints a stylized divider (to stderr)
func PrintDivider() {
	divider := strings.Repeat("-", 75)
	fmt.Fprintln(os.Stderr, DividerStyle.Render(divider))
}

// PrintSection prints a section header (to stderr)
func PrintSection(title string) {
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, SectionStyle.Render("> "+title))
	PrintDivider()
}

// PrintConfig prints configuration in a nice format
func PrintConfig(config map[string]string) {
	if IsSilent() {
		return
	}

	maxKeyLen := 0
	for key := range config {
		if len(key) > maxKeyLen {
			maxKeyLen = len(key)
		}
	}

	for key, value := range config {
		paddedKey := key + strings.Repeat(" ", maxKeyLen-len(key))
		fmt.Fprintf(os.Stderr, "  %s : %s\n",
			ConfigLabelStyle.Render(paddedKey),
			ConfigValueStyle.Render(value),
		)
	}
}

// PrintConfigLine prints a single config line
func PrintConfigLine(key, value string) {
	if IsSilent() {
		return
	}
	fmt.Fprintf(os.Stderr, "  %s %s\n",
		ConfigLabelStyle.Render(key+":"),
		ConfigValueStyle.Render(value),
	)
}

// PrintBracketedInfo prints nuclei-style bracketed information
// Example: [reject] [strict] USER_00042 [score 38.5]
func PrintBracketedInfo(parts ...BracketPart) {
	if IsSilent() {
		return
	}

	var output strings.Builder
	for _, part := range parts {
		output.WriteString(BracketStyle.Render("["))
		output.WriteString(part.Style.Render(part.Text))
		output.WriteString(BracketStyle.Render("] "))
	}
	fmt.Fprintln(os.Stderr, output.String())
}

// BracketPart represents a piece of bracketed output
type BracketPart struct {
	Text  string
	Style Style
}

// Style is a simplified style type for bracket parts
type Style = lipgloss.Style

// Helper functions for creating bracket parts
func DecisionBracket(decision string) BracketPart {
	return BracketPart{
		Text:  strings.ToLower(decision),
		Style: DecisionStyle(decision),
	}
}

func PolicyBracket(policy string) BracketPart {
	return BracketPart{
		Text:  policy,
		Style: PolicyStyle,
	}
}

func GradeBracket(grade string) BracketPart {
	return BracketPart{
		Text:  grade,
		Style: GradeStyle(grade),
	}
}

func TextBracket(text string) BracketPart {
	return BracketPart{
		Text:  text,
		Style: lipgloss.NewStyle().Foreground(lipgloss.Color("#FAFAFA")),
	}
}

func MutedBracket(text string) BracketPart {
	return BracketPart{
		Text:  text,
		Style: lipgloss.NewStyle().Foreground(Muted),
	}
}

// PrintHelp prints contextual help (to stderr like ffuf/nuclei)
func PrintHelp(text string) {
	fmt.Fprintln(os.Stderr, HelpStyle.Render("  [i] "+text))
}

// PrintSuccess prints a success message (to stderr)
func PrintSuccess(message string) {
	fmt.Fprintln(os.Stderr, ApprovedStyle.Render("  [+] "+message))
}

// PrintError prints an error message (to stderr)
func PrintError(message string) {
	fmt.Fprintln(os.Stderr, RejectedStyle.Render("  [X] "+message))
}

// PrintWarning prints a warning message (to stderr)
func PrintWarning(message string) {
	fmt.Fprintln(os.Stderr, ErrorStyle.Render("  [!] "+message))
}

// PrintInfo prints an info message (to stderr)
func PrintInfo(message string) {
	fmt.Fprintf(os.Stderr, "  %s %s\n", SpinnerStyle.Render("*"), message)
}

// PrintDecision prints a live decision line in nuclei/httpx style
// Format: [timestamp] [decision] [policy] USER_00042 [credit 620] [score 61.3] [override?]
func PrintDecision(id, policy, decision, override string, creditScore int, riskScore float64, showTimestamp bool) {
	if IsSilent() {
		return
	}

	var output strings.Builder

	// Timestamp (optional, like nuclei's -ts flag)
	if showTimestamp {
		ts := time.Now().Format("15:04:05")
		output.WriteString(BracketStyle.Render("["))
		output.WriteString(StatValueStyle.Render(ts))
		output.WriteString(BracketStyle.Render("] "))
	}

	// Decision badge
	output.WriteString(BracketStyle.Render("["))
	output.WriteString(DecisionStyle(decision).Render(strings.ToLower(decision)))
	output.WriteString(BracketStyle.Render("] "))

	// Policy
	output.WriteString(BracketStyle.Render("["))
	output.WriteString(PolicyStyle.Render(policy))
	output.WriteString(BracketStyle.Render("] "))

	// Applicant ID
	output.WriteString(ConfigValueStyle.Render(id))
	output.WriteString(" ")

	// Credit score (band colorized)
	output.WriteString(BracketStyle.Render("["))
	output.WriteString(BandStyle(creditScore).Render(fmt.Sprintf("credit %d", creditScore)))
	output.WriteString(BracketStyle.Render("] "))

	// Risk score
	output.WriteString(BracketStyle.Render("["))
	output.WriteString(StatLabelStyle.Render(fmt.Sprintf("score %.1f", riskScore)))
	output.WriteString(BracketStyle.Render("]"))

	// Override kind, when an approval stood on compensating factors
	if override != "" {
		output.WriteString(" ")
		output.WriteString(BracketStyle.Render("["))
		output.WriteString(OverrideStyle.Render(override))
		output.WriteString(BracketStyle.Render("]"))
	}

	fmt.Fprintln(os.Stderr, output.String())
}
