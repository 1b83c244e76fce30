package ui

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// ProgressConfig holds progress display settings
type ProgressConfig struct {
	Total       int
	Width       int
	ShowPercent bool
	ShowETA     bool
	Workers     int // Number of parallel evaluators
}

// Progress represents a live-updating progress display for a batch run
type Progress struct {
	config    ProgressConfig
	startTime time.Time
	current   int64

	// Stats counters
	approved  int64
	rejected  int64
	overrides int64
	errored   int64

	// Control
	done    chan struct{}
	mu      sync.Mutex
	running bool
}

// NewProgress creates a new progress display
func NewProgress(config ProgressConfig) *Progress {
	if config.Width == 0 {
		config.Width = 40
	}
	return &Progress{
		config:    config,
		startTime: time.Now(),
		done:      make(chan struct{}),
	}
}

// Start begins the progress display
func (p *Progress) Start() {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	p.running = true
	p.startTime = time.Now()
	p.mu.Unlock()

	go p.renderLoop()
}

// Stop halts the progress display
func (p *Progress) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		close(p.done)
		p.running = false
		fmt.Println() // New line after progress
	}
}

// Increment updates the progress. Override approvals count toward both
// the approved and override tallies.
func (p *Progress) Increment(decision string, override bool) {
	atomic.AddInt64(&p.current, 1)

	switch decision {
	case "approve", "Approve":
		atomic.AddInt64(&p.approved, 1)
		if override {
			atomic.AddInt64(&p.overrides, 1)
		}
	case "reject", "Reject":
		atomic.AddInt64(&p.rejected, 1)
	case "error", "Error":
		atomic.AddInt64(&p.errored, 1)
	}
}

// GetStats returns current statistics
func (p *Progress) GetStats() (approved, rejected, overrides, errored int64) {
	return atomic.LoadInt64(&p.approved),
		atomic.LoadInt64(&p.rejected),
		atomic.LoadInt64(&p.overrides),
		atomic.LoadInt64(&p.errored)
}

// renderLoop continuously updates the progress display
func (p *Progress) renderLoop() {
	ticker := time.NewTicker(80 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.render()
		case <-p.done:
			return
		}
	}
}

// render draws the nuclei/ffuf-style progress state
func (p *Progress) render() {
	current := atomic.LoadInt64(&p.current)
	total := int64(p.config.Total)
	elapsed := time.Since(p.startTime)

	percent := float64(current) / float64(total) * 100
	if math.IsNaN(percent) || math.IsInf(percent, 0) {
		percent = 0
	}

	rps := float64(current) / elapsed.Seconds()
	if math.IsNaN(rps) || math.IsInf(rps, 0) {
		rps = 0
	}

	eta := time.Duration(0)
	if current > 0 && current < total {
		remaining := total - current
		eta = time.Duration(float64(remaining) / rps * float64(time.Second))
	}

	approved := atomic.LoadInt64(&p.approved)
	rejected := atomic.LoadInt64(&p.rejected)
	overrides := atomic.LoadInt64(&p.overrides)
	errored := atomic.LoadInt64(&p.errored)

	// Clear line
	fmt.Print("\033[2K\r")

	// [elapsed] [percent%] | Applicants: n/total | Approved: n | Rejected: n | Overrides: n | Errors: n | RPS: n.n | ETA: mm:ss
	fmt.Printf("[%s] [%s] %s Applicants: %s/%d %s Approved: %s %s Rejected: %s %s Overrides: %s %s Errors: %s %s RPS: %s %s ETA: %s",
		StatValueStyle.Render(formatDuration(elapsed)),
		StatValueStyle.Render(fmt.Sprintf("%5.1f%%", percent)),
		BracketStyle.Render("|"),
		StatValueStyle.Render(fmt.Sprintf("%d", current)),
		total,
		BracketStyle.Render("|"),
		ApprovedStyle.Render(fmt.Sprintf("%d", approved)),
		BracketStyle.Render("|"),
		RejectedStyle.Render(fmt.Sprintf("%d", rejected)),
		BracketStyle.Render("|"),
		OverrideStyle.Render(fmt.Sprintf("%d", overrides)),
		BracketStyle.Render("|"),
		ErrorStyle.Render(fmt.Sprintf("%d", errored)),
		BracketStyle.Render("|"),
		StatValueStyle.Render(fmt.Sprintf("%.1f", rps)),
		BracketStyle.Render("|"),
		StatLabelStyle.Render(formatDuration(eta)),
	)
}

// formatDuration formats a duration as MM:SS or HH:MM:SS
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// PrintFinalProgress prints a completed progress line
func PrintFinalProgress(total int, elapsed time.Duration, rps float64, approved, rejected, overrides, errored int) {
	bar := strings.Builder{}
	bar.WriteString(BracketStyle.Render("["))
	for i := 0; i < 40; i++ {
		bar.WriteString(ProgressFullStyle.Render("#"))
	}
	bar.WriteString(BracketStyle.Render("]"))
	bar.WriteString(StatValueStyle.Render(" 100.0%"))

	stats := fmt.Sprintf("%s/%d %s RPS: %s %s %s %s %s %s %s %s",
		StatValueStyle.Render(fmt.Sprintf("%d", total)),
		total,
		BracketStyle.Render("|"),
		StatValueStyle.Render(fmt.Sprintf("%.1f", rps)),
		BracketStyle.Render("|"),
		ApprovedStyle.Render(fmt.Sprintf("+ %d", approved)),
		RejectedStyle.Render(fmt.Sprintf("x %d", rejected)),
		OverrideStyle.Render(fmt.Sprintf("^ %d", overrides)),
		ErrorStyle.Render(fmt.Sprintf("! %d", errored)),
		BracketStyle.Render("|"),
		StatLabelStyle.Render(formatDuration(elapsed)),
	)

	fmt.Printf("\r  %s %s %s\n", ApprovedStyle.Render("[DONE]"), bar.String(), stats)
}

// ProgressBar is a simple static progress bar
type ProgressBar struct {
	width int
	style lipgloss.Style
}

// NewProgressBar creates a simple progress bar
func NewProgressBar(width int) *ProgressBar {
	return &ProgressBar{
		width: width,
		style: lipgloss.NewStyle(),
	}
}

// Render renders the progress bar at a given percentage
func (pb *ProgressBar) Render(percent float64) string {
	filled := int(float64(pb.width) * percent / 100)
	if filled > pb.width {
		filled = pb.width
	}

	bar := strings.Builder{}
	for i := 0; i < pb.width; i++ {
		if i < filled {
			bar.WriteString(ProgressFullStyle.Render("#"))
		} else {
			bar.WriteString(ProgressEmptyStyle.Render("."))
		}
	}

	return bar.String()
}
