// pkg/ui/manifest.go - Execution manifest display for pre-run info
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// ManifestItem represents a single item in the execution manifest
type ManifestItem struct {
	Label    string
	Value    interface{}
	Icon     string
	Emphasis bool // If true, highlight this item
}

// ExecutionManifest displays what will be executed before a run starts
type ExecutionManifest struct {
	Title       string
	Description string
	Items       []ManifestItem
	Writer      io.Writer
	BoxStyle    bool // If true, draw a box around the manifest
}

// NewExecutionManifest creates a new manifest with default settings
func NewExecutionManifest(title string) *ExecutionManifest {
	return &ExecutionManifest{
		Title:    title,
		Items:    make([]ManifestItem, 0),
		Writer:   os.Stdout,
		BoxStyle: true,
	}
}

// SetDescription sets a description line under the title
func (m *ExecutionManifest) SetDescription(desc string) *ExecutionManifest {
	m.Description = desc
	return m
}

// Add adds an item to the manifest
func (m *ExecutionManifest) Add(label string, value interface{}) *ExecutionManifest {
	m.Items = append(m.Items, ManifestItem{Label: label, Value: value})
	return m
}

// AddWithIcon adds an item with an icon
func (m *ExecutionManifest) AddWithIcon(icon, label string, value interface{}) *ExecutionManifest {
	m.Items = append(m.Items, ManifestItem{Icon: icon, Label: label, Value: value})
	return m
}

// AddEmphasis adds an emphasized item (highlighted)
func (m *ExecutionManifest) AddEmphasis(icon, label string, value interface{}) *ExecutionManifest {
	m.Items = append(m.Items, ManifestItem{Icon: icon, Label: label, Value: value, Emphasis: true})
	return m
}

// AddPoolInfo adds applicant pool information (common pattern)
func (m *ExecutionManifest) AddPoolInfo(count int, source string) *ExecutionManifest {
	m.AddEmphasis("", "Applicants", fmt.Sprintf("%d records loaded", count))
	if source != "" {
		m.AddWithIcon("", "Source", source)
	}
	return m
}

// AddPolicyInfo adds the preset name and its hard thresholds
func (m *ExecutionManifest) AddPolicyInfo(name string, minCredit int, maxDTI, maxPTI float64, minRiskScore float64) *ExecutionManifest {
	m.AddEmphasis("", "Policy", name)
	m.AddWithIcon("", "Min Credit", fmt.Sprintf("%d", minCredit))
	m.AddWithIcon("", "Max DTI", fmt.Sprintf("%.2f", maxDTI))
	m.AddWithIcon("", "Max PTI", fmt.Sprintf("%.2f", maxPTI))
	m.AddWithIcon("", "Min Risk Score", fmt.Sprintf("%.0f", minRiskScore))
	return m
}

// AddEstimate adds estimated time information for paced runs
func (m *ExecutionManifest) AddEstimate(records int, rateLimit float64) *ExecutionManifest {
	if rateLimit > 0 {
		estimatedSecs := float64(records) / rateLimit
		var estimate string
		if estimatedSecs < 60 {
			estimate = fmt.Sprintf("~%.0fs", estimatedSecs)
		} else if estimatedSecs < 3600 {
			estimate = fmt.Sprintf("~%.1f min", estimatedSecs/60)
		} else {
			estimate = fmt.Sprintf("~%.1f hrs", estimatedSecs/3600)
		}
		m.AddWithIcon("", "Estimate", fmt.Sprintf("%s @ %.0f rec/s", estimate, rateLimit))
	}
	return m
}

// AddConcurrency adds worker/rate info
func (m *ExecutionManifest) AddConcurrency(workers int, rateLimit float64) *ExecutionManifest {
	m.AddWithIcon("", "Workers", fmt.Sprintf("%d concurrent", workers))
	if rateLimit > 0 {
		m.AddWithIcon("", "Rate Limit", fmt.Sprintf("%.0f rec/s", rateLimit))
	}
	return m
}

// Print displays the manifest
func (m *ExecutionManifest) Print() {
	if m.BoxStyle {
		m.printBoxed()
	} else {
		m.printSimple()
	}
}

// printBoxed displays manifest in a Unicode box
func (m *ExecutionManifest) printBoxed() {
	w := m.Writer

	// Calculate max width
	maxWidth := len(m.Title) + 4
	for _, item := range m.Items {
		width := len(item.Label) + len(fmt.Sprintf("%v", item.Value)) + 10
		if width > maxWidth {
			maxWidth = width
		}
	}
	if maxWidth > 70 {
		maxWidth = 70
	}
	if maxWidth < 50 {
		maxWidth = 50
	}

	// Box characters
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  ╔%s╗\n", strings.Repeat("═", maxWidth))

	// Title
	titlePadding := (maxWidth - len(m.Title)) / 2
	fmt.Fprintf(w, "  ║%s\033[1m%s\033[0m%s║\n",
		strings.Repeat(" ", titlePadding),
		m.Title,
		strings.Repeat(" ", maxWidth-titlePadding-len(m.Title)))

	// Description
	if m.Description != "" {
		descPadding := (maxWidth - len(m.Description)) / 2
		fmt.Fprintf(w, "  ║%s\033[2m%s\033[0m%s║\n",
			strings.Repeat(" ", descPadding),
			m.Description,
			strings.Repeat(" ", maxWidth-descPadding-len(m.Description)))
	}

	fmt.Fprintf(w, "  ╠%s╣\n", strings.Repeat("═", maxWidth))

	// Items
	for _, item := range m.Items {
		icon := item.Icon
		if icon != "" {
			icon = icon + " "
		}

		valueStr := fmt.Sprintf("%v", item.Value)

		// Apply emphasis styling
		if item.Emphasis {
			valueStr = fmt.Sprintf("\033[1;36m%s\033[0m", valueStr)
		}

		// Calculate padding
		labelPart := fmt.Sprintf("%s%s:", icon, item.Label)
		displayLen := len(icon) + len(item.Label) + 1 + len(fmt.Sprintf("%v", item.Value))
		padding := maxWidth - displayLen - 4
		if padding < 1 {
			padding = 1
		}

		fmt.Fprintf(w, "  ║  %s%s%s  ║\n", labelPart, strings.Repeat(" ", padding), valueStr)
	}

	fmt.Fprintf(w, "  ╚%s╝\n", strings.Repeat("═", maxWidth))
	fmt.Fprintln(w)
}

// printSimple displays manifest as simple key-value pairs
func (m *ExecutionManifest) printSimple() {
	w := m.Writer

	fmt.Fprintln(w)
	fmt.Fprintf(w, "  \033[1m%s\033[0m\n", m.Title)
	if m.Description != "" {
		fmt.Fprintf(w, "  \033[2m%s\033[0m\n", m.Description)
	}
	fmt.Fprintln(w)

	for _, item := range m.Items {
		icon := item.Icon
		if icon != "" {
			icon = icon + " "
		}

		valueStr := fmt.Sprintf("%v", item.Value)
		if item.Emphasis {
			valueStr = fmt.Sprintf("\033[1;36m%s\033[0m", valueStr)
		}

		fmt.Fprintf(w, "    %s%s: %s\n", icon, item.Label, valueStr)
	}
	fmt.Fprintln(w)
}

// === Pre-built Manifest Templates ===

// BatchManifest creates a manifest for batch assessment runs
func BatchManifest(source string, records int, policy string, workers int, rateLimit float64) *ExecutionManifest {
	m := NewExecutionManifest("ASSESSMENT MANIFEST")
	m.SetDescription("Applicant pool and policy configuration")
	m.AddPoolInfo(records, source)
	m.AddEmphasis("", "Policy", policy)
	m.AddConcurrency(workers, rateLimit)
	m.AddEstimate(records, rateLimit)
	return m
}

// CompareManifest creates a manifest for strict/relaxed comparison runs
func CompareManifest(source string, records int) *ExecutionManifest {
	m := NewExecutionManifest("COMPARISON MANIFEST")
	m.SetDescription("Evaluating both presets over one pool")
	m.AddPoolInfo(records, source)
	m.AddEmphasis("", "Policies", "strict vs relaxed")
	return m
}

// GenerateManifest creates a manifest for synthetic pool generation
func GenerateManifest(count int, seed int64, output string) *ExecutionManifest {
	m := NewExecutionManifest("GENERATION MANIFEST")
	m.SetDescription("Synthetic applicant pool")
	m.AddEmphasis("", "Records", fmt.Sprintf("%d applicants", count))
	m.AddWithIcon("", "Seed", fmt.Sprintf("%d", seed))
	if output != "" {
		m.AddWithIcon("", "Output", output)
	}
	return m
}
