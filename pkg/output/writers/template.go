// Package writers provides output writers for various formats.
package writers

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"text/template"
	"time"

	"github.com/Masterminds/sprig/v3"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/creditgate/creditgate/pkg/decision"
	"github.com/creditgate/creditgate/pkg/jsonutil"
	"github.com/creditgate/creditgate/pkg/output/dispatcher"
	"github.com/creditgate/creditgate/pkg/output/events"
)

// Compile-time interface check.
var _ dispatcher.Writer = (*TemplateWriter)(nil)

// TemplateConfig configures the template writer.
type TemplateConfig struct {
	// TemplatePath is the path to a custom template file.
	TemplatePath string

	// TemplateString is an inline template string (alternative to TemplatePath).
	TemplateString string

	// BuiltIn is the name of a built-in template: "csv-summary", "text-summary".
	BuiltIn string
}

// builtInTemplates contains pre-defined templates for common output formats.
var builtInTemplates = map[string]string{
	"csv-summary": `ID,Decision,RiskScore,Policy,Override,Reason
{{- range .Results }}
{{ .Applicant.ID }},{{ .Decision.Outcome }},{{ printf "%.2f" .Decision.RiskScore }},{{ .Policy }},{{ .Decision.Override }},{{ escapeCSV .Decision.Reason }}
{{- end }}

Total,{{ .Total }}
Approved,{{ .Approved }}
Rejected,{{ .Rejected }}
Approval Rate,{{ pct .ApprovalRate }}`,

	"text-summary": `CreditGate Decision Summary
===========================
Policy: {{ .Policy }}
Generated: {{ .Timestamp }}
Duration: {{ printf "%.2f" .Duration }}s

Results:
  Total Applicants: {{ .Total }}
  Approved: {{ .Approved }}
  Rejected: {{ .Rejected }}

Approval Rate: {{ pct .ApprovalRate }}
{{- if .Grade }}
Portfolio Grade: {{ .Grade }}
Approved Principal: {{ money .ApprovedPrincipal }}
Risk-Adjusted Return: {{ money .RiskAdjustedReturn }}
{{- end }}
{{ if gt (len .Overrides) 0 }}
Compensated Approvals:
{{- range .Overrides }}
  {{ decisionIcon (printf "%s" .Decision.Outcome) }} {{ .Applicant.ID }}: {{ .Decision.Override }} at {{ printf "%.2f" .Decision.RiskScore }}
{{- end }}
{{ end }}
{{- if gt .Rejected 0 }}
Rejections by Rule:
{{- range $rule, $count := .RuleCounts }}
  {{ $rule }}: {{ $count }}
{{- end }}
{{ end }}`,
}

// TemplateWriter renders events using Go templates.
// It buffers all events in memory and renders the template on Close.
// The writer supports custom templates, inline templates, and built-in templates.
// Sprig functions and CreditGate-specific functions are available in templates.
type TemplateWriter struct {
	w         io.Writer
	mu        sync.Mutex
	config    TemplateConfig
	tmpl      *template.Template
	start     *events.StartEvent
	decisions []*events.DecisionEvent
	summary   *events.SummaryEvent
	runID     string
	startTime time.Time
}

// NewTemplateWriter creates a new template writer.
// It parses the template immediately and returns an error if the template is invalid.
// The writer buffers all events and writes the rendered template on Close.
func NewTemplateWriter(w io.Writer, config TemplateConfig) (*TemplateWriter, error) {
	tw := &TemplateWriter{
		w:         w,
		config:    config,
		decisions: make([]*events.DecisionEvent, 0),
		startTime: time.Now(),
	}

	// Parse template
	if err := tw.parseTemplate(); err != nil {
		return nil, fmt.Errorf("template parse error: %w", err)
	}

	return tw, nil
}

// parseTemplate parses the template from config (path, string, or built-in).
func (tw *TemplateWriter) parseTemplate() error {
	var templateContent string

	// Determine template source
	switch {
	case tw.config.TemplatePath != "":
		content, err := os.ReadFile(tw.config.TemplatePath)
		if err != nil {
			return fmt.Errorf("failed to read template file: %w", err)
		}
		templateContent = string(content)

	case tw.config.TemplateString != "":
		templateContent = tw.config.TemplateString

	case tw.config.BuiltIn != "":
		content, ok := builtInTemplates[tw.config.BuiltIn]
		if !ok {
			return fmt.Errorf("unknown built-in template: %s (available: csv-summary, text-summary)", tw.config.BuiltIn)
		}
		templateContent = content

	default:
		return fmt.Errorf("no template specified: set TemplatePath, TemplateString, or BuiltIn")
	}

	// Create function map with Sprig functions
	funcMap := sprig.TxtFuncMap()

	// Add CreditGate-specific functions
	funcMap["escapeCSV"] = tmplEscapeCSV
	funcMap["decisionIcon"] = tmplDecisionIcon
	funcMap["money"] = tmplMoney
	funcMap["pct"] = tmplPct
	funcMap["json"] = tmplToJSON
	funcMap["prettyJSON"] = tmplPrettyJSON

	// Parse template with all functions
	tmpl, err := template.New("creditgate").Funcs(funcMap).Parse(templateContent)
	if err != nil {
		return fmt.Errorf("parse output template: %w", err)
	}

	tw.tmpl = tmpl
	return nil
}

// Write buffers an event for later template rendering.
func (tw *TemplateWriter) Write(event events.Event) error {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	// Capture run ID from first event
	if tw.runID == "" {
		tw.runID = event.RunID()
	}

	switch e := event.(type) {
	case *events.StartEvent:
		tw.start = e
	case *events.DecisionEvent:
		tw.decisions = append(tw.decisions, e)
	case *events.SummaryEvent:
		tw.summary = e
	}
	return nil
}

// Flush is a no-op for template writer.
// All events are rendered as a single document on Close.
func (tw *TemplateWriter) Flush() error {
	return nil
}

// Close renders the template with all buffered events and writes to the output.
func (tw *TemplateWriter) Close() error {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	data := tw.buildTemplateData()

	var buf bytes.Buffer
	if err := tw.tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("template execution error: %w", err)
	}

	if _, err := tw.w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write error: %w", err)
	}

	if closer, ok := tw.w.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// SupportsEvent returns true for start, decision and summary events.
func (tw *TemplateWriter) SupportsEvent(eventType events.EventType) bool {
	switch eventType {
	case events.EventTypeStart, events.EventTypeDecision, events.EventTypeSummary:
		return true
	default:
		return false
	}
}

// tmplData holds all data available to templates.
type tmplData struct {
	// Basic info
	RunID     string
	Policy    string
	Source    string
	Timestamp string
	Duration  float64

	// Decisions
	Results   []*tmplDecisionData
	Overrides []*tmplDecisionData

	// Summary counts
	Total        int
	Approved     int
	Rejected     int
	ApprovalRate float64
	Grade        string

	// Portfolio economics
	MeanRiskScore        float64
	EstimatedDefaultRate float64
	ApprovedPrincipal    float64
	RiskAdjustedReturn   float64

	// Breakdown
	BandCounts map[string]int
	RuleCounts map[string]int
}

// tmplDecisionData is a flattened view of DecisionEvent for easier template access.
type tmplDecisionData struct {
	Applicant events.ApplicantInfo
	Decision  events.DecisionInfo
	Policy    string
}

// buildTemplateData constructs the data object for template rendering.
func (tw *TemplateWriter) buildTemplateData() *tmplData {
	data := &tmplData{
		RunID:      tw.runID,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Results:    make([]*tmplDecisionData, 0, len(tw.decisions)),
		Overrides:  make([]*tmplDecisionData, 0),
		BandCounts: make(map[string]int),
		RuleCounts: make(map[string]int),
	}

	// Process decisions
	for _, d := range tw.decisions {
		dd := &tmplDecisionData{
			Applicant: d.Applicant,
			Decision:  d.Decision,
			Policy:    d.Policy,
		}
		data.Results = append(data.Results, dd)
		data.BandCounts[string(bandFor(d.Decision.RiskScore))]++

		// Count by outcome
		if d.Decision.Outcome == decision.Approve {
			data.Approved++
			if d.Decision.Override != "" {
				data.Overrides = append(data.Overrides, dd)
			}
		} else {
			data.Rejected++
			// Count by leading rule
			if len(d.Decision.FailedRules) > 0 {
				data.RuleCounts[d.Decision.FailedRules[0].Rule]++
			} else {
				data.RuleCounts["risk_score"]++
			}
		}
	}

	data.Total = len(tw.decisions)

	// Calculate approval rate
	if data.Total > 0 {
		data.ApprovalRate = float64(data.Approved) / float64(data.Total) * 100
	}

	// Extract start data if available
	if tw.start != nil {
		data.Policy = tw.start.Policy
		data.Source = tw.start.Source
	}

	// Extract summary data if available
	if tw.summary != nil {
		if data.Policy == "" {
			data.Policy = tw.summary.Policy
		}
		data.Duration = tw.summary.Timing.DurationSec
		if p := tw.summary.Portfolio; p != nil {
			data.Grade = p.Grade
			data.MeanRiskScore = p.MeanRiskScore
			data.EstimatedDefaultRate = p.EstimatedDefaultRate
			data.ApprovedPrincipal = p.ApprovedPrincipal
			data.RiskAdjustedReturn = p.RiskAdjustedReturn
			data.ApprovalRate = p.ApprovalRate
		}
	}

	return data
}

// Template helper functions

// enPrinter formats numbers with en-US grouping for the money helper and
// the PDF report sections.
var enPrinter = message.NewPrinter(language.AmericanEnglish)

// tmplEscapeCSV escapes a string for CSV output.
// It wraps the value in quotes if it contains commas, quotes, or newlines.
func tmplEscapeCSV(s string) string {
	if s == "" {
		return ""
	}
	needsQuote := strings.ContainsAny(s, ",\"\n\r")
	if needsQuote {
		escaped := strings.ReplaceAll(s, "\"", "\"\"")
		return "\"" + escaped + "\""
	}
	return s
}

// tmplDecisionIcon returns an emoji icon for a decision outcome.
func tmplDecisionIcon(outcome string) string {
	switch strings.ToLower(outcome) {
	case "approve":
		return "✅"
	case "reject":
		return "❌"
	case "error":
		return "⚠️"
	default:
		return "⚪"
	}
}

// tmplMoney formats a dollar amount with en-US thousands grouping.
func tmplMoney(v float64) string {
	return enPrinter.Sprintf("$%.2f", v)
}

// tmplPct formats a percentage value.
func tmplPct(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}

// tmplToJSON converts a value to a JSON string.
func tmplToJSON(v interface{}) string {
	b, err := jsonutil.Marshal(v)
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	return string(b)
}

// tmplPrettyJSON converts a value to a formatted JSON string.
func tmplPrettyJSON(v interface{}) string {
	b, err := jsonutil.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	return string(b)
}
