// Package writers provides output writers for various formats.
package writers

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	gofpdf "github.com/go-pdf/fpdf"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/creditgate/creditgate/pkg/decision"
	"github.com/creditgate/creditgate/pkg/output/dispatcher"
	"github.com/creditgate/creditgate/pkg/output/events"
	"github.com/creditgate/creditgate/pkg/scoring"
)

// Compile-time interface check.
var _ dispatcher.Writer = (*PDFWriter)(nil)

// PDFConfig configures the PDF report writer.
type PDFConfig struct {
	// Title is the report title (default: "CreditGate Portfolio Report")
	Title string

	// CompanyName is shown on the cover page below the title.
	CompanyName string

	// Author is embedded in the document metadata and cover page.
	Author string

	// Classification renders a badge on the cover (e.g. "INTERNAL").
	Classification string

	// WatermarkText renders a diagonal watermark on every page.
	WatermarkText string

	// FooterText replaces the default footer line (default: "Generated by CreditGate")
	FooterText string

	// IncludeTOC includes a table of contents page.
	IncludeTOC bool

	// IncludeApplicants includes per-override review cards with the
	// applicant's financial figures. Off by default; the figures are
	// sensitive.
	IncludeApplicants bool

	// PageSize is "A4" or "Letter" (default: "A4")
	PageSize string

	// Orientation is "P" (portrait) or "L" (landscape) (default: "P")
	Orientation string
}

// PDFWriter writes events as a PDF portfolio report.
// It buffers all events in memory and renders the complete document on Close.
// The writer is safe for concurrent use.
type PDFWriter struct {
	w         io.Writer
	mu        sync.Mutex
	config    PDFConfig
	start     *events.StartEvent
	decisions []*events.DecisionEvent
	overrides []*events.OverrideEvent
	summary   *events.SummaryEvent

	// noCompress disables stream compression so tests can search raw bytes.
	noCompress bool
}

// NewPDFWriter creates a new PDF report writer.
// The writer buffers all events and writes a complete report on Close.
func NewPDFWriter(w io.Writer, config PDFConfig) *PDFWriter {
	if config.Title == "" {
		config.Title = "CreditGate Portfolio Report"
	}
	if config.PageSize == "" {
		config.PageSize = "A4"
	}
	if config.Orientation == "" {
		config.Orientation = "P"
	}
	if config.FooterText == "" {
		config.FooterText = "Generated by CreditGate"
	}
	return &PDFWriter{
		w:         w,
		config:    config,
		decisions: make([]*events.DecisionEvent, 0),
		overrides: make([]*events.OverrideEvent, 0),
	}
}

// Write buffers an event for later PDF rendering.
func (pw *PDFWriter) Write(event events.Event) error {
	pw.mu.Lock()
	defer pw.mu.Unlock()

	switch e := event.(type) {
	case *events.StartEvent:
		pw.start = e
	case *events.DecisionEvent:
		pw.decisions = append(pw.decisions, e)
	case *events.OverrideEvent:
		pw.overrides = append(pw.overrides, e)
	case *events.SummaryEvent:
		pw.summary = e
	}
	return nil
}

// Flush is a no-op for PDF writer.
// All events are rendered as a single document on Close.
func (pw *PDFWriter) Flush() error {
	return nil
}

// SupportsEvent returns true for start, decision, override and summary events.
func (pw *PDFWriter) SupportsEvent(eventType events.EventType) bool {
	switch eventType {
	case events.EventTypeStart, events.EventTypeDecision, events.EventTypeOverride, events.EventTypeSummary:
		return true
	default:
		return false
	}
}

// Close renders and writes the complete PDF report.
func (pw *PDFWriter) Close() error {
	pw.mu.Lock()
	defer pw.mu.Unlock()

	pdf := gofpdf.New(pw.config.Orientation, "mm", pw.config.PageSize, "")
	if pw.noCompress {
		pdf.SetCompression(false)
	}
	pdf.SetTitle(pw.config.Title, true)
	if pw.config.Author != "" {
		pdf.SetAuthor(pw.config.Author, true)
	}
	pdf.AliasNbPages("")
	pdf.SetAutoPageBreak(true, 20)
	pw.setupPageDecorations(pdf)

	pw.addCoverPage(pdf)
	if pw.config.IncludeTOC {
		pw.addTableOfContents(pdf)
	}
	pw.addExecutiveSummary(pdf)
	pw.addDimensionAverages(pdf)
	pw.addDecisionMix(pdf)
	pw.addOverrideTable(pdf)
	pw.addPolicyComparison(pdf)
	if pw.config.IncludeApplicants {
		pw.addReviewCards(pdf, pw.groupByKind(pw.overrides))
	}
	pw.addCleanRules(pdf)
	pw.addTuningGuidance(pdf)
	pw.addRunInsights(pdf)
	pw.addRunConfiguration(pdf)
	pw.addMethodology(pdf)

	if err := pdf.Output(pw.w); err != nil {
		return fmt.Errorf("failed to render PDF: %w", err)
	}

	if closer, ok := pw.w.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// pdfBandColors maps risk bands to RGB colors for PDF rendering.
var pdfBandColors = map[riskBand][]int{
	bandPrime:    {22, 163, 74},
	bandStrong:   {101, 163, 13},
	bandWatch:    {202, 138, 4},
	bandSubprime: {220, 38, 38},
}

// pdfOutcomeColors maps decision outcomes to RGB colors.
var pdfOutcomeColors = map[decision.Outcome][]int{
	decision.Approve: {22, 163, 74},
	decision.Reject:  {220, 38, 38},
}

// pdfTitleCaser renders band and kind labels in title case.
var pdfTitleCaser = cases.Title(language.English)

// getGradeColor returns the RGB color for a portfolio grade.
func (pw *PDFWriter) getGradeColor(grade string) []int {
	switch {
	case strings.HasPrefix(grade, "A"):
		return []int{22, 163, 74}
	case strings.HasPrefix(grade, "B"):
		return []int{202, 138, 4}
	case strings.HasPrefix(grade, "C"):
		return []int{234, 88, 12}
	case grade == "N/A":
		return []int{128, 128, 128}
	default:
		return []int{220, 38, 38}
	}
}

// setupPageDecorations installs the footer and optional watermark that
// render on every page.
func (pw *PDFWriter) setupPageDecorations(pdf *gofpdf.Fpdf) {
	if pw.config.WatermarkText != "" {
		pdf.SetHeaderFunc(func() {
			pageW, pageH := pdf.GetPageSize()
			pdf.SetFont("Helvetica", "B", 48)
			pdf.SetTextColor(235, 235, 235)
			pdf.TransformBegin()
			pdf.TransformRotate(45, pageW/2, pageH/2)
			pdf.SetXY(pageW/2-90, pageH/2-10)
			pdf.CellFormat(180, 20, pw.config.WatermarkText, "", 0, "C", false, 0, "")
			pdf.TransformEnd()
			pdf.SetY(15)
		})
	}

	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(128, 128, 128)
		pdf.CellFormat(100, 10, pw.config.FooterText, "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d of {nb}", pdf.PageNo()), "", 0, "R", false, 0, "")
	})
}

// addSectionHeader renders a dark section title bar.
func (pw *PDFWriter) addSectionHeader(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 15)
	pdf.SetFillColor(30, 41, 59)
	pdf.SetTextColor(255, 255, 255)
	pdf.CellFormat(0, 11, "  "+title, "", 1, "L", true, 0, "")
	pdf.Ln(6)
}

// policyLabel resolves the policy name for the run.
func (pw *PDFWriter) policyLabel() string {
	if pw.start != nil && pw.start.Policy != "" {
		return pw.start.Policy
	}
	if pw.summary != nil && pw.summary.Policy != "" {
		return pw.summary.Policy
	}
	if len(pw.decisions) > 0 {
		return pw.decisions[0].Policy
	}
	return ""
}

func (pw *PDFWriter) addCoverPage(pdf *gofpdf.Fpdf) {
	pdf.AddPage()
	pageW, _ := pdf.GetPageSize()

	// Banner.
	pdf.SetFillColor(30, 41, 59)
	pdf.Rect(0, 0, pageW, 70, "F")

	pdf.SetY(24)
	pdf.SetFont("Helvetica", "B", 25)
	pdf.SetTextColor(255, 255, 255)
	pdf.CellFormat(0, 12, pw.config.Title, "", 1, "C", false, 0, "")

	if pw.config.CompanyName != "" {
		pdf.SetFont("Helvetica", "", 12)
		pdf.SetTextColor(203, 213, 225)
		pdf.CellFormat(0, 8, pw.config.CompanyName, "", 1, "C", false, 0, "")
	}

	// Classification badge.
	if pw.config.Classification != "" {
		pdf.SetFont("Helvetica", "B", 9)
		badgeW := 45.0
		pdf.SetXY(pageW-badgeW-12, 8)
		pdf.SetFillColor(220, 38, 38)
		pdf.SetTextColor(255, 255, 255)
		pdf.CellFormat(badgeW, 7, pw.config.Classification, "", 0, "C", true, 0, "")
	}

	// Run facts.
	pdf.SetY(85)
	if name := pw.policyLabel(); name != "" {
		pw.coverRow(pdf, "Policy", pdfTitleCaser.String(name))
	}
	if pw.start != nil && pw.start.Source != "" {
		pw.coverRow(pdf, "Source", pw.start.Source)
	}
	total := len(pw.decisions)
	if pw.summary != nil && pw.summary.Portfolio != nil {
		total = pw.summary.Portfolio.Total
	} else if pw.start != nil && pw.start.TotalRecords > 0 {
		total = pw.start.TotalRecords
	}
	pw.coverRow(pdf, "Applicants", fmt.Sprintf("%d", total))
	if pw.summary != nil {
		if !pw.summary.Timing.StartedAt.IsZero() {
			pw.coverRow(pdf, "Started", pw.summary.Timing.StartedAt.Format("2006-01-02 15:04:05 MST"))
		}
		pw.coverRow(pdf, "Duration", formatDuration(pw.summary.Timing.DurationSec))
		if pw.summary.Timing.RecordsPerSec > 0 {
			pw.coverRow(pdf, "Throughput", fmt.Sprintf("%.1f rec/s", pw.summary.Timing.RecordsPerSec))
		}
	}
	if pw.config.Author != "" {
		pw.coverRow(pdf, "Author", pw.config.Author)
	}
	pw.coverRow(pdf, "Generated", time.Now().Format("2006-01-02 15:04:05 MST"))

	// Portfolio grade.
	if pw.summary != nil && pw.summary.Portfolio != nil {
		p := pw.summary.Portfolio
		pdf.Ln(14)
		gradeColor := pw.getGradeColor(p.Grade)
		pdf.SetFont("Helvetica", "B", 52)
		pdf.SetTextColor(gradeColor[0], gradeColor[1], gradeColor[2])
		pdf.CellFormat(0, 24, p.Grade, "", 1, "C", false, 0, "")

		pdf.SetFont("Helvetica", "", 11)
		pdf.SetTextColor(80, 80, 80)
		pdf.CellFormat(0, 8, p.GradeReason, "", 1, "C", false, 0, "")
		pdf.CellFormat(0, 8, fmt.Sprintf("Approval rate %.1f%%, estimated default rate %.2f%%",
			p.ApprovalRate, p.EstimatedDefaultRate), "", 1, "C", false, 0, "")
	}
}

// coverRow renders one label/value line on the cover page.
func (pw *PDFWriter) coverRow(pdf *gofpdf.Fpdf, label, value string) {
	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetTextColor(100, 100, 100)
	pdf.CellFormat(55, 8, label, "", 0, "R", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.SetTextColor(30, 41, 59)
	pdf.CellFormat(0, 8, "  "+value, "", 1, "L", false, 0, "")
}

func (pw *PDFWriter) addTableOfContents(pdf *gofpdf.Fpdf) {
	pdf.AddPage()
	pw.addSectionHeader(pdf, "Table of Contents")

	sections := []string{
		"Executive Summary",
		"Risk Dimension Averages",
		"Decision Mix by Risk Band",
	}
	if len(pw.overrides) > 0 {
		sections = append(sections, "Compensated Approvals")
	}
	if pw.summary != nil && pw.summary.Comparison != nil {
		sections = append(sections, "Policy Comparison")
	}
	if pw.config.IncludeApplicants && len(pw.overrides) > 0 {
		sections = append(sections, "Override Review Detail")
	}
	if pw.hasCleanRules() {
		sections = append(sections, "Clean Rules")
	}
	if len(pw.tuningRules()) > 0 {
		sections = append(sections, "Policy Tuning Guidance")
	}
	sections = append(sections,
		"Portfolio Insights",
		"Appendix: Run Configuration",
		"Appendix: Scoring Methodology",
	)

	pdf.SetFont("Helvetica", "", 12)
	for i, section := range sections {
		pdf.SetTextColor(30, 41, 59)
		pdf.CellFormat(12, 9, fmt.Sprintf("%d.", i+1), "", 0, "R", false, 0, "")
		pdf.CellFormat(0, 9, "  "+section, "", 1, "L", false, 0, "")
	}
}

func (pw *PDFWriter) addExecutiveSummary(pdf *gofpdf.Fpdf) {
	pdf.AddPage()
	pw.addSectionHeader(pdf, "Executive Summary")

	if pw.summary == nil || pw.summary.Portfolio == nil {
		pdf.SetFont("Helvetica", "I", 11)
		pdf.SetTextColor(128, 128, 128)
		pdf.CellFormat(0, 8, "No summary data available for this run.", "", 1, "L", false, 0, "")
		return
	}
	p := pw.summary.Portfolio

	// Headline stat boxes.
	stats := []struct {
		label string
		value string
		color []int
	}{
		{"Evaluated", fmt.Sprintf("%d", p.Total), []int{30, 41, 59}},
		{"Approved", fmt.Sprintf("%d", p.Approved), pdfOutcomeColors[decision.Approve]},
		{"Rejected", fmt.Sprintf("%d", p.Rejected), pdfOutcomeColors[decision.Reject]},
		{"Approval Rate", fmt.Sprintf("%.1f%%", p.ApprovalRate), []int{30, 41, 59}},
	}
	pageW, _ := pdf.GetPageSize()
	boxW := (pageW - 20 - 9) / 4
	startY := pdf.GetY()
	for i, s := range stats {
		x := 10 + float64(i)*(boxW+3)
		pdf.SetXY(x, startY)
		pdf.SetFillColor(248, 250, 252)
		pdf.Rect(x, startY, boxW, 20, "F")
		pdf.SetFont("Helvetica", "B", 16)
		pdf.SetTextColor(s.color[0], s.color[1], s.color[2])
		pdf.CellFormat(boxW, 12, s.value, "", 2, "C", false, 0, "")
		pdf.SetFont("Helvetica", "", 8)
		pdf.SetTextColor(100, 100, 100)
		pdf.CellFormat(boxW, 5, s.label, "", 0, "C", false, 0, "")
	}
	pdf.SetY(startY + 26)

	// Score and loss figures.
	pw.summaryRow(pdf, "Mean Risk Score", fmt.Sprintf("%.2f", p.MeanRiskScore))
	pw.summaryRow(pdf, "Score Range", fmt.Sprintf("%.2f - %.2f", p.MinRiskScore, p.MaxRiskScore))
	pw.summaryRow(pdf, "Mean Approved Score", fmt.Sprintf("%.2f", p.MeanApprovedScore))
	pw.summaryRow(pdf, "Est. Default Rate", fmt.Sprintf("%.2f%%", p.EstimatedDefaultRate))
	if p.LowScoreApprovals > 0 {
		pw.summaryRow(pdf, "Low-Score Approvals", fmt.Sprintf("%d (%.1f%% of approvals)",
			p.LowScoreApprovals, p.LowScoreApprovalPct))
	}
	if p.Errored > 0 {
		pw.summaryRow(pdf, "Errored Records", fmt.Sprintf("%d", p.Errored))
	}
	pdf.Ln(4)

	// Economics over the approved book.
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetTextColor(30, 41, 59)
	pdf.CellFormat(0, 9, "Portfolio Economics", "", 1, "L", false, 0, "")
	pw.summaryRow(pdf, "Approved Principal", enPrinter.Sprintf("$%.2f", p.ApprovedPrincipal))
	pw.summaryRow(pdf, "Expected Revenue", enPrinter.Sprintf("$%.2f", p.ExpectedRevenue))
	pw.summaryRow(pdf, "Expected Loss", enPrinter.Sprintf("$%.2f", p.ExpectedLoss))
	ret := pw.getGradeColor(p.Grade)
	if p.RiskAdjustedReturn < 0 {
		ret = []int{220, 38, 38}
	}
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetTextColor(100, 100, 100)
	pdf.CellFormat(55, 7, "Risk-Adjusted Return", "", 0, "R", false, 0, "")
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetTextColor(ret[0], ret[1], ret[2])
	pdf.CellFormat(0, 7, "  "+enPrinter.Sprintf("$%.2f", p.RiskAdjustedReturn)+
		fmt.Sprintf(" (%.2f%% of principal)", p.ReturnOnPrincipal), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	// Recommendations.
	if len(p.Recommendations) > 0 {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.SetTextColor(30, 41, 59)
		pdf.CellFormat(0, 9, "Recommendations", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.SetTextColor(80, 80, 80)
		for i, rec := range p.Recommendations {
			pdf.MultiCell(0, 6, fmt.Sprintf("%d. %s", i+1, rec), "", "L", false)
		}
	}
}

// summaryRow renders one label/value metric line.
func (pw *PDFWriter) summaryRow(pdf *gofpdf.Fpdf, label, value string) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetTextColor(100, 100, 100)
	pdf.CellFormat(55, 7, label, "", 0, "R", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(30, 41, 59)
	pdf.CellFormat(0, 7, "  "+value, "", 1, "L", false, 0, "")
}

// pdfDimensionRows lists the score dimensions in weight order. The
// weights mirror the scoring engine's composite weighting.
var pdfDimensionRows = []struct {
	label  string
	weight float64
	value  func(d scoring.Dimensions) float64
}{
	{"Credit Score", 0.35, func(d scoring.Dimensions) float64 { return d.CreditScore }},
	{"Debt Load", 0.25, func(d scoring.Dimensions) float64 { return d.Debt }},
	{"Payment Burden", 0.15, func(d scoring.Dimensions) float64 { return d.Payment }},
	{"Employment", 0.08, func(d scoring.Dimensions) float64 { return d.Employment }},
	{"Payment History", 0.08, func(d scoring.Dimensions) float64 { return d.PaymentHistory }},
	{"Default History", 0.05, func(d scoring.Dimensions) float64 { return d.Default }},
	{"Demographics", 0.04, func(d scoring.Dimensions) float64 { return d.Demographic }},
}

func (pw *PDFWriter) addDimensionAverages(pdf *gofpdf.Fpdf) {
	pdf.AddPage()
	pw.addSectionHeader(pdf, "Risk Dimension Averages")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(80, 80, 80)
	pdf.MultiCell(0, 5, "Mean per-dimension risk across all evaluated applicants, 0.0 (safest) to 1.0. "+
		"Dimensions are listed in composite weight order; high means on heavy dimensions drag the "+
		"whole portfolio's scores down.", "", "L", false)
	pdf.Ln(5)

	if len(pw.decisions) == 0 {
		pdf.SetFont("Helvetica", "I", 10)
		pdf.SetTextColor(128, 128, 128)
		pdf.CellFormat(0, 8, "No decision data available.", "", 1, "L", false, 0, "")
		return
	}

	// Table header.
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(30, 41, 59)
	pdf.SetTextColor(255, 255, 255)
	pdf.CellFormat(45, 8, "Dimension", "1", 0, "L", true, 0, "")
	pdf.CellFormat(22, 8, "Weight", "1", 0, "C", true, 0, "")
	pdf.CellFormat(25, 8, "Mean Risk", "1", 0, "C", true, 0, "")
	pdf.CellFormat(60, 8, "Distribution", "1", 0, "C", true, 0, "")
	pdf.CellFormat(0, 8, "Level", "1", 1, "C", true, 0, "")

	n := float64(len(pw.decisions))
	pdf.SetFont("Helvetica", "", 9)
	for i, row := range pdfDimensionRows {
		sum := 0.0
		for _, d := range pw.decisions {
			sum += row.value(d.Decision.Dimensions)
		}
		mean := sum / n

		if i%2 == 0 {
			pdf.SetFillColor(250, 250, 250)
		} else {
			pdf.SetFillColor(255, 255, 255)
		}

		pdf.SetTextColor(60, 60, 60)
		pdf.CellFormat(45, 7, row.label, "1", 0, "L", true, 0, "")
		pdf.CellFormat(22, 7, fmt.Sprintf("%.0f%%", row.weight*100), "1", 0, "C", true, 0, "")
		pdf.CellFormat(25, 7, fmt.Sprintf("%.3f", mean), "1", 0, "C", true, 0, "")

		// Inline bar proportional to the mean.
		barX := pdf.GetX()
		barY := pdf.GetY()
		pdf.CellFormat(60, 7, "", "1", 0, "L", true, 0, "")
		level, levelColor := riskLevelFor(mean)
		pdf.SetFillColor(levelColor[0], levelColor[1], levelColor[2])
		if mean > 0 {
			pdf.Rect(barX+1, barY+1.2, 58*mean, 4.6, "F")
		}

		pdf.SetTextColor(levelColor[0], levelColor[1], levelColor[2])
		pdf.SetFont("Helvetica", "B", 9)
		pdf.CellFormat(0, 7, level, "1", 1, "C", true, 0, "")
		pdf.SetFont("Helvetica", "", 9)
	}
}

// riskLevelFor labels a mean dimension risk value.
func riskLevelFor(mean float64) (string, []int) {
	switch {
	case mean < 0.20:
		return "LOW", []int{22, 163, 74}
	case mean < 0.45:
		return "MEDIUM", []int{202, 138, 4}
	default:
		return "HIGH", []int{220, 38, 38}
	}
}

func (pw *PDFWriter) addDecisionMix(pdf *gofpdf.Fpdf) {
	pdf.AddPage()
	pw.addSectionHeader(pdf, "Decision Mix by Risk Band")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(80, 80, 80)
	pdf.MultiCell(0, 5, "Cross-tabulation of decisions by composite score band. Approvals in the "+
		"bottom band only happen through compensating overrides and deserve review.", "", "L", false)
	pdf.Ln(5)

	if len(pw.decisions) == 0 {
		pdf.SetFont("Helvetica", "I", 10)
		pdf.SetTextColor(128, 128, 128)
		pdf.CellFormat(0, 8, "No decision data available.", "", 1, "L", false, 0, "")
		return
	}

	type mixRow struct {
		total     int
		approved  int
		rejected  int
		overrides int
	}
	mix := make(map[riskBand]*mixRow)
	for _, band := range riskBands {
		mix[band] = &mixRow{}
	}
	for _, d := range pw.decisions {
		row := mix[bandFor(d.Decision.RiskScore)]
		row.total++
		if d.Decision.Outcome == decision.Approve {
			row.approved++
			if d.Decision.Override != "" {
				row.overrides++
			}
		} else {
			row.rejected++
		}
	}

	// Header row.
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(30, 41, 59)
	pdf.SetTextColor(255, 255, 255)
	pdf.CellFormat(32, 8, "Band", "1", 0, "L", true, 0, "")
	pdf.CellFormat(26, 8, "Applicants", "1", 0, "C", true, 0, "")
	pdf.CellFormat(26, 8, "Approved", "1", 0, "C", true, 0, "")
	pdf.CellFormat(26, 8, "Rejected", "1", 0, "C", true, 0, "")
	pdf.CellFormat(26, 8, "Overrides", "1", 0, "C", true, 0, "")
	pdf.CellFormat(0, 8, "Approval Rate", "1", 1, "C", true, 0, "")

	for _, band := range riskBands {
		row := mix[band]
		bandColor := pdfBandColors[band]

		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetTextColor(bandColor[0], bandColor[1], bandColor[2])
		pdf.CellFormat(32, 7, pdfTitleCaser.String(string(band)), "1", 0, "L", false, 0, "")

		pdf.SetFont("Helvetica", "", 9)
		pdf.SetTextColor(60, 60, 60)
		pdf.CellFormat(26, 7, fmt.Sprintf("%d", row.total), "1", 0, "C", false, 0, "")

		// Approvals below the 60 floor are always compensated; flag them.
		if band == bandSubprime && row.approved > 0 {
			pdf.SetTextColor(220, 38, 38)
			pdf.SetFont("Helvetica", "B", 9)
		}
		pdf.CellFormat(26, 7, fmt.Sprintf("%d", row.approved), "1", 0, "C", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		pdf.SetTextColor(60, 60, 60)

		pdf.CellFormat(26, 7, fmt.Sprintf("%d", row.rejected), "1", 0, "C", false, 0, "")
		pdf.CellFormat(26, 7, fmt.Sprintf("%d", row.overrides), "1", 0, "C", false, 0, "")

		rate := 0.0
		if row.total > 0 {
			rate = float64(row.approved) / float64(row.total) * 100
		}
		pdf.CellFormat(0, 7, fmt.Sprintf("%.1f%%", rate), "1", 1, "C", false, 0, "")
	}
}

func (pw *PDFWriter) addOverrideTable(pdf *gofpdf.Fpdf) {
	if len(pw.overrides) == 0 {
		return
	}

	pdf.AddPage()
	pw.addSectionHeader(pdf, "Compensated Approvals")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(80, 80, 80)
	pdf.MultiCell(0, 5, "Approvals that cleared through a compensating path rather than on their own "+
		"numbers. Each one should be reviewed against the credit policy before funding.", "", "L", false)
	pdf.Ln(5)

	// Header.
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(202, 138, 4)
	pdf.SetTextColor(255, 255, 255)
	pdf.CellFormat(30, 8, "Applicant", "1", 0, "L", true, 0, "")
	pdf.CellFormat(28, 8, "Kind", "1", 0, "C", true, 0, "")
	pdf.CellFormat(20, 8, "Score", "1", 0, "C", true, 0, "")
	pdf.CellFormat(20, 8, "Minimum", "1", 0, "C", true, 0, "")
	pdf.CellFormat(18, 8, "Credit", "1", 0, "C", true, 0, "")
	pdf.CellFormat(34, 8, "Loan", "1", 0, "C", true, 0, "")
	pdf.CellFormat(0, 8, "Failed Rule", "1", 1, "L", true, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	for i, o := range pw.overrides {
		d := o.Details
		if i%2 == 0 {
			pdf.SetFillColor(255, 251, 235)
		} else {
			pdf.SetFillColor(255, 255, 255)
		}

		pdf.SetTextColor(60, 60, 60)
		pdf.CellFormat(30, 7, truncateString(d.ApplicantID, 16), "1", 0, "L", true, 0, "")
		pdf.CellFormat(28, 7, pdfTitleCaser.String(strings.ReplaceAll(d.Kind, "_", " ")), "1", 0, "C", true, 0, "")

		// Scores under the minimum print red.
		if d.RiskScore < d.PolicyMinimum {
			pdf.SetTextColor(220, 38, 38)
			pdf.SetFont("Helvetica", "B", 9)
		}
		pdf.CellFormat(20, 7, fmt.Sprintf("%.2f", d.RiskScore), "1", 0, "C", true, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		pdf.SetTextColor(60, 60, 60)

		pdf.CellFormat(20, 7, fmt.Sprintf("%.0f", d.PolicyMinimum), "1", 0, "C", true, 0, "")
		pdf.CellFormat(18, 7, fmt.Sprintf("%d", d.CreditScore), "1", 0, "C", true, 0, "")
		pdf.CellFormat(34, 7, enPrinter.Sprintf("$%.2f", d.LoanAmount), "1", 0, "R", true, 0, "")

		rule := d.FailedRule
		if rule == "" {
			rule = "-"
		}
		pdf.CellFormat(0, 7, rule, "1", 1, "L", true, 0, "")
	}
}

func (pw *PDFWriter) addPolicyComparison(pdf *gofpdf.Fpdf) {
	if pw.summary == nil || pw.summary.Comparison == nil {
		return
	}
	c := pw.summary.Comparison
	if c.Strict == nil || c.Relaxed == nil {
		return
	}

	pdf.AddPage()
	pw.addSectionHeader(pdf, "Policy Comparison")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(80, 80, 80)
	pdf.MultiCell(0, 5, "Strict versus relaxed preset over the same applicant pool. The delta column "+
		"is relaxed minus strict; rate deltas are percentage points.", "", "L", false)
	pdf.Ln(5)

	// Header.
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(30, 41, 59)
	pdf.SetTextColor(255, 255, 255)
	pdf.CellFormat(55, 8, "Metric", "1", 0, "L", true, 0, "")
	pdf.CellFormat(35, 8, "Strict", "1", 0, "C", true, 0, "")
	pdf.CellFormat(35, 8, "Relaxed", "1", 0, "C", true, 0, "")
	pdf.CellFormat(0, 8, "Delta", "1", 1, "C", true, 0, "")

	rows := []struct {
		label   string
		strict  string
		relaxed string
		delta   string
		worse   bool
	}{
		{
			"Approval Rate",
			fmt.Sprintf("%.1f%%", c.Strict.ApprovalRate),
			fmt.Sprintf("%.1f%%", c.Relaxed.ApprovalRate),
			fmt.Sprintf("%+.1f pp", c.ApprovalRateDiff),
			false,
		},
		{
			"Approved",
			fmt.Sprintf("%d", c.Strict.Approved),
			fmt.Sprintf("%d", c.Relaxed.Approved),
			fmt.Sprintf("%+d", c.AdditionalApproved),
			false,
		},
		{
			"Est. Default Rate",
			fmt.Sprintf("%.2f%%", c.Strict.EstimatedDefaultRate),
			fmt.Sprintf("%.2f%%", c.Relaxed.EstimatedDefaultRate),
			fmt.Sprintf("%+.2f pp", c.DefaultRateDiff),
			c.DefaultRateDiff > 0,
		},
		{
			"Risk-Adjusted Return",
			enPrinter.Sprintf("$%.2f", c.Strict.RiskAdjustedReturn),
			enPrinter.Sprintf("$%.2f", c.Relaxed.RiskAdjustedReturn),
			enPrinter.Sprintf("$%+.2f", c.ReturnDiff),
			c.ReturnDiff < 0,
		},
		{
			"Portfolio Grade",
			c.Strict.Grade,
			c.Relaxed.Grade,
			"",
			false,
		},
	}

	pdf.SetFont("Helvetica", "", 9)
	for i, row := range rows {
		if i%2 == 0 {
			pdf.SetFillColor(250, 250, 250)
		} else {
			pdf.SetFillColor(255, 255, 255)
		}
		pdf.SetTextColor(60, 60, 60)
		pdf.CellFormat(55, 7, row.label, "1", 0, "L", true, 0, "")
		pdf.CellFormat(35, 7, row.strict, "1", 0, "C", true, 0, "")
		pdf.CellFormat(35, 7, row.relaxed, "1", 0, "C", true, 0, "")

		if row.worse {
			pdf.SetTextColor(220, 38, 38)
			pdf.SetFont("Helvetica", "B", 9)
		}
		pdf.CellFormat(0, 7, row.delta, "1", 1, "C", true, 0, "")
		pdf.SetFont("Helvetica", "", 9)
	}

	if c.Recommendation != "" {
		pdf.Ln(5)
		pdf.SetFont("Helvetica", "B", 10)
		pdf.SetTextColor(30, 41, 59)
		pdf.CellFormat(0, 7, "Recommendation", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.SetTextColor(80, 80, 80)
		pdf.MultiCell(0, 5, c.Recommendation, "", "L", false)
	}
}

// groupByKind groups override events by their override kind.
func (pw *PDFWriter) groupByKind(overrides []*events.OverrideEvent) map[string][]*events.OverrideEvent {
	grouped := make(map[string][]*events.OverrideEvent)
	for _, o := range overrides {
		grouped[o.Details.Kind] = append(grouped[o.Details.Kind], o)
	}
	return grouped
}

// addReviewCards renders one detail card per compensated approval,
// grouped by override kind. Each kind starts on a new page.
func (pw *PDFWriter) addReviewCards(pdf *gofpdf.Fpdf, byKind map[string][]*events.OverrideEvent) {
	if len(byKind) == 0 {
		return
	}

	// Stable kind order: strong factor first, then near miss.
	kinds := []string{decision.OverrideStrongFactor, decision.OverrideNearMiss}
	_, pageH := pdf.GetPageSize()
	pageBreakY := pageH - 50

	for _, kind := range kinds {
		group := byKind[kind]
		if len(group) == 0 {
			continue
		}

		pdf.AddPage()
		pw.addSectionHeader(pdf, "Reviews: "+strings.ToUpper(strings.ReplaceAll(kind, "_", " ")))

		for i, o := range group {
			if i > 0 && pdf.GetY()+42 > pageBreakY {
				pdf.AddPage()
			}
			pw.addReviewCard(pdf, o)
		}
	}
}

// addReviewCard renders one bordered override review card.
func (pw *PDFWriter) addReviewCard(pdf *gofpdf.Fpdf, o *events.OverrideEvent) {
	d := o.Details
	startY := pdf.GetY()
	pageW, _ := pdf.GetPageSize()
	cardW := pageW - 20

	// Card head.
	pdf.SetFillColor(255, 251, 235)
	pdf.Rect(10, startY, cardW, 9, "F")
	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetTextColor(30, 41, 59)
	pdf.SetXY(12, startY+1)
	pdf.CellFormat(90, 7, d.ApplicantID, "", 0, "L", false, 0, "")
	pdf.SetTextColor(202, 138, 4)
	pdf.CellFormat(0, 7, pdfTitleCaser.String(strings.ReplaceAll(d.Kind, "_", " ")), "", 1, "R", false, 0, "")
	pdf.SetXY(12, startY+10)

	reviewLine := func(label, value string) {
		pdf.SetX(12)
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetTextColor(100, 100, 100)
		pdf.CellFormat(38, 5.5, label, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		pdf.SetTextColor(60, 60, 60)
		pdf.CellFormat(0, 5.5, value, "", 1, "L", false, 0, "")
	}

	reviewLine("Risk Score", fmt.Sprintf("%.2f (policy minimum %.0f)", d.RiskScore, d.PolicyMinimum))
	reviewLine("Credit Score", fmt.Sprintf("%d", d.CreditScore))
	reviewLine("Income", enPrinter.Sprintf("$%.2f", d.Income))
	reviewLine("Loan Amount", enPrinter.Sprintf("$%.2f", d.LoanAmount))
	if d.FailedRule != "" {
		reviewLine("Failed Rule", fmt.Sprintf("%s (%s)", d.FailedRule, ruleDescriptions[d.FailedRule]))
	}

	// Reason.
	pdf.SetX(12)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.SetTextColor(80, 80, 80)
	pdf.MultiCell(cardW-4, 5, "Reason: "+d.Reason, "", "L", false)

	// Action line.
	pdf.SetX(12)
	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetTextColor(202, 138, 4)
	pdf.CellFormat(0, 5, o.Alert.ActionRequired, "", 1, "L", false, 0, "")

	// Card border.
	endY := pdf.GetY() + 1
	pdf.SetDrawColor(226, 232, 240)
	pdf.Rect(10, startY, cardW, endY-startY, "D")
	pdf.SetY(endY + 4)
}

func (pw *PDFWriter) addRunConfiguration(pdf *gofpdf.Fpdf) {
	pdf.AddPage()
	pw.addSectionHeader(pdf, "Appendix: Run Configuration")

	configRow := func(label, value string) {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.SetFillColor(248, 250, 252)
		pdf.SetTextColor(100, 100, 100)
		pdf.CellFormat(55, 7, label, "1", 0, "L", true, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.SetTextColor(30, 41, 59)
		pdf.CellFormat(0, 7, value, "1", 1, "L", false, 0, "")
	}

	if name := pw.policyLabel(); name != "" {
		configRow("Policy", name)
	}
	if pw.start != nil {
		if pw.start.Source != "" {
			configRow("Source", pw.start.Source)
		}
		if pw.start.TotalRecords > 0 {
			configRow("Total Records", fmt.Sprintf("%d", pw.start.TotalRecords))
		}
		// Zero config fields were not populated; skip them.
		if pw.start.Config.Workers > 0 {
			configRow("Workers", fmt.Sprintf("%d", pw.start.Config.Workers))
		}
		if pw.start.Config.PaceRPS > 0 {
			configRow("Pace", fmt.Sprintf("%.1f rec/s", pw.start.Config.PaceRPS))
		}
		if pw.start.Config.ProgressEvery > 0 {
			configRow("Progress Every", fmt.Sprintf("%d records", pw.start.Config.ProgressEvery))
		}
	}
	if pw.summary != nil {
		if pw.summary.Version != "" {
			configRow("Version", pw.summary.Version)
		}
		if !pw.summary.Timing.StartedAt.IsZero() {
			configRow("Started At", pw.summary.Timing.StartedAt.Format("2006-01-02 15:04:05 MST"))
		}
		if !pw.summary.Timing.CompletedAt.IsZero() {
			configRow("Completed At", pw.summary.Timing.CompletedAt.Format("2006-01-02 15:04:05 MST"))
		}
		configRow("Duration", formatDuration(pw.summary.Timing.DurationSec))
		if pw.summary.ExitReason != "" {
			configRow("Exit Reason", pw.summary.ExitReason)
		}
	}
}

func (pw *PDFWriter) addMethodology(pdf *gofpdf.Fpdf) {
	pdf.AddPage()
	pw.addSectionHeader(pdf, "Appendix: Scoring Methodology")

	steps := []struct {
		title string
		body  string
	}{
		{
			"1. HARD RULE SCREENING",
			"Each applicant passes through six ordered policy gates: minimum credit score, " +
				"debt-to-income ceiling, payment-to-income ceiling, minimum employment years, " +
				"late payment ceiling, and default history ceiling. Every gate is evaluated; " +
				"the first failure supplies the rejection reason.",
		},
		{
			"2. RISK SCORING",
			"Seven risk dimensions (credit score, debt load, payment burden, employment, " +
				"payment history, default history, demographics) are each mapped to a 0.0-1.0 " +
				"risk value through fixed band tables, then folded into a single composite " +
				"score between 40 and 95. Higher scores mean lower risk.",
		},
		{
			"3. DECISION GATE",
			"Applicants that pass every hard rule are approved when the composite score meets " +
				"the policy minimum. Scores within five points of the minimum can still be " +
				"approved through a compensating factor (near miss); a single failed hard rule " +
				"can be outweighed by strong factors (high credit score, income, and tenure). " +
				"Both paths are flagged as compensated approvals for review.",
		},
		{
			"4. PORTFOLIO ANALYTICS",
			"Approved loans are aggregated into portfolio metrics: approval mix, expected " +
				"default rate from per-loan probabilities, interest revenue, expected loss, " +
				"and risk-adjusted return.",
		},
	}

	for _, step := range steps {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.SetTextColor(30, 41, 59)
		pdf.CellFormat(0, 8, step.title, "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.SetTextColor(80, 80, 80)
		pdf.MultiCell(0, 5, step.body, "", "L", false)
		pdf.Ln(3)
	}

	// Grading scale.
	pdf.Ln(2)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetTextColor(30, 41, 59)
	pdf.CellFormat(0, 9, "Grading Scale", "", 1, "L", false, 0, "")

	grades := []struct {
		grade string
		rule  string
	}{
		{"A+", "Estimated default rate below 1.0%"},
		{"A", "Estimated default rate below 2.0%"},
		{"B", "Estimated default rate below 3.5%"},
		{"C", "Estimated default rate below 5.0%"},
		{"D", "Estimated default rate below 8.0%"},
		{"F", "Estimated default rate 8.0% or higher"},
	}
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(30, 41, 59)
	pdf.SetTextColor(255, 255, 255)
	pdf.CellFormat(20, 7, "Grade", "1", 0, "C", true, 0, "")
	pdf.CellFormat(0, 7, "Criteria", "1", 1, "L", true, 0, "")
	for _, g := range grades {
		color := pw.getGradeColor(g.grade)
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetTextColor(color[0], color[1], color[2])
		pdf.CellFormat(20, 6.5, g.grade, "1", 0, "C", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		pdf.SetTextColor(60, 60, 60)
		pdf.CellFormat(0, 6.5, g.rule, "1", 1, "L", false, 0, "")
	}

	pdf.Ln(3)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.SetTextColor(100, 100, 100)
	pdf.MultiCell(0, 5, "A negative risk-adjusted return caps the grade at C regardless of the "+
		"default rate. Portfolios with no approved loans grade N/A.", "", "L", false)
}

// formatDuration renders a second count as 5.3s, 2m 5s, or 1h 2m 3s.
func formatDuration(seconds float64) string {
	if seconds < 60 {
		return fmt.Sprintf("%.1fs", seconds)
	}
	total := int(seconds)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	}
	return fmt.Sprintf("%dm %ds", m, s)
}
