package writers

import (
	"fmt"
	"sort"
	"strings"

	gofpdf "github.com/go-pdf/fpdf"

	"github.com/creditgate/creditgate/pkg/decision"
)

// pdfHardRules lists the hard rule ids in gate order.
var pdfHardRules = []string{
	"credit_score",
	"debt_to_income",
	"payment_to_income",
	"employment_years",
	"late_payments",
	"default_history",
}

// ruleFailureCounts tallies hard rule failures across all decisions.
// Every failed rule on a decision counts, not just the decisive one.
func (pw *PDFWriter) ruleFailureCounts() map[string]int {
	counts := make(map[string]int)
	for _, d := range pw.decisions {
		for _, f := range d.Decision.FailedRules {
			counts[f.Rule]++
		}
	}
	return counts
}

// hasCleanRules reports whether any hard rule went the whole run without
// a single failure.
func (pw *PDFWriter) hasCleanRules() bool {
	if len(pw.decisions) == 0 {
		return false
	}
	counts := pw.ruleFailureCounts()
	for _, rule := range pdfHardRules {
		if counts[rule] == 0 {
			return true
		}
	}
	return false
}

// ruleTuning pairs a hard rule with its failure tally for the tuning
// guidance section.
type ruleTuning struct {
	rule     string
	failures int
	sharePct float64
}

// tuningRules returns the hard rules that failed at least once, most
// frequent first.
func (pw *PDFWriter) tuningRules() []ruleTuning {
	if len(pw.decisions) == 0 {
		return nil
	}
	counts := pw.ruleFailureCounts()
	n := float64(len(pw.decisions))

	var rules []ruleTuning
	for _, rule := range pdfHardRules {
		if counts[rule] == 0 {
			continue
		}
		rules = append(rules, ruleTuning{
			rule:     rule,
			failures: counts[rule],
			sharePct: float64(counts[rule]) / n * 100,
		})
	}
	sort.Slice(rules, func(i, j int) bool {
		if rules[i].failures != rules[j].failures {
			return rules[i].failures > rules[j].failures
		}
		return rules[i].rule < rules[j].rule
	})
	return rules
}

func (pw *PDFWriter) addCleanRules(pdf *gofpdf.Fpdf) {
	if !pw.hasCleanRules() {
		return
	}

	pdf.AddPage()
	pw.addSectionHeader(pdf, "Clean Rules")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(80, 80, 80)
	pdf.MultiCell(0, 5, "Hard rules that rejected nobody in this run. A persistently clean rule is "+
		"either well clear of the applicant pool or redundant with a stricter gate.", "", "L", false)
	pdf.Ln(5)

	counts := pw.ruleFailureCounts()
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(22, 163, 74)
	pdf.SetTextColor(255, 255, 255)
	pdf.CellFormat(45, 8, "Rule", "1", 0, "L", true, 0, "")
	pdf.CellFormat(0, 8, "Description", "1", 1, "L", true, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	for _, rule := range pdfHardRules {
		if counts[rule] != 0 {
			continue
		}
		pdf.SetTextColor(22, 163, 74)
		pdf.SetFont("Helvetica", "B", 9)
		pdf.CellFormat(45, 7, rule, "1", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		pdf.SetTextColor(60, 60, 60)
		pdf.CellFormat(0, 7, ruleDescriptions[rule], "1", 1, "L", false, 0, "")
	}
}

func (pw *PDFWriter) addTuningGuidance(pdf *gofpdf.Fpdf) {
	rules := pw.tuningRules()
	if len(rules) == 0 {
		return
	}

	pdf.AddPage()
	pw.addSectionHeader(pdf, "Policy Tuning Guidance")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(80, 80, 80)
	pdf.MultiCell(0, 5, "Hard rule failure frequency across the applicant pool. A rule that fails a "+
		"large share of applicants dominates the rejection mix; loosening it has the biggest "+
		"effect on approval volume, at the cost of the risk it screens for.", "", "L", false)
	pdf.Ln(5)

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(30, 41, 59)
	pdf.SetTextColor(255, 255, 255)
	pdf.CellFormat(45, 8, "Rule", "1", 0, "L", true, 0, "")
	pdf.CellFormat(25, 8, "Failures", "1", 0, "C", true, 0, "")
	pdf.CellFormat(25, 8, "Share", "1", 0, "C", true, 0, "")
	pdf.CellFormat(0, 8, "Description", "1", 1, "L", true, 0, "")

	for i, r := range rules {
		if i%2 == 0 {
			pdf.SetFillColor(250, 250, 250)
		} else {
			pdf.SetFillColor(255, 255, 255)
		}

		pdf.SetFont("Helvetica", "B", 9)
		if r.sharePct >= 25 {
			pdf.SetTextColor(220, 38, 38)
		} else {
			pdf.SetTextColor(30, 41, 59)
		}
		pdf.CellFormat(45, 7, r.rule, "1", 0, "L", true, 0, "")

		pdf.SetFont("Helvetica", "", 9)
		pdf.SetTextColor(60, 60, 60)
		pdf.CellFormat(25, 7, fmt.Sprintf("%d", r.failures), "1", 0, "C", true, 0, "")
		pdf.CellFormat(25, 7, fmt.Sprintf("%.1f%%", r.sharePct), "1", 0, "C", true, 0, "")
		pdf.CellFormat(0, 7, ruleDescriptions[r.rule], "1", 1, "L", true, 0, "")
	}

	top := rules[0]
	pdf.Ln(5)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.SetTextColor(100, 100, 100)
	pdf.MultiCell(0, 5, fmt.Sprintf("The %s gate is the largest single screen in this run, failing "+
		"%.1f%% of applicants. Review its threshold first when adjusting approval volume.",
		strings.ReplaceAll(top.rule, "_", " "), top.sharePct), "", "L", false)
}

func (pw *PDFWriter) addRunInsights(pdf *gofpdf.Fpdf) {
	pdf.AddPage()
	pw.addSectionHeader(pdf, "Portfolio Insights")

	insights := pw.collectInsights()
	if len(insights) == 0 {
		pdf.SetFont("Helvetica", "I", 10)
		pdf.SetTextColor(128, 128, 128)
		pdf.CellFormat(0, 8, "No decision data available.", "", 1, "L", false, 0, "")
		return
	}

	pdf.SetFont("Helvetica", "", 10)
	for i, insight := range insights {
		pdf.SetTextColor(30, 41, 59)
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(10, 6, fmt.Sprintf("%d.", i+1), "", 0, "R", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.SetTextColor(60, 60, 60)
		pdf.SetX(pdf.GetX() + 2)
		pdf.MultiCell(0, 6, insight, "", "L", false)
		pdf.Ln(2)
	}
}

// collectInsights derives review observations from the buffered run.
func (pw *PDFWriter) collectInsights() []string {
	if len(pw.decisions) == 0 {
		return nil
	}

	var insights []string
	total := len(pw.decisions)
	approved := 0
	overridden := 0
	subprimeApprovals := 0
	for _, d := range pw.decisions {
		if d.Decision.Outcome != decision.Approve {
			continue
		}
		approved++
		if d.Decision.Override != "" {
			overridden++
		}
		if bandFor(d.Decision.RiskScore) == bandSubprime {
			subprimeApprovals++
		}
	}

	insights = append(insights, fmt.Sprintf("Evaluated %d applicants, approving %d (%.1f%%).",
		total, approved, float64(approved)/float64(total)*100))

	if overridden > 0 {
		insights = append(insights, fmt.Sprintf("%d of %d approvals (%.1f%%) cleared through a "+
			"compensating path rather than on their own numbers. Each one is listed in the "+
			"Compensated Approvals section for review.",
			overridden, approved, float64(overridden)/float64(approved)*100))
	} else if approved > 0 {
		insights = append(insights, "Every approval stood on its own score; no compensating paths fired.")
	}

	if subprimeApprovals > 0 {
		insights = append(insights, fmt.Sprintf("%d approval(s) sit in the subprime score band. "+
			"Approvals below the score floor only happen through overrides and deserve individual "+
			"review before funding.", subprimeApprovals))
	}

	if rules := pw.tuningRules(); len(rules) > 0 {
		top := rules[0]
		insights = append(insights, fmt.Sprintf("The %s rule produced the most failures (%d, "+
			"%.1f%% of applicants), making it the dominant screen in this run.",
			strings.ReplaceAll(top.rule, "_", " "), top.failures, top.sharePct))
	} else {
		insights = append(insights, "No hard rule failed for any applicant; the score floor alone "+
			"shaped the rejection mix.")
	}

	if pw.summary != nil && pw.summary.Portfolio != nil {
		p := pw.summary.Portfolio
		if p.RiskAdjustedReturn < 0 {
			insights = append(insights, fmt.Sprintf("The approved book projects a negative "+
				"risk-adjusted return (%s). Expected losses exceed interest revenue at the "+
				"current mix.", enPrinter.Sprintf("$%.2f", p.RiskAdjustedReturn)))
		}
		if p.Grade != "" && p.Grade != "N/A" {
			insights = append(insights, fmt.Sprintf("Portfolio grade %s: %s.", p.Grade, p.GradeReason))
		}
	}

	return insights
}
