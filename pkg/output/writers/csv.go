// Package writers provides output writers for various formats.
package writers

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/creditgate/creditgate/pkg/output/dispatcher"
	"github.com/creditgate/creditgate/pkg/output/events"
)

// Compile-time interface check.
var _ dispatcher.Writer = (*CSVWriter)(nil)

// UTF-8 BOM for Excel compatibility.
const utf8BOM = "\xEF\xBB\xBF"

// Default timestamp format (RFC3339).
const defaultTimestampFormat = "2006-01-02T15:04:05Z07:00"

// CSVWriter writes decision events as CSV rows.
// Each row represents a single applicant decision, making it ideal for
// data analysis in tools like Excel, pandas, or database imports.
//
// Features:
//   - One-row-per-decision column format for credit analysts
//   - Excel compatibility with UTF-8 BOM
//   - CSV injection prevention (formula sanitization)
//   - Summary block support
type CSVWriter struct {
	w             io.Writer
	csvWriter     *csv.Writer
	mu            sync.Mutex
	opts          CSVOptions
	headerWritten bool
	summary       *events.SummaryEvent // Store summary for Close()
}

// CSVOptions configures the CSV writer behavior.
type CSVOptions struct {
	// IncludeHeader includes a header row with column names.
	IncludeHeader bool

	// Delimiter sets the field delimiter character.
	// Default is comma when zero value.
	Delimiter rune

	// ExcelCompatible adds UTF-8 BOM for Excel compatibility.
	// This ensures proper display of Unicode characters in Excel.
	ExcelCompatible bool

	// SanitizeFormulas prevents CSV injection by prefixing dangerous characters.
	// Dangerous characters: = + - @ TAB CR
	SanitizeFormulas bool

	// TimestampFormat sets the timestamp format (default: RFC3339).
	TimestampFormat string

	// TruncateAt limits field length (0 = no limit).
	TruncateAt int
}

// csvColumns defines the CSV column headers.
// Order optimized for credit analyst workflow.
var csvColumns = []string{
	// Core Identification
	"user_id",   // Applicant identifier
	"timestamp", // ISO 8601 timestamp (RFC3339)

	// Verdict
	"decision",     // approve/reject
	"reason",       // Human-readable decision reason
	"risk_score",   // Composite risk score (40-95)
	"policy",       // Threshold preset name
	"override",     // strong_factor/near_miss when a compensating path fired
	"failed_rules", // Semicolon-joined hard-rule ids

	// Risk Dimensions
	"credit_score_risk",
	"debt_risk",
	"payment_risk",
	"employment_risk",
	"payment_history_risk",
	"default_risk",
	"demographic_risk",

	// Applicant Figures
	"age",
	"income",
	"credit_score",
	"debt_to_income",
	"loan_amount",
	"loan_term",
	"monthly_payment",
	"payment_to_income",
	"employment_years",
	"late_payments",
	"default_history",

	// Demographics
	"industry",
	"education",
	"marital_status",
}

// sanitizeForCSV prevents CSV injection by prefixing dangerous characters.
// This is a SECURITY feature to prevent formula execution in spreadsheets.
func sanitizeForCSV(s string) string {
	if len(s) == 0 {
		return s
	}
	// Characters that can trigger formula execution in spreadsheets
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + s // Prefix with single quote
	}
	return s
}

// truncateField truncates a field to the specified length.
func truncateField(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen > 3 {
		return string(runes[:maxLen-3]) + "..."
	}
	return string(runes[:maxLen])
}

// NewCSVWriter creates a new CSV writer.
// If IncludeHeader is true, a header row is written immediately.
// If ExcelCompatible is true, a UTF-8 BOM is written for proper Excel display.
// The writer is safe for concurrent use.
func NewCSVWriter(w io.Writer, opts CSVOptions) *CSVWriter {
	// Set defaults
	if opts.TimestampFormat == "" {
		opts.TimestampFormat = defaultTimestampFormat
	}

	// Write UTF-8 BOM for Excel compatibility
	if opts.ExcelCompatible {
		_, _ = w.Write([]byte(utf8BOM))
	}

	csvWriter := csv.NewWriter(w)
	if opts.Delimiter != 0 {
		csvWriter.Comma = opts.Delimiter
	}

	cw := &CSVWriter{
		w:         w,
		csvWriter: csvWriter,
		opts:      opts,
	}

	// Write header by default
	if opts.IncludeHeader {
		_ = csvWriter.Write(csvColumns)
		csvWriter.Flush()
		cw.headerWritten = true
	}

	return cw
}

// Write writes a decision event as a CSV row.
// Summary events are captured for output on Close().
// Other event types are silently skipped.
func (cw *CSVWriter) Write(event events.Event) error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	switch e := event.(type) {
	case *events.DecisionEvent:
		return cw.writeDecision(e)
	case *events.SummaryEvent:
		cw.summary = e
		return nil
	default:
		return nil // Skip other event types
	}
}

// writeDecision writes a single decision event as a CSV row.
func (cw *CSVWriter) writeDecision(de *events.DecisionEvent) error {
	// Build failed-rules string
	rulesStr := ""
	if len(de.Decision.FailedRules) > 0 {
		rules := make([]string, len(de.Decision.FailedRules))
		for i, f := range de.Decision.FailedRules {
			rules[i] = f.Rule
		}
		rulesStr = strings.Join(rules, ";")
	}

	snap := de.Applicant.Snapshot
	dims := de.Decision.Dimensions

	// Build row with all columns (matches csvColumns order)
	row := []string{
		de.Applicant.ID, // user_id
		de.Timestamp().Format(cw.opts.TimestampFormat), // timestamp

		string(de.Decision.Outcome),                              // decision
		de.Decision.Reason,                                       // reason
		strconv.FormatFloat(de.Decision.RiskScore, 'f', 2, 64),   // risk_score
		de.Policy,                                                // policy
		de.Decision.Override,                                     // override
		rulesStr,                                                 // failed_rules

		strconv.FormatFloat(dims.CreditScore, 'f', 2, 64),    // credit_score_risk
		strconv.FormatFloat(dims.Debt, 'f', 2, 64),           // debt_risk
		strconv.FormatFloat(dims.Payment, 'f', 2, 64),        // payment_risk
		strconv.FormatFloat(dims.Employment, 'f', 2, 64),     // employment_risk
		strconv.FormatFloat(dims.PaymentHistory, 'f', 2, 64), // payment_history_risk
		strconv.FormatFloat(dims.Default, 'f', 2, 64),        // default_risk
		strconv.FormatFloat(dims.Demographic, 'f', 2, 64),    // demographic_risk

		strconv.Itoa(snap.Age),                                  // age
		strconv.FormatFloat(snap.Income, 'f', 2, 64),            // income
		strconv.Itoa(snap.CreditScore),                          // credit_score
		strconv.FormatFloat(snap.DebtToIncome, 'f', 4, 64),      // debt_to_income
		strconv.FormatFloat(snap.LoanAmount, 'f', 2, 64),        // loan_amount
		strconv.Itoa(snap.LoanTerm),                             // loan_term
		strconv.FormatFloat(snap.MonthlyPayment, 'f', 2, 64),    // monthly_payment
		strconv.FormatFloat(snap.PaymentToIncome, 'f', 4, 64),   // payment_to_income
		strconv.Itoa(snap.EmploymentYears),                      // employment_years
		strconv.Itoa(snap.LatePayments),                         // late_payments
		strconv.Itoa(snap.DefaultHistory),                       // default_history

		string(de.Applicant.Industry),      // industry
		string(de.Applicant.Education),     // education
		string(de.Applicant.MaritalStatus), // marital_status
	}

	// Apply sanitization and truncation
	for i, field := range row {
		if cw.opts.SanitizeFormulas {
			field = sanitizeForCSV(field)
		}
		if cw.opts.TruncateAt > 0 {
			field = truncateField(field, cw.opts.TruncateAt)
		}
		row[i] = field
	}

	return cw.csvWriter.Write(row)
}

// Flush flushes the CSV writer's internal buffer.
func (cw *CSVWriter) Flush() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	cw.csvWriter.Flush()
	return cw.csvWriter.Error()
}

// Close flushes the CSV writer and writes the summary block if available.
// If the underlying writer implements io.Closer, it will be closed.
func (cw *CSVWriter) Close() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	// Write summary if available
	if cw.summary != nil {
		cw.writeSummaryLocked()
	}

	cw.csvWriter.Flush()
	if err := cw.csvWriter.Error(); err != nil {
		return fmt.Errorf("csv: flush: %w", err)
	}

	if closer, ok := cw.w.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// writeSummaryLocked writes a summary section at the end of the CSV.
// Must be called with mu held.
func (cw *CSVWriter) writeSummaryLocked() {
	if cw.summary == nil || cw.summary.Portfolio == nil {
		return
	}
	p := cw.summary.Portfolio

	// Write blank row as separator
	_ = cw.csvWriter.Write([]string{})

	// Write summary rows
	_ = cw.csvWriter.Write([]string{"# SUMMARY"})
	_ = cw.csvWriter.Write([]string{"Total Evaluated", strconv.Itoa(p.Total)})
	_ = cw.csvWriter.Write([]string{"Approved", strconv.Itoa(p.Approved)})
	_ = cw.csvWriter.Write([]string{"Rejected", strconv.Itoa(p.Rejected)})
	_ = cw.csvWriter.Write([]string{"Approval Rate", fmt.Sprintf("%.1f%%", p.ApprovalRate)})
	_ = cw.csvWriter.Write([]string{"Est. Default Rate", fmt.Sprintf("%.2f%%", p.EstimatedDefaultRate)})
	_ = cw.csvWriter.Write([]string{"Grade", p.Grade})
}

// SupportsEvent returns true for decision and summary events.
// CSV format supports tabular decision data and summary statistics.
func (cw *CSVWriter) SupportsEvent(eventType events.EventType) bool {
	return eventType == events.EventTypeDecision || eventType == events.EventTypeSummary
}
