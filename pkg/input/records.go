// pkg/input/records.go
package input

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spaolacci/murmur3"

	"github.com/creditgate/creditgate/pkg/applicant"
)

// Format identifies an applicant record encoding.
type Format string

const (
	FormatAuto  Format = ""
	FormatCSV   Format = "csv"
	FormatJSONL Format = "jsonl"
)

// ErrBadHeader is returned when a CSV header is missing the user_id
// column or is otherwise unusable.
var ErrBadHeader = errors.New("input: unrecognized CSV header")

// ErrNoInput is returned when neither a file nor piped stdin provides
// any records.
var ErrNoInput = errors.New("input: no applicant records provided")

// ErrBadFormat is returned by ParseFormat for unknown format names.
var ErrBadFormat = errors.New("input: unknown record format")

// utf8BOM is the byte order mark Excel and pandas prepend to CSV files.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// csvColumns is the canonical applicant column order, shared by the
// loader and by WriteCSV so generated portfolios round-trip.
var csvColumns = []string{
	"user_id", "age", "income", "credit_score", "debt_to_income",
	"loan_amount", "loan_term", "employment_years",
	"number_of_credit_lines", "late_payments", "default_history",
	"industry", "marital_status", "education",
}

// RecordError reports a single row or line that could not be parsed.
// Loading continues past record errors; callers decide whether a dirty
// file is fatal.
type RecordError struct {
	Line int
	Err  error
}

func (e RecordError) Error() string {
	return fmt.Sprintf("record %d: %v", e.Line, e.Err)
}

func (e RecordError) Unwrap() error { return e.Err }

// Source consolidates applicant input methods: an explicit file or a
// stdin pipe, in CSV or JSONL form.
type Source struct {
	Path   string // From -f flag
	Format Format // Empty means detect from extension or content
	Stdin  bool   // Pipe input detection
}

// Records loads the full applicant pool. Parse failures on individual
// rows are collected, not fatal; only unreadable input and a bad CSV
// header abort the load.
func (s *Source) Records() ([]applicant.Applicant, []RecordError, error) {
	if s.Path != "" {
		f, err := os.Open(s.Path)
		if err != nil {
			return nil, nil, err
		}
		defer f.Close()
		return s.parse(f, s.detectFormat(s.Path))
	}

	if s.Stdin {
		stat, _ := os.Stdin.Stat()
		if (stat.Mode() & os.ModeCharDevice) == 0 {
			return s.parse(os.Stdin, s.Format)
		}
	}

	return nil, nil, ErrNoInput
}

// detectFormat resolves the effective format for a file path.
func (s *Source) detectFormat(path string) Format {
	if s.Format != FormatAuto {
		return s.Format
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl", ".ndjson", ".json":
		return FormatJSONL
	default:
		return FormatCSV
	}
}

func (s *Source) parse(r io.Reader, format Format) ([]applicant.Applicant, []RecordError, error) {
	br := bufio.NewReader(r)
	if format == FormatAuto {
		format = sniffFormat(br)
	}
	switch format {
	case FormatJSONL:
		return parseJSONL(br)
	default:
		return parseCSV(br)
	}
}

// sniffFormat peeks at the first non-BOM byte; JSONL records open with
// a brace, anything else is treated as CSV.
func sniffFormat(br *bufio.Reader) Format {
	peek, _ := br.Peek(4)
	peek = bytes.TrimPrefix(peek, utf8BOM)
	if len(peek) > 0 && peek[0] == '{' {
		return FormatJSONL
	}
	return FormatCSV
}

func parseCSV(r io.Reader) ([]applicant.Applicant, []RecordError, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, ErrNoInput
		}
		return nil, nil, fmt.Errorf("reading CSV header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], string(utf8BOM))
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := cols["user_id"]; !ok {
		return nil, nil, fmt.Errorf("%w: no user_id column", ErrBadHeader)
	}

	var (
		records []applicant.Applicant
		recErrs []RecordError
		line    = 1
	)
	for {
		line++
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			recErrs = append(recErrs, RecordError{Line: line, Err: err})
			continue
		}
		a, err := rowToApplicant(row, cols)
		if err != nil {
			recErrs = append(recErrs, RecordError{Line: line, Err: err})
			continue
		}
		records = append(records, a)
	}
	return records, recErrs, nil
}

// rowToApplicant maps a CSV row through the header index. Missing
// columns default to the zero value so partial extracts still load.
func rowToApplicant(row []string, cols map[string]int) (applicant.Applicant, error) {
	var a applicant.Applicant
	var parseErr error

	field := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}
	intField := func(name string) int {
		v := field(name)
		if v == "" {
			return 0
		}
		n, err := strconv.Atoi(v)
		if err != nil && parseErr == nil {
			parseErr = fmt.Errorf("column %s: %w", name, err)
		}
		return n
	}
	floatField := func(name string) float64 {
		v := field(name)
		if v == "" {
			return 0
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil && parseErr == nil {
			parseErr = fmt.Errorf("column %s: %w", name, err)
		}
		return f
	}

	a.ID = field("user_id")
	a.Age = intField("age")
	a.Income = floatField("income")
	a.CreditScore = intField("credit_score")
	a.DebtToIncome = floatField("debt_to_income")
	a.LoanAmount = floatField("loan_amount")
	a.LoanTerm = intField("loan_term")
	a.EmploymentYears = intField("employment_years")
	a.CreditLines = intField("number_of_credit_lines")
	a.LatePayments = intField("late_payments")
	a.DefaultHistory = intField("default_history")
	a.Industry = applicant.Industry(field("industry"))
	a.MaritalStatus = applicant.MaritalStatus(field("marital_status"))
	a.Education = applicant.Education(field("education"))

	if parseErr != nil {
		return applicant.Applicant{}, parseErr
	}
	return a, nil
}

// Fingerprint hashes the record's identity and figures. Batch dedup
// keys on this so resubmissions with changed figures stay distinct.
func Fingerprint(a applicant.Applicant) uint64 {
	key := fmt.Sprintf("%s|%d|%.2f|%d|%.4f|%.2f|%d|%d|%d|%d|%d|%s|%s|%s",
		a.ID, a.Age, a.Income, a.CreditScore, a.DebtToIncome,
		a.LoanAmount, a.LoanTerm, a.EmploymentYears, a.CreditLines,
		a.LatePayments, a.DefaultHistory, a.Industry, a.MaritalStatus, a.Education)
	return murmur3.Sum64([]byte(key))
}
