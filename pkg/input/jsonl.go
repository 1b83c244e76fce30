// pkg/input/jsonl.go
package input

import (
	"bufio"
	"bytes"
	"strings"

	"github.com/creditgate/creditgate/pkg/applicant"
	"github.com/creditgate/creditgate/pkg/jsonutil"
)

// parseJSONL decodes one applicant object per line. Blank lines are
// skipped; malformed lines become record errors.
func parseJSONL(r *bufio.Reader) ([]applicant.Applicant, []RecordError, error) {
	var (
		records []applicant.Applicant
		recErrs []RecordError
	)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(bytes.TrimPrefix(scanner.Bytes(), utf8BOM))
		if len(raw) == 0 {
			continue
		}
		var a applicant.Applicant
		if err := jsonutil.Unmarshal(raw, &a); err != nil {
			recErrs = append(recErrs, RecordError{Line: line, Err: err})
			continue
		}
		records = append(records, a)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}
	if len(records) == 0 && len(recErrs) == 0 {
		return nil, nil, ErrNoInput
	}
	return records, recErrs, nil
}

// ParseFormat resolves a -format flag value, accepting a few common
// aliases. The empty string means auto-detection.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return FormatAuto, nil
	case "csv":
		return FormatCSV, nil
	case "jsonl", "ndjson", "json":
		return FormatJSONL, nil
	default:
		return FormatAuto, ErrBadFormat
	}
}
