package main

import (
	"errors"
	"fmt"

	"github.com/creditgate/creditgate/pkg/applicant"
	"github.com/creditgate/creditgate/pkg/input"
	"github.com/creditgate/creditgate/pkg/ui"
)

// maxRecordWarnings caps how many per-record parse failures the console
// shows before collapsing the rest into a count.
const maxRecordWarnings = 5

// loadRecords reads the applicant pool from a file or piped stdin and
// reports per-record parse failures. Unreadable input is fatal.
func loadRecords(path, format string, silent bool) ([]applicant.Applicant, []input.RecordError) {
	f, err := input.ParseFormat(format)
	if err != nil {
		exitWithUsage(fmt.Sprintf("invalid -input-format: %v", err), "valid formats: csv, jsonl (empty = detect)")
	}

	src := input.Source{Path: path, Format: f, Stdin: path == ""}
	records, recordErrs, err := src.Records()
	if err != nil {
		if errors.Is(err, input.ErrNoInput) {
			exitWithUsage("no applicant records: pass -f <file> or pipe CSV/JSONL on stdin",
				"creditgate batch -f portfolio.csv [flags]")
		}
		exitWithInputError("load records: %v", err)
	}

	if !silent {
		for i, re := range recordErrs {
			if i == maxRecordWarnings {
				ui.PrintWarning(fmt.Sprintf("... and %d more record errors", len(recordErrs)-maxRecordWarnings))
				break
			}
			ui.PrintWarning(re.Error())
		}
	}

	return records, recordErrs
}

// sourceLabel names where records came from for manifests and events.
func sourceLabel(path string) string {
	if path == "" {
		return "stdin"
	}
	return path
}
