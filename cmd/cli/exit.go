package main

import (
	"fmt"
	"os"

	"github.com/creditgate/creditgate/pkg/defaults"
	"github.com/creditgate/creditgate/pkg/ui"
)

// exitWithUsage prints an error message followed by a usage hint, then
// exits with the user-error code.
func exitWithUsage(msg, usage string) {
	ui.PrintError(msg)
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Usage:", usage)
	os.Exit(defaults.ExitUserError)
}

// exitWithInputError prints a formatted error and exits with the
// input-error code. Use for unreadable files and malformed records.
func exitWithInputError(format string, args ...any) {
	ui.PrintError(fmt.Sprintf(format, args...))
	os.Exit(defaults.ExitInputError)
}

// exitWithError prints a formatted error and exits with the
// internal-error code. Use this instead of ui.PrintError + os.Exit for
// consistent CLI error handling.
func exitWithError(format string, args ...any) {
	ui.PrintError(fmt.Sprintf(format, args...))
	os.Exit(defaults.ExitInternalError)
}
