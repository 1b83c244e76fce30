// Package exitcode provides semantic exit codes for CI/CD integration.
// Exit codes communicate run outcomes to automation pipelines.
//
// Exit codes:
//   - 0: Success (run completed, guardrail passed or absent)
//   - 1: Guardrail failed
//   - 2: Invalid arguments or configuration
//   - 3: Input unreadable or too many invalid records
//   - 4: Internal error or interrupted run
package exitcode

import (
	"fmt"
	"sync"

	"github.com/creditgate/creditgate/pkg/defaults"
)

// Code represents a semantic exit code for CI/CD pipelines.
type Code int

const (
	// Success indicates the run completed and no guardrail fired.
	Success Code = defaults.ExitSuccess
	// Guardrail indicates the portfolio guardrail policy failed.
	Guardrail Code = defaults.ExitGuardrailFail
	// Usage indicates invalid arguments or configuration.
	Usage Code = defaults.ExitUserError
	// Input indicates the input was unreadable or too many records
	// failed validation.
	Input Code = defaults.ExitInputError
	// Internal indicates an unexpected internal error or an
	// interrupted run.
	Internal Code = defaults.ExitInternalError
)

// codeStrings maps exit codes to machine-readable names.
var codeStrings = map[Code]string{
	Success:   "success",
	Guardrail: "guardrail_failed",
	Usage:     "invalid_configuration",
	Input:     "input_error",
	Internal:  "internal_error",
}

// codeDescriptions provides detailed descriptions for exit codes.
var codeDescriptions = map[Code]string{
	Success:   "Run completed successfully",
	Guardrail: "Portfolio guardrail policy failed",
	Usage:     "Invalid arguments or configuration",
	Input:     "Input unreadable or too many invalid records",
	Internal:  "Run terminated by an internal error or interrupt",
}

// Config holds configuration for the exit code manager.
type Config struct {
	// ErrorThreshold is the number of record-level errors that turns a
	// run into an input failure. Default: 10.
	ErrorThreshold int

	// ExitOnError determines whether the error threshold is enforced.
	ExitOnError bool
}

// DefaultConfig returns the default exit code configuration.
func DefaultConfig() Config {
	return Config{
		ErrorThreshold: 10,
		ExitOnError:    true,
	}
}

// Manager tracks run outcomes and determines the appropriate exit code.
type Manager struct {
	cfg    Config
	errors int
	mu     sync.Mutex

	guardrailReason string
	guardrailFailed bool
	configError     bool
	inputError      bool
	interrupted     bool
	internalErr     bool
}

// New creates a new exit code manager with the given configuration.
func New(cfg Config) *Manager {
	if cfg.ErrorThreshold == 0 {
		cfg.ErrorThreshold = 10
	}

	return &Manager{
		cfg: cfg,
	}
}

// RecordError increments the record-level error counter.
func (m *Manager) RecordError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors++
}

// SetGuardrailFailed marks that the guardrail evaluation failed, with
// the failure reason for reporting.
func (m *Manager) SetGuardrailFailed(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.guardrailFailed = true
	m.guardrailReason = reason
}

// SetConfigError marks that a configuration error occurred.
func (m *Manager) SetConfigError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.configError = true
}

// SetInputError marks that the input source could not be read.
func (m *Manager) SetInputError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inputError = true
}

// SetInterrupted marks that the run was interrupted (e.g., SIGINT).
func (m *Manager) SetInterrupted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.interrupted = true
}

// SetInternalError marks that an unexpected internal error occurred.
func (m *Manager) SetInternalError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.internalErr = true
}

// ExitCode returns the appropriate exit code based on recorded outcomes.
// The returned string provides a human-readable reason for the code.
//
// Priority order (highest to lowest):
//  1. Internal error
//  2. Interrupted
//  3. Configuration error
//  4. Input unreadable
//  5. Too many record errors (if ExitOnError enabled)
//  6. Guardrail failed
//  7. Success
func (m *Manager) ExitCode() (Code, string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.internalErr {
		return Internal, codeDescriptions[Internal]
	}

	if m.interrupted {
		return Internal, "Run was interrupted by user or signal"
	}

	if m.configError {
		return Usage, codeDescriptions[Usage]
	}

	if m.inputError {
		return Input, codeDescriptions[Input]
	}

	if m.cfg.ExitOnError && m.errors >= m.cfg.ErrorThreshold {
		return Input, fmt.Sprintf("%s (threshold: %d, actual: %d)",
			codeDescriptions[Input], m.cfg.ErrorThreshold, m.errors)
	}

	if m.guardrailFailed {
		if m.guardrailReason != "" {
			return Guardrail, fmt.Sprintf("%s: %s",
				codeDescriptions[Guardrail], m.guardrailReason)
		}
		return Guardrail, codeDescriptions[Guardrail]
	}

	return Success, codeDescriptions[Success]
}

// Errors returns the current record-level error count.
func (m *Manager) Errors() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errors
}

// Reset clears all recorded outcomes and state flags.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = 0
	m.guardrailFailed = false
	m.guardrailReason = ""
	m.configError = false
	m.inputError = false
	m.interrupted = false
	m.internalErr = false
}

// CodeString returns the string representation of any exit code.
func CodeString(code Code) string {
	if s, ok := codeStrings[code]; ok {
		return s
	}
	return fmt.Sprintf("unknown_code_%d", code)
}

// CodeDescription returns a detailed description of an exit code.
func CodeDescription(code Code) string {
	if s, ok := codeDescriptions[code]; ok {
		return s
	}
	return fmt.Sprintf("Unknown exit code: %d", code)
}
