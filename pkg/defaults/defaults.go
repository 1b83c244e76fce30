// Package defaults provides canonical default values for the entire codebase.
// This is the SINGLE SOURCE OF TRUTH for all runtime configuration defaults.
//
// Usage:
//
//	cfg.Workers = defaults.WorkersMedium
//	cfg.BatchSize = defaults.EventBatchSize
//
// DO NOT use hardcoded values like `Workers: 8` anywhere.
// Instead, reference the appropriate constant from this package.
//
// Engine semantics (risk bands, weights, policy thresholds) do NOT live
// here: those are fixed domain constants owned by pkg/scoring and
// pkg/policy and are not configuration.
package defaults

// Version is the current creditgate version.
const Version = "1.3.1"

// ToolName is the canonical lowercase tool name used in logs, metrics
// namespaces and report footers.
const ToolName = "creditgate"

// ToolNameDisplay is the capitalized tool name for report titles.
const ToolNameDisplay = "CreditGate"

// ============================================================================
// WORKER POOL SETTINGS
// ============================================================================
//
// Use these for the batch runner's evaluation pool. Evaluation is pure CPU
// and near-instant per record, so modest pools are plenty.
// ============================================================================

const (
	// WorkersSerial disables parallelism (1)
	WorkersSerial = 1

	// WorkersLow is for small portfolios (4)
	WorkersLow = 4

	// WorkersMedium is the standard evaluation pool (8)
	WorkersMedium = 8

	// WorkersHigh is for very large portfolios (16)
	WorkersHigh = 16
)

// ============================================================================
// EVENT PIPELINE SETTINGS
// ============================================================================

const (
	// EventBatchSize is the dispatcher buffer size (100)
	EventBatchSize = 100

	// EventChannelSize is the runner's record channel buffer (256)
	EventChannelSize = 256

	// ProgressEvery is how many records between progress events (100)
	ProgressEvery = 100
)

// ============================================================================
// GENERATOR SETTINGS
// ============================================================================

const (
	// GeneratorCount is the default synthetic portfolio size (1000)
	GeneratorCount = 1000

	// GeneratorSeed is the default generator seed (42)
	GeneratorSeed = 42

	// GeneratorStart is the first synthetic applicant ordinal (1)
	GeneratorStart = 1
)

// ============================================================================
// OBSERVABILITY SETTINGS
// ============================================================================

const (
	// MetricsPortDisabled turns the Prometheus listener off (0)
	MetricsPortDisabled = 0

	// MetricsPort is the conventional scrape port when enabled (9109)
	MetricsPort = 9109

	// OTelEndpoint is the conventional local OTLP gRPC endpoint
	OTelEndpoint = "localhost:4317"
)

// ============================================================================
// EXIT CODES
// ============================================================================
//
// Process exit codes shared by the CLI and CI guardrails. Scripts key off
// these values, so they are part of the public contract.
// ============================================================================

const (
	// ExitSuccess means the run completed and all guardrails passed (0)
	ExitSuccess = 0

	// ExitGuardrailFail means the run completed but a guardrail failed (1)
	ExitGuardrailFail = 1

	// ExitUserError means invalid flags or arguments (2)
	ExitUserError = 2

	// ExitInputError means unreadable or malformed input data (3)
	ExitInputError = 3

	// ExitInternalError means an unexpected runtime failure (4)
	ExitInternalError = 4
)

// ============================================================================
// TIMEOUTS
// ============================================================================

const (
	// ShutdownTimeoutSec bounds hook/exporter shutdown (5)
	ShutdownTimeoutSec = 5

	// ConnectTimeoutSec bounds exporter connection establishment (10)
	ConnectTimeoutSec = 10
)
