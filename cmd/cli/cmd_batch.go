package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/creditgate/creditgate/pkg/batch"
	"github.com/creditgate/creditgate/pkg/defaults"
	"github.com/creditgate/creditgate/pkg/output"
	"github.com/creditgate/creditgate/pkg/output/exitcode"
	"github.com/creditgate/creditgate/pkg/output/guardrail"
	"github.com/creditgate/creditgate/pkg/policy"
	"github.com/creditgate/creditgate/pkg/ui"
)

const batchUsage = "creditgate batch -f <portfolio.csv|jsonl> [flags]"

// runBatch evaluates a whole portfolio, fans results out to the
// configured writers and hooks, and gates the exit code on an optional
// guardrail policy.
func runBatch() {
	fs := flag.NewFlagSet("batch", flag.ExitOnError)

	file := fs.String("f", "", "Portfolio file (CSV or JSONL); empty reads stdin")
	inputFormat := fs.String("input-format", "", "Force the input format: csv or jsonl (default: detect)")
	policyName := fs.String("policy", policy.Strict().Name, "Policy preset: strict or relaxed")
	workers := fs.Int("workers", defaults.WorkersMedium, "Parallel evaluation workers")
	pace := fs.Float64("pace", 0, "Max records per second (0 = unpaced)")
	progressEvery := fs.Int("progress-every", defaults.ProgressEvery, "Records between progress events (negative disables)")
	dedupe := fs.Bool("dedupe", false, "Drop records with duplicate financial fingerprints")
	seedRunID := fs.String("seed-run-id", "", "Fixed run id for reproducible CI artifacts")
	guardrailRef := fs.String("guardrail", "", "Guardrail policy: a YAML file or a bundled preset (ci-strict, ci-relaxed)")
	errorThreshold := fs.Int("error-threshold", 0, "Record errors that fail the run as an input error (0 = never)")

	var outFlags outputFlags
	outFlags.register(fs)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s\n\n", batchUsage)
		fmt.Fprintf(os.Stderr, "Evaluate every record in a portfolio under one policy preset.\n\n")
		fmt.Fprintf(os.Stderr, "Examples:\n")
		fmt.Fprintf(os.Stderr, "  creditgate batch -f portfolio.csv -json-export run.json -md-export report.md\n")
		fmt.Fprintf(os.Stderr, "  creditgate batch -f portfolio.csv -policy relaxed -workers 16 -pace 500\n")
		fmt.Fprintf(os.Stderr, "  creditgate batch -f portfolio.csv -silent -guardrail ci-strict\n")
		fmt.Fprintf(os.Stderr, "  cat portfolio.jsonl | creditgate batch -json > decisions.jsonl\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(os.Args[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(defaults.ExitUserError)
	}

	preset, err := policy.ByName(*policyName)
	if err != nil {
		exitWithUsage(err.Error(), batchUsage)
	}

	quiet := outFlags.silent || outFlags.jsonMode
	ui.SetSilent(quiet)
	ui.SetNoColor(outFlags.noColor)
	logger := newLogger(quiet, outFlags.verbose)

	// Resolve the guardrail before doing any work so a bad reference
	// fails fast.
	var gate *guardrail.Guardrail
	if *guardrailRef != "" {
		gate, err = loadGuardrail(*guardrailRef)
		if err != nil {
			exitWithUsage(fmt.Sprintf("guardrail: %v", err), batchUsage)
		}
	}

	records, recordErrs := loadRecords(*file, *inputFormat, quiet)

	outCfg, err := outFlags.toConfig(logger)
	if err != nil {
		exitWithUsage(err.Error(), batchUsage)
	}
	d, err := output.BuildDispatcher(outCfg)
	if err != nil {
		exitWithInputError("output setup: %v", err)
	}

	mgr := exitcode.New(exitcode.Config{
		ErrorThreshold: *errorThreshold,
		ExitOnError:    *errorThreshold > 0,
	})
	for range recordErrs {
		mgr.RecordError()
	}

	if !quiet {
		ui.PrintBanner()
		m := ui.BatchManifest(sourceLabel(*file), len(records), preset.Name, *workers, *pace)
		if gate != nil {
			m.AddWithIcon("", "Guardrail", gate.Name)
		}
		m.Print()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	engine := batch.New(batch.Config{
		Policy:        preset,
		Workers:       *workers,
		RateLimit:     *pace,
		ProgressEvery: *progressEvery,
		DedupeRecords: *dedupe,
		RunID:         *seedRunID,
		Source:        sourceLabel(*file),
		Logger:        logger,
	})

	result, runErr := engine.Run(ctx, records, d)
	if err := d.Close(); err != nil {
		logger.Warn("output shutdown", "error", err)
	}

	for i := 0; i < result.Errors; i++ {
		mgr.RecordError()
	}
	if runErr != nil {
		if errors.Is(runErr, context.Canceled) {
			mgr.SetInterrupted()
		} else {
			mgr.SetInternalError()
		}
	}

	if !quiet && result.Portfolio != nil {
		printPortfolioSummary(result)
	}

	if gate != nil && result.Portfolio != nil {
		gateRes := gate.Evaluate(guardrail.SummaryFromMetrics(result.Portfolio))
		if !gateRes.Pass {
			mgr.SetGuardrailFailed(strings.Join(gateRes.Failures, "; "))
			if !quiet {
				for _, f := range gateRes.Failures {
					ui.PrintError("guardrail: " + f)
				}
			}
		} else if !quiet {
			ui.PrintSuccess(fmt.Sprintf("guardrail %q passed", gate.Name))
		}
	}

	code, reason := mgr.ExitCode()
	if code != exitcode.Success && !quiet {
		ui.PrintError(reason)
	}
	os.Exit(int(code))
}

// printPortfolioSummary renders the console rollup after a batch run.
func printPortfolioSummary(result *batch.Result) {
	p := result.Portfolio
	ui.PrintSummary(ui.Summary{
		Total:         p.Total,
		Approved:      p.Approved,
		Rejected:      p.Rejected,
		Overrides:     p.Overrides,
		Errors:        p.Errored,
		ApprovalRate:  p.ApprovalRate,
		DefaultRate:   p.EstimatedDefaultRate,
		Grade:         p.Grade,
		Policy:        result.Policy,
		Duration:      result.Duration,
		RecordsPerSec: recordsPerSec(p.Total+p.Errored, result.Duration),
	})
	ui.PrintApprovalMeter(p.ApprovalRate)
}

// recordsPerSec computes throughput for the console summary.
func recordsPerSec(n int, d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(n) / d.Seconds()
}

// loadGuardrail resolves a -guardrail value: an existing YAML file wins,
// otherwise the value names a bundled preset.
func loadGuardrail(ref string) (*guardrail.Guardrail, error) {
	if _, err := os.Stat(ref); err == nil {
		return guardrail.Load(ref)
	}
	return guardrail.LoadPreset(strings.TrimSuffix(ref, ".yaml"))
}

// newLogger builds the CLI's stderr logger. Quiet runs only surface
// errors; -verbose turns on debug detail.
func newLogger(quiet, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	switch {
	case quiet:
		level = slog.LevelError
	case verbose:
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
