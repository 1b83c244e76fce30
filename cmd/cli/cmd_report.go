package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/creditgate/creditgate/pkg/batch"
	"github.com/creditgate/creditgate/pkg/defaults"
	"github.com/creditgate/creditgate/pkg/output"
	"github.com/creditgate/creditgate/pkg/ui"
)

const reportUsage = "creditgate report -f <portfolio.csv|jsonl> [flags]"

// runReport evaluates the same portfolio under both policy presets and
// renders the strict-vs-relaxed comparison.
func runReport() {
	fs := flag.NewFlagSet("report", flag.ExitOnError)

	file := fs.String("f", "", "Portfolio file (CSV or JSONL); empty reads stdin")
	inputFormat := fs.String("input-format", "", "Force the input format: csv or jsonl (default: detect)")
	workers := fs.Int("workers", defaults.WorkersMedium, "Parallel evaluation workers")
	dedupe := fs.Bool("dedupe", false, "Drop records with duplicate financial fingerprints")

	var outFlags outputFlags
	outFlags.register(fs)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s\n\n", reportUsage)
		fmt.Fprintf(os.Stderr, "Run both policy presets over one portfolio and compare the books.\n\n")
		fmt.Fprintf(os.Stderr, "Examples:\n")
		fmt.Fprintf(os.Stderr, "  creditgate report -f portfolio.csv\n")
		fmt.Fprintf(os.Stderr, "  creditgate report -f portfolio.csv -yaml-export compare.yaml\n")
		fmt.Fprintf(os.Stderr, "  creditgate generate -n 500 | creditgate report\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(os.Args[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(defaults.ExitUserError)
	}

	quiet := outFlags.silent || outFlags.jsonMode
	ui.SetSilent(quiet)
	ui.SetNoColor(outFlags.noColor)
	logger := newLogger(quiet, outFlags.verbose)

	records, _ := loadRecords(*file, *inputFormat, quiet)

	outCfg, err := outFlags.toConfig(logger)
	if err != nil {
		exitWithUsage(err.Error(), reportUsage)
	}
	d, err := output.BuildDispatcher(outCfg)
	if err != nil {
		exitWithInputError("output setup: %v", err)
	}

	if !quiet {
		ui.PrintBanner()
		ui.CompareManifest(sourceLabel(*file), len(records)).Print()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	engine := batch.New(batch.Config{
		Workers:       *workers,
		DedupeRecords: *dedupe,
		Source:        sourceLabel(*file),
		Logger:        logger,
	})

	comparison, runErr := engine.Compare(ctx, records, d)
	if err := d.Close(); err != nil {
		logger.Warn("output shutdown", "error", err)
	}
	if runErr != nil {
		exitWithError("comparison run: %v", runErr)
	}

	if !quiet {
		fmt.Println(comparison.Summary())
	}
}
