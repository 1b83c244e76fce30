// Command cli is the creditgate command line interface.
//
// Usage:
//
//	creditgate evaluate -json applicant.json -policy strict
//	creditgate batch -f portfolio.csv -guardrail ci-strict
//	creditgate generate -n 1000 -seed 42 -o portfolio.csv
//	creditgate report -f portfolio.csv
//	creditgate policies
//	creditgate mcp -stdio
package main

import (
	"fmt"
	"os"

	"github.com/creditgate/creditgate/pkg/defaults"
	"github.com/creditgate/creditgate/pkg/ui"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(defaults.ExitUserError)
	}

	switch os.Args[1] {
	case "evaluate", "eval", "decide":
		runEvaluate()
	case "batch", "assess":
		runBatch()
	case "generate", "gen":
		runGenerate()
	case "report", "compare":
		runReport()
	case "policies", "policy", "presets":
		runPolicies()
	case "mcp":
		runMCP()
	case "version", "-v", "--version":
		runVersion()
	case "help", "-h", "--help":
		printUsage()
	default:
		ui.PrintError(fmt.Sprintf("unknown command: %s", os.Args[1]))
		fmt.Fprintln(os.Stderr)
		printUsage()
		os.Exit(defaults.ExitUserError)
	}
}

func runVersion() {
	fmt.Printf("%s v%s\n", defaults.ToolName, defaults.Version)
}

func printUsage() {
	ui.PrintBanner()
	os.Stderr.Sync()

	fmt.Println(ui.SectionStyle.Render("USAGE"))
	fmt.Println()
	fmt.Printf("  %s\n", ui.ConfigValueStyle.Render("creditgate <command> [flags]"))
	fmt.Println()

	fmt.Println(ui.SectionStyle.Render("COMMANDS"))
	fmt.Println()
	fmt.Printf("  %s  %s\n", ui.StatValueStyle.Render("evaluate "), "Decide a single applicant (flags or -json file/stdin)")
	fmt.Printf("  %s  %s\n", ui.StatValueStyle.Render("batch    "), "Evaluate a CSV/JSONL portfolio with exports, hooks and guardrails")
	fmt.Printf("  %s  %s\n", ui.StatValueStyle.Render("generate "), "Produce a seeded synthetic portfolio CSV")
	fmt.Printf("  %s  %s\n", ui.StatValueStyle.Render("report   "), "Strict-vs-relaxed policy comparison over a portfolio")
	fmt.Printf("  %s  %s\n", ui.StatValueStyle.Render("policies "), "Show the built-in policy presets and their thresholds")
	fmt.Printf("  %s  %s\n", ui.StatValueStyle.Render("mcp      "), "Start the MCP server (stdio or HTTP transport)")
	fmt.Printf("  %s  %s\n", ui.StatValueStyle.Render("version  "), "Print the version")
	fmt.Println()

	fmt.Println(ui.SectionStyle.Render("QUICK START"))
	fmt.Println()
	fmt.Printf("  %s\n", ui.SubtitleStyle.Render("Single decision:"))
	fmt.Printf("    %s\n", ui.ConfigValueStyle.Render(`creditgate evaluate -id USER_001 -income 8500 -credit-score 710 -dti 0.3 -loan-amount 25000 -loan-term 36 -employment-years 5`))
	fmt.Printf("    %s\n", ui.ConfigValueStyle.Render("cat applicant.json | creditgate evaluate -json - -policy both"))
	fmt.Println()
	fmt.Printf("  %s\n", ui.SubtitleStyle.Render("Portfolio run:"))
	fmt.Printf("    %s\n", ui.ConfigValueStyle.Render("creditgate generate -n 1000 -o portfolio.csv"))
	fmt.Printf("    %s\n", ui.ConfigValueStyle.Render("creditgate batch -f portfolio.csv -json-export run.json -md-export report.md"))
	fmt.Println()
	fmt.Printf("  %s\n", ui.SubtitleStyle.Render("CI gate:"))
	fmt.Printf("    %s\n", ui.ConfigValueStyle.Render("creditgate batch -f portfolio.csv -silent -guardrail ci-strict"))
	fmt.Printf("    %s\n", ui.ConfigValueStyle.Render("creditgate report -f portfolio.csv -yaml-export compare.yaml"))
	fmt.Println()

	fmt.Println(ui.SectionStyle.Render("EXIT CODES"))
	fmt.Println()
	fmt.Printf("    %d  run completed, guardrail passed or absent\n", defaults.ExitSuccess)
	fmt.Printf("    %d  guardrail failed\n", defaults.ExitGuardrailFail)
	fmt.Printf("    %d  invalid arguments or configuration\n", defaults.ExitUserError)
	fmt.Printf("    %d  input unreadable or too many invalid records\n", defaults.ExitInputError)
	fmt.Printf("    %d  internal error or interrupted run\n", defaults.ExitInternalError)
	fmt.Println()

	fmt.Printf("  Run %s for command flags.\n", ui.ConfigValueStyle.Render("creditgate <command> -h"))
	fmt.Println()
}
