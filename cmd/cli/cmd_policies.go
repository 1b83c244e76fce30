package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/creditgate/creditgate/pkg/defaults"
	"github.com/creditgate/creditgate/pkg/jsonutil"
	"github.com/creditgate/creditgate/pkg/policy"
	"github.com/creditgate/creditgate/pkg/ui"
)

// runPolicies prints the built-in policy presets and their thresholds.
func runPolicies() {
	fs := flag.NewFlagSet("policies", flag.ExitOnError)

	jsonOut := fs.Bool("json", false, "Print the presets as JSON")
	noColor := fs.Bool("no-color", false, "Disable colored output")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: creditgate policies [-json]\n\n")
		fmt.Fprintf(os.Stderr, "Show the built-in policy presets and their seven thresholds.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(os.Args[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(defaults.ExitUserError)
	}

	ui.SetNoColor(*noColor)

	if *jsonOut {
		out, err := jsonutil.MarshalIndent(policy.All(), "", "  ")
		if err != nil {
			exitWithError("encode presets: %v", err)
		}
		fmt.Println(string(out))
		return
	}

	ui.PrintMiniBanner()
	for _, t := range policy.All() {
		m := ui.NewExecutionManifest(fmt.Sprintf("Policy: %s", t.Name))
		m.AddPolicyInfo(t.Name, t.MinCreditScore, t.MaxDebtToIncome, t.MaxPaymentToIncome, t.MinRiskScore)
		m.AddWithIcon("", "Min Employment", fmt.Sprintf("%d years", t.MinEmploymentYears))
		m.AddWithIcon("", "Max Late Payments", fmt.Sprintf("%d", t.MaxLatePayments))
		m.AddWithIcon("", "Max Defaults", fmt.Sprintf("%d", t.MaxDefaultHistory))
		m.Print()
	}
}
