package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/creditgate/creditgate/pkg/applicant"
	"github.com/creditgate/creditgate/pkg/decision"
	"github.com/creditgate/creditgate/pkg/defaults"
	"github.com/creditgate/creditgate/pkg/jsonutil"
	"github.com/creditgate/creditgate/pkg/policy"
	"github.com/creditgate/creditgate/pkg/ui"
)

const evaluateUsage = "creditgate evaluate -id <id> -income <n> -credit-score <n> ... or -json <file|->"

// runEvaluate decides a single applicant, from field flags or a JSON
// document, and renders a decision card or the full decision JSON.
func runEvaluate() {
	fs := flag.NewFlagSet("evaluate", flag.ExitOnError)

	jsonIn := fs.String("json", "", "Read the applicant as JSON from a file, or - for stdin")
	policyName := fs.String("policy", policy.Strict().Name, "Policy preset: strict, relaxed or both")
	jsonOut := fs.Bool("json-out", false, "Print the full decision as JSON instead of a card")
	noColor := fs.Bool("no-color", false, "Disable colored output")

	id := fs.String("id", "", "Applicant id")
	age := fs.Int("age", 0, "Age in years")
	income := fs.Float64("income", 0, "Monthly income")
	creditScore := fs.Int("credit-score", 0, "Credit score (300-850)")
	dti := fs.Float64("dti", 0, "Debt-to-income ratio [0,1]")
	loanAmount := fs.Float64("loan-amount", 0, "Requested loan amount")
	loanTerm := fs.Int("loan-term", 36, "Loan term in months")
	employmentYears := fs.Int("employment-years", 0, "Years in current employment")
	creditLines := fs.Int("credit-lines", 0, "Number of open credit lines")
	latePayments := fs.Int("late-payments", 0, "Late payments on record")
	defaultHistory := fs.Int("defaults", 0, "Prior defaults on record")
	industry := fs.String("industry", "", "Employment industry")
	maritalStatus := fs.String("marital-status", "", "Marital status")
	education := fs.String("education", "", "Education level")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s\n\n", evaluateUsage)
		fmt.Fprintf(os.Stderr, "Decide a single applicant under one or both policy presets.\n\n")
		fmt.Fprintf(os.Stderr, "Examples:\n")
		fmt.Fprintf(os.Stderr, "  creditgate evaluate -id USER_001 -income 8500 -credit-score 710 -dti 0.3 -loan-amount 25000\n")
		fmt.Fprintf(os.Stderr, "  creditgate evaluate -json applicant.json -policy both -json-out\n")
		fmt.Fprintf(os.Stderr, "  cat applicant.json | creditgate evaluate -json -\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(os.Args[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(defaults.ExitUserError)
	}

	ui.SetNoColor(*noColor)

	var a applicant.Applicant
	if *jsonIn != "" {
		data, err := readInput(*jsonIn)
		if err != nil {
			exitWithInputError("read applicant: %v", err)
		}
		if err := jsonutil.Unmarshal(data, &a); err != nil {
			exitWithInputError("parse applicant JSON: %v", err)
		}
	} else {
		a = applicant.Applicant{
			ID:              *id,
			Age:             *age,
			Income:          *income,
			CreditScore:     *creditScore,
			DebtToIncome:    *dti,
			LoanAmount:      *loanAmount,
			LoanTerm:        *loanTerm,
			EmploymentYears: *employmentYears,
			CreditLines:     *creditLines,
			LatePayments:    *latePayments,
			DefaultHistory:  *defaultHistory,
			Industry:        applicant.Industry(*industry),
			MaritalStatus:   applicant.MaritalStatus(*maritalStatus),
			Education:       applicant.Education(*education),
		}
	}

	if err := a.Validate(); err != nil {
		exitWithUsage(fmt.Sprintf("invalid applicant: %v", err), evaluateUsage)
	}
	a = a.Normalize()

	presets, err := resolvePresets(*policyName)
	if err != nil {
		exitWithUsage(err.Error(), evaluateUsage)
	}

	results := make([]decision.Result, 0, len(presets))
	for _, t := range presets {
		results = append(results, decision.Evaluate(a, t))
	}

	if *jsonOut {
		var v any = results[0]
		if len(results) > 1 {
			byPolicy := make(map[string]decision.Result, len(results))
			for _, res := range results {
				byPolicy[res.Policy.Name] = res
			}
			v = byPolicy
		}
		out, err := jsonutil.MarshalIndent(v, "", "  ")
		if err != nil {
			exitWithError("encode decision: %v", err)
		}
		fmt.Println(string(out))
		return
	}

	for _, res := range results {
		printDecisionCard(res)
	}
}

// resolvePresets maps a -policy flag value to the presets to run.
// "both" selects strict then relaxed.
func resolvePresets(name string) ([]policy.Thresholds, error) {
	if name == "both" {
		return policy.All(), nil
	}
	t, err := policy.ByName(name)
	if err != nil {
		return nil, err
	}
	return []policy.Thresholds{t}, nil
}

// printDecisionCard renders one decision as a console card.
func printDecisionCard(res decision.Result) {
	ui.PrintDecision(res.ApplicantID, res.Policy.Name, string(res.Outcome),
		res.OverrideKind(), res.Financials.CreditScore, res.RiskScore, false)
	ui.PrintConfigLine("Reason", res.Reason)
	ui.PrintConfigLine("Monthly Payment", fmt.Sprintf("$%.2f over %d months", res.Financials.MonthlyPayment, res.Financials.LoanTerm))
	ui.PrintConfigLine("Payment-to-Income", fmt.Sprintf("%.4f", res.Financials.PaymentToIncome))
	for _, f := range res.FailedRules {
		ui.PrintConfigLine("Failed Rule", fmt.Sprintf("%s (%s)", f.Rule, f.Reason))
	}
	fmt.Fprintln(os.Stderr)
}

// readInput reads a whole file, or stdin when path is "-".
func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}
