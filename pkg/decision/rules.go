package decision

import (
	"fmt"

	"github.com/creditgate/creditgate/pkg/applicant"
	"github.com/creditgate/creditgate/pkg/policy"
)

// Compensating factor boundaries. Unlike policy thresholds these are
// engine semantics, identical under every preset.
const (
	// nearMissBand is how far a risk score may sit below the policy
	// minimum and still be rescued by a compensating factor.
	nearMissBand = 5.0

	nearMissIncomeAbove    = 20000.0
	nearMissEmploymentOver = 5
	nearMissLoanBelow      = 50000.0

	strongCreditScoreAtLeast = 750
	strongIncomeAbove        = 50000.0
	strongEmploymentOver     = 10

	// maxOverridableFailures caps how many failed hard rules strong
	// factors may outweigh.
	maxOverridableFailures = 1
)

// hardRule is one gate check. Every rule is evaluated on every record;
// the gate never short-circuits, so a rejection reason always names all
// violated rules.
type hardRule struct {
	// ID is a stable identifier, also used as a metric label value.
	ID     string
	failed func(a applicant.Applicant, fin applicant.Financials, t policy.Thresholds) bool
	reason func(a applicant.Applicant, fin applicant.Financials, t policy.Thresholds) string
}

var hardRules = []hardRule{
	{
		ID: "credit_score",
		failed: func(a applicant.Applicant, _ applicant.Financials, t policy.Thresholds) bool {
			return a.CreditScore < t.MinCreditScore
		},
		reason: func(a applicant.Applicant, _ applicant.Financials, t policy.Thresholds) string {
			return fmt.Sprintf("credit score %d below minimum %d", a.CreditScore, t.MinCreditScore)
		},
	},
	{
		ID: "debt_to_income",
		failed: func(a applicant.Applicant, _ applicant.Financials, t policy.Thresholds) bool {
			return a.DebtToIncome > t.MaxDebtToIncome
		},
		reason: func(a applicant.Applicant, _ applicant.Financials, t policy.Thresholds) string {
			return fmt.Sprintf("debt-to-income %.2f above maximum %.2f", a.DebtToIncome, t.MaxDebtToIncome)
		},
	},
	{
		ID: "payment_to_income",
		failed: func(_ applicant.Applicant, fin applicant.Financials, t policy.Thresholds) bool {
			return fin.PaymentToIncome > t.MaxPaymentToIncome
		},
		reason: func(_ applicant.Applicant, fin applicant.Financials, t policy.Thresholds) string {
			return fmt.Sprintf("payment-to-income %.2f above maximum %.2f", fin.PaymentToIncome, t.MaxPaymentToIncome)
		},
	},
	{
		ID: "employment_years",
		failed: func(a applicant.Applicant, _ applicant.Financials, t policy.Thresholds) bool {
			return a.EmploymentYears < t.MinEmploymentYears
		},
		reason: func(a applicant.Applicant, _ applicant.Financials, t policy.Thresholds) string {
			return fmt.Sprintf("employment %d years below minimum %d", a.EmploymentYears, t.MinEmploymentYears)
		},
	},
	{
		ID: "late_payments",
		failed: func(a applicant.Applicant, _ applicant.Financials, t policy.Thresholds) bool {
			return a.LatePayments > t.MaxLatePayments
		},
		reason: func(a applicant.Applicant, _ applicant.Financials, t policy.Thresholds) string {
			return fmt.Sprintf("%d late payments above maximum %d", a.LatePayments, t.MaxLatePayments)
		},
	},
	{
		ID: "default_history",
		failed: func(a applicant.Applicant, _ applicant.Financials, t policy.Thresholds) bool {
			return a.DefaultHistory > t.MaxDefaultHistory
		},
		reason: func(a applicant.Applicant, _ applicant.Financials, t policy.Thresholds) string {
			return fmt.Sprintf("%d past defaults above maximum %d", a.DefaultHistory, t.MaxDefaultHistory)
		},
	},
}

// evaluateGate runs every hard rule and collects the failures in rule
// order. A nil return means the gate passed.
func evaluateGate(a applicant.Applicant, fin applicant.Financials, t policy.Thresholds) []RuleFailure {
	var failures []RuleFailure
	for _, rule := range hardRules {
		if rule.failed(a, fin, t) {
			failures = append(failures, RuleFailure{
				Rule:   rule.ID,
				Reason: rule.reason(a, fin, t),
			})
		}
	}
	return failures
}

// compensatingFactor rescues a near-miss score. Factors are consulted
// in table order and the first one that applies decides the reason.
type compensatingFactor struct {
	Category string
	applies  func(a applicant.Applicant) bool
	describe func(a applicant.Applicant) string
}

var nearMissFactors = []compensatingFactor{
	{
		Category: "income",
		applies:  func(a applicant.Applicant) bool { return a.Income > nearMissIncomeAbove },
		describe: func(a applicant.Applicant) string {
			return fmt.Sprintf("income %.2f above %.0f", a.Income, nearMissIncomeAbove)
		},
	},
	{
		Category: "employment",
		applies:  func(a applicant.Applicant) bool { return a.EmploymentYears > nearMissEmploymentOver },
		describe: func(a applicant.Applicant) string {
			return fmt.Sprintf("employment %d years above %d", a.EmploymentYears, nearMissEmploymentOver)
		},
	},
	{
		Category: "education",
		applies:  func(a applicant.Applicant) bool { return hasAdvancedEducation(a.Education) },
		describe: func(a applicant.Applicant) string {
			return fmt.Sprintf("education %s qualifies", a.Education)
		},
	},
	{
		Category: "loan_amount",
		applies:  func(a applicant.Applicant) bool { return a.LoanAmount < nearMissLoanBelow },
		describe: func(a applicant.Applicant) string {
			return fmt.Sprintf("loan amount %.2f below %.0f", a.LoanAmount, nearMissLoanBelow)
		},
	},
}

func hasAdvancedEducation(e applicant.Education) bool {
	switch e {
	case applicant.EducationBachelors, applicant.EducationMasters, applicant.EducationDoctorate:
		return true
	}
	return false
}

// strongFactors collects every strong compensating factor the applicant
// holds, in fixed order. Unlike near-miss factors, all that apply are
// reported, not just the first.
func strongFactors(a applicant.Applicant) []string {
	var factors []string
	if a.CreditScore >= strongCreditScoreAtLeast {
		factors = append(factors, fmt.Sprintf("credit score %d at or above %d", a.CreditScore, strongCreditScoreAtLeast))
	}
	if a.Income > strongIncomeAbove {
		factors = append(factors, fmt.Sprintf("income %.2f above %.0f", a.Income, strongIncomeAbove))
	}
	if a.EmploymentYears > strongEmploymentOver {
		factors = append(factors, fmt.Sprintf("employment %d years above %d", a.EmploymentYears, strongEmploymentOver))
	}
	return factors
}
