// Package applicant defines the loan applicant record, its enumerated
// demographic members, and the derived financial figures computed from it.
package applicant

import (
	"errors"
	"fmt"
	"math"
)

// Validation errors returned at the input boundary. Scoring and
// decisioning never raise these; callers validate before evaluating.
var (
	ErrMissingID = errors.New("applicant id is required")
	ErrNotFinite = errors.New("numeric field is not finite")
)

// Applicant is a single loan application record. Fields mirror the
// upstream data files, so JSON and CSV column names stay stable.
type Applicant struct {
	ID              string        `json:"user_id"`
	Age             int           `json:"age"`
	Income          float64       `json:"income"`
	CreditScore     int           `json:"credit_score"`
	DebtToIncome    float64       `json:"debt_to_income"`
	LoanAmount      float64       `json:"loan_amount"`
	LoanTerm        int           `json:"loan_term"` // months
	EmploymentYears int           `json:"employment_years"`
	CreditLines     int           `json:"number_of_credit_lines"`
	LatePayments    int           `json:"late_payments"`
	DefaultHistory  int           `json:"default_history"`
	Industry        Industry      `json:"industry"`
	MaritalStatus   MaritalStatus `json:"marital_status"`
	Education       Education     `json:"education"`
}

// Validate checks structural integrity: a present id and finite numeric
// fields. It deliberately does not range-check values (negative income,
// zero term); the engine is total over any finite numeric input and
// out-of-range records must flow through rather than abort a batch.
func (a Applicant) Validate() error {
	if a.ID == "" {
		return ErrMissingID
	}
	for _, f := range []struct {
		name  string
		value float64
	}{
		{"income", a.Income},
		{"debt_to_income", a.DebtToIncome},
		{"loan_amount", a.LoanAmount},
	} {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return fmt.Errorf("%w: %s", ErrNotFinite, f.name)
		}
	}
	return nil
}

// Normalize returns a copy with enumerated fields mapped onto their
// canonical members. Unknown members are preserved verbatim so they can
// be reported back to the caller; scoring treats them as neutral.
func (a Applicant) Normalize() Applicant {
	a.Industry = NormalizeIndustry(string(a.Industry))
	a.Education = NormalizeEducation(string(a.Education))
	a.MaritalStatus = NormalizeMaritalStatus(string(a.MaritalStatus))
	return a
}
