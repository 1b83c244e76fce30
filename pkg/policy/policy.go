// Package policy defines the decision threshold presets. Exactly two
// presets exist, strict and relaxed; thresholds are never read from the
// environment or from files. The presets differ only in data, the
// decision algorithm is identical for both.
package policy

import (
	"errors"
	"fmt"
)

// Preset names.
const (
	StrictName  = "strict"
	RelaxedName = "relaxed"
)

// ErrUnknownPolicy is returned by ByName for anything other than the
// two preset names.
var ErrUnknownPolicy = errors.New("unknown policy preset")

// Thresholds is one named preset of the seven decision thresholds.
// Values are shared read-only across evaluations; the engine never
// mutates a preset.
type Thresholds struct {
	Name               string  `json:"name"`
	MinCreditScore     int     `json:"min_credit_score"`
	MaxDebtToIncome    float64 `json:"max_debt_to_income"`
	MaxPaymentToIncome float64 `json:"max_payment_to_income"`
	MinEmploymentYears int     `json:"min_employment_years"`
	MaxLatePayments    int     `json:"max_late_payments"`
	MaxDefaultHistory  int     `json:"max_default_history"`
	MinRiskScore       float64 `json:"min_risk_score"`
}

// Strict returns the conservative preset.
func Strict() Thresholds {
	return Thresholds{
		Name:               StrictName,
		MinCreditScore:     620,
		MaxDebtToIncome:    0.50,
		MaxPaymentToIncome: 0.35,
		MinEmploymentYears: 1,
		MaxLatePayments:    3,
		MaxDefaultHistory:  1,
		MinRiskScore:       60,
	}
}

// Relaxed returns the permissive preset.
func Relaxed() Thresholds {
	return Thresholds{
		Name:               RelaxedName,
		MinCreditScore:     580,
		MaxDebtToIncome:    0.60,
		MaxPaymentToIncome: 0.45,
		MinEmploymentYears: 0,
		MaxLatePayments:    6,
		MaxDefaultHistory:  1,
		MinRiskScore:       55,
	}
}

// ByName resolves a preset name, case-sensitively.
func ByName(name string) (Thresholds, error) {
	switch name {
	case StrictName:
		return Strict(), nil
	case RelaxedName:
		return Relaxed(), nil
	default:
		return Thresholds{}, fmt.Errorf("%w: %q (valid: strict, relaxed)", ErrUnknownPolicy, name)
	}
}

// Names lists the preset names in display order.
func Names() []string {
	return []string{StrictName, RelaxedName}
}

// All returns both presets in display order.
func All() []Thresholds {
	return []Thresholds{Strict(), Relaxed()}
}
