// Package scoring maps an applicant record to seven per-dimension risk
// values in [0,1] and folds them into one bounded composite score.
// Higher scores mean lower risk. Every band table below is engine
// semantics and deliberately not configurable.
package scoring

import (
	"math"

	"github.com/creditgate/creditgate/pkg/applicant"
)

// Dimensions holds the seven per-dimension risk values, each in [0,1].
// JSON keys follow the upstream report format.
type Dimensions struct {
	CreditScore    float64 `json:"credit_score_risk"`
	Debt           float64 `json:"debt_risk"`
	Payment        float64 `json:"payment_risk"`
	Employment     float64 `json:"employment_risk"`
	PaymentHistory float64 `json:"payment_history_risk"`
	Default        float64 `json:"default_risk"`
	Demographic    float64 `json:"demographic_risk"`
}

// Result contains the composite score and its dimension breakdown.
type Result struct {
	Score      float64    `json:"risk_score"`
	Dimensions Dimensions `json:"risk_dimensions"`
}

// Composite score bounds. The raw transform lands in [50,95] for
// dimension risks in [0,1]; the floor is kept for parity with the
// documented clamp.
const (
	ScoreFloor   = 40.0
	ScoreCeiling = 95.0

	scoreBase = 50.0
	scoreSpan = 45.0
)

// Dimension weights, summing to 1.0.
const (
	weightCreditScore    = 0.35
	weightDebt           = 0.25
	weightPayment        = 0.15
	weightEmployment     = 0.08
	weightPaymentHistory = 0.08
	weightDefault        = 0.05
	weightDemographic    = 0.04
)

// Band tables are ordered so a linear walk finds the first matching
// band; the value after the loop is the residual for anything past the
// last boundary. Keeping them as data keeps each boundary auditable and
// testable on its own.

// creditScoreBands: higher score, lower risk. First floor the score
// meets wins.
var creditScoreBands = []struct {
	atLeast int
	risk    float64
}{
	{750, 0.02},
	{700, 0.10},
	{650, 0.20},
	{600, 0.35},
	{550, 0.55},
}

// debtBands: debt-to-income ratio, strictly-below boundaries.
var debtBands = []struct {
	below float64
	risk  float64
}{
	{0.3, 0.03},
	{0.4, 0.15},
	{0.5, 0.30},
	{0.6, 0.50},
	{0.7, 0.70},
}

// paymentBands: payment-to-income ratio, strictly-below boundaries.
var paymentBands = []struct {
	below float64
	risk  float64
}{
	{0.2, 0.03},
	{0.3, 0.15},
	{0.4, 0.30},
	{0.5, 0.50},
}

// employmentBands: years employed, first floor met wins.
var employmentBands = []struct {
	atLeast int
	risk    float64
}{
	{10, 0.05},
	{5, 0.20},
	{2, 0.40},
	{1, 0.60},
}

// paymentHistoryBands: late payment count, inclusive upper boundaries.
var paymentHistoryBands = []struct {
	atMost int
	risk   float64
}{
	{0, 0.05},
	{2, 0.20},
	{5, 0.50},
	{8, 0.70},
}

// defaultBands: past default count, inclusive upper boundaries.
var defaultBands = []struct {
	atMost int
	risk   float64
}{
	{0, 0.10},
	{1, 0.40},
	{2, 0.70},
}

// industryCoefficients feed the demographic dimension. Unknown members
// take the neutral 1.0.
var industryCoefficients = map[applicant.Industry]float64{
	applicant.IndustryFinance:       1.0,
	applicant.IndustryIT:            0.9,
	applicant.IndustryManufacturing: 1.1,
	applicant.IndustryRetail:        1.2,
	applicant.IndustryEducation:     0.8,
	applicant.IndustryHealthcare:    0.85,
	applicant.IndustryRealEstate:    1.3,
	applicant.IndustryOther:         1.0,
}

var educationCoefficients = map[applicant.Education]float64{
	applicant.EducationDoctorate:  0.7,
	applicant.EducationMasters:    0.8,
	applicant.EducationBachelors:  0.9,
	applicant.EducationAssociate:  1.0,
	applicant.EducationHighSchool: 1.2,
}

// Score computes the dimension risks and composite score for a record.
// Enumerated fields are normalized first, so records built straight from
// upstream data files score identically to pre-normalized ones.
func Score(a applicant.Applicant) Result {
	a = a.Normalize()
	fin := applicant.DeriveFinancials(a)

	dims := Dimensions{
		CreditScore:    CreditScoreRisk(a.CreditScore),
		Debt:           DebtRisk(a.DebtToIncome),
		Payment:        PaymentRisk(fin.PaymentToIncome),
		Employment:     EmploymentRisk(a.EmploymentYears),
		PaymentHistory: PaymentHistoryRisk(a.LatePayments),
		Default:        DefaultRisk(a.DefaultHistory),
		Demographic:    DemographicRisk(a.Age, a.Industry, a.Education),
	}

	return Result{
		Score:      Composite(dims),
		Dimensions: dims,
	}
}

// Composite folds dimension risks into the bounded score:
// 50 + (1 - weighted risk) * 45, clamped to [40, 95], then rounded to
// two decimal places. Every downstream threshold comparison depends on
// this exact transform.
func Composite(d Dimensions) float64 {
	weighted := d.CreditScore*weightCreditScore +
		d.Debt*weightDebt +
		d.Payment*weightPayment +
		d.Employment*weightEmployment +
		d.PaymentHistory*weightPaymentHistory +
		d.Default*weightDefault +
		d.Demographic*weightDemographic

	score := scoreBase + (1-weighted)*scoreSpan
	if score < ScoreFloor {
		score = ScoreFloor
	}
	if score > ScoreCeiling {
		score = ScoreCeiling
	}
	return math.Round(score*100) / 100
}

// CreditScoreRisk returns the credit score dimension risk.
func CreditScoreRisk(score int) float64 {
	for _, band := range creditScoreBands {
		if score >= band.atLeast {
			return band.risk
		}
	}
	return 0.80
}

// DebtRisk returns the debt-to-income dimension risk.
func DebtRisk(ratio float64) float64 {
	for _, band := range debtBands {
		if ratio < band.below {
			return band.risk
		}
	}
	return 0.90
}

// PaymentRisk returns the payment-to-income dimension risk.
func PaymentRisk(ratio float64) float64 {
	for _, band := range paymentBands {
		if ratio < band.below {
			return band.risk
		}
	}
	return 0.75
}

// EmploymentRisk returns the employment tenure dimension risk.
func EmploymentRisk(years int) float64 {
	for _, band := range employmentBands {
		if years >= band.atLeast {
			return band.risk
		}
	}
	return 0.80
}

// PaymentHistoryRisk returns the late payment dimension risk.
func PaymentHistoryRisk(latePayments int) float64 {
	for _, band := range paymentHistoryBands {
		if latePayments <= band.atMost {
			return band.risk
		}
	}
	return 0.90
}

// DefaultRisk returns the past default dimension risk.
func DefaultRisk(defaults int) float64 {
	for _, band := range defaultBands {
		if defaults <= band.atMost {
			return band.risk
		}
	}
	return 0.90
}

// DemographicRisk averages the age band risk with the industry and
// education coefficients, clamped to at most 1.0.
func DemographicRisk(age int, industry applicant.Industry, education applicant.Education) float64 {
	ageRisk := ageBandRisk(age)

	industryCoeff, ok := industryCoefficients[industry]
	if !ok {
		industryCoeff = 1.0
	}
	educationCoeff, ok := educationCoefficients[education]
	if !ok {
		educationCoeff = 1.0
	}

	risk := (ageRisk + industryCoeff + educationCoeff) / 3
	if risk > 1.0 {
		return 1.0
	}
	return risk
}

func ageBandRisk(age int) float64 {
	switch {
	case age >= 25 && age <= 55:
		return 0.3
	case age >= 18 && age <= 24:
		return 0.7
	case age >= 56 && age <= 65:
		return 0.5
	default:
		return 1.0
	}
}
