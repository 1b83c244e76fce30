package scoring

import (
	"math"
	"testing"

	"github.com/creditgate/creditgate/pkg/applicant"
)

func referenceApplicant() applicant.Applicant {
	return applicant.Applicant{
		ID:              "USER_00001",
		Age:             35,
		Income:          30000,
		CreditScore:     800,
		DebtToIncome:    0.2,
		LoanAmount:      40000,
		LoanTerm:        36,
		EmploymentYears: 12,
		LatePayments:    0,
		DefaultHistory:  0,
		Industry:        applicant.IndustryIT,
		MaritalStatus:   applicant.MaritalMarried,
		Education:       applicant.EducationBachelors,
	}
}

// TestCreditScoreRiskBands verifies every band boundary, including which side
// each boundary is inclusive on
func TestCreditScoreRiskBands(t *testing.T) {
	tests := []struct {
		score int
		want  float64
	}{
		{850, 0.02},
		{750, 0.02}, // boundary inclusive
		{749, 0.10},
		{700, 0.10},
		{699, 0.20},
		{650, 0.20},
		{649, 0.35},
		{600, 0.35},
		{599, 0.55},
		{550, 0.55},
		{549, 0.80},
		{300, 0.80},
		{0, 0.80},
	}

	for _, tt := range tests {
		if got := CreditScoreRisk(tt.score); got != tt.want {
			t.Errorf("CreditScoreRisk(%d) = %.2f, want %.2f", tt.score, got, tt.want)
		}
	}
}

// TestCreditScoreRiskMonotonic verifies risk never increases as the credit
// score improves
func TestCreditScoreRiskMonotonic(t *testing.T) {
	prev := CreditScoreRisk(300)
	for score := 301; score <= 850; score++ {
		cur := CreditScoreRisk(score)
		if cur > prev {
			t.Fatalf("risk increased from %.2f to %.2f at credit score %d", prev, cur, score)
		}
		prev = cur
	}
}

// TestDebtRiskBands verifies the strictly-below band boundaries
func TestDebtRiskBands(t *testing.T) {
	tests := []struct {
		ratio float64
		want  float64
	}{
		{0.0, 0.03},
		{0.29, 0.03},
		{0.3, 0.15}, // 0.3 is not < 0.3
		{0.39, 0.15},
		{0.4, 0.30},
		{0.49, 0.30},
		{0.5, 0.50},
		{0.59, 0.50},
		{0.6, 0.70},
		{0.69, 0.70},
		{0.7, 0.90},
		{1.5, 0.90},
	}

	for _, tt := range tests {
		if got := DebtRisk(tt.ratio); got != tt.want {
			t.Errorf("DebtRisk(%.2f) = %.2f, want %.2f", tt.ratio, got, tt.want)
		}
	}
}

// TestPaymentRiskBands verifies the payment-to-income band boundaries
func TestPaymentRiskBands(t *testing.T) {
	tests := []struct {
		ratio float64
		want  float64
	}{
		{0.0, 0.03},
		{0.19, 0.03},
		{0.2, 0.15},
		{0.29, 0.15},
		{0.3, 0.30},
		{0.39, 0.30},
		{0.4, 0.50},
		{0.49, 0.50},
		{0.5, 0.75},
		{0.94, 0.75},
	}

	for _, tt := range tests {
		if got := PaymentRisk(tt.ratio); got != tt.want {
			t.Errorf("PaymentRisk(%.2f) = %.2f, want %.2f", tt.ratio, got, tt.want)
		}
	}
}

// TestEmploymentRiskBands verifies the tenure band boundaries
func TestEmploymentRiskBands(t *testing.T) {
	tests := []struct {
		years int
		want  float64
	}{
		{25, 0.05},
		{10, 0.05},
		{9, 0.20},
		{5, 0.20},
		{4, 0.40},
		{2, 0.40},
		{1, 0.60},
		{0, 0.80},
	}

	for _, tt := range tests {
		if got := EmploymentRisk(tt.years); got != tt.want {
			t.Errorf("EmploymentRisk(%d) = %.2f, want %.2f", tt.years, got, tt.want)
		}
	}
}

// TestPaymentHistoryRiskBands verifies the inclusive late-payment boundaries
func TestPaymentHistoryRiskBands(t *testing.T) {
	tests := []struct {
		late int
		want float64
	}{
		{0, 0.05},
		{1, 0.20},
		{2, 0.20}, // boundary inclusive
		{3, 0.50},
		{5, 0.50},
		{6, 0.70},
		{8, 0.70},
		{9, 0.90},
		{30, 0.90},
	}

	for _, tt := range tests {
		if got := PaymentHistoryRisk(tt.late); got != tt.want {
			t.Errorf("PaymentHistoryRisk(%d) = %.2f, want %.2f", tt.late, got, tt.want)
		}
	}
}

// TestDefaultRiskBands verifies the default count boundaries
func TestDefaultRiskBands(t *testing.T) {
	tests := []struct {
		defaults int
		want     float64
	}{
		{0, 0.10},
		{1, 0.40},
		{2, 0.70},
		{3, 0.90},
		{10, 0.90},
	}

	for _, tt := range tests {
		if got := DefaultRisk(tt.defaults); got != tt.want {
			t.Errorf("DefaultRisk(%d) = %.2f, want %.2f", tt.defaults, got, tt.want)
		}
	}
}

// TestAgeBandRisk verifies the demographic age bands
func TestAgeBandRisk(t *testing.T) {
	tests := []struct {
		age  int
		want float64
	}{
		{17, 1.0},
		{18, 0.7},
		{24, 0.7},
		{25, 0.3},
		{55, 0.3},
		{56, 0.5},
		{65, 0.5},
		{66, 1.0},
		{-1, 1.0},
	}

	for _, tt := range tests {
		if got := ageBandRisk(tt.age); got != tt.want {
			t.Errorf("ageBandRisk(%d) = %.1f, want %.1f", tt.age, got, tt.want)
		}
	}
}

// TestDemographicRisk verifies the three-way average and the clamp
func TestDemographicRisk(t *testing.T) {
	tests := []struct {
		name      string
		age       int
		industry  applicant.Industry
		education applicant.Education
		want      float64
	}{
		{"prime age IT bachelors", 35, applicant.IndustryIT, applicant.EducationBachelors, (0.3 + 0.9 + 0.9) / 3},
		{"prime age education doctorate", 40, applicant.IndustryEducation, applicant.EducationDoctorate, (0.3 + 0.8 + 0.7) / 3},
		{"clamped above one", 70, applicant.IndustryRealEstate, applicant.EducationHighSchool, 1.0},
		{"unknown members neutral", 35, applicant.Industry("aerospace"), applicant.Education("trade school"), (0.3 + 1.0 + 1.0) / 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DemographicRisk(tt.age, tt.industry, tt.education)
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("DemographicRisk = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestCompositeBounds verifies the clamp ends of the transform
func TestCompositeBounds(t *testing.T) {
	zero := Composite(Dimensions{})
	if zero != ScoreCeiling {
		t.Errorf("all-zero risk should hit the ceiling: got %.2f, want %.2f", zero, ScoreCeiling)
	}

	ones := Composite(Dimensions{
		CreditScore: 1, Debt: 1, Payment: 1, Employment: 1,
		PaymentHistory: 1, Default: 1, Demographic: 1,
	})
	if ones != 50 {
		t.Errorf("all-one risk should score 50: got %.2f", ones)
	}
}

// TestCompositeRounding verifies two-decimal rounding after the clamp
func TestCompositeRounding(t *testing.T) {
	// weighted = 0.35*0.5 = 0.175, score = 50 + 0.825*45 = 87.125
	got := Composite(Dimensions{CreditScore: 0.5})
	if got != 87.13 {
		t.Errorf("Composite = %v, want 87.13 (half rounds away from zero)", got)
	}
}

// TestScoreReferenceApplicant pins the full pipeline to a hand-computed value
func TestScoreReferenceApplicant(t *testing.T) {
	result := Score(referenceApplicant())

	wantDims := Dimensions{
		CreditScore:    0.02,
		Debt:           0.03,
		Payment:        0.03,
		Employment:     0.05,
		PaymentHistory: 0.05,
		Default:        0.10,
		Demographic:    0.7,
	}
	if math.Abs(result.Dimensions.Demographic-wantDims.Demographic) > 1e-12 {
		t.Errorf("Demographic = %v, want %v", result.Dimensions.Demographic, wantDims.Demographic)
	}
	result.Dimensions.Demographic = wantDims.Demographic
	if result.Dimensions != wantDims {
		t.Errorf("Dimensions = %+v, want %+v", result.Dimensions, wantDims)
	}

	// weighted = 0.06, score = 50 + 0.94*45 = 92.3
	if result.Score != 92.3 {
		t.Errorf("Score = %v, want 92.3", result.Score)
	}
}

// TestScoreNormalizesUpstreamMembers verifies records carrying the original
// Chinese file values score identically to canonical ones
func TestScoreNormalizesUpstreamMembers(t *testing.T) {
	canonical := referenceApplicant()

	upstream := canonical
	upstream.Industry = "IT"
	upstream.Education = "本科"
	upstream.MaritalStatus = "已婚"

	a := Score(canonical)
	b := Score(upstream)

	if a != b {
		t.Errorf("upstream members scored differently: %+v vs %+v", a, b)
	}
}

// TestScoreIgnoresUnusedFields documents that credit line count and marital
// status carry no weight in any dimension
func TestScoreIgnoresUnusedFields(t *testing.T) {
	base := referenceApplicant()

	variant := base
	variant.CreditLines = 9
	variant.MaritalStatus = applicant.MaritalDivorced

	if Score(base) != Score(variant) {
		t.Error("credit lines and marital status must not affect the score")
	}
}
