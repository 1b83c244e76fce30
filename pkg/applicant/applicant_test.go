package applicant

import (
	"errors"
	"math"
	"testing"
)

func validRecord() Applicant {
	return Applicant{
		ID:              "USER_00001",
		Age:             35,
		Income:          30000,
		CreditScore:     800,
		DebtToIncome:    0.2,
		LoanAmount:      40000,
		LoanTerm:        36,
		EmploymentYears: 12,
		CreditLines:     4,
		LatePayments:    0,
		DefaultHistory:  0,
		Industry:        IndustryIT,
		MaritalStatus:   MaritalMarried,
		Education:       EducationBachelors,
	}
}

// TestValidate verifies boundary validation catches structural problems only
func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Applicant)
		wantErr error
	}{
		{"valid record", func(a *Applicant) {}, nil},
		{"missing id", func(a *Applicant) { a.ID = "" }, ErrMissingID},
		{"NaN income", func(a *Applicant) { a.Income = math.NaN() }, ErrNotFinite},
		{"infinite loan amount", func(a *Applicant) { a.LoanAmount = math.Inf(1) }, ErrNotFinite},
		{"NaN debt ratio", func(a *Applicant) { a.DebtToIncome = math.NaN() }, ErrNotFinite},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := validRecord()
			tt.mutate(&a)

			err := a.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestValidatePassesOutOfRangeValues documents that validation is structural:
// physically nonsensical but finite values flow through to the engine, which
// is total over them. Rejecting them here would abort batch runs on records
// the decision rules are expected to handle.
func TestValidatePassesOutOfRangeValues(t *testing.T) {
	a := validRecord()
	a.Income = -5000
	a.LoanAmount = -100
	a.Age = -1
	a.LoanTerm = 0

	if err := a.Validate(); err != nil {
		t.Errorf("out-of-range but finite values should pass validation, got: %v", err)
	}
}

// TestNormalizeIndustry verifies upstream Chinese members and English
// spellings map onto the same canonical members
func TestNormalizeIndustry(t *testing.T) {
	tests := []struct {
		raw  string
		want Industry
	}{
		{"金融", IndustryFinance},
		{"IT", IndustryIT},
		{"制造业", IndustryManufacturing},
		{"零售", IndustryRetail},
		{"教育", IndustryEducation},
		{"医疗", IndustryHealthcare},
		{"房地产", IndustryRealEstate},
		{"其他", IndustryOther},
		{"Finance", IndustryFinance},
		{"REAL ESTATE", IndustryRealEstate},
		{"real-estate", IndustryRealEstate},
		{" healthcare ", IndustryHealthcare},
		{"aerospace", Industry("aerospace")}, // unknown preserved
		{" aerospace ", Industry("aerospace")},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if got := NormalizeIndustry(tt.raw); got != tt.want {
				t.Errorf("NormalizeIndustry(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

// TestNormalizeEducation verifies the education alias table
func TestNormalizeEducation(t *testing.T) {
	tests := []struct {
		raw  string
		want Education
	}{
		{"博士", EducationDoctorate},
		{"硕士", EducationMasters},
		{"本科", EducationBachelors},
		{"大专", EducationAssociate},
		{"高中及以下", EducationHighSchool},
		{"PhD", EducationDoctorate},
		{"Master's", EducationMasters},
		{"bachelor", EducationBachelors},
		{"High School", EducationHighSchool},
		{"trade school", Education("trade school")}, // unknown preserved
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if got := NormalizeEducation(tt.raw); got != tt.want {
				t.Errorf("NormalizeEducation(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

// TestNormalizeMaritalStatus verifies the marital status alias table
func TestNormalizeMaritalStatus(t *testing.T) {
	tests := []struct {
		raw  string
		want MaritalStatus
	}{
		{"单身", MaritalSingle},
		{"已婚", MaritalMarried},
		{"离婚", MaritalDivorced},
		{"丧偶", MaritalWidowed},
		{"Married", MaritalMarried},
		{"separated", MaritalStatus("separated")}, // unknown preserved
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if got := NormalizeMaritalStatus(tt.raw); got != tt.want {
				t.Errorf("NormalizeMaritalStatus(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

// TestNormalizeApplicant verifies Normalize maps all three enumerated fields
// and leaves everything else untouched
func TestNormalizeApplicant(t *testing.T) {
	a := validRecord()
	a.Industry = "金融"
	a.Education = "硕士"
	a.MaritalStatus = "单身"

	normalized := a.Normalize()

	if normalized.Industry != IndustryFinance {
		t.Errorf("Industry = %q, want %q", normalized.Industry, IndustryFinance)
	}
	if normalized.Education != EducationMasters {
		t.Errorf("Education = %q, want %q", normalized.Education, EducationMasters)
	}
	if normalized.MaritalStatus != MaritalSingle {
		t.Errorf("MaritalStatus = %q, want %q", normalized.MaritalStatus, MaritalSingle)
	}
	if normalized.ID != a.ID || normalized.CreditScore != a.CreditScore || normalized.Income != a.Income {
		t.Error("Normalize must not modify non-enumerated fields")
	}

	// Original record is untouched (value semantics)
	if a.Industry != "金融" {
		t.Errorf("Normalize mutated its receiver: Industry = %q", a.Industry)
	}
}
