package generator

import (
	"reflect"
	"testing"

	"github.com/creditgate/creditgate/pkg/applicant"
)

// TestGenerateReproducible verifies the same seed reproduces the portfolio
// record for record
func TestGenerateReproducible(t *testing.T) {
	cfg := Config{Count: 200, Seed: 42, Start: 1}

	first := New(cfg).Generate()
	second := New(cfg).Generate()

	if !reflect.DeepEqual(first, second) {
		t.Fatal("same seed produced different portfolios")
	}

	other := New(Config{Count: 200, Seed: 43, Start: 1}).Generate()
	if reflect.DeepEqual(first, other) {
		t.Fatal("different seeds produced identical portfolios")
	}
}

// TestGenerateIDSequence verifies zero-padded sequential ids from Start
func TestGenerateIDSequence(t *testing.T) {
	records := New(Config{Count: 3, Seed: 1, Start: 998}).Generate()

	want := []string{"USER_00998", "USER_00999", "USER_01000"}
	for i, rec := range records {
		if rec.ID != want[i] {
			t.Errorf("record %d id = %q, want %q", i, rec.ID, want[i])
		}
	}
}

// TestGenerateDefaults verifies zero config falls back to the canonical
// portfolio size and start
func TestGenerateDefaults(t *testing.T) {
	g := New(Config{})
	records := g.Generate()

	if len(records) != 1000 {
		t.Errorf("default portfolio size = %d, want 1000", len(records))
	}
	if records[0].ID != "USER_00001" {
		t.Errorf("first id = %q, want USER_00001", records[0].ID)
	}
}

// TestGenerateRanges sweeps a large portfolio and asserts every attribute
// stays inside its documented distribution bounds
func TestGenerateRanges(t *testing.T) {
	records := New(Config{Count: 5000, Seed: 7, Start: 1}).Generate()

	industrySet := map[applicant.Industry]bool{}
	for _, m := range industries {
		industrySet[m] = true
	}
	educationSet := map[applicant.Education]bool{}
	for _, m := range educations {
		educationSet[m] = true
	}

	for _, rec := range records {
		if err := rec.Validate(); err != nil {
			t.Fatalf("%s: generated record fails validation: %v", rec.ID, err)
		}
		if rec.Age < 18 || rec.Age > 70 {
			t.Fatalf("%s: age %d outside [18,70]", rec.ID, rec.Age)
		}
		if rec.Income < 5000 || rec.Income > 100000 {
			t.Fatalf("%s: income %.2f outside [5000,100000]", rec.ID, rec.Income)
		}
		if rec.CreditScore < 300 || rec.CreditScore > 850 {
			t.Fatalf("%s: credit score %d outside [300,850]", rec.ID, rec.CreditScore)
		}
		if rec.DebtToIncome < 0.1 || rec.DebtToIncome > 0.7 {
			t.Fatalf("%s: debt-to-income %.4f outside [0.1,0.7]", rec.ID, rec.DebtToIncome)
		}
		annual := rec.Income * 12
		// Rounding of income and loan can nudge the ends by a cent.
		if rec.LoanAmount < annual-1 || rec.LoanAmount > annual*5+1 {
			t.Fatalf("%s: loan %.2f outside [annual, 5×annual] for income %.2f", rec.ID, rec.LoanAmount, rec.Income)
		}
		if rec.LoanTerm < 12 || rec.LoanTerm > 60 {
			t.Fatalf("%s: term %d outside [12,60]", rec.ID, rec.LoanTerm)
		}
		if rec.EmploymentYears < 0 || rec.EmploymentYears > 20 {
			t.Fatalf("%s: employment %d outside [0,20]", rec.ID, rec.EmploymentYears)
		}
		if rec.CreditLines < 0 || rec.CreditLines > 10 {
			t.Fatalf("%s: credit lines %d outside [0,10]", rec.ID, rec.CreditLines)
		}
		if !industrySet[rec.Industry] {
			t.Fatalf("%s: industry %q not an upstream member", rec.ID, rec.Industry)
		}
		if !educationSet[rec.Education] {
			t.Fatalf("%s: education %q not an upstream member", rec.ID, rec.Education)
		}
	}
}

// TestGenerateCreditCorrelation verifies late payments and default history
// respect their per-band ceilings, including the clean super-prime band
func TestGenerateCreditCorrelation(t *testing.T) {
	records := New(Config{Count: 5000, Seed: 11, Start: 1}).Generate()

	for _, rec := range records {
		maxLate, minLate := 10, 0
		switch {
		case rec.CreditScore >= 750:
			maxLate = 1
		case rec.CreditScore >= 700:
			maxLate = 2
		case rec.CreditScore >= 650:
			maxLate = 3
		case rec.CreditScore >= 600:
			maxLate, minLate = 5, 1
		default:
			minLate = 3
		}
		if rec.LatePayments < minLate || rec.LatePayments > maxLate {
			t.Fatalf("%s: %d late payments outside [%d,%d] for credit %d",
				rec.ID, rec.LatePayments, minLate, maxLate, rec.CreditScore)
		}

		if rec.CreditScore >= 750 && rec.DefaultHistory != 0 {
			t.Fatalf("%s: super-prime record has %d defaults", rec.ID, rec.DefaultHistory)
		}
		if rec.CreditScore < 600 && rec.DefaultHistory < 1 {
			t.Fatalf("%s: subprime record has no default history", rec.ID)
		}
		if rec.DefaultHistory > 3 {
			t.Fatalf("%s: %d defaults above ceiling 3", rec.ID, rec.DefaultHistory)
		}
	}
}

// TestNextAdvancesSequence verifies Next can be drawn one at a time
func TestNextAdvancesSequence(t *testing.T) {
	g := New(Config{Count: 10, Seed: 3, Start: 5})

	a := g.Next()
	b := g.Next()

	if a.ID != "USER_00005" || b.ID != "USER_00006" {
		t.Errorf("ids = %q, %q; want USER_00005, USER_00006", a.ID, b.ID)
	}
}
