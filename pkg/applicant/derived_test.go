package applicant

import (
	"math"
	"testing"
)

// TestAmortizedPaymentKnownValue checks the closed-form amortization against
// a hand-computed reference: 40000 over 36 months at 5% nominal annual.
func TestAmortizedPaymentKnownValue(t *testing.T) {
	got := AmortizedPayment(40000, 0.05, 36)

	want := 1198.84
	if math.Abs(got-want) > 0.5 {
		t.Errorf("AmortizedPayment(40000, 0.05, 36) = %.2f, want ≈%.2f", got, want)
	}
}

// TestAmortizedPaymentZeroRate verifies the degenerate straight-division branch
func TestAmortizedPaymentZeroRate(t *testing.T) {
	got := AmortizedPayment(12000, 0, 12)

	if got != 1000 {
		t.Errorf("AmortizedPayment(12000, 0, 12) = %.2f, want 1000.00", got)
	}
}

// TestAmortizedPaymentLinearInPrincipal verifies doubling the principal
// doubles the payment (the rate/term factor is independent of amount)
func TestAmortizedPaymentLinearInPrincipal(t *testing.T) {
	single := AmortizedPayment(10000, 0.05, 24)
	double := AmortizedPayment(20000, 0.05, 24)

	if math.Abs(double-2*single) > 1e-9 {
		t.Errorf("payment not linear in principal: %.6f vs 2×%.6f", double, single)
	}
}

// TestAmortizedPaymentLongerTermLowersPayment verifies monotonicity in term
func TestAmortizedPaymentLongerTermLowersPayment(t *testing.T) {
	short := AmortizedPayment(50000, 0.05, 12)
	long := AmortizedPayment(50000, 0.05, 60)

	if long >= short {
		t.Errorf("60-month payment %.2f should be below 12-month payment %.2f", long, short)
	}
}

// TestDeriveFinancialsZeroIncome verifies the division guard: ratio is exactly
// zero for zero income, and no panic or infinity leaks out.
func TestDeriveFinancialsZeroIncome(t *testing.T) {
	a := validRecord()
	a.Income = 0

	fin := DeriveFinancials(a)

	if fin.PaymentToIncome != 0 {
		t.Errorf("PaymentToIncome = %v, want exactly 0 for zero income", fin.PaymentToIncome)
	}
	if fin.MonthlyPayment <= 0 {
		t.Errorf("MonthlyPayment = %v, want positive", fin.MonthlyPayment)
	}
}

// TestDeriveFinancialsNegativeIncome verifies negative income takes the same
// guard as zero income
func TestDeriveFinancialsNegativeIncome(t *testing.T) {
	a := validRecord()
	a.Income = -4200

	fin := DeriveFinancials(a)

	if fin.PaymentToIncome != 0 {
		t.Errorf("PaymentToIncome = %v, want 0 for negative income", fin.PaymentToIncome)
	}
}

// TestDeriveFinancialsRatio verifies the ratio is payment over monthly income
func TestDeriveFinancialsRatio(t *testing.T) {
	a := validRecord() // income 30000, loan 40000 over 36 months

	fin := DeriveFinancials(a)

	want := fin.MonthlyPayment / a.Income
	if fin.PaymentToIncome != want {
		t.Errorf("PaymentToIncome = %v, want %v", fin.PaymentToIncome, want)
	}
	if fin.PaymentToIncome > 0.2 {
		t.Errorf("reference applicant should sit in the lowest payment band, got ratio %.4f", fin.PaymentToIncome)
	}
}

// TestDeriveFinancialsDeterministic verifies repeated derivation is
// bit-identical; the computation carries no hidden state
func TestDeriveFinancialsDeterministic(t *testing.T) {
	a := validRecord()

	first := DeriveFinancials(a)
	for i := 0; i < 50; i++ {
		if got := DeriveFinancials(a); got != first {
			t.Fatalf("iteration %d: DeriveFinancials = %+v, first was %+v", i, got, first)
		}
	}
}

// TestDeriveFinancialsZeroTerm documents behavior for a zero-month term: the
// amortization denominator collapses and the payment is +Inf. The engine is
// total over the value; validation does not reject it.
func TestDeriveFinancialsZeroTerm(t *testing.T) {
	a := validRecord()
	a.LoanTerm = 0

	fin := DeriveFinancials(a)

	if !math.IsInf(fin.MonthlyPayment, 1) {
		t.Errorf("MonthlyPayment = %v, want +Inf for zero term", fin.MonthlyPayment)
	}
}
