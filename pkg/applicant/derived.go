package applicant

import "math"

// AnnualInterestRate is the fixed nominal annual rate used to amortize
// every requested loan. The rate is part of the engine semantics, not
// configuration.
const AnnualInterestRate = 0.05

// Financials holds the figures derived from an applicant record. They
// are a pure function of the record and are recomputed identically on
// every call; nothing is cached.
type Financials struct {
	MonthlyPayment  float64 `json:"monthly_payment"`
	PaymentToIncome float64 `json:"payment_to_income"`
}

// AmortizedPayment returns the standard amortized monthly payment for a
// principal at the given nominal annual rate over termMonths. A zero
// monthly rate degenerates to straight division.
func AmortizedPayment(amount, annualRate float64, termMonths int) float64 {
	monthlyRate := annualRate / 12
	if monthlyRate == 0 {
		return amount / float64(termMonths)
	}
	growth := math.Pow(1+monthlyRate, float64(termMonths))
	return amount * monthlyRate * growth / (growth - 1)
}

// MonthlyPayment returns the applicant's amortized monthly payment at
// the fixed annual rate.
func (a Applicant) MonthlyPayment() float64 {
	return AmortizedPayment(a.LoanAmount, AnnualInterestRate, a.LoanTerm)
}

// DeriveFinancials computes the monthly payment and payment-to-income
// ratio for a record. Non-positive income yields a zero ratio rather
// than a division error.
func DeriveFinancials(a Applicant) Financials {
	payment := a.MonthlyPayment()
	ratio := 0.0
	if a.Income > 0 {
		ratio = payment / a.Income
	}
	return Financials{
		MonthlyPayment:  payment,
		PaymentToIncome: ratio,
	}
}
