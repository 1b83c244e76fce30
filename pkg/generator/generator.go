// Package generator produces synthetic applicant portfolios with the
// same banded distributions as the upstream sample data tool. All
// randomness is seeded here; given the same Config the portfolio is
// reproduced record for record.
package generator

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/creditgate/creditgate/pkg/applicant"
	"github.com/creditgate/creditgate/pkg/defaults"
)

// Config sizes and seeds a synthetic portfolio.
type Config struct {
	// Count is the number of records to produce.
	Count int
	// Seed feeds the generator's private random source.
	Seed int64
	// Start is the first numeric id suffix (USER_00001 for 1).
	Start int
}

// Generator emits applicant records. Not safe for concurrent use; each
// goroutine should own its own Generator.
type Generator struct {
	cfg  Config
	rng  *rand.Rand
	next int
}

// New returns a generator for the given config. Zero fields fall back
// to the canonical defaults.
func New(cfg Config) *Generator {
	if cfg.Count <= 0 {
		cfg.Count = defaults.GeneratorCount
	}
	if cfg.Seed == 0 {
		cfg.Seed = defaults.GeneratorSeed
	}
	if cfg.Start <= 0 {
		cfg.Start = defaults.GeneratorStart
	}
	return &Generator{
		cfg:  cfg,
		rng:  rand.New(rand.NewSource(cfg.Seed)),
		next: cfg.Start,
	}
}

// Upstream enumerated member sets, drawn uniformly.
var (
	industries = []applicant.Industry{"金融", "IT", "制造业", "零售", "教育", "医疗", "房地产", "其他"}
	maritals   = []applicant.MaritalStatus{"单身", "已婚", "离婚", "丧偶"}
	educations = []applicant.Education{"博士", "硕士", "本科", "大专", "高中及以下"}
)

// Generate produces the configured number of records.
func (g *Generator) Generate() []applicant.Applicant {
	records := make([]applicant.Applicant, 0, g.cfg.Count)
	for i := 0; i < g.cfg.Count; i++ {
		records = append(records, g.Next())
	}
	return records
}

// Next produces one record and advances the id sequence.
func (g *Generator) Next() applicant.Applicant {
	id := fmt.Sprintf("USER_%05d", g.next)
	g.next++

	income := g.income()
	creditScore := g.creditScore()

	return applicant.Applicant{
		ID:              id,
		Age:             g.intBetween(18, 70),
		Income:          income,
		CreditScore:     creditScore,
		DebtToIncome:    g.debtToIncome(),
		LoanAmount:      g.loanAmount(income),
		LoanTerm:        g.intBetween(12, 60),
		EmploymentYears: g.employmentYears(),
		CreditLines:     g.creditLines(),
		LatePayments:    g.latePayments(creditScore),
		DefaultHistory:  g.defaultHistory(creditScore),
		Industry:        industries[g.rng.Intn(len(industries))],
		MaritalStatus:   maritals[g.rng.Intn(len(maritals))],
		Education:       educations[g.rng.Intn(len(educations))],
	}
}

// income: mostly 5000-20000 with a high-earner tail.
func (g *Generator) income() float64 {
	if g.rng.Float64() < 0.8 {
		return round2(g.uniform(5000, 20000))
	}
	return round2(g.uniform(20000, 100000))
}

// creditScore: a prime bulk, a super-prime tail and a small subprime
// tail. The tail split is a second independent draw.
func (g *Generator) creditScore() int {
	if g.rng.Float64() < 0.6 {
		return g.intBetween(600, 750)
	}
	if g.rng.Float64() < 0.85 {
		return g.intBetween(750, 850)
	}
	return g.intBetween(300, 600)
}

func (g *Generator) debtToIncome() float64 {
	if g.rng.Float64() < 0.7 {
		return round4(g.uniform(0.2, 0.5))
	}
	if g.rng.Float64() < 0.9 {
		return round4(g.uniform(0.5, 0.7))
	}
	return round4(g.uniform(0.1, 0.2))
}

// loanAmount is tied to income: one to five times annual income.
func (g *Generator) loanAmount(income float64) float64 {
	annual := income * 12
	return round2(g.uniform(annual, annual*5))
}

func (g *Generator) employmentYears() int {
	if g.rng.Float64() < 0.7 {
		return g.intBetween(1, 10)
	}
	if g.rng.Float64() < 0.9 {
		return g.intBetween(10, 20)
	}
	return g.intBetween(0, 1)
}

func (g *Generator) creditLines() int {
	if g.rng.Float64() < 0.7 {
		return g.intBetween(1, 5)
	}
	if g.rng.Float64() < 0.9 {
		return g.intBetween(5, 10)
	}
	return 0
}

// latePayments correlates negatively with the credit score.
func (g *Generator) latePayments(creditScore int) int {
	switch {
	case creditScore >= 750:
		return g.intBetween(0, 1)
	case creditScore >= 700:
		return g.intBetween(0, 2)
	case creditScore >= 650:
		return g.intBetween(0, 3)
	case creditScore >= 600:
		return g.intBetween(1, 5)
	default:
		return g.intBetween(3, 10)
	}
}

// defaultHistory correlates negatively with the credit score.
func (g *Generator) defaultHistory(creditScore int) int {
	switch {
	case creditScore >= 750:
		return 0
	case creditScore >= 700:
		return g.intBetween(0, 1)
	case creditScore >= 650:
		return g.intBetween(0, 1)
	case creditScore >= 600:
		return g.intBetween(0, 2)
	default:
		return g.intBetween(1, 3)
	}
}

// intBetween returns a uniform int in [lo, hi], both ends inclusive.
func (g *Generator) intBetween(lo, hi int) int {
	return lo + g.rng.Intn(hi-lo+1)
}

func (g *Generator) uniform(lo, hi float64) float64 {
	return lo + g.rng.Float64()*(hi-lo)
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
