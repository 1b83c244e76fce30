// Regression tests for concurrent use of the portfolio Calculator.
package analytics

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/creditgate/creditgate/pkg/decision"
	"github.com/creditgate/creditgate/pkg/policy"
)

// Workers feed one shared Calculator; Add and AddError must not race on
// the internal slice and counter.
func TestCalculator_ConcurrentAdd(t *testing.T) {
	t.Parallel()

	calc := NewCalculator(policy.StrictName)

	var wg sync.WaitGroup

	const goroutines = 10
	const perGoroutine = 100

	wg.Add(goroutines)
	for g := 0; g < goroutines; g++ {
		go func(id int) {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				r := approvedResult(85, 760, 0, 12000, 36)
				r.ApplicantID = fmt.Sprintf("USER_%d_%d", id, i)
				if i%2 == 0 {
					r.Outcome = decision.Reject
				}
				calc.Add(r)
			}
		}(g)
	}

	wg.Add(goroutines)
	for g := 0; g < goroutines; g++ {
		go func() {
			defer wg.Done()
			for i := 0; i < 5; i++ {
				calc.AddError()
			}
		}()
	}

	wg.Wait()

	m := calc.Calculate(10 * time.Second)
	if m == nil {
		t.Fatal("Calculate returned nil")
	}

	if want := goroutines * perGoroutine; m.Total != want {
		t.Errorf("expected %d evaluated records, got %d", want, m.Total)
	}
	if want := goroutines * 5; m.Errored != want {
		t.Errorf("expected %d errored records, got %d", want, m.Errored)
	}
}

// Calculate while Add is running must observe a consistent snapshot.
func TestCalculator_CalculateDuringAdd(t *testing.T) {
	t.Parallel()

	calc := NewCalculator(policy.RelaxedName)

	var wg sync.WaitGroup

	wg.Add(1)
	stop := make(chan struct{})
	go func() {
		defer wg.Done()
		i := 0
		for {
			select {
			case <-stop:
				return
			default:
				r := approvedResult(70, 700, 0, 10000, 24)
				r.ApplicantID = fmt.Sprintf("USER_%05d", i)
				calc.Add(r)
				i++
			}
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			m := calc.Calculate(time.Second)
			if m == nil {
				t.Error("Calculate returned nil during concurrent add")
			}
			if m.Approved != m.Total {
				t.Errorf("snapshot tore: approved %d != total %d", m.Approved, m.Total)
			}
		}
		close(stop)
	}()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		// Success.
	case <-time.After(5 * time.Second):
		t.Fatal("CalculateDuringAdd deadlocked (5s timeout)")
	}
}
