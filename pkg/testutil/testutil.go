// Package testutil holds small helpers shared by tests across packages:
// write-fault injection, deadlock guards, and synchronized concurrent runs.
package testutil

import (
	"errors"
	"sync"
	"testing"
	"time"
)

// ErrFault is the error surfaced by the fault-injection helpers.
var ErrFault = errors.New("injected fault")

// FailingWriter accepts up to Limit bytes, then returns ErrFault.
// A zero Limit fails the first Write.
type FailingWriter struct {
	written int
	Limit   int
}

func (w *FailingWriter) Write(p []byte) (int, error) {
	if w.written+len(p) > w.Limit {
		remaining := w.Limit - w.written
		if remaining > 0 {
			w.written += remaining
			return remaining, ErrFault
		}
		return 0, ErrFault
	}
	w.written += len(p)
	return len(p), nil
}

// AssertTimeout runs fn and fails the test if it has not returned within d.
func AssertTimeout(t *testing.T, name string, d time.Duration, fn func()) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		defer close(done)
		fn()
	}()
	select {
	case <-done:
	case <-time.After(d):
		t.Fatalf("%s: still running after %v", name, d)
	}
}

// RunConcurrently releases count goroutines at once, each calling fn with
// its index, and blocks until all have returned.
func RunConcurrently(count int, fn func(i int)) {
	var wg sync.WaitGroup
	start := make(chan struct{})
	wg.Add(count)
	for i := 0; i < count; i++ {
		go func(idx int) {
			defer wg.Done()
			<-start
			fn(idx)
		}(i)
	}
	close(start)
	wg.Wait()
}
