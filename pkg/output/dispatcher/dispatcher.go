// Package dispatcher fans decision-run events out to registered writers and
// hooks. Writers render events into an output format (JSONL, CSV, table);
// hooks react to events as they happen (structured logs, metrics, traces).
// A failing writer or hook never aborts the run: the dispatcher logs the
// failure and keeps delivering to the remaining destinations.
package dispatcher

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/creditgate/creditgate/pkg/output/events"
)

// DefaultBatchSize is the number of dispatched events between automatic
// writer flushes when Config.BatchSize is unset.
const DefaultBatchSize = 100

// Writer renders events to an output destination.
type Writer interface {
	// Write renders a single event. Implementations must be safe for
	// concurrent use; Dispatch may run from multiple workers at once.
	Write(event events.Event) error

	// Flush forces buffered output to the destination.
	Flush() error

	// Close flushes and releases the destination.
	Close() error

	// SupportsEvent reports whether this writer renders the given type.
	SupportsEvent(eventType events.EventType) bool
}

// Hook reacts to events without producing run output. The context passed to
// OnEvent is the run context; hooks should honor its cancellation.
type Hook interface {
	OnEvent(ctx context.Context, event events.Event) error

	// EventTypes returns the types this hook wants to receive.
	// Nil or empty means every event.
	EventTypes() []events.EventType
}

// Config controls dispatcher behavior.
type Config struct {
	// BatchSize is the number of events between automatic writer
	// flushes, so streaming formats stay tail-able during long runs.
	// Zero or negative selects DefaultBatchSize.
	BatchSize int

	// Async runs hooks in their own goroutines so a slow hook does not
	// stall the decision loop. Close waits for outstanding hooks.
	Async bool

	// Logger receives writer and hook failures. Nil means slog.Default().
	Logger *slog.Logger
}

// Dispatcher delivers events to every registered writer and hook that
// supports the event's type.
type Dispatcher struct {
	mu      sync.RWMutex
	writers []Writer
	hooks   []Hook

	batchSize int
	async     bool
	logger    *slog.Logger

	dispatched atomic.Int64
	closed     atomic.Bool
	hookWg     sync.WaitGroup
}

// New creates a Dispatcher with the given configuration.
func New(cfg Config) *Dispatcher {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		writers:   make([]Writer, 0),
		hooks:     make([]Hook, 0),
		batchSize: cfg.BatchSize,
		async:     cfg.Async,
		logger:    logger,
	}
}

// RegisterWriter adds a writer to the fan-out set.
func (d *Dispatcher) RegisterWriter(w Writer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.writers = append(d.writers, w)
}

// RegisterHook adds a hook to the fan-out set.
func (d *Dispatcher) RegisterHook(h Hook) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.hooks = append(d.hooks, h)
}

// Dispatch delivers an event to every writer and hook that supports its
// type. Individual failures are logged and skipped so the remaining
// destinations still receive the event. Events dispatched after Close are
// silently dropped.
func (d *Dispatcher) Dispatch(ctx context.Context, event events.Event) error {
	if d.closed.Load() {
		return nil
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	// Re-check under the read lock. Close takes the write lock before
	// waiting on hookWg, so any dispatch that passes this check has its
	// hookWg.Add sequenced before Close's Wait.
	if d.closed.Load() {
		return nil
	}

	for _, w := range d.writers {
		if !w.SupportsEvent(event.EventType()) {
			continue
		}
		if err := w.Write(event); err != nil {
			d.logger.Warn("event writer failed, continuing",
				slog.String("writer", fmt.Sprintf("%T", w)),
				slog.String("event_type", string(event.EventType())),
				slog.String("error", err.Error()))
		}
	}

	for _, h := range d.hooks {
		if !d.hookSupportsEvent(h, event.EventType()) {
			continue
		}
		if d.async {
			d.hookWg.Add(1)
			go func(h Hook) {
				defer d.hookWg.Done()
				d.runHook(ctx, h, event)
			}(h)
		} else {
			d.runHook(ctx, h, event)
		}
	}

	if n := d.dispatched.Add(1); n%int64(d.batchSize) == 0 {
		d.flushLocked()
	}

	return nil
}

func (d *Dispatcher) runHook(ctx context.Context, h Hook, event events.Event) {
	if err := h.OnEvent(ctx, event); err != nil {
		d.logger.Warn("event hook failed, continuing",
			slog.String("hook", fmt.Sprintf("%T", h)),
			slog.String("event_type", string(event.EventType())),
			slog.String("error", err.Error()))
	}
}

func (d *Dispatcher) hookSupportsEvent(h Hook, eventType events.EventType) bool {
	types := h.EventTypes()
	if len(types) == 0 {
		return true
	}
	for _, t := range types {
		if t == eventType {
			return true
		}
	}
	return false
}

// Flush forces every writer to emit buffered output. The first error is
// returned after all writers have been flushed.
func (d *Dispatcher) Flush() error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.flushLocked()
}

// flushLocked flushes all writers. Callers must hold d.mu in at least read
// mode; writers synchronize their own internal state.
func (d *Dispatcher) flushLocked() error {
	var firstErr error
	for _, w := range d.writers {
		if err := w.Flush(); err != nil {
			d.logger.Warn("event writer flush failed",
				slog.String("writer", fmt.Sprintf("%T", w)),
				slog.String("error", err.Error()))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// Close waits for outstanding async hooks, then flushes and closes every
// writer. Close is idempotent; calls after the first return nil without
// touching the writers again.
func (d *Dispatcher) Close() error {
	if !d.closed.CompareAndSwap(false, true) {
		return nil
	}

	// The write lock drains in-flight Dispatch calls first. Every
	// hookWg.Add happens under the read lock, so once the lock is held
	// no new hook can start and Wait cannot race an Add.
	d.mu.Lock()
	defer d.mu.Unlock()

	d.hookWg.Wait()

	var firstErr error
	for _, w := range d.writers {
		if err := w.Flush(); err != nil && firstErr == nil {
			firstErr = err
		}
		if err := w.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
