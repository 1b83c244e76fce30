// Package writers provides output writers for various formats.
package writers

import (
	"fmt"
	"io"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/creditgate/creditgate/pkg/jsonutil"
	"github.com/creditgate/creditgate/pkg/output/dispatcher"
	"github.com/creditgate/creditgate/pkg/output/events"
)

// Compile-time interface check.
var _ dispatcher.Writer = (*YAMLWriter)(nil)

// YAMLWriter writes a run as a single YAML document on Close, with the
// same shape as the JSON document writer. Useful when the consumer is a
// human or a YAML-first pipeline.
type YAMLWriter struct {
	w    io.Writer
	mu   sync.Mutex
	opts YAMLOptions
	doc  jsonDocument
}

// YAMLOptions configures the YAML writer behavior.
type YAMLOptions struct {
	// IndentSize sets the number of spaces for indentation (default 2).
	IndentSize int
}

// NewYAMLWriter creates a new YAML document writer that writes to w.
// The writer buffers all events and writes one document on Close.
// The writer is safe for concurrent use.
func NewYAMLWriter(w io.Writer, opts YAMLOptions) *YAMLWriter {
	if opts.IndentSize == 0 {
		opts.IndentSize = 2
	}
	return &YAMLWriter{
		w:    w,
		opts: opts,
		doc:  jsonDocument{Results: make([]*events.DecisionEvent, 0)},
	}
}

// Write buffers an event for the document written on Close.
func (yw *YAMLWriter) Write(event events.Event) error {
	yw.mu.Lock()
	defer yw.mu.Unlock()

	switch e := event.(type) {
	case *events.StartEvent:
		yw.doc.Run = e
	case *events.DecisionEvent:
		yw.doc.Results = append(yw.doc.Results, e)
	case *events.OverrideEvent:
		yw.doc.Overrides = append(yw.doc.Overrides, e)
	case *events.SummaryEvent:
		yw.doc.Summary = e
	}
	return nil
}

// Flush is a no-op for YAML writer.
// The document is written as a whole on Close.
func (yw *YAMLWriter) Flush() error {
	return nil
}

// Close writes the buffered document as YAML and closes the writer.
// If the underlying writer implements io.Closer, it will be closed.
func (yw *YAMLWriter) Close() error {
	yw.mu.Lock()
	defer yw.mu.Unlock()

	// Round-trip through JSON so the YAML keys match the JSON field
	// names; the event structs carry json tags only.
	raw, err := jsonutil.Marshal(yw.doc)
	if err != nil {
		return fmt.Errorf("yaml: marshal document: %w", err)
	}
	var node any
	if err := jsonutil.Unmarshal(raw, &node); err != nil {
		return fmt.Errorf("yaml: decode document: %w", err)
	}

	enc := yaml.NewEncoder(yw.w)
	enc.SetIndent(yw.opts.IndentSize)
	if err := enc.Encode(node); err != nil {
		return fmt.Errorf("yaml: encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("yaml: close encoder: %w", err)
	}

	if closer, ok := yw.w.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// SupportsEvent returns true for start, decision, override, and summary
// events, matching the JSON document writer.
func (yw *YAMLWriter) SupportsEvent(eventType events.EventType) bool {
	switch eventType {
	case events.EventTypeStart, events.EventTypeDecision,
		events.EventTypeOverride, events.EventTypeSummary:
		return true
	default:
		return false
	}
}
