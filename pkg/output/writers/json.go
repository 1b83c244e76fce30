// Package writers provides output writers for various formats.
package writers

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/creditgate/creditgate/pkg/jsonutil"
	"github.com/creditgate/creditgate/pkg/output/dispatcher"
	"github.com/creditgate/creditgate/pkg/output/events"
)

// Compile-time interface check.
var _ dispatcher.Writer = (*JSONWriter)(nil)

// JSONWriter writes a run as a single JSON document.
// Unlike JSONLWriter which streams events one per line, this writer
// buffers decisions in memory and writes one document on Close:
//
//	{"run": ..., "results": [...], "overrides": [...], "summary": ...}
//
// This is suitable for batch/file output consumed as a whole.
type JSONWriter struct {
	w    io.Writer
	mu   sync.Mutex
	opts JSONOptions
	doc  jsonDocument
}

// jsonDocument is the shape of the document written on Close.
type jsonDocument struct {
	Run       *events.StartEvent      `json:"run,omitempty"`
	Results   []*events.DecisionEvent `json:"results"`
	Overrides []*events.OverrideEvent `json:"overrides,omitempty"`
	Summary   *events.SummaryEvent    `json:"summary,omitempty"`
}

// JSONOptions configures the JSON writer behavior.
type JSONOptions struct {
	// Pretty enables indented JSON output.
	Pretty bool

	// IndentSize sets the number of spaces for indentation (default 2).
	IndentSize int
}

// NewJSONWriter creates a new JSON document writer that writes to w.
// The writer buffers all events and writes one document on Close.
// The writer is safe for concurrent use.
func NewJSONWriter(w io.Writer, opts JSONOptions) *JSONWriter {
	if opts.IndentSize == 0 {
		opts.IndentSize = 2
	}
	return &JSONWriter{
		w:    w,
		opts: opts,
		doc:  jsonDocument{Results: make([]*events.DecisionEvent, 0)},
	}
}

// Write buffers an event for the document written on Close.
func (jw *JSONWriter) Write(event events.Event) error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	switch e := event.(type) {
	case *events.StartEvent:
		jw.doc.Run = e
	case *events.DecisionEvent:
		jw.doc.Results = append(jw.doc.Results, e)
	case *events.OverrideEvent:
		jw.doc.Overrides = append(jw.doc.Overrides, e)
	case *events.SummaryEvent:
		jw.doc.Summary = e
	}
	return nil
}

// Flush is a no-op for JSON writer.
// The document is written as a whole on Close.
func (jw *JSONWriter) Flush() error {
	return nil
}

// Close writes the buffered document and closes the writer.
// If the underlying writer implements io.Closer, it will be closed.
func (jw *JSONWriter) Close() error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	encoder := jsonutil.NewStreamEncoder(jw.w)
	if jw.opts.Pretty {
		indent := strings.Repeat(" ", jw.opts.IndentSize)
		encoder.SetIndent("", indent)
	}

	if err := encoder.Encode(jw.doc); err != nil {
		return fmt.Errorf("json: encode: %w", err)
	}

	if closer, ok := jw.w.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// SupportsEvent returns true for start, decision, override, and summary
// events. These make up the batch document.
func (jw *JSONWriter) SupportsEvent(eventType events.EventType) bool {
	switch eventType {
	case events.EventTypeStart, events.EventTypeDecision,
		events.EventTypeOverride, events.EventTypeSummary:
		return true
	default:
		return false
	}
}
