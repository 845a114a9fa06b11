// Package archive optionally persists emitted PagEdges for downstream
// visualization and offline analysis. It is not part of the core streaming
// pipeline — the pag package never imports it — and a run with no sink
// configured behaves identically to one with archiving disabled entirely.
package archive

import (
	"context"

	"github.com/li1/pagstream/pag"
)

// Sink persists a batch of edges. Implementations must be safe for
// concurrent use by a single writer goroutine; they are not required to be
// safe for concurrent Write calls from multiple goroutines.
type Sink interface {
	Write(ctx context.Context, runID string, edges []pag.PagEdge) error
	Close() error
}

// NullSink discards everything written to it. It is the default when no
// archive backend is configured.
type NullSink struct{}

// NewNullSink constructs a NullSink.
func NewNullSink() *NullSink { return &NullSink{} }

// Write implements Sink.
func (*NullSink) Write(context.Context, string, []pag.PagEdge) error { return nil }

// Close implements Sink.
func (*NullSink) Close() error { return nil }
