package emit

import "context"

// Emitter receives and processes observability events from the PAG pipeline.
//
// Emitters enable pluggable observability backends: logging, distributed
// tracing, metrics. Implementations should be non-blocking and safe for
// concurrent use — every pipeline stage may hold its own goroutine and emit
// concurrently with the others.
type Emitter interface {
	// Emit sends a single observability event to the configured backend.
	// Emit must not block pipeline processing and must not panic.
	Emit(event Event)

	// EmitBatch sends multiple events in one operation. Implementations
	// should preserve order within the batch.
	EmitBatch(ctx context.Context, events []Event) error

	// Flush ensures all buffered events are delivered. Safe to call
	// multiple times.
	Flush(ctx context.Context) error
}
