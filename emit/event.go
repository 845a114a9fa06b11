// Package emit provides event emission and observability for the PAG pipeline.
package emit

// Event represents an observability event emitted by a pipeline stage.
//
// Events give insight into pipeline behavior without being part of the PAG
// itself: edges produced, drops, assertion failures, and driver trace
// records.
type Event struct {
	// Stage identifies which pipeline component emitted this event
	// ("peel", "local_edges", "trim_local", "remote_edges"; the pagctl
	// driver uses "driver").
	Stage string

	// WorkerID identifies the worker whose event stream produced this
	// observability event. -1 for stage-level events not tied to one worker.
	WorkerID int

	// Msg is a short, machine-greppable description ("edge_emitted",
	// "event_dropped", "assertion_failed", "trace").
	Msg string

	// Meta carries additional structured detail specific to Msg, e.g.
	// edge_kind, the dropped event's kind, or the error code and message for
	// assertion failures.
	Meta map[string]interface{}
}
