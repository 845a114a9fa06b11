package emit

import (
	"context"
	"sync"
)

// BufferedEmitter implements Emitter by storing events in memory, keyed by
// stage. Intended for tests and short-lived debugging sessions — it is not
// meant for long-running production ingestion (unbounded growth).
type BufferedEmitter struct {
	mu     sync.RWMutex
	events map[string][]Event // stage -> events
}

// NewBufferedEmitter creates an empty BufferedEmitter.
func NewBufferedEmitter() *BufferedEmitter {
	return &BufferedEmitter{events: make(map[string][]Event)}
}

// Emit stores the event under its stage.
func (b *BufferedEmitter) Emit(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events[event.Stage] = append(b.events[event.Stage], event)
}

// EmitBatch stores all events in order.
func (b *BufferedEmitter) EmitBatch(_ context.Context, events []Event) error {
	for _, e := range events {
		b.Emit(e)
	}
	return nil
}

// Flush is a no-op: BufferedEmitter holds everything in memory already.
func (b *BufferedEmitter) Flush(context.Context) error { return nil }

// History returns a copy of all events recorded for a stage, in emission
// order. Empty stage returns events across all stages combined is not
// supported — query per stage, mirroring how each pipeline component owns
// its own telemetry.
func (b *BufferedEmitter) History(stage string) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()
	events := b.events[stage]
	out := make([]Event, len(events))
	copy(out, events)
	return out
}

// Clear removes stored events for a stage, or all events if stage is empty.
func (b *BufferedEmitter) Clear(stage string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if stage == "" {
		b.events = make(map[string][]Event)
		return
	}
	delete(b.events, stage)
}
