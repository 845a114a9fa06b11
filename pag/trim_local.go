package pag

import (
	"context"
	"sync"

	"github.com/li1/pagstream/emit"
)

// TrimLocal collapses runs of equivalent adjacent local edges per worker
// into a single edge spanning their combined (src, dst), merging numeric
// payloads (spec §4.C). Busy is treated as transparent filler: it neither
// starts nor ends a run unless it stands alone between non-Waiting
// neighbors.
//
// Pending edges are deliberately NOT flushed when the input stream closes —
// matching the upstream runtime's own behavior, documented as accepted
// rather than fixed (see SPEC_FULL.md's Open Questions). Callers that want
// the last pending edge per worker must call Flush after Run's output
// channel closes.
type TrimLocal struct {
	cfg *Config

	mu      sync.Mutex
	pending map[WorkerID]PagEdge
	done    chan struct{}
}

// NewTrimLocal constructs a TrimLocal stage.
func NewTrimLocal(opts ...Option) *TrimLocal {
	return &TrimLocal{
		cfg:     newConfig(opts...),
		pending: make(map[WorkerID]PagEdge),
		done:    make(chan struct{}),
	}
}

// Done closes once Run's input channel has been drained (or its context
// canceled), signaling it is safe to call Flush for a final drain.
func (t *TrimLocal) Done() <-chan struct{} { return t.done }

// Run consumes LocalEdges' output and produces the trimmed local edge
// stream.
func (t *TrimLocal) Run(ctx context.Context, in <-chan PagEdge) (<-chan PagEdge, <-chan error) {
	out := make(chan PagEdge, t.cfg.BufferSize)
	errs := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errs)
		defer close(t.done)

		for {
			select {
			case <-ctx.Done():
				return
			case e, ok := <-in:
				if !ok {
					return
				}

				w := e.Src.Wid
				t.mu.Lock()
				first, has := t.pending[w]
				if !has {
					t.pending[w] = e
					t.mu.Unlock()
					continue
				}

				var toEmit *PagEdge
				switch {
				case e.EdgeType.Kind == EdgeBusy && first.EdgeType.Kind != EdgeWaiting:
					first.Dst = e.Dst
					t.pending[w] = first

				case first.EdgeType.Kind == EdgeBusy:
					e.Src = first.Src
					t.pending[w] = e

				case e.EdgeType.Equal(first.EdgeType):
					first.Dst = e.Dst
					first.EdgeType = mergePayload(first.EdgeType, e.EdgeType)
					t.pending[w] = first

				default:
					prev := first
					toEmit = &prev
					t.pending[w] = e
				}
				t.mu.Unlock()

				if toEmit != nil {
					t.cfg.Metrics.recordEdge("trim_local", toEmit.EdgeType.Kind)
					t.cfg.Emitter.Emit(emit.Event{
						Stage: "trim_local", WorkerID: int(w), Msg: "edge_emitted",
						Meta: map[string]interface{}{"edge_kind": toEmit.EdgeType.Kind.String()},
					})
					select {
					case out <- *toEmit:
					case <-ctx.Done():
						return
					}
				}
			}
		}
	}()

	return out, errs
}

// Flush drains and returns any edges still pending per worker. Safe to call
// once Done has closed; calling it earlier races with Run and is not
// supported.
func (t *TrimLocal) Flush() []PagEdge {
	t.mu.Lock()
	defer t.mu.Unlock()

	edges := make([]PagEdge, 0, len(t.pending))
	for _, e := range t.pending {
		edges = append(edges, e)
	}
	t.pending = make(map[WorkerID]PagEdge)
	return edges
}
