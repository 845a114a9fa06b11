package pag

import (
	"context"

	"github.com/li1/pagstream/emit"
)

// LocalEdges converts each worker's consecutive-event triples into
// classified local PagEdges (spec §4.B). State is two single-slot buffers
// per worker (the "ring of size 2" described in spec §9) plus the
// currently-scheduled operator id per worker.
type LocalEdges struct {
	cfg *Config
}

// NewLocalEdges constructs a LocalEdges stage.
func NewLocalEdges(opts ...Option) *LocalEdges {
	return &LocalEdges{cfg: newConfig(opts...)}
}

// Run consumes Peel's output and produces classified local edges. The
// output channel closes when the input channel closes; a fatal assertion
// violation closes both channels and sends one error on the error channel.
func (l *LocalEdges) Run(ctx context.Context, in <-chan Event) (<-chan PagEdge, <-chan error) {
	out := make(chan PagEdge, l.cfg.BufferSize)
	errs := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errs)

		prev := make(map[WorkerID]Event)
		prev2 := make(map[WorkerID]Event)
		oids := make(map[WorkerID]*int)

		for {
			select {
			case <-ctx.Done():
				return
			case curr, ok := <-in:
				if !ok {
					return
				}
				w := curr.Wid

				if p, has := prev[w]; has {
					if curr.T < p.T {
						l.fail(errs, &AssertionError{
							Message: "event out of order for worker",
							Code:    "OUT_OF_ORDER",
							Events:  []Event{p, curr},
							Cause:   ErrOutOfOrder,
						})
						return
					}

					if p2, has2 := prev2[w]; has2 {
						if p.T < p2.T {
							l.fail(errs, &AssertionError{
								Message: "event out of order for worker",
								Code:    "OUT_OF_ORDER",
								Events:  []Event{p2, p},
								Cause:   ErrOutOfOrder,
							})
							return
						}

						oid := oids[w]
						edgeType, err := classify(p2, p, curr, &oid)
						if err != nil {
							l.fail(errs, err.(*AssertionError))
							return
						}
						oids[w] = oid

						edge := PagEdge{
							Src:      PagNode{T: p2.T, Wid: w},
							Dst:      PagNode{T: p.T, Wid: w},
							EdgeType: edgeType,
						}

						l.cfg.Metrics.recordEdge("local_edges", edgeType.Kind)
						l.cfg.Emitter.Emit(emit.Event{
							Stage: "local_edges", WorkerID: int(w), Msg: "edge_emitted",
							Meta: map[string]interface{}{"edge_kind": edgeType.Kind.String()},
						})

						select {
						case out <- edge:
						case <-ctx.Done():
							return
						}
					}

					prev2[w] = p
				}

				prev[w] = curr
			}
		}
	}()

	return out, errs
}

func (l *LocalEdges) fail(errs chan<- error, err *AssertionError) {
	l.cfg.Metrics.recordAssertionFailure(err.Code)
	l.cfg.Emitter.Emit(emit.Event{Stage: "local_edges", WorkerID: -1, Msg: "assertion_failed",
		Meta: map[string]interface{}{"code": err.Code, "error": err.Error()}})
	errs <- err
}
