package pag

import (
	"context"
	"sync"
)

// Merge concatenates TrimLocal's output and RemoteEdges' output into a
// single edge stream (spec §4.E). Order between the two inputs is
// unspecified; Merge makes no attempt to interleave them deterministically.
type Merge struct{}

// NewMerge constructs a Merge stage.
func NewMerge() *Merge { return &Merge{} }

// Run fans in local and remote edges onto a single channel, which closes
// once both inputs have closed (or ctx is canceled).
func (*Merge) Run(ctx context.Context, local, remote <-chan PagEdge) <-chan PagEdge {
	out := make(chan PagEdge)

	var wg sync.WaitGroup
	wg.Add(2)

	forward := func(in <-chan PagEdge) {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case e, ok := <-in:
				if !ok {
					return
				}
				select {
				case out <- e:
				case <-ctx.Done():
					return
				}
			}
		}
	}

	go forward(local)
	go forward(remote)

	go func() {
		wg.Wait()
		close(out)
	}()

	return out
}
