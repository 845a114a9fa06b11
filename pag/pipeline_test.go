package pag

import (
	"context"
	"testing"
	"time"
)

// TestPipeline_EndToEnd runs a trace mixing local processing (S1-shaped)
// on worker 0 with a cross-worker data message (S4-shaped) landing on
// worker 1, through the fully wired pipeline. Each worker only ever
// produces a single local edge here, so TrimLocal never sees a successor
// to flush it with — demonstrating the documented no-auto-flush behavior:
// the merged stream carries only the remote edge, and the local edges only
// surface via an explicit Flush.
func TestPipeline_EndToEnd(t *testing.T) {
	in := make(chan Event, 16)
	in <- NewOperates(0, 0, 7, []int{0, 7})
	in <- NewOperates(0, 1, 3, []int{0, 3})
	in <- NewSchedule(10, 0, 7, Start)
	in <- NewMessages(20, 0, 0, 1, 9, 4, 128, true) // local edge input AND remote send
	in <- NewSchedule(30, 0, 7, Stop)
	in <- NewMessages(60, 1, 0, 1, 9, 4, 128, false) // remote recv on worker 1
	in <- NewSchedule(70, 1, 3, Start)
	in <- NewSchedule(80, 1, 3, Stop)
	close(in)

	p := NewPipeline()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	out, errs := p.Run(ctx, in)
	edges := drainEdges(out)
	drainErrs(t, errs)

	if len(edges) != 1 {
		t.Fatalf("expected only the remote Data edge in the merged stream, got %d: %+v", len(edges), edges)
	}
	if edges[0].EdgeType.Kind != EdgeData || edges[0].Src.Wid == edges[0].Dst.Wid {
		t.Fatalf("expected a cross-worker Data edge, got %+v", edges[0])
	}

	<-p.TrimLocal.Done()
	pending := p.TrimLocal.Flush()
	if len(pending) != 2 {
		t.Fatalf("expected one still-pending local edge per worker, got %d: %+v", len(pending), pending)
	}

	sendKeys, recvKeys := p.RemoteEdges.Stats()
	if sendKeys != 1 || recvKeys != 1 {
		t.Errorf("expected the matched remote pair to remain in join state (no eviction), got send=%d recv=%d", sendKeys, recvKeys)
	}
}

// TestPipeline_Invariant2_RemoteEdgesCrossWorkers checks universal
// invariant 2 from spec §8 across the wired RemoteEdges stage.
func TestPipeline_Invariant2_RemoteEdgesCrossWorkers(t *testing.T) {
	in := make(chan Event, 4)
	in <- NewMessages(1, 0, 0, 1, 1, 0, 8, true)
	in <- NewMessages(2, 1, 0, 1, 1, 0, 8, false)
	close(in)

	re := NewRemoteEdges()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	out, errs := re.Run(ctx, in)

	edges := drainEdges(out)
	drainErrs(t, errs)

	for _, e := range edges {
		if e.Src.Wid == e.Dst.Wid {
			t.Fatalf("remote edge must cross workers: %+v", e)
		}
		if e.Src.T > e.Dst.T {
			t.Fatalf("remote edge must not go backward in time: %+v", e)
		}
		if e.EdgeType.Kind != EdgeProgress && e.EdgeType.Kind != EdgeData {
			t.Fatalf("remote edge must be Progress or Data, got %s", e.EdgeType.Kind)
		}
	}
}
