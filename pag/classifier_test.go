package pag

import "testing"

// TestClassify_S1_SimplestProcessing pins scenario S1 from spec §8. The
// first window is Start-led, so its edge carries no send/recv counts; the
// receive count lands on the following edge (see TestClassify_S1_SecondEdge).
func TestClassify_S1_SimplestProcessing(t *testing.T) {
	e1 := NewSchedule(10, 0, 7, Start)
	e2 := NewMessages(20, 0, 0, 0, 1, 0, 3, false)
	e3 := NewSchedule(30, 0, 7, Stop)

	var oid *int
	edge, err := classify(e1, e2, e3, &oid)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if edge.Kind != EdgeProcessing {
		t.Fatalf("expected Processing, got %s", edge.Kind)
	}
	if edge.OID == nil || *edge.OID != 7 {
		t.Fatalf("expected oid=7, got %v", edge.OID)
	}
	if edge.Send != nil {
		t.Fatalf("expected send=None, got %v", edge.Send)
	}
	if edge.Recv != nil {
		t.Fatalf("expected recv=None, got %v", *edge.Recv)
	}
}

// TestClassify_S1_SecondEdge covers the window's second edge (20→30),
// which must clear oid since the window ends on Schedule.Stop.
func TestClassify_S1_SecondEdge(t *testing.T) {
	e1 := NewMessages(20, 0, 0, 0, 1, 0, 3, false)
	e2 := NewSchedule(30, 0, 7, Stop)
	e3 := NewSchedule(40, 0, 8, Start)

	oid := intPtr(7)
	edge, err := classify(e1, e2, e3, &oid)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if edge.Kind != EdgeProcessing {
		t.Fatalf("expected Processing, got %s", edge.Kind)
	}
	if edge.Recv == nil || *edge.Recv != 3 {
		t.Fatalf("expected recv=3, got %v", edge.Recv)
	}
	if oid != nil {
		t.Fatalf("expected oid cleared after Schedule.Stop, got %v", *oid)
	}
}

// TestClassify_S2_Spinning pins scenario S2.
func TestClassify_S2_Spinning(t *testing.T) {
	e1 := NewSchedule(5, 0, 2, Start)
	e2 := NewSchedule(6, 0, 2, Stop)
	e3 := NewSchedule(7, 0, 3, Start)

	var oid *int
	edge, err := classify(e1, e2, e3, &oid)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if edge.Kind != EdgeSpinning {
		t.Fatalf("expected Spinning, got %s", edge.Kind)
	}
	if edge.OID == nil || *edge.OID != 2 {
		t.Fatalf("expected oid=2, got %v", edge.OID)
	}
}

// TestClassify_S3_BusyUnlessRemoteLookahead pins scenario S3: the gap
// between a Schedule.Stop and the following Schedule.Start is Busy unless
// the lookahead event is a cross-worker Messages, in which case it upgrades
// to Waiting.
func TestClassify_S3_BusyUnlessRemoteLookahead(t *testing.T) {
	e1 := NewSchedule(100, 0, 1, Stop)
	e2 := NewSchedule(100_020_000, 0, 1, Start)

	t.Run("plain Busy when lookahead is not cross-worker Messages", func(t *testing.T) {
		e3 := NewSchedule(200_000_000, 0, 1, Stop)
		var oid *int
		edge, err := classify(e1, e2, e3, &oid)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if edge.Kind != EdgeBusy {
			t.Fatalf("expected Busy, got %s", edge.Kind)
		}
	})

	t.Run("upgrades to Waiting when lookahead is cross-worker Messages", func(t *testing.T) {
		e3 := NewMessages(200_000_000, 0, 1, 0, 5, 0, 64, false)
		var oid *int
		edge, err := classify(e1, e2, e3, &oid)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if edge.Kind != EdgeWaiting {
			t.Fatalf("expected Waiting, got %s", edge.Kind)
		}
	})
}

// TestClassify_ProgressRecvIsWaiting pins the first classifier rule.
func TestClassify_ProgressRecvIsWaiting(t *testing.T) {
	e1 := NewSchedule(1, 0, 1, Stop)
	e2 := NewProgress(2, 0, 4, 1, 0, false)
	e3 := NewSchedule(3, 0, 1, Start)

	var oid *int
	edge, err := classify(e1, e2, e3, &oid)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if edge.Kind != EdgeWaiting {
		t.Fatalf("expected Waiting, got %s", edge.Kind)
	}
}

func TestClassify_ProgressSelfSourceIsAssertionError(t *testing.T) {
	e1 := NewSchedule(1, 0, 1, Stop)
	e2 := NewProgress(2, 0, 0, 1, 0, false)
	e3 := NewSchedule(3, 0, 1, Start)

	var oid *int
	_, err := classify(e1, e2, e3, &oid)
	if err == nil {
		t.Fatal("expected assertion error for self-sourced inbound Progress")
	}
}

func TestClassify_WorkerDrift(t *testing.T) {
	e1 := NewSchedule(1, 0, 1, Start)
	e2 := NewSchedule(2, 1, 1, Stop)
	e3 := NewSchedule(3, 0, 1, Start)

	var oid *int
	_, err := classify(e1, e2, e3, &oid)
	if err == nil {
		t.Fatal("expected worker drift assertion error")
	}
}

func TestClassify_SendThenScheduleStart(t *testing.T) {
	e1 := NewMessages(1, 0, 0, 1, 9, 0, 42, true)
	e2 := NewSchedule(2, 0, 5, Start)
	e3 := NewSchedule(3, 0, 5, Stop)

	var oid *int
	edge, err := classify(e1, e2, e3, &oid)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if edge.Kind != EdgeProcessing {
		t.Fatalf("expected Processing, got %s", edge.Kind)
	}
	if edge.OID == nil || *edge.OID != 5 {
		t.Fatalf("expected oid=5, got %v", edge.OID)
	}
	if edge.Send == nil || *edge.Send != 42 {
		t.Fatalf("expected send=42, got %v", edge.Send)
	}
}

// TestClassify_OIDMutationDoesNotAliasEmittedEdges guards against the
// pointer-aliasing bug this classifier's state-threading is prone to: the
// oid tracked across calls must not share memory with an already-emitted
// edge's OID pointer.
func TestClassify_OIDMutationDoesNotAliasEmittedEdges(t *testing.T) {
	e1 := NewSchedule(1, 0, 9, Start)
	e2 := NewMessages(2, 0, 0, 1, 1, 0, 10, true)
	e3 := NewSchedule(3, 0, 9, Stop)

	oid := (*int)(nil)
	edge1, err := classify(e1, e2, e3, &oid)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	e4 := NewSchedule(4, 0, 12, Start)
	_, err = classify(e2, e3, e4, &oid)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if edge1.OID == nil || *edge1.OID != 9 {
		t.Fatalf("first edge's oid mutated after later classify calls: got %v", edge1.OID)
	}
}
