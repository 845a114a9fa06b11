package pag

import (
	"context"
	"testing"
	"time"
)

func drainEvents(ch <-chan Event) []Event {
	var out []Event
	for e := range ch {
		out = append(out, e)
	}
	return out
}

func drainErrs(t *testing.T, ch <-chan error) {
	t.Helper()
	for err := range ch {
		if err != nil {
			t.Fatalf("unexpected pipeline error: %v", err)
		}
	}
}

// TestPeel_S6_NestedOperatorFiltered pins scenario S6.
func TestPeel_S6_NestedOperatorFiltered(t *testing.T) {
	in := make(chan Event, 8)
	in <- NewOperates(0, 0, 1, []int{0, 1})
	in <- NewOperates(0, 0, 2, []int{0, 1, 3})
	in <- NewSchedule(1, 0, 1, Start)
	in <- NewSchedule(2, 0, 2, Start)
	close(in)

	p := NewPeel()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	out, errs := p.Run(ctx, in)

	got := drainEvents(out)
	drainErrs(t, errs)

	if len(got) != 1 {
		t.Fatalf("expected exactly one forwarded Schedule event, got %d: %+v", len(got), got)
	}
	if got[0].Schedule.ID != 2 {
		t.Fatalf("expected the leaf operator's Schedule (id=2) to survive, got id=%d", got[0].Schedule.ID)
	}
}

func TestPeel_UnknownOperatorIsFatal(t *testing.T) {
	in := make(chan Event, 1)
	in <- NewSchedule(0, 0, 99, Start)
	close(in)

	p := NewPeel()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	out, errs := p.Run(ctx, in)

	go drainEvents(out)

	err := <-errs
	if err == nil {
		t.Fatal("expected an assertion error for an unknown operator id")
	}
}

func TestPeel_ProgressForwardingRule(t *testing.T) {
	in := make(chan Event, 4)
	// source == wid, outbound: forwarded (is_send true).
	in <- NewProgress(1, 0, 0, 1, 0, true)
	// source == wid, inbound: dropped.
	in <- NewProgress(2, 0, 0, 1, 0, false)
	// source != wid, inbound: forwarded.
	in <- NewProgress(3, 0, 5, 1, 0, false)
	close(in)

	p := NewPeel()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	out, errs := p.Run(ctx, in)

	got := drainEvents(out)
	drainErrs(t, errs)

	if len(got) != 2 {
		t.Fatalf("expected 2 forwarded Progress events, got %d", len(got))
	}
	if got[0].T != 1*time.Nanosecond || got[1].T != 3*time.Nanosecond {
		t.Fatalf("unexpected forwarded events: %+v", got)
	}
}

func TestPeel_MessagesAlwaysForwarded(t *testing.T) {
	in := make(chan Event, 1)
	in <- NewMessages(1, 0, 0, 1, 1, 0, 10, true)
	close(in)

	p := NewPeel()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	out, errs := p.Run(ctx, in)

	got := drainEvents(out)
	drainErrs(t, errs)
	if len(got) != 1 {
		t.Fatalf("expected Messages event to be forwarded unconditionally, got %d", len(got))
	}
}

func TestPeel_OtherKindDropped(t *testing.T) {
	in := make(chan Event, 1)
	in <- Event{T: 1, Wid: 0, Kind: KindOther}
	close(in)

	p := NewPeel()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	out, errs := p.Run(ctx, in)

	got := drainEvents(out)
	drainErrs(t, errs)
	if len(got) != 0 {
		t.Fatalf("expected KindOther to be dropped, got %d events", len(got))
	}
}
