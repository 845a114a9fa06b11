package pag

// classify implements the LocalEdges three-event sliding-window rule
// (spec §4.B). It classifies the gap between e1 ("prev2") and e2 ("prev"),
// using e3 ("curr") as one-event lookahead, and mutates *oid the way the
// per-worker scheduling state (Option<usize>, represented here as *int
// where nil means "none currently scheduled") is threaded through
// consecutive edges.
//
// Conditions are evaluated in order; the first match wins.
func classify(e1, e2, e3 Event, oid **int) (EdgeType, error) {
	if e1.Wid != e2.Wid || e2.Wid != e3.Wid {
		return EdgeType{}, &AssertionError{
			Message: "classifier window spans more than one worker",
			Code:    "WORKER_DRIFT",
			Events:  []Event{e1, e2, e3},
			Cause:   ErrWorkerDrift,
		}
	}

	var edgeType EdgeType

	switch {
	case e2.Kind == KindProgress && !e2.Progress.IsSend:
		if int(e2.Progress.Source) == int(e2.Wid) {
			return EdgeType{}, &AssertionError{
				Message: "inbound Progress event sourced from its own worker",
				Code:    "BAD_PROGRESS_SOURCE",
				Events:  []Event{e2},
			}
		}
		edgeType = Waiting()

	case e1.Kind == KindSchedule && e1.Schedule.StartStop == Start &&
		e2.Kind == KindSchedule && e2.Schedule.StartStop == Stop:
		edgeType = Spinning(e1.Schedule.ID)

	case e1.Kind == KindSchedule && e1.Schedule.StartStop == Start:
		*oid = intPtr(e1.Schedule.ID)
		edgeType = Processing(copyIntPtr(*oid), nil, nil)

	case e1.Kind == KindMessages && e1.Messages.IsSend &&
		e2.Kind == KindSchedule && e2.Schedule.StartStop == Start:
		*oid = intPtr(e2.Schedule.ID)
		edgeType = Processing(copyIntPtr(*oid), intPtr(e1.Messages.Length), nil)

	case e1.Kind == KindMessages && e1.Messages.IsSend:
		edgeType = Processing(copyIntPtr(*oid), intPtr(e1.Messages.Length), nil)

	case e1.Kind == KindMessages && !e1.Messages.IsSend:
		edgeType = Processing(copyIntPtr(*oid), nil, intPtr(e1.Messages.Length))

	default:
		edgeType = Busy()
	}

	// Lookahead refinement: a Busy gap ending right before processing an
	// inbound remote message was, in the interim, waiting on it.
	if edgeType.Kind == EdgeBusy && e2.Kind == KindSchedule &&
		e3.Kind == KindMessages && e3.Messages.Source != e3.Messages.Target {
		edgeType = Waiting()
	}

	// Scheduling ended: clear the tracked operator id.
	if e2.Kind == KindSchedule && e2.Schedule.StartStop == Stop {
		*oid = nil
	}

	return edgeType, nil
}

func copyIntPtr(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
