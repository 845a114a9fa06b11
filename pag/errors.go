package pag

import (
	"errors"
	"fmt"
)

// Sentinel errors for the fatal assertion classes enumerated in the core
// contract's error-handling table. The stream is authoritative: none of
// these are retried, they indicate an upstream contract violation.
var (
	// ErrUnknownOperator is returned when a Schedule event references an
	// operator id no Operates event announced.
	ErrUnknownOperator = errors.New("schedule references unknown operator id")

	// ErrOutOfOrder is returned when a worker's event timestamps are not
	// non-decreasing.
	ErrOutOfOrder = errors.New("event timestamp out of order for worker")

	// ErrWorkerDrift is returned when a classifier window's three events do
	// not share a single worker id.
	ErrWorkerDrift = errors.New("worker id mismatch within classifier window")

	// ErrUnreachableJoin is returned when the remote join receives an event
	// that is neither Progress, Messages nor Schedule (Schedule events are
	// skipped without error) — a filter bug upstream, since Peel never
	// forwards any other kind.
	ErrUnreachableJoin = errors.New("remote join received a non-progress/messages event")
)

// AssertionError reports a fatal, programmer-error-class violation of the
// core's invariants, naming the event(s) that violated it. Mirrors the
// teacher's {Message, Code} error shape, with the additional Events field
// spec §7 requires ("a diagnostic naming the violating events").
type AssertionError struct {
	Message string
	Code    string
	Events  []Event
	Cause   error
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = e.Code + ": " + msg
	}
	for _, ev := range e.Events {
		msg += fmt.Sprintf(" | event(t=%s, wid=%d, kind=%s)", ev.T, ev.Wid, kindName(ev.Kind))
	}
	return msg
}

// Unwrap exposes the underlying sentinel for errors.Is/errors.As.
func (e *AssertionError) Unwrap() error { return e.Cause }

func kindName(k EventKind) string {
	switch k {
	case KindOperates:
		return "Operates"
	case KindSchedule:
		return "Schedule"
	case KindProgress:
		return "Progress"
	case KindMessages:
		return "Messages"
	default:
		return "Other"
	}
}
