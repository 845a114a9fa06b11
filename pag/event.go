// Package pag implements the Program Activity Graph construction pipeline:
// Peel, LocalEdges, TrimLocal, RemoteEdges, and Merge, chained over Go
// channels the way the source dataflow runtime chains its operators.
package pag

import "time"

// WorkerID identifies a parallel execution unit in the source dataflow.
type WorkerID int

// OperatorID identifies a dataflow operator by its scheduler id.
type OperatorID int

// StartStop distinguishes the two phases of a Schedule event.
type StartStop int

const (
	// Start marks an operator beginning a scheduled invocation.
	Start StartStop = iota
	// Stop marks an operator ending a scheduled invocation.
	Stop
)

func (s StartStop) String() string {
	if s == Start {
		return "Start"
	}
	return "Stop"
}

// EventKind tags the variant carried by an Event.
type EventKind int

const (
	// KindOperates announces an operator's address in the dataflow graph.
	KindOperates EventKind = iota
	// KindSchedule marks an operator being scheduled or unscheduled.
	KindSchedule
	// KindProgress carries a progress-tracking control message.
	KindProgress
	// KindMessages carries a data message between operators.
	KindMessages
	// KindOther is any event tag the core does not interpret; Peel drops it.
	KindOther
)

// Operates describes an operator's position in the dataflow address tree.
// Addr is a path from the root scope down to this operator, e.g. [0, 1, 3].
type Operates struct {
	ID   int
	Addr []int
}

// Schedule marks the start or stop of one operator invocation.
type Schedule struct {
	ID        int
	StartStop StartStop
}

// Progress carries a control message about dataflow progress: a capability
// update moving between workers.
type Progress struct {
	Source  int
	SeqNo   uint64
	Channel int
	IsSend  bool
}

// Messages carries a data message: a tuple batch moving between operators,
// possibly across workers.
type Messages struct {
	Source  int
	Target  int
	SeqNo   uint64
	Channel int
	Length  int
	IsSend  bool
}

// Event is a single timestamped record from the source runtime's event log:
// a triple (t, wid, kind) where exactly one of the Kind-tagged fields below
// is meaningful, selected by Kind.
type Event struct {
	T    time.Duration
	Wid  WorkerID
	Kind EventKind

	Operates Operates
	Schedule Schedule
	Progress Progress
	Messages Messages
}

// NewOperates builds an Operates event.
func NewOperates(t time.Duration, wid WorkerID, id int, addr []int) Event {
	return Event{T: t, Wid: wid, Kind: KindOperates, Operates: Operates{ID: id, Addr: addr}}
}

// NewSchedule builds a Schedule event.
func NewSchedule(t time.Duration, wid WorkerID, id int, ss StartStop) Event {
	return Event{T: t, Wid: wid, Kind: KindSchedule, Schedule: Schedule{ID: id, StartStop: ss}}
}

// NewProgress builds a Progress event.
func NewProgress(t time.Duration, wid WorkerID, source int, seqNo uint64, channel int, isSend bool) Event {
	return Event{T: t, Wid: wid, Kind: KindProgress, Progress: Progress{Source: source, SeqNo: seqNo, Channel: channel, IsSend: isSend}}
}

// NewMessages builds a Messages event.
func NewMessages(t time.Duration, wid WorkerID, source, target int, seqNo uint64, channel, length int, isSend bool) Event {
	return Event{T: t, Wid: wid, Kind: KindMessages, Messages: Messages{Source: source, Target: target, SeqNo: seqNo, Channel: channel, Length: length, IsSend: isSend}}
}
