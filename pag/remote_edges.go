package pag

import (
	"context"
	"sync"

	"github.com/li1/pagstream/emit"
)

// joinKey identifies one send/recv pairing for the remote join: a Progress
// pair keys on (source, seq_no, channel); a cross-worker Messages pair adds
// the target. hasTarget distinguishes the two so a Progress key never
// collides with a Messages key that happens to share source/seq_no/channel.
type joinKey struct {
	source    int
	hasTarget bool
	target    int
	seqNo     uint64
	channel   int
}

// side tags which half of a pair an event plays.
type side int

const (
	sideSend side = iota
	sideRecv
)

// RemoteEdges correlates send events to matching receive events across
// workers via a streaming symmetric hash-join, partitioned by key.source so
// both halves of any pair land on the same partition (spec §4.D).
//
// Known, preserved defect: join state grows unboundedly. There is no
// windowing or key eviction; this mirrors the upstream runtime and is
// documented rather than fixed (see SPEC_FULL.md).
type RemoteEdges struct {
	cfg *Config

	mu         sync.Mutex
	partitions []*partitionState
}

type partitionState struct {
	mu    sync.Mutex
	sends map[joinKey][]Event
	recvs map[joinKey][]Event
}

type routedEvent struct {
	ev   Event
	key  joinKey
	side side
}

// NewRemoteEdges constructs a RemoteEdges stage.
func NewRemoteEdges(opts ...Option) *RemoteEdges {
	cfg := newConfig(opts...)
	if cfg.Partitions <= 0 {
		cfg.Partitions = 1
	}
	return &RemoteEdges{cfg: cfg}
}

// extractResult classifies what extractKey found.
type extractResult int

const (
	// extractMatched means key/s are populated and the event should be
	// routed into the join.
	extractMatched extractResult = iota
	// extractFiltered means the event carries no remote pairing by design:
	// a Schedule event (Peel forwards these, but the remote join has no use
	// for them) or a same-worker Messages event (no cross-worker pairing
	// needed).
	extractFiltered
	// extractUnreachable means the event's kind should never reach the
	// remote join at all if Peel is filtering correctly (spec §7's
	// unreachable join branch).
	extractUnreachable
)

// extractKey produces the join key and side for a Peel-emitted event (spec
// §4.D key extraction table).
func extractKey(e Event) (key joinKey, s side, result extractResult) {
	switch e.Kind {
	case KindProgress:
		key = joinKey{source: e.Progress.Source, seqNo: e.Progress.SeqNo, channel: e.Progress.Channel}
		if e.Progress.IsSend {
			return key, sideSend, extractMatched
		}
		return key, sideRecv, extractMatched

	case KindMessages:
		if e.Messages.Source == e.Messages.Target {
			return joinKey{}, 0, extractFiltered
		}
		key = joinKey{
			source: e.Messages.Source, hasTarget: true, target: e.Messages.Target,
			seqNo: e.Messages.SeqNo, channel: e.Messages.Channel,
		}
		if e.Messages.IsSend {
			return key, sideSend, extractMatched
		}
		return key, sideRecv, extractMatched

	case KindSchedule:
		return joinKey{}, 0, extractFiltered

	default:
		return joinKey{}, 0, extractUnreachable
	}
}

func edgeTypeFor(sendEvt Event) EdgeType {
	if sendEvt.Kind == KindProgress {
		return ProgressEdge()
	}
	return Data(sendEvt.Messages.Length)
}

// Run consumes Peel's output, partitions it, and emits one PagEdge per
// matched send/recv pair.
func (r *RemoteEdges) Run(ctx context.Context, in <-chan Event) (<-chan PagEdge, <-chan error) {
	out := make(chan PagEdge, r.cfg.BufferSize)
	errs := make(chan error, 1)

	n := r.cfg.Partitions
	partitions := make([]*partitionState, n)
	partChans := make([]chan routedEvent, n)
	for i := range partitions {
		partitions[i] = &partitionState{sends: make(map[joinKey][]Event), recvs: make(map[joinKey][]Event)}
		partChans[i] = make(chan routedEvent, r.cfg.BufferSize)
	}

	r.mu.Lock()
	r.partitions = partitions
	r.mu.Unlock()

	var wg sync.WaitGroup
	for i, pc := range partChans {
		wg.Add(1)
		go func(idx int, ch <-chan routedEvent, ps *partitionState) {
			defer wg.Done()
			r.runPartition(ctx, ch, ps, out)
		}(i, pc, partitions[i])
	}

	go func() {
		defer close(errs)
		defer func() {
			for _, pc := range partChans {
				close(pc)
			}
			wg.Wait()
			close(out)
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case e, ok := <-in:
				if !ok {
					return
				}
				key, s, result := extractKey(e)
				switch result {
				case extractFiltered:
					continue
				case extractUnreachable:
					r.fail(errs, &AssertionError{
						Message: "remote join received a non-progress/messages event",
						Code:    "UNREACHABLE_JOIN",
						Events:  []Event{e},
						Cause:   ErrUnreachableJoin,
					})
					return
				}
				idx := partitionOf(key.source, n)
				select {
				case partChans[idx] <- routedEvent{ev: e, key: key, side: s}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, errs
}

func partitionOf(source, n int) int {
	if n <= 1 {
		return 0
	}
	m := source % n
	if m < 0 {
		m += n
	}
	return m
}

func (r *RemoteEdges) runPartition(ctx context.Context, ch <-chan routedEvent, ps *partitionState, out chan<- PagEdge) {
	for {
		select {
		case <-ctx.Done():
			return
		case re, ok := <-ch:
			if !ok {
				return
			}

			ps.mu.Lock()
			var matches []Event
			switch re.side {
			case sideSend:
				matches = append(matches, ps.recvs[re.key]...)
				ps.sends[re.key] = append(ps.sends[re.key], re.ev)
			case sideRecv:
				matches = append(matches, ps.sends[re.key]...)
				ps.recvs[re.key] = append(ps.recvs[re.key], re.ev)
			}
			sendCount := len(ps.sends)
			recvCount := len(ps.recvs)
			ps.mu.Unlock()

			r.cfg.Metrics.setJoinBufferSize("send", sendCount)
			r.cfg.Metrics.setJoinBufferSize("recv", recvCount)

			for _, peer := range matches {
				var sendEvt, recvEvt Event
				if re.side == sideSend {
					sendEvt, recvEvt = re.ev, peer
				} else {
					sendEvt, recvEvt = peer, re.ev
				}

				edge := PagEdge{
					Src:      PagNode{T: sendEvt.T, Wid: sendEvt.Wid},
					Dst:      PagNode{T: recvEvt.T, Wid: recvEvt.Wid},
					EdgeType: edgeTypeFor(sendEvt),
				}

				r.cfg.Metrics.recordEdge("remote_edges", edge.EdgeType.Kind)
				r.cfg.Emitter.Emit(emit.Event{
					Stage: "remote_edges", WorkerID: int(sendEvt.Wid), Msg: "edge_emitted",
					Meta: map[string]interface{}{"edge_kind": edge.EdgeType.Kind.String()},
				})

				select {
				case out <- edge:
				case <-ctx.Done():
					return
				}
			}
		}
	}
}

func (r *RemoteEdges) fail(errs chan<- error, err *AssertionError) {
	r.cfg.Metrics.recordAssertionFailure(err.Code)
	r.cfg.Emitter.Emit(emit.Event{Stage: "remote_edges", WorkerID: -1, Msg: "assertion_failed",
		Meta: map[string]interface{}{"code": err.Code, "error": err.Error()}})
	errs <- err
}

// Stats reports the total number of distinct join keys currently buffered
// on the send and recv sides, across all partitions. Intended for
// operational visibility into the documented unbounded-growth defect, not
// for correctness.
func (r *RemoteEdges) Stats() (sendKeys, recvKeys int) {
	r.mu.Lock()
	partitions := r.partitions
	r.mu.Unlock()

	for _, p := range partitions {
		p.mu.Lock()
		sendKeys += len(p.sends)
		recvKeys += len(p.recvs)
		p.mu.Unlock()
	}
	return sendKeys, recvKeys
}
