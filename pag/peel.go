package pag

import (
	"context"
	"strconv"
	"strings"

	"github.com/li1/pagstream/emit"
)

// Peel filters raw events down to PAG-relevant ones and strips
// nested-scope scheduling noise (spec §4.A). It tracks, per operator
// instance, which addresses have a nested child so that only leaf-operator
// Schedule events are forwarded downstream.
type Peel struct {
	cfg *Config
}

// NewPeel constructs a Peel stage.
func NewPeel(opts ...Option) *Peel {
	return &Peel{cfg: newConfig(opts...)}
}

// Run consumes raw events and produces the filtered stream. A Schedule
// event whose operator id no earlier Operates event announced is a fatal
// assertion: Run sends one *AssertionError on the error channel and closes
// both channels. No other input is checked.
func (p *Peel) Run(ctx context.Context, in <-chan Event) (<-chan Event, <-chan error) {
	out := make(chan Event, p.cfg.BufferSize)
	errs := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errs)

		outerOperates := make(map[string]struct{})
		idsToAddrs := make(map[int][]int)

		emitEvent := func(e Event) bool {
			select {
			case out <- e:
				return true
			case <-ctx.Done():
				return false
			}
		}

		for {
			select {
			case <-ctx.Done():
				return
			case e, ok := <-in:
				if !ok {
					return
				}

				switch e.Kind {
				case KindOperates:
					addr := e.Operates.Addr
					idsToAddrs[e.Operates.ID] = addr
					if len(addr) > 0 {
						outerOperates[addrKey(addr[:len(addr)-1])] = struct{}{}
					} else {
						outerOperates[addrKey(nil)] = struct{}{}
					}
					// Operates is bookkeeping only; never forwarded.

				case KindSchedule:
					addr, known := idsToAddrs[e.Schedule.ID]
					if !known {
						errs <- &AssertionError{
							Message: "Schedule references unknown operator id",
							Code:    "UNKNOWN_OPERATOR",
							Events:  []Event{e},
							Cause:   ErrUnknownOperator,
						}
						p.cfg.Metrics.recordAssertionFailure("UNKNOWN_OPERATOR")
						return
					}
					if _, nested := outerOperates[addrKey(addr)]; nested {
						p.cfg.Metrics.recordDrop(KindSchedule)
						continue
					}
					if !emitEvent(e) {
						return
					}

				case KindProgress:
					if e.Progress.Source != int(e.Wid) || e.Progress.IsSend {
						if !emitEvent(e) {
							return
						}
					} else {
						p.cfg.Metrics.recordDrop(KindProgress)
					}

				case KindMessages:
					if !emitEvent(e) {
						return
					}

				default:
					p.cfg.Metrics.recordDrop(e.Kind)
					p.cfg.Emitter.Emit(emit.Event{
						Stage: "peel", WorkerID: int(e.Wid), Msg: "event_dropped",
						Meta: map[string]interface{}{"kind": kindName(e.Kind)},
					})
				}
			}
		}
	}()

	return out, errs
}

// addrKey turns an address path into a comparable map key.
func addrKey(addr []int) string {
	parts := make([]string, len(addr))
	for i, v := range addr {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, "/")
}
