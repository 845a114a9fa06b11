// Package transport supplies replay sources for the PAG pipeline: file and
// TCP readers that decode a newline-delimited JSON framing (one pag.Event
// per line) and fan them into a single merged channel, the way the source
// runtime's replay readers feed a dataflow worker's input stream.
//
// This framing is a deliberate choice, not a reverse-engineering of the
// original runtime's binary replay format — see SPEC_FULL.md.
package transport

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/li1/pagstream/pag"
)

// wireEvent is the JSON-line representation of a pag.Event. Exactly one of
// the kind-tagged payload fields is populated, selected by Kind.
type wireEvent struct {
	T    time.Duration `json:"t"`
	Wid  int           `json:"wid"`
	Kind string        `json:"kind"`

	Operates *wireOperates `json:"operates,omitempty"`
	Schedule *wireSchedule `json:"schedule,omitempty"`
	Progress *wireProgress `json:"progress,omitempty"`
	Messages *wireMessages `json:"messages,omitempty"`
}

type wireOperates struct {
	ID   int   `json:"id"`
	Addr []int `json:"addr"`
}

type wireSchedule struct {
	ID        int    `json:"id"`
	StartStop string `json:"start_stop"`
}

type wireProgress struct {
	Source  int    `json:"source"`
	SeqNo   uint64 `json:"seq_no"`
	Channel int    `json:"channel"`
	IsSend  bool   `json:"is_send"`
}

type wireMessages struct {
	Source  int    `json:"source"`
	Target  int    `json:"target"`
	SeqNo   uint64 `json:"seq_no"`
	Channel int    `json:"channel"`
	Length  int    `json:"length"`
	IsSend  bool   `json:"is_send"`
}

// decodeLine parses one newline-delimited JSON record into a pag.Event.
func decodeLine(line []byte) (pag.Event, error) {
	var w wireEvent
	if err := json.Unmarshal(line, &w); err != nil {
		return pag.Event{}, fmt.Errorf("decode event line: %w", err)
	}

	wid := pag.WorkerID(w.Wid)

	switch w.Kind {
	case "operates":
		if w.Operates == nil {
			return pag.Event{}, fmt.Errorf("operates event missing payload")
		}
		return pag.NewOperates(w.T, wid, w.Operates.ID, w.Operates.Addr), nil

	case "schedule":
		if w.Schedule == nil {
			return pag.Event{}, fmt.Errorf("schedule event missing payload")
		}
		ss, err := decodeStartStop(w.Schedule.StartStop)
		if err != nil {
			return pag.Event{}, err
		}
		return pag.NewSchedule(w.T, wid, w.Schedule.ID, ss), nil

	case "progress":
		if w.Progress == nil {
			return pag.Event{}, fmt.Errorf("progress event missing payload")
		}
		p := w.Progress
		return pag.NewProgress(w.T, wid, p.Source, p.SeqNo, p.Channel, p.IsSend), nil

	case "messages":
		if w.Messages == nil {
			return pag.Event{}, fmt.Errorf("messages event missing payload")
		}
		m := w.Messages
		return pag.NewMessages(w.T, wid, m.Source, m.Target, m.SeqNo, m.Channel, m.Length, m.IsSend), nil

	default:
		return pag.Event{T: w.T, Wid: wid, Kind: pag.KindOther}, nil
	}
}

func decodeStartStop(s string) (pag.StartStop, error) {
	switch s {
	case "start", "Start":
		return pag.Start, nil
	case "stop", "Stop":
		return pag.Stop, nil
	default:
		return 0, fmt.Errorf("unrecognized start_stop value %q", s)
	}
}

// encodeEvent serializes a pag.Event to one JSON line, for producers
// (replay fixtures, the --trace tap) that need the wire side of this
// framing rather than the decode side.
func encodeEvent(e pag.Event) ([]byte, error) {
	w := wireEvent{T: e.T, Wid: int(e.Wid)}

	switch e.Kind {
	case pag.KindOperates:
		w.Kind = "operates"
		w.Operates = &wireOperates{ID: e.Operates.ID, Addr: e.Operates.Addr}
	case pag.KindSchedule:
		w.Kind = "schedule"
		ss := "start"
		if e.Schedule.StartStop == pag.Stop {
			ss = "stop"
		}
		w.Schedule = &wireSchedule{ID: e.Schedule.ID, StartStop: ss}
	case pag.KindProgress:
		w.Kind = "progress"
		p := e.Progress
		w.Progress = &wireProgress{Source: p.Source, SeqNo: p.SeqNo, Channel: p.Channel, IsSend: p.IsSend}
	case pag.KindMessages:
		w.Kind = "messages"
		m := e.Messages
		w.Messages = &wireMessages{Source: m.Source, Target: m.Target, SeqNo: m.SeqNo, Channel: m.Channel, Length: m.Length, IsSend: m.IsSend}
	default:
		w.Kind = "other"
	}

	return json.Marshal(w)
}
