package transport

import (
	"reflect"
	"testing"

	"github.com/li1/pagstream/pag"
)

func TestDecodeLine_Schedule(t *testing.T) {
	line := []byte(`{"t":10,"wid":0,"kind":"schedule","schedule":{"id":7,"start_stop":"start"}}`)
	e, err := decodeLine(line)
	if err != nil {
		t.Fatalf("decodeLine: %v", err)
	}
	if e.Kind != pag.KindSchedule || e.Schedule.ID != 7 || e.Schedule.StartStop != pag.Start {
		t.Fatalf("unexpected decoded event: %+v", e)
	}
}

func TestDecodeLine_UnknownStartStopFails(t *testing.T) {
	line := []byte(`{"t":10,"wid":0,"kind":"schedule","schedule":{"id":7,"start_stop":"sideways"}}`)
	if _, err := decodeLine(line); err == nil {
		t.Fatal("expected an error for an unrecognized start_stop value")
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	original := pag.NewMessages(50, 0, 0, 1, 9, 4, 128, true)
	encoded, err := encodeEvent(original)
	if err != nil {
		t.Fatalf("encodeEvent: %v", err)
	}
	decoded, err := decodeLine(encoded)
	if err != nil {
		t.Fatalf("decodeLine: %v", err)
	}
	if !reflect.DeepEqual(decoded, original) {
		t.Fatalf("round trip mismatch: got %+v, want %+v", decoded, original)
	}
}

func TestEncodeEdge(t *testing.T) {
	edge := pag.PagEdge{
		Src: pag.PagNode{T: 50, Wid: 0}, Dst: pag.PagNode{T: 60, Wid: 1},
		EdgeType: pag.Data(128),
	}
	out, err := EncodeEdge(edge)
	if err != nil {
		t.Fatalf("EncodeEdge: %v", err)
	}
	if len(out) == 0 {
		t.Fatal("expected non-empty JSON output")
	}
}
