package emit

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestLogEmitter_TextMode(t *testing.T) {
	var buf bytes.Buffer
	e := NewLogEmitter(&buf, false)

	e.Emit(Event{Stage: "peel", WorkerID: 2, Msg: "drop", Meta: map[string]interface{}{"kind": "other"}})

	out := buf.String()
	if !strings.Contains(out, "[drop]") || !strings.Contains(out, "stage=peel") || !strings.Contains(out, "wid=2") {
		t.Fatalf("unexpected text output: %q", out)
	}
}

func TestLogEmitter_JSONMode(t *testing.T) {
	var buf bytes.Buffer
	e := NewLogEmitter(&buf, true)

	e.Emit(Event{Stage: "trim_local", WorkerID: 0, Msg: "edge_emitted"})

	var decoded map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("expected valid JSON line, got %q: %v", buf.String(), err)
	}
	if decoded["stage"] != "trim_local" {
		t.Fatalf("expected stage=trim_local, got %v", decoded["stage"])
	}
}

func TestLogEmitter_NilWriterDefaultsToStdout(t *testing.T) {
	e := NewLogEmitter(nil, false)
	if e.writer == nil {
		t.Fatal("expected default writer to be set")
	}
}

func TestLogEmitter_EmitBatchPreservesOrder(t *testing.T) {
	var buf bytes.Buffer
	e := NewLogEmitter(&buf, true)

	events := []Event{
		{Stage: "peel", Msg: "a"},
		{Stage: "peel", Msg: "b"},
	}
	if err := e.EmitBatch(context.Background(), events); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if !strings.Contains(lines[0], `"msg":"a"`) || !strings.Contains(lines[1], `"msg":"b"`) {
		t.Fatalf("events out of order: %v", lines)
	}
}
