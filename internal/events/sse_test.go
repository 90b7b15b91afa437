package events_test

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"mediaq/internal/events"
)

func TestWriteSSEFormat(t *testing.T) {
	var buf bytes.Buffer
	err := events.WriteSSE(&buf, events.Event{Seq: 7, Type: events.Progress, Payload: map[string]any{"jobId": "a", "progress": 12.5}})
	if err != nil {
		t.Fatalf("WriteSSE: %v", err)
	}
	want := "id: 7\nevent: progress\ndata: {\"jobId\":\"a\",\"progress\":12.5}\n\n"
	if buf.String() != want {
		t.Fatalf("unexpected frame:\n%q\nwant\n%q", buf.String(), want)
	}
}

func TestDecoderRoundTripSkipsComments(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString(": keepalive\n\n")
	_ = events.WriteSSE(&buf, events.Event{Seq: 1, Type: events.QueueUpdate, Payload: map[string]bool{"paused": true}})
	_ = events.WriteSSE(&buf, events.Event{Type: events.JobError, Payload: map[string]string{"error": "boom"}})

	dec := events.NewDecoder(strings.NewReader(buf.String()))
	first, err := dec.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if first.Type != events.QueueUpdate || first.ID != "1" {
		t.Fatalf("unexpected first frame: %+v", first)
	}
	var snap struct {
		Paused bool `json:"paused"`
	}
	if err := first.Decode(&snap); err != nil || !snap.Paused {
		t.Fatalf("decode snapshot: %v %+v", err, snap)
	}

	second, err := dec.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if second.Type != events.JobError || string(second.Data) != `{"error":"boom"}` {
		t.Fatalf("unexpected second frame: %+v", second)
	}

	if _, err := dec.Next(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF, got %v", err)
	}
}
