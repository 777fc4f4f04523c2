package utils

import (
	"bufio"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
)

// TestSSEScanner_NamedEvents verifies that event names and data are paired.
func TestSSEScanner_NamedEvents(t *testing.T) {
	input := "event: metadata\ndata: {\"run_id\":\"1\"}\n\nevent: end\ndata: null\n\n"
	s := NewSSEScanner(strings.NewReader(input))

	first, err := s.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Event != "metadata" || first.Data != `{"run_id":"1"}` {
		t.Errorf("first = %+v", first)
	}

	second, err := s.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.Event != "end" || second.Data != "null" {
		t.Errorf("second = %+v", second)
	}

	if _, err := s.Next(); err != io.EOF {
		t.Errorf("expected io.EOF, got %v", err)
	}
}

// TestSSEScanner_MultiLineData verifies that data lines are joined with newlines.
func TestSSEScanner_MultiLineData(t *testing.T) {
	s := NewSSEScanner(strings.NewReader("data: a\ndata: b\n\n"))
	ev, err := s.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Data != "a\nb" {
		t.Errorf("Data = %q, want %q", ev.Data, "a\nb")
	}
}

// TestSSEScanner_SkipsComments verifies that keep-alive comments never surface.
func TestSSEScanner_SkipsComments(t *testing.T) {
	s := NewSSEScanner(strings.NewReader(": ping\n\nid: 7\ndata: x\n\n"))
	ev, err := s.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.ID != "7" || ev.Data != "x" {
		t.Errorf("ev = %+v", ev)
	}
}

// TestSSEScanner_DoneSentinel verifies that [DONE] ends the stream.
func TestSSEScanner_DoneSentinel(t *testing.T) {
	s := NewSSEScanner(strings.NewReader("data: [DONE]\n\ndata: never\n\n"))
	if _, err := s.Next(); err != io.EOF {
		t.Errorf("expected io.EOF, got %v", err)
	}
}

// TestSSEScanner_TrailingEventWithoutBlankLine verifies that an unterminated
// final event is still delivered.
func TestSSEScanner_TrailingEventWithoutBlankLine(t *testing.T) {
	s := NewSSEScanner(strings.NewReader("event: end\ndata: null"))
	ev, err := s.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Event != "end" {
		t.Errorf("Event = %q", ev.Event)
	}
}

// TestSSEScanner_LineTooLong verifies the size guard.
func TestSSEScanner_LineTooLong(t *testing.T) {
	long := "data: " + strings.Repeat("x", maxSSELineSize+1) + "\n\n"
	_, err := NewSSEScanner(strings.NewReader(long)).Next()
	if !errors.Is(err, bufio.ErrTooLong) {
		t.Errorf("expected bufio.ErrTooLong, got %v", err)
	}
}

// TestSSEWriter_RoundTrip verifies that the writer output decodes back to
// the same events.
func TestSSEWriter_RoundTrip(t *testing.T) {
	rec := httptest.NewRecorder()
	w := NewSSEWriter(rec)

	if err := w.WriteEvent("values", []byte("{\"a\":1}\n{\"b\":2}")); err != nil {
		t.Fatalf("WriteEvent: %v", err)
	}
	if err := w.Comment("heartbeat"); err != nil {
		t.Fatalf("Comment: %v", err)
	}
	if err := w.WriteEvent("end", []byte("null")); err != nil {
		t.Fatalf("WriteEvent: %v", err)
	}

	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}
	if !rec.Flushed {
		t.Error("expected the recorder to be flushed")
	}

	s := NewSSEScanner(rec.Body)
	ev, _ := s.Next()
	if ev.Event != "values" || ev.Data != "{\"a\":1}\n{\"b\":2}" {
		t.Errorf("first event = %+v", ev)
	}
	ev, _ = s.Next()
	if ev.Event != "end" {
		t.Errorf("second event = %+v", ev)
	}
}

// TestSSEWriter_RejectsNewlineInName verifies frame injection is refused.
func TestSSEWriter_RejectsNewlineInName(t *testing.T) {
	rec := httptest.NewRecorder()
	if err := NewSSEWriter(rec).WriteEvent("a\nb", nil); err == nil {
		t.Error("expected an error")
	}
	if rec.Body.Len() != 0 {
		t.Errorf("nothing should be written, got %q", rec.Body.String())
	}
}
