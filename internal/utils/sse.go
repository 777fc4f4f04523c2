package utils

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
)

// maxSSELineSize is the longest single SSE line accepted. Full graph states
// are sent as one data line, so the bufio default of 64 KiB is too small.
const maxSSELineSize = 4 * 1024 * 1024

// SSEEvent is one decoded Server-Sent Event. Event is empty when the
// producer sent no "event:" field.
type SSEEvent struct {
	ID    string
	Event string
	Data  string
}

// SSEScanner decodes Server-Sent Events from a reader. Comments are
// skipped, consecutive data lines are joined with "\n", and the "[DONE]"
// sentinel used by OpenAI-compatible APIs ends the stream.
type SSEScanner struct {
	scanner *bufio.Scanner
}

// NewSSEScanner wraps r. Lines longer than 4 MiB make Next fail with an
// error wrapping bufio.ErrTooLong.
func NewSSEScanner(r io.Reader) *SSEScanner {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), maxSSELineSize)
	return &SSEScanner{scanner: s}
}

// Next returns the next complete event, or io.EOF when the stream ends.
// An event still pending when the reader ends is returned first.
func (s *SSEScanner) Next() (SSEEvent, error) {
	var (
		ev      SSEEvent
		data    []string
		pending bool
	)

	for s.scanner.Scan() {
		line := s.scanner.Text()

		if line == "" {
			if pending {
				ev.Data = strings.Join(data, "\n")
				return ev, nil
			}
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")

		switch field {
		case "event":
			ev.Event = value
			pending = true
		case "data":
			if value == "[DONE]" {
				return SSEEvent{}, io.EOF
			}
			data = append(data, value)
			pending = true
		case "id":
			ev.ID = value
			pending = true
		}
		// retry and unknown fields are ignored
	}

	if err := s.scanner.Err(); err != nil {
		return SSEEvent{}, fmt.Errorf("SSE scanner error: %w", err)
	}
	if pending {
		ev.Data = strings.Join(data, "\n")
		return ev, nil
	}
	return SSEEvent{}, io.EOF
}

// SSEWriter encodes events onto an HTTP response and flushes after every
// event so the client sees it before the next one is produced.
type SSEWriter struct {
	mu    sync.Mutex
	w     io.Writer
	flush func()
}

// NewSSEWriter sets the event-stream headers on w. They take effect on the
// first write.
func NewSSEWriter(w http.ResponseWriter) *SSEWriter {
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")

	sw := &SSEWriter{w: w}
	if f, ok := w.(http.Flusher); ok {
		sw.flush = f.Flush
	}
	return sw
}

// WriteEvent writes one event frame. Newlines in data are split across
// several data lines.
func (s *SSEWriter) WriteEvent(event string, data []byte) error {
	if strings.ContainsAny(event, "\r\n") {
		return errors.New("sse: event name contains a newline")
	}
	var b strings.Builder
	if event != "" {
		b.WriteString("event: ")
		b.WriteString(event)
		b.WriteByte('\n')
	}
	for _, line := range strings.Split(string(data), "\n") {
		b.WriteString("data: ")
		b.WriteString(strings.TrimSuffix(line, "\r"))
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	return s.write(b.String())
}

// Comment writes a comment line, used as a keep-alive.
func (s *SSEWriter) Comment(text string) error {
	return s.write(": " + text + "\n\n")
}

func (s *SSEWriter) write(frame string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := io.WriteString(s.w, frame); err != nil {
		return err
	}
	if s.flush != nil {
		s.flush()
	}
	return nil
}
