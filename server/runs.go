package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/leofalp/localgraph/internal/utils"
	"github.com/leofalp/localgraph/patterns/graph"
	"github.com/leofalp/localgraph/providers/observability"
)

// maxRequestBodySize caps run request bodies.
const maxRequestBodySize = 4 << 20

// Names of the events framing a streamed run.
const (
	EventMetadata = "metadata"
	EventError    = "error"
	EventEnd      = "end"
)

// RunRequest is the body of POST /runs/stream and POST /runs/wait.
type RunRequest struct {
	AssistantID string          `json:"assistant_id"`
	Input       json.RawMessage `json:"input,omitempty"`
	StreamMode  StreamModes     `json:"stream_mode,omitempty"`
	Config      *RunConfig      `json:"config,omitempty"`
}

// RunConfig carries per-run settings.
type RunConfig struct {
	RecursionLimit int `json:"recursion_limit,omitempty"`
}

// StreamModes decodes stream_mode given either as one string or as a list.
type StreamModes []string

func (m *StreamModes) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*m = nil
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var one string
		if err := json.Unmarshal(data, &one); err != nil {
			return err
		}
		*m = StreamModes{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*m = many
	return nil
}

// RunMetadata is the payload of the first event of every streamed run.
type RunMetadata struct {
	RunID   string `json:"run_id"`
	Attempt int    `json:"attempt"`
}

// RunError is the payload of an error event and of failed JSON responses.
type RunError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// errorBody is the body of a request rejected before a run starts.
type errorBody struct {
	Detail string `json:"detail"`
}

type requestError struct {
	status int
	err    error
}

func (e *requestError) Error() string { return e.err.Error() }
func (e *requestError) Unwrap() error { return e.err }

// preparedRun is a validated run request.
type preparedRun struct {
	id        string
	assistant *Assistant
	input     graph.MessagesState
	modes     []graph.StreamMode
	opts      []graph.RunOption
}

func (s *Server) prepareRun(r *http.Request) (*preparedRun, error) {
	var req RunRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBodySize))
	if err := dec.Decode(&req); err != nil {
		return nil, &requestError{http.StatusUnprocessableEntity, fmt.Errorf("invalid run request: %w", err)}
	}
	if req.AssistantID == "" {
		return nil, &requestError{http.StatusUnprocessableEntity, errors.New("assistant_id is required")}
	}

	assistant, err := s.registry.Lookup(req.AssistantID)
	if err != nil {
		return nil, &requestError{http.StatusNotFound, err}
	}

	var input graph.MessagesState
	if len(req.Input) > 0 && !bytes.Equal(bytes.TrimSpace(req.Input), []byte("null")) {
		if err := json.Unmarshal(req.Input, &input); err != nil {
			return nil, &requestError{http.StatusUnprocessableEntity, fmt.Errorf("invalid input: %w", err)}
		}
	}
	for i := range input.Messages {
		if input.Messages[i].ID == "" {
			input.Messages[i].ID = uuid.NewString()
		}
	}

	modes := make([]graph.StreamMode, 0, len(req.StreamMode))
	for _, name := range req.StreamMode {
		mode, err := graph.ParseStreamMode(name)
		if err != nil {
			return nil, &requestError{http.StatusUnprocessableEntity, err}
		}
		modes = append(modes, mode)
	}
	if len(modes) == 0 {
		modes = []graph.StreamMode{graph.StreamModeValues}
	}

	opts := []graph.RunOption{graph.WithStreamModes(modes...)}
	if req.Config != nil && req.Config.RecursionLimit > 0 {
		opts = append(opts, graph.WithRunRecursionLimit(req.Config.RecursionLimit))
	}

	return &preparedRun{
		id:        uuid.NewString(),
		assistant: assistant,
		input:     input,
		modes:     modes,
		opts:      opts,
	}, nil
}

// handleRunStream runs a graph and streams its events as SSE. Each event
// is flushed before the graph produces the next one. A client disconnect
// cancels the request context, which stops the run.
func (s *Server) handleRunStream(w http.ResponseWriter, r *http.Request) {
	run, err := s.prepareRun(r)
	if err != nil {
		writeRequestError(w, err)
		return
	}

	ctx, finish := s.startRun(r.Context(), run, "stream")
	sse := utils.NewSSEWriter(w)
	w.Header().Set("Content-Location", "/runs/"+run.id)
	w.WriteHeader(http.StatusOK)

	var runErr error
	events := 0
	defer func() { finish(runErr, events) }()
	defer s.keepAlive(sse)()

	meta, _ := json.Marshal(RunMetadata{RunID: run.id, Attempt: 1})
	if err := sse.WriteEvent(EventMetadata, meta); err != nil {
		runErr = writeFailure(r, err)
		return
	}

	for ev, err := range run.assistant.Graph().Stream(ctx, run.input, run.opts...).Iter() {
		if err != nil {
			runErr = err
			payload, _ := json.Marshal(describeRunError(err))
			if writeErr := sse.WriteEvent(EventError, payload); writeErr != nil {
				return
			}
			break
		}

		data, err := json.Marshal(ev.Data())
		if err != nil {
			runErr = fmt.Errorf("encode %s event: %w", ev.Mode, err)
			payload, _ := json.Marshal(describeRunError(runErr))
			_ = sse.WriteEvent(EventError, payload)
			return
		}
		if err := sse.WriteEvent(string(ev.Mode), data); err != nil {
			runErr = writeFailure(r, err)
			return
		}
		events++
		if span := observability.SpanFromContext(ctx); span != nil {
			span.AddEvent(observability.EventStreamEvent,
				observability.String(observability.AttrRunEvent, string(ev.Mode)),
				observability.Int(observability.AttrGraphStep, ev.Step))
		}
		if s.observer != nil {
			s.observer.Counter(observability.MetricServerEventCount).Add(ctx, 1,
				observability.String(observability.AttrRunEvent, string(ev.Mode)))
		}
	}

	_ = sse.WriteEvent(EventEnd, nil)
}

// keepAlive writes a comment every heartbeat interval until the returned
// function is called. The function waits for the writer goroutine to exit.
func (s *Server) keepAlive(sse *utils.SSEWriter) func() {
	if s.heartbeat <= 0 {
		return func() {}
	}
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(s.heartbeat)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := sse.Comment("heartbeat"); err != nil {
					return
				}
			}
		}
	}()
	return func() {
		close(done)
		wg.Wait()
	}
}

// handleRunWait runs a graph to completion and returns the final state.
func (s *Server) handleRunWait(w http.ResponseWriter, r *http.Request) {
	run, err := s.prepareRun(r)
	if err != nil {
		writeRequestError(w, err)
		return
	}

	ctx, finish := s.startRun(r.Context(), run, "wait")
	final, err := run.assistant.Graph().Invoke(ctx, run.input, run.opts...)
	finish(err, 0)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, describeRunError(err))
		return
	}
	w.Header().Set("Content-Location", "/runs/"+run.id)
	writeJSON(w, http.StatusOK, final)
}

func (s *Server) handleThreadRun(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, errorBody{
		Detail: fmt.Sprintf("thread %q: threads are not supported, use threadless runs", r.PathValue("thread_id")),
	})
}

// startRun opens the run span and returns the function that closes it.
func (s *Server) startRun(ctx context.Context, run *preparedRun, kind string) (context.Context, func(error, int)) {
	if s.observer == nil {
		return ctx, func(error, int) {}
	}

	start := time.Now()
	attrs := []observability.Attribute{
		observability.String(observability.AttrRunID, run.id),
		observability.String(observability.AttrAssistantID, run.assistant.GraphID),
	}
	ctx, span := s.observer.StartSpan(ctx, observability.SpanServerRun, attrs...)
	s.observer.Info(ctx, "run started", append(attrs, observability.String(observability.AttrGraphStreamMode, fmt.Sprint(run.modes)))...)

	return ctx, func(err error, events int) {
		defer span.End()
		status := "success"
		switch {
		case err == nil:
			span.SetStatus(observability.StatusOK, "run completed")
		case graph.IsCancelled(err):
			status = "cancelled"
			span.SetStatus(observability.StatusError, "run cancelled")
		default:
			status = "error"
			span.RecordError(err)
			span.SetStatus(observability.StatusError, err.Error())
		}
		elapsed := time.Since(start)
		s.observer.Counter(observability.MetricServerRunCount).Add(ctx, 1,
			observability.String(observability.AttrStatus, status),
			observability.String(observability.AttrRunKind, kind))
		s.observer.Histogram(observability.MetricServerRunDuration).Record(ctx, elapsed.Seconds(),
			observability.String(observability.AttrAssistantID, run.assistant.GraphID))

		done := append(attrs,
			observability.String(observability.AttrStatus, status),
			observability.Int(observability.AttrRunEvents, events),
			observability.Duration(observability.AttrDuration, elapsed))
		if err != nil {
			s.observer.Warn(context.WithoutCancel(ctx), "run finished", append(done, observability.Error(err))...)
			return
		}
		s.observer.Info(ctx, "run finished", done...)
	}
}

// describeRunError names the failure class of a run for clients.
func describeRunError(err error) RunError {
	name := "RunError"
	switch {
	case errors.Is(err, graph.ErrRecursionLimit):
		name = "GraphRecursionError"
	case graph.IsCancelled(err):
		name = "CancelledError"
	}
	return RunError{Error: name, Message: err.Error()}
}

// writeFailure wraps an error from writing to the event stream. A write
// that fails because the client went away counts as a cancelled run.
func writeFailure(r *http.Request, err error) error {
	if ctxErr := r.Context().Err(); ctxErr != nil {
		return fmt.Errorf("client disconnected: %w", ctxErr)
	}
	return fmt.Errorf("write event stream: %w", err)
}

func writeRequestError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var reqErr *requestError
	if errors.As(err, &reqErr) {
		status = reqErr.status
	}
	writeJSON(w, status, errorBody{Detail: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
