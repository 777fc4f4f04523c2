package sdk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/url"
	"sync/atomic"

	"github.com/leofalp/localgraph/internal/utils"
)

// Event names with a framing role in a run stream.
const (
	EventMetadata = "metadata"
	EventError    = "error"
	EventEnd      = "end"
)

// StreamPart is one event of a run stream. Data is the raw JSON payload.
type StreamPart struct {
	Event string
	Data  json.RawMessage
}

// RunOption adjusts a run request.
type RunOption func(*runRequest)

// WithStreamMode selects the graph events to stream: "values", "updates",
// or both. The server streams values when none is given.
func WithStreamMode(modes ...string) RunOption {
	return func(r *runRequest) {
		r.StreamMode = append(r.StreamMode, modes...)
	}
}

// WithRecursionLimit caps the node executions of the run.
func WithRecursionLimit(limit int) RunOption {
	return func(r *runRequest) {
		r.Config = &runConfig{RecursionLimit: limit}
	}
}

type runRequest struct {
	AssistantID string     `json:"assistant_id"`
	Input       any        `json:"input"`
	StreamMode  []string   `json:"stream_mode,omitempty"`
	Config      *runConfig `json:"config,omitempty"`
}

type runConfig struct {
	RecursionLimit int `json:"recursion_limit,omitempty"`
}

// RunsClient starts runs.
type RunsClient struct {
	client *Client
}

func (r *RunsClient) endpoint(threadID *string, action string) string {
	if threadID == nil {
		return r.client.baseURL + "/runs/" + action
	}
	return r.client.baseURL + "/threads/" + url.PathEscape(*threadID) + "/runs/" + action
}

func newRunRequest(assistantID string, input any, opts []RunOption) *runRequest {
	req := &runRequest{AssistantID: assistantID, Input: input}
	for _, opt := range opts {
		opt(req)
	}
	return req
}

// Stream starts a run of assistantID on input and returns its event
// stream. A nil threadID starts a threadless run. Rejections before the
// run starts are returned as *HTTPError.
//
//	stream, err := client.Runs.Stream(ctx, nil, "agent", map[string]any{
//	    "messages": []map[string]string{{"role": "human", "content": "What is LangGraph?"}},
//	})
func (r *RunsClient) Stream(ctx context.Context, threadID *string, assistantID string, input any, opts ...RunOption) (*RunStream, error) {
	req := newRunRequest(assistantID, input, opts)
	res, err := utils.DoPostStream(ctx, r.client.httpClient, r.endpoint(threadID, "stream"), req, r.client.headers...)
	if err != nil {
		return nil, fmt.Errorf("start run: %w", wrapHTTPError(err))
	}
	return &RunStream{body: res.Body, scanner: utils.NewSSEScanner(res.Body)}, nil
}

// Wait runs assistantID on input to completion and returns the final
// state as raw JSON.
func (r *RunsClient) Wait(ctx context.Context, threadID *string, assistantID string, input any, opts ...RunOption) (json.RawMessage, error) {
	req := newRunRequest(assistantID, input, opts)
	_, out, err := utils.DoPostSync[json.RawMessage](ctx, r.client.httpClient, r.endpoint(threadID, "wait"), req, r.client.headers...)
	if err != nil {
		var httpErr *utils.HTTPError
		if errors.As(err, &httpErr) && httpErr.StatusCode >= 500 {
			if runErr := decodeRunError(httpErr.Body); runErr.Name != "" {
				return nil, runErr
			}
		}
		return nil, fmt.Errorf("wait run: %w", wrapHTTPError(err))
	}
	return *out, nil
}

// RunStream is the event sequence of one run. It can be iterated once.
type RunStream struct {
	body     io.ReadCloser
	scanner  *utils.SSEScanner
	consumed atomic.Bool
}

// Iter yields the events in arrival order, reading the next one only after
// the loop body returns. The sequence ends at the end event or when the
// server closes the stream. An error event is yielded as *RunError and
// ends the sequence. Breaking out of the loop closes the connection.
func (s *RunStream) Iter() iter.Seq2[StreamPart, error] {
	return func(yield func(StreamPart, error) bool) {
		if s.consumed.Swap(true) {
			yield(StreamPart{}, ErrStreamConsumed)
			return
		}
		defer utils.CloseWithLog(s.body)

		for {
			ev, err := s.scanner.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(StreamPart{}, fmt.Errorf("read run stream: %w", err))
				return
			}

			switch ev.Event {
			case EventEnd:
				return
			case EventError:
				yield(StreamPart{}, decodeRunError(ev.Data))
				return
			}

			data := json.RawMessage(ev.Data)
			if len(data) == 0 {
				data = json.RawMessage("null")
			}
			if !yield(StreamPart{Event: ev.Event, Data: data}, nil) {
				return
			}
		}
	}
}

// Close releases the connection of a stream that will not be iterated.
func (s *RunStream) Close() error {
	s.consumed.Store(true)
	return s.body.Close()
}
