package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/leofalp/localgraph/providers/observability"
)

// maxResponseBodySize caps how much of a response body is buffered.
const maxResponseBodySize int64 = 10 * 1024 * 1024

// HeaderOption is an extra request header.
type HeaderOption struct {
	Key   string
	Value string
}

// HTTPError is returned for non-2xx responses. Body holds at most
// maxResponseBodySize bytes of the response.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("non-2xx status %d: %s", e.StatusCode, TruncateString(e.Body, DefaultMaxStringLength))
}

// NewJSONRequest marshals body and builds a POST request with JSON content
// type and the given headers applied last.
func NewJSONRequest(ctx context.Context, url string, body any, headers ...HeaderOption) (*http.Request, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("error marshaling body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for _, h := range headers {
		req.Header.Set(h.Key, h.Value)
	}
	return req, nil
}

// DoPostSync POSTs body as JSON and decodes a 2xx response into Out. A
// non-2xx response yields an *HTTPError. Span events are recorded when ctx
// carries a span.
func DoPostSync[Out any](ctx context.Context, client *http.Client, url string, body any, headers ...HeaderOption) (*http.Response, *Out, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := NewJSONRequest(ctx, url, body, headers...)
	if err != nil {
		return nil, nil, err
	}

	span := observability.SpanFromContext(ctx)
	start := time.Now()
	res, err := client.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		if span != nil {
			span.AddEvent("http.request.error", observability.Error(err), observability.Duration(observability.AttrDuration, elapsed))
		}
		return res, nil, fmt.Errorf("error sending request: %w", err)
	}
	defer CloseWithLog(res.Body)

	raw, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBodySize))
	if err != nil {
		return res, nil, fmt.Errorf("error reading response body: %w", err)
	}
	if span != nil {
		span.AddEvent("http.response.received",
			observability.String(observability.AttrHTTPURL, url),
			observability.Int(observability.AttrHTTPStatusCode, res.StatusCode),
			observability.Duration(observability.AttrDuration, elapsed))
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return res, nil, &HTTPError{StatusCode: res.StatusCode, Body: string(raw)}
	}

	var out Out
	if err := json.Unmarshal(raw, &out); err != nil {
		return res, nil, fmt.Errorf("error unmarshaling response body (status %d): %w; preview: %s",
			res.StatusCode, err, TruncateString(string(raw), DefaultMaxStringLength))
	}
	return res, &out, nil
}

// DoPostStream POSTs body as JSON asking for text/event-stream and returns
// the response with its body still open. The caller closes it. For non-2xx
// responses the body is drained, closed, and an *HTTPError returned.
func DoPostStream(ctx context.Context, client *http.Client, url string, body any, headers ...HeaderOption) (*http.Response, error) {
	if client == nil {
		client = http.DefaultClient
	}
	headers = append([]HeaderOption{{Key: "Accept", Value: "text/event-stream"}}, headers...)
	req, err := NewJSONRequest(ctx, url, body, headers...)
	if err != nil {
		return nil, err
	}

	res, err := client.Do(req)
	if err != nil {
		return res, fmt.Errorf("error sending stream request: %w", err)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		defer CloseWithLog(res.Body)
		raw, _ := io.ReadAll(io.LimitReader(res.Body, maxResponseBodySize))
		return res, &HTTPError{StatusCode: res.StatusCode, Body: string(raw)}
	}
	if span := observability.SpanFromContext(ctx); span != nil {
		span.AddEvent("http.stream.started",
			observability.String(observability.AttrHTTPURL, url),
			observability.Int(observability.AttrHTTPStatusCode, res.StatusCode))
	}
	return res, nil
}

// IsHTTPStatus reports whether err wraps an *HTTPError with the given code.
func IsHTTPStatus(err error, code int) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr) && httpErr.StatusCode == code
}

// CloseWithLog closes c and logs a failure instead of returning it.
func CloseWithLog(c io.Closer) {
	if c == nil {
		return
	}
	if err := c.Close(); err != nil {
		slog.Warn("failed to close", "error", err.Error())
	}
}
