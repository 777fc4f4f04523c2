package utils

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type echoResponse struct {
	Query string `json:"query"`
}

// TestDoPostSync_Success verifies the JSON round trip and header handling.
func TestDoPostSync_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("content type = %q", r.Header.Get("Content-Type"))
		}
		if r.Header.Get("X-Api-Key") != "secret" {
			t.Errorf("missing custom header")
		}
		var in map[string]string
		_ = json.NewDecoder(r.Body).Decode(&in)
		_ = json.NewEncoder(w).Encode(echoResponse{Query: in["query"]})
	}))
	defer server.Close()

	_, out, err := DoPostSync[echoResponse](context.Background(), server.Client(), server.URL,
		map[string]string{"query": "langgraph"}, HeaderOption{Key: "X-Api-Key", Value: "secret"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Query != "langgraph" {
		t.Errorf("Query = %q", out.Query)
	}
}

// TestDoPostSync_Non2xx verifies that error statuses become *HTTPError.
func TestDoPostSync_Non2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"detail":"nope"}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	_, out, err := DoPostSync[echoResponse](context.Background(), nil, server.URL, struct{}{})
	if out != nil {
		t.Error("expected nil output")
	}
	if !IsHTTPStatus(err, http.StatusUnauthorized) {
		t.Fatalf("expected 401 HTTPError, got %v", err)
	}
	if !strings.Contains(err.Error(), "nope") {
		t.Errorf("error should carry the body: %v", err)
	}
}

// TestDoPostSync_BadJSON verifies that decode failures include a preview.
func TestDoPostSync_BadJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "not json")
	}))
	defer server.Close()

	_, _, err := DoPostSync[echoResponse](context.Background(), nil, server.URL, struct{}{})
	if err == nil || !strings.Contains(err.Error(), "not json") {
		t.Errorf("expected preview in error, got %v", err)
	}
}

// TestDoPostStream_OpenBody verifies that the body stays readable and the
// Accept header is set.
func TestDoPostStream_OpenBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") != "text/event-stream" {
			t.Errorf("Accept = %q", r.Header.Get("Accept"))
		}
		sw := NewSSEWriter(w)
		_ = sw.WriteEvent("end", []byte("null"))
	}))
	defer server.Close()

	res, err := DoPostStream(context.Background(), nil, server.URL, struct{}{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer CloseWithLog(res.Body)

	ev, err := NewSSEScanner(res.Body).Next()
	if err != nil || ev.Event != "end" {
		t.Errorf("ev = %+v, err = %v", ev, err)
	}
}

// TestDoPostStream_Non2xx verifies that the body is drained into the error.
func TestDoPostStream_Non2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "assistant not found", http.StatusNotFound)
	}))
	defer server.Close()

	_, err := DoPostStream(context.Background(), nil, server.URL, struct{}{})
	if !IsHTTPStatus(err, http.StatusNotFound) {
		t.Fatalf("expected 404 HTTPError, got %v", err)
	}
}

// TestTruncateString verifies the limit and default.
func TestTruncateString(t *testing.T) {
	if got := TruncateString("abc", 5); got != "abc" {
		t.Errorf("got %q", got)
	}
	if got := TruncateString("abcdef", 2); !strings.HasPrefix(got, "ab...") {
		t.Errorf("got %q", got)
	}
}

// TestPtr verifies the returned pointer holds a copy.
func TestPtr(t *testing.T) {
	v := "thread"
	p := Ptr(v)
	v = "changed"
	if *p != "thread" {
		t.Errorf("*p = %q", *p)
	}
}
