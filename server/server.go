package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/leofalp/localgraph/providers/observability"
)

// DefaultAddr is where the development server listens.
const DefaultAddr = "127.0.0.1:2024"

const (
	defaultShutdownTimeout = 10 * time.Second
	defaultHeartbeat       = 15 * time.Second
)

// Option configures a Server.
type Option func(*Server)

// WithAddr sets the listen address. Defaults to DefaultAddr.
func WithAddr(addr string) Option {
	return func(s *Server) {
		s.addr = addr
	}
}

// WithObserver attaches logging, tracing and metrics to requests and runs.
func WithObserver(observer observability.Provider) Option {
	return func(s *Server) {
		s.observer = observer
	}
}

// WithVersion sets the version reported by GET /info.
func WithVersion(version string) Option {
	return func(s *Server) {
		s.version = version
	}
}

// WithShutdownTimeout bounds how long Run waits for in-flight requests
// after its context is cancelled.
func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.shutdownTimeout = d
	}
}

// WithHeartbeat sets how often an idle event stream receives a comment
// line. Zero disables heartbeats.
func WithHeartbeat(d time.Duration) Option {
	return func(s *Server) {
		s.heartbeat = d
	}
}

// Server serves the graphs of a Registry over HTTP and Server-Sent Events.
type Server struct {
	registry        *Registry
	observer        observability.Provider
	addr            string
	version         string
	shutdownTimeout time.Duration
	heartbeat       time.Duration
}

// New returns a Server for the graphs in registry. Without options it
// listens on DefaultAddr and sends a heartbeat every 15 seconds.
func New(registry *Registry, opts ...Option) *Server {
	s := &Server{
		registry:        registry,
		addr:            DefaultAddr,
		version:         "dev",
		shutdownTimeout: defaultShutdownTimeout,
		heartbeat:       defaultHeartbeat,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the HTTP API:
//
//	POST /runs/stream                      threadless streamed run
//	POST /runs/wait                        threadless run, final state
//	POST /threads/{thread_id}/runs/stream  not supported, 404
//	POST /threads/{thread_id}/runs/wait    not supported, 404
//	GET  /assistants/{assistant_id}
//	POST /assistants/search
//	GET  /ok
//	GET  /info
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /runs/stream", s.handleRunStream)
	mux.HandleFunc("POST /runs/wait", s.handleRunWait)
	mux.HandleFunc("POST /threads/{thread_id}/runs/stream", s.handleThreadRun)
	mux.HandleFunc("POST /threads/{thread_id}/runs/wait", s.handleThreadRun)
	mux.HandleFunc("GET /assistants/{assistant_id}", s.handleGetAssistant)
	mux.HandleFunc("POST /assistants/search", s.handleSearchAssistants)
	mux.HandleFunc("GET /ok", s.handleOK)
	mux.HandleFunc("GET /info", s.handleInfo)
	return s.logRequests(mux)
}

// Run listens on the configured address and serves until ctx is cancelled,
// then shuts down gracefully. In-flight runs see their request context
// cancelled once the shutdown timeout elapses.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.observer != nil {
		s.observer.Info(ctx, "server listening",
			observability.String(observability.AttrHTTPURL, "http://"+ln.Addr().String()),
			observability.Int(observability.AttrServerGraphs, len(s.registry.GraphIDs())))
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		<-egCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			_ = srv.Close()
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	err := eg.Wait()
	if s.observer != nil {
		s.observer.Info(context.WithoutCancel(ctx), "server stopped")
	}
	return err
}

// statusRecorder captures the response status for request logging and
// keeps flushing available to the SSE writer.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	if s.observer == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx, span := s.observer.StartSpan(r.Context(), observability.SpanHTTPRequest,
			observability.String(observability.AttrHTTPMethod, r.Method),
			observability.String(observability.AttrHTTPPath, r.URL.Path))
		defer span.End()
		ctx = observability.ContextWithObserver(ctx, s.observer)

		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r.WithContext(ctx))

		span.SetAttributes(observability.Int(observability.AttrHTTPStatusCode, rec.status))
		if rec.status >= http.StatusInternalServerError {
			span.SetStatus(observability.StatusError, http.StatusText(rec.status))
		} else {
			span.SetStatus(observability.StatusOK, "")
		}
		s.observer.Info(ctx, "http request",
			observability.String(observability.AttrHTTPMethod, r.Method),
			observability.String(observability.AttrHTTPPath, r.URL.Path),
			observability.Int(observability.AttrHTTPStatusCode, rec.status),
			observability.Duration(observability.AttrDuration, time.Since(start)))
	})
}
