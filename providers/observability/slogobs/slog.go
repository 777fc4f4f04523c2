package slogobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/leofalp/localgraph/providers/observability"
)

// Observer implements observability.Provider on top of log/slog. Spans become
// start/end debug lines, metrics are kept in memory and logged at debug
// level, and log calls map directly onto slog levels.
type Observer struct {
	logger  *slog.Logger
	metrics *metricsStore
}

var _ observability.Provider = (*Observer)(nil)

// New creates an Observer. Without options the format and level come from
// LOCALGRAPH_LOG_FORMAT and LOCALGRAPH_LOG_LEVEL.
//
//	obs := slogobs.New(slogobs.WithFormat(slogobs.FormatJSON), slogobs.WithLevel(slog.LevelDebug))
func New(opts ...Option) *Observer {
	cfg := applyOptions(opts...)

	logger := cfg.logger
	if logger == nil {
		logger = slog.New(NewHandler(&HandlerOptions{
			Format: cfg.format,
			Level:  cfg.level,
			Output: cfg.output,
			Colors: cfg.colors,
		}))
	}

	return &Observer{
		logger:  logger,
		metrics: newMetricsStore(),
	}
}

// Logger exposes the underlying slog.Logger, e.g. for http.Server.ErrorLog.
func (o *Observer) Logger() *slog.Logger {
	return o.logger
}

// StartSpan logs the span start at debug level and returns ctx carrying
// the new span.
func (o *Observer) StartSpan(ctx context.Context, name string, attrs ...observability.Attribute) (context.Context, observability.Span) {
	span := &slogSpan{
		name:   name,
		start:  time.Now(),
		logger: o.logger,
		attrs:  append([]observability.Attribute(nil), attrs...),
	}
	o.logger.LogAttrs(ctx, slog.LevelDebug, "span started",
		append([]slog.Attr{slog.String("span", name)}, toSlog(attrs)...)...)
	return observability.ContextWithSpan(ctx, span), span
}

type slogSpan struct {
	mu     sync.Mutex
	name   string
	start  time.Time
	logger *slog.Logger
	attrs  []observability.Attribute
	status observability.StatusCode
	ended  bool
}

// End logs the span duration and its accumulated attributes. Calls after the
// first are ignored.
func (s *slogSpan) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return
	}
	s.ended = true

	logAttrs := []slog.Attr{
		slog.String("span", s.name),
		slog.Duration(observability.AttrDuration, time.Since(s.start)),
	}
	if s.status != observability.StatusUnset {
		logAttrs = append(logAttrs, slog.String(observability.AttrStatus, s.status.String()))
	}
	logAttrs = append(logAttrs, toSlog(s.attrs)...)
	s.logger.LogAttrs(context.Background(), slog.LevelDebug, "span ended", logAttrs...)
}

func (s *slogSpan) SetAttributes(attrs ...observability.Attribute) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attrs = append(s.attrs, attrs...)
}

func (s *slogSpan) SetStatus(code observability.StatusCode, description string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = code
	if description != "" {
		s.attrs = append(s.attrs, observability.String(observability.AttrStatusDescription, description))
	}
}

// RecordError attaches err to the span and logs it immediately at error level.
func (s *slogSpan) RecordError(err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	s.attrs = append(s.attrs, observability.Error(err))
	s.mu.Unlock()

	s.logger.LogAttrs(context.Background(), slog.LevelError, "span error",
		slog.String("span", s.name),
		slog.String(observability.AttrError, err.Error()))
}

func (s *slogSpan) AddEvent(name string, attrs ...observability.Attribute) {
	s.logger.LogAttrs(context.Background(), slog.LevelDebug, name,
		append([]slog.Attr{slog.String("span", s.name)}, toSlog(attrs)...)...)
}

// Counter returns the named in-memory counter.
func (o *Observer) Counter(name string) observability.Counter {
	return o.metrics.counter(name, o.logger)
}

// Histogram returns the named in-memory histogram.
func (o *Observer) Histogram(name string) observability.Histogram {
	return o.metrics.histogram(name, o.logger)
}

// CounterValue reports the current total of a counter, or 0 if it was never
// created.
func (o *Observer) CounterValue(name string) int64 {
	o.metrics.mu.RLock()
	c, ok := o.metrics.counters[name]
	o.metrics.mu.RUnlock()
	if !ok {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// HistogramCount reports how many observations a histogram has recorded.
func (o *Observer) HistogramCount(name string) int {
	o.metrics.mu.RLock()
	h, ok := o.metrics.histograms[name]
	o.metrics.mu.RUnlock()
	if !ok {
		return 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.count
}

type metricsStore struct {
	mu         sync.RWMutex
	counters   map[string]*slogCounter
	histograms map[string]*slogHistogram
}

func newMetricsStore() *metricsStore {
	return &metricsStore{
		counters:   make(map[string]*slogCounter),
		histograms: make(map[string]*slogHistogram),
	}
}

func (m *metricsStore) counter(name string, logger *slog.Logger) *slogCounter {
	m.mu.RLock()
	c, ok := m.counters[name]
	m.mu.RUnlock()
	if ok {
		return c
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.counters[name]; ok {
		return c
	}
	c = &slogCounter{name: name, logger: logger}
	m.counters[name] = c
	return c
}

func (m *metricsStore) histogram(name string, logger *slog.Logger) *slogHistogram {
	m.mu.RLock()
	h, ok := m.histograms[name]
	m.mu.RUnlock()
	if ok {
		return h
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if h, ok := m.histograms[name]; ok {
		return h
	}
	h = &slogHistogram{name: name, logger: logger}
	m.histograms[name] = h
	return h
}

type slogCounter struct {
	name   string
	logger *slog.Logger
	mu     sync.Mutex
	value  int64
}

func (c *slogCounter) Add(ctx context.Context, value int64, attrs ...observability.Attribute) {
	c.mu.Lock()
	c.value += value
	total := c.value
	c.mu.Unlock()

	c.logger.LogAttrs(ctx, LevelTrace, "counter",
		append([]slog.Attr{
			slog.String("metric", c.name),
			slog.Int64("value", total),
			slog.Int64("delta", value),
		}, toSlog(attrs)...)...)
}

type slogHistogram struct {
	name   string
	logger *slog.Logger
	mu     sync.Mutex
	count  int
	sum    float64
}

func (h *slogHistogram) Record(ctx context.Context, value float64, attrs ...observability.Attribute) {
	h.mu.Lock()
	h.count++
	h.sum += value
	h.mu.Unlock()

	h.logger.LogAttrs(ctx, LevelTrace, "histogram",
		append([]slog.Attr{
			slog.String("metric", h.name),
			slog.Float64("value", value),
		}, toSlog(attrs)...)...)
}

func (o *Observer) Trace(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.logger.LogAttrs(ctx, LevelTrace, msg, toSlog(attrs)...)
}

func (o *Observer) Debug(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.logger.LogAttrs(ctx, slog.LevelDebug, msg, toSlog(attrs)...)
}

func (o *Observer) Info(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.logger.LogAttrs(ctx, slog.LevelInfo, msg, toSlog(attrs)...)
}

func (o *Observer) Warn(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.logger.LogAttrs(ctx, slog.LevelWarn, msg, toSlog(attrs)...)
}

func (o *Observer) Error(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.logger.LogAttrs(ctx, slog.LevelError, msg, toSlog(attrs)...)
}

func toSlog(attrs []observability.Attribute) []slog.Attr {
	out := make([]slog.Attr, 0, len(attrs))
	for _, a := range attrs {
		out = append(out, slog.Any(a.Key, a.Value))
	}
	return out
}
