package observability

import (
	"context"
	"fmt"
	"time"
)

// Provider bundles tracing, metrics and logging behind one injectable value.
// Graph runs, tool nodes and the HTTP server all accept a Provider; a nil
// Provider disables observation entirely.
type Provider interface {
	Tracer
	Metrics
	Logger
}

// Tracer starts spans.
type Tracer interface {
	StartSpan(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Span is one timed unit of work, for example a graph run or a node step.
type Span interface {
	End()
	SetAttributes(attrs ...Attribute)
	SetStatus(code StatusCode, description string)
	RecordError(err error)
	AddEvent(name string, attrs ...Attribute)
}

// StatusCode is the outcome recorded on a span.
type StatusCode int

const (
	StatusUnset StatusCode = iota
	StatusOK
	StatusError
)

// String returns the lowercase name of the status.
func (c StatusCode) String() string {
	switch c {
	case StatusOK:
		return "ok"
	case StatusError:
		return "error"
	default:
		return "unset"
	}
}

// Metrics hands out named instruments. Repeated calls with the same name
// return the same instrument.
type Metrics interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// Counter is a monotonically increasing metric.
type Counter interface {
	Add(ctx context.Context, value int64, attrs ...Attribute)
}

// Histogram records a distribution of values.
type Histogram interface {
	Record(ctx context.Context, value float64, attrs ...Attribute)
}

// Logger is a levelled structured logger.
type Logger interface {
	Trace(ctx context.Context, msg string, attrs ...Attribute)
	Debug(ctx context.Context, msg string, attrs ...Attribute)
	Info(ctx context.Context, msg string, attrs ...Attribute)
	Warn(ctx context.Context, msg string, attrs ...Attribute)
	Error(ctx context.Context, msg string, attrs ...Attribute)
}

// Attribute is a key-value pair attached to spans, metrics and log lines.
type Attribute struct {
	Key   string
	Value any
}

func String(key, value string) Attribute { return Attribute{Key: key, Value: value} }

func Int(key string, value int) Attribute { return Attribute{Key: key, Value: value} }

func Int64(key string, value int64) Attribute { return Attribute{Key: key, Value: value} }

func Float64(key string, value float64) Attribute { return Attribute{Key: key, Value: value} }

func Bool(key string, value bool) Attribute { return Attribute{Key: key, Value: value} }

func Duration(key string, value time.Duration) Attribute { return Attribute{Key: key, Value: value} }

// Error builds an attribute under AttrError. A nil error yields an empty value.
func Error(err error) Attribute {
	if err == nil {
		return Attribute{Key: AttrError, Value: ""}
	}
	return Attribute{Key: AttrError, Value: err.Error()}
}

// DefaultMaxStringLength bounds payloads copied into log attributes.
const DefaultMaxStringLength = 500

// TruncateString shortens s to maxLen bytes and notes the original length.
// A non-positive maxLen falls back to DefaultMaxStringLength.
func TruncateString(s string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultMaxStringLength
	}
	if len(s) <= maxLen {
		return s
	}
	return fmt.Sprintf("%s... (truncated, total: %d chars)", s[:maxLen], len(s))
}
