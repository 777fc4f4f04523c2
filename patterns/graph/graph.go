package graph

import (
	"context"
	"errors"
	"fmt"
)

// Reserved node names marking where a run enters and leaves the graph.
const (
	Start = "__start__"
	End   = "__end__"
)

// DefaultRecursionLimit is the number of node executions a run may perform
// before it fails with ErrRecursionLimit.
const DefaultRecursionLimit = 25

var (
	// ErrInvalidGraph wraps every structural problem reported by Compile.
	ErrInvalidGraph = errors.New("invalid graph")

	// ErrRecursionLimit is returned when a run exceeds its recursion limit
	// without reaching End.
	ErrRecursionLimit = errors.New("recursion limit reached without hitting a stop condition")

	// ErrUnknownRoute is returned when a router names a destination that is
	// neither in its path map nor a node of the graph.
	ErrUnknownRoute = errors.New("router returned an unknown destination")

	// ErrStreamConsumed is yielded when a Stream is iterated a second time.
	ErrStreamConsumed = errors.New("stream already consumed")
)

// IsCancelled reports whether err ended a run early rather than failing it:
// the run context was cancelled or timed out, or the stream consumer stopped.
func IsCancelled(err error) bool {
	return errors.Is(err, errConsumerStopped) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// NodeFunc is the work done by one node. It receives the current merged
// state and returns a delta that the graph's Reducer folds into it. A
// node must not mutate the state it is given.
type NodeFunc[S any] func(ctx context.Context, state S) (S, error)

// Router picks the next destination after a node, looking only at the
// merged state. The returned name is resolved through the path map given
// to AddConditionalEdges, or used directly as a node name or End.
type Router[S any] func(ctx context.Context, state S) (string, error)

// Reducer merges a node's delta into the current state and returns the new
// state. It must not modify either argument.
type Reducer[S any] func(current, delta S) S

// StreamMode selects which events a Stream produces.
type StreamMode string

const (
	// StreamModeValues emits the full state after the input is applied and
	// after every node.
	StreamModeValues StreamMode = "values"

	// StreamModeUpdates emits {node: delta} after every node.
	StreamModeUpdates StreamMode = "updates"
)

// ParseStreamMode validates a stream mode name.
func ParseStreamMode(s string) (StreamMode, error) {
	switch StreamMode(s) {
	case StreamModeValues, StreamModeUpdates:
		return StreamMode(s), nil
	default:
		return "", fmt.Errorf("unsupported stream mode %q", s)
	}
}

type conditionalEdge[S any] struct {
	router  Router[S]
	pathMap map[string]string
}
