package graph

import (
	"context"
	"errors"
	"iter"
	"sync/atomic"
)

// Event is one item produced by a Stream.
type Event[S any] struct {
	Mode StreamMode

	// Node is the node that just ran. Empty for the initial values event.
	Node string

	// Step counts node executions from 0. The initial values event has
	// step -1.
	Step int

	// State is the full state for values events and the node's delta for
	// updates events.
	State S
}

// Data returns the event payload in its wire shape: the state for values,
// {node: delta} for updates.
func (e Event[S]) Data() any {
	if e.Mode == StreamModeUpdates {
		return map[string]S{e.Node: e.State}
	}
	return e.State
}

// Stream is a lazy, single-pass sequence of run events. The run starts
// when Iter is first ranged over and stops if the consumer breaks out of
// the loop.
type Stream[S any] struct {
	graph    *CompiledGraph[S]
	ctx      context.Context
	input    S
	rc       runConfig
	consumed atomic.Bool
}

// Stream prepares a run of the graph on input. Use WithStreamModes to pick
// the events; the default is values.
//
//	for ev, err := range compiled.Stream(ctx, input).Iter() {
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Println(ev.Mode, ev.Node)
//	}
func (g *CompiledGraph[S]) Stream(ctx context.Context, input S, opts ...RunOption) *Stream[S] {
	return &Stream[S]{graph: g, ctx: ctx, input: input, rc: g.resolveRun(opts)}
}

// Modes returns the stream modes this stream emits.
func (s *Stream[S]) Modes() []StreamMode {
	return append([]StreamMode(nil), s.rc.modes...)
}

// Iter runs the graph and yields its events in order. A run failure is
// yielded once as the final error. Iterating a second time yields only
// ErrStreamConsumed.
func (s *Stream[S]) Iter() iter.Seq2[Event[S], error] {
	return func(yield func(Event[S], error) bool) {
		if !s.consumed.CompareAndSwap(false, true) {
			yield(Event[S]{}, ErrStreamConsumed)
			return
		}
		_, err := s.graph.run(s.ctx, s.input, s.rc, func(ev Event[S]) bool {
			return yield(ev, nil)
		})
		if err != nil && !errors.Is(err, errConsumerStopped) {
			yield(Event[S]{}, err)
		}
	}
}
