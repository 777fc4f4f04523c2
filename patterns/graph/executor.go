package graph

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"
)

// errConsumerStopped ends a run whose stream consumer stopped iterating.
// It never reaches callers.
var errConsumerStopped = errors.New("stream consumer stopped iteration")

// CompiledGraph is a validated, immutable graph. Runs are independent, so a
// CompiledGraph may serve many runs concurrently.
type CompiledGraph[S any] struct {
	reducer     Reducer[S]
	config      graphConfig
	nodes       map[string]NodeFunc[S]
	nodeOrder   []string
	edges       map[string]string
	conditional map[string]conditionalEdge[S]
}

// Name returns the name set with WithName.
func (g *CompiledGraph[S]) Name() string {
	return g.config.name
}

// Nodes returns the node names in registration order.
func (g *CompiledGraph[S]) Nodes() []string {
	return slices.Clone(g.nodeOrder)
}

// RecursionLimit returns the default limit applied to runs.
func (g *CompiledGraph[S]) RecursionLimit() int {
	return g.config.recursionLimit
}

// Invoke runs the graph on input until it reaches End and returns the
// final state. On failure the state reached so far is returned with the
// error.
func (g *CompiledGraph[S]) Invoke(ctx context.Context, input S, opts ...RunOption) (S, error) {
	rc := g.resolveRun(opts)
	rc.modes = nil
	return g.run(ctx, input, rc, func(Event[S]) bool { return true })
}

// run executes one run strictly sequentially: one node at a time, its
// delta merged before the next transition is evaluated. emit receives
// events for the modes in rc and returning false stops the run.
func (g *CompiledGraph[S]) run(ctx context.Context, input S, rc runConfig, emit func(Event[S]) bool) (state S, err error) {
	wantValues := slices.Contains(rc.modes, StreamModeValues)
	wantUpdates := slices.Contains(rc.modes, StreamModeUpdates)

	obs := g.observeRunStart(&ctx, rc)
	start := time.Now()
	step := 0
	defer func() {
		obs.finish(ctx, step, time.Since(start), err)
	}()

	var zero S
	state = g.reducer(zero, input)
	if wantValues && !emit(Event[S]{Mode: StreamModeValues, Step: -1, State: state}) {
		return state, errConsumerStopped
	}

	current, err := g.next(ctx, Start, state, obs)
	if err != nil {
		return state, err
	}

	for current != End {
		if err := ctx.Err(); err != nil {
			return state, err
		}
		if step >= rc.recursionLimit {
			return state, fmt.Errorf("%w: limit %d", ErrRecursionLimit, rc.recursionLimit)
		}

		delta, err := g.runNode(ctx, current, step, state, obs)
		if err != nil {
			return state, fmt.Errorf("node %q: %w", current, err)
		}
		state = g.reducer(state, delta)

		if wantUpdates && !emit(Event[S]{Mode: StreamModeUpdates, Node: current, Step: step, State: delta}) {
			return state, errConsumerStopped
		}
		if wantValues && !emit(Event[S]{Mode: StreamModeValues, Node: current, Step: step, State: state}) {
			return state, errConsumerStopped
		}

		next, err := g.next(ctx, current, state, obs)
		if err != nil {
			return state, fmt.Errorf("routing after %q: %w", current, err)
		}
		current = next
		step++
	}
	return state, nil
}

// runNode executes one node, converting a panic into an error.
func (g *CompiledGraph[S]) runNode(ctx context.Context, name string, step int, state S, obs *runObservation) (delta S, err error) {
	nodeCtx, finish := obs.startNode(ctx, name, step)
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		finish(err)
	}()
	return g.nodes[name](nodeCtx, state)
}

// next resolves the transition out of from.
func (g *CompiledGraph[S]) next(ctx context.Context, from string, state S, obs *runObservation) (string, error) {
	if to, ok := g.edges[from]; ok {
		return to, nil
	}
	ce, ok := g.conditional[from]
	if !ok {
		return "", fmt.Errorf("node %q has no outgoing edge", from)
	}

	route, err := ce.router(ctx, state)
	if err != nil {
		return "", err
	}
	dest := route
	if ce.pathMap != nil {
		mapped, ok := ce.pathMap[route]
		if !ok {
			return "", fmt.Errorf("%w: %q", ErrUnknownRoute, route)
		}
		dest = mapped
	} else if _, isNode := g.nodes[route]; !isNode && route != End {
		return "", fmt.Errorf("%w: %q", ErrUnknownRoute, route)
	}

	obs.route(ctx, from, dest)
	return dest, nil
}
