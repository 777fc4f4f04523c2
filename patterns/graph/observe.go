package graph

import (
	"context"
	"strings"
	"time"

	"github.com/leofalp/localgraph/providers/observability"
)

// runObservation carries the provider and root span of one run. A nil
// provider makes every method a no-op.
type runObservation struct {
	provider observability.Provider
	span     observability.Span
	graph    string
}

// observeRunStart opens the run span and attaches it and the provider to
// ctx so nodes and tools can reach them.
func (g *CompiledGraph[S]) observeRunStart(ctx *context.Context, rc runConfig) *runObservation {
	provider := g.config.observer
	if provider == nil {
		provider = observability.ObserverFromContext(*ctx)
	}
	obs := &runObservation{provider: provider, graph: g.config.name}
	if provider == nil {
		return obs
	}

	modes := make([]string, 0, len(rc.modes))
	for _, m := range rc.modes {
		modes = append(modes, string(m))
	}

	*ctx, obs.span = provider.StartSpan(*ctx, observability.SpanGraphRun,
		observability.String(observability.AttrGraphName, g.config.name),
		observability.Int(observability.AttrGraphNodeCount, len(g.nodes)),
		observability.String(observability.AttrGraphStreamMode, strings.Join(modes, ",")),
	)
	*ctx = observability.ContextWithSpan(*ctx, obs.span)
	*ctx = observability.ContextWithObserver(*ctx, provider)

	provider.Debug(*ctx, "graph run started",
		observability.String(observability.AttrGraphName, g.config.name),
		observability.Int("graph.recursion_limit", rc.recursionLimit),
	)
	return obs
}

func (o *runObservation) finish(ctx context.Context, steps int, elapsed time.Duration, err error) {
	if o.provider == nil {
		return
	}

	status := "completed"
	switch {
	case err == nil:
	case IsCancelled(err):
		status = "cancelled"
	default:
		status = "failed"
	}

	o.provider.Counter(observability.MetricGraphRunCount).Add(ctx, 1,
		observability.String(observability.AttrGraphName, o.graph),
		observability.String(observability.AttrStatus, status))
	o.provider.Histogram(observability.MetricGraphRunDuration).Record(ctx, elapsed.Seconds(),
		observability.String(observability.AttrGraphName, o.graph))

	attrs := []observability.Attribute{
		observability.String(observability.AttrStatus, status),
		observability.Int(observability.AttrGraphStep, steps),
		observability.Duration(observability.AttrDuration, elapsed),
	}
	if status == "failed" {
		o.provider.Error(ctx, "graph run failed", append(attrs, observability.Error(err))...)
		o.span.RecordError(err)
		o.span.SetStatus(observability.StatusError, err.Error())
	} else {
		o.provider.Info(ctx, "graph run "+status, attrs...)
		o.span.SetStatus(observability.StatusOK, status)
	}
	o.span.End()
}

// startNode opens a node span. The returned func closes it with the
// node's outcome.
func (o *runObservation) startNode(ctx context.Context, node string, step int) (context.Context, func(error)) {
	if o.provider == nil {
		return ctx, func(error) {}
	}

	start := time.Now()
	nodeCtx, span := o.provider.StartSpan(ctx, observability.SpanGraphNode,
		observability.String(observability.AttrGraphNode, node),
		observability.Int(observability.AttrGraphStep, step),
	)
	nodeCtx = observability.ContextWithSpan(nodeCtx, span)
	o.provider.Debug(nodeCtx, "node started",
		observability.String(observability.AttrGraphNode, node),
		observability.Int(observability.AttrGraphStep, step))

	return nodeCtx, func(err error) {
		elapsed := time.Since(start)
		status := "completed"
		if err != nil {
			status = "failed"
		}
		o.provider.Counter(observability.MetricGraphNodeCount).Add(ctx, 1,
			observability.String(observability.AttrGraphNode, node),
			observability.String(observability.AttrStatus, status))
		o.provider.Histogram(observability.MetricGraphNodeDuration).Record(ctx, elapsed.Seconds(),
			observability.String(observability.AttrGraphNode, node))

		if err != nil {
			o.provider.Error(nodeCtx, "node failed",
				observability.String(observability.AttrGraphNode, node),
				observability.Error(err))
			span.RecordError(err)
			span.SetStatus(observability.StatusError, "node failed")
		} else {
			o.provider.Debug(nodeCtx, "node completed",
				observability.String(observability.AttrGraphNode, node),
				observability.Duration(observability.AttrDuration, elapsed))
			span.SetStatus(observability.StatusOK, "node completed")
		}
		span.End()
	}
}

func (o *runObservation) route(ctx context.Context, from, to string) {
	if o.provider == nil {
		return
	}
	o.span.AddEvent(observability.EventRouteSelected,
		observability.String(observability.AttrGraphNode, from),
		observability.String(observability.AttrGraphRoute, to))
	o.provider.Trace(ctx, "route selected",
		observability.String(observability.AttrGraphNode, from),
		observability.String(observability.AttrGraphRoute, to))
}
