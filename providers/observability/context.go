package observability

import "context"

type spanKey struct{}

type observerKey struct{}

// SpanFromContext returns the span stored in ctx, or nil.
func SpanFromContext(ctx context.Context) Span {
	if ctx == nil {
		return nil
	}
	span, _ := ctx.Value(spanKey{}).(Span)
	return span
}

// ContextWithSpan returns a copy of ctx carrying span.
func ContextWithSpan(ctx context.Context, span Span) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, spanKey{}, span)
}

// ObserverFromContext returns the provider stored in ctx, or nil.
// Tool implementations use it to log without holding a provider themselves.
func ObserverFromContext(ctx context.Context) Provider {
	if ctx == nil {
		return nil
	}
	p, _ := ctx.Value(observerKey{}).(Provider)
	return p
}

// ContextWithObserver returns a copy of ctx carrying p.
func ContextWithObserver(ctx context.Context, p Provider) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, observerKey{}, p)
}
