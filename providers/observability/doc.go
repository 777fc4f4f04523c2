// Package observability defines the tracing, metrics and logging interfaces
// used across localgraph, plus the attribute, span and metric names they
// share.
//
// [Provider] is the single injectable dependency. It travels through a run
// inside a [context.Context] via [ContextWithObserver], and the active span
// via [ContextWithSpan]. A nil Provider means "do not observe": every
// component checks for nil before recording.
package observability
