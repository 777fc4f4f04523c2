// Package slogobs implements observability.Provider with log/slog.
//
// The Handler renders compact, pretty or JSON lines; metrics are kept in
// memory so tests and the dev server can read totals back with
// [Observer.CounterValue].
package slogobs
