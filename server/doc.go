// Package server is the local graph-serving layer. It exposes the graphs of
// a [Registry] as assistants and runs them on request, streaming every
// graph event to the caller as a Server-Sent Event:
//
//	event: metadata
//	data: {"run_id":"...","attempt":1}
//
//	event: values
//	data: {"messages":[...]}
//
//	event: end
//	data:
//
// Runs are threadless: nothing is persisted between requests, and the
// thread-scoped endpoints answer 404. A failure after the stream has
// started is reported as an error event followed by end.
package server
