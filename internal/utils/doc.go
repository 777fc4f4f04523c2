// Package utils holds the HTTP and Server-Sent Events plumbing shared by the
// model backends, the search tool, the run server and the SDK client.
//
// [DoPostSync] performs a JSON round trip, [DoPostStream] opens an event
// stream, [SSEScanner] decodes one and [SSEWriter] produces one.
package utils
