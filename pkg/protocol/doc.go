// Package protocol defines the wire format of helium procedure calls.
//
// Every call is one request envelope answered by exactly one response
// envelope. Both are JSON objects:
//
//	request:  {"name": "posts.get", "args": {"id": 42}, "correlationId": "7f1c..."}
//	success:  {"correlationId": "7f1c...", "ok": true, "value": {...}}
//	failure:  {"correlationId": "7f1c...", "ok": false, "kind": "HandlerError", "message": "..."}
//
// Arguments and values are carried as raw JSON, so any JSON-representable
// value round-trips without loss (numbers keep their textual form).
//
// # Failure Kinds
//
//   - UnknownProcedure: the name did not resolve to a registered handler
//   - InvalidArguments: the arguments could not be decoded; the handler did not run
//   - HandlerError: the handler ran and failed (or its result could not be encoded)
//   - RateLimited: the server refused the call before dispatch
//
// # Ordering
//
// Responses carry the correlation identifier of their request. Nothing
// orders responses across concurrent calls; clients must match by
// identifier, never by arrival order.
package protocol
