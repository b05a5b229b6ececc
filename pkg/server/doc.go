// Package server exposes a procedure dispatcher and a route table over HTTP.
//
// A Server mounts, on a chi router:
//
//	POST {RPCPath}      one request envelope per HTTP request
//	GET  {WSPath}       WebSocket carrying many concurrent calls
//	GET  {MetricsPath}  Prometheus exposition (when a gatherer is set)
//	GET  /*             page routes resolved against the route table
//
// Page requests whose path is not canonical (trailing slash, "//", "." or
// "..") are redirected with 308 to the canonical path. Paths that resolve
// to no route get 404. Resolved routes are handed to a PageRenderer; the
// default renderer answers with the resolution as JSON.
//
// Run serves until its context is cancelled and then shuts down gracefully.
package server
