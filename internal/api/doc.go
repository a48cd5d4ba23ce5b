// Package api implements the JSON HTTP API.
//
// Routing uses net/http ServeMux "METHOD /path" patterns. Handlers sit behind
// a middleware chain (recovery, request ID, logging, CORS); health probes are
// registered on a top-level mux outside the chain so load balancers never pay
// for middleware.
//
// Error convention: user-facing misses (unknown user, empty message, unknown
// reminder) return HTTP 200 with a soft {"error": "..."} payload so chat
// clients can render them inline. Authentication failures and unexpected
// storage errors keep their real HTTP status codes.
package api
