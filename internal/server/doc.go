// Package server provides the HTTP API surface: the REST routes under
// /api composing the agent, the store and the mail sources, plus a
// dedicated Prometheus metrics server on its own port.
//
// All API responses share a JSON envelope with a "success" boolean and,
// on failure, an "error" string alongside a 4xx/5xx status. Handlers
// never crash the process on a per-request error; only missing required
// configuration at startup is fatal.
package server
