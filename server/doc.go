// Package server provides the HTTP server used by voicegate: a Gin engine
// behind an h2c handler, with lifecycle management through the component
// registry.
//
// # Middleware
//
// Built-in middleware (server/middleware):
//
//   - Recovery: panic recovery answering with an INTERNAL_ERROR body
//   - RequestID: request id generation and propagation into the context
//   - CORS: cross-origin resource sharing via gin-contrib/cors
//   - BodySizeLimit: request body size cap
//   - RequestLogger: request logging with duration tracking
//
// # Endpoints
//
// Built-in endpoints (server/endpoint), mounted at the root and under the
// API prefix:
//
//   - /health: component health aggregation
//   - /info: service, version and model information
//   - /version: build version information
//   - /: service banner
//
// # Port discovery
//
// With port 0, or a busy port and PortFallback enabled, the server binds a
// free port. When Announce is set the bound port is printed as "PORT <n>"
// so a parent process can pick it up.
package server
