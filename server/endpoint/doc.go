// Package endpoint provides the Gin handlers for the service endpoints
// every voicegate server exposes.
package endpoint
