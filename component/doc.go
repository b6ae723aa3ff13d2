// Package component defines lifecycle-managed services and a registry that
// starts them in order and stops them in reverse.
//
// The HTTP server, the transcription service and the archive store are all
// components, so the bootstrap package can start, health-check and stop them
// uniformly. Lazy guards an expensive one-time setup, such as loading a
// speech model, until first use.
package component
