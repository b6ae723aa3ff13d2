// Package process runs external commands in their own process group.
//
// Run buffers output and waits; Start streams standard output for
// helpers that emit results incrementally. Cancellation sends SIGTERM to
// the group and escalates to SIGKILL after the grace period.
package process
