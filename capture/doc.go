// Package capture records one utterance from a live block source.
//
// A Source delivers fixed-size blocks from a device callback. The Recorder
// stamps each block with its arrival time and hands it over a bounded queue
// to a single consumer that drives the Controller, the speech/silence state
// machine. Recording stops once trailing silence after speech lasts longer
// than the configured silence duration, or earlier on cancellation, end of
// stream or the optional maximum duration.
package capture
