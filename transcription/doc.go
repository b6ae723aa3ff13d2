// Package transcription bridges captured audio to a speech-to-text backend.
//
// Service owns the backend: it picks one through a provider.Manager, runs
// its one-time initialization lazily on first use, writes utterances to a
// temporary 16-bit PCM WAV file and collects the backend's segment stream
// into a Result in a single pass. Backend failures surface as
// MODEL_UNAVAILABLE or TRANSCRIPTION_FAILED errors and are never retried.
//
// # Backends
//
//   - transcription/whisper: faster-whisper HTTP sidecar
//   - transcription/fasterwhisper: local faster-whisper subprocess
package transcription
