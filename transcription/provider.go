package transcription

import (
	"context"

	"github.com/kbukum/voicegate/provider"
)

// Provider is a speech-to-text backend.
//
// Transcribe decodes the audio file at audioPath. Segments are produced
// lazily and in start order; the iterator is single-pass and must be
// closed. Backends that load a model implement provider.Initializable so
// the service can load them once, on first use.
type Provider interface {
	provider.Provider
	Transcribe(ctx context.Context, audioPath string, params Params) (Info, provider.Iterator[Segment], error)
}

// ModelDescriber is implemented by backends that report their model setup.
type ModelDescriber interface {
	Model() (name, device, computeType string)
}

// NewRegistry creates a registry for transcription backends.
func NewRegistry() *provider.Registry[Provider] {
	return provider.NewRegistry[Provider]()
}

// LoadReporter is implemented by backends whose model can be unloaded
// after Init, for example when a helper process exits.
type LoadReporter interface {
	Loaded() bool
}
