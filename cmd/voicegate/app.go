package main

import (
	"github.com/kbukum/voicegate/archive"
	"github.com/kbukum/voicegate/bootstrap"
	"github.com/kbukum/voicegate/storage"
	_ "github.com/kbukum/voicegate/storage/local"
	_ "github.com/kbukum/voicegate/storage/s3"
	"github.com/kbukum/voicegate/transcription"
	"github.com/kbukum/voicegate/transcription/fasterwhisper"
	"github.com/kbukum/voicegate/transcription/whisper"
)

// runtime bundles what the one-shot commands share.
type runtime struct {
	app           *bootstrap.App[*AppConfig]
	transcription *transcription.Service
	store         *storage.Component
}

// newRuntime builds the app with the transcription service and the archive
// storage registered as components.
func newRuntime(cfg *AppConfig, opts ...bootstrap.Option) (*runtime, error) {
	app, err := bootstrap.NewApp(cfg, opts...)
	if err != nil {
		return nil, err
	}
	svc, err := newTranscriptionService(cfg.Transcription)
	if err != nil {
		return nil, err
	}
	store := storage.NewComponent(cfg.Archive)

	if err := app.RegisterComponent(store); err != nil {
		return nil, err
	}
	if err := app.RegisterComponent(svc); err != nil {
		return nil, err
	}
	return &runtime{app: app, transcription: svc, store: store}, nil
}

// archive returns the archive, or nil when archiving is disabled. Only
// valid once the app has started.
func (r *runtime) archive() *archive.Archive {
	s := r.store.Storage()
	if s == nil {
		return nil
	}
	return archive.New(s, r.app.Cfg.Transcription.TempDir)
}

func newTranscriptionService(cfg transcription.Config) (*transcription.Service, error) {
	reg := transcription.NewRegistry()
	reg.RegisterFactory(whisper.ProviderName, whisper.Factory())
	reg.RegisterFactory(fasterwhisper.ProviderName, fasterwhisper.Factory())
	return transcription.NewService(cfg, reg)
}
