package transcription

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/kbukum/voicegate/audio"
	"github.com/kbukum/voicegate/component"
	"github.com/kbukum/voicegate/errors"
	"github.com/kbukum/voicegate/logger"
	"github.com/kbukum/voicegate/observability"
	"github.com/kbukum/voicegate/provider"
	"github.com/kbukum/voicegate/resilience"
)

// Service transcribes audio with a lazily initialized backend.
type Service struct {
	cfg      Config
	manager  *provider.Manager[Provider]
	lazy     *component.Lazy
	breaker  *resilience.CircuitBreaker
	bulkhead *resilience.Bulkhead
	log      *logger.Logger
	metrics  *metrics

	mu      sync.RWMutex
	backend Provider
}

var _ component.Component = (*Service)(nil)

// NewService creates the backends named by cfg from reg. Backends are only
// constructed here; model loading happens on the first Transcribe call, or
// at Start when cfg.Preload is set.
func NewService(cfg Config, reg *provider.Registry[Provider]) (*Service, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	priority := cfg.Priority()
	mgr := provider.NewManager(reg, &provider.PrioritySelector[Provider]{Priority: priority})
	for _, name := range priority {
		if err := mgr.Initialize(name, cfg.BackendConfig(name)); err != nil {
			return nil, fmt.Errorf("transcription backend %s: %w", name, err)
		}
	}

	s := &Service{
		cfg:      cfg,
		manager:  mgr,
		bulkhead: resilience.NewBulkhead(resilience.BulkheadConfig{Name: "transcription", MaxConcurrent: cfg.MaxConcurrent, MaxWait: cfg.MaxWait}),
		log:      logger.Get("transcription"),
		metrics:  newMetrics(),
	}

	bcfg := cfg.Breaker
	bcfg.IsFailure = isBackendFailure
	bcfg.OnStateChange = func(name string, from, to resilience.State) {
		s.log.Warn("circuit breaker state changed", logger.Fields("breaker", name, "from", from.String(), "to", to.String()))
	}
	s.breaker = resilience.NewCircuitBreaker(bcfg)
	s.lazy = component.NewLazy("transcription-backend", s.initBackend)
	return s, nil
}

// initBackend selects the first available backend and runs its one-time setup.
func (s *Service) initBackend(ctx context.Context) error {
	p, err := s.manager.Get(ctx)
	if err != nil {
		return err
	}
	if init, ok := p.(provider.Initializable); ok {
		if err := init.Init(ctx); err != nil {
			return fmt.Errorf("%s: %w", p.Name(), err)
		}
	}
	s.mu.Lock()
	s.backend = p
	s.mu.Unlock()
	return nil
}

func (s *Service) ensureBackend(ctx context.Context) (Provider, error) {
	if err := s.lazy.Initialize(ctx); err != nil {
		return nil, errors.ModelUnavailable(s.cfg.Provider, err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.backend, nil
}

// EffectiveParams merges an optional override with the configured defaults.
// A zero BeamSize or empty Task in the override takes the default.
func (s *Service) EffectiveParams(override *Params) Params {
	if override == nil {
		return s.cfg.Params()
	}
	p := *override
	def := s.cfg.Params()
	if p.BeamSize == 0 {
		p.BeamSize = def.BeamSize
	}
	if p.Task == "" {
		p.Task = def.Task
	}
	if p.Language == "" {
		p.Language = def.Language
	}
	return p
}

// Transcribe runs one request through the backend.
func (s *Service) Transcribe(ctx context.Context, req Request) (res *Result, err error) {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, observability.SpanTranscribe)
	backendName := s.cfg.Provider
	defer func() {
		s.metrics.record(ctx, backendName, time.Since(start), err)
		observability.EndSpan(span, err)
	}()
	log := s.log.WithContext(ctx)

	if err := validateRequest(req); err != nil {
		return nil, err
	}

	backend, err := s.ensureBackend(ctx)
	if err != nil {
		log.Error("transcription backend unavailable", logger.ErrorFields("init_backend", err))
		return nil, err
	}
	backendName = backend.Name()
	span.SetAttributes(attribute.String(observability.AttrProvider, backendName))

	path := req.AudioPath
	if path == "" {
		tmp, err := s.writeTemp(req.Utterance, req.SampleRate)
		if err != nil {
			return nil, err
		}
		defer func() {
			if rerr := os.Remove(tmp); rerr != nil && !os.IsNotExist(rerr) {
				log.Warn("removing temp audio failed", logger.Fields(logger.FieldPath, tmp, logger.FieldError, rerr))
			}
		}()
		path = tmp
	}

	params := s.EffectiveParams(req.Params)
	if err := validateParams(params); err != nil {
		return nil, err
	}

	run := func() error {
		info, segs, err := backend.Transcribe(ctx, path, params)
		if err != nil {
			return err
		}
		r, err := Collect(ctx, info, segs)
		if err != nil {
			return err
		}
		res = r
		return nil
	}
	if err := s.bulkhead.Execute(ctx, func() error { return s.breaker.Execute(run) }); err != nil {
		mapped := s.mapError(ctx, backendName, err)
		log.Error("transcription failed", logger.Fields(
			logger.FieldProvider, backendName,
			logger.FieldError, err,
		))
		return nil, mapped
	}

	span.SetAttributes(
		attribute.String(observability.AttrLanguage, res.Language),
		attribute.Int(observability.AttrSegments, len(res.Segments)),
	)
	log.Info("transcription completed", logger.Fields(
		logger.FieldProvider, backendName,
		"language", res.Language,
		"segments", len(res.Segments),
		"chars", len(res.Text),
		logger.FieldDuration, time.Since(start).Milliseconds(),
	))
	return res, nil
}

func (s *Service) writeTemp(u audio.Utterance, sampleRate int) (string, error) {
	f, err := os.CreateTemp(s.cfg.TempDir, "voicegate-*.wav")
	if err != nil {
		return "", errors.Internal(fmt.Errorf("create temp audio: %w", err))
	}
	name := f.Name()
	encErr := audio.EncodeWAV(f, u, sampleRate)
	closeErr := f.Close()
	if err := stderrors.Join(encErr, closeErr); err != nil {
		_ = os.Remove(name)
		return "", errors.Internal(fmt.Errorf("encode temp audio: %w", err))
	}
	return name, nil
}

func (s *Service) mapError(ctx context.Context, backend string, err error) error {
	switch {
	case stderrors.Is(err, resilience.ErrCircuitOpen):
		return errors.ModelUnavailable(backend, err)
	case stderrors.Is(err, resilience.ErrBulkheadFull), stderrors.Is(err, resilience.ErrBulkheadTimeout):
		return errors.ServiceUnavailable("transcription backend").WithCause(err)
	case stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(ctx.Err(), context.DeadlineExceeded):
		return errors.Timeout("transcribe").WithCause(err)
	}
	if appErr, ok := errors.AsAppError(err); ok {
		return appErr
	}
	return errors.TranscriptionFailed(err)
}

// isBackendFailure counts errors against the breaker except cancellations
// and client errors.
func isBackendFailure(err error) bool {
	if err == nil || stderrors.Is(err, context.Canceled) {
		return false
	}
	if appErr, ok := errors.AsAppError(err); ok && appErr.HTTPStatus < http.StatusInternalServerError {
		return false
	}
	return true
}

func validateRequest(req Request) error {
	if req.AudioPath != "" {
		return nil
	}
	if len(req.Utterance) == 0 {
		return errors.InvalidInput("audio", "utterance is empty")
	}
	if req.SampleRate <= 0 {
		return errors.InvalidInput("sample_rate", "must be positive")
	}
	return nil
}

func validateParams(p Params) error {
	if p.BeamSize < 1 {
		return errors.InvalidInput("beam_size", "must be at least 1")
	}
	if p.Task != TaskTranscribe && p.Task != TaskTranslate {
		return errors.InvalidInput("task", "must be transcribe or translate")
	}
	return nil
}

// ModelInfo reports the backend setup and whether it is loaded.
func (s *Service) ModelInfo() ModelInfo {
	info := ModelInfo{
		Provider:    s.cfg.Provider,
		Model:       s.cfg.Model,
		Device:      s.cfg.Device,
		ComputeType: s.cfg.ComputeType,
		Loaded:      s.lazy.IsInitialized(),
		VADFilter:   s.cfg.Params().VADFilter,
		BeamSize:    s.cfg.BeamSize,
	}
	s.mu.RLock()
	backend := s.backend
	s.mu.RUnlock()
	if backend != nil {
		info.Provider = backend.Name()
		if d, ok := backend.(ModelDescriber); ok {
			info.Model, info.Device, info.ComputeType = d.Model()
		}
		if r, ok := backend.(LoadReporter); ok {
			info.Loaded = info.Loaded && r.Loaded()
		}
	}
	return info
}

// Name implements component.Component.
func (s *Service) Name() string { return "transcription" }

// Start preloads the backend when configured. A preload failure is logged
// and left for the first request to retry.
func (s *Service) Start(ctx context.Context) error {
	if !s.cfg.Preload {
		return nil
	}
	if _, err := s.ensureBackend(ctx); err != nil {
		s.log.Warn("backend preload failed", logger.ErrorFields("preload", err))
	}
	return nil
}

// Stop releases the backends.
func (s *Service) Stop(ctx context.Context) error {
	return stderrors.Join(s.lazy.Close(), s.manager.Close(ctx))
}

// Health reports degraded until the backend is loaded and unhealthy after a
// failed load or while the breaker is open.
func (s *Service) Health(ctx context.Context) component.Health {
	h := component.Health{Name: s.Name(), Status: component.StatusHealthy}
	switch {
	case s.breaker.State() == resilience.StateOpen:
		h.Status, h.Message = component.StatusUnhealthy, "circuit open"
	case s.lazy.LastError() != nil && !s.lazy.IsInitialized():
		h.Status, h.Message = component.StatusUnhealthy, s.lazy.LastError().Error()
	case !s.lazy.IsInitialized():
		h.Status, h.Message = component.StatusDegraded, "model not loaded yet"
	}
	return h
}

// Describe implements component.Describable.
func (s *Service) Describe() component.Description {
	return component.Description{
		Name: "Transcription",
		Type: "transcription",
		Details: fmt.Sprintf("%s model=%s device=%s compute=%s beam=%d vad=%v",
			s.cfg.Provider, s.cfg.Model, s.cfg.Device, s.cfg.ComputeType, s.cfg.BeamSize, s.cfg.Params().VADFilter),
	}
}
