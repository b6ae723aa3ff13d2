package capture

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/kbukum/voicegate/audio"
	"github.com/kbukum/voicegate/errors"
	"github.com/kbukum/voicegate/logger"
	"github.com/kbukum/voicegate/observability"
)

type stampedBlock struct {
	block audio.Block
	at    time.Time
}

// Recorder drives recording sessions over one Source. It runs one session at
// a time.
type Recorder struct {
	source  Source
	cfg     Config
	ctrl    *Controller
	now     func() time.Time
	log     *logger.Logger
	metrics *metrics

	busy    atomic.Bool
	dropped atomic.Int64
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithClock overrides the clock used to stamp block arrival.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) { r.now = now }
}

// WithLogger sets the recorder's logger.
func WithLogger(l *logger.Logger) Option {
	return func(r *Recorder) { r.log = l }
}

// NewRecorder creates a Recorder reading from source.
func NewRecorder(source Source, cfg Config, opts ...Option) *Recorder {
	cfg.ApplyDefaults()
	r := &Recorder{
		source:  source,
		cfg:     cfg,
		ctrl:    NewController(cfg),
		now:     time.Now,
		log:     logger.Get("capture"),
		metrics: newMetrics(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Controller exposes the session state machine for status reporting.
func (r *Recorder) Controller() *Controller { return r.ctrl }

// Config returns the effective configuration.
func (r *Recorder) Config() Config { return r.cfg }

// Record runs one session until trailing silence, cancellation, end of
// stream or the maximum duration. The source is closed before Record
// returns. Cancellation is not an error: the partial recording comes back
// with StopCanceled. A concurrent call fails with a CONFLICT error.
func (r *Recorder) Record(ctx context.Context) (rec *Recording, err error) {
	if !r.busy.CompareAndSwap(false, true) {
		return nil, errors.Conflict("a recording is already in progress")
	}
	defer r.busy.Store(false)

	id := uuid.NewString()
	ctx = logger.ContextWithRecordingID(ctx, id)
	ctx, span := observability.StartSpan(ctx, observability.SpanRecord)
	span.SetAttributes(attribute.String(observability.AttrRecordingID, id))
	defer func() { observability.EndSpan(span, err) }()
	log := r.log.WithContext(ctx)

	r.ctrl.Reset()
	r.dropped.Store(0)

	queue := make(chan stampedBlock, r.cfg.QueueSize)
	drain := make(chan struct{})
	consumed := make(chan struct{})
	go r.consume(ctx, queue, drain, consumed)

	handler := func(b audio.Block) {
		if r.ctrl.StopRequested() {
			return
		}
		select {
		case queue <- stampedBlock{block: b, at: r.now()}:
		default:
			r.dropped.Add(1)
		}
	}

	var finishOnce sync.Once
	finish := func() {
		finishOnce.Do(func() {
			if cerr := r.source.Close(); cerr != nil {
				log.Warn("closing audio source failed", logger.ErrorFields("close_source", cerr))
			}
			close(drain)
			<-consumed
		})
	}
	defer finish()

	started := r.now()
	if err := r.source.Open(ctx, handler); err != nil {
		log.Error("opening audio source failed", logger.ErrorFields("open_source", err))
		return nil, fmt.Errorf("open audio source: %w", err)
	}
	log.Info("recording started", logger.Fields(
		"sample_rate", r.cfg.SampleRate,
		"block_size", r.cfg.BlockSize,
		"silence_ms", r.cfg.SilenceDuration.Milliseconds(),
	))

	reason := r.wait(ctx)
	finish()

	if reason == StopSourceEnded && r.ctrl.StopRequested() {
		reason = StopSilence
	}

	speech, silence, ignored := r.ctrl.Counts()
	rec = &Recording{
		ID:            id,
		Utterance:     r.ctrl.Utterance(),
		SampleRate:    r.cfg.SampleRate,
		StopReason:    reason,
		Blocks:        r.ctrl.Blocks(),
		SpeechBlocks:  speech,
		SilenceBlocks: silence,
		Ignored:       ignored,
		Dropped:       r.dropped.Load(),
		StartedAt:     started,
		EndedAt:       r.now(),
	}

	r.metrics.session(ctx, rec)
	span.SetAttributes(
		attribute.String(observability.AttrStopReason, string(reason)),
		attribute.Int(observability.AttrBlocks, rec.Blocks),
	)
	log.Info("recording finished", logger.Fields(
		"stop_reason", string(reason),
		"blocks", rec.Blocks,
		"dropped", rec.Dropped,
		"audio_ms", rec.AudioDuration().Milliseconds(),
	))
	return rec, nil
}

// wait polls until the session has a reason to end.
func (r *Recorder) wait(ctx context.Context) StopReason {
	ticker := time.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()

	var deadline <-chan time.Time
	if r.cfg.MaxDuration > 0 {
		timer := time.NewTimer(r.cfg.MaxDuration)
		defer timer.Stop()
		deadline = timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return StopCanceled
		case <-r.source.Done():
			return StopSourceEnded
		case <-deadline:
			return StopMaxDuration
		case <-ticker.C:
			if r.ctrl.StopRequested() {
				return StopSilence
			}
		}
	}
}

// consume feeds queued blocks to the controller in arrival order. Once drain
// is closed it processes what is still queued and exits.
func (r *Recorder) consume(ctx context.Context, queue <-chan stampedBlock, drain <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	apply := func(sb stampedBlock) {
		r.metrics.block(ctx, r.ctrl.Process(sb.block, sb.at))
	}
	for {
		select {
		case sb := <-queue:
			apply(sb)
		case <-drain:
			for {
				select {
				case sb := <-queue:
					apply(sb)
				default:
					return
				}
			}
		}
	}
}
