// Package fasterwhisper is a local transcription backend. It runs the
// faster-whisper Python package through an embedded helper script that
// keeps the model loaded and answers one request per stdin line with a
// stream of JSON lines.
package fasterwhisper

import (
	"bufio"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/kbukum/voicegate/logger"
	"github.com/kbukum/voicegate/process"
	"github.com/kbukum/voicegate/provider"
	"github.com/kbukum/voicegate/transcription"
)

//go:embed assets/helper.py
var helperScript []byte

const (
	// ProviderName is the registered name for the local backend.
	ProviderName = "fasterwhisper"

	defaultPython      = "python3"
	defaultModel       = "base"
	defaultDevice      = "cpu"
	defaultComputeType = "int8"
	defaultProbe       = 30 * time.Second
	defaultLoad        = 10 * time.Minute
	maxLine            = 1 << 20
)

// Config holds the local backend settings (`transcription.fasterwhisper.*`).
type Config struct {
	Python       string        `mapstructure:"python"`
	Model        string        `mapstructure:"model"`
	Device       string        `mapstructure:"device"`
	ComputeType  string        `mapstructure:"compute_type"`
	Language     string        `mapstructure:"language"`
	ProbeTimeout time.Duration `mapstructure:"probe_timeout"`
	// LoadTimeout bounds helper startup, model download included.
	LoadTimeout time.Duration `mapstructure:"load_timeout"`
	GracePeriod time.Duration `mapstructure:"grace_period"`
	// WorkDir receives the helper script; empty uses the system temp dir.
	WorkDir string   `mapstructure:"work_dir"`
	Env     []string `mapstructure:"env"`
}

// Provider implements transcription.Provider on top of one long-running
// helper process. Requests are served one at a time.
type Provider struct {
	cfg    Config
	runner *process.Adapter
	log    *logger.Logger

	// busy holds a token while a request owns the worker.
	busy chan struct{}

	mu     sync.Mutex
	script string
	worker *worker
}

var (
	_ transcription.Provider       = (*Provider)(nil)
	_ transcription.ModelDescriber = (*Provider)(nil)
	_ transcription.LoadReporter   = (*Provider)(nil)
	_ provider.Initializable       = (*Provider)(nil)
	_ provider.Closeable           = (*Provider)(nil)
)

// NewProvider creates a local backend.
func NewProvider(cfg Config) *Provider {
	if cfg.Python == "" {
		cfg.Python = defaultPython
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Device == "" {
		cfg.Device = defaultDevice
	}
	if cfg.ComputeType == "" {
		cfg.ComputeType = defaultComputeType
	}
	if cfg.ProbeTimeout == 0 {
		cfg.ProbeTimeout = defaultProbe
	}
	if cfg.LoadTimeout == 0 {
		cfg.LoadTimeout = defaultLoad
	}
	return &Provider{
		cfg:    cfg,
		runner: process.NewAdapter(process.Config{GracePeriod: cfg.GracePeriod, Env: cfg.Env}),
		log:    logger.Get("transcription.fasterwhisper"),
		busy:   make(chan struct{}, 1),
	}
}

// Factory returns a provider.Factory decoding the option map into Config.
func Factory() provider.Factory[transcription.Provider] {
	return func(raw map[string]any) (transcription.Provider, error) {
		var cfg Config
		if err := provider.DecodeConfig(raw, &cfg); err != nil {
			return nil, err
		}
		return NewProvider(cfg), nil
	}
}

// Name returns the provider name.
func (p *Provider) Name() string { return ProviderName }

// Model reports the configured model setup.
func (p *Provider) Model() (string, string, string) {
	return p.cfg.Model, p.cfg.Device, p.cfg.ComputeType
}

// Loaded reports whether the helper is running with the model in memory.
func (p *Provider) Loaded() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.worker != nil
}

// IsAvailable reports whether the interpreter can import faster_whisper.
func (p *Provider) IsAvailable(ctx context.Context) bool {
	return p.probe(ctx) == nil
}

// Init checks the Python environment and starts the helper, which loads
// the model before Init returns.
func (p *Provider) Init(ctx context.Context) error {
	if err := p.probe(ctx); err != nil {
		return err
	}
	w, err := p.acquireWorker(ctx)
	if err != nil {
		return err
	}
	p.log.Info("local backend ready", logger.Fields("python", p.cfg.Python, "model", p.cfg.Model, "device", p.cfg.Device, "pid", w.stream.Pid()))
	return nil
}

func (p *Provider) probe(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.ProbeTimeout)
	defer cancel()
	res, err := p.runner.Run(ctx, process.Command{
		Binary: p.cfg.Python,
		Args:   []string{"-c", "import faster_whisper"},
	})
	if err != nil {
		if detail := res.Detail(); detail != "" {
			return fmt.Errorf("faster_whisper unavailable via %s: %w: %s", p.cfg.Python, err, detail)
		}
		return fmt.Errorf("faster_whisper unavailable via %s: %w", p.cfg.Python, err)
	}
	return nil
}

func (p *Provider) ensureScriptLocked() (string, error) {
	if p.script != "" {
		return p.script, nil
	}
	f, err := os.CreateTemp(p.cfg.WorkDir, "voicegate-fw-*.py")
	if err != nil {
		return "", fmt.Errorf("create helper script: %w", err)
	}
	_, werr := f.Write(helperScript)
	cerr := f.Close()
	if werr != nil || cerr != nil {
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("write helper script: %w", firstErr(werr, cerr))
	}
	p.script = f.Name()
	return p.script, nil
}

// acquireWorker returns the running helper, starting it when there is
// none. Startup blocks until the helper reports the model loaded.
func (p *Provider) acquireWorker(ctx context.Context) (*worker, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.worker != nil {
		return p.worker, nil
	}
	script, err := p.ensureScriptLocked()
	if err != nil {
		return nil, err
	}

	// The helper outlives the request that started it.
	stream, err := p.runner.Start(context.WithoutCancel(ctx), process.Command{
		Binary: p.cfg.Python,
		Args: []string{script,
			"--model", p.cfg.Model,
			"--device", p.cfg.Device,
			"--compute-type", p.cfg.ComputeType,
		},
		OpenStdin: true,
	})
	if err != nil {
		return nil, err
	}
	w := newWorker(stream)

	ready := make(chan error, 1)
	go func() { ready <- w.awaitReady() }()
	timer := time.NewTimer(p.cfg.LoadTimeout)
	defer timer.Stop()
	select {
	case err = <-ready:
	case <-timer.C:
		err = fmt.Errorf("faster-whisper: model %s not loaded within %s", p.cfg.Model, p.cfg.LoadTimeout)
	case <-ctx.Done():
		err = ctx.Err()
	}
	if err != nil {
		w.stop()
		return nil, err
	}
	p.worker = w
	p.log.Debug("helper started", logger.Fields("pid", stream.Pid(), "model", p.cfg.Model))
	return w, nil
}

// discard stops w and forgets it, so the next request starts a fresh
// helper.
func (p *Provider) discard(w *worker) {
	p.mu.Lock()
	if p.worker == w {
		p.worker = nil
	}
	p.mu.Unlock()
	w.stop()
}

// Close stops the helper and removes the script.
func (p *Provider) Close(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.worker != nil {
		p.worker.stop()
		p.worker = nil
	}
	if p.script == "" {
		return nil
	}
	err := os.Remove(p.script)
	p.script = ""
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Transcribe sends audioPath to the helper and returns once it has
// reported the audio metadata. Segments are read as the iterator
// advances and the helper stays reserved until the iterator is exhausted
// or closed. Closing early, or cancelling ctx, stops the helper; the next
// request starts a new one.
func (p *Provider) Transcribe(ctx context.Context, audioPath string, params transcription.Params) (transcription.Info, provider.Iterator[transcription.Segment], error) {
	select {
	case p.busy <- struct{}{}:
	case <-ctx.Done():
		return transcription.Info{}, nil, ctx.Err()
	}
	req := &request{p: p, release: func() { <-p.busy }}

	w, err := p.acquireWorker(ctx)
	if err != nil {
		req.finish(false)
		return transcription.Info{}, nil, err
	}
	req.w = w
	req.stopWatch = context.AfterFunc(ctx, func() { p.discard(w) })

	if err := w.send(p.buildRequest(audioPath, params)); err != nil {
		req.finish(false)
		return transcription.Info{}, nil, err
	}

	first, err := w.next()
	if err != nil {
		req.finish(isHelperError(err))
		return transcription.Info{}, nil, req.wrap(ctx, err)
	}
	if first.Type != lineInfo {
		req.finish(false)
		return transcription.Info{}, nil, fmt.Errorf("helper: expected info line, got %q", first.Type)
	}

	info := transcription.Info{
		Language:            first.Language,
		LanguageProbability: first.LanguageProbability,
		Duration:            first.Duration,
	}
	return info, provider.NewFuncIterator(req.next, req.close), nil
}

// wireRequest is one line on the helper's stdin.
type wireRequest struct {
	Audio                     string  `json:"audio"`
	BeamSize                  int     `json:"beam_size"`
	VADFilter                 bool    `json:"vad_filter"`
	Temperature               float64 `json:"temperature"`
	CompressionRatioThreshold float64 `json:"compression_ratio_threshold"`
	LogProbThreshold          float64 `json:"log_prob_threshold"`
	NoSpeechThreshold         float64 `json:"no_speech_threshold"`
	Task                      string  `json:"task,omitempty"`
	Language                  string  `json:"language,omitempty"`
}

func (p *Provider) buildRequest(audioPath string, params transcription.Params) wireRequest {
	lang := params.Language
	if lang == "" {
		lang = p.cfg.Language
	}
	return wireRequest{
		Audio:                     audioPath,
		BeamSize:                  params.BeamSize,
		VADFilter:                 params.VADFilter,
		Temperature:               params.Temperature,
		CompressionRatioThreshold: params.CompressionRatioThreshold,
		LogProbThreshold:          params.LogProbThreshold,
		NoSpeechThreshold:         params.NoSpeechThreshold,
		Task:                      params.Task,
		Language:                  lang,
	}
}

// request tracks one transcription holding the worker.
type request struct {
	p         *Provider
	w         *worker
	release   func()
	stopWatch func() bool
	done      bool
}

// finish hands the worker back. A worker left mid-reply is stopped.
func (r *request) finish(keep bool) {
	if r.done {
		return
	}
	r.done = true
	if r.stopWatch != nil {
		r.stopWatch()
	}
	if r.w != nil && !keep {
		r.p.discard(r.w)
	}
	r.release()
}

// wrap prefers the context error when the helper was stopped by a
// cancellation, and otherwise adds the helper's stderr to unexpected
// failures.
func (r *request) wrap(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if isHelperError(err) {
		return err
	}
	return r.w.exitError(err.Error())
}

func (r *request) next(ctx context.Context) (transcription.Segment, bool, error) {
	if r.done {
		return transcription.Segment{}, false, nil
	}
	if err := ctx.Err(); err != nil {
		r.finish(false)
		return transcription.Segment{}, false, err
	}
	for {
		l, err := r.w.next()
		if err != nil {
			r.finish(isHelperError(err))
			return transcription.Segment{}, false, r.wrap(ctx, err)
		}
		switch l.Type {
		case lineDone:
			r.finish(true)
			return transcription.Segment{}, false, nil
		case lineSegment:
			return transcription.Segment{Start: l.Start, End: l.End, Text: l.Text, Confidence: l.AvgLogprob}, true, nil
		}
	}
}

func (r *request) close() error {
	r.finish(false)
	return nil
}

const (
	lineReady   = "ready"
	lineInfo    = "info"
	lineSegment = "segment"
	lineDone    = "done"
	lineError   = "error"
)

type line struct {
	Type                string   `json:"type"`
	Message             string   `json:"message"`
	Language            string   `json:"language"`
	LanguageProbability float64  `json:"language_probability"`
	Duration            float64  `json:"duration"`
	Start               float64  `json:"start"`
	End                 float64  `json:"end"`
	Text                string   `json:"text"`
	AvgLogprob          *float64 `json:"avg_logprob"`
}

// helperError is a failure the helper reported on an error line. The
// helper stays usable after one.
type helperError struct{ msg string }

func (e *helperError) Error() string { return "faster-whisper: " + e.msg }

func isHelperError(err error) bool {
	var he *helperError
	return errors.As(err, &he)
}

var errHelperExited = errors.New("helper exited")

// worker is a running helper.
type worker struct {
	stream  *process.Stream
	stdin   io.WriteCloser
	scanner *bufio.Scanner
	once    sync.Once
}

func newWorker(stream *process.Stream) *worker {
	sc := bufio.NewScanner(stream.Stdout())
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)
	return &worker{stream: stream, stdin: stream.Stdin(), scanner: sc}
}

func (w *worker) awaitReady() error {
	l, err := w.next()
	if err != nil {
		if isHelperError(err) {
			return err
		}
		return w.exitError(err.Error())
	}
	if l.Type != lineReady {
		return fmt.Errorf("helper: expected ready line, got %q", l.Type)
	}
	return nil
}

func (w *worker) send(req wireRequest) error {
	b, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("helper: encode request: %w", err)
	}
	if _, err := w.stdin.Write(append(b, '\n')); err != nil {
		return w.exitError("send request: " + err.Error())
	}
	return nil
}

// next returns the next decoded line. An error line is returned as a
// *helperError and the end of output as errHelperExited.
func (w *worker) next() (line, error) {
	for w.scanner.Scan() {
		raw := strings.TrimSpace(w.scanner.Text())
		if raw == "" {
			continue
		}
		var l line
		if err := json.Unmarshal([]byte(raw), &l); err != nil {
			return line{}, fmt.Errorf("helper: decode line: %w", err)
		}
		if l.Type == lineError {
			return line{}, &helperError{msg: l.Message}
		}
		return l, nil
	}
	if err := w.scanner.Err(); err != nil {
		return line{}, fmt.Errorf("helper: read output: %w", err)
	}
	return line{}, errHelperExited
}

// stop closes the helper's input and terminates it.
func (w *worker) stop() {
	w.once.Do(func() { _ = w.stream.Stop() })
}

// exitError waits for the helper and reports its stderr alongside msg.
func (w *worker) exitError(msg string) error {
	w.stop()
	res, _ := w.stream.Wait()
	if detail := res.Detail(); detail != "" {
		return fmt.Errorf("faster-whisper: %s: %s", msg, detail)
	}
	return fmt.Errorf("faster-whisper: %s", msg)
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
