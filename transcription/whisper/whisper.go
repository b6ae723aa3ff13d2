// Package whisper is a transcription backend that talks to a faster-whisper
// HTTP sidecar.
package whisper

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/kbukum/voicegate/logger"
	"github.com/kbukum/voicegate/provider"
	"github.com/kbukum/voicegate/transcription"
)

const (
	// ProviderName is the registered name for the sidecar backend.
	ProviderName = "whisper"

	defaultURL     = "http://localhost:8387"
	defaultModel   = "base"
	defaultTimeout = 120 * time.Second
	probeTimeout   = 3 * time.Second
)

// Config holds the sidecar settings (`transcription.whisper.*`).
type Config struct {
	URL         string        `mapstructure:"url"`
	Model       string        `mapstructure:"model"`
	Language    string        `mapstructure:"language"`
	Device      string        `mapstructure:"device"`
	ComputeType string        `mapstructure:"compute_type"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// Provider implements transcription.Provider over the sidecar API.
type Provider struct {
	cfg    Config
	client *resty.Client
	log    *logger.Logger
}

var (
	_ transcription.Provider       = (*Provider)(nil)
	_ transcription.ModelDescriber = (*Provider)(nil)
	_ provider.Initializable       = (*Provider)(nil)
)

// NewProvider creates a sidecar backend.
func NewProvider(cfg Config) *Provider {
	if cfg.URL == "" {
		cfg.URL = defaultURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	client := resty.New().
		SetBaseURL(cfg.URL).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")
	return &Provider{cfg: cfg, client: client, log: logger.Get("transcription.whisper")}
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

// IsAvailable checks that the sidecar answers its health endpoint.
func (p *Provider) IsAvailable(ctx context.Context) bool {
	return p.probe(ctx) == nil
}

// Init verifies the sidecar is reachable before the first request.
func (p *Provider) Init(ctx context.Context) error {
	if err := p.probe(ctx); err != nil {
		return fmt.Errorf("whisper sidecar at %s: %w", p.cfg.URL, err)
	}
	p.log.Info("sidecar reachable", logger.Fields("url", p.cfg.URL, "model", p.cfg.Model))
	return nil
}

func (p *Provider) probe(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	resp, err := p.client.R().SetContext(ctx).Get("/health")
	if err != nil {
		return err
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("health status %d", resp.StatusCode())
	}
	return nil
}

// FileField is the multipart field carrying the audio, as expected by the
// sidecar and by voicegate's own upload API.
const FileField = "file"

// Transcribe uploads the audio file with the decoding options and returns
// the decoded segments. Servers that take their decoding options from
// their own configuration ignore the extra form fields.
func (p *Provider) Transcribe(ctx context.Context, audioPath string, params transcription.Params) (transcription.Info, provider.Iterator[transcription.Segment], error) {
	lang := params.Language
	if lang == "" {
		lang = p.cfg.Language
	}
	form := map[string]string{
		"model":                       p.cfg.Model,
		"beam_size":                   strconv.Itoa(params.BeamSize),
		"vad_filter":                  strconv.FormatBool(params.VADFilter),
		"temperature":                 formatFloat(params.Temperature),
		"compression_ratio_threshold": formatFloat(params.CompressionRatioThreshold),
		"log_prob_threshold":          formatFloat(params.LogProbThreshold),
		"no_speech_threshold":         formatFloat(params.NoSpeechThreshold),
		"task":                        params.Task,
	}
	if lang != "" {
		form["language"] = lang
	}

	var out response
	resp, err := p.client.R().
		SetContext(ctx).
		SetFile(FileField, audioPath).
		SetFormData(form).
		SetResult(&out).
		Post("/transcribe")
	if err != nil {
		return transcription.Info{}, nil, fmt.Errorf("whisper request: %w", err)
	}
	if resp.IsError() {
		return transcription.Info{}, nil, fmt.Errorf("whisper error (status %d): %s", resp.StatusCode(), resp.String())
	}

	info, segs := out.toDomain()
	return info, provider.FromSlice(segs), nil
}

type response struct {
	Text                string    `json:"text"`
	Language            string    `json:"language"`
	LanguageProbability float64   `json:"language_probability"`
	Duration            float64   `json:"duration"`
	Segments            []segment `json:"segments"`
}

// segment accepts both the sidecar's "confidence" and the raw
// faster-whisper "avg_logprob" name; confidence wins when both are set.
type segment struct {
	Start      float64  `json:"start"`
	End        float64  `json:"end"`
	Text       string   `json:"text"`
	Confidence *float64 `json:"confidence"`
	AvgLogprob *float64 `json:"avg_logprob"`
}

func (s segment) confidence() *float64 {
	if s.Confidence != nil {
		return s.Confidence
	}
	return s.AvgLogprob
}

func (r *response) toDomain() (transcription.Info, []transcription.Segment) {
	segs := make([]transcription.Segment, len(r.Segments))
	for i, s := range r.Segments {
		segs[i] = transcription.Segment{Start: s.Start, End: s.End, Text: s.Text, Confidence: s.confidence()}
	}
	duration := r.Duration
	if duration == 0 && len(segs) > 0 {
		duration = segs[len(segs)-1].End
	}
	return transcription.Info{
		Language:            r.Language,
		LanguageProbability: r.LanguageProbability,
		Duration:            duration,
	}, segs
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
