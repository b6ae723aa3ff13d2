package transcription

import (
	"maps"
	"time"

	"github.com/kbukum/voicegate/resilience"
	"github.com/kbukum/voicegate/validation"
)

const (
	DefaultProvider    = "whisper"
	DefaultModel       = "base"
	DefaultDevice      = "cpu"
	DefaultComputeType = "int8"
	DefaultMaxWait     = 5 * time.Minute
)

// Config holds the transcription settings (`transcription.*`).
type Config struct {
	Provider string `mapstructure:"provider" validate:"required"`
	// Fallback is tried when Provider reports itself unavailable.
	Fallback    string `mapstructure:"fallback"`
	Model       string `mapstructure:"model"`
	Device      string `mapstructure:"device" validate:"omitempty,oneof=cpu cuda auto"`
	ComputeType string `mapstructure:"compute_type"`
	Language    string `mapstructure:"language"`

	BeamSize    int     `mapstructure:"beam_size" validate:"gte=1"`
	VADFilter   *bool   `mapstructure:"vad_filter"`
	Temperature float64 `mapstructure:"temperature" validate:"gte=0"`
	// Nil thresholds take the DefaultParams values; zero is a valid setting.
	CompressionRatioThreshold *float64 `mapstructure:"compression_ratio_threshold"`
	LogProbThreshold          *float64 `mapstructure:"log_prob_threshold"`
	NoSpeechThreshold         *float64 `mapstructure:"no_speech_threshold" validate:"omitempty,gte=0,lte=1"`

	// MaxConcurrent bounds simultaneous inferences; a local model serves one.
	MaxConcurrent int           `mapstructure:"max_concurrent" validate:"gte=1"`
	MaxWait       time.Duration `mapstructure:"max_wait" validate:"gte=0"`
	// Preload initializes the backend at startup instead of on first use.
	Preload bool   `mapstructure:"preload"`
	TempDir string `mapstructure:"temp_dir"`

	Breaker resilience.CircuitBreakerConfig `mapstructure:"breaker"`

	// Per-backend options, decoded by each backend's factory.
	Whisper       map[string]any `mapstructure:"whisper"`
	FasterWhisper map[string]any `mapstructure:"fasterwhisper"`
}

// ApplyDefaults fills unset values.
func (c *Config) ApplyDefaults() {
	def := DefaultParams()
	if c.Provider == "" {
		c.Provider = DefaultProvider
	}
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.Device == "" {
		c.Device = DefaultDevice
	}
	if c.ComputeType == "" {
		c.ComputeType = DefaultComputeType
	}
	if c.BeamSize == 0 {
		c.BeamSize = def.BeamSize
	}
	if c.VADFilter == nil {
		v := def.VADFilter
		c.VADFilter = &v
	}
	if c.CompressionRatioThreshold == nil {
		v := def.CompressionRatioThreshold
		c.CompressionRatioThreshold = &v
	}
	if c.LogProbThreshold == nil {
		v := def.LogProbThreshold
		c.LogProbThreshold = &v
	}
	if c.NoSpeechThreshold == nil {
		v := def.NoSpeechThreshold
		c.NoSpeechThreshold = &v
	}
	if c.MaxConcurrent == 0 {
		c.MaxConcurrent = 1
	}
	if c.MaxWait == 0 {
		c.MaxWait = DefaultMaxWait
	}
	if c.Breaker.Name == "" {
		c.Breaker.Name = "transcription"
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	return validation.Validate(c)
}

// Params returns the configured decoding options.
func (c *Config) Params() Params {
	p := DefaultParams()
	p.BeamSize = c.BeamSize
	if c.VADFilter != nil {
		p.VADFilter = *c.VADFilter
	}
	p.Temperature = c.Temperature
	if c.CompressionRatioThreshold != nil {
		p.CompressionRatioThreshold = *c.CompressionRatioThreshold
	}
	if c.LogProbThreshold != nil {
		p.LogProbThreshold = *c.LogProbThreshold
	}
	if c.NoSpeechThreshold != nil {
		p.NoSpeechThreshold = *c.NoSpeechThreshold
	}
	p.Language = c.Language
	return p
}

// BackendConfig returns the option map for the named backend with the
// shared model settings filled in where the backend does not set them.
func (c *Config) BackendConfig(name string) map[string]any {
	var src map[string]any
	switch name {
	case "whisper":
		src = c.Whisper
	case "fasterwhisper":
		src = c.FasterWhisper
	}
	out := make(map[string]any, len(src)+4)
	maps.Copy(out, src)
	for k, v := range map[string]any{
		"model":        c.Model,
		"device":       c.Device,
		"compute_type": c.ComputeType,
		"language":     c.Language,
	} {
		if _, ok := out[k]; !ok && v != "" {
			out[k] = v
		}
	}
	return out
}

// Priority returns the backend names in selection order.
func (c *Config) Priority() []string {
	if c.Fallback == "" || c.Fallback == c.Provider {
		return []string{c.Provider}
	}
	return []string{c.Provider, c.Fallback}
}
