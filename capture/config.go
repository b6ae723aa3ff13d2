package capture

import (
	"time"

	"github.com/kbukum/voicegate/audio"
	"github.com/kbukum/voicegate/validation"
)

const (
	DefaultEnergyThreshold = 0.01
	DefaultSilenceDuration = time.Second
	DefaultPollInterval    = 50 * time.Millisecond
	DefaultQueueSize       = 256
)

// Config holds the capture settings (`capture.*`).
type Config struct {
	SampleRate      int           `mapstructure:"sample_rate" validate:"gt=0"`
	BlockSize       int           `mapstructure:"block_size" validate:"gt=0"`
	EnergyThreshold *float64      `mapstructure:"energy_threshold" validate:"omitempty,gte=0"`
	SilenceDuration time.Duration `mapstructure:"silence_duration" validate:"gt=0"`
	PollInterval    time.Duration `mapstructure:"poll_interval" validate:"gt=0"`
	QueueSize       int           `mapstructure:"queue_size" validate:"gt=0"`
	// MaxDuration caps a session; zero disables the cap.
	MaxDuration time.Duration `mapstructure:"max_duration" validate:"gte=0"`
	// Device names the input device; empty selects the system default.
	Device string `mapstructure:"device"`
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	if c.SampleRate == 0 {
		c.SampleRate = audio.DefaultSampleRate
	}
	if c.BlockSize == 0 {
		c.BlockSize = audio.DefaultBlockSize
	}
	if c.EnergyThreshold == nil {
		v := DefaultEnergyThreshold
		c.EnergyThreshold = &v
	}
	if c.SilenceDuration == 0 {
		c.SilenceDuration = DefaultSilenceDuration
	}
	if c.PollInterval == 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.QueueSize == 0 {
		c.QueueSize = DefaultQueueSize
	}
}

// Threshold returns the mean absolute amplitude a block must exceed to
// count as speech. A nil EnergyThreshold selects DefaultEnergyThreshold;
// an explicit zero is kept.
func (c *Config) Threshold() float64 {
	if c.EnergyThreshold == nil {
		return DefaultEnergyThreshold
	}
	return *c.EnergyThreshold
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	return validation.Validate(c)
}
