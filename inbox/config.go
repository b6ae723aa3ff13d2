package inbox

import (
	"time"

	"github.com/kbukum/voicegate/validation"
)

// Defaults.
const (
	DefaultPattern   = "*.wav"
	DefaultWorkers   = 1
	DefaultSettle    = 500 * time.Millisecond
	DefaultDoneDir   = "processed"
	DefaultFailedDir = "failed"
)

// Config holds the inbox settings (`inbox.*`).
type Config struct {
	// Dir is the watched directory. It is created if missing.
	Dir string `mapstructure:"dir" validate:"required"`
	// Pattern is matched against file base names (filepath.Match syntax).
	Pattern string `mapstructure:"pattern"`
	// Workers bounds how many files are handled at once.
	Workers int `mapstructure:"workers" validate:"gte=1"`
	// Settle is how long a file must go without writes before it is handled.
	Settle time.Duration `mapstructure:"settle" validate:"gte=0"`
	// SkipExisting ignores files already present at startup.
	SkipExisting bool `mapstructure:"skip_existing"`
	// DoneDir and FailedDir, relative to Dir, receive handled files.
	DoneDir   string `mapstructure:"done_dir"`
	FailedDir string `mapstructure:"failed_dir"`
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	if c.Pattern == "" {
		c.Pattern = DefaultPattern
	}
	if c.Workers == 0 {
		c.Workers = DefaultWorkers
	}
	if c.Settle == 0 {
		c.Settle = DefaultSettle
	}
	if c.DoneDir == "" {
		c.DoneDir = DefaultDoneDir
	}
	if c.FailedDir == "" {
		c.FailedDir = DefaultFailedDir
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	return validation.Validate(c)
}
