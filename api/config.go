package api

import (
	"fmt"

	"github.com/kbukum/voicegate/util"
)

// DefaultMaxFileSize caps uploads at 10 MiB.
const DefaultMaxFileSize = 10 << 20

// DefaultAllowedTypes lists the content types accepted without a warning.
var DefaultAllowedTypes = []string{
	"audio/wav", "audio/mpeg", "audio/mp4", "audio/ogg",
	"audio/webm", "audio/flac", "audio/x-wav",
}

// Config holds the upload endpoint settings (`api.*`).
type Config struct {
	MaxFileSize  string   `yaml:"max_file_size" mapstructure:"max_file_size"`
	AllowedTypes []string `yaml:"allowed_types" mapstructure:"allowed_types"`
	TempDir      string   `yaml:"temp_dir" mapstructure:"temp_dir"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.MaxFileSize == "" {
		c.MaxFileSize = util.FormatSize(DefaultMaxFileSize)
	}
	if len(c.AllowedTypes) == 0 {
		c.AllowedTypes = DefaultAllowedTypes
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if util.ParseSize(c.MaxFileSize, -1) <= 0 {
		return fmt.Errorf("api.max_file_size %q must be a positive size", c.MaxFileSize)
	}
	return nil
}

// MaxBytes returns the upload cap in bytes.
func (c *Config) MaxBytes() int64 {
	return util.ParseSize(c.MaxFileSize, DefaultMaxFileSize)
}
