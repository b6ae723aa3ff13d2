package storage

import (
	"fmt"

	"github.com/kbukum/voicegate/validation"
)

// Provider constants for supported storage backends.
const (
	ProviderLocal = "local"
	ProviderS3    = "s3"
)

// DefaultProvider is used when none is configured.
const DefaultProvider = ProviderLocal

// Config selects and configures a storage backend.
type Config struct {
	// Enabled controls whether the storage component is active.
	Enabled bool `mapstructure:"enabled" json:"enabled"`

	// Provider selects the storage backend: "local" or "s3".
	Provider string `mapstructure:"provider" json:"provider" validate:"omitempty,oneof=local s3"`

	// Per-backend options, decoded by each backend's factory.
	Local map[string]any `mapstructure:"local" json:"local,omitempty"`
	S3    map[string]any `mapstructure:"s3" json:"s3,omitempty"`
}

// ApplyDefaults fills in zero-valued fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Provider == "" {
		c.Provider = DefaultProvider
	}
}

// Validate checks that the configuration names a known provider.
func (c *Config) Validate() error {
	return validation.Validate(c)
}

// ProviderConfig returns the option map for the selected backend.
func (c *Config) ProviderConfig() map[string]any {
	switch c.Provider {
	case ProviderLocal:
		return c.Local
	case ProviderS3:
		return c.S3
	}
	return nil
}

// describe summarises the selected backend for the startup banner.
func (c *Config) describe() string {
	details := fmt.Sprintf("provider=%s", c.Provider)
	opts := c.ProviderConfig()
	for _, key := range []string{"bucket", "base_path"} {
		if v, ok := opts[key]; ok && v != "" {
			details += fmt.Sprintf(" %s=%v", key, v)
		}
	}
	return details
}
