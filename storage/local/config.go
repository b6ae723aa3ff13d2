package local

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/kbukum/voicegate/validation"
)

// DefaultBasePath holds the archive next to the working directory.
const DefaultBasePath = "./archive"

// Config is read from `archive.local.*`.
type Config struct {
	// BasePath may start with "~/" for the user's home directory.
	BasePath string `mapstructure:"base_path" json:"base_path" validate:"required"`
}

// ApplyDefaults sets the base path and expands a leading "~/".
func (c *Config) ApplyDefaults() {
	if c.BasePath == "" {
		c.BasePath = DefaultBasePath
	}
	if rest, ok := strings.CutPrefix(c.BasePath, "~/"); ok {
		if home, err := os.UserHomeDir(); err == nil {
			c.BasePath = filepath.Join(home, rest)
		}
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	return validation.Validate(c)
}
