package s3

import (
	"strings"

	"github.com/kbukum/voicegate/validation"
)

// DefaultRegion applies when `archive.s3.region` is empty.
const DefaultRegion = "us-east-1"

// DefaultPrefix keeps archived recordings apart from other objects in a
// shared bucket.
const DefaultPrefix = "voicegate"

// Config is read from `archive.s3.*`. Static credentials are optional; the
// SDK's default chain (environment, shared config, instance role) is used
// when both keys are empty.
type Config struct {
	Bucket string `mapstructure:"bucket" json:"bucket" validate:"required"`
	Prefix string `mapstructure:"prefix" json:"prefix"`
	Region string `mapstructure:"region" json:"region" validate:"required"`
	// Endpoint targets an S3-compatible service such as MinIO and implies
	// path-style addressing.
	Endpoint       string `mapstructure:"endpoint" json:"endpoint" validate:"omitempty,url"`
	AccessKey      string `mapstructure:"access_key" json:"-" validate:"required_with=SecretKey"`
	SecretKey      string `mapstructure:"secret_key" json:"-" validate:"required_with=AccessKey"`
	ForcePathStyle bool   `mapstructure:"force_path_style" json:"force_path_style"`
}

// ApplyDefaults fills the region and normalises the prefix. A prefix of
// "/" stores objects at the bucket root.
func (c *Config) ApplyDefaults() {
	if c.Region == "" {
		c.Region = DefaultRegion
	}
	if c.Prefix == "" {
		c.Prefix = DefaultPrefix
	}
	c.Prefix = strings.Trim(c.Prefix, "/")
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	return validation.Validate(c)
}

// staticCredentials reports whether explicit keys were configured.
func (c *Config) staticCredentials() bool {
	return c.AccessKey != "" && c.SecretKey != ""
}
