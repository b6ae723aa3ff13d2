package main

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/kbukum/voicegate/api"
	"github.com/kbukum/voicegate/capture"
	"github.com/kbukum/voicegate/config"
	"github.com/kbukum/voicegate/inbox"
	"github.com/kbukum/voicegate/server"
	"github.com/kbukum/voicegate/storage"
	"github.com/kbukum/voicegate/transcription"
)

const serviceName = "voicegate"

// AppConfig is the full voicegate configuration.
type AppConfig struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Capture       capture.Config       `yaml:"capture" mapstructure:"capture"`
	Transcription transcription.Config `yaml:"transcription" mapstructure:"transcription"`
	Server        server.Config        `yaml:"server" mapstructure:"server"`
	API           api.Config           `yaml:"api" mapstructure:"api"`
	Archive       storage.Config       `yaml:"archive" mapstructure:"archive"`
	Inbox         inbox.Config         `yaml:"inbox" mapstructure:"inbox"`
}

// ApplyDefaults fills every section.
func (c *AppConfig) ApplyDefaults() {
	if c.Name == "" {
		c.Name = serviceName
	}
	c.ServiceConfig.ApplyDefaults()
	c.Capture.ApplyDefaults()
	c.Transcription.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.API.ApplyDefaults()
	c.Archive.ApplyDefaults()
	c.Inbox.ApplyDefaults()
}

// Validate checks every section except the inbox, which only the watch
// command needs.
func (c *AppConfig) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	checks := []struct {
		section string
		check   func() error
	}{
		{"capture", c.Capture.Validate},
		{"transcription", c.Transcription.Validate},
		{"server", c.Server.Validate},
		{"api", c.API.Validate},
		{"archive", c.Archive.Validate},
	}
	for _, ch := range checks {
		if err := ch.check(); err != nil {
			return fmt.Errorf("%s: %w", ch.section, err)
		}
	}
	return nil
}

// defaults are the lowest-precedence values. server.port lives here rather
// than in server.Config because zero means "pick a free port".
func defaults() map[string]any {
	return map[string]any{
		"name":        serviceName,
		"server.port": server.DefaultPort,
	}
}

// commonFlags are accepted by every command that loads configuration.
type commonFlags struct {
	configFile string
	envFile    string
	logLevel   string
}

func (f *commonFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.configFile, "config", "c", "", "config file (default: ./config.yml if present)")
	fs.StringVar(&f.envFile, "env-file", "", ".env file to load")
	fs.StringVar(&f.logLevel, "log-level", "info", "log level: debug, info, warn, error")
}

// loadConfig loads AppConfig with flags from fs overriding the keys in
// flagKeys. The log level flag is always bound.
func loadConfig(fs *pflag.FlagSet, common *commonFlags, flagKeys map[string]string) (*AppConfig, error) {
	keys := map[string]string{"log-level": "logging.level"}
	for k, v := range flagKeys {
		keys[k] = v
	}

	cfg := &AppConfig{}
	opts := []config.LoaderOption{
		config.WithDefaults(defaults()),
		config.WithFlags(fs, keys),
	}
	if common.configFile != "" {
		opts = append(opts, config.WithConfigFile(common.configFile))
	}
	if common.envFile != "" {
		opts = append(opts, config.WithEnvFile(common.envFile))
	}
	if err := config.LoadConfig(serviceName, cfg, opts...); err != nil {
		return nil, err
	}
	return cfg, nil
}
