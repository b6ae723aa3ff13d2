// Package config loads service configuration with Viper.
//
// Values come from config.yml, a .env file, PREFIX_SECTION_KEY environment
// variables and explicitly bound command-line flags, in increasing order of
// precedence. Application configs embed ServiceConfig:
//
//	type Config struct {
//	    config.ServiceConfig `mapstructure:",squash"`
//	    Capture capture.Config `mapstructure:"capture"`
//	}
//
//	var cfg Config
//	err := config.LoadConfig("voicegate", &cfg, config.WithFlags(fs, keys))
package config
