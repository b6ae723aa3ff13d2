package process

import (
	"context"
	"time"
)

// Config holds defaults applied to every command an Adapter runs.
type Config struct {
	// GracePeriod is the default grace period for SIGTERM→SIGKILL.
	GracePeriod time.Duration `yaml:"grace_period,omitempty" mapstructure:"grace_period"`
	// Timeout bounds Run calls. Zero means no timeout. Streams are bounded
	// by their caller's context only.
	Timeout time.Duration `yaml:"timeout,omitempty" mapstructure:"timeout"`
	// Env is appended to every command's environment.
	Env []string `yaml:"env,omitempty" mapstructure:"env"`
}

// Adapter runs commands with shared defaults.
type Adapter struct {
	config Config
}

// NewAdapter creates a new process adapter.
func NewAdapter(cfg Config) *Adapter {
	return &Adapter{config: cfg}
}

func (a *Adapter) apply(cmd Command) Command {
	if cmd.GracePeriod == 0 && a.config.GracePeriod > 0 {
		cmd.GracePeriod = a.config.GracePeriod
	}
	if len(a.config.Env) > 0 {
		cmd.Env = append(append([]string(nil), a.config.Env...), cmd.Env...)
	}
	return cmd
}

// Run executes a command, applying adapter-level defaults.
func (a *Adapter) Run(ctx context.Context, cmd Command) (*Result, error) {
	if a.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.config.Timeout)
		defer cancel()
	}
	return Run(ctx, a.apply(cmd))
}

// Start launches a streaming command, applying adapter-level defaults.
func (a *Adapter) Start(ctx context.Context, cmd Command) (*Stream, error) {
	return Start(ctx, a.apply(cmd))
}
