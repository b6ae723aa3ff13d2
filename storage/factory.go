package storage

import (
	"fmt"
	"sort"
	"sync"

	"github.com/kbukum/voicegate/logger"
)

// Factory creates a Storage from its backend options.
type Factory func(opts map[string]any) (Storage, error)

var (
	factoriesMu sync.RWMutex
	factories   = make(map[string]Factory)
)

// RegisterFactory registers a storage backend factory for the given provider name.
// Implementation packages call this (typically in an init function) to make
// themselves available to the New constructor.
func RegisterFactory(name string, f Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[name] = f
}

// Providers lists the registered backend names.
func Providers() []string {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New creates a Storage implementation based on the given Config.
// Ensure the desired provider package has been imported (e.g.
// _ "github.com/kbukum/voicegate/storage/local") so its factory is registered.
func New(cfg Config) (Storage, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	factoriesMu.RLock()
	f, ok := factories[cfg.Provider]
	factoriesMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("storage: unsupported provider %q (not registered)", cfg.Provider)
	}

	logger.Get("storage").Info("initializing storage", logger.Fields(logger.FieldProvider, cfg.Provider))
	s, err := f(cfg.ProviderConfig())
	if err != nil {
		return nil, fmt.Errorf("storage: %s: %w", cfg.Provider, err)
	}
	return s, nil
}
