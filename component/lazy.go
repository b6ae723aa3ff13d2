package component

import (
	"context"
	"sync"

	"github.com/kbukum/voicegate/logger"
)

// Lazy runs an initializer once, on first use. A failed run is not cached:
// the next Initialize call tries again. State queries never wait for a run
// in progress.
type Lazy struct {
	name string
	init func(ctx context.Context) error

	// runMu serializes init and close runs; mu guards only the fields below.
	runMu       sync.Mutex
	mu          sync.RWMutex
	initialized bool
	lastErr     error
	closer      func() error
}

// NewLazy creates a lazy guard around init.
func NewLazy(name string, init func(ctx context.Context) error) *Lazy {
	return &Lazy{name: name, init: init}
}

// WithCloser sets the function Close runs after a successful initialization.
func (l *Lazy) WithCloser(fn func() error) *Lazy {
	l.closer = fn
	return l
}

// Name returns the guard's name.
func (l *Lazy) Name() string { return l.name }

// Initialize runs the initializer unless a previous run succeeded.
// Concurrent callers wait for the one in progress.
func (l *Lazy) Initialize(ctx context.Context) error {
	if l.IsInitialized() {
		return nil
	}

	l.runMu.Lock()
	defer l.runMu.Unlock()
	if l.IsInitialized() {
		return nil
	}

	log := logger.Get("component").WithContext(ctx)
	log.Debug("initializing", logger.Fields(logger.FieldComponent, l.name))
	err := l.init(ctx)

	l.mu.Lock()
	l.initialized = err == nil
	l.lastErr = err
	l.mu.Unlock()

	if err != nil {
		log.Warn("initialization failed", logger.Fields(logger.FieldComponent, l.name, logger.FieldError, err))
		return err
	}
	log.Info("initialized", logger.Fields(logger.FieldComponent, l.name))
	return nil
}

// IsInitialized reports whether a run has succeeded.
func (l *Lazy) IsInitialized() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.initialized
}

// LastError returns the error of the most recent failed run, if any.
func (l *Lazy) LastError() error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.lastErr
}

// Close runs the closer if initialized and resets the guard.
func (l *Lazy) Close() error {
	l.runMu.Lock()
	defer l.runMu.Unlock()

	var err error
	if l.IsInitialized() && l.closer != nil {
		err = l.closer()
	}
	l.mu.Lock()
	l.initialized = false
	l.mu.Unlock()
	return err
}
