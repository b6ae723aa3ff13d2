// Package inbox watches a directory and hands each new audio file to a
// handler once it has finished being written. Handled files are moved
// aside so they are processed once.
package inbox

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"

	"github.com/kbukum/voicegate/logger"
)

// Handler processes one file. A returned error moves the file to the
// failed directory.
type Handler func(ctx context.Context, path string) error

// Watcher feeds files from a directory to a Handler.
type Watcher struct {
	cfg     Config
	handler Handler
	log     *logger.Logger
}

// New creates a watcher. Call Run to start it.
func New(cfg Config, handler Handler) (*Watcher, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if _, err := filepath.Match(cfg.Pattern, ""); err != nil {
		return nil, fmt.Errorf("inbox: bad pattern %q: %w", cfg.Pattern, err)
	}
	return &Watcher{cfg: cfg, handler: handler, log: logger.Get("inbox")}, nil
}

// Run watches until ctx is canceled. Files being handled when ctx ends
// are allowed to finish; queued files that have not started are left in
// place for the next run.
func (w *Watcher) Run(ctx context.Context) error {
	for _, d := range []string{w.cfg.Dir, w.path(w.cfg.DoneDir), w.path(w.cfg.FailedDir)} {
		if err := os.MkdirAll(d, 0o750); err != nil {
			return fmt.Errorf("inbox: create %s: %w", d, err)
		}
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("inbox: create watcher: %w", err)
	}
	defer fw.Close()
	if err := fw.Add(w.cfg.Dir); err != nil {
		return fmt.Errorf("inbox: watch %s: %w", w.cfg.Dir, err)
	}

	w.log.Info("watching inbox", logger.Fields(logger.FieldPath, w.cfg.Dir, "pattern", w.cfg.Pattern, "workers", w.cfg.Workers))

	jobs := make(chan string, w.cfg.Workers)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(jobs)
		return w.loop(gctx, fw, jobs)
	})
	for range w.cfg.Workers {
		g.Go(func() error {
			for p := range jobs {
				if ctx.Err() != nil {
					continue
				}
				w.handle(context.WithoutCancel(ctx), p)
			}
			return nil
		})
	}
	return g.Wait()
}

// loop debounces filesystem events and queues settled files.
func (w *Watcher) loop(ctx context.Context, fw *fsnotify.Watcher, jobs chan<- string) error {
	pending := make(map[string]time.Time)
	if !w.cfg.SkipExisting {
		existing, err := w.existing()
		if err != nil {
			return err
		}
		for _, p := range existing {
			pending[p] = time.Time{}
		}
	}

	tick := time.NewTicker(w.tickInterval())
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return fmt.Errorf("inbox: watcher closed")
			}
			if ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write) {
				if w.matches(ev.Name) {
					pending[ev.Name] = time.Now()
				}
			}
			if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
				delete(pending, ev.Name)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return fmt.Errorf("inbox: watcher closed")
			}
			w.log.Warn("watcher error", logger.Fields(logger.FieldError, err))
		case now := <-tick.C:
			for _, p := range settled(pending, now, w.cfg.Settle) {
				delete(pending, p)
				select {
				case jobs <- p:
				case <-ctx.Done():
					return nil
				}
			}
		}
	}
}

func (w *Watcher) tickInterval() time.Duration {
	d := w.cfg.Settle / 2
	if d < 10*time.Millisecond {
		d = 10 * time.Millisecond
	}
	return d
}

// settled returns the pending paths quiet for at least settle, in name order.
func settled(pending map[string]time.Time, now time.Time, settle time.Duration) []string {
	var out []string
	for p, last := range pending {
		if now.Sub(last) >= settle {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}

func (w *Watcher) existing() ([]string, error) {
	entries, err := os.ReadDir(w.cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("inbox: read %s: %w", w.cfg.Dir, err)
	}
	var out []string
	for _, e := range entries {
		p := filepath.Join(w.cfg.Dir, e.Name())
		if !e.IsDir() && w.matches(p) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (w *Watcher) matches(p string) bool {
	if filepath.Dir(p) != filepath.Clean(w.cfg.Dir) {
		return false
	}
	ok, _ := filepath.Match(w.cfg.Pattern, filepath.Base(p))
	return ok
}

func (w *Watcher) handle(ctx context.Context, p string) {
	if _, err := os.Stat(p); err != nil {
		return
	}
	start := time.Now()
	log := w.log.WithFields(logger.Fields(logger.FieldPath, p))

	dest := w.cfg.DoneDir
	if err := w.handler(ctx, p); err != nil {
		dest = w.cfg.FailedDir
		log.Error("inbox file failed", logger.ErrorFields("inbox", err))
	} else {
		log.Info("inbox file handled", logger.DurationFields("inbox", time.Since(start)))
	}

	target := filepath.Join(w.path(dest), filepath.Base(p))
	if err := os.Rename(p, target); err != nil && !os.IsNotExist(err) {
		log.Warn("could not move inbox file", logger.Fields(logger.FieldError, err, "target", target))
	}
}

func (w *Watcher) path(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(w.cfg.Dir, rel)
}
