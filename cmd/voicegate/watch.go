package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/pflag"

	"github.com/kbukum/voicegate/archive"
	"github.com/kbukum/voicegate/inbox"
	"github.com/kbukum/voicegate/transcription"
)

// watchLine is printed, one JSON object per line, for every handled file.
type watchLine struct {
	File       string                `json:"file"`
	Transcript *transcription.Result `json:"transcript,omitempty"`
	Error      string                `json:"error,omitempty"`
}

func runWatch(ctx context.Context, args []string) error {
	fs := pflag.NewFlagSet("watch", pflag.ContinueOnError)
	var common commonFlags
	common.register(fs)
	fs.String("dir", "", "directory to watch")
	fs.String("pattern", "", "file name pattern (default *.wav)")
	fs.Int("workers", 0, "files handled at once")
	fs.Bool("skip-existing", false, "ignore files present at startup")
	fs.Bool("archive", false, "store each file and transcript")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(fs, &common, map[string]string{
		"dir":           "inbox.dir",
		"pattern":       "inbox.pattern",
		"workers":       "inbox.workers",
		"skip-existing": "inbox.skip_existing",
		"archive":       "archive.enabled",
	})
	if err != nil {
		return err
	}
	cfg.Inbox.ApplyDefaults()
	if err := cfg.Inbox.Validate(); err != nil {
		return err
	}

	rt, err := newRuntime(cfg)
	if err != nil {
		return err
	}

	var mu sync.Mutex
	enc := json.NewEncoder(os.Stdout)
	emit := func(line watchLine) {
		mu.Lock()
		defer mu.Unlock()
		_ = enc.Encode(line)
	}

	handle := func(ctx context.Context, path string) error {
		res, err := rt.transcription.Transcribe(ctx, transcription.Request{AudioPath: path})
		if err != nil {
			emit(watchLine{File: filepath.Base(path), Error: err.Error()})
			return err
		}
		if arc := rt.archive(); arc != nil {
			archiveFile(ctx, arc, rt.app.Logger, path, archive.SourceInbox, res)
		}
		emit(watchLine{File: filepath.Base(path), Transcript: res})
		return nil
	}

	watcher, err := inbox.New(cfg.Inbox, handle)
	if err != nil {
		return err
	}
	return rt.app.RunTask(ctx, watcher.Run)
}
