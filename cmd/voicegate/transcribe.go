package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/pflag"

	"github.com/kbukum/voicegate/archive"
	"github.com/kbukum/voicegate/bootstrap"
	"github.com/kbukum/voicegate/logger"
	"github.com/kbukum/voicegate/transcription"
)

func runTranscribe(ctx context.Context, args []string) error {
	fs := pflag.NewFlagSet("transcribe", pflag.ContinueOnError)
	var common commonFlags
	common.register(fs)
	fs.String("provider", "", "transcription backend: whisper or fasterwhisper")
	fs.String("language", "", "language code, empty to detect")
	fs.Int("beam-size", 0, "beam size")
	fs.Bool("archive", false, "store the audio and transcript (WAV input only)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("transcribe takes exactly one audio file")
	}
	path := fs.Arg(0)
	if _, err := os.Stat(path); err != nil {
		return err
	}

	cfg, err := loadConfig(fs, &common, map[string]string{
		"provider":  "transcription.provider",
		"language":  "transcription.language",
		"beam-size": "transcription.beam_size",
		"archive":   "archive.enabled",
	})
	if err != nil {
		return err
	}

	rt, err := newRuntime(cfg, bootstrapQuiet()...)
	if err != nil {
		return err
	}

	return rt.app.RunTask(ctx, func(ctx context.Context) error {
		res, err := rt.transcription.Transcribe(ctx, transcription.Request{AudioPath: path})
		if err != nil {
			return err
		}
		if arc := rt.archive(); arc != nil {
			archiveFile(ctx, arc, rt.app.Logger, path, archive.SourceFile, res)
		}
		return printJSON(os.Stdout, res)
	})
}

// archiveFile stores a WAV input with its transcript. Other formats are
// skipped since the archive holds WAV audio.
func archiveFile(ctx context.Context, arc *archive.Archive, log *logger.Logger, path, source string, res *transcription.Result) {
	if !strings.EqualFold(filepath.Ext(path), ".wav") {
		log.Warn("archive skipped, input is not WAV", logger.Fields(logger.FieldPath, path))
		return
	}
	entry := &archive.Entry{
		ID:         uuid.NewString(),
		Source:     source,
		SourceName: filepath.Base(path),
		Transcript: res,
	}
	if err := arc.SaveFile(ctx, entry, path); err != nil {
		log.Warn("archiving failed", logger.ErrorFields("archive", err))
	}
}

// bootstrapQuiet keeps one-shot commands' stdout to their JSON result.
func bootstrapQuiet() []bootstrap.Option {
	return []bootstrap.Option{bootstrap.WithoutSummary()}
}
