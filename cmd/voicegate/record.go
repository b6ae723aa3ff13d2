package main

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/pflag"

	"github.com/kbukum/voicegate/archive"
	"github.com/kbukum/voicegate/capture"
	"github.com/kbukum/voicegate/capture/portaudio"
	"github.com/kbukum/voicegate/capture/wavsource"
	"github.com/kbukum/voicegate/logger"
	"github.com/kbukum/voicegate/transcription"
)

// interruptedTimeout bounds the transcription of a session the user
// interrupted, since the command context is already canceled by then.
const interruptedTimeout = 2 * time.Minute

// recordOutput is printed once the session ends.
type recordOutput struct {
	Recording  *capture.Recording    `json:"recording"`
	Transcript *transcription.Result `json:"transcript"`
	Archived   bool                  `json:"archived"`
}

// transcriber is the part of transcription.Service a session needs.
type transcriber interface {
	Transcribe(ctx context.Context, req transcription.Request) (*transcription.Result, error)
}

// session turns a finished recording into a transcript and an archive entry.
type session struct {
	svc        transcriber
	archive    *archive.Archive
	log        *logger.Logger
	source     string
	sourceName string
	transcribe bool
}

// finish transcribes and archives rec. An interrupted session keeps its
// partial speech: it is transcribed on a context detached from the
// cancellation.
func (s *session) finish(ctx context.Context, rec *capture.Recording) (recordOutput, error) {
	out := recordOutput{Recording: rec}
	log := s.log.WithContext(logger.ContextWithRecordingID(ctx, rec.ID))

	if !rec.HasSpeech() || !s.transcribe {
		log.Info("nothing to transcribe", logger.Fields("stop_reason", rec.StopReason, "has_speech", rec.HasSpeech()))
		return out, nil
	}
	if ctx.Err() != nil {
		log.Info("recording interrupted, transcribing partial speech", logger.Fields("stop_reason", rec.StopReason))
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.WithoutCancel(ctx), interruptedTimeout)
		defer cancel()
	}

	res, err := s.svc.Transcribe(ctx, transcription.Request{
		Utterance:  rec.Utterance,
		SampleRate: rec.SampleRate,
	})
	if err != nil {
		return out, err
	}
	out.Transcript = res

	if s.archive != nil {
		entry := &archive.Entry{
			ID:         rec.ID,
			Source:     s.source,
			SourceName: s.sourceName,
			Recording:  rec,
			Transcript: res,
		}
		if err := s.archive.Save(ctx, entry, rec.Utterance, rec.SampleRate); err != nil {
			log.Warn("archiving failed", logger.ErrorFields("archive", err))
		} else {
			out.Archived = true
		}
	}
	return out, nil
}

func runRecord(ctx context.Context, args []string) error {
	fs := pflag.NewFlagSet("record", pflag.ContinueOnError)
	var common commonFlags
	common.register(fs)
	input := fs.StringP("input", "i", "", "replay a WAV file instead of the microphone")
	noTranscribe := fs.Bool("no-transcribe", false, "only record")
	fs.String("device", "", "input device name")
	fs.Float64("threshold", 0, "energy threshold for speech")
	fs.Duration("silence", 0, "trailing silence that ends the recording")
	fs.Duration("max-duration", 0, "stop after this long regardless of speech")
	fs.Bool("archive", false, "store the recording and transcript")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(fs, &common, map[string]string{
		"device":       "capture.device",
		"threshold":    "capture.energy_threshold",
		"silence":      "capture.silence_duration",
		"max-duration": "capture.max_duration",
		"archive":      "archive.enabled",
	})
	if err != nil {
		return err
	}

	rt, err := newRuntime(cfg, bootstrapQuiet()...)
	if err != nil {
		return err
	}

	sess := &session{
		svc:        rt.transcription,
		log:        rt.app.Logger,
		source:     archive.SourceMicrophone,
		sourceName: cfg.Capture.Device,
		transcribe: !*noTranscribe,
	}
	var source capture.Source
	if *input != "" {
		source = wavsource.New(*input, cfg.Capture)
		sess.source, sess.sourceName = archive.SourceFile, filepath.Base(*input)
	} else {
		source = portaudio.New(cfg.Capture)
	}
	recorder := capture.NewRecorder(source, cfg.Capture, capture.WithLogger(rt.app.Logger.WithComponent("capture")))

	return rt.app.RunTask(ctx, func(ctx context.Context) error {
		rec, err := recorder.Record(ctx)
		if err != nil {
			return err
		}
		sess.archive = rt.archive()
		out, err := sess.finish(ctx, rec)
		if err != nil {
			return err
		}
		return printJSON(os.Stdout, out)
	})
}
