package main

import (
	"context"
	"errors"
	"testing"

	"github.com/kbukum/voicegate/archive"
	"github.com/kbukum/voicegate/audio"
	"github.com/kbukum/voicegate/capture"
	"github.com/kbukum/voicegate/logger"
	"github.com/kbukum/voicegate/storage/local"
	"github.com/kbukum/voicegate/transcription"
)

type fakeTranscriber struct {
	calls  int
	ctxErr error
	err    error
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, req transcription.Request) (*transcription.Result, error) {
	f.calls++
	f.ctxErr = ctx.Err()
	if f.err != nil {
		return nil, f.err
	}
	return &transcription.Result{
		Text:     "partial words",
		Language: "en",
		Duration: req.Utterance.Duration(req.SampleRate).Seconds(),
	}, nil
}

func speechRecording(reason capture.StopReason) *capture.Recording {
	u := make(audio.Utterance, 1600)
	for i := range u {
		u[i] = 0.2
	}
	return &capture.Recording{ID: "rec-1", Utterance: u, SampleRate: 16000, StopReason: reason}
}

func newSession(t *testing.T, svc transcriber, withArchive bool) *session {
	t.Helper()
	s := &session{svc: svc, log: logger.NewNop(), source: archive.SourceMicrophone, transcribe: true}
	if withArchive {
		store, err := local.NewStorage(t.TempDir())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		s.archive = archive.New(store, t.TempDir())
	}
	return s
}

func TestSessionFinish_InterruptedKeepsPartialSpeech(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fake := &fakeTranscriber{}
	s := newSession(t, fake, true)
	out, err := s.finish(ctx, speechRecording(capture.StopCanceled))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fake.calls != 1 {
		t.Fatalf("expected 1 transcription, got %d", fake.calls)
	}
	if fake.ctxErr != nil {
		t.Errorf("expected a live context for transcription, got %v", fake.ctxErr)
	}
	if out.Transcript == nil || out.Transcript.Text != "partial words" {
		t.Errorf("expected transcript, got %+v", out.Transcript)
	}
	if !out.Archived {
		t.Error("expected interrupted recording to be archived")
	}
	entry, err := s.archive.Get(context.Background(), "rec-1")
	if err != nil {
		t.Fatalf("expected archived entry, got %v", err)
	}
	if entry.Transcript == nil || entry.Transcript.Text != "partial words" {
		t.Errorf("expected archived transcript, got %+v", entry.Transcript)
	}
}

func TestSessionFinish(t *testing.T) {
	tests := []struct {
		name       string
		rec        *capture.Recording
		transcribe bool
		err        error
		wantCalls  int
		wantText   bool
		wantErr    bool
	}{
		{"silence stop", speechRecording(capture.StopSilence), true, nil, 1, true, false},
		{"no speech", &capture.Recording{ID: "r", StopReason: capture.StopCanceled}, true, nil, 0, false, false},
		{"transcription disabled", speechRecording(capture.StopSilence), false, nil, 0, false, false},
		{"backend error", speechRecording(capture.StopSilence), true, errors.New("boom"), 1, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeTranscriber{err: tt.err}
			s := newSession(t, fake, false)
			s.transcribe = tt.transcribe

			out, err := s.finish(context.Background(), tt.rec)
			if (err != nil) != tt.wantErr {
				t.Fatalf("expected error=%v, got %v", tt.wantErr, err)
			}
			if fake.calls != tt.wantCalls {
				t.Errorf("expected %d calls, got %d", tt.wantCalls, fake.calls)
			}
			if (out.Transcript != nil) != tt.wantText {
				t.Errorf("expected transcript=%v, got %+v", tt.wantText, out.Transcript)
			}
			if out.Archived {
				t.Error("expected nothing archived without an archive")
			}
		})
	}
}
