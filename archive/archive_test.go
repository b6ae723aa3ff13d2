package archive

import (
	"context"
	"testing"
	"time"

	"github.com/kbukum/voicegate/audio"
	"github.com/kbukum/voicegate/capture"
	"github.com/kbukum/voicegate/errors"
	"github.com/kbukum/voicegate/storage"
	"github.com/kbukum/voicegate/storage/local"
	"github.com/kbukum/voicegate/transcription"
)

func newTestArchive(t *testing.T) (*Archive, *local.Storage) {
	t.Helper()
	store, err := local.NewStorage(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a := New(store, t.TempDir())
	a.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return a, store
}

func tone(n int) audio.Utterance {
	u := make(audio.Utterance, n)
	for i := range u {
		u[i] = 0.25
	}
	return u
}

func TestSaveAndGet(t *testing.T) {
	ctx := context.Background()
	a, store := newTestArchive(t)

	entry := &Entry{
		ID:        "rec-1",
		Source:    SourceMicrophone,
		Recording: &capture.Recording{ID: "rec-1", SampleRate: 16000, StopReason: capture.StopSilence, Blocks: 43},
		Transcript: &transcription.Result{
			Text:     "hello world",
			Language: "en",
			Segments: []transcription.Segment{{Start: 0, End: 1, Text: "hello world"}},
		},
	}
	if err := a.Save(ctx, entry, tone(16000), 16000); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !entry.CreatedAt.Equal(a.now()) {
		t.Errorf("expected created_at to be filled, got %v", entry.CreatedAt)
	}

	data, err := storage.GetBytes(ctx, store, AudioPath("rec-1"))
	if err != nil {
		t.Fatalf("expected audio object: %v", err)
	}
	if string(data[:4]) != "RIFF" {
		t.Errorf("expected WAV data, got %q", data[:4])
	}

	got, err := a.Get(ctx, "rec-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Transcript == nil || got.Transcript.Text != "hello world" {
		t.Errorf("unexpected transcript %+v", got.Transcript)
	}
	if got.Recording == nil || got.Recording.StopReason != capture.StopSilence {
		t.Errorf("unexpected recording %+v", got.Recording)
	}
}

func TestSaveRequiresID(t *testing.T) {
	a, _ := newTestArchive(t)
	err := a.Save(context.Background(), &Entry{}, tone(10), 16000)
	if !errors.HasCode(err, errors.ErrCodeMissingField) {
		t.Fatalf("expected missing field error, got %v", err)
	}
}

func TestGetMissing(t *testing.T) {
	a, _ := newTestArchive(t)
	_, err := a.Get(context.Background(), "nope")
	if !errors.HasCode(err, errors.ErrCodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListAndDelete(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestArchive(t)
	for _, id := range []string{"b", "a", "c"} {
		if err := a.Save(ctx, &Entry{ID: id, Source: SourceFile}, tone(160), 16000); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	ids, err := a.List(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids) != 3 || ids[0] != "a" || ids[2] != "c" {
		t.Fatalf("expected [a b c], got %v", ids)
	}

	if err := a.Delete(ctx, "b"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ids, _ = a.List(ctx)
	if len(ids) != 2 {
		t.Errorf("expected 2 entries after delete, got %v", ids)
	}
}

func TestSaveFileMissing(t *testing.T) {
	a, _ := newTestArchive(t)
	err := a.SaveFile(context.Background(), &Entry{ID: "x"}, "/nonexistent/voicegate.wav")
	if !errors.HasCode(err, errors.ErrCodeInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
}

func TestAudioURL(t *testing.T) {
	a, _ := newTestArchive(t)
	u, err := a.AudioURL(context.Background(), "r9")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := "/recordings/r9/audio.wav"; len(u) < len(want) || u[len(u)-len(want):] != want {
		t.Errorf("expected url ending in %q, got %q", want, u)
	}
}
