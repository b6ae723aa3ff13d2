// Package archive persists utterances and their transcripts in object
// storage, one directory per recording:
//
//	recordings/<id>/audio.wav
//	recordings/<id>/transcript.json
package archive

import (
	"context"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/kbukum/voicegate/audio"
	"github.com/kbukum/voicegate/capture"
	"github.com/kbukum/voicegate/errors"
	"github.com/kbukum/voicegate/logger"
	"github.com/kbukum/voicegate/observability"
	"github.com/kbukum/voicegate/storage"
	"github.com/kbukum/voicegate/transcription"
)

const (
	rootPrefix     = "recordings/"
	audioName      = "audio.wav"
	transcriptName = "transcript.json"
)

// Source values recorded in an Entry.
const (
	SourceMicrophone = "microphone"
	SourceFile       = "file"
	SourceInbox      = "inbox"
)

// Entry is the document stored as transcript.json.
type Entry struct {
	ID         string                `json:"id"`
	Source     string                `json:"source"`
	SourceName string                `json:"source_name,omitempty"`
	CreatedAt  time.Time             `json:"created_at"`
	Recording  *capture.Recording    `json:"recording,omitempty"`
	Transcript *transcription.Result `json:"transcript,omitempty"`
	// Error holds the transcription failure, if any.
	Error string `json:"error,omitempty"`
}

// Archive stores entries in a storage backend.
type Archive struct {
	store   storage.Storage
	tempDir string
	log     *logger.Logger
	now     func() time.Time
}

// New creates an archive over store. tempDir holds WAV files while they
// are encoded; empty uses the system temp dir.
func New(store storage.Storage, tempDir string) *Archive {
	return &Archive{store: store, tempDir: tempDir, log: logger.Get("archive"), now: time.Now}
}

// AudioPath returns the object path of an entry's audio.
func AudioPath(id string) string { return path.Join(rootPrefix, id, audioName) }

// TranscriptPath returns the object path of an entry's document.
func TranscriptPath(id string) string { return path.Join(rootPrefix, id, transcriptName) }

// Save encodes u as WAV and stores it with the entry.
func (a *Archive) Save(ctx context.Context, e *Entry, u audio.Utterance, sampleRate int) error {
	f, err := os.CreateTemp(a.tempDir, "voicegate-archive-*.wav")
	if err != nil {
		return errors.Internal(fmt.Errorf("create temp wav: %w", err))
	}
	tmp := f.Name()
	defer os.Remove(tmp)

	err = audio.EncodeWAV(f, u, sampleRate)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return errors.Internal(fmt.Errorf("encode archive wav: %w", err))
	}
	return a.SaveFile(ctx, e, tmp)
}

// SaveFile stores the WAV file at wavPath with the entry. The ID is
// required; a missing creation time is filled in.
func (a *Archive) SaveFile(ctx context.Context, e *Entry, wavPath string) (err error) {
	if e.ID == "" {
		return errors.MissingField("id")
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = a.now().UTC()
	}

	ctx, span := observability.StartSpan(ctx, observability.SpanArchive)
	span.SetAttributes(attribute.String(observability.AttrRecordingID, e.ID))
	defer func() { observability.EndSpan(span, err) }()

	f, err := os.Open(wavPath)
	if err != nil {
		return errors.Internal(fmt.Errorf("open wav: %w", err))
	}
	defer f.Close()

	if err := a.store.Upload(ctx, AudioPath(e.ID), f); err != nil {
		a.log.Error("archive audio upload failed", logger.ErrorFields("archive", err))
		return errors.ServiceUnavailable("archive").WithCause(err)
	}
	if err := storage.PutJSON(ctx, a.store, TranscriptPath(e.ID), e); err != nil {
		a.log.Error("archive transcript upload failed", logger.ErrorFields("archive", err))
		return errors.ServiceUnavailable("archive").WithCause(err)
	}

	a.log.Info("archived recording", logger.Fields(logger.FieldRecordingID, e.ID, "source", e.Source))
	return nil
}

// Get loads the entry with the given id.
func (a *Archive) Get(ctx context.Context, id string) (*Entry, error) {
	var e Entry
	if err := storage.GetJSON(ctx, a.store, TranscriptPath(id), &e); err != nil {
		if storage.IsNotFound(err) {
			return nil, errors.NotFound("recording", id)
		}
		return nil, errors.ServiceUnavailable("archive").WithCause(err)
	}
	return &e, nil
}

// List returns the ids of all archived entries, sorted.
func (a *Archive) List(ctx context.Context) ([]string, error) {
	files, err := a.store.List(ctx, rootPrefix)
	if err != nil {
		return nil, errors.ServiceUnavailable("archive").WithCause(err)
	}
	ids := []string{}
	for _, f := range files {
		rest := strings.TrimPrefix(f.Path, rootPrefix)
		id, name, ok := strings.Cut(rest, "/")
		if ok && name == transcriptName {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// AudioURL returns a URL for an entry's audio.
func (a *Archive) AudioURL(ctx context.Context, id string) (string, error) {
	return a.store.URL(ctx, AudioPath(id))
}

// Delete removes an entry's objects.
func (a *Archive) Delete(ctx context.Context, id string) error {
	for _, p := range []string{AudioPath(id), TranscriptPath(id)} {
		if err := a.store.Delete(ctx, p); err != nil {
			return errors.ServiceUnavailable("archive").WithCause(err)
		}
	}
	return nil
}
