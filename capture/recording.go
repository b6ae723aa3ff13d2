package capture

import (
	"time"

	"github.com/kbukum/voicegate/audio"
)

// Recording is the outcome of one session.
type Recording struct {
	ID string `json:"id"`
	// Utterance is nil when no speech was captured.
	Utterance  audio.Utterance `json:"-"`
	SampleRate int             `json:"sample_rate"`
	StopReason StopReason      `json:"stop_reason"`

	Blocks        int   `json:"blocks"`
	SpeechBlocks  int64 `json:"speech_blocks"`
	SilenceBlocks int64 `json:"silence_blocks"`
	Ignored       int64 `json:"ignored_blocks"`
	Dropped       int64 `json:"dropped_blocks"`

	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`
}

// HasSpeech reports whether the recording holds any audio.
func (r *Recording) HasSpeech() bool {
	return r != nil && len(r.Utterance) > 0
}

// AudioDuration returns the playback length of the utterance.
func (r *Recording) AudioDuration() time.Duration {
	if r == nil {
		return 0
	}
	return r.Utterance.Duration(r.SampleRate)
}

// Elapsed returns the wall-clock length of the session.
func (r *Recording) Elapsed() time.Duration {
	return r.EndedAt.Sub(r.StartedAt)
}
