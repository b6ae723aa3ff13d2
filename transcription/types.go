package transcription

import (
	"github.com/kbukum/voicegate/audio"
)

// Task values accepted by the backends.
const (
	TaskTranscribe = "transcribe"
	TaskTranslate  = "translate"
)

// Params are the decoding options passed through to the model.
type Params struct {
	BeamSize                  int     `json:"beam_size" mapstructure:"beam_size" validate:"gte=1"`
	VADFilter                 bool    `json:"vad_filter" mapstructure:"vad_filter"`
	Temperature               float64 `json:"temperature" mapstructure:"temperature" validate:"gte=0"`
	CompressionRatioThreshold float64 `json:"compression_ratio_threshold" mapstructure:"compression_ratio_threshold"`
	LogProbThreshold          float64 `json:"log_prob_threshold" mapstructure:"log_prob_threshold"`
	NoSpeechThreshold         float64 `json:"no_speech_threshold" mapstructure:"no_speech_threshold" validate:"gte=0,lte=1"`
	Task                      string  `json:"task" mapstructure:"task" validate:"omitempty,oneof=transcribe translate"`
	// Language is an ISO code; empty lets the model detect it.
	Language string `json:"language,omitempty" mapstructure:"language"`
}

// DefaultParams returns the decoding options used when none are configured.
func DefaultParams() Params {
	return Params{
		BeamSize:                  5,
		VADFilter:                 true,
		Temperature:               0.0,
		CompressionRatioThreshold: 2.4,
		LogProbThreshold:          -1.0,
		NoSpeechThreshold:         0.5,
		Task:                      TaskTranscribe,
	}
}

// Info is the backend's metadata about the decoded audio.
type Info struct {
	Language            string  `json:"language"`
	LanguageProbability float64 `json:"language_probability"`
	// Duration is the audio length in seconds.
	Duration float64 `json:"duration"`
}

// Segment is one timed span of text. Times are seconds from the start.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
	// Confidence is the backend's average log probability, when reported.
	Confidence *float64 `json:"confidence"`
}

// Result is a finished transcription.
type Result struct {
	Text                string    `json:"text"`
	Language            string    `json:"language"`
	LanguageProbability float64   `json:"language_probability"`
	Duration            float64   `json:"duration"`
	Segments            []Segment `json:"segments"`
}

// Request selects the audio to transcribe: either an in-memory utterance
// with its sample rate, or an existing audio file.
type Request struct {
	Utterance  audio.Utterance
	SampleRate int
	AudioPath  string
	// Params overrides the service defaults when set.
	Params *Params
}

// ModelInfo describes the configured backend.
type ModelInfo struct {
	Provider    string `json:"provider"`
	Model       string `json:"model_size"`
	Device      string `json:"device"`
	ComputeType string `json:"compute_type"`
	Loaded      bool   `json:"loaded"`
	VADFilter   bool   `json:"vad_filter"`
	BeamSize    int    `json:"beam_size"`
}
