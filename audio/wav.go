package audio

import (
	"fmt"
	"io"
	"math"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	pcmBitDepth  = 16
	pcmFormatTag = 1
)

// EncodeWAV writes samples as a 16-bit PCM mono WAV stream. Samples outside
// [-1, 1] are clipped.
func EncodeWAV(w io.WriteSeeker, samples []float32, sampleRate int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}
	enc := wav.NewEncoder(w, sampleRate, pcmBitDepth, 1, pcmFormatTag)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           toPCM16(samples),
		SourceBitDepth: pcmBitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("write wav samples: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalize wav: %w", err)
	}
	return nil
}

// WriteWAVFile creates path and writes samples into it as 16-bit PCM mono.
func WriteWAVFile(path string, samples []float32, sampleRate int) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create wav file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close wav file: %w", cerr)
		}
	}()
	return EncodeWAV(f, samples, sampleRate)
}

// DecodeWAV reads a PCM WAV stream into mono float32 samples in [-1, 1].
// Multi-channel input is downmixed by averaging the channels.
func DecodeWAV(r io.ReadSeeker) (Utterance, int, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, 0, fmt.Errorf("not a valid wav stream")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("read wav samples: %w", err)
	}
	bitDepth := int(dec.BitDepth)
	if bitDepth <= 0 {
		bitDepth = buf.SourceBitDepth
	}
	if bitDepth <= 0 || bitDepth > 32 {
		return nil, 0, fmt.Errorf("unsupported bit depth %d", bitDepth)
	}
	channels := int(dec.NumChans)
	if channels <= 0 {
		channels = 1
	}
	scale := math.Exp2(float64(bitDepth - 1))
	// 8-bit PCM is unsigned with silence at 128.
	var bias float64
	if bitDepth == 8 {
		bias = 128
	}

	frames := len(buf.Data) / channels
	out := make(Utterance, frames)
	for i := range frames {
		var sum float64
		for c := range channels {
			sum += float64(buf.Data[i*channels+c]) - bias
		}
		out[i] = float32(sum / float64(channels) / scale)
	}
	return out, int(dec.SampleRate), nil
}

// ReadWAVFile decodes the WAV file at path. See DecodeWAV.
func ReadWAVFile(path string) (Utterance, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open wav file: %w", err)
	}
	defer f.Close()
	return DecodeWAV(f)
}

func toPCM16(samples []float32) []int {
	out := make([]int, len(samples))
	for i, s := range samples {
		v := math.Max(-1, math.Min(1, float64(s)))
		out[i] = int(math.Round(v * math.MaxInt16))
	}
	return out
}
