package audio

import (
	"math"
	"time"
)

// DefaultSampleRate is the capture rate expected by the speech models.
const DefaultSampleRate = 16000

// DefaultBlockSize is the number of samples per captured block.
const DefaultBlockSize = 512

// Block is one fixed-size chunk of mono float32 samples in [-1, 1].
// A block is owned by whoever received it and is never written after capture.
type Block []float32

// Utterance is the concatenation of every buffered block of one recording.
type Utterance []float32

// MeanAbs returns the mean absolute amplitude of b. Empty blocks yield 0.
func MeanAbs(b []float32) float64 {
	if len(b) == 0 {
		return 0
	}
	var sum float64
	for _, s := range b {
		sum += math.Abs(float64(s))
	}
	return sum / float64(len(b))
}

// IsSpeech reports whether the block's mean absolute amplitude is strictly
// greater than threshold. A mean equal to the threshold counts as silence.
func IsSpeech(b Block, threshold float64) bool {
	return MeanAbs(b) > threshold
}

// Concat joins blocks in order into a single utterance. It returns nil when
// there is nothing to join.
func Concat(blocks []Block) Utterance {
	n := 0
	for _, b := range blocks {
		n += len(b)
	}
	if n == 0 {
		return nil
	}
	out := make(Utterance, 0, n)
	for _, b := range blocks {
		out = append(out, b...)
	}
	return out
}

// Split cuts u into consecutive blocks of blockSize samples. The final block
// is shorter when len(u) is not a multiple of blockSize. Blocks are copies.
func Split(u Utterance, blockSize int) []Block {
	if blockSize <= 0 || len(u) == 0 {
		return nil
	}
	blocks := make([]Block, 0, (len(u)+blockSize-1)/blockSize)
	for start := 0; start < len(u); start += blockSize {
		end := min(start+blockSize, len(u))
		b := make(Block, end-start)
		copy(b, u[start:end])
		blocks = append(blocks, b)
	}
	return blocks
}

// Duration returns the playback length of samples at sampleRate.
func Duration(samples, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(samples) * time.Second / time.Duration(sampleRate)
}

// BlockPeriod returns how long one block of blockSize samples lasts.
func BlockPeriod(blockSize, sampleRate int) time.Duration {
	return Duration(blockSize, sampleRate)
}

// Duration returns the playback length of the utterance at sampleRate.
func (u Utterance) Duration(sampleRate int) time.Duration {
	return Duration(len(u), sampleRate)
}
