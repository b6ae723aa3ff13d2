// Package audio holds the sample types shared by capture and transcription:
// fixed-size float32 blocks, the concatenated utterance, the energy based
// speech classifier and 16-bit PCM WAV encoding.
package audio
