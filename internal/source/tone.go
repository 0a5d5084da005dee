// ABOUTME: Test tone generator for audio source
// ABOUTME: Generates 440Hz sine wave for testing
package source

import (
	"math"
	"sync"
)

const (
	toneSampleRate = 48000
	toneChannels   = 2
)

// ToneSource generates a 440Hz test tone at 48kHz stereo.
type ToneSource struct {
	sampleIndex uint64
	sampleMu    sync.Mutex
	frequency   float64
}

// NewToneSource creates a new test tone generator.
func NewToneSource() *ToneSource {
	return &ToneSource{
		frequency: 440.0, // A4 note
	}
}

func (s *ToneSource) Read(samples []int16) (int, error) {
	s.sampleMu.Lock()
	defer s.sampleMu.Unlock()

	numFrames := len(samples) / toneChannels

	for i := 0; i < numFrames; i++ {
		t := float64(s.sampleIndex+uint64(i)) / float64(toneSampleRate)
		sample := math.Sin(2 * math.Pi * s.frequency * t)

		// 16-bit PCM at 50% volume
		pcmValue := int16(sample * 32767.0 * 0.5)

		samples[i*toneChannels] = pcmValue
		samples[i*toneChannels+1] = pcmValue
	}

	s.sampleIndex += uint64(numFrames)

	return numFrames * toneChannels, nil
}

func (s *ToneSource) SampleRate() int { return toneSampleRate }
func (s *ToneSource) Channels() int   { return toneChannels }
func (s *ToneSource) Metadata() (string, string, string) {
	return "Test Tone", "Voicecast Server", "Reference Implementation"
}
func (s *ToneSource) Close() error { return nil }
