// ABOUTME: WAV file audio source
// ABOUTME: Decodes PCM WAV files via go-audio with looping on EOF
package source

import (
	"fmt"
	"log"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WAVSource reads from a PCM WAV file, looping when it reaches the end.
type WAVSource struct {
	file       *os.File
	decoder    *wav.Decoder
	buf        *audio.IntBuffer
	sampleRate int
	channels   int
	bitDepth   int
	title      string
}

// NewWAVSource creates a new WAV audio source.
func NewWAVSource(path string) (*WAVSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open WAV file: %w", err)
	}

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		f.Close()
		return nil, fmt.Errorf("invalid WAV file: %s", path)
	}

	sampleRate := int(decoder.SampleRate)
	channels := int(decoder.NumChans)
	bitDepth := int(decoder.BitDepth)

	title := titleFromPath(path)
	log.Printf("Loaded WAV: %s (sample rate: %d Hz, channels: %d, bit depth: %d)",
		title, sampleRate, channels, bitDepth)

	return &WAVSource{
		file:       f,
		decoder:    decoder,
		sampleRate: sampleRate,
		channels:   channels,
		bitDepth:   bitDepth,
		title:      title,
	}, nil
}

func (s *WAVSource) Read(samples []int16) (int, error) {
	if s.buf == nil || cap(s.buf.Data) < len(samples) {
		s.buf = &audio.IntBuffer{
			Format: &audio.Format{
				NumChannels: s.channels,
				SampleRate:  s.sampleRate,
			},
			Data:           make([]int, len(samples)),
			SourceBitDepth: s.bitDepth,
		}
	}
	s.buf.Data = s.buf.Data[:len(samples)]

	n, err := s.decoder.PCMBuffer(s.buf)
	if err != nil {
		return 0, fmt.Errorf("failed to read WAV samples: %w", err)
	}

	if n == 0 {
		// Loop the audio - seek back to start
		if _, seekErr := s.file.Seek(0, 0); seekErr != nil {
			return 0, fmt.Errorf("failed to seek to start: %w", seekErr)
		}
		s.decoder = wav.NewDecoder(s.file)
		if !s.decoder.IsValidFile() {
			return 0, fmt.Errorf("failed to reopen WAV stream")
		}
		n, err = s.decoder.PCMBuffer(s.buf)
		if err != nil {
			return 0, fmt.Errorf("failed to read WAV samples after loop: %w", err)
		}
	}

	for i := 0; i < n; i++ {
		samples[i] = sampleToInt16(s.buf.Data[i], s.bitDepth)
	}

	return n, nil
}

// sampleToInt16 converts a decoded integer sample at the source bit depth
// to the 16-bit range.
func sampleToInt16(v, bitDepth int) int16 {
	switch {
	case bitDepth == 16:
		return int16(v)
	case bitDepth > 16:
		return int16(v >> (bitDepth - 16))
	default:
		return int16(v << (16 - bitDepth))
	}
}

func (s *WAVSource) SampleRate() int { return s.sampleRate }
func (s *WAVSource) Channels() int   { return s.channels }
func (s *WAVSource) Metadata() (string, string, string) {
	return s.title, "Unknown Artist", "Unknown Album"
}
func (s *WAVSource) Close() error {
	return s.file.Close()
}
