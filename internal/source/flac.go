// ABOUTME: FLAC file audio source
// ABOUTME: Decodes FLAC via mewkiz/flac, down-converting to 16-bit PCM
package source

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/mewkiz/flac"
)

// FLACSource reads from a FLAC file, looping when it reaches the end.
type FLACSource struct {
	file       *os.File
	stream     *flac.Stream
	sampleRate int
	channels   int
	bitDepth   int
	title      string
}

// NewFLACSource creates a new FLAC audio source.
func NewFLACSource(path string) (*FLACSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open FLAC file: %w", err)
	}

	stream, err := flac.New(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to decode FLAC: %w", err)
	}

	info := stream.Info
	sampleRate := int(info.SampleRate)
	channels := int(info.NChannels)
	bitDepth := int(info.BitsPerSample)

	title := titleFromPath(path)
	log.Printf("Loaded FLAC: %s (sample rate: %d Hz, channels: %d, bit depth: %d)",
		title, sampleRate, channels, bitDepth)

	return &FLACSource{
		file:       f,
		stream:     stream,
		sampleRate: sampleRate,
		channels:   channels,
		bitDepth:   bitDepth,
		title:      title,
	}, nil
}

func (s *FLACSource) Read(samples []int16) (int, error) {
	samplesRead := 0

	for samplesRead < len(samples) {
		frame, err := s.stream.ParseNext()
		if err != nil {
			if err == io.EOF {
				// Loop back to start
				if _, seekErr := s.file.Seek(0, 0); seekErr != nil {
					return samplesRead, fmt.Errorf("failed to seek to start: %w", seekErr)
				}
				newStream, decErr := flac.New(s.file)
				if decErr != nil {
					return samplesRead, fmt.Errorf("failed to create new stream: %w", decErr)
				}
				s.stream = newStream
				continue
			}
			return samplesRead, err
		}

		for i := 0; i < int(frame.BlockSize) && samplesRead < len(samples); i++ {
			for ch := 0; ch < s.channels && samplesRead < len(samples); ch++ {
				sample := frame.Subframes[ch].Samples[i]

				// Down-convert the source bit depth to 16-bit
				if shift := s.bitDepth - 16; shift > 0 {
					samples[samplesRead] = int16(sample >> shift)
				} else {
					samples[samplesRead] = int16(sample << -shift)
				}
				samplesRead++
			}
		}

		if samplesRead >= len(samples) {
			break
		}
	}

	return samplesRead, nil
}

func (s *FLACSource) SampleRate() int { return s.sampleRate }
func (s *FLACSource) Channels() int   { return s.channels }
func (s *FLACSource) Metadata() (string, string, string) {
	return s.title, "Unknown Artist", "Unknown Album"
}
func (s *FLACSource) Close() error {
	return s.file.Close()
}
