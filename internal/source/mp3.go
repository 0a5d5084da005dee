// ABOUTME: MP3 file audio source
// ABOUTME: Decodes MP3 via go-mp3 with looping on EOF
package source

import (
	"encoding/binary"
	"fmt"
	"io"
	"log"
	"os"

	mp3 "github.com/hajimehoshi/go-mp3"
)

// MP3Source reads from an MP3 file, looping when it reaches the end.
type MP3Source struct {
	file       *os.File
	decoder    *mp3.Decoder
	sampleRate int
	channels   int
	title      string
}

// NewMP3Source creates a new MP3 audio source.
func NewMP3Source(path string) (*MP3Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open MP3 file: %w", err)
	}

	decoder, err := mp3.NewDecoder(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to decode MP3: %w", err)
	}

	title := titleFromPath(path)
	log.Printf("Loaded MP3: %s (sample rate: %d Hz)", title, decoder.SampleRate())

	return &MP3Source{
		file:       f,
		decoder:    decoder,
		sampleRate: decoder.SampleRate(),
		channels:   2, // go-mp3 always outputs stereo
		title:      title,
	}, nil
}

func (s *MP3Source) Read(samples []int16) (int, error) {
	// The decoder outputs 16-bit little-endian bytes.
	buf := make([]byte, len(samples)*2)

	n, err := s.decoder.Read(buf)
	if err != nil && err != io.EOF {
		return 0, err
	}

	numSamples := n / 2
	for i := 0; i < numSamples; i++ {
		samples[i] = int16(binary.LittleEndian.Uint16(buf[i*2 : i*2+2]))
	}

	if err == io.EOF {
		// Loop the audio - seek back to start
		if _, seekErr := s.file.Seek(0, 0); seekErr != nil {
			return numSamples, fmt.Errorf("failed to seek to start: %w", seekErr)
		}
		newDecoder, decErr := mp3.NewDecoder(s.file)
		if decErr != nil {
			return numSamples, fmt.Errorf("failed to create new decoder: %w", decErr)
		}
		s.decoder = newDecoder
	}

	return numSamples, nil
}

func (s *MP3Source) SampleRate() int { return s.sampleRate }
func (s *MP3Source) Channels() int   { return s.channels }
func (s *MP3Source) Metadata() (string, string, string) {
	return s.title, "Unknown Artist", "Unknown Album"
}
func (s *MP3Source) Close() error {
	return s.file.Close()
}
