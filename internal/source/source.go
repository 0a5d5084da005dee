// ABOUTME: Audio source abstraction for streaming from files or a test tone
// ABOUTME: Supports WAV, MP3, and FLAC files with automatic decoding
package source

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Source provides interleaved 16-bit PCM samples.
type Source interface {
	// Read fills samples with interleaved PCM. Returns the number of
	// samples read or an error.
	Read(samples []int16) (int, error)
	// SampleRate returns the sample rate of the audio
	SampleRate() int
	// Channels returns the number of channels
	Channels() int
	// Metadata returns title, artist, album
	Metadata() (title, artist, album string)
	// Close closes the audio source
	Close() error
}

// New creates an audio source from a file path. An empty path returns the
// test tone generator. The format is chosen by file extension.
func New(path string) (Source, error) {
	if path == "" {
		return NewToneSource(), nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("audio file not found: %s", path)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".wav":
		return NewWAVSource(path)
	case ".mp3":
		return NewMP3Source(path)
	case ".flac":
		return NewFLACSource(path)
	default:
		return nil, fmt.Errorf("unsupported audio format: %s (supported: .wav, .mp3, .flac)", ext)
	}
}

// titleFromPath derives a display title from a file name.
func titleFromPath(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}
