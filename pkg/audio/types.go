// ABOUTME: Audio type definitions
// ABOUTME: Defines stream formats, timestamped PCM buffers, and sample packing
package audio

import "encoding/binary"

// Format describes an audio stream format on the wire.
type Format struct {
	Codec      string // "pcm" or "opus"
	SampleRate int
	Channels   int
	BitDepth   int
}

// Buffer represents one frame of PCM with its stream timestamp.
type Buffer struct {
	Timestamp int64   // server timestamp (microseconds)
	Samples   []int16 // interleaved 16-bit PCM
	Format    Format
}

// Int16ToBytes packs interleaved int16 samples as little-endian PCM bytes,
// the layout both the wire format and the opus encoder consume.
func Int16ToBytes(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

// BytesToInt16 unpacks little-endian PCM bytes into int16 samples. A
// trailing odd byte is ignored.
func BytesToInt16(data []byte) []int16 {
	samples := make([]int16, len(data)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
	}
	return samples
}
