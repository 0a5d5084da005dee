// ABOUTME: Tests for audio sample packing helpers
// ABOUTME: Verifies int16/byte conversions round-trip and handle edges
package audio

import "testing"

func TestInt16ToBytesRoundTrip(t *testing.T) {
	samples := []int16{0, 1, -1, 32767, -32768, 12345, -12345}

	data := Int16ToBytes(samples)
	if len(data) != len(samples)*2 {
		t.Fatalf("expected %d bytes, got %d", len(samples)*2, len(data))
	}

	back := BytesToInt16(data)
	if len(back) != len(samples) {
		t.Fatalf("expected %d samples, got %d", len(samples), len(back))
	}
	for i, s := range samples {
		if back[i] != s {
			t.Errorf("sample %d: expected %d, got %d", i, s, back[i])
		}
	}
}

func TestInt16ToBytesLittleEndian(t *testing.T) {
	data := Int16ToBytes([]int16{0x0102})
	if data[0] != 0x02 || data[1] != 0x01 {
		t.Errorf("expected little-endian layout, got % x", data)
	}
}

func TestBytesToInt16OddLength(t *testing.T) {
	samples := BytesToInt16([]byte{0x01, 0x02, 0x03})
	if len(samples) != 1 {
		t.Fatalf("expected trailing byte dropped, got %d samples", len(samples))
	}
}

func TestBytesToInt16Empty(t *testing.T) {
	if got := BytesToInt16(nil); len(got) != 0 {
		t.Errorf("expected empty result, got %v", got)
	}
}
