// ABOUTME: Tests for protocol message handling
// ABOUTME: Tests binary audio chunk framing and JSON message wrapping
package protocol

import (
	"encoding/json"
	"testing"
)

func TestAudioChunkRoundTrip(t *testing.T) {
	payload := []byte{0x01, 0x02, 0x03, 0x04}
	chunk := EncodeAudioChunk(123456789, payload)

	if len(chunk) != 1+8+len(payload) {
		t.Fatalf("expected %d bytes, got %d", 1+8+len(payload), len(chunk))
	}
	if chunk[0] != AudioChunkType {
		t.Errorf("expected type byte %d, got %d", AudioChunkType, chunk[0])
	}

	ts, got, err := DecodeAudioChunk(chunk)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if ts != 123456789 {
		t.Errorf("expected timestamp 123456789, got %d", ts)
	}
	if len(got) != len(payload) {
		t.Fatalf("expected %d payload bytes, got %d", len(payload), len(got))
	}
	for i := range payload {
		if got[i] != payload[i] {
			t.Errorf("payload byte %d: expected %d, got %d", i, payload[i], got[i])
		}
	}
}

func TestAudioChunkNegativeTimestamp(t *testing.T) {
	chunk := EncodeAudioChunk(-1, nil)
	ts, _, err := DecodeAudioChunk(chunk)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if ts != -1 {
		t.Errorf("expected timestamp -1, got %d", ts)
	}
}

func TestDecodeAudioChunkTooShort(t *testing.T) {
	if _, _, err := DecodeAudioChunk([]byte{1, 2, 3}); err == nil {
		t.Error("expected error for short chunk")
	}
}

func TestDecodeAudioChunkWrongType(t *testing.T) {
	chunk := EncodeAudioChunk(0, []byte{1})
	chunk[0] = 99
	if _, _, err := DecodeAudioChunk(chunk); err == nil {
		t.Error("expected error for unknown chunk type")
	}
}

func TestClientHelloJSON(t *testing.T) {
	hello := ClientHello{
		ClientID:       "abc-123",
		Name:           "living-room",
		Version:        Version,
		SupportedRoles: []string{"player"},
		SupportCodecs:  []string{"opus", "pcm"},
	}

	msg := Message{Type: "client/hello", Payload: hello}
	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded Message
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if decoded.Type != "client/hello" {
		t.Errorf("expected type client/hello, got %s", decoded.Type)
	}

	payload, err := json.Marshal(decoded.Payload)
	if err != nil {
		t.Fatalf("payload marshal failed: %v", err)
	}
	var got ClientHello
	if err := json.Unmarshal(payload, &got); err != nil {
		t.Fatalf("payload unmarshal failed: %v", err)
	}
	if got.ClientID != hello.ClientID || got.Name != hello.Name {
		t.Errorf("hello did not round-trip: %+v", got)
	}
	if len(got.SupportCodecs) != 2 || got.SupportCodecs[0] != "opus" {
		t.Errorf("codecs did not round-trip: %v", got.SupportCodecs)
	}
}
