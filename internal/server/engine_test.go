// ABOUTME: Tests for the audio streaming engine
// ABOUTME: Tests frame sizing, codec negotiation, and chunk fan-out
package server

import (
	"testing"

	"github.com/Voicecast-Project/voicecast-go/internal/protocol"
	"github.com/Voicecast-Project/voicecast-go/internal/source"
)

func newTestEngine(t *testing.T) *AudioEngine {
	t.Helper()
	srv := New(Config{Name: "test"})
	return NewAudioEngine(srv, source.NewToneSource())
}

func TestNewAudioEngineFrameSizing(t *testing.T) {
	e := newTestEngine(t)

	// 20ms at 48kHz stereo.
	if e.geometry.SamplesPerFrame != 960 {
		t.Errorf("expected 960 samples per frame, got %d", e.geometry.SamplesPerFrame)
	}
	if len(e.frame) != 960*2 {
		t.Errorf("expected frame buffer of 1920 samples, got %d", len(e.frame))
	}
	if e.geometry.FrameSizeBytes != 3840 {
		t.Errorf("expected 3840 frame bytes, got %d", e.geometry.FrameSizeBytes)
	}
}

func TestNegotiateCodecRespectsClientList(t *testing.T) {
	e := newTestEngine(t)

	// A pcm-only client never gets opus, loaded or not.
	client := &Client{SupportCodecs: []string{"pcm"}}
	if got := e.negotiateCodec(client); got != "pcm" {
		t.Errorf("expected pcm for pcm-only client, got %q", got)
	}
}

func TestAddClientPCMStream(t *testing.T) {
	e := newTestEngine(t)

	client := &Client{
		ID:            "c1",
		Name:          "listener",
		SupportCodecs: []string{"pcm"},
		sendChan:      make(chan interface{}, 10),
	}

	e.AddClient(client)
	defer e.RemoveClient(client)

	if client.Codec != "pcm" {
		t.Fatalf("expected pcm codec, got %q", client.Codec)
	}
	if client.Encoder != nil {
		t.Fatal("expected no encoder for pcm client")
	}

	// stream/start then stream/metadata are queued on subscribe.
	msg := (<-client.sendChan).(protocol.Message)
	if msg.Type != "stream/start" {
		t.Fatalf("expected stream/start, got %s", msg.Type)
	}
	start := msg.Payload.(protocol.StreamStart)
	if start.Codec != "pcm" || start.SampleRate != 48000 || start.Channels != 2 {
		t.Errorf("unexpected stream format: %+v", start)
	}

	meta := (<-client.sendChan).(protocol.Message)
	if meta.Type != "stream/metadata" {
		t.Fatalf("expected stream/metadata, got %s", meta.Type)
	}
}

func TestStreamFrameFanOut(t *testing.T) {
	e := newTestEngine(t)

	client := &Client{
		ID:       "c1",
		Name:     "listener",
		Codec:    "pcm",
		sendChan: make(chan interface{}, 10),
	}
	e.clientsMu.Lock()
	e.clients[client.ID] = client
	e.clientsMu.Unlock()

	e.streamFrame()

	select {
	case raw := <-client.sendChan:
		chunk, ok := raw.([]byte)
		if !ok {
			t.Fatalf("expected binary chunk, got %T", raw)
		}
		ts, payload, err := protocol.DecodeAudioChunk(chunk)
		if err != nil {
			t.Fatalf("chunk decode failed: %v", err)
		}
		if ts <= 0 {
			t.Errorf("expected positive playback timestamp, got %d", ts)
		}
		if len(payload) != e.geometry.FrameSizeBytes {
			t.Errorf("expected %d payload bytes, got %d", e.geometry.FrameSizeBytes, len(payload))
		}
	default:
		t.Fatal("expected a chunk to be queued")
	}
}

func TestRemoveClientStopsFanOut(t *testing.T) {
	e := newTestEngine(t)

	client := &Client{
		ID:       "c1",
		Name:     "listener",
		Codec:    "pcm",
		sendChan: make(chan interface{}, 10),
	}
	e.clientsMu.Lock()
	e.clients[client.ID] = client
	e.clientsMu.Unlock()

	e.RemoveClient(client)
	e.streamFrame()

	select {
	case <-client.sendChan:
		t.Fatal("expected no chunk after removal")
	default:
	}
}

func TestEngineStopIdempotent(t *testing.T) {
	e := newTestEngine(t)
	e.Stop()
	e.Stop()
}
