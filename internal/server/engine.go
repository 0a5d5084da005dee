// ABOUTME: Audio streaming engine for the Voicecast server
// ABOUTME: Pulls PCM frames from a source, opus-encodes per client, and fans out chunks
package server

import (
	"log"
	"sync"
	"time"

	"github.com/Voicecast-Project/voicecast-go/internal/protocol"
	"github.com/Voicecast-Project/voicecast-go/internal/source"
	"github.com/Voicecast-Project/voicecast-go/pkg/audio"
	"github.com/Voicecast-Project/voicecast-go/pkg/opus"
)

const (
	// Audio format constants
	DefaultSampleRate = 48000
	DefaultBitDepth   = 16

	// Send audio this far ahead of the server clock
	BufferAheadMs = 500
)

// AudioEngine pulls PCM from the source on a 20ms cadence and streams it to
// subscribed clients, opus-encoded where negotiated. All encoder calls run
// on the engine loop, which keeps each encoder single-caller; RemoveClient
// closes encoders under the same lock the loop encodes under, so teardown
// never races an in-flight encode.
type AudioEngine struct {
	server *Server
	source source.Source

	channels int
	geometry opus.FrameGeometry
	frame    []int16

	clients   map[string]*Client
	clientsMu sync.RWMutex

	stopChan chan struct{}
	stopOnce sync.Once
}

// NewAudioEngine creates an audio engine streaming from src. Sources not at
// 48kHz are resampled so the opus path always sees a rate it supports.
func NewAudioEngine(srv *Server, src source.Source) *AudioEngine {
	if src.SampleRate() != DefaultSampleRate {
		log.Printf("Resampling source from %d Hz to %d Hz", src.SampleRate(), DefaultSampleRate)
		src = source.NewResampledSource(src, DefaultSampleRate)
	}

	geometry := opus.NewFrameGeometry(DefaultSampleRate, src.Channels())

	return &AudioEngine{
		server:   srv,
		source:   src,
		channels: src.Channels(),
		geometry: geometry,
		frame:    make([]int16, geometry.SamplesPerFrame*src.Channels()),
		clients:  make(map[string]*Client),
		stopChan: make(chan struct{}),
	}
}

// Start runs the streaming loop until Stop is called.
func (e *AudioEngine) Start() {
	log.Printf("Audio engine starting (%d Hz, %d ch, %d samples/frame)",
		DefaultSampleRate, e.channels, e.geometry.SamplesPerFrame)

	ticker := time.NewTicker(opus.FrameLengthMs * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			e.streamFrame()
		case <-e.stopChan:
			log.Printf("Audio engine stopping")
			e.source.Close()
			return
		}
	}
}

// Stop stops the audio engine.
func (e *AudioEngine) Stop() {
	e.stopOnce.Do(func() {
		close(e.stopChan)
	})
}

// AddClient subscribes a client to the stream, negotiating its codec.
func (e *AudioEngine) AddClient(client *Client) {
	codec := e.negotiateCodec(client)
	client.Codec = codec

	if codec == "opus" {
		enc, err := opus.NewEncoder(DefaultSampleRate, e.channels, opus.AppAudio)
		if err != nil {
			log.Printf("Failed to create opus encoder for %s, falling back to pcm: %v", client.Name, err)
			client.Codec = "pcm"
		} else {
			client.Encoder = enc
		}
	}

	e.clientsMu.Lock()
	e.clients[client.ID] = client
	e.clientsMu.Unlock()

	log.Printf("Audio engine: added client %s (codec: %s)", client.Name, client.Codec)

	streamStart := protocol.StreamStart{
		Codec:      client.Codec,
		SampleRate: DefaultSampleRate,
		Channels:   e.channels,
		BitDepth:   DefaultBitDepth,
	}
	msg := protocol.Message{
		Type:    "stream/start",
		Payload: streamStart,
	}
	select {
	case client.sendChan <- msg:
	default:
		log.Printf("Warning: Could not send stream/start to %s (channel full)", client.Name)
	}

	title, artist, album := e.source.Metadata()
	metaMsg := protocol.Message{
		Type: "stream/metadata",
		Payload: protocol.StreamMetadata{
			Title:  title,
			Artist: artist,
			Album:  album,
		},
	}
	select {
	case client.sendChan <- metaMsg:
	default:
		log.Printf("Warning: Could not send metadata to %s (channel full)", client.Name)
	}
}

// RemoveClient unsubscribes a client and releases its encoder.
func (e *AudioEngine) RemoveClient(client *Client) {
	e.clientsMu.Lock()
	defer e.clientsMu.Unlock()

	delete(e.clients, client.ID)
	if client.Encoder != nil {
		client.Encoder.Close()
		client.Encoder = nil
	}
	log.Printf("Audio engine: removed client %s", client.Name)
}

// negotiateCodec picks opus when the client supports it and the native
// library is loaded; otherwise pcm. Clients that announce no codecs are
// assumed to handle opus.
func (e *AudioEngine) negotiateCodec(client *Client) string {
	if !opus.IsLoaded() {
		return "pcm"
	}
	if len(client.SupportCodecs) == 0 {
		return "opus"
	}
	for _, c := range client.SupportCodecs {
		if c == "opus" {
			return "opus"
		}
	}
	return "pcm"
}

// streamFrame reads one 20ms frame from the source and sends it to all
// subscribed clients.
func (e *AudioEngine) streamFrame() {
	n, err := e.source.Read(e.frame)
	if err != nil {
		log.Printf("Error reading audio source: %v", err)
		return
	}
	if n == 0 {
		return
	}

	// Pad partial frames with silence; opus requires full frames.
	for i := n; i < len(e.frame); i++ {
		e.frame[i] = 0
	}

	pcmBytes := audio.Int16ToBytes(e.frame)
	playbackTime := e.server.getClockMicros() + BufferAheadMs*1000

	e.clientsMu.RLock()
	defer e.clientsMu.RUnlock()

	for _, client := range e.clients {
		payload := pcmBytes

		if client.Encoder != nil {
			packet, err := client.Encoder.Encode(pcmBytes, e.geometry.SamplesPerFrame)
			if err != nil {
				// Codec errors indicate misconfiguration, not transient
				// faults; drop the frame rather than retry.
				log.Printf("Opus encode failed for %s, dropping frame: %v", client.Name, err)
				continue
			}
			payload = packet
		}

		chunk := protocol.EncodeAudioChunk(playbackTime, payload)
		if err := e.server.sendBinary(client, chunk); err != nil {
			log.Printf("Error sending audio to %s: %v", client.Name, err)
		}
	}
}
