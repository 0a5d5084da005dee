// ABOUTME: Voicecast protocol message type definitions
// ABOUTME: Defines JSON control messages and the binary audio chunk framing
package protocol

import (
	"encoding/binary"
	"fmt"
)

// Version is the protocol version exchanged during the handshake.
const Version = 1

// AudioChunkType is the leading byte of a binary audio chunk message.
const AudioChunkType = 1

// Message is the top-level wrapper for all JSON control messages.
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// ClientHello is sent by clients to initiate the handshake.
type ClientHello struct {
	ClientID       string      `json:"client_id"`
	Name           string      `json:"name"`
	Version        int         `json:"version"`
	SupportedRoles []string    `json:"supported_roles"`
	SupportCodecs  []string    `json:"support_codecs,omitempty"`
	DeviceInfo     *DeviceInfo `json:"device_info,omitempty"`
}

// DeviceInfo contains device identification.
type DeviceInfo struct {
	ProductName     string `json:"product_name"`
	Manufacturer    string `json:"manufacturer"`
	SoftwareVersion string `json:"software_version"`
}

// ServerHello is the server's response to client/hello.
type ServerHello struct {
	ServerID string `json:"server_id"`
	Name     string `json:"name"`
	Version  int    `json:"version"`
}

// ClientState reports the listener's current state (sent as player/update).
type ClientState struct {
	State  string `json:"state"`  // "playing" or "idle"
	Volume int    `json:"volume"` // 0-100
	Muted  bool   `json:"muted"`
}

// StreamStart notifies the client of the negotiated stream format.
type StreamStart struct {
	Codec      string `json:"codec"` // "pcm" or "opus"
	SampleRate int    `json:"sample_rate"`
	Channels   int    `json:"channels"`
	BitDepth   int    `json:"bit_depth"`
}

// StreamMetadata contains track information.
type StreamMetadata struct {
	Title  string `json:"title,omitempty"`
	Artist string `json:"artist,omitempty"`
	Album  string `json:"album,omitempty"`
}

// ClientTime is sent for clock synchronization.
type ClientTime struct {
	ClientTransmitted int64 `json:"client_transmitted"` // client timestamp in microseconds
}

// ServerTime is the response to client/time.
type ServerTime struct {
	ClientTransmitted int64 `json:"client_transmitted"` // echoed client timestamp
	ServerReceived    int64 `json:"server_received"`
	ServerTransmitted int64 `json:"server_transmitted"`
}

// EncodeAudioChunk builds a binary audio chunk message.
// Layout: [message_type:1][timestamp_us:8][payload:N]
func EncodeAudioChunk(timestamp int64, payload []byte) []byte {
	chunk := make([]byte, 1+8+len(payload))
	chunk[0] = AudioChunkType
	binary.BigEndian.PutUint64(chunk[1:9], uint64(timestamp))
	copy(chunk[9:], payload)
	return chunk
}

// DecodeAudioChunk parses a binary audio chunk message. The returned payload
// aliases the input.
func DecodeAudioChunk(chunk []byte) (timestamp int64, payload []byte, err error) {
	if len(chunk) < 9 {
		return 0, nil, fmt.Errorf("audio chunk too short: %d bytes", len(chunk))
	}
	if chunk[0] != AudioChunkType {
		return 0, nil, fmt.Errorf("unexpected chunk type: %d", chunk[0])
	}
	return int64(binary.BigEndian.Uint64(chunk[1:9])), chunk[9:], nil
}
