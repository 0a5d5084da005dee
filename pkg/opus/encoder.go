// ABOUTME: Opus encoder with owned native state and strict lifecycle
// ABOUTME: Computes frame geometry and encodes 16-bit PCM into opus packets
package opus

import "runtime"

// FrameLengthMs is the fixed frame duration used by the encoder.
const FrameLengthMs = 20

// FrameGeometry describes how raw PCM maps onto encoder frames. All fields
// derive from the sampling rate and channel count at construction time and
// never change afterwards.
type FrameGeometry struct {
	FrameLengthMs   int // fixed at 20
	SampleSizeBytes int // bytes per multi-channel sample (16-bit samples)
	SamplesPerFrame int // samples per channel in one frame
	FrameSizeBytes  int // bytes of PCM in one frame
}

// NewFrameGeometry computes the frame geometry for a sampling configuration.
func NewFrameGeometry(sampleRate, channels int) FrameGeometry {
	// Multiply before dividing so rates that are not a multiple of 1000
	// (44100 Hz) keep their full 20ms frame.
	samplesPerFrame := sampleRate * FrameLengthMs / 1000
	sampleSize := 2 * channels
	return FrameGeometry{
		FrameLengthMs:   FrameLengthMs,
		SampleSizeBytes: sampleSize,
		SamplesPerFrame: samplesPerFrame,
		FrameSizeBytes:  samplesPerFrame * sampleSize,
	}
}

type encoderState int

const (
	stateUninitialized encoderState = iota
	stateReady
	stateClosed
)

// Encoder owns one native opus encoder state. The handle is exclusively
// owned: it is never copied, and it is destroyed exactly once.
//
// An Encoder is not safe for concurrent use. Callers that share one across
// goroutines must serialize Encode and Close themselves; the native state
// is not reentrant.
type Encoder struct {
	sampleRate  int
	channels    int
	application Application
	geometry    FrameGeometry

	// lib is the binding that created the handle. Kept on the encoder so a
	// later reload cannot leave the handle paired with the wrong library.
	lib    *funcTable
	handle uintptr
	state  encoderState
}

// NewEncoder creates an encoder for the given sampling rate and channel
// count. It returns ErrNotLoaded when no libopus binding is present and a
// *CodecError when the native create call rejects the configuration.
func NewEncoder(sampleRate, channels int, application Application) (*Encoder, error) {
	tbl := currentBinding()
	if tbl == nil {
		return nil, ErrNotLoaded
	}

	e := &Encoder{
		sampleRate:  sampleRate,
		channels:    channels,
		application: application,
		geometry:    NewFrameGeometry(sampleRate, channels),
		lib:         tbl,
	}

	var ret int32
	handle := tbl.encoderCreate(int32(sampleRate), int32(channels), int32(application), &ret)
	if ret != opusOK {
		return nil, newCodecError(tbl, ret)
	}

	e.handle = handle
	e.state = stateReady

	// Backstop for callers that drop the encoder without closing it. The
	// explicit Close remains the contract.
	runtime.SetFinalizer(e, (*Encoder).finalize)

	return e, nil
}

// SampleRate returns the sampling rate the encoder was created with.
func (e *Encoder) SampleRate() int { return e.sampleRate }

// Channels returns the channel count the encoder was created with.
func (e *Encoder) Channels() int { return e.channels }

// Geometry returns the frame geometry computed at construction.
func (e *Encoder) Geometry() FrameGeometry { return e.geometry }

// Encode compresses one frame of 16-bit little-endian PCM. frameSizeSamples
// is the number of samples per channel in pcm, normally
// Geometry().SamplesPerFrame. The output is capped at len(pcm) bytes, which
// is always sufficient since opus never inflates a frame it accepts.
//
// A *CodecError from the native encoder leaves the encoder usable; only
// Close ends its life. Calling Encode after Close returns ErrEncoderClosed.
func (e *Encoder) Encode(pcm []byte, frameSizeSamples int) ([]byte, error) {
	if e.state != stateReady {
		return nil, ErrEncoderClosed
	}

	maxDataBytes := len(pcm)
	data := make([]byte, maxDataBytes)

	n := e.lib.encode(e.handle, pcm, int32(frameSizeSamples), data, int32(maxDataBytes))
	runtime.KeepAlive(e)
	if n < 0 {
		return nil, newCodecError(e.lib, n)
	}

	return data[:n:n], nil
}

// Close destroys the native encoder state. It is idempotent: the native
// destroy runs at most once, and closing an already-closed encoder is a
// no-op. Encode calls after Close fail with ErrEncoderClosed.
func (e *Encoder) Close() error {
	if e.state != stateReady {
		return nil
	}
	e.lib.encoderDestroy(e.handle)
	e.handle = 0
	e.state = stateClosed
	runtime.SetFinalizer(e, nil)
	return nil
}

func (e *Encoder) finalize() {
	e.Close()
}
