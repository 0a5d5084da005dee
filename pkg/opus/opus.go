// ABOUTME: Runtime binding to the native libopus shared library
// ABOUTME: Manages the process-wide library state and the bound function table
package opus

import (
	"sync"
	"sync/atomic"
)

// Application selects the native encoder tuning profile. The numeric values
// are fixed by the libopus ABI and must not be changed.
type Application int32

const (
	// AppVoIP favors speech intelligibility.
	AppVoIP Application = 2048
	// AppAudio favors fidelity for general audio and is the default.
	AppAudio Application = 2049
	// AppLowDelay disables speech-specific modes for minimum latency.
	AppLowDelay Application = 2051
)

// opusOK is the native success status.
const opusOK = 0

// funcTable holds the bound native entry points. Argument order and integer
// widths mirror the libopus ABI exactly:
//
//	const char *opus_strerror(int error)
//	int opus_encoder_get_size(int channels)
//	OpusEncoder *opus_encoder_create(opus_int32 Fs, int channels, int application, int *error)
//	opus_int32 opus_encode(OpusEncoder *st, const opus_int16 *pcm, int frame_size, unsigned char *data, opus_int32 max_data_bytes)
//	void opus_encoder_destroy(OpusEncoder *st)
type funcTable struct {
	strerror       func(code int32) string
	encoderGetSize func(channels int32) int32
	encoderCreate  func(sampleRate, channels, application int32, errOut *int32) uintptr
	encode         func(state uintptr, pcm []byte, frameSize int32, data []byte, maxDataBytes int32) int32
	encoderDestroy func(state uintptr)
}

// requiredSymbols lists every native symbol the binding needs. A library
// missing any of them is rejected at load time.
var requiredSymbols = []string{
	"opus_strerror",
	"opus_encoder_get_size",
	"opus_encoder_create",
	"opus_encode",
	"opus_encoder_destroy",
}

var (
	// binding is the process-wide library state. Encoders read it at
	// construction time; Load replaces it wholesale (last load wins).
	// Callers that reload must serialize the reload against concurrent
	// encoder construction themselves.
	binding atomic.Pointer[funcTable]

	// discoverOnce guards the one-shot best-effort default discovery.
	discoverOnce sync.Once
)

// Load opens the named shared library and binds the required opus symbols.
// On success it replaces any previously loaded binding. On failure it
// returns a *LoadError and leaves the previous state untouched: a binding
// already present stays usable, and the default discovery still runs if it
// has not happened yet.
//
// Call Load when libopus lives somewhere the default discovery cannot find;
// otherwise the library is located automatically on first use.
func Load(name string) error {
	tbl, err := bindLibrary(name)
	if err != nil {
		return err
	}

	// A successful explicit load supersedes default discovery. Consume the
	// once before storing so an in-flight discovery cannot overwrite the
	// explicit binding.
	discoverOnce.Do(func() {})
	binding.Store(tbl)
	return nil
}

// IsLoaded reports whether a libopus binding is present, either from the
// automatic discovery or an explicit Load call. Encoding requires this to
// be true; everything else in this module works without the native library.
func IsLoaded() bool {
	return currentBinding() != nil
}

// currentBinding returns the bound function table, running the default
// discovery the first time it is needed. Discovery failure is silent: the
// binding simply stays absent.
func currentBinding() *funcTable {
	discoverOnce.Do(func() {
		for _, name := range defaultLibNames() {
			tbl, err := bindLibrary(name)
			if err == nil {
				binding.Store(tbl)
				return
			}
		}
	})
	return binding.Load()
}

// strerrorMessage resolves a native status code to its human-readable
// message through the bound opus_strerror.
func strerrorMessage(tbl *funcTable, code int32) string {
	return tbl.strerror(code)
}
