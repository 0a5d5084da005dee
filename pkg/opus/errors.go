// ABOUTME: Error types for the libopus binding
// ABOUTME: Distinguishes load, not-loaded, native codec, and closed-state failures
package opus

import (
	"errors"
	"fmt"
)

// ErrNotLoaded is returned by NewEncoder when no libopus binding is present.
var ErrNotLoaded = errors.New("opus: library not loaded (call opus.Load or install libopus)")

// ErrEncoderClosed is returned by Encode after the encoder has been closed.
// It indicates caller misuse, not a codec failure.
var ErrEncoderClosed = errors.New("opus: encoder is closed")

// LoadError reports that a shared library could not be opened or was
// missing a required symbol.
type LoadError struct {
	Name string // library name or path passed to the loader
	Err  error  // underlying loader error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("opus: failed to load %q: %v", e.Name, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// CodecError carries a nonzero status returned by a native call together
// with the message libopus reports for it.
type CodecError struct {
	Code    int    // native status code
	Message string // resolved via opus_strerror
}

func (e *CodecError) Error() string {
	return fmt.Sprintf("opus: %s (code %d)", e.Message, e.Code)
}

// newCodecError builds a CodecError for code, resolving the message through
// the given binding. Only called after a successful bound native call, so
// the binding is always present here.
func newCodecError(tbl *funcTable, code int32) *CodecError {
	return &CodecError{
		Code:    int(code),
		Message: strerrorMessage(tbl, code),
	}
}
