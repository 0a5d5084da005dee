//go:build darwin || freebsd || linux

// ABOUTME: dlopen-based libopus loader for Unix-like systems
// ABOUTME: Binds the opus function table via purego
package opus

import (
	"fmt"
	"runtime"

	"github.com/ebitengine/purego"
)

// bindLibrary opens the named shared object and binds every required
// symbol. Symbols are checked with Dlsym first so a partial library is
// rejected up front instead of panicking at call time.
func bindLibrary(name string) (*funcTable, error) {
	handle, err := purego.Dlopen(name, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return nil, &LoadError{Name: name, Err: err}
	}

	for _, sym := range requiredSymbols {
		if _, err := purego.Dlsym(handle, sym); err != nil {
			purego.Dlclose(handle)
			return nil, &LoadError{Name: name, Err: fmt.Errorf("missing symbol %s: %w", sym, err)}
		}
	}

	tbl := &funcTable{}
	purego.RegisterLibFunc(&tbl.strerror, handle, "opus_strerror")
	purego.RegisterLibFunc(&tbl.encoderGetSize, handle, "opus_encoder_get_size")
	purego.RegisterLibFunc(&tbl.encoderCreate, handle, "opus_encoder_create")
	purego.RegisterLibFunc(&tbl.encode, handle, "opus_encode")
	purego.RegisterLibFunc(&tbl.encoderDestroy, handle, "opus_encoder_destroy")

	return tbl, nil
}

// defaultLibNames returns the platform-appropriate names tried by the
// automatic discovery, most specific first. On Linux the versioned soname
// is what distros actually ship without the -dev package installed.
func defaultLibNames() []string {
	if runtime.GOOS == "darwin" {
		return []string{
			"libopus.0.dylib",
			"libopus.dylib",
			"/opt/homebrew/lib/libopus.0.dylib",
			"/usr/local/lib/libopus.0.dylib",
		}
	}
	return []string{
		"libopus.so.0",
		"libopus.so",
	}
}
