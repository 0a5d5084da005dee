//go:build windows

// ABOUTME: LoadLibrary-based libopus loader for Windows
// ABOUTME: Binds the opus function table via golang.org/x/sys/windows
package opus

import (
	"fmt"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

// bindLibrary opens the named DLL and binds every required symbol, wrapping
// each procedure address in a closure matching the function table shape.
func bindLibrary(name string) (*funcTable, error) {
	handle, err := windows.LoadLibrary(name)
	if err != nil {
		return nil, &LoadError{Name: name, Err: err}
	}

	procs := make(map[string]uintptr, len(requiredSymbols))
	for _, sym := range requiredSymbols {
		addr, err := windows.GetProcAddress(handle, sym)
		if err != nil {
			windows.FreeLibrary(handle)
			return nil, &LoadError{Name: name, Err: fmt.Errorf("missing symbol %s: %w", sym, err)}
		}
		procs[sym] = addr
	}

	strerrorAddr := procs["opus_strerror"]
	getSizeAddr := procs["opus_encoder_get_size"]
	createAddr := procs["opus_encoder_create"]
	encodeAddr := procs["opus_encode"]
	destroyAddr := procs["opus_encoder_destroy"]

	return &funcTable{
		strerror: func(code int32) string {
			r1, _, _ := syscall.SyscallN(strerrorAddr, uintptr(code))
			return goString(r1)
		},
		encoderGetSize: func(channels int32) int32 {
			r1, _, _ := syscall.SyscallN(getSizeAddr, uintptr(channels))
			return int32(uint32(r1))
		},
		encoderCreate: func(sampleRate, channels, application int32, errOut *int32) uintptr {
			r1, _, _ := syscall.SyscallN(createAddr,
				uintptr(sampleRate), uintptr(channels), uintptr(application),
				uintptr(unsafe.Pointer(errOut)))
			return r1
		},
		encode: func(state uintptr, pcm []byte, frameSize int32, data []byte, maxDataBytes int32) int32 {
			var pcmPtr, dataPtr unsafe.Pointer
			if len(pcm) > 0 {
				pcmPtr = unsafe.Pointer(&pcm[0])
			}
			if len(data) > 0 {
				dataPtr = unsafe.Pointer(&data[0])
			}
			r1, _, _ := syscall.SyscallN(encodeAddr,
				state, uintptr(pcmPtr), uintptr(frameSize),
				uintptr(dataPtr), uintptr(maxDataBytes))
			return int32(uint32(r1))
		},
		encoderDestroy: func(state uintptr) {
			syscall.SyscallN(destroyAddr, state)
		},
	}, nil
}

// defaultLibNames returns the DLL names tried by the automatic discovery.
func defaultLibNames() []string {
	return []string{"opus.dll", "libopus.dll", "libopus-0.dll"}
}

// goString copies a NUL-terminated C string into Go memory.
func goString(ptr uintptr) string {
	if ptr == 0 {
		return ""
	}
	n := 0
	for *(*byte)(unsafe.Pointer(ptr + uintptr(n))) != 0 {
		n++
	}
	return string(unsafe.Slice((*byte)(unsafe.Pointer(ptr)), n))
}
