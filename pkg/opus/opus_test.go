// ABOUTME: Tests for library state management and error translation
// ABOUTME: Covers explicit load failure, IsLoaded, and CodecError formatting
package opus

import (
	"errors"
	"strings"
	"sync"
	"testing"
)

func TestLoadNonexistentLibrary(t *testing.T) {
	before := IsLoaded()

	err := Load("definitely-nonexistent-library-xyz")
	if err == nil {
		t.Fatal("expected load of nonexistent library to fail")
	}

	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("expected LoadError, got %T: %v", err, err)
	}
	if loadErr.Name != "definitely-nonexistent-library-xyz" {
		t.Errorf("expected library name in error, got %q", loadErr.Name)
	}
	if loadErr.Unwrap() == nil {
		t.Error("expected underlying loader error to be preserved")
	}

	// A failed load leaves the library state untouched.
	if IsLoaded() != before {
		t.Errorf("IsLoaded changed from %v to %v after failed load", before, IsLoaded())
	}
}

func TestFailedLoadKeepsDefaultDiscovery(t *testing.T) {
	prev := binding.Swap(nil)
	t.Cleanup(func() { binding.Store(prev) })

	// Start from an unconsumed discovery so the failure path is observable.
	discoverOnce = sync.Once{}
	t.Cleanup(func() { discoverOnce.Do(func() {}) })

	if err := Load("definitely-nonexistent-library-xyz"); err == nil {
		t.Fatal("expected load of nonexistent library to fail")
	}

	// The failed load must not have consumed the discovery: a binding can
	// still be found automatically afterwards.
	fired := false
	discoverOnce.Do(func() { fired = true })
	if !fired {
		t.Error("failed load suppressed default discovery")
	}
}

func TestSuccessfulLoadSupersedesDiscovery(t *testing.T) {
	prev := binding.Swap(nil)
	t.Cleanup(func() { binding.Store(prev) })

	discoverOnce = sync.Once{}
	t.Cleanup(func() { discoverOnce.Do(func() {}) })

	// Simulate a successful explicit load: it consumes the discovery so a
	// later lookup cannot replace the explicit binding.
	tbl := stubTable(nil)
	discoverOnce.Do(func() {})
	binding.Store(tbl)

	if got := currentBinding(); got != tbl {
		t.Error("expected explicit binding to survive discovery")
	}
}

func TestIsLoadedWithStubBinding(t *testing.T) {
	installBinding(t, stubTable(nil))
	if !IsLoaded() {
		t.Error("expected IsLoaded true with binding installed")
	}

	installBinding(t, nil)
	if IsLoaded() {
		t.Error("expected IsLoaded false with binding absent")
	}
}

func TestCodecErrorMessage(t *testing.T) {
	tbl := stubTable(nil)
	tbl.strerror = func(code int32) string {
		return "buffer too small"
	}

	err := newCodecError(tbl, -2)
	if err.Code != -2 {
		t.Errorf("expected code -2, got %d", err.Code)
	}
	if err.Message != "buffer too small" {
		t.Errorf("expected strerror message verbatim, got %q", err.Message)
	}
	if !strings.Contains(err.Error(), "buffer too small") {
		t.Errorf("expected message in error string, got %q", err.Error())
	}
	if !strings.Contains(err.Error(), "-2") {
		t.Errorf("expected code in error string, got %q", err.Error())
	}
}

func TestLoadErrorFormatting(t *testing.T) {
	err := &LoadError{Name: "libopus.so.0", Err: errors.New("no such file")}
	if !strings.Contains(err.Error(), "libopus.so.0") {
		t.Errorf("expected library name in error string, got %q", err.Error())
	}
	if !strings.Contains(err.Error(), "no such file") {
		t.Errorf("expected underlying reason in error string, got %q", err.Error())
	}
}
