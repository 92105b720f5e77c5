//go:build darwin || linux || freebsd

package library

import (
	"runtime"

	"github.com/ebitengine/purego"
)

// DefaultPath is the library name searched by the dynamic loader.
func DefaultPath() string {
	if runtime.GOOS == "darwin" {
		return "libhslcam.dylib"
	}
	return "libhslcam.so"
}

func openLibrary(path string) (uintptr, error) {
	return purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
}

func lookupSymbol(handle uintptr, name string) (uintptr, error) {
	return purego.Dlsym(handle, name)
}
