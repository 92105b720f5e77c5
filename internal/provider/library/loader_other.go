//go:build !darwin && !linux && !freebsd && !windows

package library

import (
	"errors"
	"runtime"
)

// DefaultPath has no meaning where native libraries cannot be loaded.
func DefaultPath() string {
	return ""
}

func openLibrary(string) (uintptr, error) {
	return 0, errors.New("native libraries are not supported on " + runtime.GOOS)
}

func lookupSymbol(uintptr, string) (uintptr, error) {
	return 0, errors.New("native libraries are not supported on " + runtime.GOOS)
}
