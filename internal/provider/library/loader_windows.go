//go:build windows

package library

import "golang.org/x/sys/windows"

// DefaultPath is the library name searched by the Windows loader.
func DefaultPath() string {
	return "HSLCam.dll"
}

func openLibrary(path string) (uintptr, error) {
	handle, err := windows.LoadLibrary(path)
	if err != nil {
		return 0, err
	}
	return uintptr(handle), nil
}

func lookupSymbol(handle uintptr, name string) (uintptr, error) {
	return windows.GetProcAddress(windows.Handle(handle), name)
}
