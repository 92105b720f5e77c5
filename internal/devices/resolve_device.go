package devices

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// v4l2LinkDirs are searched in order when resolving a stable identifier.
var v4l2LinkDirs = []string{"/dev/v4l/by-id", "/dev/v4l/by-path"}

// ResolveDevicePath converts a catalog identifier to a path ffmpeg can open.
// Identifiers that are already absolute paths are returned unchanged.
func ResolveDevicePath(identifier string) (string, error) {
	return resolveDevicePath(identifier, v4l2LinkDirs)
}

func resolveDevicePath(identifier string, linkDirs []string) (string, error) {
	if identifier == "" {
		return "", fmt.Errorf("empty device identifier")
	}
	if filepath.IsAbs(identifier) {
		return identifier, nil
	}
	if strings.ContainsAny(identifier, `/\`) {
		return "", fmt.Errorf("identifier %q is not a stable link name", identifier)
	}

	for _, dir := range linkDirs {
		candidate := filepath.Join(dir, identifier)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("no stable symlink found for device ID: %s", identifier)
}
