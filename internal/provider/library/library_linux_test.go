//go:build linux

package library

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/smazurov/camsnap/internal/capture"
)

const fixtureSource = `#include <stdint.h>
#include <stdio.h>
#include <string.h>

int32_t capture_image(const char *device, const char *prefix, char *err, size_t err_len) {
	if (strcmp(device, "offline") == 0) {
		snprintf(err, err_len, "Device %s is not ready", device);
		return 104;
	}
	snprintf(err, err_len, "Success %s %s", prefix, device);
	return 0;
}
`

// buildFixture compiles a shared library exporting capture_image.
func buildFixture(t *testing.T) string {
	t.Helper()
	cc, err := exec.LookPath("cc")
	if err != nil {
		t.Skip("no C compiler on PATH")
	}

	dir := t.TempDir()
	src := filepath.Join(dir, "fixture.c")
	if err := os.WriteFile(src, []byte(fixtureSource), 0o644); err != nil {
		t.Fatal(err)
	}
	lib := filepath.Join(dir, "libfixture.so")
	if out, err := exec.Command(cc, "-shared", "-fPIC", "-o", lib, src).CombinedOutput(); err != nil {
		t.Fatalf("compile fixture: %v\n%s", err, out)
	}
	return lib
}

func TestCaptureLoadsLibrary(t *testing.T) {
	p := New(Config{Path: buildFixture(t), Logger: testLogger()})

	tests := []struct {
		device string
		want   capture.Result
	}{
		{`USB\VID_0C45&PID_6366\2`, capture.Result{Code: 0, Message: `Success TestImage USB\VID_0C45&PID_6366\2`}},
		{"offline", capture.Result{Code: 104, Message: "Device offline is not ready"}},
	}

	// The second call reuses the already bound entry point.
	for _, tt := range tests {
		t.Run(tt.device, func(t *testing.T) {
			got, err := p.Capture(context.Background(), capture.Request{Identifier: tt.device, FilenamePrefix: "TestImage"})
			if err != nil {
				t.Fatalf("Capture failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Capture() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestCaptureMissingSymbol(t *testing.T) {
	const libc = "libc.so.6"
	if _, err := openLibrary(libc); err != nil {
		t.Skipf("%s not available: %v", libc, err)
	}

	p := New(Config{Path: libc, Symbol: "camsnap_no_such_entry_point", Logger: testLogger()})
	_, err := p.Capture(context.Background(), capture.Request{Identifier: "dev", FilenamePrefix: "TestImage"})
	if !errors.Is(err, capture.ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
	if !strings.Contains(err.Error(), "camsnap_no_such_entry_point") {
		t.Errorf("error does not name the symbol: %v", err)
	}
}
