package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/smazurov/camsnap/internal/events"
)

func TestRecorderCountsEvents(t *testing.T) {
	bus := events.New()
	r := NewRecorder()
	unsub := r.Subscribe(bus)
	defer unsub()

	bus.Publish(events.DeviceDiscoveryEvent{Index: 0})
	bus.Publish(events.DeviceDiscoveryEvent{Index: 1})
	bus.Publish(events.SelectionRejectedEvent{Input: "abc", Reason: "not a number"})
	bus.Publish(events.SelectionRejectedEvent{Input: "5", Reason: "out of range"})
	bus.Publish(events.CaptureCompletedEvent{
		Provider:      "library",
		ResultCode:    0,
		ArtifactFound: true,
		Duration:      1500 * time.Millisecond,
	})
	bus.Wait()

	if got := testutil.ToFloat64(r.devicesDiscovered); got != 2 {
		t.Errorf("devices_discovered = %v, want 2", got)
	}
	for _, reason := range []string{"not a number", "out of range"} {
		if got := testutil.ToFloat64(r.selectionRejections.WithLabelValues(reason)); got != 1 {
			t.Errorf("rejections{%s} = %v, want 1", reason, got)
		}
	}
	if got := testutil.ToFloat64(r.captures.WithLabelValues("library", ResultSuccess)); got != 1 {
		t.Errorf("captures{success} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.artifactFound); got != 1 {
		t.Errorf("artifact_found = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(r.captureDuration); got != 1 {
		t.Errorf("capture_duration_seconds series = %d, want 1", got)
	}
}

func TestRecorderFailureResults(t *testing.T) {
	bus := events.New()
	r := NewRecorder()
	unsub := r.Subscribe(bus)
	defer unsub()

	bus.Publish(events.CaptureCompletedEvent{Provider: "ffmpeg", ResultCode: 0, ArtifactFound: false})
	bus.Publish(events.CaptureCompletedEvent{Provider: "ffmpeg", ResultCode: 254, ArtifactFound: false})
	bus.Publish(events.CaptureInvocationFailedEvent{Provider: "ffmpeg", Error: "ffmpeg not found"})
	bus.Wait()

	if got := testutil.ToFloat64(r.captures.WithLabelValues("ffmpeg", ResultFailed)); got != 2 {
		t.Errorf("captures{failed} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.captures.WithLabelValues("ffmpeg", ResultInvocationError)); got != 1 {
		t.Errorf("captures{invocation_error} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.lastResultCode); got != 254 {
		t.Errorf("last_result_code = %v, want 254", got)
	}
	if got := testutil.ToFloat64(r.artifactFound); got != 0 {
		t.Errorf("artifact_found = %v, want 0", got)
	}
}

func TestRecordersAreIndependent(t *testing.T) {
	a := NewRecorder()
	b := NewRecorder()
	a.devicesDiscovered.Set(3)

	if got := testutil.ToFloat64(b.devicesDiscovered); got != 0 {
		t.Errorf("second recorder shares state: %v", got)
	}
}

func TestWriteTextfile(t *testing.T) {
	r := NewRecorder()
	r.devicesDiscovered.Set(2)
	r.captures.WithLabelValues("library", ResultSuccess).Inc()

	path := filepath.Join(t.TempDir(), "camsnap.prom")
	if err := r.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	for _, want := range []string{
		"camsnap_devices_discovered 2",
		"camsnap_build_info{",
		`camsnap_captures_total{provider="library",result="success"} 1`,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("textfile missing %q:\n%s", want, text)
		}
	}
}

func TestWriteTextfileBadPath(t *testing.T) {
	r := NewRecorder()
	if err := r.WriteTextfile(filepath.Join(t.TempDir(), "missing", "camsnap.prom")); err == nil {
		t.Error("expected error for missing directory")
	}
}
