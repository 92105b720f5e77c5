package devices

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recordingBroadcaster struct {
	actions []string
	records []Record
}

func (r *recordingBroadcaster) BroadcastDeviceDiscovery(action string, record Record, _ string) {
	r.actions = append(r.actions, action)
	r.records = append(r.records, record)
}

func staticInventory(entries ...Entry) Inventory {
	return InventoryFunc(func(context.Context) ([]Entry, error) {
		return entries, nil
	})
}

func TestListDevicesFiltersAndIndexes(t *testing.T) {
	inventory := staticInventory(
		Entry{Description: "USB Composite Device", Identifier: `USB\VID_046D&PID_0825\1`},
		Entry{Description: "USB Camera", Identifier: `\\?\usb#vid_13d3&pid_5405&mi_00`},
		Entry{Description: "Intel(R) UHD Graphics", Identifier: `PCI\VEN_8086`},
		Entry{Description: "USB Video Device", Identifier: ""},
		Entry{Description: "HD WebCAMERA", Identifier: `USB\VID_0C45&PID_6366\2`},
		Entry{Description: "Generic VIDEO capture", Identifier: "  /dev/video2  "},
	)

	var console bytes.Buffer
	catalog := NewCatalog(inventory, CatalogOptions{Console: &console, Logger: testLogger()})

	records, err := catalog.ListDevices(context.Background())
	if err != nil {
		t.Fatalf("ListDevices failed: %v", err)
	}

	want := []Record{
		{Index: 0, Label: "USB Camera", Identifier: `\\?\usb#vid_13d3&pid_5405&mi_00`},
		{Index: 1, Label: "HD WebCAMERA", Identifier: `USB\VID_0C45&PID_6366\2`},
		{Index: 2, Label: "Generic VIDEO capture", Identifier: "/dev/video2"},
	}
	if diff := cmp.Diff(want, records); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}

	lines := strings.Split(strings.TrimSpace(console.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 console lines, got %d: %q", len(lines), console.String())
	}
	if want := `[0] USB Camera - Device Path: \\?\usb#vid_13d3&pid_5405&mi_00`; lines[0] != want {
		t.Errorf("console line = %q, want %q", lines[0], want)
	}
}

func TestListDevicesNeverReturnsEmptyIdentifiers(t *testing.T) {
	inventory := staticInventory(
		Entry{Description: "Camera A", Identifier: ""},
		Entry{Description: "Camera B", Identifier: "   "},
		Entry{Description: "Camera C", Identifier: "id-c"},
	)

	records, err := NewCatalog(inventory, CatalogOptions{Logger: testLogger()}).ListDevices(context.Background())
	if err != nil {
		t.Fatalf("ListDevices failed: %v", err)
	}
	for _, r := range records {
		if r.Identifier == "" {
			t.Errorf("record %d has empty identifier", r.Index)
		}
	}
	if len(records) != 1 || records[0].Identifier != "id-c" || records[0].Index != 0 {
		t.Errorf("unexpected records: %+v", records)
	}
}

func TestListDevicesDropsDuplicateIdentifiers(t *testing.T) {
	inventory := staticInventory(
		Entry{Description: "USB Video Device", Identifier: "dup"},
		Entry{Description: "USB Video Device", Identifier: "dup"},
		Entry{Description: "USB Video Device", Identifier: "other"},
	)

	records, err := NewCatalog(inventory, CatalogOptions{Logger: testLogger()}).ListDevices(context.Background())
	if err != nil {
		t.Fatalf("ListDevices failed: %v", err)
	}

	want := []Record{
		{Index: 0, Label: "USB Video Device", Identifier: "dup"},
		{Index: 1, Label: "USB Video Device", Identifier: "other"},
	}
	if diff := cmp.Diff(want, records); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestListDevicesEmptyIsNotAnError(t *testing.T) {
	inventory := staticInventory(Entry{Description: "Keyboard", Identifier: "kbd"})

	records, err := NewCatalog(inventory, CatalogOptions{Logger: testLogger()}).ListDevices(context.Background())
	if err != nil {
		t.Fatalf("empty result should not be an error: %v", err)
	}
	if records == nil || len(records) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", records)
	}
}

func TestListDevicesEnumerationError(t *testing.T) {
	cause := errors.New("RPC server unavailable")
	inventory := InventoryFunc(func(context.Context) ([]Entry, error) {
		return nil, cause
	})

	_, err := NewCatalog(inventory, CatalogOptions{Logger: testLogger()}).ListDevices(context.Background())

	var enumErr *EnumerationError
	if !errors.As(err, &enumErr) {
		t.Fatalf("expected EnumerationError, got %T: %v", err, err)
	}
	if !errors.Is(err, cause) {
		t.Error("EnumerationError should wrap the inventory error")
	}
}

func TestListDevicesQueriesFreshEachTime(t *testing.T) {
	calls := 0
	inventory := InventoryFunc(func(context.Context) ([]Entry, error) {
		calls++
		if calls == 1 {
			return []Entry{{Description: "USB Camera", Identifier: "a"}}, nil
		}
		return []Entry{}, nil
	})
	catalog := NewCatalog(inventory, CatalogOptions{Logger: testLogger()})

	first, _ := catalog.ListDevices(context.Background())
	second, _ := catalog.ListDevices(context.Background())

	if calls != 2 {
		t.Errorf("inventory queried %d times, want 2", calls)
	}
	if len(first) != 1 || len(second) != 0 {
		t.Errorf("second query should reflect the new inventory: first=%v second=%v", first, second)
	}
}

func TestListDevicesCustomMatchTerms(t *testing.T) {
	inventory := staticInventory(
		Entry{Description: "HD Pro Webcam C920", Identifier: "usb-046d_HD_Pro_Webcam_C920-video-index0"},
		Entry{Description: "USB Video Device", Identifier: "video"},
	)
	catalog := NewCatalog(inventory, CatalogOptions{MatchTerms: []string{" WEBCAM ", ""}, Logger: testLogger()})

	if diff := cmp.Diff([]string{"webcam"}, catalog.MatchTerms()); diff != "" {
		t.Errorf("terms mismatch (-want +got):\n%s", diff)
	}

	records, err := catalog.ListDevices(context.Background())
	if err != nil {
		t.Fatalf("ListDevices failed: %v", err)
	}
	if len(records) != 1 || records[0].Label != "HD Pro Webcam C920" {
		t.Errorf("unexpected records: %+v", records)
	}
}

func TestListDevicesBroadcastsEachRecord(t *testing.T) {
	inventory := staticInventory(
		Entry{Description: "USB Camera", Identifier: "a"},
		Entry{Description: "USB Video Device", Identifier: "b"},
	)
	broadcaster := &recordingBroadcaster{}

	_, err := NewCatalog(inventory, CatalogOptions{Broadcaster: broadcaster, Logger: testLogger()}).
		ListDevices(context.Background())
	if err != nil {
		t.Fatalf("ListDevices failed: %v", err)
	}

	if diff := cmp.Diff([]string{"discovered", "discovered"}, broadcaster.actions); diff != "" {
		t.Errorf("actions mismatch (-want +got):\n%s", diff)
	}
	if broadcaster.records[1].Index != 1 || broadcaster.records[1].Identifier != "b" {
		t.Errorf("unexpected broadcast record: %+v", broadcaster.records[1])
	}
}
