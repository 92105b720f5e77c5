package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"
)

type testOptions struct {
	Config string

	CapturePrefix   string   `toml:"capture.prefix" env:"CAPTURE_PREFIX"`
	CaptureSettleMs int      `toml:"capture.settle_ms" env:"CAPTURE_SETTLE_MS"`
	MetricsEnabled  bool     `toml:"metrics.enabled" env:"METRICS_ENABLED"`
	DevicesMatch    []string `toml:"devices.match_terms" env:"DEVICES_MATCH_TERMS"`
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "camsnap.toml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestLoadConfigFromTOML(t *testing.T) {
	path := writeConfig(t, `
[capture]
prefix = "Plate42"
settle_ms = 750

[metrics]
enabled = true

[devices]
match_terms = ["camera", "video", "webcam"]
`)

	opts := &testOptions{Config: path}
	if err := LoadConfig(opts, nil); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	want := &testOptions{
		Config:          path,
		CapturePrefix:   "Plate42",
		CaptureSettleMs: 750,
		MetricsEnabled:  true,
		DevicesMatch:    []string{"camera", "video", "webcam"},
	}
	if diff := cmp.Diff(want, opts); diff != "" {
		t.Errorf("options mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConfigEnvOverridesToml(t *testing.T) {
	path := writeConfig(t, `
[capture]
prefix = "FromFile"
settle_ms = 100
`)
	t.Setenv("CAMSNAP_CAPTURE_PREFIX", "FromEnv")
	t.Setenv("CAMSNAP_DEVICES_MATCH_TERMS", "camera, ,capture")

	opts := &testOptions{Config: path}
	if err := LoadConfig(opts, nil); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if opts.CapturePrefix != "FromEnv" {
		t.Errorf("CapturePrefix = %q, want env value", opts.CapturePrefix)
	}
	if opts.CaptureSettleMs != 100 {
		t.Errorf("CaptureSettleMs = %d, want file value 100", opts.CaptureSettleMs)
	}
	if want := []string{"camera", "capture"}; !reflect.DeepEqual(opts.DevicesMatch, want) {
		t.Errorf("DevicesMatch = %v, want %v", opts.DevicesMatch, want)
	}
}

func TestLoadConfigSkipsChangedFlags(t *testing.T) {
	path := writeConfig(t, `
[capture]
prefix = "FromFile"
`)
	t.Setenv("CAMSNAP_CAPTURE_PREFIX", "FromEnv")

	opts := &testOptions{Config: path}
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().StringVar(&opts.CapturePrefix, "capture-prefix", "TestImage", "")
	if err := cmd.Flags().Set("capture-prefix", "FromFlag"); err != nil {
		t.Fatalf("Set flag: %v", err)
	}

	if err := LoadConfig(opts, cmd); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if opts.CapturePrefix != "FromFlag" {
		t.Errorf("CapturePrefix = %q, want the explicitly set flag", opts.CapturePrefix)
	}
}

func TestLoadConfigSkipsChangedPersistentFlags(t *testing.T) {
	path := writeConfig(t, `
[capture]
prefix = "FromFile"
`)

	opts := &testOptions{Config: path}
	root := &cobra.Command{Use: "camsnap"}
	root.PersistentFlags().StringVar(&opts.CapturePrefix, "capture-prefix", "TestImage", "")
	if err := root.PersistentFlags().Set("capture-prefix", "FromFlag"); err != nil {
		t.Fatalf("Set flag: %v", err)
	}

	if err := LoadConfig(opts, root); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if opts.CapturePrefix != "FromFlag" {
		t.Errorf("CapturePrefix = %q, want the explicitly set flag", opts.CapturePrefix)
	}
}

func TestLoadConfigArrayIntoStringField(t *testing.T) {
	path := writeConfig(t, `
[devices]
match_terms = ["camera", "webcam"]
`)
	opts := &struct {
		Config            string
		DevicesMatchTerms string `toml:"devices.match_terms"`
	}{Config: path}

	if err := LoadConfig(opts, nil); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if opts.DevicesMatchTerms != "camera,webcam" {
		t.Errorf("DevicesMatchTerms = %q, want %q", opts.DevicesMatchTerms, "camera,webcam")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	opts := &testOptions{
		Config:        filepath.Join(t.TempDir(), "absent.toml"),
		CapturePrefix: "TestImage",
	}
	if err := LoadConfig(opts, nil); err != nil {
		t.Fatalf("missing config file should not fail: %v", err)
	}
	if opts.CapturePrefix != "TestImage" {
		t.Errorf("defaults should survive, got %q", opts.CapturePrefix)
	}
}

func TestLoadConfigInvalidTOML(t *testing.T) {
	path := writeConfig(t, "[capture\nprefix = ")
	if err := LoadConfig(&testOptions{Config: path}, nil); err == nil {
		t.Error("expected parse error for invalid TOML")
	}
}

func TestLoadConfigRejectsNonPointer(t *testing.T) {
	if err := LoadConfig(testOptions{}, nil); err == nil {
		t.Error("expected error for non-pointer options")
	}
}

func TestFieldNameToFlag(t *testing.T) {
	tests := map[string]string{
		"Config":           "config",
		"CapturePrefix":    "capture-prefix",
		"FfmpegTimeoutMs":  "ffmpeg-timeout-ms",
		"MetricsTextfile":  "metrics-textfile",
		"DevicesMatchTerm": "devices-match-term",
	}
	for in, want := range tests {
		if got := fieldNameToFlag(in); got != want {
			t.Errorf("fieldNameToFlag(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestGetNestedValue(t *testing.T) {
	data := map[string]any{
		"capture": map[string]any{
			"prefix": "TestImage",
		},
		"flat": "value",
	}

	tests := []struct {
		path string
		want any
	}{
		{"capture.prefix", "TestImage"},
		{"flat", "value"},
		{"capture.missing", nil},
		{"flat.deeper", nil},
		{"absent.key", nil},
	}
	for _, tt := range tests {
		if got := getNestedValue(data, tt.path); got != tt.want {
			t.Errorf("getNestedValue(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestLoadLoggingModuleLevels(t *testing.T) {
	path := writeConfig(t, `
[logging]
level = "debug"
format = "json"
devices = "warn"
capture = "error"
`)

	cfg := LoadLoggingConfig(path)
	if cfg.Level != "debug" || cfg.Format != "json" {
		t.Errorf("global settings = %q/%q, want debug/json", cfg.Level, cfg.Format)
	}
	want := map[string]string{"devices": "warn", "capture": "error"}
	if diff := cmp.Diff(want, cfg.Modules); diff != "" {
		t.Errorf("module levels mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadLoggingConfigDefaults(t *testing.T) {
	cfg := LoadLoggingConfig("")
	if cfg.Level != "info" || cfg.Format != "text" || len(cfg.Modules) != 0 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}
