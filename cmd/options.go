package cmd

import (
	"runtime"
	"strings"
	"time"

	"github.com/smazurov/camsnap/internal/app"
	"github.com/smazurov/camsnap/internal/logging"
)

// WindowsOutputDir is where the native capture library writes its images.
const WindowsOutputDir = `C:\Program Files (x86)\HAMILTON\LogFiles\HSLCamera`

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"camsnap.toml"`

	// Device discovery
	DevicesMatchTerms string `help:"Comma-separated terms a device description must contain" default:"camera,video" toml:"devices.match_terms" env:"DEVICES_MATCH_TERMS"`

	// Capture settings
	CaptureProvider  string `help:"Capture provider (auto, library, ffmpeg)" default:"auto" toml:"capture.provider" env:"CAPTURE_PROVIDER"`
	CapturePrefix    string `help:"File name prefix for captured images" default:"TestImage" toml:"capture.prefix" env:"CAPTURE_PREFIX"`
	CaptureOutputDir string `help:"Directory checked for captured images (platform default when empty)" toml:"capture.output_dir" env:"CAPTURE_OUTPUT_DIR"`
	CaptureExtension string `help:"Image file extension (bmp for library, jpg for ffmpeg when empty)" toml:"capture.extension" env:"CAPTURE_EXTENSION"`
	CaptureSettleMs  int    `help:"How long to wait for a late image file in milliseconds" default:"2000" toml:"capture.settle_ms" env:"CAPTURE_SETTLE_MS"`

	// Native library provider
	ProviderLibraryPath string `help:"Path of the native capture library" toml:"provider.library_path" env:"PROVIDER_LIBRARY_PATH"`
	ProviderSymbol      string `help:"Exported capture entry point" default:"capture_image" toml:"provider.symbol" env:"PROVIDER_SYMBOL"`

	// FFmpeg provider
	FfmpegBinary      string `help:"ffmpeg executable" default:"ffmpeg" toml:"ffmpeg.binary" env:"FFMPEG_BINARY"`
	FfmpegInputFormat string `help:"ffmpeg input device format (v4l2, dshow, avfoundation)" default:"v4l2" toml:"ffmpeg.input_format" env:"FFMPEG_INPUT_FORMAT"`
	FfmpegPixelFormat string `help:"Device pixel format, e.g. mjpeg or yuyv422" toml:"ffmpeg.pixel_format" env:"FFMPEG_PIXEL_FORMAT"`
	FfmpegResolution  string `help:"Capture resolution, e.g. 1280x720" toml:"ffmpeg.resolution" env:"FFMPEG_RESOLUTION"`
	FfmpegOptions     string `help:"Comma-separated ffmpeg input options" default:"thread_queue_1024" toml:"ffmpeg.options" env:"FFMPEG_OPTIONS"`
	FfmpegTimeoutMs   int    `help:"ffmpeg run timeout in milliseconds" default:"10000" toml:"ffmpeg.timeout_ms" env:"FFMPEG_TIMEOUT_MS"`

	// Metrics
	MetricsTextfile string `help:"Write run metrics to this Prometheus textfile" toml:"metrics.textfile" env:"METRICS_TEXTFILE"`

	// Logging settings
	LoggingLevel    string `help:"Global logging level (debug, info, warn, error)" default:"warn" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat   string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingDevices  string `help:"Devices logging level" toml:"logging.devices" env:"LOGGING_DEVICES"`
	LoggingSelector string `help:"Selector logging level" toml:"logging.selector" env:"LOGGING_SELECTOR"`
	LoggingCapture  string `help:"Capture logging level" toml:"logging.capture" env:"LOGGING_CAPTURE"`
	LoggingProvider string `help:"Provider logging level" toml:"logging.provider" env:"LOGGING_PROVIDER"`
	LoggingFfmpeg   string `help:"ffmpeg output logging level" toml:"logging.ffmpeg" env:"LOGGING_FFMPEG"`
	LoggingMetrics  string `help:"Metrics logging level" toml:"logging.metrics" env:"LOGGING_METRICS"`
}

// LoggingConfig returns the logging configuration from the options.
func (o *Options) LoggingConfig() logging.Config {
	return logging.Config{
		Level:  o.LoggingLevel,
		Format: o.LoggingFormat,
		Modules: map[string]string{
			"devices":  o.LoggingDevices,
			"selector": o.LoggingSelector,
			"capture":  o.LoggingCapture,
			"provider": o.LoggingProvider,
			"ffmpeg":   o.LoggingFfmpeg,
			"metrics":  o.LoggingMetrics,
		},
	}
}

// MatchTerms splits the configured match terms.
func (o *Options) MatchTerms() []string {
	return splitList(o.DevicesMatchTerms)
}

// ProviderName resolves "auto" to the platform's provider.
func (o *Options) ProviderName() string {
	name := strings.ToLower(strings.TrimSpace(o.CaptureProvider))
	if name == "" || name == "auto" {
		if runtime.GOOS == "windows" {
			return "library"
		}
		return "ffmpeg"
	}
	return name
}

// OutputDir returns the configured output directory or the platform default.
func (o *Options) OutputDir() string {
	if o.CaptureOutputDir != "" {
		return o.CaptureOutputDir
	}
	if runtime.GOOS == "windows" {
		return WindowsOutputDir
	}
	return "captures"
}

// Extension returns the artifact extension for the provider in use.
func (o *Options) Extension() string {
	if ext := strings.TrimPrefix(strings.TrimSpace(o.CaptureExtension), "."); ext != "" {
		return ext
	}
	if o.ProviderName() == "library" {
		return "bmp"
	}
	return "jpg"
}

// Settle converts the settle window. Zero disables it and negative values
// fall back to capture.DefaultSettle.
func (o *Options) Settle() time.Duration {
	return time.Duration(o.CaptureSettleMs) * time.Millisecond
}

// Prefix returns the capture prefix, defaulting when blank.
func (o *Options) Prefix() string {
	if p := strings.TrimSpace(o.CapturePrefix); p != "" {
		return p
	}
	return app.DefaultPrefix
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
