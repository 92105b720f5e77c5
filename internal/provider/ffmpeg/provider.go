// Package ffmpeg captures a frame by running ffmpeg once against the
// selected device.
package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/smazurov/camsnap/internal/capture"
	"github.com/smazurov/camsnap/internal/devices"
	"github.com/smazurov/camsnap/internal/ffmpeg"
	"github.com/smazurov/camsnap/internal/logging"
	"github.com/smazurov/camsnap/internal/process"
)

// DefaultTimeout bounds a single ffmpeg run.
const DefaultTimeout = 10 * time.Second

// SuccessMessage is reported when ffmpeg exits cleanly.
const SuccessMessage = "Success"

// Config holds ffmpeg provider settings.
type Config struct {
	Binary      string
	InputFormat string // demuxer, v4l2 by default
	PixelFormat string
	Resolution  string
	Options     []ffmpeg.OptionType
	OutputDir   string
	Extension   string
	Timeout     time.Duration
	Logger      *slog.Logger

	// ResolveDevice maps an identifier to the path ffmpeg opens. Defaults
	// to devices.ResolveDevicePath for v4l2 and the identity otherwise.
	ResolveDevice func(identifier string) (string, error)
	// Now stamps output file names.
	Now func() time.Time
}

// Provider implements capture.Provider with an ffmpeg subprocess.
type Provider struct {
	cfg          Config
	logger       *slog.Logger
	ffmpegLogger *slog.Logger
}

// New creates an ffmpeg provider, filling defaults.
func New(cfg Config) (*Provider, error) {
	if cfg.Binary == "" {
		cfg.Binary = ffmpeg.DefaultBinary
	}
	if cfg.InputFormat == "" {
		cfg.InputFormat = "v4l2"
	}
	if cfg.Extension == "" {
		cfg.Extension = "jpg"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.ResolveDevice == nil {
		if cfg.InputFormat == "v4l2" {
			cfg.ResolveDevice = devices.ResolveDevicePath
		} else {
			cfg.ResolveDevice = func(identifier string) (string, error) { return identifier, nil }
		}
	}
	if err := ffmpeg.ValidateOptions(cfg.Options); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.GetLogger("provider")
	}

	return &Provider{
		cfg:          cfg,
		logger:       logger,
		ffmpegLogger: logging.GetLogger("ffmpeg"),
	}, nil
}

// Name implements capture.Provider.
func (p *Provider) Name() string { return "ffmpeg" }

// Capture implements capture.Provider. The exit status becomes the result
// code and the last error line ffmpeg printed becomes the message.
func (p *Provider) Capture(ctx context.Context, req capture.Request) (capture.Result, error) {
	device, err := p.cfg.ResolveDevice(req.Identifier)
	if err != nil {
		// An unresolvable device is a capture failure, not a broken provider.
		return capture.Result{Code: 1, Message: err.Error()}, nil
	}

	args, err := ffmpeg.BuildSnapshotArgs(&ffmpeg.SnapshotParams{
		Binary:      p.cfg.Binary,
		Demuxer:     p.cfg.InputFormat,
		Device:      device,
		PixelFormat: p.cfg.PixelFormat,
		Resolution:  p.cfg.Resolution,
		Options:     p.cfg.Options,
		OutputDir:   p.cfg.OutputDir,
		Prefix:      req.FilenamePrefix,
		Extension:   p.cfg.Extension,
		Timestamp:   p.cfg.Now(),
	})
	if err != nil {
		return capture.Result{}, fmt.Errorf("build ffmpeg command: %w", err)
	}

	if p.cfg.OutputDir != "" {
		if err := os.MkdirAll(p.cfg.OutputDir, 0o755); err != nil {
			return capture.Result{}, fmt.Errorf("%w: create output directory: %w", capture.ErrProviderUnavailable, err)
		}
	}

	runCtx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	collector := &errorCollector{}
	proc := process.NewWithOutput("snapshot", args, p.logger, collector)
	proc.SetLogParser(p.ffmpegLogger, ffmpeg.ParseLogLevel)

	p.logger.Debug("Running ffmpeg", "device", device, "command", proc.Command())
	code, err := proc.Run(runCtx)
	switch {
	case err == nil:
	case ctx.Err() != nil:
		return capture.Result{}, ctx.Err()
	case errors.Is(err, context.DeadlineExceeded):
		return capture.Result{Code: code, Message: fmt.Sprintf("ffmpeg timed out after %s", p.cfg.Timeout)}, nil
	case errors.Is(err, exec.ErrNotFound):
		return capture.Result{}, fmt.Errorf("%w: %s not found: %w", capture.ErrProviderUnavailable, p.cfg.Binary, err)
	default:
		return capture.Result{}, fmt.Errorf("%w: start %s: %w", capture.ErrProviderUnavailable, p.cfg.Binary, err)
	}

	if code == 0 {
		return capture.Result{Code: 0, Message: SuccessMessage}, nil
	}

	msg := collector.last()
	if msg == "" {
		msg = fmt.Sprintf("ffmpeg exited with status %d", code)
	}
	return capture.Result{Code: code, Message: msg}, nil
}

// errorCollector remembers the last error-level line ffmpeg printed.
type errorCollector struct {
	mu      sync.Mutex
	lastErr string
}

func (c *errorCollector) HandleLine(_, line string) {
	parsed := ffmpeg.ParseLine(line)
	if !parsed.IsError() {
		return
	}
	c.mu.Lock()
	c.lastErr = parsed.Text()
	c.mu.Unlock()
}

func (c *errorCollector) last() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}
