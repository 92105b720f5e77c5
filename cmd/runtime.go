package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/smazurov/camsnap/internal/app"
	"github.com/smazurov/camsnap/internal/capture"
	"github.com/smazurov/camsnap/internal/devices"
	"github.com/smazurov/camsnap/internal/events"
	"github.com/smazurov/camsnap/internal/ffmpeg"
	"github.com/smazurov/camsnap/internal/logging"
	"github.com/smazurov/camsnap/internal/metrics"
	ffmpegprovider "github.com/smazurov/camsnap/internal/provider/ffmpeg"
	"github.com/smazurov/camsnap/internal/provider/library"
	"github.com/smazurov/camsnap/internal/selector"
)

// Process exit codes.
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitInterrupted = 130
)

// ExitCode maps a run error to the process exit status. Closed input and
// cancellation count as an interrupt.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, selector.ErrInputClosed), errors.Is(err, context.Canceled):
		return ExitInterrupted
	default:
		return ExitFailure
	}
}

// Runtime holds the components shared by every command.
type Runtime struct {
	opts        *Options
	bus         *events.Bus
	recorder    *metrics.Recorder
	unsubscribe func()
	logger      *slog.Logger
}

// NewRuntime creates the event bus and metrics recorder for one run.
func NewRuntime(opts *Options) *Runtime {
	bus := events.New()
	recorder := metrics.NewRecorder()
	return &Runtime{
		opts:        opts,
		bus:         bus,
		recorder:    recorder,
		unsubscribe: recorder.Subscribe(bus),
		logger:      logging.GetLogger("main"),
	}
}

// Bus returns the run's event bus.
func (r *Runtime) Bus() *events.Bus { return r.bus }

// Recorder returns the run's metrics recorder.
func (r *Runtime) Recorder() *metrics.Recorder { return r.recorder }

// Catalog builds the device catalog; the listing is written to console.
func (r *Runtime) Catalog(inventory devices.Inventory, console io.Writer) *devices.Catalog {
	terms := r.opts.MatchTerms()
	if inventory == nil {
		inventory = devices.NewInventory(terms)
	}
	return devices.NewCatalog(inventory, devices.CatalogOptions{
		MatchTerms:  terms,
		Console:     console,
		Broadcaster: r.bus,
		Logger:      logging.GetLogger("devices"),
	})
}

// Selector builds the interactive selector. Rejected inputs are published
// on the bus.
func (r *Runtime) Selector(in io.Reader, out io.Writer) *selector.Selector {
	return selector.New(in, out, selector.Options{
		OnReject: func(rej selector.Rejection) {
			r.bus.Publish(events.SelectionRejectedEvent{
				Input:     rej.Input,
				Reason:    string(rej.Reason),
				Timestamp: events.Now(),
			})
		},
		Logger: logging.GetLogger("selector"),
	})
}

// Bridge builds the configured provider and wraps it in a capture bridge.
func (r *Runtime) Bridge() (*capture.Bridge, error) {
	provider, err := NewProvider(r.opts)
	if err != nil {
		return nil, err
	}
	return r.bridgeFor(provider), nil
}

func (r *Runtime) bridgeFor(provider capture.Provider) *capture.Bridge {
	return capture.NewBridge(provider, capture.Options{
		OutputDir:   r.opts.OutputDir(),
		Extension:   r.opts.Extension(),
		Settle:      r.opts.Settle(),
		Broadcaster: r.bus,
		Logger:      logging.GetLogger("capture"),
	})
}

// Finish waits for queued events and writes the metrics textfile when one
// is configured.
func (r *Runtime) Finish() {
	r.bus.Wait()
	r.unsubscribe()

	if r.opts.MetricsTextfile == "" {
		return
	}
	if err := r.recorder.WriteTextfile(r.opts.MetricsTextfile); err != nil {
		r.logger.Warn("Failed to write metrics textfile", "path", r.opts.MetricsTextfile, "error", err)
	}
}

// NewProvider creates the capture provider named by the options.
func NewProvider(opts *Options) (capture.Provider, error) {
	logger := logging.GetLogger("provider")

	switch name := opts.ProviderName(); name {
	case "library":
		return library.New(library.Config{
			Path:   opts.ProviderLibraryPath,
			Symbol: opts.ProviderSymbol,
			Logger: logger,
		}), nil
	case "ffmpeg":
		inputOptions, err := ffmpeg.ParseOptions(splitList(opts.FfmpegOptions))
		if err != nil {
			return nil, fmt.Errorf("ffmpeg options: %w", err)
		}
		return ffmpegprovider.New(ffmpegprovider.Config{
			Binary:      opts.FfmpegBinary,
			InputFormat: opts.FfmpegInputFormat,
			PixelFormat: opts.FfmpegPixelFormat,
			Resolution:  opts.FfmpegResolution,
			Options:     inputOptions,
			OutputDir:   opts.OutputDir(),
			Extension:   opts.Extension(),
			Timeout:     time.Duration(opts.FfmpegTimeoutMs) * time.Millisecond,
			Logger:      logger,
		})
	default:
		return nil, fmt.Errorf("unknown capture provider %q", name)
	}
}

// RunInteractive lists devices, asks the operator for one and captures a
// single image from it. The returned value is the process exit code.
func RunInteractive(ctx context.Context, opts *Options, in io.Reader, out io.Writer) int {
	rt := NewRuntime(opts)
	defer rt.Finish()

	bridge, err := rt.Bridge()
	if err != nil {
		fmt.Fprintf(out, "Configuration error: %v\n", err)
		return ExitFailure
	}

	orch := &app.Orchestrator{
		Catalog:  rt.Catalog(nil, out),
		Selector: rt.Selector(in, out),
		Bridge:   bridge,
		Prefix:   opts.Prefix(),
		Console:  out,
		Logger:   rt.logger,
	}
	return runOrchestrator(ctx, orch, out, rt.logger)
}

func runOrchestrator(ctx context.Context, orch *app.Orchestrator, out io.Writer, logger *slog.Logger) int {
	_, err := orch.Run(ctx)
	if err == nil {
		return ExitOK
	}

	var enumErr *devices.EnumerationError
	switch {
	case errors.As(err, &enumErr):
		fmt.Fprintf(out, "An error occurred while listing devices: %v\n", err)
	case errors.Is(err, selector.ErrInputClosed):
		fmt.Fprintln(out)
	}
	logger.Debug("Run ended with error", "error", err)
	return ExitCode(err)
}
