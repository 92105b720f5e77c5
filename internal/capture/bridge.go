package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/go-playground/validator.v9"

	"github.com/smazurov/camsnap/internal/logging"
)

// DefaultSettle is how long the bridge waits for a late artifact after the
// provider returns.
const DefaultSettle = 2 * time.Second

// Options configures a Bridge.
type Options struct {
	// OutputDir is where the provider writes its files.
	OutputDir string
	// Extension of the artifact without the dot, e.g. "bmp".
	Extension string
	// Settle bounds the wait for an artifact that appears after the
	// provider returns. Zero disables the wait; negative uses DefaultSettle.
	Settle      time.Duration
	Broadcaster EventBroadcaster
	Logger      *slog.Logger
}

// Bridge hands validated requests to a provider and checks the output
// directory for the file the provider was asked to write.
type Bridge struct {
	provider    Provider
	outputDir   string
	extension   string
	settle      time.Duration
	validate    *validator.Validate
	broadcaster EventBroadcaster
	logger      *slog.Logger
}

// NewBridge creates a bridge in front of provider.
func NewBridge(provider Provider, opts Options) *Bridge {
	b := &Bridge{
		provider:    provider,
		outputDir:   opts.OutputDir,
		extension:   strings.TrimPrefix(opts.Extension, "."),
		settle:      opts.Settle,
		validate:    newValidator(),
		broadcaster: opts.Broadcaster,
		logger:      opts.Logger,
	}
	if b.settle < 0 {
		b.settle = DefaultSettle
	}
	if b.logger == nil {
		b.logger = logging.GetLogger("capture")
	}
	return b
}

// OutputDir returns the directory checked for artifacts.
func (b *Bridge) OutputDir() string {
	return b.outputDir
}

// Capture asks the provider for one frame from identifier, saved with
// prefix. It returns an error only when the provider was not called or the
// call did not produce a result; result codes and missing artifacts are
// reported in the Outcome. The provider is called at most once.
func (b *Bridge) Capture(ctx context.Context, identifier, prefix string) (Outcome, error) {
	captureID := uuid.New().String()
	providerName := b.provider.Name()
	logger := b.logger.With("capture_id", captureID, "provider", providerName, "identifier", identifier)

	req := Request{
		Identifier:     strings.TrimSpace(identifier),
		FilenamePrefix: strings.TrimSpace(prefix),
	}
	if err := validateRequest(b.validate, req); err != nil {
		return Outcome{}, b.invocationFailed(logger, captureID, identifier, err, 0)
	}

	started := time.Now()
	matcher, err := newArtifactMatcher(b.outputDir, req.FilenamePrefix, b.extension)
	if err != nil {
		return Outcome{}, b.invocationFailed(logger, captureID, identifier, fmt.Errorf("%w: %w", ErrInvalidRequest, err), 0)
	}

	watch := watchDir(b.outputDir, logger)
	defer watch.Close()

	logger.Info("Dispatching capture", "prefix", req.FilenamePrefix, "output_dir", b.outputDir)

	result, err := b.dispatch(ctx, req)
	if err != nil {
		return Outcome{}, b.invocationFailed(logger, captureID, identifier, err, time.Since(started))
	}

	artifacts := awaitArtifacts(ctx, matcher, watch, b.settle, logger)

	outcome := Outcome{
		CaptureID:     captureID,
		Provider:      providerName,
		Identifier:    req.Identifier,
		Prefix:        req.FilenamePrefix,
		ResultCode:    result.Code,
		ErrorMessage:  result.Message,
		ArtifactFound: len(artifacts) > 0,
		Artifacts:     artifacts,
		StartedAt:     started,
		Duration:      time.Since(started),
	}

	switch {
	case outcome.Succeeded():
		logger.Info("Capture completed", "result_code", outcome.ResultCode, "artifacts", outcome.Artifacts, "duration", outcome.Duration)
	case outcome.ResultCode != 0:
		logger.Warn("Capture provider reported failure", "result_code", outcome.ResultCode, "message", outcome.ErrorMessage, "artifact_found", outcome.ArtifactFound)
	default:
		logger.Warn("Capture provider reported success but no artifact was found", "output_dir", b.outputDir, "prefix", req.FilenamePrefix)
	}

	if b.broadcaster != nil {
		b.broadcaster.BroadcastCaptureCompleted(outcome, started.UTC().Format(time.RFC3339))
	}
	return outcome, nil
}

func (b *Bridge) dispatch(ctx context.Context, req Request) (result Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrProviderPanic, r)
		}
	}()
	return b.provider.Capture(ctx, req)
}

func (b *Bridge) invocationFailed(logger *slog.Logger, captureID, identifier string, err error, elapsed time.Duration) error {
	invErr := &InvocationError{
		CaptureID:  captureID,
		Provider:   b.provider.Name(),
		Identifier: identifier,
		Err:        err,
	}

	if errors.Is(err, ErrInvalidRequest) {
		logger.Error("Capture request rejected", "error", err)
	} else {
		logger.Error("Capture invocation failed", "error", err, "output_dir", b.outputDir, "elapsed", elapsed)
	}

	if b.broadcaster != nil {
		b.broadcaster.BroadcastCaptureFailed(invErr, elapsed, time.Now().UTC().Format(time.RFC3339))
	}
	return invErr
}
