// Package capture bridges a device identifier to a capture provider and
// verifies that the provider produced an image file.
//
// A provider returning a non-zero result code, or returning zero without
// leaving a file behind, is reported through Outcome and is not an error.
// Errors are reserved for requests that never reached the provider or calls
// that did not return (see InvocationError).
package capture

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidRequest is wrapped when a request fails validation.
	ErrInvalidRequest = errors.New("invalid capture request")

	// ErrProviderUnavailable is wrapped by providers that cannot be loaded
	// or started.
	ErrProviderUnavailable = errors.New("capture provider unavailable")

	// ErrProviderPanic is wrapped when a provider panics during a call.
	ErrProviderPanic = errors.New("capture provider panicked")
)

// Request is a single capture request as handed to a provider.
type Request struct {
	Identifier     string `validate:"required"`
	FilenamePrefix string `validate:"required,nopath"`
}

// Result is what a provider reports back. Code zero means success; any
// other value is provider-defined. Message is taken verbatim.
type Result struct {
	Code    int
	Message string
}

// Provider captures a single frame from the device named in the request
// and writes it as a file into its output directory.
type Provider interface {
	Name() string
	Capture(ctx context.Context, req Request) (Result, error)
}

// Outcome is the bridge's report of a capture call that reached the provider.
type Outcome struct {
	CaptureID     string        `json:"capture_id" yaml:"capture_id"`
	Provider      string        `json:"provider" yaml:"provider"`
	Identifier    string        `json:"identifier" yaml:"identifier"`
	Prefix        string        `json:"prefix" yaml:"prefix"`
	ResultCode    int           `json:"result_code" yaml:"result_code"`
	ErrorMessage  string        `json:"error_message" yaml:"error_message"`
	ArtifactFound bool          `json:"artifact_found" yaml:"artifact_found"`
	Artifacts     []string      `json:"artifacts,omitempty" yaml:"artifacts,omitempty"`
	StartedAt     time.Time     `json:"started_at" yaml:"started_at"`
	Duration      time.Duration `json:"duration" yaml:"duration"`
}

// Succeeded reports whether the provider returned zero and an artifact exists.
func (o Outcome) Succeeded() bool {
	return o.ResultCode == 0 && o.ArtifactFound
}

// InvocationError is returned when the provider could not be called with
// the request, or the call failed before producing a result.
type InvocationError struct {
	CaptureID  string
	Provider   string
	Identifier string
	Err        error
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("capture with %s provider for device %q failed: %v", e.Provider, e.Identifier, e.Err)
}

func (e *InvocationError) Unwrap() error {
	return e.Err
}

// EventBroadcaster receives capture lifecycle notifications.
type EventBroadcaster interface {
	BroadcastCaptureCompleted(outcome Outcome, timestamp string)
	BroadcastCaptureFailed(err *InvocationError, duration time.Duration, timestamp string)
}
