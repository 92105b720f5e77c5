// Package app sequences one interactive run: enumerate devices, let the
// operator pick one, capture a frame and report the result.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/smazurov/camsnap/internal/capture"
	"github.com/smazurov/camsnap/internal/devices"
	"github.com/smazurov/camsnap/internal/logging"
)

// DefaultPrefix is the file name prefix used when none is configured.
const DefaultPrefix = "TestImage"

// DeviceLister produces the catalog snapshot.
type DeviceLister interface {
	ListDevices(ctx context.Context) ([]devices.Record, error)
}

// DeviceChooser resolves the operator's choice to an identifier.
type DeviceChooser interface {
	Choose(records []devices.Record) (string, error)
}

// Capturer performs the capture for an identifier.
type Capturer interface {
	Capture(ctx context.Context, identifier, prefix string) (capture.Outcome, error)
}

// Report summarizes a completed run.
type Report struct {
	NoDevices  bool
	Devices    []devices.Record
	Identifier string
	Outcome    capture.Outcome
}

// Orchestrator runs the pipeline once. Steps are strictly sequential and
// there is no rollback.
type Orchestrator struct {
	Catalog  DeviceLister
	Selector DeviceChooser
	Bridge   Capturer
	Prefix   string
	Console  io.Writer
	Logger   *slog.Logger
}

// Run executes list, select, capture and report. An empty catalog ends the
// run successfully with Report.NoDevices set. A failed capture is reported
// in Report.Outcome; errors are returned only for enumeration failures,
// closed input during selection and invocation failures.
func (o *Orchestrator) Run(ctx context.Context) (Report, error) {
	logger := o.Logger
	if logger == nil {
		logger = logging.GetLogger("main")
	}
	prefix := o.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}

	o.println("Listing all available camera devices...")
	records, err := o.Catalog.ListDevices(ctx)
	if err != nil {
		return Report{}, err
	}

	if len(records) == 0 {
		o.println("No camera devices found.")
		logger.Info("No camera devices found")
		return Report{NoDevices: true}, nil
	}

	report := Report{Devices: records}

	o.println("\nSelect a device from the list above.")
	identifier, err := o.Selector.Choose(records)
	if err != nil {
		return report, err
	}
	report.Identifier = identifier
	o.printf("\nYou selected device path: %s\n", identifier)

	outcome, err := o.Bridge.Capture(ctx, identifier, prefix)
	if err != nil {
		o.printf("An error occurred while invoking the capture: %v\n", err)
		return report, err
	}
	report.Outcome = outcome

	if o.Console != nil {
		WriteOutcome(o.Console, outcome)
	}

	logger.Info("Run finished",
		"identifier", identifier,
		"result_code", outcome.ResultCode,
		"artifact_found", outcome.ArtifactFound,
		"succeeded", outcome.Succeeded())
	return report, nil
}

func (o *Orchestrator) println(s string) {
	if o.Console != nil {
		fmt.Fprintln(o.Console, s)
	}
}

func (o *Orchestrator) printf(format string, args ...any) {
	if o.Console != nil {
		fmt.Fprintf(o.Console, format, args...)
	}
}

// WriteOutcome prints the operator-facing summary of a capture.
func WriteOutcome(w io.Writer, outcome capture.Outcome) {
	fmt.Fprintf(w, "Result Code: %d\n", outcome.ResultCode)
	fmt.Fprintf(w, "Error Message: %s\n", outcome.ErrorMessage)
	fmt.Fprintf(w, "Output file created: %t\n", outcome.ArtifactFound)
	for _, path := range outcome.Artifacts {
		fmt.Fprintf(w, "Output file: %s\n", path)
	}
}
