package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/smazurov/camsnap/internal/app"
	"github.com/smazurov/camsnap/internal/capture"
	"github.com/spf13/cobra"
)

// CaptureCmd captures one image from a known device without prompting.
var CaptureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Capture one image from a known device",
	Long:  `Skips enumeration and selection and captures a single image from the device identifier given with --device.`,
	Run: humacli.WithOptions(func(cmd *cobra.Command, _ []string, opts *Options) {
		device, _ := cmd.Flags().GetString("device")
		prefix, _ := cmd.Flags().GetString("prefix")
		if prefix != "" {
			opts.CapturePrefix = prefix
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		if code := RunCapture(ctx, opts, nil, device, cmd.OutOrStdout()); code != ExitOK {
			os.Exit(code)
		}
	}),
}

func init() {
	CaptureCmd.Flags().String("device", "", "Device identifier to capture from")
	CaptureCmd.Flags().String("prefix", "", "Override the capture file name prefix")
	_ = CaptureCmd.MarkFlagRequired("device")
}

// RunCapture performs a single capture for device. A nil provider uses the
// one configured in opts.
func RunCapture(ctx context.Context, opts *Options, provider capture.Provider, device string, out io.Writer) int {
	device = strings.TrimSpace(device)
	if device == "" {
		fmt.Fprintln(out, "A device identifier is required.")
		return ExitFailure
	}

	rt := NewRuntime(opts)
	defer rt.Finish()

	var bridge *capture.Bridge
	if provider == nil {
		var err error
		if bridge, err = rt.Bridge(); err != nil {
			fmt.Fprintf(out, "Configuration error: %v\n", err)
			return ExitFailure
		}
	} else {
		bridge = rt.bridgeFor(provider)
	}

	fmt.Fprintf(out, "Capturing from device path: %s\n", device)
	outcome, err := bridge.Capture(ctx, device, opts.Prefix())
	if err != nil {
		fmt.Fprintf(out, "An error occurred while invoking the capture: %v\n", err)
		return ExitCode(err)
	}
	app.WriteOutcome(out, outcome)
	return ExitOK
}
