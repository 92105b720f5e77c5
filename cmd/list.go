package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/smazurov/camsnap/internal/devices"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Output formats accepted by the list command.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ListCmd prints the device catalog and exits.
var ListCmd = &cobra.Command{
	Use:   "list",
	Short: "List camera devices",
	Long:  `Enumerates the system's camera-like devices and prints their identifiers without capturing anything.`,
	Run: humacli.WithOptions(func(cmd *cobra.Command, _ []string, opts *Options) {
		format, _ := cmd.Flags().GetString("format")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		if code := RunList(ctx, opts, nil, format, cmd.OutOrStdout()); code != ExitOK {
			os.Exit(code)
		}
	}),
}

func init() {
	ListCmd.Flags().StringP("format", "f", FormatText, "Output format (text, json, yaml)")
}

// RunList enumerates devices through inventory and writes them to out in
// the requested format. A nil inventory uses the platform inventory.
func RunList(ctx context.Context, opts *Options, inventory devices.Inventory, format string, out io.Writer) int {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = FormatText
	}
	switch format {
	case FormatText, FormatJSON, FormatYAML:
	default:
		fmt.Fprintf(out, "Unknown format %q\n", format)
		return ExitFailure
	}

	rt := NewRuntime(opts)
	defer rt.Finish()

	// Text output is the catalog's own listing.
	var console io.Writer
	if format == FormatText {
		console = out
	}

	records, err := rt.Catalog(inventory, console).ListDevices(ctx)
	if err != nil {
		fmt.Fprintf(out, "An error occurred while listing devices: %v\n", err)
		return ExitCode(err)
	}

	if err := writeRecords(out, records, format); err != nil {
		rt.logger.Error("Failed to write device list", "error", err)
		return ExitFailure
	}
	return ExitOK
}

func writeRecords(out io.Writer, records []devices.Record, format string) error {
	if records == nil {
		records = []devices.Record{}
	}

	switch format {
	case FormatJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	case FormatYAML:
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(records); err != nil {
			return err
		}
		return enc.Close()
	default:
		if len(records) == 0 {
			_, err := fmt.Fprintln(out, "No camera devices found.")
			return err
		}
		return nil
	}
}
