package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/smazurov/camsnap/internal/version"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// VersionCmd prints build metadata.
var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, _ []string) {
		format, _ := cmd.Flags().GetString("format")
		if err := writeVersion(cmd.OutOrStdout(), version.Get(), format); err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), err)
			os.Exit(ExitFailure)
		}
	},
}

func init() {
	VersionCmd.Flags().StringP("format", "f", FormatText, "Output format (text, json, yaml)")
}

func writeVersion(out io.Writer, info version.Info, format string) error {
	switch strings.ToLower(format) {
	case "", FormatText:
		_, err := fmt.Fprintln(out, info.String())
		return err
	case FormatJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	case FormatYAML:
		enc := yaml.NewEncoder(out)
		if err := enc.Encode(info); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
