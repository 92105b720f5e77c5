// Package ffmpeg builds ffmpeg invocations for single-frame captures and
// parses ffmpeg's log output.
package ffmpeg

import (
	"errors"
	"path/filepath"
	"strings"
)

// OutputPath returns {dir}/{prefix}_{yyyyMMdd_HHmmss}.{ext}.
func OutputPath(p *SnapshotParams) string {
	name := p.Prefix + "_" + p.Timestamp.Format(TimestampLayout) + "." + strings.TrimPrefix(p.Extension, ".")
	return filepath.Join(p.OutputDir, name)
}

// BuildSnapshotArgs returns the argv for grabbing one frame from the
// device. Arguments are kept separate so paths with spaces survive.
func BuildSnapshotArgs(p *SnapshotParams) ([]string, error) {
	if p.Device == "" {
		return nil, errors.New("device is required")
	}
	if p.Demuxer == "" {
		return nil, errors.New("input format is required")
	}
	if p.Prefix == "" || p.Extension == "" {
		return nil, errors.New("output prefix and extension are required")
	}
	if err := ValidateOptions(p.Options); err != nil {
		return nil, err
	}

	binary := p.Binary
	if binary == "" {
		binary = DefaultBinary
	}

	args := []string{binary, "-hide_banner", "-loglevel", "level+info"}

	args = append(args, "-f", p.Demuxer)
	args = append(args, inputArgs(p.Options)...)
	if p.PixelFormat != "" {
		args = append(args, "-input_format", p.PixelFormat)
	}
	if p.Resolution != "" {
		args = append(args, "-video_size", p.Resolution)
	}
	args = append(args, "-i", p.Device)

	args = append(args, "-frames:v", "1", "-y", OutputPath(p))
	return args, nil
}
