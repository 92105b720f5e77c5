// Package process runs a subprocess to completion.
//
// Process wraps os/exec for a single bounded run:
//   - Stops the child on context cancellation, first with an interrupt and
//     then with a kill once the grace period expires
//   - Streams stdout and stderr line by line to the logger, with pluggable
//     log level parsing
//   - Hands every output line to an optional OutputHandler
//
// Example:
//
//	p := process.New("snapshot", []string{"ffmpeg", "-i", "/dev/video0", "out.jpg"}, logger)
//	p.SetLogParser(ffmpegLogger, ffmpeg.ParseLogLevel)
//	code, err := p.Run(ctx)
package process
