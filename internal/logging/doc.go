// Package logging provides structured logging with per-module log level configuration.
//
// Loggers are plain *slog.Logger values tagged with a "module" attribute.
// Records go to stderr (text or JSON) and, when journald is reachable, to the
// systemd journal under the "camsnap" identifier. Stdout is left to the
// operator-facing console output of the CLI.
//
// Initialize once at startup:
//
//	logging.Initialize(logging.Config{
//		Level:  "info",
//		Format: "text",
//		Modules: map[string]string{
//			"devices": "debug",
//			"ffmpeg":  "warn",
//		},
//	})
//
// Then fetch a logger per module:
//
//	logger := logging.GetLogger("capture")
//	logger.Info("Capture dispatched", "identifier", id)
//
// Loggers fetched before Initialize are cached and pick up the configured
// level afterwards, because each module owns a slog.LevelVar.
//
// Filter journal output by module:
//
//	journalctl -t camsnap MODULE=capture
package logging
