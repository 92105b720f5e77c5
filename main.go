package main

import (
	"context"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/smazurov/camsnap/cmd"
	"github.com/smazurov/camsnap/internal/config"
	"github.com/smazurov/camsnap/internal/logging"
	"github.com/smazurov/camsnap/internal/version"
)

// stopGrace bounds how long an interrupted run may take to finish its
// capture before the process exits.
const stopGrace = 2 * time.Second

func main() {
	var exitCode atomic.Int32

	var cli humacli.CLI
	cli = humacli.New(func(hooks humacli.Hooks, opts *cmd.Options) {
		// Load configuration automatically
		if loadErr := config.LoadConfig(opts, cli.Root()); loadErr != nil {
			slog.Error("Failed to load config", "error", loadErr)
			os.Exit(cmd.ExitFailure)
		}

		// Initialize logging system
		logging.Initialize(opts.LoggingConfig())

		ctx, cancel := context.WithCancel(context.Background())
		finished := make(chan struct{})

		// Default command runs the interactive list, select and capture flow
		hooks.OnStart(func() {
			defer close(finished)
			exitCode.Store(int32(cmd.RunInteractive(ctx, opts, os.Stdin, os.Stdout)))
		})

		hooks.OnStop(func() {
			logging.GetLogger("main").Info("Interrupted, stopping")
			exitCode.Store(cmd.ExitInterrupted)
			cancel()
			select {
			case <-finished:
			case <-time.After(stopGrace):
			}
		})
	})

	cli.Root().Use = "camsnap"
	cli.Root().Short = "List camera devices and capture a single image"
	cli.Root().Version = version.Get().String()

	cli.Root().AddCommand(cmd.ListCmd)
	cli.Root().AddCommand(cmd.CaptureCmd)
	cli.Root().AddCommand(cmd.VersionCmd)

	// Run the CLI
	cli.Run()
	os.Exit(int(exitCode.Load()))
}
