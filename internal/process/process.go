package process

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/smazurov/camsnap/internal/logging"
)

// KilledExitCode is reported when the child had to be killed.
const KilledExitCode = 137

// OutputHandler receives output lines from the subprocess.
// Lines from stdout and stderr arrive from separate goroutines.
type OutputHandler interface {
	HandleLine(source, line string)
}

// LogParser parses a log line and returns the log level and message.
type LogParser func(line string) (level, msg string)

// Process runs one subprocess.
type Process struct {
	id              string
	args            []string
	cmd             *exec.Cmd
	logger          logging.Logger
	processLogger   logging.Logger // logger for process output (nil = use logger)
	logParser       LogParser      // parses process output for log level (nil = no parsing)
	outputHandler   OutputHandler
	gracefulTimeout time.Duration // wait after interrupt before kill
	killTimeout     time.Duration // wait after kill before giving up
}

// New creates a process for args[0] with args[1:].
func New(id string, args []string, logger logging.Logger) *Process {
	return NewWithOutput(id, args, logger, nil)
}

// NewWithOutput creates a process with an output handler.
func NewWithOutput(id string, args []string, logger logging.Logger, handler OutputHandler) *Process {
	return &Process{
		id:              id,
		args:            args,
		logger:          logger,
		outputHandler:   handler,
		gracefulTimeout: 2 * time.Second,
		killTimeout:     2 * time.Second,
	}
}

// Command returns the command line for logging.
func (p *Process) Command() string {
	return strings.Join(p.args, " ")
}

// SetLogParser sets a logger and parser for process output.
func (p *Process) SetLogParser(logger logging.Logger, parser LogParser) {
	p.processLogger = logger
	p.logParser = parser
}

// Run starts the subprocess and blocks until it exits. It returns the exit
// code. The error is non-nil when the process could not be started, or
// when ctx ended before the process exited, in which case the process has
// been stopped and the code reflects how it ended.
func (p *Process) Run(ctx context.Context) (int, error) {
	if len(p.args) == 0 {
		return 1, errors.New("empty command")
	}
	if err := ctx.Err(); err != nil {
		return 1, err
	}

	p.cmd = exec.Command(p.args[0], p.args[1:]...)

	stdout, err := p.cmd.StdoutPipe()
	if err != nil {
		return 1, err
	}
	stderr, err := p.cmd.StderrPipe()
	if err != nil {
		return 1, err
	}

	if err := p.cmd.Start(); err != nil {
		p.logger.Error("Failed to start process", "id", p.id, "error", err, "command", p.Command())
		return 1, err
	}
	p.logger.Debug("Process started", "id", p.id, "pid", p.cmd.Process.Pid, "command", p.Command())

	var output sync.WaitGroup
	output.Add(2)
	go func() {
		defer output.Done()
		p.streamOutput(stdout, "stdout")
	}()
	go func() {
		defer output.Done()
		p.streamOutput(stderr, "stderr")
	}()

	// Wait must follow the pipe readers draining.
	processDone := make(chan error, 1)
	go func() {
		output.Wait()
		processDone <- p.cmd.Wait()
	}()

	select {
	case processErr := <-processDone:
		exitCode := exitCodeFromError(processErr)
		if processErr != nil && !isExitError(processErr) {
			p.logger.Error("Process exited with error", "id", p.id, "error", processErr)
		}
		p.logger.Debug("Process exited", "id", p.id, "exit_code", exitCode)
		return exitCode, nil
	case <-ctx.Done():
		p.logger.Info("Context done, stopping process", "id", p.id, "reason", ctx.Err())
		p.sendStopSignal()
		return p.waitForExit(processDone, p.gracefulTimeout), ctx.Err()
	}
}

// exitCodeFromError extracts exit code from process error.
// Returns 0 for nil error, the exit code for ExitError, or 1 for other errors.
func exitCodeFromError(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if code := exitErr.ExitCode(); code >= 0 {
			return code
		}
		return KilledExitCode
	}
	return 1
}

func isExitError(err error) bool {
	var exitErr *exec.ExitError
	return errors.As(err, &exitErr)
}

// sendStopSignal interrupts the subprocess without waiting. Where
// interrupts are unsupported the process is killed.
func (p *Process) sendStopSignal() {
	if p.cmd == nil || p.cmd.Process == nil {
		return
	}
	if err := p.cmd.Process.Signal(os.Interrupt); err != nil {
		if errors.Is(err, os.ErrProcessDone) {
			return
		}
		p.logger.Debug("Interrupt unsupported, killing process", "pid", p.cmd.Process.Pid, "error", err)
		_ = p.cmd.Process.Kill()
	}
}

// waitForExit waits for the process to exit with a timeout, force-killing if needed.
func (p *Process) waitForExit(processDone <-chan error, timeout time.Duration) int {
	select {
	case err := <-processDone:
		return exitCodeFromError(err)
	case <-time.After(timeout):
		p.logger.Warn("Graceful stop timeout, forcing kill", "id", p.id, "timeout", timeout)
		if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			p.logger.Error("Failed to kill process", "id", p.id, "error", err)
		}
		select {
		case <-processDone:
		case <-time.After(p.killTimeout):
			p.logger.Error("Process did not exit after kill signal", "id", p.id)
		}
		return KilledExitCode
	}
}

// streamOutput logs each line at the level the parser reports and passes
// it to the output handler.
func (p *Process) streamOutput(reader io.Reader, source string) {
	scanner := bufio.NewScanner(reader)

	logger := p.processLogger
	if logger == nil {
		logger = p.logger
	}

	for scanner.Scan() {
		line := scanner.Text()

		if p.outputHandler != nil {
			p.outputHandler.HandleLine(source, line)
		}

		level, msg := "info", line
		if p.logParser != nil {
			level, msg = p.logParser(line)
		}

		switch level {
		case "panic", "fatal", "error":
			logger.Error(msg)
		case "warning":
			logger.Warn(msg)
		case "info":
			logger.Info(msg)
		default:
			logger.Debug(msg)
		}
	}

	if err := scanner.Err(); err != nil {
		p.logger.Warn("Error reading output", "source", source, "error", err)
	}
}
