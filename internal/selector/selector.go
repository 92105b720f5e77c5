// Package selector resolves an operator's choice of device from a catalog
// snapshot through a blocking line-oriented prompt.
package selector

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/smazurov/camsnap/internal/devices"
	"github.com/smazurov/camsnap/internal/logging"
)

// Prompt is written before every read.
const Prompt = "Enter the number of the camera device you want to use: "

const outOfRangeMessage = "Invalid choice. Please select a number from the list."

// Reason categorizes a rejected input.
type Reason string

const (
	ReasonNotANumber Reason = "not a number"
	ReasonOutOfRange Reason = "out of range"
)

// ErrInputClosed is returned when the input ends before a valid choice.
var ErrInputClosed = errors.New("input closed before a device was selected")

// Rejection describes one invalid input that was answered with a re-prompt.
type Rejection struct {
	Input  string
	Reason Reason
}

// Options configures a Selector.
type Options struct {
	// OnReject is called for every rejected input, after the operator has
	// been told why.
	OnReject func(Rejection)
	Logger   *slog.Logger
}

// Selector prompts on out and reads choices from in.
type Selector struct {
	in       *bufio.Reader
	out      io.Writer
	onReject func(Rejection)
	logger   *slog.Logger
}

// New creates a selector. It takes ownership of in; do not read from it
// elsewhere while the selector is in use.
func New(in io.Reader, out io.Writer, opts Options) *Selector {
	s := &Selector{
		in:       bufio.NewReader(in),
		out:      out,
		onReject: opts.OnReject,
		logger:   opts.Logger,
	}
	if s.logger == nil {
		s.logger = logging.GetLogger("selector")
	}
	return s
}

// Choose blocks until the operator enters an index within [0, len(records))
// and returns that record's identifier. There is no retry limit. The caller
// is expected to have handled the empty catalog; with no records every
// number is out of range.
func (s *Selector) Choose(records []devices.Record) (string, error) {
	for {
		fmt.Fprint(s.out, Prompt)

		// Lines have no length limit; a final line without a newline
		// still counts.
		line, err := s.in.ReadString('\n')
		switch {
		case err == nil:
		case !errors.Is(err, io.EOF):
			return "", fmt.Errorf("reading selection: %w", err)
		case line == "":
			return "", ErrInputClosed
		}

		input := strings.TrimSpace(line)
		choice, convErr := strconv.Atoi(input)
		switch {
		case errors.Is(convErr, strconv.ErrRange):
			// Still an integer, just not one in the list.
			s.reject(input, ReasonOutOfRange, outOfRangeMessage)
			continue
		case convErr != nil:
			s.reject(input, ReasonNotANumber, "Invalid input. Please enter a number.")
			continue
		case choice < 0 || choice >= len(records):
			s.reject(input, ReasonOutOfRange, outOfRangeMessage)
			continue
		}

		selected := records[choice]
		s.logger.Info("Device selected", "index", choice, "label", selected.Label, "identifier", selected.Identifier)
		return selected.Identifier, nil
	}
}

func (s *Selector) reject(input string, reason Reason, message string) {
	fmt.Fprintln(s.out, message)
	s.logger.Info("Selection rejected", "input", input, "reason", string(reason))
	if s.onReject != nil {
		s.onReject(Rejection{Input: input, Reason: reason})
	}
}
