// Package library calls a capture entry point exported by a native shared
// library. The entry point has the C signature
//
//	int32_t capture_image(const char *device, const char *prefix, char *err, size_t err_len);
//
// It writes one image into the library's output directory and returns zero
// on success or a library-defined error code. The error buffer receives a
// NUL-terminated message in either case.
package library

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ebitengine/purego"

	"github.com/smazurov/camsnap/internal/capture"
	"github.com/smazurov/camsnap/internal/logging"
)

const (
	// DefaultSymbol is the exported entry point looked up in the library.
	DefaultSymbol = "capture_image"

	// ErrorBufferSize is the size of the message buffer handed to the entry point.
	ErrorBufferSize = 1024
)

type captureFunc func(device, prefix string, errBuf *byte, errLen uintptr) int32

// Config holds library provider settings.
type Config struct {
	Path   string
	Symbol string
	Logger *slog.Logger
}

// Provider implements capture.Provider on top of a native library. The
// library is loaded on the first capture and stays loaded for the life of
// the provider.
type Provider struct {
	path   string
	symbol string
	logger *slog.Logger

	loadOnce sync.Once
	loadErr  error
	fn       captureFunc
}

// New creates a library provider. Nothing is loaded until Capture.
func New(cfg Config) *Provider {
	p := &Provider{
		path:   cfg.Path,
		symbol: cfg.Symbol,
		logger: cfg.Logger,
	}
	if p.path == "" {
		p.path = DefaultPath()
	}
	if p.symbol == "" {
		p.symbol = DefaultSymbol
	}
	if p.logger == nil {
		p.logger = logging.GetLogger("provider")
	}
	return p
}

// Name implements capture.Provider.
func (p *Provider) Name() string { return "library" }

// Path returns the library path the provider loads.
func (p *Provider) Path() string { return p.path }

// Capture implements capture.Provider. Once the entry point is called it
// runs to completion; ctx is only checked beforehand.
func (p *Provider) Capture(ctx context.Context, req capture.Request) (capture.Result, error) {
	if err := ctx.Err(); err != nil {
		return capture.Result{}, err
	}
	if err := p.load(); err != nil {
		return capture.Result{}, err
	}

	buf := make([]byte, ErrorBufferSize)
	p.logger.Debug("Calling capture entry point", "library", p.path, "symbol", p.symbol, "device", req.Identifier, "prefix", req.FilenamePrefix)
	code := p.fn(req.Identifier, req.FilenamePrefix, &buf[0], uintptr(len(buf)))

	result := capture.Result{Code: int(code), Message: decodeMessage(buf)}
	p.logger.Debug("Capture entry point returned", "code", result.Code, "message", result.Message)
	return result, nil
}

func (p *Provider) load() error {
	p.loadOnce.Do(func() {
		handle, err := openLibrary(p.path)
		if err != nil {
			p.loadErr = fmt.Errorf("%w: load %s: %w", capture.ErrProviderUnavailable, p.path, err)
			return
		}

		sym, err := lookupSymbol(handle, p.symbol)
		if err != nil {
			p.loadErr = fmt.Errorf("%w: symbol %s in %s: %w", capture.ErrProviderUnavailable, p.symbol, p.path, err)
			return
		}

		if err := register(&p.fn, sym); err != nil {
			p.loadErr = fmt.Errorf("%w: bind %s: %w", capture.ErrProviderUnavailable, p.symbol, err)
			return
		}
		p.logger.Info("Capture library loaded", "library", p.path, "symbol", p.symbol)
	})
	return p.loadErr
}

// purego panics on signatures it cannot marshal.
func register(fptr *captureFunc, sym uintptr) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()
	purego.RegisterFunc(fptr, sym)
	return nil
}

// decodeMessage returns the text up to the first NUL. A buffer the library
// filled completely without a terminator is taken whole.
func decodeMessage(buf []byte) string {
	if i := bytes.IndexByte(buf, 0); i >= 0 {
		buf = buf[:i]
	}
	return string(bytes.TrimSpace(buf))
}
