package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"autounzip/internal/logging"
	"autounzip/internal/services"
)

// Result describes one extraction attempt.
type Result struct {
	Archive   string
	TargetDir string
	Format    Format
	Files     int
	Dirs      int
	Skipped   int
	Bytes     int64
	Duration  time.Duration
	Err       error
}

// OK reports whether the extraction succeeded.
func (r Result) OK() bool {
	return r.Err == nil
}

// Kind is the services.Kind label of the result's error, "ok" on success.
func (r Result) Kind() string {
	return services.Kind(r.Err)
}

// job carries everything a backend needs for one archive.
type job struct {
	archive  string
	out      *memberWriter
	progress *progressTracker
	logger   *slog.Logger
}

type backend func(ctx context.Context, j *job) error

// Dispatcher routes archives to format backends.
type Dispatcher struct {
	logger    *slog.Logger
	cabHelper string
	backends  map[Format]backend
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger used for member-level diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithCabHelper overrides the host utility used for .cab archives.
func WithCabHelper(command string) Option {
	return func(d *Dispatcher) {
		d.cabHelper = command
	}
}

// NewDispatcher constructs a dispatcher with every built-in backend.
func NewDispatcher(opts ...Option) *Dispatcher {
	d := &Dispatcher{cabHelper: defaultCabHelper()}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = logging.NewComponentLogger(d.logger, "extract")
	d.backends = map[Format]backend{
		FormatZip:      extractZip,
		FormatSevenZip: extractSevenZip,
		FormatRar:      extractRar,
		FormatTar:      extractTarFamily,
		FormatCab:      d.extractCab,
	}
	return d
}

// Extract runs the backend for path and reports only whether it succeeded.
// Details are logged where the failure happens.
func (d *Dispatcher) Extract(ctx context.Context, path, targetDir string, progress ProgressFunc) bool {
	return d.Run(ctx, path, targetDir, progress).OK()
}

// Run extracts path into targetDir and returns the full result. Run never
// panics: decoder panics on malformed input are converted to ErrCorrupt.
func (d *Dispatcher) Run(ctx context.Context, path, targetDir string, progress ProgressFunc) (result Result) {
	start := time.Now()
	format, ok := Route(path)
	result = Result{Archive: path, TargetDir: targetDir, Format: format}
	logger := d.logger.With(logging.Archive(path), logging.String(logging.FieldFormat, string(format)))

	defer func() {
		result.Duration = time.Since(start)
		if result.Err != nil {
			logger.Debug("extraction failed",
				logging.Error(result.Err),
				logging.ErrorKind(result.Kind()),
				logging.Duration("duration", result.Duration),
			)
		}
	}()

	if !ok {
		result.Err = services.Wrap(services.ErrUnsupported, "extract", "route", fmt.Sprintf("no backend for %q", path), nil)
		return result
	}
	if err := ctx.Err(); err != nil {
		result.Err = services.Wrap(services.ErrCanceled, "extract", "start", "", err)
		return result
	}
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		result.Err = services.Wrap(services.ErrNotFound, "extract", "open", path, err)
		return result
	case err != nil:
		result.Err = services.Wrap(services.ErrCorrupt, "extract", "open", path, err)
		return result
	case !info.Mode().IsRegular():
		result.Err = services.Wrap(services.ErrUnsupported, "extract", "open", "not a regular file", nil)
		return result
	}

	out, err := newMemberWriter(targetDir, logger)
	if err != nil {
		result.Err = err
		return result
	}
	tracker := newProgressTracker(progress)
	j := &job{archive: path, out: out, progress: tracker, logger: logger}

	result.Err = d.runBackend(ctx, format, j)
	result.Files, result.Dirs, result.Skipped, result.Bytes = out.files, out.dirs, out.skipped, out.bytes
	if result.Err == nil {
		tracker.finish()
	}
	return result
}

func (d *Dispatcher) runBackend(ctx context.Context, format Format, j *job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = services.Wrap(services.ErrCorrupt, "extract", string(format), fmt.Sprintf("decoder panic: %v", r), nil)
		}
	}()
	run, ok := d.backends[format]
	if !ok {
		return services.Wrap(services.ErrUnsupported, "extract", "route", string(format), nil)
	}
	return run(ctx, j)
}

func canceled(ctx context.Context, op string) error {
	if err := ctx.Err(); err != nil {
		return services.Wrap(services.ErrCanceled, "extract", op, "", err)
	}
	return nil
}
