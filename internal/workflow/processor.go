package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"autounzip/internal/extract"
	"autounzip/internal/logging"
	"autounzip/internal/metrics"
	"autounzip/internal/notifications"
	"autounzip/internal/preflight"
	"autounzip/internal/services"
	"autounzip/internal/store"
)

// Extractor runs one archive through a format backend.
type Extractor interface {
	Run(ctx context.Context, path, targetDir string, progress extract.ProgressFunc) extract.Result
}

// History persists one row per workflow run. *store.Store satisfies it.
type History interface {
	BeginExtraction(ctx context.Context, job store.Job) (int64, error)
	UpdateProgress(ctx context.Context, id int64, percent float64) error
	FinishExtraction(ctx context.Context, id int64, outcome store.Outcome) error
}

// Request describes a single workflow run. Only Path is required.
type Request struct {
	Path string
	// TargetDir overrides the sibling directory derived from Path.
	TargetDir string
	// Delete overrides the delete-after-extract accessor when non-nil.
	Delete *bool
	// Progress receives every raw progress value in addition to the notifier.
	Progress extract.ProgressFunc
}

// Outcome summarizes a finished run.
type Outcome struct {
	ArchiveName   string         `json:"archive_name"`
	TargetDir     string         `json:"target_dir"`
	Format        string         `json:"format"`
	Success       bool           `json:"success"`
	ErrorKind     string         `json:"error_kind,omitempty"`
	Error         string         `json:"error,omitempty"`
	Files         int            `json:"files"`
	Bytes         int64          `json:"bytes"`
	Deleted       bool           `json:"deleted"`
	Duration      time.Duration  `json:"duration"`
	CorrelationID string         `json:"correlation_id"`
	Result        extract.Result `json:"-"`
}

// Option customizes a Processor.
type Option func(*Processor)

// WithLogger sets the base logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Processor) { p.logger = logging.NewComponentLogger(logger, "workflow") }
}

// WithHistory records every run in h.
func WithHistory(h History) Option {
	return func(p *Processor) { p.history = h }
}

// WithMinFreeSpace refuses to extract when the archive's filesystem has
// fewer than minBytes available. Zero disables the check.
func WithMinFreeSpace(minBytes uint64) Option {
	return func(p *Processor) { p.minFree = minBytes }
}

// WithFreeSpaceFunc replaces the free space lookup.
func WithFreeSpaceFunc(fn func(path string) (uint64, error)) Option {
	return func(p *Processor) {
		if fn != nil {
			p.freeSpace = fn
		}
	}
}

// Processor runs the archive workflow. It is safe for concurrent use; runs
// are serialized so at most one archive is extracted at a time.
type Processor struct {
	runMu sync.Mutex


	extractor   Extractor
	notifier    notifications.Service
	deleteAfter func() bool
	history     History
	logger      *slog.Logger
	minFree     uint64
	freeSpace   func(string) (uint64, error)
	sampler     *logging.ProgressSampler
}

// New builds a Processor. deleteAfter is read at every invocation so config
// changes apply to the next archive.
func New(extractor Extractor, notifier notifications.Service, deleteAfter func() bool, opts ...Option) *Processor {
	if notifier == nil {
		notifier = notifications.NewNop()
	}
	if deleteAfter == nil {
		deleteAfter = func() bool { return false }
	}
	p := &Processor{
		extractor:   extractor,
		notifier:    notifier,
		deleteAfter: deleteAfter,
		logger:      logging.NewComponentLogger(nil, "workflow"),
		freeSpace:   preflight.FreeSpace,
		sampler:     logging.NewProgressSampler(10),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Handle adapts Process to the watcher callback. Archive problems (corrupt,
// unsupported, empty) are reported through the completion sink and return
// nil; environment problems the operator has to fix are returned so the
// watcher counts them as handler failures.
func (p *Processor) Handle(ctx context.Context, path string) error {
	out := p.Process(ctx, path)
	if out.Success {
		return nil
	}
	err := out.Result.Err
	if errors.Is(err, services.ErrDestination) || errors.Is(err, services.ErrConfiguration) ||
		errors.Is(err, services.ErrCapabilityMissing) {
		return err
	}
	return nil
}

// Process runs the workflow for the archive at path.
func (p *Processor) Process(ctx context.Context, path string) Outcome {
	return p.Run(ctx, Request{Path: path})
}

// Run executes one workflow request. It blocks while another run is in
// progress.
func (p *Processor) Run(ctx context.Context, req Request) Outcome {
	p.runMu.Lock()
	defer p.runMu.Unlock()

	start := time.Now()
	path := req.Path
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	archiveName := extract.ArchiveName(path)
	targetDir := req.TargetDir
	if targetDir == "" {
		targetDir = extract.TargetDir(path)
	}
	format, routed := extract.Route(path)

	correlationID, ok := services.RequestIDFromContext(ctx)
	if !ok {
		correlationID = uuid.NewString()
		ctx = services.WithRequestID(ctx, correlationID)
	}
	ctx = services.WithFormat(services.WithArchive(ctx, path), string(format))
	logger := logging.WithContext(ctx, p.logger).With(logging.String(logging.FieldTargetDir, targetDir))

	out := Outcome{
		ArchiveName:   archiveName,
		TargetDir:     targetDir,
		Format:        string(format),
		CorrelationID: correlationID,
	}
	historyID := p.beginHistory(ctx, logger, store.Job{
		Archive:       path,
		ArchiveName:   archiveName,
		Format:        string(format),
		TargetDir:     targetDir,
		CorrelationID: correlationID,
	})
	logger.Info("extraction started", logging.String(logging.FieldEventType, "extraction_started"))

	var result extract.Result
	if err := p.prepare(path, targetDir, routed); err != nil {
		result = extract.Result{Archive: path, TargetDir: targetDir, Format: format, Err: err}
	} else {
		progress := p.progressAdapter(ctx, logger, path, archiveName, historyID, req.Progress)
		result = p.extractor.Run(ctx, path, targetDir, progress)
	}
	out.Result = result
	out.Success = result.OK()
	out.Files = result.Files
	out.Bytes = result.Bytes

	if err := p.notifier.NotifyCompletion(ctx, archiveName, out.Success, targetDir); err != nil {
		logging.WarnWithContext(logger, "completion notification failed", "notification_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
			logging.String(logging.FieldImpact, "user was not told about this extraction"),
		)
	}

	deleteArchive := p.deleteAfter()
	if req.Delete != nil {
		deleteArchive = *req.Delete
	}
	if out.Success && deleteArchive {
		out.Deleted = p.removeArchive(logger, path)
	}

	out.Duration = time.Since(start)
	if !out.Success {
		out.ErrorKind = result.Kind()
		out.Error = result.Err.Error()
	}
	p.finishHistory(ctx, logger, historyID, out)
	metrics.RecordExtraction(string(format), out.Success, out.Duration, out.Bytes)
	p.sampler.Reset()

	if out.Success {
		logger.Info("extraction completed",
			logging.String(logging.FieldEventType, "extraction_completed"),
			logging.Int("files", result.Files),
			logging.Int("dirs", result.Dirs),
			logging.Int("skipped", result.Skipped),
			logging.Int64("bytes", result.Bytes),
			logging.Bool("deleted", out.Deleted),
			logging.Duration("duration", out.Duration),
		)
	} else {
		logging.WarnWithContext(logger, "extraction failed", "extraction_failed",
			logging.Error(result.Err),
			logging.ErrorKind(out.ErrorKind),
			logging.String(logging.FieldErrorHint, hintFor(out.ErrorKind)),
			logging.String(logging.FieldImpact, "archive left in place; partial output may remain in the target directory"),
			logging.Duration("duration", out.Duration),
		)
	}
	return out
}

// prepare performs the checks and side effects that precede dispatch.
// Unsupported names fail before the target directory is created.
func (p *Processor) prepare(path, targetDir string, routed bool) error {
	if !routed {
		return services.Wrap(services.ErrUnsupported, "workflow", "route", fmt.Sprintf("no backend for %q", filepath.Base(path)), nil)
	}
	if p.minFree > 0 {
		free, err := p.freeSpace(filepath.Dir(path))
		if err != nil {
			return services.Wrap(services.ErrDestination, "workflow", "free space", filepath.Dir(path), err)
		}
		if free < p.minFree {
			return services.Wrap(services.ErrDestination, "workflow", "free space",
				fmt.Sprintf("%d bytes free, %d required", free, p.minFree), nil)
		}
	}
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return services.Wrap(services.ErrDestination, "workflow", "create target", targetDir, err)
	}
	return nil
}

// progressAdapter forwards values to the notifier tagged with the archive
// name, and samples them into the log and history.
func (p *Processor) progressAdapter(ctx context.Context, logger *slog.Logger, path, archiveName string, historyID int64, extra extract.ProgressFunc) extract.ProgressFunc {
	return func(percent float64) {
		if extra != nil {
			extra(percent)
		}
		if err := p.notifier.NotifyProgress(ctx, archiveName, percent); err != nil {
			logger.Debug("progress notification failed", logging.Error(err))
		}
		if !p.sampler.ShouldLog(path, percent) {
			return
		}
		logger.Debug("extraction progress", logging.Progress(percent))
		if p.history != nil && historyID > 0 {
			if err := p.history.UpdateProgress(ctx, historyID, percent); err != nil {
				logger.Debug("history progress update failed", logging.Error(err))
			}
		}
	}
}

func (p *Processor) removeArchive(logger *slog.Logger, path string) bool {
	if err := os.Remove(path); err != nil {
		logging.WarnWithContext(logger, "archive removal failed", "archive_delete_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check permissions on the watch folder"),
			logging.String(logging.FieldImpact, "archive stays in the watch folder"),
		)
		return false
	}
	logger.Info("archive removed", logging.String(logging.FieldEventType, "archive_deleted"))
	return true
}

func (p *Processor) beginHistory(ctx context.Context, logger *slog.Logger, job store.Job) int64 {
	if p.history == nil {
		return 0
	}
	id, err := p.history.BeginExtraction(ctx, job)
	if err != nil {
		logging.WarnWithContext(logger, "history record failed", "history_error",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the state database"),
			logging.String(logging.FieldImpact, "this extraction is missing from history"),
		)
		return 0
	}
	return id
}

func (p *Processor) finishHistory(ctx context.Context, logger *slog.Logger, id int64, out Outcome) {
	if p.history == nil || id == 0 {
		return
	}
	// The run context may already be canceled; the outcome is still worth keeping.
	ctx = context.WithoutCancel(ctx)
	err := p.history.FinishExtraction(ctx, id, store.Outcome{
		Success:        out.Success,
		ErrorKind:      out.ErrorKind,
		ErrorMessage:   out.Error,
		Files:          out.Files,
		Bytes:          out.Bytes,
		ArchiveDeleted: out.Deleted,
	})
	if err != nil {
		logging.WarnWithContext(logger, "history update failed", "history_error",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the state database"),
			logging.String(logging.FieldImpact, "history shows this extraction as running"),
		)
	}
}

func hintFor(kind string) string {
	switch kind {
	case "unsupported":
		return "no backend handles this file type"
	case "empty":
		return "archive has no content to extract"
	case "capability_missing":
		return "install the host helper (cabextract) or set extraction.cab_helper"
	case "destination":
		return "check free space and permissions next to the archive"
	case "not_found":
		return "archive was removed before extraction started"
	case "canceled":
		return "daemon was shutting down"
	default:
		return "archive is damaged or uses an unsupported method; re-download it"
	}
}
