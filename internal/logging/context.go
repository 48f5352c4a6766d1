package logging

import (
	"context"
	"log/slog"

	"autounzip/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldEventType classifies a record for filtering (archive_detected, extraction_completed, ...).
	FieldEventType = "event_type"
	// FieldErrorHint tells the operator what to check next.
	FieldErrorHint = "error_hint"
	// FieldErrorKind carries services.Kind for failed operations.
	FieldErrorKind = "error_kind"
	// FieldArchive is the absolute path of the archive being handled.
	FieldArchive = "archive"
	// FieldFormat is the dispatcher format key (zip, 7z, tar, ...).
	FieldFormat = "format"
	// FieldFolder is the watch folder an archive was found in.
	FieldFolder = "folder"
	// FieldTargetDir is the directory an archive is extracted into.
	FieldTargetDir = "target_dir"
	// FieldProgressPercent is the overall extraction percentage.
	FieldProgressPercent = "progress_percent"
	// FieldCorrelationID is the standardized structured logging key for request correlation identifiers.
	FieldCorrelationID = "correlation_id"
	// FieldRunID identifies one daemon process lifetime.
	FieldRunID = "run_id"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 4)
	if archive, ok := services.ArchiveFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldArchive, archive))
	}
	if format, ok := services.FormatFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldFormat, format))
	}
	if folder, ok := services.FolderFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldFolder, folder))
	}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCorrelationID, rid))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}
