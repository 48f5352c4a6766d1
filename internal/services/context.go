package services

import "context"

type contextKey string

const (
	archiveKey   contextKey = "archive"
	formatKey    contextKey = "format"
	folderKey    contextKey = "folder"
	requestIDKey contextKey = "request_id"
)

// WithArchive annotates context with the absolute archive path being processed.
func WithArchive(ctx context.Context, path string) context.Context {
	if path == "" {
		return ctx
	}
	return context.WithValue(ctx, archiveKey, path)
}

// ArchiveFromContext returns the archive path if present.
func ArchiveFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(archiveKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithFormat annotates context with the backend format label (zip, 7z, ...).
func WithFormat(ctx context.Context, format string) context.Context {
	if format == "" {
		return ctx
	}
	return context.WithValue(ctx, formatKey, format)
}

// FormatFromContext returns the backend format label if present.
func FormatFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(formatKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithFolder annotates context with the watch folder that produced a detection.
func WithFolder(ctx context.Context, folder string) context.Context {
	if folder == "" {
		return ctx
	}
	return context.WithValue(ctx, folderKey, folder)
}

// FolderFromContext returns the watch folder if present.
func FolderFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(folderKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
