package services_test

import (
	"context"
	"testing"

	"autounzip/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithArchive(ctx, "/watch/a.zip")
	ctx = services.WithFormat(ctx, "zip")
	ctx = services.WithFolder(ctx, "/watch")
	ctx = services.WithRequestID(ctx, "req-123")

	if path, ok := services.ArchiveFromContext(ctx); !ok || path != "/watch/a.zip" {
		t.Fatalf("unexpected archive: %v %v", path, ok)
	}
	if format, ok := services.FormatFromContext(ctx); !ok || format != "zip" {
		t.Fatalf("unexpected format: %v %v", format, ok)
	}
	if folder, ok := services.FolderFromContext(ctx); !ok || folder != "/watch" {
		t.Fatalf("unexpected folder: %v %v", folder, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithArchive(ctx, "")
	ctx = services.WithFormat(ctx, "")
	if _, ok := services.ArchiveFromContext(ctx); ok {
		t.Fatal("expected no archive value")
	}
	if _, ok := services.FormatFromContext(ctx); ok {
		t.Fatal("expected no format value")
	}
}
