package preflight

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"autounzip/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckWatchFolders(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Watch.Folders = append(cfg.Watch.Folders, filepath.Join(t.TempDir(), "missing"))

	results := CheckWatchFolders(cfg)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if !results[0].Passed {
		t.Fatalf("expected existing folder to pass: %s", results[0].Detail)
	}
	if results[1].Passed {
		t.Fatal("expected missing folder to fail")
	}
}

func TestFreeSpace(t *testing.T) {
	if runtime.GOOS != "linux" && runtime.GOOS != "darwin" {
		t.Skip("free space probing not supported")
	}
	free, err := FreeSpace(t.TempDir())
	if err != nil {
		t.Fatalf("FreeSpace: %v", err)
	}
	if free == 0 {
		t.Fatal("expected some free space on the temp filesystem")
	}
	if _, err := FreeSpace(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatal("expected error for missing path")
	}
}

func TestCheckFreeSpace(t *testing.T) {
	if runtime.GOOS != "linux" && runtime.GOOS != "darwin" {
		t.Skip("free space probing not supported")
	}
	dir := t.TempDir()
	if r := CheckFreeSpace("space", dir, 1); !r.Passed {
		t.Fatalf("expected 1 byte requirement to pass: %s", r.Detail)
	}
	r := CheckFreeSpace("space", dir, 1<<62)
	if r.Passed {
		t.Fatal("expected an absurd requirement to fail")
	}
	if !strings.Contains(r.Detail, "required") {
		t.Fatalf("unexpected detail %q", r.Detail)
	}
}

func TestCheckSystemDepsFindsStubbedHelper(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries("cabextract"))
	cfg.Extraction.CabHelper = "cabextract"

	statuses := CheckSystemDeps(context.Background(), cfg)
	if len(statuses) != 1 {
		t.Fatalf("expected one requirement, got %d", len(statuses))
	}
	if !statuses[0].Available || !statuses[0].Optional {
		t.Fatalf("unexpected status: %+v", statuses[0])
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	if results := RunAll(context.Background(), nil); results != nil {
		t.Fatalf("expected nil, got %v", results)
	}
}

func TestRunAll_MinimalConfig(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Extraction.CabHelper = "definitely-not-a-cab-helper"

	results := RunAll(context.Background(), cfg)
	names := make([]string, 0, len(results))
	for _, r := range results {
		names = append(names, r.Name)
	}
	want := []string{"State directory", "Log directory", "Watch folder", "Cabinet helper"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Fatalf("checks = %v, want %v", names, want)
	}
	failed := Failed(results)
	if len(failed) != 1 || failed[0].Name != "Cabinet helper" {
		t.Fatalf("expected only the cab helper to fail, got %+v", failed)
	}
	if !strings.Contains(failed[0].Detail, "optional") {
		t.Fatalf("expected optional marker, got %q", failed[0].Detail)
	}
}

func TestRunAll_IncludesFreeSpaceWhenConfigured(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Extraction.MinFreeSpaceMB = 1
	var found bool
	for _, r := range RunAll(context.Background(), cfg) {
		if r.Name == "Free space" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected free space check")
	}
}
