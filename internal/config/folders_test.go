package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"autounzip/internal/config"
)

func TestAddAndRemoveWatchFolder(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg := config.Default()
	cfg.Watch.Folders = nil

	dir := t.TempDir()
	resolved, err := cfg.AddWatchFolder(dir + "/")
	if err != nil {
		t.Fatalf("AddWatchFolder: %v", err)
	}
	if resolved != dir {
		t.Fatalf("expected cleaned path %q, got %q", dir, resolved)
	}
	if _, err := cfg.AddWatchFolder(dir); !errors.Is(err, config.ErrFolderExists) {
		t.Fatalf("expected ErrFolderExists, got %v", err)
	}
	if len(cfg.Watch.Folders) != 1 {
		t.Fatalf("expected one folder, got %v", cfg.Watch.Folders)
	}

	if _, err := cfg.RemoveWatchFolder(dir); err != nil {
		t.Fatalf("RemoveWatchFolder: %v", err)
	}
	if len(cfg.Watch.Folders) != 0 {
		t.Fatalf("expected no folders, got %v", cfg.Watch.Folders)
	}
	if _, err := cfg.RemoveWatchFolder(dir); !errors.Is(err, config.ErrFolderNotFound) {
		t.Fatalf("expected ErrFolderNotFound, got %v", err)
	}
}

func TestAddWatchFolderRejectsFilesAndMissingPaths(t *testing.T) {
	cfg := config.Default()
	base := t.TempDir()

	file := filepath.Join(base, "archive.zip")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if _, err := cfg.AddWatchFolder(file); err == nil {
		t.Fatal("expected error for regular file")
	}
	if _, err := cfg.AddWatchFolder(filepath.Join(base, "missing")); err == nil {
		t.Fatal("expected error for missing directory")
	}
	if _, err := cfg.AddWatchFolder("   "); err == nil {
		t.Fatal("expected error for blank path")
	}
}

func TestRemoveWatchFolderAllowsDeletedDirectory(t *testing.T) {
	cfg := config.Default()
	dir := filepath.Join(t.TempDir(), "gone")
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	cfg.Watch.Folders = []string{dir}
	if err := os.Remove(dir); err != nil {
		t.Fatalf("remove dir: %v", err)
	}
	if _, err := cfg.RemoveWatchFolder(dir); err != nil {
		t.Fatalf("expected removal of vanished folder to succeed: %v", err)
	}
}

func TestWatchSetSnapshotIsIsolated(t *testing.T) {
	set := config.NewWatchSet([]string{"/a", "/b", "/a", ""})
	if set.Len() != 2 {
		t.Fatalf("expected duplicates and blanks dropped, got %d", set.Len())
	}

	snap := set.Snapshot()
	snap[0] = "/mutated"
	if !set.Contains("/a") {
		t.Fatal("mutating a snapshot must not change the set")
	}

	if err := set.Add("/c"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if len(snap) != 2 {
		t.Fatalf("earlier snapshot should keep its length, got %d", len(snap))
	}
	if err := set.Remove("/b"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	got := set.Snapshot()
	if len(got) != 2 || got[0] != "/a" || got[1] != "/c" {
		t.Fatalf("unexpected order after updates: %v", got)
	}
	if err := set.Remove("/b"); !errors.Is(err, config.ErrFolderNotFound) {
		t.Fatalf("expected ErrFolderNotFound, got %v", err)
	}
}

func TestWatchSetConcurrentAccess(t *testing.T) {
	set := config.NewWatchSet(nil)
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(2)
		folder := filepath.Join("/watch", string(rune('a'+i)))
		go func() {
			defer wg.Done()
			_ = set.Add(folder)
		}()
		go func() {
			defer wg.Done()
			for range 50 {
				_ = set.Snapshot()
			}
		}()
	}
	wg.Wait()
	if set.Len() != 8 {
		t.Fatalf("expected 8 folders, got %d", set.Len())
	}
}
