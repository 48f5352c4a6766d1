package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"
)

var (
	// ErrFolderExists reports an attempt to add a folder that is already watched.
	ErrFolderExists = errors.New("folder already watched")
	// ErrFolderNotFound reports an attempt to remove a folder that is not watched.
	ErrFolderNotFound = errors.New("folder not watched")
)

// ResolveWatchFolder expands path and verifies it names an existing directory.
func ResolveWatchFolder(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", errors.New("folder path is required")
	}
	resolved, err := expandPath(trimmed)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return "", fmt.Errorf("stat folder: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory", resolved)
	}
	return resolved, nil
}

// AddWatchFolder validates path and appends it to watch.folders.
func (c *Config) AddWatchFolder(path string) (string, error) {
	resolved, err := ResolveWatchFolder(path)
	if err != nil {
		return "", err
	}
	if slices.Contains(c.Watch.Folders, resolved) {
		return resolved, fmt.Errorf("%w: %s", ErrFolderExists, resolved)
	}
	c.Watch.Folders = append(c.Watch.Folders, resolved)
	return resolved, nil
}

// RemoveWatchFolder drops path from watch.folders. The folder does not need to
// exist on disk any more.
func (c *Config) RemoveWatchFolder(path string) (string, error) {
	resolved, err := expandPath(strings.TrimSpace(path))
	if err != nil {
		return "", err
	}
	idx := slices.Index(c.Watch.Folders, resolved)
	if idx < 0 {
		return resolved, fmt.Errorf("%w: %s", ErrFolderNotFound, resolved)
	}
	c.Watch.Folders = slices.Delete(c.Watch.Folders, idx, idx+1)
	return resolved, nil
}

// WatchSet is an ordered, concurrency-safe set of watch folders. Readers get
// snapshot copies so the watcher can iterate while callers add or remove
// folders.
type WatchSet struct {
	mu      sync.RWMutex
	folders []string
}

// NewWatchSet seeds a set with folders, dropping blanks and duplicates.
func NewWatchSet(folders []string) *WatchSet {
	ws := &WatchSet{}
	for _, folder := range folders {
		_ = ws.Add(folder)
	}
	return ws
}

// Snapshot returns a copy of the current folders in insertion order.
func (w *WatchSet) Snapshot() []string {
	if w == nil {
		return nil
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	return slices.Clone(w.folders)
}

// Add appends folder unless it is blank or already present.
func (w *WatchSet) Add(folder string) error {
	folder = strings.TrimSpace(folder)
	if folder == "" {
		return errors.New("folder path is required")
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if slices.Contains(w.folders, folder) {
		return fmt.Errorf("%w: %s", ErrFolderExists, folder)
	}
	w.folders = append(w.folders, folder)
	return nil
}

// Remove deletes folder from the set.
func (w *WatchSet) Remove(folder string) error {
	folder = strings.TrimSpace(folder)
	w.mu.Lock()
	defer w.mu.Unlock()
	idx := slices.Index(w.folders, folder)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrFolderNotFound, folder)
	}
	w.folders = slices.Delete(w.folders, idx, idx+1)
	return nil
}

// Contains reports whether folder is being watched.
func (w *WatchSet) Contains(folder string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return slices.Contains(w.folders, folder)
}

// Len returns the number of watched folders.
func (w *WatchSet) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.folders)
}
