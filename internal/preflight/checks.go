package preflight

import (
	"context"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"

	"autounzip/internal/config"
	"autounzip/internal/deps"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := checkAccess(path); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckWatchFolders runs CheckDirectoryAccess for every configured watch
// folder. Archives are extracted next to themselves, so each folder must be
// writable as well as readable.
func CheckWatchFolders(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	results := make([]Result, 0, len(cfg.Watch.Folders))
	for _, folder := range cfg.Watch.Folders {
		results = append(results, CheckDirectoryAccess("Watch folder", folder))
	}
	return results
}

// CheckFreeSpace verifies that the filesystem holding path has at least
// minBytes available.
func CheckFreeSpace(name, path string, minBytes uint64) Result {
	free, err := FreeSpace(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	detail := fmt.Sprintf("%s (%s free, %s required)", path, humanize.IBytes(free), humanize.IBytes(minBytes))
	return Result{Name: name, Passed: free >= minBytes, Detail: detail}
}

// CheckSystemDeps evaluates the host helpers used by the extraction backends.
// Both the daemon and the CLI status command use this to avoid duplicating
// the requirements list.
func CheckSystemDeps(_ context.Context, cfg *config.Config) []deps.Status {
	if cfg == nil {
		return nil
	}
	return deps.CheckBinaries(deps.ExtractionRequirements(cfg.CabHelperBinary()))
}
