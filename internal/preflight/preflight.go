package preflight

import (
	"context"

	"autounzip/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// RunAll executes every preflight check for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	results = append(results, CheckDirectoryAccess("State directory", cfg.Paths.StateDir))
	results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	results = append(results, CheckWatchFolders(cfg)...)

	if minMB := cfg.Extraction.MinFreeSpaceMB; minMB > 0 {
		for _, folder := range cfg.Watch.Folders {
			results = append(results, CheckFreeSpace("Free space", folder, uint64(minMB)<<20))
		}
	}

	for _, status := range CheckSystemDeps(ctx, cfg) {
		r := Result{Name: status.Name, Passed: status.Available, Detail: status.Command}
		if !status.Available {
			r.Detail = status.Detail
			if status.Optional {
				r.Detail += " (optional: " + status.Description + ")"
			}
		}
		results = append(results, r)
	}
	return results
}

// Failed filters results down to the checks that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
