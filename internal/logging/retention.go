package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"autounzip/internal/config"
)

// RetentionTarget specifies a directory and filename pattern to prune.
type RetentionTarget struct {
	Dir     string
	Pattern string
	Exclude []string
}

// DaemonRetentionTargets covers the lumberjack backups next to the active log.
// The active file itself is never pruned.
func DaemonRetentionTargets(cfg *config.Config) []RetentionTarget {
	if cfg == nil || strings.TrimSpace(cfg.Paths.LogDir) == "" {
		return nil
	}
	return []RetentionTarget{{
		Dir:     cfg.Paths.LogDir,
		Pattern: "autounzip*.log*",
		Exclude: []string{cfg.LogPath()},
	}}
}

// CleanupOldLogs removes files matching the provided targets that are older
// than retentionDays. A retentionDays value of 0 disables pruning.
func CleanupOldLogs(logger *slog.Logger, retentionDays int, targets ...RetentionTarget) {
	if retentionDays <= 0 {
		return
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	exclusions := retentionExclusions(targets)

	for _, target := range targets {
		dir := strings.TrimSpace(target.Dir)
		if dir == "" {
			continue
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() || !matchesPattern(target.Pattern, entry.Name()) {
				continue
			}
			fullPath := absOrSelf(filepath.Join(dir, entry.Name()))
			if _, skip := exclusions[fullPath]; skip {
				continue
			}
			info, err := entry.Info()
			if err != nil || !info.ModTime().Before(cutoff) {
				continue
			}
			if err := os.Remove(fullPath); err != nil {
				WarnWithContext(logger, "log retention remove failed; file remains", "log_retention_failed",
					String("path", fullPath),
					Error(err),
					String(FieldErrorHint, "check file permissions and log_dir ownership"),
					String(FieldImpact, "old log file remains on disk"),
				)
				continue
			}
			if logger != nil {
				logger.Info("log pruned",
					String("path", fullPath),
					String(FieldEventType, "log_pruned"),
				)
			}
		}
	}
}

func retentionExclusions(targets []RetentionTarget) map[string]struct{} {
	exclusions := make(map[string]struct{})
	for _, target := range targets {
		for _, path := range target.Exclude {
			if trimmed := strings.TrimSpace(path); trimmed != "" {
				exclusions[absOrSelf(trimmed)] = struct{}{}
			}
		}
	}
	return exclusions
}

func matchesPattern(pattern, name string) bool {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return true
	}
	matched, err := filepath.Match(pattern, name)
	return err == nil && matched
}

func absOrSelf(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
