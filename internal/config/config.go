package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	StateDir string `toml:"state_dir" yaml:"state_dir" validate:"required"`
	LogDir   string `toml:"log_dir" yaml:"log_dir" validate:"required"`
	APIBind  string `toml:"api_bind" yaml:"api_bind" validate:"omitempty,hostname_port"`
	APIToken string `toml:"api_token" yaml:"api_token"`
}

// Watch contains the folder watcher settings.
type Watch struct {
	Folders             []string `toml:"folders" yaml:"folders" validate:"dive,required"`
	PollIntervalSeconds float64  `toml:"poll_interval_seconds" yaml:"poll_interval_seconds" validate:"gt=0,lte=3600"`
	PersistSeen         bool     `toml:"persist_seen" yaml:"persist_seen"`
	MinFileAgeSeconds   float64  `toml:"min_file_age_seconds" yaml:"min_file_age_seconds" validate:"gte=0"`
}

// Extraction contains settings applied to every archive the workflow processes.
type Extraction struct {
	DeleteArchivesAfterExtract bool   `toml:"delete_archives_after_extract" yaml:"delete_archives_after_extract"`
	CabHelper                  string `toml:"cab_helper" yaml:"cab_helper"`
	MinFreeSpaceMB             int64  `toml:"min_free_space_mb" yaml:"min_free_space_mb" validate:"gte=0"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic                  string  `toml:"ntfy_topic" yaml:"ntfy_topic" validate:"omitempty,url"`
	RequestTimeout             int     `toml:"request_timeout" yaml:"request_timeout" validate:"gte=0"`
	Startup                    bool    `toml:"startup" yaml:"startup"`
	Progress                   bool    `toml:"progress" yaml:"progress"`
	Completion                 bool    `toml:"completion" yaml:"completion"`
	ProgressMilestone          int     `toml:"progress_milestone" yaml:"progress_milestone" validate:"gte=1,lte=100"`
	MinProgressIntervalSeconds float64 `toml:"min_progress_interval_seconds" yaml:"min_progress_interval_seconds" validate:"gte=0"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format" yaml:"format" validate:"logformat"`
	Level         string `toml:"level" yaml:"level" validate:"loglevel"`
	RetentionDays int    `toml:"retention_days" yaml:"retention_days" validate:"gte=0"`
	MaxSizeMB     int    `toml:"max_size_mb" yaml:"max_size_mb" validate:"gte=1"`
	MaxBackups    int    `toml:"max_backups" yaml:"max_backups" validate:"gte=0"`
}

// Config encapsulates all configuration values for autounzip.
//
// Configuration sections by subsystem:
//   - Paths: state, logs, and API bind address
//   - Watch: watched folders, poll interval, dedup persistence
//   - Extraction: delete-after-extract and host helper overrides
//   - Notifications: ntfy push notification settings
//   - Logging: log format, level, rotation, and retention
type Config struct {
	Paths         Paths         `toml:"paths" yaml:"paths"`
	Watch         Watch         `toml:"watch" yaml:"watch"`
	Extraction    Extraction    `toml:"extraction" yaml:"extraction"`
	Notifications Notifications `toml:"notifications" yaml:"notifications"`
	Logging       Logging       `toml:"logging" yaml:"logging"`

	sourcePath string
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/autounzip/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		data, err := os.ReadFile(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		if err := decode(resolvedPath, data, &cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	cfg.sourcePath = resolvedPath
	return &cfg, resolvedPath, exists, nil
}

func decode(path string, data []byte, cfg *Config) error {
	if isYAML(path) {
		return yaml.Unmarshal(data, cfg)
	}
	return toml.NewDecoder(bytes.NewReader(data)).Decode(cfg)
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("autounzip.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// Save writes the configuration to path, or to the file it was loaded from when
// path is empty. The encoding follows the file extension.
func (c *Config) Save(path string) error {
	target := strings.TrimSpace(path)
	if target == "" {
		target = c.sourcePath
	}
	if target == "" {
		return errors.New("save config: no destination path")
	}

	var (
		data []byte
		err  error
	)
	if isYAML(target) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = toml.Marshal(c)
	}
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace config: %w", err)
	}
	c.sourcePath = target
	return nil
}

// SourcePath returns the file the configuration was loaded from (or last saved to).
func (c *Config) SourcePath() string {
	return c.sourcePath
}

// SetSourcePath overrides the file Save writes to when called without a path.
func (c *Config) SetSourcePath(path string) {
	c.sourcePath = path
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the sqlite database holding seen entries and history.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.StateDir, "state.db")
}

// SocketPath returns the IPC socket location.
func (c *Config) SocketPath() string {
	return filepath.Join(c.Paths.StateDir, "autounzip.sock")
}

// LockPath returns the single-instance lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "autounzip.lock")
}

// PIDPath returns the daemon PID file location.
func (c *Config) PIDPath() string {
	return filepath.Join(c.Paths.StateDir, "autounzip.pid")
}

// LogPath returns the rotating daemon log file.
func (c *Config) LogPath() string {
	return filepath.Join(c.Paths.LogDir, "autounzip.log")
}

// PollInterval converts watch.poll_interval_seconds to a duration.
func (c *Config) PollInterval() time.Duration {
	return secondsToDuration(c.Watch.PollIntervalSeconds)
}

// MinFileAge converts watch.min_file_age_seconds to a duration.
func (c *Config) MinFileAge() time.Duration {
	return secondsToDuration(c.Watch.MinFileAgeSeconds)
}

// CabHelperBinary returns the host utility used for cabinet extraction.
func (c *Config) CabHelperBinary() string {
	if helper := strings.TrimSpace(c.Extraction.CabHelper); helper != "" {
		return helper
	}
	if runtime.GOOS == "windows" {
		return "expand"
	}
	return "cabextract"
}

func secondsToDuration(seconds float64) time.Duration {
	if seconds <= 0 {
		return 0
	}
	return time.Duration(seconds * float64(time.Second))
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
