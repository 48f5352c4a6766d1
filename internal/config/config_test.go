package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"autounzip/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("AUTOUNZIP_NTFY_TOPIC", "")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantState := filepath.Join(tempHome, ".local", "share", "autounzip")
	if cfg.Paths.StateDir != wantState {
		t.Fatalf("unexpected state dir: got %q want %q", cfg.Paths.StateDir, wantState)
	}
	if len(cfg.Watch.Folders) != 1 || cfg.Watch.Folders[0] != filepath.Join(tempHome, "Downloads") {
		t.Fatalf("unexpected default folders: %v", cfg.Watch.Folders)
	}
	if cfg.Watch.PollIntervalSeconds != 2.0 {
		t.Fatalf("unexpected poll interval: %v", cfg.Watch.PollIntervalSeconds)
	}
	if cfg.PollInterval() != 2*time.Second {
		t.Fatalf("unexpected poll duration: %v", cfg.PollInterval())
	}
	if !cfg.Extraction.DeleteArchivesAfterExtract {
		t.Fatal("expected delete_archives_after_extract to default to true")
	}
	if cfg.Paths.APIBind != "127.0.0.1:7489" {
		t.Fatalf("unexpected api bind: %q", cfg.Paths.APIBind)
	}
	if cfg.DatabasePath() != filepath.Join(wantState, "state.db") {
		t.Fatalf("unexpected database path: %q", cfg.DatabasePath())
	}
	if cfg.Notifications.ProgressMilestone != 50 {
		t.Fatalf("unexpected progress milestone: %d", cfg.Notifications.ProgressMilestone)
	}
}

func TestLoadTOMLOverrides(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	watchDir := filepath.Join(tempHome, "incoming")

	configPath := filepath.Join(tempHome, "config.toml")
	content := `
[paths]
state_dir = "~/state"
api_bind = ""

[watch]
folders = ["~/incoming", "~/incoming", "  "]
poll_interval_seconds = 0.5

[extraction]
delete_archives_after_extract = false

[notifications]
ntfy_topic = "https://ntfy.example/topic"

[logging]
level = "DEBUG"
format = "JSON"
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected config to be read from %s, got %s (exists=%v)", configPath, resolved, exists)
	}
	if cfg.SourcePath() != configPath {
		t.Fatalf("expected source path recorded, got %q", cfg.SourcePath())
	}
	if cfg.Paths.StateDir != filepath.Join(tempHome, "state") {
		t.Fatalf("unexpected state dir: %q", cfg.Paths.StateDir)
	}
	if cfg.Paths.LogDir != filepath.Join(tempHome, ".local", "share", "autounzip", "logs") {
		t.Fatalf("expected default log dir to survive, got %q", cfg.Paths.LogDir)
	}
	if cfg.Paths.APIBind != "" {
		t.Fatalf("expected API disabled, got %q", cfg.Paths.APIBind)
	}
	if len(cfg.Watch.Folders) != 1 || cfg.Watch.Folders[0] != watchDir {
		t.Fatalf("expected folders deduplicated to [%s], got %v", watchDir, cfg.Watch.Folders)
	}
	if cfg.PollInterval() != 500*time.Millisecond {
		t.Fatalf("unexpected poll interval: %v", cfg.PollInterval())
	}
	if cfg.Extraction.DeleteArchivesAfterExtract {
		t.Fatal("expected delete flag false")
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Fatalf("expected logging normalized, got %q/%q", cfg.Logging.Level, cfg.Logging.Format)
	}
}

func TestLoadYAMLConfig(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	configPath := filepath.Join(tempHome, "config.yaml")
	content := `
watch:
  folders: ["/srv/drop"]
  poll_interval_seconds: 5
extraction:
  delete_archives_after_extract: false
  cab_helper: "/opt/bin/cabextract"
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if len(cfg.Watch.Folders) != 1 || cfg.Watch.Folders[0] != "/srv/drop" {
		t.Fatalf("unexpected folders: %v", cfg.Watch.Folders)
	}
	if cfg.PollInterval() != 5*time.Second {
		t.Fatalf("unexpected poll interval: %v", cfg.PollInterval())
	}
	if cfg.CabHelperBinary() != "/opt/bin/cabextract" {
		t.Fatalf("unexpected cab helper: %q", cfg.CabHelperBinary())
	}
	if cfg.Logging.Format != "console" {
		t.Fatalf("expected default log format, got %q", cfg.Logging.Format)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "zero poll interval",
			content: "[watch]\npoll_interval_seconds = 0\n",
			want:    "watch.poll_interval_seconds must be greater than 0",
		},
		{
			name:    "negative poll interval",
			content: "[watch]\npoll_interval_seconds = -1.5\n",
			want:    "watch.poll_interval_seconds",
		},
		{
			name:    "unknown log level",
			content: "[logging]\nlevel = \"loud\"\n",
			want:    "logging.level must be one of",
		},
		{
			name:    "unknown log format",
			content: "[logging]\nformat = \"xml\"\n",
			want:    "logging.format must be console or json",
		},
		{
			name:    "bad bind address",
			content: "[paths]\napi_bind = \"not-an-address\"\n",
			want:    "paths.api_bind must be host:port",
		},
		{
			name:    "milestone out of range",
			content: "[notifications]\nprogress_milestone = 250\n",
			want:    "notifications.progress_milestone must be at most 100",
		},
		{
			name:    "topic without scheme",
			content: "[notifications]\nntfy_topic = \"my-topic\"\n",
			want:    "notifications.ntfy_topic must be a full URL",
		},
		{
			name:    "token without api",
			content: "[paths]\napi_bind = \"\"\napi_token = \"secret\"\n",
			want:    "paths.api_token is set",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("HOME", t.TempDir())
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(tc.content), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			_, _, _, err := config.Load(path)
			if err == nil {
				t.Fatalf("expected validation error containing %q", tc.want)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestNtfyTopicFromEnvironment(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("AUTOUNZIP_NTFY_TOPIC", "https://ntfy.sh/from-env")

	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Notifications.NtfyTopic != "https://ntfy.sh/from-env" {
		t.Fatalf("expected topic from env, got %q", cfg.Notifications.NtfyTopic)
	}
}

func TestSampleConfigLoads(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("AUTOUNZIP_NTFY_TOPIC", "")
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("sample config should load cleanly: %v", err)
	}
	if !exists {
		t.Fatal("expected sample config to exist")
	}
	defaults := config.Default()
	if cfg.Watch.PollIntervalSeconds != defaults.Watch.PollIntervalSeconds {
		t.Fatalf("sample poll interval drifted from defaults: %v", cfg.Watch.PollIntervalSeconds)
	}
	if cfg.Logging.MaxBackups != defaults.Logging.MaxBackups {
		t.Fatalf("sample max_backups drifted from defaults: %d", cfg.Logging.MaxBackups)
	}
}

func TestSaveRoundTripsWatchFolders(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, ext := range []string{".toml", ".yaml"} {
		t.Run(ext, func(t *testing.T) {
			extra := t.TempDir()
			path := filepath.Join(t.TempDir(), "config"+ext)

			cfg := config.Default()
			cfg.Watch.Folders = []string{extra}
			cfg.Extraction.DeleteArchivesAfterExtract = false
			if err := cfg.Save(path); err != nil {
				t.Fatalf("Save: %v", err)
			}
			if cfg.SourcePath() != path {
				t.Fatalf("expected source path updated to %s, got %s", path, cfg.SourcePath())
			}

			loaded, _, _, err := config.Load(path)
			if err != nil {
				t.Fatalf("Load after Save: %v", err)
			}
			if len(loaded.Watch.Folders) != 1 || loaded.Watch.Folders[0] != extra {
				t.Fatalf("unexpected folders after round trip: %v", loaded.Watch.Folders)
			}
			if loaded.Extraction.DeleteArchivesAfterExtract {
				t.Fatal("expected delete flag to persist as false")
			}
		})
	}
}

func TestSaveWithoutPathFails(t *testing.T) {
	cfg := config.Default()
	if err := cfg.Save(""); err == nil {
		t.Fatal("expected error when no destination is known")
	}
}
