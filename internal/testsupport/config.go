package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"autounzip/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// One watch folder is created under the base directory; notifications go to
// the log notifier and the HTTP API binds an ephemeral port.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	cfgVal.Watch.Folders = []string{filepath.Join(base, "watch")}
	cfgVal.Watch.PollIntervalSeconds = 0.05
	cfgVal.Notifications.NtfyTopic = ""
	cfgVal.Notifications.MinProgressIntervalSeconds = 0
	cfgVal.SetSourcePath(filepath.Join(base, "config.toml"))

	for _, dir := range append([]string{cfgVal.Paths.StateDir, cfgVal.Paths.LogDir}, cfgVal.Watch.Folders...) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithDeleteAfterExtract sets extraction.delete_archives_after_extract.
func WithDeleteAfterExtract(enabled bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Extraction.DeleteArchivesAfterExtract = enabled
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, the cab helper is stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{b.cfg.CabHelperBinary()}
		}
		StubBinaries(b.t, filepath.Join(b.baseDir, "bin"), "#!/bin/sh\nexit 0\n", names...)
	}
}

// StubBinaries writes shell scripts named names into dir and prepends dir to
// PATH for the remainder of the test.
func StubBinaries(t testing.TB, dir, script string, names ...string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir bin dir: %v", err)
	}
	for _, name := range names {
		target := filepath.Join(dir, name)
		if err := os.WriteFile(target, []byte(script), 0o755); err != nil {
			t.Fatalf("write stub %s: %v", name, err)
		}
	}

	oldPath := os.Getenv("PATH")
	if err := os.Setenv("PATH", dir+string(os.PathListSeparator)+oldPath); err != nil {
		t.Fatalf("set PATH: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Setenv("PATH", oldPath)
	})
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}

// WatchDir returns the first watch folder of a config built by NewConfig.
func WatchDir(cfg *config.Config) string {
	return cfg.Watch.Folders[0]
}
