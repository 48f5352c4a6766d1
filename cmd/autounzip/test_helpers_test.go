package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"autounzip/internal/config"
	"autounzip/internal/daemon"
	"autounzip/internal/ipc"
	"autounzip/internal/logging"
	"autounzip/internal/notifications"
	"autounzip/internal/store"
	"autounzip/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	store      *store.Store
	daemon     *daemon.Daemon
	server     *ipc.Server
	configPath string
	baseDir    string
}

// newOfflineEnv writes a config file without starting a daemon.
func newOfflineEnv(t *testing.T) *cliTestEnv {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	cfg.Paths.APIBind = ""
	if err := cfg.Save(""); err != nil {
		t.Fatalf("save config: %v", err)
	}
	return &cliTestEnv{
		cfg:        cfg,
		configPath: cfg.SourcePath(),
		baseDir:    testsupport.BaseDir(cfg),
	}
}

// setupCLITestEnv runs an in-process daemon behind the IPC socket the CLI
// resolves from the config file.
func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()
	env := newOfflineEnv(t)
	env.store = testsupport.MustOpenStore(t, env.cfg)

	logger := logging.NewNop()
	d, err := daemon.New(env.cfg, env.store, logger, daemon.WithNotifier(notifications.NewNop()))
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	env.daemon = d

	ctx, cancel := context.WithCancel(context.Background())
	if err := d.Start(ctx); err != nil {
		cancel()
		t.Fatalf("daemon Start: %v", err)
	}
	srv, err := ipc.NewServer(ctx, env.cfg.SocketPath(), d, logger)
	if err != nil {
		cancel()
		d.Close()
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping CLI IPC test: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()
	env.server = srv

	t.Cleanup(func() {
		cancel()
		srv.Close()
		d.Close()
	})
	return env
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
