package daemonrun

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"autounzip/internal/ipc"
	"autounzip/internal/testsupport"
)

func TestWritePIDFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "autounzip.pid")
	if err := writePIDFile(path); err != nil {
		t.Fatalf("writePIDFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read pid: %v", err)
	}
	if strings.TrimSpace(string(data)) != strconv.Itoa(os.Getpid()) {
		t.Fatalf("pid file = %q", data)
	}
	if err := writePIDFile(""); err != nil {
		t.Fatalf("empty path should be a no-op: %v", err)
	}
}

func TestRunRequiresConfig(t *testing.T) {
	if err := Run(context.Background(), nil, Options{}); err == nil {
		t.Fatal("expected error for nil config")
	}
}

func TestRunServesIPCUntilStopped(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Paths.APIBind = ""
	cfg.Logging.Format = "json"

	done := make(chan error, 1)
	go func() {
		done <- Run(context.Background(), cfg, Options{LogLevel: "debug", Diagnostic: true})
	}()

	var client *ipc.Client
	testsupport.Eventually(t, 5*time.Second, func() bool {
		c, err := ipc.Dial(cfg.SocketPath())
		if err != nil {
			return false
		}
		client = c
		return true
	}, "ipc socket available")

	status, err := client.Status()
	if err != nil || !status.Running {
		client.Close()
		t.Fatalf("status: %+v err=%v", status, err)
	}
	if _, err := os.Stat(cfg.PIDPath()); err != nil {
		t.Fatalf("expected pid file: %v", err)
	}
	if _, err := client.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	// the server waits for open connections before Run returns
	client.Close()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after stop")
	}
	if _, err := os.Stat(cfg.PIDPath()); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("pid file should be removed, stat err = %v", err)
	}
	if _, err := os.Stat(cfg.LogPath()); err != nil {
		t.Fatalf("expected rotating log file: %v", err)
	}
	debugLogs, err := filepath.Glob(filepath.Join(cfg.Paths.LogDir, "autounzip-debug-*.log"))
	if err != nil || len(debugLogs) != 1 {
		t.Fatalf("expected one diagnostic log, got %v (err=%v)", debugLogs, err)
	}
	data, err := os.ReadFile(debugLogs[0])
	if err != nil || !strings.Contains(string(data), "daemon_shutdown") {
		t.Fatalf("diagnostic log missing shutdown record: %q err=%v", data, err)
	}
}
