package main

import (
	"encoding/json"
	"os"
	"testing"

	"autounzip/internal/api"
)

func TestStatusWithoutDaemon(t *testing.T) {
	env := newOfflineEnv(t)

	out, _, err := runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "== Daemon ==")
	requireContains(t, out, "Not running")
	requireContains(t, out, "Inactive (daemon not running)")
	requireContains(t, out, env.cfg.Watch.Folders[0])
	requireContains(t, out, "Succeeded")

	out, _, err = runCLI(t, []string{"status", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("status --json: %v", err)
	}
	var snapshot api.DaemonStatus
	if err := json.Unmarshal([]byte(out), &snapshot); err != nil {
		t.Fatalf("decode status json: %v\n%s", err, out)
	}
	if snapshot.Running || snapshot.DatabasePath != env.cfg.DatabasePath() {
		t.Fatalf("unexpected snapshot %+v", snapshot)
	}
}

func TestStatusWithDaemon(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Running (pid")
	requireContains(t, out, "Polling every")
	requireContains(t, out, "== History ==")
}

func TestStartWhenAlreadyRunning(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"start"}, env.configPath)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	requireContains(t, out, "Daemon already running")
	if d := env.daemon; !d.Running() {
		t.Fatal("daemon should still be running")
	}
}

func TestStopWithoutDaemon(t *testing.T) {
	env := newOfflineEnv(t)

	out, _, err := runCLI(t, []string{"stop"}, env.configPath)
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	requireContains(t, out, "Daemon is not running")
	if _, err := os.Stat(env.cfg.PIDPath()); !os.IsNotExist(err) {
		t.Fatalf("stop should not create a pid file, stat err = %v", err)
	}
}
