package deps

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestCheckBinaries(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell stubs are not executable on windows")
	}
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	if err := os.WriteFile(present, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Blank", Command: "  "},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available || results[0].Detail != "" {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[0].Command != present {
		t.Fatalf("expected resolved command %q, got %q", present, results[0].Command)
	}
	if results[1].Available || results[1].Detail == "" {
		t.Fatalf("expected missing binary to be unavailable with detail, got %#v", results[1])
	}
	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}
	if results[2].Available || results[2].Detail != "command not configured" {
		t.Fatalf("expected blank command to be reported as unconfigured, got %#v", results[2])
	}
}

func TestResolveHelperUsesPath(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell stubs are not executable on windows")
	}
	binDir := t.TempDir()
	stub := filepath.Join(binDir, "cabextract")
	if err := os.WriteFile(stub, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	t.Setenv("PATH", binDir)

	resolved, err := ResolveHelper("cabextract")
	if err != nil {
		t.Fatalf("ResolveHelper: %v", err)
	}
	if resolved != stub {
		t.Fatalf("expected %q, got %q", stub, resolved)
	}
}

func TestResolveHelperMissing(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	_, err := ResolveHelper("definitely-missing-helper")
	if !errors.Is(err, ErrHelperNotFound) {
		t.Fatalf("expected ErrHelperNotFound, got %v", err)
	}
	if _, err := ResolveHelper(filepath.Join(t.TempDir(), "nope")); !errors.Is(err, ErrHelperNotFound) {
		t.Fatalf("expected ErrHelperNotFound for absolute path, got %v", err)
	}
}

func TestExtractionRequirementsMarksCabOptional(t *testing.T) {
	reqs := ExtractionRequirements("cabextract")
	if len(reqs) != 1 || !reqs[0].Optional || reqs[0].Command != "cabextract" {
		t.Fatalf("unexpected requirements: %#v", reqs)
	}
}
