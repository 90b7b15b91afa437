package deps

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"mediaq/internal/config"
	"mediaq/internal/testsupport"
)

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(present, script, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Optional", Command: "also-not-present-binary", Optional: true},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available || results[0].Detail != "" {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[1].Available || results[1].Detail == "" {
		t.Fatalf("expected missing binary to be unavailable with detail, got %#v", results[1])
	}
	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}

	missing := MissingRequired(results)
	if len(missing) != 1 || missing[0] != "Missing" {
		t.Fatalf("expected only required binary reported missing, got %v", missing)
	}
}

func TestRequirementsUseBundledBinaries(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell stubs unsupported on windows")
	}
	binDir := t.TempDir()
	for _, name := range []string{"yt-dlp", "ffmpeg"} {
		if err := os.WriteFile(filepath.Join(binDir, name), []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
			t.Fatalf("write stub: %v", err)
		}
	}
	cfg := config.Default()
	cfg.Worker.BinDir = binDir
	cfg.Worker.JSRuntime = ""

	reqs := Requirements(&cfg)
	if len(reqs) != 2 {
		t.Fatalf("expected worker and ffmpeg requirements, got %d", len(reqs))
	}
	for _, status := range CheckBinaries(reqs) {
		if !status.Available {
			t.Fatalf("expected bundled %s to be available: %#v", status.Name, status)
		}
	}
}

func TestRequirementsResolveFromPath(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell stubs unsupported on windows")
	}
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	cfg.Worker.BinDir = ""

	results := CheckBinaries(Requirements(cfg))
	if missing := MissingRequired(results); len(missing) != 0 {
		t.Fatalf("expected PATH stubs to satisfy requirements, missing %v", missing)
	}
	for _, status := range results {
		if status.Command != "yt-dlp" && status.Command != "ffmpeg" {
			t.Fatalf("expected bare command names, got %#v", status)
		}
	}
}

func TestFreeSpace(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unsupported")
	}
	free, err := FreeSpace(t.TempDir())
	if err != nil {
		t.Fatalf("FreeSpace: %v", err)
	}
	if free == 0 {
		t.Fatal("expected non-zero free space for temp dir")
	}
}
