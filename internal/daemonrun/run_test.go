package daemonrun

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"mediaq/internal/testsupport"
)

func TestEnsureCurrentLogPointerReplacesExisting(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "mediaq-1.log")
	second := filepath.Join(dir, "mediaq-2.log")
	for _, path := range []string{first, second} {
		if err := os.WriteFile(path, []byte(filepath.Base(path)), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	current := filepath.Join(dir, "mediaq.log")

	if err := ensureCurrentLogPointer(current, first); err != nil {
		t.Fatalf("first pointer: %v", err)
	}
	if err := ensureCurrentLogPointer(current, second); err != nil {
		t.Fatalf("second pointer: %v", err)
	}
	data, err := os.ReadFile(current)
	if err != nil {
		t.Fatalf("read pointer: %v", err)
	}
	if string(data) != "mediaq-2.log" {
		t.Fatalf("pointer resolves to %q, want mediaq-2.log", data)
	}
}

func TestRejectedInstanceLeavesSharedLogState(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("log pointer is a symlink")
	}
	cfg := testsupport.NewConfig(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, cfg, Options{LogLevel: "error"})
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(10 * time.Second):
			t.Error("first daemon did not stop")
		}
	})

	var target string
	deadline := time.Now().Add(10 * time.Second)
	for {
		if link, err := os.Readlink(cfg.LogPath()); err == nil {
			target = link
			break
		}
		select {
		case err := <-done:
			t.Fatalf("first daemon exited early: %v", err)
		default:
		}
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for log pointer")
		}
		time.Sleep(20 * time.Millisecond)
	}

	time.Sleep(5 * time.Millisecond)
	err := Run(context.Background(), cfg, Options{LogLevel: "error"})
	if err == nil || !strings.Contains(err.Error(), "already running") {
		t.Fatalf("expected lock rejection, got %v", err)
	}
	after, err := os.Readlink(cfg.LogPath())
	if err != nil {
		t.Fatalf("log pointer missing after rejected start: %v", err)
	}
	if after != target {
		t.Fatalf("rejected instance repointed log from %s to %s", target, after)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("running instance log removed: %v", err)
	}
}
