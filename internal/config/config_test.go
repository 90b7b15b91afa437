package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"mediaq/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("MEDIAQ_API_TOKEN", "")
	t.Setenv("MEDIAQ_NTFY_TOPIC", "")

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

	wantDownload := filepath.Join(tempHome, "Downloads", "YoutubeDownloads")
	if cfg.Paths.DownloadDir != wantDownload {
		t.Fatalf("unexpected download dir: got %q want %q", cfg.Paths.DownloadDir, wantDownload)
	}
	wantLogs := filepath.Join(tempHome, ".local", "share", "mediaq", "logs")
	if cfg.Paths.LogDir != wantLogs {
		t.Fatalf("unexpected log dir: got %q want %q", cfg.Paths.LogDir, wantLogs)
	}
	if cfg.Paths.APIBind != "127.0.0.1:3000" {
		t.Fatalf("unexpected api bind: %q", cfg.Paths.APIBind)
	}
	if cfg.Queue.Concurrency != 10 {
		t.Fatalf("expected concurrency 10, got %d", cfg.Queue.Concurrency)
	}
	if cfg.CancelGrace() != time.Second {
		t.Fatalf("expected 1s cancel grace, got %s", cfg.CancelGrace())
	}
	if cfg.Worker.Binary != "yt-dlp" || cfg.Worker.JSRuntime != "node" || !cfg.Worker.ForceIPv4 {
		t.Fatalf("unexpected worker defaults: %+v", cfg.Worker)
	}
	if cfg.History.Path != filepath.Join(wantLogs, "history.db") {
		t.Fatalf("unexpected history path: %q", cfg.History.Path)
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	configPath := filepath.Join(t.TempDir(), "config.toml")
	content := `[paths]
download_dir = "~/media"
log_dir = "~/logs"
api_bind = "0.0.0.0:9000"

[queue]
concurrency = 3
cancel_grace_ms = 250

[logging]
format = "JSON"
level = "DEBUG"
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: %q", resolved)
	}
	if cfg.Paths.DownloadDir != filepath.Join(tempHome, "media") {
		t.Fatalf("unexpected download dir: %q", cfg.Paths.DownloadDir)
	}
	if cfg.Paths.APIBind != "0.0.0.0:9000" {
		t.Fatalf("unexpected api bind: %q", cfg.Paths.APIBind)
	}
	if cfg.Queue.Concurrency != 3 {
		t.Fatalf("unexpected concurrency: %d", cfg.Queue.Concurrency)
	}
	if cfg.CancelGrace() != 250*time.Millisecond {
		t.Fatalf("unexpected cancel grace: %s", cfg.CancelGrace())
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("expected normalized logging values, got %+v", cfg.Logging)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	configPath := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(configPath, []byte("[queue]\nworkers = 4\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(configPath); err == nil {
		t.Fatal("expected unknown key to be rejected")
	}
}

func TestEnvFallbacksApplyWhenConfigEmpty(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("MEDIAQ_API_TOKEN", " secret ")
	t.Setenv("MEDIAQ_NTFY_TOPIC", "https://ntfy.sh/downloads")

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paths.APIToken != "secret" {
		t.Fatalf("expected API token from env, got %q", cfg.Paths.APIToken)
	}
	if cfg.Notifications.NtfyTopic != "https://ntfy.sh/downloads" {
		t.Fatalf("expected ntfy topic from env, got %q", cfg.Notifications.NtfyTopic)
	}
}

func TestConfigValueWinsOverEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("MEDIAQ_API_TOKEN", "from-env")
	configPath := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(configPath, []byte("[paths]\napi_token = \"from-file\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paths.APIToken != "from-file" {
		t.Fatalf("expected config file token, got %q", cfg.Paths.APIToken)
	}
}

func TestWorkerBinaryPrefersBundled(t *testing.T) {
	binDir := t.TempDir()
	cfg := config.Default()
	cfg.Worker.BinDir = binDir

	if got := cfg.WorkerBinary(); got != "yt-dlp" {
		t.Fatalf("expected PATH lookup name without bundled binary, got %q", got)
	}

	bundled := filepath.Join(binDir, "yt-dlp")
	if err := os.WriteFile(bundled, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write bundled binary: %v", err)
	}
	if got := cfg.WorkerBinary(); got != bundled {
		t.Fatalf("expected bundled binary %q, got %q", bundled, got)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "cancel_grace_ms") {
		t.Fatalf("sample config missing queue section: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if cfg.Queue.Concurrency != 10 {
		t.Fatalf("expected sample concurrency 10, got %d", cfg.Queue.Concurrency)
	}

	t.Setenv("HOME", t.TempDir())
	if _, _, _, err := config.Load(path); err != nil {
		t.Fatalf("sample config should load cleanly: %v", err)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"negative concurrency", func(c *config.Config) { c.Queue.Concurrency = -1 }, "queue.concurrency"},
		{"negative grace", func(c *config.Config) { c.Queue.CancelGraceMS = -5 }, "queue.cancel_grace_ms"},
		{"bad bind", func(c *config.Config) { c.Paths.APIBind = "localhost" }, "paths.api_bind"},
		{"bad topic", func(c *config.Config) { c.Notifications.NtfyTopic = "not a url" }, "notifications.ntfy_topic"},
		{"bad level", func(c *config.Config) { c.Logging.Level = "loud" }, "logging.level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected validation error containing %q", tt.want)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error to mention %q, got %v", tt.want, err)
			}
		})
	}
}
