package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"mediaq/internal/config"
)

const (
	runLogPrefix   = "mediaq-"
	debugLogSubdir = "debug"
)

// RunLogPath is the per-run daemon log for runID. cfg.LogPath() points at the
// newest one.
func RunLogPath(cfg *config.Config, runID string) string {
	return filepath.Join(cfg.Paths.LogDir, runLogPrefix+runID+".log")
}

// DebugLogPath is the per-run JSON debug log written in development mode.
func DebugLogPath(cfg *config.Config, runID string) string {
	return filepath.Join(cfg.Paths.LogDir, debugLogSubdir, runLogPrefix+runID+".jsonl")
}

// PruneReport summarises one retention pass.
type PruneReport struct {
	Removed []string
	Bytes   int64
	Failed  int
}

// PruneRunLogs removes run and debug logs last written more than
// logging.retention_days ago. Paths listed in keep survive regardless of age.
// Only regular files are considered, so the mediaq.log pointer is never
// touched. A non-positive retention disables pruning.
func PruneRunLogs(logger *slog.Logger, cfg *config.Config, keep ...string) PruneReport {
	var report PruneReport
	if cfg == nil || cfg.Logging.RetentionDays <= 0 || strings.TrimSpace(cfg.Paths.LogDir) == "" {
		return report
	}
	if logger == nil {
		logger = NewNop()
	}

	kept := make(map[string]struct{}, len(keep))
	for _, path := range keep {
		if path != "" {
			kept[filepath.Clean(path)] = struct{}{}
		}
	}
	cutoff := time.Now().AddDate(0, 0, -cfg.Logging.RetentionDays)
	patterns := []string{
		RunLogPath(cfg, "*"),
		DebugLogPath(cfg, "*"),
	}

	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			continue
		}
		for _, path := range matches {
			if _, ok := kept[filepath.Clean(path)]; ok {
				continue
			}
			info, err := os.Lstat(path)
			if err != nil || !info.Mode().IsRegular() || !info.ModTime().Before(cutoff) {
				continue
			}
			if err := os.Remove(path); err != nil {
				report.Failed++
				WarnWithContext(logger, "failed to prune run log", "log_retention_failed",
					String("path", path),
					Error(err),
					String(FieldErrorHint, "check permissions on paths.log_dir"),
				)
				continue
			}
			report.Removed = append(report.Removed, path)
			report.Bytes += info.Size()
		}
	}

	if len(report.Removed) > 0 || report.Failed > 0 {
		logger.Info("log retention pass",
			String(FieldEventType, "log_retention"),
			Int("removed", len(report.Removed)),
			Int("failed", report.Failed),
			String("freed", humanize.IBytes(uint64(report.Bytes))),
			Int("retention_days", cfg.Logging.RetentionDays),
		)
	}
	return report
}
