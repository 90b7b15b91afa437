package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"mediaq/internal/config"
	"mediaq/internal/daemon"
	"mediaq/internal/deps"
	"mediaq/internal/events"
	"mediaq/internal/history"
	"mediaq/internal/logging"
	"mediaq/internal/notifications"
	"mediaq/internal/queue"
	"mediaq/internal/worker"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
}

// Run starts the mediaq daemon and blocks until cmdCtx ends or the process
// receives SIGINT/SIGTERM.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := logging.RunLogPath(cfg, runID)

	level := opts.LogLevel
	if strings.TrimSpace(level) == "" {
		level = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stdout", logPath},
		Development: opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if opts.Development {
		debugPath := logging.DebugLogPath(cfg, runID)
		debugLogger, debugErr := logging.New(logging.Options{
			Level:       "debug",
			Format:      "json",
			OutputPaths: []string{debugPath},
			Development: true,
		})
		if debugErr != nil {
			fmt.Fprintf(os.Stderr, "warn: unable to initialize debug logger: %v\n", debugErr)
		} else {
			logger = logging.Mirror(logger, debugLogger.Handler())
			logger.Info("debug log enabled",
				logging.String(logging.FieldEventType, "debug_log_enabled"),
				logging.String("debug_log_path", debugPath),
			)
		}
	}
	sessionID := uuid.NewString()
	logger = logger.With(logging.String("session_id", sessionID))

	logDependencySnapshot(logger, cfg)

	var store *history.Store
	if cfg.History.Enabled {
		store, err = history.Open(cfg.History.Path)
		if err != nil {
			logging.WarnWithContext(logger, "history unavailable", "history_open_failed",
				logging.Error(err),
				logging.String("path", cfg.History.Path),
				logging.String(logging.FieldErrorHint, "delete the history database or set history.enabled = false"),
				logging.String(logging.FieldImpact, "finished jobs will not be recorded"),
			)
			store = nil
		}
	}

	bus := events.NewBus(cfg.Queue.SubscriberBuffer, logger)
	supervisor := worker.NewSupervisor(worker.OptionsFromConfig(cfg, logger))
	manager := queue.NewManager(queue.Options{
		Concurrency: cfg.Queue.Concurrency,
		CancelGrace: cfg.CancelGrace(),
		Spawner:     supervisor,
		Bus:         bus,
		Logger:      logger,
	})

	d, err := daemon.New(daemon.Options{
		Config:   cfg,
		Logger:   logger,
		Manager:  manager,
		Bus:      bus,
		Prober:   supervisor,
		History:  store,
		Notifier: notifications.NewService(cfg),
		RunID:    runID,
		LogPath:  logPath,
	})
	if err != nil {
		if store != nil {
			_ = store.Close()
		}
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		logging.ErrorWithContext(logger, "daemon start failed", "daemon_start_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check paths.api_bind and whether another daemon holds the lock"),
		)
		return err
	}

	// Shared log state belongs to the instance holding the lock.
	if err := ensureCurrentLogPointer(cfg.LogPath(), logPath); err != nil {
		logging.WarnWithContext(logger, "unable to update log pointer", "log_pointer_failed",
			logging.Error(err),
			logging.String("path", cfg.LogPath()),
			logging.String(logging.FieldImpact, "mediaq logs may show a previous run"),
		)
	}
	logging.PruneRunLogs(logger, cfg, logPath)

	<-signalCtx.Done()
	logger.Info("mediaq daemon shutting down", logging.String(logging.FieldEventType, "daemon_shutdown"))
	return nil
}

// ensureCurrentLogPointer points the stable log path at this run's log file.
func ensureCurrentLogPointer(current, target string) error {
	if current == "" || target == "" {
		return nil
	}
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func logDependencySnapshot(logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	statuses := deps.CheckBinaries(deps.Requirements(cfg))
	attrs := []logging.Attr{logging.String(logging.FieldEventType, "dependency_snapshot")}
	for _, status := range statuses {
		key := strings.ToLower(strings.ReplaceAll(status.Name, " ", "_"))
		attrs = append(attrs,
			logging.Bool(key+"_available", status.Available),
			logging.String(key+"_binary", status.Command),
		)
	}
	if free, err := deps.FreeSpace(cfg.Paths.DownloadDir); err == nil {
		attrs = append(attrs, logging.Int("download_free_mib", int(free>>20)))
	}
	logger.Info("dependency snapshot", logging.Args(attrs...)...)

	if missing := deps.MissingRequired(statuses); len(missing) > 0 {
		logging.WarnWithContext(logger, "required dependencies missing", "dependency_missing",
			logging.String("missing", strings.Join(missing, ", ")),
			logging.String(logging.FieldErrorHint, "install the binaries or set worker.bin_dir"),
			logging.String(logging.FieldImpact, "downloads will fail to start"),
		)
	}
}
