package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"mediaq/internal/api"
	"mediaq/internal/config"
	"mediaq/internal/deps"
	"mediaq/internal/events"
	"mediaq/internal/history"
	"mediaq/internal/logging"
	"mediaq/internal/notifications"
	"mediaq/internal/queue"
)

// Options wires a Daemon to its collaborators. Config, Manager and Bus are
// required; History and Notifier are optional.
type Options struct {
	Config   *config.Config
	Logger   *slog.Logger
	Manager  *queue.Manager
	Bus      *events.Bus
	Prober   api.Prober
	History  *history.Store
	Notifier notifications.Service
	RunID    string
	LogPath  string
}

// Daemon coordinates the queue manager, bus consumers and HTTP API and
// enforces single-instance execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	manager  *queue.Manager
	bus      *events.Bus
	service  *api.Service
	history  *history.Store
	notifier notifications.Service
	runID    string
	logPath  string

	lockPath string
	lock     *flock.Flock
	api      *apiServer

	mu        sync.Mutex
	running   atomic.Bool
	startedAt atomic.Int64
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// New constructs a daemon with initialized dependencies.
func New(opts Options) (*Daemon, error) {
	if opts.Config == nil || opts.Manager == nil || opts.Bus == nil {
		return nil, errors.New("daemon requires config, queue manager, and event bus")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = notifications.NewService(opts.Config)
	}

	lockPath := filepath.Join(opts.Config.Paths.LogDir, "mediaqd.lock")
	d := &Daemon{
		cfg:      opts.Config,
		logger:   logger,
		manager:  opts.Manager,
		bus:      opts.Bus,
		service:  api.NewService(opts.Manager, opts.Prober, logger),
		history:  opts.History,
		notifier: notifier,
		runID:    opts.RunID,
		logPath:  opts.LogPath,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	if d.logPath == "" {
		d.logPath = opts.Config.LogPath()
	}
	d.api = newAPIServer(opts.Config, d, logger)
	return d, nil
}

// Start acquires the daemon lock, starts the queue loop and bus consumers,
// and begins serving the HTTP API. The queue manager runs once per process,
// so a stopped daemon cannot be started again.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	if err := os.MkdirAll(filepath.Dir(d.lockPath), 0o755); err != nil {
		return fmt.Errorf("create lock directory: %w", err)
	}
	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another mediaq daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)

	// Consumers subscribe before the loop starts so no terminal event is missed.
	d.startConsumers(runCtx)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := d.manager.Run(runCtx); err != nil {
			logging.ErrorWithContext(d.logger, "queue manager exited", "queue_manager_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "restart the daemon"),
			)
		}
	}()

	if err := d.api.start(runCtx); err != nil {
		cancel()
		d.wg.Wait()
		_ = d.lock.Unlock()
		return err
	}

	d.cancel = cancel
	d.startedAt.Store(time.Now().UnixNano())
	d.running.Store(true)
	d.logger.Info("mediaq daemon started",
		logging.String("lock", d.lockPath),
		logging.String("api", d.api.address()),
		logging.String(logging.FieldEventType, "daemon_started"),
	)
	return nil
}

// Stop cancels in-flight work and releases the daemon lock.
func (d *Daemon) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running.Load() {
		return
	}

	d.cancel()
	d.cancel = nil
	d.api.stop()
	d.bus.Close()
	d.wg.Wait()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock",
			logging.Error(err),
			logging.String(logging.FieldEventType, "daemon_unlock_failed"),
			logging.String(logging.FieldErrorHint, "remove the lock file if the next start fails"),
		)
	}
	d.running.Store(false)
	d.logger.Info("mediaq daemon stopped", logging.String(logging.FieldEventType, "daemon_stopped"))
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.history != nil {
		return d.history.Close()
	}
	return nil
}

// Running reports whether Start succeeded and Stop has not been called.
func (d *Daemon) Running() bool {
	return d.running.Load()
}

// Addr returns the address the HTTP API is listening on, or "" before Start.
func (d *Daemon) Addr() string {
	return d.api.address()
}

// LockPath returns the flock file guarding single-instance execution.
func (d *Daemon) LockPath() string {
	return d.lockPath
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) api.DaemonStatus {
	status := api.DaemonStatus{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		RunID:        d.runID,
		LockFilePath: d.lockPath,
		LogPath:      d.logPath,
		DownloadDir:  d.cfg.Paths.DownloadDir,
		Subscribers:  d.bus.Len(),
		Dependencies: deps.CheckBinaries(deps.Requirements(d.cfg)),
		Queue:        api.QueueCounts{Concurrency: d.manager.Concurrency()},
	}
	if d.history != nil {
		status.HistoryPath = d.history.Path()
	}
	if started := d.startedAt.Load(); started != 0 {
		status.StartedAt = api.FormatTime(time.Unix(0, started))
	}
	if free, err := deps.FreeSpace(d.cfg.Paths.DownloadDir); err == nil {
		status.FreeBytes = free
	}
	if snap, err := d.manager.Snapshot(ctx); err == nil {
		status.Queue.Active = len(snap.Active)
		status.Queue.Waiting = len(snap.Waiting)
		status.Queue.Paused = snap.Paused
	}
	if stats, err := d.manager.Stats(ctx); err == nil {
		status.Stats = stats
	}
	return status
}

// History returns up to limit finished jobs, newest first. A daemon without
// a history store returns an empty list.
func (d *Daemon) History(ctx context.Context, limit int) ([]api.HistoryEntry, error) {
	if d.history == nil {
		return api.FromHistoryRecords(nil), nil
	}
	records, err := d.history.List(ctx, limit)
	if err != nil {
		return nil, err
	}
	return api.FromHistoryRecords(records), nil
}
