package worker

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"mediaq/internal/config"
	"mediaq/internal/logging"
)

const (
	errorLogLimit  = 64 * 1024
	defaultWait    = 5 * time.Second
	scanBufferSize = 1024 * 1024
)

// Options configures a Supervisor.
type Options struct {
	Binary         string
	FFmpegLocation string
	JSRuntime      string
	ForceIPv4      bool
	ExtraArgs      []string
	DefaultDir     string
	// WaitDelay bounds how long Wait blocks on output pipes after the
	// process has exited or been signalled.
	WaitDelay time.Duration
	Logger    *slog.Logger
}

// OptionsFromConfig maps application configuration onto supervisor options.
func OptionsFromConfig(cfg *config.Config, logger *slog.Logger) Options {
	return Options{
		Binary:         cfg.WorkerBinary(),
		FFmpegLocation: cfg.Worker.BinDir,
		JSRuntime:      cfg.Worker.JSRuntime,
		ForceIPv4:      cfg.Worker.ForceIPv4,
		ExtraArgs:      append([]string(nil), cfg.Worker.ExtraArgs...),
		DefaultDir:     cfg.Paths.DownloadDir,
		Logger:         logger,
	}
}

// Supervisor spawns and monitors worker processes.
type Supervisor struct {
	opts   Options
	logger *slog.Logger
}

// NewSupervisor constructs a supervisor.
func NewSupervisor(opts Options) *Supervisor {
	if strings.TrimSpace(opts.Binary) == "" {
		opts.Binary = "yt-dlp"
	}
	if opts.WaitDelay <= 0 {
		opts.WaitDelay = defaultWait
	}
	return &Supervisor{
		opts:   opts,
		logger: logging.NewComponentLogger(opts.Logger, "worker"),
	}
}

// Process is a running worker.
type Process struct {
	cmd  *exec.Cmd
	pid  int
	once sync.Once
	err  error
}

// PID returns the operating-system process id.
func (p *Process) PID() int {
	return p.pid
}

// Kill asks the worker and its children to terminate. Only the first call
// signals; later calls return the first result.
func (p *Process) Kill() error {
	p.once.Do(func() {
		p.err = terminate(p.cmd.Process)
		if errors.Is(p.err, os.ErrProcessDone) {
			p.err = nil
		}
	})
	return p.err
}

// Spawn starts a worker for req. A non-nil error means the process never
// started and report will not be called. Otherwise report receives zero or
// more EventProgress events followed by exactly one EventExited, unless ctx
// ends first. Cancelling ctx also terminates the process.
func (s *Supervisor) Spawn(ctx context.Context, req Request, report func(Event)) (Handle, error) {
	logger := s.logger.With(logging.JobID(req.JobID))

	binary, err := exec.LookPath(s.opts.Binary)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNoBinary, s.opts.Binary, err)
	}

	outputDir := OutputDir(req, s.opts.DefaultDir)
	baseDir := strings.TrimSpace(req.DestinationDir)
	if baseDir == "" {
		baseDir = s.opts.DefaultDir
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		logging.WarnWithContext(logger, "destination directory unavailable; starting worker anyway", "destination_mkdir_failed",
			logging.String("dir", baseDir),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the download path exists and is writable"),
			logging.String(logging.FieldImpact, "the worker may fail to write output"),
		)
	}

	args := s.BuildArgs(req, outputDir)
	cmd := exec.CommandContext(ctx, binary, args...)
	configureProcess(cmd)
	cmd.Cancel = func() error { return terminate(cmd.Process) }
	cmd.WaitDelay = s.opts.WaitDelay

	// Stdout and stderr are handed to exec as plain writers so Wait owns the
	// copy and WaitDelay bounds it when a grandchild inherits the pipes.
	stdout, stdoutWriter := io.Pipe()
	errorLog := &tailBuffer{limit: errorLogLimit}
	cmd.Stdout = stdoutWriter
	cmd.Stderr = errorLog
	if err := cmd.Start(); err != nil {
		_ = stdoutWriter.Close()
		return nil, fmt.Errorf("start %s: %w", s.opts.Binary, err)
	}

	proc := &Process{cmd: cmd, pid: cmd.Process.Pid}
	logger.Info("worker started",
		logging.Int("pid", proc.pid),
		logging.String("url", req.URL),
		logging.String("format", string(req.Format)),
		logging.String("output_dir", outputDir),
		logging.String(logging.FieldEventType, "worker_started"),
	)
	logger.Debug("worker command", logging.String("args", strings.Join(args, " ")))

	go s.monitor(ctx, logger, req, outputDir, cmd, stdout, stdoutWriter, errorLog, report)
	return proc, nil
}

func (s *Supervisor) monitor(ctx context.Context, logger *slog.Logger, req Request, outputDir string, cmd *exec.Cmd, stdout *io.PipeReader, stdoutWriter *io.PipeWriter, errorLog *tailBuffer, report func(Event)) {
	emit := func(ev Event) {
		if ctx.Err() != nil {
			return
		}
		report(ev)
	}

	var (
		tracker progressTracker
		waitErr error
	)

	var group errgroup.Group
	group.Go(func() error {
		return scanLines(stdout, func(line string) {
			percent, status, ok := ParseProgress(line)
			if !ok || !tracker.observe(percent) {
				return
			}
			emit(Event{JobID: req.JobID, Kind: EventProgress, Percent: percent, Status: status})
		})
	})
	group.Go(func() error {
		waitErr = cmd.Wait()
		return stdoutWriter.Close()
	})
	if err := group.Wait(); err != nil {
		logger.Debug("worker output read interrupted", logging.Error(err))
	}

	exitCode := 0
	var exitErr *exec.ExitError
	switch {
	case waitErr == nil:
	case errors.As(waitErr, &exitErr):
		exitCode = exitErr.ExitCode()
	case errors.Is(waitErr, exec.ErrWaitDelay):
		logger.Debug("worker output held open after exit", logging.Error(waitErr))
	default:
		exitCode = -1
		_, _ = fmt.Fprintln(errorLog, waitErr)
	}

	logger.Info("worker exited",
		logging.Int("exit_code", exitCode),
		logging.Float64("progress", tracker.last),
		logging.String(logging.FieldEventType, "worker_exited"),
	)

	emit(Event{
		JobID:     req.JobID,
		Kind:      EventExited,
		ExitCode:  exitCode,
		ErrorLog:  errorLog.String(),
		OutputDir: outputDir,
	})
}

func scanLines(r io.Reader, fn func(string)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), scanBufferSize)
	scanner.Split(splitLines)
	for scanner.Scan() {
		fn(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		// Drain so the process never blocks on a full pipe.
		_, _ = io.Copy(io.Discard, r)
		return err
	}
	return nil
}
