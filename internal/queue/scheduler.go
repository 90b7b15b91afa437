package queue

import (
	"mediaq/internal/events"
	"mediaq/internal/logging"
	"mediaq/internal/worker"
)

const spawnFailurePrefix = "Critical Error: Could not start download process. \n"

func (m *Manager) enqueue(sub Submission) []Job {
	created := make([]Job, 0, len(sub.Items))
	now := m.now()
	for _, item := range sub.Items {
		job := &Job{
			ID:             m.newID(),
			URL:            item.URL,
			Title:          item.Title,
			DestinationDir: sub.DestinationDir,
			GroupName:      sub.GroupName,
			Format:         sub.Format,
			Status:         StatusWaiting,
			CreatedAt:      now,
		}
		m.waiting = append(m.waiting, job)
		created = append(created, *job)
	}
	m.logger.Info("jobs enqueued",
		logging.Int("count", len(created)),
		logging.Int("waiting", len(m.waiting)),
		logging.String("group", sub.GroupName),
		logging.String(logging.FieldEventType, "jobs_enqueued"),
	)
	m.broadcast()
	m.admit()
	return created
}

// admit is the only path from waiting to downloading.
func (m *Manager) admit() {
	for !m.paused && len(m.active) < m.concurrency && len(m.waiting) > 0 {
		job := m.waiting[0]
		m.waiting[0] = nil
		m.waiting = m.waiting[1:]

		job.Status = StatusDownloading
		job.Progress = 0
		job.StartedAt = m.now()
		m.active = append(m.active, job)
		m.broadcast()
		m.start(job)
	}
}

func (m *Manager) start(job *Job) {
	logger := m.logger.With(logging.JobID(job.ID))
	if m.spawner == nil {
		m.spawnFailed(job, worker.ErrNoBinary)
		return
	}
	handle, err := m.spawner.Spawn(m.runCtx, job.request(), m.report)
	if err != nil {
		m.spawnFailed(job, err)
		return
	}
	m.handles[job.ID] = handle
	logger.Info("job admitted",
		logging.String("title", job.DisplayTitle()),
		logging.Int("active", len(m.active)),
		logging.String(logging.FieldEventType, "job_admitted"),
	)
}

func (m *Manager) spawnFailed(job *Job, err error) {
	logging.ErrorWithContext(m.logger, "worker failed to start", "worker_spawn_failed",
		logging.JobID(job.ID),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check worker.binary / worker.bin_dir and run 'mediaq status'"),
	)
	m.removeActive(job.ID)
	job.Status = StatusFailed
	job.ErrorLog = err.Error()
	m.stats.SpawnFailures++
	m.bus.Publish(events.JobError, ErrorEvent{
		JobID:  job.ID,
		URL:    job.URL,
		Title:  job.Title,
		Format: job.Format,
		Error:  spawnFailurePrefix + err.Error(),
	})
	m.broadcast()
}

func (m *Manager) handleWorkerEvent(ev worker.Event) {
	if _, ok := m.handles[ev.JobID]; !ok {
		// Handle already removed by CancelAll or a prior exit.
		m.logger.Debug("stale worker event ignored",
			logging.JobID(ev.JobID),
			logging.String("kind", ev.Kind.String()),
		)
		return
	}
	job := m.findActive(ev.JobID)
	if job == nil {
		delete(m.handles, ev.JobID)
		return
	}

	switch ev.Kind {
	case worker.EventProgress:
		if ev.Percent <= job.Progress {
			return
		}
		job.Progress = ev.Percent
		job.StatusText = ev.Status
		m.bus.Publish(events.Progress, ProgressEvent{JobID: job.ID, Progress: ev.Percent, Status: ev.Status})
	case worker.EventExited:
		delete(m.handles, job.ID)
		m.removeActive(job.ID)
		logger := m.logger.With(logging.JobID(job.ID))
		if ev.Succeeded() {
			job.Status = StatusCompleted
			job.Progress = 100
			m.stats.Completed++
			logger.Info("job completed",
				logging.String("title", job.DisplayTitle()),
				logging.String("path", ev.OutputDir),
				logging.String(logging.FieldEventType, "job_completed"),
			)
			title := job.Title
			if title == "" {
				title = "Unknown"
			}
			m.bus.Publish(events.JobCompleted, CompletedEvent{
				JobID:    job.ID,
				Status:   StatusCompleted,
				URL:      job.URL,
				Title:    title,
				Format:   job.Format,
				Path:     ev.OutputDir,
				Progress: job.Progress,
			})
		} else {
			job.Status = StatusFailed
			job.ErrorLog = ev.ErrorLog
			m.stats.Failed++
			text := ev.FailureText()
			logging.WarnWithContext(logger, "job failed", "job_failed",
				logging.Int("exit_code", ev.ExitCode),
				logging.String("title", job.DisplayTitle()),
				logging.String("detail", lastLine(text)),
				logging.String(logging.FieldErrorHint, "inspect the job error text; the worker is not retried"),
				logging.String(logging.FieldImpact, "download skipped"),
			)
			m.bus.Publish(events.JobError, ErrorEvent{
				JobID:  job.ID,
				URL:    job.URL,
				Title:  job.Title,
				Format: job.Format,
				Error:  text,
			})
		}
		m.broadcast()
		m.admit()
	}
}

func (m *Manager) cancelAll() {
	m.paused = true
	dropped := len(m.waiting)
	for i := range m.waiting {
		m.waiting[i] = nil
	}
	m.waiting = nil

	killed := 0
	for _, job := range m.active {
		handle, ok := m.handles[job.ID]
		if !ok {
			continue
		}
		delete(m.handles, job.ID)
		killed++
		if err := handle.Kill(); err != nil {
			logging.WarnWithContext(m.logger, "worker termination failed", "worker_kill_failed",
				logging.JobID(job.ID),
				logging.Int("pid", handle.PID()),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "the process may need to be stopped manually"),
				logging.String(logging.FieldImpact, "worker may keep running after cancel"),
			)
		}
	}
	m.active = nil
	m.stats.Cancelled += dropped + killed

	m.logger.Info("queue cancelled",
		logging.Int("dropped_waiting", dropped),
		logging.Int("terminated", killed),
		logging.Duration("grace", m.grace),
		logging.String(logging.FieldEventType, "queue_cancelled"),
	)
	m.broadcast()

	if m.grace <= 0 {
		m.finishCancel()
		return
	}
	m.graceC = m.after(m.grace)
}

// finishCancel ends the post-cancel pause. Jobs enqueued during the grace
// period are admitted here.
func (m *Manager) finishCancel() {
	m.graceC = nil
	m.paused = false
	m.broadcast()
	m.admit()
}

func (m *Manager) broadcast() {
	m.bus.Publish(events.QueueUpdate, m.snapshot())
}

func (m *Manager) snapshot() Snapshot {
	snap := Snapshot{
		Active:  make([]Job, len(m.active)),
		Waiting: make([]Job, len(m.waiting)),
		Paused:  m.paused,
	}
	for i, job := range m.active {
		snap.Active[i] = *job
	}
	for i, job := range m.waiting {
		snap.Waiting[i] = *job
	}
	return snap
}

func (m *Manager) findActive(id string) *Job {
	for _, job := range m.active {
		if job.ID == id {
			return job
		}
	}
	return nil
}

func (m *Manager) removeActive(id string) {
	for i, job := range m.active {
		if job.ID == id {
			copy(m.active[i:], m.active[i+1:])
			m.active[len(m.active)-1] = nil
			m.active = m.active[:len(m.active)-1]
			return
		}
	}
}

func lastLine(text string) string {
	for i := len(text) - 1; i >= 0; i-- {
		if text[i] == '\n' && i < len(text)-1 {
			return text[i+1:]
		}
	}
	return text
}
