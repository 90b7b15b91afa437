package api

import (
	"mediaq/internal/deps"
	"mediaq/internal/queue"
)

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Control verbs accepted by /api/queue/action.
const (
	ActionPause     = "pause"
	ActionResume    = "resume"
	ActionCancelAll = "cancel_all"
)

// AddItem is one URL in an add request.
type AddItem struct {
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
}

// AddRequest is the body of POST /api/queue/add. Either Items or the single
// URL/Title pair must be set.
type AddRequest struct {
	Items         []AddItem `json:"items,omitempty"`
	URL           string    `json:"url,omitempty"`
	Title         string    `json:"title,omitempty"`
	DownloadPath  string    `json:"downloadPath,omitempty"`
	PlaylistTitle string    `json:"playlistTitle,omitempty"`
	Format        string    `json:"format,omitempty"`
}

// AddResponse reports how many jobs were accepted.
type AddResponse struct {
	Success bool     `json:"success"`
	Count   int      `json:"count"`
	JobIDs  []string `json:"jobIds,omitempty"`
}

// ActionRequest is the body of POST /api/queue/action.
type ActionRequest struct {
	Action string `json:"action"`
}

// ActionResponse returns the queue state after a control verb.
type ActionResponse struct {
	Success bool           `json:"success"`
	State   queue.Snapshot `json:"state"`
}

// InfoRequest is the body of POST /api/info.
type InfoRequest struct {
	URL string `json:"url"`
}

// JobResponse wraps a single queue entry.
type JobResponse struct {
	Job queue.Job `json:"job"`
}

// ErrorResponse is returned with every non-2xx status.
type ErrorResponse struct {
	Error string `json:"error"`
}

// QueueCounts summarizes the live queue.
type QueueCounts struct {
	Active      int  `json:"active"`
	Waiting     int  `json:"waiting"`
	Paused      bool `json:"paused"`
	Concurrency int  `json:"concurrency"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool          `json:"running"`
	PID          int           `json:"pid"`
	RunID        string        `json:"runId,omitempty"`
	StartedAt    string        `json:"startedAt,omitempty"`
	LockFilePath string        `json:"lockFilePath"`
	LogPath      string        `json:"logPath,omitempty"`
	HistoryPath  string        `json:"historyPath,omitempty"`
	DownloadDir  string        `json:"downloadDir"`
	FreeBytes    uint64        `json:"freeBytes,omitempty"`
	Queue        QueueCounts   `json:"queue"`
	Stats        queue.Stats   `json:"stats"`
	Subscribers  int           `json:"subscribers"`
	Dependencies []deps.Status `json:"dependencies"`
}

// HistoryEntry is one finished job.
type HistoryEntry struct {
	ID         int64  `json:"id"`
	JobID      string `json:"jobId"`
	URL        string `json:"url"`
	Title      string `json:"title,omitempty"`
	Format     string `json:"format,omitempty"`
	Status     string `json:"status"`
	Path       string `json:"path,omitempty"`
	Error      string `json:"error,omitempty"`
	FinishedAt string `json:"finishedAt,omitempty"`
}

// HistoryResponse wraps a page of history entries.
type HistoryResponse struct {
	Entries []HistoryEntry `json:"entries"`
}
