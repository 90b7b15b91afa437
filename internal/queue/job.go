package queue

import (
	"time"

	"mediaq/internal/worker"
)

// Status represents the lifecycle of a job.
type Status string

const (
	StatusWaiting     Status = "waiting"
	StatusDownloading Status = "downloading"
	StatusCompleted   Status = "completed"
	StatusFailed      Status = "failed"
)

// Item is a single retrieval target supplied by a caller.
type Item struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// Submission is a validated batch of items sharing destination settings.
type Submission struct {
	Items          []Item
	DestinationDir string
	GroupName      string
	Format         worker.Format
}

// Job is one scheduled download.
type Job struct {
	ID             string        `json:"id"`
	URL            string        `json:"url"`
	Title          string        `json:"title"`
	DestinationDir string        `json:"downloadPath,omitempty"`
	GroupName      string        `json:"playlistTitle,omitempty"`
	Format         worker.Format `json:"format"`
	Status         Status        `json:"status"`
	Progress       float64       `json:"progress"`
	StatusText     string        `json:"statusText,omitempty"`
	CreatedAt      time.Time     `json:"addedAt"`
	StartedAt      time.Time     `json:"startedAt,omitzero"`
	ErrorLog       string        `json:"-"`
}

// DisplayTitle returns the title, falling back to the URL.
func (j Job) DisplayTitle() string {
	if j.Title != "" {
		return j.Title
	}
	return j.URL
}

func (j *Job) request() worker.Request {
	return worker.Request{
		JobID:          j.ID,
		URL:            j.URL,
		Title:          j.Title,
		DestinationDir: j.DestinationDir,
		GroupName:      j.GroupName,
		Format:         j.Format,
	}
}

// Snapshot is the full queue view broadcast after every mutation.
type Snapshot struct {
	Active  []Job `json:"active"`
	Waiting []Job `json:"waiting"`
	Paused  bool  `json:"isPaused"`
}

// ProgressEvent is the payload of a progress event.
type ProgressEvent struct {
	JobID    string  `json:"jobId"`
	Progress float64 `json:"progress"`
	Status   string  `json:"status,omitempty"`
}

// CompletedEvent is the payload of a jobCompleted event.
type CompletedEvent struct {
	JobID    string        `json:"jobId"`
	Status   Status        `json:"status"`
	URL      string        `json:"url"`
	Title    string        `json:"title"`
	Format   worker.Format `json:"format"`
	Path     string        `json:"path"`
	Progress float64       `json:"progress"`
}

// ErrorEvent is the payload of a jobError event.
type ErrorEvent struct {
	JobID  string        `json:"jobId"`
	URL    string        `json:"url"`
	Title  string        `json:"title"`
	Format worker.Format `json:"format"`
	Error  string        `json:"error"`
}

// Stats counts terminal outcomes since the manager started.
type Stats struct {
	Completed     int `json:"completed"`
	Failed        int `json:"failed"`
	SpawnFailures int `json:"spawnFailures"`
	Cancelled     int `json:"cancelled"`
}
