package worker

import (
	"fmt"
	"strings"
)

// Format selects the worker's output mode.
type Format string

const (
	// FormatAudio extracts audio only at the best available quality (mp3).
	FormatAudio Format = "audio"
	// FormatVideo downloads an mp4 container with broadly compatible codecs.
	FormatVideo Format = "video"
)

// ParseFormat accepts audio, video, mp3, or mp4 (case-insensitive). An empty
// value selects audio.
func ParseFormat(raw string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "audio", "mp3":
		return FormatAudio, nil
	case "video", "mp4":
		return FormatVideo, nil
	default:
		return "", fmt.Errorf("unsupported format %q (expected audio or video)", raw)
	}
}

// Request carries everything needed to launch one worker.
type Request struct {
	JobID          string
	URL            string
	Title          string
	DestinationDir string
	GroupName      string
	Format         Format
}

// EventKind distinguishes worker lifecycle reports.
type EventKind int

const (
	// EventProgress reports a new, strictly higher download percentage.
	EventProgress EventKind = iota + 1
	// EventExited reports process termination. It is always the last event.
	EventExited
)

func (k EventKind) String() string {
	switch k {
	case EventProgress:
		return "progress"
	case EventExited:
		return "exited"
	default:
		return "unknown"
	}
}

// Event is reported by a running worker.
type Event struct {
	JobID string
	Kind  EventKind

	Percent float64
	Status  string

	ExitCode  int
	ErrorLog  string
	OutputDir string
}

// Succeeded reports whether an exit event represents a zero exit status.
func (e Event) Succeeded() bool {
	return e.Kind == EventExited && e.ExitCode == 0
}

// FailureText returns the error detail for a failed exit: the accumulated
// error log, or a generic exit code message when the log is empty.
func (e Event) FailureText() string {
	if text := strings.TrimSpace(e.ErrorLog); text != "" {
		return text
	}
	if e.ExitCode < 0 {
		return "Process terminated by signal"
	}
	return fmt.Sprintf("Process exited with code %d", e.ExitCode)
}

// Handle controls a running worker process.
type Handle interface {
	PID() int
	Kill() error
}
