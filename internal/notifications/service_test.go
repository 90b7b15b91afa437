package notifications_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"mediaq/internal/config"
	"mediaq/internal/events"
	"mediaq/internal/notifications"
	"mediaq/internal/queue"
	"mediaq/internal/worker"
)

type capturedRequest struct {
	title    string
	tags     string
	priority string
	body     string
}

type ntfyRecorder struct {
	mu       sync.Mutex
	requests []capturedRequest
	status   int
}

func newNtfyServer(t *testing.T, status int) (*httptest.Server, *ntfyRecorder) {
	t.Helper()
	rec := &ntfyRecorder{status: status}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", r.Method)
		}
		body, _ := io.ReadAll(r.Body)
		rec.mu.Lock()
		rec.requests = append(rec.requests, capturedRequest{
			title:    r.Header.Get("Title"),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
			body:     string(body),
		})
		rec.mu.Unlock()
		w.WriteHeader(rec.status)
		_, _ = w.Write([]byte("topic rejected"))
	}))
	t.Cleanup(server.Close)
	return server, rec
}

func (r *ntfyRecorder) all() []capturedRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]capturedRequest(nil), r.requests...)
}

func configFor(url string) *config.Config {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = url
	cfg.Notifications.RequestTimeout = 5
	return &cfg
}

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyJobCompleted(context.Background(), "Song", "audio", "/music"); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		send           func(notifications.Service) error
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name: "completed audio",
			send: func(s notifications.Service) error {
				return s.NotifyJobCompleted(context.Background(), "Song", "audio", "/music/Mix")
			},
			expectTitle:   "mediaq - Download Complete",
			expectMessage: "✅ Downloaded: Song\nSaved to: /music/Mix",
			expectTags:    "mediaq,download,audio",
		},
		{
			name: "completed video without title",
			send: func(s notifications.Service) error {
				return s.NotifyJobCompleted(context.Background(), " ", "video", "")
			},
			expectTitle:   "mediaq - Download Complete",
			expectMessage: "✅ Downloaded: Unknown",
			expectTags:    "mediaq,download,video",
		},
		{
			name: "failed",
			send: func(s notifications.Service) error {
				return s.NotifyJobFailed(context.Background(), "Song", "ERROR: Video unavailable\n")
			},
			expectTitle:    "mediaq - Download Failed",
			expectMessage:  "❌ Download failed: Song\nERROR: Video unavailable",
			expectTags:     "mediaq,error,alert",
			expectPriority: "high",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server, rec := newNtfyServer(t, http.StatusOK)
			if err := tc.send(notifications.NewService(configFor(server.URL))); err != nil {
				t.Fatalf("notification returned error: %v", err)
			}
			got := rec.all()
			if len(got) != 1 {
				t.Fatalf("expected one request, got %d", len(got))
			}
			if got[0].title != tc.expectTitle {
				t.Fatalf("expected title %q, got %q", tc.expectTitle, got[0].title)
			}
			if got[0].body != tc.expectMessage {
				t.Fatalf("expected message %q, got %q", tc.expectMessage, got[0].body)
			}
			if got[0].tags != tc.expectTags {
				t.Fatalf("expected tags %q, got %q", tc.expectTags, got[0].tags)
			}
			if got[0].priority != tc.expectPriority {
				t.Fatalf("expected priority %q, got %q", tc.expectPriority, got[0].priority)
			}
		})
	}
}

func TestNtfyServiceReportsHTTPErrors(t *testing.T) {
	server, _ := newNtfyServer(t, http.StatusForbidden)
	svc := notifications.NewService(configFor(server.URL))

	err := svc.NotifyJobFailed(context.Background(), "Song", "boom")
	if err == nil || !strings.Contains(err.Error(), "403") {
		t.Fatalf("expected 403 error, got %v", err)
	}
}

func TestDispatchHonoursToggles(t *testing.T) {
	server, rec := newNtfyServer(t, http.StatusOK)
	cfg := configFor(server.URL)
	svc := notifications.NewService(cfg)
	ctx := context.Background()

	completed := events.Event{Type: events.JobCompleted, Payload: queue.CompletedEvent{Title: "Song", Format: worker.FormatAudio}}
	failed := events.Event{Type: events.JobError, Payload: queue.ErrorEvent{URL: "https://a", Error: "Process exited with code 1"}}
	progress := events.Event{Type: events.Progress, Payload: queue.ProgressEvent{JobID: "x", Progress: 50}}

	toggles := config.Notifications{Completed: false, Errors: true}
	for _, ev := range []events.Event{completed, failed, progress} {
		if err := notifications.Dispatch(ctx, svc, toggles, ev); err != nil {
			t.Fatalf("Dispatch %s: %v", ev.Type, err)
		}
	}

	got := rec.all()
	if len(got) != 1 {
		t.Fatalf("expected only the failure notification, got %d", len(got))
	}
	if !strings.Contains(got[0].body, "https://a") {
		t.Fatalf("expected URL fallback for missing title, got %q", got[0].body)
	}
}
