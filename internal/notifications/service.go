package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"mediaq/internal/config"
	"mediaq/internal/textutil"
)

const (
	userAgent       = "mediaq/0.1.0"
	maxDetailLength = 400
)

// Service defines the notification surface used by the daemon.
type Service interface {
	NotifyJobCompleted(ctx context.Context, title, format, path string) error
	NotifyJobFailed(ctx context.Context, title, detail string) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyJobCompleted(ctx context.Context, title, format, path string) error {
	title = displayTitle(title)
	message := fmt.Sprintf("✅ Downloaded: %s", title)
	if path = strings.TrimSpace(path); path != "" {
		message = fmt.Sprintf("%s\nSaved to: %s", message, path)
	}
	tag := "audio"
	if strings.TrimSpace(format) == "video" {
		tag = "video"
	}
	return n.send(ctx, payload{
		title:   "mediaq - Download Complete",
		message: message,
		tags:    []string{"mediaq", "download", tag},
	})
}

func (n *ntfyService) NotifyJobFailed(ctx context.Context, title, detail string) error {
	var builder strings.Builder
	builder.WriteString("❌ Download failed: ")
	builder.WriteString(displayTitle(title))
	if detail = strings.TrimSpace(detail); detail != "" {
		builder.WriteString("\n")
		builder.WriteString(textutil.Truncate(detail, maxDetailLength))
	}
	return n.send(ctx, payload{
		title:    "mediaq - Download Failed",
		message:  builder.String(),
		tags:     []string{"mediaq", "error", "alert"},
		priority: "high",
	})
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func displayTitle(title string) string {
	if title = strings.TrimSpace(title); title != "" {
		return title
	}
	return "Unknown"
}

type noopService struct{}

func (noopService) NotifyJobCompleted(context.Context, string, string, string) error { return nil }
func (noopService) NotifyJobFailed(context.Context, string, string) error            { return nil }
