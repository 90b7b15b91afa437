package notifications

import (
	"context"

	"mediaq/internal/config"
	"mediaq/internal/events"
	"mediaq/internal/queue"
)

// Dispatch sends the notification for ev, if any. Outcomes switched off in
// cfg and event types without a notification are ignored.
func Dispatch(ctx context.Context, svc Service, cfg config.Notifications, ev events.Event) error {
	if svc == nil {
		return nil
	}
	switch payload := ev.Payload.(type) {
	case queue.CompletedEvent:
		if !cfg.Completed {
			return nil
		}
		return svc.NotifyJobCompleted(ctx, payload.Title, string(payload.Format), payload.Path)
	case queue.ErrorEvent:
		if !cfg.Errors {
			return nil
		}
		title := payload.Title
		if title == "" {
			title = payload.URL
		}
		return svc.NotifyJobFailed(ctx, title, payload.Error)
	}
	return nil
}
