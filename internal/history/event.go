package history

import (
	"time"

	"mediaq/internal/events"
	"mediaq/internal/queue"
)

// RecordFromEvent converts a jobCompleted or jobError event into a Record.
// Other event types report false.
func RecordFromEvent(ev events.Event, finishedAt time.Time) (Record, bool) {
	switch payload := ev.Payload.(type) {
	case queue.CompletedEvent:
		return Record{
			JobID:      payload.JobID,
			URL:        payload.URL,
			Title:      payload.Title,
			Format:     string(payload.Format),
			Status:     StatusCompleted,
			OutputPath: payload.Path,
			FinishedAt: finishedAt,
		}, true
	case queue.ErrorEvent:
		return Record{
			JobID:      payload.JobID,
			URL:        payload.URL,
			Title:      payload.Title,
			Format:     string(payload.Format),
			Status:     StatusFailed,
			Error:      payload.Error,
			FinishedAt: finishedAt,
		}, true
	default:
		return Record{}, false
	}
}
