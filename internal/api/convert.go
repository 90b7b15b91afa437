package api

import (
	"time"

	"mediaq/internal/history"
)

// FromHistoryRecord converts a stored record to its API representation.
func FromHistoryRecord(rec history.Record) HistoryEntry {
	entry := HistoryEntry{
		ID:     rec.ID,
		JobID:  rec.JobID,
		URL:    rec.URL,
		Title:  rec.Title,
		Format: rec.Format,
		Status: string(rec.Status),
		Path:   rec.OutputPath,
		Error:  rec.Error,
	}
	if !rec.FinishedAt.IsZero() {
		entry.FinishedAt = FormatTime(rec.FinishedAt)
	}
	return entry
}

// FromHistoryRecords converts records, preserving order. The result is never
// nil so it encodes as an empty JSON array.
func FromHistoryRecords(records []history.Record) []HistoryEntry {
	out := make([]HistoryEntry, 0, len(records))
	for _, rec := range records {
		out = append(out, FromHistoryRecord(rec))
	}
	return out
}

// FormatTime renders t in the API timestamp format.
func FormatTime(t time.Time) string {
	return t.UTC().Format(dateTimeFormat)
}
