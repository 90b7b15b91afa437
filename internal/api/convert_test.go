package api

import (
	"encoding/json"
	"testing"
	"time"

	"mediaq/internal/history"
)

func TestFromHistoryRecord(t *testing.T) {
	finished := time.Date(2026, 5, 6, 7, 8, 9, 0, time.FixedZone("x", 3600))
	entry := FromHistoryRecord(history.Record{
		ID:         7,
		JobID:      "job",
		URL:        "https://a",
		Status:     history.StatusCompleted,
		OutputPath: "/music",
		FinishedAt: finished,
	})
	if entry.FinishedAt != "2026-05-06T06:08:09.000Z" {
		t.Fatalf("unexpected timestamp: %s", entry.FinishedAt)
	}
	if entry.Status != "completed" || entry.Path != "/music" {
		t.Fatalf("unexpected entry: %+v", entry)
	}
}

func TestFromHistoryRecordsEncodesEmptyArray(t *testing.T) {
	data, err := json.Marshal(HistoryResponse{Entries: FromHistoryRecords(nil)})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"entries":[]}` {
		t.Fatalf("unexpected json: %s", data)
	}
}
