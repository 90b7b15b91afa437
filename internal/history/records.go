package history

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Status is the terminal outcome of a job.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// DefaultListLimit caps List when the caller passes a non-positive limit.
const DefaultListLimit = 50

// Record is one finished job.
type Record struct {
	ID         int64
	JobID      string
	URL        string
	Title      string
	Format     string
	Status     Status
	OutputPath string
	Error      string
	FinishedAt time.Time
}

const recordColumns = "id, job_id, url, title, format, status, output_path, error_message, finished_at"

// Append stores rec and returns its row id. A zero FinishedAt is stamped with
// the current time.
func (s *Store) Append(ctx context.Context, rec Record) (int64, error) {
	if strings.TrimSpace(rec.JobID) == "" {
		return 0, fmt.Errorf("append history: job id is required")
	}
	if rec.Status != StatusCompleted && rec.Status != StatusFailed {
		return 0, fmt.Errorf("append history: unsupported status %q", rec.Status)
	}
	finished := rec.FinishedAt
	if finished.IsZero() {
		finished = time.Now()
	}

	res, err := s.execWithRetry(ctx,
		`INSERT INTO job_history (
            job_id, url, title, format, status, output_path, error_message, finished_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.JobID,
		rec.URL,
		nullableString(rec.Title),
		nullableString(rec.Format),
		string(rec.Status),
		nullableString(rec.OutputPath),
		nullableString(rec.Error),
		finished.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("insert history record: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// List returns up to limit records, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Record, error) {
	ctx = ensureContext(ctx)
	if limit <= 0 {
		limit = DefaultListLimit
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+recordColumns+" FROM job_history ORDER BY finished_at DESC, id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return records, nil
}

// Counts returns the number of records per status.
func (s *Store) Counts(ctx context.Context) (map[Status]int, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, "SELECT status, COUNT(1) FROM job_history GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("count history: %w", err)
	}
	defer rows.Close()

	counts := make(map[Status]int)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan history count: %w", err)
		}
		counts[Status(status)] = n
	}
	return counts, rows.Err()
}

func scanRecord(scanner interface{ Scan(dest ...any) error }) (Record, error) {
	var (
		rec         Record
		status      string
		title       sql.NullString
		format      sql.NullString
		outputPath  sql.NullString
		errorText   sql.NullString
		finishedRaw string
	)
	if err := scanner.Scan(
		&rec.ID,
		&rec.JobID,
		&rec.URL,
		&title,
		&format,
		&status,
		&outputPath,
		&errorText,
		&finishedRaw,
	); err != nil {
		return Record{}, err
	}
	rec.Status = Status(status)
	rec.Title = title.String
	rec.Format = format.String
	rec.OutputPath = outputPath.String
	rec.Error = errorText.String
	if ts, err := time.Parse(time.RFC3339Nano, finishedRaw); err == nil {
		rec.FinishedAt = ts
	}
	return rec, nil
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}
