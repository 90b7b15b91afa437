// Package api is the submission façade and wire-format layer between HTTP
// callers and the queue manager.
//
// # Key Types
//
// Service: validates and normalizes add requests into queue.Submission
// values, maps control verbs (pause, resume, cancel_all) to manager calls,
// and runs metadata probes.
//
// AddRequest/AddResponse, ActionRequest/ActionResponse: request and response
// bodies for /api/queue/add and /api/queue/action.
//
// DaemonStatus, HistoryEntry: read-only views for /api/status and
// /api/history.
//
// # Validation
//
// Validation failures are reported with the sentinels in errors.go so the
// HTTP layer can answer 400 without string matching. Everything else is a
// server error. URLs are only checked for presence; interpreting them is the
// worker's job.
//
// # Design Notes
//
// DTOs use camelCase JSON tags for browser consumers. Queue snapshots are
// passed through unchanged because queue.Job already carries its wire tags.
// Timestamps use RFC3339 with milliseconds.
package api
