// Package history keeps a durable record of terminal job outcomes.
//
// The queue itself is in-memory and forgets a job the moment it leaves the
// active set. The daemon subscribes a Recorder to the event bus so every
// jobCompleted and jobError event lands in a small SQLite database
// (modernc.org/sqlite, no cgo) that the CLI and HTTP API can list newest
// first.
//
// The schema is versioned the same way as any other local store: a mismatch
// fails Open with ErrSchemaMismatch and the operator deletes the file.
package history
