// Package daemon coordinates the long-running mediaq process.
//
// It owns the queue manager loop, the event bus consumers that persist
// history and send notifications, and the HTTP API, tying them to a single
// lifecycle guarded by a flock so only one daemon runs per log directory.
//
// The HTTP surface is deliberately thin: handlers decode JSON, call the
// api.Service façade or the manager, and encode the result. The event stream
// at /api/events is Server-Sent Events fed directly from a bus subscriber.
package daemon
