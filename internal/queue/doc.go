// Package queue schedules download jobs onto external workers under a fixed
// concurrency cap.
//
// A Manager owns the waiting list, the active set, the pause flag, and the
// worker handle map. All mutations run on the single goroutine started by
// Run: public methods submit closures to that loop and worker reports arrive
// on a channel it multiplexes. Every mutation is followed by a full snapshot
// broadcast on the event bus, and admit is the only code path that moves a job
// from waiting to downloading.
//
// Cancelled jobs leave no record. Completed and failed jobs leave the active
// set once their terminal event is published; persistent history lives in the
// history package.
package queue
