package queue

import "errors"

// ErrStopped is returned by Manager methods when the scheduling loop is not
// running.
var ErrStopped = errors.New("queue manager stopped")

// ErrAlreadyRunning is returned when Run is called twice.
var ErrAlreadyRunning = errors.New("queue manager already running")
