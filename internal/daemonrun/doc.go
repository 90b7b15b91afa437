// Package daemonrun assembles the daemon process: per-run log files, the
// dependency snapshot, the history store, the worker supervisor, the queue
// manager and the HTTP API. Both mediaqd and "mediaq daemon" call Run.
package daemonrun
