package worker

import "errors"

// ErrNoBinary indicates the worker executable could not be resolved.
var ErrNoBinary = errors.New("worker binary not found")
