package frame

import "errors"

// ErrLoopRunning is returned by Run when the loop is already being driven.
var ErrLoopRunning = errors.New("frame: loop already running")
