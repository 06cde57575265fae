package synchronizer

import "errors"

// ErrClosed is returned by ingest methods once Close has completed.
var ErrClosed = errors.New("synchronizer: closed")

// ErrAlreadyStarted is returned by Start if called more than once.
var ErrAlreadyStarted = errors.New("synchronizer: already started")
