package watcher

import "errors"

// Common errors returned by the watcher.
var (
	// ErrWatcherClosed is returned when using a closed watcher.
	ErrWatcherClosed = errors.New("watcher is closed")

	// ErrAlreadyStarted is returned when Start is called on a
	// running watcher.
	ErrAlreadyStarted = errors.New("watcher already started")

	// ErrNotStarted is returned when Stop is called on a non-running
	// watcher.
	ErrNotStarted = errors.New("watcher not started")

	// ErrNoPath is returned when Start is called with an empty path.
	ErrNoPath = errors.New("no file path to watch")
)
