// Package watcher provides live reload notifications for the config
// file.
//
// It uses fsnotify to watch the directory containing the file and
// filters for the file itself, which keeps working when editors
// replace the file through a rename. Rapid successive writes are
// debounced into a single event.
//
// Example usage:
//
//	w, err := watcher.New(watcher.Config{
//	    DebounceInterval: 100 * time.Millisecond,
//	}, logger.Default())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer w.Close()
//
//	if err := w.Start(ctx, config.DefaultConfigPath()); err != nil {
//	    log.Fatal(err)
//	}
//
//	for event := range w.Events() {
//	    fmt.Printf("config %s: %s\n", event.Path, event.Op)
//	}
package watcher

import (
	"context"
	"time"
)

// Op describes what happened to the watched file.
type Op uint32

// File operation types.
const (
	OpCreate Op = 1 << iota // File created
	OpWrite                 // File modified
	OpRemove                // File deleted
	OpRename                // File renamed/moved
)

// String returns a human-readable operation name.
func (op Op) String() string {
	switch op {
	case OpCreate:
		return "CREATE"
	case OpWrite:
		return "WRITE"
	case OpRemove:
		return "REMOVE"
	case OpRename:
		return "RENAME"
	default:
		return "UNKNOWN"
	}
}

// Event represents a change to the watched file.
type Event struct {
	// Path is the absolute path to the watched file.
	Path string

	// Op is the operation that triggered the event.
	Op Op

	// Timestamp is when the event occurred.
	Timestamp time.Time
}

// Watcher notifies about changes to a single file.
type Watcher interface {
	// Start begins watching the given file.
	//
	// The file's parent directory must exist; the file itself may
	// not, in which case the first event is its creation.
	Start(ctx context.Context, path string) error

	// Stop gracefully shuts down the watcher.
	Stop() error

	// Events returns the channel for receiving file events.
	//
	// Events are debounced based on the configured interval.
	// The channel is closed when the watcher is closed.
	Events() <-chan Event

	// Errors returns the channel for receiving watcher errors.
	//
	// Non-fatal errors are sent to this channel.
	Errors() <-chan error

	// Close closes the watcher and releases resources.
	Close() error
}

// Config contains watcher configuration.
type Config struct {
	// DebounceInterval is the time to wait before emitting an event.
	// Multiple events within this interval are coalesced.
	// Default: 100ms.
	DebounceInterval time.Duration
}
