package chat

import "errors"

// Common errors returned by the chat manager.
var (
	// ErrEmptyMessage is returned when the trimmed input is empty.
	ErrEmptyMessage = errors.New("message cannot be empty")

	// ErrNoActiveSession is returned when a send is attempted with
	// no active session.
	ErrNoActiveSession = errors.New("no active session")

	// ErrSendInFlight is returned when a send is attempted while
	// another one is still outstanding.
	ErrSendInFlight = errors.New("a message send is already in flight")

	// ErrNoBackend is returned by remote operations when no backend
	// client is configured.
	ErrNoBackend = errors.New("backend is not configured")

	// ErrUnknownSession is returned when activating a session id
	// that is not in the store.
	ErrUnknownSession = errors.New("unknown session id")
)
