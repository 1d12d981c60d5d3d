package client

import "errors"

// Common errors returned by the client.
var (
	// ErrMissingBaseURL is returned when no backend base URL is
	// configured. Fatal for any operation requiring the backend.
	ErrMissingBaseURL = errors.New("backend base URL is not configured")

	// ErrNoResponse is returned when no response reached the
	// backend (transport-level failure).
	ErrNoResponse = errors.New("no response from the server, check your connection")

	// ErrEndpointNotFound is returned when the chat endpoint itself
	// is missing on the backend (HTTP 404 on the chat route).
	ErrEndpointNotFound = errors.New("the chat endpoint was not found on the backend")

	// ErrEmptySessionID is returned when a session operation is
	// attempted without a session id.
	ErrEmptySessionID = errors.New("session id cannot be empty")
)
