// Package client talks to the chat backend proxy.
//
// The backend is an opaque collaborator: a POST endpoint that relays a
// message plus bounded context history to a language model, and a
// session listing/deletion API in later backend revisions. Failures
// are turned into human-readable error descriptions suitable for
// showing directly in a transcript.
//
// Example usage:
//
//	c, err := client.New(client.Config{
//	    BaseURL: "https://chat.example.com",
//	}, logger.Default())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	resp, err := c.Send(ctx, client.SendRequest{
//	    Message: "Hello",
//	    History: history,
//	})
package client

import (
	"context"
	"time"
)

// Default strings for remote sessions with absent optional fields.
const (
	// DefaultRemoteName is used when a listed session has no name.
	DefaultRemoteName = "Untitled session"
)

// ContextMessage is one entry of the bounded context window sent with
// a message. Only sender and text are projected; no ids or timestamps
// leak to the collaborator.
type ContextMessage struct {
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

// SendRequest is the outbound payload for a chat message.
type SendRequest struct {
	// Message is the user's message text.
	Message string `json:"message"`

	// History is the bounded context window preceding the message.
	History []ContextMessage `json:"history"`

	// SessionID optionally names the server-side session.
	SessionID string `json:"sessionId,omitempty"`
}

// SendResponse is the backend's reply to a chat message.
type SendResponse struct {
	// Reply is the model's response text.
	Reply string `json:"reply"`

	// SessionID optionally echoes the server-side session id.
	SessionID string `json:"sessionId,omitempty"`

	// Timestamp is an optional server-side timestamp (ISO-8601).
	Timestamp string `json:"timestamp,omitempty"`
}

// RemoteSession is one entry of the backend's session listing.
type RemoteSession struct {
	// ID is the server-side session id.
	ID string `json:"id"`

	// Name is the display name; DefaultRemoteName when absent.
	Name string `json:"name,omitempty"`

	// CreatedAt is the server-side creation time.
	CreatedAt time.Time `json:"createdAt"`

	// UpdatedAt is the optional last-update time.
	UpdatedAt time.Time `json:"updatedAt,omitempty"`

	// LastMessagePreview is the optional preview; filled with the
	// no-messages placeholder when absent.
	LastMessagePreview string `json:"lastMessagePreview,omitempty"`

	// IsPinned is the optional pin flag.
	IsPinned bool `json:"isPinned,omitempty"`
}

// Client provides access to the chat backend.
type Client interface {
	// Send relays a message and its context window to the backend.
	//
	// Returns:
	//   - The backend's reply
	//   - An error whose message is a human-readable description
	//     suitable for a transcript entry
	Send(ctx context.Context, req SendRequest) (*SendResponse, error)

	// ListSessions fetches the backend's session listing.
	//
	// Absent optional fields are filled with placeholders.
	ListSessions(ctx context.Context) ([]RemoteSession, error)

	// DeleteSession removes a session server-side.
	//
	// Callers must refetch the listing afterwards; the client does
	// not assume the delete also updated any local cache.
	DeleteSession(ctx context.Context, id string) error
}

// Config contains client configuration.
type Config struct {
	// BaseURL is the backend base URL. Required.
	BaseURL string

	// Timeout is the per-request timeout (default: 30 seconds).
	Timeout time.Duration
}
