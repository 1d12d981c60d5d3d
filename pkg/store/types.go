// Package store owns the conversation session collection.
//
// All mutation of sessions, messages, and pin state goes through the
// Store so that derived fields (last-message previews) and invariants
// (pin-count bound, id uniqueness) stay consistent. Every completed
// mutation is re-serialized to the configured Storage backend.
//
// Example usage:
//
//	st := store.Open(storage, logger.Default())
//
//	sess, _ := st.CreateSession("Conversation")
//	_ = st.AppendMessage(sess.ID, store.NewUserMessage("Hello"))
package store

import (
	"time"

	"github.com/nrfhq/chatkeep/pkg/ident"
)

// Derivation and pin-bound constants.
const (
	// PreviewLength is the maximum number of characters kept in a
	// session's last-message preview before truncation.
	PreviewLength = 40

	// PreviewEllipsis is appended to a preview when truncation occurred.
	PreviewEllipsis = "..."

	// MaxPinnedMessages bounds the per-session pinned-message list.
	MaxPinnedMessages = 3

	// EmptyPreview is the preview for a session with no messages.
	EmptyPreview = "No messages yet"
)

// Sender identifies the author of a message.
type Sender string

// Message senders.
const (
	// SenderUser marks a message typed by the user.
	SenderUser Sender = "user"

	// SenderAI marks a message produced by the AI backend.
	// Error and system notices are plain ai-sender messages.
	SenderAI Sender = "ai"
)

// Message is a single transcript entry. Messages are immutable once
// appended; their lifetime equals their session's lifetime.
type Message struct {
	// ID is the role-tagged unique message identifier.
	ID string `json:"id"`

	// Text is the message body, treated as opaque text.
	Text string `json:"text"`

	// Sender is the message author (user or ai).
	Sender Sender `json:"sender"`

	// Timestamp is the message creation time.
	Timestamp time.Time `json:"timestamp"`
}

// Session is a named, ordered conversation.
type Session struct {
	// ID is the unique session identifier, immutable after creation.
	ID string `json:"id"`

	// Name is the user-editable display name.
	Name string `json:"name"`

	// Messages is the chronological, append-only transcript.
	Messages []Message `json:"messages"`

	// PinnedMessageIDs holds up to MaxPinnedMessages message ids,
	// most recently pinned first. Referential integrity against
	// Messages is checked when resolving, not when pinning.
	PinnedMessageIDs []string `json:"pinnedMessageIds"`

	// CreatedAt is fixed at creation and is the sole sort key for
	// session ordering (descending, newest first).
	CreatedAt time.Time `json:"createdAt"`

	// IsPinned partitions sessions into the pinned display group.
	IsPinned bool `json:"isPinned"`

	// LastMessagePreview is derived from Messages and cached for
	// cheap list rendering. Never mutated independently.
	LastMessagePreview string `json:"lastMessagePreview"`
}

// NewUserMessage constructs a user-sent message with a fresh id
// and the current time.
func NewUserMessage(text string) Message {
	return Message{
		ID:        ident.NewUserMessageID(),
		Text:      text,
		Sender:    SenderUser,
		Timestamp: time.Now(),
	}
}

// NewAIMessage constructs an AI-sent message with a fresh id
// and the current time.
func NewAIMessage(text string) Message {
	return Message{
		ID:        ident.NewAIMessageID(),
		Text:      text,
		Sender:    SenderAI,
		Timestamp: time.Now(),
	}
}

// clone returns a deep copy so callers cannot alias store state.
func (s *Session) clone() Session {
	out := *s
	out.Messages = make([]Message, len(s.Messages))
	copy(out.Messages, s.Messages)
	out.PinnedMessageIDs = make([]string, len(s.PinnedMessageIDs))
	copy(out.PinnedMessageIDs, s.PinnedMessageIDs)
	return out
}
