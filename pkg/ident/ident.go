// Package ident generates identifiers for sessions and messages.
//
// Session ids are prefixed with "session-", message ids with the sender
// role ("user-" or "ai-"). The role prefix makes transcript ids
// self-describing; uniqueness comes from the UUID v4 suffix.
package ident

import (
	"strings"

	"github.com/google/uuid"
)

// Prefixes applied to generated identifiers.
const (
	SessionPrefix = "session-"
	UserPrefix    = "user-"
	AIPrefix      = "ai-"
)

// NewSessionID returns a new unique session identifier.
func NewSessionID() string {
	return SessionPrefix + uuid.NewString()
}

// NewUserMessageID returns a new unique id for a user-sent message.
func NewUserMessageID() string {
	return UserPrefix + uuid.NewString()
}

// NewAIMessageID returns a new unique id for an AI-sent message.
func NewAIMessageID() string {
	return AIPrefix + uuid.NewString()
}

// IsSessionID reports whether id carries the session prefix.
func IsSessionID(id string) bool {
	return strings.HasPrefix(id, SessionPrefix) && len(id) > len(SessionPrefix)
}
