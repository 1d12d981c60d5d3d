// Package display provides output formatting for sessions and
// transcripts.
//
// It supports multiple output formats (table, JSON, simple text).
// Session listings show the pinned group before the rest; transcripts
// wrap message text to the configured width and mark pinned messages.
package display

import (
	"io"

	"github.com/nrfhq/chatkeep/pkg/client"
	"github.com/nrfhq/chatkeep/pkg/store"
)

// Format represents an output format.
type Format string

const (
	// FormatTable displays data in formatted tables.
	FormatTable Format = "table"

	// FormatJSON displays data as JSON.
	FormatJSON Format = "json"

	// FormatSimple displays data in simple text format.
	FormatSimple Format = "simple"
)

// Formatter formats and displays sessions and transcripts.
type Formatter interface {
	// FormatSessions formats the local session listing.
	//
	// pinned renders before others; activeID, when non-empty, marks
	// the active session.
	FormatSessions(w io.Writer, pinned, others []store.Session, activeID string) error

	// FormatTranscript formats a session's message history.
	//
	// Messages whose ids appear in the session's pinned list are
	// marked.
	FormatTranscript(w io.Writer, sess store.Session) error

	// FormatRemoteSessions formats the backend's session listing.
	FormatRemoteSessions(w io.Writer, sessions []client.RemoteSession) error
}

// Config contains formatter configuration.
type Config struct {
	// Format specifies the output format.
	// Default: FormatTable.
	Format Format

	// ShowTimestamps enables timestamp display.
	// Default: true.
	ShowTimestamps bool

	// Compact enables compact output (less whitespace).
	// Default: false.
	Compact bool

	// Width is the terminal width used to wrap transcript text.
	// Zero disables wrapping.
	Width int
}
