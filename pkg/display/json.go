package display

import (
	"encoding/json"
	"io"

	"github.com/nrfhq/chatkeep/pkg/client"
	"github.com/nrfhq/chatkeep/pkg/store"
)

// jsonFormatter formats output as JSON.
type jsonFormatter struct {
	config Config
}

// sessionListing is the JSON shape of the local session listing.
type sessionListing struct {
	ActiveID string          `json:"activeId,omitempty"`
	Pinned   []store.Session `json:"pinned"`
	Sessions []store.Session `json:"sessions"`
}

// FormatSessions implements Formatter.FormatSessions.
func (f *jsonFormatter) FormatSessions(w io.Writer, pinned, others []store.Session, activeID string) error {
	return f.encode(w, sessionListing{
		ActiveID: activeID,
		Pinned:   pinned,
		Sessions: others,
	})
}

// FormatTranscript implements Formatter.FormatTranscript.
func (f *jsonFormatter) FormatTranscript(w io.Writer, sess store.Session) error {
	return f.encode(w, sess)
}

// FormatRemoteSessions implements Formatter.FormatRemoteSessions.
func (f *jsonFormatter) FormatRemoteSessions(w io.Writer, sessions []client.RemoteSession) error {
	return f.encode(w, sessions)
}

func (f *jsonFormatter) encode(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	if !f.config.Compact {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(v)
}
