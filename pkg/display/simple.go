package display

import (
	"fmt"
	"io"

	"github.com/nrfhq/chatkeep/pkg/client"
	"github.com/nrfhq/chatkeep/pkg/store"
)

// simpleFormatter formats output as simple text.
type simpleFormatter struct {
	config Config
}

// FormatSessions implements Formatter.FormatSessions.
func (f *simpleFormatter) FormatSessions(w io.Writer, pinned, others []store.Session, activeID string) error {
	for _, sess := range pinned {
		if err := f.writeSessionLine(w, sess, activeID, true); err != nil {
			return err
		}
	}
	for _, sess := range others {
		if err := f.writeSessionLine(w, sess, activeID, false); err != nil {
			return err
		}
	}
	return nil
}

// FormatTranscript implements Formatter.FormatTranscript.
func (f *simpleFormatter) FormatTranscript(w io.Writer, sess store.Session) error {
	pins := pinnedSet(sess)

	for _, msg := range sess.Messages {
		label := senderLabel(msg.Sender)
		if pins[msg.ID] {
			label = "*" + label
		}
		if _, err := fmt.Fprintf(w, "%s: %s\n", label, msg.Text); err != nil {
			return err
		}
	}
	return nil
}

// FormatRemoteSessions implements Formatter.FormatRemoteSessions.
func (f *simpleFormatter) FormatRemoteSessions(w io.Writer, sessions []client.RemoteSession) error {
	for _, sess := range sessions {
		if _, err := fmt.Fprintf(w, "%s: %s (%s)\n",
			sess.ID, sess.Name, sess.LastMessagePreview); err != nil {
			return err
		}
	}
	return nil
}

// writeSessionLine renders one session as a single line.
func (f *simpleFormatter) writeSessionLine(w io.Writer, sess store.Session, activeID string, pinned bool) error {
	marker := " "
	if sess.ID == activeID {
		marker = ">"
	}
	pin := " "
	if pinned {
		pin = "*"
	}

	_, err := fmt.Fprintf(w, "%s%s %s (%d messages) %s\n",
		marker, pin, sess.Name, len(sess.Messages), sess.LastMessagePreview)
	return err
}
