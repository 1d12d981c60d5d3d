package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/nrfhq/chatkeep/pkg/client"
	"github.com/nrfhq/chatkeep/pkg/store"
)

const timeLayout = "2006-01-02 15:04"

// tableFormatter formats output as tables.
type tableFormatter struct {
	config Config
}

// FormatSessions implements Formatter.FormatSessions.
func (f *tableFormatter) FormatSessions(w io.Writer, pinned, others []store.Session, activeID string) error {
	if len(pinned) > 0 {
		if err := writeHeader(w, "Pinned", f.config.Compact); err != nil {
			return err
		}
		if err := f.writeSessionTable(w, pinned, activeID); err != nil {
			return err
		}
	}

	if err := writeHeader(w, "Sessions", f.config.Compact); err != nil {
		return err
	}
	return f.writeSessionTable(w, others, activeID)
}

// FormatTranscript implements Formatter.FormatTranscript.
func (f *tableFormatter) FormatTranscript(w io.Writer, sess store.Session) error {
	if err := writeHeader(w, sess.Name, f.config.Compact); err != nil {
		return err
	}

	if len(sess.Messages) == 0 {
		_, err := fmt.Fprintln(w, store.EmptyPreview)
		return err
	}

	pins := pinnedSet(sess)

	for _, msg := range sess.Messages {
		label := senderLabel(msg.Sender)
		if pins[msg.ID] {
			label = "*" + label
		}

		prefix := fmt.Sprintf("%-5s ", label+":")
		if f.config.ShowTimestamps {
			prefix = fmt.Sprintf("[%s] %s", msg.Timestamp.Format(timeLayout), prefix)
		}

		width := f.config.Width - len(prefix)
		lines := wrapText(msg.Text, width)

		if _, err := fmt.Fprintf(w, "%s%s\n", prefix, lines[0]); err != nil {
			return err
		}
		indent := strings.Repeat(" ", len(prefix))
		for _, line := range lines[1:] {
			if _, err := fmt.Fprintf(w, "%s%s\n", indent, line); err != nil {
				return err
			}
		}
	}

	if !f.config.Compact {
		_, err := fmt.Fprintln(w)
		return err
	}
	return nil
}

// FormatRemoteSessions implements Formatter.FormatRemoteSessions.
func (f *tableFormatter) FormatRemoteSessions(w io.Writer, sessions []client.RemoteSession) error {
	if err := writeHeader(w, "Server Sessions", f.config.Compact); err != nil {
		return err
	}

	header := []string{"ID", "Name", "Preview"}
	if f.config.ShowTimestamps {
		header = append(header, "Created")
	}

	rows := make([][]string, len(sessions))
	for i, sess := range sessions {
		row := []string{sess.ID, sess.Name, sess.LastMessagePreview}
		if f.config.ShowTimestamps {
			created := ""
			if !sess.CreatedAt.IsZero() {
				created = sess.CreatedAt.Format(timeLayout)
			}
			row = append(row, created)
		}
		rows[i] = row
	}

	return f.writeTable(w, header, rows)
}

// writeSessionTable renders one group of local sessions.
func (f *tableFormatter) writeSessionTable(w io.Writer, sessions []store.Session, activeID string) error {
	header := []string{"", "Name", "Msgs", "Preview"}
	if f.config.ShowTimestamps {
		header = append(header, "Created")
	}

	rows := make([][]string, len(sessions))
	for i, sess := range sessions {
		marker := " "
		if sess.ID == activeID {
			marker = ">"
		}

		row := []string{
			marker,
			sess.Name,
			fmt.Sprintf("%d", len(sess.Messages)),
			sess.LastMessagePreview,
		}
		if f.config.ShowTimestamps {
			row = append(row, sess.CreatedAt.Format(timeLayout))
		}
		rows[i] = row
	}

	return f.writeTable(w, header, rows)
}

// writeTable writes a formatted table.
func (f *tableFormatter) writeTable(w io.Writer, header []string, rows [][]string) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No sessions")
		return err
	}

	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	if err := f.writeRow(w, header, widths); err != nil {
		return err
	}

	if !f.config.Compact {
		separator := make([]string, len(header))
		for i, width := range widths {
			separator[i] = strings.Repeat("-", width)
		}
		if err := f.writeRow(w, separator, widths); err != nil {
			return err
		}
	}

	for _, row := range rows {
		if err := f.writeRow(w, row, widths); err != nil {
			return err
		}
	}

	if !f.config.Compact {
		_, err := fmt.Fprintln(w)
		return err
	}
	return nil
}

// writeRow writes a single table row.
func (f *tableFormatter) writeRow(w io.Writer, cells []string, widths []int) error {
	for i, cell := range cells {
		if i > 0 {
			gap := "  "
			if f.config.Compact {
				gap = " "
			}
			if _, err := fmt.Fprint(w, gap); err != nil {
				return err
			}
		}

		format := fmt.Sprintf("%%-%ds", widths[i])
		if _, err := fmt.Fprintf(w, format, cell); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintln(w)
	return err
}
