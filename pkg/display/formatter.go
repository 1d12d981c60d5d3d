package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/nrfhq/chatkeep/pkg/store"
)

// New creates a new formatter based on configuration.
func New(cfg Config) Formatter {
	if cfg.Format == "" {
		cfg.Format = FormatTable
	}

	switch cfg.Format {
	case FormatJSON:
		return &jsonFormatter{config: cfg}
	case FormatSimple:
		return &simpleFormatter{config: cfg}
	case FormatTable:
		fallthrough
	default:
		return &tableFormatter{config: cfg}
	}
}

// senderLabel maps a message sender to its display label.
func senderLabel(sender store.Sender) string {
	switch sender {
	case store.SenderUser:
		return "you"
	case store.SenderAI:
		return "ai"
	default:
		return string(sender)
	}
}

// pinnedSet builds a lookup of the session's pinned message ids.
func pinnedSet(sess store.Session) map[string]bool {
	set := make(map[string]bool, len(sess.PinnedMessageIDs))
	for _, id := range sess.PinnedMessageIDs {
		set[id] = true
	}
	return set
}

// wrapText wraps text to the given width, preserving words.
// Width <= 0 disables wrapping.
func wrapText(text string, width int) []string {
	if width <= 0 {
		return []string{text}
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}

	lines := make([]string, 0, 1)
	current := words[0]
	for _, word := range words[1:] {
		if len(current)+1+len(word) > width {
			lines = append(lines, current)
			current = word
			continue
		}
		current += " " + word
	}
	lines = append(lines, current)

	return lines
}

// writeHeader writes a section header.
func writeHeader(w io.Writer, title string, compact bool) error {
	if compact {
		_, err := fmt.Fprintf(w, "%s\n", title)
		return err
	}

	_, err := fmt.Fprintf(w, "\n%s\n%s\n\n", title, strings.Repeat("=", len(title)))
	return err
}
