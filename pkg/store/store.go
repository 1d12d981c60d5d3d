package store

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/nrfhq/chatkeep/pkg/ident"
	"github.com/nrfhq/chatkeep/pkg/logger"
)

// Store is the sole owner of the in-memory session collection and its
// durable persistence.
//
// Mutations are applied atomically in caller order under an internal
// lock; every completed mutation re-serializes the full collection to
// the Storage backend. A persistence failure is reported as ErrPersist
// while the in-memory mutation stands.
type Store struct {
	mu       sync.RWMutex
	sessions []*Session
	storage  Storage
	logger   logger.Logger
}

// Open creates a Store backed by the given Storage, restoring any
// previously persisted session collection.
//
// Missing stored data yields an empty collection. Stored data that
// cannot be read or parsed is logged and discarded, never surfaced
// as an error: the store always opens.
func Open(storage Storage, log logger.Logger) *Store {
	st := &Store{
		storage: storage,
		logger:  log,
	}

	data, err := storage.LoadSessions()
	if err != nil {
		log.Warn("failed to read stored sessions, starting empty", "error", err)
		return st
	}
	if data == nil {
		log.Debug("no stored sessions found")
		return st
	}

	var loaded []*Session
	if err := json.Unmarshal(data, &loaded); err != nil {
		log.Warn("stored sessions are corrupt, starting empty", "error", err)
		return st
	}

	for _, sess := range loaded {
		normalize(sess)
	}
	st.sessions = loaded

	log.Info("sessions restored", "count", len(loaded))
	return st
}

// normalize fills defaults for fields absent in older stored data and
// recomputes derived fields rather than trusting them from storage.
func normalize(sess *Session) {
	if sess.Messages == nil {
		sess.Messages = []Message{}
	}
	if sess.PinnedMessageIDs == nil {
		sess.PinnedMessageIDs = []string{}
	}
	if len(sess.PinnedMessageIDs) > MaxPinnedMessages {
		sess.PinnedMessageIDs = sess.PinnedMessageIDs[:MaxPinnedMessages]
	}
	sess.LastMessagePreview = previewOf(sess.Messages)
}

// previewOf derives the last-message preview: the first PreviewLength
// characters of the most recent message's text, with an ellipsis when
// truncated, or EmptyPreview for an empty transcript.
func previewOf(messages []Message) string {
	if len(messages) == 0 {
		return EmptyPreview
	}

	text := messages[len(messages)-1].Text
	runes := []rune(text)
	if len(runes) <= PreviewLength {
		return text
	}

	return string(runes[:PreviewLength]) + PreviewEllipsis
}

// CreateSession creates a new empty session named "{baseName} {n}"
// where n is the current session count plus one, and persists the
// collection.
//
// The returned session is a copy; the caller is responsible for
// marking it active.
func (s *Store) CreateSession(baseName string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := &Session{
		ID:                 ident.NewSessionID(),
		Name:               fmt.Sprintf("%s %d", baseName, len(s.sessions)+1),
		Messages:           []Message{},
		PinnedMessageIDs:   []string{},
		CreatedAt:          time.Now(),
		IsPinned:           false,
		LastMessagePreview: EmptyPreview,
	}
	s.sessions = append(s.sessions, sess)

	s.logger.Info("session created", "session_id", sess.ID, "name", sess.Name)

	return sess.clone(), s.persist()
}

// DeleteSession removes the session with the given id and persists
// the collection. A missing id is a silent no-op.
func (s *Store) DeleteSession(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, sess := range s.sessions {
		if sess.ID == id {
			s.sessions = append(s.sessions[:i], s.sessions[i+1:]...)
			s.logger.Info("session deleted", "session_id", id)
			return s.persist()
		}
	}

	return nil
}

// RenameSession replaces the session's name with the trimmed new
// name. A blank or whitespace-only name, or a missing id, is a no-op.
func (s *Store) RenameSession(id, newName string) error {
	trimmed := strings.TrimSpace(newName)
	if trimmed == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.find(id)
	if sess == nil {
		return nil
	}

	sess.Name = trimmed
	return s.persist()
}

// TogglePinSession flips the session's pinned flag. A missing id is
// a no-op.
func (s *Store) TogglePinSession(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.find(id)
	if sess == nil {
		return nil
	}

	sess.IsPinned = !sess.IsPinned
	return s.persist()
}

// AppendMessage appends the message to the session's transcript and
// recomputes the last-message preview.
//
// A missing session id drops the message: the caller is expected to
// validate the session exists before constructing messages for it.
func (s *Store) AppendMessage(id string, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.find(id)
	if sess == nil {
		s.logger.Warn("append to unknown session, message dropped",
			"session_id", id,
			"message_id", msg.ID)
		return nil
	}

	sess.Messages = append(sess.Messages, msg)
	sess.LastMessagePreview = previewOf(sess.Messages)

	return s.persist()
}

// PinMessage moves the message id to the front of the session's
// pinned list, deduplicating and truncating to MaxPinnedMessages.
// A missing session id is a no-op. The message id is not checked
// against the transcript here; dangling ids are filtered when
// resolving pinned messages.
func (s *Store) PinMessage(id, messageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.find(id)
	if sess == nil {
		return nil
	}

	pinned := make([]string, 0, MaxPinnedMessages)
	pinned = append(pinned, messageID)
	for _, existing := range sess.PinnedMessageIDs {
		if existing != messageID {
			pinned = append(pinned, existing)
		}
	}
	if len(pinned) > MaxPinnedMessages {
		pinned = pinned[:MaxPinnedMessages]
	}
	sess.PinnedMessageIDs = pinned

	return s.persist()
}

// UnpinMessage removes the message id from the session's pinned list.
// A missing session or message id is a no-op.
func (s *Store) UnpinMessage(id, messageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.find(id)
	if sess == nil {
		return nil
	}

	pinned := sess.PinnedMessageIDs[:0]
	for _, existing := range sess.PinnedMessageIDs {
		if existing != messageID {
			pinned = append(pinned, existing)
		}
	}
	sess.PinnedMessageIDs = pinned

	return s.persist()
}

// Get returns a copy of the session with the given id.
func (s *Store) Get(id string) (Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess := s.find(id)
	if sess == nil {
		return Session{}, ErrSessionNotFound
	}

	return sess.clone(), nil
}

// Has reports whether a session with the given id exists.
func (s *Store) Has(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.find(id) != nil
}

// Len returns the number of sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.sessions)
}

// Sessions returns copies of all sessions in insertion order.
func (s *Store) Sessions() []Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess.clone())
	}
	return out
}

// PinnedSessions returns the pinned display group, newest first.
func (s *Store) PinnedSessions() []Session {
	return s.displayGroup(true)
}

// UnpinnedSessions returns the unpinned display group, newest first.
func (s *Store) UnpinnedSessions() []Session {
	return s.displayGroup(false)
}

// displayGroup filters by pin flag and sorts by CreatedAt descending.
func (s *Store) displayGroup(pinned bool) []Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		if sess.IsPinned == pinned {
			out = append(out, sess.clone())
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	return out
}

// MostRecent returns the session with the latest CreatedAt, used to
// reassign the active session after a deletion.
func (s *Store) MostRecent() (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *Session
	for _, sess := range s.sessions {
		if latest == nil || sess.CreatedAt.After(latest.CreatedAt) {
			latest = sess
		}
	}

	if latest == nil {
		return Session{}, false
	}
	return latest.clone(), true
}

// PinnedMessages resolves the session's pinned message ids to message
// copies, most recently pinned first. Ids whose message no longer
// exists in the transcript are filtered out.
func (s *Store) PinnedMessages(id string) ([]Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess := s.find(id)
	if sess == nil {
		return nil, ErrSessionNotFound
	}

	byID := make(map[string]Message, len(sess.Messages))
	for _, msg := range sess.Messages {
		byID[msg.ID] = msg
	}

	out := make([]Message, 0, len(sess.PinnedMessageIDs))
	for _, pinID := range sess.PinnedMessageIDs {
		if msg, ok := byID[pinID]; ok {
			out = append(out, msg)
		}
	}

	return out, nil
}

// find returns the live session with the given id, or nil.
// Callers must hold the lock.
func (s *Store) find(id string) *Session {
	for _, sess := range s.sessions {
		if sess.ID == id {
			return sess
		}
	}
	return nil
}

// persist serializes the full collection to storage.
// Callers must hold the lock.
func (s *Store) persist() error {
	data, err := json.Marshal(s.sessions)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}

	if err := s.storage.SaveSessions(data); err != nil {
		s.logger.Warn("session write failed, latest change is in memory only",
			"error", err)
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}

	return nil
}
