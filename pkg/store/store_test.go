package store

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nrfhq/chatkeep/pkg/logger"
)

func TestCreateSession(t *testing.T) {
	st := setupTestStore(t)

	sess, err := st.CreateSession("Conversation")
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	if sess.Name != "Conversation 1" {
		t.Errorf("Name = %s, want Conversation 1", sess.Name)
	}
	if !strings.HasPrefix(sess.ID, "session-") {
		t.Errorf("ID = %s, want session- prefix", sess.ID)
	}
	if len(sess.Messages) != 0 {
		t.Errorf("Messages length = %d, want 0", len(sess.Messages))
	}
	if sess.IsPinned {
		t.Error("new session should not be pinned")
	}
	if sess.LastMessagePreview != EmptyPreview {
		t.Errorf("LastMessagePreview = %q, want %q", sess.LastMessagePreview, EmptyPreview)
	}
	if sess.CreatedAt.IsZero() {
		t.Error("CreatedAt is zero")
	}

	// Names keep counting with the collection size.
	second, err := st.CreateSession("Conversation")
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	if second.Name != "Conversation 2" {
		t.Errorf("Name = %s, want Conversation 2", second.Name)
	}
	if second.ID == sess.ID {
		t.Error("session ids must be unique")
	}
}

func TestDeleteSession(t *testing.T) {
	st := setupTestStore(t)

	sess, _ := st.CreateSession("Conversation")

	if err := st.DeleteSession(sess.ID); err != nil {
		t.Fatalf("DeleteSession() error = %v", err)
	}

	if st.Has(sess.ID) {
		t.Error("session still present after delete")
	}
}

func TestDeleteSessionMissingIsNoop(t *testing.T) {
	st := setupTestStore(t)

	if err := st.DeleteSession("session-nonexistent"); err != nil {
		t.Errorf("DeleteSession() error = %v, want nil", err)
	}
}

func TestRenameSession(t *testing.T) {
	st := setupTestStore(t)

	sess, _ := st.CreateSession("Conversation")

	if err := st.RenameSession(sess.ID, "  Project notes  "); err != nil {
		t.Fatalf("RenameSession() error = %v", err)
	}

	got, err := st.Get(sess.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Name != "Project notes" {
		t.Errorf("Name = %q, want %q", got.Name, "Project notes")
	}
}

func TestRenameSessionBlankRejected(t *testing.T) {
	st := setupTestStore(t)

	sess, _ := st.CreateSession("Conversation")

	for _, name := range []string{"", "   ", "\t\n"} {
		if err := st.RenameSession(sess.ID, name); err != nil {
			t.Fatalf("RenameSession(%q) error = %v", name, err)
		}

		got, _ := st.Get(sess.ID)
		if got.Name != "Conversation 1" {
			t.Errorf("Name after rename to %q = %q, want unchanged", name, got.Name)
		}
	}
}

func TestTogglePinSession(t *testing.T) {
	st := setupTestStore(t)

	sess, _ := st.CreateSession("Conversation")

	if err := st.TogglePinSession(sess.ID); err != nil {
		t.Fatalf("TogglePinSession() error = %v", err)
	}
	got, _ := st.Get(sess.ID)
	if !got.IsPinned {
		t.Error("IsPinned = false after toggle, want true")
	}

	if err := st.TogglePinSession(sess.ID); err != nil {
		t.Fatalf("TogglePinSession() error = %v", err)
	}
	got, _ = st.Get(sess.ID)
	if got.IsPinned {
		t.Error("IsPinned = true after second toggle, want false")
	}
}

func TestAppendMessageUpdatesPreview(t *testing.T) {
	st := setupTestStore(t)

	sess, _ := st.CreateSession("Conversation")

	short := NewUserMessage("Hello")
	if err := st.AppendMessage(sess.ID, short); err != nil {
		t.Fatalf("AppendMessage() error = %v", err)
	}

	got, _ := st.Get(sess.ID)
	if got.LastMessagePreview != "Hello" {
		t.Errorf("LastMessagePreview = %q, want %q", got.LastMessagePreview, "Hello")
	}

	long := NewAIMessage(strings.Repeat("a", 41))
	if err := st.AppendMessage(sess.ID, long); err != nil {
		t.Fatalf("AppendMessage() error = %v", err)
	}

	got, _ = st.Get(sess.ID)
	want := strings.Repeat("a", 40) + "..."
	if got.LastMessagePreview != want {
		t.Errorf("LastMessagePreview = %q, want %q", got.LastMessagePreview, want)
	}
	if len(got.Messages) != 2 {
		t.Errorf("Messages length = %d, want 2", len(got.Messages))
	}
}

func TestPreviewOf(t *testing.T) {
	tests := []struct {
		name     string
		messages []Message
		want     string
	}{
		{
			name:     "empty transcript",
			messages: nil,
			want:     EmptyPreview,
		},
		{
			name:     "short text untouched",
			messages: []Message{{Text: "short"}},
			want:     "short",
		},
		{
			name:     "exactly 40 characters untouched",
			messages: []Message{{Text: strings.Repeat("x", 40)}},
			want:     strings.Repeat("x", 40),
		},
		{
			name:     "41 characters truncated with ellipsis",
			messages: []Message{{Text: strings.Repeat("x", 41)}},
			want:     strings.Repeat("x", 40) + "...",
		},
		{
			name:     "last message wins",
			messages: []Message{{Text: "first"}, {Text: "second"}},
			want:     "second",
		},
		{
			name:     "multibyte text counted in runes",
			messages: []Message{{Text: strings.Repeat("é", 41)}},
			want:     strings.Repeat("é", 40) + "...",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := previewOf(tt.messages); got != tt.want {
				t.Errorf("previewOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAppendMessageMissingSessionDropsMessage(t *testing.T) {
	st := setupTestStore(t)

	if err := st.AppendMessage("session-missing", NewUserMessage("lost")); err != nil {
		t.Errorf("AppendMessage() error = %v, want nil", err)
	}
}

func TestPinMessageBound(t *testing.T) {
	st := setupTestStore(t)

	sess, _ := st.CreateSession("Conversation")

	var ids []string
	for _, text := range []string{"one", "two", "three", "four"} {
		msg := NewUserMessage(text)
		ids = append(ids, msg.ID)
		if err := st.AppendMessage(sess.ID, msg); err != nil {
			t.Fatalf("AppendMessage() error = %v", err)
		}
	}

	for _, id := range ids {
		if err := st.PinMessage(sess.ID, id); err != nil {
			t.Fatalf("PinMessage() error = %v", err)
		}
	}

	got, _ := st.Get(sess.ID)
	if len(got.PinnedMessageIDs) != MaxPinnedMessages {
		t.Fatalf("pinned count = %d, want %d", len(got.PinnedMessageIDs), MaxPinnedMessages)
	}

	// Most recently pinned first; the first pin fell off.
	want := []string{ids[3], ids[2], ids[1]}
	for i, id := range want {
		if got.PinnedMessageIDs[i] != id {
			t.Errorf("PinnedMessageIDs[%d] = %s, want %s", i, got.PinnedMessageIDs[i], id)
		}
	}
}

func TestRepinMovesToFront(t *testing.T) {
	st := setupTestStore(t)

	sess, _ := st.CreateSession("Conversation")

	first := NewUserMessage("one")
	second := NewUserMessage("two")
	for _, msg := range []Message{first, second} {
		if err := st.AppendMessage(sess.ID, msg); err != nil {
			t.Fatalf("AppendMessage() error = %v", err)
		}
	}

	_ = st.PinMessage(sess.ID, first.ID)
	_ = st.PinMessage(sess.ID, second.ID)
	_ = st.PinMessage(sess.ID, first.ID) // re-pin

	got, _ := st.Get(sess.ID)
	if len(got.PinnedMessageIDs) != 2 {
		t.Fatalf("pinned count = %d, want 2 (no duplicate)", len(got.PinnedMessageIDs))
	}
	if got.PinnedMessageIDs[0] != first.ID {
		t.Errorf("PinnedMessageIDs[0] = %s, want re-pinned id first", got.PinnedMessageIDs[0])
	}
}

func TestUnpinMessage(t *testing.T) {
	st := setupTestStore(t)

	sess, _ := st.CreateSession("Conversation")
	msg := NewUserMessage("one")
	_ = st.AppendMessage(sess.ID, msg)
	_ = st.PinMessage(sess.ID, msg.ID)

	if err := st.UnpinMessage(sess.ID, msg.ID); err != nil {
		t.Fatalf("UnpinMessage() error = %v", err)
	}

	got, _ := st.Get(sess.ID)
	if len(got.PinnedMessageIDs) != 0 {
		t.Errorf("pinned count = %d, want 0", len(got.PinnedMessageIDs))
	}
}

func TestPinnedMessagesFiltersDanglingIDs(t *testing.T) {
	st := setupTestStore(t)

	sess, _ := st.CreateSession("Conversation")
	msg := NewUserMessage("kept")
	_ = st.AppendMessage(sess.ID, msg)
	_ = st.PinMessage(sess.ID, msg.ID)
	_ = st.PinMessage(sess.ID, "user-dangling")

	pinned, err := st.PinnedMessages(sess.ID)
	if err != nil {
		t.Fatalf("PinnedMessages() error = %v", err)
	}

	if len(pinned) != 1 {
		t.Fatalf("resolved pinned count = %d, want 1", len(pinned))
	}
	if pinned[0].ID != msg.ID {
		t.Errorf("pinned[0].ID = %s, want %s", pinned[0].ID, msg.ID)
	}
}

func TestDisplayGroups(t *testing.T) {
	st := setupTestStore(t)

	// Spread CreatedAt so the descending sort is deterministic.
	a, _ := st.CreateSession("Conversation")
	time.Sleep(5 * time.Millisecond)
	b, _ := st.CreateSession("Conversation")
	time.Sleep(5 * time.Millisecond)
	c, _ := st.CreateSession("Conversation")

	_ = st.TogglePinSession(b.ID)

	pinned := st.PinnedSessions()
	if len(pinned) != 1 || pinned[0].ID != b.ID {
		t.Errorf("PinnedSessions() = %v, want only %s", sessionIDs(pinned), b.ID)
	}

	unpinned := st.UnpinnedSessions()
	if len(unpinned) != 2 {
		t.Fatalf("UnpinnedSessions() count = %d, want 2", len(unpinned))
	}

	// Newest first within the group.
	if !unpinned[0].CreatedAt.Before(time.Now().Add(time.Second)) {
		t.Error("unexpected CreatedAt in future")
	}
	if unpinned[0].ID != c.ID || unpinned[1].ID != a.ID {
		t.Errorf("UnpinnedSessions() order = %v, want [%s %s]", sessionIDs(unpinned), c.ID, a.ID)
	}
}

func TestRoundTrip(t *testing.T) {
	storage := NewMemoryStorage()
	st := Open(storage, logger.Noop())

	sess, _ := st.CreateSession("Conversation")
	_ = st.RenameSession(sess.ID, "Round trip")
	_ = st.TogglePinSession(sess.ID)
	msg := NewUserMessage("persisted text")
	_ = st.AppendMessage(sess.ID, msg)
	_ = st.PinMessage(sess.ID, msg.ID)

	// Reopen from the same storage.
	reopened := Open(storage, logger.Noop())

	got, err := reopened.Get(sess.ID)
	if err != nil {
		t.Fatalf("Get() after reopen error = %v", err)
	}

	if got.Name != "Round trip" {
		t.Errorf("Name = %q, want %q", got.Name, "Round trip")
	}
	if !got.IsPinned {
		t.Error("IsPinned lost in round trip")
	}
	if len(got.Messages) != 1 || got.Messages[0].Text != "persisted text" {
		t.Errorf("Messages = %+v, want the persisted message", got.Messages)
	}
	if got.Messages[0].Sender != SenderUser {
		t.Errorf("Sender = %s, want %s", got.Messages[0].Sender, SenderUser)
	}
	if len(got.PinnedMessageIDs) != 1 || got.PinnedMessageIDs[0] != msg.ID {
		t.Errorf("PinnedMessageIDs = %v, want [%s]", got.PinnedMessageIDs, msg.ID)
	}
	if !got.CreatedAt.Equal(sess.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, sess.CreatedAt)
	}
	if !got.Messages[0].Timestamp.Equal(msg.Timestamp) {
		t.Errorf("Timestamp = %v, want %v", got.Messages[0].Timestamp, msg.Timestamp)
	}
}

func TestOpenCorruptDataStartsEmpty(t *testing.T) {
	storage := NewMemoryStorage()
	if err := storage.SaveSessions([]byte("{not json")); err != nil {
		t.Fatalf("SaveSessions() error = %v", err)
	}

	st := Open(storage, logger.Noop())

	if st.Len() != 0 {
		t.Errorf("Len() = %d after corrupt load, want 0", st.Len())
	}

	// The store must remain usable.
	if _, err := st.CreateSession("Conversation"); err != nil {
		t.Errorf("CreateSession() after corrupt load error = %v", err)
	}
}

func TestOpenReadFailureStartsEmpty(t *testing.T) {
	storage := NewMemoryStorage()
	storage.LoadErr = errors.New("disk on fire")

	st := Open(storage, logger.Noop())

	if st.Len() != 0 {
		t.Errorf("Len() = %d after read failure, want 0", st.Len())
	}
}

func TestOpenHealsStalePreviewAndDefaults(t *testing.T) {
	// Older stored data: no isPinned, no pinnedMessageIds, and a
	// preview that disagrees with the transcript.
	raw := `[{
		"id": "session-old",
		"name": "Old data",
		"createdAt": "2024-01-02T03:04:05Z",
		"lastMessagePreview": "stale cached preview",
		"messages": [
			{"id": "user-1", "text": "actual last message", "sender": "user", "timestamp": "2024-01-02T03:04:06Z"}
		]
	}]`

	storage := NewMemoryStorage()
	if err := storage.SaveSessions([]byte(raw)); err != nil {
		t.Fatalf("SaveSessions() error = %v", err)
	}

	st := Open(storage, logger.Noop())

	got, err := st.Get("session-old")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	if got.IsPinned {
		t.Error("IsPinned should default to false")
	}
	if got.PinnedMessageIDs == nil || len(got.PinnedMessageIDs) != 0 {
		t.Errorf("PinnedMessageIDs = %v, want empty", got.PinnedMessageIDs)
	}
	if got.LastMessagePreview != "actual last message" {
		t.Errorf("LastMessagePreview = %q, want recomputed from messages", got.LastMessagePreview)
	}

	want := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	if !got.CreatedAt.Equal(want) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, want)
	}
}

func TestMutationSurvivesWriteFailure(t *testing.T) {
	storage := NewMemoryStorage()
	st := Open(storage, logger.Noop())

	storage.SaveErr = errors.New("disk full")

	sess, err := st.CreateSession("Conversation")
	if !errors.Is(err, ErrPersist) {
		t.Errorf("CreateSession() error = %v, want ErrPersist", err)
	}

	// The in-memory mutation stands despite the failed write.
	if !st.Has(sess.ID) {
		t.Error("session missing from memory after write failure")
	}

	// Recovery: the next successful mutation persists everything.
	storage.SaveErr = nil
	if err := st.RenameSession(sess.ID, "Recovered"); err != nil {
		t.Fatalf("RenameSession() error = %v", err)
	}

	var persisted []Session
	data, _ := storage.LoadSessions()
	if err := json.Unmarshal(data, &persisted); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if len(persisted) != 1 || persisted[0].Name != "Recovered" {
		t.Errorf("persisted = %+v, want the recovered session", persisted)
	}
}

func TestMostRecent(t *testing.T) {
	st := setupTestStore(t)

	if _, ok := st.MostRecent(); ok {
		t.Error("MostRecent() on empty store should report false")
	}

	_, _ = st.CreateSession("Conversation")
	time.Sleep(5 * time.Millisecond)
	b, _ := st.CreateSession("Conversation")

	got, ok := st.MostRecent()
	if !ok {
		t.Fatal("MostRecent() reported no sessions")
	}
	if got.ID != b.ID {
		t.Errorf("MostRecent().ID = %s, want %s", got.ID, b.ID)
	}
}

func TestGetNotFound(t *testing.T) {
	st := setupTestStore(t)

	if _, err := st.Get("session-missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Get() error = %v, want ErrSessionNotFound", err)
	}
}

// setupTestStore creates a store over fresh in-memory storage.
func setupTestStore(t *testing.T) *Store {
	t.Helper()
	return Open(NewMemoryStorage(), logger.Noop())
}

// sessionIDs extracts ids for readable failure messages.
func sessionIDs(sessions []Session) []string {
	ids := make([]string, len(sessions))
	for i, s := range sessions {
		ids[i] = s.ID
	}
	return ids
}
