package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nrfhq/chatkeep/pkg/logger"
)

func TestNewBoltStorage(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "nested", "chat.db")

	storage, err := NewBoltStorage(BoltConfig{
		Path:      path,
		Namespace: "test",
	})
	if err != nil {
		t.Fatalf("NewBoltStorage() error = %v", err)
	}

	if closeErr := storage.Close(); closeErr != nil {
		t.Errorf("Close() error = %v", closeErr)
	}

	if _, statErr := os.Stat(path); statErr != nil {
		t.Errorf("database file not created: %v", statErr)
	}
}

func TestBoltStorageSessionsRoundTrip(t *testing.T) {
	storage := setupBoltStorage(t, "test")

	// Empty storage yields nil, not an error.
	data, err := storage.LoadSessions()
	if err != nil {
		t.Fatalf("LoadSessions() error = %v", err)
	}
	if data != nil {
		t.Errorf("LoadSessions() = %q, want nil on empty storage", data)
	}

	payload := []byte(`[{"id":"session-1"}]`)
	if err := storage.SaveSessions(payload); err != nil {
		t.Fatalf("SaveSessions() error = %v", err)
	}

	data, err = storage.LoadSessions()
	if err != nil {
		t.Fatalf("LoadSessions() error = %v", err)
	}
	if string(data) != string(payload) {
		t.Errorf("LoadSessions() = %s, want %s", data, payload)
	}
}

func TestBoltStorageActiveID(t *testing.T) {
	storage := setupBoltStorage(t, "test")

	id, err := storage.LoadActiveID()
	if err != nil {
		t.Fatalf("LoadActiveID() error = %v", err)
	}
	if id != "" {
		t.Errorf("LoadActiveID() = %q, want empty", id)
	}

	if err := storage.SaveActiveID("session-active"); err != nil {
		t.Fatalf("SaveActiveID() error = %v", err)
	}

	id, err = storage.LoadActiveID()
	if err != nil {
		t.Fatalf("LoadActiveID() error = %v", err)
	}
	if id != "session-active" {
		t.Errorf("LoadActiveID() = %q, want session-active", id)
	}

	if err := storage.ClearActiveID(); err != nil {
		t.Fatalf("ClearActiveID() error = %v", err)
	}

	id, _ = storage.LoadActiveID()
	if id != "" {
		t.Errorf("LoadActiveID() after clear = %q, want empty", id)
	}
}

func TestBoltStorageNamespaceIsolation(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "chat.db")

	work, err := NewBoltStorage(BoltConfig{Path: path, Namespace: "work"})
	if err != nil {
		t.Fatalf("NewBoltStorage(work) error = %v", err)
	}

	if err := work.SaveSessions([]byte(`[{"id":"session-w"}]`)); err != nil {
		t.Fatalf("SaveSessions() error = %v", err)
	}
	if closeErr := work.Close(); closeErr != nil {
		t.Fatalf("Close() error = %v", closeErr)
	}

	personal, err := NewBoltStorage(BoltConfig{Path: path, Namespace: "personal"})
	if err != nil {
		t.Fatalf("NewBoltStorage(personal) error = %v", err)
	}
	defer func() {
		if closeErr := personal.Close(); closeErr != nil {
			t.Errorf("Close() error = %v", closeErr)
		}
	}()

	data, err := personal.LoadSessions()
	if err != nil {
		t.Fatalf("LoadSessions() error = %v", err)
	}
	if data != nil {
		t.Errorf("namespaces leak: personal sees %s", data)
	}
}

func TestBoltStoragePersistsAcrossReopen(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "chat.db")

	first, err := NewBoltStorage(BoltConfig{Path: path, Namespace: "test"})
	if err != nil {
		t.Fatalf("NewBoltStorage() error = %v", err)
	}

	st := Open(first, logger.Noop())
	sess, createErr := st.CreateSession("Conversation")
	if createErr != nil {
		t.Fatalf("CreateSession() error = %v", createErr)
	}
	if err := st.AppendMessage(sess.ID, NewUserMessage("durable")); err != nil {
		t.Fatalf("AppendMessage() error = %v", err)
	}
	if closeErr := first.Close(); closeErr != nil {
		t.Fatalf("Close() error = %v", closeErr)
	}

	second, err := NewBoltStorage(BoltConfig{Path: path, Namespace: "test"})
	if err != nil {
		t.Fatalf("NewBoltStorage() error = %v", err)
	}
	defer func() {
		if closeErr := second.Close(); closeErr != nil {
			t.Errorf("Close() error = %v", closeErr)
		}
	}()

	reopened := Open(second, logger.Noop())

	got, err := reopened.Get(sess.ID)
	if err != nil {
		t.Fatalf("Get() after reopen error = %v", err)
	}
	if len(got.Messages) != 1 || got.Messages[0].Text != "durable" {
		t.Errorf("Messages = %+v, want the durable message", got.Messages)
	}
}

// setupBoltStorage opens BoltDB storage in a temp dir with cleanup.
func setupBoltStorage(t *testing.T, namespace string) Storage {
	t.Helper()

	storage, err := NewBoltStorage(BoltConfig{
		Path:      filepath.Join(t.TempDir(), "chat.db"),
		Namespace: namespace,
	})
	if err != nil {
		t.Fatalf("failed to create test storage: %v", err)
	}

	t.Cleanup(func() {
		if closeErr := storage.Close(); closeErr != nil {
			t.Errorf("cleanup Close() error = %v", closeErr)
		}
	})

	return storage
}
