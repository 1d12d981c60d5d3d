package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Storage key layout: a single bucket holding the serialized session
// collection and the last active session id, both suffixed with a
// namespace so multiple collections can share one database file.
var bucketChatState = []byte("chat_state")

const (
	sessionsKeyPrefix = "chatSessions_"
	activeKeyPrefix   = "lastActiveSessionId_"
)

// Storage persists the serialized session collection and the last
// active session id.
type Storage interface {
	// LoadSessions returns the serialized session collection, or
	// nil when nothing has been stored yet.
	LoadSessions() ([]byte, error)

	// SaveSessions writes the serialized session collection.
	SaveSessions(data []byte) error

	// LoadActiveID returns the last active session id, or empty
	// string when none is stored.
	LoadActiveID() (string, error)

	// SaveActiveID writes the last active session id.
	SaveActiveID(id string) error

	// ClearActiveID removes the stored active session id.
	ClearActiveID() error

	// Close releases backend resources.
	Close() error
}

// BoltConfig contains BoltDB storage configuration.
type BoltConfig struct {
	// Path is the BoltDB file path.
	Path string

	// Namespace suffixes the storage keys.
	Namespace string

	// Timeout is the database open timeout (default: 1 second).
	Timeout time.Duration
}

// boltStorage implements Storage using BoltDB.
type boltStorage struct {
	db          *bolt.DB
	sessionsKey []byte
	activeKey   []byte
}

// NewBoltStorage opens (creating if necessary) a BoltDB-backed Storage.
//
// The parent directory is created with 0700 permissions and the
// database file with 0600.
func NewBoltStorage(cfg BoltConfig) (Storage, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = time.Second
	}
	if cfg.Namespace == "" {
		cfg.Namespace = "default"
	}

	path := expandHome(cfg.Path)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{
		Timeout: cfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, createErr := tx.CreateBucketIfNotExists(bucketChatState)
		return createErr
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create chat state bucket: %w", err)
	}

	return &boltStorage{
		db:          db,
		sessionsKey: []byte(sessionsKeyPrefix + cfg.Namespace),
		activeKey:   []byte(activeKeyPrefix + cfg.Namespace),
	}, nil
}

// LoadSessions implements Storage.LoadSessions.
func (s *boltStorage) LoadSessions() ([]byte, error) {
	var data []byte

	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketChatState)

		if v := b.Get(s.sessionsKey); v != nil {
			// Copy: bolt values are only valid inside the transaction.
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to load sessions: %w", err)
	}

	return data, nil
}

// SaveSessions implements Storage.SaveSessions.
func (s *boltStorage) SaveSessions(data []byte) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketChatState).Put(s.sessionsKey, data)
	})

	if err != nil {
		return fmt.Errorf("failed to save sessions: %w", err)
	}

	return nil
}

// LoadActiveID implements Storage.LoadActiveID.
func (s *boltStorage) LoadActiveID() (string, error) {
	var id string

	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(bucketChatState).Get(s.activeKey); v != nil {
			id = string(v)
		}
		return nil
	})

	if err != nil {
		return "", fmt.Errorf("failed to load active session id: %w", err)
	}

	return id, nil
}

// SaveActiveID implements Storage.SaveActiveID.
func (s *boltStorage) SaveActiveID(id string) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketChatState).Put(s.activeKey, []byte(id))
	})

	if err != nil {
		return fmt.Errorf("failed to save active session id: %w", err)
	}

	return nil
}

// ClearActiveID implements Storage.ClearActiveID.
func (s *boltStorage) ClearActiveID() error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketChatState).Delete(s.activeKey)
	})

	if err != nil {
		return fmt.Errorf("failed to clear active session id: %w", err)
	}

	return nil
}

// Close implements Storage.Close.
func (s *boltStorage) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

// MemoryStorage is an in-memory Storage implementation.
//
// Useful for tests; the failure fields inject errors to exercise
// write-failure handling.
type MemoryStorage struct {
	mu       sync.Mutex
	sessions []byte
	activeID string
	closed   bool

	// SaveErr, when set, is returned by SaveSessions and SaveActiveID.
	SaveErr error

	// LoadErr, when set, is returned by LoadSessions and LoadActiveID.
	LoadErr error
}

// NewMemoryStorage creates an empty in-memory Storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

// LoadSessions implements Storage.LoadSessions.
func (m *MemoryStorage) LoadSessions() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrStorageClosed
	}
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	if m.sessions == nil {
		return nil, nil
	}

	data := make([]byte, len(m.sessions))
	copy(data, m.sessions)
	return data, nil
}

// SaveSessions implements Storage.SaveSessions.
func (m *MemoryStorage) SaveSessions(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStorageClosed
	}
	if m.SaveErr != nil {
		return m.SaveErr
	}

	m.sessions = make([]byte, len(data))
	copy(m.sessions, data)
	return nil
}

// LoadActiveID implements Storage.LoadActiveID.
func (m *MemoryStorage) LoadActiveID() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return "", ErrStorageClosed
	}
	if m.LoadErr != nil {
		return "", m.LoadErr
	}

	return m.activeID, nil
}

// SaveActiveID implements Storage.SaveActiveID.
func (m *MemoryStorage) SaveActiveID(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStorageClosed
	}
	if m.SaveErr != nil {
		return m.SaveErr
	}

	m.activeID = id
	return nil
}

// ClearActiveID implements Storage.ClearActiveID.
func (m *MemoryStorage) ClearActiveID() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStorageClosed
	}

	m.activeID = ""
	return nil
}

// Close implements Storage.Close.
func (m *MemoryStorage) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	return nil
}

// expandHome expands ~ in file paths to the user's home directory.
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	if path == "~" {
		return homeDir
	}

	return filepath.Join(homeDir, path[2:])
}
