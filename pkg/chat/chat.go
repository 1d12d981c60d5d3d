package chat

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/nrfhq/chatkeep/pkg/client"
	"github.com/nrfhq/chatkeep/pkg/logger"
	"github.com/nrfhq/chatkeep/pkg/store"
)

// Manager orchestrates sends and tracks the active session.
//
// The active session id is UI-layer state: it always refers to a
// session present in the store, or to nothing. It is persisted
// through the Storage backend so a restart resumes where the user
// left off.
type Manager struct {
	store   *store.Store
	storage store.Storage
	backend client.Client
	logger  logger.Logger
	config  Config

	mu       sync.Mutex
	activeID string
	sending  bool
}

// New creates a chat manager and restores the last active session.
//
// backend may be nil when no base URL is configured; local session
// operations keep working and remote operations return ErrNoBackend.
//
// Active-session restoration order: the persisted last-active id when
// it still names a stored session, else the most recently created
// session, else none.
func New(cfg Config, st *store.Store, storage store.Storage, backend client.Client, log logger.Logger) *Manager {
	if cfg.BaseSessionName == "" {
		cfg.BaseSessionName = "Conversation"
	}
	if cfg.ContextWindow <= 0 {
		cfg.ContextWindow = 10
	}
	if cfg.StaleReplyPolicy == "" {
		cfg.StaleReplyPolicy = StaleReplyAppend
	}

	m := &Manager{
		store:   st,
		storage: storage,
		backend: backend,
		logger:  log,
		config:  cfg,
	}

	m.restoreActive()
	return m
}

// UpdateConfig applies new chat settings to subsequent sends.
func (m *Manager) UpdateConfig(cfg Config) {
	if cfg.BaseSessionName == "" {
		cfg.BaseSessionName = "Conversation"
	}
	if cfg.ContextWindow <= 0 {
		cfg.ContextWindow = 10
	}
	if cfg.StaleReplyPolicy == "" {
		cfg.StaleReplyPolicy = StaleReplyAppend
	}

	m.mu.Lock()
	m.config = cfg
	m.mu.Unlock()

	m.logger.Debug("chat settings updated",
		"context_window", cfg.ContextWindow,
		"stale_reply_policy", cfg.StaleReplyPolicy)
}

// restoreActive resolves the startup active session.
func (m *Manager) restoreActive() {
	id, err := m.storage.LoadActiveID()
	if err != nil {
		m.logger.Warn("failed to restore active session id", "error", err)
		id = ""
	}

	if id != "" && m.store.Has(id) {
		m.activeID = id
		return
	}

	if recent, ok := m.store.MostRecent(); ok {
		m.activeID = recent.ID
		m.persistActive()
		return
	}

	m.activeID = ""
}

// ActiveID returns the active session id, or empty string.
func (m *Manager) ActiveID() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.activeID
}

// ActiveSession returns a copy of the active session.
func (m *Manager) ActiveSession() (store.Session, bool) {
	m.mu.Lock()
	id := m.activeID
	m.mu.Unlock()

	if id == "" {
		return store.Session{}, false
	}

	sess, err := m.store.Get(id)
	if err != nil {
		return store.Session{}, false
	}
	return sess, true
}

// SetActive marks the session with the given id active.
//
// Returns ErrUnknownSession when the id is not in the store.
func (m *Manager) SetActive(id string) error {
	if !m.store.Has(id) {
		return ErrUnknownSession
	}

	m.mu.Lock()
	m.activeID = id
	m.mu.Unlock()

	m.persistActive()
	return nil
}

// ClearActive drops the active session reference.
func (m *Manager) ClearActive() {
	m.mu.Lock()
	m.activeID = ""
	m.mu.Unlock()

	if err := m.storage.ClearActiveID(); err != nil {
		m.logger.Warn("failed to clear active session id", "error", err)
	}
}

// NewChat creates a new session and marks it active.
func (m *Manager) NewChat() (store.Session, error) {
	m.mu.Lock()
	baseName := m.config.BaseSessionName
	m.mu.Unlock()

	sess, err := m.store.CreateSession(baseName)
	if err != nil && !errors.Is(err, store.ErrPersist) {
		return store.Session{}, err
	}
	if errors.Is(err, store.ErrPersist) {
		m.logger.Warn("new session is in memory only", "error", err)
	}

	m.mu.Lock()
	m.activeID = sess.ID
	m.mu.Unlock()

	m.persistActive()
	return sess, nil
}

// DeleteSession removes a session. When the active session is
// deleted, the most recently created remaining session becomes
// active, or no session when none remain.
func (m *Manager) DeleteSession(id string) error {
	if err := m.store.DeleteSession(id); err != nil && !errors.Is(err, store.ErrPersist) {
		return err
	} else if errors.Is(err, store.ErrPersist) {
		m.logger.Warn("session deletion is in memory only", "error", err)
	}

	m.mu.Lock()
	wasActive := m.activeID == id
	m.mu.Unlock()

	if !wasActive {
		return nil
	}

	if recent, ok := m.store.MostRecent(); ok {
		return m.SetActive(recent.ID)
	}

	m.ClearActive()
	return nil
}

// Send relays the trimmed input to the backend on behalf of the
// active session and folds the outcome back into the transcript.
//
// Gating and validation failures (empty input, no active session,
// a send already in flight, no backend) are returned as errors and
// leave the store untouched. Backend failures do not escape: they
// are appended as ai-sender transcript messages and reported through
// SendResult.Failed.
func (m *Manager) Send(ctx context.Context, text string) (*SendResult, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, ErrEmptyMessage
	}
	if m.backend == nil {
		return nil, ErrNoBackend
	}

	m.mu.Lock()
	if m.activeID == "" {
		m.mu.Unlock()
		return nil, ErrNoActiveSession
	}
	if m.sending {
		m.mu.Unlock()
		return nil, ErrSendInFlight
	}
	m.sending = true
	sessionID := m.activeID
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.sending = false
		m.mu.Unlock()
	}()

	// Context window: the last N messages preceding the new one.
	history := m.contextWindow(sessionID)

	userMsg := store.NewUserMessage(trimmed)
	if err := m.store.AppendMessage(sessionID, userMsg); err != nil {
		m.logger.Warn("user message not persisted", "error", err)
	}

	resp, sendErr := m.backend.Send(ctx, client.SendRequest{
		Message:   trimmed,
		History:   history,
		SessionID: sessionID,
	})

	var reply store.Message
	failed := sendErr != nil
	switch {
	case failed:
		reply = store.NewAIMessage(sendErr.Error())
	case resp.Reply == "":
		reply = store.NewAIMessage(FallbackReply)
	default:
		reply = store.NewAIMessage(resp.Reply)
	}

	delivered := m.deliver(sessionID, reply)

	return &SendResult{
		UserMessage: userMsg,
		Reply:       reply,
		Delivered:   delivered,
		Failed:      failed,
	}, nil
}

// contextWindow projects the last ContextWindow messages of the
// session to sender/text pairs.
func (m *Manager) contextWindow(sessionID string) []client.ContextMessage {
	sess, err := m.store.Get(sessionID)
	if err != nil {
		return []client.ContextMessage{}
	}

	m.mu.Lock()
	window := m.config.ContextWindow
	m.mu.Unlock()

	messages := sess.Messages
	if len(messages) > window {
		messages = messages[len(messages)-window:]
	}

	projected := make([]client.ContextMessage, 0, len(messages))
	for _, msg := range messages {
		projected = append(projected, client.ContextMessage{
			Sender: string(msg.Sender),
			Text:   msg.Text,
		})
	}
	return projected
}

// deliver appends the reply to its originating session, honoring the
// stale-reply policy. Replies to deleted sessions are always dropped.
func (m *Manager) deliver(sessionID string, reply store.Message) bool {
	if !m.store.Has(sessionID) {
		m.logger.Info("reply dropped, session deleted mid-flight",
			"session_id", sessionID)
		return false
	}

	m.mu.Lock()
	policy := m.config.StaleReplyPolicy
	m.mu.Unlock()

	if policy == StaleReplyDiscard && m.ActiveID() != sessionID {
		m.logger.Info("stale reply discarded",
			"session_id", sessionID,
			"active_id", m.ActiveID())
		return false
	}

	if err := m.store.AppendMessage(sessionID, reply); err != nil {
		m.logger.Warn("reply not persisted", "error", err)
	}
	return true
}

// Refresh fetches the authoritative remote session listing.
func (m *Manager) Refresh(ctx context.Context) ([]client.RemoteSession, error) {
	if m.backend == nil {
		return nil, ErrNoBackend
	}
	return m.backend.ListSessions(ctx)
}

// DeleteRemote removes a session server-side and refetches the
// listing so the caller sees the backend's post-delete state.
func (m *Manager) DeleteRemote(ctx context.Context, id string) ([]client.RemoteSession, error) {
	if m.backend == nil {
		return nil, ErrNoBackend
	}

	if err := m.backend.DeleteSession(ctx, id); err != nil {
		return nil, err
	}

	return m.backend.ListSessions(ctx)
}

// persistActive writes the active session id, warning on failure.
func (m *Manager) persistActive() {
	m.mu.Lock()
	id := m.activeID
	m.mu.Unlock()

	if err := m.storage.SaveActiveID(id); err != nil {
		m.logger.Warn("failed to persist active session id", "error", err)
	}
}
