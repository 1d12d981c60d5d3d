package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if err := cfg.Validate(); err != nil {
		t.Errorf("Default() config invalid: %v", err)
	}

	if cfg.Backend.Timeout != 30*time.Second {
		t.Errorf("Backend.Timeout = %v, want 30s", cfg.Backend.Timeout)
	}

	if cfg.Chat.ContextWindow != 10 {
		t.Errorf("Chat.ContextWindow = %d, want 10", cfg.Chat.ContextWindow)
	}

	if cfg.Chat.StaleReplyPolicy != StaleReplyAppend {
		t.Errorf("Chat.StaleReplyPolicy = %s, want %s", cfg.Chat.StaleReplyPolicy, StaleReplyAppend)
	}

	if cfg.Storage.Namespace != "default" {
		t.Errorf("Storage.Namespace = %s, want default", cfg.Storage.Namespace)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{
			name:    "valid default",
			mutate:  func(c *Config) {},
			wantErr: nil,
		},
		{
			name:    "zero timeout",
			mutate:  func(c *Config) { c.Backend.Timeout = 0 },
			wantErr: ErrInvalidTimeout,
		},
		{
			name:    "empty db path",
			mutate:  func(c *Config) { c.Storage.DBPath = "" },
			wantErr: ErrNoDBPath,
		},
		{
			name:    "empty namespace",
			mutate:  func(c *Config) { c.Storage.Namespace = "" },
			wantErr: ErrNoNamespace,
		},
		{
			name:    "empty base session name",
			mutate:  func(c *Config) { c.Chat.BaseSessionName = "" },
			wantErr: ErrNoBaseSessionName,
		},
		{
			name:    "zero context window",
			mutate:  func(c *Config) { c.Chat.ContextWindow = 0 },
			wantErr: ErrInvalidContextWindow,
		},
		{
			name:    "unknown stale reply policy",
			mutate:  func(c *Config) { c.Chat.StaleReplyPolicy = "queue" },
			wantErr: ErrInvalidStaleReplyPolicy,
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Logging.Level = "trace" },
			wantErr: ErrInvalidLogLevel,
		},
		{
			name:    "bad log format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: ErrInvalidLogFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")

	content := `
backend:
  base_url: https://chat.example.com
  timeout: 10s
storage:
  namespace: work
chat:
  base_session_name: Chat
  context_window: 5
  stale_reply_policy: discard
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	if cfg.Backend.BaseURL != "https://chat.example.com" {
		t.Errorf("Backend.BaseURL = %s, want https://chat.example.com", cfg.Backend.BaseURL)
	}
	if cfg.Backend.Timeout != 10*time.Second {
		t.Errorf("Backend.Timeout = %v, want 10s", cfg.Backend.Timeout)
	}
	if cfg.Storage.Namespace != "work" {
		t.Errorf("Storage.Namespace = %s, want work", cfg.Storage.Namespace)
	}
	if cfg.Chat.ContextWindow != 5 {
		t.Errorf("Chat.ContextWindow = %d, want 5", cfg.Chat.ContextWindow)
	}
	if cfg.Chat.StaleReplyPolicy != StaleReplyDiscard {
		t.Errorf("Chat.StaleReplyPolicy = %s, want discard", cfg.Chat.StaleReplyPolicy)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %s, want debug", cfg.Logging.Level)
	}

	// Unset fields keep defaults.
	if cfg.Logging.Format != "text" {
		t.Errorf("Logging.Format = %s, want text default", cfg.Logging.Format)
	}
	if cfg.Storage.DBPath == "" {
		t.Error("Storage.DBPath should keep default")
	}
}

func TestLoadFromFileNotFound(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	if !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("LoadFromFile() error = %v, want ErrConfigNotFound", err)
	}
}

func TestLoadFromFileInvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")

	if err := os.WriteFile(path, []byte("backend: [unclosed"), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	_, err := LoadFromFile(path)
	if !errors.Is(err, ErrInvalidYAML) {
		t.Errorf("LoadFromFile() error = %v, want ErrInvalidYAML", err)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CHATKEEP_BACKEND_URL", "https://env.example.com")
	t.Setenv("CHATKEEP_BACKEND_TIMEOUT", "5s")
	t.Setenv("CHATKEEP_DB", "/tmp/env-chat.db")
	t.Setenv("CHATKEEP_NAMESPACE", "env")
	t.Setenv("CHATKEEP_LOG_LEVEL", "error")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Backend.BaseURL != "https://env.example.com" {
		t.Errorf("Backend.BaseURL = %s, want env value", cfg.Backend.BaseURL)
	}
	if cfg.Backend.Timeout != 5*time.Second {
		t.Errorf("Backend.Timeout = %v, want 5s", cfg.Backend.Timeout)
	}
	if cfg.Storage.DBPath != "/tmp/env-chat.db" {
		t.Errorf("Storage.DBPath = %s, want env value", cfg.Storage.DBPath)
	}
	if cfg.Storage.Namespace != "env" {
		t.Errorf("Storage.Namespace = %s, want env", cfg.Storage.Namespace)
	}
	if cfg.Logging.Level != "error" {
		t.Errorf("Logging.Level = %s, want error", cfg.Logging.Level)
	}
}

func TestConfigPathEnvVar(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "custom.yaml")

	content := `
storage:
  namespace: from-env-path
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	t.Setenv("CHATKEEP_CONFIG", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Storage.Namespace != "from-env-path" {
		t.Errorf("Storage.Namespace = %s, want from-env-path", cfg.Storage.Namespace)
	}
}

func TestSaveAndReload(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "nested", "config.yaml")

	cfg := Default()
	cfg.Backend.BaseURL = "https://saved.example.com"
	cfg.Storage.Namespace = "saved"

	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	reloaded, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	if reloaded.Backend.BaseURL != cfg.Backend.BaseURL {
		t.Errorf("Backend.BaseURL = %s, want %s", reloaded.Backend.BaseURL, cfg.Backend.BaseURL)
	}
	if reloaded.Storage.Namespace != cfg.Storage.Namespace {
		t.Errorf("Storage.Namespace = %s, want %s", reloaded.Storage.Namespace, cfg.Storage.Namespace)
	}
}

func TestSaveInvalidConfig(t *testing.T) {
	cfg := Default()
	cfg.Chat.ContextWindow = -1

	err := Save(cfg, filepath.Join(t.TempDir(), "config.yaml"))
	if !errors.Is(err, ErrInvalidContextWindow) {
		t.Errorf("Save() error = %v, want ErrInvalidContextWindow", err)
	}
}
