// Package config provides configuration management for chatkeep.
//
// Configuration is loaded from multiple sources with the following precedence:
// 1. Environment variables
// 2. Configuration file
// 3. Default values (lowest priority)
//
// Example usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("Backend: %s\n", cfg.Backend.BaseURL)
package config

import (
	"time"
)

// Stale-reply policies for responses that arrive after the user has
// navigated away from the session the request was issued against.
const (
	// StaleReplyAppend appends the reply to its originating session
	// even when that session is no longer active.
	StaleReplyAppend = "append"

	// StaleReplyDiscard drops the reply when its originating session
	// is no longer active.
	StaleReplyDiscard = "discard"
)

// Config represents the complete application configuration.
//
// Invariants:
// - Backend.Timeout must be > 0
// - Storage.Namespace must be non-empty
// - Chat.ContextWindow must be > 0
// - Chat.StaleReplyPolicy must be append or discard.
type Config struct {
	// Backend settings for the chat proxy service
	Backend BackendConfig `yaml:"backend"`

	// Storage settings
	Storage StorageConfig `yaml:"storage"`

	// Chat behavior settings
	Chat ChatConfig `yaml:"chat"`

	// Logging settings
	Logging LoggingConfig `yaml:"logging"`
}

// BackendConfig contains settings for the chat proxy service.
type BackendConfig struct {
	// Base URL of the backend, e.g. https://chat.example.com.
	// Required only for operations that reach the backend.
	BaseURL string `yaml:"base_url"`

	// Request timeout for backend calls
	Timeout time.Duration `yaml:"timeout"`
}

// StorageConfig contains storage-related settings.
type StorageConfig struct {
	// Path to the BoltDB database file
	DBPath string `yaml:"db_path"`

	// Namespace suffix for storage keys, allowing multiple
	// independent session collections in one database file
	Namespace string `yaml:"namespace"`
}

// ChatConfig contains chat behavior settings.
type ChatConfig struct {
	// Base name for new sessions ("Conversation" -> "Conversation 1")
	BaseSessionName string `yaml:"base_session_name"`

	// Number of preceding messages sent as context with each request
	ContextWindow int `yaml:"context_window"`

	// Policy for replies arriving after the originating session
	// stopped being active (append, discard)
	StaleReplyPolicy string `yaml:"stale_reply_policy"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Log level (debug, info, warn, error)
	Level string `yaml:"level"`

	// Log output destination (stdout, stderr, file path)
	Output string `yaml:"output"`

	// Log format (text, json)
	Format string `yaml:"format"`
}

// Validate checks if the configuration satisfies all invariants.
//
// Returns an error if any invariant is violated. The backend base URL
// is deliberately not required here: local session operations work
// without a backend, and remote operations surface the missing URL
// themselves.
func (c *Config) Validate() error {
	if c.Backend.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.Storage.DBPath == "" {
		return ErrNoDBPath
	}
	if c.Storage.Namespace == "" {
		return ErrNoNamespace
	}

	if c.Chat.BaseSessionName == "" {
		return ErrNoBaseSessionName
	}
	if c.Chat.ContextWindow <= 0 {
		return ErrInvalidContextWindow
	}

	validPolicies := map[string]bool{
		StaleReplyAppend:  true,
		StaleReplyDiscard: true,
	}
	if !validPolicies[c.Chat.StaleReplyPolicy] {
		return ErrInvalidStaleReplyPolicy
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.Logging.Level] {
		return ErrInvalidLogLevel
	}

	validFormats := map[string]bool{
		"text": true,
		"json": true,
	}
	if !validFormats[c.Logging.Format] {
		return ErrInvalidLogFormat
	}

	return nil
}

// Default returns a configuration with sensible default values.
func Default() *Config {
	return &Config{
		Backend: BackendConfig{
			BaseURL: "",
			Timeout: 30 * time.Second,
		},
		Storage: StorageConfig{
			DBPath:    defaultDBPath(),
			Namespace: "default",
		},
		Chat: ChatConfig{
			BaseSessionName:  "Conversation",
			ContextWindow:    10,
			StaleReplyPolicy: StaleReplyAppend,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: "stderr",
			Format: "text",
		},
	}
}
