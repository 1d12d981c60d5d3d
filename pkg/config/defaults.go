package config

import (
	"os"
	"path/filepath"
)

// defaultDBPath returns the default database file path.
//
// Returns: ~/.config/chatkeep/chat.db.
func defaultDBPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./chat.db"
	}

	return filepath.Join(homeDir, ".config", "chatkeep", "chat.db")
}

// DefaultConfigPath returns the default configuration file path.
//
// Returns: ~/.config/chatkeep/config.yaml.
func DefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./config.yaml"
	}

	return filepath.Join(homeDir, ".config", "chatkeep", "config.yaml")
}
