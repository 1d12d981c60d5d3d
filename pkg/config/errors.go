package config

import "errors"

// Common errors returned by the config package.
var (
	// ErrInvalidTimeout is returned when the backend timeout is <= 0.
	ErrInvalidTimeout = errors.New("invalid backend timeout: must be > 0")

	// ErrNoDBPath is returned when the database path is empty.
	ErrNoDBPath = errors.New("no database path specified")

	// ErrNoNamespace is returned when the storage namespace is empty.
	ErrNoNamespace = errors.New("no storage namespace specified")

	// ErrNoBaseSessionName is returned when the base session name is empty.
	ErrNoBaseSessionName = errors.New("no base session name specified")

	// ErrInvalidContextWindow is returned when the context window is <= 0.
	ErrInvalidContextWindow = errors.New("invalid context window: must be > 0")

	// ErrInvalidStaleReplyPolicy is returned when the stale-reply policy is not recognized.
	ErrInvalidStaleReplyPolicy = errors.New("invalid stale reply policy: must be append or discard")

	// ErrInvalidLogLevel is returned when log level is not recognized.
	ErrInvalidLogLevel = errors.New("invalid log level: must be debug, info, warn, or error")

	// ErrInvalidLogFormat is returned when log format is not recognized.
	ErrInvalidLogFormat = errors.New("invalid log format: must be text or json")

	// ErrConfigNotFound is returned when config file is not found.
	ErrConfigNotFound = errors.New("config file not found")

	// ErrInvalidYAML is returned when config file has invalid YAML syntax.
	ErrInvalidYAML = errors.New("invalid YAML syntax in config file")
)
