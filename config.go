package portalsync

import (
	"os"
	"time"

	"github.com/ladupla/portalsync/internal/store"
)

// Config configures the portal sync client.
type Config struct {
	// LocalPath is the path to the local cache database.
	// Defaults to ~/.portalsync/portal.db.
	LocalPath string

	// RemoteURL is the base URL of the remote mirror backend.
	// If empty, the client operates in offline-only mode: reads and writes
	// hit the local cache and nothing is mirrored.
	RemoteURL string

	// APIKey is the static bearer credential sent with every remote call.
	APIKey string

	// MirrorTimeout bounds each best-effort mirror write.
	// Defaults to 30 seconds.
	MirrorTimeout time.Duration

	// SyncTimeout bounds the blocking startup reconciliation.
	// Defaults to 60 seconds.
	SyncTimeout time.Duration

	// Debug enables verbose logging of all remote mirror communications.
	Debug bool

	// DebugLogPath is the path to write debug logs.
	// Defaults to stderr if empty.
	DebugLogPath string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		LocalPath:     store.DefaultDBPath(),
		MirrorTimeout: 30 * time.Second,
		SyncTimeout:   60 * time.Second,
	}
}

// ConfigFromEnv reads configuration from environment variables.
//
//	PORTAL_DB_PATH    → LocalPath
//	PORTAL_REMOTE_URL → RemoteURL
//	PORTAL_API_KEY    → APIKey
//	PORTAL_DEBUG      → Debug (any non-empty value enables)
//	PORTAL_DEBUG_LOG  → DebugLogPath
func ConfigFromEnv() Config {
	return Config{
		LocalPath:    os.Getenv("PORTAL_DB_PATH"),
		RemoteURL:    os.Getenv("PORTAL_REMOTE_URL"),
		APIKey:       os.Getenv("PORTAL_API_KEY"),
		Debug:        os.Getenv("PORTAL_DEBUG") != "",
		DebugLogPath: os.Getenv("PORTAL_DEBUG_LOG"),
	}
}

// Validate checks the configuration for errors.
// Returns *ValidationError for invalid fields.
func (c *Config) Validate() error {
	if c.LocalPath == "" {
		return &ValidationError{Field: "LocalPath", Message: "required: path to cache database"}
	}
	if c.RemoteURL != "" && c.APIKey == "" {
		return &ValidationError{Field: "APIKey", Message: "required when RemoteURL is set"}
	}
	if c.MirrorTimeout < 0 {
		return &ValidationError{Field: "MirrorTimeout", Message: "must be non-negative"}
	}
	if c.SyncTimeout < 0 {
		return &ValidationError{Field: "SyncTimeout", Message: "must be non-negative"}
	}
	return nil
}

// IsOffline returns true if the client operates without a remote mirror.
func (c *Config) IsOffline() bool {
	return c.RemoteURL == ""
}

// WithDefaults fills in default values for unset fields.
func (c Config) WithDefaults() Config {
	defaults := DefaultConfig()

	if c.LocalPath == "" {
		c.LocalPath = defaults.LocalPath
	}
	if c.MirrorTimeout == 0 {
		c.MirrorTimeout = defaults.MirrorTimeout
	}
	if c.SyncTimeout == 0 {
		c.SyncTimeout = defaults.SyncTimeout
	}
	return c
}
