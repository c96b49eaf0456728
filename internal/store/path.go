// Package store holds filesystem conventions and schema migrations for the
// local portal cache.
package store

import (
	"os"
	"path/filepath"
)

// DefaultDataRoot returns the directory holding the local cache.
// Defaults to ~/.portalsync, falls back to ./.portalsync if the home
// directory is unavailable.
func DefaultDataRoot() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		cwd, _ := os.Getwd()
		return filepath.Join(cwd, ".portalsync")
	}
	return filepath.Join(home, ".portalsync")
}

// DefaultDBPath returns the full path to the local cache database file.
func DefaultDBPath() string {
	return filepath.Join(DefaultDataRoot(), "portal.db")
}
