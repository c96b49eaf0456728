package portalsync

import (
	"errors"
	"fmt"

	"github.com/ladupla/portalsync/internal/remote"
)

// Common errors returned by the portal sync layer.
var (
	// ErrNotFound is returned when a record is not found in the local cache.
	ErrNotFound = errors.New("record not found")

	// ErrStoreClosed is returned when operating on a closed store.
	ErrStoreClosed = errors.New("store is closed")

	// ErrRemoteUnavailable is returned when the remote mirror cannot be
	// reached (network, auth, or malformed response). It never means the
	// remote collection is empty.
	ErrRemoteUnavailable = remote.ErrUnavailable

	// ErrOffline is returned when a remote operation is attempted without a
	// configured mirror.
	ErrOffline = errors.New("operation unavailable in offline mode")

	// ErrAuthFailed is returned when login credentials match no cached user.
	ErrAuthFailed = errors.New("invalid credentials")

	// ErrClientSuspended is returned when a CLIENT-role login succeeds but
	// the bound client account is inactive.
	ErrClientSuspended = errors.New("client account suspended")

	// ErrNoSession is returned when no persisted session exists to restore.
	ErrNoSession = errors.New("no saved session")

	// ErrStaleRecord is returned by guarded saves when the stored record
	// changed since the caller loaded it.
	ErrStaleRecord = errors.New("record changed since it was loaded")

	// ErrInvalidKind is returned when an operation names an unknown
	// collection kind.
	ErrInvalidKind = errors.New("unknown collection kind")
)

// ValidationError is returned when a record or configuration field fails
// validation. Extractable via errors.As().
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// StoreError is returned when the local persistence medium rejects an
// operation. It is always fatal to the operation that triggered it and is
// never swallowed. Supports Unwrap().
type StoreError struct {
	Op   string
	Kind Kind
	Err  error
}

func (e *StoreError) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("store: %s %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// RemoteError describes a failed remote mirror call.
// It is an alias for the error type produced by the remote client so callers
// can use errors.As at the package boundary.
type RemoteError = remote.Error
