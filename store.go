package portalsync

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ladupla/portalsync/internal/store/migrations"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

const schemaVersion = "1"

const (
	metadataKeySchemaVersion = "schema_version"
	metadataKeyLastSync      = "last_sync"
	metadataKeySession       = "session"
)

// RawRecord is a cached record as the Local Store sees it: identity, JSON
// document, mirror status, and the last local write time.
type RawRecord struct {
	ID           string
	Data         json.RawMessage
	MirrorStatus MirrorStatus
	UpdatedAt    time.Time
}

// Store is the durable local cache: one ordered collection per entity kind,
// backed by SQLite. Reads of never-initialized collections return empty
// sequences, never errors.
type Store struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
	path   string
}

// NewStore opens or creates the local cache at the given path.
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, &StoreError{Op: "create directory", Err: err}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &StoreError{Op: "open database", Err: err}
	}

	// WAL keeps readers unblocked during collection overwrites.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, &StoreError{Op: "enable WAL mode", Err: err}
	}

	store := &Store{db: db, path: path}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

func (s *Store) migrate() error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return &StoreError{Op: "set goose dialect", Err: err}
	}
	if err := goose.Up(s.db, "."); err != nil {
		return &StoreError{Op: "run migrations", Err: err}
	}

	_, err := s.db.Exec(`
		INSERT OR IGNORE INTO metadata (key, value) VALUES (?, ?)
	`, metadataKeySchemaVersion, schemaVersion)
	if err != nil {
		return &StoreError{Op: "set schema version", Err: err}
	}
	return nil
}

// ReadCollection returns the full collection in insertion order. A collection
// that has never been written yields an empty slice; only infrastructure
// failures (closed store, I/O) produce errors.
func (s *Store) ReadCollection(kind Kind) ([]RawRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}
	if !kind.IsValid() {
		return nil, ErrInvalidKind
	}

	rows, err := s.db.Query(`
		SELECT id, data, mirror_status, updated_at
		FROM records WHERE kind = ? ORDER BY position
	`, string(kind))
	if err != nil {
		return nil, &StoreError{Op: "read", Kind: kind, Err: err}
	}
	defer rows.Close()

	records := []RawRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, &StoreError{Op: "read", Kind: kind, Err: err}
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &StoreError{Op: "read", Kind: kind, Err: err}
	}
	return records, nil
}

// Get retrieves a single record by identity. Returns ErrNotFound when the
// identity is absent from the collection.
func (s *Store) Get(kind Kind, id string) (*RawRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	row := s.db.QueryRow(`
		SELECT id, data, mirror_status, updated_at
		FROM records WHERE kind = ? AND id = ?
	`, string(kind), id)

	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, &StoreError{Op: "get", Kind: kind, Err: err}
	}
	return &rec, nil
}

// ReplaceCollection swaps the entire collection in one transaction, so
// concurrent readers see either the old or the new state, never a partial
// write. Record positions are reassigned in slice order; each record's
// mirror status is honored (defaulting to pending).
func (s *Store) ReplaceCollection(kind Kind, records []RawRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}
	if !kind.IsValid() {
		return ErrInvalidKind
	}

	tx, err := s.db.Begin()
	if err != nil {
		return &StoreError{Op: "replace", Kind: kind, Err: err}
	}
	defer tx.Rollback() // no-op if committed

	if _, err := tx.Exec(`DELETE FROM records WHERE kind = ?`, string(kind)); err != nil {
		return &StoreError{Op: "replace", Kind: kind, Err: err}
	}

	now := time.Now().UTC()
	for i, rec := range records {
		status := rec.MirrorStatus
		if status == "" {
			status = MirrorPending
		}
		updatedAt := rec.UpdatedAt
		if updatedAt.IsZero() {
			updatedAt = now
		}
		_, err := tx.Exec(`
			INSERT INTO records (kind, id, position, data, mirror_status, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, string(kind), rec.ID, i, []byte(rec.Data), string(status), updatedAt.Format(time.RFC3339Nano))
		if err != nil {
			return &StoreError{Op: "replace", Kind: kind, Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return &StoreError{Op: "replace", Kind: kind, Err: err}
	}
	return nil
}

// Upsert replaces the record with matching identity in place or appends it
// at the end of the collection. Positions of unrelated records are preserved.
// The record is marked mirror-pending.
func (s *Store) Upsert(kind Kind, rec RawRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.upsertLocked(kind, rec, nil)
}

// UpsertIfUnchanged is Upsert guarded by an optimistic concurrency check:
// it fails with ErrStaleRecord when the stored record's last write time does
// not match base. A missing record passes the check (fresh insert).
func (s *Store) UpsertIfUnchanged(kind Kind, rec RawRecord, base time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.upsertLocked(kind, rec, &base)
}

func (s *Store) upsertLocked(kind Kind, rec RawRecord, base *time.Time) error {
	if s.closed {
		return ErrStoreClosed
	}
	if !kind.IsValid() {
		return ErrInvalidKind
	}
	if rec.ID == "" {
		return &ValidationError{Field: "id", Message: "required"}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return &StoreError{Op: "upsert", Kind: kind, Err: err}
	}
	defer tx.Rollback()

	if base != nil {
		var storedAt string
		err := tx.QueryRow(`
			SELECT updated_at FROM records WHERE kind = ? AND id = ?
		`, string(kind), rec.ID).Scan(&storedAt)
		if err != nil && err != sql.ErrNoRows {
			return &StoreError{Op: "upsert", Kind: kind, Err: err}
		}
		if err == nil {
			stored, parseErr := time.Parse(time.RFC3339Nano, storedAt)
			if parseErr != nil || !stored.Equal(*base) {
				return ErrStaleRecord
			}
		}
	}

	now := time.Now().UTC()
	res, err := tx.Exec(`
		UPDATE records SET data = ?, mirror_status = ?, updated_at = ?
		WHERE kind = ? AND id = ?
	`, []byte(rec.Data), string(MirrorPending), now.Format(time.RFC3339Nano), string(kind), rec.ID)
	if err != nil {
		return &StoreError{Op: "upsert", Kind: kind, Err: err}
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return &StoreError{Op: "upsert", Kind: kind, Err: err}
	}
	if affected == 0 {
		_, err = tx.Exec(`
			INSERT INTO records (kind, id, position, data, mirror_status, updated_at)
			VALUES (?, ?, (SELECT COALESCE(MAX(position), -1) + 1 FROM records WHERE kind = ?), ?, ?, ?)
		`, string(kind), rec.ID, string(kind), []byte(rec.Data), string(MirrorPending), now.Format(time.RFC3339Nano))
		if err != nil {
			return &StoreError{Op: "upsert", Kind: kind, Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return &StoreError{Op: "upsert", Kind: kind, Err: err}
	}
	return nil
}

// UpsertAll applies a batch of upserts in one transaction.
func (s *Store) UpsertAll(kind Kind, records []RawRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range records {
		if err := s.upsertLocked(kind, rec, nil); err != nil {
			return err
		}
	}
	return nil
}

// Remove filters the identity out of the collection. Removing an absent
// identity is not an error.
func (s *Store) Remove(kind Kind, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}
	if !kind.IsValid() {
		return ErrInvalidKind
	}

	if _, err := s.db.Exec(`
		DELETE FROM records WHERE kind = ? AND id = ?
	`, string(kind), id); err != nil {
		return &StoreError{Op: "remove", Kind: kind, Err: err}
	}
	return nil
}

// Pending returns records of the kind still awaiting a remote mirror write.
func (s *Store) Pending(kind Kind) ([]RawRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	rows, err := s.db.Query(`
		SELECT id, data, mirror_status, updated_at
		FROM records WHERE kind = ? AND mirror_status = ? ORDER BY position
	`, string(kind), string(MirrorPending))
	if err != nil {
		return nil, &StoreError{Op: "pending", Kind: kind, Err: err}
	}
	defer rows.Close()

	records := []RawRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, &StoreError{Op: "pending", Kind: kind, Err: err}
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// MarkMirrored flags records as acknowledged by the remote mirror.
func (s *Store) MarkMirrored(kind Kind, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}
	if len(ids) == 0 {
		return nil
	}

	placeholders := make([]string, len(ids))
	args := []any{string(MirrorSynced), string(kind)}
	for i, id := range ids {
		placeholders[i] = "?"
		args = append(args, id)
	}

	query := fmt.Sprintf(
		`UPDATE records SET mirror_status = ? WHERE kind = ? AND id IN (%s)`,
		strings.Join(placeholders, ","),
	)
	if _, err := s.db.Exec(query, args...); err != nil {
		return &StoreError{Op: "mark mirrored", Kind: kind, Err: err}
	}
	return nil
}

// GetMetadata reads a metadata slot. Returns an empty string for unset keys.
func (s *Store) GetMetadata(key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return "", ErrStoreClosed
	}

	var value string
	err := s.db.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", &StoreError{Op: "get metadata", Err: err}
	}
	return value, nil
}

// SetMetadata writes a metadata slot.
func (s *Store) SetMetadata(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	_, err := s.db.Exec(`
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return &StoreError{Op: "set metadata", Err: err}
	}
	return nil
}

// DeleteMetadata clears a metadata slot.
func (s *Store) DeleteMetadata(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	if _, err := s.db.Exec(`DELETE FROM metadata WHERE key = ?`, key); err != nil {
		return &StoreError{Op: "delete metadata", Err: err}
	}
	return nil
}

// Stats returns cache statistics.
func (s *Store) Stats() (*StoreStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	counts := make(map[Kind]int, len(Kinds()))
	for _, kind := range Kinds() {
		var count int
		if err := s.db.QueryRow(
			`SELECT COUNT(*) FROM records WHERE kind = ?`, string(kind),
		).Scan(&count); err != nil {
			return nil, &StoreError{Op: "stats", Kind: kind, Err: err}
		}
		counts[kind] = count
	}

	var pending int
	if err := s.db.QueryRow(
		`SELECT COUNT(*) FROM records WHERE mirror_status = ?`, string(MirrorPending),
	).Scan(&pending); err != nil {
		return nil, &StoreError{Op: "stats", Err: err}
	}

	var lastSyncStr sql.NullString
	s.db.QueryRow(`SELECT value FROM metadata WHERE key = ?`, metadataKeyLastSync).Scan(&lastSyncStr)

	var lastSync time.Time
	if lastSyncStr.Valid {
		lastSync, _ = time.Parse(time.RFC3339, lastSyncStr.String)
	}

	return &StoreStats{
		RecordCounts:  counts,
		PendingMirror: pending,
		LastSync:      lastSync,
		SchemaVersion: schemaVersion,
	}, nil
}

// Close closes the store.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	return s.db.Close()
}

// scanner abstracts the Scan method shared by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (RawRecord, error) {
	var (
		rec       RawRecord
		data      []byte
		status    string
		updatedAt string
	)
	if err := sc.Scan(&rec.ID, &data, &status, &updatedAt); err != nil {
		return RawRecord{}, err
	}
	rec.Data = data
	rec.MirrorStatus = MirrorStatus(status)
	rec.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return rec, nil
}
