// Package store persists the entire workflow state as one JSON document
// guarded by a cross-process advisory file lock. The router holds the lock
// for the whole read-modify-write cycle of a message, which serializes
// concurrent deliveries on the same thread and prevents lost updates.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/models"
)

// SchemaVersion is written into every saved document. Loading a document
// with a higher version fails: downgrades are not supported.
const SchemaVersion = "1"

// DefaultLockRetry is the poll interval while waiting on the file lock.
const DefaultLockRetry = 25 * time.Millisecond

var logger = slog.With("component", "store")

// Database is the complete persisted state.
type Database struct {
	Events        []*models.Event  `json:"events"`
	Clients       []*models.Client `json:"clients"`
	Tasks         []*models.Task   `json:"tasks"`
	Config        models.Settings  `json:"config"`
	SchemaVersion string           `json:"schema_version"`
}

// Store owns one document path and its sidecar lock.
type Store struct {
	path      string
	lock      *flock.Flock
	lockRetry time.Duration
	// sem serializes goroutines sharing this instance; the flock alone
	// only fences other processes.
	sem chan struct{}
}

// New creates a store for the given document path. The lock sidecar lives
// at path + ".lock".
func New(path string) *Store {
	return &Store{
		path:      path,
		lock:      flock.New(path + ".lock"),
		lockRetry: DefaultLockRetry,
		sem:       make(chan struct{}, 1),
	}
}

// Path returns the document path this store persists to.
func (s *Store) Path() string {
	return s.path
}

// Acquire blocks until both the in-process slot and the cross-process
// file lock are held, or ctx is done. The returned release function must
// be called exactly once.
func (s *Store) Acquire(ctx context.Context) (func(), error) {
	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", ErrLockNotAcquired, ctx.Err())
	}

	ok, err := s.lock.TryLockContext(ctx, s.lockRetry)
	if err != nil {
		<-s.sem
		return nil, fmt.Errorf("%w: %v", ErrLockNotAcquired, err)
	}
	if !ok {
		<-s.sem
		return nil, ErrLockNotAcquired
	}
	return func() {
		if err := s.lock.Unlock(); err != nil {
			logger.Error("failed to release store lock", "path", s.path, "error", err)
		}
		<-s.sem
	}, nil
}

// Load reads the document. A missing file yields a fresh empty database;
// a document from a newer schema is rejected.
func (s *Store) Load() (*Database, error) {
	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return &Database{SchemaVersion: SchemaVersion}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read store at %s: %w", s.path, err)
	}

	var db Database
	if err := json.Unmarshal(raw, &db); err != nil {
		return nil, fmt.Errorf("failed to decode store at %s: %w", s.path, err)
	}

	switch db.SchemaVersion {
	case "", SchemaVersion:
		db.SchemaVersion = SchemaVersion
	default:
		return nil, &SchemaVersionError{Found: db.SchemaVersion, Supported: SchemaVersion}
	}
	return &db, nil
}

// Save writes the document atomically: a temp file in the same directory
// is renamed over the target, so readers never observe a partial write.
func (s *Store) Save(db *Database) error {
	db.SchemaVersion = SchemaVersion

	raw, err := json.MarshalIndent(db, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode store: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp store file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write temp store file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close temp store file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to replace store file: %w", err)
	}
	return nil
}

// WithLock runs fn on the loaded database under the lock and saves the
// result when fn succeeds. Convenience for callers outside the router's
// custom persist path.
func (s *Store) WithLock(ctx context.Context, fn func(*Database) error) error {
	release, err := s.Acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	db, err := s.Load()
	if err != nil {
		return err
	}
	if err := fn(db); err != nil {
		return err
	}
	return s.Save(db)
}
