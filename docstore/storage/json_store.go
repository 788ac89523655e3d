// Package storage provides the persistence transport for collections: a
// whole-set JSON file store with atomic writes and cross-process file
// locking, plus the in-process LockManager used by the collection engine.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/docstore/docstore/types"
)

const (
	lockTimeout    = 3 * time.Second
	lockMaxRetries = 3
	lockRetryDelay = 100 * time.Millisecond
)

// fileEnvelope is the on-disk shape: the document sequence plus metadata.
type fileEnvelope struct {
	Version   string           `json:"version"`
	SavedAt   time.Time        `json:"saved_at"`
	Documents []types.Document `json:"documents"`
}

// JSONStore persists a collection's full document set as one JSON file.
// Load degrades to an empty set when the file is absent or unparsable;
// Save replaces the file atomically (temp file + rename) and propagates
// every failure.
type JSONStore struct {
	path        string
	fs          FileSystem
	lockFactory FileLockFactory
	fileLock    FileLock
	logger      *slog.Logger
}

// JSONStoreOption configures a JSONStore.
type JSONStoreOption func(*JSONStore)

// WithFileSystem substitutes the file system implementation, mainly for
// tests.
func WithFileSystem(fs FileSystem) JSONStoreOption {
	return func(s *JSONStore) { s.fs = fs }
}

// WithLockFactory substitutes the file lock implementation.
func WithLockFactory(f FileLockFactory) JSONStoreOption {
	return func(s *JSONStore) { s.lockFactory = f }
}

// WithStoreLogger sets the logger used to report recovered read failures.
func WithStoreLogger(l *slog.Logger) JSONStoreOption {
	return func(s *JSONStore) { s.logger = l }
}

// NewJSONStore creates a store for the given file path. The file is not
// touched until the first Load or Save.
func NewJSONStore(path string, opts ...JSONStoreOption) *JSONStore {
	s := &JSONStore{path: path}
	for _, opt := range opts {
		opt(s)
	}
	if s.fs == nil {
		s.fs = OSFileSystem{}
	}
	if s.lockFactory == nil {
		s.lockFactory = FlockFactory{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.fileLock = s.lockFactory.New(path + ".lock")
	return s
}

// Path returns the backing file path.
func (s *JSONStore) Path() string {
	return s.path
}

func (s *JSONStore) acquireLock(ctx context.Context) error {
	for i := 0; i < lockMaxRetries; i++ {
		locked, err := s.fileLock.TryLockContext(ctx, lockRetryDelay)
		if err != nil {
			return fmt.Errorf("failed to acquire lock: %w", err)
		}
		if locked {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(lockRetryDelay):
		}
	}
	return fmt.Errorf("failed to acquire lock after %d attempts", lockMaxRetries)
}

func (s *JSONStore) withLock(fn func() error) error {
	ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
	defer cancel()
	if err := s.acquireLock(ctx); err != nil {
		return err
	}
	defer func() { _ = s.fileLock.Unlock() }()
	return fn()
}

// Load reads the persisted document sequence. A missing, empty or corrupt
// file yields an empty sequence: a fresh collection is preferable to a
// hard failure on open, and the condition is logged so it is not silent.
func (s *JSONStore) Load() ([]types.Document, error) {
	var docs []types.Document
	err := s.withLock(func() error {
		data, err := s.fs.ReadFile(s.path)
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", s.path, err)
		}
		if len(data) == 0 {
			return nil
		}
		var envelope fileEnvelope
		if err := json.Unmarshal(data, &envelope); err != nil {
			s.logger.Warn("discarding unparsable store file",
				"path", s.path, "error", err)
			return nil
		}
		docs = envelope.Documents
		return nil
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// Save writes the entire document sequence, replacing whatever was
// persisted before. The write goes to a temp file first and is renamed
// into place so readers never observe a half-written file.
func (s *JSONStore) Save(docs []types.Document) error {
	return s.withLock(func() error {
		envelope := fileEnvelope{
			Version:   "1.0",
			SavedAt:   time.Now().UTC(),
			Documents: docs,
		}
		if envelope.Documents == nil {
			envelope.Documents = []types.Document{}
		}
		data, err := json.MarshalIndent(envelope, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal documents: %w", err)
		}
		tmp := s.path + ".tmp"
		if err := s.fs.WriteFile(tmp, data, 0o644); err != nil {
			return fmt.Errorf("failed to write temp file: %w", err)
		}
		if err := s.fs.Rename(tmp, s.path); err != nil {
			_ = s.fs.Remove(tmp)
			return fmt.Errorf("failed to replace store file: %w", err)
		}
		return nil
	})
}

// Close removes the lock file. The data file is already durable; nothing
// is flushed here.
func (s *JSONStore) Close() error {
	_ = s.fs.Remove(s.path + ".lock")
	return nil
}
