package docstore

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/docstore/docstore/docstore/storage"
)

// Database is a directory of collections, one JSON file per collection.
// Collections are created lazily on first access and cached for the
// database's lifetime.
type Database struct {
	dir      string
	logger   *slog.Logger
	timeFunc func() time.Time

	mu          sync.Mutex
	collections map[string]*Collection
}

// DatabaseOption configures a Database.
type DatabaseOption func(*Database)

// WithDatabaseLogger sets the logger handed to collections and stores.
func WithDatabaseLogger(l *slog.Logger) DatabaseOption {
	return func(db *Database) { db.logger = l }
}

// WithDatabaseTimeFunc overrides the clock for all collections opened
// through this database.
func WithDatabaseTimeFunc(fn func() time.Time) DatabaseOption {
	return func(db *Database) { db.timeFunc = fn }
}

// Open creates the directory if needed and returns a database over it.
func Open(dir string, opts ...DatabaseOption) (*Database, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	db := &Database{
		dir:         dir,
		logger:      slog.Default(),
		timeFunc:    time.Now,
		collections: make(map[string]*Collection),
	}
	for _, opt := range opts {
		opt(db)
	}
	return db, nil
}

// Dir returns the database directory.
func (db *Database) Dir() string {
	return db.dir
}

// Collection returns the named collection, loading it from its backing
// file on first access.
func (db *Database) Collection(name string) *Collection {
	db.mu.Lock()
	defer db.mu.Unlock()
	if c, ok := db.collections[name]; ok {
		return c
	}
	store := storage.NewJSONStore(db.collectionPath(name),
		storage.WithStoreLogger(db.logger))
	c := NewCollection(name, store,
		WithLogger(db.logger), WithTimeFunc(db.timeFunc))
	db.collections[name] = c
	return c
}

// Collections enumerates collection names from the directory's JSON files,
// sorted for stable output.
func (db *Database) Collections() ([]string, error) {
	entries, err := os.ReadDir(db.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read database directory: %w", err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), ".json"))
	}
	sort.Strings(names)
	return names, nil
}

// DropCollection removes a collection's backing file and forgets the
// cached instance. Dropping an absent collection is not an error.
func (db *Database) DropCollection(name string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	delete(db.collections, name)
	path := db.collectionPath(name)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to drop collection %q: %w", name, err)
	}
	_ = os.Remove(path + ".lock")
	return nil
}

func (db *Database) collectionPath(name string) string {
	return filepath.Join(db.dir, name+".json")
}
