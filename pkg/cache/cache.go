// Package cache stores compiled module snapshots in SQLite, keyed by
// the source AST fingerprint. A hit skips compilation entirely; a
// module whose constants cannot be snapshotted is silently skipped.
package cache

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/vellum-lang/vellum/pkg/bytecode"
)

// ErrMiss indicates the fingerprint is not cached.
var ErrMiss = errors.New("module not cached")

// Cache is a SQLite-backed compiled module store.
type Cache struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens (or creates) a cache database.
func Open(path string) (*Cache, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS modules (
		fingerprint TEXT PRIMARY KEY,
		snapshot BLOB NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating modules table: %w", err)
	}

	return &Cache{db: db}, nil
}

// Close closes the cache database.
func (c *Cache) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Get loads the compiled module for a fingerprint. Returns ErrMiss
// when the fingerprint is unknown; a stale or corrupt snapshot is
// dropped and reported as a miss too.
func (c *Cache) Get(fingerprint string) (*bytecode.CompiledModule, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var snapshot []byte
	err := c.db.QueryRow(
		"SELECT snapshot FROM modules WHERE fingerprint = ?", fingerprint,
	).Scan(&snapshot)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMiss
		}
		return nil, fmt.Errorf("querying module: %w", err)
	}

	cm, err := bytecode.DecodeModule(snapshot)
	if err != nil {
		c.db.Exec("DELETE FROM modules WHERE fingerprint = ?", fingerprint)
		return nil, ErrMiss
	}
	return cm, nil
}

// Put stores a compiled module. Modules that cannot be snapshotted
// are skipped without error.
func (c *Cache) Put(cm *bytecode.CompiledModule) error {
	snapshot, err := bytecode.EncodeModule(cm)
	if err != nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.db.Exec(
		"INSERT OR REPLACE INTO modules (fingerprint, snapshot) VALUES (?, ?)",
		cm.Fingerprint, snapshot,
	); err != nil {
		return fmt.Errorf("storing module: %w", err)
	}
	return nil
}

// Len reports the number of cached modules.
func (c *Cache) Len() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var n int
	if err := c.db.QueryRow("SELECT COUNT(*) FROM modules").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting modules: %w", err)
	}
	return n, nil
}
