// Package cache stores HTTP response bodies in a SQLite database so repeated
// runs do not hit the network for the same lookups.
package cache

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Cache is a key/value store of response bodies.
// A nil *Cache is valid and never hits.
type Cache struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the cache database at path.
func Open(path string) (*Cache, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}

	return &Cache{db: db, now: time.Now}, nil
}

// Close closes the database connection.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.db.Close()
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS responses (
			key TEXT PRIMARY KEY,
			namespace TEXT NOT NULL,
			body BLOB NOT NULL,
			stored_at INTEGER NOT NULL
		);
	`)
	return err
}

// Key hashes a namespace and request identity into a cache key.
func Key(namespace, request string) string {
	sum := sha256.Sum256([]byte(namespace + "\x00" + request))
	return hex.EncodeToString(sum[:])
}

// Get returns the stored body for a request, if any.
func (c *Cache) Get(namespace, request string) ([]byte, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	var body []byte
	err := c.db.QueryRow(`SELECT body FROM responses WHERE key = ?`, Key(namespace, request)).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading cache: %w", err)
	}
	return body, true, nil
}

// Set stores a body, replacing any previous value for the same request.
func (c *Cache) Set(namespace, request string, body []byte) error {
	if c == nil {
		return nil
	}
	_, err := c.db.Exec(`
		INSERT INTO responses (key, namespace, body, stored_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET body = excluded.body, stored_at = excluded.stored_at`,
		Key(namespace, request), namespace, body, c.now().Unix())
	if err != nil {
		return fmt.Errorf("writing cache: %w", err)
	}
	return nil
}

// Count returns the number of cached responses in a namespace, or across all
// namespaces when namespace is empty.
func (c *Cache) Count(namespace string) (int, error) {
	if c == nil {
		return 0, nil
	}
	var n int
	var err error
	if namespace == "" {
		err = c.db.QueryRow(`SELECT COUNT(*) FROM responses`).Scan(&n)
	} else {
		err = c.db.QueryRow(`SELECT COUNT(*) FROM responses WHERE namespace = ?`, namespace).Scan(&n)
	}
	if err != nil {
		return 0, fmt.Errorf("counting cache entries: %w", err)
	}
	return n, nil
}

// Clear removes every cached response.
func (c *Cache) Clear() error {
	if c == nil {
		return nil
	}
	if _, err := c.db.Exec(`DELETE FROM responses`); err != nil {
		return fmt.Errorf("clearing cache: %w", err)
	}
	return nil
}
