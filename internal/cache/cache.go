// Package cache provides a local bbolt-backed store for document metadata.
// It remembers the title and revision last seen for each document so later
// fetches can report whether a document changed in between.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

var documentsBucket = []byte("documents")

// Entry records what was last seen for one document.
type Entry struct {
	Title      string    `json:"title"`
	RevisionID string    `json:"revision_id"`
	CachedAt   time.Time `json:"cached_at"`
}

// Cache is a document metadata store backed by a single bbolt file.
type Cache struct {
	db *bolt.DB
}

// Open opens (creating if needed) the metadata database at path.
func Open(path string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("cache: failed to create directory: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("cache: failed to open %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, errBucket := tx.CreateBucketIfNotExists(documentsBucket)
		return errBucket
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("cache: failed to create bucket: %w", err)
	}
	return &Cache{db: db}, nil
}

// Close releases the database file.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Put stores the entry for a document, replacing any previous one.
func (c *Cache) Put(documentID string, entry Entry) error {
	if entry.CachedAt.IsZero() {
		entry.CachedAt = time.Now()
	}
	enc, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("cache: failed to marshal entry: %w", err)
	}
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(documentsBucket).Put([]byte(documentID), enc)
	})
}

// Get returns the stored entry for a document. The second result reports
// whether an entry existed.
func (c *Cache) Get(documentID string) (Entry, bool, error) {
	var entry Entry
	var found bool
	err := c.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(documentsBucket).Get([]byte(documentID))
		if raw == nil {
			return nil
		}
		if errUnmarshal := json.Unmarshal(raw, &entry); errUnmarshal != nil {
			// Treat a malformed entry as absent rather than failing the read.
			return nil
		}
		found = true
		return nil
	})
	return entry, found, err
}

// Delete removes the entry for a document. Missing entries are not an error.
func (c *Cache) Delete(documentID string) error {
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(documentsBucket).Delete([]byte(documentID))
	})
}

// All returns every stored entry keyed by document id. Malformed entries are
// skipped.
func (c *Cache) All() (map[string]Entry, error) {
	out := make(map[string]Entry)
	err := c.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(documentsBucket).ForEach(func(k, v []byte) error {
			var entry Entry
			if errUnmarshal := json.Unmarshal(v, &entry); errUnmarshal != nil {
				return nil
			}
			out[string(k)] = entry
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
