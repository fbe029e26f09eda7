package store

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"math/rand"
	"time"
)

// Cache is the narrow repository over the LLM response cache table
// (ollama_cache in spec.md's data model).
type Cache struct{ s *Store }

// NewCache returns the Cache repository over s.
func NewCache(s *Store) *Cache { return &Cache{s: s} }

// GenerateKey returns SHA256(url ∥ canonicalJSON(body)) as a hex string
// (spec.md §4.2).
func GenerateKey(url string, body any) (string, error) {
	canonical, err := canonicalJSON(body)
	if err != nil {
		return "", err
	}
	h := sha256.New()
	h.Write([]byte(url))
	h.Write(canonical)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// canonicalJSON marshals v with map keys sorted, which encoding/json
// already guarantees for map[string]any; for arbitrary structs the field
// order is the struct's declared order, which is stable across calls.
func canonicalJSON(v any) ([]byte, error) {
	return json.Marshal(v)
}

// Get returns the cached result for key, or ("", false, nil) if absent.
func (c *Cache) Get(key string) (string, bool, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	var result string
	err := c.s.db.QueryRow(`SELECT result FROM ollama_cache WHERE hash = ?`, key).Scan(&result)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return result, true, nil
}

// DefaultMaxCacheEntries is the default cache bound for SetWithAutoCleanup.
const DefaultMaxCacheEntries = 1000

// cleanupProbability is the chance, on each write, that the cache is
// trimmed to maxEntries most-recently-created rows (spec.md §4.2).
const cleanupProbability = 0.01

// SetWithAutoCleanup writes (key, val) and, with 1% probability, trims the
// table down to the max most-recently-created entries.
func (c *Cache) SetWithAutoCleanup(key, val string, max int) error {
	if max <= 0 {
		max = DefaultMaxCacheEntries
	}
	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	_, err := c.s.db.Exec(
		`INSERT INTO ollama_cache (hash, result, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(hash) DO UPDATE SET result = excluded.result, created_at = excluded.created_at`,
		key, val, time.Now().Unix(),
	)
	if err != nil {
		return err
	}

	if rand.Float64() >= cleanupProbability {
		return nil
	}

	_, err = c.s.db.Exec(`
		DELETE FROM ollama_cache WHERE hash NOT IN (
			SELECT hash FROM ollama_cache ORDER BY created_at DESC LIMIT ?
		)`, max)
	return err
}

// Clear removes every cache entry (used on reindex/update per spec.md §3).
func (c *Cache) Clear() error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	_, err := c.s.db.Exec(`DELETE FROM ollama_cache`)
	return err
}
