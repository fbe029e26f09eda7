package store

import (
	"database/sql"
	"errors"
	"time"
)

// Content is the narrow repository over the content-addressed body table.
type Content struct{ s *Store }

// NewContent returns the Content repository over s.
func NewContent(s *Store) *Content { return &Content{s: s} }

// Insert is idempotent: a duplicate hash is a no-op, never an error.
func (c *Content) Insert(hash, doc string) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	_, err := c.s.db.Exec(
		`INSERT INTO content (hash, doc, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(hash) DO NOTHING`,
		hash, doc, time.Now().Unix(),
	)
	return err
}

// Get returns the body for hash, or ("", false, nil) if absent.
func (c *Content) Get(hash string) (string, bool, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	var doc string
	err := c.s.db.QueryRow(`SELECT doc FROM content WHERE hash = ?`, hash).Scan(&doc)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return doc, true, nil
}
