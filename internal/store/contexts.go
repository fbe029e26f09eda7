package store

import (
	"database/sql"
	"errors"
	"strings"
	"time"
)

// Contexts is the narrow repository over the path_contexts table.
type Contexts struct{ s *Store }

// NewContexts returns the Contexts repository over s.
func NewContexts(s *Store) *Contexts { return &Contexts{s: s} }

// Upsert creates or replaces the context for (collectionID, prefix).
func (c *Contexts) Upsert(collectionID int64, prefix, context string) (*PathContext, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	now := time.Now()
	_, err := c.s.db.Exec(
		`INSERT INTO path_contexts (collection_id, path_prefix, context, created_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(collection_id, path_prefix) DO UPDATE SET context = excluded.context`,
		collectionID, prefix, context, now.Unix(),
	)
	if err != nil {
		return nil, err
	}

	row := c.s.db.QueryRow(
		`SELECT id, collection_id, path_prefix, context, created_at FROM path_contexts
		 WHERE collection_id = ? AND path_prefix = ?`,
		collectionID, prefix,
	)
	return scanPathContext(row)
}

// Delete removes the context for (collectionID, prefix).
func (c *Contexts) Delete(collectionID int64, prefix string) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	_, err := c.s.db.Exec(`DELETE FROM path_contexts WHERE collection_id = ? AND path_prefix = ?`, collectionID, prefix)
	return err
}

// ListByCollection returns every context for a collection, ordered by id
// (insertion order), which callers rely on for tie-breaking.
func (c *Contexts) ListByCollection(collectionID int64) ([]*PathContext, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	rows, err := c.s.db.Query(
		`SELECT id, collection_id, path_prefix, context, created_at FROM path_contexts
		 WHERE collection_id = ? ORDER BY id ASC`,
		collectionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*PathContext
	for rows.Next() {
		pc, err := scanPathContext(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, pc)
	}
	return out, rows.Err()
}

// GetContextForPath returns the context of the longest path_prefix p such
// that path == p or path starts with p+"/", or the empty-string prefix if
// present, with ties (same prefix length, shouldn't happen due to the
// unique index) broken by insertion order (spec.md §4.2, §8 scenario 6).
func (c *Contexts) GetContextForPath(collectionID int64, docPath string) (string, bool, error) {
	contexts, err := c.ListByCollection(collectionID)
	if err != nil {
		return "", false, err
	}

	bestIdx := -1
	bestLen := -1
	for i, pc := range contexts {
		if !matchesPrefix(docPath, pc.PathPrefix) {
			continue
		}
		if len(pc.PathPrefix) > bestLen {
			bestLen = len(pc.PathPrefix)
			bestIdx = i
		}
	}
	if bestIdx == -1 {
		return "", false, nil
	}
	return contexts[bestIdx].Context, true, nil
}

func matchesPrefix(docPath, prefix string) bool {
	if prefix == "" {
		return true
	}
	return docPath == prefix || strings.HasPrefix(docPath, prefix+"/")
}

func scanPathContext(row rowScanner) (*PathContext, error) {
	var pc PathContext
	var createdAt int64
	err := row.Scan(&pc.ID, &pc.CollectionID, &pc.PathPrefix, &pc.Context, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	pc.CreatedAt = time.Unix(createdAt, 0)
	return &pc, nil
}
