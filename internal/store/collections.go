package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	qmderrors "github.com/qmd-dev/qmd/internal/errors"
)

// Collections is the narrow repository over the collections table.
type Collections struct{ s *Store }

// NewCollections returns the Collections repository over s.
func NewCollections(s *Store) *Collections { return &Collections{s: s} }

// GetOrCreate returns the collection keyed by (pwd, glob), creating it
// with an auto-generated, de-duplicated name if absent (spec.md §3, §4.4).
func (c *Collections) GetOrCreate(pwd, glob, autoName string) (*Collection, bool, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	existing, err := c.getByPwdGlobLocked(pwd, glob)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	name, err := c.uniqueNameLocked(autoName)
	if err != nil {
		return nil, false, err
	}

	now := time.Now()
	res, err := c.s.db.Exec(
		`INSERT INTO collections (name, pwd, glob_pattern, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		name, pwd, glob, now.Unix(), now.Unix(),
	)
	if err != nil {
		return nil, false, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, false, err
	}
	return &Collection{ID: id, Name: name, Pwd: pwd, GlobPattern: glob, CreatedAt: now, UpdatedAt: now}, true, nil
}

// uniqueNameLocked appends -N (starting at 2) until base is unique.
// Caller must hold s.mu.
func (c *Collections) uniqueNameLocked(base string) (string, error) {
	name := base
	for n := 2; ; n++ {
		var count int
		if err := c.s.db.QueryRow(`SELECT COUNT(*) FROM collections WHERE name = ?`, name).Scan(&count); err != nil {
			return "", err
		}
		if count == 0 {
			return name, nil
		}
		name = fmt.Sprintf("%s-%d", base, n)
	}
}

func (c *Collections) getByPwdGlobLocked(pwd, glob string) (*Collection, error) {
	row := c.s.db.QueryRow(
		`SELECT id, name, pwd, glob_pattern, created_at, updated_at FROM collections WHERE pwd = ? AND glob_pattern = ?`,
		pwd, glob,
	)
	return scanCollection(row)
}

// GetByName returns the collection named name, or nil if absent.
func (c *Collections) GetByName(name string) (*Collection, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	row := c.s.db.QueryRow(
		`SELECT id, name, pwd, glob_pattern, created_at, updated_at FROM collections WHERE name = ?`, name,
	)
	return scanCollection(row)
}

// GetByID returns the collection with the given id, or nil if absent.
func (c *Collections) GetByID(id int64) (*Collection, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	row := c.s.db.QueryRow(
		`SELECT id, name, pwd, glob_pattern, created_at, updated_at FROM collections WHERE id = ?`, id,
	)
	return scanCollection(row)
}

// Rename changes a collection's name. Fails with a ValidationError and no
// mutation if the new name is already taken by a different collection.
func (c *Collections) Rename(id int64, newName string) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	var existingID int64
	err := c.s.db.QueryRow(`SELECT id FROM collections WHERE name = ?`, newName).Scan(&existingID)
	if err == nil && existingID != id {
		return qmderrors.Validation(qmderrors.CodeDuplicateCollection, fmt.Sprintf("collection name %q already in use", newName))
	}
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	_, err = c.s.db.Exec(`UPDATE collections SET name = ?, updated_at = ? WHERE id = ?`, newName, time.Now().Unix(), id)
	return err
}

// TouchUpdatedAt sets collection.updated_at to now, called at the end of
// an indexing run (spec.md §4.4 step 6).
func (c *Collections) TouchUpdatedAt(id int64) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	_, err := c.s.db.Exec(`UPDATE collections SET updated_at = ? WHERE id = ?`, time.Now().Unix(), id)
	return err
}

// Delete removes a collection; ON DELETE CASCADE removes its documents and
// path contexts.
func (c *Collections) Delete(id int64) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	_, err := c.s.db.Exec(`DELETE FROM collections WHERE id = ?`, id)
	return err
}

// List returns every collection, ordered by name.
func (c *Collections) List() ([]*Collection, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	rows, err := c.s.db.Query(`SELECT id, name, pwd, glob_pattern, created_at, updated_at FROM collections ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Collection
	for rows.Next() {
		col, err := scanCollectionRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, col)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCollection(row rowScanner) (*Collection, error) {
	var col Collection
	var createdAt, updatedAt int64
	err := row.Scan(&col.ID, &col.Name, &col.Pwd, &col.GlobPattern, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	col.CreatedAt = time.Unix(createdAt, 0)
	col.UpdatedAt = time.Unix(updatedAt, 0)
	return &col, nil
}

func scanCollectionRows(rows *sql.Rows) (*Collection, error) {
	return scanCollection(rows)
}
