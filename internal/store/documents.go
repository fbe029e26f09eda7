package store

import (
	"database/sql"
	"errors"
	"path"
	"strings"
	"time"
)

// Documents is the narrow repository over the documents table.
type Documents struct{ s *Store }

// NewDocuments returns the Documents repository over s.
func NewDocuments(s *Store) *Documents { return &Documents{s: s} }

// Create inserts an active document (spec.md §4.2).
func (d *Documents) Create(collectionID int64, p, title, hash string, modifiedAt time.Time) (*Document, error) {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	now := time.Now()
	res, err := d.s.db.Exec(
		`INSERT INTO documents (collection_id, path, title, hash, created_at, modified_at, active)
		 VALUES (?, ?, ?, ?, ?, ?, 1)`,
		collectionID, p, title, hash, now.Unix(), modifiedAt.Unix(),
	)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &Document{
		ID: id, CollectionID: collectionID, Path: p, Title: title, Hash: hash,
		CreatedAt: now, ModifiedAt: modifiedAt, Active: true,
	}, nil
}

// GetByPath returns the document at (collectionID, path) regardless of
// active state, or nil if absent.
func (d *Documents) GetByPath(collectionID int64, p string) (*Document, error) {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	row := d.s.db.QueryRow(
		`SELECT id, collection_id, path, title, hash, created_at, modified_at, active
		 FROM documents WHERE collection_id = ? AND path = ?`,
		collectionID, p,
	)
	return scanDocument(row)
}

// GetByID returns the document with the given id, or nil if absent.
func (d *Documents) GetByID(id int64) (*Document, error) {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	row := d.s.db.QueryRow(
		`SELECT id, collection_id, path, title, hash, created_at, modified_at, active FROM documents WHERE id = ?`, id,
	)
	return scanDocument(row)
}

// UpdateTitle updates title and modified_at (used when a file's bytes are
// unchanged but its extracted title differs).
func (d *Documents) UpdateTitle(id int64, title string, modifiedAt time.Time) error {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	_, err := d.s.db.Exec(`UPDATE documents SET title = ?, modified_at = ? WHERE id = ?`, title, modifiedAt.Unix(), id)
	return err
}

// UpdateContent updates hash, title, and modified_at when a file's bytes
// have changed.
func (d *Documents) UpdateContent(id int64, hash, title string, modifiedAt time.Time) error {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	_, err := d.s.db.Exec(
		`UPDATE documents SET hash = ?, title = ?, modified_at = ? WHERE id = ?`,
		hash, title, modifiedAt.Unix(), id,
	)
	return err
}

// Deactivate sets active=0 for a document that disappeared from disk.
func (d *Documents) Deactivate(id int64) error {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	_, err := d.s.db.Exec(`UPDATE documents SET active = 0 WHERE id = ?`, id)
	return err
}

// ListActivePaths returns the path of every active document in a
// collection, used by the Indexer to find documents to deactivate after
// a walk.
func (d *Documents) ListActivePaths(collectionID int64) (map[string]int64, error) {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	rows, err := d.s.db.Query(`SELECT id, path FROM documents WHERE collection_id = ? AND active = 1`, collectionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var id int64
		var p string
		if err := rows.Scan(&id, &p); err != nil {
			return nil, err
		}
		out[p] = id
	}
	return out, rows.Err()
}

// ListActive returns every active document, optionally filtered by
// collection name.
func (d *Documents) ListActive(collectionName string) ([]*Document, error) {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()

	query := `SELECT d.id, d.collection_id, d.path, d.title, d.hash, d.created_at, d.modified_at, d.active
	          FROM documents d`
	args := []any{}
	if collectionName != "" {
		query += ` JOIN collections c ON c.id = d.collection_id WHERE d.active = 1 AND c.name = ?`
		args = append(args, collectionName)
	} else {
		query += ` WHERE d.active = 1`
	}

	rows, err := d.s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

// ListActiveByHash returns every active document referencing hash across
// every collection. Content dedup (spec.md §3) means more than one
// addressable document — in the same collection or different ones — can
// share a hash; callers that resolve a single addressable document per
// search hit (spec.md §4.6.2 step 4) must consider all of them, not just
// the first one found.
func (d *Documents) ListActiveByHash(hash string) ([]*Document, error) {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	rows, err := d.s.db.Query(
		`SELECT d.id, d.collection_id, d.path, d.title, d.hash, d.created_at, d.modified_at, d.active
		 FROM documents d WHERE d.hash = ? AND d.active = 1`,
		hash,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		if doc != nil {
			out = append(out, doc)
		}
	}
	return out, rows.Err()
}

// CleanupOrphanedContent deletes every content row not referenced by any
// active document, and returns the count removed (spec.md §4.2).
func (d *Documents) CleanupOrphanedContent() (int, error) {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	res, err := d.s.db.Exec(`
		DELETE FROM content WHERE hash NOT IN (
			SELECT DISTINCT hash FROM documents WHERE active = 1
		)`)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func scanDocument(row rowScanner) (*Document, error) {
	var doc Document
	var createdAt, modifiedAt int64
	var active int
	err := row.Scan(&doc.ID, &doc.CollectionID, &doc.Path, &doc.Title, &doc.Hash, &createdAt, &modifiedAt, &active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	doc.CreatedAt = time.Unix(createdAt, 0)
	doc.ModifiedAt = time.Unix(modifiedAt, 0)
	doc.Active = active != 0
	return &doc, nil
}

// ComputeDisplayPaths computes the short, unique, human-facing identifier
// for each path in paths (spec.md §3, "display_path"): at least
// parent_dir/filename, prepending further ancestor directories until the
// result is unique across the input set. Input paths are assumed to be
// slash-separated and relative; fullPaths (same length, same order) gives
// the absolute filesystem fallback if no ancestor-extended suffix is
// unique (which cannot happen when the inputs themselves are distinct,
// but is kept for robustness against pathological duplicate inputs).
func ComputeDisplayPaths(paths []string, fullPaths []string) []string {
	n := len(paths)
	segs := make([][]string, n)
	for i, p := range paths {
		segs[i] = strings.Split(path.Clean(p), "/")
	}

	depth := make([]int, n)
	for i := range segs {
		depth[i] = 2
		if depth[i] > len(segs[i]) {
			depth[i] = len(segs[i])
		}
	}

	suffix := func(i int) string {
		parts := segs[i]
		d := depth[i]
		if d >= len(parts) {
			return strings.Join(parts, "/")
		}
		return strings.Join(parts[len(parts)-d:], "/")
	}

	out := make([]string, n)
	for {
		counts := make(map[string]int, n)
		for i := 0; i < n; i++ {
			counts[suffix(i)]++
		}

		changed := false
		allUnique := true
		for i := 0; i < n; i++ {
			s := suffix(i)
			if counts[s] > 1 {
				allUnique = false
				if depth[i] < len(segs[i]) {
					depth[i]++
					changed = true
				}
			}
		}
		if allUnique {
			for i := 0; i < n; i++ {
				out[i] = suffix(i)
			}
			break
		}
		if !changed {
			// Exhausted all ancestors for the colliding entries; fall back
			// to the absolute filesystem path where available.
			counts = make(map[string]int, n)
			for i := 0; i < n; i++ {
				counts[suffix(i)]++
			}
			for i := 0; i < n; i++ {
				s := suffix(i)
				if counts[s] > 1 && i < len(fullPaths) && fullPaths[i] != "" {
					out[i] = fullPaths[i]
				} else {
					out[i] = s
				}
			}
			break
		}
	}
	return out
}
