package store

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"time"
)

// migrateLegacyIfNeeded detects a pre-existing flat schema — "table
// documents exists and table content does not" — and folds it into the
// content-addressed schema as one atomic unit of work (spec.md §4.1).
// On any failure the transaction rolls back and the original flat schema
// is left untouched.
func (s *Store) migrateLegacyIfNeeded() error {
	legacy, err := s.hasLegacySchema()
	if err != nil {
		return err
	}
	if !legacy {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`ALTER TABLE documents RENAME TO documents_legacy`); err != nil {
		return err
	}
	if _, err := tx.Exec(`ALTER TABLE collections RENAME TO collections_legacy`); err != nil {
		return err
	}

	for _, stmt := range schemaStatements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("create schema during migration: %w", err)
		}
	}

	now := time.Now().Unix()

	// Regenerate collections, resolving name collisions by appending -{id}.
	rows, err := tx.Query(`SELECT id, pwd, glob_pattern, created_at FROM collections_legacy`)
	if err != nil {
		return err
	}
	type legacyCollection struct {
		id         int64
		pwd, glob  string
		createdAt  int64
	}
	var collections []legacyCollection
	for rows.Next() {
		var c legacyCollection
		if err := rows.Scan(&c.id, &c.pwd, &c.glob, &c.createdAt); err != nil {
			rows.Close()
			return err
		}
		collections = append(collections, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	usedNames := map[string]bool{}
	pwdByCollection := make(map[int64]string, len(collections))
	for _, c := range collections {
		base := filepath.Base(c.pwd)
		name := base
		if usedNames[name] {
			name = fmt.Sprintf("%s-%d", base, c.id)
		}
		usedNames[name] = true
		pwdByCollection[c.id] = c.pwd

		if _, err := tx.Exec(
			`INSERT INTO collections (id, name, pwd, glob_pattern, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
			c.id, name, c.pwd, c.glob, c.createdAt, now,
		); err != nil {
			return fmt.Errorf("insert migrated collection %d: %w", c.id, err)
		}
	}

	// Fold duplicate bodies into content by hash, earliest created_at wins.
	docRows, err := tx.Query(`
		SELECT id, collection_id, path, title, body, hash, created_at, modified_at, active
		FROM documents_legacy`)
	if err != nil {
		return err
	}
	defer docRows.Close()

	for docRows.Next() {
		var id, collectionID int64
		var path, title, body, hash string
		var createdAt, modifiedAt int64
		var active int
		if err := docRows.Scan(&id, &collectionID, &path, &title, &body, &hash, &createdAt, &modifiedAt, &active); err != nil {
			return err
		}

		if err := upsertContentEarliest(tx, hash, body, createdAt); err != nil {
			return err
		}

		relPath, err := relativizeLegacyPath(pwdByCollection[collectionID], path)
		if err != nil {
			return fmt.Errorf("rebase migrated document %d path: %w", id, err)
		}

		if _, err := tx.Exec(
			`INSERT INTO documents (id, collection_id, path, title, hash, created_at, modified_at, active)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			id, collectionID, relPath, title, hash, createdAt, modifiedAt, active,
		); err != nil {
			return fmt.Errorf("insert migrated document %d: %w", id, err)
		}
	}
	if err := docRows.Err(); err != nil {
		return err
	}

	if _, err := tx.Exec(`DROP TABLE documents_legacy`); err != nil {
		return err
	}
	if _, err := tx.Exec(`DROP TABLE collections_legacy`); err != nil {
		return err
	}

	return tx.Commit()
}

// relativizeLegacyPath derives a document path relative to its
// collection's pwd (spec.md §4.1), matching the slash-separated,
// forward-slash convention internal/walker produces for freshly indexed
// files. The legacy flat schema stored absolute filesystem paths; if p
// is already relative (or pwd is unknown) it is returned cleaned as-is.
func relativizeLegacyPath(pwd, p string) (string, error) {
	if pwd == "" || !filepath.IsAbs(p) {
		return filepath.ToSlash(filepath.Clean(p)), nil
	}
	rel, err := filepath.Rel(pwd, p)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

func upsertContentEarliest(tx *sql.Tx, hash, body string, createdAt int64) error {
	var existing int64
	err := tx.QueryRow(`SELECT created_at FROM content WHERE hash = ?`, hash).Scan(&existing)
	switch {
	case err == sql.ErrNoRows:
		_, err := tx.Exec(`INSERT INTO content (hash, doc, created_at) VALUES (?, ?, ?)`, hash, body, createdAt)
		return err
	case err != nil:
		return err
	default:
		if createdAt < existing {
			_, err := tx.Exec(`UPDATE content SET created_at = ? WHERE hash = ?`, createdAt, hash)
			return err
		}
		return nil
	}
}

// hasLegacySchema reports whether the flat pre-migration schema is present:
// table `documents` exists (with a `body` column) and table `content` does
// not.
func (s *Store) hasLegacySchema() (bool, error) {
	hasDocuments, err := s.tableExists("documents")
	if err != nil {
		return false, err
	}
	if !hasDocuments {
		return false, nil
	}
	hasContent, err := s.tableExists("content")
	if err != nil {
		return false, err
	}
	if hasContent {
		return false, nil
	}
	hasBody, err := s.columnExists("documents", "body")
	if err != nil {
		return false, err
	}
	return hasBody, nil
}

func (s *Store) tableExists(name string) (bool, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type IN ('table','view') AND name = ?`, name).Scan(&count)
	return count > 0, err
}

func (s *Store) columnExists(table, column string) (bool, error) {
	rows, err := s.db.Query(fmt.Sprintf(`PRAGMA table_info(%s)`, table))
	if err != nil {
		return false, err
	}
	defer rows.Close()
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}
