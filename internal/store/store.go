// Package store is qmd's persistence layer: a single embedded SQLite
// database holding content-addressed document bodies, collections,
// documents, path contexts, chunk embeddings, and an LLM response cache,
// plus the full-text and vector indexes layered over them.
//
// Grounded on the teacher's internal/store/sqlite_bm25.go connection and
// pragma setup (modernc.org/sqlite, WAL, busy_timeout, single writer).
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/qmd-dev/qmd/internal/errors"
)

// Store owns the single SQLite connection and all repository access to it.
// Store access is single-threaded per connection (spec.md §5): every
// exported method takes the internal mutex before touching db.
type Store struct {
	mu     sync.Mutex
	db     *sql.DB
	path   string
	logger *slog.Logger

	vectors *vectorIndex // in-memory mirror of vectors_vec, see vectors.go
}

// Open creates or opens the database at path, running the legacy-schema
// migration (if detected) and then the current schema, each inside its
// own transaction so a failure in either step rolls that step back
// (spec.md §4.1, §7).
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, errors.Fatal(errors.CodeStoreOpenFailed, "cannot create database directory", err)
			}
		}
	}

	dsn := path
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Fatal(errors.CodeStoreOpenFailed, "cannot open database", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, errors.Fatal(errors.CodeStoreOpenFailed, fmt.Sprintf("pragma failed: %s", pragma), err)
		}
	}

	s := &Store{db: db, path: path, logger: logger}

	if err := s.migrateLegacyIfNeeded(); err != nil {
		_ = db.Close()
		return nil, errors.Fatal(errors.CodeMigrationFailed, "legacy migration failed", err)
	}

	if err := s.ensureSchema(); err != nil {
		_ = db.Close()
		return nil, errors.Fatal(errors.CodeStoreOpenFailed, "schema creation failed", err)
	}

	s.vectors = newVectorIndex()
	if err := s.vectors.loadFromDB(db); err != nil {
		_ = db.Close()
		return nil, errors.Fatal(errors.CodeStoreOpenFailed, "vector index load failed", err)
	}

	return s, nil
}

func (s *Store) ensureSchema() error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	for _, stmt := range schemaStatements {
		if _, err := tx.Exec(stmt); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("exec %q: %w", stmt, err)
		}
	}
	return tx.Commit()
}

// Close releases the underlying database connection. Safe to call once;
// the engine composition root owns the lifetime (spec.md §5).
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// lockedDB exposes the underlying *sql.DB for repositories in this package.
// Not exported outside package store: callers use the narrow repository
// contracts instead (Content, Collections, Documents, Contexts, Vectors,
// FTS, Cache), per spec.md §4.2.
func (s *Store) lockedDB() *sql.DB { return s.db }
