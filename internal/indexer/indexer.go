// Package indexer implements indexFiles (spec.md §4.4): walk a collection's
// files, hash/title/reconcile documents, and deactivate anything no longer
// present. Grounded on the teacher's Runner/Coordinator dependency-injection
// shape (internal/index/runner.go, internal/index/coordinator.go) but
// trimmed to the glossary's narrower contract — no checkpointing, no
// async/worker-pool fan-out, since spec.md's Indexer is a single pass.
package indexer

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/qmd-dev/qmd/internal/store"
	"github.com/qmd-dev/qmd/internal/walker"
)

// Options configures a single indexFiles run.
type Options struct {
	ExcludeDirs    []string
	FollowSymlinks bool
}

// ProgressFunc reports (current, total, relativePath) as files are indexed.
type ProgressFunc func(current, total int, relativePath string)

// Result is indexFiles' outcome (spec.md §4.4 step 7).
type Result struct {
	Indexed         int
	Updated         int
	Unchanged       int
	Removed         int
	OrphanedContent int
}

// Indexer owns the repositories indexFiles touches.
type Indexer struct {
	content     *store.Content
	collections *store.Collections
	documents   *store.Documents
	cache       *store.Cache
	logger      *slog.Logger
}

// New builds an Indexer over the given Store's repositories.
func New(s *store.Store, logger *slog.Logger) *Indexer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Indexer{
		content:     store.NewContent(s),
		collections: store.NewCollections(s),
		documents:   store.NewDocuments(s),
		cache:       store.NewCache(s),
		logger:      logger,
	}
}

// IndexFiles performs spec.md §4.4's full reconciliation pass for the
// collection keyed by (pwd, glob).
func (ix *Indexer) IndexFiles(pwd, glob string, opts Options, progress ProgressFunc) (*Result, error) {
	autoName := filepath.Base(filepath.Clean(pwd))
	coll, _, err := ix.collections.GetOrCreate(pwd, glob, autoName)
	if err != nil {
		return nil, err
	}

	paths, err := walker.Walk(walker.Options{
		Root:           pwd,
		Glob:           glob,
		FollowSymlinks: opts.FollowSymlinks,
		OnlyFiles:      true,
		ExcludeDirs:    opts.ExcludeDirs,
	})
	if err != nil {
		return nil, err
	}

	existing, err := ix.documents.ListActivePaths(coll.ID)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	seen := make(map[string]bool, len(paths))

	for i, relPath := range paths {
		seen[relPath] = true
		if progress != nil {
			progress(i+1, len(paths), relPath)
		}

		absPath := filepath.Join(pwd, relPath)
		body, readErr := os.ReadFile(absPath)
		if readErr != nil {
			ix.logger.Warn("skipping unreadable file", slog.String("path", absPath), slog.Any("error", readErr))
			continue
		}

		hash := sha256Hex(body)
		title := ExtractTitle(string(body), relPath)
		modTime := fileModTime(absPath)

		docID, existsAlready := existing[relPath]
		if !existsAlready {
			if err := ix.content.Insert(hash, string(body)); err != nil {
				return nil, err
			}
			if _, err := ix.documents.Create(coll.ID, relPath, title, hash, modTime); err != nil {
				return nil, err
			}
			result.Indexed++
			continue
		}

		doc, err := ix.documents.GetByID(docID)
		if err != nil {
			return nil, err
		}

		if doc.Hash == hash {
			if doc.Title != title {
				if err := ix.documents.UpdateTitle(doc.ID, title, time.Now()); err != nil {
					return nil, err
				}
				result.Updated++
			} else {
				result.Unchanged++
			}
			continue
		}

		if err := ix.content.Insert(hash, string(body)); err != nil {
			return nil, err
		}
		if err := ix.documents.UpdateContent(doc.ID, hash, title, time.Now()); err != nil {
			return nil, err
		}
		result.Updated++
	}

	for relPath, docID := range existing {
		if !seen[relPath] {
			if err := ix.documents.Deactivate(docID); err != nil {
				return nil, err
			}
			result.Removed++
		}
	}

	orphaned, err := ix.documents.CleanupOrphanedContent()
	if err != nil {
		return nil, err
	}
	result.OrphanedContent = orphaned

	if err := ix.collections.TouchUpdatedAt(coll.ID); err != nil {
		return nil, err
	}

	if result.Indexed > 0 || result.Updated > 0 || result.Removed > 0 {
		if err := ix.cache.Clear(); err != nil {
			return nil, err
		}
	}

	return result, nil
}

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func fileModTime(path string) time.Time {
	info, err := os.Stat(path)
	if err != nil {
		return time.Now()
	}
	return info.ModTime()
}
