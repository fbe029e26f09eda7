// Package walker implements the FileWalker capability spec.md's glossary
// names: given (root, glob, followSymlinks, onlyFiles), yield paths
// relative to root. Grounded on the teacher's internal/scanner.Scan
// goroutine/channel streaming shape (internal/scanner/scanner.go), trimmed
// to the glossary's simpler four-argument contract — no gitignore or
// submodule discovery, since spec.md names neither.
package walker

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultExcludeDirs mirrors internal/config's default excluded-directory
// set (spec.md §4.4).
var DefaultExcludeDirs = []string{"node_modules", ".git", ".cache", "vendor", "dist", "build"}

// Options configures a Walk call.
type Options struct {
	Root           string
	Glob           string
	FollowSymlinks bool
	OnlyFiles      bool
	ExcludeDirs    []string
}

// Walk yields paths relative to opts.Root matching opts.Glob, skipping any
// path component starting with "." or present in opts.ExcludeDirs
// (spec.md §4.4 step 2). Results are returned sorted for deterministic
// indexing order.
//
// Walk recurses by hand rather than via filepath.WalkDir: WalkDir decides
// whether to descend into an entry using the fs.DirEntry ReadDir produced
// for it, which for a symlink always reports IsDir()==false regardless of
// what a wrapper does afterward — there is no way to make WalkDir itself
// traverse a symlinked directory. Resolving symlinks and recursing
// manually is the only way to honor FollowSymlinks at any depth.
func Walk(opts Options) ([]string, error) {
	root := opts.Root
	if root == "" {
		root = "."
	}
	glob := opts.Glob
	if glob == "" {
		glob = "**/*"
	}
	exclude := opts.ExcludeDirs
	if exclude == nil {
		exclude = DefaultExcludeDirs
	}
	excluded := make(map[string]bool, len(exclude))
	for _, d := range exclude {
		excluded[d] = true
	}

	w := &walker{
		root:      root,
		glob:      glob,
		excluded:  excluded,
		follow:    opts.FollowSymlinks,
		onlyFiles: opts.OnlyFiles,
		visited:   make(map[string]bool),
	}

	if _, err := os.Stat(root); err != nil {
		return nil, err
	}
	if realRoot, err := filepath.EvalSymlinks(root); err == nil {
		w.visited[realRoot] = true
	}
	if err := w.walkDir(root); err != nil {
		return nil, err
	}

	sort.Strings(w.out)
	return w.out, nil
}

type walker struct {
	root      string
	glob      string
	excluded  map[string]bool
	follow    bool
	onlyFiles bool
	visited   map[string]bool // resolved real paths of directories already descended into, guards symlink cycles
	out       []string
}

func (w *walker) walkDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") || w.excluded[name] {
			continue
		}

		full := filepath.Join(dir, name)
		isSymlink := entry.Type()&os.ModeSymlink != 0
		isDir := entry.IsDir()

		if isSymlink {
			if !w.follow {
				if isDir {
					continue
				}
				if w.onlyFiles {
					continue
				}
			} else {
				resolved, statErr := os.Stat(full)
				if statErr != nil {
					continue // broken symlink
				}
				isDir = resolved.IsDir()
			}
		}

		if isDir {
			real, err := filepath.EvalSymlinks(full)
			if err != nil {
				real = full
			}
			if w.visited[real] {
				continue // symlink cycle
			}
			w.visited[real] = true
			if err := w.walkDir(full); err != nil {
				return err
			}
			continue
		}

		rel, err := filepath.Rel(w.root, full)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		match, err := doublestar.Match(w.glob, rel)
		if err != nil {
			return err
		}
		if match {
			w.out = append(w.out, rel)
		}
	}

	return nil
}
